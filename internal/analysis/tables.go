package analysis

import (
	"fmt"

	"github.com/google/gopacket/layers"
)

// Static lookup tables. Unknown keys always resolve to an explicit
// "Unknown (...)" fallback rather than a missing-key error.

// ---------------------------------------------------------------------------
// TLS
// ---------------------------------------------------------------------------

var tlsVersionNames = map[uint16]string{
	0x0300: "SSL 3.0",
	0x0301: "TLS 1.0",
	0x0302: "TLS 1.1",
	0x0303: "TLS 1.2",
	0x0304: "TLS 1.3",
}

// deprecatedTLSVersions are flagged by the anomaly detector.
var deprecatedTLSVersions = map[string]bool{
	"SSL 3.0": true,
	"TLS 1.0": true,
	"TLS 1.1": true,
}

var tlsCipherNames = map[uint16]string{
	0x0004: "TLS_RSA_WITH_RC4_128_MD5",
	0x0005: "TLS_RSA_WITH_RC4_128_SHA",
	0x000A: "TLS_RSA_WITH_3DES_EDE_CBC_SHA",
	0x002F: "TLS_RSA_WITH_AES_128_CBC_SHA",
	0x0035: "TLS_RSA_WITH_AES_256_CBC_SHA",
	0x003C: "TLS_RSA_WITH_AES_128_CBC_SHA256",
	0x003D: "TLS_RSA_WITH_AES_256_CBC_SHA256",
	0x009C: "TLS_RSA_WITH_AES_128_GCM_SHA256",
	0x009D: "TLS_RSA_WITH_AES_256_GCM_SHA384",
	0x1301: "TLS_AES_128_GCM_SHA256",
	0x1302: "TLS_AES_256_GCM_SHA384",
	0x1303: "TLS_CHACHA20_POLY1305_SHA256",
	0xC009: "TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA",
	0xC00A: "TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA",
	0xC013: "TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA",
	0xC014: "TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA",
	0xC02B: "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
	0xC02C: "TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384",
	0xC02F: "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
	0xC030: "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
	0xCCA8: "TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256",
	0xCCA9: "TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256",
}

func tlsVersionName(v uint16) string {
	if name, ok := tlsVersionNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%04X)", v)
}

func tlsCipherName(c uint16) string {
	if name, ok := tlsCipherNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%04X)", c)
}

// ---------------------------------------------------------------------------
// Wired port / protocol classification
// ---------------------------------------------------------------------------

var wellKnownTCP = map[uint16]string{
	22:   "SSH",
	23:   "Telnet",
	80:   "HTTP",
	179:  "BGP",
	443:  "HTTPS/TLS",
	5060: "SIP",
	5061: "SIP/TLS",
}

var wellKnownUDP = map[uint16]string{
	53:   "DNS",
	123:  "NTP",
	161:  "SNMP",
	514:  "Syslog",
	5060: "SIP",
	5061: "SIP/TLS",
}

var ipProtoNames = map[uint8]string{
	47:  "GRE",
	88:  "EIGRP",
	89:  "OSPF",
	112: "VRRP",
}

// Routing/switching side-protocols recorded independently of primary labels.
const (
	hsrpPort = 1985
	glbpPort = 3222
)

// ---------------------------------------------------------------------------
// SIP
// ---------------------------------------------------------------------------

var sipRequestMethods = []string{
	"INVITE", "REGISTER", "ACK", "BYE", "CANCEL", "OPTIONS",
	"SUBSCRIBE", "NOTIFY", "REFER", "INFO", "MESSAGE", "UPDATE", "PRACK",
}

var sipStatusText = map[int]string{
	100: "Trying",
	180: "Ringing",
	183: "Session Progress",
	200: "OK",
	202: "Accepted",
	302: "Moved Temporarily",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	480: "Temporarily Unavailable",
	486: "Busy Here",
	487: "Request Terminated",
	488: "Not Acceptable Here",
	500: "Server Internal Error",
	503: "Service Unavailable",
	600: "Busy Everywhere",
	603: "Decline",
}

// ---------------------------------------------------------------------------
// RTP
// ---------------------------------------------------------------------------

var rtpCodecNames = map[uint8]string{
	0:  "PCMU",
	3:  "GSM",
	4:  "G723",
	8:  "PCMA",
	9:  "G722",
	10: "L16 (stereo)",
	11: "L16 (mono)",
	13: "CN",
	18: "G729",
	26: "JPEG",
	31: "H261",
	32: "MPV",
	33: "MP2T",
	34: "H263",
}

func rtpCodecName(pt uint8) string {
	if name, ok := rtpCodecNames[pt]; ok {
		return name
	}
	if pt >= 96 {
		return fmt.Sprintf("Dynamic (%d)", pt)
	}
	return fmt.Sprintf("Unknown (%d)", pt)
}

// ---------------------------------------------------------------------------
// 802.11 frame types
// ---------------------------------------------------------------------------

var dot11TypeNames = map[layers.Dot11Type]string{
	layers.Dot11TypeMgmtBeacon:            "Beacon",
	layers.Dot11TypeMgmtProbeReq:          "Probe Request",
	layers.Dot11TypeMgmtProbeResp:         "Probe Response",
	layers.Dot11TypeMgmtAuthentication:    "Authentication",
	layers.Dot11TypeMgmtDeauthentication:  "Deauthentication",
	layers.Dot11TypeMgmtDisassociation:    "Disassociation",
	layers.Dot11TypeMgmtAssociationReq:    "Association Request",
	layers.Dot11TypeMgmtAssociationResp:   "Association Response",
	layers.Dot11TypeMgmtReassociationReq:  "Reassociation Request",
	layers.Dot11TypeMgmtReassociationResp: "Reassociation Response",
	layers.Dot11TypeMgmtAction:            "Action",
	layers.Dot11TypeCtrlAck:               "ACK",
	layers.Dot11TypeCtrlRTS:               "RTS",
	layers.Dot11TypeCtrlCTS:               "CTS",
	layers.Dot11TypeCtrlBlockAck:          "Block ACK",
	layers.Dot11TypeCtrlBlockAckReq:       "Block ACK Request",
	layers.Dot11TypeDataQOSData:           "QoS Data",
	layers.Dot11TypeDataNull:              "Null Data",
}

func dot11TypeName(t layers.Dot11Type) string {
	if name, ok := dot11TypeNames[t]; ok {
		return name
	}
	switch t.MainType() {
	case layers.Dot11TypeMgmt:
		return "Management"
	case layers.Dot11TypeCtrl:
		return "Control"
	case layers.Dot11TypeData:
		return "Data"
	}
	return fmt.Sprintf("Unknown (0x%02X)", uint8(t))
}

// ---------------------------------------------------------------------------
// 802.11 deauth / disassoc reason codes (IEEE 802.11-2016 Table 9-45)
// ---------------------------------------------------------------------------

var dot11ReasonText = map[uint16]string{
	1:  "Unspecified reason",
	2:  "Previous authentication no longer valid",
	3:  "Station is leaving (or has left) the BSS",
	4:  "Disassociated due to inactivity",
	5:  "AP unable to handle all currently associated stations",
	6:  "Class 2 frame received from nonauthenticated station",
	7:  "Class 3 frame received from nonassociated station",
	8:  "Station is leaving (or has left) the BSS (disassociation)",
	9:  "Association requested before authentication complete",
	10: "Disassociated: power capability unacceptable",
	11: "Disassociated: supported channels unacceptable",
	13: "Invalid information element",
	14: "MIC failure",
	15: "4-way handshake timeout",
	16: "Group key handshake timeout",
	17: "Information element mismatch in 4-way handshake",
	18: "Invalid group cipher",
	19: "Invalid pairwise cipher",
	20: "Invalid AKMP",
	21: "Unsupported RSN information element version",
	22: "Invalid RSN information element capabilities",
	23: "IEEE 802.1X authentication failed",
	24: "Cipher suite rejected by security policy",
}

func dot11ReasonName(code uint16) string {
	if text, ok := dot11ReasonText[code]; ok {
		return text
	}
	return fmt.Sprintf("Unknown (%d)", code)
}

// ---------------------------------------------------------------------------
// Frequency → channel (2.4 GHz + common 5 GHz only)
// ---------------------------------------------------------------------------
// Unmapped frequencies are dropped, not estimated.

var frequencyToChannel = map[int]int{
	2412: 1, 2417: 2, 2422: 3, 2427: 4, 2432: 5, 2437: 6, 2442: 7,
	2447: 8, 2452: 9, 2457: 10, 2462: 11, 2467: 12, 2472: 13, 2484: 14,

	5180: 36, 5200: 40, 5220: 44, 5240: 48,
	5260: 52, 5280: 56, 5300: 60, 5320: 64,
	5500: 100, 5520: 104, 5540: 108, 5560: 112, 5580: 116,
	5600: 120, 5620: 124, 5640: 128, 5660: 132, 5680: 136, 5700: 140,
	5745: 149, 5765: 153, 5785: 157, 5805: 161, 5825: 165,
}
