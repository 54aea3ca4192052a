package analysis

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
)

// SIPInfo classifies one payload as a SIP request or response.
type SIPInfo struct {
	IsRequest  bool
	Method     string
	StatusCode int
	StatusText string
}

var sipResponsePrefix = []byte("SIP/2.0 ")

// MatchSIP pattern-matches the payload start against the fixed set of SIP
// request methods followed by "sip:", or against "SIP/2.0 <code> <reason>".
// Returns nil when the payload is not SIP. Explicitly a heuristic classifier.
func MatchSIP(payload []byte) *SIPInfo {
	if len(payload) < 4 {
		return nil
	}

	if bytes.HasPrefix(payload, sipResponsePrefix) {
		rest := payload[len(sipResponsePrefix):]
		return matchSIPResponse(rest)
	}

	for _, method := range sipRequestMethods {
		if len(payload) <= len(method)+5 {
			continue
		}
		if bytes.HasPrefix(payload, []byte(method)) &&
			payload[len(method)] == ' ' &&
			bytes.HasPrefix(payload[len(method)+1:], []byte("sip:")) {
			return &SIPInfo{IsRequest: true, Method: method}
		}
	}
	return nil
}

func matchSIPResponse(rest []byte) *SIPInfo {
	// Status line: "<3-digit code> <reason phrase>\r\n"
	if len(rest) < 3 {
		return nil
	}
	code, err := strconv.Atoi(string(rest[:3]))
	if err != nil || code < 100 || code > 699 {
		return nil
	}

	text, ok := sipStatusText[code]
	if !ok {
		// Fall back to the captured reason phrase.
		text = capturedReason(rest[3:])
		if text == "" {
			text = fmt.Sprintf("Unknown (%d)", code)
		}
	}
	return &SIPInfo{StatusCode: code, StatusText: text}
}

func capturedReason(b []byte) string {
	if len(b) == 0 || b[0] != ' ' {
		return ""
	}
	b = b[1:]
	if i := bytes.IndexAny(b, "\r\n"); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// RTP heuristic constants. Rejections keep STUN and RTCP out of the stream
// estimate; this is not RFC-conformant demultiplexing.
const (
	rtpMinLength       = 12
	rtcpPayloadTypeLow = 72 // PT 72-76 collides with RTCP when masked
	rtcpPayloadTypeHi  = 76

	stunBindingRequest  = 0x0001
	stunBindingResponse = 0x0101
)

// RTPInfo is the stream identity extracted from one UDP payload.
type RTPInfo struct {
	SSRC        uint32
	PayloadType uint8
}

// MatchRTP applies the RTP header heuristic to a UDP payload: version bits
// must be 2, STUN binding magic and the RTCP payload-type range are
// rejected. Returns nil when the payload does not look like RTP.
func MatchRTP(payload []byte) *RTPInfo {
	if len(payload) < rtpMinLength {
		return nil
	}

	if (payload[0]>>6)&0x3 != 2 {
		return nil
	}

	if first := binary.BigEndian.Uint16(payload[:2]); first == stunBindingRequest || first == stunBindingResponse {
		return nil
	}

	pt := payload[1] & 0x7F
	if pt >= rtcpPayloadTypeLow && pt <= rtcpPayloadTypeHi {
		return nil
	}

	return &RTPInfo{
		SSRC:        binary.BigEndian.Uint32(payload[8:12]),
		PayloadType: pt,
	}
}
