// Package capture defines the decoded frame model consumed by the analysis
// engine and the sources that produce it.
package capture

import (
	"net/netip"

	"github.com/google/gopacket/layers"
)

// LayerKind is a bitflag set describing which decoded layers a frame carries.
// Classifiers match on this tag set instead of inspecting dynamic layer types.
type LayerKind uint32

const (
	LayerEthernet LayerKind = 1 << iota
	LayerIPv4
	LayerIPv6
	LayerTCP
	LayerUDP
	LayerICMP
	LayerARP
	LayerDNS
	LayerDot11
	LayerRadioTap
)

// TCPFlags holds the subset of TCP control flags the engine cares about.
type TCPFlags struct {
	SYN bool
	ACK bool
	RST bool
	FIN bool
}

// DNSInfo carries decoded DNS fields for one frame.
type DNSInfo struct {
	IsResponse   bool
	QueryName    string
	ResponseCode int // DNS RCODE; 3 = NXDOMAIN
}

// Dot11Info carries decoded 802.11 header fields for one frame.
// Type is the gopacket type/subtype conglomerate (e.g. Dot11TypeMgmtBeacon).
type Dot11Info struct {
	Type        layers.Dot11Type
	Retry       bool
	Transmitter string // Address2; empty for control frames without it
	Receiver    string // Address1
	ReasonCode  uint16 // deauth / disassoc reason
	HasReason   bool
	SSID        string
	HasSSID     bool
}

// RadioInfo carries RadioTap-equivalent per-frame radio metadata.
type RadioInfo struct {
	SignalDBm    int // as reported by the driver, may need sign correction
	HasSignal    bool
	FrequencyMHz int
	HasFrequency bool
}

// Frame is one decoded capture unit. Produced by a Source, consumed exactly
// once per analysis pass, never retained by the engine beyond bounded caches.
type Frame struct {
	Timestamp float64 // seconds since epoch, fractional
	Length    int     // original wire length
	Layers    LayerKind
	Link      string // link-layer fallback label when nothing else matches

	SrcIP   netip.Addr
	DstIP   netip.Addr
	IPProto uint8

	SrcPort  uint16
	DstPort  uint16
	TCPFlags TCPFlags
	TCPSeq   uint32
	ICMPType uint8

	// Payload is the raw transport payload (TCP/UDP application bytes).
	Payload []byte

	DNS   *DNSInfo
	Dot11 *Dot11Info
	Radio *RadioInfo
}

// Has reports whether the frame carries all layers in the given set.
func (f *Frame) Has(k LayerKind) bool {
	return f.Layers&k == k
}

// HasAny reports whether the frame carries at least one layer of the set.
func (f *Frame) HasAny(k LayerKind) bool {
	return f.Layers&k != 0
}

// FiveTuple renders the frame's flow identity as a stable string key.
// Frames without an IP layer return an empty key.
func (f *Frame) FiveTuple() string {
	if !f.SrcIP.IsValid() || !f.DstIP.IsValid() {
		return ""
	}
	b := make([]byte, 0, 64)
	b = f.SrcIP.AppendTo(b)
	b = append(b, ':')
	b = appendUint(b, uint(f.SrcPort))
	b = append(b, '-')
	b = f.DstIP.AppendTo(b)
	b = append(b, ':')
	b = appendUint(b, uint(f.DstPort))
	b = append(b, '/')
	b = appendUint(b, uint(f.IPProto))
	return string(b)
}

func appendUint(b []byte, v uint) []byte {
	if v >= 10 {
		b = appendUint(b, v/10)
	}
	return append(b, byte('0'+v%10))
}
