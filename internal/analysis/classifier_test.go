package analysis

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"firestige.xyz/pcaplens/internal/capture"
)

// ---------------------------------------------------------------------------
// Frame builders shared by the analysis tests
// ---------------------------------------------------------------------------

func ipFrame(src, dst string) *capture.Frame {
	return &capture.Frame{
		Layers: capture.LayerEthernet | capture.LayerIPv4,
		SrcIP:  netip.MustParseAddr(src),
		DstIP:  netip.MustParseAddr(dst),
		Length: 100,
	}
}

func tcpFrame(src, dst string, sport, dport uint16) *capture.Frame {
	f := ipFrame(src, dst)
	f.Layers |= capture.LayerTCP
	f.IPProto = 6
	f.SrcPort = sport
	f.DstPort = dport
	return f
}

func udpFrame(src, dst string, sport, dport uint16, payload []byte) *capture.Frame {
	f := ipFrame(src, dst)
	f.Layers |= capture.LayerUDP
	f.IPProto = 17
	f.SrcPort = sport
	f.DstPort = dport
	f.Payload = payload
	return f
}

func dnsFrame(query string, response bool, rcode int) *capture.Frame {
	f := udpFrame("10.0.0.1", "10.0.0.53", 40000, 53, []byte{0})
	f.Layers |= capture.LayerDNS
	f.DNS = &capture.DNSInfo{IsResponse: response, QueryName: query, ResponseCode: rcode}
	return f
}

// ---------------------------------------------------------------------------
// ClassifyFrame
// ---------------------------------------------------------------------------

func TestClassifyFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame *capture.Frame
		want  string
	}{
		{"dns beats transport ports", dnsFrame("example.com", false, 0), "DNS"},
		{"https by dst port", tcpFrame("10.0.0.1", "10.0.0.2", 40000, 443), "HTTPS/TLS"},
		{"https by src port", tcpFrame("10.0.0.2", "10.0.0.1", 443, 40000), "HTTPS/TLS"},
		{"plain tcp", tcpFrame("10.0.0.1", "10.0.0.2", 40000, 50000), "TCP"},
		{"ntp", udpFrame("10.0.0.1", "10.0.0.2", 40000, 123, nil), "NTP"},
		{"plain udp", udpFrame("10.0.0.1", "10.0.0.2", 40000, 50000, nil), "UDP"},
		{"sip over udp", udpFrame("10.0.0.1", "10.0.0.2", 5060, 5060, nil), "SIP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFrame(tt.frame))
		})
	}
}

func TestClassifyFramePortPrecedence(t *testing.T) {
	// Destination port is consulted before the source port.
	f := tcpFrame("10.0.0.1", "10.0.0.2", 443, 22)
	assert.Equal(t, "SSH", ClassifyFrame(f))
}

func TestClassifyFrameICMPAndARP(t *testing.T) {
	icmp := ipFrame("10.0.0.1", "10.0.0.2")
	icmp.Layers |= capture.LayerICMP
	icmp.IPProto = 1
	assert.Equal(t, "ICMP", ClassifyFrame(icmp))

	arp := &capture.Frame{Layers: capture.LayerEthernet | capture.LayerARP}
	assert.Equal(t, "ARP", ClassifyFrame(arp))
}

func TestClassifyFrameIPProtoTable(t *testing.T) {
	ospf := ipFrame("10.0.0.1", "224.0.0.5")
	ospf.IPProto = 89
	assert.Equal(t, "OSPF", ClassifyFrame(ospf))

	vrrp := ipFrame("10.0.0.1", "224.0.0.18")
	vrrp.IPProto = 112
	assert.Equal(t, "VRRP", ClassifyFrame(vrrp))

	unknown := ipFrame("10.0.0.1", "10.0.0.2")
	unknown.IPProto = 200
	assert.Equal(t, "IP (proto=200)", ClassifyFrame(unknown))
}

func TestClassifyFrameLinkFallback(t *testing.T) {
	f := &capture.Frame{Layers: capture.LayerEthernet, Link: "LLC"}
	assert.Equal(t, "LLC", ClassifyFrame(f))

	assert.Equal(t, "Unknown", ClassifyFrame(&capture.Frame{}))
}

// ---------------------------------------------------------------------------
// RoutingProtocol
// ---------------------------------------------------------------------------

func TestRoutingProtocol(t *testing.T) {
	ospf := ipFrame("10.0.0.1", "224.0.0.5")
	ospf.IPProto = 89
	got, ok := RoutingProtocol(ospf)
	assert.True(t, ok)
	assert.Equal(t, "OSPF", got)

	eigrp := ipFrame("10.0.0.1", "224.0.0.10")
	eigrp.IPProto = 88
	got, ok = RoutingProtocol(eigrp)
	assert.True(t, ok)
	assert.Equal(t, "EIGRP", got)

	got, ok = RoutingProtocol(tcpFrame("10.0.0.1", "10.0.0.2", 40000, 179))
	assert.True(t, ok)
	assert.Equal(t, "BGP", got)

	got, ok = RoutingProtocol(udpFrame("10.0.0.1", "224.0.0.2", hsrpPort, hsrpPort, nil))
	assert.True(t, ok)
	assert.Equal(t, "HSRP", got)

	got, ok = RoutingProtocol(udpFrame("10.0.0.1", "224.0.0.102", glbpPort, glbpPort, nil))
	assert.True(t, ok)
	assert.Equal(t, "GLBP", got)

	_, ok = RoutingProtocol(tcpFrame("10.0.0.1", "10.0.0.2", 40000, 80))
	assert.False(t, ok)
}
