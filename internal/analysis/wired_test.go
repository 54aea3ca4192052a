package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pcaplens/internal/capture"
)

// ---------------------------------------------------------------------------
// DNS
// ---------------------------------------------------------------------------

func TestDNSAccumulatorDeduplicatesQueries(t *testing.T) {
	a := newDNSAccumulator()
	a.fold(&capture.DNSInfo{QueryName: "example.com"})
	a.fold(&capture.DNSInfo{QueryName: "example.com"})
	a.fold(&capture.DNSInfo{QueryName: "other.org"})
	a.fold(&capture.DNSInfo{IsResponse: true, ResponseCode: 0})
	a.fold(&capture.DNSInfo{IsResponse: true, ResponseCode: 3})

	var s DNSSummary
	a.finalize(&s)

	assert.Equal(t, 3, s.QueryTotal)
	assert.Equal(t, 2, s.ResponseTotal)
	assert.Equal(t, 1, s.NXDomainCount)
	assert.Equal(t, []string{"example.com", "other.org"}, s.Queries)
}

func TestDNSAccumulatorQueryCap(t *testing.T) {
	a := newDNSAccumulator()
	for i := 0; i < maxDNSQueries+20; i++ {
		a.fold(&capture.DNSInfo{QueryName: fmt.Sprintf("host%d.example.com", i)})
	}

	var s DNSSummary
	a.finalize(&s)

	assert.Len(t, s.Queries, maxDNSQueries)
	assert.Equal(t, maxDNSQueries+20, s.QueryTotal)
}

// ---------------------------------------------------------------------------
// TCP
// ---------------------------------------------------------------------------

func dataSegment(seq uint32) *capture.Frame {
	f := tcpFrame("10.0.0.1", "10.0.0.2", 40000, 80)
	f.TCPSeq = seq
	f.Payload = []byte("x")
	return f
}

func TestTCPAccumulatorRetransmission(t *testing.T) {
	a := newTCPAccumulator()
	a.fold(dataSegment(1000))
	a.fold(dataSegment(2000))
	a.fold(dataSegment(1000)) // repeated seq with data: retransmission

	var s TCPSummary
	a.finalize(&s)

	assert.Equal(t, 1, s.Retransmissions)
	assert.Equal(t, 1, s.IssueTotal)
	require.Len(t, s.Issues, 1)
	assert.Contains(t, s.Issues[0], "10.0.0.1:40000-10.0.0.2:80/6")
	assert.Contains(t, s.Issues[0], "seq=1000")
}

func TestTCPAccumulatorIgnoresBareACKs(t *testing.T) {
	a := newTCPAccumulator()
	ack := tcpFrame("10.0.0.1", "10.0.0.2", 40000, 80)
	ack.TCPFlags.ACK = true
	ack.TCPSeq = 5000
	a.fold(ack)
	a.fold(ack)
	a.fold(ack)

	var s TCPSummary
	a.finalize(&s)
	assert.Zero(t, s.Retransmissions)
}

func TestTCPAccumulatorSeparateFlows(t *testing.T) {
	a := newTCPAccumulator()
	a.fold(dataSegment(1000))

	other := tcpFrame("10.0.0.3", "10.0.0.4", 40000, 80)
	other.TCPSeq = 1000
	other.Payload = []byte("x")
	a.fold(other)

	var s TCPSummary
	a.finalize(&s)
	assert.Zero(t, s.Retransmissions, "same seq on different flows is not a retransmission")
}

func TestTCPAccumulatorFlagCounts(t *testing.T) {
	a := newTCPAccumulator()

	syn := tcpFrame("10.0.0.1", "10.0.0.2", 40000, 80)
	syn.TCPFlags.SYN = true
	a.fold(syn)

	synAck := tcpFrame("10.0.0.2", "10.0.0.1", 80, 40000)
	synAck.TCPFlags.SYN = true
	synAck.TCPFlags.ACK = true
	a.fold(synAck) // not counted: only client SYNs

	rst := tcpFrame("10.0.0.2", "10.0.0.1", 80, 40000)
	rst.TCPFlags.RST = true
	a.fold(rst)

	var s TCPSummary
	a.finalize(&s)
	assert.Equal(t, 1, s.Syns)
	assert.Equal(t, 1, s.Resets)
}

func TestFlowWindowTrim(t *testing.T) {
	a := newTCPAccumulator()
	for i := 0; i < tcpSeqWindowCap; i++ {
		a.fold(dataSegment(uint32(i)))
	}

	w := a.windows["10.0.0.1:40000-10.0.0.2:80/6"]
	require.NotNil(t, w)
	assert.Len(t, w.order, tcpSeqWindowTrim)

	// A sequence inside the kept half is still detected.
	a.fold(dataSegment(uint32(tcpSeqWindowCap - 1)))
	var s TCPSummary
	a.finalize(&s)
	assert.Equal(t, 1, s.Retransmissions)
}

// ---------------------------------------------------------------------------
// HTTP
// ---------------------------------------------------------------------------

func TestHTTPAccumulatorRequest(t *testing.T) {
	a := newHTTPAccumulator()
	a.fold([]byte("GET /index.html HTTP/1.1\r\nHost: www.example.com\r\n\r\n"))
	a.fold([]byte("POST /api/v1/items HTTP/1.1\r\nHost: api.example.com\r\n\r\n"))

	var s HTTPSummary
	a.finalize(&s)

	assert.Equal(t, 2, s.Requests)
	assert.ElementsMatch(t, []string{"www.example.com", "api.example.com"}, s.Hosts)
	assert.ElementsMatch(t, []string{"/index.html", "/api/v1/items"}, s.Paths)
}

func TestHTTPAccumulatorRequiresVersionToken(t *testing.T) {
	a := newHTTPAccumulator()
	// SIP requests share method-like verbs; the version suffix keeps them out.
	a.fold([]byte("OPTIONS sip:carol@example.com SIP/2.0\r\n"))
	a.fold([]byte("GET lost in random text"))

	var s HTTPSummary
	a.finalize(&s)
	assert.Zero(t, s.Requests)
}

func TestHTTPAccumulatorResponseClasses(t *testing.T) {
	a := newHTTPAccumulator()
	a.fold([]byte("HTTP/1.1 200 OK\r\n\r\n"))
	a.fold([]byte("HTTP/1.1 301 Moved Permanently\r\n\r\n"))
	a.fold([]byte("HTTP/1.1 404 Not Found\r\n\r\n"))
	a.fold([]byte("HTTP/1.0 503 Service Unavailable\r\n\r\n"))
	a.fold([]byte("HTTP/1.1 999 Nonsense\r\n\r\n")) // out of range: ignored

	var s HTTPSummary
	a.finalize(&s)

	assert.Equal(t, 4, s.Responses)
	assert.Equal(t, 1, s.Status2xx)
	assert.Equal(t, 1, s.Status3xx)
	assert.Equal(t, 1, s.Status4xx)
	assert.Equal(t, 1, s.Status5xx)
}

// ---------------------------------------------------------------------------
// VoIP folding
// ---------------------------------------------------------------------------

func TestVoIPAccumulatorSIPAndRTP(t *testing.T) {
	a := newVoIPAccumulator()

	a.fold(udpFrame("10.0.0.1", "10.0.0.2", 5060, 5060,
		[]byte("INVITE sip:bob@example.com SIP/2.0\r\n")))
	a.fold(udpFrame("10.0.0.2", "10.0.0.1", 5060, 5060,
		[]byte("SIP/2.0 401 Unauthorized\r\n")))
	a.fold(udpFrame("10.0.0.2", "10.0.0.1", 5060, 5060,
		[]byte("SIP/2.0 486 Busy Here\r\n")))

	a.fold(udpFrame("10.0.0.1", "10.0.0.2", 10000, 20000, makeRTPPayload(0, 111)))
	a.fold(udpFrame("10.0.0.1", "10.0.0.2", 10000, 20000, makeRTPPayload(0, 111)))
	a.fold(udpFrame("10.0.0.1", "10.0.0.2", 10002, 20002, makeRTPPayload(8, 222)))

	var s VoIPSummary
	a.finalize(&s)

	assert.Equal(t, 1, s.SIPRequests)
	assert.Equal(t, 2, s.SIPResponses)
	assert.Equal(t, 1, s.AuthFailures)
	assert.Equal(t, 1, s.BusyResponses)
	assert.Equal(t, 2, s.RTPStreams, "distinct SSRCs")
	assert.Equal(t, []string{"PCMA", "PCMU"}, s.RTPCodecs)
}

func TestVoIPAccumulatorSkipsRTPOnDNSFrames(t *testing.T) {
	a := newVoIPAccumulator()
	f := udpFrame("10.0.0.1", "10.0.0.2", 40000, 53, makeRTPPayload(0, 1))
	f.Layers |= capture.LayerDNS
	a.fold(f)

	var s VoIPSummary
	a.finalize(&s)
	assert.Zero(t, s.RTPStreams)
}

func TestVoIPAccumulatorSIPOverTCPRequiresSIPPort(t *testing.T) {
	a := newVoIPAccumulator()

	onPort := tcpFrame("10.0.0.1", "10.0.0.2", 40000, 5060)
	onPort.Payload = []byte("REGISTER sip:example.com SIP/2.0\r\n")
	a.fold(onPort)

	offPort := tcpFrame("10.0.0.1", "10.0.0.2", 40000, 8080)
	offPort.Payload = []byte("REGISTER sip:example.com SIP/2.0\r\n")
	a.fold(offPort)

	var s VoIPSummary
	a.finalize(&s)
	assert.Equal(t, 1, s.SIPRequests)
}

// ---------------------------------------------------------------------------
// Endpoint / conversation accounting
// ---------------------------------------------------------------------------

func TestWiredAccumulatorConversationsAreDirectionless(t *testing.T) {
	a := newWiredAccumulator()
	a.fold(tcpFrame("10.0.0.1", "10.0.0.2", 40000, 80))
	a.fold(tcpFrame("10.0.0.2", "10.0.0.1", 80, 40000))

	var s Summary
	a.finalize(&s)

	require.Len(t, s.Conversations, 1)
	conv := s.Conversations[0]
	assert.Equal(t, "10.0.0.1", conv.AddrA)
	assert.Equal(t, "10.0.0.2", conv.AddrB)
	assert.Equal(t, 2, conv.Packets)

	require.Len(t, s.TopTalkers, 2)
	assert.Equal(t, 2, s.TopTalkers[0].Packets)
}

func TestWiredAccumulatorICMPUnreachable(t *testing.T) {
	a := newWiredAccumulator()
	f := ipFrame("10.0.0.1", "10.0.0.2")
	f.Layers |= capture.LayerICMP
	f.ICMPType = 3
	a.fold(f)

	echo := ipFrame("10.0.0.1", "10.0.0.2")
	echo.Layers |= capture.LayerICMP
	echo.ICMPType = 8
	a.fold(echo)

	var s Summary
	a.finalize(&s)
	assert.Equal(t, 1, s.ICMPUnreachable)
}

func TestWiredAccumulatorRoutingProtocols(t *testing.T) {
	a := newWiredAccumulator()
	ospf := ipFrame("10.0.0.1", "224.0.0.5")
	ospf.IPProto = 89
	a.fold(ospf)
	a.fold(ospf)
	a.fold(tcpFrame("10.0.0.1", "10.0.0.2", 40000, 179))

	var s Summary
	a.finalize(&s)
	assert.Equal(t, []string{"BGP", "OSPF"}, s.RoutingProtocols)
}
