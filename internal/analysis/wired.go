package analysis

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"firestige.xyz/pcaplens/internal/capture"
)

// wiredAccumulator aggregates the wired pipeline's per-concern state. Each
// frame is folded into the aggregate via one sub-accumulator per concern,
// keeping the fold composable and independently testable.
type wiredAccumulator struct {
	protocols map[string]int
	routing   map[string]bool
	talkers   map[string]*EndpointStat
	convs     map[string]*ConversationStat

	dns  dnsAccumulator
	tcp  tcpAccumulator
	http httpAccumulator
	tls  tlsAccumulator
	voip voipAccumulator

	icmpUnreachable int
}

func newWiredAccumulator() *wiredAccumulator {
	return &wiredAccumulator{
		protocols: make(map[string]int),
		routing:   make(map[string]bool),
		talkers:   make(map[string]*EndpointStat),
		convs:     make(map[string]*ConversationStat),
		dns:       newDNSAccumulator(),
		tcp:       newTCPAccumulator(),
		http:      newHTTPAccumulator(),
		tls:       newTLSAccumulator(),
		voip:      newVoIPAccumulator(),
	}
}

// fold processes one frame and returns its protocol label.
func (a *wiredAccumulator) fold(f *capture.Frame) string {
	label := ClassifyFrame(f)
	a.protocols[label]++

	if rp, ok := RoutingProtocol(f); ok {
		a.routing[rp] = true
	}

	a.foldEndpoints(f)

	if f.Has(capture.LayerICMP) && f.ICMPType == 3 { // destination unreachable
		a.icmpUnreachable++
	}

	if f.Has(capture.LayerDNS) {
		a.dns.fold(f.DNS)
	}
	if f.Has(capture.LayerTCP) {
		a.tcp.fold(f)
		a.http.fold(f.Payload)
		a.tls.fold(f.Payload)
	}

	a.voip.fold(f)

	return label
}

func (a *wiredAccumulator) foldEndpoints(f *capture.Frame) {
	if !f.SrcIP.IsValid() || !f.DstIP.IsValid() {
		return
	}
	src, dst := f.SrcIP.String(), f.DstIP.String()

	for _, addr := range [2]string{src, dst} {
		t := a.talkers[addr]
		if t == nil {
			t = &EndpointStat{Address: addr}
			a.talkers[addr] = t
		}
		t.Packets++
		t.Bytes += int64(f.Length)
	}

	a.foldConversation(src, dst, f.Length)
}

func (a *wiredAccumulator) foldConversation(src, dst string, length int) {
	lo, hi := src, dst
	if lo > hi {
		lo, hi = hi, lo
	}
	key := lo + "|" + hi
	c := a.convs[key]
	if c == nil {
		c = &ConversationStat{AddrA: lo, AddrB: hi}
		a.convs[key] = c
	}
	c.Packets++
	c.Bytes += int64(length)
}

// finalize writes all wired aggregates into the summary.
func (a *wiredAccumulator) finalize(s *Summary) {
	s.Protocols = topCounts(a.protocols, maxReportedProtocols)

	for rp := range a.routing {
		s.RoutingProtocols = append(s.RoutingProtocols, rp)
	}
	sort.Strings(s.RoutingProtocols)

	s.TopTalkers = topEndpoints(a.talkers, maxTopTalkers)
	s.Conversations = topConversations(a.convs, maxConversations)
	s.ICMPUnreachable = a.icmpUnreachable

	a.dns.finalize(&s.DNS)
	a.tcp.finalize(&s.TCP)
	a.http.finalize(&s.HTTP)
	a.tls.finalize(&s.TLS)
	a.voip.finalize(&s.VoIP)
}

func topConversations(m map[string]*ConversationStat, n int) []ConversationStat {
	out := make([]ConversationStat, 0, len(m))
	for _, c := range m {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Packets != out[j].Packets {
			return out[i].Packets > out[j].Packets
		}
		if out[i].AddrA != out[j].AddrA {
			return out[i].AddrA < out[j].AddrA
		}
		return out[i].AddrB < out[j].AddrB
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ---------------------------------------------------------------------------
// DNS
// ---------------------------------------------------------------------------

type dnsAccumulator struct {
	queries   []string
	seen      map[string]bool
	queryTotal, responseTotal, nxdomain int
}

func newDNSAccumulator() dnsAccumulator {
	return dnsAccumulator{seen: make(map[string]bool)}
}

func (a *dnsAccumulator) fold(info *capture.DNSInfo) {
	if info == nil {
		return
	}
	if info.IsResponse {
		a.responseTotal++
		if info.ResponseCode == 3 { // NXDOMAIN
			a.nxdomain++
		}
		return
	}

	a.queryTotal++
	name := info.QueryName
	if name == "" || a.seen[name] {
		return
	}
	a.seen[name] = true
	if len(a.queries) < maxDNSQueries {
		a.queries = append(a.queries, name)
	}
}

func (a *dnsAccumulator) finalize(s *DNSSummary) {
	s.Queries = a.queries
	s.QueryTotal = a.queryTotal
	s.ResponseTotal = a.responseTotal
	s.NXDomainCount = a.nxdomain
}

// ---------------------------------------------------------------------------
// TCP
// ---------------------------------------------------------------------------

// flowWindow is the bounded per-5-tuple sequence tracking window:
// capped at 1000 entries, trimmed to the most recent 500 when full.
type flowWindow struct {
	order []uint32
	seen  map[uint32]int
}

type tcpAccumulator struct {
	windows map[string]*flowWindow

	issues          []string
	issueTotal      int
	retransmissions int
	resets          int
	syns            int
}

func newTCPAccumulator() tcpAccumulator {
	return tcpAccumulator{windows: make(map[string]*flowWindow)}
}

func (a *tcpAccumulator) fold(f *capture.Frame) {
	if f.TCPFlags.RST {
		a.resets++
	}
	if f.TCPFlags.SYN && !f.TCPFlags.ACK {
		a.syns++
	}

	// Sequence tracking only considers segments that carry data; bare ACKs
	// legitimately repeat sequence numbers.
	if len(f.Payload) == 0 {
		return
	}
	key := f.FiveTuple()
	if key == "" {
		return
	}

	w := a.windows[key]
	if w == nil {
		w = &flowWindow{seen: make(map[uint32]int)}
		a.windows[key] = w
	}

	if w.seen[f.TCPSeq] > 0 {
		a.retransmissions++
		a.issueTotal++
		if len(a.issues) < maxReportedTCPIssues {
			a.issues = append(a.issues,
				fmt.Sprintf("Retransmission on %s (seq=%d)", key, f.TCPSeq))
		}
	}

	w.order = append(w.order, f.TCPSeq)
	w.seen[f.TCPSeq]++

	if len(w.order) >= tcpSeqWindowCap {
		w.trim()
	}
}

// trim keeps the most recent half of the window.
func (w *flowWindow) trim() {
	keep := w.order[len(w.order)-tcpSeqWindowTrim:]
	w.order = append(w.order[:0], keep...)
	w.seen = make(map[uint32]int, len(w.order))
	for _, seq := range w.order {
		w.seen[seq]++
	}
}

func (a *tcpAccumulator) finalize(s *TCPSummary) {
	s.Issues = a.issues
	s.IssueTotal = a.issueTotal
	s.Retransmissions = a.retransmissions
	s.Resets = a.resets
	s.Syns = a.syns
}

// ---------------------------------------------------------------------------
// HTTP (heuristic line matcher, not a conformant parser)
// ---------------------------------------------------------------------------

var httpMethods = []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS", "PATCH"}

var (
	httpResponsePrefix = []byte("HTTP/1.")
	httpHostHeader     = []byte("Host:")
)

type httpAccumulator struct {
	requests, responses int
	methods             map[string]int
	hosts               []string
	hostSeen            map[string]bool
	paths               []string
	pathSeen            map[string]bool
	status              [4]int // 2xx..5xx
}

func newHTTPAccumulator() httpAccumulator {
	return httpAccumulator{
		methods:  make(map[string]int),
		hostSeen: make(map[string]bool),
		pathSeen: make(map[string]bool),
	}
}

func (a *httpAccumulator) fold(payload []byte) {
	if len(payload) < 5 {
		return
	}

	if bytes.HasPrefix(payload, httpResponsePrefix) {
		a.foldResponse(payload)
		return
	}

	for _, method := range httpMethods {
		if len(payload) > len(method)+1 &&
			bytes.HasPrefix(payload, []byte(method)) &&
			payload[len(method)] == ' ' {
			a.foldRequest(method, payload[len(method)+1:], payload)
			return
		}
	}
}

func (a *httpAccumulator) foldRequest(method string, rest, payload []byte) {
	// Require an HTTP version token on the request line to avoid matching
	// SIP requests and random text payloads.
	line := rest
	if i := bytes.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	if !bytes.HasSuffix(line, []byte("HTTP/1.1")) && !bytes.HasSuffix(line, []byte("HTTP/1.0")) {
		return
	}

	a.requests++
	a.methods[method]++

	if i := bytes.IndexByte(line, ' '); i > 0 {
		a.addPath(string(line[:i]))
	}
	a.addHost(payload)
}

func (a *httpAccumulator) foldResponse(payload []byte) {
	// "HTTP/1.x NNN ..."
	if len(payload) < 12 || payload[8] != ' ' {
		return
	}
	code, err := strconv.Atoi(string(payload[9:12]))
	if err != nil || code < 100 || code > 599 {
		return
	}
	a.responses++
	if code >= 200 {
		a.status[code/100-2]++
	}
}

func (a *httpAccumulator) addHost(payload []byte) {
	if len(a.hosts) >= maxHTTPHosts {
		return
	}
	for _, line := range bytes.Split(payload, []byte("\r\n")) {
		if !bytes.HasPrefix(line, httpHostHeader) {
			continue
		}
		host := string(bytes.TrimSpace(line[len(httpHostHeader):]))
		if host != "" && !a.hostSeen[host] {
			a.hostSeen[host] = true
			a.hosts = append(a.hosts, host)
		}
		return
	}
}

func (a *httpAccumulator) addPath(path string) {
	if path == "" || a.pathSeen[path] || len(a.paths) >= maxHTTPPaths {
		return
	}
	a.pathSeen[path] = true
	a.paths = append(a.paths, path)
}

func (a *httpAccumulator) finalize(s *HTTPSummary) {
	s.Requests = a.requests
	s.Responses = a.responses
	s.Methods = topCounts(a.methods, len(a.methods))
	s.Hosts = a.hosts
	s.Paths = a.paths
	s.Status2xx = a.status[0]
	s.Status3xx = a.status[1]
	s.Status4xx = a.status[2]
	s.Status5xx = a.status[3]
}

// ---------------------------------------------------------------------------
// TLS
// ---------------------------------------------------------------------------

type tlsAccumulator struct {
	clientHellos, serverHellos int
	versions                   map[string]int
	sniHosts                   []string
	sniSeen                    map[string]bool
	ciphers                    map[string]bool
}

func newTLSAccumulator() tlsAccumulator {
	return tlsAccumulator{
		versions: make(map[string]int),
		sniSeen:  make(map[string]bool),
		ciphers:  make(map[string]bool),
	}
}

func (a *tlsAccumulator) fold(payload []byte) {
	info := ParseTLSRecord(payload)
	if info == nil {
		return
	}

	if info.IsClientHello {
		a.clientHellos++
	}
	if info.IsServerHello {
		a.serverHellos++
	}
	if info.Version != "" {
		a.versions[info.Version]++
	}
	if info.SNI != "" && !a.sniSeen[info.SNI] {
		a.sniSeen[info.SNI] = true
		if len(a.sniHosts) < maxSNIHosts {
			a.sniHosts = append(a.sniHosts, info.SNI)
		}
	}
	if info.Cipher != "" {
		a.ciphers[info.Cipher] = true
	}
}

func (a *tlsAccumulator) finalize(s *TLSSummary) {
	s.ClientHellos = a.clientHellos
	s.ServerHellos = a.serverHellos
	s.Versions = topCounts(a.versions, len(a.versions))
	s.SNIHosts = a.sniHosts

	for c := range a.ciphers {
		s.CipherSuites = append(s.CipherSuites, c)
	}
	sort.Strings(s.CipherSuites)

	for v := range a.versions {
		if deprecatedTLSVersions[v] {
			s.DeprecatedVersions = append(s.DeprecatedVersions, v)
		}
	}
	sort.Strings(s.DeprecatedVersions)
}

// ---------------------------------------------------------------------------
// VoIP
// ---------------------------------------------------------------------------

type voipAccumulator struct {
	sipRequests, sipResponses int
	methods                   map[string]int
	statusCounts              map[string]int
	authFailures              int
	busyResponses             int

	ssrcs  map[uint32]bool
	codecs map[string]bool
}

func newVoIPAccumulator() voipAccumulator {
	return voipAccumulator{
		methods:      make(map[string]int),
		statusCounts: make(map[string]int),
		ssrcs:        make(map[uint32]bool),
		codecs:       make(map[string]bool),
	}
}

func (a *voipAccumulator) fold(f *capture.Frame) {
	if len(f.Payload) == 0 {
		return
	}

	isSIPPort := f.SrcPort == 5060 || f.DstPort == 5060 ||
		f.SrcPort == 5061 || f.DstPort == 5061

	if f.Has(capture.LayerUDP) || (f.Has(capture.LayerTCP) && isSIPPort) {
		if sip := MatchSIP(f.Payload); sip != nil {
			a.foldSIP(sip)
			return
		}
	}

	// RTP is only evaluated for UDP payloads that are not already DNS.
	if f.Has(capture.LayerUDP) && !f.Has(capture.LayerDNS) {
		if rtp := MatchRTP(f.Payload); rtp != nil {
			a.ssrcs[rtp.SSRC] = true
			a.codecs[rtpCodecName(rtp.PayloadType)] = true
		}
	}
}

func (a *voipAccumulator) foldSIP(sip *SIPInfo) {
	if sip.IsRequest {
		a.sipRequests++
		a.methods[sip.Method]++
		return
	}

	a.sipResponses++
	a.statusCounts[fmt.Sprintf("%d %s", sip.StatusCode, sip.StatusText)]++

	switch sip.StatusCode {
	case 401, 403, 407:
		a.authFailures++
	case 486, 600:
		a.busyResponses++
	}
}

func (a *voipAccumulator) finalize(s *VoIPSummary) {
	s.SIPRequests = a.sipRequests
	s.SIPResponses = a.sipResponses
	s.SIPMethods = topCounts(a.methods, len(a.methods))
	s.SIPStatusCounts = topCounts(a.statusCounts, len(a.statusCounts))
	s.AuthFailures = a.authFailures
	s.BusyResponses = a.busyResponses
	s.RTPStreams = len(a.ssrcs)

	for c := range a.codecs {
		s.RTPCodecs = append(s.RTPCodecs, c)
	}
	sort.Strings(s.RTPCodecs)
}
