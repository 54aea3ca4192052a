// Package analysis implements the capture analysis engine: frame
// classification, single-pass statistical aggregation, manual wire-format
// extraction (TLS, SIP/RTP, 802.11 management semantics), and rule-based
// anomaly detection.
package analysis

// CaptureType selects the analysis pipeline.
type CaptureType int

const (
	CaptureWired CaptureType = iota
	CaptureWireless
)

// String returns the serialized pipeline name.
func (t CaptureType) String() string {
	if t == CaptureWireless {
		return "wireless"
	}
	return "wired"
}

// Reporting caps. Every capped list additionally records the true total
// count, so truncation never biases percentage or anomaly math.
const (
	maxReportedProtocols     = 20
	maxTopTalkers            = 10
	maxConversations         = 10
	maxDNSQueries            = 50
	maxReportedTCPIssues     = 20
	tcpSeqWindowCap          = 1000
	tcpSeqWindowTrim         = 500
	maxWirelessEvents        = 50
	maxWirelessDevices       = 15
	maxTimeBuckets           = 120
	maxHTTPHosts             = 20
	maxHTTPPaths             = 20
	maxSNIHosts              = 20
	maxBucketProtocols       = 5
	defaultDetectionSample   = 20
	jumboFrameThresholdBytes = 1518
)

// ProtocolCount is one (label, count) pair in a frequency ranking.
type ProtocolCount struct {
	Protocol string `json:"protocol"`
	Count    int    `json:"count"`
}

// EndpointStat accumulates per-address traffic volume.
type EndpointStat struct {
	Address string `json:"address"`
	Packets int    `json:"packets"`
	Bytes   int64  `json:"bytes"`
}

// ConversationStat accumulates traffic volume for one address pair,
// direction-insensitive.
type ConversationStat struct {
	AddrA   string `json:"addr_a"`
	AddrB   string `json:"addr_b"`
	Packets int    `json:"packets"`
	Bytes   int64  `json:"bytes"`
}

// DNSSummary aggregates DNS observations.
type DNSSummary struct {
	Queries       []string `json:"queries,omitempty"` // deduplicated, cap 50
	QueryTotal    int      `json:"query_total"`
	ResponseTotal int      `json:"response_total"`
	NXDomainCount int      `json:"nxdomain_count"`
}

// TCPSummary aggregates TCP health observations.
type TCPSummary struct {
	Issues          []string `json:"issues,omitempty"` // cap 20 reported
	IssueTotal      int      `json:"issue_total"`
	Retransmissions int      `json:"retransmissions"`
	Resets          int      `json:"resets"`
	Syns            int      `json:"syns"`
}

// HTTPSummary aggregates heuristic HTTP observations.
type HTTPSummary struct {
	Requests     int             `json:"requests"`
	Responses    int             `json:"responses"`
	Methods      []ProtocolCount `json:"methods,omitempty"`
	Hosts        []string        `json:"hosts,omitempty"` // cap 20
	Paths        []string        `json:"paths,omitempty"` // cap 20
	Status2xx    int             `json:"status_2xx"`
	Status3xx    int             `json:"status_3xx"`
	Status4xx    int             `json:"status_4xx"`
	Status5xx    int             `json:"status_5xx"`
}

// TLSSummary aggregates handshake metadata extracted by the record parser.
type TLSSummary struct {
	ClientHellos       int             `json:"client_hellos"`
	ServerHellos       int             `json:"server_hellos"`
	Versions           []ProtocolCount `json:"versions,omitempty"`
	DeprecatedVersions []string        `json:"deprecated_versions,omitempty"`
	SNIHosts           []string        `json:"sni_hosts,omitempty"` // cap 20
	CipherSuites       []string        `json:"cipher_suites,omitempty"`
}

// VoIPSummary aggregates SIP/RTP heuristic observations. The RTP stream
// count is an estimate derived from distinct SSRCs, not an exact fact.
type VoIPSummary struct {
	SIPRequests     int             `json:"sip_requests"`
	SIPResponses    int             `json:"sip_responses"`
	SIPMethods      []ProtocolCount `json:"sip_methods,omitempty"`
	SIPStatusCounts []ProtocolCount `json:"sip_status_counts,omitempty"`
	AuthFailures    int             `json:"auth_failures"`   // 401/403/407
	BusyResponses   int             `json:"busy_responses"`  // 486/600
	RTPStreams      int             `json:"rtp_streams"`
	RTPCodecs       []string        `json:"rtp_codecs,omitempty"`
}

// FrameSizeStats summarizes the frame length population.
type FrameSizeStats struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// SizeBucket is one fixed byte-range bucket of the size distribution.
type SizeBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// TimeBucket is one interval of the adaptive traffic timeline. Created once
// after the pass, immutable thereafter.
type TimeBucket struct {
	TimeOffset   float64         `json:"time_offset"`
	Packets      int             `json:"packets"`
	Bytes        int64           `json:"bytes"`
	TopProtocols []ProtocolCount `json:"top_protocols,omitempty"` // top 5
}

// WirelessEvent is one deauthentication or disassociation frame.
type WirelessEvent struct {
	Src        string  `json:"src"`
	Dst        string  `json:"dst"`
	ReasonCode uint16  `json:"reason_code"`
	ReasonText string  `json:"reason_text"`
	TimeOffset float64 `json:"time_offset"`
}

// ReasonCount is the per-reason-code tally across all deauth events,
// including those beyond the stored-event cap.
type ReasonCount struct {
	Code  uint16 `json:"code"`
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// RetryStats summarizes the 802.11 retry-flag rate.
type RetryStats struct {
	Frames  int     `json:"frames"`
	Retries int     `json:"retries"`
	RatePct float64 `json:"rate_pct"`
}

// SignalStats summarizes radio signal strength in dBm.
type SignalStats struct {
	Samples int     `json:"samples"`
	MinDBm  int     `json:"min_dbm"`
	MaxDBm  int     `json:"max_dbm"`
	AvgDBm  float64 `json:"avg_dbm"`
}

// ChannelCount is the frame count observed on one Wi-Fi channel.
type ChannelCount struct {
	Channel int `json:"channel"`
	Count   int `json:"count"`
}

// WirelessSummary carries the 802.11-specific aggregates.
type WirelessSummary struct {
	FrameTypes     []ProtocolCount `json:"frame_types"`
	DeauthEvents   []WirelessEvent `json:"deauth_events,omitempty"` // cap 50 stored
	DeauthTotal    int             `json:"deauth_total"`
	DeauthReasons  []ReasonCount   `json:"deauth_reasons,omitempty"`
	DisassocEvents []WirelessEvent `json:"disassoc_events,omitempty"` // cap 50 stored
	DisassocTotal  int             `json:"disassoc_total"`
	Retry          RetryStats      `json:"retry_stats"`
	Signal         SignalStats     `json:"signal_stats"`
	Channels       []ChannelCount  `json:"channels,omitempty"`
	SSIDs          []string        `json:"ssids,omitempty"`
	HiddenSSIDs    int             `json:"hidden_ssids"`
	Devices        []EndpointStat  `json:"wireless_devices,omitempty"` // top 15
}

// Summary is the aggregate analysis result. It is built across one pass,
// finalized once, then treated as read-only output. All fields are plain
// scalars, sorted slices, and lists, so the whole struct serializes cleanly.
type Summary struct {
	CaptureType     string  `json:"capture_type"`
	TotalPackets    int     `json:"total_packets"`
	TotalBytes      int64   `json:"total_bytes"`
	StartTimestamp  float64 `json:"start_timestamp"`
	DurationSeconds float64 `json:"duration_seconds"`

	Protocols        []ProtocolCount `json:"protocols"` // top 20 reported
	RoutingProtocols []string        `json:"routing_protocols,omitempty"`

	TopTalkers    []EndpointStat     `json:"top_talkers,omitempty"`    // top 10
	Conversations []ConversationStat `json:"conversations,omitempty"` // top 10

	ICMPUnreachable int `json:"icmp_unreachable"`

	DNS  DNSSummary  `json:"dns"`
	TCP  TCPSummary  `json:"tcp"`
	HTTP HTTPSummary `json:"http"`
	TLS  TLSSummary  `json:"tls"`
	VoIP VoIPSummary `json:"voip"`

	FrameSizes        FrameSizeStats `json:"frame_size_stats"`
	SizeDistribution  []SizeBucket   `json:"frame_size_distribution"`
	AvgThroughputBPS  float64        `json:"avg_throughput_bps"`
	PeakThroughputBPS float64        `json:"peak_throughput_bps"`
	BucketSeconds     float64        `json:"bucket_seconds"`
	TimeBuckets       []TimeBucket   `json:"time_buckets,omitempty"` // hard cap 120

	Wireless *WirelessSummary `json:"wireless,omitempty"`

	Anomalies []string `json:"anomalies"`
}
