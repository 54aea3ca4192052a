package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func anomaliesContain(t *testing.T, anomalies []string, prefix string) bool {
	t.Helper()
	for _, a := range anomalies {
		if strings.HasPrefix(a, prefix) {
			return true
		}
	}
	return false
}

func TestDetectAnomaliesCleanSummary(t *testing.T) {
	s := &Summary{CaptureType: "wired", TotalPackets: 100}
	assert.Empty(t, DetectAnomalies(s))
}

// ---------------------------------------------------------------------------
// Transport rules
// ---------------------------------------------------------------------------

func TestRSTFloodThreshold(t *testing.T) {
	s := &Summary{TotalPackets: 100, TCP: TCPSummary{Resets: 5}}
	assert.False(t, anomaliesContain(t, DetectAnomalies(s), "RST FLOOD"), "5% is not over the threshold")

	s.TCP.Resets = 6
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "RST FLOOD"))
}

func TestRetransmissionRule(t *testing.T) {
	s := &Summary{TotalPackets: 100, TCP: TCPSummary{Retransmissions: 1}}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "TCP RETRANSMISSIONS"))
}

func TestICMPUnreachableThreshold(t *testing.T) {
	s := &Summary{TotalPackets: 100, ICMPUnreachable: 10}
	assert.False(t, anomaliesContain(t, DetectAnomalies(s), "ICMP UNREACHABLE"))

	s.ICMPUnreachable = 11
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "ICMP UNREACHABLE"))
}

func TestNXDomainThreshold(t *testing.T) {
	s := &Summary{TotalPackets: 100, DNS: DNSSummary{NXDomainCount: 6}}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "DNS FAILURES"))
}

// ---------------------------------------------------------------------------
// Traffic rules
// ---------------------------------------------------------------------------

func TestBandwidthSpike(t *testing.T) {
	s := &Summary{
		TotalPackets: 100,
		TimeBuckets: []TimeBucket{
			{TimeOffset: 0, Bytes: 100},
			{TimeOffset: 1, Bytes: 100},
			{TimeOffset: 2, Bytes: 100},
			{TimeOffset: 3, Bytes: 2000},
		},
	}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "BANDWIDTH SPIKE"))
}

func TestMicroBurst(t *testing.T) {
	s := &Summary{TotalPackets: 100, AvgThroughputBPS: 1000, PeakThroughputBPS: 11000}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "MICRO-BURST"))

	s.PeakThroughputBPS = 9000
	assert.False(t, anomaliesContain(t, DetectAnomalies(s), "MICRO-BURST"))
}

func TestJumboFrames(t *testing.T) {
	s := &Summary{TotalPackets: 10, FrameSizes: FrameSizeStats{Max: 1518}}
	assert.False(t, anomaliesContain(t, DetectAnomalies(s), "JUMBO FRAMES"))

	s.FrameSizes.Max = 1519
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "JUMBO FRAMES"))
}

// ---------------------------------------------------------------------------
// HTTP / TLS / VoIP rules
// ---------------------------------------------------------------------------

func TestHTTPErrorRules(t *testing.T) {
	s := &Summary{TotalPackets: 100, HTTP: HTTPSummary{Responses: 100, Status5xx: 11}}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "HTTP SERVER ERRORS"))

	s = &Summary{TotalPackets: 100, HTTP: HTTPSummary{Responses: 10, Status4xx: 4}}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "HTTP CLIENT ERROR RATE"))

	s.HTTP.Status4xx = 3 // exactly 30%, not over
	assert.False(t, anomaliesContain(t, DetectAnomalies(s), "HTTP CLIENT ERROR RATE"))
}

func TestDeprecatedTLSRule(t *testing.T) {
	s := &Summary{TotalPackets: 10, TLS: TLSSummary{DeprecatedVersions: []string{"SSL 3.0", "TLS 1.0"}}}
	got := DetectAnomalies(s)
	assert.True(t, anomaliesContain(t, got, "DEPRECATED TLS"))
	assert.Contains(t, got[0], "SSL 3.0, TLS 1.0")
}

func TestVoIPRules(t *testing.T) {
	s := &Summary{TotalPackets: 10, VoIP: VoIPSummary{AuthFailures: 6}}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "SIP AUTH FAILURES"))

	s = &Summary{TotalPackets: 10, VoIP: VoIPSummary{BusyResponses: 11}}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "SIP BUSY/DECLINE"))
}

// ---------------------------------------------------------------------------
// Wireless rules
// ---------------------------------------------------------------------------

func TestDeauthFloodShortCapture(t *testing.T) {
	s := &Summary{
		TotalPackets:    20,
		DurationSeconds: 4,
		Wireless:        &WirelessSummary{DeauthTotal: 15},
	}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "DEAUTH FLOOD"))
}

func TestDeauthFloodLongSlowCaptureDoesNotFire(t *testing.T) {
	s := &Summary{
		TotalPackets:    20,
		DurationSeconds: 200,
		Wireless:        &WirelessSummary{DeauthTotal: 15}, // 0.075/s over 200s
	}
	assert.False(t, anomaliesContain(t, DetectAnomalies(s), "DEAUTH FLOOD"))
}

func TestDeauthFloodHighRate(t *testing.T) {
	s := &Summary{
		TotalPackets:    200,
		DurationSeconds: 60,
		Wireless:        &WirelessSummary{DeauthTotal: 90}, // 1.5/s
	}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "DEAUTH FLOOD"))
}

func TestDisassociationStorm(t *testing.T) {
	s := &Summary{
		TotalPackets:    50,
		DurationSeconds: 10,
		Wireless:        &WirelessSummary{DisassocTotal: 15}, // 1.5/s
	}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "DISASSOCIATION STORM"))

	s.DurationSeconds = 100 // 0.15/s
	assert.False(t, anomaliesContain(t, DetectAnomalies(s), "DISASSOCIATION STORM"))
}

func TestDeauthReasonConcentration(t *testing.T) {
	s := &Summary{
		TotalPackets:    50,
		DurationSeconds: 100,
		Wireless: &WirelessSummary{
			DeauthTotal:   10,
			DeauthReasons: []ReasonCount{{Code: 7, Text: "Class 3 frame received from nonassociated station", Count: 9}},
		},
	}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "DEAUTH REASON CONCENTRATION"))

	s.Wireless.DeauthReasons[0].Count = 8 // exactly 80%, not over
	assert.False(t, anomaliesContain(t, DetectAnomalies(s), "DEAUTH REASON CONCENTRATION"))
}

func TestRetryRateRules(t *testing.T) {
	s := &Summary{TotalPackets: 100, Wireless: &WirelessSummary{Retry: RetryStats{RatePct: 31}}}
	got := DetectAnomalies(s)
	assert.True(t, anomaliesContain(t, got, "VERY HIGH RETRY RATE"))
	assert.False(t, anomaliesContain(t, got, "HIGH RETRY RATE"))

	s.Wireless.Retry.RatePct = 16
	got = DetectAnomalies(s)
	assert.True(t, anomaliesContain(t, got, "HIGH RETRY RATE"))

	s.Wireless.Retry.RatePct = 15
	assert.Empty(t, DetectAnomalies(s))
}

func TestWeakSignalRules(t *testing.T) {
	s := &Summary{TotalPackets: 100, Wireless: &WirelessSummary{
		Signal: SignalStats{Samples: 10, AvgDBm: -81},
	}}
	assert.True(t, anomaliesContain(t, DetectAnomalies(s), "VERY WEAK SIGNAL"))

	s.Wireless.Signal.AvgDBm = -76
	got := DetectAnomalies(s)
	assert.True(t, anomaliesContain(t, got, "WEAK SIGNAL"))
	assert.False(t, anomaliesContain(t, got, "VERY WEAK SIGNAL"))

	// No samples: signal rules stay silent regardless of the zero average.
	s.Wireless.Signal = SignalStats{}
	assert.Empty(t, DetectAnomalies(s))
}
