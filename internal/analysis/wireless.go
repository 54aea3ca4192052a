package analysis

import (
	"sort"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pcaplens/internal/capture"
)

// Sane signal range in dBm. Values outside are dropped after correction.
const (
	signalMinDBm = -120
	signalMaxDBm = 0
)

// wirelessAccumulator extracts 802.11-specific features: frame types, retry
// flags, deauth/disassoc events, signal strength, channels, SSIDs, devices.
type wirelessAccumulator struct {
	frameTypes map[string]int

	deauthEvents   []WirelessEvent
	deauthTotal    int
	deauthReasons  map[uint16]int
	disassocEvents []WirelessEvent
	disassocTotal  int

	totalFrames int
	retryFrames int

	signalSum     int64
	signalSamples int
	signalMin     int
	signalMax     int

	channels map[int]int
	ssids    map[string]bool
	hidden   int

	devices map[string]*EndpointStat

	firstTimestamp float64
	started        bool
}

func newWirelessAccumulator() *wirelessAccumulator {
	return &wirelessAccumulator{
		frameTypes:    make(map[string]int),
		deauthReasons: make(map[uint16]int),
		channels:      make(map[int]int),
		ssids:         make(map[string]bool),
		devices:       make(map[string]*EndpointStat),
	}
}

// fold processes one 802.11 frame. Frames without a Dot11 header still count
// toward the retry denominator via radio metadata handling upstream.
func (a *wirelessAccumulator) fold(f *capture.Frame) string {
	if !a.started {
		a.firstTimestamp = f.Timestamp
		a.started = true
	}

	if f.Radio != nil {
		a.foldRadio(f.Radio)
	}

	d := f.Dot11
	if d == nil {
		return "Non-802.11"
	}

	label := dot11TypeName(d.Type)
	a.frameTypes[label]++
	a.totalFrames++
	if d.Retry {
		a.retryFrames++
	}

	if d.Transmitter != "" {
		dev := a.devices[d.Transmitter]
		if dev == nil {
			dev = &EndpointStat{Address: d.Transmitter}
			a.devices[d.Transmitter] = dev
		}
		dev.Packets++
		dev.Bytes += int64(f.Length)
	}

	switch d.Type {
	case layers.Dot11TypeMgmtDeauthentication:
		a.foldTermination(f, d, true)
	case layers.Dot11TypeMgmtDisassociation:
		a.foldTermination(f, d, false)
	case layers.Dot11TypeMgmtBeacon, layers.Dot11TypeMgmtProbeResp, layers.Dot11TypeMgmtProbeReq:
		a.foldSSID(d)
	}

	return label
}

// foldTermination records a deauth or disassoc event. Storage is capped at
// 50 events each; the full counts are retained for anomaly math.
func (a *wirelessAccumulator) foldTermination(f *capture.Frame, d *capture.Dot11Info, deauth bool) {
	var reason uint16
	if d.HasReason {
		reason = d.ReasonCode
	}

	event := WirelessEvent{
		Src:        d.Transmitter,
		Dst:        d.Receiver,
		ReasonCode: reason,
		ReasonText: dot11ReasonName(reason),
		TimeOffset: f.Timestamp - a.firstTimestamp,
	}

	if deauth {
		a.deauthTotal++
		a.deauthReasons[reason]++
		if len(a.deauthEvents) < maxWirelessEvents {
			a.deauthEvents = append(a.deauthEvents, event)
		}
		return
	}

	a.disassocTotal++
	if len(a.disassocEvents) < maxWirelessEvents {
		a.disassocEvents = append(a.disassocEvents, event)
	}
}

// foldSSID reads the first SSID information element of beacon/probe frames.
// All-zero or undecodable SSIDs are treated as absent (hidden network).
func (a *wirelessAccumulator) foldSSID(d *capture.Dot11Info) {
	if !d.HasSSID {
		return
	}
	if d.SSID == "" || allZero(d.SSID) {
		a.hidden++
		return
	}
	a.ssids[d.SSID] = true
}

// foldRadio records signal strength and maps frequency to channel. Signal
// values reported as unsigned are corrected by subtracting 256; unmapped
// frequencies are dropped, not estimated.
func (a *wirelessAccumulator) foldRadio(r *capture.RadioInfo) {
	if r.HasSignal {
		signal := r.SignalDBm
		if signal > 0 {
			signal -= 256
		}
		if signal >= signalMinDBm && signal <= signalMaxDBm {
			if a.signalSamples == 0 || signal < a.signalMin {
				a.signalMin = signal
			}
			if a.signalSamples == 0 || signal > a.signalMax {
				a.signalMax = signal
			}
			a.signalSum += int64(signal)
			a.signalSamples++
		}
	}

	if r.HasFrequency {
		if channel, ok := frequencyToChannel[r.FrequencyMHz]; ok {
			a.channels[channel]++
		}
	}
}

// finalize writes the wireless aggregates into the summary.
func (a *wirelessAccumulator) finalize(s *Summary) {
	w := &WirelessSummary{
		FrameTypes:     topCounts(a.frameTypes, maxReportedProtocols),
		DeauthEvents:   a.deauthEvents,
		DeauthTotal:    a.deauthTotal,
		DisassocEvents: a.disassocEvents,
		DisassocTotal:  a.disassocTotal,
		HiddenSSIDs:    a.hidden,
	}

	w.Retry = RetryStats{Frames: a.totalFrames, Retries: a.retryFrames}
	if a.totalFrames > 0 {
		w.Retry.RatePct = float64(a.retryFrames) * 100 / float64(a.totalFrames)
	}

	if a.signalSamples > 0 {
		w.Signal = SignalStats{
			Samples: a.signalSamples,
			MinDBm:  a.signalMin,
			MaxDBm:  a.signalMax,
			AvgDBm:  float64(a.signalSum) / float64(a.signalSamples),
		}
	}

	for code, count := range a.deauthReasons {
		w.DeauthReasons = append(w.DeauthReasons, ReasonCount{
			Code:  code,
			Text:  dot11ReasonName(code),
			Count: count,
		})
	}
	sort.Slice(w.DeauthReasons, func(i, j int) bool {
		if w.DeauthReasons[i].Count != w.DeauthReasons[j].Count {
			return w.DeauthReasons[i].Count > w.DeauthReasons[j].Count
		}
		return w.DeauthReasons[i].Code < w.DeauthReasons[j].Code
	})

	for ch, count := range a.channels {
		w.Channels = append(w.Channels, ChannelCount{Channel: ch, Count: count})
	}
	sort.Slice(w.Channels, func(i, j int) bool { return w.Channels[i].Channel < w.Channels[j].Channel })

	for ssid := range a.ssids {
		w.SSIDs = append(w.SSIDs, ssid)
	}
	sort.Strings(w.SSIDs)

	w.Devices = topEndpoints(a.devices, maxWirelessDevices)

	s.Wireless = w
}

func allZero(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != 0 {
			return false
		}
	}
	return true
}

// topEndpoints ranks endpoint stats by packet count, ties broken by address.
func topEndpoints(m map[string]*EndpointStat, n int) []EndpointStat {
	out := make([]EndpointStat, 0, len(m))
	for _, e := range m {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Packets != out[j].Packets {
			return out[i].Packets > out[j].Packets
		}
		return out[i].Address < out[j].Address
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
