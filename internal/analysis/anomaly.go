package analysis

import "fmt"

// Rule thresholds. Evaluated once, after the pass, over the finished
// summary. Each rule is independent and additive.
const (
	rstFloodFraction        = 0.05
	icmpUnreachableMax      = 10
	nxdomainMax             = 5
	bucketSpikeFactor       = 3.0
	microBurstFactor        = 10.0
	http5xxMax              = 10
	http4xxFraction         = 0.30
	sipAuthFailureMax       = 5
	sipBusyMax              = 10
	deauthFloodCount        = 10
	deauthFloodShortCapture = 10.0 // seconds
	deauthFloodRate         = 1.0  // events per second
	disassocStormCount      = 10
	disassocStormRate       = 1.0
	reasonConcentration     = 0.80
	retryRateVeryHigh       = 30.0
	retryRateHigh           = 15.0
	signalVeryWeakDBm       = -80.0
	signalWeakDBm           = -75.0
)

// DetectAnomalies evaluates every rule over the aggregated summary and
// returns human-readable anomaly strings. Multiple rules may fire.
func DetectAnomalies(s *Summary) []string {
	anomalies := []string{}
	anomalies = append(anomalies, detectTransportAnomalies(s)...)
	anomalies = append(anomalies, detectTrafficAnomalies(s)...)
	anomalies = append(anomalies, detectHTTPAnomalies(s)...)
	anomalies = append(anomalies, detectTLSAnomalies(s)...)
	anomalies = append(anomalies, detectVoIPAnomalies(s)...)
	if s.Wireless != nil {
		anomalies = append(anomalies, detectWirelessAnomalies(s)...)
	}
	return anomalies
}

func detectTransportAnomalies(s *Summary) []string {
	var out []string

	if s.TCP.Retransmissions > 0 {
		out = append(out, fmt.Sprintf(
			"TCP RETRANSMISSIONS: %d repeated sequence numbers detected",
			s.TCP.Retransmissions))
	}

	if s.TotalPackets > 0 {
		frac := float64(s.TCP.Resets) / float64(s.TotalPackets)
		if frac > rstFloodFraction {
			out = append(out, fmt.Sprintf(
				"RST FLOOD: %d resets (%.1f%% of all packets)",
				s.TCP.Resets, frac*100))
		}
	}

	if s.ICMPUnreachable > icmpUnreachableMax {
		out = append(out, fmt.Sprintf(
			"ICMP UNREACHABLE: %d destination-unreachable messages",
			s.ICMPUnreachable))
	}

	if s.DNS.NXDomainCount > nxdomainMax {
		out = append(out, fmt.Sprintf(
			"DNS FAILURES: %d NXDOMAIN responses", s.DNS.NXDomainCount))
	}

	return out
}

func detectTrafficAnomalies(s *Summary) []string {
	var out []string

	if len(s.TimeBuckets) > 0 {
		var total int64
		for _, b := range s.TimeBuckets {
			total += b.Bytes
		}
		mean := float64(total) / float64(len(s.TimeBuckets))
		for _, b := range s.TimeBuckets {
			if mean > 0 && float64(b.Bytes) > bucketSpikeFactor*mean {
				out = append(out, fmt.Sprintf(
					"BANDWIDTH SPIKE: bucket at +%.1fs carried %.1fx the mean bucket volume",
					b.TimeOffset, float64(b.Bytes)/mean))
				break
			}
		}
	}

	if s.AvgThroughputBPS > 0 && s.PeakThroughputBPS > microBurstFactor*s.AvgThroughputBPS {
		out = append(out, fmt.Sprintf(
			"MICRO-BURST: peak throughput %s is %.1fx the average %s",
			formatBPS(s.PeakThroughputBPS),
			s.PeakThroughputBPS/s.AvgThroughputBPS,
			formatBPS(s.AvgThroughputBPS)))
	}

	if s.FrameSizes.Max > jumboFrameThresholdBytes {
		out = append(out, fmt.Sprintf(
			"JUMBO FRAMES: largest frame %d bytes exceeds %d",
			s.FrameSizes.Max, jumboFrameThresholdBytes))
	}

	return out
}

func detectHTTPAnomalies(s *Summary) []string {
	var out []string

	if s.HTTP.Status5xx > http5xxMax {
		out = append(out, fmt.Sprintf(
			"HTTP SERVER ERRORS: %d 5xx responses", s.HTTP.Status5xx))
	}

	if s.HTTP.Responses > 0 {
		frac := float64(s.HTTP.Status4xx) / float64(s.HTTP.Responses)
		if frac > http4xxFraction {
			out = append(out, fmt.Sprintf(
				"HTTP CLIENT ERROR RATE: %.1f%% of responses were 4xx",
				frac*100))
		}
	}

	return out
}

func detectTLSAnomalies(s *Summary) []string {
	if len(s.TLS.DeprecatedVersions) == 0 {
		return nil
	}
	list := ""
	for i, v := range s.TLS.DeprecatedVersions {
		if i > 0 {
			list += ", "
		}
		list += v
	}
	return []string{fmt.Sprintf("DEPRECATED TLS: %s in use", list)}
}

func detectVoIPAnomalies(s *Summary) []string {
	var out []string

	if s.VoIP.AuthFailures > sipAuthFailureMax {
		out = append(out, fmt.Sprintf(
			"SIP AUTH FAILURES: %d 401/403/407 responses", s.VoIP.AuthFailures))
	}
	if s.VoIP.BusyResponses > sipBusyMax {
		out = append(out, fmt.Sprintf(
			"SIP BUSY/DECLINE: %d 486/600 responses", s.VoIP.BusyResponses))
	}

	return out
}

func detectWirelessAnomalies(s *Summary) []string {
	var out []string
	w := s.Wireless
	duration := s.DurationSeconds

	if w.DeauthTotal > deauthFloodCount {
		rate := 0.0
		if duration > 0 {
			rate = float64(w.DeauthTotal) / duration
		}
		if duration < deauthFloodShortCapture || rate > deauthFloodRate {
			out = append(out, fmt.Sprintf(
				"DEAUTH FLOOD: %d deauthentication frames in %.1fs",
				w.DeauthTotal, duration))
		}
	}

	if w.DisassocTotal > disassocStormCount && duration > 0 {
		rate := float64(w.DisassocTotal) / duration
		if rate > disassocStormRate {
			out = append(out, fmt.Sprintf(
				"DISASSOCIATION STORM: %d disassociation frames (%.2f/s)",
				w.DisassocTotal, rate))
		}
	}

	if w.DeauthTotal > 0 && len(w.DeauthReasons) > 0 {
		top := w.DeauthReasons[0]
		frac := float64(top.Count) / float64(w.DeauthTotal)
		if frac > reasonConcentration {
			out = append(out, fmt.Sprintf(
				"DEAUTH REASON CONCENTRATION: reason %d (%s) accounts for %.0f%% of deauth events",
				top.Code, top.Text, frac*100))
		}
	}

	switch {
	case w.Retry.RatePct > retryRateVeryHigh:
		out = append(out, fmt.Sprintf(
			"VERY HIGH RETRY RATE: %.1f%% of frames retransmitted", w.Retry.RatePct))
	case w.Retry.RatePct > retryRateHigh:
		out = append(out, fmt.Sprintf(
			"HIGH RETRY RATE: %.1f%% of frames retransmitted", w.Retry.RatePct))
	}

	if w.Signal.Samples > 0 {
		switch {
		case w.Signal.AvgDBm < signalVeryWeakDBm:
			out = append(out, fmt.Sprintf(
				"VERY WEAK SIGNAL: average %.1f dBm", w.Signal.AvgDBm))
		case w.Signal.AvgDBm < signalWeakDBm:
			out = append(out, fmt.Sprintf(
				"WEAK SIGNAL: average %.1f dBm", w.Signal.AvgDBm))
		}
	}

	return out
}
