package report

import (
	"fmt"
	"strings"

	"firestige.xyz/pcaplens/internal/analysis"
)

// RenderMarkdown renders a finished summary as Markdown text suitable for a
// human reader or an LLM prompt. Output is deterministic: the summary's
// lists are already sorted at finalize time.
func RenderMarkdown(s *analysis.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Capture Analysis (%s)\n\n", s.CaptureType)
	fmt.Fprintf(&b, "- Packets: %d\n", s.TotalPackets)
	fmt.Fprintf(&b, "- Bytes: %d\n", s.TotalBytes)
	fmt.Fprintf(&b, "- Duration: %.3f s\n", s.DurationSeconds)
	fmt.Fprintf(&b, "- Avg throughput: %s\n", formatBPS(s.AvgThroughputBPS))
	fmt.Fprintf(&b, "- Peak throughput: %s\n\n", formatBPS(s.PeakThroughputBPS))

	renderAnomalies(&b, s)
	renderProtocols(&b, s)
	renderTalkers(&b, s)
	renderFrameSizes(&b, s)
	renderTimeline(&b, s)
	renderDNS(&b, s)
	renderTCP(&b, s)
	renderHTTP(&b, s)
	renderTLS(&b, s)
	renderVoIP(&b, s)
	renderWireless(&b, s)

	return b.String()
}

func renderAnomalies(b *strings.Builder, s *analysis.Summary) {
	b.WriteString("## Anomalies\n\n")
	if len(s.Anomalies) == 0 {
		b.WriteString("None detected.\n\n")
		return
	}
	for _, a := range s.Anomalies {
		fmt.Fprintf(b, "- %s\n", a)
	}
	b.WriteString("\n")
}

func renderProtocols(b *strings.Builder, s *analysis.Summary) {
	b.WriteString("## Protocol Mix\n\n")
	for _, p := range s.Protocols {
		pct := 0.0
		if s.TotalPackets > 0 {
			pct = float64(p.Count) * 100 / float64(s.TotalPackets)
		}
		fmt.Fprintf(b, "- %s: %d (%.1f%%)\n", p.Protocol, p.Count, pct)
	}
	if len(s.RoutingProtocols) > 0 {
		fmt.Fprintf(b, "\nRouting/switching protocols detected: %s\n",
			strings.Join(s.RoutingProtocols, ", "))
	}
	b.WriteString("\n")
}

func renderTalkers(b *strings.Builder, s *analysis.Summary) {
	if len(s.TopTalkers) == 0 && len(s.Conversations) == 0 {
		return
	}
	b.WriteString("## Conversations\n\n")
	for _, t := range s.TopTalkers {
		fmt.Fprintf(b, "- talker %s: %d packets, %d bytes\n", t.Address, t.Packets, t.Bytes)
	}
	for _, c := range s.Conversations {
		fmt.Fprintf(b, "- %s <-> %s: %d packets, %d bytes\n", c.AddrA, c.AddrB, c.Packets, c.Bytes)
	}
	b.WriteString("\n")
}

func renderFrameSizes(b *strings.Builder, s *analysis.Summary) {
	b.WriteString("## Frame Sizes\n\n")
	fmt.Fprintf(b, "min=%d max=%d mean=%.1f median=%.1f\n\n",
		s.FrameSizes.Min, s.FrameSizes.Max, s.FrameSizes.Mean, s.FrameSizes.Median)
	for _, bucket := range s.SizeDistribution {
		fmt.Fprintf(b, "- %s bytes: %d\n", bucket.Range, bucket.Count)
	}
	b.WriteString("\n")
}

func renderTimeline(b *strings.Builder, s *analysis.Summary) {
	if len(s.TimeBuckets) == 0 {
		return
	}
	fmt.Fprintf(b, "## Traffic Timeline (%.0fs buckets)\n\n", s.BucketSeconds)
	for _, t := range s.TimeBuckets {
		tops := make([]string, 0, len(t.TopProtocols))
		for _, p := range t.TopProtocols {
			tops = append(tops, fmt.Sprintf("%s=%d", p.Protocol, p.Count))
		}
		fmt.Fprintf(b, "- +%.1fs: %d packets, %d bytes (%s)\n",
			t.TimeOffset, t.Packets, t.Bytes, strings.Join(tops, " "))
	}
	b.WriteString("\n")
}

func renderDNS(b *strings.Builder, s *analysis.Summary) {
	if s.DNS.QueryTotal == 0 && s.DNS.ResponseTotal == 0 {
		return
	}
	b.WriteString("## DNS\n\n")
	fmt.Fprintf(b, "queries=%d responses=%d nxdomain=%d\n",
		s.DNS.QueryTotal, s.DNS.ResponseTotal, s.DNS.NXDomainCount)
	for _, q := range s.DNS.Queries {
		fmt.Fprintf(b, "- %s\n", q)
	}
	b.WriteString("\n")
}

func renderTCP(b *strings.Builder, s *analysis.Summary) {
	b.WriteString("## TCP Health\n\n")
	fmt.Fprintf(b, "syns=%d resets=%d retransmissions=%d icmp_unreachable=%d\n",
		s.TCP.Syns, s.TCP.Resets, s.TCP.Retransmissions, s.ICMPUnreachable)
	if s.TCP.IssueTotal > len(s.TCP.Issues) {
		fmt.Fprintf(b, "showing %d of %d issues\n", len(s.TCP.Issues), s.TCP.IssueTotal)
	}
	for _, issue := range s.TCP.Issues {
		fmt.Fprintf(b, "- %s\n", issue)
	}
	b.WriteString("\n")
}

func renderHTTP(b *strings.Builder, s *analysis.Summary) {
	if s.HTTP.Requests == 0 && s.HTTP.Responses == 0 {
		return
	}
	b.WriteString("## HTTP\n\n")
	fmt.Fprintf(b, "requests=%d responses=%d 2xx=%d 3xx=%d 4xx=%d 5xx=%d\n",
		s.HTTP.Requests, s.HTTP.Responses,
		s.HTTP.Status2xx, s.HTTP.Status3xx, s.HTTP.Status4xx, s.HTTP.Status5xx)
	for _, m := range s.HTTP.Methods {
		fmt.Fprintf(b, "- method %s: %d\n", m.Protocol, m.Count)
	}
	for _, h := range s.HTTP.Hosts {
		fmt.Fprintf(b, "- host %s\n", h)
	}
	for _, p := range s.HTTP.Paths {
		fmt.Fprintf(b, "- path %s\n", p)
	}
	b.WriteString("\n")
}

func renderTLS(b *strings.Builder, s *analysis.Summary) {
	if s.TLS.ClientHellos == 0 && s.TLS.ServerHellos == 0 {
		return
	}
	b.WriteString("## TLS\n\n")
	fmt.Fprintf(b, "client_hellos=%d server_hellos=%d\n", s.TLS.ClientHellos, s.TLS.ServerHellos)
	for _, v := range s.TLS.Versions {
		fmt.Fprintf(b, "- version %s: %d\n", v.Protocol, v.Count)
	}
	for _, h := range s.TLS.SNIHosts {
		fmt.Fprintf(b, "- sni %s\n", h)
	}
	for _, c := range s.TLS.CipherSuites {
		fmt.Fprintf(b, "- cipher %s\n", c)
	}
	b.WriteString("\n")
}

func renderVoIP(b *strings.Builder, s *analysis.Summary) {
	if s.VoIP.SIPRequests == 0 && s.VoIP.SIPResponses == 0 && s.VoIP.RTPStreams == 0 {
		return
	}
	b.WriteString("## VoIP\n\n")
	fmt.Fprintf(b, "sip_requests=%d sip_responses=%d rtp_streams=%d (estimate)\n",
		s.VoIP.SIPRequests, s.VoIP.SIPResponses, s.VoIP.RTPStreams)
	for _, m := range s.VoIP.SIPMethods {
		fmt.Fprintf(b, "- %s: %d\n", m.Protocol, m.Count)
	}
	for _, c := range s.VoIP.SIPStatusCounts {
		fmt.Fprintf(b, "- %s: %d\n", c.Protocol, c.Count)
	}
	if len(s.VoIP.RTPCodecs) > 0 {
		fmt.Fprintf(b, "codecs: %s\n", strings.Join(s.VoIP.RTPCodecs, ", "))
	}
	b.WriteString("\n")
}

func renderWireless(b *strings.Builder, s *analysis.Summary) {
	w := s.Wireless
	if w == nil {
		return
	}
	b.WriteString("## Wireless\n\n")
	for _, t := range w.FrameTypes {
		fmt.Fprintf(b, "- %s: %d\n", t.Protocol, t.Count)
	}
	fmt.Fprintf(b, "\nretry rate: %.1f%% (%d/%d frames)\n",
		w.Retry.RatePct, w.Retry.Retries, w.Retry.Frames)
	if w.Signal.Samples > 0 {
		fmt.Fprintf(b, "signal: avg %.1f dBm (min %d, max %d, %d samples)\n",
			w.Signal.AvgDBm, w.Signal.MinDBm, w.Signal.MaxDBm, w.Signal.Samples)
	}
	for _, c := range w.Channels {
		fmt.Fprintf(b, "- channel %d: %d frames\n", c.Channel, c.Count)
	}
	if len(w.SSIDs) > 0 {
		fmt.Fprintf(b, "ssids: %s\n", strings.Join(w.SSIDs, ", "))
	}
	if w.HiddenSSIDs > 0 {
		fmt.Fprintf(b, "hidden networks observed: %d\n", w.HiddenSSIDs)
	}
	fmt.Fprintf(b, "deauth events: %d, disassoc events: %d\n", w.DeauthTotal, w.DisassocTotal)
	for _, e := range w.DeauthEvents {
		fmt.Fprintf(b, "- deauth +%.3fs %s -> %s reason %d (%s)\n",
			e.TimeOffset, e.Src, e.Dst, e.ReasonCode, e.ReasonText)
	}
	for _, e := range w.DisassocEvents {
		fmt.Fprintf(b, "- disassoc +%.3fs %s -> %s reason %d (%s)\n",
			e.TimeOffset, e.Src, e.Dst, e.ReasonCode, e.ReasonText)
	}
	for _, d := range w.Devices {
		fmt.Fprintf(b, "- device %s: %d packets, %d bytes\n", d.Address, d.Packets, d.Bytes)
	}
	b.WriteString("\n")
}

func formatBPS(bps float64) string {
	switch {
	case bps >= 1e9:
		return fmt.Sprintf("%.2f Gbps", bps/1e9)
	case bps >= 1e6:
		return fmt.Sprintf("%.2f Mbps", bps/1e6)
	case bps >= 1e3:
		return fmt.Sprintf("%.2f Kbps", bps/1e3)
	}
	return fmt.Sprintf("%.0f bps", bps)
}
