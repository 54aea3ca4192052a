package analysis

import "firestige.xyz/pcaplens/internal/capture"

// DetectCaptureType samples the leading frames and chooses the analysis
// pipeline. Wireless wins if any sampled frame exposes an 802.11 or radio
// metadata layer. Anything else, including an empty or undecodable sample,
// degrades to the more common wired pipeline. Never fails.
func DetectCaptureType(sample []*capture.Frame) CaptureType {
	for _, f := range sample {
		if f == nil {
			continue
		}
		if f.HasAny(capture.LayerDot11 | capture.LayerRadioTap) {
			return CaptureWireless
		}
	}
	return CaptureWired
}
