package analysis

import (
	"fmt"

	"firestige.xyz/pcaplens/internal/capture"
)

// ClassifyFrame maps one wired frame to a human-readable protocol label.
// Precedence: DNS layer, then transport well-known ports, then ICMP/ARP,
// then the IP protocol number table, then the link-layer fallback.
func ClassifyFrame(f *capture.Frame) string {
	if f.Has(capture.LayerDNS) {
		return "DNS"
	}

	switch {
	case f.Has(capture.LayerTCP):
		if label, ok := portLabel(wellKnownTCP, f.SrcPort, f.DstPort); ok {
			return label
		}
		return "TCP"
	case f.Has(capture.LayerUDP):
		if label, ok := portLabel(wellKnownUDP, f.SrcPort, f.DstPort); ok {
			return label
		}
		return "UDP"
	case f.Has(capture.LayerICMP):
		return "ICMP"
	case f.Has(capture.LayerARP):
		return "ARP"
	}

	if f.HasAny(capture.LayerIPv4 | capture.LayerIPv6) {
		if name, ok := ipProtoNames[f.IPProto]; ok {
			return name
		}
		return fmt.Sprintf("IP (proto=%d)", f.IPProto)
	}

	if f.Link != "" {
		return f.Link
	}
	return "Unknown"
}

// RoutingProtocol identifies routing/switching side-protocols, recorded
// into a separate detected-set independent of the primary label.
func RoutingProtocol(f *capture.Frame) (string, bool) {
	if f.HasAny(capture.LayerIPv4 | capture.LayerIPv6) {
		switch f.IPProto {
		case 89:
			return "OSPF", true
		case 88:
			return "EIGRP", true
		}
	}
	if f.Has(capture.LayerTCP) && (f.SrcPort == 179 || f.DstPort == 179) {
		return "BGP", true
	}
	if f.Has(capture.LayerUDP) {
		switch {
		case f.SrcPort == hsrpPort || f.DstPort == hsrpPort:
			return "HSRP", true
		case f.SrcPort == glbpPort || f.DstPort == glbpPort:
			return "GLBP", true
		}
	}
	return "", false
}

func portLabel(table map[uint16]string, src, dst uint16) (string, bool) {
	if label, ok := table[dst]; ok {
		return label, true
	}
	if label, ok := table[src]; ok {
		return label, true
	}
	return "", false
}
