package capture

import (
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// FrameFromPacket converts one captured packet into the engine's Frame model.
// Decode failures are never fatal: whatever layers gopacket managed to decode
// are surfaced in the tag set and the rest is simply absent.
func FrameFromPacket(data []byte, ci gopacket.CaptureInfo, linkType layers.LinkType) *Frame {
	pkt := gopacket.NewPacket(data, linkType, gopacket.Default)

	frame := &Frame{
		Timestamp: float64(ci.Timestamp.UnixNano()) / 1e9,
		Length:    ci.Length,
	}
	if frame.Length == 0 {
		frame.Length = len(data)
	}

	for _, layer := range pkt.Layers() {
		switch l := layer.(type) {
		case *layers.Ethernet:
			frame.Layers |= LayerEthernet
			frame.Link = "Ethernet"
		case *layers.IPv4:
			frame.Layers |= LayerIPv4
			frame.SrcIP = addrFromIP(l.SrcIP)
			frame.DstIP = addrFromIP(l.DstIP)
			frame.IPProto = uint8(l.Protocol)
		case *layers.IPv6:
			frame.Layers |= LayerIPv6
			frame.SrcIP = addrFromIP(l.SrcIP)
			frame.DstIP = addrFromIP(l.DstIP)
			frame.IPProto = uint8(l.NextHeader)
		case *layers.TCP:
			frame.Layers |= LayerTCP
			frame.SrcPort = uint16(l.SrcPort)
			frame.DstPort = uint16(l.DstPort)
			frame.TCPFlags = TCPFlags{SYN: l.SYN, ACK: l.ACK, RST: l.RST, FIN: l.FIN}
			frame.TCPSeq = l.Seq
			frame.Payload = l.Payload
		case *layers.UDP:
			frame.Layers |= LayerUDP
			frame.SrcPort = uint16(l.SrcPort)
			frame.DstPort = uint16(l.DstPort)
			frame.Payload = l.Payload
		case *layers.ICMPv4:
			frame.Layers |= LayerICMP
			frame.ICMPType = l.TypeCode.Type()
		case *layers.ICMPv6:
			frame.Layers |= LayerICMP
			frame.ICMPType = l.TypeCode.Type()
		case *layers.ARP:
			frame.Layers |= LayerARP
		case *layers.DNS:
			frame.Layers |= LayerDNS
			frame.DNS = dnsInfo(l)
		case *layers.RadioTap:
			frame.Layers |= LayerRadioTap
			frame.Radio = radioInfo(l)
		case *layers.Dot11:
			frame.Layers |= LayerDot11
			frame.Dot11 = dot11Info(l)
		case *layers.Dot11MgmtDeauthentication:
			if frame.Dot11 != nil {
				frame.Dot11.ReasonCode = uint16(l.Reason)
				frame.Dot11.HasReason = true
			}
		case *layers.Dot11MgmtDisassociation:
			if frame.Dot11 != nil {
				frame.Dot11.ReasonCode = uint16(l.Reason)
				frame.Dot11.HasReason = true
			}
		case *layers.Dot11InformationElement:
			if frame.Dot11 != nil && !frame.Dot11.HasSSID &&
				l.ID == layers.Dot11InformationElementIDSSID {
				frame.Dot11.SSID = string(l.Info)
				frame.Dot11.HasSSID = true
			}
		}
	}

	if frame.Link == "" {
		if ll := pkt.LinkLayer(); ll != nil {
			frame.Link = ll.LayerType().String()
		} else {
			frame.Link = "Unknown"
		}
	}

	return frame
}

func dnsInfo(l *layers.DNS) *DNSInfo {
	info := &DNSInfo{
		IsResponse:   l.QR,
		ResponseCode: int(l.ResponseCode),
	}
	if len(l.Questions) > 0 {
		info.QueryName = string(l.Questions[0].Name)
	}
	return info
}

func radioInfo(l *layers.RadioTap) *RadioInfo {
	info := &RadioInfo{}
	if l.Present.DBMAntennaSignal() {
		info.SignalDBm = int(l.DBMAntennaSignal)
		info.HasSignal = true
	}
	if l.Present.Channel() {
		info.FrequencyMHz = int(l.ChannelFrequency)
		info.HasFrequency = true
	}
	return info
}

func dot11Info(l *layers.Dot11) *Dot11Info {
	info := &Dot11Info{
		Type:  l.Type,
		Retry: l.Flags.Retry(),
	}
	if l.Address1 != nil {
		info.Receiver = l.Address1.String()
	}
	if l.Address2 != nil {
		info.Transmitter = l.Address2.String()
	}
	return info
}

func addrFromIP(ip net.IP) netip.Addr {
	if ip4 := ip.To4(); ip4 != nil {
		var b [4]byte
		copy(b[:], ip4)
		return netip.AddrFrom4(b)
	}
	addr, _ := netip.AddrFromSlice(ip)
	return addr.Unmap()
}
