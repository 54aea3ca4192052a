package capture

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Source supplies an ordered sequence of decoded frames.
// Next returns io.EOF when the sequence is exhausted.
// Timestamps are assumed non-decreasing; the engine does not verify this.
type Source interface {
	Next() (*Frame, error)
}

// pcap file magics, both byte orders, plus the nanosecond variants and the
// pcapng section header block type.
const (
	magicPcapBE   = 0xa1b2c3d4
	magicPcapLE   = 0xd4c3b2a1
	magicPcapNsBE = 0xa1b23c4d
	magicPcapNsLE = 0x4d3cb2a1
	magicPcapNg   = 0x0a0d0d0a
)

// packetReader abstracts pcapgo.Reader and pcapgo.NgReader.
type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// FileSource reads frames from a pcap or pcapng file without cgo.
// The format is detected from the file magic. A positive maxPackets bound
// truncates the sequence; it must be validated by the caller's config layer
// before the source is handed to the engine.
type FileSource struct {
	file      *os.File
	reader    packetReader
	remaining int
}

// NewFileSource opens the capture file at path and prepares it for reading.
// maxPackets must be > 0; the source stops returning frames once reached.
func NewFileSource(path string, maxPackets int) (*FileSource, error) {
	if maxPackets <= 0 {
		return nil, fmt.Errorf("%w: max_packets must be > 0, got %d", ErrConfigInvalid, maxPackets)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}

	br := bufio.NewReader(f)
	magic, err := peekMagic(br)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read capture file header: %w", err)
	}

	var reader packetReader
	switch magic {
	case magicPcapNg:
		r, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to parse pcapng file: %w", err)
		}
		reader = r
	case magicPcapBE, magicPcapLE, magicPcapNsBE, magicPcapNsLE:
		r, err := pcapgo.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to parse pcap file: %w", err)
		}
		reader = r
	default:
		f.Close()
		return nil, fmt.Errorf("%w: magic 0x%08x", ErrUnknownFormat, magic)
	}

	return &FileSource{file: f, reader: reader, remaining: maxPackets}, nil
}

// Next returns the next decoded frame, or io.EOF when the file or the
// max_packets bound is exhausted.
func (s *FileSource) Next() (*Frame, error) {
	if s.remaining <= 0 {
		return nil, io.EOF
	}
	data, ci, err := s.reader.ReadPacketData()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read packet: %w", err)
	}
	s.remaining--
	return FrameFromPacket(data, ci, s.reader.LinkType()), nil
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	return s.file.Close()
}

func peekMagic(br *bufio.Reader) (uint32, error) {
	b, err := br.Peek(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// SliceSource serves frames from an in-memory slice. Used by tests and by
// callers that already hold a decoded sequence.
type SliceSource struct {
	frames []*Frame
	next   int
}

// NewSliceSource wraps the given frames in a Source.
func NewSliceSource(frames []*Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next returns the next frame, or io.EOF when the slice is exhausted.
func (s *SliceSource) Next() (*Frame, error) {
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}
