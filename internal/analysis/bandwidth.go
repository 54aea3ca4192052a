package analysis

import (
	"fmt"
	"math"
	"sort"
)

// Fixed frame-size distribution ranges plus an overflow bucket.
var sizeBucketBounds = []struct {
	label string
	hi    int
}{
	{"0-64", 64},
	{"65-128", 128},
	{"129-256", 256},
	{"257-512", 512},
	{"513-1024", 1024},
	{"1025-1518", 1518},
	{"1519-9000", 9000},
}

const sizeBucketOverflow = "9001+"

// frameSample is the per-frame record kept for post-pass sizing and
// time-bucket math. Bounded by the max_packets truncation.
type frameSample struct {
	offset   float64
	length   int
	protocol string
}

// bandwidthAccumulator computes frame-size statistics, throughput, and the
// adaptive time-bucketed traffic series.
type bandwidthAccumulator struct {
	samples        []frameSample
	bytesPerSecond map[int64]int64
	totalBytes     int64
	firstTimestamp float64
	lastTimestamp  float64
	started        bool
}

func newBandwidthAccumulator() *bandwidthAccumulator {
	return &bandwidthAccumulator{
		bytesPerSecond: make(map[int64]int64),
	}
}

// fold records one frame's size and protocol label.
func (a *bandwidthAccumulator) fold(timestamp float64, length int, protocol string) {
	if !a.started {
		a.firstTimestamp = timestamp
		a.started = true
	}
	a.lastTimestamp = timestamp
	a.totalBytes += int64(length)
	a.bytesPerSecond[int64(timestamp)] += int64(length)
	a.samples = append(a.samples, frameSample{
		offset:   timestamp - a.firstTimestamp,
		length:   length,
		protocol: protocol,
	})
}

func (a *bandwidthAccumulator) duration() float64 {
	if !a.started {
		return 0
	}
	return a.lastTimestamp - a.firstTimestamp
}

// finalize writes size stats, distribution, throughput, and time buckets
// into the summary.
func (a *bandwidthAccumulator) finalize(s *Summary) {
	s.TotalBytes = a.totalBytes
	s.StartTimestamp = a.firstTimestamp
	s.DurationSeconds = a.duration()

	s.FrameSizes = a.sizeStats()
	s.SizeDistribution = a.sizeDistribution()

	if s.DurationSeconds > 0 {
		s.AvgThroughputBPS = float64(a.totalBytes) * 8 / s.DurationSeconds
	}
	var peak int64
	for _, b := range a.bytesPerSecond {
		if b > peak {
			peak = b
		}
	}
	s.PeakThroughputBPS = float64(peak) * 8

	s.BucketSeconds, s.TimeBuckets = a.timeBuckets()
}

func (a *bandwidthAccumulator) sizeStats() FrameSizeStats {
	if len(a.samples) == 0 {
		return FrameSizeStats{}
	}

	sizes := make([]int, len(a.samples))
	var sum int64
	for i, smp := range a.samples {
		sizes[i] = smp.length
		sum += int64(smp.length)
	}
	sort.Ints(sizes)

	median := float64(sizes[len(sizes)/2])
	if len(sizes)%2 == 0 {
		median = (float64(sizes[len(sizes)/2-1]) + float64(sizes[len(sizes)/2])) / 2
	}

	return FrameSizeStats{
		Min:    sizes[0],
		Max:    sizes[len(sizes)-1],
		Mean:   float64(sum) / float64(len(sizes)),
		Median: median,
	}
}

// sizeDistribution assigns every frame to exactly one bucket, so the bucket
// counts always sum to the total packet count.
func (a *bandwidthAccumulator) sizeDistribution() []SizeBucket {
	counts := make([]int, len(sizeBucketBounds)+1)
	for _, smp := range a.samples {
		idx := len(sizeBucketBounds) // overflow
		for i, b := range sizeBucketBounds {
			if smp.length <= b.hi {
				idx = i
				break
			}
		}
		counts[idx]++
	}

	out := make([]SizeBucket, 0, len(counts))
	for i, b := range sizeBucketBounds {
		out = append(out, SizeBucket{Range: b.label, Count: counts[i]})
	}
	out = append(out, SizeBucket{Range: sizeBucketOverflow, Count: counts[len(sizeBucketBounds)]})
	return out
}

// bucketWidth picks the base bucket width from the capture duration, then
// doubles it until the bucket count fits the hard cap.
func bucketWidth(duration float64) float64 {
	var width float64
	switch {
	case duration < 60:
		width = 1
	case duration < 600:
		width = 5
	case duration < 3600:
		width = 30
	default:
		width = 60
	}
	for duration/width >= maxTimeBuckets {
		width *= 2
	}
	return width
}

func (a *bandwidthAccumulator) timeBuckets() (float64, []TimeBucket) {
	if len(a.samples) == 0 {
		return 0, nil
	}

	width := bucketWidth(a.duration())

	type bucketState struct {
		packets   int
		bytes     int64
		protocols map[string]int
	}
	buckets := make(map[int]*bucketState)
	for _, smp := range a.samples {
		idx := int(smp.offset / width)
		b := buckets[idx]
		if b == nil {
			b = &bucketState{protocols: make(map[string]int)}
			buckets[idx] = b
		}
		b.packets++
		b.bytes += int64(smp.length)
		b.protocols[smp.protocol]++
	}

	indices := make([]int, 0, len(buckets))
	for idx := range buckets {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	out := make([]TimeBucket, 0, len(buckets))
	for _, idx := range indices {
		b := buckets[idx]
		out = append(out, TimeBucket{
			TimeOffset:   float64(idx) * width,
			Packets:      b.packets,
			Bytes:        b.bytes,
			TopProtocols: topCounts(b.protocols, maxBucketProtocols),
		})
	}
	return width, out
}

// topCounts ranks a frequency map and returns the top n entries. Ties break
// alphabetically so output stays deterministic.
func topCounts(m map[string]int, n int) []ProtocolCount {
	out := make([]ProtocolCount, 0, len(m))
	for k, v := range m {
		out = append(out, ProtocolCount{Protocol: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Protocol < out[j].Protocol
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// formatBPS renders a bits-per-second rate for issue strings and reports.
func formatBPS(bps float64) string {
	switch {
	case bps >= 1e9:
		return fmt.Sprintf("%.2f Gbps", bps/1e9)
	case bps >= 1e6:
		return fmt.Sprintf("%.2f Mbps", bps/1e6)
	case bps >= 1e3:
		return fmt.Sprintf("%.2f Kbps", bps/1e3)
	}
	return fmt.Sprintf("%.0f bps", math.Max(bps, 0))
}
