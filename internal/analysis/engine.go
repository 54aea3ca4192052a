package analysis

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"firestige.xyz/pcaplens/internal/capture"
)

// Options configures one analysis invocation.
type Options struct {
	// MaxPackets bounds how many frames are read from the source.
	// Must be > 0; there is no unbounded mode.
	MaxPackets int

	// DetectionSample is how many leading frames the pipeline detector
	// inspects. Zero selects the default of 20.
	DetectionSample int
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		MaxPackets:      100000,
		DetectionSample: defaultDetectionSample,
	}
}

// Engine runs the single-pass capture analysis. It is synchronous and
// CPU-bound; callers embedding it in a concurrent system should run each
// invocation on a dedicated worker. No state is shared across invocations.
type Engine struct {
	opts Options
	log  *logrus.Entry
}

// NewEngine validates the options and builds an engine. Configuration
// violations fail fast here, before any pass starts.
func NewEngine(opts Options) (*Engine, error) {
	if opts.MaxPackets <= 0 {
		return nil, fmt.Errorf("%w: max_packets must be > 0, got %d",
			capture.ErrConfigInvalid, opts.MaxPackets)
	}
	if opts.DetectionSample <= 0 {
		opts.DetectionSample = defaultDetectionSample
	}
	return &Engine{
		opts: opts,
		log:  logrus.WithField("component", "analysis"),
	}, nil
}

// MaxPackets reports the configured frame bound, so callers building a
// bounded source can reuse the same limit.
func (e *Engine) MaxPackets() int {
	return e.opts.MaxPackets
}

// frameFolder is one pipeline's aggregate: fold consumes a frame and
// returns its protocol label, finalize writes the result into the summary.
type frameFolder interface {
	fold(f *capture.Frame) string
	finalize(s *Summary)
}

// Analyze performs one sequential pass over the source's frames and returns
// the finished summary. A malformed frame never aborts the analysis; a
// non-EOF read error ends the pass early with whatever was aggregated.
func (e *Engine) Analyze(src capture.Source) (*Summary, error) {
	sample, sampleErr := e.readSample(src)

	captureType := DetectCaptureType(sample)
	e.log.WithFields(logrus.Fields{
		"pipeline":    captureType.String(),
		"sample_size": len(sample),
	}).Info("capture type detected")

	var folder frameFolder
	if captureType == CaptureWireless {
		folder = newWirelessFolder()
	} else {
		folder = newWiredAccumulator()
	}

	bandwidth := newBandwidthAccumulator()
	total := 0

	feed := func(f *capture.Frame) {
		label := folder.fold(f)
		bandwidth.fold(f.Timestamp, f.Length, label)
		total++
	}

	for _, f := range sample {
		feed(f)
	}

	if sampleErr == nil {
		for total < e.opts.MaxPackets {
			f, err := src.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				e.log.WithError(err).Warn("frame source failed mid-pass, finishing with partial data")
				break
			}
			feed(f)
		}
	}

	summary := &Summary{
		CaptureType:  captureType.String(),
		TotalPackets: total,
	}
	folder.finalize(summary)
	bandwidth.finalize(summary)
	summary.Anomalies = DetectAnomalies(summary)

	e.log.WithFields(logrus.Fields{
		"packets":   summary.TotalPackets,
		"duration":  summary.DurationSeconds,
		"anomalies": len(summary.Anomalies),
	}).Info("analysis pass complete")

	return summary, nil
}

// readSample buffers the leading frames for pipeline detection. A read
// error here is not fatal: detection degrades to the wired pipeline and the
// error is reported so the main loop does not re-read a broken source.
func (e *Engine) readSample(src capture.Source) ([]*capture.Frame, error) {
	n := e.opts.DetectionSample
	if n > e.opts.MaxPackets {
		n = e.opts.MaxPackets
	}

	sample := make([]*capture.Frame, 0, n)
	for len(sample) < n {
		f, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			e.log.WithError(err).Warn("decode failure while sampling, defaulting to wired pipeline")
			return sample, err
		}
		sample = append(sample, f)
	}
	return sample, nil
}

// wirelessFolder adapts the wireless accumulator to the frameFolder shape
// and mirrors the frame-type mix into the protocol ranking.
type wirelessFolder struct {
	acc *wirelessAccumulator
}

func newWirelessFolder() *wirelessFolder {
	return &wirelessFolder{acc: newWirelessAccumulator()}
}

func (w *wirelessFolder) fold(f *capture.Frame) string {
	return w.acc.fold(f)
}

func (w *wirelessFolder) finalize(s *Summary) {
	w.acc.finalize(s)
	s.Protocols = s.Wireless.FrameTypes
}
