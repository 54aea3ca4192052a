// Package service ties the analysis engine to caching, metrics, and the
// optional summary publisher.
package service

import (
	"context"
	"fmt"
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"firestige.xyz/pcaplens/internal/analysis"
	"firestige.xyz/pcaplens/internal/capture"
	"firestige.xyz/pcaplens/internal/config"
	"firestige.xyz/pcaplens/internal/metrics"
	"firestige.xyz/pcaplens/internal/report"
)

// Publisher ships a finished summary somewhere external.
type Publisher interface {
	Publish(ctx context.Context, capturePath string, s *analysis.Summary) error
}

// Analyzer runs capture analyses with result caching. Summaries are
// immutable once finalized, so caching whole pointers is safe.
type Analyzer struct {
	engine    *analysis.Engine
	cache     *gocache.Cache
	publisher Publisher
	log       *logrus.Entry
}

// NewAnalyzer builds an analyzer from configuration. The Kafka publisher is
// attached only when enabled in config.
func NewAnalyzer(cfg *config.Config) (*Analyzer, error) {
	engine, err := analysis.NewEngine(analysis.Options{
		MaxPackets:      cfg.Analysis.MaxPackets,
		DetectionSample: cfg.Analysis.DetectionSample,
	})
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		engine: engine,
		cache:  gocache.New(cfg.Cache.TTLDuration(), cfg.Cache.CleanupDuration()),
		log:    logrus.WithField("component", "analyzer"),
	}

	if cfg.Kafka.Enabled {
		pub, err := report.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher init failed: %w", err)
		}
		a.publisher = pub
	}

	return a, nil
}

// AnalyzeFile analyzes one capture file, reusing a cached summary when the
// file has not changed since the last run. The cache key includes size and
// mtime so a rewritten file is re-analyzed.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*analysis.Summary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat capture file: %w", err)
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())

	if cached, ok := a.cache.Get(key); ok {
		metrics.CacheHitsTotal.Inc()
		a.log.WithField("path", path).Debug("summary cache hit")
		return cached.(*analysis.Summary), nil
	}

	src, err := capture.NewFileSource(path, a.engine.MaxPackets())
	if err != nil {
		return nil, err
	}
	defer src.Close()

	start := time.Now()
	summary, err := a.engine.Analyze(src)
	if err != nil {
		return nil, err
	}
	metrics.AnalysisDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.AnalysesTotal.WithLabelValues(summary.CaptureType).Inc()
	metrics.FramesProcessedTotal.Add(float64(summary.TotalPackets))
	metrics.AnomaliesDetectedTotal.Add(float64(len(summary.Anomalies)))

	a.cache.Set(key, summary, gocache.DefaultExpiration)

	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, path, summary); err != nil {
			metrics.PublishErrorsTotal.Inc()
			a.log.WithError(err).WithField("path", path).Error("summary publish failed")
		}
	}

	return summary, nil
}

// Close releases the publisher, if any.
func (a *Analyzer) Close() error {
	if closer, ok := a.publisher.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
