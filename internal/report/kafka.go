// Package report renders and ships finished capture summaries.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/sirupsen/logrus"

	"firestige.xyz/pcaplens/internal/analysis"
	"firestige.xyz/pcaplens/internal/config"
)

// KafkaPublisher sends finished summaries to Kafka so the hosting assistant
// can consume analysis results off a topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	log    *logrus.Entry

	publishedCount atomic.Uint64
	errorCount     atomic.Uint64
}

// NewKafkaPublisher builds a publisher from configuration. The config layer
// guarantees brokers and topic are set when the publisher is enabled.
func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	batchTimeout, err := time.ParseDuration(cfg.BatchTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid batch_timeout: %w", err)
	}

	writerConfig := kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		MaxAttempts:  cfg.MaxAttempts,
		Async:        false, // synchronous for error handling
	}

	switch cfg.Compression {
	case "none", "":
		writerConfig.CompressionCodec = nil
	case "gzip":
		writerConfig.CompressionCodec = compress.Gzip.Codec()
	case "snappy":
		writerConfig.CompressionCodec = compress.Snappy.Codec()
	case "lz4":
		writerConfig.CompressionCodec = compress.Lz4.Codec()
	case "zstd":
		writerConfig.CompressionCodec = compress.Zstd.Codec()
	default:
		return nil, fmt.Errorf("invalid compression type: %s", cfg.Compression)
	}

	return &KafkaPublisher{
		writer: kafka.NewWriter(writerConfig),
		topic:  cfg.Topic,
		log:    logrus.WithField("component", "kafka-publisher"),
	}, nil
}

// Publish serializes the summary to JSON and writes it, keyed by the
// capture path so summaries for the same capture land on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, capturePath string, s *analysis.Summary) error {
	value, err := json.Marshal(s)
	if err != nil {
		p.errorCount.Add(1)
		return fmt.Errorf("serialize summary failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(capturePath),
		Value: value,
		Headers: []kafka.Header{
			{Key: "capture_type", Value: []byte(s.CaptureType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.errorCount.Add(1)
		return fmt.Errorf("kafka write failed: %w", err)
	}

	p.publishedCount.Add(1)
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return err
	}
	p.log.WithFields(logrus.Fields{
		"total_published": p.publishedCount.Load(),
		"total_errors":    p.errorCount.Load(),
	}).Info("kafka publisher closed")
	return nil
}
