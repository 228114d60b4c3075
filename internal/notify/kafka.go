package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/Alias1177/oracle/models"
)

// messageWriter is the part of kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaOptions configures a Kafka publisher.
type KafkaOptions struct {
	Brokers      []string
	Topic        string
	Compression  string
	WriteTimeout time.Duration
}

// Kafka publishes every signal as JSON keyed by symbol.
type Kafka struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
}

// NewKafka creates a publisher. Messages for one symbol land on one partition.
func NewKafka(opts KafkaOptions) (*Kafka, error) {
	if len(opts.Brokers) == 0 {
		return nil, errors.New("kafka: brokers are required")
	}
	if opts.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(opts.Brokers...),
		Topic:        opts.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  parseCompression(opts.Compression),
		MaxAttempts:  3,
		WriteTimeout: opts.WriteTimeout,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newKafka(writer, opts.Topic), nil
}

func newKafka(w messageWriter, topic string) *Kafka {
	return &Kafka{
		writer: w,
		topic:  topic,
		logger: log.With().Str("component", "kafka_notifier").Str("topic", topic).Logger(),
	}
}

// Notify implements models.Notifier
func (k *Kafka) Notify(ctx context.Context, s *models.Signal) error {
	value, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(s.Instrument.Symbol),
		Value: value,
		Time:  s.Timestamp,
		Headers: []kafka.Header{
			{Key: "signal_id", Value: []byte(s.ID)},
			{Key: "direction", Value: []byte(s.Direction)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", s.Instrument.Symbol, err)
	}

	k.logger.Debug().Str("symbol", s.Instrument.Symbol).Int("bytes", len(value)).Msg("Signal published")
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}
