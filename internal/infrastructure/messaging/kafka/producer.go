package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/structflo/structflo-ner/internal/config"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

var (
	ErrProducerClosed = apperrors.New(apperrors.ErrCodePublishFailed, "producer closed")
)

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ProducerMetrics holds producer counters.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
}

// Producer publishes event envelopes.
type Producer struct {
	writer  WriterInterface
	source  string
	logger  logging.Logger
	closed  atomic.Bool
	metrics ProducerMetrics
}

// NewProducer builds a producer against cfg.Brokers.  Messages are keyed by
// document ID so all events for one document land on one partition.
func NewProducer(cfg config.KafkaConfig, source string, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeConfigInvalid, "kafka brokers required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = time.Second
	}
	maxAttempts := cfg.ProducerRetries + 1

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Balancer:     &kafkago.Hash{},
		MaxAttempts:  maxAttempts,
		BatchTimeout: batchTimeout,
		RequiredAcks: kafkago.RequireAll,
	}

	return &Producer{writer: writer, source: source, logger: log.Named("kafka-producer")}, nil
}

// NewProducerWithWriter wires a custom writer (for testing).
func NewProducerWithWriter(w WriterInterface, source string, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Producer{writer: w, source: source, logger: log.Named("kafka-producer")}
}

// Publish sends envelope to topic, keyed by key.
func (p *Producer) Publish(ctx context.Context, topic, key string, env *EventEnvelope) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	value, err := json.Marshal(env)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode envelope")
	}

	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return apperrors.Wrap(err, apperrors.ErrCodePublishFailed, "publish failed")
	}

	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(value)))
	p.logger.Debug("message published",
		logging.String("topic", topic),
		logging.String("event_type", env.EventType),
	)
	return nil
}

// PublishExtractRequest enqueues an extraction request for documentID.
func (p *Producer) PublishExtractRequest(ctx context.Context, topic string, req ExtractRequestPayload) error {
	env, err := NewEnvelope(EventTypeExtractRequested, p.source, "", req)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic, req.DocumentID, env)
}

// PublishExtractResult emits a completed or failed extraction.
func (p *Producer) PublishExtractResult(ctx context.Context, topic string, res ExtractResultPayload) error {
	eventType := EventTypeExtractCompleted
	if res.Error != "" {
		eventType = EventTypeExtractFailed
	}
	env, err := NewEnvelope(eventType, p.source, "", res)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic, res.DocumentID, env)
}

// Metrics returns the producer counters.
func (p *Producer) Metrics() *ProducerMetrics {
	return &p.metrics
}

// Close flushes and shuts the writer down.  Safe to call more than once.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
