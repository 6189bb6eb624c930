package kafka

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/structflo/structflo-ner/internal/config"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

var (
	ErrConsumerClosed = apperrors.New(apperrors.ErrCodeInternal, "consumer closed")
)

// Handler processes one decoded envelope.  Returning an error triggers
// bounded retries before the message is dropped with a log entry.
type Handler func(ctx context.Context, env *EventEnvelope) error

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ConsumerMetrics holds consumer counters.
type ConsumerMetrics struct {
	MessagesConsumed  atomic.Int64
	MessagesProcessed atomic.Int64
	MessagesFailed    atomic.Int64
	MessagesRetried   atomic.Int64
}

// Consumer reads envelopes from a topic and dispatches them to a handler.
type Consumer struct {
	reader     ReaderInterface
	handler    Handler
	logger     logging.Logger
	maxRetries int
	backoff    time.Duration
	closed     atomic.Bool
	metrics    ConsumerMetrics
}

// NewConsumer builds a group consumer over topic.
func NewConsumer(cfg config.KafkaConfig, topic string, handler Handler, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeConfigInvalid, "kafka brokers required")
	}
	if handler == nil {
		return nil, apperrors.New(apperrors.ErrCodeConfigInvalid, "handler required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	startOffset := kafkago.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafkago.LastOffset
	}
	minBytes := cfg.MinBytes
	if minBytes == 0 {
		minBytes = 1
	}
	maxBytes := cfg.MaxBytes
	if maxBytes == 0 {
		maxBytes = 10 << 20
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       topic,
		MinBytes:    minBytes,
		MaxBytes:    maxBytes,
		StartOffset: startOffset,
	})

	return &Consumer{
		reader:     reader,
		handler:    handler,
		logger:     log.Named("kafka-consumer"),
		maxRetries: 3,
		backoff:    200 * time.Millisecond,
	}, nil
}

// NewConsumerWithReader wires a custom reader (for testing).
func NewConsumerWithReader(r ReaderInterface, handler Handler, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Consumer{
		reader:     r,
		handler:    handler,
		logger:     log.Named("kafka-consumer"),
		maxRetries: 3,
		backoff:    time.Millisecond,
	}
}

// Run consumes until ctx is cancelled or the consumer is closed.  Messages
// are committed after handling; undecodable messages are committed and
// skipped so they cannot wedge the partition.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if c.closed.Load() {
			return ErrConsumerClosed
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				return err
			}
			if c.closed.Load() {
				return ErrConsumerClosed
			}
			c.logger.Error("fetch failed", logging.Err(err))
			continue
		}
		c.metrics.MessagesConsumed.Add(1)

		env, err := DecodeEnvelope(msg.Value)
		if err != nil {
			c.metrics.MessagesFailed.Add(1)
			c.logger.Warn("skipping undecodable message",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err),
			)
			c.commit(ctx, msg)
			continue
		}

		if err := c.handle(ctx, env); err != nil {
			c.metrics.MessagesFailed.Add(1)
			c.logger.Error("dropping message after retries",
				logging.String("event_id", env.EventID),
				logging.String("event_type", env.EventType),
				logging.Err(err),
			)
		} else {
			c.metrics.MessagesProcessed.Add(1)
		}
		c.commit(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, env *EventEnvelope) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.metrics.MessagesRetried.Add(1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}
		if err = c.handler(ctx, env); err == nil {
			return nil
		}
	}
	return err
}

func (c *Consumer) commit(ctx context.Context, msg kafkago.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
		c.logger.Error("commit failed",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err),
		)
	}
}

// Metrics returns the consumer counters.
func (c *Consumer) Metrics() *ConsumerMetrics {
	return &c.metrics
}

// Close stops the consumer.  Safe to call more than once.
func (c *Consumer) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.reader.Close()
}
