package kafka

import (
	"context"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structflo/structflo-ner/internal/config"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{}, "test", logging.NewNopLogger())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.GetCode(err))
}

func TestPublishExtractRequest(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "apiserver", logging.NewNopLogger())

	err := p.PublishExtractRequest(context.Background(), TopicDocumentExtract, ExtractRequestPayload{
		DocumentID: "doc-1",
		Text:       "Isoniazid inhibits InhA",
	})
	require.NoError(t, err)

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, TopicDocumentExtract, msg.Topic)
	assert.Equal(t, "doc-1", string(msg.Key))

	env, err := DecodeEnvelope(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, EventTypeExtractRequested, env.EventType)
	assert.EqualValues(t, 1, p.Metrics().MessagesSent.Load())
}

func TestPublishExtractResultFailureEvent(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "worker", logging.NewNopLogger())

	err := p.PublishExtractResult(context.Background(), TopicDocumentExtracted, ExtractResultPayload{
		DocumentID: "doc-2",
		Error:      "text too large",
	})
	require.NoError(t, err)

	env, err := DecodeEnvelope(w.messages[0].Value)
	require.NoError(t, err)
	assert.Equal(t, EventTypeExtractFailed, env.EventType)
}

func TestPublishWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewProducerWithWriter(w, "worker", logging.NewNopLogger())

	env, err := NewEnvelope(EventTypeExtractRequested, "worker", "", ExtractRequestPayload{DocumentID: "d"})
	require.NoError(t, err)

	err = p.Publish(context.Background(), TopicDocumentExtract, "d", env)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePublishFailed, apperrors.GetCode(err))
	assert.EqualValues(t, 1, p.Metrics().MessagesFailed.Load())
}

func TestPublishAfterClose(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "worker", logging.NewNopLogger())
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	env, err := NewEnvelope(EventTypeExtractRequested, "worker", "", ExtractRequestPayload{DocumentID: "d"})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Publish(context.Background(), TopicDocumentExtract, "d", env), ErrProducerClosed)
}
