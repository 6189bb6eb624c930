package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
)

type fakeReader struct {
	messages  []kafkago.Message
	pos       int
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if r.pos >= len(r.messages) {
		return kafkago.Message{}, context.Canceled
	}
	msg := r.messages[r.pos]
	r.pos++
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func envelopeBytes(t *testing.T, payload ExtractRequestPayload) []byte {
	t.Helper()
	env, err := NewEnvelope(EventTypeExtractRequested, "test", "", payload)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return raw
}

func TestConsumerDispatchesAndCommits(t *testing.T) {
	reader := &fakeReader{messages: []kafkago.Message{
		{Offset: 1, Value: envelopeBytes(t, ExtractRequestPayload{DocumentID: "a"})},
		{Offset: 2, Value: envelopeBytes(t, ExtractRequestPayload{DocumentID: "b"})},
	}}

	var seen []string
	c := NewConsumerWithReader(reader, func(_ context.Context, env *EventEnvelope) error {
		var req ExtractRequestPayload
		if err := env.DecodePayload(&req); err != nil {
			return err
		}
		seen = append(seen, req.DocumentID)
		return nil
	}, logging.NewNopLogger())

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []int64{1, 2}, reader.committed)
	assert.EqualValues(t, 2, c.Metrics().MessagesProcessed.Load())
}

func TestConsumerSkipsUndecodableMessage(t *testing.T) {
	reader := &fakeReader{messages: []kafkago.Message{
		{Offset: 5, Value: []byte("not json")},
		{Offset: 6, Value: envelopeBytes(t, ExtractRequestPayload{DocumentID: "ok"})},
	}}

	var seen int
	c := NewConsumerWithReader(reader, func(context.Context, *EventEnvelope) error {
		seen++
		return nil
	}, logging.NewNopLogger())

	_ = c.Run(context.Background())
	assert.Equal(t, 1, seen)
	// Bad message is still committed so the partition keeps moving.
	assert.Equal(t, []int64{5, 6}, reader.committed)
	assert.EqualValues(t, 1, c.Metrics().MessagesFailed.Load())
}

func TestConsumerRetriesThenDrops(t *testing.T) {
	reader := &fakeReader{messages: []kafkago.Message{
		{Offset: 9, Value: envelopeBytes(t, ExtractRequestPayload{DocumentID: "x"})},
	}}

	attempts := 0
	c := NewConsumerWithReader(reader, func(context.Context, *EventEnvelope) error {
		attempts++
		return errors.New("downstream unavailable")
	}, logging.NewNopLogger())

	_ = c.Run(context.Background())
	assert.Equal(t, 4, attempts)
	assert.Equal(t, []int64{9}, reader.committed)
	assert.EqualValues(t, 1, c.Metrics().MessagesFailed.Load())
	assert.EqualValues(t, 3, c.Metrics().MessagesRetried.Load())
}

func TestConsumerCloseStopsRun(t *testing.T) {
	reader := &fakeReader{}
	c := NewConsumerWithReader(reader, func(context.Context, *EventEnvelope) error { return nil }, logging.NewNopLogger())

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
	assert.ErrorIs(t, c.Run(context.Background()), ErrConsumerClosed)
}
