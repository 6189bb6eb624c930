// Package kafka implements the asynchronous extraction pipeline: extraction
// requests go onto one topic, completed results onto another.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/structflo/structflo-ner/internal/ner"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// Topic constants.  Deployments may override these through configuration;
// the constants are the defaults and the names used in tests.
const (
	TopicDocumentExtract   = "ner.document.extract"
	TopicDocumentExtracted = "ner.document.extracted"
)

// Event types carried in the envelope.
const (
	EventTypeExtractRequested = "document.extract.requested"
	EventTypeExtractCompleted = "document.extract.completed"
	EventTypeExtractFailed    = "document.extract.failed"
)

const schemaVersion = "1.0"

// EventEnvelope standardizes event messages across topics.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ExtractRequestPayload asks a worker to run extraction over one document.
type ExtractRequestPayload struct {
	DocumentID  string    `json:"document_id"`
	Text        string    `json:"text"`
	RequestedAt time.Time `json:"requested_at"`
}

// ExtractResultPayload carries a completed extraction back to subscribers.
type ExtractResultPayload struct {
	DocumentID   string      `json:"document_id"`
	ExtractionID string      `json:"extraction_id,omitempty"`
	Entities     []ner.Match `json:"entities"`
	EntityCount  int         `json:"entity_count"`
	Fingerprint  string      `json:"fingerprint"`
	CompletedAt  time.Time   `json:"completed_at"`
	Error        string      `json:"error,omitempty"`
}

// NewEnvelope wraps payload in a fresh envelope with a generated event ID.
func NewEnvelope(eventType, source, traceID string, payload interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to encode event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		TraceID:       traceID,
		Payload:       raw,
	}, nil
}

// DecodeEnvelope parses a raw message body into an envelope.
func DecodeEnvelope(data []byte) (*EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "malformed event envelope")
	}
	if env.EventType == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "event envelope missing event_type")
	}
	return &env, nil
}

// DecodePayload parses the envelope payload into out.
func (e *EventEnvelope) DecodePayload(out interface{}) error {
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "malformed event payload")
	}
	return nil
}
