package repositories

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	"github.com/structflo/structflo-ner/internal/ner"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// Extraction is one persisted extraction run over a single document.
type Extraction struct {
	ID          uuid.UUID   `json:"id"`
	SourceText  string      `json:"source_text"`
	TextSHA256  string      `json:"text_sha256"`
	Fingerprint string      `json:"fingerprint"`
	Entities    []ner.Match `json:"entities"`
	EntityCount int         `json:"entity_count"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Annotation is one entity occurrence within a persisted extraction, stored
// row-per-entity so the corpus can be queried by type or canonical form.
type Annotation struct {
	ID           uuid.UUID      `json:"id"`
	ExtractionID uuid.UUID      `json:"extraction_id"`
	Text         string         `json:"text"`
	Start        int            `json:"start"`
	End          int            `json:"end"`
	Type         ner.EntityType `json:"type"`
	Canonical    string         `json:"canonical"`
	Method       string         `json:"method"`
	Score        int            `json:"score"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TypeCount pairs an entity type with its annotation count.
type TypeCount struct {
	Type  ner.EntityType `json:"type"`
	Count int64          `json:"count"`
}

// AnnotationRepository persists extraction results and their annotations.
type AnnotationRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewAnnotationRepository constructs a ready-to-use AnnotationRepository.
func NewAnnotationRepository(db *sql.DB, log logging.Logger) *AnnotationRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &AnnotationRepository{db: db, logger: log.Named("annotation-repo")}
}

// SaveExtraction stores result and its per-entity annotation rows in one
// transaction and returns the persisted record.
func (r *AnnotationRepository) SaveExtraction(ctx context.Context, result *ner.Result, fingerprint string) (*Extraction, error) {
	sum := sha256.Sum256([]byte(result.SourceText))
	rec := &Extraction{
		ID:          uuid.New(),
		SourceText:  result.SourceText,
		TextSHA256:  hex.EncodeToString(sum[:]),
		Fingerprint: fingerprint,
		Entities:    result.Entities,
		EntityCount: len(result.Entities),
		CreatedAt:   time.Now().UTC(),
	}

	entitiesJSON, err := json.Marshal(rec.Entities)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to encode entities")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO extractions (id, source_text, text_sha256, fingerprint, entities, entity_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.SourceText, rec.TextSHA256, rec.Fingerprint, entitiesJSON, rec.EntityCount, rec.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to insert extraction")
	}

	for _, m := range rec.Entities {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO annotations (id, extraction_id, entity_text, start_offset, end_offset, entity_type, canonical, match_method, score, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.New(), rec.ID, m.Text, m.Start, m.End, string(m.Type), m.Canonical, string(m.Method), m.Score, rec.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to insert annotation")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to commit extraction")
	}

	r.logger.Debug("extraction saved",
		logging.String("extraction_id", rec.ID.String()),
		logging.Int("entities", rec.EntityCount),
	)
	return rec, nil
}

// GetExtraction returns one extraction by ID.
func (r *AnnotationRepository) GetExtraction(ctx context.Context, id uuid.UUID) (*Extraction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source_text, text_sha256, fingerprint, entities, entity_count, created_at
		FROM extractions WHERE id = $1`, id)
	return scanExtraction(row)
}

// FindByTextHash returns the most recent extraction of the exact same text
// under the same dictionary fingerprint, or nil when none exists.
func (r *AnnotationRepository) FindByTextHash(ctx context.Context, textSHA256, fingerprint string) (*Extraction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source_text, text_sha256, fingerprint, entities, entity_count, created_at
		FROM extractions
		WHERE text_sha256 = $1 AND fingerprint = $2
		ORDER BY created_at DESC LIMIT 1`, textSHA256, fingerprint)
	rec, err := scanExtraction(row)
	if err != nil && apperrors.GetCode(err) == apperrors.ErrCodeNotFound {
		return nil, nil
	}
	return rec, err
}

// ListAnnotations returns annotation rows filtered by entity type; an empty
// entityType means all types.  Results are newest first.
func (r *AnnotationRepository) ListAnnotations(ctx context.Context, entityType ner.EntityType, limit, offset int) ([]Annotation, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, extraction_id, entity_text, start_offset, end_offset, entity_type, canonical, match_method, score, created_at
		FROM annotations`
	args := []interface{}{}
	if entityType != "" {
		query += ` WHERE entity_type = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, string(entityType), limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to list annotations")
	}
	defer rows.Close()

	var out []Annotation
	for rows.Next() {
		var a Annotation
		var typ, method string
		if err := rows.Scan(&a.ID, &a.ExtractionID, &a.Text, &a.Start, &a.End, &typ, &a.Canonical, &method, &a.Score, &a.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan annotation")
		}
		a.Type = ner.EntityType(typ)
		a.Method = method
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "annotation row iteration failed")
	}
	return out, nil
}

// CountByType returns per-type annotation counts across the whole corpus.
func (r *AnnotationRepository) CountByType(ctx context.Context) ([]TypeCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entity_type, COUNT(*) FROM annotations
		GROUP BY entity_type ORDER BY entity_type`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to count annotations")
	}
	defer rows.Close()

	var out []TypeCount
	for rows.Next() {
		var tc TypeCount
		var typ string
		if err := rows.Scan(&typ, &tc.Count); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan type count")
		}
		tc.Type = ner.EntityType(typ)
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "type count iteration failed")
	}
	return out, nil
}

// DeleteExtraction removes an extraction and, via cascade, its annotations.
func (r *AnnotationRepository) DeleteExtraction(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM extractions WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to delete extraction")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrCodeNotFound, "extraction not found")
	}
	return nil
}

func scanExtraction(row scanner) (*Extraction, error) {
	var rec Extraction
	var entitiesJSON []byte
	err := row.Scan(&rec.ID, &rec.SourceText, &rec.TextSHA256, &rec.Fingerprint, &entitiesJSON, &rec.EntityCount, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "extraction not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan extraction")
	}
	if err := json.Unmarshal(entitiesJSON, &rec.Entities); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to decode entities")
	}
	return &rec, nil
}
