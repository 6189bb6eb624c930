// Package annotation is the application layer: it orchestrates the extractor,
// the result cache, the annotation store, and the event pipeline on behalf of
// the HTTP handlers, the CLI, and the worker.
package annotation

import (
	"context"
	"sync"
	"time"

	"github.com/structflo/structflo-ner/internal/infrastructure/database/postgres/repositories"
	"github.com/structflo/structflo-ner/internal/infrastructure/database/redis"
	"github.com/structflo/structflo-ner/internal/infrastructure/messaging/kafka"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/prometheus"
	"github.com/structflo/structflo-ner/internal/ner"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// Deps carries the service collaborators.  Only Extractor is required; cache,
// repository, and producer are optional and the service degrades gracefully
// without them.
type Deps struct {
	Extractor *ner.Extractor
	// Options rebuilds the extractor on Reload.  Nil disables reload.
	Options *ner.Options

	Redis       *redis.Client
	CachePrefix string
	CacheTTL    time.Duration

	Repository  *repositories.AnnotationRepository
	Producer    *kafka.Producer
	ResultTopic string

	Metrics *prometheus.AppMetrics
	Logger  logging.Logger

	MaxTextBytes int
	MaxBatchDocs int
	BatchWorkers int
}

// GazetteerSummary describes the live dictionary.
type GazetteerSummary struct {
	Fingerprint    string                 `json:"fingerprint"`
	FuzzyThreshold int                    `json:"fuzzy_threshold"`
	TermCount      int                    `json:"term_count"`
	PatternCount   int                    `json:"pattern_count"`
	TermsByType    map[ner.EntityType]int `json:"terms_by_type"`
}

// Service is the extraction application service.
type Service struct {
	mu        sync.RWMutex
	extractor *ner.Extractor
	cache     *redis.ResultCache

	opts        *ner.Options
	redisClient *redis.Client
	cachePrefix string
	cacheTTL    time.Duration

	repo        *repositories.AnnotationRepository
	producer    *kafka.Producer
	resultTopic string

	metrics *prometheus.AppMetrics
	logger  logging.Logger

	maxTextBytes int
	maxBatchDocs int
	batchWorkers int
}

// NewService wires a Service from deps.
func NewService(deps Deps) (*Service, error) {
	if deps.Extractor == nil {
		return nil, apperrors.New(apperrors.ErrCodeConfigInvalid, "extractor required")
	}
	log := deps.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	resultTopic := deps.ResultTopic
	if resultTopic == "" {
		resultTopic = kafka.TopicDocumentExtracted
	}

	s := &Service{
		extractor:    deps.Extractor,
		opts:         deps.Options,
		redisClient:  deps.Redis,
		cachePrefix:  deps.CachePrefix,
		cacheTTL:     deps.CacheTTL,
		repo:         deps.Repository,
		producer:     deps.Producer,
		resultTopic:  resultTopic,
		metrics:      deps.Metrics,
		logger:       log.Named("annotation"),
		maxTextBytes: deps.MaxTextBytes,
		maxBatchDocs: deps.MaxBatchDocs,
		batchWorkers: deps.BatchWorkers,
	}
	if s.batchWorkers <= 0 {
		s.batchWorkers = 4
	}
	s.cache = s.cacheFor(deps.Extractor)
	s.publishTermGauges()
	return s, nil
}

func (s *Service) cacheFor(ext *ner.Extractor) *redis.ResultCache {
	if s.redisClient == nil {
		return nil
	}
	return redis.NewResultCache(s.redisClient, s.cachePrefix, ext.Fingerprint(), s.cacheTTL, s.logger)
}

// Extractor returns the live extractor.
func (s *Service) Extractor() *ner.Extractor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.extractor
}

func (s *Service) current() (*ner.Extractor, *redis.ResultCache) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.extractor, s.cache
}

// Extract runs single-document extraction, serving from the result cache when
// one is configured.  The second return reports a cache hit.
func (s *Service) Extract(ctx context.Context, text string) (*ner.Result, bool, error) {
	if s.maxTextBytes > 0 && len(text) > s.maxTextBytes {
		return nil, false, apperrors.New(apperrors.ErrCodeBadRequest, "document exceeds maximum size")
	}

	ext, cache := s.current()
	start := time.Now()

	var result *ner.Result
	var hit bool
	if cache != nil {
		var err error
		result, hit, err = cache.GetOrCompute(ctx, text, func(context.Context) (*ner.Result, error) {
			return ext.Extract(text), nil
		})
		if err != nil {
			return nil, false, err
		}
	} else {
		result = ext.Extract(text)
	}

	s.recordExtraction("single", time.Since(start), result, hit, cache != nil)
	return result, hit, nil
}

// ExtractBatch runs order-preserving extraction over texts with bounded
// concurrency.  The batch path bypasses the cache.
func (s *Service) ExtractBatch(ctx context.Context, texts []string) ([]*ner.Result, error) {
	if len(texts) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "batch is empty")
	}
	if s.maxBatchDocs > 0 && len(texts) > s.maxBatchDocs {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "batch exceeds maximum document count")
	}
	if s.maxTextBytes > 0 {
		for _, t := range texts {
			if len(t) > s.maxTextBytes {
				return nil, apperrors.New(apperrors.ErrCodeBadRequest, "document exceeds maximum size")
			}
		}
	}

	ext, _ := s.current()
	start := time.Now()
	results, err := ext.ExtractBatch(ctx, texts, s.batchWorkers)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ExtractionsTotal.WithLabelValues("batch").Inc()
		s.metrics.ExtractionDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())
		s.metrics.BatchSize.WithLabelValues().Observe(float64(len(texts)))
		for _, r := range results {
			s.recordEntities(r)
		}
	}
	return results, nil
}

// ProcessDocument is the worker path: extract, persist when a repository is
// configured, and publish the completion event when a producer is configured.
func (s *Service) ProcessDocument(ctx context.Context, documentID, text string) (*ner.Result, error) {
	result, _, err := s.Extract(ctx, text)
	if err != nil {
		s.publishFailure(ctx, documentID, err)
		return nil, err
	}

	payload := kafka.ExtractResultPayload{
		DocumentID:  documentID,
		Entities:    result.Entities,
		EntityCount: len(result.Entities),
		Fingerprint: s.Extractor().Fingerprint(),
		CompletedAt: time.Now().UTC(),
	}

	if s.repo != nil {
		dbStart := time.Now()
		rec, err := s.repo.SaveExtraction(ctx, result, payload.Fingerprint)
		if s.metrics != nil {
			s.metrics.DBQueryDuration.WithLabelValues("save_extraction").Observe(time.Since(dbStart).Seconds())
		}
		if err != nil {
			s.publishFailure(ctx, documentID, err)
			return nil, err
		}
		payload.ExtractionID = rec.ID.String()
	}

	if s.producer != nil {
		if err := s.producer.PublishExtractResult(ctx, s.resultTopic, payload); err != nil {
			// The extraction itself succeeded; surface the publish failure.
			return result, err
		}
	}
	return result, nil
}

func (s *Service) publishFailure(ctx context.Context, documentID string, cause error) {
	if s.producer == nil {
		return
	}
	err := s.producer.PublishExtractResult(ctx, s.resultTopic, kafka.ExtractResultPayload{
		DocumentID:  documentID,
		CompletedAt: time.Now().UTC(),
		Error:       cause.Error(),
	})
	if err != nil {
		s.logger.Error("failed to publish failure event",
			logging.String("document_id", documentID),
			logging.Err(err),
		)
	}
}

// Summary reports the live dictionary shape.
func (s *Service) Summary() GazetteerSummary {
	ext, _ := s.current()
	store := ext.Store()

	byType := make(map[ner.EntityType]int)
	for _, c := range store.Canonicals() {
		byType[c.Type]++
	}
	return GazetteerSummary{
		Fingerprint:    store.Fingerprint(),
		FuzzyThreshold: ext.FuzzyThreshold(),
		TermCount:      store.TermCount(),
		PatternCount:   len(store.Patterns()),
		TermsByType:    byType,
	}
}

// Reload rebuilds the extractor from the original options and swaps it in.
// Requests in flight keep the extractor they started with.
func (s *Service) Reload() error {
	if s.opts == nil {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "service was built without reloadable options")
	}

	ext, err := ner.New(*s.opts)
	if err != nil {
		if s.metrics != nil {
			s.metrics.GazetteerReloadTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	s.mu.Lock()
	s.extractor = ext
	s.cache = s.cacheFor(ext)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.GazetteerReloadTotal.WithLabelValues("ok").Inc()
	}
	s.publishTermGauges()
	s.logger.Info("gazetteers reloaded",
		logging.String("fingerprint", ext.Fingerprint()),
		logging.Int("terms", ext.Store().TermCount()),
	)
	return nil
}

func (s *Service) recordExtraction(mode string, elapsed time.Duration, result *ner.Result, hit, cacheEnabled bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.ExtractionsTotal.WithLabelValues(mode).Inc()
	s.metrics.ExtractionDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if cacheEnabled {
		if hit {
			s.metrics.CacheHitsTotal.WithLabelValues().Inc()
		} else {
			s.metrics.CacheMissesTotal.WithLabelValues().Inc()
		}
	}
	if !hit {
		s.recordEntities(result)
	}
}

func (s *Service) recordEntities(result *ner.Result) {
	for _, m := range result.Entities {
		s.metrics.EntitiesFoundTotal.WithLabelValues(string(m.Type), string(m.Method)).Inc()
	}
}

func (s *Service) publishTermGauges() {
	if s.metrics == nil {
		return
	}
	sum := s.Summary()
	for typ, n := range sum.TermsByType {
		s.metrics.GazetteerTerms.WithLabelValues(string(typ)).Set(float64(n))
	}
}
