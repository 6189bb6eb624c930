package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	"github.com/structflo/structflo-ner/internal/ner"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// ResultCache caches extraction results keyed by input text and extractor
// fingerprint.  Identical text against an identical dictionary always yields
// the same entities, so cached entries never go stale within a fingerprint.
type ResultCache struct {
	client      *Client
	prefix      string
	fingerprint string
	ttl         time.Duration
	group       singleflight.Group
	logger      logging.Logger
}

// NewResultCache builds a cache over client.  The fingerprint scopes keys to
// one extractor configuration; rebuilding the dictionary rotates the
// fingerprint and naturally invalidates old entries.
func NewResultCache(client *Client, prefix, fingerprint string, ttl time.Duration, log logging.Logger) *ResultCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if prefix == "" {
		prefix = "sfner"
	}
	return &ResultCache{
		client:      client,
		prefix:      prefix,
		fingerprint: fingerprint,
		ttl:         ttl,
		logger:      log.Named("result-cache"),
	}
}

// Key returns the cache key for text.  Texts are hashed so arbitrary document
// bodies stay within Redis key size limits.
func (c *ResultCache) Key(text string) string {
	sum := sha256.Sum256([]byte(c.fingerprint + "\x00" + text))
	return fmt.Sprintf("%s:extract:%s", c.prefix, hex.EncodeToString(sum[:]))
}

// Get returns the cached result for text, or (nil, nil) on a miss.
func (c *ResultCache) Get(ctx context.Context, text string) (*ner.Result, error) {
	raw, err := c.client.Get(ctx, c.Key(text))
	if err != nil {
		if IsMiss(err) {
			return nil, nil
		}
		return nil, apperrors.New(apperrors.ErrCodeCacheError, "cache get failed").WithCause(err)
	}
	var result ner.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		// Corrupt entry; drop it instead of failing the request.
		c.logger.Warn("dropping undecodable cache entry", logging.Err(err))
		_ = c.client.Delete(ctx, c.Key(text))
		return nil, nil
	}
	return &result, nil
}

// Set stores result for text with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, text string, result *ner.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return apperrors.New(apperrors.ErrCodeCacheError, "cache encode failed").WithCause(err)
	}
	if err := c.client.Set(ctx, c.Key(text), raw, c.ttl); err != nil {
		return apperrors.New(apperrors.ErrCodeCacheError, "cache set failed").WithCause(err)
	}
	return nil
}

// Delete evicts the entry for text.
func (c *ResultCache) Delete(ctx context.Context, text string) error {
	return c.client.Delete(ctx, c.Key(text))
}

// GetOrCompute returns the cached result for text, computing and storing it
// on a miss.  Concurrent callers for the same key share one computation.
// Cache failures degrade to computing directly; compute errors propagate.
func (c *ResultCache) GetOrCompute(ctx context.Context, text string, compute func(context.Context) (*ner.Result, error)) (*ner.Result, bool, error) {
	if cached, err := c.Get(ctx, text); err == nil && cached != nil {
		return cached, true, nil
	} else if err != nil {
		c.logger.Warn("cache read failed, computing directly", logging.Err(err))
	}

	v, err, _ := c.group.Do(c.Key(text), func() (interface{}, error) {
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, text, result); err != nil {
			c.logger.Warn("cache write failed", logging.Err(err))
		}
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*ner.Result), false, nil
}
