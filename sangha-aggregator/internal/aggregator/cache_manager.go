package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	sangharedis "sangha/sangha-common/redis"
	"sangha/sangha-common/stats"
)

// CacheManager keeps the latest dashboard in the KV store.
type CacheManager struct {
	kv     sangharedis.KV
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCacheManager creates a cache manager writing under key with ttl.
func NewCacheManager(kv sangharedis.KV, key string, ttl time.Duration, logger *zap.Logger) *CacheManager {
	return &CacheManager{
		kv:     kv,
		key:    key,
		ttl:    ttl,
		logger: logger,
	}
}

// Load returns the cached dashboard or sangharedis.ErrCacheMiss.
func (c *CacheManager) Load(ctx context.Context) (*stats.Dashboard, error) {
	raw, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	var d stats.Dashboard
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode cached dashboard: %w", err)
	}
	return &d, nil
}

// Store writes d unless the cache already holds a newer revision of the same
// store epoch. It reports whether d was written.
func (c *CacheManager) Store(ctx context.Context, d stats.Dashboard) (bool, error) {
	current, err := c.Load(ctx)
	switch {
	case err == nil:
		if d.Version().Before(current.Version()) {
			c.logger.Debug("Skipped dashboard cache write for older revision",
				zap.String("epoch", d.Epoch),
				zap.Uint64("cached_revision", current.Revision),
				zap.Uint64("revision", d.Revision),
			)
			return false, nil
		}
	case errors.Is(err, sangharedis.ErrCacheMiss):
	default:
		// An undecodable entry is overwritten; a failing store is not.
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
			return false, fmt.Errorf("read dashboard cache: %w", err)
		}
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return false, fmt.Errorf("marshal dashboard: %w", err)
	}
	if err := c.kv.Set(ctx, c.key, string(payload), c.ttl); err != nil {
		return false, fmt.Errorf("set dashboard cache: %w", err)
	}

	c.logger.Debug("Updated dashboard cache",
		zap.String("key", c.key),
		zap.Uint64("revision", d.Revision),
	)
	return true, nil
}
