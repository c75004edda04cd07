// Package cache stores serialized responses in the shared kv store, partitioned by tenant.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/filter"
	"github.com/af-corp/aegis-docai/internal/kv"
	"github.com/af-corp/aegis-docai/internal/telemetry"
)

const keyPrefix = "docai:cache:"

// Key addresses one cached resource. TenantID is always part of the stored key.
type Key struct {
	TenantID string
	Kind     string
	ID       string
}

func (k Key) String() string {
	return keyPrefix + url.QueryEscape(k.TenantID) + ":" + url.QueryEscape(k.Kind) + ":" + url.QueryEscape(k.ID)
}

// Cache is advisory: store failures read as misses and writes are dropped.
type Cache struct {
	store   kv.Store
	cfg     func() config.CacheConfig
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// New returns a cache over store. A nil store disables caching.
func New(store kv.Store, cfg func() config.CacheConfig, metrics *telemetry.Metrics, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, cfg: cfg, metrics: metrics, logger: logger}
}

func (c *Cache) enabled() bool {
	return c != nil && c.store != nil && c.cfg().Enabled
}

// Get returns the cached bytes and true on a hit.
func (c *Cache) Get(ctx context.Context, key Key) ([]byte, bool) {
	if !c.enabled() || key.TenantID == "" {
		return nil, false
	}
	data, err := c.store.Get(ctx, key.String())
	if err != nil {
		if !errors.Is(err, kv.ErrMiss) {
			c.logger.Warn("cache read failed",
				"tenant_id", key.TenantID,
				"kind", key.Kind,
				"error", filter.SanitizeForLogging(err.Error(), 200),
			)
		}
		c.metrics.RecordCacheLookup(key.Kind, false)
		return nil, false
	}
	c.metrics.RecordCacheLookup(key.Kind, true)
	return data, true
}

// Set stores value for ttl. A non-positive ttl skips the write.
func (c *Cache) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) {
	if !c.enabled() || key.TenantID == "" || ttl <= 0 {
		return
	}
	if err := c.store.Set(ctx, key.String(), value, ttl); err != nil {
		c.logger.Warn("cache write failed",
			"tenant_id", key.TenantID,
			"kind", key.Kind,
			"error", filter.SanitizeForLogging(err.Error(), 200),
		)
	}
}

// DocumentTTL and FlowTTL read the current (hot-reloadable) settings.
func (c *Cache) DocumentTTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.cfg().DocumentTTL
}

func (c *Cache) FlowTTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.cfg().FlowTTL
}
