package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zerofy/zerofy-backend/pkg/logger"
	"github.com/zerofy/zerofy-backend/pkg/metrics"
)

// Kind names a cached dataset. Keys are built as zf:cache:<kind>:<storeID>.
type Kind string

const (
	KindWarehouses   Kind = "warehouses"
	KindCoefficients Kind = "coefficients"
	KindRemains      Kind = "remains"
	KindPaidStorage  Kind = "paid-storage"
	KindAverageSales Kind = "average-sales"
	KindStats        Kind = "stats"
	KindOrders       Kind = "orders"
	KindSales        Kind = "sales"
	KindBalance      Kind = "balance"
	KindAdSpend      Kind = "ad-spend"
	KindAnalytics    Kind = "analytics"
)

// KnownKinds lists every dataset the store manages. ClearAll and
// CopyBetweenStores walk this list.
var KnownKinds = []Kind{
	KindWarehouses,
	KindCoefficients,
	KindRemains,
	KindPaidStorage,
	KindAverageSales,
	KindStats,
	KindOrders,
	KindSales,
	KindBalance,
	KindAdSpend,
	KindAnalytics,
}

const keyPrefix = "zf:cache"

// physical key retention past logical expiry, so age strings survive a miss
const retentionSlack = 24 * time.Hour

// KV is the key-value surface the store needs. The redis client satisfies it;
// tests substitute an in-memory map.
type KV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// Store is the persistent TTL cache for per-store marketplace datasets.
// Concurrent writers race benignly: last write wins.
type Store struct {
	kv      KV
	logg    *logger.Logger
	metrics *metrics.PipelineMetrics
	now     func() time.Time
}

// NewStore builds a cache store on top of a key-value backend.
func NewStore(kv KV, logg *logger.Logger, m *metrics.PipelineMetrics) *Store {
	return &Store{
		kv:      kv,
		logg:    logg,
		metrics: m,
		now:     time.Now,
	}
}

// Save serializes data into an Entry and writes it under the kind/store key.
// The ttl bounds the logical lifetime; isDemo marks substituted sample data.
func (s *Store) Save(ctx context.Context, kind Kind, storeID string, data any, ttl time.Duration, isDemo bool) error {
	if storeID == "" {
		return errors.New("storeID is required")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal cache data: %w", err)
	}
	now := s.now()
	entry := Entry{
		Data:      raw,
		Timestamp: now,
		ExpiresAt: now.Add(ttl),
		IsDemo:    isDemo,
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return s.kv.Set(ctx, s.key(kind, storeID), payload, ttl+retentionSlack)
}

// Load returns the live entry for the kind/store pair. Expired or corrupt
// entries are removed and reported as a miss.
func (s *Store) Load(ctx context.Context, kind Kind, storeID string) (*Entry, bool) {
	entry, ok := s.loadRaw(ctx, kind, storeID)
	if !ok {
		s.metrics.IncCacheMiss(string(kind))
		return nil, false
	}
	if entry.Expired(s.now()) {
		if err := s.kv.Del(ctx, s.key(kind, storeID)); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "deleting expired cache entry: "+err.Error())
		}
		s.metrics.IncCacheMiss(string(kind))
		return nil, false
	}
	s.metrics.IncCacheHit(string(kind))
	return entry, true
}

// Clear removes a single kind for a store. Missing keys are not an error.
func (s *Store) Clear(ctx context.Context, kind Kind, storeID string) error {
	return s.kv.Del(ctx, s.key(kind, storeID))
}

// ClearAllForStore removes every known kind for a store, including
// period-scoped entries keyed as <storeID>:<from>:<to>.
func (s *Store) ClearAllForStore(ctx context.Context, storeID string) error {
	keys := make([]string, 0, len(KnownKinds))
	for _, kind := range KnownKinds {
		keys = append(keys, s.key(kind, storeID))
		scoped, err := s.kv.ScanKeys(ctx, s.key(kind, storeID)+":*")
		if err != nil {
			return fmt.Errorf("scan %s cache keys for store: %w", kind, err)
		}
		keys = append(keys, scoped...)
	}
	return s.kv.Del(ctx, keys...)
}

// ClearAll removes every cache entry across all stores by scanning the known
// kind prefixes.
func (s *Store) ClearAll(ctx context.Context) error {
	for _, kind := range KnownKinds {
		keys, err := s.kv.ScanKeys(ctx, fmt.Sprintf("%s:%s:*", keyPrefix, kind))
		if err != nil {
			return fmt.Errorf("scan %s cache keys: %w", kind, err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := s.kv.Del(ctx, keys...); err != nil {
			return fmt.Errorf("delete %s cache keys: %w", kind, err)
		}
	}
	return nil
}

// AgeSeconds reports how old the stored entry is, expired or not. Nil means
// the entry is absent or unreadable.
func (s *Store) AgeSeconds(ctx context.Context, kind Kind, storeID string) *int64 {
	entry, ok := s.loadRaw(ctx, kind, storeID)
	if !ok {
		return nil
	}
	age := entry.AgeSeconds(s.now())
	return &age
}

// IsDemo reports whether the stored entry carries substituted sample data.
func (s *Store) IsDemo(ctx context.Context, kind Kind, storeID string) bool {
	entry, ok := s.loadRaw(ctx, kind, storeID)
	if !ok {
		return false
	}
	return entry.IsDemo
}

// CopyBetweenStores copies the raw entry of every known kind from one store
// to another, keeping timestamps, demo flags and remaining lifetime intact.
func (s *Store) CopyBetweenStores(ctx context.Context, srcStoreID, dstStoreID string) error {
	if srcStoreID == "" || dstStoreID == "" {
		return errors.New("source and destination store ids are required")
	}
	now := s.now()
	for _, kind := range KnownKinds {
		raw, err := s.kv.Get(ctx, s.key(kind, srcStoreID))
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("read %s cache for copy: %w", kind, err)
		}
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if entry.Expired(now) {
			continue
		}
		ttl := entry.ExpiresAt.Sub(now) + retentionSlack
		if err := s.kv.Set(ctx, s.key(kind, dstStoreID), []byte(raw), ttl); err != nil {
			return fmt.Errorf("copy %s cache: %w", kind, err)
		}
	}
	return nil
}

// loadRaw fetches and decodes an entry without expiry checks. Corrupt entries
// are deleted and reported as a miss.
func (s *Store) loadRaw(ctx context.Context, kind Kind, storeID string) (*Entry, bool) {
	raw, err := s.kv.Get(ctx, s.key(kind, storeID))
	if err != nil {
		if !errors.Is(err, redis.Nil) && s.logg != nil {
			s.logg.Warn(ctx, "reading cache entry: "+err.Error())
		}
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		_ = s.kv.Del(ctx, s.key(kind, storeID))
		return nil, false
	}
	return &entry, true
}

func (s *Store) key(kind Kind, storeID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, storeID)
}
