package idempotency

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mergington/activities-api/internal/ports/out/idempotency"
)

const (
	DefaultTTL             = 24 * time.Hour
	DefaultCleanupInterval = 30 * time.Minute
)

// Store is an in-memory implementation of idempotency.Store with per-record expiry.
// It is safe for concurrent use.
type Store struct {
	cache *gocache.Cache
}

// NewStore returns a Store whose records expire after ttl. A non-positive ttl uses DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cleanup := DefaultCleanupInterval
	if ttl < cleanup {
		cleanup = ttl
	}
	return &Store{cache: gocache.New(ttl, cleanup)}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	_ = ctx
	v, ok := s.cache.Get(fp.String())
	if !ok {
		return idempotency.Record{}, false, nil
	}
	rec, ok := v.(idempotency.Record)
	if !ok {
		return idempotency.Record{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_ = ctx
	s.cache.SetDefault(fp.String(), cloneRecord(rec))
	return nil
}

func cloneRecord(rec idempotency.Record) idempotency.Record {
	out := rec
	out.Body = append([]byte(nil), rec.Body...)
	return out
}
