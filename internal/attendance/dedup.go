package attendance

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupCache is a Redis-backed fast path for the duplicate check: a hit
// short-circuits the pipeline without touching Postgres. It is advisory
// only — a miss (or Redis being down) just falls through to the store,
// whose unique index remains the source of truth.
type DedupCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupCache creates a cache whose entries outlive the admission
// window by a margin.
func NewDedupCache(client *redis.Client) *DedupCache {
	return &DedupCache{client: client, ttl: AdmissionWindow + 10*time.Minute}
}

func (d *DedupCache) key(sessionID, fingerprint string) string {
	return "attendance:seen:" + sessionID + ":" + fingerprint
}

// Seen reports whether the pair was marked. Errors degrade to false.
func (d *DedupCache) Seen(ctx context.Context, sessionID, fingerprint string) bool {
	if d == nil || d.client == nil {
		return false
	}
	n, err := d.client.Exists(ctx, d.key(sessionID, fingerprint)).Result()
	return err == nil && n > 0
}

// Mark records the pair after a successful commit. Best effort.
func (d *DedupCache) Mark(ctx context.Context, sessionID, fingerprint string) {
	if d == nil || d.client == nil {
		return
	}
	d.client.Set(ctx, d.key(sessionID, fingerprint), "1", d.ttl)
}
