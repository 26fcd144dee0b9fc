package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
)

// DedupeGuard is a best-effort duplicate-submission filter in front of the
// database.  It claims a short-lived SETNX key per (org, correlation id,
// kind); a second submission inside the TTL is turned away before it spends
// model tokens.  The database unique constraint remains the hard guarantee —
// losing Redis only costs some wasted model calls, never correctness.
type DedupeGuard struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	log    logging.Logger
}

// NewDedupeGuard builds a guard with the given key prefix and claim TTL.
func NewDedupeGuard(client *goredis.Client, prefix string, ttl time.Duration, log logging.Logger) *DedupeGuard {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &DedupeGuard{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		log:    log.Named("dedupe"),
	}
}

func (g *DedupeGuard) key(orgID, correlationID, kind string) string {
	return fmt.Sprintf("%s:dedupe:%s:%s:%s", g.prefix, orgID, kind, correlationID)
}

// Acquire claims the dedupe key.  Returns false when another submission
// already holds it.  Redis outages fail open: the claim is granted and the
// database constraint takes over.
func (g *DedupeGuard) Acquire(ctx context.Context, orgID, correlationID, kind string) bool {
	ok, err := g.client.SetNX(ctx, g.key(orgID, correlationID, kind), 1, g.ttl).Result()
	if err != nil {
		g.log.Warn("dedupe claim failed, failing open", logging.Err(err))
		return true
	}
	return ok
}

// Release drops the claim early, letting a failed submission be retried
// before the TTL expires.
func (g *DedupeGuard) Release(ctx context.Context, orgID, correlationID, kind string) {
	if err := g.client.Del(ctx, g.key(orgID, correlationID, kind)).Err(); err != nil {
		g.log.Warn("dedupe release failed", logging.Err(err))
	}
}
