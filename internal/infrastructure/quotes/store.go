// Package quotes holds each user's single pending divestment quote between quote and confirm.
package quotes

import (
	"context"
	"time"

	"myinvestments-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long an unconfirmed quote stays pending.
const DefaultTTL = 15 * time.Minute

// Store keeps at most one pending quote per user. Put replaces any previous quote.
// Get returns domain.ErrNoPendingQuote when nothing is pending.
type Store interface {
	Put(ctx context.Context, q domain.Quote) error
	Get(ctx context.Context, userID uuid.UUID) (domain.Quote, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// New picks the Redis store when a client is available, the in-process store otherwise.
func New(rdb *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if rdb != nil {
		return NewRedisStore(rdb, ttl)
	}
	return NewMemoryStore(ttl)
}
