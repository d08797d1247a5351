package quotes

import (
	"context"
	"time"

	"myinvestments-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(ttl, 2*ttl)}
}

func (s *MemoryStore) Put(_ context.Context, q domain.Quote) error {
	s.cache.SetDefault(q.UserID.String(), q)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID) (domain.Quote, error) {
	v, ok := s.cache.Get(userID.String())
	if !ok {
		return domain.Quote{}, domain.ErrNoPendingQuote
	}
	return v.(domain.Quote), nil
}

func (s *MemoryStore) Delete(_ context.Context, userID uuid.UUID) error {
	s.cache.Delete(userID.String())
	return nil
}
