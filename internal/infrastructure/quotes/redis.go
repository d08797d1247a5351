package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myinvestments-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "quote:"

// RedisStore keeps quotes under "quote:<user_id>" as msgpack with the store's TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// record is the wire form; decimals travel as strings so no precision is lost.
type record struct {
	UserID         string `msgpack:"u"`
	HoldingID      string `msgpack:"h"`
	HoldingName    string `msgpack:"n"`
	Kind           string `msgpack:"k"`
	Date           int64  `msgpack:"d"`
	Reason         string `msgpack:"r"`
	Notes          string `msgpack:"o"`
	DivestedAmount string `msgpack:"da"`
	DivestedCost   string `msgpack:"dc"`
	GrossGain      string `msgpack:"gg"`
	Tax            string `msgpack:"tx"`
	NetGain        string `msgpack:"ng"`
	NetCash        string `msgpack:"nc"`
	AmountBefore   string `msgpack:"ab"`
	ValueBefore    string `msgpack:"vb"`
	QuotedAt       int64  `msgpack:"qa"`
}

func key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

func (s *RedisStore) Put(ctx context.Context, q domain.Quote) error {
	b, err := msgpack.Marshal(record{
		UserID:         q.UserID.String(),
		HoldingID:      q.HoldingID.String(),
		HoldingName:    q.HoldingName,
		Kind:           string(q.Kind),
		Date:           q.Date.UnixMilli(),
		Reason:         q.Reason,
		Notes:          q.Notes,
		DivestedAmount: q.DivestedAmount.String(),
		DivestedCost:   q.DivestedCost.String(),
		GrossGain:      q.GrossGain.String(),
		Tax:            q.Tax.String(),
		NetGain:        q.NetGain.String(),
		NetCash:        q.NetCash.String(),
		AmountBefore:   q.HoldingAmountBefore.String(),
		ValueBefore:    q.HoldingValueBefore.String(),
		QuotedAt:       q.QuotedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}
	return s.rdb.Set(ctx, key(q.UserID), b, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, userID uuid.UUID) (domain.Quote, error) {
	b, err := s.rdb.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Quote{}, domain.ErrNoPendingQuote
	}
	if err != nil {
		return domain.Quote{}, err
	}
	var r record
	if err := msgpack.Unmarshal(b, &r); err != nil {
		return domain.Quote{}, fmt.Errorf("decode quote: %w", err)
	}
	return r.quote()
}

func (s *RedisStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.rdb.Del(ctx, key(userID)).Err()
}

func (r record) quote() (domain.Quote, error) {
	q := domain.Quote{
		HoldingName: r.HoldingName,
		Kind:        domain.DivestmentKind(r.Kind),
		Date:        time.UnixMilli(r.Date).UTC(),
		Reason:      r.Reason,
		Notes:       r.Notes,
		QuotedAt:    time.UnixMilli(r.QuotedAt).UTC(),
	}
	var err error
	if q.UserID, err = uuid.Parse(r.UserID); err != nil {
		return domain.Quote{}, fmt.Errorf("decode quote user: %w", err)
	}
	if q.HoldingID, err = uuid.Parse(r.HoldingID); err != nil {
		return domain.Quote{}, fmt.Errorf("decode quote holding: %w", err)
	}
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&q.DivestedAmount, r.DivestedAmount},
		{&q.DivestedCost, r.DivestedCost},
		{&q.GrossGain, r.GrossGain},
		{&q.Tax, r.Tax},
		{&q.NetGain, r.NetGain},
		{&q.NetCash, r.NetCash},
		{&q.HoldingAmountBefore, r.AmountBefore},
		{&q.HoldingValueBefore, r.ValueBefore},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return domain.Quote{}, fmt.Errorf("decode quote amount: %w", err)
		}
	}
	return q, nil
}
