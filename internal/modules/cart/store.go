package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// Store persists cart contents as product id -> quantity.
type Store interface {
	Items(ctx context.Context, cartID uuid.UUID) (map[uuid.UUID]int, error)
	// Add increments a line and returns its new quantity.
	Add(ctx context.Context, cartID, productID uuid.UUID, qty int) (int, error)
	Set(ctx context.Context, cartID, productID uuid.UUID, qty int) error
	Remove(ctx context.Context, cartID uuid.UUID, productIDs ...uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore keeps each cart in a hash at cart:{id}. Every access pushes expiry ttl ahead.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

func key(cartID uuid.UUID) string { return "cart:" + cartID.String() }

func (s *redisStore) Items(ctx context.Context, cartID uuid.UUID) (map[uuid.UUID]int, error) {
	var all *redis.MapStringStringCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		all = p.HGetAll(ctx, key(cartID))
		p.Expire(ctx, key(cartID), s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cart: load %s: %w", cartID, err)
	}
	out := make(map[uuid.UUID]int, len(all.Val()))
	for field, raw := range all.Val() {
		id, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			continue
		}
		out[id] = qty
	}
	return out, nil
}

func (s *redisStore) Add(ctx context.Context, cartID, productID uuid.UUID, qty int) (int, error) {
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.HIncrBy(ctx, key(cartID), productID.String(), int64(qty))
		p.Expire(ctx, key(cartID), s.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cart: add to %s: %w", cartID, err)
	}
	return int(incr.Val()), nil
}

func (s *redisStore) Set(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key(cartID), productID.String(), qty)
		p.Expire(ctx, key(cartID), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cart: set line in %s: %w", cartID, err)
	}
	return nil
}

func (s *redisStore) Remove(ctx context.Context, cartID uuid.UUID, productIDs ...uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	fields := make([]string, len(productIDs))
	for i, id := range productIDs {
		fields[i] = id.String()
	}
	if err := s.rdb.HDel(ctx, key(cartID), fields...).Err(); err != nil {
		return fmt.Errorf("cart: remove from %s: %w", cartID, err)
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context, cartID uuid.UUID) error {
	if err := s.rdb.Del(ctx, key(cartID)).Err(); err != nil {
		return fmt.Errorf("cart: clear %s: %w", cartID, err)
	}
	return nil
}

// Unavailable is the Store used when Redis is not configured.
type Unavailable struct{}

var errNoRedis = fmt.Errorf("%w: cart requires redis", httpx.ErrUnavailable)

func (Unavailable) Items(context.Context, uuid.UUID) (map[uuid.UUID]int, error) { return nil, errNoRedis }

func (Unavailable) Add(context.Context, uuid.UUID, uuid.UUID, int) (int, error) { return 0, errNoRedis }

func (Unavailable) Set(context.Context, uuid.UUID, uuid.UUID, int) error { return errNoRedis }

func (Unavailable) Remove(context.Context, uuid.UUID, ...uuid.UUID) error { return errNoRedis }

func (Unavailable) Clear(context.Context, uuid.UUID) error { return errNoRedis }
