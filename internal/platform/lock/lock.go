// Package lock serialises critical sections across API instances with Redis locks.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrBusy is returned when a lock is held by someone else for longer than the wait budget.
var ErrBusy = errors.New("lock: resource is busy, try again")

// Locker acquires groups of keyed locks.
type Locker interface {
	// Acquire obtains every key or none. The returned release func is never nil.
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// RedisLocker implements Locker on top of bsm/redislock.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	prefix string
	log    logrus.FieldLogger

	retryStep time.Duration
	retryMax  int
}

// NewRedisLocker builds a locker. ttl bounds how long a crashed holder can block others.
func NewRedisLocker(rdb *redis.Client, prefix string, ttl time.Duration, log logrus.FieldLogger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client:    redislock.New(rdb),
		ttl:       ttl,
		prefix:    prefix,
		log:       log,
		retryStep: 50 * time.Millisecond,
		retryMax:  40,
	}
}

// WithRetry changes how long Acquire waits for a busy key.
func (l *RedisLocker) WithRetry(step time.Duration, max int) *RedisLocker {
	l.retryStep = step
	l.retryMax = max
	return l
}

// Acquire obtains the locks in sorted order so that two callers with overlapping key
// sets cannot deadlock each other.
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	sorted := dedupeSorted(keys)
	held := make([]*redislock.Lock, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			// Release with a fresh context: the request context may already be cancelled.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := held[i].Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) && l.log != nil {
				l.log.WithError(err).WithField("key", held[i].Key()).Warn("release lock")
			}
			cancel()
		}
	}

	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.retryStep), l.retryMax),
	}
	for _, k := range sorted {
		lk, err := l.client.Obtain(ctx, fmt.Sprintf("%s:%s", l.prefix, k), l.ttl, opts)
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) {
				return func() {}, fmt.Errorf("%w: %s", ErrBusy, k)
			}
			return func() {}, fmt.Errorf("lock: obtain %s: %w", k, err)
		}
		held = append(held, lk)
	}
	return release, nil
}

// Noop is used when Redis is not configured. Callers keep working without cross-instance
// serialisation.
type Noop struct{}

// Acquire always succeeds.
func (Noop) Acquire(context.Context, ...string) (func(), error) { return func() {}, nil }

func dedupeSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
