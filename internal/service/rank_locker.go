package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/verticalstudies/coaching-api/config"
)

// ErrLockLost is the cause of a lease context cancelled because another holder
// may have taken the lock.
var ErrLockLost = errors.New("rank lock lost")

// RankLocker serializes rank recomputation per test so concurrent submissions
// cannot overwrite each other's freshly computed ranks with a stale snapshot.
//
// Lock returns a lease context that stays valid while the lock is held. Work
// done under the lock must use it; it is cancelled by unlock or when the lease
// is lost.
type RankLocker interface {
	Lock(ctx context.Context, testID string) (lease context.Context, unlock func(), err error)
}

const (
	defaultLockTTL  = 10 * time.Second
	defaultLockWait = 15 * time.Second
)

// NewRankLocker uses Redis when a client is configured, otherwise an in-process lock.
func NewRankLocker(client *redis.Client, cfg *config.Config) RankLocker {
	if client == nil {
		return NewLocalRankLocker()
	}
	ttl, wait := cfg.Redis.LockTTL, cfg.Redis.LockWait
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return NewRedisRankLocker(client, ttl, wait)
}

type localSlot struct {
	ch   chan struct{}
	refs int
}

// localRankLocker keeps a slot per test only while someone holds or waits for it.
type localRankLocker struct {
	mu    sync.Mutex
	slots map[string]*localSlot
}

func NewLocalRankLocker() RankLocker {
	return &localRankLocker{slots: make(map[string]*localSlot)}
}

func (l *localRankLocker) acquireSlot(testID string) *localSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[testID]
	if !ok {
		s = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[testID] = s
	}
	s.refs++
	return s
}

func (l *localRankLocker) releaseSlot(testID string, s *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, testID)
	}
}

func (l *localRankLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *localRankLocker) Lock(ctx context.Context, testID string) (context.Context, func(), error) {
	s := l.acquireSlot(testID)
	select {
	case s.ch <- struct{}{}:
		lease, cancel := context.WithCancel(ctx)
		var once sync.Once
		return lease, func() {
			once.Do(func() {
				cancel()
				<-s.ch
				l.releaseSlot(testID, s)
			})
		}, nil
	case <-ctx.Done():
		l.releaseSlot(testID, s)
		return nil, nil, fmt.Errorf("waiting for rank lock on test %s: %w", testID, ctx.Err())
	}
}

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lease only if this holder still owns it.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type redisRankLocker struct {
	client  *redis.Client
	ttl     time.Duration
	maxWait time.Duration
	retry   time.Duration
}

// NewRedisRankLocker holds a lease of ttl per test, renewed every ttl/3 while
// held, and gives up acquiring after maxWait.
func NewRedisRankLocker(client *redis.Client, ttl, maxWait time.Duration) RankLocker {
	return &redisRankLocker{client: client, ttl: ttl, maxWait: maxWait, retry: 25 * time.Millisecond}
}

func rankLockKey(testID string) string {
	return "rank-lock:" + testID
}

func (l *redisRankLocker) Lock(ctx context.Context, testID string) (context.Context, func(), error) {
	key := rankLockKey(testID)
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return nil, nil, fmt.Errorf("rank lock on test %s: %w", testID, err)
	}

	lease, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go l.keepAlive(lease, cancel, done, testID, key, token)

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			cancel(nil)
			<-done
			// Release with a fresh context: the request may already be cancelled.
			relCtx, relCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer relCancel()
			if err := releaseScript.Run(relCtx, l.client, []string{key}, token).Err(); err != nil {
				log.Warn().Err(err).Str("testID", testID).Msg("Failed to release rank lock, lease will expire")
			}
		})
	}
	return lease, unlock, nil
}

func (l *redisRankLocker) acquire(ctx context.Context, key, token string) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-waitCtx.Done():
			return fmt.Errorf("waiting: %w", waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// keepAlive renews the lease until it is cancelled. The lease is cancelled with
// ErrLockLost once the key belongs to someone else, or when renewals keep
// failing and the last granted lease is about to run out.
func (l *redisRankLocker) keepAlive(lease context.Context, cancel context.CancelCauseFunc, done chan<- struct{}, testID, key, token string) {
	defer close(done)

	interval := l.ttl / 3
	expires := time.Now().Add(l.ttl)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-lease.Done():
			return
		case <-ticker.C:
		}

		renewed, err := renewScript.Run(lease, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
		switch {
		case lease.Err() != nil:
			return
		case err == nil && renewed == 1:
			expires = time.Now().Add(l.ttl)
		case err == nil:
			log.Warn().Str("testID", testID).Msg("Rank lock taken over by another holder")
			cancel(ErrLockLost)
			return
		case time.Until(expires) <= interval:
			log.Warn().Err(err).Str("testID", testID).Msg("Rank lock renewal keeps failing, giving up the lease")
			cancel(ErrLockLost)
			return
		default:
			log.Warn().Err(err).Str("testID", testID).Msg("Rank lock renewal failed, retrying")
		}
	}
}
