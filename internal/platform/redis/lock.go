package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "trustscore/pkg/domain-errors"
)

const (
	lockKeyPrefix      = "lock:"
	defaultRetryPeriod = 25 * time.Millisecond
)

// releaseScript deletes the lock only if this holder still owns it, so a
// holder whose TTL lapsed cannot release a lock someone else now holds.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a single-node Redis lock (SET NX PX) for serializing work on a
// key across service instances.
type Locker struct {
	client redis.UniversalClient
	wait   time.Duration
	retry  time.Duration
}

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithWait makes Acquire poll a held lock for up to d before giving up.
func WithWait(d time.Duration) LockerOption {
	return func(l *Locker) {
		l.wait = d
	}
}

func NewLocker(client redis.UniversalClient, opts ...LockerOption) *Locker {
	l := &Locker{client: client, retry: defaultRetryPeriod}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire takes the lock for key. A held lock is retried until the wait
// configured by WithWait runs out (immediately by default), then Acquire fails
// with CodeConflict. The lock expires after ttl even if release is never
// called.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, lockKeyPrefix+key, token, ttl).Result()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "lock backend unavailable")
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, dErrors.New(dErrors.CodeConflict, "concurrent operation in progress for "+key)
		}
		select {
		case <-ctx.Done():
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "waiting for lock on "+key)
		case <-time.After(l.retry):
		}
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		releaseScript.Run(ctx, l.client, []string{lockKeyPrefix + key}, token) //nolint:errcheck // TTL bounds a failed release
	}
	return release, nil
}
