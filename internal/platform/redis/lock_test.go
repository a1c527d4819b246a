package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustscore/pkg/domain-errors"
)

func newLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client), mr
}

func TestLocker_ExclusiveUntilReleased(t *testing.T) {
	l, _ := newLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "credential:vc_1", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "credential:vc_1", time.Minute)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	other, err := l.Acquire(ctx, "credential:vc_2", time.Minute)
	require.NoError(t, err, "different keys do not contend")
	other()

	release()
	again, err := l.Acquire(ctx, "credential:vc_1", time.Minute)
	require.NoError(t, err)
	again()
}

func TestLocker_ExpiresAfterTTL(t *testing.T) {
	l, mr := newLocker(t)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists(lockKeyPrefix+"k"), "stale holder must not release the new lock")
	fresh()
	assert.False(t, mr.Exists(lockKeyPrefix+"k"))
}

func TestLocker_BackendDown(t *testing.T) {
	l, mr := newLocker(t)
	mr.Close()

	_, err := l.Acquire(context.Background(), "k", time.Second)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestLocker_WaitsForRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l := NewLocker(client, WithWait(2*time.Second))
	ctx := context.Background()

	release, err := l.Acquire(ctx, "credential:vc_1", time.Minute)
	require.NoError(t, err)
	go func() {
		time.Sleep(50 * time.Millisecond)
		release()
	}()

	next, err := l.Acquire(ctx, "credential:vc_1", time.Minute)
	require.NoError(t, err, "second holder gets the lock once the first releases")
	next()
}

func TestLocker_WaitGivesUp(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l := NewLocker(client, WithWait(60*time.Millisecond))
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	defer release()

	_, err = l.Acquire(ctx, "k", time.Minute)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewLocker(client, WithWait(time.Minute)).Acquire(cancelled, "k", time.Minute)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}
