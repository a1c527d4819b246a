// Package sync holds in-process locking helpers.
package sync

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const defaultShards = 64

// ShardedMutex serializes work per key without a global lock. Distinct keys
// may share a shard, so holders must not take a second key's lock.
type ShardedMutex struct {
	shards []sync.Mutex
}

func NewShardedMutex() *ShardedMutex {
	return NewShardedMutexN(defaultShards)
}

// NewShardedMutexN builds a mutex with n shards (minimum 1).
func NewShardedMutexN(n int) *ShardedMutex {
	if n < 1 {
		n = 1
	}
	return &ShardedMutex{shards: make([]sync.Mutex, n)}
}

func (m *ShardedMutex) Lock(key string) {
	m.shard(key).Lock()
}

func (m *ShardedMutex) Unlock(key string) {
	m.shard(key).Unlock()
}

// Do runs fn while holding key's shard.
func (m *ShardedMutex) Do(key string, fn func() error) error {
	mu := m.shard(key)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

func (m *ShardedMutex) shard(key string) *sync.Mutex {
	return &m.shards[xxhash.Sum64String(key)%uint64(len(m.shards))]
}
