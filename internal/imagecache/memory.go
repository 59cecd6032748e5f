package imagecache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryConfig bounds a Memory cache. Zero values disable the bound.
type MemoryConfig struct {
	MaxEntries int
	MaxBytes   int64
	TTL        time.Duration
}

// Memory is an in-process LRU cache bounded by entry count and total bytes.
// Expired photos are dropped by the LRU's own janitor.
type Memory struct {
	mu       sync.Mutex
	lru      *expirable.LRU[int64, []byte]
	maxBytes int64
	bytes    atomic.Int64
}

var _ Cache = (*Memory)(nil)

func NewMemory(cfg MemoryConfig) *Memory {
	m := &Memory{maxBytes: cfg.MaxBytes}
	m.lru = expirable.NewLRU[int64, []byte](cfg.MaxEntries, func(_ int64, data []byte) {
		m.bytes.Add(-int64(len(data)))
	}, cfg.TTL)
	return m
}

// Put stores a copy of data for userID and evicts least recently used photos
// until the byte bound holds again. A photo larger than MaxBytes is rejected
// with ErrTooLarge and the previous photo is kept.
func (m *Memory) Put(_ context.Context, userID int64, data []byte) error {
	if m.maxBytes > 0 && int64(len(data)) > m.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds cache limit of %d", ErrTooLarge, len(data), m.maxBytes)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Remove first so the eviction callback settles the old size.
	m.lru.Remove(userID)
	m.bytes.Add(int64(len(data)))
	m.lru.Add(userID, append([]byte(nil), data...))

	for m.maxBytes > 0 && m.bytes.Load() > m.maxBytes {
		if _, _, ok := m.lru.RemoveOldest(); !ok {
			break
		}
	}
	return nil
}

// Get returns the photo for userID and marks it recently used. The returned
// slice is shared with the cache and must not be modified.
func (m *Memory) Get(_ context.Context, userID int64) ([]byte, error) {
	data, ok := m.lru.Get(userID)
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (m *Memory) Delete(_ context.Context, userID int64) error {
	m.lru.Remove(userID)
	return nil
}

// Len returns the number of cached photos and their total size.
func (m *Memory) Len() (int, int64) {
	return m.lru.Len(), m.bytes.Load()
}
