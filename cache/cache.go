// Package cache provides the process-wide bounded cache shared across
// dialogues: embeddings, fact lookups, compressed summaries, query results.
//
// The cache is an explicitly constructed component with a defined shutdown
// sequence; nothing holds pointers into it. Entries are reached only by key so
// eviction is always free to reclaim storage.
package cache

import (
	"sync"
	"time"

	"github.com/scttfrdmn/memkit/memkit"
)

type entry struct {
	key        string
	value      interface{}
	size       int64
	insertSeq  int64
	lastAccess int64 // monotonic access sequence, not wall time
	accessCnt  int64
	deadline   time.Time // zero means no TTL
}

func (e *entry) expired(now time.Time) bool {
	return !e.deadline.IsZero() && now.After(e.deadline)
}

// Stats tracks cache manager counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Expired   int64
	Size      int64
	Entries   int
}

// Manager is a bounded key-value cache with TTL and pluggable eviction.
//
// Capacity is enforced on both entry count and the sum of caller-supplied
// size estimates; the invariant that total size never exceeds capacity holds
// after every mutating call. Eviction policy is one of LRU, LFU, FIFO.
//
// Example:
//
//	m := New(memkit.EvictLRU, 64<<20, 10000)
//	defer m.Close()
//	m.Put("emb:abc", vec, 3072, time.Hour)
//	v, ok := m.Get("emb:abc")
type Manager struct {
	mu       sync.Mutex
	entries  map[string]*entry
	policy   memkit.EvictionPolicy
	capacity int64
	maxCount int
	size     int64
	seq      int64
	stats    Stats
	done     chan struct{}
	closed   bool
}

// New creates a cache manager and starts its background TTL sweep.
func New(policy memkit.EvictionPolicy, capacity int64, maxEntries int) *Manager {
	m := &Manager{
		entries:  make(map[string]*entry),
		policy:   policy,
		capacity: capacity,
		maxCount: maxEntries,
		done:     make(chan struct{}),
	}
	go m.sweep(time.Minute)
	return m
}

// Get returns the cached value for key. An expired entry counts as a miss
// even if the sweep has not removed it yet.
func (m *Manager) Get(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		m.stats.Misses++
		return nil, false
	}
	if e.expired(time.Now()) {
		m.removeLocked(e)
		m.stats.Expired++
		m.stats.Misses++
		return nil, false
	}
	m.seq++
	e.lastAccess = m.seq
	e.accessCnt++
	m.stats.Hits++
	return e.value, true
}

// Put stores value under key with the given size estimate and TTL
// (ttl <= 0 means no expiry). Oversized values that can never fit are
// rejected silently rather than flushing the whole cache.
func (m *Manager) Put(key string, value interface{}, size int64, ttl time.Duration) {
	if size > m.capacity {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[key]; ok {
		m.removeLocked(old)
	}

	m.seq++
	e := &entry{
		key:        key,
		value:      value,
		size:       size,
		insertSeq:  m.seq,
		lastAccess: m.seq,
		accessCnt:  1,
	}
	if ttl > 0 {
		e.deadline = time.Now().Add(ttl)
	}
	m.entries[key] = e
	m.size += size

	for m.size > m.capacity || len(m.entries) > m.maxCount {
		victim := selectEvictionCandidate(m.policy, m.entries)
		if victim == "" {
			break
		}
		m.removeLocked(m.entries[victim])
		m.stats.Evictions++
	}
}

// Delete removes key if present.
func (m *Manager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		m.removeLocked(e)
	}
}

// Len returns the live entry count.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Size returns the current total size estimate.
func (m *Manager) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Stats returns a snapshot of the counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Size = m.size
	s.Entries = len(m.entries)
	return s
}

// Flush removes every entry.
func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
	m.size = 0
}

// Close flushes the cache and stops the background sweep. Safe to call once.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.entries = make(map[string]*entry)
	m.size = 0
	m.mu.Unlock()
	close(m.done)
}

func (m *Manager) removeLocked(e *entry) {
	delete(m.entries, e.key)
	m.size -= e.size
}

// sweep proactively removes expired entries so TTL reclamation does not
// depend on access patterns.
func (m *Manager) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for _, e := range m.entries {
				if e.expired(now) {
					m.removeLocked(e)
					m.stats.Expired++
				}
			}
			m.mu.Unlock()
		}
	}
}
