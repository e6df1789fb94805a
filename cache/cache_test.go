package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/scttfrdmn/memkit/memkit"
)

func TestPutGet(t *testing.T) {
	m := New(memkit.EvictLRU, 1<<20, 100)
	defer m.Close()

	m.Put("a", "value-a", 10, 0)
	v, ok := m.Get("a")
	if !ok {
		t.Fatal("expected hit for key a")
	}
	if v.(string) != "value-a" {
		t.Errorf("expected value-a, got %v", v)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("expected miss for absent key")
	}

	stats := m.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("expected 1 hit / 1 miss, got %d / %d", stats.Hits, stats.Misses)
	}
}

func TestLRUEviction(t *testing.T) {
	m := New(memkit.EvictLRU, 1<<20, 2)
	defer m.Close()

	m.Put("a", 1, 10, 0)
	m.Put("b", 2, 10, 0)
	if _, ok := m.Get("a"); !ok {
		t.Fatal("expected a present before eviction")
	}
	m.Put("c", 3, 10, 0)

	// b is least recently used: a was touched after b's insert.
	if _, ok := m.Get("b"); ok {
		t.Error("expected b evicted")
	}
	if _, ok := m.Get("a"); !ok {
		t.Error("expected a retained")
	}
	if _, ok := m.Get("c"); !ok {
		t.Error("expected c retained")
	}
}

func TestLFUEviction(t *testing.T) {
	m := New(memkit.EvictLFU, 1<<20, 2)
	defer m.Close()

	m.Put("a", 1, 10, 0)
	m.Get("a")
	m.Get("a")
	m.Put("b", 2, 10, 0)
	m.Put("c", 3, 10, 0)

	// b and c tie on access count; the lexicographically smaller key loses.
	if _, ok := m.Get("b"); ok {
		t.Error("expected b evicted")
	}
	if _, ok := m.Get("a"); !ok {
		t.Error("expected a retained")
	}
}

func TestFIFOEviction(t *testing.T) {
	m := New(memkit.EvictFIFO, 1<<20, 2)
	defer m.Close()

	m.Put("a", 1, 10, 0)
	m.Put("b", 2, 10, 0)
	m.Get("a") // access does not rescue FIFO entries
	m.Put("c", 3, 10, 0)

	if _, ok := m.Get("a"); ok {
		t.Error("expected a evicted (oldest insert)")
	}
	if _, ok := m.Get("b"); !ok {
		t.Error("expected b retained")
	}
}

func TestSizeBound(t *testing.T) {
	m := New(memkit.EvictLRU, 100, 1000)
	defer m.Close()

	for i := 0; i < 10; i++ {
		m.Put(fmt.Sprintf("k%d", i), i, 40, 0)
		if got := m.Size(); got > 100 {
			t.Fatalf("size bound violated after insert %d: %d > 100", i, got)
		}
	}
	if m.Len() > 2 {
		t.Errorf("expected at most 2 entries of size 40 under capacity 100, got %d", m.Len())
	}
}

func TestOversizedRejected(t *testing.T) {
	m := New(memkit.EvictLRU, 100, 10)
	defer m.Close()

	m.Put("big", "x", 101, 0)
	if m.Len() != 0 {
		t.Errorf("expected oversized value rejected, cache has %d entries", m.Len())
	}
}

func TestTTLExpiry(t *testing.T) {
	m := New(memkit.EvictLRU, 1<<20, 100)
	defer m.Close()

	m.Put("short", "v", 10, 10*time.Millisecond)
	if _, ok := m.Get("short"); !ok {
		t.Fatal("expected hit before expiry")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := m.Get("short"); ok {
		t.Error("expected expired entry to read as a miss")
	}
	if m.Stats().Expired == 0 {
		t.Error("expected expired counter to advance")
	}
}

func TestDeleteAndFlush(t *testing.T) {
	m := New(memkit.EvictLRU, 1<<20, 100)
	defer m.Close()

	m.Put("a", 1, 10, 0)
	m.Put("b", 2, 10, 0)
	m.Delete("a")
	if _, ok := m.Get("a"); ok {
		t.Error("expected a deleted")
	}
	m.Flush()
	if m.Len() != 0 || m.Size() != 0 {
		t.Errorf("expected empty cache after flush, got len=%d size=%d", m.Len(), m.Size())
	}
}

func TestPutReplacesExisting(t *testing.T) {
	m := New(memkit.EvictLRU, 1<<20, 100)
	defer m.Close()

	m.Put("k", "old", 50, 0)
	m.Put("k", "new", 30, 0)
	if m.Len() != 1 {
		t.Fatalf("expected single entry, got %d", m.Len())
	}
	if m.Size() != 30 {
		t.Errorf("expected size 30 after replace, got %d", m.Size())
	}
	v, _ := m.Get("k")
	if v.(string) != "new" {
		t.Errorf("expected replaced value, got %v", v)
	}
}
