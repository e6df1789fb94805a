package cache

import "github.com/scttfrdmn/memkit/memkit"

// selectEvictionCandidate picks the key to remove under the given policy.
//
// The policy set is closed and known at design time, so dispatch is a switch
// over the enum rather than an open plugin surface. Map iteration order is
// randomized in Go, so ties fall back to the lexicographically smallest key
// to keep eviction deterministic and testable.
func selectEvictionCandidate(policy memkit.EvictionPolicy, entries map[string]*entry) string {
	var victim *entry
	for _, e := range entries {
		if victim == nil {
			victim = e
			continue
		}
		if better(policy, e, victim) {
			victim = e
		}
	}
	if victim == nil {
		return ""
	}
	return victim.key
}

// better reports whether a is a stronger eviction candidate than b.
func better(policy memkit.EvictionPolicy, a, b *entry) bool {
	switch policy {
	case memkit.EvictLFU:
		if a.accessCnt != b.accessCnt {
			return a.accessCnt < b.accessCnt
		}
	case memkit.EvictFIFO:
		if a.insertSeq != b.insertSeq {
			return a.insertSeq < b.insertSeq
		}
	default: // LRU
		if a.lastAccess != b.lastAccess {
			return a.lastAccess < b.lastAccess
		}
	}
	return a.key < b.key
}
