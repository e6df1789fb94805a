package memkit

import (
	"fmt"
	"time"
)

// EvictionPolicy selects which cache entry to remove when over capacity.
type EvictionPolicy string

const (
	EvictLRU  EvictionPolicy = "lru"
	EvictLFU  EvictionPolicy = "lfu"
	EvictFIFO EvictionPolicy = "fifo"
)

// AgeThresholds maps entry age to the compression level the entry is promoted
// to during a compaction pass. An entry older than Aggressive is compressed
// aggressively; younger than Light it stays uncompressed.
type AgeThresholds struct {
	Light      time.Duration
	Moderate   time.Duration
	Aggressive time.Duration
}

// Config holds the engine tuning parameters enumerated by the external
// configuration boundary. Construct with DefaultConfig and override fields.
type Config struct {
	// InactivityThreshold is the silence gap that closes a session.
	// Default: 30 minutes
	InactivityThreshold time.Duration

	// CompressionAges are the age thresholds for compression promotion.
	CompressionAges AgeThresholds

	// HybridWeight balances vector similarity against keyword overlap in
	// hybrid search, in [0,1]. 1 = pure vector, 0 = pure keyword.
	// Default: 0.7
	HybridWeight float64

	// QualityThreshold is the minimum message quality score kept by the
	// filter. Default: 0.15
	QualityThreshold float64

	// CacheCapacity is the process-wide cache budget in size-estimate units.
	// Default: 64 MiB
	CacheCapacity int64

	// CacheMaxEntries bounds the cache by entry count. Default: 10000
	CacheMaxEntries int

	// Eviction selects the cache eviction policy. Default: lru
	Eviction EvictionPolicy

	// FactConfidenceTolerance allows a new fact to supersede an active one
	// when its confidence is within this margin below the incumbent.
	// Default: 0.1
	FactConfidenceTolerance float64

	// FactConfidenceFloor is the minimum confidence for a strictly newer
	// fact to supersede on recency alone. Default: 0.5
	FactConfidenceFloor float64

	// MaxContextTokens bounds the assembled answer context. Default: 1500
	MaxContextTokens int
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		InactivityThreshold: 30 * time.Minute,
		CompressionAges: AgeThresholds{
			Light:      24 * time.Hour,
			Moderate:   7 * 24 * time.Hour,
			Aggressive: 30 * 24 * time.Hour,
		},
		HybridWeight:            0.7,
		QualityThreshold:        0.15,
		CacheCapacity:           64 << 20,
		CacheMaxEntries:         10000,
		Eviction:                EvictLRU,
		FactConfidenceTolerance: 0.1,
		FactConfidenceFloor:     0.5,
		MaxContextTokens:        1500,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.InactivityThreshold <= 0 {
		return fmt.Errorf("inactivity_threshold must be positive, got %v", c.InactivityThreshold)
	}
	if c.HybridWeight < 0 || c.HybridWeight > 1 {
		return fmt.Errorf("hybrid_weight must be in [0,1], got %v", c.HybridWeight)
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf("cache_capacity must be at least 1, got %d", c.CacheCapacity)
	}
	if c.CacheMaxEntries < 1 {
		return fmt.Errorf("cache_max_entries must be at least 1, got %d", c.CacheMaxEntries)
	}
	switch c.Eviction {
	case EvictLRU, EvictLFU, EvictFIFO:
	default:
		return fmt.Errorf("unknown eviction policy %q", c.Eviction)
	}
	if c.FactConfidenceTolerance < 0 || c.FactConfidenceTolerance > 1 {
		return fmt.Errorf("fact_confidence_tolerance must be in [0,1], got %v", c.FactConfidenceTolerance)
	}
	if c.FactConfidenceFloor < 0 || c.FactConfidenceFloor > 1 {
		return fmt.Errorf("fact_confidence_floor must be in [0,1], got %v", c.FactConfidenceFloor)
	}
	if c.MaxContextTokens < 1 {
		return fmt.Errorf("max_context_tokens must be at least 1, got %d", c.MaxContextTokens)
	}
	ages := c.CompressionAges
	if ages.Light <= 0 || ages.Moderate <= ages.Light || ages.Aggressive <= ages.Moderate {
		return fmt.Errorf("compression age thresholds must satisfy 0 < light < moderate < aggressive, got %+v", ages)
	}
	return nil
}
