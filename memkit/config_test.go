package memkit

import (
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero inactivity", func(c *Config) { c.InactivityThreshold = 0 }},
		{"hybrid weight above 1", func(c *Config) { c.HybridWeight = 1.5 }},
		{"zero cache capacity", func(c *Config) { c.CacheCapacity = 0 }},
		{"zero cache entries", func(c *Config) { c.CacheMaxEntries = 0 }},
		{"unknown eviction", func(c *Config) { c.Eviction = "random" }},
		{"negative tolerance", func(c *Config) { c.FactConfidenceTolerance = -0.1 }},
		{"floor above 1", func(c *Config) { c.FactConfidenceFloor = 2 }},
		{"zero context tokens", func(c *Config) { c.MaxContextTokens = 0 }},
		{"unordered ages", func(c *Config) {
			c.CompressionAges = AgeThresholds{Light: time.Hour, Moderate: time.Hour, Aggressive: 2 * time.Hour}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
