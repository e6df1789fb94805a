package store

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures text against the answer-context token budget.
//
// It uses the cl100k_base BPE when available and falls back to a
// rune-length estimate when the encoding cannot be loaded (offline
// environments), so the budget is always enforced.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter creates a token counter.
func NewTokenCounter() *TokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

// Count returns the token count of s.
func (c *TokenCounter) Count(s string) int {
	if s == "" {
		return 0
	}
	if c.enc == nil {
		return len([]rune(s))/3 + 1
	}
	return len(c.enc.Encode(s, nil, nil))
}

// Truncate trims s to at most maxTokens tokens, cutting at a line boundary
// where possible. Returns "" when maxTokens leaves no room.
func (c *TokenCounter) Truncate(s string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if c.Count(s) <= maxTokens {
		return s
	}
	// Binary search the longest rune prefix within budget.
	runes := []rune(s)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.Count(string(runes[:mid])) <= maxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	out := string(runes[:lo])
	if i := lastLineBreak(out); i > 0 {
		out = out[:i]
	}
	return out
}

func lastLineBreak(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' {
			return i
		}
	}
	return -1
}
