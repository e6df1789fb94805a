package store

import (
	"strings"
	"testing"
)

func TestTokenCounterCount(t *testing.T) {
	c := NewTokenCounter()
	if got := c.Count(""); got != 0 {
		t.Errorf("expected 0 tokens for empty string, got %d", got)
	}
	if got := c.Count("Меня зовут Александр"); got == 0 {
		t.Error("expected positive token count")
	}
}

func TestTokenCounterTruncate(t *testing.T) {
	c := NewTokenCounter()
	text := strings.Repeat("слово за слово\n", 50)

	out := c.Truncate(text, 20)
	if got := c.Count(out); got > 20 {
		t.Errorf("truncated text still over budget: %d tokens", got)
	}
	if out == "" {
		t.Error("expected non-empty truncation for generous budget")
	}
	if !strings.HasPrefix(text, out) {
		t.Error("expected truncation to be a prefix of the source")
	}

	if got := c.Truncate(text, 0); got != "" {
		t.Errorf("expected empty result for zero budget, got %q", got)
	}
	short := "коротко"
	if got := c.Truncate(short, 100); got != short {
		t.Errorf("expected under-budget text unchanged, got %q", got)
	}
}
