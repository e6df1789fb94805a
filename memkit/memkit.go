// Package memkit provides core types for the memkit conversational memory engine.
//
// Memkit ingests a growing dialogue history, groups it into sessions, filters
// noise, extracts durable facts, compresses aging content, and serves bounded
// retrieval context to an answering model on demand.
//
// Design principles:
//   - Minimal: Only essential types and contracts
//   - Id-based: Cross-entity references are ids resolved through arenas, never pointers
//   - Immutable: Messages and sessions never mutate after creation
//   - Deterministic: Grouping, ranking, and conflict resolution are reproducible
package memkit

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single utterance in a dialogue. Immutable once ingested.
type Message struct {
	ID         string    `json:"id"`
	DialogueID string    `json:"dialogue_id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	// Ordinal is the ingestion sequence number within the dialogue.
	// Used for stable ordering of same-timestamp messages and for
	// replay detection (watermarking).
	Ordinal int64 `json:"ordinal"`
}

// Validate checks the message against ingestion constraints.
func (m *Message) Validate() error {
	if m.Role != RoleUser && m.Role != RoleAssistant {
		return fmt.Errorf("%w: role must be %q or %q, got %q", ErrIngestion, RoleUser, RoleAssistant, m.Role)
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrIngestion)
	}
	return nil
}

// IsBlank reports whether the message content is empty or whitespace-only.
func (m *Message) IsBlank() bool {
	return strings.TrimSpace(m.Content) == ""
}

// Session is a contiguous run of messages grouped by temporal proximity.
// Created by the grouper and never mutated afterwards; regrouping with
// different parameters supersedes the whole session list for a dialogue.
type Session struct {
	ID         string    `json:"id"`
	DialogueID string    `json:"dialogue_id"`
	MessageIDs []string  `json:"message_ids"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	// Topic is an optional derived label, empty when not computed.
	Topic string `json:"topic,omitempty"`
	// Sealed sessions accept no further messages.
	Sealed bool `json:"sealed"`
}

// CompressionLevel is a discrete fidelity tier applied to aging memory entries.
// Levels only increase over an entry's lifetime.
type CompressionLevel int

const (
	CompressionNone CompressionLevel = iota
	CompressionLight
	CompressionModerate
	CompressionAggressive
)

// String returns the level name.
func (l CompressionLevel) String() string {
	switch l {
	case CompressionNone:
		return "none"
	case CompressionLight:
		return "light"
	case CompressionModerate:
		return "moderate"
	case CompressionAggressive:
		return "aggressive"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// MemoryEntry is the retrievable unit held by the memory store. It references
// its source session by id and carries either the raw session text or a
// compressed surrogate of it.
type MemoryEntry struct {
	ID              string           `json:"id"`
	DialogueID      string           `json:"dialogue_id"`
	SourceSessionID string           `json:"source_session_id"`
	Text            string           `json:"text"`
	Embedding       []float64        `json:"embedding,omitempty"`
	Level           CompressionLevel `json:"compression_level"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Fact is an atomic (subject, predicate, value) statement extracted from a
// session. Facts about the same (dialogue, subject, predicate) form a version
// chain; only the head with an empty SupersededBy is active.
type Fact struct {
	ID              string    `json:"id"`
	DialogueID      string    `json:"dialogue_id"`
	Subject         string    `json:"subject"`
	Predicate       string    `json:"predicate"`
	Value           string    `json:"value"`
	Confidence      float64   `json:"confidence"`
	SourceSessionID string    `json:"source_session_id"`
	CreatedAt       time.Time `json:"created_at"`
	// SupersededBy holds the id of the fact that replaced this one,
	// empty while this fact is the active chain head.
	SupersededBy string `json:"superseded_by,omitempty"`
	// Inactive marks facts that lost conflict resolution on arrival.
	// They are kept for audit and never retrieved.
	Inactive bool `json:"inactive,omitempty"`
}

// Active reports whether the fact is the usable head of its chain.
func (f *Fact) Active() bool {
	return f.SupersededBy == "" && !f.Inactive
}

// Key returns the chain key for conflict resolution.
func (f *Fact) Key() string {
	return f.DialogueID + "\x00" + f.Subject + "\x00" + f.Predicate
}
