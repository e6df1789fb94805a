// Package sessions partitions a message stream into coherent sessions and
// ranks them against queries.
//
// Grouping is deterministic: the same message sequence always yields the same
// session boundaries, which keeps re-ingestion idempotent.
package sessions

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/scttfrdmn/memkit/memkit"
)

// BoundaryMarker in a message opens a new session regardless of timing.
const BoundaryMarker = "/new"

// Grouper partitions time-ordered messages into sessions.
//
// A new session opens when the gap since the previous message exceeds the
// inactivity threshold, or when a message begins with the boundary marker.
//
// Example:
//
//	g := NewGrouper(30 * time.Minute)
//	sessions := g.Group(messages)
type Grouper struct {
	inactivity time.Duration
}

// NewGrouper creates a grouper with the given inactivity threshold.
func NewGrouper(inactivity time.Duration) *Grouper {
	return &Grouper{inactivity: inactivity}
}

// Group partitions messages into sessions.
//
// Input is sorted by (timestamp, ordinal) first, so ties keep ingestion order
// and grouping the same set twice yields identical boundaries. Session ids are
// derived from the dialogue id and session index, not random, for the same
// reason.
func (g *Grouper) Group(msgs []memkit.Message) []memkit.Session {
	if len(msgs) == 0 {
		return nil
	}

	ordered := make([]memkit.Message, len(msgs))
	copy(ordered, msgs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].Ordinal < ordered[j].Ordinal
		}
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	sessions := make([]memkit.Session, 0)
	var cur *memkit.Session
	var prev time.Time

	for _, msg := range ordered {
		boundary := strings.HasPrefix(strings.TrimSpace(msg.Content), BoundaryMarker)
		if cur == nil || boundary || msg.Timestamp.Sub(prev) > g.inactivity {
			if cur != nil {
				cur.Sealed = true
				sessions = append(sessions, *cur)
			}
			cur = &memkit.Session{
				ID:         sessionID(msg.DialogueID, len(sessions)+1),
				DialogueID: msg.DialogueID,
				Start:      msg.Timestamp,
			}
		}
		cur.MessageIDs = append(cur.MessageIDs, msg.ID)
		cur.End = msg.Timestamp
		prev = msg.Timestamp
	}
	if cur != nil {
		sessions = append(sessions, *cur)
	}
	return sessions
}

// Content renders a session as role-tagged lines for downstream embedding,
// compression, and fact extraction.
func Content(session memkit.Session, byID map[string]memkit.Message) string {
	var b strings.Builder
	for _, id := range session.MessageIDs {
		msg, ok := byID[id]
		if !ok {
			continue
		}
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func sessionID(dialogueID string, n int) string {
	return fmt.Sprintf("%s-s%04d", dialogueID, n)
}
