// Package facts extracts atomic (subject, predicate, value) facts from
// sessions and stores them as version chains with deterministic conflict
// resolution.
package facts

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scttfrdmn/memkit/memkit"
)

// Subject used for facts extracted from the user's own statements.
const SubjectUser = "user"

// Extractor pulls candidate facts out of session text with the precompiled
// rule set. It is stateless and safe for concurrent use.
//
// Example:
//
//	ex := NewExtractor(0.5)
//	candidates := ex.Extract(session, content)
type Extractor struct {
	minConfidence float64
}

// NewExtractor creates an extractor that drops candidates below
// minConfidence.
func NewExtractor(minConfidence float64) *Extractor {
	return &Extractor{minConfidence: minConfidence}
}

// Extract returns candidate facts found in the session content.
//
// Content is the role-tagged rendering from sessions.Content; only user lines
// are scanned, since assistant turns restate rather than assert. At most one
// fact per predicate per session: the first pattern hit of a rule wins.
func (e *Extractor) Extract(session memkit.Session, content string) []memkit.Fact {
	userText := userLines(content)
	if userText == "" {
		return nil
	}

	found := make([]memkit.Fact, 0)
	for _, rule := range rules {
		if rule.Confidence < e.minConfidence {
			continue
		}
		for _, pattern := range rule.Patterns {
			m := pattern.FindStringSubmatch(userText)
			if m == nil {
				continue
			}
			value := strings.TrimSpace(m[1])
			if rule.Normalize != nil {
				value = rule.Normalize(value)
			}
			if value == "" {
				break
			}
			found = append(found, memkit.Fact{
				ID:              uuid.NewString(),
				DialogueID:      session.DialogueID,
				Subject:         SubjectUser,
				Predicate:       rule.Predicate,
				Value:           value,
				Confidence:      rule.Confidence,
				SourceSessionID: session.ID,
				CreatedAt:       sessionTime(session),
			})
			break
		}
	}
	return found
}

// userLines strips assistant turns from role-tagged session content.
func userLines(content string) string {
	var b strings.Builder
	for _, line := range strings.Split(content, "\n") {
		if rest, ok := strings.CutPrefix(line, memkit.RoleUser+": "); ok {
			b.WriteString(rest)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// sessionTime anchors fact recency to the session end, not extraction time,
// so re-extraction of an old session cannot outrank genuinely newer facts.
func sessionTime(s memkit.Session) time.Time {
	if !s.End.IsZero() {
		return s.End
	}
	return s.Start
}
