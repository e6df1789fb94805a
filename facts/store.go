package facts

import (
	"sort"
	"sync"

	"github.com/scttfrdmn/memkit/memkit"
)

// TieRecord logs an exact-confidence conflict resolved by recency, kept for
// audit and never surfaced to callers.
type TieRecord struct {
	ChainKey   string
	KeptFactID string
	OldFactID  string
}

// Store holds fact version chains per dialogue.
//
// Facts are kept in an id-keyed arena; chains are id relations, never
// embedded references. Updates only append: a superseded fact gets its
// SupersededBy set, in-place value mutation never happens, so the full audit
// history survives.
//
// Conflict policy (deterministic and total): a new fact with a different
// value for an active (dialogue, subject, predicate) supersedes the head
// when its confidence is strictly higher, when it is within the tolerance
// below the incumbent's and not chronologically older, or when it is
// strictly newer and at or above the confidence floor. Otherwise it is
// stored inactive. Exact confidence ties go to the fact with the later
// CreatedAt and are recorded for audit.
//
// Example:
//
//	s := NewStore(0.1, 0.5)
//	stored := s.Upsert(fact)
//	active := s.ActiveFacts("dlg-1")
type Store struct {
	mu        sync.RWMutex
	arena     map[string]*memkit.Fact
	heads     map[string]string   // chain key -> active fact id
	byDlg     map[string][]string // dialogue id -> fact ids in arrival order
	tolerance float64
	floor     float64
	ties      []TieRecord
}

// NewStore creates a fact store with the given conflict tolerance and
// recency confidence floor.
func NewStore(tolerance, floor float64) *Store {
	return &Store{
		arena:     make(map[string]*memkit.Fact),
		heads:     make(map[string]string),
		byDlg:     make(map[string][]string),
		tolerance: tolerance,
		floor:     floor,
	}
}

// Upsert stores a fact, applying conflict resolution against the active head
// of its chain. Returns the fact as stored (the existing head when the new
// fact restates its value, which keeps replayed extraction idempotent).
func (s *Store) Upsert(f memkit.Fact) memkit.Fact {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := f.Key()
	headID, ok := s.heads[key]
	if !ok {
		s.insertLocked(&f)
		s.heads[key] = f.ID
		return f
	}

	head := s.arena[headID]
	if head.Value == f.Value {
		// Restated fact: refresh confidence, append nothing.
		if f.Confidence > head.Confidence {
			head.Confidence = f.Confidence
		}
		return *head
	}

	// The tolerance band only lets a roughly-equal fact win when it is not
	// older than the incumbent; recency breaks exact ties.
	supersedes := f.Confidence > head.Confidence ||
		(f.Confidence >= head.Confidence-s.tolerance && !f.CreatedAt.Before(head.CreatedAt)) ||
		(f.CreatedAt.After(head.CreatedAt) && f.Confidence >= s.floor)

	if !supersedes {
		f.Inactive = true
		s.insertLocked(&f)
		return f
	}

	if f.Confidence == head.Confidence {
		s.ties = append(s.ties, TieRecord{ChainKey: key, KeptFactID: f.ID, OldFactID: head.ID})
	}
	s.insertLocked(&f)
	head.SupersededBy = f.ID
	s.heads[key] = f.ID
	return f
}

// ActiveFacts returns the current chain heads for a dialogue, ordered by
// (subject, predicate) for deterministic output.
func (s *Store) ActiveFacts(dialogueID string) []memkit.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]memkit.Fact, 0)
	for _, id := range s.byDlg[dialogueID] {
		f := s.arena[id]
		if f.Active() {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].Predicate < out[j].Predicate
	})
	return out
}

// Chain returns the full version chain for (subject, predicate) in arrival
// order, superseded and inactive facts included.
func (s *Store) Chain(dialogueID, subject, predicate string) []memkit.Fact {
	lookup := memkit.Fact{DialogueID: dialogueID, Subject: subject, Predicate: predicate}
	key := lookup.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]memkit.Fact, 0)
	for _, id := range s.byDlg[dialogueID] {
		f := s.arena[id]
		if f.Key() == key {
			out = append(out, *f)
		}
	}
	return out
}

// All returns every stored fact for a dialogue in arrival order, for
// snapshot persistence.
func (s *Store) All(dialogueID string) []memkit.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]memkit.Fact, 0, len(s.byDlg[dialogueID]))
	for _, id := range s.byDlg[dialogueID] {
		out = append(out, *s.arena[id])
	}
	return out
}

// Restore loads facts saved by All, rebuilding chain heads. Existing facts
// for the dialogues involved are replaced wholesale, so restoring an older
// snapshot cannot leave a chain with two active heads.
func (s *Store) Restore(facts []memkit.Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dialogues := make(map[string]bool)
	for i := range facts {
		dialogues[facts[i].DialogueID] = true
	}
	for dlg := range dialogues {
		for _, id := range s.byDlg[dlg] {
			old := s.arena[id]
			delete(s.arena, id)
			if s.heads[old.Key()] == id {
				delete(s.heads, old.Key())
			}
		}
		delete(s.byDlg, dlg)
	}

	for i := range facts {
		f := facts[i]
		s.arena[f.ID] = &f
		s.byDlg[f.DialogueID] = append(s.byDlg[f.DialogueID], f.ID)
		if f.Active() {
			s.heads[f.Key()] = f.ID
		}
	}
}

// Ties returns the audit log of exact-confidence conflicts.
func (s *Store) Ties() []TieRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TieRecord, len(s.ties))
	copy(out, s.ties)
	return out
}

func (s *Store) insertLocked(f *memkit.Fact) {
	s.arena[f.ID] = f
	s.byDlg[f.DialogueID] = append(s.byDlg[f.DialogueID], f.ID)
}
