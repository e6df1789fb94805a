package index

import (
	"math"
	"testing"
)

func TestUpsertSearchHybrid(t *testing.T) {
	idx := New()
	idx.Upsert(Record{DocID: "a", Vector: []float64{1, 0}, Tokens: []string{"alpha"}})
	idx.Upsert(Record{DocID: "b", Vector: []float64{0, 1}, Tokens: []string{"alpha"}})

	hits := idx.Search([]float64{1, 0}, []string{"alpha"}, 5, 0.7)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].DocID != "a" {
		t.Errorf("expected vector match first, got %s", hits[0].DocID)
	}
	// a: 0.7*1 + 0.3*1 = 1.0; b: 0.7*0 + 0.3*1 = 0.3
	if math.Abs(hits[0].Score-1.0) > 1e-9 {
		t.Errorf("expected score 1.0 for a, got %v", hits[0].Score)
	}
	if math.Abs(hits[1].Score-0.3) > 1e-9 {
		t.Errorf("expected score 0.3 for b, got %v", hits[1].Score)
	}
}

func TestSearchKeywordOnlyWithNilVector(t *testing.T) {
	idx := New()
	idx.Upsert(Record{DocID: "a", Vector: []float64{1, 0}, Tokens: []string{"cats"}})
	idx.Upsert(Record{DocID: "b", Tokens: []string{"dogs"}})

	hits := idx.Search(nil, []string{"dogs"}, 5, 0.7)
	if hits[0].DocID != "b" {
		t.Errorf("expected keyword-only scoring with nil vector, got %s first", hits[0].DocID)
	}
	if math.Abs(hits[0].Score-1.0) > 1e-9 {
		t.Errorf("expected full keyword weight, got %v", hits[0].Score)
	}
}

func TestSearchTieBreakByDocID(t *testing.T) {
	idx := New()
	idx.Upsert(Record{DocID: "z", Tokens: []string{"same"}})
	idx.Upsert(Record{DocID: "a", Tokens: []string{"same"}})
	idx.Upsert(Record{DocID: "m", Tokens: []string{"same"}})

	hits := idx.Search(nil, []string{"same"}, 0, 0)
	want := []string{"a", "m", "z"}
	for i, h := range hits {
		if h.DocID != want[i] {
			t.Fatalf("tie-break order: got %s at %d, want %s", h.DocID, i, want[i])
		}
	}
}

func TestSearchTopK(t *testing.T) {
	idx := New()
	idx.Upsert(Record{DocID: "a", Tokens: []string{"x", "y"}})
	idx.Upsert(Record{DocID: "b", Tokens: []string{"x"}})
	idx.Upsert(Record{DocID: "c", Tokens: []string{"z"}})

	hits := idx.Search(nil, []string{"x", "y"}, 2, 0)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].DocID != "a" || hits[1].DocID != "b" {
		t.Errorf("unexpected order: %s %s", hits[0].DocID, hits[1].DocID)
	}
}

func TestRemoveEffectiveImmediately(t *testing.T) {
	idx := New()
	idx.Upsert(Record{DocID: "a", Tokens: []string{"x"}})
	idx.Remove("a")

	if idx.Has("a") {
		t.Error("expected a removed")
	}
	hits := idx.Search(nil, []string{"x"}, 5, 0)
	if len(hits) != 0 {
		t.Errorf("expected no hits after removal, got %d", len(hits))
	}
}

func TestUpsertReplaces(t *testing.T) {
	idx := New()
	idx.Upsert(Record{DocID: "a", Tokens: []string{"old"}})
	idx.Upsert(Record{DocID: "a", Tokens: []string{"new"}})

	if idx.Len() != 1 {
		t.Fatalf("expected single record, got %d", idx.Len())
	}
	hits := idx.Search(nil, []string{"old"}, 5, 0)
	if len(hits) != 1 || hits[0].Score != 0 {
		t.Error("expected old tokens replaced")
	}
}

func TestRecordsSortedSnapshot(t *testing.T) {
	idx := New()
	idx.Upsert(Record{DocID: "b"})
	idx.Upsert(Record{DocID: "a"})

	recs := idx.Records()
	if len(recs) != 2 || recs[0].DocID != "a" || recs[1].DocID != "b" {
		t.Errorf("expected sorted snapshot, got %v", recs)
	}
}

func TestCosineZeroVector(t *testing.T) {
	if got := cosine([]float64{0, 0}, []float64{1, 0}); got != 0 {
		t.Errorf("expected 0 for zero-norm vector, got %v", got)
	}
}
