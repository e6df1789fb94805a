// Package index provides the in-memory vector index with hybrid
// (vector + keyword) search.
//
// Documents are upserted incrementally as new sessions arrive; removal is
// immediately effective in the next search. Queries read a copy-on-read
// snapshot of the record set, so searches never block writers for long and
// never observe a half-applied upsert.
package index

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Record is one indexed document: a memory entry or a fact rendering.
type Record struct {
	DocID    string
	Vector   []float64
	Tokens   []string
	Metadata map[string]string
}

// Hit is a scored search result.
type Hit struct {
	DocID string
	Score float64
}

// Index stores vectors with keyword token sets and serves hybrid queries.
//
// Example:
//
//	idx := New()
//	idx.Upsert(Record{DocID: "e1", Vector: vec, Tokens: toks})
//	hits := idx.Search(queryVec, queryToks, 5, 0.7)
type Index struct {
	mu      sync.RWMutex
	records map[string]Record
}

// New creates an empty index.
func New() *Index {
	return &Index{records: make(map[string]Record)}
}

// Upsert inserts or replaces a document. The record becomes visible
// atomically; searches see either the old version or the new one.
func (x *Index) Upsert(rec Record) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.records[rec.DocID] = rec
}

// Remove deletes a document. Effective in the next Search call.
func (x *Index) Remove(docID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.records, docID)
}

// Has reports whether docID is indexed.
func (x *Index) Has(docID string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.records[docID]
	return ok
}

// Len returns the number of indexed documents.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records)
}

// Records returns a snapshot copy of all records, for persistence.
func (x *Index) Records() []Record {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]Record, 0, len(x.records))
	for _, rec := range x.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out
}

// Search returns the top-k documents by hybrid score:
//
//	score = hybridWeight*cosine(queryVector, doc) + (1-hybridWeight)*keywordOverlap
//
// A nil queryVector forces keyword-only scoring regardless of hybridWeight.
// Equal scores break ties by ascending doc id for deterministic ordering.
func (x *Index) Search(queryVector []float64, queryTokens []string, k int, hybridWeight float64) []Hit {
	x.mu.RLock()
	snapshot := make([]Record, 0, len(x.records))
	for _, rec := range x.records {
		snapshot = append(snapshot, rec)
	}
	x.mu.RUnlock()

	if queryVector == nil {
		hybridWeight = 0
	}
	querySet := make(map[string]bool, len(queryTokens))
	for _, t := range queryTokens {
		querySet[t] = true
	}

	hits := make([]Hit, 0, len(snapshot))
	for _, rec := range snapshot {
		score := 0.0
		if hybridWeight > 0 && len(rec.Vector) == len(queryVector) {
			score += hybridWeight * cosine(queryVector, rec.Vector)
		}
		if hybridWeight < 1 {
			score += (1 - hybridWeight) * overlap(querySet, rec.Tokens)
		}
		hits = append(hits, Hit{DocID: rec.DocID, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocID < hits[j].DocID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// cosine returns the cosine similarity of two equal-length vectors.
func cosine(a, b []float64) float64 {
	dot := floats.Dot(a, b)
	na := math.Sqrt(floats.Dot(a, a))
	nb := math.Sqrt(floats.Dot(b, b))
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

// overlap returns |query ∩ doc| / |query|, 0 for an empty query.
func overlap(querySet map[string]bool, docTokens []string) float64 {
	if len(querySet) == 0 {
		return 0
	}
	hits := 0
	seen := make(map[string]bool, len(docTokens))
	for _, t := range docTokens {
		if querySet[t] && !seen[t] {
			hits++
			seen[t] = true
		}
	}
	return float64(hits) / float64(len(querySet))
}
