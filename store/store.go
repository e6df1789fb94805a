// Package store provides the memory store orchestrator: it owns per-dialogue
// state and coordinates filtering, grouping, fact extraction, embedding,
// compression, and indexing on ingestion and on query.
//
// Concurrency model: operations on different dialogues run fully in parallel;
// within one dialogue all mutations are serialized (single writer per
// dialogue) while queries read through the index's copy-on-read snapshots.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/scttfrdmn/memkit/cache"
	"github.com/scttfrdmn/memkit/compress"
	"github.com/scttfrdmn/memkit/embedding"
	"github.com/scttfrdmn/memkit/facts"
	"github.com/scttfrdmn/memkit/filter"
	"github.com/scttfrdmn/memkit/index"
	"github.com/scttfrdmn/memkit/memkit"
	"github.com/scttfrdmn/memkit/observability"
	"github.com/scttfrdmn/memkit/sessions"
)

// DialogueState is the per-dialogue lifecycle state.
type DialogueState int

const (
	StateEmpty DialogueState = iota
	StateIngesting
	StateReady
)

// String returns the state name.
func (s DialogueState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateIngesting:
		return "ingesting"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// dialogue is the arena of one dialogue's state. All fields are guarded by
// mu; entries and messages are id-keyed maps so nothing holds pointers
// across eviction or compaction.
type dialogue struct {
	mu        sync.RWMutex
	state     DialogueState
	watermark int64 // highest ingested message ordinal
	// generation counts state rebuilds; cached query results embed it so
	// ingestion and compaction implicitly invalidate stale contexts.
	generation int64

	messages map[string]memkit.Message
	sessions []memkit.Session
	entries  map[string]*memkit.MemoryEntry // entry id -> entry
	index    *index.Index
}

// Store is the memory engine orchestrator.
//
// Example:
//
//	cfg := memkit.DefaultConfig()
//	st := New(cfg, embedding.NewEngine(embedding.NewHashingProvider(0), cacheMgr, embedding.DefaultQueueConfig()), cacheMgr, nil)
//	err := st.ProcessDialogue(ctx, "dlg-1", messages)
//	contextText, err := st.AnswerContext(ctx, "dlg-1", "Как меня зовут?", 0)
type Store struct {
	cfg        memkit.Config
	filter     *filter.Filter
	grouper    *sessions.Grouper
	extractor  *facts.Extractor
	factStore  *facts.Store
	engine     *embedding.Engine
	compressor *compress.Compressor
	cache      *cache.Manager
	tokens     *TokenCounter
	logger     *slog.Logger

	mu        sync.RWMutex
	dialogues map[string]*dialogue
}

// New creates a memory store.
//
// engine may be nil for keyword-only mode. c is the process-wide cache
// manager (shared with the embedding engine); logger nil defaults to
// slog.Default.
func New(cfg memkit.Config, engine *embedding.Engine, c *cache.Manager, logger *slog.Logger) *Store {
	if logger == nil {
		logger = observability.EngineLogger("store")
	} else {
		logger = logger.With(slog.String("component", "store"))
	}
	return &Store{
		cfg:        cfg,
		filter:     filter.New(cfg.QualityThreshold),
		grouper:    sessions.NewGrouper(cfg.InactivityThreshold),
		extractor:  facts.NewExtractor(0.5),
		factStore:  facts.NewStore(cfg.FactConfidenceTolerance, cfg.FactConfidenceFloor),
		engine:     engine,
		compressor: compress.New(nil),
		cache:      c,
		tokens:     NewTokenCounter(),
		logger:     logger,
	}
}

// Facts exposes the fact store for direct inspection.
func (s *Store) Facts() *facts.Store { return s.factStore }

// State returns the lifecycle state of a dialogue.
func (s *Store) State(dialogueID string) DialogueState {
	d := s.lookup(dialogueID)
	if d == nil {
		return StateEmpty
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// ProcessDialogue ingests a batch of messages for a dialogue.
//
// The pipeline is filter -> group -> extract facts -> embed -> compress
// eligible entries -> index upsert. Replays are idempotent: messages at or
// below the ordinal watermark are skipped, grouping is deterministic, and
// entry ids derive from session ids. Malformed messages are skipped and
// logged, never aborting the batch.
func (s *Store) ProcessDialogue(ctx context.Context, dialogueID string, msgs []memkit.Message) error {
	d := s.getOrCreate(dialogueID)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = StateIngesting

	accepted := 0
	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			s.logger.Warn("skipping malformed message",
				slog.String("dialogue_id", dialogueID),
				slog.String("message_id", msg.ID),
				slog.String("error", err.Error()))
			continue
		}
		if msg.Ordinal <= d.watermark {
			continue // replay
		}
		if msg.DialogueID == "" {
			msg.DialogueID = dialogueID
		}
		d.messages[msg.ID] = msg
		if msg.Ordinal > d.watermark {
			d.watermark = msg.Ordinal
		}
		accepted++
	}

	if err := s.rebuildLocked(ctx, d, dialogueID); err != nil {
		return err
	}

	d.state = StateReady
	s.logger.Info("dialogue processed",
		slog.String("dialogue_id", dialogueID),
		slog.Int("accepted", accepted),
		slog.Int("sessions", len(d.sessions)))
	return nil
}

// rebuildLocked regroups the dialogue and synchronizes entries, facts, and
// the index to the resulting session set. Caller holds d.mu.
func (s *Store) rebuildLocked(ctx context.Context, d *dialogue, dialogueID string) error {
	all := make([]memkit.Message, 0, len(d.messages))
	for _, msg := range d.messages {
		all = append(all, msg)
	}
	kept, rejected := s.filter.Clean(all)
	for _, r := range rejected {
		s.logger.Debug("message filtered",
			slog.String("dialogue_id", dialogueID),
			slog.String("message_id", r.MessageID),
			slog.String("reason", r.Reason))
	}

	d.sessions = s.grouper.Group(kept)

	// Synchronize entries with the session set: create or refresh entries
	// for new/changed sessions, drop entries whose session vanished.
	live := make(map[string]bool, len(d.sessions))
	changed := make([]*memkit.MemoryEntry, 0)
	now := time.Now()

	for _, session := range d.sessions {
		entryID := session.ID + "-entry"
		live[entryID] = true
		content := sessions.Content(session, d.messages)

		entry, ok := d.entries[entryID]
		if ok && entry.Text == content && entry.Level == memkit.CompressionNone {
			continue
		}
		if ok && entry.Level != memkit.CompressionNone {
			// Already compressed; source text growth for sealed sessions
			// does not happen, so leave compressed entries alone.
			continue
		}
		if !ok {
			entry = &memkit.MemoryEntry{
				ID:              entryID,
				DialogueID:      dialogueID,
				SourceSessionID: session.ID,
				CreatedAt:       session.End,
			}
			d.entries[entryID] = entry
		}
		entry.Text = content
		entry.Embedding = nil
		changed = append(changed, entry)

		for _, f := range s.extractor.Extract(session, content) {
			s.factStore.Upsert(f)
		}
	}
	for id := range d.entries {
		if !live[id] {
			delete(d.entries, id)
			d.index.Remove(id)
		}
	}

	s.embedEntries(ctx, changed)
	s.promoteLocked(ctx, d, now)

	for _, entry := range changed {
		d.index.Upsert(index.Record{
			DocID:  entry.ID,
			Vector: entry.Embedding,
			Tokens: sessions.Tokens(entry.Text),
			Metadata: map[string]string{
				"dialogue_id": dialogueID,
				"session_id":  entry.SourceSessionID,
			},
		})
	}
	d.generation++
	return nil
}

// embedEntries encodes all changed entries in one background-priority batch.
// Embedding failure degrades to keyword-only entries rather than failing
// ingestion.
func (s *Store) embedEntries(ctx context.Context, entries []*memkit.MemoryEntry) {
	if s.engine == nil || len(entries) == 0 {
		return
	}
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	vectors, err := s.engine.EncodeBackground(ctx, texts)
	if err != nil {
		if errors.Is(err, memkit.ErrEmbeddingUnavailable) {
			s.logger.Warn("embedding unavailable, entries indexed keyword-only",
				slog.String("error", err.Error()))
			return
		}
		s.logger.Warn("embedding failed", slog.String("error", err.Error()))
		return
	}
	for i, e := range entries {
		e.Embedding = vectors[i]
	}
}

// promoteLocked raises compression levels of entries that aged past the
// configured thresholds. Levels only ever increase. Promoted entries are
// re-embedded so compressed memories stay reachable by vector search; on
// embedding failure they degrade to keyword-only until the next Reindex.
// Caller holds d.mu.
func (s *Store) promoteLocked(ctx context.Context, d *dialogue, now time.Time) {
	promoted := make([]*memkit.MemoryEntry, 0)
	for _, entry := range d.entries {
		age := now.Sub(entry.CreatedAt)
		target := compress.LevelFor(age, s.cfg.CompressionAges)
		if target <= entry.Level {
			continue
		}
		sum, err := s.compressor.Compress(ctx, entry.Text, target, compress.Hybrid)
		if err != nil {
			s.logger.Warn("compression failed",
				slog.String("entry_id", entry.ID),
				slog.String("error", err.Error()))
			continue
		}
		entry.Text = sum.Text
		entry.Level = target
		entry.Embedding = nil
		promoted = append(promoted, entry)
	}
	if len(promoted) == 0 {
		return
	}

	s.embedEntries(ctx, promoted)
	for _, entry := range promoted {
		d.index.Upsert(index.Record{
			DocID:  entry.ID,
			Vector: entry.Embedding,
			Tokens: sessions.Tokens(entry.Text),
			Metadata: map[string]string{
				"dialogue_id": entry.DialogueID,
				"session_id":  entry.SourceSessionID,
			},
		})
	}
	d.generation++
}

// CompactionPass promotes compression levels across all dialogues. Intended
// to run periodically in the background.
func (s *Store) CompactionPass(ctx context.Context, now time.Time) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.dialogues))
	for id := range s.dialogues {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		d := s.lookup(id)
		if d == nil {
			continue
		}
		d.mu.Lock()
		s.promoteLocked(ctx, d, now)
		d.mu.Unlock()
	}
}

// Reindex rebuilds a dialogue's vector index from its entries, recovering
// from index corruption.
func (s *Store) Reindex(ctx context.Context, dialogueID string) error {
	d := s.lookup(dialogueID)
	if d == nil {
		return fmt.Errorf("%w: %s", memkit.ErrUnknownDialogue, dialogueID)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.index = index.New()
	pending := make([]*memkit.MemoryEntry, 0, len(d.entries))
	for _, entry := range d.entries {
		if entry.Embedding == nil {
			pending = append(pending, entry)
		}
	}
	s.embedEntries(ctx, pending)
	for _, entry := range d.entries {
		d.index.Upsert(index.Record{
			DocID:  entry.ID,
			Vector: entry.Embedding,
			Tokens: sessions.Tokens(entry.Text),
			Metadata: map[string]string{
				"dialogue_id": entry.DialogueID,
				"session_id":  entry.SourceSessionID,
			},
		})
	}
	d.generation++
	s.logger.Info("dialogue reindexed",
		slog.String("dialogue_id", dialogueID),
		slog.Int("entries", len(d.entries)))
	return nil
}

// AnswerContext assembles a bounded retrieval context for a question.
//
// It runs hybrid search over the dialogue's entries, merges in active facts
// whose keywords overlap the question, and prefers facts over raw excerpts
// by placing them first in the token budget. maxTokens <= 0 uses the
// configured default. The call never mutates dialogue state; results are
// cached by (dialogue, ingestion generation, question), so any ingestion or
// compaction makes previously cached contexts unreachable.
func (s *Store) AnswerContext(ctx context.Context, dialogueID, question string, maxTokens int) (string, error) {
	d := s.lookup(dialogueID)
	if d == nil {
		return "", fmt.Errorf("%w: %s", memkit.ErrUnknownDialogue, dialogueID)
	}
	if maxTokens <= 0 {
		maxTokens = s.cfg.MaxContextTokens
	}

	d.mu.RLock()
	generation := d.generation
	idx := d.index
	entries := make(map[string]memkit.MemoryEntry, len(d.entries))
	for id, e := range d.entries {
		entries[id] = *e
	}
	d.mu.RUnlock()

	cacheKey := fmt.Sprintf("ctx:%s:%d:%s", dialogueID, generation, embedding.CacheKey(question))
	if s.cache != nil {
		if v, ok := s.cache.Get(cacheKey); ok {
			if text, ok := v.(string); ok {
				return text, nil
			}
		}
	}

	// Consistency check: every entry the store references must be indexed.
	for id := range entries {
		if !idx.Has(id) {
			return "", fmt.Errorf("dialogue %s: entry %s not indexed: %w",
				dialogueID, id, memkit.ErrIndexCorruption)
		}
	}

	queryTokens := sessions.Tokens(question)
	queryVector := s.queryVector(ctx, question)

	weight := s.cfg.HybridWeight
	if queryVector == nil {
		weight = 0
	}
	hits := idx.Search(queryVector, queryTokens, 5, weight)

	text := s.assemble(dialogueID, queryTokens, hits, entries, maxTokens)
	if s.cache != nil {
		s.cache.Put(cacheKey, text, int64(len(text)), 5*time.Minute)
	}
	return text, nil
}

// queryVector embeds the question at interactive priority, degrading to nil
// (keyword-only search) when the embedding capability is down.
func (s *Store) queryVector(ctx context.Context, question string) []float64 {
	if s.engine == nil {
		return nil
	}
	vectors, err := s.engine.Encode(ctx, []string{question})
	if err != nil {
		if errors.Is(err, memkit.ErrEmbeddingUnavailable) {
			s.logger.Warn("embedding unavailable, keyword-only search",
				slog.String("error", err.Error()))
		} else {
			s.logger.Warn("query embedding failed", slog.String("error", err.Error()))
		}
		return nil
	}
	return vectors[0]
}

// assemble builds the context string: relevant active facts first (denser),
// then raw or compressed excerpts from the top hits, within the token budget.
func (s *Store) assemble(dialogueID string, queryTokens []string, hits []index.Hit, entries map[string]memkit.MemoryEntry, maxTokens int) string {
	var b strings.Builder
	used := 0

	for _, f := range s.factStore.ActiveFacts(dialogueID) {
		if !factRelevant(f, queryTokens) {
			continue
		}
		line := fmt.Sprintf("%s %s: %s", f.Subject, f.Predicate, f.Value)
		cost := s.tokens.Count(line)
		if used+cost > maxTokens {
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
		used += cost
	}

	for _, hit := range hits {
		if hit.Score <= 0 {
			continue
		}
		entry, ok := entries[hit.DocID]
		if !ok {
			continue
		}
		excerpt := strings.TrimSpace(entry.Text)
		if excerpt == "" {
			continue
		}
		cost := s.tokens.Count(excerpt)
		if used+cost > maxTokens {
			excerpt = s.tokens.Truncate(excerpt, maxTokens-used)
			if excerpt == "" {
				break
			}
			cost = s.tokens.Count(excerpt)
		}
		b.WriteString(excerpt)
		if !strings.HasSuffix(excerpt, "\n") {
			b.WriteString("\n")
		}
		used += cost
		if used >= maxTokens {
			break
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// factRelevant reports whether a fact matches the question's keywords,
// either through its predicate aliases or its value.
func factRelevant(f memkit.Fact, queryTokens []string) bool {
	if len(queryTokens) == 0 {
		return false
	}
	candidates := append([]string{}, facts.AliasesFor(f.Predicate)...)
	candidates = append(candidates, sessions.Tokens(f.Value)...)
	return sessions.Overlap(queryTokens, candidates) > 0
}

func (s *Store) getOrCreate(dialogueID string) *dialogue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialogues == nil {
		s.dialogues = make(map[string]*dialogue)
	}
	d, ok := s.dialogues[dialogueID]
	if !ok {
		d = &dialogue{
			watermark: -1,
			messages:  make(map[string]memkit.Message),
			entries:   make(map[string]*memkit.MemoryEntry),
			index:     index.New(),
		}
		s.dialogues[dialogueID] = d
	}
	return d
}

func (s *Store) lookup(dialogueID string) *dialogue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dialogues[dialogueID]
}
