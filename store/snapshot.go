package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scttfrdmn/memkit/index"
	"github.com/scttfrdmn/memkit/memkit"
)

// Snapshot is the atomic persisted state of one dialogue: session list,
// active and superseded fact chains, index records, and entry store.
// Restoring a snapshot recreates the dialogue without reprocessing history.
type Snapshot struct {
	DialogueID string               `json:"dialogue_id"`
	CreatedAt  time.Time            `json:"created_at"`
	Watermark  int64                `json:"watermark"`
	Messages   []memkit.Message     `json:"messages"`
	Sessions   []memkit.Session     `json:"sessions"`
	Entries    []memkit.MemoryEntry `json:"entries"`
	Facts      []memkit.Fact        `json:"facts"`
	Records    []index.Record       `json:"records"`
}

// Snapshot captures the current state of a dialogue.
func (s *Store) Snapshot(dialogueID string) (*Snapshot, error) {
	d := s.lookup(dialogueID)
	if d == nil {
		return nil, fmt.Errorf("%w: %s", memkit.ErrUnknownDialogue, dialogueID)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := &Snapshot{
		DialogueID: dialogueID,
		CreatedAt:  time.Now(),
		Watermark:  d.watermark,
		Sessions:   append([]memkit.Session{}, d.sessions...),
		Facts:      s.factStore.All(dialogueID),
		Records:    d.index.Records(),
	}
	for _, msg := range d.messages {
		snap.Messages = append(snap.Messages, msg)
	}
	for _, entry := range d.entries {
		snap.Entries = append(snap.Entries, *entry)
	}
	return snap, nil
}

// Restore loads a snapshot, replacing any existing state for the dialogue.
func (s *Store) Restore(snap *Snapshot) error {
	if snap == nil || snap.DialogueID == "" {
		return fmt.Errorf("restore: empty snapshot")
	}
	d := s.getOrCreate(snap.DialogueID)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.watermark = snap.Watermark
	d.messages = make(map[string]memkit.Message, len(snap.Messages))
	for _, msg := range snap.Messages {
		d.messages[msg.ID] = msg
	}
	d.sessions = append([]memkit.Session{}, snap.Sessions...)
	d.entries = make(map[string]*memkit.MemoryEntry, len(snap.Entries))
	for i := range snap.Entries {
		entry := snap.Entries[i]
		d.entries[entry.ID] = &entry
	}
	d.index = index.New()
	for _, rec := range snap.Records {
		d.index.Upsert(rec)
	}
	s.factStore.Restore(snap.Facts)
	d.generation++
	d.state = StateReady
	return nil
}

// SnapshotStorage persists dialogue snapshots.
type SnapshotStorage interface {
	// Save persists a snapshot atomically.
	Save(ctx context.Context, snap *Snapshot) error

	// Load returns the snapshot for a dialogue, nil when absent.
	Load(ctx context.Context, dialogueID string) (*Snapshot, error)
}

// FileStorage stores snapshots as JSON files, one per dialogue. Writes go
// through a temp file and rename so a crash never leaves a torn snapshot.
//
// Example:
//
//	storage := NewFileStorage("/var/lib/memkit")
//	err := storage.Save(ctx, snap)
type FileStorage struct {
	dir string
}

// NewFileStorage creates a file-backed snapshot storage rooted at dir.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

// Save writes the snapshot atomically.
func (f *FileStorage) Save(ctx context.Context, snap *Snapshot) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	final := f.path(snap.DialogueID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot for a dialogue; nil, nil when none exists.
func (f *FileStorage) Load(ctx context.Context, dialogueID string) (*Snapshot, error) {
	data, err := os.ReadFile(f.path(dialogueID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (f *FileStorage) path(dialogueID string) string {
	return filepath.Join(f.dir, dialogueID+".json")
}

// RedisStorage stores snapshots in Redis for multi-instance deployments.
//
// Redis data structure:
//   - Key: "{prefix}:{dialogue_id}:snapshot"
//   - Type: String, JSON-encoded Snapshot
//
// Example:
//
//	storage, err := NewRedisStorage("redis://localhost:6379", "memkit", 0)
//	err = storage.Save(ctx, snap)
type RedisStorage struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStorage creates a Redis-backed snapshot storage.
//
// Parameters:
//   - redisURL: Redis connection URL
//   - keyPrefix: prefix for Redis keys
//   - ttl: snapshot expiry, 0 for no expiry
func NewRedisStorage(redisURL, keyPrefix string, ttl time.Duration) (*RedisStorage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return &RedisStorage{
		client:    redis.NewClient(opts),
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}, nil
}

// Save persists the snapshot. Redis SET is atomic, so readers see either the
// previous snapshot or the new one.
func (r *RedisStorage) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key(snap.DialogueID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Load reads the snapshot for a dialogue; nil, nil when none exists.
func (r *RedisStorage) Load(ctx context.Context, dialogueID string) (*Snapshot, error) {
	data, err := r.client.Get(ctx, r.key(dialogueID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Close releases the Redis client.
func (r *RedisStorage) Close() error {
	return r.client.Close()
}

func (r *RedisStorage) key(dialogueID string) string {
	return fmt.Sprintf("%s:%s:snapshot", r.keyPrefix, dialogueID)
}
