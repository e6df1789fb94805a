package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/scttfrdmn/memkit/cache"
	"github.com/scttfrdmn/memkit/memkit"
)

// QueueConfig configures the engine's batch queue.
type QueueConfig struct {
	// MaxBatchSize is the maximum number of texts encoded per provider call.
	// Default: 32
	MaxBatchSize int

	// MaxWait is how long the worker lets a batch fill before flushing it.
	// Default: 50ms
	MaxWait time.Duration

	// HighWater is the pending-request count above which background
	// submissions are deferred (not dropped) in favor of interactive ones.
	// Default: 256
	HighWater int
}

// DefaultQueueConfig returns a queue config with sensible defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxBatchSize: 32,
		MaxWait:      50 * time.Millisecond,
		HighWater:    256,
	}
}

type encodeResult struct {
	vector []float64
	err    error
}

type request struct {
	text   string
	key    string
	result chan encodeResult
}

// Engine encodes text through a provider with batching and content-hash
// caching.
//
// Identical text always maps to the same vector: results are cached under a
// sha256 key in the shared cache manager. All pending texts are encoded in
// one provider call per batch; interactive requests take precedence over
// background bulk re-indexing.
//
// Example:
//
//	eng := NewEngine(NewHashingProvider(0), cacheManager, DefaultQueueConfig())
//	defer eng.Close()
//	vecs, err := eng.Encode(ctx, []string{"Меня зовут Александр"})
type Engine struct {
	provider Provider
	cache    *cache.Manager
	cfg      QueueConfig

	mu          sync.Mutex
	cond        *sync.Cond
	interactive []*request
	background  []*request
	closed      bool
}

// NewEngine creates an engine and starts its batch worker.
func NewEngine(provider Provider, c *cache.Manager, cfg QueueConfig) *Engine {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 32
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 50 * time.Millisecond
	}
	if cfg.HighWater <= 0 {
		cfg.HighWater = 256
	}
	e := &Engine{
		provider: provider,
		cache:    c,
		cfg:      cfg,
	}
	e.cond = sync.NewCond(&e.mu)
	go e.worker()
	return e
}

// Dimension returns the provider's embedding dimension.
func (e *Engine) Dimension() int { return e.provider.Dimension() }

// Encode returns vectors for texts, serving cache hits directly and batching
// the misses through the provider at interactive priority.
//
// On provider failure the error wraps memkit.ErrEmbeddingUnavailable so the
// caller can fall back to keyword-only retrieval.
func (e *Engine) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	return e.encode(ctx, texts, false)
}

// EncodeBackground is Encode at background priority. Above the queue's high
// water mark it blocks until interactive pressure drains.
func (e *Engine) EncodeBackground(ctx context.Context, texts []string) ([][]float64, error) {
	return e.encode(ctx, texts, true)
}

func (e *Engine) encode(ctx context.Context, texts []string, bg bool) ([][]float64, error) {
	out := make([][]float64, len(texts))
	pending := make(map[int]*request)

	for i, text := range texts {
		key := CacheKey(text)
		if e.cache != nil {
			if v, ok := e.cache.Get(key); ok {
				if vec, ok := v.([]float64); ok {
					out[i] = vec
					continue
				}
			}
		}
		pending[i] = &request{
			text:   text,
			key:    key,
			result: make(chan encodeResult, 1),
		}
	}
	if len(pending) == 0 {
		return out, nil
	}

	for _, req := range pending {
		if err := e.enqueue(ctx, req, bg); err != nil {
			return nil, err
		}
	}
	for i, req := range pending {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-req.result:
			if res.err != nil {
				return nil, res.err
			}
			out[i] = res.vector
		}
	}
	return out, nil
}

func (e *Engine) enqueue(ctx context.Context, req *request, bg bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if bg {
		// Backpressure: defer background work while the queue is hot.
		for len(e.interactive)+len(e.background) >= e.cfg.HighWater && !e.closed {
			e.mu.Unlock()
			select {
			case <-ctx.Done():
				e.mu.Lock()
				return ctx.Err()
			case <-time.After(e.cfg.MaxWait):
			}
			e.mu.Lock()
		}
	}
	if e.closed {
		return fmt.Errorf("embedding engine closed: %w", memkit.ErrEmbeddingUnavailable)
	}
	if bg {
		e.background = append(e.background, req)
	} else {
		e.interactive = append(e.interactive, req)
	}
	e.cond.Signal()
	return nil
}

// Close stops the batch worker. Pending requests fail with
// memkit.ErrEmbeddingUnavailable.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	waiting := append(e.interactive, e.background...)
	e.interactive, e.background = nil, nil
	e.cond.Broadcast()
	e.mu.Unlock()

	for _, req := range waiting {
		req.result <- encodeResult{err: memkit.ErrEmbeddingUnavailable}
	}
}

func (e *Engine) worker() {
	for {
		e.mu.Lock()
		for len(e.interactive) == 0 && len(e.background) == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.closed {
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()

		// Let the batch fill before flushing.
		time.Sleep(e.cfg.MaxWait)

		e.mu.Lock()
		batch := make([]*request, 0, e.cfg.MaxBatchSize)
		for len(batch) < e.cfg.MaxBatchSize && len(e.interactive) > 0 {
			batch = append(batch, e.interactive[0])
			e.interactive = e.interactive[1:]
		}
		for len(batch) < e.cfg.MaxBatchSize && len(e.background) > 0 {
			batch = append(batch, e.background[0])
			e.background = e.background[1:]
		}
		e.mu.Unlock()

		if len(batch) == 0 {
			continue
		}
		e.flush(batch)
	}
}

func (e *Engine) flush(batch []*request) {
	texts := make([]string, len(batch))
	for i, req := range batch {
		texts[i] = req.text
	}

	vectors, err := e.provider.EmbedBatch(context.Background(), texts)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", memkit.ErrEmbeddingUnavailable, err)
		for _, req := range batch {
			req.result <- encodeResult{err: wrapped}
		}
		return
	}
	for i, req := range batch {
		vec := vectors[i]
		if e.cache != nil {
			e.cache.Put(req.key, vec, int64(len(vec)*8), time.Hour)
		}
		req.result <- encodeResult{vector: vec}
	}
}

// CacheKey returns the content-hash cache key for text.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + hex.EncodeToString(sum[:])
}
