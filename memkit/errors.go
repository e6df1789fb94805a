package memkit

import "errors"

// Error kinds surfaced by the engine. Callers branch with errors.Is.
var (
	// ErrIngestion marks a malformed message (missing role or timestamp).
	// The orchestrator skips and logs such messages, never aborting a batch.
	ErrIngestion = errors.New("memkit: malformed message")

	// ErrEmbeddingUnavailable signals that the embedding capability is
	// down. Callers fall back to keyword-only retrieval.
	ErrEmbeddingUnavailable = errors.New("memkit: embedding unavailable")

	// ErrIndexCorruption signals that an id held by the memory store is
	// missing from the vector index. Fatal for that dialogue's query path;
	// the orchestrator must trigger a full re-index.
	ErrIndexCorruption = errors.New("memkit: vector index corruption")

	// ErrUnknownDialogue is returned for queries against a dialogue that
	// was never ingested.
	ErrUnknownDialogue = errors.New("memkit: unknown dialogue")
)
