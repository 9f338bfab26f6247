package reagent

import (
	"context"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MemoryEntry is a persisted, compacted record of one run. Entries are
// append-only: they are never mutated after creation.
type MemoryEntry struct {
	ID          string
	Fingerprint string
	Terms       []string
	Strategy    []StrategyStep
	Succeeded   bool
	Confidence  float64
	CreatedAt   time.Time
}

// Memory stores and retrieves past execution summaries. It is the only
// resource shared across concurrent agent runs, so implementations must
// support concurrent Recall and Store calls.
type Memory interface {
	// Recall returns up to k entries whose task fingerprint is most similar
	// to the given task, above the implementation's similarity floor.
	Recall(ctx context.Context, task Task, k int) ([]MemoryEntry, error)

	// Store records the outcome of a run. It is called after every run,
	// success or failure: failed runs are negative signal for the planner.
	Store(ctx context.Context, task Task, result *AgentResult) error
}

// DefaultSimilarityFloor is the minimum term-set similarity for an entry to
// be recalled. Below the floor nothing is returned rather than forcing a
// poor match.
const DefaultSimilarityFloor = 0.25

// NewMemoryEntry compacts a finished run into a memory entry. The strategy
// summary is derived from the executed trace, not from the planner output:
// what actually ran is the signal worth keeping.
func NewMemoryEntry(task Task, result *AgentResult) MemoryEntry {
	return MemoryEntry{
		ID:          uuid.New().String(),
		Fingerprint: Fingerprint(task.Description),
		Terms:       FingerprintTerms(task.Description),
		Strategy:    summarizeTrace(result.Trace),
		Succeeded:   result.Succeeded(),
		Confidence:  result.Confidence,
		CreatedAt:   time.Now(),
	}
}

const (
	maxSummarySteps      = 8
	maxSummaryIntentSize = 120
)

// summarizeTrace turns executed steps into advisory strategy steps.
func summarizeTrace(trace *ExecutionTrace) []StrategyStep {
	if trace == nil {
		return nil
	}

	steps := make([]StrategyStep, 0, maxSummarySteps)
	for _, step := range trace.Steps {
		if step.Action.Tool == "" {
			continue
		}
		steps = append(steps, StrategyStep{
			Intent:        truncateUTF8(step.Thought, maxSummaryIntentSize),
			SuggestedTool: step.Action.Tool,
		})
		if len(steps) >= maxSummarySteps {
			break
		}
	}
	return steps
}

// truncateUTF8 shortens s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// RankBySimilarity returns the k entries most similar to the term set,
// filtered by the floor, ordered best first with newer entries winning ties.
// Memory implementations share it so recall ordering is uniform.
func RankBySimilarity(entries []MemoryEntry, terms []string, k int, floor float64) []MemoryEntry {
	type scored struct {
		entry MemoryEntry
		score float64
	}

	ranked := make([]scored, 0, len(entries))
	for _, entry := range entries {
		score := Similarity(terms, entry.Terms)
		if score < floor {
			continue
		}
		ranked = append(ranked, scored{entry: entry, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].entry.CreatedAt.After(ranked[j].entry.CreatedAt)
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}

	result := make([]MemoryEntry, 0, len(ranked))
	for _, s := range ranked {
		result = append(result, s.entry)
	}
	return result
}

// InMemoryStore is a bounded, in-process Memory implementation. It keeps the
// most recent entries in a FIFO buffer and is safe for concurrent use. Use
// it for tests and short-lived processes; memory/sqlite provides a durable
// implementation.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []MemoryEntry

	maxEntries int
	floor      float64
}

// InMemoryStoreOption is the type for options of NewInMemoryStore.
type InMemoryStoreOption func(*InMemoryStore)

// WithMaxEntries bounds the buffer. The oldest entry is dropped when the
// bound is exceeded. Default is 256.
func WithMaxEntries(n int) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.maxEntries = n
	}
}

// WithSimilarityFloor overrides the minimum similarity for Recall.
func WithSimilarityFloor(floor float64) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.floor = floor
	}
}

// NewInMemoryStore creates an in-process memory store.
func NewInMemoryStore(options ...InMemoryStoreOption) *InMemoryStore {
	s := &InMemoryStore{
		maxEntries: 256,
		floor:      DefaultSimilarityFloor,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Recall implements Memory.
func (s *InMemoryStore) Recall(ctx context.Context, task Task, k int) ([]MemoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := FingerprintTerms(task.Description)

	s.mu.RLock()
	entries := make([]MemoryEntry, len(s.entries))
	copy(entries, s.entries)
	s.mu.RUnlock()

	return RankBySimilarity(entries, terms, k, s.floor), nil
}

// Store implements Memory.
func (s *InMemoryStore) Store(ctx context.Context, task Task, result *AgentResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := NewMemoryEntry(task, result)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		s.entries = s.entries[1:]
	}
	return nil
}

// Len returns the current number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
