package memorybank

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Vector is a fixed-dimension embedding. All vectors in one index belong to
// the same embedding-version space.
type Vector []float32

// Cosine returns the cosine similarity of a and b in [-1, 1]. Zero vectors
// and mismatched lengths score 0.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Match is one similarity search result.
type Match struct {
	ID    uuid.UUID
	Score float64
}

// Index is the similarity index the Memory Bank consumes. Implementations
// must return results sorted descending by score with ties broken by
// insertion recency (most recent first), so the index structure can be
// swapped without changing query semantics.
type Index interface {
	Add(id uuid.UUID, vec Vector)
	Search(vec Vector, k int) []Match
	Len() int
}

type indexEntry struct {
	id  uuid.UUID
	vec Vector
	seq uint64
}

// exactIndex is the exact-scan fallback: linear cosine scoring over all
// entries. Safe for concurrent readers; writes are serialized.
type exactIndex struct {
	mu      sync.RWMutex
	entries []indexEntry
	seq     uint64
}

// NewExactIndex creates an exact-scan similarity index.
func NewExactIndex() Index {
	return &exactIndex{}
}

func (x *exactIndex) Add(id uuid.UUID, vec Vector) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.seq++
	x.entries = append(x.entries, indexEntry{id: id, vec: vec, seq: x.seq})
}

func (x *exactIndex) Search(vec Vector, k int) []Match {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || len(x.entries) == 0 {
		return nil
	}

	type scored struct {
		Match
		seq uint64
	}

	results := make([]scored, 0, len(x.entries))
	for _, e := range x.entries {
		results = append(results, scored{
			Match: Match{ID: e.id, Score: Cosine(vec, e.vec)},
			seq:   e.seq,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].seq > results[j].seq
	})

	if k > len(results) {
		k = len(results)
	}

	matches := make([]Match, k)
	for i := range matches {
		matches[i] = results[i].Match
	}

	return matches
}

func (x *exactIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}
