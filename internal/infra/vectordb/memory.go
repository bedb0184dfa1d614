// Package vectordb provides vector index adapters for catalog lookup.
package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/lookup"
)

// MemoryIndex is a brute-force cosine similarity index. The catalog is a few
// dozen entries so a linear scan is enough.
type MemoryIndex struct {
	mu      sync.RWMutex
	ids     []int
	vectors [][]float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (m *MemoryIndex) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = nil
	m.vectors = nil
	return nil
}

func (m *MemoryIndex) Add(ctx context.Context, ids []int, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors differ in length: %d != %d", len(ids), len(vectors))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, ids...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

// Nearest returns up to k matches ordered by descending similarity. Ties keep
// insertion order.
func (m *MemoryIndex) Nearest(ctx context.Context, vector []float32, k int) ([]lookup.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]lookup.Match, 0, len(m.ids))
	for i, v := range m.vectors {
		results = append(results, lookup.Match{ID: m.ids[i], Score: cosineSimilarity(vector, v)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// cosineSimilarity is 0 for mismatched or zero-length vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
