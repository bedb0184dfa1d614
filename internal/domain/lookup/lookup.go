// Package lookup finds the catalog service closest to a free-text request.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/catalog"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/quote"
)

// Embedder turns text into a vector. Catalog and queries must share one Embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// VectorIndex stores vectors by integer id and answers similarity queries.
type VectorIndex interface {
	Reset(ctx context.Context) error
	Add(ctx context.Context, ids []int, vectors [][]float32) error
	Nearest(ctx context.Context, vector []float32, k int) ([]Match, error)
}

type Match struct {
	ID    int
	Score float64
}

var ErrEmptyCatalog = errors.New("lookup: empty catalog")

// Index is the catalog loaded into a vector index. Build it once at startup.
type Index struct {
	entries  []catalog.Entry
	byName   map[string]int
	vectors  VectorIndex
	embedder Embedder
}

// Build embeds every entry name and loads the vectors into vi.
func Build(ctx context.Context, entries []catalog.Entry, emb Embedder, vi VectorIndex) (*Index, error) {
	if err := vi.Reset(ctx); err != nil {
		return nil, fmt.Errorf("resetting index: %w", err)
	}
	ids := make([]int, len(entries))
	vecs := make([][]float32, len(entries))
	for i, e := range entries {
		v, err := emb.Embed(ctx, e.Name)
		if err != nil {
			return nil, fmt.Errorf("embedding %q: %w", e.Name, err)
		}
		ids[i] = i
		vecs[i] = v
	}
	if len(entries) > 0 {
		if err := vi.Add(ctx, ids, vecs); err != nil {
			return nil, fmt.Errorf("loading index: %w", err)
		}
	}
	cp := make([]catalog.Entry, len(entries))
	copy(cp, entries)
	byName := make(map[string]int, len(cp))
	for i, e := range cp {
		if _, dup := byName[e.Name]; !dup {
			byName[e.Name] = i
		}
	}
	return &Index{entries: cp, byName: byName, vectors: vi, embedder: emb}, nil
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.entries)
}

// Nearest returns the entry closest to text along with its similarity score.
// A query equal to an entry name returns that entry with score 1, even when
// the embedder maps several names to the same vector.
func (i *Index) Nearest(ctx context.Context, text string) (catalog.Entry, float64, error) {
	if i.Len() == 0 {
		return catalog.Entry{}, 0, ErrEmptyCatalog
	}
	if id, ok := i.byName[strings.TrimSpace(text)]; ok {
		return i.entries[id], 1, nil
	}
	v, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return catalog.Entry{}, 0, fmt.Errorf("embedding query: %w", err)
	}
	matches, err := i.vectors.Nearest(ctx, v, 1)
	if err != nil {
		return catalog.Entry{}, 0, fmt.Errorf("searching index: %w", err)
	}
	if len(matches) == 0 {
		return catalog.Entry{}, 0, ErrEmptyCatalog
	}
	m := matches[0]
	if m.ID < 0 || m.ID >= len(i.entries) {
		return catalog.Entry{}, 0, fmt.Errorf("index returned unknown id %d", m.ID)
	}
	return i.entries[m.ID], m.Score, nil
}

type Service struct {
	index *Index
	log   zerolog.Logger
}

func NewService(index *Index, log zerolog.Logger) *Service {
	return &Service{index: index, log: log.With().Str("component", "lookup").Logger()}
}

// FindBestService returns the nearest catalog entry as a quote line.
// There is no similarity threshold; ok is false only for an empty catalog
// or when embedding or search fails.
func (s *Service) FindBestService(ctx context.Context, query string) (quote.ServiceLine, bool) {
	e, score, err := s.index.Nearest(ctx, query)
	if err != nil {
		if !errors.Is(err, ErrEmptyCatalog) {
			s.log.Warn().Err(err).Str("query", query).Msg("lookup failed")
		}
		return quote.ServiceLine{}, false
	}
	s.log.Debug().Str("query", query).Str("match", e.Name).Float64("score", score).Msg("lookup matched")
	return toLine(e), true
}

func toLine(e catalog.Entry) quote.ServiceLine {
	line := quote.ServiceLine{
		Name:            e.Name,
		Description:     e.Description,
		UnitPrice:       e.Price,
		DiscountPercent: decimal.Zero,
	}
	if strings.TrimSpace(line.Name) == "" {
		line.Name = "Unknown Service"
	}
	if strings.TrimSpace(line.Description) == "" {
		line.Description = "No description available."
	}
	return line
}
