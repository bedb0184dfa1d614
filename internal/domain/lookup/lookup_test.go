package lookup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/catalog"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/lookup"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/embedding"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/infra/vectordb"
)

var entries = []catalog.Entry{
	{Name: "Exterior Hand Wash", Price: decimal.NewFromInt(35), Description: "Wash and dry"},
	{Name: "Interior Vacuum", Price: decimal.NewFromInt(25), Description: "Seats and carpets"},
	{Name: "Full Detail Package", Price: decimal.RequireFromString("249.50"), Description: ""},
	{Name: "Engine Bay Degrease", Price: decimal.NewFromInt(80), Description: "Degrease and dress"},
}

func newService(t *testing.T, es []catalog.Entry, emb lookup.Embedder) *lookup.Service {
	t.Helper()
	idx, err := lookup.Build(context.Background(), es, emb, vectordb.NewMemoryIndex())
	require.NoError(t, err)
	return lookup.NewService(idx, zerolog.Nop())
}

func TestFindBestService_ExactName(t *testing.T) {
	svc := newService(t, entries, embedding.NewHash(0))
	for _, e := range entries {
		line, ok := svc.FindBestService(context.Background(), e.Name)
		require.True(t, ok, e.Name)
		assert.Equal(t, e.Name, line.Name)
		assert.True(t, line.UnitPrice.Equal(e.Price))
		assert.True(t, line.DiscountPercent.IsZero())
	}
}

func TestFindBestService_FuzzyQuery(t *testing.T) {
	svc := newService(t, entries, embedding.NewHash(0))
	line, ok := svc.FindBestService(context.Background(), "I need my carpets vacuumed, interior please")
	require.True(t, ok)
	assert.Equal(t, "Interior Vacuum", line.Name)
}

func TestFindBestService_AlwaysReturnsSomething(t *testing.T) {
	svc := newService(t, entries, embedding.NewHash(0))
	_, ok := svc.FindBestService(context.Background(), "zzqx")
	assert.True(t, ok)
}

func TestFindBestService_DefaultDescription(t *testing.T) {
	svc := newService(t, entries, embedding.NewHash(0))
	line, ok := svc.FindBestService(context.Background(), "Full Detail Package")
	require.True(t, ok)
	assert.Equal(t, "No description available.", line.Description)
}

func TestFindBestService_EmptyCatalog(t *testing.T) {
	svc := newService(t, nil, embedding.NewHash(0))
	_, ok := svc.FindBestService(context.Background(), "Exterior Hand Wash")
	assert.False(t, ok)
}

func TestFindBestService_NilIndex(t *testing.T) {
	svc := lookup.NewService(nil, zerolog.Nop())
	_, ok := svc.FindBestService(context.Background(), "anything")
	assert.False(t, ok)
}

type flakyEmbedder struct {
	inner lookup.Embedder
	fail  bool
}

func (f *flakyEmbedder) Model() string { return "flaky" }

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, errors.New("model unavailable")
	}
	return f.inner.Embed(ctx, text)
}

func TestFindBestService_EmbedFailureIsNotFound(t *testing.T) {
	emb := &flakyEmbedder{inner: embedding.NewHash(0)}
	svc := newService(t, entries, emb)
	emb.fail = true
	_, ok := svc.FindBestService(context.Background(), "vacuum the interior")
	assert.False(t, ok)
}

func TestFindBestService_ExactNameSkipsEmbedder(t *testing.T) {
	emb := &flakyEmbedder{inner: embedding.NewHash(0)}
	svc := newService(t, entries, emb)
	emb.fail = true
	line, ok := svc.FindBestService(context.Background(), "  Interior Vacuum ")
	require.True(t, ok)
	assert.Equal(t, "Interior Vacuum", line.Name)
}

func TestFindBestService_NamesThatEmbedAlike(t *testing.T) {
	es := []catalog.Entry{
		{Name: "Car Wash", Price: decimal.NewFromInt(20)},
		{Name: "car-wash", Price: decimal.NewFromInt(30)},
	}
	emb := embedding.NewHash(0)
	a, err := emb.Embed(context.Background(), es[0].Name)
	require.NoError(t, err)
	b, err := emb.Embed(context.Background(), es[1].Name)
	require.NoError(t, err)
	require.Equal(t, a, b)

	svc := newService(t, es, emb)
	for _, e := range es {
		line, ok := svc.FindBestService(context.Background(), e.Name)
		require.True(t, ok, e.Name)
		assert.Equal(t, e.Name, line.Name)
		assert.True(t, line.UnitPrice.Equal(e.Price), e.Name)
	}
}

func TestBuild_EmbedFailure(t *testing.T) {
	_, err := lookup.Build(context.Background(), entries, &flakyEmbedder{fail: true}, vectordb.NewMemoryIndex())
	assert.Error(t, err)
}
