package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder maps fixed texts to fixed vectors and otherwise returns
// a zero vector, so similarity ranking is fully deterministic.
type stubEmbedder struct {
	vectors map[string][]float64
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := s.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float64{0, 0, 0}
		}
	}
	return out, nil
}

func testDocs() []Document {
	return []Document{
		{ID: "a", Text: "pune revenue summary"},
		{ID: "b", Text: "delhi revenue summary"},
		{ID: "c", Text: "churn overview"},
	}
}

func testEmbedder() *stubEmbedder {
	return &stubEmbedder{vectors: map[string][]float64{
		"pune revenue summary":  {1, 0, 0},
		"delhi revenue summary": {0.8, 0.2, 0},
		"churn overview":        {0, 0, 1},
		"revenue in pune":       {0.9, 0.1, 0},
		"who churned":           {0, 0.1, 0.9},
	}}
}

func TestIndexBuildAndRetrieve(t *testing.T) {
	emb := testEmbedder()
	ix := NewIndex(emb)

	var progressCalls int
	require.NoError(t, ix.Build(context.Background(), testDocs(), func(done, total int) {
		progressCalls++
		assert.Equal(t, 3, total)
		assert.Equal(t, 3, done)
	}))
	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, 1, progressCalls)

	got, err := ix.Retrieve(context.Background(), "revenue in pune", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"pune revenue summary", "delhi revenue summary"}, got)

	got, err = ix.Retrieve(context.Background(), "who churned", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"churn overview"}, got)
}

func TestIndexRetrieveClampsK(t *testing.T) {
	ix := NewIndex(testEmbedder())
	require.NoError(t, ix.Build(context.Background(), testDocs(), nil))

	got, err := ix.Retrieve(context.Background(), "revenue in pune", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = ix.Retrieve(context.Background(), "revenue in pune", 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIndexRetrieveEmpty(t *testing.T) {
	emb := testEmbedder()
	ix := NewIndex(emb)

	got, err := ix.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, emb.calls, "empty index must not embed the query")
}

func TestIndexBuildEmbedderError(t *testing.T) {
	boom := errors.New("embedding backend down")
	ix := NewIndex(&stubEmbedder{err: boom})

	err := ix.Build(context.Background(), testDocs(), nil)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, ix.Len())
}

func TestSnapshotRoundTrip(t *testing.T) {
	emb := testEmbedder()
	ix := NewIndex(emb)
	require.NoError(t, ix.Build(context.Background(), testDocs(), nil))

	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, ix.Save(path))

	loaded := NewIndex(emb)
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, 3, loaded.Len())

	got, err := loaded.Retrieve(context.Background(), "revenue in pune", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"pune revenue summary"}, got)
}

func TestSnapshotLoadMissing(t *testing.T) {
	ix := NewIndex(testEmbedder())
	assert.Error(t, ix.Load(filepath.Join(t.TempDir(), "missing.json")))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float64{0, 0}, []float64{1, 1}))
}
