package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/startel-org/startel/llm"
)

// embedBatchSize bounds one Embedder call. The corpus is one sentence
// per city and per customer, so batches stay small.
const embedBatchSize = 64

// Index is an in-memory cosine-similarity vector index.
type Index struct {
	embedder llm.Embedder

	mu      sync.RWMutex
	docs    []Document
	vectors [][]float64
}

// NewIndex creates an empty index over the given embedder.
func NewIndex(embedder llm.Embedder) *Index {
	return &Index{embedder: embedder}
}

// Build replaces the index contents with the given documents. The
// optional progress callback is invoked after each embedded batch.
func (ix *Index) Build(ctx context.Context, docs []Document, progress func(done, total int)) error {
	vectors := make([][]float64, 0, len(docs))
	for start := 0; start < len(docs); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Text)
		}

		batch, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed documents %d-%d: %w", start, end-1, err)
		}
		vectors = append(vectors, batch...)

		if progress != nil {
			progress(end, len(docs))
		}
	}

	ix.mu.Lock()
	ix.docs = append([]Document(nil), docs...)
	ix.vectors = vectors
	ix.mu.Unlock()

	log.Info().Int("documents", len(docs)).Msg("retrieval index built")
	return nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Retrieve returns the texts of the k documents most similar to the
// query. An empty index retrieves nothing.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	ix.mu.RLock()
	docs, vectors := ix.docs, ix.vectors
	ix.mu.RUnlock()

	if len(docs) == 0 || k <= 0 {
		return nil, nil
	}

	queryVecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVec := queryVecs[0]

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(docs))
	for i, vec := range vectors {
		scores[i] = scored{idx: i, score: cosineSimilarity(queryVec, vec)}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	if k > len(scores) {
		k = len(scores)
	}
	out := make([]string, 0, k)
	for _, s := range scores[:k] {
		out = append(out, docs[s.idx].Text)
	}
	return out, nil
}

func cosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
