// Package retrieve ranks a person's corpus chunks against a natural
// language query by embedding cosine similarity.
package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/patterson-s/EliteResearchAgent/internal/cache"
	"github.com/patterson-s/EliteResearchAgent/internal/corpus"
	"github.com/patterson-s/EliteResearchAgent/internal/llm"
)

// Ranked is a corpus chunk with its query similarity
type Ranked struct {
	corpus.Chunk
	Similarity float64
}

// Retriever embeds queries and ranks chunks by cosine similarity
type Retriever struct {
	provider      llm.Provider
	embedModel    string
	queryTemplate string
	candidates    int
	minSimilarity float64
	cache         cache.Cache
	cacheTTL      time.Duration
}

// Options configures a Retriever
type Options struct {
	EmbedModel    string
	QueryTemplate string  // "%s" is replaced with the person's name
	Candidates    int     // max chunks returned
	MinSimilarity float64 // chunks below this score are dropped
	Cache         cache.Cache
	CacheTTL      time.Duration
}

// NewRetriever creates a retriever backed by the given provider
func NewRetriever(provider llm.Provider, opts Options) (*Retriever, error) {
	if provider == nil {
		return nil, fmt.Errorf("retriever requires an LLM provider")
	}
	if opts.Candidates < 1 {
		return nil, fmt.Errorf("candidates must be at least 1, got %d", opts.Candidates)
	}
	if opts.QueryTemplate == "" {
		opts.QueryTemplate = "When was %s born? Birth year and date of birth of %s."
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 7 * 24 * time.Hour
	}
	return &Retriever{
		provider:      provider,
		embedModel:    opts.EmbedModel,
		queryTemplate: opts.QueryTemplate,
		candidates:    opts.Candidates,
		minSimilarity: opts.MinSimilarity,
		cache:         opts.Cache,
		cacheTTL:      opts.CacheTTL,
	}, nil
}

// Query returns the retrieval query for a person
func (r *Retriever) Query(person string) string {
	n := strings.Count(r.queryTemplate, "%s")
	args := make([]any, n)
	for i := range args {
		args[i] = person
	}
	return fmt.Sprintf(r.queryTemplate, args...)
}

// Rank orders the person's chunks by similarity to the retrieval query,
// strongest first. Chunks without a stored embedding are embedded on the
// fly. Order is deterministic: score ties break on chunk ID.
func (r *Retriever) Rank(ctx context.Context, person string, chunks []corpus.Chunk) ([]Ranked, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	queryVec, err := r.embedOne(ctx, r.Query(person))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var ranked []Ranked
	for _, ch := range chunks {
		vec := ch.Embedding
		if len(vec) == 0 {
			vec, err = r.embedOne(ctx, ch.Text)
			if err != nil {
				return nil, fmt.Errorf("embed chunk %s: %w", ch.ID, err)
			}
		}

		sim, err := cosineSimilarity(queryVec, vec)
		if err != nil {
			return nil, fmt.Errorf("score chunk %s: %w", ch.ID, err)
		}
		if sim < r.minSimilarity {
			continue
		}
		ranked = append(ranked, Ranked{Chunk: ch, Similarity: sim})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return ranked[i].ID < ranked[j].ID
	})

	if len(ranked) > r.candidates {
		ranked = ranked[:r.candidates]
	}
	return ranked, nil
}

func (r *Retriever) embedOne(ctx context.Context, text string) ([]float32, error) {
	var key string
	if r.cache != nil {
		key = cache.EmbeddingKey(r.embedModel, text)
		if data, found := r.cache.Get(key); found {
			var vec []float32
			if err := json.Unmarshal(data, &vec); err == nil && len(vec) > 0 {
				return vec, nil
			}
		}
	}

	vecs, err := r.provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("provider returned no embedding")
	}

	if r.cache != nil {
		if data, err := json.Marshal(vecs[0]); err == nil {
			_ = r.cache.Set(key, data, r.cacheTTL)
		}
	}
	return vecs[0], nil
}

// cosineSimilarity computes the cosine of the angle between two vectors
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty vectors")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-magnitude vector")
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
