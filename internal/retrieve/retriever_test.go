package retrieve

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/patterson-s/EliteResearchAgent/internal/cache"
	"github.com/patterson-s/EliteResearchAgent/internal/corpus"
	"github.com/patterson-s/EliteResearchAgent/internal/llm"
)

// vectorProvider returns a fixed vector per text
type vectorProvider struct {
	vectors map[string][]float32
	calls   int
}

func (p *vectorProvider) Name() string { return "vectors" }

func (p *vectorProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, errors.New("not supported")
}

func (p *vectorProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		p.calls++
		vec, ok := p.vectors[t]
		if !ok {
			return nil, errors.New("no vector for text: " + t)
		}
		out = append(out, vec)
	}
	return out, nil
}

func (p *vectorProvider) IsAvailable(ctx context.Context) bool { return true }

func TestRetriever_RanksBySimilarity(t *testing.T) {
	provider := &vectorProvider{vectors: map[string][]float32{
		"When was Jane born? Birth year and date of birth of Jane.": {1, 0},
	}}
	retriever, err := NewRetriever(provider, Options{Candidates: 10})
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	chunks := []corpus.Chunk{
		{ID: "c-far", Text: "far", Embedding: []float32{0, 1}},       // orthogonal
		{ID: "c-near", Text: "near", Embedding: []float32{1, 0.01}},  // almost parallel
		{ID: "c-mid", Text: "mid", Embedding: []float32{0.7, 0.7}},   // diagonal
	}

	ranked, err := retriever.Rank(context.Background(), "Jane", chunks)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}

	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked chunks, got %d", len(ranked))
	}
	if ranked[0].ID != "c-near" || ranked[1].ID != "c-mid" || ranked[2].ID != "c-far" {
		t.Errorf("order = %s, %s, %s", ranked[0].ID, ranked[1].ID, ranked[2].ID)
	}
	if ranked[0].Similarity <= ranked[1].Similarity {
		t.Errorf("similarities not descending: %v vs %v", ranked[0].Similarity, ranked[1].Similarity)
	}
}

func TestRetriever_FiltersAndCaps(t *testing.T) {
	provider := &vectorProvider{vectors: map[string][]float32{
		"When was Jane born? Birth year and date of birth of Jane.": {1, 0},
	}}
	retriever, err := NewRetriever(provider, Options{Candidates: 2, MinSimilarity: 0.5})
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	chunks := []corpus.Chunk{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{0.9, 0.1}},
		{ID: "c", Embedding: []float32{0.8, 0.2}},
		{ID: "drop", Embedding: []float32{0, 1}}, // similarity 0, below floor
	}

	ranked, err := retriever.Rank(context.Background(), "Jane", chunks)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}

	if len(ranked) != 2 {
		t.Fatalf("expected cap of 2 candidates, got %d", len(ranked))
	}
	for _, r := range ranked {
		if r.ID == "drop" {
			t.Error("below-floor chunk survived filtering")
		}
	}
}

func TestRetriever_EmbedsMissingVectorsWithCache(t *testing.T) {
	provider := &vectorProvider{vectors: map[string][]float32{
		"When was Jane born? Birth year and date of birth of Jane.": {1, 0},
		"unembedded chunk text": {0.5, 0.5},
	}}
	retriever, err := NewRetriever(provider, Options{
		Candidates: 5,
		Cache:      cache.NewMemoryCache(time.Minute, time.Minute),
	})
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	chunks := []corpus.Chunk{{ID: "x", Text: "unembedded chunk text"}}
	for i := 0; i < 2; i++ {
		if _, err := retriever.Rank(context.Background(), "Jane", chunks); err != nil {
			t.Fatalf("rank %d: %v", i, err)
		}
	}

	// Two texts on the first pass, zero on the second: all cached.
	if provider.calls != 2 {
		t.Errorf("provider embedded %d texts, want 2", provider.calls)
	}
}

func TestRetriever_CustomQueryTemplate(t *testing.T) {
	provider := &vectorProvider{vectors: map[string][]float32{}}
	retriever, err := NewRetriever(provider, Options{
		Candidates:    1,
		QueryTemplate: "birth year of %s",
	})
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	if q := retriever.Query("Jane Example"); q != "birth year of Jane Example" {
		t.Errorf("query = %q", q)
	}
}

func TestCosineSimilarity(t *testing.T) {
	sim, err := cosineSimilarity([]float32{1, 0}, []float32{1, 0})
	if err != nil || math.Abs(sim-1) > 1e-9 {
		t.Errorf("parallel vectors: sim=%v err=%v", sim, err)
	}

	sim, err = cosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil || math.Abs(sim) > 1e-9 {
		t.Errorf("orthogonal vectors: sim=%v err=%v", sim, err)
	}

	if _, err := cosineSimilarity([]float32{1}, []float32{1, 0}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if _, err := cosineSimilarity([]float32{0, 0}, []float32{1, 0}); err == nil {
		t.Error("expected zero-magnitude error")
	}
}
