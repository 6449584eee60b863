package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/patterson-s/EliteResearchAgent/internal/corpus"
	"github.com/patterson-s/EliteResearchAgent/internal/model"
	"github.com/patterson-s/EliteResearchAgent/internal/retrieve"
	"github.com/patterson-s/EliteResearchAgent/internal/verify"
)

// fakeExtractor scripts per-chunk behavior for chunkSource tests
type fakeExtractor struct {
	failIDs map[string]error
}

func (f *fakeExtractor) Extract(ctx context.Context, person string, ch corpus.Chunk) (model.ExtractionAttempt, error) {
	if err, ok := f.failIDs[ch.ID]; ok {
		return model.ExtractionAttempt{}, err
	}
	return model.ExtractionAttempt{
		SourceID:     ch.ID,
		SourceGroup:  ch.Domain,
		URL:          ch.URL,
		Present:      true,
		Value:        1950,
		EvidenceType: model.EvidenceBornNarrative,
	}, nil
}

func TestChunkSource_CarriesSimilarityAndIdentity(t *testing.T) {
	ranked := []retrieve.Ranked{
		{Chunk: corpus.Chunk{ID: "a.org-1#0", Domain: "a.org"}, Similarity: 0.91},
		{Chunk: corpus.Chunk{ID: "b.org-1#0", Domain: "b.org"}, Similarity: 0.72},
	}
	src := newChunkSource(&fakeExtractor{}, "Jane", ranked)

	if !src.HasMore() {
		t.Fatal("expected HasMore before first Next")
	}
	att, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if att.SourceID != "a.org-1#0" || att.Similarity != 0.91 {
		t.Errorf("attempt = %+v", att)
	}

	if _, err := src.Next(context.Background()); err != nil {
		t.Fatalf("next: %v", err)
	}
	if src.HasMore() {
		t.Error("expected exhausted source")
	}
}

func TestChunkSource_WrapsExtractorFailure(t *testing.T) {
	ranked := []retrieve.Ranked{
		{Chunk: corpus.Chunk{ID: "a.org-1#0", Domain: "a.org"}, Similarity: 0.9},
	}
	src := newChunkSource(&fakeExtractor{
		failIDs: map[string]error{"a.org-1#0": errors.New("model timeout")},
	}, "Jane", ranked)

	_, err := src.Next(context.Background())
	var unitErr *verify.UnitError
	if !errors.As(err, &unitErr) {
		t.Fatalf("expected *verify.UnitError, got %v", err)
	}
	if unitErr.SourceID != "a.org-1#0" || unitErr.SourceGroup != "a.org" {
		t.Errorf("unit error lost chunk identity: %+v", unitErr)
	}
}

func TestPipeline_VerifyPerson_EndToEnd(t *testing.T) {
	// Mock OpenAI: one embeddings endpoint for the query, one chat endpoint
	// answering every extraction with the same year.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/embeddings":
			resp := openai.EmbeddingResponse{
				Object: "list",
				Data:   []openai.Embedding{{Index: 0, Embedding: []float32{1, 0}}},
			}
			_ = json.NewEncoder(w).Encode(resp)
		case "/chat/completions":
			resp := openai.ChatCompletionResponse{
				Model: "gpt-4o-mini",
				Choices: []openai.ChatCompletionChoice{{
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: "reasoning: the passage states she was born in 1950\ncontains_birthdate: true\nbirth_year: 1950",
					},
				}},
				Usage: openai.Usage{TotalTokens: 50},
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.BaseURL = server.URL
	cfg.Cache.Enabled = false

	store := corpus.NewStore(filepath.Join(t.TempDir(), "corpus.json"))
	store.Add(
		corpus.Chunk{ID: "a.org-1#0", Person: "Jane Example", URL: "https://a.org/x", Domain: "a.org",
			Text: "Jane Example (born 1950) was a chemist.", Embedding: []float32{1, 0}},
		corpus.Chunk{ID: "b.org-1#0", Person: "Jane Example", URL: "https://b.org/y", Domain: "b.org",
			Text: "Born in 1950, Example studied in Paris.", Embedding: []float32{0.9, 0.1}},
		corpus.Chunk{ID: "c.org-1#0", Person: "Someone Else", URL: "https://c.org/z", Domain: "c.org",
			Text: "Unrelated person.", Embedding: []float32{1, 0}},
	)

	pipe, err := NewPipeline(cfg, store)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	record, err := pipe.VerifyPerson(context.Background(), "Jane Example")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if record.Outcome.Status != model.StatusVerified {
		t.Errorf("status = %s, want verified", record.Outcome.Status)
	}
	if record.Outcome.WinningValue != 1950 {
		t.Errorf("winning value = %v, want 1950", record.Outcome.WinningValue)
	}
	if record.StopReason != model.StopEarly {
		t.Errorf("stop reason = %s, want %s", record.StopReason, model.StopEarly)
	}
	if record.Retrieval.CandidatesRetrieved != 2 {
		t.Errorf("candidates = %d, want 2 (other person's chunk must be excluded)", record.Retrieval.CandidatesRetrieved)
	}
	if record.Narrative == "" || !strings.Contains(record.Narrative, "Status: verified") {
		t.Errorf("narrative missing adjudication:\n%s", record.Narrative)
	}
	if record.Engine.MinIndependentSources != 2 {
		t.Errorf("engine info not stamped: %+v", record.Engine)
	}
	for _, att := range record.Attempts {
		if att.Similarity == 0 {
			t.Errorf("attempt %s lost its retrieval similarity", att.SourceID)
		}
	}
}

func TestNewPipeline_RejectsUncoveredTierOrder(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "test-key"
	cfg.Cache.Enabled = false
	cfg.Verification.EvidenceTierOrder = []string{"born-field", "other"} // missing labels

	_, err := NewPipeline(cfg, corpus.NewStore(filepath.Join(t.TempDir(), "c.json")))
	if err == nil {
		t.Fatal("expected error for tier order that misses extractor labels")
	}
}

func TestRenderer_WritesJSONAndMarkdown(t *testing.T) {
	record := &model.VerificationRecord{
		Person: "Jane Example",
		Engine: model.EngineInfo{Version: model.Version, Model: "gpt-4o-mini", MinIndependentSources: 2},
		Outcome: model.VerificationOutcome{
			Status:             model.StatusVerified,
			WinningValue:       1950,
			IndependentSources: 2,
			TotalAttempts:      2,
			Groups: []model.ValueGroup{
				{Key: "1950", Value: 1950, SourceGroups: []string{"a.org", "b.org"}, BestTierName: model.EvidenceBornField},
			},
		},
		StopReason: model.StopEarly,
		Narrative:  "EVIDENCE SCANNED\n[1] chunk a.org-1#0 (a.org): value 1950",
	}

	dir := t.TempDir()
	renderer := NewRenderer(true)

	jsonPath := filepath.Join(dir, "jane.json")
	if err := renderer.RenderJSON(record, jsonPath); err != nil {
		t.Fatalf("render json: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var decoded model.VerificationRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if decoded.Person != "Jane Example" || decoded.Outcome.Status != model.StatusVerified {
		t.Errorf("round trip lost fields: %+v", decoded)
	}

	mdPath := filepath.Join(dir, "jane.md")
	if err := renderer.RenderMarkdown(record, mdPath); err != nil {
		t.Fatalf("render markdown: %v", err)
	}
	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	text := string(md)
	for _, want := range []string{"# Birth year verification: Jane Example", "`verified`", "1950", "EVIDENCE SCANNED", "Generated by bioverify"} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q:\n%s", want, text)
		}
	}
}

func TestSlugifyPerson(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Jane Example", "jane_example"},
		{"  J. R. Smith-Jones ", "j__r__smith_jones"},
		{"Ünïcode Nàme", "ncode_nme"},
		{"***", "subject"},
	}
	for _, tt := range tests {
		if got := SlugifyPerson(tt.in); got != tt.want {
			t.Errorf("SlugifyPerson(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
