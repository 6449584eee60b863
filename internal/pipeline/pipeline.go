// Package pipeline wires retrieval, extraction and verification into the
// per-person flow behind the CLI: rank the subject's corpus chunks, feed
// them to the acquisition controller, and render the adjudicated record.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/patterson-s/EliteResearchAgent/internal/cache"
	"github.com/patterson-s/EliteResearchAgent/internal/corpus"
	"github.com/patterson-s/EliteResearchAgent/internal/extract"
	"github.com/patterson-s/EliteResearchAgent/internal/llm"
	"github.com/patterson-s/EliteResearchAgent/internal/model"
	"github.com/patterson-s/EliteResearchAgent/internal/retrieve"
	"github.com/patterson-s/EliteResearchAgent/internal/verify"
)

// Pipeline runs birth-year verification for single subjects
type Pipeline struct {
	config    *model.Config
	store     *corpus.Store
	retriever *retrieve.Retriever
	extractor *extract.BirthYearExtractor
	table     *verify.RankingTable
	verbose   bool
}

// NewPipeline builds a pipeline from configuration and a chunk store
func NewPipeline(config *model.Config, store *corpus.Store) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline requires a corpus store")
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(config.LLM))
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("verification requires an LLM provider (set llm.provider)")
	}

	var sharedCache cache.Cache
	if config.Cache.Enabled {
		sharedCache = cache.NewLayeredCache(config.Cache.MemoryTTL, config.Cache.Dir, config.Cache.DiskTTL)
	}

	retriever, err := retrieve.NewRetriever(provider, retrieve.Options{
		EmbedModel:    config.LLM.EmbedModel,
		QueryTemplate: config.Retrieval.QueryTemplate,
		Candidates:    config.Retrieval.InitialCandidates,
		MinSimilarity: config.Retrieval.MinSimilarity,
		Cache:         sharedCache,
	})
	if err != nil {
		return nil, fmt.Errorf("create retriever: %w", err)
	}

	extractor, err := extract.NewBirthYearExtractor(provider, extract.Options{
		Model:       config.LLM.Model,
		MaxTokens:   config.LLM.MaxTokens,
		Temperature: config.LLM.Temperature,
		Cache:       sharedCache,
	})
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	table, err := verify.NewRankingTable(config.Verification.EvidenceTierOrder)
	if err != nil {
		return nil, fmt.Errorf("build ranking table: %w", err)
	}
	for _, label := range extractor.Labels() {
		if !table.Contains(label) {
			return nil, fmt.Errorf("evidence_tier_order does not cover extractor label %q", label)
		}
	}

	return &Pipeline{
		config:    config,
		store:     store,
		retriever: retriever,
		extractor: extractor,
		table:     table,
		verbose:   config.Output.Verbose,
	}, nil
}

// VerifyPerson runs the full flow for one subject and returns the
// persisted record.
func (p *Pipeline) VerifyPerson(ctx context.Context, person string) (*model.VerificationRecord, error) {
	chunks := p.store.ForPerson(person)
	p.logf("scanning corpus: %d chunk(s) for %s", len(chunks), person)

	ranked, err := p.retriever.Rank(ctx, person, chunks)
	if err != nil {
		return nil, fmt.Errorf("retrieve evidence for %s: %w", person, err)
	}
	p.logf("retrieval kept %d candidate(s)", len(ranked))

	controller, err := verify.NewController(verify.Options{
		MinIndependentSources: p.config.Verification.MinIndependentSources,
		MaxUnitsToScan:        p.config.Verification.MaxUnitsToScan,
		EarlyStopOnVerified:   p.config.Verification.EarlyStopOnVerified,
		MinAttemptsBeforeStop: p.config.Verification.MinAttemptsBeforeStop,
	}, verify.YearKeyer{}, p.table)
	if err != nil {
		return nil, fmt.Errorf("build controller: %w", err)
	}

	src := newChunkSource(p.extractor, person, ranked)
	result, err := controller.Run(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", person, err)
	}
	p.logf("outcome: %s after %d attempt(s), stop=%s",
		result.Outcome.Status, len(result.Attempts), result.StopReason)

	now := time.Now().UTC()
	record := &model.VerificationRecord{
		Person:    person,
		Timestamp: now,
		Engine: model.EngineInfo{
			Version:               model.Version,
			Model:                 p.config.LLM.Model,
			MinIndependentSources: p.config.Verification.MinIndependentSources,
			MaxUnitsToScan:        p.config.Verification.MaxUnitsToScan,
			EarlyStopOnVerified:   p.config.Verification.EarlyStopOnVerified,
		},
		Retrieval:  retrievalSummary(ranked),
		Attempts:   result.Attempts,
		Outcome:    result.Outcome,
		StopReason: result.StopReason,
		Narrative:  verify.ComposeNarrative(person, result, now),
	}
	return record, nil
}

func retrievalSummary(ranked []retrieve.Ranked) model.RetrievalSummary {
	summary := model.RetrievalSummary{CandidatesRetrieved: len(ranked)}

	top := ranked
	if len(top) > 5 {
		top = top[:5]
	}
	for _, r := range top {
		summary.TopCandidates = append(summary.TopCandidates, model.CandidateRef{
			SourceID:   r.ID,
			Domain:     r.Domain,
			URL:        r.URL,
			Similarity: r.Similarity,
		})
	}
	return summary
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
