package pipeline

import (
	"context"

	"github.com/patterson-s/EliteResearchAgent/internal/corpus"
	"github.com/patterson-s/EliteResearchAgent/internal/model"
	"github.com/patterson-s/EliteResearchAgent/internal/retrieve"
	"github.com/patterson-s/EliteResearchAgent/internal/verify"
)

// attemptExtractor is what a chunkSource needs from the extraction layer
type attemptExtractor interface {
	Extract(ctx context.Context, person string, ch corpus.Chunk) (model.ExtractionAttempt, error)
}

// chunkSource feeds ranked chunks to the acquisition controller one at a
// time, running the extractor lazily so an early stop skips the remaining
// chunks entirely.
type chunkSource struct {
	extractor attemptExtractor
	person    string
	ranked    []retrieve.Ranked
	pos       int
}

func newChunkSource(extractor attemptExtractor, person string, ranked []retrieve.Ranked) *chunkSource {
	return &chunkSource{
		extractor: extractor,
		person:    person,
		ranked:    ranked,
	}
}

func (s *chunkSource) HasMore() bool {
	return s.pos < len(s.ranked)
}

func (s *chunkSource) Next(ctx context.Context) (model.ExtractionAttempt, error) {
	r := s.ranked[s.pos]
	s.pos++

	att, err := s.extractor.Extract(ctx, s.person, r.Chunk)
	if err != nil {
		return model.ExtractionAttempt{}, &verify.UnitError{
			SourceID:    r.ID,
			SourceGroup: r.Domain,
			Err:         err,
		}
	}

	att.Similarity = r.Similarity
	return att, nil
}
