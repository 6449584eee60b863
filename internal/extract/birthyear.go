// Package extract turns evidence chunks into structured extraction
// attempts by prompting an LLM and parsing its labeled output.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/patterson-s/EliteResearchAgent/internal/cache"
	"github.com/patterson-s/EliteResearchAgent/internal/corpus"
	"github.com/patterson-s/EliteResearchAgent/internal/llm"
	"github.com/patterson-s/EliteResearchAgent/internal/model"
)

const birthYearSystemPrompt = `You are a careful biographical research assistant. You read a passage of text about a named person and determine whether it states that person's birth year. You never guess: if the passage does not explicitly support a birth year for the named person, you say so.`

const birthYearUserTemplate = `Person of interest: %s

Passage:
---
%s
---

Does the passage state the birth year of the person of interest? Answer in exactly this format:

reasoning: <one or two sentences explaining what the passage says>
contains_birthdate: <true or false>
birth_year: <four-digit year, or null>`

// Plausible birth years for the biographical populations this engine
// covers. Values outside the window are treated as extraction noise.
const (
	minPlausibleYear = 1600
	maxPlausibleYear = 2099
)

var (
	reasoningPattern = regexp.MustCompile(`(?is)reasoning:(.*?)contains_birthdate:`)
	containsPattern  = regexp.MustCompile(`(?i)contains_birthdate:\s*(true|false)`)
	yearPattern      = regexp.MustCompile(`(?i)birth_year:\s*(null|\d{4})`)
	anyYearPattern   = regexp.MustCompile(`\b(1[6-9]\d{2}|20\d{2})\b`)
)

// BirthYearExtractor extracts birth-year evidence from corpus chunks
type BirthYearExtractor struct {
	provider    llm.Provider
	model       string
	maxTokens   int
	temperature float32
	cache       cache.Cache
	cacheTTL    time.Duration
}

// Options configures a BirthYearExtractor
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
	Cache       cache.Cache // optional; caches raw model output per chunk
	CacheTTL    time.Duration
}

// NewBirthYearExtractor creates an extractor backed by the given provider
func NewBirthYearExtractor(provider llm.Provider, opts Options) (*BirthYearExtractor, error) {
	if provider == nil {
		return nil, fmt.Errorf("extractor requires an LLM provider")
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 7 * 24 * time.Hour
	}
	return &BirthYearExtractor{
		provider:    provider,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
	}, nil
}

// Labels returns every evidence label this extractor can emit, weakest
// tier last. Callers use it to check the configured tier order covers
// the extractor's vocabulary.
func (e *BirthYearExtractor) Labels() []string {
	return model.DefaultTierOrder()
}

// Extract runs one extraction attempt against a single chunk. A provider
// failure returns an error; a model answer that cannot be parsed into a
// usable year returns an anomalous attempt, not an error.
func (e *BirthYearExtractor) Extract(ctx context.Context, person string, ch corpus.Chunk) (model.ExtractionAttempt, error) {
	raw, err := e.complete(ctx, person, ch.Text)
	if err != nil {
		return model.ExtractionAttempt{}, err
	}

	contains, year, hasYear, reasoning := parseExtractionOutput(raw)

	att := model.ExtractionAttempt{
		SourceID:    ch.ID,
		SourceGroup: ch.Domain,
		URL:         ch.URL,
		ChunkIndex:  ch.Index,
		Present:     contains,
		Model:       e.modelName(),
		Reasoning:   reasoning,
		RawOutput:   raw,
		Timestamp:   time.Now().UTC(),
	}

	switch {
	case !contains:
		// Clean negative: nothing to corroborate.
	case hasYear:
		att.Value = year
		att.EvidenceType = classifyEvidenceType(ch.Text)
	default:
		// The model claims birth info is present but gave no usable year.
		att.Anomaly = true
	}

	return att, nil
}

func (e *BirthYearExtractor) complete(ctx context.Context, person, chunkText string) (string, error) {
	var key string
	if e.cache != nil {
		key = cache.ExtractionKey(e.modelName(), person, chunkText)
		if raw, found := e.cache.Get(key); found {
			return string(raw), nil
		}
	}

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System:      birthYearSystemPrompt,
		Prompt:      fmt.Sprintf(birthYearUserTemplate, person, chunkText),
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("extraction completion: %w", err)
	}

	if e.cache != nil {
		_ = e.cache.Set(key, []byte(resp.Text), e.cacheTTL)
	}
	return resp.Text, nil
}

func (e *BirthYearExtractor) modelName() string {
	if e.model != "" {
		return e.model
	}
	return e.provider.Name()
}

// parseExtractionOutput parses the labeled model output. When the model
// says birth info is present but the birth_year field is missing or
// implausible, any plausible four-digit year elsewhere in the output is
// accepted as a fallback.
func parseExtractionOutput(text string) (contains bool, year int, hasYear bool, reasoning string) {
	if m := reasoningPattern.FindStringSubmatch(text); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}

	if m := containsPattern.FindStringSubmatch(text); m != nil {
		contains = strings.EqualFold(m[1], "true")
	}

	if m := yearPattern.FindStringSubmatch(text); m != nil && !strings.EqualFold(m[1], "null") {
		if y, err := strconv.Atoi(m[1]); err == nil && plausibleYear(y) {
			year, hasYear = y, true
		}
	}

	if contains && !hasYear {
		if m := anyYearPattern.FindString(text); m != "" {
			if y, err := strconv.Atoi(m); err == nil && plausibleYear(y) {
				year, hasYear = y, true
			}
		}
	}

	return contains, year, hasYear, reasoning
}

func plausibleYear(y int) bool {
	return y >= minPlausibleYear && y <= maxPlausibleYear
}

// classifyEvidenceType labels the kind of birth statement the chunk text
// carries. Structured fields outrank narrative prose, which outranks
// incidental mentions and category listings.
func classifyEvidenceType(text string) string {
	t := strings.ToLower(text)
	if strings.Contains(t, "date of birth") || strings.Contains(t, "place and date of birth") {
		return model.EvidenceBornField
	}
	if strings.Contains(t, "born") || strings.Contains(t, "née") || strings.Contains(t, "né ") || strings.Contains(t, " b. ") {
		return model.EvidenceBornNarrative
	}
	if strings.Contains(t, " births") || (strings.Contains(t, "births") && strings.Contains(t, "category")) {
		return model.EvidenceCategory
	}
	return model.EvidenceOther
}
