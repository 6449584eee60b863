package model

import "time"

// ExtractionAttempt represents one observation of a candidate fact from one
// evidence unit (a retrieved text chunk). Attempts are immutable once created.
type ExtractionAttempt struct {
	SourceID    string `json:"source_id"`              // Opaque id of the originating chunk
	SourceGroup string `json:"source_group"`           // Independence key (publishing domain)
	URL         string `json:"url,omitempty"`          // Source page URL
	ChunkIndex  int    `json:"chunk_index,omitempty"`  // Position of the chunk within its page

	Present      bool   `json:"present"`                 // Whether the unit contained relevant evidence
	Value        any    `json:"value,omitempty"`         // Candidate fact (nil when absent)
	EvidenceType string `json:"evidence_type,omitempty"` // Tier label from the quality ranking table

	// Anomaly marks attempts the extractor could not fully trust (e.g. the
	// model claimed a birthdate but produced no parseable year). Anomalous
	// attempts never corroborate but stay in the provenance trail.
	Anomaly    bool   `json:"anomaly,omitempty"`
	FetchError string `json:"fetch_error,omitempty"` // Set when the unit itself failed

	// Provenance-only metadata. Never consulted by the decision logic.
	Model      string    `json:"model,omitempty"`
	Reasoning  string    `json:"reasoning,omitempty"`
	RawOutput  string    `json:"raw_output,omitempty"`
	Similarity float64   `json:"similarity,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

// Corroborates reports whether the attempt can contribute to a value group.
func (a ExtractionAttempt) Corroborates() bool {
	return a.Present && !a.Anomaly && a.Value != nil
}

// Evidence type labels emitted by the birth-year extractor, strongest first.
const (
	EvidenceBornField     = "born-field"     // Explicit "date of birth" field
	EvidenceBornNarrative = "born-narrative" // Narrative mention ("born in 1950")
	EvidenceOther         = "other"          // Relevant but unclassified phrasing
	EvidenceCategory      = "category"       // Category/listing membership (e.g. "1950 births")
)

// DefaultTierOrder is the default quality ranking, lowest index = strongest.
func DefaultTierOrder() []string {
	return []string{EvidenceBornField, EvidenceBornNarrative, EvidenceOther, EvidenceCategory}
}
