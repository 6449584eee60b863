package model

import "time"

// VerificationRecord is the complete persisted artifact for one subject:
// the adjudicated outcome plus everything needed to audit how it was reached.
type VerificationRecord struct {
	Person    string    `json:"person"`
	Timestamp time.Time `json:"timestamp"`

	Engine EngineInfo `json:"engine"`

	Retrieval RetrievalSummary    `json:"retrieval"`
	Attempts  []ExtractionAttempt `json:"attempts"` // Every unit scanned, acquisition order

	Outcome    VerificationOutcome `json:"outcome"`
	StopReason StopReason          `json:"stop_reason"`

	Narrative string `json:"narrative"` // Human-readable provenance trail
}

// EngineInfo snapshots the configuration that produced a record.
type EngineInfo struct {
	Version               string `json:"version"`
	Model                 string `json:"model,omitempty"`
	MinIndependentSources int    `json:"min_independent_sources"`
	MaxUnitsToScan        int    `json:"max_units_to_scan"`
	EarlyStopOnVerified   bool   `json:"early_stop_on_verified"`
}

// RetrievalSummary records what the semantic retrieval phase produced.
type RetrievalSummary struct {
	CandidatesRetrieved int            `json:"candidates_retrieved"`
	TopCandidates       []CandidateRef `json:"top_candidates,omitempty"`
}

// CandidateRef identifies one retrieved chunk and its relevance score.
type CandidateRef struct {
	SourceID   string  `json:"source_id"`
	Domain     string  `json:"domain"`
	URL        string  `json:"url,omitempty"`
	Similarity float64 `json:"similarity"`
}
