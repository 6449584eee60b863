package model

// VerificationStatus is the adjudicated classification of a verification run.
type VerificationStatus string

const (
	StatusVerified             VerificationStatus = "verified"              // Single value, threshold met
	StatusConflictResolved     VerificationStatus = "conflict_resolved"     // Winner beat competing values
	StatusConflictInconclusive VerificationStatus = "conflict_inconclusive" // Tied groups, tie-break failed
	StatusNoCorroboration      VerificationStatus = "no_corroboration"      // Best group below threshold
	StatusNoEvidence           VerificationStatus = "no_evidence"           // No present attempt carried a value
)

// Decided reports whether the status carries a winning value that met the
// corroboration threshold.
func (s VerificationStatus) Decided() bool {
	return s == StatusVerified || s == StatusConflictResolved
}

// ValueGroup is the serialized snapshot of one aggregation bucket: every
// attempt that claimed an equivalent value. The distinct source-group count,
// not the raw attempt count, is the corroboration strength.
type ValueGroup struct {
	Key          string   `json:"key"`   // Normalized equivalence key
	Value        any      `json:"value"` // Representative claimed value
	SourceGroups []string `json:"source_groups"`
	SourceIDs    []string `json:"source_ids"` // Member attempts, acquisition order
	BestTier     int      `json:"best_tier"`
	BestTierName string   `json:"best_tier_name,omitempty"`
}

// Independent returns the authoritative independence count for the group.
func (g ValueGroup) Independent() int {
	return len(g.SourceGroups)
}

// StopReason records why the incremental controller stopped collecting.
type StopReason string

const (
	StopEarly        StopReason = "early_stopped"  // Threshold already met mid-run
	StopExhausted    StopReason = "exhausted"      // Hit max_units_to_scan
	StopNoSourceLeft StopReason = "no_source_left" // Extraction source ran dry
)

// VerificationOutcome is the adjudicated result of one verification run.
type VerificationOutcome struct {
	Status             VerificationStatus `json:"status"`
	WinningValue       any                `json:"winning_value,omitempty"`
	WinningKey         string             `json:"winning_key,omitempty"`
	IndependentSources int                `json:"independent_source_count"`
	TotalAttempts      int                `json:"total_attempts_considered"`
	EmptyAttempts      int                `json:"empty_attempts"`
	Groups             []ValueGroup       `json:"value_groups"` // Full ledger, winner first
	RunnerUpKey        string             `json:"runner_up_key,omitempty"`
	PolicyStep         int                `json:"policy_step"` // Decision-policy step that fired (1-5)
}

// Winner returns the winning value group, if the outcome has one.
func (o VerificationOutcome) Winner() (ValueGroup, bool) {
	if o.WinningKey == "" {
		return ValueGroup{}, false
	}
	for _, g := range o.Groups {
		if g.Key == o.WinningKey {
			return g, true
		}
	}
	return ValueGroup{}, false
}

// RunnerUp returns the strongest competing group, if any.
func (o VerificationOutcome) RunnerUp() (ValueGroup, bool) {
	if o.RunnerUpKey == "" {
		return ValueGroup{}, false
	}
	for _, g := range o.Groups {
		if g.Key == o.RunnerUpKey {
			return g, true
		}
	}
	return ValueGroup{}, false
}
