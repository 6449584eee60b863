package verify

import "github.com/patterson-s/EliteResearchAgent/internal/model"

// Decision-policy steps, recorded in the outcome so the provenance narrative
// can cite exactly which rule produced the status.
const (
	StepNoEvidence     = 1 // Empty ledger
	StepClearWinner    = 3 // Unique maximum meeting the threshold
	StepTierTieBreak   = 4 // Tied maxima resolved (or not) by evidence tier
	StepBelowThreshold = 5 // Best group under the corroboration threshold
)

// Evaluate adjudicates the current ledger. It is a pure function of the
// ledger snapshot: identical evidence sets produce identical outcomes no
// matter what order the attempts arrived in.
func Evaluate(l *Ledger, minIndependent int) model.VerificationOutcome {
	groups := l.Snapshot()
	out := model.VerificationOutcome{
		TotalAttempts: l.Total(),
		EmptyAttempts: l.Empty(),
		Groups:        groups,
	}

	// Step 1: nothing claimed a value at all.
	if len(groups) == 0 {
		out.Status = model.StatusNoEvidence
		out.PolicyStep = StepNoEvidence
		return out
	}

	maxCount := groups[0].Independent()
	var top []model.ValueGroup
	for _, g := range groups {
		if g.Independent() == maxCount {
			top = append(top, g)
		}
	}

	// Step 4: two or more groups tied at the maximum. Break the tie by
	// evidence tier; snapshot ordering already placed the strongest tier
	// first, so the tie survives only when the top two tiers are equal.
	// A tie-break win still requires the threshold to be met, otherwise
	// the conflict stays inconclusive.
	if len(top) > 1 {
		out.PolicyStep = StepTierTieBreak
		if top[0].BestTier < top[1].BestTier && top[0].Independent() >= minIndependent {
			out.Status = model.StatusConflictResolved
			out.WinningValue = top[0].Value
			out.WinningKey = top[0].Key
			out.IndependentSources = top[0].Independent()
			out.RunnerUpKey = top[1].Key
			return out
		}
		out.Status = model.StatusConflictInconclusive
		out.IndependentSources = maxCount
		return out
	}

	// Step 5: the best group stands alone but lacks corroboration. Its value
	// is reported but not verified.
	if maxCount < minIndependent {
		out.Status = model.StatusNoCorroboration
		out.WinningValue = groups[0].Value
		out.WinningKey = groups[0].Key
		out.IndependentSources = maxCount
		out.PolicyStep = StepBelowThreshold
		if len(groups) > 1 {
			out.RunnerUpKey = groups[1].Key
		}
		return out
	}

	// Step 3: a unique maximum that meets the threshold wins outright.
	out.WinningValue = top[0].Value
	out.WinningKey = top[0].Key
	out.IndependentSources = maxCount
	out.PolicyStep = StepClearWinner
	if len(groups) == 1 {
		out.Status = model.StatusVerified
	} else {
		out.Status = model.StatusConflictResolved
		out.RunnerUpKey = groups[1].Key
	}
	return out
}
