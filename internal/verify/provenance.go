package verify

import (
	"fmt"
	"strings"
	"time"

	"github.com/patterson-s/EliteResearchAgent/internal/model"
)

// ComposeNarrative renders the full decision trail for one run as a
// deterministic, human-readable text. Every attempt the controller ingested
// appears exactly once, in acquisition order, including units that were
// empty or failed outright; the closing section states the winning value,
// its independence count, the runner-up, and the policy step that decided
// the status.
func ComposeNarrative(subject string, res *RunResult, at time.Time) string {
	var b strings.Builder
	out := res.Outcome

	fmt.Fprintf(&b, "Verification trail for %s\n", subject)
	fmt.Fprintf(&b, "Completed: %s\n", at.UTC().Format("2006-01-02 15:04:05 UTC"))
	b.WriteString("\n")

	b.WriteString("EVIDENCE SCANNED\n")
	if len(res.Attempts) == 0 {
		b.WriteString("No evidence units were available.\n")
	}
	for i, att := range res.Attempts {
		fmt.Fprintf(&b, "[%d] %s (%s): %s\n", i+1, sourceLabel(att), groupLabel(att), attemptSummary(att))
	}

	b.WriteString("\n")
	b.WriteString("ADJUDICATION\n")
	fmt.Fprintf(&b, "Status: %s\n", out.Status)
	fmt.Fprintf(&b, "Attempts considered: %d (%d with no evidence)\n", out.TotalAttempts, out.EmptyAttempts)
	fmt.Fprintf(&b, "Stop reason: %s\n", res.StopReason)

	if winner, ok := out.Winner(); ok {
		fmt.Fprintf(&b, "Winning value: %v, corroborated by %d independent source group(s): %s\n",
			winner.Value, winner.Independent(), strings.Join(winner.SourceGroups, ", "))
	} else {
		b.WriteString("No winning value.\n")
	}
	if runnerUp, ok := out.RunnerUp(); ok {
		fmt.Fprintf(&b, "Runner-up value: %v with %d independent source group(s): %s\n",
			runnerUp.Value, runnerUp.Independent(), strings.Join(runnerUp.SourceGroups, ", "))
	}
	fmt.Fprintf(&b, "Decision rule: %s\n", policyStepDescription(out.PolicyStep, out.Status))

	if len(out.Groups) > 1 {
		b.WriteString("\n")
		b.WriteString("COMPETING VALUES\n")
		for _, g := range out.Groups {
			if g.Key == out.WinningKey {
				continue
			}
			fmt.Fprintf(&b, "Value %v claimed by %d independent source group(s): %s\n",
				g.Value, g.Independent(), strings.Join(g.SourceGroups, ", "))
		}
	}

	b.WriteString("\n")
	b.WriteString("TRACEABILITY\n")
	b.WriteString("Every extraction above links back to its source chunk by source id,\n")
	b.WriteString("and through the chunk to the page it was cut from. No scanned unit is\n")
	b.WriteString("omitted from this trail, including empty and failed scans.\n")

	return b.String()
}

func sourceLabel(att model.ExtractionAttempt) string {
	if att.SourceID == "" {
		return "unidentified unit"
	}
	return "chunk " + att.SourceID
}

func groupLabel(att model.ExtractionAttempt) string {
	if att.SourceGroup == "" {
		return "unknown domain"
	}
	return att.SourceGroup
}

func attemptSummary(att model.ExtractionAttempt) string {
	switch {
	case att.FetchError != "":
		return fmt.Sprintf("scan failed (%s), counted as empty", att.FetchError)
	case att.Anomaly:
		return "flagged anomaly: extraction claimed evidence but produced no usable value"
	case !att.Present:
		return "scanned, no evidence found"
	case att.Value == nil:
		return "scanned, evidence without a value"
	default:
		tier := att.EvidenceType
		if tier == "" {
			tier = "unranked"
		}
		return fmt.Sprintf("value %v (evidence type %s)", att.Value, tier)
	}
}

func policyStepDescription(step int, status model.VerificationStatus) string {
	switch step {
	case StepNoEvidence:
		return "step 1: no present attempt carried a value"
	case StepClearWinner:
		if status == model.StatusVerified {
			return "step 3: the only observed value met the corroboration threshold"
		}
		return "step 3: the winning value met the threshold and strictly exceeded every competitor"
	case StepTierTieBreak:
		if status == model.StatusConflictInconclusive {
			return "step 4: groups tied at the maximum and evidence tiers could not break the tie"
		}
		return "step 4: tied groups resolved in favor of the stronger evidence tier"
	case StepBelowThreshold:
		return "step 5: the best-supported value fell short of the corroboration threshold"
	default:
		return fmt.Sprintf("step %d", step)
	}
}
