package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/patterson-s/EliteResearchAgent/internal/model"
)

func TestComposeNarrative_Completeness(t *testing.T) {
	// Every ingested attempt must appear exactly once, including empty scans
	// and failed units.
	ctrl := newTestController(t, Options{
		MinIndependentSources: 2,
		MaxUnitsToScan:        5,
		EarlyStopOnVerified:   false,
	})

	src := &sliceSource{
		attempts: fiveUnitStream(),
		failAt:   map[int]error{2: errors.New("provider unavailable")},
	}
	res, err := ctrl.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	narrative := ComposeNarrative("Test Person", res, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	for _, att := range res.Attempts {
		needle := "chunk " + att.SourceID
		if n := strings.Count(narrative, needle+" "); n != 1 {
			t.Errorf("attempt %s appears %d times in narrative, want 1", att.SourceID, n)
		}
	}

	if !strings.Contains(narrative, "scanned, no evidence found") {
		t.Error("empty scan missing from narrative")
	}
	if !strings.Contains(narrative, "scan failed (provider unavailable)") {
		t.Error("failed unit missing from narrative")
	}
}

func TestComposeNarrative_Deterministic(t *testing.T) {
	ctrl := newTestController(t, Options{
		MinIndependentSources: 2,
		MaxUnitsToScan:        5,
		EarlyStopOnVerified:   true,
	})
	res, err := ctrl.Run(context.Background(), &sliceSource{attempts: fiveUnitStream()})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if ComposeNarrative("Test Person", res, at) != ComposeNarrative("Test Person", res, at) {
		t.Error("narrative is not deterministic for identical inputs")
	}
}

func TestComposeNarrative_DecisionRationale(t *testing.T) {
	attempts := []model.ExtractionAttempt{
		yearAttempt("c1", "a.org", 1950, model.EvidenceBornField),
		yearAttempt("c2", "b.org", 1952, model.EvidenceBornField),
		yearAttempt("c3", "c.org", 1950, model.EvidenceBornNarrative),
	}
	ctrl := newTestController(t, Options{
		MinIndependentSources: 2,
		MaxUnitsToScan:        3,
		EarlyStopOnVerified:   false,
	})
	res, err := ctrl.Run(context.Background(), &sliceSource{attempts: attempts})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	narrative := ComposeNarrative("Test Person", res, time.Now())

	if !strings.Contains(narrative, "Status: conflict_resolved") {
		t.Errorf("narrative missing status:\n%s", narrative)
	}
	if !strings.Contains(narrative, "Winning value: 1950") {
		t.Errorf("narrative missing winner:\n%s", narrative)
	}
	if !strings.Contains(narrative, "Runner-up value: 1952") {
		t.Errorf("narrative missing runner-up:\n%s", narrative)
	}
	if !strings.Contains(narrative, fmt.Sprintf("step %d", res.Outcome.PolicyStep)) {
		t.Errorf("narrative missing policy step %d:\n%s", res.Outcome.PolicyStep, narrative)
	}
}

func TestComposeNarrative_NoEvidence(t *testing.T) {
	ctrl := newTestController(t, Options{
		MinIndependentSources: 2,
		MaxUnitsToScan:        3,
		EarlyStopOnVerified:   true,
	})
	res, err := ctrl.Run(context.Background(), &sliceSource{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	narrative := ComposeNarrative("Unknown Person", res, time.Now())
	if !strings.Contains(narrative, "No evidence units were available.") {
		t.Errorf("narrative missing empty-stream note:\n%s", narrative)
	}
	if !strings.Contains(narrative, "Status: no_evidence") {
		t.Errorf("narrative missing no_evidence status:\n%s", narrative)
	}
}
