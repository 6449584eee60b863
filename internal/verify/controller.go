package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patterson-s/EliteResearchAgent/internal/model"
)

// Source supplies extraction attempts one evidence unit at a time, most
// relevant first. Next may block on I/O; the controller issues exactly one
// request at a time and never retries a failed unit.
type Source interface {
	HasMore() bool
	Next(ctx context.Context) (model.ExtractionAttempt, error)
}

// UnitError identifies which evidence unit a Source failure came from, so
// the failed unit can still appear in the provenance trail.
type UnitError struct {
	SourceID    string
	SourceGroup string
	Err         error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("evidence unit %s: %v", e.SourceID, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// Options configures one verification run.
type Options struct {
	MinIndependentSources int
	MaxUnitsToScan        int
	EarlyStopOnVerified   bool

	// MinAttemptsBeforeStop delays the first early-stop check so a single
	// attempt can never short-circuit a run when the threshold is
	// misconfigured to 1. Defaults to 2.
	MinAttemptsBeforeStop int
}

func (o Options) validate() error {
	if o.MinIndependentSources < 1 {
		return fmt.Errorf("min independent sources must be >= 1, got %d", o.MinIndependentSources)
	}
	if o.MaxUnitsToScan < 1 {
		return fmt.Errorf("max units to scan must be >= 1, got %d", o.MaxUnitsToScan)
	}
	return nil
}

// RunResult is the terminal state of one verification run.
type RunResult struct {
	Outcome    model.VerificationOutcome
	Attempts   []model.ExtractionAttempt // Acquisition order, failures included
	StopReason model.StopReason
}

// Controller drives the bounded acquisition loop: pull one unit, ingest it,
// re-adjudicate, decide whether to stop. One controller instance serves one
// run; runs for different subjects are fully independent.
type Controller struct {
	opts  Options
	keyer Keyer
	table *RankingTable
}

// NewController validates the options and builds a controller. Configuration
// faults are rejected here, before any evidence is requested.
func NewController(opts Options, keyer Keyer, table *RankingTable) (*Controller, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if keyer == nil {
		return nil, fmt.Errorf("keyer is required")
	}
	if table == nil {
		return nil, fmt.Errorf("ranking table is required")
	}
	if opts.MinAttemptsBeforeStop < 1 {
		opts.MinAttemptsBeforeStop = 2
	}
	return &Controller{opts: opts, keyer: keyer, table: table}, nil
}

// Run collects evidence from src until the stop criteria fire, then returns
// the final adjudication over everything collected. A failing unit is
// recorded as an empty attempt and the run continues; only context
// cancellation and configuration faults abort a run.
func (c *Controller) Run(ctx context.Context, src Source) (*RunResult, error) {
	ledger := NewLedger(c.keyer, c.table)
	var attempts []model.ExtractionAttempt
	var reason model.StopReason

	for len(attempts) < c.opts.MaxUnitsToScan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !src.HasMore() {
			reason = model.StopNoSourceLeft
			break
		}

		att, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			att = failedAttempt(err)
		}

		if err := ledger.Ingest(att); err != nil {
			return nil, err
		}
		attempts = append(attempts, att)

		if c.opts.EarlyStopOnVerified && len(attempts) >= c.opts.MinAttemptsBeforeStop {
			if Evaluate(ledger, c.opts.MinIndependentSources).Status.Decided() {
				reason = model.StopEarly
				break
			}
		}
	}

	if reason == "" {
		if len(attempts) >= c.opts.MaxUnitsToScan {
			reason = model.StopExhausted
		} else {
			reason = model.StopNoSourceLeft
		}
	}

	return &RunResult{
		Outcome:    Evaluate(ledger, c.opts.MinIndependentSources),
		Attempts:   attempts,
		StopReason: reason,
	}, nil
}

// failedAttempt converts a per-unit failure into an empty attempt so the
// unit stays visible in provenance without corroborating anything.
func failedAttempt(err error) model.ExtractionAttempt {
	att := model.ExtractionAttempt{
		Present:    false,
		FetchError: err.Error(),
		Timestamp:  time.Now().UTC(),
	}
	var unitErr *UnitError
	if errors.As(err, &unitErr) {
		att.SourceID = unitErr.SourceID
		att.SourceGroup = unitErr.SourceGroup
		att.FetchError = unitErr.Err.Error()
	}
	return att
}
