package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/patterson-s/EliteResearchAgent/internal/model"
)

// Verifier defines the interface for verifying one subject
type Verifier interface {
	VerifyPerson(ctx context.Context, person string) (*model.VerificationRecord, error)
}

// VerifyJob represents one subject verification job
type VerifyJob struct {
	Person   string
	Verifier Verifier
}

// Execute executes the verification job. A failed subject becomes a
// result with an error; it never aborts the rest of the batch.
func (j *VerifyJob) Execute(ctx context.Context) Result {
	record, err := j.Verifier.VerifyPerson(ctx, j.Person)
	if err != nil {
		return &VerifyResult{
			Person: j.Person,
			Error:  err,
		}
	}
	return &VerifyResult{
		Person: j.Person,
		Record: record,
	}
}

// VerifyResult represents the result of a verification job
type VerifyResult struct {
	Person string
	Record *model.VerificationRecord
	Error  error
}

// GetError returns the error from the verification result
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies multiple subjects concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessPersons verifies multiple subjects concurrently
func (b *BatchProcessor) ProcessPersons(ctx context.Context, persons []string) []*VerifyResult {
	if len(persons) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, person := range persons {
		pool.Submit(&VerifyJob{
			Person:   person,
			Verifier: b.verifier,
		})
	}

	results := pool.Wait()

	verifyResults := make([]*VerifyResult, len(results))
	for i, result := range results {
		verifyResults[i] = result.(*VerifyResult)
	}

	return verifyResults
}

// ProcessFile reads subject names from a file and verifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*VerifyResult, error) {
	persons, err := ReadPersonsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read persons: %w", err)
	}

	return b.ProcessPersons(ctx, persons), nil
}

// ReadPersonsFromFile reads subject names from a file (one per line)
func ReadPersonsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var persons []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate subjects
		if !seen[line] {
			seen[line] = true
			persons = append(persons, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return persons, nil
}
