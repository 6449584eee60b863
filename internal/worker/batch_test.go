package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/patterson-s/EliteResearchAgent/internal/model"
)

// MockVerifier implements the Verifier interface
type MockVerifier struct {
	FailPersons map[string]bool
}

func (m *MockVerifier) VerifyPerson(ctx context.Context, person string) (*model.VerificationRecord, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.FailPersons[person] {
		return nil, errors.New("verification error")
	}
	return &model.VerificationRecord{
		Person: person,
		Outcome: model.VerificationOutcome{
			Status:       model.StatusVerified,
			WinningValue: 1950,
		},
	}, nil
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "persons.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessPersons(t *testing.T) {
	processor := NewBatchProcessor(&MockVerifier{}, 2)

	persons := []string{"Jane Example", "John Sample", "Ada Case"}
	results := processor.ProcessPersons(context.Background(), persons)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Person, res.Error)
			continue
		}
		if res.Record == nil || res.Record.Person != res.Person {
			t.Errorf("result record mismatch: %+v", res)
		}
	}
}

func TestBatchProcessor_FailedSubjectDoesNotAbortBatch(t *testing.T) {
	processor := NewBatchProcessor(&MockVerifier{
		FailPersons: map[string]bool{"John Sample": true},
	}, 2)

	results := processor.ProcessPersons(context.Background(),
		[]string{"Jane Example", "John Sample", "Ada Case"})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	var failures, successes int
	for _, res := range results {
		if res.Error != nil {
			failures++
			if res.Person != "John Sample" {
				t.Errorf("unexpected failure for %s: %v", res.Person, res.Error)
			}
			if res.Record != nil {
				t.Error("expected nil record on error")
			}
		} else {
			successes++
		}
	}
	if failures != 1 || successes != 2 {
		t.Errorf("failures=%d successes=%d, want 1 and 2", failures, successes)
	}
}

func TestBatchProcessor_ProcessPersons_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockVerifier{}, 2)

	results := processor.ProcessPersons(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadPersonsFromFile(t *testing.T) {
	path := writeTempFile(t, `Jane Example
# a comment
John Sample

   Ada Case   `)

	persons, err := ReadPersonsFromFile(path)
	if err != nil {
		t.Fatalf("ReadPersonsFromFile failed: %v", err)
	}

	expected := []string{"Jane Example", "John Sample", "Ada Case"}
	if len(persons) != len(expected) {
		t.Fatalf("expected %d persons, got %d", len(expected), len(persons))
	}
	for i, p := range persons {
		if p != expected[i] {
			t.Errorf("expected %q at index %d, got %q", expected[i], i, p)
		}
	}
}

func TestReadPersonsFromFile_Deduplication(t *testing.T) {
	path := writeTempFile(t, "Jane Example\nJane Example\n")

	persons, err := ReadPersonsFromFile(path)
	if err != nil {
		t.Fatalf("ReadPersonsFromFile failed: %v", err)
	}
	if len(persons) != 1 {
		t.Errorf("expected 1 person after deduplication, got %d", len(persons))
	}
}

func TestReadPersonsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadPersonsFromFile("no_such_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTempFile(t, "Jane Example\nJohn Sample\n# comment\n\nAda Case\n")

	processor := NewBatchProcessor(&MockVerifier{}, 2)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&MockVerifier{}, 2)
	if _, err := processor.ProcessFile(context.Background(), "no_such_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestVerifyResult_GetError(t *testing.T) {
	r1 := &VerifyResult{Person: "Jane"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("verification failed")
	r2 := &VerifyResult{Person: "Jane", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
