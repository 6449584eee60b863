package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/patterson-s/EliteResearchAgent/internal/model"
)

// Renderer writes verification records as JSON and Markdown review files
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full record as indented JSON
func (r *Renderer) RenderJSON(record *model.VerificationRecord, path string) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-review Markdown file for the record
func (r *Renderer) RenderMarkdown(record *model.VerificationRecord, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Birth year verification: %s\n\n", record.Person)
	fmt.Fprintf(&b, "- **Status**: `%s`\n", record.Outcome.Status)
	if record.Outcome.WinningValue != nil {
		fmt.Fprintf(&b, "- **Birth year**: %v\n", record.Outcome.WinningValue)
	}
	fmt.Fprintf(&b, "- **Independent sources**: %d (threshold %d)\n",
		record.Outcome.IndependentSources, record.Engine.MinIndependentSources)
	fmt.Fprintf(&b, "- **Units scanned**: %d (%d empty), stop reason `%s`\n",
		record.Outcome.TotalAttempts, record.Outcome.EmptyAttempts, record.StopReason)
	fmt.Fprintf(&b, "- **Adjudicated**: %s\n\n", record.Timestamp.Format("2006-01-02 15:04:05 UTC"))

	if len(record.Outcome.Groups) > 0 {
		b.WriteString("## Competing values\n\n")
		b.WriteString("| Value | Independent sources | Best evidence |\n")
		b.WriteString("|-------|--------------------:|---------------|\n")
		for _, g := range record.Outcome.Groups {
			fmt.Fprintf(&b, "| %v | %d | %s |\n", g.Value, g.Independent(), g.BestTierName)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Provenance\n\n```\n")
	b.WriteString(record.Narrative)
	if !strings.HasSuffix(record.Narrative, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")

	if r.includeFooter {
		fmt.Fprintf(&b, "\n---\n*Generated by bioverify %s (model: %s)*\n",
			record.Engine.Version, record.Engine.Model)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderSummary prints a one-screen summary to stdout
func (r *Renderer) RenderSummary(record *model.VerificationRecord) {
	fmt.Printf("\n%s\n", strings.Repeat("=", 60))
	fmt.Printf("%s\n", record.Person)
	fmt.Printf("%s\n", strings.Repeat("=", 60))
	fmt.Printf("Status:              %s\n", record.Outcome.Status)
	if record.Outcome.WinningValue != nil {
		fmt.Printf("Birth year:          %v\n", record.Outcome.WinningValue)
	}
	fmt.Printf("Independent sources: %d\n", record.Outcome.IndependentSources)
	fmt.Printf("Units scanned:       %d (%d empty)\n", record.Outcome.TotalAttempts, record.Outcome.EmptyAttempts)
	fmt.Printf("Stop reason:         %s\n", record.StopReason)
}

// SlugifyPerson turns a person name into a safe file stem
func SlugifyPerson(person string) string {
	slug := strings.ToLower(strings.TrimSpace(person))
	var b strings.Builder
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '.':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		out = "subject"
	}
	return out
}
