package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/patterson-s/EliteResearchAgent/internal/corpus"
	"github.com/patterson-s/EliteResearchAgent/internal/pipeline"
	"github.com/patterson-s/EliteResearchAgent/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
	// corpusPath, outputDir, noFooter, noCache and the LLM flags are
	// defined in verify.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple persons from a file in parallel",
	Long: `Batch verifies multiple persons concurrently:
- Read person names from input file (one per line, # for comments)
- Verify persons in parallel with configurable worker count
- Each verification triangulates evidence across source domains
- Generate individual JSON and Markdown records for each person

Example:
  bioverify batch persons.txt
  bioverify batch persons.txt --concurrency 8 --output-dir ./review
  bioverify batch persons.txt --min-sources 3 --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	// Inherit flags from verify command
	batchCmd.Flags().StringVar(&corpusPath, "corpus", "corpus.json", "path to the ingested chunk corpus")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./review", "output directory for records")
	batchCmd.Flags().IntVar(&minSources, "min-sources", 0, "independent source threshold (0 = config default)")
	batchCmd.Flags().IntVar(&maxUnits, "max-units", 0, "max evidence units to scan (0 = config default)")
	batchCmd.Flags().BoolVar(&noEarlyStop, "no-early-stop", false, "scan the full unit budget even after verification")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown records")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh extractions)")

	// LLM flags
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyVerifyFlags(cfg)
	if err := resolveAPIKey(cfg); err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Bioverify Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Corpus:       %s\n", corpusPath)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	store, err := corpus.LoadStore(corpusPath)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Create pipeline
	p, err := pipeline.NewPipeline(cfg, store)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	// Create batch processor
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)

	fmt.Fprintf(os.Stderr, "⚙️  Reading persons from file...\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d persons\n", len(results))
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "⚙️  Verifying with %d workers...\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	// Process results
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Person, result.Error)
			continue
		}

		successCount++

		slug := pipeline.SlugifyPerson(result.Person)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Record, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Person, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Record, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Person, err)
			continue
		}

		out := result.Record.Outcome
		if out.WinningValue != nil {
			fmt.Fprintf(os.Stderr, "✓ %s: %s (%v)\n", result.Person, out.Status, out.WinningValue)
		} else {
			fmt.Fprintf(os.Stderr, "✓ %s: %s\n", result.Person, out.Status)
		}
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d persons\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
