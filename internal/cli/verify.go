package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/patterson-s/EliteResearchAgent/internal/corpus"
	"github.com/patterson-s/EliteResearchAgent/internal/model"
	"github.com/patterson-s/EliteResearchAgent/internal/pipeline"
)

var (
	corpusPath    string
	outputDir     string
	verifyTimeout time.Duration
	minSources    int
	maxUnits      int
	noEarlyStop   bool
	noFooter      bool
	noCache       bool
	llmProvider   string
	llmModel      string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <person>",
	Short: "Verify one person's birth year against the ingested corpus",
	Long: `Verify retrieves the most relevant evidence chunks for a person,
extracts a birth year from each with an LLM, and triangulates the
results: the answer is verified only when enough distinct source
domains agree. The run writes a JSON record and a Markdown review file
including a full provenance narrative.

Example:
  bioverify verify "Jane Example"
  bioverify verify "Jane Example" --min-sources 3 --max-units 20
  bioverify verify "Jane Example" --no-early-stop --output-dir ./review`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&corpusPath, "corpus", "corpus.json", "path to the ingested chunk corpus")
	verifyCmd.Flags().StringVar(&outputDir, "output-dir", "./review", "output directory for records")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 5*time.Minute, "overall verification timeout")
	verifyCmd.Flags().IntVar(&minSources, "min-sources", 0, "independent source threshold (0 = config default)")
	verifyCmd.Flags().IntVar(&maxUnits, "max-units", 0, "max evidence units to scan (0 = config default)")
	verifyCmd.Flags().BoolVar(&noEarlyStop, "no-early-stop", false, "scan the full unit budget even after verification")
	verifyCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown records")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh extractions)")

	// LLM flags
	verifyCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	verifyCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runVerify(cmd *cobra.Command, args []string) error {
	person := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyVerifyFlags(cfg)
	if err := resolveAPIKey(cfg); err != nil {
		return err
	}

	store, err := corpus.LoadStore(corpusPath)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	if len(store.ForPerson(person)) == 0 {
		return fmt.Errorf("no corpus chunks for %q; run 'bioverify ingest' first", person)
	}

	p, err := pipeline.NewPipeline(cfg, store)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	record, err := p.VerifyPerson(ctx, person)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	slug := pipeline.SlugifyPerson(person)
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)

	jsonPath := filepath.Join(outputDir, slug+".json")
	if err := renderer.RenderJSON(record, jsonPath); err != nil {
		return fmt.Errorf("render JSON: %w", err)
	}
	mdPath := filepath.Join(outputDir, slug+".md")
	if err := renderer.RenderMarkdown(record, mdPath); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", jsonPath)
		fmt.Fprintf(os.Stderr, "Wrote %s\n", mdPath)
	}

	renderer.RenderSummary(record)
	return nil
}

func applyVerifyFlags(cfg *model.Config) {
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if minSources > 0 {
		cfg.Verification.MinIndependentSources = minSources
	}
	if maxUnits > 0 {
		cfg.Verification.MaxUnitsToScan = maxUnits
	}
	if noEarlyStop {
		cfg.Verification.EarlyStopOnVerified = false
	}
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Output.IncludeFooter = !noFooter
}
