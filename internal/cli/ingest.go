package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/patterson-s/EliteResearchAgent/internal/cache"
	"github.com/patterson-s/EliteResearchAgent/internal/corpus"
	"github.com/patterson-s/EliteResearchAgent/internal/llm"
	"github.com/patterson-s/EliteResearchAgent/internal/worker"
)

var (
	ingestTimeout time.Duration
	chunkWords    int
	overlapWords  int
	userAgent     string
	httpProxy     string
	httpsProxy    string
	skipEmbed     bool
)

// embedBatchSize bounds how many chunk texts go into one embedding request.
const embedBatchSize = 64

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <person> <urls-file>",
	Short: "Fetch, chunk and embed source pages into the evidence corpus",
	Long: `Ingest builds the local evidence corpus for a person:
- Read source URLs from a file (one per line, # for comments)
- Fetch each page (robots.txt honored, rate-limited per domain)
- Strip markup and split the text into overlapping word chunks
- Embed each chunk so verify can rank evidence by relevance
- Append the chunks to the corpus file

Example:
  bioverify ingest "Jane Example" sources.txt
  bioverify ingest "Jane Example" sources.txt --corpus corpus.json
  bioverify ingest "Jane Example" sources.txt --chunk-words 300 --skip-embed`,
	Args: cobra.ExactArgs(2),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&corpusPath, "corpus", "corpus.json", "path to the chunk corpus file")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "total timeout for ingestion")
	ingestCmd.Flags().IntVar(&chunkWords, "chunk-words", 400, "words per evidence chunk")
	ingestCmd.Flags().IntVar(&overlapWords, "overlap-words", 0, "words of overlap between chunks (0 = chunk-words/8)")
	ingestCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (overrides config)")
	ingestCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	ingestCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	ingestCmd.Flags().BoolVar(&skipEmbed, "skip-embed", false, "store chunks without embeddings (verify will embed lazily)")
	ingestCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")

	// LLM flags (embeddings)
	ingestCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for embeddings (openai, ollama)")
	ingestCmd.Flags().StringVar(&llmModel, "llm-model", "", "embedding model name")
}

func runIngest(cmd *cobra.Command, args []string) error {
	person := args[0]
	urlsFile := args[1]
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.EmbedModel = llmModel
	}
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache

	urls, err := readURLsFromFile(urlsFile)
	if err != nil {
		return fmt.Errorf("read URLs: %w", err)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs in %s", urlsFile)
	}

	var sharedCache cache.Cache
	if cfg.Cache.Enabled {
		sharedCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	// Embedding provider (optional with --skip-embed)
	var provider llm.Provider
	if !skipEmbed {
		if err := resolveAPIKey(cfg); err != nil {
			return err
		}
		provider, err = llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return fmt.Errorf("create LLM provider: %w", err)
		}
		if provider == nil {
			return fmt.Errorf("embedding requires an LLM provider (set llm.provider or pass --skip-embed)")
		}
	}

	store, err := corpus.LoadStore(corpusPath)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	fetcher := corpus.NewFetcher(corpus.FetcherOptions{
		Timeout:    cfg.HTTP.Timeout,
		UserAgent:  cfg.HTTP.UserAgent,
		MaxBytes:   cfg.HTTP.MaxBodyBytes,
		Limiter:    worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		Cache:      sharedCache,
		CacheTTL:   cfg.Cache.DiskTTL,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
	})
	chunker := corpus.NewChunker(chunkWords, overlapWords)

	fmt.Fprintf(os.Stderr, "⚙️  Ingesting %d source(s) for %s...\n", len(urls), person)

	var collected []corpus.Chunk
	fetched := 0
	failed := 0
	for _, pageURL := range urls {
		body, err := fetcher.Fetch(ctx, pageURL)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", pageURL, err)
			continue
		}
		chunks, err := chunker.ChunkHTML(person, pageURL, body)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: chunk: %v\n", pageURL, err)
			continue
		}
		fetched++
		collected = append(collected, chunks...)
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s: %d chunk(s)\n", pageURL, len(chunks))
		}
	}

	if len(collected) == 0 {
		return fmt.Errorf("no chunks produced (%d of %d fetches failed)", failed, len(urls))
	}

	if !skipEmbed {
		fmt.Fprintf(os.Stderr, "⚙️  Embedding %d chunk(s)...\n", len(collected))
		if err := embedChunks(ctx, provider, collected); err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
	}

	store.Add(collected...)
	if err := store.Save(); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "✓ Ingest complete: %d page(s) fetched, %d failed, %d chunk(s) stored\n",
		fetched, failed, len(collected))
	fmt.Fprintf(os.Stderr, "  Corpus: %s (%d chunk(s) total)\n", corpusPath, store.Len())
	return nil
}

// embedChunks fills in chunk embeddings in place, batching requests
func embedChunks(ctx context.Context, provider llm.Provider, chunks []corpus.Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Text)
		}

		vectors, err := provider.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))
		}
		for i := range vectors {
			chunks[start+i].Embedding = vectors[i]
		}
	}
	return nil
}

// readURLsFromFile reads one URL per line, skipping blanks and comments
func readURLsFromFile(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var urls []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return urls, nil
}
