package llm

import (
	"context"
)

// Provider defines the interface for LLM providers used by the extraction
// and retrieval layers.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete runs a single-turn completion (used for evidence extraction)
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Embed returns one embedding vector per input text (used for retrieval)
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for a completion call
type CompletionRequest struct {
	// System is the system prompt (provider-specific placement)
	System string

	// Prompt is the user-turn content
	Prompt string

	// Model overrides the configured model for this call
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls sampling; extraction runs want it near zero
	Temperature float32
}

// CompletionResponse contains the model's raw output
type CompletionResponse struct {
	// Text is the generated completion text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// EmbedModel is the embedding model name
	EmbedModel string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "",
		Model:       "",
		EmbedModel:  "",
		Timeout:     30,
		MaxTokens:   400,
		Temperature: 0,
	}
}
