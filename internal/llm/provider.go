package llm

import (
	"context"

	"github.com/trustpipe/trustpipe/internal/model"
)

// Provider defines the interface for inference backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Infer sends a prompt and returns the raw model output.
	// Callers parse, sanitize and clamp the result; raw output is never
	// trusted as a domain value.
	Infer(ctx context.Context, req InferRequest) (*InferResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// InferRequest contains the input for one inference call
type InferRequest struct {
	// System is the system/instruction message
	System string

	// Prompt is the user message. Untrusted content embedded in it must be
	// passed through SanitizeUntrusted first.
	Prompt string

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature; providers default low for deterministic classification
	Temperature float32
}

// InferResponse contains the model's raw output
type InferResponse struct {
	// Content is the raw response text
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds inference provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}
}
