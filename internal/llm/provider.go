// Package llm provides a provider-agnostic client for the generation
// backends the workbook pipeline extracts from.
//
// Two transports are supported:
// - openai: OpenAI-compatible /v1/chat/completions endpoints
// - ollama: a local Ollama /api/generate endpoint
//
// Every call is a synchronous round trip bounded by the configured
// request timeout. The client returns the backend's raw text and makes
// no attempt to validate its content — that is the parser's and
// validator's job.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrUnavailable wraps transport-level failures (connection refused,
// DNS, timeout). Callers can match it with errors.Is.
var ErrUnavailable = errors.New("backend unavailable")

// ProtocolError reports a non-success HTTP status from the backend.
type ProtocolError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Provider is the interface for generation backends.
type Provider interface {
	// Complete sends a prompt and returns the raw response text.
	Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error)
	// Name returns a human-readable provider name (e.g., "openai/gpt-4o").
	Name() string
}

// CompletionOpts configures a single completion request.
type CompletionOpts struct {
	MaxTokens   int     // max tokens to generate (0 = provider default)
	Temperature float64 // 0.0-2.0
	Format      string  // "json" for structured output, empty for plain text
	System      string  // system prompt (optional)
}

// Config holds provider configuration.
type Config struct {
	Provider    string // "openai", "ollama", "custom"
	Model       string // e.g., "gpt-4o", "deepseek-r1:8b"
	Endpoint    string // full API URL (empty = provider default)
	APIKey      string // API key (empty = read from env)
	TimeoutSecs int    // per-request timeout (default: 60)
}

// DefaultTimeoutSecs bounds a single backend round trip. A hung backend
// otherwise blocks the entire run.
const DefaultTimeoutSecs = 60

// NewProvider creates a Provider from the given config.
func NewProvider(cfg Config) (Provider, error) {
	timeout := cfg.TimeoutSecs
	if timeout <= 0 {
		timeout = DefaultTimeoutSecs
	}

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY env var")
		}
		model := cfg.Model
		if model == "" {
			model = "gpt-4o"
		}
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "https://api.openai.com/v1/chat/completions"
		}
		return newOpenAIProvider(model, endpoint, key, timeout), nil

	case "ollama":
		model := cfg.Model
		if model == "" {
			model = "llama3"
		}
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "http://localhost:11434/api/generate"
		}
		// No API key needed for Ollama.
		return newOllamaProvider(model, endpoint, timeout), nil

	case "custom":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = os.Getenv("WORKBOOK_LLM_ENDPOINT")
		}
		if endpoint == "" {
			return nil, fmt.Errorf("custom provider requires an endpoint (WORKBOOK_LLM_ENDPOINT)")
		}
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("WORKBOOK_LLM_API_KEY")
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("custom provider requires a model name")
		}
		return newOpenAIProvider(cfg.Model, endpoint, key, timeout), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: openai, ollama, custom)", cfg.Provider)
	}
}

// ParseLLMFlag parses a --llm flag value into a Config.
// Format: "provider/model", e.g. "openai/gpt-4o", "ollama/deepseek-r1:8b".
// Model names may themselves contain slashes and colons.
func ParseLLMFlag(flag string) (Config, error) {
	if flag == "" {
		return Config{Provider: "openai", Model: "gpt-4o"}, nil
	}

	slashIdx := strings.Index(flag, "/")
	if slashIdx == -1 {
		return Config{}, fmt.Errorf("invalid --llm format %q: expected provider/model (e.g., openai/gpt-4o)", flag)
	}

	provider := strings.ToLower(flag[:slashIdx])
	model := flag[slashIdx+1:]
	if provider == "" {
		return Config{}, fmt.Errorf("empty provider in --llm flag: %q", flag)
	}
	if model == "" {
		return Config{}, fmt.Errorf("empty model in --llm flag: %q", flag)
	}

	switch provider {
	case "openai", "ollama", "custom":
		return Config{Provider: provider, Model: model}, nil
	default:
		return Config{}, fmt.Errorf("unknown provider %q in --llm flag (supported: openai, ollama, custom)", provider)
	}
}
