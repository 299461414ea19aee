package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/bisa-app/factcheck/internal/cache"
	"github.com/bisa-app/factcheck/internal/model"
)

// Default endpoints of OpenAI-compatible backends
const (
	groqBaseURL   = "https://api.groq.com/openai/v1"
	ollamaBaseURL = "http://localhost:11434/v1"
)

// NewProvider creates the configured provider, wrapped in a reply cache when
// one is given. An empty provider name disables AI verification (nil, nil).
func NewProvider(cfg model.LLMConfig, replies cache.Cache) (Provider, error) {
	opts := OpenAIOptions{
		Name:      strings.ToLower(cfg.Provider),
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}

	switch opts.Name {
	case "":
		return nil, nil
	case "openai":
		if opts.APIKey == "" {
			opts.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "groq":
		if opts.APIKey == "" {
			opts.APIKey = os.Getenv("GROQ_API_KEY")
		}
		if opts.BaseURL == "" {
			opts.BaseURL = groqBaseURL
		}
	case "ollama":
		// Ollama ignores the key but the client requires one
		if opts.APIKey == "" {
			opts.APIKey = "ollama"
		}
		if opts.BaseURL == "" {
			opts.BaseURL = ollamaBaseURL
		}
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, groq, ollama)", cfg.Provider)
	}

	provider, err := NewOpenAIProvider(opts)
	if err != nil {
		return nil, err
	}
	if replies == nil {
		return provider, nil
	}
	return NewCachedProvider(provider, provider.Model(), replies, 0), nil
}
