package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions API
type OpenAIProvider struct {
	client    *openai.Client
	name      string
	model     string
	maxTokens int
}

// OpenAIOptions configures an OpenAIProvider
type OpenAIOptions struct {
	Name      string // reported by Name(); defaults to "openai"
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// NewOpenAIProvider creates a provider for the chat completions API at opts.BaseURL
func NewOpenAIProvider(opts OpenAIOptions) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required for %s", nameOr(opts.Name))
	}

	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}

	model := opts.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		name:      nameOr(opts.Name),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

// Model returns the chat model requests are sent to
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Verify sends the verification prompt and parses the reply. The caller's
// context bounds the call.
func (p *OpenAIProvider) Verify(ctx context.Context, req VerifyRequest) (*Suggestion, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a careful fact-checking assistant. Only cite sources you are confident exist.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(req),
			},
		},
		MaxTokens:   p.maxTokens,
		Temperature: 0.2,
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.name)
	}

	suggestion := ParseReply(strings.TrimSpace(resp.Choices[0].Message.Content))
	suggestion.Model = p.model
	suggestion.TokensUsed = resp.Usage.TotalTokens
	return &suggestion, nil
}

func nameOr(name string) string {
	if name == "" {
		return "openai"
	}
	return name
}
