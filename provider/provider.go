package provider

import (
	"context"
	"errors"

	"github.com/wncfund/proposalkit/config"
	openai_provider "github.com/wncfund/proposalkit/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// Message is one entry in a chat-completion conversation.
type Message = openai_provider.Message

// Provider is the interface that all LLM implementations must satisfy.
// Implementations must propagate failures to the caller: a timed-out or
// errored call is never substituted with fabricated text.
type Provider interface {
	CreateCompletion(ctx context.Context, messages []Message, jsonMode bool) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates a new LLM client based on the provided configuration.
func NewProvider(client Client, cfg config.OpenAIConfig) (Provider, error) {
	switch client {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		return openai_provider.NewOpenAIClient(
			cfg.APIKey,
			cfg.CompletionModel,
			cfg.EmbeddingModel,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
			cfg.MaxRetries,
		), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
