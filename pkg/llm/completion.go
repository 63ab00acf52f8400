package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/time/rate"

	"github.com/BuiltByCharitha/Research-Paper-Assistant-System/internal/models"
)

// ErrTransient marks completion failures that the caller may retry.
// ErrPermanent marks failures that retrying will not fix.
var (
	ErrTransient = errors.New("transient completion failure")
	ErrPermanent = errors.New("permanent completion failure")
)

type GatewayConfig struct {
	BaseURL     string // Ollama server URL
	Temperature float64
	MaxTokens   int
	RateLimit   float64 // completion calls per second; 0 disables limiting
}

// Gateway forwards prompts to the Ollama completion service. The requested
// model is checked against the supported set before any network call.
type Gateway struct {
	config  GatewayConfig
	clients map[models.Model]*ollama.LLM
	limiter *rate.Limiter
}

func NewGatewayWithConfig(config GatewayConfig) (*Gateway, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Temperature <= 0 || config.Temperature > 1 {
		config.Temperature = 0.7
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 2000
	}

	clients := make(map[models.Model]*ollama.LLM, len(models.SupportedModels()))
	for _, m := range models.SupportedModels() {
		client, err := ollama.New(
			ollama.WithModel(string(m)),
			ollama.WithServerURL(config.BaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize completion client for %s: %w", m, err)
		}
		clients[m] = client
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &Gateway{config: config, clients: clients, limiter: limiter}, nil
}

// Complete sends prompt to the given model and returns its response
// verbatim. Fails fast with models.ErrInvalidModel for an unsupported
// model; service failures are classified as ErrTransient or ErrPermanent.
func (g *Gateway) Complete(ctx context.Context, prompt string, model models.Model) (string, error) {
	client, ok := g.clients[model]
	if !ok {
		return "", fmt.Errorf("%w: %q (choose from %v)", models.ErrInvalidModel, model, models.SupportedModels())
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrTransient, err)
		}
	}

	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	resp, err := client.GenerateContent(ctx, content,
		llms.WithTemperature(g.config.Temperature),
		llms.WithMaxTokens(g.config.MaxTokens))
	if err != nil {
		return "", classify(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from model %s", ErrPermanent, model)
	}
	return resp.Choices[0].Content, nil
}

// classify splits completion failures into retryable and terminal ones.
// Timeouts and interrupted connections are worth resubmitting; everything
// else (bad request, missing model, malformed response) is not.
func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrTransient, err)
	case errors.As(err, &netErr):
		return fmt.Errorf("%w: %v", ErrTransient, err)
	default:
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
}
