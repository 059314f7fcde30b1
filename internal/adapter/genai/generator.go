// Package genai implements the text generation port against the Gemini API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/deepscout/deepscout/internal/config"
	"github.com/deepscout/deepscout/internal/port/llm"
	"github.com/deepscout/deepscout/internal/resilience"
)

// Generator calls the Gemini generateContent API.
type Generator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	breaker *resilience.Breaker
}

var _ llm.Generator = (*Generator)(nil)

// New creates a Gemini-backed generator.
func New(ctx context.Context, cfg config.Gemini) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &Generator{
		client:  client,
		model:   model,
		timeout: cfg.Timeout,
	}, nil
}

// SetBreaker attaches a circuit breaker to all generation calls.
func (g *Generator) SetBreaker(b *resilience.Breaker) {
	g.breaker = b
}

// Generate produces text for the given prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var text string
	call := func() error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			return classify(err)
		}
		text = strings.TrimSpace(resp.Text())
		if text == "" {
			return fmt.Errorf("empty response: %w", llm.ErrGeneration)
		}
		return nil
	}

	if g.breaker != nil {
		if err := g.breaker.Execute(call); err != nil {
			if errors.Is(err, resilience.ErrCircuitOpen) {
				return "", fmt.Errorf("gemini: %v: %w", err, llm.ErrGeneration)
			}
			return "", err
		}
		return text, nil
	}

	if err := call(); err != nil {
		return "", err
	}
	return text, nil
}

// classify maps a provider error onto the port's error taxonomy.
// The API reports quota exhaustion as HTTP 429 / RESOURCE_EXHAUSTED;
// the "quota" substring match covers providers proxying Gemini that
// flatten the status into the message.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return fmt.Errorf("gemini: %s: %w", apiErr.Message, llm.ErrQuotaExceeded)
		}
		return fmt.Errorf("gemini: %s: %w", apiErr.Message, llm.ErrGeneration)
	}
	if strings.Contains(strings.ToLower(err.Error()), "quota") {
		return fmt.Errorf("gemini: %v: %w", err, llm.ErrQuotaExceeded)
	}
	return fmt.Errorf("gemini: %v: %w", err, llm.ErrGeneration)
}
