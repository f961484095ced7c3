package narrative

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is used when no model name is configured
const DefaultModel = "gemini-2.0-flash"

// Completer sends a prompt to a language model and returns its text reply
type Completer interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// GeminiCompleter implements Completer on top of the Gemini API
type GeminiCompleter struct {
	apiKey      string
	model       string
	temperature float32
}

var _ Completer = (*GeminiCompleter)(nil)

// NewGeminiCompleter returns a completer for the given key and model
func NewGeminiCompleter(apiKey, model string, temperature float64) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiCompleter{
		apiKey:      apiKey,
		model:       model,
		temperature: float32(temperature),
	}, nil
}

// Model returns the configured model name
func (g *GeminiCompleter) Model() string {
	return g.model
}

// Complete requests a JSON reply from Gemini
func (g *GeminiCompleter) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create GenAI client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: systemPrompt},
			},
		}
	}

	result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}
