package generate

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitCompleter implements Completer on top of a Genkit model. The model
// is addressed by its provider-qualified name (e.g.
// "googleai/gemini-2.5-flash").
type GenkitCompleter struct {
	g           *genkit.Genkit
	modelName   string
	temperature float64
	maxTokens   int
}

// NewGenkitCompleter creates a Completer backed by genkit.Generate.
func NewGenkitCompleter(g *genkit.Genkit, modelName string, temperature float64, maxTokens int) *GenkitCompleter {
	return &GenkitCompleter{
		g:           g,
		modelName:   modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Complete sends one prompt and returns the model's text.
func (c *GenkitCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithPrompt("%s", prompt),
		ai.WithConfig(map[string]any{
			"temperature":     c.temperature,
			"maxOutputTokens": c.maxTokens,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}
	return resp.Text(), nil
}
