/*
generator.go - Text-generation collaborator

PURPOSE:
  Narrow interface over an external language model used to phrase advisory
  text. Callers treat every failure as Unavailable and fall back to the
  deterministic advisory; the generator never decides affordability.
*/
package insight

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pesoplan/finance-engine/ledger"
)

// Generator produces free text from a prompt. Implementations wrap
// connectivity and quota failures in ledger.ErrUnavailable.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator backs Generator with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiGenerator dials the Gemini API. modelName may be empty, in which
// case gemini-1.5-flash is used.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not set: %w", ledger.ErrInvalidInput)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w: %v", ledger.ErrUnavailable, err)
	}
	return &GeminiGenerator{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w: %v", ledger.ErrUnavailable, err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates: %w", ledger.ErrUnavailable)
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
