package interpreter

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model used for interpretation.
const DefaultModelName = "gemini-2.5-flash"

// Generator sends a prompt plus the user's text to an LLM and returns its
// text answer.
type Generator interface {
	Generate(ctx context.Context, prompt, userText string) (string, error)
}

// GeminiClient is the Generator backed by the Gemini API. A single client is
// shared by all messages; genai clients are safe for concurrent use.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client authenticated with apiKey.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		model = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClient: create genai client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Model returns the model name used for requests.
func (g *GeminiClient) Model() string {
	return g.model
}

// Generate asks the model for a JSON answer.
func (g *GeminiClient) Generate(ctx context.Context, prompt, userText string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{Text: userText},
			},
		},
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("GeminiClient.Generate: generate content: %w", err)
	}

	return resp.Text(), nil
}
