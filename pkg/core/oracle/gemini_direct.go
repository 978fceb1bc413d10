package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiDirectProvider holds a long-lived client from the legacy Gemini SDK.
// Useful for batch runs where client reuse across many calls matters.
type GeminiDirectProvider struct {
	modelName string
	client    *genai.Client
}

var _ Provider = (*GeminiDirectProvider)(nil)

// NewGeminiDirectProvider creates a provider with a persistent client.
func NewGeminiDirectProvider(ctx context.Context, modelName string) (*GeminiDirectProvider, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	return &GeminiDirectProvider{
		modelName: modelName,
		client:    client,
	}, nil
}

func (p *GeminiDirectProvider) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	model := p.client.GenerativeModel(p.modelName)
	model.SetTemperature(0.1)

	fullPrompt := userPrompt
	if systemPrompt != "" {
		fullPrompt = fmt.Sprintf("%s\n\nTask: %s", systemPrompt, userPrompt)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

// Close releases the underlying client.
func (p *GeminiDirectProvider) Close() error {
	return p.client.Close()
}
