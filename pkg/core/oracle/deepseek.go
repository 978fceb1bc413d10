package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// DeepSeekProvider implements Provider against DeepSeek's chat completions API.
type DeepSeekProvider struct {
	Model string
}

var _ Provider = (*DeepSeekProvider)(nil)

type deepSeekRequest struct {
	Messages       []deepSeekMessage  `json:"messages"`
	Model          string             `json:"model"`
	MaxTokens      int                `json:"max_tokens"`
	ResponseFormat deepSeekRespFormat `json:"response_format"`
	Stream         bool               `json:"stream"`
	Temperature    float64            `json:"temperature"`
	TopP           float64            `json:"top_p"`
}

type deepSeekMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type deepSeekRespFormat struct {
	Type string `json:"type"`
}

type deepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *DeepSeekProvider) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	apiKey := os.Getenv("DEEPSEEK_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("DEEPSEEK_API_KEY environment variable not set")
	}

	model := p.Model
	if model == "" {
		model = "deepseek-chat"
	}

	reqBody := deepSeekRequest{
		Messages: []deepSeekMessage{
			{Content: systemPrompt, Role: "system"},
			{Content: userPrompt, Role: "user"},
		},
		Model:          model,
		MaxTokens:      4096,
		ResponseFormat: deepSeekRespFormat{Type: "text"},
		Stream:         false,
		Temperature:    0.1,
		TopP:           1.0,
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("deepseek marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.deepseek.com/chat/completions", bytes.NewBuffer(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("deepseek request create failed: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepseek api call failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("deepseek read body failed: %w", err)
	}

	if res.StatusCode != 200 {
		return "", fmt.Errorf("deepseek api error: status=%d body=%s", res.StatusCode, string(body))
	}

	var response deepSeekResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("deepseek unmarshal failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("deepseek returned no choices")
	}

	return response.Choices[0].Message.Content, nil
}
