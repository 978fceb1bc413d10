package oracle

import (
	"context"
	"fmt"
	"strings"
)

// NewProvider resolves a provider by name. Empty name defaults to gemini.
// "gemini-direct" uses the legacy SDK with a persistent client.
func NewProvider(name string, model string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gemini":
		return &GeminiProvider{Model: model}, nil
	case "gemini-direct":
		return NewGeminiDirectProvider(context.Background(), model)
	case "deepseek":
		return &DeepSeekProvider{Model: model}, nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", name)
	}
}
