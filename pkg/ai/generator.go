package ai

import (
	"context"
	"fmt"
	"strings"
)

// TextGenerator generates text from a system prompt and user prompt.
// All LLM providers (Gemini, Ollama, OpenAI-compatible) implement this interface.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ImageGenerator turns a prompt into a hosted image URL.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// ImageRequest describes one image generation.
type ImageRequest struct {
	Model   string
	Prompt  string
	Size    string
	Quality string
	Style   string
}

// APIError is a failure reported by a provider.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
}

// NewTextGenerator builds the TextGenerator for provider.
func NewTextGenerator(provider, baseURL, apiKey, model string) (TextGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai-compat", "openai":
		return NewOpenAICompatGenerator(baseURL, apiKey, model), nil
	case "ollama":
		return NewOllamaGenerator(NewOllamaClient(baseURL), model), nil
	case "gemini":
		client, err := NewGeminiClient(apiKey)
		if err != nil {
			return nil, err
		}
		return NewGeminiGenerator(client, model), nil
	default:
		return nil, fmt.Errorf("unknown text provider: %s", provider)
	}
}
