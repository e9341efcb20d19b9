package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// OpenAIImageGenerator calls the OpenAI images API and returns the hosted URL.
// The HTTP client has no timeout; callers bound the call with ctx.
type OpenAIImageGenerator struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIImageGenerator builds an image generator. An empty baseURL uses
// the public OpenAI endpoint.
func NewOpenAIImageGenerator(baseURL, apiKey string, hc *http.Client) *OpenAIImageGenerator {
	if hc == nil {
		hc = &http.Client{}
	}
	return &OpenAIImageGenerator{
		baseURL:    normalizeBaseURL(baseURL),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: hc,
	}
}

type oaiImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	Style          string `json:"style"`
	ResponseFormat string `json:"response_format"`
}

type oaiImageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateImage implements ImageGenerator.
func (g *OpenAIImageGenerator) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("openai api key required")
	}
	var resp oaiImageResponse
	err := postOpenAI(ctx, g.httpClient, "openai", g.baseURL+"/images/generations", g.apiKey, oaiImageRequest{
		Model:          req.Model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           req.Size,
		Quality:        req.Quality,
		Style:          req.Style,
		ResponseFormat: "url",
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || strings.TrimSpace(resp.Data[0].URL) == "" {
		return "", fmt.Errorf("openai image response missing url")
	}
	return resp.Data[0].URL, nil
}
