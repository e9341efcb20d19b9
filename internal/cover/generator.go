package cover

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bookshelf/pkg/ai"
	"bookshelf/pkg/domain"
)

// ImageFactory builds an image generator for a user-supplied API key.
type ImageFactory func(apiKey string) ai.ImageGenerator

// OpenAIImages returns an ImageFactory for the OpenAI images API at baseURL.
func OpenAIImages(baseURL string) ImageFactory {
	hc := &http.Client{}
	return func(apiKey string) ai.ImageGenerator {
		return ai.NewOpenAIImageGenerator(baseURL, apiKey, hc)
	}
}

// Request is one cover generation.
type Request struct {
	APIKey  string
	Title   string
	Genre   string
	Summary string
	// Prompt overrides the default template when set.
	Prompt  string
	Options Options
}

// Result is a generated candidate cover.
type Result struct {
	URL    string
	Prompt string
}

// Generator produces cover images.
type Generator struct {
	images  ImageFactory
	refiner ai.TextGenerator
	logger  *slog.Logger
}

// NewGenerator builds a Generator. refiner may be nil.
func NewGenerator(images ImageFactory, refiner ai.TextGenerator, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{images: images, refiner: refiner, logger: logger}
}

// Generate validates req, builds the prompt and calls the image API once.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		return Result{}, domain.Validation("please enter an OpenAI API key")
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Summary) == "" {
		return Result{}, domain.Validation("please enter at least a title or a summary")
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = g.refine(ctx, BuildPrompt(req.Title, req.Genre, req.Summary))
	}
	opts := req.Options.WithDefaults()

	url, err := g.images(apiKey).GenerateImage(ctx, ai.ImageRequest{
		Model:   opts.Model,
		Prompt:  prompt,
		Size:    opts.Size,
		Quality: opts.Quality,
		Style:   opts.Style,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, externalFailure(err)
	}
	g.logger.Info("cover generated", "model", opts.Model, "size", opts.Size)
	return Result{URL: url, Prompt: prompt}, nil
}

func (g *Generator) refine(ctx context.Context, prompt string) string {
	if g.refiner == nil {
		return prompt
	}
	refined, err := g.refiner.GenerateText(ctx, refineSystemPrompt, prompt)
	if err != nil || strings.TrimSpace(refined) == "" {
		g.logger.Warn("cover prompt refinement failed, using template", "err", err)
		return prompt
	}
	return strings.TrimSpace(refined)
}

func externalFailure(err error) *domain.Error {
	msg := "image generation failed"
	var apiErr *ai.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		msg = apiErr.Message
	}
	return &domain.Error{Kind: domain.KindExternalService, Message: msg, Err: err}
}
