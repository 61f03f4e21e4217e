package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"fluxbridge/logging"
)

// OpenAIRunner is the cloud fallback backend, used when the local mflux
// tool is not installed but an API key is configured. The app still gets an
// image for its prompt instead of a hard failure; the metadata marks the
// backend so the result is never mistaken for a local generation.
//
// DALL-E ignores steps/guidance/seed — only prompt and size carry over, and
// size snaps to the nearest supported square.
type OpenAIRunner struct {
	client *openai.Client
	logger *logging.Logger
	model  string
}

// NewOpenAIRunner creates the fallback runner.
func NewOpenAIRunner(apiKey string, logger *logging.Logger) (*OpenAIRunner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("imagegen: OpenAI API key is required for the cloud fallback")
	}
	return &OpenAIRunner{
		client: openai.NewClient(apiKey),
		logger: logger.Named("openai"),
		model:  openai.CreateImageModelDallE3,
	}, nil
}

// Name implements Runner.
func (r *OpenAIRunner) Name() string { return "openai" }

// Load implements Runner. There is nothing to load; the local model
// identifier has no meaning to the API.
func (r *OpenAIRunner) Load(ctx context.Context, model string, quantize int) error {
	return nil
}

// Generate implements Runner via the images API with a base64 response, so
// no temporary URL download is needed.
func (r *OpenAIRunner) Generate(ctx context.Context, req Request) (image.Image, error) {
	size := nearestAPISize(req.Width, req.Height)
	r.logger.Info("starting cloud generation",
		zap.String("model", r.model),
		zap.String("size", size))

	resp, err := r.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          r.model,
		N:              1,
		Size:           size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("imagegen: cloud generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("imagegen: cloud generation returned no images")
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("imagegen: failed to decode cloud image payload: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("imagegen: failed to decode cloud image: %w", err)
	}
	return img, nil
}

// nearestAPISize maps requested dimensions onto a supported DALL-E 3 size.
func nearestAPISize(width, height int) string {
	switch {
	case width > height:
		return openai.CreateImageSize1792x1024
	case height > width:
		return openai.CreateImageSize1024x1792
	default:
		return openai.CreateImageSize1024x1024
	}
}
