package imagegen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fluxbridge/core"
	"fluxbridge/logging"
)

// Result is the single JSON document written to stdout for one invocation.
// Exactly one of the success/error shapes is produced; the app switches on
// the success flag.
type Result struct {
	Success bool `json:"success"`
	// ImageData is the base64-encoded PNG (success only)
	ImageData string `json:"image_data,omitempty"`
	// ThumbnailData is an optional downscaled preview for gallery views
	ThumbnailData string    `json:"thumbnail_data,omitempty"`
	Metadata      *Metadata `json:"metadata,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// WriteResult serializes a Result to w as one JSON document.
func WriteResult(w io.Writer, result Result) error {
	return json.NewEncoder(w).Encode(result)
}

// GenerationJournal receives the terminal record of each generation run.
type GenerationJournal interface {
	RecordGeneration(id, model string, success bool, detail string, duration time.Duration)
}

// Generator orchestrates one generation run end to end: pick a backend,
// load the model, generate, encode. Like the download supervisor it never
// lets a fault escape — every failure becomes a well-formed Result.
type Generator struct {
	runner Runner
	cfg    *core.Config
	logger *logging.Logger

	// Journal is optional; nil disables history recording
	Journal GenerationJournal
}

// NewGenerator creates a generator around an explicit runner.
func NewGenerator(runner Runner, cfg *core.Config, logger *logging.Logger) (*Generator, error) {
	if runner == nil {
		return nil, fmt.Errorf("imagegen: runner cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("imagegen: config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("imagegen: logger cannot be nil")
	}
	return &Generator{runner: runner, cfg: cfg, logger: logger.Named("generator")}, nil
}

// NewGeneratorFromConfig creates a Generator with automatic backend
// selection:
//  1. The local mflux tool when it is installed (the normal case).
//  2. The OpenAI fallback when an API key is configured.
//
// Returns an error only when no backend can serve at all.
func NewGeneratorFromConfig(ctx context.Context, cfg *core.Config, logger *logging.Logger) (*Generator, error) {
	local := NewMfluxRunner(cfg.GeneratorCommand, logger)
	if err := local.Load(ctx, DefaultModel, cfg.Quantize); err == nil {
		return NewGenerator(local, cfg, logger)
	} else {
		logger.Warn("local runner unavailable", zap.Error(err))
	}

	if cfg.OpenAIAPIKey != "" {
		fallback, err := NewOpenAIRunner(cfg.OpenAIAPIKey, logger)
		if err != nil {
			return nil, err
		}
		return NewGenerator(fallback, cfg, logger)
	}

	return nil, fmt.Errorf("imagegen: no generation backend available: install mflux or configure an API key")
}

// Generate runs one request to a terminal Result. Errors are folded into
// the Result rather than returned, so the caller always has a document to
// write.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	jobID := uuid.New().String()
	start := time.Now()
	req.ApplyDefaults()

	result := g.generate(ctx, req, start)

	detail := result.Error
	if g.Journal != nil {
		g.Journal.RecordGeneration(jobID, req.Model, result.Success, detail, time.Since(start))
	}
	return result
}

func (g *Generator) generate(ctx context.Context, req Request, start time.Time) Result {
	if err := req.Validate(); err != nil {
		g.logger.Warn("invalid generation request", zap.Error(err))
		return Result{Success: false, Error: err.Error()}
	}

	if g.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.GenerateTimeout)
		defer cancel()
	}

	if err := g.runner.Load(ctx, req.Model, g.cfg.Quantize); err != nil {
		g.logger.Error("model load failed", zap.String("model", req.Model), zap.Error(err))
		return Result{Success: false, Error: fmt.Sprintf("Failed to load model: %v", err)}
	}

	img, err := g.runner.Generate(ctx, req)
	if err != nil {
		g.logger.Error("generation failed", zap.Error(err))
		return Result{Success: false, Error: fmt.Sprintf("Image generation failed: %v", err)}
	}
	elapsed := time.Since(start)

	imageData, err := EncodeBase64PNG(img)
	if err != nil {
		g.logger.Error("image encoding failed", zap.Error(err))
		return Result{Success: false, Error: fmt.Sprintf("Image generation failed: %v", err)}
	}

	result := Result{
		Success:   true,
		ImageData: imageData,
		Metadata: &Metadata{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			Model:          req.Model,
			Steps:          req.Steps,
			Guidance:       req.Guidance,
			Seed:           req.Seed,
			Width:          req.Width,
			Height:         req.Height,
			GenerationTime: elapsed.Seconds(),
			Timestamp:      time.Now().Unix(),
			Backend:        g.runner.Name(),
		},
	}

	if g.cfg.ThumbnailSize > 0 {
		if thumb, err := EncodeBase64PNG(Thumbnail(img, g.cfg.ThumbnailSize)); err == nil {
			result.ThumbnailData = thumb
		} else {
			// A missing preview is not worth failing a finished generation
			g.logger.Warn("thumbnail encoding failed", zap.Error(err))
		}
	}

	g.logger.Info("generation complete",
		zap.String("model", req.Model),
		zap.String("backend", g.runner.Name()),
		zap.Duration("elapsed", elapsed))
	return result
}
