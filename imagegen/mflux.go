package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"fluxbridge/logging"
)

// MfluxRunner delegates generation to the local mflux command-line tool.
// The tool loads the model, runs the diffusion sampling, and writes a PNG;
// this runner only builds the invocation, supervises the subprocess, and
// reads the result back.
type MfluxRunner struct {
	// command is the invocation prefix (default: mflux-generate)
	command []string
	logger  *logging.Logger

	// quantize recorded by Load, applied per generation
	quantize int
	model    string
}

// NewMfluxRunner creates a runner for the given command prefix.
func NewMfluxRunner(command []string, logger *logging.Logger) *MfluxRunner {
	if len(command) == 0 {
		command = []string{"mflux-generate"}
	}
	return &MfluxRunner{
		command: command,
		logger:  logger.Named("mflux"),
	}
}

// Name implements Runner.
func (r *MfluxRunner) Name() string { return "mflux" }

// Load implements Runner. mflux loads models lazily per invocation, so Load
// only verifies the tool exists and records the parameters.
func (r *MfluxRunner) Load(ctx context.Context, model string, quantize int) error {
	if _, err := exec.LookPath(r.command[0]); err != nil {
		return fmt.Errorf("imagegen: mflux tool not available: %w", err)
	}
	r.model = model
	r.quantize = quantize
	r.logger.Info("local runner ready",
		zap.String("tool", r.command[0]),
		zap.String("model", model),
		zap.Int("quantize", quantize))
	return nil
}

// Generate implements Runner: run the tool against a temporary output file
// and decode the PNG it writes. The subprocess inherits ctx, so the
// generation timeout and Ctrl+C both kill it.
func (r *MfluxRunner) Generate(ctx context.Context, req Request) (image.Image, error) {
	outDir, err := os.MkdirTemp("", "fluxbridge-gen-")
	if err != nil {
		return nil, fmt.Errorf("imagegen: failed to create output directory: %w", err)
	}
	defer os.RemoveAll(outDir)
	outPath := filepath.Join(outDir, "image.png")

	args := append(append([]string{}, r.command[1:]...),
		"--model", req.Model,
		"--prompt", req.Prompt,
		"--steps", strconv.Itoa(req.Steps),
		"--guidance", strconv.FormatFloat(req.Guidance, 'f', -1, 64),
		"--seed", strconv.FormatInt(req.Seed, 10),
		"--width", strconv.Itoa(req.Width),
		"--height", strconv.Itoa(req.Height),
		"--output", outPath,
	)
	if r.quantize > 0 {
		args = append(args, "--quantize", strconv.Itoa(r.quantize))
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command[0], args...)
	cmd.Stderr = &stderr

	r.logger.Info("starting generation",
		zap.String("model", req.Model),
		zap.Int("steps", req.Steps),
		zap.Int64("seed", req.Seed),
		zap.String("size", fmt.Sprintf("%dx%d", req.Width, req.Height)))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("imagegen: generation canceled: %w", ctx.Err())
		}
		r.logger.Error("mflux exited nonzero",
			zap.Error(err),
			zap.String("stderr_tail", stderrTail(stderr.String())))
		return nil, fmt.Errorf("imagegen: generation failed: %w", err)
	}

	file, err := os.Open(outPath)
	if err != nil {
		return nil, fmt.Errorf("imagegen: generated image missing: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("imagegen: failed to decode generated image: %w", err)
	}
	return img, nil
}

func stderrTail(s string) string {
	const n = 512
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
