// Package imagegen is the generation half of the bridge: it delegates image
// synthesis to a local diffusion runner (mflux) or a cloud fallback and
// packages the result as a single JSON document on stdout. No inference
// happens here — the package is orchestration, encoding, and the stdio
// contract.
package imagegen

import (
	"context"
	"fmt"
	"image"
	"math/rand"
)

// Default generation parameters, matching what the app sends when the user
// leaves a field untouched.
const (
	DefaultModel    = "schnell"
	DefaultSteps    = 4
	DefaultGuidance = 7.5
	DefaultWidth    = 512
	DefaultHeight   = 512
	DefaultPrompt   = "A beautiful landscape"
)

// Request describes one image generation run.
type Request struct {
	// Prompt is the text description of the desired image
	Prompt string
	// NegativePrompt lists things to avoid (optional)
	NegativePrompt string
	// Model selects the variant ("schnell" or "dev")
	Model string
	// Steps is the number of denoising steps
	Steps int
	// Guidance is how closely to follow the prompt
	Guidance float64
	// Seed drives deterministic generation; <= 0 means pick one at random
	Seed int64
	// Width and Height are the output dimensions in pixels
	Width  int
	Height int
}

// ApplyDefaults fills zero-valued fields and assigns a random seed when none
// was given. The chosen seed is written back so it lands in the metadata —
// the app resubmits it to reproduce a liked image.
func (r *Request) ApplyDefaults() {
	if r.Prompt == "" {
		r.Prompt = DefaultPrompt
	}
	if r.Model == "" {
		r.Model = DefaultModel
	}
	if r.Steps <= 0 {
		r.Steps = DefaultSteps
	}
	if r.Guidance <= 0 {
		r.Guidance = DefaultGuidance
	}
	if r.Width <= 0 {
		r.Width = DefaultWidth
	}
	if r.Height <= 0 {
		r.Height = DefaultHeight
	}
	if r.Seed <= 0 {
		r.Seed = rand.Int63n(1<<31-2) + 1
	}
}

// Validate rejects requests no backend could execute.
func (r *Request) Validate() error {
	if r.Width%8 != 0 || r.Height%8 != 0 {
		return fmt.Errorf("imagegen: dimensions must be divisible by 8, got %dx%d", r.Width, r.Height)
	}
	if r.Steps > 100 {
		return fmt.Errorf("imagegen: steps must be <= 100, got %d", r.Steps)
	}
	return nil
}

// Metadata is echoed back to the app alongside the image. JSON keys match
// the contract the app already parses.
type Metadata struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Model          string  `json:"model"`
	Steps          int     `json:"steps"`
	Guidance       float64 `json:"guidance_scale"`
	Seed           int64   `json:"seed"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	GenerationTime float64 `json:"generation_time"`
	Timestamp      int64   `json:"timestamp"`
	Backend        string  `json:"backend"`
}

// Runner is the contract with an image generation backend. Implementations
// delegate the actual diffusion work elsewhere: a subprocess for the local
// runner, an HTTP API for the cloud fallback.
type Runner interface {
	// Name identifies the backend in metadata and logs.
	Name() string

	// Load prepares the named model (with the given quantization level,
	// 0 = none). Returns an error if the backend cannot serve requests.
	Load(ctx context.Context, model string, quantize int) error

	// Generate produces one image for the request. The request has already
	// had defaults applied and been validated.
	Generate(ctx context.Context, req Request) (image.Image, error)
}
