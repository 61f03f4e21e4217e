package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"fluxbridge/core"
	"fluxbridge/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	return logging.NewLoggerWithCore(zaptest.NewLogger(t).Core())
}

func testGenConfig() *core.Config {
	return &core.Config{
		Quantize:        8,
		GenerateTimeout: time.Minute,
		ThumbnailSize:   64,
	}
}

// fakeRunner is a scriptable backend for generator tests.
type fakeRunner struct {
	name    string
	loadErr error
	genErr  error
	img     image.Image

	mu       sync.Mutex
	loaded   []string
	requests []Request
}

func (r *fakeRunner) Name() string { return r.name }

func (r *fakeRunner) Load(ctx context.Context, model string, quantize int) error {
	r.mu.Lock()
	r.loaded = append(r.loaded, model)
	r.mu.Unlock()
	return r.loadErr
}

func (r *fakeRunner) Generate(ctx context.Context, req Request) (image.Image, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	if r.genErr != nil {
		return nil, r.genErr
	}
	return r.img, nil
}

type fakeGenJournal struct {
	mu       sync.Mutex
	id       string
	model    string
	success  bool
	detail   string
	duration time.Duration
	calls    int
}

func (j *fakeGenJournal) RecordGeneration(id, model string, success bool, detail string, duration time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.id, j.model, j.success, j.detail, j.duration = id, model, success, detail, duration
	j.calls++
}

func TestGeneratorSuccess(t *testing.T) {
	runner := &fakeRunner{name: "fake", img: solidImage(512, 512)}
	g, err := NewGenerator(runner, testGenConfig(), testLogger(t))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	result := g.Generate(context.Background(), Request{Prompt: "a lighthouse at dusk", Seed: 42})

	if !result.Success {
		t.Fatalf("result not successful: %s", result.Error)
	}
	if result.ImageData == "" {
		t.Error("missing image data")
	}
	if result.ThumbnailData == "" {
		t.Error("missing thumbnail data")
	}
	if result.Error != "" {
		t.Errorf("error set on success: %q", result.Error)
	}

	md := result.Metadata
	if md == nil {
		t.Fatal("missing metadata")
	}
	if md.Prompt != "a lighthouse at dusk" || md.Model != DefaultModel || md.Seed != 42 {
		t.Errorf("metadata = %+v", md)
	}
	if md.Backend != "fake" {
		t.Errorf("backend = %q, want fake", md.Backend)
	}
	if md.Steps != DefaultSteps || md.Width != DefaultWidth || md.Height != DefaultHeight {
		t.Errorf("defaults not applied: %+v", md)
	}
}

func TestGeneratorFoldsErrorsIntoResult(t *testing.T) {
	tests := []struct {
		name      string
		runner    *fakeRunner
		req       Request
		wantError string
	}{
		{
			name:      "validation failure",
			runner:    &fakeRunner{name: "fake", img: solidImage(8, 8)},
			req:       Request{Width: 500, Height: 512},
			wantError: "divisible by 8",
		},
		{
			name:      "load failure",
			runner:    &fakeRunner{name: "fake", loadErr: errors.New("model files corrupt")},
			wantError: "Failed to load model",
		},
		{
			name:      "generation failure",
			runner:    &fakeRunner{name: "fake", genErr: errors.New("out of memory")},
			wantError: "Image generation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(tt.runner, testGenConfig(), testLogger(t))
			if err != nil {
				t.Fatalf("NewGenerator: %v", err)
			}

			result := g.Generate(context.Background(), tt.req)

			if result.Success {
				t.Fatal("result should not be successful")
			}
			if !strings.Contains(result.Error, tt.wantError) {
				t.Errorf("error = %q, want containing %q", result.Error, tt.wantError)
			}
			if result.ImageData != "" || result.Metadata != nil {
				t.Error("failed result carries success payload")
			}
		})
	}
}

func TestGeneratorJournalsRuns(t *testing.T) {
	runner := &fakeRunner{name: "fake", genErr: errors.New("boom")}
	g, err := NewGenerator(runner, testGenConfig(), testLogger(t))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	journal := &fakeGenJournal{}
	g.Journal = journal

	g.Generate(context.Background(), Request{Model: "dev"})

	journal.mu.Lock()
	defer journal.mu.Unlock()
	if journal.calls != 1 {
		t.Fatalf("journal called %d times, want 1", journal.calls)
	}
	if journal.model != "dev" || journal.success {
		t.Errorf("journaled model=%q success=%v", journal.model, journal.success)
	}
	if journal.id == "" {
		t.Error("journaled run has no ID")
	}
	if !strings.Contains(journal.detail, "boom") {
		t.Errorf("journaled detail = %q", journal.detail)
	}
}

func TestGeneratorThumbnailDisabled(t *testing.T) {
	cfg := testGenConfig()
	cfg.ThumbnailSize = 0
	runner := &fakeRunner{name: "fake", img: solidImage(512, 512)}
	g, err := NewGenerator(runner, cfg, testLogger(t))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	result := g.Generate(context.Background(), Request{})
	if !result.Success {
		t.Fatalf("result not successful: %s", result.Error)
	}
	if result.ThumbnailData != "" {
		t.Error("thumbnail present despite being disabled")
	}
}

func TestNewGeneratorRejectsNilArguments(t *testing.T) {
	cfg := testGenConfig()
	logger := testLogger(t)
	runner := &fakeRunner{name: "fake"}

	if _, err := NewGenerator(nil, cfg, logger); err == nil {
		t.Error("nil runner accepted")
	}
	if _, err := NewGenerator(runner, nil, logger); err == nil {
		t.Error("nil config accepted")
	}
	if _, err := NewGenerator(runner, cfg, nil); err == nil {
		t.Error("nil logger accepted")
	}
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	result := Result{Success: false, Error: "no backend available"}
	if err := WriteResult(&buf, result); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["success"] != false {
		t.Errorf("success = %v", decoded["success"])
	}
	if decoded["error"] != "no backend available" {
		t.Errorf("error = %v", decoded["error"])
	}
	if _, present := decoded["image_data"]; present {
		t.Error("empty image_data should be omitted")
	}
}

func TestMfluxRunnerLoadMissingTool(t *testing.T) {
	runner := NewMfluxRunner([]string{"fluxbridge-test-no-such-tool"}, testLogger(t))
	err := runner.Load(context.Background(), "schnell", 8)
	if err == nil {
		t.Fatal("Load should fail when the tool is not installed")
	}
	if !strings.Contains(err.Error(), "not available") {
		t.Errorf("error = %v", err)
	}
}

func TestNearestAPISize(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{1024, 512, "1792x1024"},
		{512, 1024, "1024x1792"},
		{512, 512, "1024x1024"},
	}
	for _, tt := range tests {
		if got := nearestAPISize(tt.w, tt.h); got != tt.want {
			t.Errorf("nearestAPISize(%d, %d) = %q, want %q", tt.w, tt.h, got, tt.want)
		}
	}
}
