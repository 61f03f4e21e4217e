// Command fluxgen generates one image from a text prompt by delegating to a
// diffusion backend, then writes a single JSON document to stdout:
// {"success": true, "image_data": "<base64 PNG>", "metadata": {...}} or
// {"success": false, "error": "..."}. All diagnostics go to stderr so the
// calling application can parse stdout unconditionally.
//
// Arguments are positional, mirroring the invocation the app was built
// around:
//
//	fluxgen <prompt> [model] [steps] [guidance] [seed] [width] [height]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fluxbridge/core"
	"fluxbridge/history"
	"fluxbridge/imagegen"
	"fluxbridge/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg := core.LoadConfig()

	logger, err := logging.NewLogger(cfg.DevMode, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		return core.ExitCodeError
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var req imagegen.Request
	rootCmd := &cobra.Command{
		Use:           "fluxgen <prompt> [model] [steps] [guidance] [seed] [width] [height]",
		Short:         "Generate an image from a text prompt via a local diffusion backend",
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 || len(args) > 7 {
				return fmt.Errorf("expected 1 to 7 positional arguments, got %d", len(args))
			}
			parsed, err := parseRequest(args)
			if err != nil {
				return err
			}
			req = parsed
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(ctx, cfg, logger, req)
		},
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return core.ExitCodeError
	}
	return core.ExitCodeSuccess
}

// parseRequest maps the positional arguments onto a Request. Unset trailing
// positions stay zero and pick up defaults in ApplyDefaults.
func parseRequest(args []string) (imagegen.Request, error) {
	req := imagegen.Request{Prompt: args[0]}

	parseInt := func(pos int, name string, dst *int) error {
		if len(args) <= pos {
			return nil
		}
		v, err := strconv.Atoi(args[pos])
		if err != nil {
			return fmt.Errorf("invalid %s %q", name, args[pos])
		}
		*dst = v
		return nil
	}

	if len(args) > 1 {
		req.Model = args[1]
	}
	if err := parseInt(2, "steps", &req.Steps); err != nil {
		return req, err
	}
	if len(args) > 3 {
		v, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return req, fmt.Errorf("invalid guidance %q", args[3])
		}
		req.Guidance = v
	}
	if len(args) > 4 {
		v, err := strconv.ParseInt(args[4], 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid seed %q", args[4])
		}
		req.Seed = v
	}
	if err := parseInt(5, "width", &req.Width); err != nil {
		return req, err
	}
	if err := parseInt(6, "height", &req.Height); err != nil {
		return req, err
	}
	return req, nil
}

// resultError signals a non-success generation without printing anything
// further: the JSON result on stdout is the whole story.
type resultError struct{ message string }

func (e *resultError) Error() string { return e.message }

func generate(ctx context.Context, cfg *core.Config, logger *logging.Logger, req imagegen.Request) error {
	generator, err := imagegen.NewGeneratorFromConfig(ctx, cfg, logger)
	if err != nil {
		// Still honor the JSON contract: the app reads stdout first
		writeErr := imagegen.WriteResult(os.Stdout, imagegen.Result{
			Success: false,
			Error:   err.Error(),
		})
		if writeErr != nil {
			logger.Error("failed to write result", zap.Error(writeErr))
		}
		return &resultError{message: err.Error()}
	}

	if store, err := history.Open(cfg.HistoryDBPath, logger); err == nil {
		defer store.Close()
		generator.Journal = store
	} else {
		logger.Warn("job journal unavailable", zap.Error(err))
	}

	result := generator.Generate(ctx, req)
	if err := imagegen.WriteResult(os.Stdout, result); err != nil {
		logger.Error("failed to write result", zap.Error(err))
		return err
	}
	if !result.Success {
		return &resultError{message: result.Error}
	}
	return nil
}
