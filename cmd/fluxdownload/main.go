// Command fluxdownload fetches a diffusion model into the local cache by
// supervising the external huggingface-cli download tool. It speaks the
// line-oriented token contract on stdout (DOWNLOAD_START, PROGRESS: x.xx,
// DOWNLOAD_COMPLETE / DOWNLOAD_ERROR) and exits 0 on success, 1 on any
// failure, timeout, or usage error.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"fluxbridge/core"
	"fluxbridge/history"
	"fluxbridge/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; the app usually passes everything via real env
	_ = godotenv.Load()

	cfg := core.LoadConfig()

	logger, err := logging.NewLogger(cfg.DevMode, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		return core.ExitCodeError
	}
	defer logger.Sync()

	ctx, lastSignal := signalContext(context.Background())

	var modelName string
	rootCmd := &cobra.Command{
		Use:           "fluxdownload <model_name>",
		Short:         "Download a FLUX model with resumable transfer and progress reporting",
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			name, err := validateModelArgs(args)
			if err != nil {
				return err
			}
			modelName = name
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return downloadModel(ctx, cfg, logger, modelName)
		},
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Usage errors never spawn a subprocess; job failures have
		// already emitted their terminal token.
		var outcomeErr *outcomeError
		if !errors.As(err, &outcomeErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		if sig := lastSignal(); sig != nil {
			if *sig == syscall.SIGTERM {
				return core.ExitCodeSIGTERM
			}
			return core.ExitCodeSIGINT
		}
		return core.ExitCodeError
	}
	return core.ExitCodeSuccess
}

// validateModelArgs enforces the CLI surface: exactly one positional model
// name, no flags. Any other arity is a usage error and must not spawn a
// subprocess.
func validateModelArgs(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("exactly one model name is required")
	}
	return args[0], nil
}

// outcomeError carries a non-success Outcome through cobra's error return
// without double-printing: the supervisor already emitted the terminal token.
type outcomeError struct {
	outcome core.Outcome
}

func (e *outcomeError) Error() string {
	if e.outcome.Err != nil {
		return e.outcome.Err.Error()
	}
	return e.outcome.Kind.String()
}

func downloadModel(ctx context.Context, cfg *core.Config, logger *logging.Logger, model string) error {
	catalog, err := core.LoadCatalog(cfg.ModelCatalogPath)
	if err != nil {
		logger.Warn("model catalog ignored", zap.Error(err))
		catalog = core.DefaultCatalog()
	}

	emitter := core.NewEmitter(os.Stdout)
	supervisor := core.NewSupervisor(cfg, catalog, emitter, logger)

	if store, err := history.Open(cfg.HistoryDBPath, logger); err == nil {
		defer store.Close()
		supervisor.Journal = store
	} else {
		// Journal is advisory; the download proceeds without it
		logger.Warn("job journal unavailable", zap.Error(err))
	}

	var finishBar func()
	supervisor.OnProgress, finishBar = progressBar(cfg)
	defer finishBar()

	outcome := supervisor.Run(ctx, model)
	finishBar()

	switch outcome.Kind {
	case core.OutcomeSuccess:
		color.New(color.FgGreen).Fprintf(os.Stderr, "Model %s downloaded (%s observed, %s)\n",
			model, core.FormatBytes(outcome.BytesObserved), outcome.Duration.Round(time.Second))
		return nil
	default:
		color.New(color.FgRed).Fprintf(os.Stderr, "Download of %s did not complete: %v\n",
			model, outcome.Err)
		return &outcomeError{outcome: outcome}
	}
}

// progressBar returns a progress observer for interactive runs. When stderr
// is not a terminal (the normal case: the app captures both streams) both
// returned funcs are no-ops.
func progressBar(cfg *core.Config) (onProgress func(float64), finish func()) {
	if cfg.Quiet || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil, func() {}
	}

	var (
		once sync.Once
		bar  *pb.ProgressBar
	)
	onProgress = func(fraction float64) {
		once.Do(func() {
			bar = pb.New(100)
			bar.SetWriter(os.Stderr)
			bar.Start()
		})
		bar.SetCurrent(int64(fraction * 100))
	}
	finish = func() {
		if bar != nil {
			bar.Finish()
		}
	}
	return onProgress, finish
}

// signalContext returns a context canceled on SIGINT/SIGTERM and an
// accessor for the signal that fired, so the exit code can follow the
// 128+signal convention.
func signalContext(parent context.Context) (context.Context, func() *os.Signal) {
	ctx, cancel := context.WithCancel(parent)

	var (
		mu       sync.Mutex
		received *os.Signal
	)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig, ok := <-ch
		if ok {
			mu.Lock()
			received = &sig
			mu.Unlock()
		}
		cancel()
	}()

	return ctx, func() *os.Signal {
		mu.Lock()
		defer mu.Unlock()
		return received
	}
}
