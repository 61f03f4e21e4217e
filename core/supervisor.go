package core

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fluxbridge/logging"
)

// DownloadJob is the unit of work driven by the supervisor: one model, one
// target directory, one subprocess. Created once per CLI invocation and
// immutable afterwards.
type DownloadJob struct {
	// ID identifies this invocation in logs and the job journal
	ID uuid.UUID
	// Model is the short identifier from the command line
	Model string
	// Repo is the resolved remote source
	Repo string
	// TargetDir is the local directory the download lands in
	TargetDir string
	// StartedAt is when the supervisor began the job
	StartedAt time.Time
	// Timeout is the wall-clock ceiling
	Timeout time.Duration
}

// Journal receives the terminal record of each job. Implemented by the
// history store; journaling failures must be handled by the implementation
// — the supervisor treats the call as fire-and-forget.
type Journal interface {
	RecordDownload(job DownloadJob, outcome Outcome)
}

// Supervisor drives one DownloadJob to completion: resolve the remote
// source, spawn the external download tool, sample progress concurrently,
// enforce the wall-clock ceiling, and emit exactly one terminal token.
//
// State machine: Idle -> Resolving -> Downloading -> {Succeeded | Failed |
// TimedOut}. Resolution failures never enter Downloading; Downloading is the
// only state in which the subprocess and the monitor run concurrently.
type Supervisor struct {
	cfg     *Config
	catalog *Catalog
	emitter *Emitter
	logger  *logging.Logger

	// Journal is optional; nil disables history recording
	Journal Journal
	// OnProgress observes each emitted fraction (used by the CLI for the
	// interactive progress bar); may be nil
	OnProgress func(fraction float64)
	// Sample overrides cache sampling in tests; nil uses TotalCacheSize
	Sample SampleFunc
}

// NewSupervisor creates a download supervisor. All arguments are required
// except that catalog may be nil, in which case the built-in table is used.
func NewSupervisor(cfg *Config, catalog *Catalog, emitter *Emitter, logger *logging.Logger) *Supervisor {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Supervisor{
		cfg:     cfg,
		catalog: catalog,
		emitter: emitter,
		logger:  logger,
	}
}

// Run drives a download job for the given model identifier and returns its
// terminal Outcome. Run never panics outward and never returns a partial
// result: every fault inside orchestration is converted into a Failure
// outcome with the terminal token already emitted.
func (s *Supervisor) Run(ctx context.Context, model string) (outcome Outcome) {
	start := time.Now()
	job := DownloadJob{
		ID:        uuid.New(),
		Model:     model,
		StartedAt: start,
		Timeout:   s.cfg.DownloadTimeout,
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("download orchestration fault: %v", r)
			s.logger.Error("supervisor panic recovered", zap.Any("panic", r))
			outcome = s.fail(err, "", "")
		}
		outcome.Duration = time.Since(start)
		if s.Journal != nil {
			s.Journal.RecordDownload(job, outcome)
		}
	}()

	// Resolving: fail fast before any subprocess exists.
	spec, err := s.catalog.Resolve(model)
	if err != nil {
		s.logger.Warn("unknown model requested", zap.String("model", model))
		s.emitter.Fail(fmt.Sprintf("Unknown model %s", model), "", "")
		return Outcome{Kind: OutcomeFailure, Err: err}
	}
	job.Repo = spec.Repo
	job.TargetDir = filepath.Join(s.cfg.CacheDir, model)
	log := s.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("model", job.Model),
		zap.String("repo", job.Repo))

	if err := os.MkdirAll(job.TargetDir, 0755); err != nil {
		log.Error("failed to create cache directory", zap.Error(err))
		return s.fail(fmt.Errorf("failed to create cache directory: %w", err), "", "")
	}

	s.emitter.Start(model)
	s.progress(0.05)
	s.emitter.Info("Starting robust download with huggingface-cli...")

	// Downloading: monitor and subprocess run concurrently. The monitor's
	// lifetime is bound to this call, not the process.
	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	monitorDone := make(chan struct{})
	stopMonitor := func() {
		cancelMonitor()
		<-monitorDone
	}
	defer stopMonitor()

	monitor := NewMonitor(MonitorConfig{
		Roots:         s.cfg.CacheRoots,
		ExpectedBytes: s.catalog.ExpectedSizeBytes(model),
		Interval:      s.cfg.SampleInterval,
		Backoff:       s.cfg.SampleBackoff,
		Sample:        s.Sample,
		Emit:          s.progress,
		Logger:        log,
	})
	go func() {
		monitor.Run(monitorCtx)
		close(monitorDone)
	}()

	s.progress(0.10)
	s.emitter.Info("Initializing download...")

	cmd, stdout, stderr := s.downloadCommand(job)
	log.Info("launching downloader",
		zap.Strings("args", cmd.Args),
		zap.String("target_dir", job.TargetDir),
		zap.Duration("timeout", job.Timeout))

	if err := cmd.Start(); err != nil {
		spawnErr := ErrSpawnFailure(cmd.Args[0], err)
		log.Error("downloader failed to start", zap.Error(err))
		out := s.fail(spawnErr, "", "")
		out.BytesObserved = monitor.BytesObserved()
		return out
	}

	s.progress(0.20)
	s.emitter.Info("Executing download command...")

	waitErr, timedOut := s.superviseProcess(ctx, cmd, start, job.Timeout, log)
	stopMonitor()

	switch {
	case timedOut:
		hours := job.Timeout.Hours()
		log.Error("download timed out", zap.Duration("elapsed", time.Since(start)))
		s.emitter.Fail(fmt.Sprintf("Download timed out after %g hours", hours), "", "")
		return Outcome{
			Kind:          OutcomeTimeout,
			Err:           ErrTimeout(hours),
			BytesObserved: monitor.BytesObserved(),
		}

	case ctx.Err() != nil:
		log.Warn("download canceled", zap.Error(ctx.Err()))
		s.emitter.Fail("Download canceled", "", "")
		return Outcome{
			Kind:          OutcomeFailure,
			Err:           ErrCanceled(),
			BytesObserved: monitor.BytesObserved(),
		}

	case waitErr != nil:
		exitCode := cmd.ProcessState.ExitCode()
		log.Error("downloader exited nonzero",
			zap.Int("exit_code", exitCode),
			zap.String("stderr_tail", tail(stderr.String(), 512)))
		out := s.fail(ErrSubprocessFailure(exitCode),
			stdout.String(), stderr.String())
		out.BytesObserved = monitor.BytesObserved()
		return out

	default:
		log.Info("download complete",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("bytes_observed", FormatBytes(monitor.BytesObserved())))
		s.emitter.Complete()
		return Outcome{
			Kind:          OutcomeSuccess,
			BytesObserved: monitor.BytesObserved(),
		}
	}
}

// downloadCommand builds the external downloader invocation: resumable,
// symlink-free, quiet. The subprocess environment is the current one plus
// the configured overrides — the supervisor itself never mutates process
// env.
func (s *Supervisor) downloadCommand(job DownloadJob) (*exec.Cmd, *bytes.Buffer, *bytes.Buffer) {
	base := s.cfg.DownloaderCommand
	args := append(append([]string{}, base[1:]...),
		job.Repo,
		"--local-dir", job.TargetDir,
		"--local-dir-use-symlinks", "False",
		"--resume-download",
		"--quiet",
	)
	cmd := exec.Command(base[0], args...)
	if len(s.cfg.DownloaderEnv) > 0 {
		cmd.Env = append(os.Environ(), s.cfg.DownloaderEnv...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	return cmd, &stdout, &stderr
}

// superviseProcess waits for the subprocess while enforcing the wall-clock
// ceiling. It wakes every ProcessPollInterval to re-check elapsed time, so
// the wait never blocks indefinitely.
//
// On timeout or ctx cancellation the process is killed and the kill is
// confirmed (bounded by TerminateGrace) before returning, so no live child
// outlasts the supervisor. The downloader leaves resumable partial state on
// disk, so a forced kill is safe.
func (s *Supervisor) superviseProcess(ctx context.Context, cmd *exec.Cmd, start time.Time, timeout time.Duration, log *logging.Logger) (waitErr error, timedOut bool) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	ticker := time.NewTicker(s.cfg.ProcessPollInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			return err, false

		case <-ctx.Done():
			s.terminate(cmd, done, log)
			return ctx.Err(), false

		case <-ticker.C:
			if time.Since(start) > timeout {
				s.terminate(cmd, done, log)
				return nil, true
			}
		}
	}
}

// terminate kills the subprocess and waits up to TerminateGrace for the
// exit to be confirmed.
func (s *Supervisor) terminate(cmd *exec.Cmd, done <-chan error, log *logging.Logger) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil {
		log.Warn("failed to kill downloader", zap.Error(err))
	}
	select {
	case <-done:
	case <-time.After(s.cfg.TerminateGrace):
		log.Warn("downloader did not confirm exit within grace period")
	}
}

// fail emits the terminal error token and builds a Failure outcome.
func (s *Supervisor) fail(err error, stdout, stderr string) Outcome {
	s.emitter.Fail(err.Error(), stdout, stderr)
	return Outcome{Kind: OutcomeFailure, Err: err}
}

// progress routes one fraction through the emitter's monotonic gate and,
// when it actually lands, to the CLI observer.
func (s *Supervisor) progress(fraction float64) {
	if s.emitter.Progress(fraction) && s.OnProgress != nil {
		s.OnProgress(fraction)
	}
}

// tail returns at most n trailing bytes of str, for log fields that should
// not balloon.
func tail(str string, n int) string {
	if len(str) <= n {
		return str
	}
	return str[len(str)-n:]
}
