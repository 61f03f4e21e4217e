package core

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"fluxbridge/logging"
)

// ProgressCap is the highest fraction the monitor may report. Byte sampling
// is an estimate, not ground truth, so the estimate is held below 1.0 until
// the subprocess confirms success.
const ProgressCap = 0.95

// SampleFunc measures the accumulated byte total across the cache roots.
// Injectable so tests can drive the monitor without a filesystem.
type SampleFunc func(roots []string) (int64, error)

// Monitor is the background sampler that turns on-disk byte counts into a
// monotonic stream of progress fractions.
//
// It owns nothing: the cache directories are written by the external
// download subprocess, and the monitor only reads them. Transient
// inconsistency (mid-write sizes, vanished temp files) is tolerated because
// the output is advisory.
type Monitor struct {
	roots    []string
	expected int64
	interval time.Duration
	backoff  time.Duration
	sample   SampleFunc
	emit     func(fraction float64)
	logger   *logging.Logger

	// last fraction handed to emit, for local de-duplication
	lastFraction float64
	// last byte total observed, readable while the monitor runs
	lastBytes atomic.Int64
}

// MonitorConfig holds construction parameters for a Monitor.
type MonitorConfig struct {
	// Roots are the cache directories to sample
	Roots []string
	// ExpectedBytes scales byte totals into fractions (must be > 0)
	ExpectedBytes int64
	// Interval is the normal sampling cadence
	Interval time.Duration
	// Backoff is the cadence after a sampling error
	Backoff time.Duration
	// Sample measures the byte total (nil = TotalCacheSize)
	Sample SampleFunc
	// Emit receives each strictly-increasing fraction
	Emit func(fraction float64)
	// Logger receives sampling diagnostics (required)
	Logger *logging.Logger
}

// NewMonitor creates a progress monitor. Emit is called from the monitor's
// goroutine; callers that need ordering with their own output must make
// Emit safe for that (the Emitter is).
func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.Sample == nil {
		cfg.Sample = TotalCacheSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSampleInterval
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultSampleBackoff
	}
	if cfg.Emit == nil {
		cfg.Emit = func(float64) {}
	}
	return &Monitor{
		roots:        cfg.Roots,
		expected:     cfg.ExpectedBytes,
		interval:     cfg.Interval,
		backoff:      cfg.Backoff,
		sample:       cfg.Sample,
		emit:         cfg.Emit,
		logger:       cfg.Logger,
		lastFraction: 0,
	}
}

// Run samples until ctx is canceled. Sampling errors are never fatal: they
// are logged and the loop slows to the backoff cadence for one beat, since
// they have no effect on the actual download.
//
// Run blocks; start it on its own goroutine and cancel ctx when the owning
// job completes.
func (m *Monitor) Run(ctx context.Context) {
	for {
		wait := m.interval
		if err := m.step(); err != nil {
			m.logger.Warn("progress sample failed",
				zap.Error(err),
				zap.Strings("roots", m.roots))
			wait = m.backoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// step takes one sample and emits a fraction if it advanced.
func (m *Monitor) step() error {
	total, err := m.sample(m.roots)
	if err != nil {
		return err
	}
	if total <= 0 {
		return nil
	}
	m.lastBytes.Store(total)

	fraction := Fraction(total, m.expected)
	if fraction > m.lastFraction {
		m.lastFraction = fraction
		m.emit(fraction)
	}
	return nil
}

// BytesObserved returns the most recent sampled byte total.
func (m *Monitor) BytesObserved() int64 {
	return m.lastBytes.Load()
}

// Fraction converts a sampled byte total into a progress fraction, capped at
// ProgressCap. A non-positive expected size yields 0 rather than dividing
// by zero.
func Fraction(totalBytes, expectedBytes int64) float64 {
	if expectedBytes <= 0 || totalBytes <= 0 {
		return 0
	}
	fraction := float64(totalBytes) / float64(expectedBytes)
	if fraction > ProgressCap {
		return ProgressCap
	}
	return fraction
}
