package core

import (
	"path/filepath"
	"time"
)

// Default orchestration timings. These mirror the cadence the calling
// application was built against; override via environment only for tests.
const (
	// DefaultDownloadTimeout is the wall-clock ceiling for one download job.
	// Long enough for multi-gigabyte transfers on slow links, short enough
	// that a hung CLI invocation cannot outlive the workday.
	DefaultDownloadTimeout = 2 * time.Hour

	// DefaultProcessPollInterval is how often the supervisor re-checks
	// subprocess liveness and elapsed time.
	DefaultProcessPollInterval = 5 * time.Second

	// DefaultSampleInterval is how often the progress monitor sums the
	// cache directories.
	DefaultSampleInterval = 2 * time.Second

	// DefaultSampleBackoff is the slower cadence used after a sampling
	// error.
	DefaultSampleBackoff = 5 * time.Second

	// DefaultTerminateGrace is how long the supervisor waits for the
	// subprocess to confirm exit after a kill on timeout or cancellation.
	DefaultTerminateGrace = 5 * time.Second

	// DefaultGenerateTimeout bounds one image generation run.
	DefaultGenerateTimeout = 10 * time.Minute
)

// Config holds all configuration for the bridge. It is an explicit value
// passed into the supervisor and generator — the bridge never mutates the
// process environment to influence the tools it spawns.
type Config struct {
	// CacheDir is the local target directory models are downloaded into
	CacheDir string
	// CacheRoots are all directories the progress monitor samples
	CacheRoots []string

	// DownloaderCommand is the external download tool invocation prefix
	// (default: huggingface-cli download). Overridable for tests.
	DownloaderCommand []string
	// DownloaderEnv holds extra KEY=VALUE entries appended to the download
	// subprocess environment (e.g., PYENV_VERSION pinning)
	DownloaderEnv []string

	// DownloadTimeout is the wall-clock ceiling for one download job
	DownloadTimeout time.Duration
	// ProcessPollInterval is the subprocess liveness poll cadence
	ProcessPollInterval time.Duration
	// SampleInterval is the progress sampling cadence
	SampleInterval time.Duration
	// SampleBackoff is the sampling cadence after an I/O error
	SampleBackoff time.Duration
	// TerminateGrace is the confirmed-exit wait after a forced kill
	TerminateGrace time.Duration

	// ModelCatalogPath optionally points at a YAML catalog overriding the
	// built-in model table
	ModelCatalogPath string

	// GeneratorCommand is the local diffusion CLI invocation prefix
	// (default: mflux-generate)
	GeneratorCommand []string
	// Quantize is the quantization level passed to the generator (4 or 8;
	// 0 disables quantization)
	Quantize int
	// GenerateTimeout bounds one image generation run
	GenerateTimeout time.Duration
	// ThumbnailSize is the max edge of the preview image included in
	// generation results (0 disables thumbnails)
	ThumbnailSize int

	// OpenAIAPIKey enables the cloud fallback provider for generation when
	// the local runner is unavailable (optional)
	OpenAIAPIKey string

	// HistoryDBPath is the sqlite job journal location ("" disables it)
	HistoryDBPath string

	// LogFile is an optional rotating log file path ("" = stderr only)
	LogFile string
	// DevMode switches console logging to the human-readable encoder
	DevMode bool
	// Quiet suppresses the interactive stderr progress bar
	Quiet bool
}

// LoadConfig builds a Config from environment variables with defaults
// suitable for the macOS app's bundled invocation. The caller is expected
// to have loaded .env (godotenv) beforehand.
func LoadConfig() *Config {
	cacheDir := GetEnvOrDefault("FLUX_CACHE_DIR", DefaultCacheDir())
	return &Config{
		CacheDir:   cacheDir,
		CacheRoots: ParseListEnv("FLUX_CACHE_ROOTS", DefaultCacheRoots()),

		DownloaderCommand: ParseListEnv("FLUX_DOWNLOADER_CMD", []string{"huggingface-cli", "download"}),
		DownloaderEnv:     ParseListEnv("FLUX_DOWNLOADER_ENV", nil),

		DownloadTimeout:     ParseDurationEnv("FLUX_DOWNLOAD_TIMEOUT_SECONDS", int(DefaultDownloadTimeout.Seconds())),
		ProcessPollInterval: ParseDurationEnv("FLUX_PROCESS_POLL_SECONDS", int(DefaultProcessPollInterval.Seconds())),
		SampleInterval:      ParseDurationEnv("FLUX_SAMPLE_INTERVAL_SECONDS", int(DefaultSampleInterval.Seconds())),
		SampleBackoff:       ParseDurationEnv("FLUX_SAMPLE_BACKOFF_SECONDS", int(DefaultSampleBackoff.Seconds())),
		TerminateGrace:      ParseDurationEnv("FLUX_TERMINATE_GRACE_SECONDS", int(DefaultTerminateGrace.Seconds())),

		ModelCatalogPath: GetEnvOrDefault("FLUX_MODEL_CATALOG", ""),

		GeneratorCommand: ParseListEnv("FLUX_GENERATOR_CMD", []string{"mflux-generate"}),
		Quantize:         ParseIntEnv("FLUX_QUANTIZE", 8),
		GenerateTimeout:  ParseDurationEnv("FLUX_GENERATE_TIMEOUT_SECONDS", int(DefaultGenerateTimeout.Seconds())),
		ThumbnailSize:    ParseIntEnv("FLUX_THUMBNAIL_SIZE", 256),

		OpenAIAPIKey: GetEnvOrDefault("OPENAI_API_KEY", ""),

		HistoryDBPath: GetEnvOrDefault("FLUX_HISTORY_DB", filepath.Join(cacheDir, "fluxbridge.db")),

		LogFile: GetEnvOrDefault("FLUX_LOG_FILE", ""),
		DevMode: ParseBoolEnv("DEV_MODE", false),
		Quiet:   ParseBoolEnv("FLUX_QUIET", false),
	}
}
