// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// ConfigOption is a function pointer to implement the option pattern
type ConfigOption func(*Config)

// Config provides a configuration struct and options to adjust the configuration.
//
// The configuration struct holds all configuration options for an extraction run.
// The configuration options can be adjusted using the option pattern style.
//
// The default configuration never overwrites existing files, prints no progress
// and sizes the worker pool after the available CPUs.
type Config struct {
	// createEmptyDirs decides if explicit directory entries of the archive are
	// created, even if no file is extracted into them
	createEmptyDirs bool

	// customCreateDirMode is the file mode for created directories (respecting umask)
	customCreateDirMode fs.FileMode

	// customDecompressFileMode is the file mode for extracted files, if the
	// archive does not record one or preserveFileMode is false (respecting umask)
	customDecompressFileMode fs.FileMode

	// logger stream for extraction
	logger logger

	// maxDecompressedSize is the maximum size of a decompressed input before it
	// is indexed. Set value to -1 to disable the check.
	maxDecompressedSize int64

	// maxExtractionSize is the maximum size over all extracted files.
	// Set value to -1 to disable the check.
	maxExtractionSize int64

	// Define if files should be overwritten in the destination
	overwrite bool

	// patterns is a list of file patterns to match files to extract
	patterns []string

	// preserveFileMode applies the permission bits recorded in the archive
	preserveFileMode bool

	// preserveModTime restores the modification time recorded in the archive
	preserveModTime bool

	// progress is the stream for verbose progress lines
	progress io.Writer

	// shutdownTimeout is the grace period for the worker pool to drain
	shutdownTimeout time.Duration

	// telemetryHook is a function to consume telemetry data after finished extraction
	// Important: do not adjust this value after extraction started
	telemetryHook TelemetryHook

	// tempDir is the directory for decompressed input
	tempDir string

	// verbose enables progress lines for every directory and file
	verbose bool

	// workers is the size of the worker pool, 0 picks a default
	workers int
}

// CreateEmptyDirs returns true if explicit directory entries are created.
func (c *Config) CreateEmptyDirs() bool {
	return c.createEmptyDirs
}

// CustomCreateDirMode returns the file mode for created directories. (respecting umask)
func (c *Config) CustomCreateDirMode() fs.FileMode {
	return c.customCreateDirMode
}

// CustomDecompressFileMode returns the file mode for extracted files without
// a recorded mode. (respecting umask)
func (c *Config) CustomDecompressFileMode() fs.FileMode {
	return c.customDecompressFileMode
}

// Logger returns the logger.
func (c *Config) Logger() logger {
	return c.logger
}

// MaxDecompressedSize returns the maximum size of a decompressed input.
func (c *Config) MaxDecompressedSize() int64 {
	return c.maxDecompressedSize
}

// MaxExtractionSize returns the maximum size over all extracted files.
func (c *Config) MaxExtractionSize() int64 {
	return c.maxExtractionSize
}

// Overwrite returns true if files should be overwritten in the destination.
func (c *Config) Overwrite() bool {
	return c.overwrite
}

// Patterns returns a list of unix-filepath patterns to match files to extract
// Patterns are matched using [filepath.Match](https://golang.org/pkg/path/filepath/#Match).
func (c *Config) Patterns() []string {
	return c.patterns
}

// PreserveFileMode returns true if permission bits recorded in the archive
// are applied to extracted files.
func (c *Config) PreserveFileMode() bool {
	return c.preserveFileMode
}

// PreserveModTime returns true if modification times recorded in the archive
// are restored.
func (c *Config) PreserveModTime() bool {
	return c.preserveModTime
}

// Progress returns the stream for progress lines.
func (c *Config) Progress() io.Writer {
	return c.progress
}

// ShutdownTimeout returns the grace period for the worker pool to finish
// queued tasks after all entries are dispatched.
func (c *Config) ShutdownTimeout() time.Duration {
	return c.shutdownTimeout
}

// TelemetryHook returns the telemetry hook.
func (c *Config) TelemetryHook() TelemetryHook {
	if c.telemetryHook == nil {
		return defaultTelemetryHook
	}
	return c.telemetryHook
}

// TempDir returns the directory for decompressed input. Empty means
// [os.TempDir].
func (c *Config) TempDir() string {
	return c.tempDir
}

// Verbose returns true if progress lines are printed.
func (c *Config) Verbose() bool {
	return c.verbose
}

// Workers returns the size of the worker pool. If no size is configured,
// the pool is sized after GOMAXPROCS.
func (c *Config) Workers() int {
	if c.workers > 0 {
		return c.workers
	}
	return defaultWorkers()
}

// MatchesPattern reports if name matches one of the configured patterns. If no
// pattern is configured, every name matches.
func (c *Config) MatchesPattern(name string) bool {
	if len(c.patterns) == 0 {
		return true
	}
	for _, p := range c.patterns {
		if match, err := filepath.Match(p, name); err == nil && match {
			return true
		}
	}
	return false
}

const (
	defaultCreateEmptyDirs          = true                    // recreate explicit directory entries
	defaultCustomCreateDirMode      = 0755                    // default directory permissions rwxr-xr-x
	defaultCustomDecompressFileMode = 0644                    // default file permissions rw-r--r--
	defaultMaxDecompressedSize      = -1                      // no limit
	defaultMaxExtractionSize        = -1                      // no limit
	defaultMinWorkers               = 6                       // lower bound of the default pool size
	defaultOverwrite                = false                   // don't overwrite existing files
	defaultPreserveFileMode         = true                    // apply archive permission bits
	defaultPreserveModTime          = false                   // keep extraction time as mod time
	defaultShutdownTimeout          = 2500 * time.Millisecond // grace period for the pool
	defaultVerbose                  = false                   // no progress output
)

var (
	// slog to discard
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	// no operation telemetry hook
	defaultTelemetryHook = func(ctx context.Context, d *TelemetryData) {
		// noop
	}
)

// defaultWorkers returns max(6, ceil(1.5 * GOMAXPROCS)). Extraction is mixed
// CPU and I/O work, so the pool is larger than the number of CPUs.
func defaultWorkers() int {
	n := int(math.Ceil(1.5 * float64(runtime.GOMAXPROCS(0))))
	return max(defaultMinWorkers, n)
}

// NewConfig is a generator option that takes opts as adjustments of the
// default configuration in an option pattern style.
func NewConfig(opts ...ConfigOption) *Config {

	// setup default values
	config := &Config{
		createEmptyDirs:          defaultCreateEmptyDirs,
		customCreateDirMode:      defaultCustomCreateDirMode,
		customDecompressFileMode: defaultCustomDecompressFileMode,
		logger:                   defaultLogger,
		maxDecompressedSize:      defaultMaxDecompressedSize,
		maxExtractionSize:        defaultMaxExtractionSize,
		overwrite:                defaultOverwrite,
		preserveFileMode:         defaultPreserveFileMode,
		preserveModTime:          defaultPreserveModTime,
		progress:                 os.Stdout,
		shutdownTimeout:          defaultShutdownTimeout,
		telemetryHook:            defaultTelemetryHook,
		verbose:                  defaultVerbose,
	}

	// Loop through each option
	for _, opt := range opts {
		opt(config)
	}

	return config
}

// WithCreateEmptyDirs options pattern function to enable/disable the creation
// of explicit directory entries. Directories that contain extracted files are
// always created.
func WithCreateEmptyDirs(create bool) ConfigOption {
	return func(c *Config) {
		c.createEmptyDirs = create
	}
}

// WithCustomCreateDirMode options pattern function to set the file mode
// for created directories. (respecting umask)
func WithCustomCreateDirMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.customCreateDirMode = mode
	}
}

// WithCustomDecompressFileMode options pattern function to set the file mode for
// extracted files without a recorded mode. (respecting umask)
func WithCustomDecompressFileMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.customDecompressFileMode = mode
	}
}

// WithLogger options pattern function to set a custom logger.
func WithLogger(logger logger) ConfigOption {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxDecompressedSize options pattern function to set the maximum size of a
// decompressed input, e.g. the tar inside a tar.gz. (-1 to disable check)
func WithMaxDecompressedSize(maxDecompressedSize int64) ConfigOption {
	return func(c *Config) {
		c.maxDecompressedSize = maxDecompressedSize
	}
}

// WithMaxExtractionSize options pattern function to set maximum size over all
// extracted files. (-1 to disable check)
func WithMaxExtractionSize(maxExtractionSize int64) ConfigOption {
	return func(c *Config) {
		c.maxExtractionSize = maxExtractionSize
	}
}

// WithOverwrite options pattern function specify if files should be overwritten in the destination.
func WithOverwrite(enable bool) ConfigOption {
	return func(c *Config) {
		c.overwrite = enable
	}
}

// WithPatterns options pattern function to set filepath pattern, that files need to match to be extracted.
// Patterns are matched using [pkg/path/filepath.Match].
func WithPatterns(pattern ...string) ConfigOption {
	return func(c *Config) {
		c.patterns = append(c.patterns, pattern...)
	}
}

// WithPreserveFileMode options pattern function to apply the permission bits
// recorded in the archive to extracted files.
func WithPreserveFileMode(preserve bool) ConfigOption {
	return func(c *Config) {
		c.preserveFileMode = preserve
	}
}

// WithPreserveModTime options pattern function to restore the modification
// times recorded in the archive.
func WithPreserveModTime(preserve bool) ConfigOption {
	return func(c *Config) {
		c.preserveModTime = preserve
	}
}

// WithProgress options pattern function to set the stream for progress lines.
func WithProgress(w io.Writer) ConfigOption {
	return func(c *Config) {
		if w != nil {
			c.progress = w
		}
	}
}

// WithShutdownTimeout options pattern function to set the grace period for the
// worker pool. Queued tasks that did not start within the period are dropped.
func WithShutdownTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithTelemetryHook options pattern function to set a [TelemetryHook], which is called after extraction.
func WithTelemetryHook(hook TelemetryHook) ConfigOption {
	return func(c *Config) {
		c.telemetryHook = hook
	}
}

// WithTempDir options pattern function to set the directory for decompressed input.
func WithTempDir(dir string) ConfigOption {
	return func(c *Config) {
		c.tempDir = dir
	}
}

// WithVerbose options pattern function to print a progress line for every
// directory and file.
func WithVerbose(verbose bool) ConfigOption {
	return func(c *Config) {
		c.verbose = verbose
	}
}

// WithWorkers options pattern function to set the size of the worker pool.
// Values below 1 select the default size.
func WithWorkers(n int) ConfigOption {
	return func(c *Config) {
		c.workers = n
	}
}
