// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	quickextract "github.com/hashicorp/go-quickextract"
)

// CLI are the cli parameters for quickextract binary
type CLI struct {
	Archive         string           `arg:"" name:"archive" help:"Path to the archive." type:"path"`
	Destination     string           `arg:"" name:"output-dir" optional:"" help:"Output directory. (default: archive name without .zip/.jar, or with -files appended)" type:"path"`
	Metrics         bool             `short:"M" optional:"" default:"false" help:"Print telemetry to log after extraction."`
	NoPreserveMode  bool             `optional:"" help:"Do not apply permission bits recorded in the archive."`
	Overwrite       bool             `short:"o" help:"Overwrite existing files."`
	Patterns        []string         `short:"p" name:"pattern" optional:"" help:"Only extract entries matching the glob pattern. (repeatable)"`
	PreserveModTime bool             `optional:"" help:"Restore modification times recorded in the archive."`
	Quiet           bool             `short:"q" help:"Suppress progress output."`
	SkipEmptyDirs   bool             `optional:"" help:"Do not create directories for explicit directory entries."`
	Verbose         bool             `short:"v" optional:"" help:"Verbose logging."`
	Version         kong.VersionFlag `short:"V" optional:"" help:"Print release version information."`
	Workers         int              `short:"w" optional:"" default:"0" help:"Number of concurrent workers. (0: sized after the available CPUs)"`
}

// Run the entrypoint into quickextract as a cli tool
func Run(version, commit, date string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, versionString(version, commit, date))
	stop()
	os.Exit(code)
}

func versionString(version, commit, date string) string {
	return fmt.Sprintf("%s (%s), commit %s, built at %s", filepath.Base(os.Args[0]), version, commit, date)
}

// run parses args, extracts the archive and returns the exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer, version string) int {
	var cli CLI

	// kong calls exit for --help and --version, record the code instead of
	// terminating the process
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("quickextract"),
		kong.Description("A concurrent archive extraction utility"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) {
			if exitCode < 0 {
				exitCode = code
			}
		}),
		kong.Vars{
			"version": version,
		},
	)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", err)
		return 1
	}
	_, err = parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", err)
		return 1
	}

	// Check for verbose output
	logLevel := slog.LevelError
	if cli.Metrics {
		logLevel = slog.LevelInfo
	}
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}

	// setup logger
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// setup telemetry hook
	telemetryToLog := func(ctx context.Context, td *quickextract.TelemetryData) {
		if !cli.Metrics {
			return
		}
		logger.Info("extraction finished",
			"files", td.ExtractedFiles,
			"dirs", td.ExtractedDirs,
			"size", humanize.Bytes(uint64(max(td.ExtractionSize, 0))),
			"input", humanize.Bytes(uint64(max(td.InputSize, 0))),
			"duration", td.ExtractionDuration,
			"telemetry", td,
		)
	}

	// process cli params
	cfg := quickextract.NewConfig(
		quickextract.WithCreateEmptyDirs(!cli.SkipEmptyDirs),
		quickextract.WithLogger(logger),
		quickextract.WithOverwrite(cli.Overwrite),
		quickextract.WithPatterns(cli.Patterns...),
		quickextract.WithPreserveFileMode(!cli.NoPreserveMode),
		quickextract.WithPreserveModTime(cli.PreserveModTime),
		quickextract.WithProgress(stdout),
		quickextract.WithTelemetryHook(telemetryToLog),
		quickextract.WithVerbose(!cli.Quiet),
		quickextract.WithWorkers(cli.Workers),
	)

	// extract archive
	if err := quickextract.Unpack(ctx, cli.Destination, cli.Archive, cfg); err != nil {
		fmt.Fprintf(stderr, "error during extraction: %s\n", err)
		return 1
	}
	return 0
}
