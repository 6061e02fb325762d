// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-quickextract/archive"
)

// Unpack extracts the archive at src into the directory dst on disk. If dst is
// empty, [DefaultDestination] is used. See [UnpackTo] for details.
func Unpack(ctx context.Context, dst string, src string, cfg *Config) error {
	return UnpackTo(ctx, NewTargetDisk(), dst, src, cfg)
}

// UnpackTo extracts the archive at src into the directory dst of the target t.
//
// The destination is created if it does not exist. Entries are extracted by a
// pool of concurrent workers. An entry that cannot be extracted is logged and
// skipped; such failures are counted in the [TelemetryData] but do not fail the
// run. UnpackTo returns an error wrapping [ErrArchiveNotFound],
// [ErrCreateDestination], [ErrReadArchive] or [ErrNoEntries] if the run cannot
// start, and the context error if ctx is cancelled during the run.
func UnpackTo(ctx context.Context, t Target, dst string, src string, cfg *Config) error {
	if cfg == nil {
		cfg = NewConfig()
	}
	logger := cfg.Logger()

	stat, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArchiveNotFound, src)
		}
		return fmt.Errorf("%w: %w", ErrArchiveNotFound, err)
	}
	if stat.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrArchiveNotFound, src)
	}

	if len(dst) == 0 {
		if dst, err = DefaultDestination(src); err != nil {
			return fmt.Errorf("%w: %w", ErrCreateDestination, err)
		}
	} else if dst, err = filepath.Abs(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDestination, err)
	}
	if err := createDestination(t, dst, cfg.CustomCreateDirMode()); err != nil {
		return err
	}

	progress := newProgressPrinter(cfg.Progress(), dst, cfg.Verbose())
	progress.printf("Extracting %s to %s", src, dst)

	logger.Debug("enumerating archive", "src", src)
	a, err := archive.Open(src,
		archive.WithTempDir(cfg.TempDir()),
		archive.WithMaxDecompressedSize(cfg.MaxDecompressedSize()),
		archive.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadArchive, err)
	}
	entries := a.Entries()
	if len(entries) == 0 {
		if err := a.Close(); err != nil {
			logger.Debug("cannot close archive", "error", err)
		}
		return fmt.Errorf("%w: %s", ErrNoEntries, src)
	}

	telemetry := newTelemetryCollector()
	telemetry.typ = a.Type()
	telemetry.inputSize = stat.Size()
	telemetry.entries = int64(len(entries))
	telemetry.workers = min(cfg.Workers(), len(entries))

	r := &run{
		root:      dst,
		cfg:       cfg,
		target:    t,
		progress:  progress,
		telemetry: telemetry,
		budget:    newExtractionBudget(cfg.MaxExtractionSize()),
	}
	r.dirs = newDirCache(t, cfg.CustomCreateDirMode(), progress, logger, telemetry)

	r.dispatch(ctx, a, telemetry.workers)

	td := telemetry.snapshot()
	logger.Debug("extraction finished", "run", td.RunID, "files", td.ExtractedFiles, "dirs", td.ExtractedDirs, "errors", td.ExtractionErrors)
	cfg.TelemetryHook()(ctx, td)

	return ctx.Err()
}

// dispatch submits one task per entry and returns after cleanup finished.
func (r *run) dispatch(ctx context.Context, a archive.Archive, workers int) {
	logger := r.cfg.Logger()
	entries := a.Entries()

	pool := newWorkerPool(ctx, workers, logger)
	r.readers = newReaderPool(a, workers, logger, func() { r.telemetry.readers.Add(1) })
	barrier := newCompletionBarrier(len(entries))
	defer r.cleanup(a, pool, barrier)

	logger.Debug("dispatching entries", "entries", len(entries), "workers", workers)
	for _, e := range entries {
		barrier.add(pool.submit(func(workerID int) error {
			return r.extractEntry(workerID, e)
		}))
	}
	logger.Debug("awaiting completion")
}

// cleanup waits for all tasks and releases every resource of the run. Cleanup
// failures are logged and never change the outcome of the run.
func (r *run) cleanup(a archive.Archive, pool *workerPool, barrier *completionBarrier) {
	logger := r.cfg.Logger()
	if err := barrier.await(); err != nil {
		logger.Debug("tasks finished with errors", "error", err)
	}

	logger.Debug("cleanup")
	r.readers.closeAll()
	if err := pool.shutdown(r.cfg.ShutdownTimeout()); err != nil {
		logger.Debug("cannot shut down worker pool", "error", err)
	}
	if err := a.Close(); err != nil {
		logger.Debug("cannot close archive", "error", err)
	}
	logger.Debug("done")
}
