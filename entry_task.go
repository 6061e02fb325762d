// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/go-quickextract/archive"
)

// run holds the state shared by all tasks of one extraction
type run struct {
	root      string
	cfg       *Config
	target    Target
	progress  *progressPrinter
	telemetry *telemetryCollector
	dirs      *dirCache
	readers   *readerPool
	budget    *extractionBudget
}

// extractEntry writes one archive entry below the destination root. Failures
// are logged and counted, the returned error only serves diagnostics.
func (r *run) extractEntry(workerID int, e archive.Entry) error {
	name := strings.TrimLeft(e.Name, "/")

	path, err := resolvePath(r.root, name, e.IsDir)
	if err != nil {
		if errors.Is(err, errInvalidPath) {
			r.progress.entry(labelInvalidPath, name)
		} else {
			r.progress.entry(labelBadPath, name)
		}
		return r.fail(name, err)
	}

	if !r.cfg.MatchesPattern(name) {
		r.telemetry.patternMismatches.Add(1)
		r.cfg.Logger().Debug("skipped entry, pattern mismatch", "name", name)
		return nil
	}

	if e.IsDir {
		if !r.cfg.CreateEmptyDirs() {
			return nil
		}
		if !r.dirs.getOrCreate(path) {
			// already logged and counted by the directory cache
			return fmt.Errorf("%s: %w", name, errParentDir)
		}
		return nil
	}

	if !r.dirs.getOrCreate(filepath.Dir(path)) {
		return fmt.Errorf("%s: %w", name, errParentDir)
	}

	if !r.cfg.Overwrite() {
		if _, err := r.target.Lstat(path); err == nil {
			r.alreadyExists(name)
			return nil
		}
	}

	n, err := r.copyEntry(workerID, e, name, path)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			// created by another process after the check above
			r.alreadyExists(name)
			return nil
		}
		r.progress.entry(labelCannotExtract, name)
		return r.fail(name, err)
	}
	r.telemetry.files.Add(1)
	r.telemetry.size.Add(n)

	if e.HasMode && r.cfg.PreserveFileMode() {
		if err := r.target.Chmod(path, e.Mode); err != nil {
			r.cfg.Logger().Debug("cannot apply file mode", "name", name, "mode", e.Mode, "error", err)
		}
	}
	if r.cfg.PreserveModTime() && !e.ModTime.IsZero() {
		if err := r.target.Lchtimes(path, e.ModTime, e.ModTime); err != nil {
			r.cfg.Logger().Debug("cannot restore modification time", "name", name, "error", err)
		}
	}
	return nil
}

// copyEntry streams the content of e into a new file at path, using the
// archive reader of the worker.
func (r *run) copyEntry(workerID int, e archive.Entry, name string, path string) (int64, error) {
	reader, err := r.readers.get(workerID)
	if err != nil {
		return 0, err
	}
	rc, err := reader.Open(e)
	if err != nil {
		return 0, fmt.Errorf("cannot open entry: %w", err)
	}
	defer rc.Close()

	r.progress.entry(labelExtracting, name)

	mode := r.cfg.CustomDecompressFileMode()
	if e.HasMode && r.cfg.PreserveFileMode() {
		mode = e.Mode
	}
	src := r.budget.reader(rc)
	n, err := r.target.CreateFile(path, src, mode, r.cfg.Overwrite(), e.Size)
	if err != nil {
		if errors.Is(err, io.ErrShortWrite) {
			err = fmt.Errorf("entry is larger than its recorded size %d: %w", e.Size, err)
		}
		return n, err
	}
	return n, nil
}

// alreadyExists reports a file that is kept as is
func (r *run) alreadyExists(name string) {
	r.progress.entry(labelAlreadyExists, name)
	r.telemetry.skipped.Add(1)
	r.cfg.Logger().Debug("skipped entry, file exists", "name", name)
}

// fail logs and counts a failed entry. Failures are reported to the user by
// the progress printer, the log only carries details for debugging.
func (r *run) fail(name string, err error) error {
	r.cfg.Logger().Debug("cannot extract entry", "name", name, "error", err)
	r.telemetry.recordError(err)
	return fmt.Errorf("%s: %w", name, err)
}

// extractionBudget limits the bytes extracted by all workers together
type extractionBudget struct {
	limit int64 // -1 disables the limit
	used  atomic.Int64
}

func newExtractionBudget(limit int64) *extractionBudget {
	return &extractionBudget{limit: limit}
}

// reserve takes n bytes from the budget. It fails once the limit is passed.
func (b *extractionBudget) reserve(n int64) error {
	if b.limit < 0 {
		return nil
	}
	if b.used.Add(n) > b.limit {
		return ErrMaxExtractionSizeExceeded
	}
	return nil
}

// reader wraps src so every byte read is reserved from the budget
func (b *extractionBudget) reader(src io.Reader) io.Reader {
	if b.limit < 0 {
		return src
	}
	return &budgetReader{r: src, budget: b}
}

// budgetReader fails once the shared budget is exhausted
type budgetReader struct {
	r      io.Reader
	budget *extractionBudget
}

func (br *budgetReader) Read(p []byte) (int, error) {
	n, err := br.r.Read(p)
	if n > 0 {
		if rerr := br.budget.reserve(int64(n)); rerr != nil {
			return 0, rerr
		}
	}
	return n, err
}
