// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// dirCache creates every directory of a run exactly once. The cached result
// reports if the directory exists and can hold files.
type dirCache struct {
	m         *singletonMap[string, bool]
	target    Target
	mode      fs.FileMode
	progress  *progressPrinter
	logger    logger
	telemetry *telemetryCollector
}

func newDirCache(t Target, mode fs.FileMode, progress *progressPrinter, l logger, telemetry *telemetryCollector) *dirCache {
	c := &dirCache{target: t, mode: mode, progress: progress, logger: l, telemetry: telemetry}
	c.m = newSingletonMap(c.ensureDir, false)
	c.m.onError = func(dir string, err error) {
		c.logger.Debug("cannot create directory", "dir", dir, "error", err)
		c.telemetry.recordError(err)
	}
	return c
}

// getOrCreate returns true if dir exists as a directory, creating it and its
// parents on first use.
func (c *dirCache) getOrCreate(dir string) bool {
	return c.m.getOrCreate(filepath.Clean(dir))
}

// ensureDir checks dir and creates it if missing. Only called once per
// directory.
func (c *dirCache) ensureDir(dir string) (bool, error) {
	stat, err := c.target.Stat(dir)
	switch {
	case err == nil && stat.IsDir():
		return true, nil
	case err == nil:
		// never replace a file with a directory
		c.progress.dir(labelAlreadyExists, dir)
		return false, fmt.Errorf("%w: %s is not a directory", errParentDir, dir)
	case !errors.Is(err, fs.ErrNotExist):
		c.progress.dir(labelCannotCreate, dir)
		return false, fmt.Errorf("%w: %w", errParentDir, err)
	}

	c.progress.dir(labelCreating, dir)
	createErr := c.target.CreateDir(dir, c.mode)

	// check again, another process may have created it in the meantime or a
	// symlink in the path may resolve to an existing directory
	if stat, err := c.target.Stat(dir); err == nil && stat.IsDir() {
		if createErr == nil {
			c.telemetry.dirs.Add(1)
		}
		return true, nil
	}

	c.progress.dir(labelCannotCreate, dir)
	if createErr == nil {
		createErr = fmt.Errorf("%s is not a directory", dir)
	}
	return false, fmt.Errorf("%w: %w", errParentDir, createErr)
}
