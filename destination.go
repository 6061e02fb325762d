// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// defaultDestinationSuffix is appended to the archive name if it has no
// extension that can be stripped
const defaultDestinationSuffix = "-files"

// strippedExtensions are removed from the archive name to derive the
// destination, compared case-insensitively
var strippedExtensions = []string{"zip", "jar"}

// DefaultDestination returns the absolute destination directory for an archive
// if none is given: the archive name without a .zip or .jar extension, or with
// "-files" appended, located next to the archive.
func DefaultDestination(archivePath string) (string, error) {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return "", fmt.Errorf("cannot resolve archive path: %w", err)
	}
	return filepath.Join(filepath.Dir(abs), destinationName(filepath.Base(abs))), nil
}

// destinationName derives the directory name from the archive file name
func destinationName(name string) string {
	// a leading dot marks a hidden file, not an extension
	if dot := strings.LastIndex(name, "."); dot > 0 {
		ext := name[dot+1:]
		for _, e := range strippedExtensions {
			if strings.EqualFold(ext, e) {
				return name[:dot]
			}
		}
	}
	return name + defaultDestinationSuffix
}

// createDestination ensures that dst exists as a directory, creating it and
// missing parents with mode.
func createDestination(t Target, dst string, mode fs.FileMode) error {
	stat, err := t.Stat(dst)
	switch {
	case err == nil && stat.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("%w: %s is not a directory", ErrCreateDestination, dst)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrCreateDestination, err)
	}

	if err := t.CreateDir(dst, mode); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDestination, err)
	}
	return nil
}
