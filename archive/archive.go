// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsupportedFormat is returned by [Open] if the input is not an archive
// or compressed file of a known type.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Entry is one named item in an archive listing. Entries are produced once
// by [Open] and never mutated.
type Entry struct {
	// Name is the slash separated path as recorded in the archive. It may
	// contain leading slashes or parent directory segments.
	Name string

	// Size is the uncompressed size of the entry in bytes, -1 if the
	// archive does not record it.
	Size int64

	// IsDir is true if the entry represents a directory.
	IsDir bool

	// Mode holds the permission bits recorded in the archive. Only valid
	// if HasMode is true.
	Mode fs.FileMode

	// HasMode is true if the archive recorded unix permission bits for
	// the entry.
	HasMode bool

	// ModTime is the modification time recorded in the archive.
	ModTime time.Time

	index  int   // position of the entry in the raw archive listing
	offset int64 // start of the entry data (tar only)
}

// Index returns the position of the entry in the raw archive listing,
// counting entries that are not extractable.
func (e Entry) Index() int {
	return e.index
}

// Reader opens entry streams. A Reader is not safe for concurrent use; open
// one Reader per goroutine with [Archive.NewReader].
type Reader interface {
	// Open returns a stream with the content of e. The stream must be
	// closed before Open is called again on the same Reader.
	Open(e Entry) (io.ReadCloser, error)

	// Close releases the underlying file handles.
	Close() error
}

// Archive is an enumerated archive on disk.
type Archive interface {
	// Type returns the detected archive type, e.g. "zip" or "tar.gz".
	Type() string

	// Entries returns all extractable entries in archive order.
	Entries() []Entry

	// NewReader opens a new, independent reader handle on the archive.
	NewReader() (Reader, error)

	// Close releases resources held by the archive itself, e.g. spool
	// files of decompressed input. Readers must be closed first.
	Close() error
}

// Open detects the type of the archive at path, reads its listing and
// returns the enumerated archive.
func Open(path string, opts ...Option) (Archive, error) {
	o := newOptions(opts...)

	header, err := readHeader(path, maxHeaderLength)
	if err != nil {
		return nil, err
	}

	switch {
	case isZip(header):
		return openZip(path, o)
	case is7zip(header):
		return openSevenZip(path, o)
	case isRar(header):
		return openRar(path, o)
	case isTar(header):
		return openTar(path, fileExtensionTar, "", o)
	}

	for _, d := range decompressors {
		if d.headerCheck(header) {
			return openCompressed(path, d, o)
		}
	}

	// brotli has no magic bytes, rely on the file extension
	if strings.EqualFold(filepath.Ext(path), "."+fileExtensionBrotli) {
		return openCompressed(path, brotliDecompressor, o)
	}

	// zip archives may carry a prefix (self-extracting archives, launcher
	// scripts), the central directory is read from the end of the file
	if a, err := openZip(path, o); err == nil {
		return a, nil
	}

	return nil, ErrUnsupportedFormat
}

// readHeader reads up to n bytes from the start of the file at path.
func readHeader(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open archive: %w", err)
	}
	defer f.Close()

	hr, err := newHeaderReader(f, n)
	if err != nil {
		return nil, err
	}
	return hr.PeekHeader(), nil
}

// extractable reports if an entry of the given type can be written to disk
// as a regular file or directory.
func extractable(mode fs.FileMode) bool {
	return mode.Type()&^fs.ModeDir == 0
}
