// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import "errors"

// Setup errors. They are returned by [Unpack] before any entry is extracted.
var (
	// ErrArchiveNotFound indicates that the input archive does not exist.
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrCreateDestination indicates that the destination directory cannot
	// be created or is not a directory.
	ErrCreateDestination = errors.New("cannot create destination")

	// ErrReadArchive indicates that the archive listing cannot be read.
	ErrReadArchive = errors.New("cannot read archive")

	// ErrNoEntries indicates that the archive has no extractable entries.
	ErrNoEntries = errors.New("archive has no extractable entries")

	// ErrMaxExtractionSizeExceeded indicates that the configured limit over
	// all extracted files is reached.
	ErrMaxExtractionSizeExceeded = errors.New("maximum extraction size exceeded")
)

// per-entry errors, logged and counted but never returned
var (
	errBadPath     = errors.New("path escapes destination")
	errInvalidPath = errors.New("invalid path")
	errParentDir   = errors.New("cannot create parent directory")
)
