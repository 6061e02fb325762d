// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"io"
	"log/slog"
)

// logger is the logging interface used while enumerating archives. It is
// satisfied by *slog.Logger.
type logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Option adjusts how [Open] reads an archive.
type Option func(*options)

type options struct {
	// tempDir is the directory for spool files, empty means os.TempDir
	tempDir string

	// maxDecompressedSize limits the size of a decompressed spool file.
	// Set value to -1 to disable the check.
	maxDecompressedSize int64

	// logger for enumeration diagnostics
	logger logger
}

const defaultMaxDecompressedSize = -1 // no limit

var defaultLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

func newOptions(opts ...Option) *options {
	o := &options{
		maxDecompressedSize: defaultMaxDecompressedSize,
		logger:              defaultLogger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithTempDir sets the directory where decompressed input is spooled.
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithMaxDecompressedSize limits how many bytes a compressed input may expand
// to. (-1 to disable check)
func WithMaxDecompressedSize(n int64) Option {
	return func(o *options) {
		o.maxDecompressedSize = n
	}
}

// WithLogger sets the logger for enumeration diagnostics, e.g. skipped entries.
func WithLogger(l logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
