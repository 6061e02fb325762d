// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package archive provides random access to the entries of archives on disk.
//
// [Open] detects the archive type by its magic bytes, enumerates the listing
// once and returns an [Archive]. Entry content is read through [Reader]
// handles; a handle is not safe for concurrent use, so concurrent consumers
// open one handle each with [Archive.NewReader].
//
// Supported are zip (including zstd compressed entries), 7z, rar and tar
// archives. Tar archives compressed with gzip, bzip2, xz, zstandard, lz4,
// brotli, snappy or zlib are decompressed once into a spool file. A compressed
// file that does not contain a tar archive is exposed as an archive with a
// single entry.
package archive
