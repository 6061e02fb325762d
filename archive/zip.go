// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// fileExtensionZip is the file extension for zip files.
const fileExtensionZip = "zip"

// magicBytesZip contains the magic bytes for a zip archive.
// reference: https://golang.org/pkg/archive/zip/
var magicBytesZip = [][]byte{
	{0x50, 0x4B, 0x03, 0x04},
	{0x50, 0x4B, 0x05, 0x06}, // empty archive
}

// isZip checks if data is a zip archive.
func isZip(data []byte) bool {
	return matchesMagicBytes(data, 0, magicBytesZip)
}

// host systems in the upper byte of the creator version that store unix
// permission bits in the external attributes
const (
	creatorUnix   = 3
	creatorMacOSX = 19
)

// zipArchive is an enumerated zip archive
type zipArchive struct {
	path    string
	entries []Entry
}

// openZip reads the central directory of the zip archive at path.
func openZip(path string, o *options) (Archive, error) {
	zr, err := openZipReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	a := &zipArchive{path: path}
	for i, f := range zr.File {
		mode := f.Mode()
		if !extractable(mode) {
			o.logger.Debug("skip non-regular zip entry", "name", f.Name, "mode", mode)
			continue
		}
		host := f.CreatorVersion >> 8
		a.entries = append(a.entries, Entry{
			Name:    f.Name,
			Size:    int64(f.UncompressedSize64),
			IsDir:   mode.IsDir(),
			Mode:    mode.Perm(),
			HasMode: (host == creatorUnix || host == creatorMacOSX) && mode.Perm() != 0,
			ModTime: f.Modified,
			index:   i,
		})
	}
	return a, nil
}

// openZipReader opens a zip reader that understands zstd compressed entries.
func openZipReader(path string) (*zip.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("cannot create zip reader: %w", err)
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	return zr, nil
}

// Type returns the file extension for zip files
func (z *zipArchive) Type() string {
	return fileExtensionZip
}

// Entries returns the extractable entries
func (z *zipArchive) Entries() []Entry {
	return z.entries
}

// NewReader opens an independent handle on the zip file
func (z *zipArchive) NewReader() (Reader, error) {
	zr, err := openZipReader(z.path)
	if err != nil {
		return nil, err
	}
	return &zipReader{zr: zr}, nil
}

// Close is a no-op, zip archives are read in place
func (z *zipArchive) Close() error {
	return nil
}

// zipReader is a handle on a zip file
type zipReader struct {
	zr *zip.ReadCloser
}

// Open returns a reader for the entry
func (z *zipReader) Open(e Entry) (io.ReadCloser, error) {
	if e.index < 0 || e.index >= len(z.zr.File) {
		return nil, fmt.Errorf("entry %q: %w", e.Name, fs.ErrNotExist)
	}
	return z.zr.File[e.index].Open()
}

// Close closes the zip file
func (z *zipReader) Close() error {
	return z.zr.Close()
}
