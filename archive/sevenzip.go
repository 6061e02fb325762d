// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/bodgit/sevenzip"
)

// fileExtension7zip is the file extension for 7zip files
const fileExtension7zip = "7z"

// magicBytes7zip are the magic bytes for 7zip files
var magicBytes7zip = [][]byte{
	{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C},
}

// is7zip checks if the header matches the magic bytes for 7zip files
func is7zip(data []byte) bool {
	return matchesMagicBytes(data, 0, magicBytes7zip)
}

// attributeUnixExtension marks 7zip attributes that carry unix mode bits in
// the upper 16 bits.
const attributeUnixExtension = 0x8000

// sevenZipArchive is an enumerated 7zip archive
type sevenZipArchive struct {
	path    string
	entries []Entry
}

// openSevenZip reads the header database of the 7zip archive at path.
func openSevenZip(path string, o *options) (Archive, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("cannot create 7zip reader: %w", err)
	}
	defer r.Close()

	a := &sevenZipArchive{path: path}
	for i, f := range r.File {
		info := f.FileInfo()
		mode := info.Mode()
		if !extractable(mode) {
			o.logger.Debug("skip non-regular 7zip entry", "name", f.Name, "mode", mode)
			continue
		}
		a.entries = append(a.entries, Entry{
			Name:    f.Name,
			Size:    info.Size(),
			IsDir:   mode.IsDir(),
			Mode:    mode.Perm(),
			HasMode: f.Attributes&attributeUnixExtension != 0,
			ModTime: f.Modified,
			index:   i,
		})
	}
	return a, nil
}

// Type returns the file extension for 7zip files
func (z *sevenZipArchive) Type() string {
	return fileExtension7zip
}

// Entries returns the extractable entries
func (z *sevenZipArchive) Entries() []Entry {
	return z.entries
}

// NewReader opens an independent handle on the 7zip file
func (z *sevenZipArchive) NewReader() (Reader, error) {
	r, err := sevenzip.OpenReader(z.path)
	if err != nil {
		return nil, fmt.Errorf("cannot create 7zip reader: %w", err)
	}
	return &sevenZipReader{r: r}, nil
}

// Close is a no-op, 7zip archives are read in place
func (z *sevenZipArchive) Close() error {
	return nil
}

// sevenZipReader is a handle on a 7zip file
type sevenZipReader struct {
	r *sevenzip.ReadCloser
}

// Open returns a reader for the 7zip entry
func (z *sevenZipReader) Open(e Entry) (io.ReadCloser, error) {
	if e.index < 0 || e.index >= len(z.r.File) {
		return nil, fmt.Errorf("entry %q: %w", e.Name, fs.ErrNotExist)
	}
	return z.r.File[e.index].Open()
}

// Close closes the 7zip file
func (z *sevenZipReader) Close() error {
	return z.r.Close()
}
