// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// fileExtensionTar is the file extension for tar files
const fileExtensionTar = "tar"

// offsetTar is the offset where the magic bytes are located in the file
const offsetTar = 257

// magicBytesTar are the magic bytes for tar files
var magicBytesTar = [][]byte{
	[]byte("ustar\x00tar\x00"),
	[]byte("ustar\x00"),
	[]byte("ustar  \x00"),
}

// isTar checks if the header matches the magic bytes for tar files
func isTar(data []byte) bool {
	return matchesMagicBytes(data, offsetTar, magicBytesTar)
}

// tarArchive is an enumerated tar archive. The data offset of every entry is
// recorded, so each reader handle can serve entries in any order.
type tarArchive struct {
	path    string
	typ     string
	spool   string // spool file to remove on Close, if any
	entries []Entry
}

// openTar indexes the uncompressed tar archive at path. If spool is not
// empty, the file is removed when the archive is closed.
func openTar(path string, typ string, spool string, o *options) (Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open tar: %w", err)
	}
	defer f.Close()

	entries, err := indexTar(f, o)
	if err != nil {
		return nil, err
	}
	return &tarArchive{path: path, typ: typ, spool: spool, entries: entries}, nil
}

// indexTar walks all headers of the tar stream in f and records the data
// offset of each extractable entry.
func indexTar(f *os.File, o *options) ([]Entry, error) {
	var entries []Entry
	tr := tar.NewReader(f)
	for i := 0; ; i++ {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read tar header: %w", err)
		}

		// the tar reader consumes exactly the header blocks, the file
		// position is now at the start of the entry data
		offset, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("cannot determine tar offset: %w", err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir, tar.TypeReg:
		default:
			// tar specific: skip links, devices, sparse files and the git comment file `pax_global_header`
			o.logger.Debug("skip non-regular tar entry", "name", hdr.Name, "type", string(hdr.Typeflag))
			continue
		}

		entries = append(entries, Entry{
			Name:    hdr.Name,
			Size:    hdr.Size,
			IsDir:   hdr.Typeflag == tar.TypeDir,
			Mode:    fs.FileMode(hdr.Mode).Perm(),
			HasMode: true,
			ModTime: hdr.ModTime,
			index:   i,
			offset:  offset,
		})
	}
}

// Type returns the archive type, e.g. "tar" or "tar.gz"
func (t *tarArchive) Type() string {
	return t.typ
}

// Entries returns the extractable entries
func (t *tarArchive) Entries() []Entry {
	return t.entries
}

// NewReader opens an independent file handle on the tar file
func (t *tarArchive) NewReader() (Reader, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("cannot open tar: %w", err)
	}
	return &sectionReader{f: f}, nil
}

// Close removes the spool file
func (t *tarArchive) Close() error {
	return removeSpool(t.spool)
}

// sectionReader serves entries stored as contiguous byte ranges of a file
type sectionReader struct {
	f *os.File
}

// Open returns a reader over the data range of e
func (s *sectionReader) Open(e Entry) (io.ReadCloser, error) {
	return io.NopCloser(io.NewSectionReader(s.f, e.offset, e.Size)), nil
}

// Close closes the file handle
func (s *sectionReader) Close() error {
	return s.f.Close()
}
