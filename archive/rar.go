// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"io"

	"github.com/nwaples/rardecode"
)

// fileExtensionRar is the file extension for Rar files.
const fileExtensionRar = "rar"

// magicBytesRar are the magic bytes for Rar files.
var magicBytesRar = [][]byte{
	{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00},       // Rar 1.5
	{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00}, // Rar 5.0
}

// isRar checks if the header matches the magic bytes for Rar files.
func isRar(data []byte) bool {
	return matchesMagicBytes(data, 0, magicBytesRar)
}

// rarArchive is an enumerated Rar archive. Rar archives can only be decoded
// sequentially, so every reader handle walks the archive forward.
type rarArchive struct {
	path    string
	entries []Entry
}

// openRar walks all headers of the Rar archive at path.
func openRar(path string, o *options) (Archive, error) {
	rc, err := rardecode.OpenReader(path, "")
	if err != nil {
		return nil, fmt.Errorf("cannot create rar decoder: %w", err)
	}
	defer rc.Close()

	a := &rarArchive{path: path}
	for i := 0; ; i++ {
		hdr, err := rc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read rar header: %w", err)
		}
		mode := hdr.Mode()
		if !extractable(mode) {
			o.logger.Debug("skip non-regular rar entry", "name", hdr.Name, "mode", mode)
			continue
		}
		size := hdr.UnPackedSize
		if hdr.UnKnownSize {
			size = -1
		}
		a.entries = append(a.entries, Entry{
			Name:    hdr.Name,
			Size:    size,
			IsDir:   hdr.IsDir,
			Mode:    mode.Perm(),
			HasMode: hdr.HostOS == rardecode.HostOSUnix,
			ModTime: hdr.ModificationTime,
			index:   i,
		})
	}
	return a, nil
}

// Type returns the file extension for rar files.
func (r *rarArchive) Type() string {
	return fileExtensionRar
}

// Entries returns the extractable entries
func (r *rarArchive) Entries() []Entry {
	return r.entries
}

// NewReader returns a lazily opened sequential handle
func (r *rarArchive) NewReader() (Reader, error) {
	return &rarReader{path: r.path}, nil
}

// Close is a no-op, rar archives are read in place
func (r *rarArchive) Close() error {
	return nil
}

// rarReader decodes a Rar archive front to back. Opening an entry behind the
// current position reopens the archive.
type rarReader struct {
	path string
	rc   *rardecode.ReadCloser
	next int // index of the header returned by the next call to rc.Next
}

// Open skips forward to e and returns a stream of its content. The stream
// reads directly from the decoder and is only valid until the next Open.
func (r *rarReader) Open(e Entry) (io.ReadCloser, error) {
	if r.rc == nil || e.index < r.next {
		if err := r.reopen(); err != nil {
			return nil, err
		}
	}

	for {
		hdr, err := r.rc.Next()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("cannot seek to %q: %w", e.Name, err)
		}
		idx := r.next
		r.next++
		if idx < e.index {
			continue
		}
		if hdr.Name != e.Name {
			return nil, fmt.Errorf("rar entry %d is %q, expected %q", idx, hdr.Name, e.Name)
		}
		return io.NopCloser(r.rc), nil
	}
}

// reopen starts decoding at the first header again
func (r *rarReader) reopen() error {
	if r.rc != nil {
		r.rc.Close()
		r.rc = nil
	}
	rc, err := rardecode.OpenReader(r.path, "")
	if err != nil {
		return fmt.Errorf("cannot create rar decoder: %w", err)
	}
	r.rc = rc
	r.next = 0
	return nil
}

// Close closes the decoder, if it was opened
func (r *rarReader) Close() error {
	if r.rc == nil {
		return nil
	}
	err := r.rc.Close()
	r.rc = nil
	return err
}
