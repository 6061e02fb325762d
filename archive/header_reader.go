// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"bytes"
	"fmt"
	"io"
)

// headerReader is an implementation of io.Reader that allows the first bytes of
// the reader to be read twice. This is useful for identifying the archive type
// before unpacking.
type headerReader struct {
	r      io.Reader
	header []byte
}

func newHeaderReader(r io.Reader, headerSize int) (*headerReader, error) {
	// read at least headerSize bytes. If EOF, capture whatever was read.
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("cannot read header: %w", err)
	}
	return &headerReader{r, buf[:n]}, nil
}

func (p *headerReader) Read(b []byte) (int, error) {
	// read from header first
	if len(p.header) > 0 {
		n := copy(b, p.header)
		p.header = p.header[n:]
		return n, nil
	}

	// then continue reading from the source
	return p.r.Read(b)
}

func (p *headerReader) PeekHeader() []byte {
	return p.header
}

// matchesMagicBytes checks if data contains one of magicBytes at offset.
func matchesMagicBytes(data []byte, offset int, magicBytes [][]byte) bool {
	// check all possible magic bytes until match is found
	for _, mb := range magicBytes {
		// check if header is long enough
		if offset+len(mb) > len(data) {
			continue
		}

		// check for byte match
		if bytes.Equal(mb, data[offset:offset+len(mb)]) {
			return true
		}
	}

	// no match found
	return false
}

// maxHeaderLength is the number of bytes needed to detect every supported type.
var maxHeaderLength int

// init calculates the maximum header length
func init() {
	tables := []struct {
		offset int
		magic  [][]byte
	}{
		{0, magicBytesZip},
		{0, magicBytes7zip},
		{0, magicBytesRar},
		{offsetTar, magicBytesTar},
	}
	for _, d := range decompressors {
		tables = append(tables, struct {
			offset int
			magic  [][]byte
		}{0, d.magicBytes})
	}

	for _, tbl := range tables {
		for _, mb := range tbl.magic {
			if needs := tbl.offset + len(mb); needs > maxHeaderLength {
				maxHeaderLength = needs
			}
		}
	}
}
