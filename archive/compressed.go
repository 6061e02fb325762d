// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/dsnet/compress/bzip2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// file extensions of the supported compression formats
const (
	fileExtensionBrotli = "br"
	fileExtensionBzip2  = "bz2"
	fileExtensionGZip   = "gz"
	fileExtensionLZ4    = "lz4"
	fileExtensionSnappy = "sz"
	fileExtensionXz     = "xz"
	fileExtensionZlib   = "zz"
	fileExtensionZstd   = "zst"
)

// decompressionFunc returns a reader that decompresses src
type decompressionFunc func(src io.Reader) (io.Reader, error)

// decompressor describes a compression format
type decompressor struct {
	fileExt    string
	magicBytes [][]byte
	decompress decompressionFunc
}

// headerCheck reports if header starts with the magic bytes of the format
func (d decompressor) headerCheck(header []byte) bool {
	return matchesMagicBytes(header, 0, d.magicBytes)
}

// brotliDecompressor is detected by file extension only, because the brotli
// magic bytes are not unique
var brotliDecompressor = decompressor{
	fileExt: fileExtensionBrotli,
	decompress: func(src io.Reader) (io.Reader, error) {
		return brotli.NewReader(src), nil
	},
}

// decompressors is the list of compression formats detected by magic bytes
var decompressors = []decompressor{
	{
		fileExt: fileExtensionGZip,
		// https://socketloop.com/tutorials/golang-gunzip-file
		magicBytes: [][]byte{{0x1f, 0x8b}},
		decompress: func(src io.Reader) (io.Reader, error) {
			return gzip.NewReader(src)
		},
	},
	{
		fileExt: fileExtensionBzip2,
		// reference: https://github.com/dsnet/compress/blob/master/doc/bzip2-format.pdf
		magicBytes: [][]byte{
			[]byte("BZh1"), []byte("BZh2"), []byte("BZh3"),
			[]byte("BZh4"), []byte("BZh5"), []byte("BZh6"),
			[]byte("BZh7"), []byte("BZh8"), []byte("BZh9"),
		},
		decompress: func(src io.Reader) (io.Reader, error) {
			return bzip2.NewReader(src, nil)
		},
	},
	{
		fileExt: fileExtensionXz,
		// reference https://tukaani.org/xz/xz-file-format-1.0.4.txt
		magicBytes: [][]byte{{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}},
		decompress: func(src io.Reader) (io.Reader, error) {
			return xz.NewReader(src)
		},
	},
	{
		fileExt: fileExtensionZstd,
		// reference: https://www.rfc-editor.org/rfc/rfc8878.html
		magicBytes: [][]byte{{0x28, 0xb5, 0x2f, 0xfd}},
		decompress: func(src io.Reader) (io.Reader, error) {
			zr, err := zstd.NewReader(src)
			if err != nil {
				return nil, err
			}
			return zr.IOReadCloser(), nil
		},
	},
	{
		fileExt: fileExtensionLZ4,
		// reference https://github.com/lz4/lz4/blob/dev/doc/lz4_Frame_format.md
		magicBytes: [][]byte{{0x04, 0x22, 0x4D, 0x18}},
		decompress: func(src io.Reader) (io.Reader, error) {
			return lz4.NewReader(src), nil
		},
	},
	{
		fileExt: fileExtensionSnappy,
		// reference https://github.com/google/snappy/blob/main/framing_format.txt
		magicBytes: [][]byte{{0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50, 0x70, 0x59}},
		decompress: func(src io.Reader) (io.Reader, error) {
			return snappy.NewReader(src), nil
		},
	},
	{
		fileExt: fileExtensionZlib,
		// reference https://www.ietf.org/rfc/rfc1950.txt
		magicBytes: [][]byte{
			{0x78, 0x01}, {0x78, 0x5e}, {0x78, 0x9c}, {0x78, 0xda},
			{0x78, 0x20}, {0x78, 0x7d}, {0x78, 0xbb}, {0x78, 0xf9},
		},
		decompress: func(src io.Reader) (io.Reader, error) {
			return zlib.NewReader(src)
		},
	},
}

const (
	// defaultDecompressionName is the default name for the decompressed content
	defaultDecompressionName = "quickextract-decompressed-content"

	// defaultDecompressedSuffix is the suffix for the decompressed content if
	// the filename does not end with the file extension
	defaultDecompressedSuffix = "decompressed"
)

// openCompressed decompresses the file at path into a spool file. If the
// payload is a tar archive, it is indexed as such, otherwise the payload is
// exposed as a single entry.
func openCompressed(path string, d decompressor, o *options) (Archive, error) {
	spool, size, err := spoolDecompressed(path, d, o)
	if err != nil {
		return nil, err
	}

	header, err := readHeader(spool, maxHeaderLength)
	if err != nil {
		removeSpool(spool)
		return nil, err
	}

	if isTar(header) {
		a, err := openTar(spool, fmt.Sprintf("%s.%s", fileExtensionTar, d.fileExt), spool, o)
		if err != nil {
			removeSpool(spool)
			return nil, err
		}
		return a, nil
	}

	var modTime time.Time
	if stat, err := os.Stat(path); err == nil {
		modTime = stat.ModTime()
	}
	return &singleFileArchive{
		typ:   d.fileExt,
		spool: spool,
		entry: Entry{
			Name:    decompressedName(filepath.Base(path), d.fileExt),
			Size:    size,
			ModTime: modTime,
		},
	}, nil
}

// spoolDecompressed writes the decompressed content of path into a temp file
// and returns its name and size.
func spoolDecompressed(path string, d decompressor, o *options) (string, int64, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("cannot open compressed file: %w", err)
	}
	defer src.Close()

	dec, err := d.decompress(src)
	if err != nil {
		return "", 0, fmt.Errorf("cannot start decompression: %w", err)
	}
	defer func() {
		if closer, ok := dec.(io.Closer); ok {
			closer.Close()
		}
	}()

	tmpFile, err := os.CreateTemp(o.tempDir, "quickextract-*")
	if err != nil {
		return "", 0, fmt.Errorf("cannot create spool file: %w", err)
	}
	defer tmpFile.Close()

	n, err := io.Copy(tmpFile, newLimitErrorReader(dec, o.maxDecompressedSize))
	if err != nil {
		removeSpool(tmpFile.Name())
		return "", 0, fmt.Errorf("cannot decompress %s: %w", d.fileExt, err)
	}
	o.logger.Debug("decompressed input", "type", d.fileExt, "size", n, "spool", tmpFile.Name())
	return tmpFile.Name(), n, nil
}

// removeSpool deletes a spool file, ignoring files that are already gone
func removeSpool(name string) error {
	if len(name) == 0 {
		return nil
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot remove spool file: %w", err)
	}
	return nil
}

// decompressedName strips the compression suffix from the input name. If the
// input does not end with the suffix, a generic suffix is appended.
func decompressedName(inputName string, fileExt string) string {
	suffix := "." + fileExt
	newName := inputName
	if strings.HasSuffix(strings.ToLower(inputName), suffix) {
		newName = inputName[:len(inputName)-len(suffix)]
	}
	if newName == inputName {
		newName = fmt.Sprintf("%s.%s", inputName, defaultDecompressedSuffix)
	}
	if newName == "" || strings.HasPrefix(newName, ".") {
		return defaultDecompressionName
	}
	return newName
}

// singleFileArchive is a compressed file without archive structure
type singleFileArchive struct {
	typ   string
	spool string
	entry Entry
}

// Type returns the compression format
func (s *singleFileArchive) Type() string {
	return s.typ
}

// Entries returns the single decompressed entry
func (s *singleFileArchive) Entries() []Entry {
	return []Entry{s.entry}
}

// NewReader opens an independent handle on the spool file
func (s *singleFileArchive) NewReader() (Reader, error) {
	f, err := os.Open(s.spool)
	if err != nil {
		return nil, fmt.Errorf("cannot open spool file: %w", err)
	}
	return &sectionReader{f: f}, nil
}

// Close removes the spool file
func (s *singleFileArchive) Close() error {
	return removeSpool(s.spool)
}
