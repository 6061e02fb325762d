// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/dsnet/compress/bzip2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// testEntry describes an entry of a generated test archive
type testEntry struct {
	Name    string
	Content string
	Mode    fs.FileMode
	Dir     bool
}

var testModTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var testEntries = []testEntry{
	{Name: "x/", Dir: true, Mode: 0755},
	{Name: "x/y.txt", Content: "hi", Mode: 0640},
	{Name: "x/z/deep.txt", Content: "deep content", Mode: 0600},
	{Name: "top.txt", Content: "top level", Mode: 0644},
}

// createZip writes a zip archive with entries to a file in a temp directory
func createZip(t *testing.T, name string, entries []testEntry, method uint16) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: method, Modified: testModTime}
		if e.Dir {
			hdr.Method = zip.Store
			hdr.SetMode(fs.ModeDir | e.Mode)
		} else {
			hdr.SetMode(e.Mode)
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("cannot create zip header: %v", err)
		}
		if _, err := io.WriteString(w, e.Content); err != nil {
			t.Fatalf("cannot write zip content: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("cannot close zip writer: %v", err)
	}
	return writeTestFile(t, name, buf.Bytes())
}

// createTarBytes returns a tar archive with entries
func createTarBytes(t *testing.T, entries []testEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.Name,
			Mode:     int64(e.Mode),
			Size:     int64(len(e.Content)),
			ModTime:  testModTime,
			Typeflag: tar.TypeReg,
		}
		if e.Dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("cannot write tar header: %v", err)
		}
		if _, err := io.WriteString(tw, e.Content); err != nil {
			t.Fatalf("cannot write tar content: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("cannot close tar writer: %v", err)
	}
	return buf.Bytes()
}

// compressor creates a compressing writer
type compressor func(io.Writer) (io.WriteCloser, error)

var testCompressors = map[string]compressor{
	fileExtensionGZip: func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	},
	fileExtensionBzip2: func(w io.Writer) (io.WriteCloser, error) {
		return bzip2.NewWriter(w, nil)
	},
	fileExtensionXz: func(w io.Writer) (io.WriteCloser, error) {
		return xz.NewWriter(w)
	},
	fileExtensionZstd: func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	},
	fileExtensionLZ4: func(w io.Writer) (io.WriteCloser, error) {
		return lz4.NewWriter(w), nil
	},
	fileExtensionSnappy: func(w io.Writer) (io.WriteCloser, error) {
		return snappy.NewBufferedWriter(w), nil
	},
	fileExtensionZlib: func(w io.Writer) (io.WriteCloser, error) {
		return zlib.NewWriter(w), nil
	},
	fileExtensionBrotli: func(w io.Writer) (io.WriteCloser, error) {
		return brotli.NewWriter(w), nil
	},
}

// compress compresses data with c
func compress(t *testing.T, c compressor, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := c(&buf)
	if err != nil {
		t.Fatalf("cannot create compressor: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("cannot compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("cannot close compressor: %v", err)
	}
	return buf.Bytes()
}

// writeTestFile writes data to a file name in a new temp directory
func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("cannot write test file: %v", err)
	}
	return path
}

// readEntry reads the content of e with r
func readEntry(t *testing.T, r Reader, e Entry) string {
	t.Helper()
	rc, err := r.Open(e)
	if err != nil {
		t.Fatalf("cannot open entry %s: %v", e.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("cannot read entry %s: %v", e.Name, err)
	}
	return string(data)
}

// entryByName returns the entry with the given name
func entryByName(t *testing.T, a Archive, name string) Entry {
	t.Helper()
	for _, e := range a.Entries() {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("entry %s not found in %s archive", name, a.Type())
	return Entry{}
}

// checkTestEntries verifies that a contains testEntries and that every file can
// be read in reverse order with a single reader
func checkTestEntries(t *testing.T, a Archive, checkMode bool) {
	t.Helper()
	if got := len(a.Entries()); got != len(testEntries) {
		t.Fatalf("expected %d entries, got %d", len(testEntries), got)
	}

	r, err := a.NewReader()
	if err != nil {
		t.Fatalf("cannot open reader: %v", err)
	}
	defer r.Close()

	for i := len(testEntries) - 1; i >= 0; i-- {
		want := testEntries[i]
		e := entryByName(t, a, want.Name)
		if e.IsDir != want.Dir {
			t.Errorf("%s: expected dir %v, got %v", want.Name, want.Dir, e.IsDir)
		}
		if checkMode && (!e.HasMode || e.Mode != want.Mode) {
			t.Errorf("%s: expected mode %v, got %v (has mode %v)", want.Name, want.Mode, e.Mode, e.HasMode)
		}
		if want.Dir {
			continue
		}
		if e.Size != int64(len(want.Content)) {
			t.Errorf("%s: expected size %d, got %d", want.Name, len(want.Content), e.Size)
		}
		if got := readEntry(t, r, e); got != want.Content {
			t.Errorf("%s: expected content %q, got %q", want.Name, want.Content, got)
		}
	}
}
