// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"encoding/base64"
	"testing"
)

// testRarArchiveBase64 contains the entries file, link (a symlink to file) and dir
var testRarArchiveBase64 = "UmFyIRoHAQAzkrXlCgEFBgAFAQGAgACUHbvqIgIDC50ABJ0ApIMCPs+7qoAAAQRmaWxlCgMTxA3XZsR7EA5EaSAgMyBTZXAgMjAyNCAxNToyMzoxNiBDRVNUCpbhsN0pAgMUAAQE7cMCAAAAAIAAAQRsaW5rCgMTyQ3XZizK2TQIBQEABGZpbGVVBY+/GwIDCwABAO2DAYAAAQNkaXIKAxO3DddmazZtHx13VlEDBQQA"

// TestIsRar tests the isRar function
func TestIsRar(t *testing.T) {
	tests := []struct {
		header []byte
		want   bool
	}{
		{[]byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00}, true},
		{[]byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00}, true},
		{[]byte{0x00, 0x00, 0x00, 0x00}, false},
	}
	for _, tt := range tests {
		if got := isRar(tt.header); got != tt.want {
			t.Errorf("isRar(%v) = %v; want %v", tt.header, got, tt.want)
		}
	}
}

func TestOpenRar(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString(testRarArchiveBase64)
	if err != nil {
		t.Fatalf("Error decoding base64 string: %v", err)
	}

	a, err := Open(writeTestFile(t, "test.rar", data))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()

	if a.Type() != fileExtensionRar {
		t.Errorf("Type() = %s, want %s", a.Type(), fileExtensionRar)
	}

	file := entryByName(t, a, "file")
	if file.IsDir {
		t.Errorf("file must not be a directory")
	}
	if dir := entryByName(t, a, "dir"); !dir.IsDir {
		t.Errorf("dir must be a directory")
	}

	r, err := a.NewReader()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	// the second read walks backwards and forces the handle to restart
	first := readEntry(t, r, file)
	if int64(len(first)) != file.Size {
		t.Errorf("read %d bytes, want %d", len(first), file.Size)
	}
	if second := readEntry(t, r, file); second != first {
		t.Errorf("reopened content = %q, want %q", second, first)
	}
}
