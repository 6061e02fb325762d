// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"encoding/hex"
	"testing"
)

// test7zipArchiveHex contains the entry test/data with the content "Hello World!"
const test7zipArchiveHex = "377abcaf271c00049af18e7973000000000000002000000000000000a7e80f9801000b48656c6c6f20576f726c6421000000813307ae0fcef2b20c07c8437f41b1fafddb88b6d7636b8bd58a0e24a2f717a5f156e37f41fd00833298421d5d088c0cf987b30c0473663599e4d2f21cb69620038f10458109662135c3024189f42799abe3227b174a853e824f808b2efaab000017061001096300070b01000123030101055d001000000c760a015bcfa0a70000"

// TestIs7zip tests the is7zip function
func TestIs7zip(t *testing.T) {
	tests := []struct {
		header []byte
		want   bool
	}{
		{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, true},
		{[]byte{0x00, 0x00, 0x00, 0x00}, false},
	}
	for _, tt := range tests {
		if got := is7zip(tt.header); got != tt.want {
			t.Errorf("is7zip(%v) = %v; want %v", tt.header, got, tt.want)
		}
	}
}

func TestOpenSevenZip(t *testing.T) {
	data, err := hex.DecodeString(test7zipArchiveHex)
	if err != nil {
		t.Fatal(err)
	}

	a, err := Open(writeTestFile(t, "test.7z", data))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()

	if a.Type() != fileExtension7zip {
		t.Errorf("Type() = %s, want %s", a.Type(), fileExtension7zip)
	}

	e := entryByName(t, a, "test/data")
	if e.IsDir {
		t.Errorf("test/data must not be a directory")
	}

	// read twice with the same handle to check that entries can be reopened
	r, err := a.NewReader()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	for i := 0; i < 2; i++ {
		if got := readEntry(t, r, e); got != "Hello World!" {
			t.Errorf("content = %q, want %q", got, "Hello World!")
		}
	}
}
