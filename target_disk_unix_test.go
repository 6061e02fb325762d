// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build unix && !(linux && 386)

package quickextract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestUnixTimeval(t *testing.T) {
	tests := []struct {
		input time.Time
		want  unix.Timeval
	}{
		{
			time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			unix.Timeval{Sec: 0, Usec: 0},
		},
		{
			// Note: the single nanosecond is rounded up to the next microsecond.
			time.Date(1970, 1, 1, 0, 0, 0, 1, time.UTC),
			unix.Timeval{Sec: 0, Usec: 1},
		},
		{
			// Note: exactly 1 microsecond is not rounded up.
			time.Date(1970, 1, 1, 0, 0, 0, 1000, time.UTC),
			unix.Timeval{Sec: 0, Usec: 1},
		},
		{
			// Note: exactly 1 nanosecond past the microsecond is rounded up.
			time.Date(1970, 1, 1, 0, 0, 0, 1001, time.UTC),
			unix.Timeval{Sec: 0, Usec: 2},
		},
		{
			time.Date(1970, 1, 1, 0, 0, 1, 2000, time.UTC),
			unix.Timeval{Sec: 1, Usec: 2},
		},
	}

	for _, test := range tests {
		t.Run(test.input.String(), func(t *testing.T) {
			got := unixTimeval(test.input)
			if got != test.want {
				t.Errorf("unixTimeval(%v) = %v; want %v", test.input, got, test.want)
			}
		})
	}
}

func TestLchtimesDoesNotFollowSymlinks(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	link := filepath.Join(dir, "link")
	if err := os.WriteFile(file, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(file, link); err != nil {
		t.Fatal(err)
	}
	before, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}

	mtime := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	if err := NewTargetDisk().Lchtimes(link, mtime, mtime); err != nil {
		t.Fatalf("Lchtimes() error = %v", err)
	}

	linkStat, err := os.Lstat(link)
	if err != nil {
		t.Fatal(err)
	}
	if !linkStat.ModTime().Equal(mtime) {
		t.Errorf("link mod time = %v, want %v", linkStat.ModTime(), mtime)
	}
	after, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Errorf("link target mod time changed from %v to %v", before.ModTime(), after.ModTime())
	}
}
