// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestDirCache(t Target, root string, out *syncBuffer) (*dirCache, *telemetryCollector) {
	telemetry := newTelemetryCollector()
	progress := newProgressPrinter(out, root, true)
	return newDirCache(t, 0755, progress, defaultLogger, telemetry), telemetry
}

func TestDirCacheCreatesOnce(t *testing.T) {
	root := t.TempDir()
	target := newCountingTarget(2 * time.Millisecond)
	out := &syncBuffer{}
	cache, telemetry := newTestDirCache(target, root, out)

	dirs := []string{
		filepath.Join(root, "a"),
		filepath.Join(root, "a", "b"),
		filepath.Join(root, "a", "b", "c"),
		filepath.Join(root, "x", "y"),
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := range dirs {
				// walk the keys in different orders and with unclean paths
				dir := dirs[(i+j)%len(dirs)]
				if i%2 == 0 {
					dir += string(filepath.Separator)
				}
				if !cache.getOrCreate(dir) {
					t.Errorf("getOrCreate(%s) = false", dir)
				}
			}
		}(i)
	}
	wg.Wait()

	for _, dir := range dirs {
		if n := target.calls(dir); n > 1 {
			t.Errorf("CreateDir(%s) called %d times", dir, n)
		}
		if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
			t.Errorf("%s is not a directory: %v", dir, err)
		}
	}
	if telemetry.errors.Load() != 0 {
		t.Errorf("unexpected errors: %d", telemetry.errors.Load())
	}
	if !strings.Contains(out.String(), "Creating: x/y/") {
		t.Errorf("expected progress for x/y/, got:\n%s", out.String())
	}
}

func TestDirCacheExistingFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")
	if err := os.WriteFile(file, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	out := &syncBuffer{}
	cache, telemetry := newTestDirCache(NewTargetDisk(), root, out)

	if cache.getOrCreate(file) {
		t.Errorf("getOrCreate() = true for a regular file")
	}
	if cache.getOrCreate(filepath.Join(file, "sub")) {
		t.Errorf("getOrCreate() = true below a regular file")
	}

	data, err := os.ReadFile(file)
	if err != nil || string(data) != "data" {
		t.Errorf("file was modified: %q, %v", data, err)
	}
	if !strings.Contains(out.String(), "Already exists: file/") {
		t.Errorf("expected progress for file/, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Cannot create: file/sub/") {
		t.Errorf("expected progress for file/sub/, got:\n%s", out.String())
	}
	if telemetry.errors.Load() != 2 {
		t.Errorf("errors = %d, want 2", telemetry.errors.Load())
	}
}

func TestDirCacheExistingDir(t *testing.T) {
	root := t.TempDir()
	target := newCountingTarget(0)
	out := &syncBuffer{}
	cache, telemetry := newTestDirCache(target, root, out)

	if !cache.getOrCreate(root) {
		t.Fatalf("getOrCreate(root) = false")
	}
	if target.total.Load() != 0 {
		t.Errorf("CreateDir called for an existing directory")
	}
	if out.String() != "" {
		t.Errorf("unexpected progress output: %q", out.String())
	}
	if telemetry.dirs.Load() != 0 {
		t.Errorf("existing directory counted as created")
	}
}

func TestDirCacheCreateFailsButDirExists(t *testing.T) {
	root := t.TempDir()
	out := &syncBuffer{}
	cache, telemetry := newTestDirCache(&lateTarget{TargetDisk: NewTargetDisk()}, root, out)

	var sinkCalls int
	cache.m.onError = func(string, error) { sinkCalls++ }

	dir := filepath.Join(root, "a", "b")
	if !cache.getOrCreate(dir) {
		t.Fatalf("getOrCreate() = false for a directory that exists after a failed create")
	}
	if sinkCalls != 0 {
		t.Errorf("error sink called %d times", sinkCalls)
	}
	if telemetry.dirs.Load() != 0 {
		t.Errorf("dirs = %d, a directory created by someone else was counted", telemetry.dirs.Load())
	}
	if telemetry.errors.Load() != 0 {
		t.Errorf("errors = %d, want 0", telemetry.errors.Load())
	}
	if strings.Contains(out.String(), labelCannotCreate) {
		t.Errorf("unexpected progress output:\n%s", out.String())
	}
}
