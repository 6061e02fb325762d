// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"bytes"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"
)

// countingTarget counts CreateDir calls per path and can slow them down to
// widen race windows
type countingTarget struct {
	*TargetDisk
	delay time.Duration

	mu       sync.Mutex
	dirCalls map[string]int
	total    atomic.Int64
}

func newCountingTarget(delay time.Duration) *countingTarget {
	return &countingTarget{TargetDisk: NewTargetDisk(), delay: delay, dirCalls: map[string]int{}}
}

func (c *countingTarget) CreateDir(path string, mode fs.FileMode) error {
	c.total.Add(1)
	c.mu.Lock()
	c.dirCalls[path]++
	c.mu.Unlock()
	time.Sleep(c.delay)
	return c.TargetDisk.CreateDir(path, mode)
}

func (c *countingTarget) calls(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirCalls[path]
}

// syncBuffer is a bytes.Buffer safe for concurrent writers
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = &syncBuffer{}

// lateTarget creates directories like a concurrent creator would and still
// reports failure, as MkdirAll does when it loses a race
type lateTarget struct {
	*TargetDisk
}

func (l *lateTarget) CreateDir(path string, mode fs.FileMode) error {
	if err := l.TargetDisk.CreateDir(path, mode); err != nil {
		return err
	}
	return fs.ErrExist
}
