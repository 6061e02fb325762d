// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build unix && !(linux && 386)

package quickextract

import (
	"time"

	"golang.org/x/sys/unix"
)

// lchtimes restores the times recorded in the archive on an extracted entry.
// A symlink at path is changed itself, its target stays untouched.
func lchtimes(path string, atime, mtime time.Time) error {
	return unix.Lutimes(path, []unix.Timeval{
		unixTimeval(atime),
		unixTimeval(mtime),
	})
}

// unixTimeval converts t with microsecond precision, the resolution of
// Lutimes. Sub-microsecond remainders are rounded by unix.NsecToTimeval.
func unixTimeval(t time.Time) unix.Timeval {
	return unix.NsecToTimeval(t.UnixNano())
}

// canMaintainSymlinkTimestamps reports that restored modification times are
// applied to the extracted entry itself, never to a symlink target.
const canMaintainSymlinkTimestamps = true
