// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build linux && 386

package quickextract

import (
	"time"

	"golang.org/x/sys/unix"
)

// lchtimes restores the times recorded in the archive on an extracted entry
// without following symlinks. Timeval fields are 32 bit on this platform.
func lchtimes(path string, atime, mtime time.Time) error {
	return unix.Lutimes(path, []unix.Timeval{
		{Sec: int32(atime.Unix()), Usec: int32(atime.Nanosecond() / 1e3)},
		{Sec: int32(mtime.Unix()), Usec: int32(mtime.Nanosecond() / 1e3)},
	})
}

// canMaintainSymlinkTimestamps reports that restored modification times are
// applied to the extracted entry itself, never to a symlink target.
const canMaintainSymlinkTimestamps = true
