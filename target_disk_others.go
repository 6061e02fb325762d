// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package quickextract

import (
	"fmt"
	"runtime"
	"time"
)

// lchtimes is unavailable without unix.Lutimes, callers check
// canMaintainSymlinkTimestamps first.
func lchtimes(_ string, _, _ time.Time) error {
	return fmt.Errorf("restoring modification times without following symlinks is not supported on %s", runtime.GOOS)
}

// canMaintainSymlinkTimestamps is false, TargetDisk.Lchtimes falls back to
// os.Chtimes on this platform.
const canMaintainSymlinkTimestamps = false
