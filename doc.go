// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package quickextract extracts archives with a pool of concurrent workers.
//
// [Unpack] enumerates the archive once and dispatches one task per entry to
// a fixed pool of workers. Each worker reads the archive through its own
// handle, directories are created exactly once no matter how many workers
// need them, and no entry can be written outside the destination. The run
// returns after every task has finished and all handles are closed.
//
// Configuration is done using the [Config], which is adjusted with options in
// the option pattern style. Per-entry failures are logged and counted in the
// [TelemetryData] passed to the configured [TelemetryHook]; only setup
// failures are returned to the caller.
package quickextract
