// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TelemetryData holds all telemetry data of an extraction run.
type TelemetryData struct {
	// RunID identifies the extraction run
	RunID string `json:"run_id"`

	// Entries is the number of extractable entries in the archive
	Entries int64 `json:"entries"`

	// ExtractedDirs is the number of created directories
	ExtractedDirs int64 `json:"extracted_dirs"`

	// ExtractionDuration is the time it took to extract the archive
	ExtractionDuration time.Duration `json:"extraction_duration"`

	// ExtractionErrors is the number of entries that failed
	ExtractionErrors int64 `json:"extraction_errors"`

	// ExtractedFiles is the number of extracted files
	ExtractedFiles int64 `json:"extracted_files"`

	// ExtractionSize is the size of the extracted files
	ExtractionSize int64 `json:"extraction_size"`

	// ExtractedType is the type of the archive
	ExtractedType string `json:"extracted_type"`

	// InputSize is the size of the input
	InputSize int64 `json:"input_size"`

	// LastExtractionError is the last error during extraction
	LastExtractionError error `json:"last_extraction_error"`

	// PatternMismatches is the number of skipped files
	PatternMismatches int64 `json:"pattern_mismatches"`

	// ReadersOpened is the number of archive handles opened by workers
	ReadersOpened int64 `json:"readers_opened"`

	// SkippedEntries is the number of files skipped because they already
	// exist in the destination
	SkippedEntries int64 `json:"skipped_entries"`

	// Workers is the size of the worker pool
	Workers int `json:"workers"`
}

// String returns a string representation of [TelemetryData].
func (m TelemetryData) String() string {
	b, _ := json.Marshal(m)
	return string(b)
}

// MarshalJSON implements the [encoding/json.Marshaler] interface.
func (m TelemetryData) MarshalJSON() ([]byte, error) {
	var lastError string
	if m.LastExtractionError != nil {
		lastError = m.LastExtractionError.Error()
	}

	type Alias TelemetryData
	return json.Marshal(&struct {
		LastExtractionError string `json:"last_extraction_error"`
		*Alias
	}{
		LastExtractionError: lastError,
		Alias:               (*Alias)(&m),
	})
}

// TelemetryHook is a function type that performs operations on [TelemetryData]
// after an extraction has finished which can be used to submit the [TelemetryData]
// to a telemetry service, for example.
type TelemetryHook func(context.Context, *TelemetryData)

// Equals returns true if the given [TelemetryData] is equal to the receiver.
// The run id and the duration are not compared.
func (td *TelemetryData) Equals(other *TelemetryData) bool {
	if td == nil && other == nil {
		return true
	}
	if td == nil || other == nil {
		return false
	}
	return td.Entries == other.Entries &&
		td.ExtractedDirs == other.ExtractedDirs &&
		td.ExtractionErrors == other.ExtractionErrors &&
		td.ExtractedFiles == other.ExtractedFiles &&
		td.ExtractionSize == other.ExtractionSize &&
		td.ExtractedType == other.ExtractedType &&
		td.InputSize == other.InputSize &&
		td.PatternMismatches == other.PatternMismatches &&
		td.ReadersOpened == other.ReadersOpened &&
		td.SkippedEntries == other.SkippedEntries &&
		td.Workers == other.Workers
}

// telemetryCollector gathers counters from concurrent workers
type telemetryCollector struct {
	runID     string
	start     time.Time
	typ       string
	inputSize int64
	entries   int64
	workers   int

	dirs              atomic.Int64
	files             atomic.Int64
	size              atomic.Int64
	errors            atomic.Int64
	patternMismatches atomic.Int64
	readers           atomic.Int64
	skipped           atomic.Int64

	mu      sync.Mutex
	lastErr error
}

// newTelemetryCollector starts collecting for a new run
func newTelemetryCollector() *telemetryCollector {
	return &telemetryCollector{
		runID: uuid.NewString(),
		start: time.Now(),
	}
}

// recordError counts a failed entry and remembers err
func (c *telemetryCollector) recordError(err error) {
	c.errors.Add(1)
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

// snapshot returns the collected data
func (c *telemetryCollector) snapshot() *TelemetryData {
	c.mu.Lock()
	lastErr := c.lastErr
	c.mu.Unlock()
	return &TelemetryData{
		RunID:               c.runID,
		Entries:             c.entries,
		ExtractedDirs:       c.dirs.Load(),
		ExtractionDuration:  time.Since(c.start),
		ExtractionErrors:    c.errors.Load(),
		ExtractedFiles:      c.files.Load(),
		ExtractionSize:      c.size.Load(),
		ExtractedType:       c.typ,
		InputSize:           c.inputSize,
		LastExtractionError: lastErr,
		PatternMismatches:   c.patternMismatches.Load(),
		ReadersOpened:       c.readers.Load(),
		SkippedEntries:      c.skipped.Load(),
		Workers:             c.workers,
	}
}
