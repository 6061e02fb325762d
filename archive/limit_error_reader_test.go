// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReadBytes(t *testing.T) {
	tests := []struct {
		name       string
		limit      int64
		input      string
		bufferSize int
		expectN    int64
	}{
		{
			name:       "Under limit",
			limit:      10,
			input:      "12345",
			bufferSize: 5,
			expectN:    5,
		},
		{
			name:       "At limit",
			limit:      5,
			input:      "12345",
			bufferSize: 5,
			expectN:    5,
		},
		{
			name:       "Over limit",
			limit:      4,
			input:      "12345",
			bufferSize: 5,
			expectN:    4,
		},
		{
			name:       "Under limit with buffer",
			limit:      10,
			input:      "12345",
			bufferSize: 2,
			expectN:    2,
		},
		{
			name:       "Unlimited",
			limit:      -1,
			input:      "12345",
			bufferSize: 5,
			expectN:    5,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			l := newLimitErrorReader(strings.NewReader(test.input), test.limit)
			buf := make([]byte, test.bufferSize)
			n, err := l.Read(buf)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if int64(n) != test.expectN {
				t.Errorf("Read() = %v, want %v", n, test.expectN)
			}
			if l.ReadBytes() != test.expectN {
				t.Errorf("ReadBytes() = %v, want %v", l.ReadBytes(), test.expectN)
			}
		})
	}
}

// TestLimitErrorReader_ReadAll tests that draining the reader only fails if
// the input is larger than the limit
func TestLimitErrorReader_ReadAll(t *testing.T) {
	tests := []struct {
		name      string
		limit     int64
		input     string
		expectErr error
	}{
		{
			name:  "Under limit",
			limit: 10,
			input: "12345",
		},
		{
			name:  "At limit",
			limit: 5,
			input: "12345",
		},
		{
			name:      "Over limit",
			limit:     4,
			input:     "12345",
			expectErr: ErrMaxDecompressedSizeExceeded,
		},
		{
			name:      "Empty limit",
			limit:     0,
			input:     "1",
			expectErr: ErrMaxDecompressedSizeExceeded,
		},
		{
			name:  "Unlimited",
			limit: -1,
			input: strings.Repeat("x", 1<<16),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			l := newLimitErrorReader(strings.NewReader(test.input), test.limit)
			data, err := io.ReadAll(l)
			if !errors.Is(err, test.expectErr) {
				t.Fatalf("ReadAll() error = %v, want %v", err, test.expectErr)
			}
			if test.expectErr == nil && string(data) != test.input {
				t.Errorf("ReadAll() returned %d bytes, want %d", len(data), len(test.input))
			}
		})
	}
}
