// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
)

// progress labels, right aligned in a column of labelWidth
const (
	labelAlreadyExists = "Already exists:"
	labelBadPath       = "Bad path:"
	labelCannotCreate  = "Cannot create:"
	labelCannotExtract = "Cannot extract:"
	labelCreating      = "Creating:"
	labelExtracting    = "Extracting:"
	labelInvalidPath   = "Invalid path:"

	labelWidth = 15
)

// progressPrinter writes one line per directory and file. Lines of concurrent
// workers never interleave.
type progressPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	root    string
	enabled bool
}

func newProgressPrinter(w io.Writer, root string, enabled bool) *progressPrinter {
	return &progressPrinter{w: w, root: root, enabled: enabled}
}

// printf writes a free form line
func (p *progressPrinter) printf(format string, args ...interface{}) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format+"\n", args...)
}

// entry writes label and an entry name
func (p *progressPrinter) entry(label string, name string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%*s %s\n", labelWidth, label, name)
}

// dir writes label and the path of dir relative to the destination root
func (p *progressPrinter) dir(label string, dir string) {
	if !p.enabled {
		return
	}
	rel, err := filepath.Rel(p.root, dir)
	if err != nil {
		rel = dir
	}
	p.entry(label, filepath.ToSlash(rel)+"/")
}
