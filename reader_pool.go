// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-quickextract/archive"
)

// readerPool hands out one archive reader per worker. Readers are not safe for
// concurrent use, so a reader is only ever used by the worker that opened it.
type readerPool struct {
	archive archive.Archive
	logger  logger
	opened  func() // called for every opened reader

	// slots is indexed by worker id, each slot is only touched by its worker
	slots []archive.Reader

	// all holds every opened reader for closeAll
	mu  sync.Mutex
	all []archive.Reader
}

func newReaderPool(a archive.Archive, workers int, l logger, opened func()) *readerPool {
	return &readerPool{
		archive: a,
		logger:  l,
		opened:  opened,
		slots:   make([]archive.Reader, workers),
	}
}

// get returns the reader of the worker, opening it on first use.
func (p *readerPool) get(workerID int) (archive.Reader, error) {
	if r := p.slots[workerID]; r != nil {
		return r, nil
	}

	r, err := p.archive.NewReader()
	if err != nil {
		return nil, fmt.Errorf("cannot open archive reader: %w", err)
	}
	p.slots[workerID] = r

	p.mu.Lock()
	p.all = append(p.all, r)
	p.mu.Unlock()

	if p.opened != nil {
		p.opened()
	}
	p.logger.Debug("opened archive reader", "worker", workerID)
	return r, nil
}

// closeAll closes every reader that was opened. Close failures are logged and
// otherwise ignored. Must not be called while workers use their readers.
func (p *readerPool) closeAll() {
	p.mu.Lock()
	all := p.all
	p.all = nil
	p.mu.Unlock()

	for _, r := range all {
		if err := r.Close(); err != nil {
			p.logger.Debug("cannot close archive reader", "error", err)
		}
	}
	clear(p.slots)
}
