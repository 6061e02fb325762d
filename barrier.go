// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import "errors"

// completionBarrier collects the futures of all dispatched tasks
type completionBarrier struct {
	futures []*future
}

func newCompletionBarrier(capacity int) *completionBarrier {
	return &completionBarrier{futures: make([]*future, 0, capacity)}
}

// add registers f. Not safe for concurrent use, tasks are dispatched by a
// single goroutine.
func (b *completionBarrier) add(f *future) {
	b.futures = append(b.futures, f)
}

// await blocks until every registered task finished, successful or not, and
// returns the joined task errors.
func (b *completionBarrier) await() error {
	var errs []error
	for _, f := range b.futures {
		if err := f.wait(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
