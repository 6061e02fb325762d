// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package quickextract

import (
	"fmt"
	"sync"
)

// singletonCell holds the value of one key. done is closed once value is set.
type singletonCell[V any] struct {
	done  chan struct{}
	value V
}

// singletonMap computes a value at most once per key, even if many goroutines
// ask for the same key at the same time. Callers that lose the race block
// until the first caller published its result.
type singletonMap[K comparable, V any] struct {
	cells sync.Map // K -> *singletonCell[V]
	spare sync.Pool

	// newInstance computes the value for a key
	newInstance func(K) (V, error)

	// failed is published if newInstance returns an error or panics
	failed V

	// onError is called with the error of a failed computation, may be nil
	onError func(K, error)
}

// newSingletonMap returns a map that computes values with newInstance and
// publishes failed if the computation does not succeed.
func newSingletonMap[K comparable, V any](newInstance func(K) (V, error), failed V) *singletonMap[K, V] {
	return &singletonMap[K, V]{
		newInstance: newInstance,
		failed:      failed,
		spare: sync.Pool{
			New: func() any {
				return &singletonCell[V]{done: make(chan struct{})}
			},
		},
	}
}

// getOrCreate returns the value for key, computing it if no other caller did
// so before. The result is cached and never recomputed.
func (m *singletonMap[K, V]) getOrCreate(key K) V {
	cell := m.spare.Get().(*singletonCell[V])
	actual, loaded := m.cells.LoadOrStore(key, cell)
	if loaded {
		// the cell was never published, so it can serve another key
		m.spare.Put(cell)
		existing := actual.(*singletonCell[V])
		<-existing.done
		return existing.value
	}

	m.compute(key, cell)
	return cell.value
}

// compute runs newInstance and publishes its result. The cell is published on
// every path, so waiters are released even if newInstance panics.
func (m *singletonMap[K, V]) compute(key K, cell *singletonCell[V]) {
	cell.value = m.failed
	defer close(cell.done)
	defer func() {
		if r := recover(); r != nil {
			m.reportError(key, fmt.Errorf("panic: %v", r))
		}
	}()

	v, err := m.newInstance(key)
	if err != nil {
		m.reportError(key, err)
		return
	}
	cell.value = v
}

func (m *singletonMap[K, V]) reportError(key K, err error) {
	if m.onError != nil {
		m.onError(key, err)
	}
}

// len returns the number of keys
func (m *singletonMap[K, V]) len() int {
	n := 0
	m.cells.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
