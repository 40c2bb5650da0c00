// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package directory implements the symbol-to-aggregator lookup façade:
// concurrent readers and writers find a symbol's Aggregator with no global
// lock, while creation of a previously-unseen symbol is race-free (a
// double-insert race yields exactly one surviving instance). Mutual
// exclusion within one symbol's aggregator is entirely its own concern;
// the directory only ever holds a pointer to it.
package directory

import (
	"sync"
	"sync/atomic"
	"time"

	"streamstat/pkg/aggregator"
)

// managedAggregator wraps an Aggregator with the bookkeeping the directory
// needs for observability: the last time this symbol was referenced.
type managedAggregator struct {
	instance     *aggregator.Aggregator
	lastAccessed int64 // UnixNano, updated atomically on every access
}

// Directory maps symbol identifiers to their per-symbol Aggregator. It is
// safe for concurrent use by many goroutines; different symbols make
// progress independently of one another.
type Directory struct {
	symbols sync.Map // string -> *managedAggregator
}

// New creates an empty Directory.
func New() *Directory {
	return &Directory{}
}

// GetOrCreate returns the Aggregator for symbol, creating it on first
// reference. The fast path (symbol already present) performs no
// allocation; only a miss allocates a new Aggregator, and if another
// goroutine wins the creation race, the extra allocation is discarded and
// its instance is reused.
func (d *Directory) GetOrCreate(symbol string) *aggregator.Aggregator {
	now := time.Now().UnixNano()

	if actual, ok := d.symbols.Load(symbol); ok {
		m := actual.(*managedAggregator)
		atomic.StoreInt64(&m.lastAccessed, now)
		return m.instance
	}

	candidate := &managedAggregator{instance: aggregator.New(), lastAccessed: now}
	if actual, loaded := d.symbols.LoadOrStore(symbol, candidate); loaded {
		m := actual.(*managedAggregator)
		atomic.StoreInt64(&m.lastAccessed, now)
		return m.instance
	}
	return candidate.instance
}

// Lookup returns the Aggregator for symbol without creating one, and
// reports whether the symbol has ever been referenced. Used by the read
// path to decide between an empty-stats response and a real lookup.
func (d *Directory) Lookup(symbol string) (*aggregator.Aggregator, bool) {
	actual, ok := d.symbols.Load(symbol)
	if !ok {
		return nil, false
	}
	m := actual.(*managedAggregator)
	atomic.StoreInt64(&m.lastAccessed, time.Now().UnixNano())
	return m.instance, true
}

// Count returns the number of distinct symbols currently tracked.
func (d *Directory) Count() int {
	n := 0
	d.symbols.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// ForEach iterates every tracked symbol. Used by housekeeping only; never
// called from the request hot path.
func (d *Directory) ForEach(f func(symbol string, lastAccessed time.Time)) {
	d.symbols.Range(func(key, value any) bool {
		m := value.(*managedAggregator)
		last := atomic.LoadInt64(&m.lastAccessed)
		f(key.(string), time.Unix(0, last))
		return true
	})
}
