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

package aggregator

import (
	"math"
	"sync"
)

// maxObservationMagnitude bounds accepted values so that x*x cannot
// overflow to +Inf inside a level block's sum-of-squares accumulator.
const maxObservationMagnitude = 1e153

// Stats is the read-only snapshot returned by Stats(k): count/min/max/avg/
// var/sum/last over the last 10^k accepted values for a symbol. Empty is
// true when the window has seen no values yet (count == 0); in that case
// Min/Max/Avg/Var/Last/Sum are all reported as 0.
type Stats struct {
	Count uint64
	Min   float64
	Max   float64
	Avg   float64
	Var   float64
	Sum   float64
	Last  float64
	Empty bool
}

// Aggregator is the per-symbol sliding-window statistics engine: it owns
// the circular buffer of recent values (capacity W_8 = 10^8), the 8 level
// statistics blocks, and the two monotonic windowed extremum indices (one
// for min, one for max). All mutating and read operations for one symbol
// are serialised through mu; Aggregator never holds the lock while doing
// I/O, because it never does I/O at all.
type Aggregator struct {
	mu sync.Mutex

	buf ring
	n   uint64 // current retained length, n <= capacity
	N   uint64 // next absolute index to assign

	levels [NumLevels + 1]levelBlock // 1-indexed; 0 unused
	min    *monotonicDeque
	max    *monotonicDeque

	lastValue float64
	hasLast   bool
}

// ErrIndexOverflow is the fatal invariant violation raised if the absolute
// index counter would wrap around. Under the documented workload (10^5
// inserts/second) this takes centuries to reach and is not expected to
// ever fire in production; it is total-on-input by construction everywhere
// else, so this is the only way AddBatch can fail.
type ErrIndexOverflow struct{}

func (ErrIndexOverflow) Error() string {
	return "aggregator: absolute index counter overflow"
}

// New creates a fresh, empty per-symbol aggregator.
func New() *Aggregator {
	a := &Aggregator{
		buf: *newRing(windowSize(NumLevels)),
		min: newMonotonicDeque(extremumMin),
		max: newMonotonicDeque(extremumMax),
	}
	for level := 1; level <= NumLevels; level++ {
		a.levels[level] = newLevelBlock(windowSize(level))
	}
	return a
}

// capacity is the top-level window size, W_8 = 10^8.
func (a *Aggregator) capacity() uint64 {
	return a.levels[NumLevels].window
}

// acceptable reports whether x is a value the aggregator will ingest: a
// finite float64 with magnitude no larger than maxObservationMagnitude.
// Non-finite or out-of-range values are silently skipped, never inserted,
// never counted.
func acceptable(x float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false
	}
	if x < 0 {
		return x >= -maxObservationMagnitude
	}
	return x <= maxObservationMagnitude
}

// AddBatch ingests values in order under the aggregator's exclusive lock.
// Non-finite values and values with |v| > 1e153 are skipped silently: they
// never advance the absolute index, never enter the ring, the level
// blocks, or the MWIs. AddBatch panics with ErrIndexOverflow only in the
// practically unreachable case that the absolute index counter would wrap.
func (a *Aggregator) AddBatch(values []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, v := range values {
		if !acceptable(v) {
			continue
		}
		if a.N == math.MaxUint64 {
			panic(ErrIndexOverflow{})
		}

		i := a.N

		// The top level's window equals the ring's own capacity, so the
		// value it evicts lives at the very ring slot i is about to
		// overwrite; it must be read before the write, not after.
		top := &a.levels[NumLevels]
		topWasFull := top.full()
		var topEvicted float64
		if topWasFull {
			topEvicted = a.buf.Read(i)
		}

		a.buf.Write(i, v)
		a.N++
		if a.n < a.capacity() {
			a.n++
		}
		a.lastValue = v
		a.hasLast = true

		a.min.Push(i, v)
		a.max.Push(i, v)

		for level := 1; level < NumLevels; level++ {
			blk := &a.levels[level]
			if blk.full() {
				evictIdx := i - blk.window
				blk.insert(v, a.buf.Read(evictIdx), true)
			} else {
				blk.insert(v, 0, false)
			}
		}
		if topWasFull {
			top.insert(v, topEvicted, true)
		} else {
			top.insert(v, 0, false)
		}
	}

	oldestKept := uint64(0)
	if a.N > a.n {
		oldestKept = a.N - a.n
	}
	a.min.Prune(oldestKept)
	a.max.Prune(oldestKept)
}

// Stats returns the count/min/max/avg/var/sum/last over the last 10^k
// accepted values, 1 <= k <= 8. Callers with k outside that range get the
// zero Stats{}; the HTTP layer is responsible for rejecting such requests
// with a 400 before ever calling Stats.
func (a *Aggregator) Stats(k int) Stats {
	if k < 1 || k > NumLevels {
		return Stats{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	blk := a.levels[k].snapshot()
	if blk.Count == 0 {
		return Stats{Empty: true}
	}

	w := windowSize(k)
	c8 := a.n
	minV, _ := a.min.ExtremumForWindow(k, w, a.N, c8)
	maxV, _ := a.max.ExtremumForWindow(k, w, a.N, c8)

	return Stats{
		Count: blk.Count,
		Min:   minV,
		Max:   maxV,
		Avg:   blk.Avg,
		Var:   blk.Var,
		Sum:   blk.Sum,
		Last:  a.lastValue,
	}
}
