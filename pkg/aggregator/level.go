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

// NumLevels is the number of fixed window levels, L ∈ {1..8}.
const NumLevels = 8

// windowSize returns W_L = 10^L for level L (1-indexed).
func windowSize(level int) uint64 {
	w := uint64(1)
	for i := 0; i < level; i++ {
		w *= 10
	}
	return w
}

// levelBlock is the on-line statistics accumulator for one fixed window
// size W_L. It tracks count, a compensated sum, and a compensated
// sum-of-squares, and evicts the oldest retained value once the window is
// full. Reads are O(1); eviction requires the ring buffer to supply the
// value leaving the window.
type levelBlock struct {
	window uint64
	count  uint64
	sum    compensatedSum
	sumSq  compensatedSum
}

func newLevelBlock(window uint64) levelBlock {
	return levelBlock{window: window}
}

// insert folds x into the block, evicting the value that falls out of the
// window (looked up by the caller via the ring buffer) once count reaches
// window capacity. full reports whether the block was already saturated
// before this insert (the caller uses this to decide whether an eviction
// value must be supplied).
func (b *levelBlock) full() bool {
	return b.count >= b.window
}

func (b *levelBlock) insert(x float64, evicted float64, hadEviction bool) {
	if hadEviction {
		b.sum.Sub(evicted)
		b.sumSq.Sub(evicted * evicted)
	} else {
		b.count++
	}
	b.sum.Add(x)
	b.sumSq.Add(x * x)
}

// LevelStats is the read-only snapshot of a level block.
type LevelStats struct {
	Count uint64
	Sum   float64
	Avg   float64
	Var   float64
}

// snapshot returns the current count/sum/avg/var. Avg and Var are zero
// when Count is zero (an empty window).
func (b *levelBlock) snapshot() LevelStats {
	if b.count == 0 {
		return LevelStats{}
	}
	n := float64(b.count)
	sum := b.sum.Value()
	sumSq := b.sumSq.Value()
	avg := sum / n
	v := sumSq/n - avg*avg
	if v < 0 {
		v = 0
	}
	return LevelStats{Count: b.count, Sum: sum, Avg: avg, Var: v}
}
