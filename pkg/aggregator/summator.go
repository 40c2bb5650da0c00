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

// Package aggregator provides the in-memory, per-symbol sliding-window
// statistics engine: a bounded ring of recent observations paired with
// on-line numerically-stable accumulators and monotonic-deque extremum
// indices. It is the hard, design-dense core of the service; transport,
// directory lookup, logging, and configuration are deliberately kept out
// of this package.
package aggregator

// compensatedSum implements Kahan–Neumaier improved compensated summation.
// It supports Add and Sub of finite float64 values and reports a running
// sum accurate well beyond plain float64 accumulation. The reported value
// is recomputed fresh on every read (s + c), never cached, so Value is
// always consistent with the most recent Add/Sub.
type compensatedSum struct {
	s float64 // running sum
	c float64 // compensation term
}

// Add folds x into the running sum.
func (k *compensatedSum) Add(x float64) {
	t := k.s + x
	if absFloat(k.s) >= absFloat(x) {
		k.c += (k.s - t) + x
	} else {
		k.c += (x - t) + k.s
	}
	k.s = t
}

// Sub removes x's contribution from the running sum.
func (k *compensatedSum) Sub(x float64) {
	k.Add(-x)
}

// Value returns the current compensated sum.
func (k *compensatedSum) Value() float64 {
	return k.s + k.c
}

// Reset zeroes the accumulator, as if newly constructed.
func (k *compensatedSum) Reset() {
	k.s = 0
	k.c = 0
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
