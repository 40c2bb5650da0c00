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

package metrics

import (
	"net/http/httptest"
	"testing"
	"time"
)

// These tests exist to make sure recording never panics and the endpoint
// serves something parseable; they do not assert on label cardinality.

func TestObserveBatch_DoesNotPanic(t *testing.T) {
	ObserveBatch(10, 2)
	ObserveBatch(0, 0)
}

func TestObserveLatencies_DoesNotPanic(t *testing.T) {
	ObserveAddBatchLatency(5 * time.Millisecond)
	ObserveStatsLatency(time.Microsecond)
}

func TestSetSymbolsTracked_DoesNotPanic(t *testing.T) {
	SetSymbolsTracked(0)
	SetSymbolsTracked(42)
}

func TestHandler_ServesPrometheusFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected 200 from metrics handler, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected non-empty metrics body")
	}
}
