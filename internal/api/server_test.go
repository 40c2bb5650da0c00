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

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"streamstat/internal/directory"
)

func newTestServer() (*Server, *http.ServeMux) {
	s := NewServer(directory.New(), zerolog.Nop())
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s, mux
}

func postAddBatch(mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/add_batch/", bytes.NewBufferString(body))
	mux.ServeHTTP(rec, req)
	return rec
}

func getStats(mux *http.ServeMux, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleAddBatch_AcceptsWellFormedRequest(t *testing.T) {
	_, mux := newTestServer()
	rec := postAddBatch(mux, `{"symbol":"AAPL","values":[1,2,3]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleAddBatch_RejectsMalformedJSON(t *testing.T) {
	_, mux := newTestServer()
	rec := postAddBatch(mux, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleAddBatch_RejectsMissingSymbol(t *testing.T) {
	_, mux := newTestServer()
	rec := postAddBatch(mux, `{"values":[1,2,3]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleAddBatch_RejectsWrongMethod(t *testing.T) {
	_, mux := newTestServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/add_batch/", nil)
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandleStats_UnseenSymbolReturnsEmptyZeroedResponse(t *testing.T) {
	_, mux := newTestServer()
	rec := getStats(mux, "/stats/?symbol=NEW&k=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.Size != 0 {
		t.Fatalf("expected size 0 for unseen symbol, got %d", resp.Size)
	}
}

func TestHandleStats_ReflectsPriorAddBatch(t *testing.T) {
	_, mux := newTestServer()
	postAddBatch(mux, `{"symbol":"AAPL","values":[1,2,3,4,5]}`)
	rec := getStats(mux, "/stats/?symbol=AAPL&k=8")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.Size != 5 {
		t.Fatalf("expected size 5, got %d", resp.Size)
	}
	if resp.Min != 1 || resp.Max != 5 || resp.Last != 5 {
		t.Fatalf("unexpected stats: %+v", resp)
	}
	if resp.Avg != 3 {
		t.Fatalf("expected avg 3, got %f", resp.Avg)
	}
}

func TestHandleStats_RejectsMissingSymbol(t *testing.T) {
	_, mux := newTestServer()
	rec := getStats(mux, "/stats/?k=1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleStats_RejectsOutOfRangeK(t *testing.T) {
	_, mux := newTestServer()
	rec := getStats(mux, "/stats/?symbol=AAPL&k=9")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleStats_RejectsNonIntegerK(t *testing.T) {
	_, mux := newTestServer()
	rec := getStats(mux, "/stats/?symbol=AAPL&k=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleStats_RejectsWrongMethod(t *testing.T) {
	_, mux := newTestServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/stats/", nil)
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandleStats_DoesNotCreateSymbolOnLookup(t *testing.T) {
	s, mux := newTestServer()
	getStats(mux, "/stats/?symbol=GHOST&k=1")
	if s.dir.Count() != 0 {
		t.Fatalf("expected stats lookup of unseen symbol not to create it, got count %d", s.dir.Count())
	}
}
