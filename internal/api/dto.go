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

// addBatchRequest is the JSON body of POST /add_batch/.
type addBatchRequest struct {
	Symbol string    `json:"symbol"`
	Values []float64 `json:"values"`
}

// statsResponse is the JSON body of GET /stats/: min, max, last, avg, var,
// size. An empty window (size == 0) reports zero-valued sentinels for the
// rest.
type statsResponse struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Last float64 `json:"last"`
	Avg  float64 `json:"avg"`
	Var  float64 `json:"var"`
	Size uint64  `json:"size"`
}
