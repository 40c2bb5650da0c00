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

package directory

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Housekeeper periodically logs a snapshot of the directory's size. It
// carries no eviction or persistence responsibility — symbols live for the
// lifetime of the process per this service's design — but every
// long-running in-memory service needs some periodic visibility into how
// many independent working sets it is holding.
type Housekeeper struct {
	dir      *Directory
	log      zerolog.Logger
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  uint32
}

// NewHousekeeper creates a Housekeeper that logs every interval.
func NewHousekeeper(dir *Directory, log zerolog.Logger, interval time.Duration) *Housekeeper {
	return &Housekeeper{
		dir:      dir,
		log:      log,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background reporting loop.
func (h *Housekeeper) Start() {
	if h.interval <= 0 {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.loop()
	}()
}

// Stop gracefully halts the reporting loop.
func (h *Housekeeper) Stop() {
	if !atomic.CompareAndSwapUint32(&h.stopped, 0, 1) {
		return
	}
	close(h.stopChan)
	h.wg.Wait()
}

func (h *Housekeeper) loop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.report()
		case <-h.stopChan:
			return
		}
	}
}

func (h *Housekeeper) report() {
	h.log.Info().
		Int("symbols_tracked", h.dir.Count()).
		Msg("directory snapshot")
}
