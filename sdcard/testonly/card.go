// Copyright 2026 Google LLC. All Rights Reserved.
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

package testonly

import (
	"testing"

	"github.com/google/m65hal/dma"
	"github.com/google/m65hal/hal"
	"github.com/google/m65hal/internal/sim"
	"github.com/google/m65hal/sdcard"
)

// Card bundles a driver with the simulated machine it runs on.
type Card struct {
	Driver  *sdcard.Driver
	Machine *sim.Machine
	Engine  *dma.Engine
	Dev     MemDev
}

// Options returns driver options with limits small enough for tests.
func Options() sdcard.Options {
	o := sdcard.DefaultOptions()
	o.PollLimit = 64
	o.ResetPollLimit = 64
	o.WritePollLimit = 64
	o.WriteKicks = 1
	o.KickDelayMicros = 128
	o.ProbeDelayMicros = 128
	return o
}

// NewCard returns a driver for a simulated card of numBlocks sectors. The
// card type has not been probed yet.
func NewCard(t *testing.T, numBlocks uint, highCapacity bool) *Card {
	t.Helper()
	dev := NewMemDev(t, numBlocks)
	m, err := sim.NewMachine(hal.TargetMEGA65R3, sim.NewSDCard(dev, numBlocks, highCapacity))
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	e, err := dma.NewEngine(m, dma.DefaultLayout)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	d, err := sdcard.New(sdcard.NewRegisterBackend(m, e), Options())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &Card{Driver: d, Machine: m, Engine: e, Dev: dev}
}

// NewProbedCard is NewCard followed by a successful ProbeCapacity.
func NewProbedCard(t *testing.T, numBlocks uint, highCapacity bool) *Card {
	t.Helper()
	c := NewCard(t, numBlocks, highCapacity)
	if _, err := c.Driver.ProbeCapacity(); err != nil {
		t.Fatalf("ProbeCapacity: %v", err)
	}
	return c
}
