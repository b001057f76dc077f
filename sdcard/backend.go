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

package sdcard

import (
	"github.com/google/m65hal/bus"
	"github.com/google/m65hal/dma"
	"github.com/google/m65hal/hal"
)

// Backend is the controller as the driver sees it.
type Backend interface {
	// SubmitCommand writes a command to the control register.
	SubmitCommand(cmd byte)
	// PollStatus reads the status register.
	PollStatus() byte
	// SetAddress loads the card address registers.
	SetAddress(addr uint32)
	// ReadSectorBuffer copies the controller's sector buffer into b.
	ReadSectorBuffer(b []byte)
	// WriteSectorBuffer copies b into the controller's sector buffer.
	WriteSectorBuffer(b []byte)
	// Sleep waits for roughly the given number of microseconds.
	Sleep(micros uint32)
	// Indicate shows activity to the user.
	Indicate(v byte)
}

// RegisterBackend talks to the controller through its registers, moving
// sector data with the DMA engine.
type RegisterBackend struct {
	io  bus.RegisterIO
	dma *dma.Engine
}

// NewRegisterBackend returns a backend using io for register access and e
// for sector transfers.
func NewRegisterBackend(io bus.RegisterIO, e *dma.Engine) *RegisterBackend {
	return &RegisterBackend{io: io, dma: e}
}

// SubmitCommand implements Backend.
func (r *RegisterBackend) SubmitCommand(cmd byte) {
	r.io.Poke(RegControl, cmd)
}

// PollStatus implements Backend.
func (r *RegisterBackend) PollStatus() byte {
	return r.io.Peek(RegControl)
}

// SetAddress implements Backend.
func (r *RegisterBackend) SetAddress(addr uint32) {
	for i := uint32(0); i < 4; i++ {
		r.io.Poke(RegAddress+i, byte(addr>>(8*i)))
	}
}

// ReadSectorBuffer implements Backend.
func (r *RegisterBackend) ReadSectorBuffer(b []byte) {
	r.dma.Read(SectorBufferAddr, b)
}

// WriteSectorBuffer implements Backend.
func (r *RegisterBackend) WriteSectorBuffer(b []byte) {
	r.dma.Write(SectorBufferAddr, b)
}

// Sleep implements Backend.
func (r *RegisterBackend) Sleep(micros uint32) {
	hal.Sleep(r.io, micros)
}

// Indicate implements Backend by changing the border colour.
func (r *RegisterBackend) Indicate(v byte) {
	r.io.Poke(hal.RegBorder, v&0x0f)
}
