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

// Package dma drives the MEGA65 DMA controller to move bytes anywhere in the
// 28-bit address space.
//
// Every operation builds a single enhanced-mode list, stores it in bank 0
// memory and starts the controller through its trigger registers. The
// controller runs to completion before the trigger write returns, so all
// operations are synchronous. An Engine owns its list and staging byte and
// must only be used from one goroutine.
package dma

import (
	"fmt"

	"github.com/google/m65hal/bus"
	"github.com/google/m65hal/hal"
)

// Trigger registers.
const (
	RegAddrMSB    = 0xD701
	RegBank       = 0xD702
	RegListMB     = 0xD704
	RegTriggerEnh = 0xD705
)

// Layout places the memory the engine needs for itself.
type Layout struct {
	// List is where the DMA list is stored.
	List uint32
	// Staging is the byte used by Peek and Poke.
	Staging uint32
	// Scratch is the start of the window Read and Write stage through.
	Scratch uint32
	// ScratchSize is the size of the scratch window.
	ScratchSize uint16
}

// DefaultLayout keeps everything in bank 0 above the BASIC area.
var DefaultLayout = Layout{
	List:        0xC000,
	Staging:     0xC01F,
	Scratch:     0xC100,
	ScratchSize: 0x200,
}

// Validate checks that the regions don't overlap and fit in the first
// megabyte.
func (l Layout) Validate() error {
	if l.ScratchSize == 0 {
		return fmt.Errorf("scratch window is empty")
	}
	type r struct {
		name       string
		start, end uint32
	}
	rs := []r{
		{"list", l.List, l.List + DescriptorSize},
		{"staging", l.Staging, l.Staging + 1},
		{"scratch", l.Scratch, l.Scratch + uint32(l.ScratchSize)},
	}
	for i, a := range rs {
		if a.end > 1<<20 {
			return fmt.Errorf("%s [%#x, %#x) outside the first megabyte", a.name, a.start, a.end)
		}
		for _, b := range rs[i+1:] {
			if a.start < b.end && b.start < a.end {
				return fmt.Errorf("%s [%#x, %#x) overlaps %s [%#x, %#x)", a.name, a.start, a.end, b.name, b.start, b.end)
			}
		}
	}
	return nil
}

// Engine issues DMA jobs over io.
type Engine struct {
	io     bus.RegisterIO
	layout Layout
	list   Descriptor
}

// NewEngine returns an engine using the given memory layout.
func NewEngine(io bus.RegisterIO, layout Layout) (*Engine, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %v", err)
	}
	return &Engine{io: io, layout: layout}, nil
}

// Layout returns the engine's memory layout.
func (e *Engine) Layout() Layout {
	return e.layout
}

// Last returns the most recently submitted list.
func (e *Engine) Last() Descriptor {
	return e.list
}

// Copy copies count bytes from src to dst.
func (e *Engine) Copy(src, dst uint32, count uint16) {
	s, d := bus.Split(src), bus.Split(dst)
	e.submit(Descriptor{
		SourceMB:   s.MB,
		DestMB:     d.MB,
		DestSkip:   1,
		Command:    CmdCopy,
		Count:      count,
		SourceAddr: s.Offset,
		SourceBank: s.Bank,
		DestAddr:   d.Offset,
		DestBank:   d.Bank,
	})
}

// Fill sets count bytes starting at dst to value.
func (e *Engine) Fill(dst uint32, value byte, count uint16) {
	e.FillSkip(dst, value, count, 1)
}

// FillSkip sets count bytes to value, starting at dst and advancing skip
// bytes after each one.
func (e *Engine) FillSkip(dst uint32, value byte, count uint16, skip byte) {
	d := bus.Split(dst)
	e.submit(Descriptor{
		DestSkip:   skip,
		Command:    CmdFill,
		Count:      count,
		SourceAddr: uint16(value),
		DestAddr:   d.Offset,
		DestBank:   d.Bank,
		DestMB:     d.MB,
	})
}

// Peek returns the byte at addr.
func (e *Engine) Peek(addr uint32) byte {
	e.Copy(addr, e.layout.Staging, 1)
	return e.io.Peek(e.layout.Staging)
}

// PeekDebounced reads addr three times in a row until all three reads agree
// and returns that value. It is meant for registers such as the RTC that can
// be caught mid-update.
func (e *Engine) PeekDebounced(addr uint32) byte {
	for {
		a, b, c := e.Peek(addr), e.Peek(addr), e.Peek(addr)
		if a == b && b == c {
			return a
		}
	}
}

// Poke stores value at addr.
func (e *Engine) Poke(addr uint32, value byte) {
	e.io.Poke(e.layout.Staging, value)
	e.Copy(e.layout.Staging, addr, 1)
}

// Read fills b from memory starting at src.
func (e *Engine) Read(src uint32, b []byte) {
	for len(b) > 0 {
		n := min(len(b), int(e.layout.ScratchSize))
		e.Copy(src, e.layout.Scratch, uint16(n))
		for i := 0; i < n; i++ {
			b[i] = e.io.Peek(e.layout.Scratch + uint32(i))
		}
		b = b[n:]
		src += uint32(n)
	}
}

// Write copies b to memory starting at dst.
func (e *Engine) Write(dst uint32, b []byte) {
	for len(b) > 0 {
		n := min(len(b), int(e.layout.ScratchSize))
		for i := 0; i < n; i++ {
			e.io.Poke(e.layout.Scratch+uint32(i), b[i])
		}
		e.Copy(e.layout.Scratch, dst, uint16(n))
		b = b[n:]
		dst += uint32(n)
	}
}

// submit replaces the whole list, so no field of an earlier job survives.
func (e *Engine) submit(d Descriptor) {
	e.list = d
	hal.EnableIO(e.io)
	raw, _ := d.MarshalBinary()
	for i, v := range raw {
		e.io.Poke(e.layout.List+uint32(i), v)
	}
	l := bus.Split(e.layout.List)
	e.io.Poke(RegBank, l.Bank)
	e.io.Poke(RegListMB, l.MB)
	e.io.Poke(RegAddrMSB, byte(l.Offset>>8))
	e.io.Poke(RegTriggerEnh, byte(l.Offset))
}
