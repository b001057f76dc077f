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

package bus

import (
	"fmt"
	"sort"
)

const (
	pageBits = 12
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

// Device is a peripheral mapped into a window of the address space.
// Offsets passed to Read and Write are relative to the start of the window.
type Device interface {
	Read(off uint32) byte
	Write(off uint32, v byte)
}

type window struct {
	base, size uint32
	dev        Device
}

func (w window) contains(addr uint32) bool {
	return addr >= w.base && addr-w.base < w.size
}

// Memory is an in-process model of the address space: RAM that is allocated
// on first write, with devices mapped over it. Reads from untouched RAM
// return zero.
type Memory struct {
	pages   map[uint32]*[pageSize]byte
	windows []window
}

// NewMemory returns an empty address space with no devices mapped.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32]*[pageSize]byte)}
}

// Map places d over [base, base+size). Windows must not overlap.
func (m *Memory) Map(base, size uint32, d Device) error {
	if size == 0 {
		return fmt.Errorf("empty window at %#07x", base)
	}
	if base > MaxAddress || size-1 > MaxAddress-base {
		return fmt.Errorf("window [%#07x, +%#x) outside the address space", base, size)
	}
	nw := window{base: base, size: size, dev: d}
	for _, w := range m.windows {
		if nw.contains(w.base) || w.contains(nw.base) {
			return fmt.Errorf("window [%#07x, +%#x) overlaps [%#07x, +%#x)", base, size, w.base, w.size)
		}
	}
	m.windows = append(m.windows, nw)
	sort.Slice(m.windows, func(i, j int) bool { return m.windows[i].base < m.windows[j].base })
	return nil
}

func (m *Memory) device(addr uint32) (window, bool) {
	i := sort.Search(len(m.windows), func(i int) bool { return m.windows[i].base+m.windows[i].size > addr })
	if i < len(m.windows) && m.windows[i].contains(addr) {
		return m.windows[i], true
	}
	return window{}, false
}

// Peek implements RegisterIO.
func (m *Memory) Peek(addr uint32) byte {
	addr &= MaxAddress
	if w, ok := m.device(addr); ok {
		return w.dev.Read(addr - w.base)
	}
	if p := m.pages[addr>>pageBits]; p != nil {
		return p[addr&pageMask]
	}
	return 0
}

// Poke implements RegisterIO.
func (m *Memory) Poke(addr uint32, v byte) {
	addr &= MaxAddress
	if w, ok := m.device(addr); ok {
		w.dev.Write(addr-w.base, v)
		return
	}
	p := m.pages[addr>>pageBits]
	if p == nil {
		if v == 0 {
			return
		}
		p = new([pageSize]byte)
		m.pages[addr>>pageBits] = p
	}
	p[addr&pageMask] = v
}

// RAM is a Device backed by a plain byte slice.
type RAM []byte

// Read implements Device.
func (r RAM) Read(off uint32) byte { return r[off] }

// Write implements Device.
func (r RAM) Write(off uint32, v byte) { r[off] = v }
