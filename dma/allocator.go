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

package dma

import (
	"fmt"
	"io"

	"github.com/google/m65hal/bus"
)

// Region is a run of bytes somewhere in the 28-bit address space.
type Region struct {
	Addr uint32
	Len  int
}

// Bytes reads the region back.
func (r Region) Bytes(e *Engine) []byte {
	b := make([]byte, r.Len)
	e.Read(r.Addr, b)
	return b
}

// String reads the region back as text.
func (r Region) String(e *Engine) string {
	return string(r.Bytes(e))
}

// Allocator hands out consecutive regions of memory, starting at a fixed
// address. Nothing is ever freed.
type Allocator struct {
	e    *Engine
	next uint32
}

// NewAllocator returns an allocator whose first region starts at base.
func NewAllocator(e *Engine, base uint32) *Allocator {
	return &Allocator{e: e, next: base}
}

// Next returns the address the next region will start at.
func (a *Allocator) Next() uint32 {
	return a.next
}

// Write stores b in the next free region.
func (a *Allocator) Write(b []byte) (Region, error) {
	if uint64(a.next)+uint64(len(b)) > bus.MaxAddress+1 {
		return Region{}, fmt.Errorf("%d bytes at %#07x run past the end of memory", len(b), a.next)
	}
	r := Region{Addr: a.next, Len: len(b)}
	a.e.Write(r.Addr, b)
	a.next += uint32(len(b))
	return r, nil
}

// Reader reads memory sequentially from a starting address. It never
// reaches EOF; callers bound it with io.LimitReader or a fixed-size buffer.
type Reader struct {
	e    *Engine
	Addr uint32
}

// NewReader returns a Reader positioned at addr.
func NewReader(e *Engine, addr uint32) *Reader {
	return &Reader{e: e, Addr: addr}
}

// Read implements io.Reader.
func (r *Reader) Read(b []byte) (int, error) {
	r.e.Read(r.Addr, b)
	r.Addr += uint32(len(b))
	return len(b), nil
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	v := r.e.Peek(r.Addr)
	r.Addr++
	return v, nil
}

var (
	_ io.Reader     = &Reader{}
	_ io.ByteReader = &Reader{}
)
