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

// Package bus describes byte-wide access to the MEGA65's 28-bit flat address
// space, and the split of addresses into the fields used by DMA lists.
package bus

// MaxAddress is the highest address in the 28-bit flat address space.
const MaxAddress = 0x0FFFFFFF

// RegisterIO is the capability to read and write single bytes of memory or
// memory-mapped registers.
//
// Implementations are not expected to be safe for concurrent use.
type RegisterIO interface {
	// Peek returns the byte at addr.
	Peek(addr uint32) byte
	// Poke stores v at addr.
	Poke(addr uint32, v byte)
}

// Address is a 28-bit address decomposed into the fields a DMA list uses to
// describe it.
type Address struct {
	// Offset holds bits 0-15.
	Offset uint16
	// Bank holds bits 16-19.
	Bank byte
	// MB is the megabyte selector, bits 20-27.
	MB byte
}

// Split decomposes addr. Bits above MaxAddress are discarded.
func Split(addr uint32) Address {
	return Address{
		Offset: uint16(addr & 0xffff),
		Bank:   byte(addr>>16) & 0x0f,
		MB:     byte(addr >> 20),
	}
}

// Join is the inverse of Split.
func (a Address) Join() uint32 {
	return uint32(a.MB)<<20 | uint32(a.Bank&0x0f)<<16 | uint32(a.Offset)
}
