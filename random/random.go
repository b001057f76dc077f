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

// Package random provides random numbers from the FPGA's thermal noise
// source, scaled into a range with the hardware multiplier, and a seeded
// xorshift generator for when speed matters more than entropy.
package random

import (
	"encoding/binary"

	"github.com/google/m65hal/bus"
	"github.com/google/m65hal/hal"
)

// samplesPerByte is the number of noise samples folded into each byte.
const samplesPerByte = 32

// seedDraws bounds the attempts to draw a non-zero seed from the noise source.
const seedDraws = 4

// Hardware reads the noise register.
type Hardware struct {
	io bus.RegisterIO
}

// NewHardware returns a generator reading noise through io.
func NewHardware(io bus.RegisterIO) *Hardware {
	return &Hardware{io: io}
}

// Byte folds 32 noise samples, one raster line apart, into a byte.
func (h *Hardware) Byte() byte {
	var b byte
	for i := 0; i < samplesPerByte; i++ {
		b = b<<1 | (b>>7 ^ h.io.Peek(hal.RegNoise)&0x01)
		hal.WaitLine(h.io, hal.RegPhysRaster)
	}
	return b
}

// Uint32 returns a random value in [0, n), or any value if n is zero.
func (h *Hardware) Uint32(n uint32) uint32 {
	var v [4]byte
	for i := range v {
		v[i] = h.Byte()
	}
	x := binary.LittleEndian.Uint32(v[:])
	if n == 0 {
		return x
	}
	return uint32(h.multiply(x, n) >> 32)
}

// Uint16 returns a random value in [0, n), or any value if n is zero.
func (h *Hardware) Uint16(n uint16) uint16 {
	x := uint32(h.Byte()) | uint32(h.Byte())<<8
	if n == 0 {
		return uint16(x)
	}
	return uint16(h.multiply(x, uint32(n)) >> 16)
}

// Uint8 returns a random value in [0, n), or any value if n is zero.
func (h *Hardware) Uint8(n uint8) uint8 {
	x := h.Byte()
	if n == 0 {
		return x
	}
	return uint8(h.multiply(uint32(x), uint32(n)) >> 8)
}

// multiply runs a*b through the hardware multiplier.
func (h *Hardware) multiply(a, b uint32) uint64 {
	for i := uint32(0); i < 4; i++ {
		h.io.Poke(hal.RegMultiplierA+i, byte(a>>(8*i)))
		h.io.Poke(hal.RegMultiplierB+i, byte(b>>(8*i)))
	}
	var p [8]byte
	for i := range p {
		p[i] = h.io.Peek(hal.RegProduct + uint32(i))
	}
	return binary.LittleEndian.Uint64(p[:])
}

// Xorshift32 is Marsaglia's 32-bit xorshift generator. It satisfies
// math/rand.Source.
type Xorshift32 struct {
	state uint32
	hw    *Hardware
}

// NewXorshift32 returns a generator seeded with seed. A zero seed is replaced
// with one drawn from hw, or with 1 if hw is nil or only produces zeros.
func NewXorshift32(hw *Hardware, seed uint32) *Xorshift32 {
	x := &Xorshift32{hw: hw}
	x.Seed(int64(seed))
	return x
}

// Seed implements math/rand.Source.
func (x *Xorshift32) Seed(seed int64) {
	s := uint32(seed)
	for i := 0; s == 0 && x.hw != nil && i < seedDraws; i++ {
		s = x.hw.Uint32(0)
	}
	if s == 0 {
		s = 1
	}
	x.state = s
}

// Next advances the generator.
func (x *Xorshift32) Next() uint32 {
	s := x.state
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	x.state = s
	return s
}

// Int63 implements math/rand.Source.
func (x *Xorshift32) Int63() int64 {
	return int64(uint64(x.Next())<<31 ^ uint64(x.Next())) & (1<<63 - 1)
}

// Uint32 returns a value in [0, n) using the hardware multiplier, or the
// raw value if n is zero.
func (x *Xorshift32) Uint32(n uint32) uint32 {
	v := x.Next()
	switch {
	case n == 0:
		return v
	case x.hw == nil:
		return uint32(uint64(v) * uint64(n) >> 32)
	}
	return uint32(x.hw.multiply(v, n) >> 32)
}
