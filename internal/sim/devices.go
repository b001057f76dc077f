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

package sim

import (
	"encoding/binary"

	"github.com/google/m65hal/bus"
)

// Raster is a raster line counter that moves on to the next line every time
// it is read.
type Raster struct {
	line byte
	// Lines counts the lines that have gone by.
	Lines int
}

// Read implements bus.Device.
func (r *Raster) Read(uint32) byte {
	r.line++
	r.Lines++
	return r.line
}

// Write implements bus.Device. The counter is read-only.
func (r *Raster) Write(uint32, byte) {}

// Noise is the FPGA's thermal noise register. Bit 0 of every read is a fresh
// random bit drawn from a fixed xorshift sequence so runs are repeatable.
type Noise struct {
	state uint32
}

// NewNoise returns a noise source started from seed, which must not be zero.
func NewNoise(seed uint32) *Noise {
	if seed == 0 {
		seed = 1
	}
	return &Noise{state: seed}
}

// Read implements bus.Device.
func (n *Noise) Read(uint32) byte {
	n.state ^= n.state << 13
	n.state ^= n.state >> 17
	n.state ^= n.state << 5
	return byte(n.state>>7) & 0x01
}

// Write implements bus.Device.
func (n *Noise) Write(uint32, byte) {}

// MultiplierSize is the size of the hardware multiplier's register window.
const MultiplierSize = 0x10

// Multiplier is the 32x32 bit hardware multiplier. Offsets 0-3 hold operand
// A, 4-7 operand B, and 8-15 the 64-bit product, all little endian.
type Multiplier struct {
	regs [8]byte
}

// Read implements bus.Device.
func (m *Multiplier) Read(off uint32) byte {
	if off < 8 {
		return m.regs[off]
	}
	a := uint64(binary.LittleEndian.Uint32(m.regs[0:4]))
	b := uint64(binary.LittleEndian.Uint32(m.regs[4:8]))
	return byte((a * b) >> (8 * (off - 8)))
}

// Write implements bus.Device. The product is read-only.
func (m *Multiplier) Write(off uint32, v byte) {
	if off < 8 {
		m.regs[off] = v
	}
}

// RTC registers, relative to RTCBase.
const (
	RTCBase = 0xFFD7110
	RTCSize = 9

	rtcLock   = 8
	rtcUnlock = 0x41
)

// RTC holds the real-time clock's registers. Time registers only accept
// writes while the lock register holds the unlock value.
type RTC struct {
	regs [RTCSize]byte
	// Rejected counts writes refused because the clock was locked.
	Rejected int
}

// NewRTC returns a locked clock in 24 hour mode, set to 2000-01-01 00:00:00.
func NewRTC() *RTC {
	r := &RTC{}
	r.regs[2] = 0x80
	r.regs[3] = 0x01
	r.regs[4] = 0x01
	r.regs[rtcLock] = 0x01
	return r
}

// Read implements bus.Device.
func (r *RTC) Read(off uint32) byte {
	return r.regs[off]
}

// Write implements bus.Device.
func (r *RTC) Write(off uint32, v byte) {
	if off != rtcLock && r.regs[rtcLock] != rtcUnlock {
		r.Rejected++
		return
	}
	r.regs[off] = v
}

// Flaky wraps a device so that one in every Period reads returns the
// complement of the real value. The first glitch happens on read Phase.
type Flaky struct {
	bus.Device
	Period int
	Phase  int

	reads int
}

// Read implements bus.Device.
func (f *Flaky) Read(off uint32) byte {
	f.reads++
	v := f.Device.Read(off)
	if f.Period > 0 && f.reads%f.Period == f.Phase%f.Period {
		return ^v
	}
	return v
}
