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
	"encoding/binary"
	"fmt"

	"github.com/google/m65hal/bus"
)

// Enhanced mode option codes.
const (
	OptF018B    = 0x0b
	OptSourceMB = 0x80
	OptDestMB   = 0x81
	OptDestSkip = 0x85
	OptEnd      = 0x00
)

// Commands.
const (
	CmdCopy = 0x00
	CmdFill = 0x03
)

// DescriptorSize is the encoded size of a Descriptor.
const DescriptorSize = 20

// Descriptor is an enhanced-mode F018B DMA list carrying the source and
// destination megabyte selectors and a destination stride.
type Descriptor struct {
	SourceMB   byte
	DestMB     byte
	DestSkip   byte
	Command    byte
	Count      uint16
	SourceAddr uint16
	SourceBank byte
	DestAddr   uint16
	DestBank   byte
	SubCommand byte
	Modulo     uint16
}

// Source returns the 28-bit source address described by d.
func (d Descriptor) Source() uint32 {
	return bus.Address{Offset: d.SourceAddr, Bank: d.SourceBank, MB: d.SourceMB}.Join()
}

// Dest returns the 28-bit destination address described by d.
func (d Descriptor) Dest() uint32 {
	return bus.Address{Offset: d.DestAddr, Bank: d.DestBank, MB: d.DestMB}.Join()
}

// MarshalBinary encodes d in the layout the DMA controller fetches.
func (d Descriptor) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, DescriptorSize)
	b = append(b,
		OptF018B,
		OptSourceMB, d.SourceMB,
		OptDestMB, d.DestMB,
		OptDestSkip, d.DestSkip,
		OptEnd,
		d.Command)
	b = binary.LittleEndian.AppendUint16(b, d.Count)
	b = binary.LittleEndian.AppendUint16(b, d.SourceAddr)
	b = append(b, d.SourceBank)
	b = binary.LittleEndian.AppendUint16(b, d.DestAddr)
	b = append(b, d.DestBank, d.SubCommand)
	b = binary.LittleEndian.AppendUint16(b, d.Modulo)
	return b, nil
}

// UnmarshalBinary decodes a list produced by MarshalBinary.
func (d *Descriptor) UnmarshalBinary(b []byte) error {
	if len(b) != DescriptorSize {
		return fmt.Errorf("descriptor is %d bytes, want %d", len(b), DescriptorSize)
	}
	if b[0] != OptF018B || b[1] != OptSourceMB || b[3] != OptDestMB || b[5] != OptDestSkip || b[7] != OptEnd {
		return fmt.Errorf("unexpected option bytes % x", b[:8])
	}
	*d = Descriptor{
		SourceMB:   b[2],
		DestMB:     b[4],
		DestSkip:   b[6],
		Command:    b[8],
		Count:      binary.LittleEndian.Uint16(b[9:]),
		SourceAddr: binary.LittleEndian.Uint16(b[11:]),
		SourceBank: b[13],
		DestAddr:   binary.LittleEndian.Uint16(b[14:]),
		DestBank:   b[16],
		SubCommand: b[17],
		Modulo:     binary.LittleEndian.Uint16(b[18:]),
	}
	return nil
}
