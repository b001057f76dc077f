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
	"github.com/golang/glog"
	"github.com/google/m65hal/bus"
	"github.com/google/m65hal/dma"
)

// DMABase is where the DMA controller's registers are mapped.
const DMABase = 0xD700

// DMASize is the size of the DMA controller's register window.
const DMASize = 0x10

// DMAController executes enhanced-mode DMA lists fetched from the bus when
// the list address low byte is written to $D705.
type DMAController struct {
	bus  bus.RegisterIO
	regs [DMASize]byte

	// Jobs counts the lists executed.
	Jobs int
	// Last is the most recently executed list.
	Last dma.Descriptor
}

// NewDMAController returns a controller that moves bytes on b.
func NewDMAController(b bus.RegisterIO) *DMAController {
	return &DMAController{bus: b}
}

// Read implements bus.Device.
func (c *DMAController) Read(off uint32) byte {
	// The controller is never observed busy.
	return c.regs[off]
}

// Write implements bus.Device.
func (c *DMAController) Write(off uint32, v byte) {
	c.regs[off] = v
	if off == dma.RegTriggerEnh-DMABase {
		c.run()
	}
}

func (c *DMAController) listAddr() uint32 {
	return bus.Address{
		Offset: uint16(c.regs[dma.RegAddrMSB-DMABase])<<8 | uint16(c.regs[dma.RegTriggerEnh-DMABase]),
		Bank:   c.regs[dma.RegBank-DMABase],
		MB:     c.regs[dma.RegListMB-DMABase],
	}.Join()
}

func (c *DMAController) run() {
	addr := c.listAddr()
	d := dma.Descriptor{DestSkip: 1}
	// Options run up to the end marker; those with bit 7 set carry an argument.
	for {
		opt := c.bus.Peek(addr)
		addr++
		if opt == dma.OptEnd {
			break
		}
		if opt&0x80 == 0 {
			continue
		}
		arg := c.bus.Peek(addr)
		addr++
		switch opt {
		case dma.OptSourceMB:
			d.SourceMB = arg
		case dma.OptDestMB:
			d.DestMB = arg
		case dma.OptDestSkip:
			d.DestSkip = arg
		}
	}
	var job [12]byte
	for i := range job {
		job[i] = c.bus.Peek(addr + uint32(i))
	}
	d.Command = job[0]
	d.Count = uint16(job[1]) | uint16(job[2])<<8
	d.SourceAddr = uint16(job[3]) | uint16(job[4])<<8
	d.SourceBank = job[5] & 0x0f
	d.DestAddr = uint16(job[6]) | uint16(job[7])<<8
	d.DestBank = job[8] & 0x0f
	d.SubCommand = job[9]
	d.Modulo = uint16(job[10]) | uint16(job[11])<<8
	c.Last = d
	c.Jobs++

	n := int(d.Count)
	if n == 0 {
		n = 0x10000
	}
	src, dst := d.Source(), d.Dest()
	switch d.Command & 0x03 {
	case dma.CmdCopy:
		for i := 0; i < n; i++ {
			c.bus.Poke(dst, c.bus.Peek(src))
			src++
			dst += uint32(d.DestSkip)
		}
	case dma.CmdFill:
		v := byte(d.SourceAddr)
		for i := 0; i < n; i++ {
			c.bus.Poke(dst, v)
			dst += uint32(d.DestSkip)
		}
	default:
		glog.Warningf("dma: unsupported command %#02x in list at %#07x", d.Command, c.listAddr())
	}
}
