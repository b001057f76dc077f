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

	"github.com/golang/glog"
	"github.com/google/m65hal/sdcard"
)

// SDRegSize is the size of the SD controller's register window.
const SDRegSize = 0x10

// BlockStore is the storage behind a simulated card.
type BlockStore interface {
	// BlockSize returns the block size of the underlying storage system.
	BlockSize() uint

	// ReadBlocks reads len(b) bytes into b from contiguous storage blocks starting
	// at the given block address.
	ReadBlocks(lba uint, b []byte) error

	// WriteBlocks writes len(b) bytes from b to contiguous storage blocks starting
	// at the given block address.
	WriteBlocks(lba uint, b []byte) error
}

// SDCard models the MEGA65 SD controller together with the card in its slot.
//
// Commands take effect immediately but leave the controller busy for Latency
// status reads. Failures that the controller notices while talking to the
// card (bad address, reset asserted) raise the error bit straight away;
// injected read faults only show up once the command has completed.
//
// With StatusLag set the status register keeps showing the state from before
// a command for that many reads, and sector transfers only happen when the
// command completes.
type SDCard struct {
	store        BlockStore
	blocks       uint
	highCapacity bool

	addr     [4]byte
	buf      [sdcard.SectorSize]byte
	sdhcMode bool
	reset    bool
	mapped   bool
	busy     int
	status   byte
	pending  byte
	next     uint
	last     byte
	lag      int
	stale    byte
	transfer func()

	// Latency is the number of status reads a command stays busy for.
	Latency int
	// StatusLag is the number of status reads before a command shows busy.
	StatusLag int
	// ReadFaults makes the next n reads complete with a CRC fault and no data.
	ReadFaults int
	// WriteFaults makes the next n writes store corrupted data.
	WriteFaults int
	// StuckBusy keeps the controller busy forever.
	StuckBusy bool
	// Commands counts the commands written to the control register.
	Commands map[byte]int
}

// NewSDCard returns a controller holding a card of the given size.
// highCapacity selects block addressing (SDHC) over byte addressing (SDSC).
func NewSDCard(store BlockStore, blocks uint, highCapacity bool) *SDCard {
	return &SDCard{
		store:        store,
		blocks:       blocks,
		highCapacity: highCapacity,
		Latency:      2,
		Commands:     make(map[byte]int),
	}
}

// Blocks returns the number of sectors on the card.
func (s *SDCard) Blocks() uint {
	return s.blocks
}

// Registers returns the device to map at sdcard.RegControl.
func (s *SDCard) Registers() *SDRegisters {
	return (*SDRegisters)(s)
}

// Buffer returns the device to map at sdcard.SectorBufferAddr.
func (s *SDCard) Buffer() *SDBuffer {
	return (*SDBuffer)(s)
}

func (s *SDCard) statusByte() byte {
	if s.lag > 0 {
		s.lag--
		return s.stale
	}
	busy := s.StuckBusy || s.busy > 0
	if s.busy > 0 {
		s.busy--
	}
	if !busy {
		s.complete()
		s.status |= s.pending
		s.pending = 0
	}
	st := s.status
	if busy {
		st |= sdcard.StatusBusy
	}
	if s.reset {
		st |= sdcard.StatusReset
	}
	if s.mapped {
		st |= sdcard.StatusMapped
	}
	if s.sdhcMode {
		st |= sdcard.StatusSDHC
	}
	s.last = st
	return st
}

// run performs a sector transfer now, or when the command completes if the
// status register lags.
func (s *SDCard) run(transfer func()) {
	if s.StatusLag == 0 {
		transfer()
		return
	}
	s.transfer = transfer
}

// complete performs a deferred transfer.
func (s *SDCard) complete() {
	if t := s.transfer; t != nil {
		s.transfer = nil
		t()
	}
}

// block translates the address registers into a sector number.
func (s *SDCard) block() (uint, bool) {
	raw := uint(binary.LittleEndian.Uint32(s.addr[:]))
	if !s.highCapacity {
		if raw%sdcard.SectorSize != 0 {
			return 0, false
		}
		raw /= sdcard.SectorSize
	}
	return raw, raw < s.blocks
}

func (s *SDCard) start() {
	s.busy = s.Latency
	s.status = 0
	s.pending = 0
	s.lag = s.StatusLag
	s.stale = s.last &^ sdcard.StatusBusy
}

func (s *SDCard) fail(bits byte) {
	s.status |= bits
}

func (s *SDCard) command(c byte) {
	s.Commands[c]++
	// A new command finishes whatever transfer was still in flight.
	s.complete()
	switch c {
	case sdcard.CmdResetBegin:
		s.start()
		s.reset = true
	case sdcard.CmdResetEnd:
		s.start()
		s.reset = false
	case sdcard.CmdClearSDHC:
		s.sdhcMode = false
	case sdcard.CmdSetSDHC:
		s.sdhcMode = true
	case sdcard.CmdMapBuffer:
		s.mapped = true
	case sdcard.CmdUnmapBuffer:
		s.mapped = false
	case sdcard.CmdRead:
		s.start()
		s.run(s.read)
	case sdcard.CmdWrite, sdcard.CmdMultiWriteFirst:
		s.start()
		lba, ok := s.block()
		if !ok {
			s.fail(sdcard.StatusError)
			return
		}
		s.next = lba + 1
		s.run(func() { s.write(lba) })
	case sdcard.CmdMultiWriteNext:
		s.start()
		if s.next >= s.blocks {
			s.fail(sdcard.StatusError)
			return
		}
		lba := s.next
		s.next++
		s.run(func() { s.write(lba) })
	case sdcard.CmdMultiWriteDone:
		s.start()
	default:
		glog.Warningf("sdcard: unknown command %#02x", c)
		s.fail(sdcard.StatusError)
	}
}

func (s *SDCard) read() {
	if s.reset {
		s.fail(sdcard.StatusError)
		return
	}
	lba, ok := s.block()
	if !ok {
		s.fail(sdcard.StatusError)
		return
	}
	if s.ReadFaults > 0 {
		s.ReadFaults--
		s.pending |= sdcard.StatusCRC
		return
	}
	if err := s.store.ReadBlocks(lba, s.buf[:]); err != nil {
		glog.Warningf("sdcard: read of block %d failed: %v", lba, err)
		s.fail(sdcard.StatusError)
	}
}

func (s *SDCard) write(lba uint) {
	// High capacity cards only accept writes once the controller is in SDHC mode.
	if s.reset || (s.highCapacity && !s.sdhcMode) {
		s.fail(sdcard.StatusError)
		return
	}
	data := s.buf
	if s.WriteFaults > 0 {
		s.WriteFaults--
		data[0] ^= 0xff
	}
	if err := s.store.WriteBlocks(lba, data[:]); err != nil {
		glog.Warningf("sdcard: write of block %d failed: %v", lba, err)
		s.fail(sdcard.StatusError)
	}
}

// SDRegisters is the controller's register window.
type SDRegisters SDCard

// Read implements bus.Device.
func (r *SDRegisters) Read(off uint32) byte {
	s := (*SDCard)(r)
	switch {
	case off == 0:
		return s.statusByte()
	case off <= 4:
		return s.addr[off-1]
	}
	return 0
}

// Write implements bus.Device.
func (r *SDRegisters) Write(off uint32, v byte) {
	s := (*SDCard)(r)
	switch {
	case off == 0:
		s.command(v)
	case off <= 4:
		s.addr[off-1] = v
	}
}

// SDBuffer is the controller's sector buffer.
type SDBuffer SDCard

// Read implements bus.Device.
func (b *SDBuffer) Read(off uint32) byte {
	return b.buf[off]
}

// Write implements bus.Device.
func (b *SDBuffer) Write(off uint32, v byte) {
	b.buf[off] = v
}
