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
	"fmt"
	"io"
)

// BlockDevice exposes a Driver as a device of SectorSize blocks.
type BlockDevice struct {
	d *Driver
}

// NewBlockDevice wraps d.
func NewBlockDevice(d *Driver) *BlockDevice {
	return &BlockDevice{d: d}
}

// BlockSize returns the block size of the underlying storage system.
func (b *BlockDevice) BlockSize() uint {
	return SectorSize
}

// ReadBlocks reads len(p) bytes into p from contiguous storage blocks starting
// at the given block address.
// p must be an integer multiple of the device's block size.
func (b *BlockDevice) ReadBlocks(lba uint, p []byte) error {
	for len(p) > 0 {
		if err := b.d.ReadSector(uint32(lba)); err != nil {
			return err
		}
		n := copy(p, b.d.Buffer())
		p = p[n:]
		lba++
	}
	return nil
}

// WriteBlocks writes len(p) bytes from p to contiguous storage blocks starting
// at the given block address. A trailing partial block is padded with zeros.
func (b *BlockDevice) WriteBlocks(lba uint, p []byte) error {
	for len(p) > 0 {
		b.d.ClearBuffer()
		n := copy(b.d.Buffer(), p)
		if err := b.d.WriteSector(uint32(lba)); err != nil {
			return err
		}
		p = p[n:]
		lba++
	}
	return nil
}

// Partition is an io.ReadSeeker over a byte range of the card.
type Partition struct {
	dev    *BlockDevice
	buf    []byte
	offset int64
	size   int64
	pos    int64
}

// NewPartition returns a reader over size bytes of the card starting at
// byte offset.
func NewPartition(dev *BlockDevice, offset, size int64) *Partition {
	return &Partition{
		dev:    dev,
		buf:    make([]byte, SectorSize),
		offset: offset,
		size:   size,
	}
}

// Read implements io.Reader.
func (p *Partition) Read(b []byte) (int, error) {
	if p.pos >= p.size {
		return 0, io.EOF
	}
	if rem := p.size - p.pos; int64(len(b)) > rem {
		b = b[:rem]
	}
	n := 0
	for n < len(b) {
		abs := p.offset + p.pos
		if err := p.dev.ReadBlocks(uint(abs/SectorSize), p.buf); err != nil {
			return n, err
		}
		c := copy(b[n:], p.buf[abs%SectorSize:])
		n += c
		p.pos += int64(c)
	}
	return n, nil
}

// Seek implements io.Seeker.
func (p *Partition) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = p.pos + offset
	case io.SeekEnd:
		pos = p.size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 || pos > p.size {
		return 0, fmt.Errorf("invalid offset %d (%d)", pos, offset)
	}
	p.pos = pos
	return pos, nil
}
