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

// Package nvram keeps small amounts of settings data in a reserved range of
// SD card sectors, surviving power loss part way through an update.
package nvram

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/golang/glog"
)

// magic starts every record.
const magic = "M65J"

const (
	// headerSize is the encoded size of a record header.
	headerSize = 4 + 4 + 4 + sha256.Size

	// minRecords is the number of maximum sized records the range must hold.
	// Records never wrap past the end of the range, so with three of them a
	// torn write can only ever damage the oldest one.
	minRecords = 3
)

// ErrTooLarge is returned when data does not fit in a record.
var ErrTooLarge = errors.New("data too large for journal")

// BlockDevice reads and writes whole blocks of some backing storage.
type BlockDevice interface {
	// BlockSize returns the size of a block in bytes.
	BlockSize() uint
	// ReadBlocks fills b from contiguous blocks starting at lba.
	ReadBlocks(lba uint, b []byte) error
	// WriteBlocks stores b to contiguous blocks starting at lba.
	WriteBlocks(lba uint, b []byte) error
}

// header precedes the data of every record, little endian.
type header struct {
	Magic [4]byte
	// Seq is one more than the sequence number of the record before it.
	Seq uint32
	Len uint32
	Sum [sha256.Size]byte
}

// Journal is a sequence of records in the blocks [first, first+blocks) of a
// device. Only the newest intact record matters.
type Journal struct {
	dev    BlockDevice
	first  uint
	blocks uint

	seq  uint32
	data []byte
	next uint
}

// Open scans the range for the newest intact record. Ranges of different
// journals must not overlap.
func Open(dev BlockDevice, first, blocks uint) (*Journal, error) {
	j := &Journal{dev: dev, first: first, blocks: blocks, next: first}
	if j.MaxData() <= 0 {
		return nil, fmt.Errorf("journal of %d blocks too small", blocks)
	}
	if err := j.scan(); err != nil {
		return nil, err
	}
	return j, nil
}

// MaxData returns the largest update the journal accepts.
func (j *Journal) MaxData() int {
	return int(j.blocks*j.dev.BlockSize())/minRecords - headerSize
}

// Data returns the newest record and its sequence number. A sequence number
// of zero means nothing has been written yet.
func (j *Journal) Data() ([]byte, uint32) {
	return j.data, j.seq
}

// Update appends a record holding data.
func (j *Journal) Update(data []byte) error {
	if len(data) > j.MaxData() {
		return fmt.Errorf("%d bytes, limit %d: %w", len(data), j.MaxData(), ErrTooLarge)
	}
	rec, err := encode(j.seq+1, data, j.dev.BlockSize())
	if err != nil {
		return err
	}
	n := uint(len(rec)) / j.dev.BlockSize()
	if j.next+n > j.end() {
		j.next = j.first
	}
	if err := j.dev.WriteBlocks(j.next, rec); err != nil {
		return fmt.Errorf("failed to write record at block %d: %w", j.next, err)
	}
	glog.V(2).Infof("nvram: record %d, %d bytes, at block %d", j.seq+1, len(data), j.next)
	j.seq++
	j.data = append([]byte(nil), data...)
	if j.next += n; j.next >= j.end() {
		j.next = j.first
	}
	return nil
}

func (j *Journal) end() uint {
	return j.first + j.blocks
}

// scan walks the range from the start. Records are laid down in order and
// wrap to the start, so the newest is the one followed by an older record,
// a damaged block, or the end of the range.
func (j *Journal) scan() error {
	for lba := j.first; lba < j.end(); {
		h, data, n, err := j.read(lba)
		switch {
		case err != nil && j.seq > 0:
			return nil
		case err != nil:
			// Nothing found yet: skip over a damaged block and keep looking.
			glog.V(2).Infof("nvram: block %d: %v", lba, err)
			lba++
		case h.Seq > j.seq:
			j.seq, j.data = h.Seq, data
			lba += n
			j.next = lba
			if j.next >= j.end() {
				j.next = j.first
			}
		case h.Seq < j.seq:
			return nil
		default:
			return fmt.Errorf("two records with sequence number %d", h.Seq)
		}
	}
	return nil
}

// read decodes the record starting at lba and returns it with the number of
// blocks it takes.
func (j *Journal) read(lba uint) (header, []byte, uint, error) {
	bs := j.dev.BlockSize()
	buf := make([]byte, bs)
	if err := j.dev.ReadBlocks(lba, buf); err != nil {
		return header{}, nil, 0, err
	}
	var h header
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &h); err != nil {
		return header{}, nil, 0, err
	}
	if string(h.Magic[:]) != magic {
		return header{}, nil, 0, fmt.Errorf("bad magic %q", h.Magic)
	}
	if int(h.Len) > j.MaxData() {
		return header{}, nil, 0, fmt.Errorf("record length %d over limit", h.Len)
	}
	n := blocksFor(headerSize+int(h.Len), bs)
	if lba+n > j.end() {
		return header{}, nil, 0, fmt.Errorf("record of %d blocks runs off the end", n)
	}
	if n > 1 {
		rest := make([]byte, (n-1)*bs)
		if err := j.dev.ReadBlocks(lba+1, rest); err != nil {
			return header{}, nil, 0, err
		}
		buf = append(buf, rest...)
	}
	data := buf[headerSize : headerSize+int(h.Len)]
	if sha256.Sum256(data) != h.Sum {
		return header{}, nil, 0, fmt.Errorf("record %d checksum mismatch", h.Seq)
	}
	return h, data, n, nil
}

// encode lays out a record, padded to whole blocks.
func encode(seq uint32, data []byte, blockSize uint) ([]byte, error) {
	h := header{Seq: seq, Len: uint32(len(data)), Sum: sha256.Sum256(data)}
	copy(h.Magic[:], magic)
	b := &bytes.Buffer{}
	if err := binary.Write(b, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("failed to encode header: %v", err)
	}
	b.Write(data)
	b.Write(make([]byte, blocksFor(b.Len(), blockSize)*blockSize-uint(b.Len())))
	return b.Bytes(), nil
}

func blocksFor(n int, blockSize uint) uint {
	return (uint(n) + blockSize - 1) / blockSize
}
