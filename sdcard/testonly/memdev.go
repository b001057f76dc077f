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

// Package testonly provides simulated cards for SD card tests.
package testonly

import (
	"fmt"
	"testing"

	"github.com/google/m65hal/sdcard"
)

// MemDev is a card image held in memory, one entry per sector.
type MemDev [][sdcard.SectorSize]byte

// BlockSize returns the block size of the underlying storage system.
func (md MemDev) BlockSize() uint {
	return sdcard.SectorSize
}

// ReadBlocks reads len(b) bytes into b from contiguous sectors starting at
// lba. Reads are clipped at the end of the device.
func (md MemDev) ReadBlocks(lba uint, b []byte) error {
	if lba >= uint(len(md)) {
		return fmt.Errorf("lba (%d) >= device blocks (%d)", lba, len(md))
	}
	for i := uint(0); len(b) > 0 && lba+i < uint(len(md)); i++ {
		b = b[copy(b, md[lba+i][:]):]
	}
	return nil
}

// WriteBlocks writes len(b) bytes from b to contiguous sectors starting at
// lba. A trailing partial sector is zero padded. Writes are clipped at the
// end of the device.
func (md MemDev) WriteBlocks(lba uint, b []byte) error {
	if lba >= uint(len(md)) {
		return fmt.Errorf("lba (%d) >= device blocks (%d)", lba, len(md))
	}
	for i := uint(0); len(b) > 0 && lba+i < uint(len(md)); i++ {
		md[lba+i] = [sdcard.SectorSize]byte{}
		b = b[copy(md[lba+i][:], b):]
	}
	return nil
}

// NewMemDev creates a zeroed in-memory card of numBlocks sectors.
func NewMemDev(t *testing.T, numBlocks uint) MemDev {
	t.Helper()
	return make(MemDev, numBlocks)
}
