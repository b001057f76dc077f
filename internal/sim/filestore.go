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
	"fmt"
	"os"

	"github.com/google/m65hal/sdcard"
)

// FileStore is a BlockStore backed by a card image file.
type FileStore struct {
	f      *os.File
	blocks uint
}

// OpenFileStore opens the image at path. If create is set and the file does
// not exist, a zeroed image of the given number of blocks is created.
func OpenFileStore(path string, create bool, blocks uint) (*FileStore, error) {
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if fi.Size() == 0 && create {
		if err := f.Truncate(int64(blocks) * sdcard.SectorSize); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to size new image: %w", err)
		}
		fi, err = f.Stat()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to stat image: %w", err)
		}
	}
	if fi.Size()%sdcard.SectorSize != 0 {
		f.Close()
		return nil, fmt.Errorf("image size %d is not a whole number of sectors", fi.Size())
	}
	return &FileStore{f: f, blocks: uint(fi.Size() / sdcard.SectorSize)}, nil
}

// Blocks returns the number of sectors in the image.
func (s *FileStore) Blocks() uint {
	return s.blocks
}

// BlockSize implements BlockStore.
func (s *FileStore) BlockSize() uint {
	return sdcard.SectorSize
}

// ReadBlocks implements BlockStore.
func (s *FileStore) ReadBlocks(lba uint, b []byte) error {
	if lba >= s.blocks {
		return fmt.Errorf("lba (%d) >= image blocks (%d)", lba, s.blocks)
	}
	_, err := s.f.ReadAt(b, int64(lba)*sdcard.SectorSize)
	return err
}

// WriteBlocks implements BlockStore.
func (s *FileStore) WriteBlocks(lba uint, b []byte) error {
	if lba >= s.blocks {
		return fmt.Errorf("lba (%d) >= image blocks (%d)", lba, s.blocks)
	}
	_, err := s.f.WriteAt(b, int64(lba)*sdcard.SectorSize)
	return err
}

// Close closes the image file.
func (s *FileStore) Close() error {
	return s.f.Close()
}
