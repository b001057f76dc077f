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

// Package fat32 creates contiguous files on a freshly formatted FAT32 volume
// with 4KiB clusters, such as the disk images the MEGA65 mounts from its SD
// card.
package fat32

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"
)

const (
	sectorSize        = 512
	sectorsPerCluster = 8
	clusterSize       = sectorSize * sectorsPerCluster
	entriesPerSector  = sectorSize / 4
	dirEntrySize      = 32

	endOfChain  = 0x0FFFFFFF
	attrArchive = 0x20
	deleted     = 0xE5
)

var (
	// ErrNoSpace is returned when no FAT sector has room for the file.
	ErrNoSpace = errors.New("no run of free clusters large enough")
	// ErrDirFull is returned when the first root directory sector has no free entry.
	ErrDirFull = errors.New("first root directory sector is full")
)

// SectorDevice reads and writes whole sectors through a single buffer.
type SectorDevice interface {
	ReadSector(n uint32) error
	WriteSector(n uint32) error
	Buffer() []byte
}

// Volume describes where a FAT32 volume keeps its tables.
type Volume struct {
	Dev SectorDevice
	// RootDir is the first sector of the root directory, cluster 2.
	RootDir uint32
	// FAT1 and FAT2 are the first sectors of the two FAT copies.
	FAT1, FAT2 uint32
}

// DirEntry is the part of a directory entry this package deals with.
type DirEntry struct {
	Name    string
	Attr    byte
	Cluster uint32
	Size    uint32
}

// ShortName converts name to the space padded 11 byte 8.3 form.
func ShortName(name string) (string, error) {
	base, ext, _ := strings.Cut(strings.ToUpper(name), ".")
	if base == "" || len(base) > 8 || len(ext) > 3 {
		return "", fmt.Errorf("%q is not a valid 8.3 name", name)
	}
	return fmt.Sprintf("%-8s%-3s", base, ext), nil
}

// CreateContiguousFile allocates a single run of clusters for a file of the
// given size inside the first FAT sector that has no clusters allocated,
// records it in the first root directory sector, and returns the file's
// first sector.
func (v Volume) CreateContiguousFile(name string, size uint32) (uint32, error) {
	short, err := ShortName(name)
	if err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, fmt.Errorf("file %q: size must not be zero", name)
	}
	clusters := (size + clusterSize - 1) / clusterSize
	if clusters > entriesPerSector {
		return 0, fmt.Errorf("file %q needs %d clusters: %w", name, clusters, ErrNoSpace)
	}

	start, fatSector, err := v.allocate(clusters)
	if err != nil {
		return 0, err
	}
	// The buffer still holds the updated FAT sector.
	if err := v.Dev.WriteSector(v.FAT1 + fatSector); err != nil {
		return 0, fmt.Errorf("failed to write FAT1: %w", err)
	}
	if err := v.Dev.WriteSector(v.FAT2 + fatSector); err != nil {
		return 0, fmt.Errorf("failed to write FAT2: %w", err)
	}

	if err := v.Dev.ReadSector(v.RootDir); err != nil {
		return 0, fmt.Errorf("failed to read root directory: %w", err)
	}
	buf := v.Dev.Buffer()
	off := -1
	for o := 0; o < sectorSize; o += dirEntrySize {
		if b := buf[o]; b == 0 || b == deleted {
			off = o
			break
		}
	}
	if off < 0 {
		return 0, ErrDirFull
	}
	e := buf[off : off+dirEntrySize]
	clear(e)
	copy(e, short)
	e[0x0b] = attrArchive
	binary.LittleEndian.PutUint16(e[0x14:], uint16(start>>16))
	binary.LittleEndian.PutUint16(e[0x1a:], uint16(start))
	binary.LittleEndian.PutUint32(e[0x1c:], size)
	if err := v.Dev.WriteSector(v.RootDir); err != nil {
		return 0, fmt.Errorf("failed to write root directory: %w", err)
	}

	first := v.RootDir + (start-2)*sectorsPerCluster
	glog.V(1).Infof("fat32: created %q, %d clusters from cluster %d, sector %d", short, clusters, start, first)
	return first, nil
}

// allocate finds and chains a run of free clusters, leaving the updated FAT
// sector in the device buffer.
func (v Volume) allocate(clusters uint32) (start, fatSector uint32, err error) {
	if v.FAT2 <= v.FAT1 {
		return 0, 0, fmt.Errorf("FAT2 (%d) must follow FAT1 (%d)", v.FAT2, v.FAT1)
	}
	for fs := uint32(0); fs < v.FAT2-v.FAT1; fs++ {
		if err := v.Dev.ReadSector(v.FAT1 + fs); err != nil {
			return 0, 0, fmt.Errorf("failed to read FAT sector %d: %w", fs, err)
		}
		buf := v.Dev.Buffer()
		if !allZero(buf) {
			continue
		}
		if fs == 0 {
			return 0, 0, errors.New("first FAT sector is empty, volume not formatted")
		}
		first := fs * entriesPerSector
		for i := uint32(0); i < clusters; i++ {
			next := first + i + 1
			if i == clusters-1 {
				next = endOfChain
			}
			binary.LittleEndian.PutUint32(buf[i*4:], next)
		}
		return first, fs, nil
	}
	return 0, 0, ErrNoSpace
}

// Find looks name up in the first root directory sector.
func (v Volume) Find(name string) (DirEntry, error) {
	short, err := ShortName(name)
	if err != nil {
		return DirEntry{}, err
	}
	if err := v.Dev.ReadSector(v.RootDir); err != nil {
		return DirEntry{}, fmt.Errorf("failed to read root directory: %w", err)
	}
	buf := v.Dev.Buffer()
	for o := 0; o < sectorSize; o += dirEntrySize {
		e := buf[o : o+dirEntrySize]
		if e[0] == 0 {
			break
		}
		if string(e[:11]) != short {
			continue
		}
		return DirEntry{
			Name:    short,
			Attr:    e[0x0b],
			Cluster: uint32(binary.LittleEndian.Uint16(e[0x14:]))<<16 | uint32(binary.LittleEndian.Uint16(e[0x1a:])),
			Size:    binary.LittleEndian.Uint32(e[0x1c:]),
		}, nil
	}
	return DirEntry{}, fmt.Errorf("%q not found", name)
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
