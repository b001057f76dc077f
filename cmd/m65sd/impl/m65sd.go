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

// Package impl is the implementation of m65sd, a tool which runs the SD card
// driver against a simulated MEGA65 whose card is an image file.
package impl

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/google/m65hal/dma"
	"github.com/google/m65hal/fat32"
	"github.com/google/m65hal/hal"
	"github.com/google/m65hal/internal/sim"
	"github.com/google/m65hal/nvram"
	"github.com/google/m65hal/sdcard"
)

// Opts encapsulates m65sd parameters.
type Opts struct {
	Image  string
	Create bool
	Blocks uint
	SDHC   bool
	Config string

	Command string
	Sector  uint32
	Last    uint32
	In      string
	Out     string
	Name    string
	Size    uint32
	Path    string
	Offset  int64
	Key     string
	Value   string

	// Stdout receives command output. os.Stdout is used if nil.
	Stdout io.Writer
}

// card is a driver running on a simulated machine.
type card struct {
	d       *sdcard.Driver
	sectors uint32
	cfg     Config
}

// Main runs the command described by opts.
func Main(opts Opts) error {
	if opts.Image == "" {
		return errors.New("must specify image")
	}
	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return err
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	store, err := sim.OpenFileStore(opts.Image, opts.Create, opts.Blocks)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			glog.Warningf("Failed to close image: %v", err)
		}
	}()
	c, err := newCard(cfg, store, opts.SDHC)
	if err != nil {
		return err
	}

	cmds := map[string]func(*card, Opts) error{
		"probe":     probe,
		"read":      read,
		"write":     write,
		"erase":     erase,
		"mkfile":    mkfile,
		"cat":       cat,
		"nvram-get": nvramGet,
		"nvram-set": nvramSet,
	}
	run, ok := cmds[opts.Command]
	if !ok {
		return fmt.Errorf("unknown command %q", opts.Command)
	}
	return run(c, opts)
}

func newCard(cfg Config, store *sim.FileStore, highCapacity bool) (*card, error) {
	target, err := hal.ParseTarget(cfg.Target)
	if err != nil {
		return nil, err
	}
	sd := sim.NewSDCard(store, store.Blocks(), highCapacity)
	sd.Latency = cfg.Latency
	m, err := sim.NewMachine(target, sd)
	if err != nil {
		return nil, err
	}
	e, err := dma.NewEngine(m, dma.DefaultLayout)
	if err != nil {
		return nil, err
	}
	d, err := sdcard.New(sdcard.NewRegisterBackend(m, e), cfg.SDCard)
	if err != nil {
		return nil, err
	}
	n, err := d.ProbeCapacity()
	if err != nil {
		return nil, fmt.Errorf("failed to probe card: %w", err)
	}
	glog.Infof("Card of %d blocks, high capacity %t, probed to sector %d", store.Blocks(), d.HighCapacity(), n)
	return &card{d: d, sectors: n, cfg: cfg}, nil
}

func probe(c *card, opts Opts) error {
	_, err := fmt.Fprintf(opts.Stdout, "last readable sector: %d\nhigh capacity: %t\n", c.sectors, c.d.HighCapacity())
	return err
}

func read(c *card, opts Opts) error {
	last := max(opts.Last, opts.Sector)
	var out []byte
	for n := opts.Sector; n <= last; n++ {
		if err := c.d.ReadSector(n); err != nil {
			return fmt.Errorf("failed to read sector %d: %w", n, err)
		}
		out = append(out, c.d.Buffer()...)
	}
	if opts.Out != "" {
		return os.WriteFile(opts.Out, out, 0o644)
	}
	return hexdump(opts.Stdout, uint64(opts.Sector)*sdcard.SectorSize, out)
}

func write(c *card, opts Opts) error {
	if opts.In == "" {
		return errors.New("must specify in")
	}
	b, err := os.ReadFile(opts.In)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if len(b) == 0 {
		return fmt.Errorf("%q is empty", opts.In)
	}
	before := c.d.WriteCount()
	n := opts.Sector
	for len(b) > 0 {
		c.d.ClearBuffer()
		b = b[copy(c.d.Buffer(), b):]
		if err := c.d.WriteSector(n); err != nil {
			return fmt.Errorf("failed to write sector %d: %w", n, err)
		}
		n++
	}
	_, err = fmt.Fprintf(opts.Stdout, "sectors %d-%d written, %d changed\n", opts.Sector, n-1, c.d.WriteCount()-before)
	return err
}

func erase(c *card, opts Opts) error {
	last := max(opts.Last, opts.Sector)
	if err := c.d.Erase(opts.Sector, last); err != nil {
		return err
	}
	_, err := fmt.Fprintf(opts.Stdout, "sectors %d-%d erased\n", opts.Sector, last)
	return err
}

func mkfile(c *card, opts Opts) error {
	v := fat32.Volume{Dev: c.d, RootDir: c.cfg.FAT.RootDir, FAT1: c.cfg.FAT.FAT1, FAT2: c.cfg.FAT.FAT2}
	first, err := v.CreateContiguousFile(opts.Name, opts.Size)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", opts.Name, err)
	}
	_, err = fmt.Fprintf(opts.Stdout, "%s: first sector %d\n", opts.Name, first)
	return err
}

func cat(c *card, opts Opts) error {
	size := int64(c.sectors+1)*sdcard.SectorSize - opts.Offset
	if opts.Offset < 0 || size <= 0 {
		return fmt.Errorf("partition offset %d outside the card", opts.Offset)
	}
	p := sdcard.NewPartition(sdcard.NewBlockDevice(c.d), opts.Offset, size)
	b, err := readExt4File(p, opts.Path)
	if err != nil {
		return err
	}
	if opts.Out != "" {
		return os.WriteFile(opts.Out, b, 0o644)
	}
	_, err = opts.Stdout.Write(b)
	return err
}

func openStore(c *card) (*nvram.Store, error) {
	j, err := nvram.Open(sdcard.NewBlockDevice(c.d), c.cfg.NVRAM.First, c.cfg.NVRAM.Blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return nvram.OpenStore(j)
}

func nvramGet(c *card, opts Opts) error {
	s, err := openStore(c)
	if err != nil {
		return err
	}
	keys := s.Keys()
	if opts.Key != "" {
		keys = []string{opts.Key}
	}
	for _, k := range keys {
		v, ok := s.Get(k)
		if !ok {
			return fmt.Errorf("no value for %q", k)
		}
		if _, err := fmt.Fprintf(opts.Stdout, "%s=%s\n", k, v); err != nil {
			return err
		}
	}
	return nil
}

func nvramSet(c *card, opts Opts) error {
	if opts.Key == "" {
		return errors.New("must specify key")
	}
	s, err := openStore(c)
	if err != nil {
		return err
	}
	if opts.Value == "" {
		return s.Delete(opts.Key)
	}
	return s.Set(opts.Key, opts.Value)
}
