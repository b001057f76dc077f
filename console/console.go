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

// Package console draws on the text screen using the DMA engine. Screen and
// colour memory are filled, copied and written with DMA lists, so none of it
// needs to be visible in the CPU's 64K view.
package console

import (
	"fmt"

	"github.com/google/m65hal/dma"
)

const (
	// DefaultScreen is where the screen lives after a reset.
	DefaultScreen = 0x0800
	// ColourRAM is the base of colour memory.
	ColourRAM = 0xFF80000

	// Space is the screen code for a blank cell.
	Space = 0x20
)

// Config describes a text screen.
type Config struct {
	Screen uint32 `yaml:"screen"`
	Colour uint32 `yaml:"colour"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// Wide selects 16-bit character mode, where every cell takes two bytes
	// of screen memory and two of colour memory.
	Wide bool `yaml:"wide"`
}

// DefaultConfig is the 80x25 screen set up by the ROM.
var DefaultConfig = Config{
	Screen: DefaultScreen,
	Colour: ColourRAM,
	Width:  80,
	Height: 25,
}

// Screen is a text screen.
type Screen struct {
	e   *dma.Engine
	cfg Config
}

// New returns a screen drawn through e.
func New(e *dma.Engine, cfg Config) (*Screen, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid screen size %dx%d", cfg.Width, cfg.Height)
	}
	if n := cfg.Width * cfg.Height * cfg.cellSize(); n > 0xffff {
		return nil, fmt.Errorf("screen of %d bytes too large for a single DMA job", n)
	}
	return &Screen{e: e, cfg: cfg}, nil
}

func (c Config) cellSize() int {
	if c.Wide {
		return 2
	}
	return 1
}

func (s *Screen) cells() uint16 {
	return uint16(s.cfg.Width * s.cfg.Height)
}

func (s *Screen) rowBytes() uint32 {
	return uint32(s.cfg.Width * s.cfg.cellSize())
}

// Clear blanks the screen and sets every cell to colour.
func (s *Screen) Clear(colour byte) {
	s.fill(s.cfg.Screen, Space, 0, s.cells())
	s.FillColour(colour)
}

// FillColour sets the colour of every cell. In 16-bit character mode only
// the colour byte of each cell is touched and the attribute byte is kept.
func (s *Screen) FillColour(colour byte) {
	if s.cfg.Wide {
		s.e.FillSkip(s.cfg.Colour+1, colour, s.cells(), 2)
		return
	}
	s.e.Fill(s.cfg.Colour, colour, s.cells())
}

// fill writes n cells of code starting at addr. hi is the high byte of each
// cell in 16-bit character mode.
func (s *Screen) fill(addr uint32, code, hi byte, n uint16) {
	if !s.cfg.Wide {
		s.e.Fill(addr, code, n)
		return
	}
	s.e.FillSkip(addr, code, n, 2)
	s.e.FillSkip(addr+1, hi, n, 2)
}

// PutString writes the PETSCII string str at column x of row y in colour.
// The string is clipped at the end of the row.
func (s *Screen) PutString(x, y int, str string, colour byte) error {
	if x < 0 || x >= s.cfg.Width || y < 0 || y >= s.cfg.Height {
		return fmt.Errorf("position (%d, %d) outside a %dx%d screen", x, y, s.cfg.Width, s.cfg.Height)
	}
	if n := s.cfg.Width - x; len(str) > n {
		str = str[:n]
	}
	if len(str) == 0 {
		return nil
	}
	cell := uint32(y*s.cfg.Width + x)
	size := uint32(s.cfg.cellSize())
	codes := make([]byte, 0, len(str)*int(size))
	for i := 0; i < len(str); i++ {
		codes = append(codes, ScreenCode(str[i]))
		if s.cfg.Wide {
			codes = append(codes, 0)
		}
	}
	s.e.Write(s.cfg.Screen+cell*size, codes)
	if s.cfg.Wide {
		s.e.FillSkip(s.cfg.Colour+cell*size+1, colour, uint16(len(str)), 2)
	} else {
		s.e.Fill(s.cfg.Colour+cell, colour, uint16(len(str)))
	}
	return nil
}

// ScrollUp moves every row up by one and blanks the bottom row in colour.
func (s *Screen) ScrollUp(colour byte) {
	row := s.rowBytes()
	rest := uint16(row * uint32(s.cfg.Height-1))
	last := row * uint32(s.cfg.Height-1)
	width := uint16(s.cfg.Width)
	if rest > 0 {
		s.e.Copy(s.cfg.Screen+row, s.cfg.Screen, rest)
		s.e.Copy(s.cfg.Colour+row, s.cfg.Colour, rest)
	}
	s.fill(s.cfg.Screen+last, Space, 0, width)
	if s.cfg.Wide {
		s.e.FillSkip(s.cfg.Colour+last+1, colour, width, 2)
		return
	}
	s.e.Fill(s.cfg.Colour+last, colour, width)
}

// ScreenCode converts a PETSCII character to the code stored in screen
// memory to display it.
func ScreenCode(c byte) byte {
	switch {
	case c < 0x20:
		return c + 0x80
	case c < 0x40:
		return c
	case c < 0x60:
		return c - 0x40
	case c < 0x80:
		return c - 0x20
	case c < 0xa0:
		return c + 0x40
	case c < 0xc0:
		return c - 0x40
	case c == 0xff:
		return 0x5e
	default:
		return c - 0x80
	}
}
