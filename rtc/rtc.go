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

// Package rtc reads and sets the real-time clock fitted to MEGA65 R2 and R3
// boards.
package rtc

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/m65hal/bus"
	"github.com/google/m65hal/dma"
	"github.com/google/m65hal/hal"
)

// Clock registers, reached over I2C.
const (
	RegSeconds = 0xFFD7110
	RegMinutes = 0xFFD7111
	RegHours   = 0xFFD7112
	RegDay     = 0xFFD7113
	RegMonth   = 0xFFD7114
	RegYear    = 0xFFD7115
	RegWeekday = 0xFFD7116
	RegFlags   = 0xFFD7117
	RegLock    = 0xFFD7118
)

const (
	hour24   = 0x80
	hourPM   = 0x20
	flagDST  = 0x20
	unlock   = 0x41
	relock   = 0x01
	baseYear = 2000

	// i2cDelayMicros separates writes to the clock.
	i2cDelayMicros = 5000
)

// ErrUnsupported is returned on boards without a supported clock.
var ErrUnsupported = errors.New("no supported real-time clock")

// Clock is the board's real-time clock.
type Clock struct {
	io bus.RegisterIO
	e  *dma.Engine
}

// New returns the clock reached through e. io is used to identify the board
// and to time the I2C writes.
func New(io bus.RegisterIO, e *dma.Engine) *Clock {
	return &Clock{io: io, e: e}
}

func (c *Clock) supported() error {
	switch t := hal.DetectTarget(c.io); t {
	case hal.TargetMEGA65R2, hal.TargetMEGA65R3:
		return nil
	default:
		return fmt.Errorf("%v: %w", t, ErrUnsupported)
	}
}

// Now reads the clock. The registers carry no time zone, so the result is in
// UTC. DST reports whether the daylight saving flag is set.
func (c *Clock) Now() (t time.Time, dst bool, err error) {
	if err := c.supported(); err != nil {
		return time.Time{}, false, err
	}
	read := func(reg uint32) int { return FromBCD(c.e.PeekDebounced(reg)) }

	sec, minute := read(RegSeconds), read(RegMinutes)
	h := c.e.PeekDebounced(RegHours)
	var hour int
	switch {
	case h&hour24 != 0:
		hour = FromBCD(h & 0x3f)
	case h&hourPM != 0:
		hour = FromBCD(h&0x1f) + 12
	default:
		hour = FromBCD(h & 0x1f)
	}
	day, month, year := read(RegDay), read(RegMonth), read(RegYear)+baseYear
	dst = c.e.PeekDebounced(RegFlags)&flagDST != 0
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC), dst, nil
}

// Set writes t, in UTC, to the clock. The clock's 12/24 hour mode is kept.
func (c *Clock) Set(t time.Time, dst bool) error {
	if err := c.supported(); err != nil {
		return err
	}
	t = t.UTC()
	if y := t.Year(); y < baseYear || y > baseYear+99 {
		return fmt.Errorf("year %d outside the clock's range", y)
	}

	hours := ToBCD(t.Hour()) | hour24
	if c.e.PeekDebounced(RegHours)&hour24 == 0 {
		hours = ToBCD(t.Hour())
		if t.Hour() >= 12 {
			hours = ToBCD(t.Hour()-12) | hourPM
		}
	}
	flags := c.e.PeekDebounced(RegFlags) &^ flagDST
	if dst {
		flags |= flagDST
	}

	writes := []struct {
		reg uint32
		v   byte
	}{
		{RegLock, unlock},
		{RegSeconds, ToBCD(t.Second())},
		{RegMinutes, ToBCD(t.Minute())},
		{RegHours, hours},
		{RegDay, ToBCD(t.Day())},
		{RegMonth, ToBCD(int(t.Month()))},
		{RegYear, ToBCD(t.Year() - baseYear)},
		{RegWeekday, ToBCD(int(t.Weekday()))},
		{RegFlags, flags},
		{RegLock, relock},
	}
	for _, w := range writes {
		hal.Sleep(c.io, i2cDelayMicros)
		c.e.Poke(w.reg, w.v)
	}
	return nil
}

// ToBCD encodes v, which must be in [0, 99], as two BCD digits.
func ToBCD(v int) byte {
	return byte(v/10)<<4 | byte(v%10)
}

// FromBCD decodes two BCD digits.
func FromBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0f)
}
