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

// Package hal contains register helpers shared by the MEGA65 device packages.
package hal

import (
	"fmt"
	"strings"

	"github.com/google/m65hal/bus"
)

// Registers in the CPU's I/O window.
const (
	RegCPUPort     = 0x0000
	RegRaster      = 0xD012
	RegBorder      = 0xD020
	RegKey         = 0xD02F
	RegPhysRaster  = 0xD052
	RegModel       = 0xD629
	RegNoise       = 0xD6DE
	RegMultiplierA = 0xD770
	RegMultiplierB = 0xD774
	RegProduct     = 0xD778
)

// MicrosPerLine is the approximate duration of one raster line.
const MicrosPerLine = 64

// maxLineSpins bounds the wait for the raster counter to move, so that a
// stopped video chip cannot hang Sleep.
const maxLineSpins = 1 << 16

// EnableIO selects the MEGA65 I/O personality and maps the I/O area in.
func EnableIO(io bus.RegisterIO) {
	io.Poke(RegKey, 0x47)
	io.Poke(RegKey, 0x53)
	FullSpeed(io)
}

// FullSpeed switches the CPU to its full 40MHz clock.
func FullSpeed(io bus.RegisterIO) {
	io.Poke(RegCPUPort, 65)
}

// Sleep waits for at least micros microseconds by counting raster lines.
// Part of a line counts as a whole one.
func Sleep(io bus.RegisterIO, micros uint32) {
	for lines := (uint64(micros) + MicrosPerLine - 1) / MicrosPerLine; lines > 0; lines-- {
		WaitLine(io, RegRaster)
	}
}

// WaitLine waits for the raster counter at reg to change.
func WaitLine(io bus.RegisterIO, reg uint32) {
	b := io.Peek(reg)
	for i := 0; i < maxLineSpins && io.Peek(reg) == b; i++ {
	}
}

// Target identifies the board the code is running on.
type Target int

const (
	TargetUnknown Target = iota
	TargetMEGA65R1
	TargetMEGA65R2
	TargetMEGA65R3
	TargetMEGAphoneR1
	TargetNexys4
	TargetNexys4DDR
	TargetNexys4DDRWidget
	TargetWukong
	TargetSimulation
)

var targetNames = map[Target]string{
	TargetUnknown:         "unknown",
	TargetMEGA65R1:        "MEGA65 R1",
	TargetMEGA65R2:        "MEGA65 R2",
	TargetMEGA65R3:        "MEGA65 R3",
	TargetMEGAphoneR1:     "MEGAphone R1",
	TargetNexys4:          "Nexys4",
	TargetNexys4DDR:       "Nexys4 DDR",
	TargetNexys4DDRWidget: "Nexys4 DDR widget",
	TargetWukong:          "QMTECH Wukong",
	TargetSimulation:      "simulation",
}

func (t Target) String() string {
	if n, ok := targetNames[t]; ok {
		return n
	}
	return targetNames[TargetUnknown]
}

// Model ids reported in RegModel.
var modelIDs = map[byte]Target{
	0x01: TargetMEGA65R1,
	0x02: TargetMEGA65R2,
	0x03: TargetMEGA65R3,
	0x21: TargetMEGAphoneR1,
	0x40: TargetNexys4,
	0x41: TargetNexys4DDR,
	0x42: TargetNexys4DDRWidget,
	0xFD: TargetWukong,
	0xFE: TargetSimulation,
}

// ModelID returns the RegModel value reported by t, or 0 for TargetUnknown.
func (t Target) ModelID() byte {
	for id, tt := range modelIDs {
		if tt == t {
			return id
		}
	}
	return 0
}

// ParseTarget returns the target named s, ignoring case.
func ParseTarget(s string) (Target, error) {
	for t, n := range targetNames {
		if strings.EqualFold(n, s) && t != TargetUnknown {
			return t, nil
		}
	}
	return TargetUnknown, fmt.Errorf("unknown target %q", s)
}

// DetectTarget reads the model id register.
func DetectTarget(io bus.RegisterIO) Target {
	return modelIDs[io.Peek(RegModel)]
}
