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

// Package sim models enough of the MEGA65 to run the HAL packages on a host:
// the DMA controller, the SD card controller, and the handful of registers
// the other packages poll.
package sim

import (
	"fmt"

	"github.com/google/m65hal/bus"
	"github.com/google/m65hal/hal"
	"github.com/google/m65hal/sdcard"
)

// Machine is a bus with the simulated devices mapped onto it.
type Machine struct {
	*bus.Memory

	DMA        *DMAController
	SD         *SDCard
	Raster     *Raster
	PhysRaster *Raster
	Noise      *Noise
	Multiplier *Multiplier
	RTC        *RTC
}

// NewMachine builds a machine identifying itself as target. card may be nil
// for a machine without an SD controller.
func NewMachine(target hal.Target, card *SDCard) (*Machine, error) {
	m := &Machine{
		Memory:     bus.NewMemory(),
		SD:         card,
		Raster:     &Raster{},
		PhysRaster: &Raster{},
		Noise:      NewNoise(0x6502),
		Multiplier: &Multiplier{},
		RTC:        NewRTC(),
	}
	m.DMA = NewDMAController(m.Memory)

	type mapping struct {
		base, size uint32
		dev        bus.Device
	}
	maps := []mapping{
		{DMABase, DMASize, m.DMA},
		{hal.RegRaster, 1, m.Raster},
		{hal.RegPhysRaster, 1, m.PhysRaster},
		{hal.RegNoise, 1, m.Noise},
		{hal.RegMultiplierA, MultiplierSize, m.Multiplier},
		{RTCBase, RTCSize, m.RTC},
	}
	if card != nil {
		maps = append(maps,
			mapping{sdcard.RegControl, SDRegSize, card.Registers()},
			mapping{sdcard.SectorBufferAddr, sdcard.SectorSize, card.Buffer()})
	}
	for _, mp := range maps {
		if err := m.Map(mp.base, mp.size, mp.dev); err != nil {
			return nil, fmt.Errorf("failed to map device: %v", err)
		}
	}
	m.Poke(hal.RegModel, target.ModelID())
	return m, nil
}
