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

package impl

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/m65hal/hal"
	"github.com/google/m65hal/sdcard"
	"gopkg.in/yaml.v3"
)

// Config describes the simulated machine the tool runs the driver on.
type Config struct {
	// Target is the board the machine reports, e.g. "MEGA65 R3".
	Target string `yaml:"Target"`
	// Latency is the number of status polls every SD command stays busy for.
	Latency int `yaml:"Latency"`
	// SDCard holds the driver's polling and retry limits.
	SDCard sdcard.Options `yaml:"SDCard"`
	// NVRAM is the sector range holding the settings journal.
	NVRAM NVRAM `yaml:"NVRAM"`
	// FAT locates the FAT32 structures used by mkfile.
	FAT FAT `yaml:"FAT"`
}

// NVRAM is a range of sectors.
type NVRAM struct {
	First  uint `yaml:"First"`
	Blocks uint `yaml:"Blocks"`
}

// FAT gives the sectors of the root directory and both FAT copies.
type FAT struct {
	RootDir uint32 `yaml:"RootDir"`
	FAT1    uint32 `yaml:"FAT1"`
	FAT2    uint32 `yaml:"FAT2"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Target:  hal.TargetMEGA65R3.String(),
		Latency: 2,
		SDCard:  sdcard.DefaultOptions(),
		NVRAM:   NVRAM{First: 1, Blocks: 8},
		FAT:     FAT{RootDir: 2048 + 32 + 2*1024, FAT1: 2048 + 32, FAT2: 2048 + 32 + 1024},
	}
}

// Validate checks that the config describes a usable machine.
func (c Config) Validate() error {
	if _, err := hal.ParseTarget(c.Target); err != nil {
		return err
	}
	if c.Latency < 0 {
		return fmt.Errorf("negative Latency %d", c.Latency)
	}
	if err := c.SDCard.Validate(); err != nil {
		return fmt.Errorf("SDCard: %v", err)
	}
	if c.NVRAM.Blocks == 0 {
		return errors.New("empty NVRAM range")
	}
	if c.FAT.FAT1 >= c.FAT.FAT2 || c.FAT.FAT2 >= c.FAT.RootDir {
		return fmt.Errorf("FAT layout %+v out of order", c.FAT)
	}
	return nil
}

// LoadConfig reads a YAML config from path. Fields missing from the file keep
// their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}
