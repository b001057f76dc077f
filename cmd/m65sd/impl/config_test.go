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
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/m65hal/sdcard"
)

func TestExampleConfig(t *testing.T) {
	got, err := LoadConfig("example_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := Config{
		Target:  "MEGA65 R2",
		Latency: 4,
		SDCard: sdcard.Options{
			MaxAttempts:      5,
			PollLimit:        1000,
			ResetPollLimit:   1000,
			WritePollLimit:   1000,
			WriteKicks:       2,
			KickDelayMicros:  1000,
			ProbeWaits:       4,
			ProbeDelayMicros: 1000,
		},
		NVRAM: NVRAM{First: 8, Blocks: 16},
		FAT:   FAT{RootDir: 64, FAT1: 32, FAT2: 48},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config diff (-want +got):\n%s", diff)
	}
}

func TestDefaultConfig(t *testing.T) {
	got, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
		t.Errorf("config diff (-want +got):\n%s", diff)
	}
}

func TestConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("Latency: 7\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := DefaultConfig()
	want.Latency = 7
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config diff (-want +got):\n%s", diff)
	}
}

func TestConfigErrors(t *testing.T) {
	for _, test := range []struct {
		desc string
		yaml string
	}{
		{desc: "unknown target", yaml: "Target: C128\n"},
		{desc: "negative latency", yaml: "Latency: -1\n"},
		{desc: "no attempts", yaml: "SDCard:\n  MaxAttempts: 0\n"},
		{desc: "empty nvram", yaml: "NVRAM:\n  Blocks: 0\n"},
		{desc: "fat out of order", yaml: "FAT:\n  RootDir: 10\n  FAT1: 20\n  FAT2: 30\n"},
		{desc: "not yaml", yaml: "Target: [\n"},
	} {
		t.Run(test.desc, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(test.yaml), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig succeeded")
			}
		})
	}
}

func TestConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig succeeded")
	}
}
