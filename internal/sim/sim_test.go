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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/m65hal/hal"
	"github.com/google/m65hal/sdcard"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.img")
	if _, err := OpenFileStore(path, false, 8); err == nil {
		t.Fatal("opened a missing image without create")
	}
	s, err := OpenFileStore(path, true, 8)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	if got := s.Blocks(); got != 8 {
		t.Errorf("Blocks() = %d, want 8", got)
	}
	want := bytes.Repeat([]byte{0x5a}, sdcard.SectorSize)
	if err := s.WriteBlocks(3, want); err != nil {
		t.Fatalf("WriteBlocks: %v", err)
	}
	if err := s.WriteBlocks(8, want); err == nil {
		t.Error("wrote past the end of the image")
	}
	got := make([]byte, sdcard.SectorSize)
	if err := s.ReadBlocks(3, got); err != nil {
		t.Fatalf("ReadBlocks: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("read back differs")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening keeps the existing size whatever blocks says.
	s, err = OpenFileStore(path, true, 100)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	defer s.Close()
	if got := s.Blocks(); got != 8 {
		t.Errorf("reopened Blocks() = %d, want 8", got)
	}
}

func TestFileStoreRagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.img")
	if err := os.WriteFile(path, make([]byte, 700), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := OpenFileStore(path, false, 0); err == nil {
		t.Error("opened an image that is not whole sectors")
	}
}

func TestMultiplier(t *testing.T) {
	m, err := NewMachine(hal.TargetSimulation, nil)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	a, b := uint32(0xdeadbeef), uint32(0x12345678)
	for i := uint32(0); i < 4; i++ {
		m.Poke(hal.RegMultiplierA+i, byte(a>>(8*i)))
		m.Poke(hal.RegMultiplierB+i, byte(b>>(8*i)))
	}
	var got uint64
	for i := uint32(0); i < 8; i++ {
		got |= uint64(m.Peek(hal.RegProduct+i)) << (8 * i)
	}
	if want := uint64(a) * uint64(b); got != want {
		t.Errorf("product = %#x, want %#x", got, want)
	}
	m.Poke(hal.RegProduct, 0)
	if m.Peek(hal.RegProduct) != byte(uint64(a)*uint64(b)) {
		t.Error("product register accepted a write")
	}
}

func TestMachineIdentifies(t *testing.T) {
	for _, target := range []hal.Target{hal.TargetMEGA65R1, hal.TargetMEGA65R3, hal.TargetWukong} {
		m, err := NewMachine(target, nil)
		if err != nil {
			t.Fatalf("NewMachine: %v", err)
		}
		if got := hal.DetectTarget(m); got != target {
			t.Errorf("DetectTarget() = %v, want %v", got, target)
		}
	}
}

func TestRTCLock(t *testing.T) {
	r := NewRTC()
	r.Write(0, 0x30)
	if r.Read(0) != 0 || r.Rejected != 1 {
		t.Fatalf("locked clock took a write: %#x, rejected %d", r.Read(0), r.Rejected)
	}
	r.Write(rtcLock, rtcUnlock)
	r.Write(0, 0x30)
	if r.Read(0) != 0x30 {
		t.Error("unlocked clock refused a write")
	}
}
