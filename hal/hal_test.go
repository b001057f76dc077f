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

package hal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeIO records writes and advances a raster counter on every read of it.
type fakeIO struct {
	mem    map[uint32]byte
	pokes  []uint32
	raster byte
	frozen bool
	peeks  int
}

func (f *fakeIO) Peek(addr uint32) byte {
	f.peeks++
	if addr == RegRaster {
		if !f.frozen {
			f.raster++
		}
		return f.raster
	}
	return f.mem[addr]
}

func (f *fakeIO) Poke(addr uint32, v byte) {
	f.pokes = append(f.pokes, addr)
	f.mem[addr] = v
}

func TestEnableIO(t *testing.T) {
	f := &fakeIO{mem: map[uint32]byte{}}
	EnableIO(f)
	if diff := cmp.Diff([]uint32{RegKey, RegKey, RegCPUPort}, f.pokes); diff != "" {
		t.Errorf("poke order diff (-want +got):\n%s", diff)
	}
	if got := f.mem[RegKey]; got != 0x53 {
		t.Errorf("key register = %#x, want 0x53", got)
	}
	if got := f.mem[RegCPUPort]; got != 65 {
		t.Errorf("CPU port = %d, want 65", got)
	}
}

func TestSleep(t *testing.T) {
	for _, test := range []struct {
		name      string
		micros    uint32
		wantLines int
	}{
		{name: "zero", micros: 0, wantLines: 0},
		{name: "shorter than a line", micros: 1, wantLines: 1},
		{name: "one line", micros: 64, wantLines: 1},
		{name: "just over a line", micros: 65, wantLines: 2},
		{name: "several", micros: 64*10 + 1, wantLines: 11},
	} {
		t.Run(test.name, func(t *testing.T) {
			f := &fakeIO{mem: map[uint32]byte{}}
			Sleep(f, test.micros)
			// Each line costs one sample and one read that sees the change.
			if got := f.peeks / 2; got != test.wantLines {
				t.Errorf("waited %d lines, want %d", got, test.wantLines)
			}
		})
	}
}

func TestSleepFrozenRaster(t *testing.T) {
	f := &fakeIO{mem: map[uint32]byte{}, frozen: true}
	Sleep(f, 64)
	if f.peeks != maxLineSpins+1 {
		t.Errorf("peeks = %d, want %d", f.peeks, maxLineSpins+1)
	}
}

func TestDetectTarget(t *testing.T) {
	for _, test := range []struct {
		id   byte
		want Target
	}{
		{id: 0x03, want: TargetMEGA65R3},
		{id: 0x02, want: TargetMEGA65R2},
		{id: 0x21, want: TargetMEGAphoneR1},
		{id: 0xFE, want: TargetSimulation},
		{id: 0x77, want: TargetUnknown},
	} {
		f := &fakeIO{mem: map[uint32]byte{RegModel: test.id}}
		if got := DetectTarget(f); got != test.want {
			t.Errorf("DetectTarget(%#x) = %v, want %v", test.id, got, test.want)
		}
		if test.want != TargetUnknown {
			if got := test.want.ModelID(); got != test.id {
				t.Errorf("%v.ModelID() = %#x, want %#x", test.want, got, test.id)
			}
		}
	}
}

func TestParseTarget(t *testing.T) {
	for _, test := range []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{in: "MEGA65 R3", want: TargetMEGA65R3},
		{in: "mega65 r2", want: TargetMEGA65R2},
		{in: "simulation", want: TargetSimulation},
		{in: "unknown", wantErr: true},
		{in: "C64", wantErr: true},
	} {
		got, err := ParseTarget(test.in)
		if gotErr := err != nil; gotErr != test.wantErr {
			t.Fatalf("ParseTarget(%q): %v, wantErr %t", test.in, err, test.wantErr)
		}
		if got != test.want {
			t.Errorf("ParseTarget(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestFullSpeed(t *testing.T) {
	f := &fakeIO{mem: map[uint32]byte{}}
	FullSpeed(f)
	if got := f.mem[RegCPUPort]; got != 65 {
		t.Errorf("CPU port = %d, want 65", got)
	}
}
