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

package bus

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplit(t *testing.T) {
	for _, test := range []struct {
		name string
		addr uint32
		want Address
	}{
		{name: "zero", addr: 0, want: Address{}},
		{name: "io", addr: 0xd680, want: Address{Offset: 0xd680}},
		{name: "bank", addr: 0x2a000, want: Address{Offset: 0xa000, Bank: 2}},
		{name: "sector buffer", addr: 0xffd6e00, want: Address{Offset: 0x6e00, Bank: 0xd, MB: 0xff}},
		{name: "colour ram", addr: 0xff80000, want: Address{Offset: 0, Bank: 8, MB: 0xff}},
		{name: "max", addr: MaxAddress, want: Address{Offset: 0xffff, Bank: 0xf, MB: 0xff}},
		{name: "above max is discarded", addr: 0xf0000001, want: Address{Offset: 1}},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := Split(test.addr)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Fatalf("Split(%#x) diff (-want +got):\n%s", test.addr, diff)
			}
			if j := got.Join(); j != test.addr&MaxAddress {
				t.Errorf("Join() = %#x, want %#x", j, test.addr&MaxAddress)
			}
		})
	}
}

func TestSplitJoinInjective(t *testing.T) {
	seen := make(map[Address]uint32)
	// Walk every bank/MB boundary plus a spread of offsets.
	for mb := uint32(0); mb < 0x100; mb += 0x11 {
		for bank := uint32(0); bank < 0x10; bank++ {
			for _, off := range []uint32{0, 1, 0x7fff, 0xfffe, 0xffff} {
				addr := mb<<20 | bank<<16 | off
				a := Split(addr)
				if prev, ok := seen[a]; ok {
					t.Fatalf("Split(%#x) == Split(%#x) == %+v", addr, prev, a)
				}
				seen[a] = addr
				if got := a.Join(); got != addr {
					t.Fatalf("Split(%#x).Join() = %#x", addr, got)
				}
			}
		}
	}
}

type regs struct {
	vals   [4]byte
	writes int
}

func (r *regs) Read(off uint32) byte { return r.vals[off] }
func (r *regs) Write(off uint32, v byte) {
	r.writes++
	r.vals[off] = v
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	r := &regs{}
	if err := m.Map(0xd680, 4, r); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if got := m.Peek(0x123456); got != 0 {
		t.Errorf("untouched RAM = %#x, want 0", got)
	}
	m.Poke(0x123456, 0xa5)
	m.Poke(0xd681, 7)
	if got := m.Peek(0x123456); got != 0xa5 {
		t.Errorf("RAM = %#x, want 0xa5", got)
	}
	if got, want := r.vals, [4]byte{0, 7, 0, 0}; got != want {
		t.Errorf("device registers = %v, want %v", got, want)
	}
	if got := m.Peek(0xd681); got != 7 {
		t.Errorf("device read = %d, want 7", got)
	}
	// The window shadows RAM, so nothing leaks through.
	if got := m.Peek(0xd684); got != 0 {
		t.Errorf("byte after window = %d, want 0", got)
	}
}

func TestMemoryMap(t *testing.T) {
	for _, test := range []struct {
		name    string
		base    uint32
		size    uint32
		wantErr bool
	}{
		{name: "disjoint", base: 0xd700, size: 0x10},
		{name: "adjacent below", base: 0xd670, size: 0x10},
		{name: "overlaps start", base: 0xd67f, size: 2, wantErr: true},
		{name: "inside", base: 0xd681, size: 1, wantErr: true},
		{name: "covers", base: 0xd000, size: 0x1000, wantErr: true},
		{name: "empty", base: 0xd800, size: 0, wantErr: true},
		{name: "past the end", base: MaxAddress, size: 2, wantErr: true},
		{name: "last byte", base: MaxAddress, size: 1},
	} {
		t.Run(test.name, func(t *testing.T) {
			m := NewMemory()
			if err := m.Map(0xd680, 0x10, RAM(make([]byte, 0x10))); err != nil {
				t.Fatalf("Map: %v", err)
			}
			err := m.Map(test.base, test.size, RAM(make([]byte, test.size)))
			if gotErr := err != nil; gotErr != test.wantErr {
				t.Fatalf("Got %v, wantErr %t", err, test.wantErr)
			}
		})
	}
}
