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
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testConfig = `
SDCard:
  MaxAttempts: 3
  PollLimit: 64
  ResetPollLimit: 64
  WritePollLimit: 64
  WriteKicks: 1
  KickDelayMicros: 128
  ProbeWaits: 20
  ProbeDelayMicros: 128
NVRAM:
  First: 4
  Blocks: 8
FAT:
  RootDir: 48
  FAT1: 32
  FAT2: 40
`

type env struct {
	dir    string
	image  string
	config string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	e := env{dir: dir, image: filepath.Join(dir, "card.img"), config: filepath.Join(dir, "config.yaml")}
	if err := os.WriteFile(e.config, []byte(testConfig), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return e
}

// run runs a command against the environment's image, creating a 2048
// sector SDHC image on first use.
func (e env) run(t *testing.T, opts Opts) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	opts.Image = e.image
	opts.Create = true
	opts.Blocks = 2048
	opts.SDHC = true
	opts.Config = e.config
	opts.Stdout = out
	err := Main(opts)
	return out.String(), err
}

func (e env) mustRun(t *testing.T, opts Opts) string {
	t.Helper()
	out, err := e.run(t, opts)
	if err != nil {
		t.Fatalf("%s: %v", opts.Command, err)
	}
	return out
}

func (e env) file(t *testing.T, name string, b []byte) string {
	t.Helper()
	p := filepath.Join(e.dir, name)
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestProbe(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, Opts{Command: "probe"})
	if !strings.Contains(out, "high capacity: true") {
		t.Errorf("probe output %q", out)
	}
}

func TestWriteRead(t *testing.T) {
	e := newEnv(t)
	data := bytes.Repeat([]byte("MEGA65!"), 100)
	in := e.file(t, "in.bin", data)

	out := e.mustRun(t, Opts{Command: "write", Sector: 10, In: in})
	if want := "sectors 10-11 written, 2 changed\n"; out != want {
		t.Errorf("write output %q, want %q", out, want)
	}
	out = e.mustRun(t, Opts{Command: "write", Sector: 10, In: in})
	if want := "sectors 10-11 written, 0 changed\n"; out != want {
		t.Errorf("second write output %q, want %q", out, want)
	}

	got := filepath.Join(e.dir, "out.bin")
	e.mustRun(t, Opts{Command: "read", Sector: 10, Last: 11, Out: got})
	b, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := append(append([]byte{}, data...), make([]byte, 1024-len(data))...)
	if !bytes.Equal(b, want) {
		t.Error("read back differs from what was written")
	}

	img, err := os.ReadFile(e.image)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(img[10*512:10*512+len(data)], data) {
		t.Error("image does not hold the data at sector 10")
	}
}

func TestReadHexdump(t *testing.T) {
	e := newEnv(t)
	in := e.file(t, "in.bin", []byte("Hello, world"))
	e.mustRun(t, Opts{Command: "write", Sector: 1, In: in})
	out := e.mustRun(t, Opts{Command: "read", Sector: 1})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 32 {
		t.Fatalf("%d lines of hexdump, want 32", len(lines))
	}
	if want := "00000200  48 65 6c 6c 6f 2c 20 77  6f 72 6c 64 00 00 00 00  |Hello, world....|"; lines[0] != want {
		t.Errorf("first line\n%q, want\n%q", lines[0], want)
	}
}

func TestErase(t *testing.T) {
	e := newEnv(t)
	in := e.file(t, "in.bin", bytes.Repeat([]byte{0xff}, 4*512))
	e.mustRun(t, Opts{Command: "write", Sector: 20, In: in})
	if out := e.mustRun(t, Opts{Command: "erase", Sector: 21, Last: 22}); out != "sectors 21-22 erased\n" {
		t.Errorf("erase output %q", out)
	}
	img, err := os.ReadFile(e.image)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for s, want := range map[int]byte{20: 0xff, 21: 0, 22: 0, 23: 0xff} {
		if !bytes.Equal(img[s*512:(s+1)*512], bytes.Repeat([]byte{want}, 512)) {
			t.Errorf("sector %d not all %#x", s, want)
		}
	}
}

func TestMkfile(t *testing.T) {
	e := newEnv(t)
	fat := make([]byte, 12)
	binary.LittleEndian.PutUint32(fat[0:], 0x0FFFFFF8)
	binary.LittleEndian.PutUint32(fat[4:], 0x0FFFFFFF)
	binary.LittleEndian.PutUint32(fat[8:], 0x0FFFFFFF)
	in := e.file(t, "fat.bin", fat)
	e.mustRun(t, Opts{Command: "write", Sector: 32, In: in})
	e.mustRun(t, Opts{Command: "write", Sector: 40, In: in})

	out := e.mustRun(t, Opts{Command: "mkfile", Name: "disk.d81", Size: 409600})
	if want := "disk.d81: first sector 1056\n"; out != want {
		t.Errorf("mkfile output %q, want %q", out, want)
	}
	if _, err := e.run(t, Opts{Command: "mkfile", Name: "toolong.name", Size: 1}); err == nil {
		t.Error("mkfile accepted a bad name")
	}
}

func TestNVRAM(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, Opts{Command: "nvram-set", Key: "video", Value: "pal"})
	e.mustRun(t, Opts{Command: "nvram-set", Key: "keyboard", Value: "de"})
	if diff := cmp.Diff("keyboard=de\nvideo=pal\n", e.mustRun(t, Opts{Command: "nvram-get"})); diff != "" {
		t.Errorf("nvram-get diff (-want +got):\n%s", diff)
	}
	e.mustRun(t, Opts{Command: "nvram-set", Key: "keyboard"})
	if got := e.mustRun(t, Opts{Command: "nvram-get", Key: "video"}); got != "video=pal\n" {
		t.Errorf("nvram-get video = %q", got)
	}
	if _, err := e.run(t, Opts{Command: "nvram-get", Key: "keyboard"}); err == nil {
		t.Error("deleted key still readable")
	}
	if _, err := e.run(t, Opts{Command: "nvram-set"}); err == nil {
		t.Error("nvram-set without a key succeeded")
	}
}

func TestMainErrors(t *testing.T) {
	e := newEnv(t)
	for _, test := range []struct {
		desc string
		opts Opts
	}{
		{desc: "unknown command", opts: Opts{Command: "format"}},
		{desc: "write without input", opts: Opts{Command: "write"}},
		{desc: "write empty input", opts: Opts{Command: "write", In: e.file(t, "empty", nil)}},
		{desc: "cat outside the card", opts: Opts{Command: "cat", Offset: 2048 * 512, Path: "x"}},
		{desc: "bad erase range", opts: Opts{Command: "erase", Sector: 4096}},
	} {
		t.Run(test.desc, func(t *testing.T) {
			if _, err := e.run(t, test.opts); err == nil {
				t.Error("Main succeeded")
			}
		})
	}
	if err := Main(Opts{Command: "probe"}); err == nil {
		t.Error("Main succeeded without an image")
	}
}
