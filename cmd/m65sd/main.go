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

// m65sd runs the MEGA65 SD card driver against a card image file, through a
// simulated DMA controller and SD controller.
//
// Usage:
//
//	go run ./cmd/m65sd --logtostderr --image=card.img --create --blocks=65536 --command=probe
//	go run ./cmd/m65sd --image=card.img --command=read --sector=0
//	go run ./cmd/m65sd --image=card.img --command=write --sector=100 --in=boot.bin
//	go run ./cmd/m65sd --image=card.img --command=cat --offset=1048576 --path=etc/hostname
//	go run ./cmd/m65sd --image=card.img --command=nvram-set --key=video --value=pal
package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/google/m65hal/cmd/m65sd/impl"
)

var (
	image   = flag.String("image", "", "Path to the SD card image")
	create  = flag.Bool("create", false, "Create the image if it does not exist")
	blocks  = flag.Uint("blocks", 65536, "Size in sectors of a newly created image")
	sdhc    = flag.Bool("sdhc", true, "Simulate a block addressed (SDHC) card rather than a byte addressed one")
	config  = flag.String("config", "", "Optional YAML file describing the simulated machine")
	command = flag.String("command", "probe", "One of [probe, read, write, erase, mkfile, cat, nvram-get, nvram-set]")
	sector  = flag.Uint("sector", 0, "First sector for read, write and erase")
	last    = flag.Uint("last", 0, "Last sector for read and erase")
	in      = flag.String("in", "", "File to write to the card")
	out     = flag.String("out", "", "File to store read data in, instead of printing it")
	name    = flag.String("name", "", "8.3 name of the file mkfile creates")
	size    = flag.Uint("size", 0, "Size in bytes of the file mkfile creates")
	path    = flag.String("path", "", "Path of the file cat reads from an ext4 partition")
	offset  = flag.Int64("offset", 0, "Byte offset of the ext4 partition cat reads")
	key     = flag.String("key", "", "Settings key for nvram-get and nvram-set")
	value   = flag.String("value", "", "Settings value for nvram-set; empty deletes the key")
)

func main() {
	flag.Parse()

	if err := impl.Main(impl.Opts{
		Image:   *image,
		Create:  *create,
		Blocks:  *blocks,
		SDHC:    *sdhc,
		Config:  *config,
		Command: *command,
		Sector:  uint32(*sector),
		Last:    uint32(*last),
		In:      *in,
		Out:     *out,
		Name:    *name,
		Size:    uint32(*size),
		Path:    *path,
		Offset:  *offset,
		Key:     *key,
		Value:   *value,
	}); err != nil {
		glog.Exit(err.Error())
	}
}
