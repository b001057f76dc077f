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

package sdcard

// SectorSize is the size of a card sector and of the sector buffer.
const SectorSize = 512

// Controller registers.
const (
	// RegControl is the command register when written and the status
	// register when read.
	RegControl = 0xD680
	// RegAddress is the first of four card address registers, LSB first.
	RegAddress = 0xD681
	// SectorBufferAddr is the controller's sector buffer in the 28-bit
	// address space.
	SectorBufferAddr = 0xFFD6E00
)

// Commands written to RegControl.
const (
	CmdResetBegin      = 0x00
	CmdResetEnd        = 0x01
	CmdRead            = 0x02
	CmdWrite           = 0x03
	CmdMultiWriteFirst = 0x04
	CmdMultiWriteNext  = 0x05
	CmdMultiWriteDone  = 0x06
	CmdClearSDHC       = 0x40
	CmdSetSDHC         = 0x41
	CmdMapBuffer       = 0x81
	CmdUnmapBuffer     = 0x82
)

// Status bits read from RegControl.
const (
	StatusControllerBusy = 0x01
	StatusCardBusy       = 0x02
	StatusReset          = 0x04
	StatusMapped         = 0x08
	StatusSDHC           = 0x10
	StatusCRC            = 0x20
	StatusError          = 0x40

	// StatusBusy is set while a command is in progress.
	StatusBusy = StatusControllerBusy | StatusCardBusy
	// StatusFailMask marks a failed command once the controller is idle.
	StatusFailMask = 0x67
	// statusProbeMask marks a failed read during capacity probing.
	statusProbeMask = 0x63
)

// maxByteAddressedSector is the first sector a byte addressed card can't
// reach through the 32-bit address register.
const maxByteAddressedSector = 0x7fffff
