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

// Package sdcard drives the MEGA65 SD card controller.
//
// The driver moves one 512 byte sector at a time between the card and its
// own sector buffer. Reads and writes are retried a bounded number of times,
// resetting the controller between attempts, and every write is verified by
// reading the sector back.
//
// A Driver is not safe for concurrent use.
package sdcard

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang/glog"
)

const (
	// probeStep is the initial stride of the capacity scan: 16MiB of sectors.
	probeStep = 16 * 2048
	// probeLimit is where the capacity scan gives up.
	probeLimit = 0x10000000
	// busyPolls bounds the wait for a command to be seen starting.
	busyPolls = 16
)

// Driver owns the controller and the sector buffer.
type Driver struct {
	be   Backend
	opts Options

	buf    [SectorSize]byte
	verify [SectorSize]byte

	highCapacity bool
	writes       uint32
}

// New returns a driver for the controller behind be. The card is assumed to
// be byte addressed until ProbeCapacity says otherwise.
func New(be Backend, opts Options) (*Driver, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %v", err)
	}
	return &Driver{be: be, opts: opts}, nil
}

// Buffer returns the sector buffer. ReadSector fills it, WriteSector and
// Erase consume it.
func (d *Driver) Buffer() []byte {
	return d.buf[:]
}

// ClearBuffer zeroes the sector buffer.
func (d *Driver) ClearBuffer() {
	d.buf = [SectorSize]byte{}
}

// HighCapacity reports whether the card uses block addressing.
func (d *Driver) HighCapacity() bool {
	return d.highCapacity
}

// WriteCount returns the number of sector writes issued so far.
func (d *Driver) WriteCount() uint32 {
	return d.writes
}

// Open readies the controller for use.
func (d *Driver) Open() error {
	return d.Reset()
}

// Reset resets the controller and waits for it to come back, restoring SDHC
// mode for block addressed cards.
func (d *Driver) Reset() error {
	d.be.SubmitCommand(CmdClearSDHC)
	d.be.SubmitCommand(CmdResetBegin)
	d.be.SubmitCommand(CmdResetEnd)
	if err := d.waitReady(d.opts.ResetPollLimit); err != nil {
		return fmt.Errorf("failed to reset controller: %w", err)
	}
	if d.highCapacity {
		d.be.SubmitCommand(CmdSetSDHC)
	}
	return nil
}

// MapSectorBuffer maps the controller's sector buffer into the CPU's I/O area.
func (d *Driver) MapSectorBuffer() {
	d.be.SubmitCommand(CmdMapBuffer)
}

// UnmapSectorBuffer undoes MapSectorBuffer.
func (d *Driver) UnmapSectorBuffer() {
	d.be.SubmitCommand(CmdUnmapBuffer)
}

// ProbeCapacity works out the card type and then scans forward for the last
// readable sector, starting with 16MiB strides and quartering the stride
// each time a read fails. The result is never past the end of the card but
// may be short of it by the final stride.
func (d *Driver) ProbeCapacity() (uint32, error) {
	d.highCapacity = false
	if err := d.Reset(); err != nil {
		return 0, err
	}
	if d.detectHighCapacity() {
		d.highCapacity = true
		d.be.SubmitCommand(CmdSetSDHC)
	} else if err := d.Reset(); err != nil {
		return 0, err
	}
	glog.V(1).Infof("sdcard: high capacity card: %t", d.highCapacity)

	var sector uint32
	step := uint32(probeStep)
	for sector < probeLimit {
		if err := d.ReadSector(sector); err != nil {
			if sector == 0 {
				return 0, fmt.Errorf("failed to read first sector: %w", err)
			}
			glog.V(2).Infof("sdcard: probe read of sector %d failed, step %d", sector, step)
			if err := d.Reset(); err != nil {
				return 0, err
			}
			sector -= step
			step >>= 2
			if step == 0 {
				break
			}
		}
		sector += step
	}
	glog.V(1).Infof("sdcard: last readable sector %d", sector)
	return sector, nil
}

// detectHighCapacity reads from byte address 2. Byte addressed cards reject
// the unaligned address while block addressed cards read sector 2.
func (d *Driver) detectHighCapacity() bool {
	d.be.SetAddress(0)
	d.be.SubmitCommand(CmdRead)
	d.probeWait()
	d.be.SetAddress(2)
	d.be.SubmitCommand(CmdRead)
	d.probeWait()
	return d.be.PollStatus()&statusProbeMask == 0
}

func (d *Driver) probeWait() {
	for i := 0; i < d.opts.ProbeWaits && d.be.PollStatus()&StatusBusy != 0; i++ {
		d.be.Sleep(d.opts.ProbeDelayMicros)
	}
}

// ReadSector reads sector n into the sector buffer. The buffer is left
// alone if the read fails.
func (d *Driver) ReadSector(n uint32) error {
	addr, err := d.address(n)
	if err != nil {
		return err
	}
	d.be.SetAddress(addr)
	err = d.attempt(fmt.Sprintf("read of sector %d", n), func() error {
		if err := d.waitIdle(); err != nil {
			return backoff.Permanent(err)
		}
		d.be.SubmitCommand(CmdRead)
		d.waitBusy()
		if err := d.waitIdle(); err != nil {
			return backoff.Permanent(err)
		}
		if s := d.be.PollStatus(); s&StatusFailMask != 0 {
			if err := d.Reset(); err != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("%w: status %#02x", ErrDevice, s)
		}
		d.be.ReadSectorBuffer(d.buf[:])
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read sector %d: %w", n, err)
	}
	return nil
}

// WriteSector writes the sector buffer to sector n and reads it back to
// check it landed. Nothing is written if the sector already holds the same
// data.
func (d *Driver) WriteSector(n uint32) error {
	addr, err := d.address(n)
	if err != nil {
		return err
	}
	if err := d.waitReady(d.opts.PollLimit); err != nil {
		return fmt.Errorf("failed to write sector %d: %w", n, err)
	}
	d.be.SubmitCommand(CmdResetEnd)
	d.be.SetAddress(addr)

	if err := d.readBack(); err == nil && bytes.Equal(d.buf[:], d.verify[:]) {
		glog.V(2).Infof("sdcard: sector %d unchanged", n)
		return nil
	}

	err = d.attempt(fmt.Sprintf("write of sector %d", n), func() error {
		d.be.WriteSectorBuffer(d.buf[:])
		if err := d.waitWritable(); err != nil {
			return err
		}
		d.be.SubmitCommand(CmdWrite)
		d.waitBusy()
		if err := d.waitWritable(); err != nil {
			return err
		}
		d.writes++
		d.be.Indicate(byte(d.writes))
		if s := d.be.PollStatus(); s&StatusFailMask != 0 {
			if err := d.Reset(); err != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("%w: status %#02x", ErrDevice, s)
		}
		if err := d.readBack(); err != nil {
			return err
		}
		if !bytes.Equal(d.buf[:], d.verify[:]) {
			return ErrVerify
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write sector %d: %w", n, err)
	}
	return nil
}

// Erase zeroes sectors first through last inclusive with a single
// multi-sector write. The sector buffer is cleared.
func (d *Driver) Erase(first, last uint32) error {
	if first > last {
		return fmt.Errorf("invalid erase range [%d, %d]", first, last)
	}
	addr, err := d.address(first)
	if err != nil {
		return err
	}
	if _, err := d.address(last); err != nil {
		return err
	}
	d.ClearBuffer()
	d.be.WriteSectorBuffer(d.buf[:])
	d.be.SetAddress(addr)

	for n := first; ; n++ {
		cmd := byte(CmdMultiWriteNext)
		if n == first {
			cmd = CmdMultiWriteFirst
		}
		if err := d.command(cmd); err != nil {
			return fmt.Errorf("failed to erase sector %d: %w", n, err)
		}
		if n == last {
			break
		}
	}
	if err := d.command(CmdMultiWriteDone); err != nil {
		return fmt.Errorf("failed to finish erase: %w", err)
	}
	glog.V(2).Infof("sdcard: erased sectors [%d, %d]", first, last)
	return nil
}

// command issues cmd once the controller is idle and waits for it to finish.
func (d *Driver) command(cmd byte) error {
	if err := d.waitReady(d.opts.PollLimit); err != nil {
		return err
	}
	d.be.SubmitCommand(cmd)
	d.waitBusy()
	if err := d.waitReady(d.opts.PollLimit); err != nil {
		return err
	}
	if s := d.be.PollStatus(); s&StatusFailMask != 0 {
		return fmt.Errorf("%w: status %#02x", ErrDevice, s)
	}
	return nil
}

// address converts a sector number into what the card expects.
func (d *Driver) address(n uint32) (uint32, error) {
	if d.highCapacity {
		return n, nil
	}
	if n >= maxByteAddressedSector {
		return 0, fmt.Errorf("sector %d: %w", n, ErrOutOfRange)
	}
	return n * SectorSize, nil
}

// readBack reads the addressed sector into the verify buffer. The status
// register may lag the command, so the read has to be seen starting before
// its completion means anything.
func (d *Driver) readBack() error {
	if err := d.waitReady(d.opts.PollLimit); err != nil {
		return err
	}
	d.be.SubmitCommand(CmdRead)
	d.waitBusy()
	if err := d.waitIdle(); err != nil {
		return err
	}
	if s := d.be.PollStatus(); s&StatusFailMask != 0 {
		return fmt.Errorf("%w: status %#02x", ErrDevice, s)
	}
	d.be.ReadSectorBuffer(d.verify[:])
	return nil
}

// attempt runs op up to MaxAttempts times. Errors marked permanent end the
// loop straight away; anything else is retried.
func (d *Driver) attempt(what string, op func() error) error {
	tries, permanent := 0, false
	err := backoff.RetryNotify(func() error {
		tries++
		err := op()
		var p *backoff.PermanentError
		permanent = errors.As(err, &p)
		return err
	}, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(d.opts.MaxAttempts-1)), func(err error, _ time.Duration) {
		glog.Warningf("sdcard: %s failed on attempt %d: %v", what, tries, err)
	})
	if err != nil && !permanent {
		return fmt.Errorf("%w after %d tries: %w", ErrAttempts, tries, err)
	}
	return err
}

// waitIdle waits for the current command to finish, giving up straight
// away if the controller flags an error while still busy.
func (d *Driver) waitIdle() error {
	for i := 0; i < d.opts.PollLimit; i++ {
		s := d.be.PollStatus()
		if s&StatusBusy == 0 {
			return nil
		}
		// Controller busy with the card idle only happens after a failed read.
		if s&StatusError != 0 || s == StatusControllerBusy {
			return fmt.Errorf("%w: status %#02x", ErrDevice, s)
		}
	}
	return ErrTimeout
}

// waitReady waits up to limit status reads for the busy bits to clear.
func (d *Driver) waitReady(limit int) error {
	for i := 0; i < limit; i++ {
		if d.be.PollStatus()&StatusBusy == 0 {
			return nil
		}
	}
	return ErrTimeout
}

// waitBusy gives a command a moment to show up as busy. Fast commands may
// finish before the first poll.
func (d *Driver) waitBusy() {
	for i := 0; i < busyPolls; i++ {
		if d.be.PollStatus()&StatusBusy != 0 {
			return
		}
	}
}

// waitWritable waits for the controller during a write. Each time the poll
// limit runs out the controller is kicked through a reset and the write
// command reissued.
func (d *Driver) waitWritable() error {
	for kicks := 0; ; kicks++ {
		if d.waitReady(d.opts.WritePollLimit) == nil {
			return nil
		}
		if kicks == d.opts.WriteKicks {
			return ErrTimeout
		}
		glog.Warningf("sdcard: controller stuck busy, kicking it")
		d.be.SubmitCommand(CmdResetBegin)
		d.be.Sleep(d.opts.KickDelayMicros)
		d.be.SubmitCommand(CmdResetEnd)
		d.be.SubmitCommand(CmdWrite)
	}
}
