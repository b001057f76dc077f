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

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the controller stays busy for too long.
	ErrTimeout = errors.New("timed out waiting for the SD controller")
	// ErrDevice is returned when the controller reports a failed command.
	ErrDevice = errors.New("SD controller reported an error")
	// ErrOutOfRange is returned for sectors a byte addressed card can't reach.
	ErrOutOfRange = errors.New("sector out of range for a byte addressed card")
	// ErrVerify is returned when a sector reads back differently to what was written.
	ErrVerify = errors.New("sector did not read back as written")
	// ErrAttempts wraps the last failure once every attempt has been used.
	ErrAttempts = errors.New("out of attempts")
)

// Options tunes the driver's retry and polling limits.
type Options struct {
	// MaxAttempts is the number of tries a sector read or write gets.
	MaxAttempts int `yaml:"MaxAttempts"`
	// PollLimit is the number of status reads a sector read waits for.
	PollLimit int `yaml:"PollLimit"`
	// ResetPollLimit is the number of status reads a reset waits for.
	ResetPollLimit int `yaml:"ResetPollLimit"`
	// WritePollLimit is the number of status reads a write waits for before
	// kicking the controller. The controller uses a 16-bit counter.
	WritePollLimit int `yaml:"WritePollLimit"`
	// WriteKicks is the number of kicks a write attempt tolerates.
	WriteKicks int `yaml:"WriteKicks"`
	// KickDelayMicros is how long the controller is held in reset during a kick.
	KickDelayMicros uint32 `yaml:"KickDelayMicros"`
	// ProbeWaits is the number of ProbeDelayMicros sleeps card type detection
	// waits for a read.
	ProbeWaits int `yaml:"ProbeWaits"`
	// ProbeDelayMicros is the length of a card type detection sleep.
	ProbeDelayMicros uint32 `yaml:"ProbeDelayMicros"`
}

// DefaultOptions returns the limits used on real hardware.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:      10,
		PollLimit:        50000,
		ResetPollLimit:   1 << 20,
		WritePollLimit:   1 << 16,
		WriteKicks:       4,
		KickDelayMicros:  500000,
		ProbeWaits:       20,
		ProbeDelayMicros: 65535,
	}
}

// Validate checks that every limit is usable.
func (o Options) Validate() error {
	for _, l := range []struct {
		name string
		v    int
	}{
		{"MaxAttempts", o.MaxAttempts},
		{"PollLimit", o.PollLimit},
		{"ResetPollLimit", o.ResetPollLimit},
		{"WritePollLimit", o.WritePollLimit},
		{"WriteKicks", o.WriteKicks},
	} {
		if l.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", l.name, l.v)
		}
	}
	if o.ProbeWaits < 0 {
		return fmt.Errorf("ProbeWaits must not be negative, got %d", o.ProbeWaits)
	}
	return nil
}
