// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
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

package eps

import (
	"errors"
	"sync"

	"github.com/cubesat-eps/go-eps/frame"
	"github.com/rs/zerolog"
)

func init() {
	SetLogger(zerolog.Nop())
}

var errHardware = errors.New("hardware fault")

// fakeADC returns fixed codes per channel, or errHardware for channels in
// fail.
type fakeADC struct {
	codes map[ADCChannel]uint16
	fail  map[ADCChannel]bool
	mu    sync.Mutex
}

func newFakeADC() *fakeADC {
	return &fakeADC{codes: make(map[ADCChannel]uint16), fail: make(map[ADCChannel]bool)}
}

func (a *fakeADC) set(ch ADCChannel, code uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.codes[ch] = code
}

func (a *fakeADC) ReadRaw(ch ADCChannel) (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail[ch] {
		return 0, errHardware
	}
	return a.codes[ch], nil
}

type dacWrite struct {
	ch   DACChannel
	code uint16
}

type fakeDAC struct {
	writes []dacWrite
	fail   bool
}

func (d *fakeDAC) WriteRaw(ch DACChannel, code uint16) error {
	if d.fail {
		return errHardware
	}
	d.writes = append(d.writes, dacWrite{ch: ch, code: code})
	return nil
}

type fakeIMU struct{}

func (fakeIMU) ReadAxis(axis IMUAxis) (uint16, error) {
	return 0x1000 + uint16(axis), nil
}

type fakeShunts struct {
	states []bool
}

func (s *fakeShunts) SetShunts(on bool) error {
	s.states = append(s.states, on)
	return nil
}

// loopbackBus services ResumeTransmit by dispatching the transmit-ready
// event straight back, the way a bus driver does from its interrupt.
type loopbackBus struct {
	d    *Dispatcher
	sent []frame.Frame
}

func (b *loopbackBus) ResumeTransmit(id MailboxID) error {
	f, ok, err := b.d.TransmitReady(id)
	if err != nil {
		return err
	}
	if ok {
		b.sent = append(b.sent, f)
	}
	return nil
}

// fieldADC loads every ADC channel with a code derived from its number so
// responses can be told apart.
func fieldADC() *fakeADC {
	adc := newFakeADC()
	for ch := ADCBBVol; ch <= ADCBTVol; ch++ {
		adc.set(ch, 100+uint16(ch))
	}
	return adc
}
