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

// ADCChannel selects one analog input of the EPS ADC.
type ADCChannel uint8

// ADC inputs on the EPS board
const (
	ADCBBVol   ADCChannel = 0  // Boost board output voltage
	ADCBBCur   ADCChannel = 1  // Boost board output current
	ADCNYCur   ADCChannel = 2  // -Y panel current
	ADCPXCur   ADCChannel = 3  // +X panel current
	ADCPYCur   ADCChannel = 4  // +Y panel current
	ADCNXCur   ADCChannel = 5  // -X panel current
	ADCTherm1  ADCChannel = 6  // Battery thermistor 1
	ADCTherm2  ADCChannel = 7  // Battery thermistor 2
	ADCPackVol ADCChannel = 8  // Battery pack voltage
	ADCPackCur ADCChannel = 9  // Battery pack current
	ADCBTCur   ADCChannel = 10 // Buck-boost output current
	ADCBTVol   ADCChannel = 11 // Buck-boost output voltage
)

// DACChannel selects one DAC output.
type DACChannel uint8

// DAC outputs; each drives one heater comparator.
const (
	DACHeater1 DACChannel = 0 // DAC A
	DACHeater2 DACChannel = 1 // DAC B
)

// IMUAxis selects one IMU axis reading.
type IMUAxis uint8

// IMU axes in housekeeping order
const (
	IMUAccX IMUAxis = iota
	IMUAccY
	IMUAccZ
	IMUGyrX
	IMUGyrY
	IMUGyrZ
	IMUMagX
	IMUMagY
	IMUMagZ
)

// ADC reads raw converter codes. Implemented by the analog driver.
type ADC interface {
	ReadRaw(ch ADCChannel) (uint16, error)
}

// DAC writes raw converter codes. Implemented by the analog driver.
type DAC interface {
	WriteRaw(ch DACChannel, code uint16) error
}

// IMU reads raw 16-bit axis values.
type IMU interface {
	ReadAxis(axis IMUAxis) (uint16, error)
}

// ShuntSwitch connects or disconnects the solar panel shunts. Shunts on
// means the panels are shorted and the battery stops charging.
type ShuntSwitch interface {
	SetShunts(on bool) error
}

// BusDriver is the physical bus driver. ResumeTransmit asks it to service
// the given transmit mailbox; the driver responds by dispatching a
// transmit-ready event for that mailbox back through the Dispatcher.
type BusDriver interface {
	ResumeTransmit(id MailboxID) error
}

// Hardware bundles the collaborators a Node drives. IMU and Shunts may be nil.
type Hardware struct {
	ADC    ADC
	DAC    DAC
	IMU    IMU
	Shunts ShuntSwitch
}
