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

package frame

// Field identifies one housekeeping telemetry field. Fields are dense and
// streamed in ascending order; the peer relies on that order to know when a
// sequence ends.
type Field uint8

// Housekeeping fields, in streaming order
const (
	FieldBBVol Field = iota // Boost board output voltage
	FieldBBCur              // Boost board output current
	FieldNYCur              // -Y solar panel current
	FieldPXCur              // +X solar panel current
	FieldPYCur              // +Y solar panel current
	FieldNXCur              // -X solar panel current
	FieldBatTemp1
	FieldBatTemp2
	FieldBatVol
	FieldBatCur
	FieldBTCur // Buck-boost (3.3 V) output current
	FieldHeatSP1
	FieldHeatSP2
	FieldIMUAccX
	FieldIMUAccY
	FieldIMUAccZ
	FieldIMUGyrX
	FieldIMUGyrY
	FieldIMUGyrZ
	FieldIMUMagX
	FieldIMUMagY
	FieldIMUMagZ

	// FieldCount is the number of housekeeping fields.
	FieldCount = int(iota)
)

var fieldNames = [FieldCount]string{
	"BB Vol", "BB Cur", "-Y Cur", "+X Cur", "+Y Cur", "-X Cur",
	"Bat Temp 1", "Bat Temp 2", "Bat Vol", "Bat Cur", "BT Cur",
	"Heater Setpoint 1", "Heater Setpoint 2",
	"Acc X", "Acc Y", "Acc Z",
	"Gyr X", "Gyr Y", "Gyr Z",
	"Mag X", "Mag Y", "Mag Z",
}

// Valid reports whether f is inside the field set.
func (f Field) Valid() bool {
	return int(f) < FieldCount
}

// Next returns the field streamed after f. ok is false for the last field
// and for fields outside the set.
func (f Field) Next() (next Field, ok bool) {
	if int(f)+1 >= FieldCount {
		return 0, false
	}
	return f + 1, true
}

// String returns the human-readable field name.
func (f Field) String() string {
	if !f.Valid() {
		return "Unknown"
	}
	return fieldNames[f]
}
