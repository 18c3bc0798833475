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

import (
	"bytes"
	"testing"
)

func FuzzParse(f *testing.F) {
	f.Add([]byte{0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00})
	f.Add([]byte{0x00, 0x04, 0x01, 0x00, 0x05, 0xEE, 0x00, 0x00})
	f.Add([]byte{})
	f.Add([]byte{0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		fr, err := Parse(data)
		if err != nil {
			if len(data) == Size {
				t.Fatalf("Parse rejected a full frame: %v", err)
			}
			return
		}
		b := fr.Bytes()
		if !bytes.Equal(b[:], data) {
			t.Fatalf("Bytes() = % X, want % X", b, data)
		}
	})
}
