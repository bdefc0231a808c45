// Copyright 2018 The gVisor Authors.
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

package abi

import (
	"errors"
	"testing"
)

var errBadFlags = errors.New("bad flags")

var testFlags = NewFlagSet[uint16](errBadFlags,
	Flag[uint16]{Flag: 0x1, Name: "A"},
	Flag[uint16]{Flag: 0x2, Name: "B"},
	Flag[uint16]{Flag: 0x8, Name: "D"},
	Flag[uint16]{Flag: 0x100, Name: "HIGH"},
)

func TestFlagSetMask(t *testing.T) {
	if got, want := testFlags.Mask(), uint16(0x10b); got != want {
		t.Errorf("Mask() = %#x, want %#x", got, want)
	}
}

func TestFlagSetCheck(t *testing.T) {
	mask := testFlags.Mask()
	for v := 0; v <= 0xffff; v++ {
		val := uint16(v)
		err := testFlags.Check(val)
		if val&^mask == 0 {
			if err != nil {
				t.Fatalf("Check(%#x) = %v, want nil", val, err)
			}
			// Valid values survive the checked conversion unchanged.
			if got, err := testFlags.From(val); got != val || err != nil {
				t.Fatalf("From(%#x) = %#x, %v", val, got, err)
			}
		} else {
			if err != errBadFlags {
				t.Fatalf("Check(%#x) = %v, want %v", val, err, errBadFlags)
			}
			if _, err := testFlags.From(val); err != errBadFlags {
				t.Fatalf("From(%#x) = %v, want %v", val, err, errBadFlags)
			}
		}
	}
}

func TestFlagSetParse(t *testing.T) {
	for _, tc := range []struct {
		val  uint16
		want string
	}{
		{0, "0x0"},
		{0x1, "A"},
		{0x3, "A|B"},
		{0x109, "A|D|HIGH"},
		{0x14, "UNKNOWN(0x14)"},
		{0x8003, "A|B|UNKNOWN(0x8000)"},
	} {
		if got := testFlags.Parse(tc.val); got != tc.want {
			t.Errorf("Parse(%#x) = %q, want %q", tc.val, got, tc.want)
		}
	}
}

func TestAnyAll(t *testing.T) {
	if !Any(uint8(0b101), 0b100) {
		t.Errorf("Any(0b101, 0b100) = false")
	}
	if Any(uint8(0b101), 0b010) {
		t.Errorf("Any(0b101, 0b010) = true")
	}
	if !All(uint8(0b111), 0b101) {
		t.Errorf("All(0b111, 0b101) = false")
	}
	if All(uint8(0b101), 0b111) {
		t.Errorf("All(0b101, 0b111) = true")
	}
}

func TestValueSet(t *testing.T) {
	s := ValueSet[int32]{
		1: {Name: "ONE", Label: "The first"},
		7: {Name: "SEVEN"},
	}
	for _, tc := range []struct {
		val    int32
		known  bool
		name   string
		format string
		label  string
	}{
		{1, true, "ONE", "ONE(1)", "The first"},
		{7, true, "SEVEN", "SEVEN(7)", "unknown value 7"},
		{3, false, "UNKNOWN(3)", "UNKNOWN(3)", "unknown value 3"},
	} {
		if got := s.Known(tc.val); got != tc.known {
			t.Errorf("Known(%d) = %t, want %t", tc.val, got, tc.known)
		}
		if got := s.Parse(tc.val); got != tc.name {
			t.Errorf("Parse(%d) = %q, want %q", tc.val, got, tc.name)
		}
		if got := s.Format(tc.val); got != tc.format {
			t.Errorf("Format(%d) = %q, want %q", tc.val, got, tc.format)
		}
		if got := s.Label(tc.val); got != tc.label {
			t.Errorf("Label(%d) = %q, want %q", tc.val, got, tc.label)
		}
	}
}
