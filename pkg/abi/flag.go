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

// Package abi describes the interface between a kernel and userspace: named
// bit-flag families and named scalar values, generic over the width of the
// underlying integer.
package abi

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// A Flag is one named bit, or group of bits, of a flag family.
type Flag[T constraints.Integer] struct {
	Flag T
	Name string
}

// A FlagSet is a family of bit flags and their names.
//
// The set of valid bits is the union of all named flags. A FlagSet is
// immutable once built.
type FlagSet[T constraints.Integer] struct {
	flags []Flag[T]
	mask  T
	err   error
}

// NewFlagSet builds a FlagSet from flags. err is returned by Check for values
// with bits outside the set.
func NewFlagSet[T constraints.Integer](err error, flags ...Flag[T]) FlagSet[T] {
	var mask T
	for _, f := range flags {
		mask |= f.Flag
	}
	return FlagSet[T]{
		flags: flags,
		mask:  mask,
		err:   err,
	}
}

// Mask returns the union of all valid bits.
func (s FlagSet[T]) Mask() T {
	return s.mask
}

// Flags returns the named flags, in declaration order.
func (s FlagSet[T]) Flags() []Flag[T] {
	return s.flags
}

// Check returns the family's error if val has bits outside Mask.
func (s FlagSet[T]) Check(val T) error {
	if val&^s.mask != 0 {
		return s.err
	}
	return nil
}

// From is the checked conversion from a raw integer into the family. It
// returns val unchanged, or the family's error if val has foreign bits.
func (s FlagSet[T]) From(val T) (T, error) {
	if err := s.Check(val); err != nil {
		return 0, err
	}
	return val, nil
}

// Parse returns a pretty version of val, using the flag names for known
// flags. Unknown bits are rendered as UNKNOWN(0x...).
func (s FlagSet[T]) Parse(val T) string {
	var flags []string
	for _, f := range s.flags {
		if f.Flag != 0 && val&f.Flag == f.Flag {
			flags = append(flags, f.Name)
			val &^= f.Flag
		}
	}
	if val != 0 {
		flags = append(flags, unknownBits(val))
	}
	if len(flags) == 0 {
		// Prefer 0 to an empty string.
		return "0x0"
	}
	return strings.Join(flags, "|")
}

func unknownBits[T constraints.Integer](val T) string {
	return "UNKNOWN(0x" + strconv.FormatUint(uint64(val), 16) + ")"
}

// Any returns true if any of bits is set in val.
func Any[T constraints.Integer](val, bits T) bool {
	return val&bits != 0
}

// All returns true if all of bits are set in val.
func All[T constraints.Integer](val, bits T) bool {
	return val&bits == bits
}

// A Value is the name and human readable description of one scalar value.
type Value struct {
	Name  string
	Label string
}

// ValueSet is an open set of named scalar values. Values missing from the
// set are valid but unknown.
type ValueSet[T constraints.Integer] map[T]Value

// Known returns true if val has a name.
func (s ValueSet[T]) Known(val T) bool {
	_, ok := s[val]
	return ok
}

// Parse returns the name of val, or UNKNOWN(val).
func (s ValueSet[T]) Parse(val T) string {
	if v, ok := s[val]; ok {
		return v.Name
	}
	return fmt.Sprintf("UNKNOWN(%d)", val)
}

// Format returns the name of val along with its numeric value, e.g.
// SOCK_STREAM(1).
func (s ValueSet[T]) Format(val T) string {
	if v, ok := s[val]; ok {
		return fmt.Sprintf("%s(%d)", v.Name, val)
	}
	return fmt.Sprintf("UNKNOWN(%d)", val)
}

// Label returns the human readable description of val.
func (s ValueSet[T]) Label(val T) string {
	if v, ok := s[val]; ok && v.Label != "" {
		return v.Label
	}
	return "unknown value " + strconv.FormatInt(int64(val), 10)
}
