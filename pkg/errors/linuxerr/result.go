// Copyright 2024 The gVisor Authors.
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

package linuxerr

import (
	"strconv"

	"gvisor.dev/syslib/pkg/abi/linux/errno"
)

// The helpers below decode rv, the value left in the return register by a
// system call. A negative rv is a negated errno; anything else is the
// success payload.

// maxReturnErrno is the largest errno a system call returns. Linux reserves
// [-4095, -1] for errors.
const maxReturnErrno = 4095

// ReturnError is a negative result below the errno range. Linux never
// returns one, but a substituted kernel can.
type ReturnError struct {
	// Value is the result exactly as returned.
	Value int64
}

// Error implements error.Error.
func (e *ReturnError) Error() string {
	return "invalid system call result " + strconv.FormatInt(e.Value, 10)
}

// fromNegative returns the error for a negative rv.
func fromNegative(rv int64) error {
	if rv < -maxReturnErrno {
		return &ReturnError{Value: rv}
	}
	return Lookup(errno.Errno(-rv))
}

// FromReturn returns the error encoded in rv, or nil.
func FromReturn(rv int64) error {
	if rv < 0 {
		return fromNegative(rv)
	}
	return nil
}

// SizeFromReturn returns rv as a byte or item count.
func SizeFromReturn(rv int64) (int, error) {
	if rv < 0 {
		return 0, fromNegative(rv)
	}
	return int(rv), nil
}

// Uint32FromReturn returns rv as a 32-bit value, such as a file descriptor.
func Uint32FromReturn(rv int64) (uint32, error) {
	if rv < 0 {
		return 0, fromNegative(rv)
	}
	return uint32(rv), nil
}

// Uint64FromReturn returns rv as an unsigned word.
func Uint64FromReturn(rv int64) (uint64, error) {
	if rv < 0 {
		return 0, fromNegative(rv)
	}
	return uint64(rv), nil
}

// AddrFromReturn returns rv as an address.
//
// Userspace addresses on amd64 fit in 47 bits and are never negative.
func AddrFromReturn(rv int64) (uintptr, error) {
	if rv < 0 {
		return 0, fromNegative(rv)
	}
	return uintptr(rv), nil
}
