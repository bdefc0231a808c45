// Copyright 2021 The gVisor Authors.
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

// Package errors holds the standardized error definition for syslib.
package errors

import (
	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/abi/linux/errno"
)

// Error represents a syscall errno with a descriptive message.
type Error struct {
	errno   errno.Errno
	message string
}

// New creates a new *Error.
func New(err errno.Errno, message string) *Error {
	return &Error{
		errno:   err,
		message: message,
	}
}

// Error implements error.Error.
func (e *Error) Error() string { return e.message }

// Errno returns the underlying errno.Errno value.
func (e *Error) Errno() errno.Errno { return e.errno }

// String implements fmt.Stringer.String. It renders the symbolic name, the
// number and the message, e.g. "EBADF(9): bad file number".
func (e *Error) String() string {
	return e.errno.String() + ": " + e.message
}

// Is lets errors.Is match e against another *Error or a unix.Errno carrying
// the same number. Errors for unknown numbers are allocated on demand, so
// identity alone is not enough.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case *Error:
		return t != nil && t.errno == e.errno
	case unix.Errno:
		return uint32(t) == uint32(e.errno)
	}
	return false
}
