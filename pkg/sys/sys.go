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

// Package sys wraps the Linux system calls this module supports in typed,
// ownership-aware functions.
//
// Each operation issues exactly one system call (a few convenience helpers,
// documented as such, issue several) and returns the kernel's result
// decoded: the success payload, or the *errors.Error from linuxerr that
// matches the returned errno. Nothing is retried; EINTR and EAGAIN are
// returned like any other error.
//
// Buffers handed to the kernel are pinned for the duration of the call.
package sys

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/dispatch"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
)

// Sys issues system calls through a kernel.
type Sys struct {
	k dispatch.Kernel
}

// New returns a Sys that issues calls through k.
func New(k dispatch.Kernel) *Sys {
	return &Sys{k: k}
}

// NewHost returns a Sys for the running kernel.
func NewHost() *Sys {
	return New(dispatch.Host{})
}

// Kernel returns the kernel s issues calls through.
func (s *Sys) Kernel() dispatch.Kernel {
	return s.k
}

// raw returns the descriptor number of d as a system call argument.
func raw(d fd.Descriptor) uintptr {
	return uintptr(d.Borrow().Raw())
}

// sliceAddr pins the backing array of b and returns its address, or 0 for an
// empty slice.
func sliceAddr[T any](p *runtime.Pinner, b []T) uintptr {
	if len(b) == 0 {
		return 0
	}
	p.Pin(&b[0])
	return uintptr(unsafe.Pointer(&b[0]))
}

// ptrAddr pins v and returns its address.
func ptrAddr[T any](p *runtime.Pinner, v *T) uintptr {
	p.Pin(v)
	return uintptr(unsafe.Pointer(v))
}

// cstring returns a NUL-terminated copy of s. A string containing NUL fails
// with EINVAL.
func cstring(s string) (*byte, error) {
	b, err := unix.BytePtrFromString(s)
	if err != nil {
		return nil, linuxerr.EINVAL
	}
	return b, nil
}

// Close closes d.
//
// For an owned descriptor prefer its Close method: Close here does not tell
// the owner, which will close the number again later.
func (s *Sys) Close(d fd.Descriptor) error {
	defer runtime.KeepAlive(d)
	return linuxerr.FromReturn(s.k.Syscall1(unix.SYS_CLOSE, raw(d)))
}
