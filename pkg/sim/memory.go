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

package sim

import (
	"unsafe"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
)

// The helpers below turn pointer arguments into Go values. The memory
// belongs to the caller, who pins it for the duration of the call. A null
// pointer fails with EFAULT; any other bad pointer is not detected.

// pathMax bounds NUL-terminated path arguments, as PATH_MAX does.
const pathMax = 4096

// bytesAt returns the n bytes at addr.
func bytesAt(addr uintptr, n uint64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if addr == 0 {
		return nil, linuxerr.EFAULT
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n), nil
}

// sliceAt returns the n values of type T at addr.
func sliceAt[T any](addr uintptr, n uint64) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	if addr == 0 {
		return nil, linuxerr.EFAULT
	}
	return unsafe.Slice((*T)(unsafe.Pointer(addr)), n), nil
}

// valueAt returns the T at addr.
func valueAt[T any](addr uintptr) (*T, error) {
	if addr == 0 {
		return nil, linuxerr.EFAULT
	}
	return (*T)(unsafe.Pointer(addr)), nil
}

// stringAt returns the NUL-terminated string at addr.
func stringAt(addr uintptr) (string, error) {
	if addr == 0 {
		return "", linuxerr.EFAULT
	}
	p := unsafe.Pointer(addr)
	for i := 0; i < pathMax; i++ {
		if *(*byte)(unsafe.Add(p, i)) == 0 {
			return string(unsafe.Slice((*byte)(p), i)), nil
		}
	}
	return "", linuxerr.ENAMETOOLONG
}

// iovecsAt returns the buffers described by the n iovecs at addr.
func iovecsAt(addr uintptr, n uint64) ([][]byte, error) {
	if n > linux.UIO_MAXIOV {
		return nil, linuxerr.EINVAL
	}
	iov, err := sliceAt[linux.Iovec](addr, n)
	if err != nil {
		return nil, err
	}
	bufs := make([][]byte, len(iov))
	for i, v := range iov {
		if bufs[i], err = bytesAt(uintptr(v.Base), v.Len); err != nil {
			return nil, err
		}
	}
	return bufs, nil
}

// gather copies bufs into one slice.
func gather(bufs [][]byte) []byte {
	n := 0
	for _, b := range bufs {
		n += len(b)
	}
	out := make([]byte, 0, n)
	for _, b := range bufs {
		out = append(out, b...)
	}
	return out
}

// scatter copies src into bufs, starting off bytes into them, and returns the
// number of bytes copied.
func scatter(bufs [][]byte, off int, src []byte) int {
	n := 0
	for _, b := range bufs {
		if off >= len(b) {
			off -= len(b)
			continue
		}
		c := copy(b[off:], src[n:])
		n += c
		off = 0
		if n == len(src) {
			break
		}
	}
	return n
}

// capacity returns the total length of bufs.
func capacity(bufs [][]byte) int {
	n := 0
	for _, b := range bufs {
		n += len(b)
	}
	return n
}
