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

package linux

import (
	"unsafe"

	"gvisor.dev/syslib/pkg/abi"
)

// IOCDir is the direction field of an ioctl request, as seen from userspace.
type IOCDir uint32

// Directions provided by uapi/asm-generic/ioctl.h.
const (
	IOC_NONE  IOCDir = 0
	IOC_WRITE IOCDir = 1
	IOC_READ  IOCDir = 2
)

// Field widths and offsets of an ioctl request.
const (
	IOC_NRBITS   = 8
	IOC_TYPEBITS = 8
	IOC_SIZEBITS = 14
	IOC_DIRBITS  = 2

	IOC_NRSHIFT   = 0
	IOC_TYPESHIFT = IOC_NRSHIFT + IOC_NRBITS
	IOC_SIZESHIFT = IOC_TYPESHIFT + IOC_TYPEBITS
	IOC_DIRSHIFT  = IOC_SIZESHIFT + IOC_SIZEBITS

	IOC_NRMASK   = (1 << IOC_NRBITS) - 1
	IOC_TYPEMASK = (1 << IOC_TYPEBITS) - 1
	IOC_SIZEMASK = (1 << IOC_SIZEBITS) - 1
	IOC_DIRMASK  = (1 << IOC_DIRBITS) - 1
)

var iocDirs = abi.ValueSet[IOCDir]{
	IOC_NONE:             {Name: "_IOC_NONE", Label: "no data transfer"},
	IOC_WRITE:            {Name: "_IOC_WRITE", Label: "userspace writes, kernel reads"},
	IOC_READ:             {Name: "_IOC_READ", Label: "userspace reads, kernel writes"},
	IOC_READ | IOC_WRITE: {Name: "_IOC_READ|_IOC_WRITE", Label: "transfer in both directions"},
}

func (d IOCDir) String() string {
	return iocDirs.Parse(d)
}

// IOC outputs the result of _IOC macro in include/uapi/asm-generic/ioctl.h.
//
// Fields wider than their slot are truncated.
func IOC(dir IOCDir, typ, nr, size uint32) uint32 {
	return uint32(dir&IOC_DIRMASK)<<IOC_DIRSHIFT |
		(typ&IOC_TYPEMASK)<<IOC_TYPESHIFT |
		(nr&IOC_NRMASK)<<IOC_NRSHIFT |
		(size&IOC_SIZEMASK)<<IOC_SIZESHIFT
}

// IO outputs the result of _IO macro in include/uapi/asm-generic/ioctl.h.
func IO(typ, nr uint32) uint32 {
	return IOC(IOC_NONE, typ, nr, 0)
}

// IOR outputs the result of _IOR macro in include/uapi/asm-generic/ioctl.h,
// with the size taken from T.
func IOR[T any](typ, nr uint32) uint32 {
	var v T
	return IOC(IOC_READ, typ, nr, uint32(unsafe.Sizeof(v)))
}

// IOW outputs the result of _IOW macro in include/uapi/asm-generic/ioctl.h,
// with the size taken from T.
func IOW[T any](typ, nr uint32) uint32 {
	var v T
	return IOC(IOC_WRITE, typ, nr, uint32(unsafe.Sizeof(v)))
}

// IOWR outputs the result of _IOWR macro in include/uapi/asm-generic/ioctl.h,
// with the size taken from T.
func IOWR[T any](typ, nr uint32) uint32 {
	var v T
	return IOC(IOC_READ|IOC_WRITE, typ, nr, uint32(unsafe.Sizeof(v)))
}

// IOCDirOf returns the direction field of an ioctl request.
func IOCDirOf(cmd uint32) IOCDir {
	return IOCDir(cmd>>IOC_DIRSHIFT) & IOC_DIRMASK
}

// IOCType returns the type field of an ioctl request.
func IOCType(cmd uint32) uint32 {
	return (cmd >> IOC_TYPESHIFT) & IOC_TYPEMASK
}

// IOCNr returns the number field of an ioctl request.
func IOCNr(cmd uint32) uint32 {
	return (cmd >> IOC_NRSHIFT) & IOC_NRMASK
}

// IOCSize returns the size field of an ioctl request.
func IOCSize(cmd uint32) uint32 {
	return (cmd >> IOC_SIZESHIFT) & IOC_SIZEMASK
}

// ioctl(2) requests provided by asm-generic/ioctls.h. These predate the
// _IOC encoding and carry no direction or size.
const (
	TCGETS   = 0x00005401
	FIONREAD = 0x0000541b
	FIONBIO  = 0x00005421
	FIONCLEX = 0x00005450
	FIOCLEX  = 0x00005451
)
