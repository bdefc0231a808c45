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

package sys

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
)

// The functions in this file manage address space directly. Nothing tracks
// the mappings they create: the caller must remember each mapping's address
// and length, must not touch a region after unmapping or moving it, and must
// serialize these calls against any concurrent use of the region.

// noFD is the descriptor argument of an anonymous mapping.
const noFD = ^uintptr(0)

// Mmap maps length bytes of the file d refers to, starting at offset, and
// returns the address of the mapping. addr is a hint unless flags contains
// MAP_FIXED.
func (s *Sys) Mmap(addr uintptr, length uint64, prot linux.Prot, flags linux.MapFlags, d fd.Descriptor, offset int64) (uintptr, error) {
	defer runtime.KeepAlive(d)
	if err := linux.ProtSet.Check(prot); err != nil {
		return 0, err
	}
	if err := linux.MapFlagSet.Check(flags); err != nil {
		return 0, err
	}
	return linuxerr.AddrFromReturn(s.k.Syscall6(unix.SYS_MMAP, addr, uintptr(length), uintptr(prot), uintptr(flags), raw(d), uintptr(offset)))
}

// MmapAnonymous maps length bytes of zeroed memory backed by no file.
// MAP_ANONYMOUS is added to flags.
func (s *Sys) MmapAnonymous(addr uintptr, length uint64, prot linux.Prot, flags linux.MapFlags) (uintptr, error) {
	flags |= linux.MAP_ANONYMOUS
	if err := linux.ProtSet.Check(prot); err != nil {
		return 0, err
	}
	if err := linux.MapFlagSet.Check(flags); err != nil {
		return 0, err
	}
	return linuxerr.AddrFromReturn(s.k.Syscall6(unix.SYS_MMAP, addr, uintptr(length), uintptr(prot), uintptr(flags), noFD, 0))
}

// Mprotect changes the protection of the pages in [addr, addr+length).
func (s *Sys) Mprotect(addr uintptr, length uint64, prot linux.Prot) error {
	if err := linux.ProtSet.Check(prot); err != nil {
		return err
	}
	return linuxerr.FromReturn(s.k.Syscall3(unix.SYS_MPROTECT, addr, uintptr(length), uintptr(prot)))
}

// Munmap removes the mappings in [addr, addr+length).
func (s *Sys) Munmap(addr uintptr, length uint64) error {
	return linuxerr.FromReturn(s.k.Syscall2(unix.SYS_MUNMAP, addr, uintptr(length)))
}

// Mremap grows or shrinks the mapping at old from oldLen to newLen bytes and
// returns its address afterwards.
//
// With MREMAP_MAYMOVE the kernel may move the mapping, and old is then no
// longer mapped. newAddr is used only with MREMAP_FIXED.
func (s *Sys) Mremap(old uintptr, oldLen, newLen uint64, flags linux.RemapFlags, newAddr uintptr) (uintptr, error) {
	if err := linux.RemapFlagSet.Check(flags); err != nil {
		return 0, err
	}
	return linuxerr.AddrFromReturn(s.k.Syscall5(unix.SYS_MREMAP, old, uintptr(oldLen), uintptr(newLen), uintptr(flags), newAddr))
}

// MappedBytes returns a slice over [addr, addr+length).
//
// The region must be mapped, and readable (and writable, if the slice is
// written) for as long as the slice is used. Nothing checks this.
func MappedBytes(addr uintptr, length uint64) []byte {
	if length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
}
