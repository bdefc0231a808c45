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

	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
)

// OpenUnchecked opens the file at path.
//
// path must point to a NUL-terminated byte sequence that stays valid for the
// duration of the call. Nothing checks this. Open is the checked form.
func (s *Sys) OpenUnchecked(path *byte, flags linux.OpenFlags, mode linux.FileMode) (*fd.File, error) {
	if err := linux.OpenFlagSet.Check(flags); err != nil {
		return nil, err
	}
	var p runtime.Pinner
	defer p.Unpin()
	raw, err := linuxerr.Uint32FromReturn(s.k.Syscall3(unix.SYS_OPEN, ptrAddr(&p, path), uintptr(flags), uintptr(mode)))
	if err != nil {
		return nil, err
	}
	return fd.NewFile(s.k, fd.Raw(raw)), nil
}

// Open opens the file at path. A path containing NUL fails with EINVAL.
func (s *Sys) Open(path string, flags linux.OpenFlags, mode linux.FileMode) (*fd.File, error) {
	b, err := cstring(path)
	if err != nil {
		return nil, err
	}
	return s.OpenUnchecked(b, flags, mode)
}

// stat issues one of stat(2) or lstat(2).
func (s *Sys) stat(nr uintptr, path *byte) (linux.Stat, error) {
	var p runtime.Pinner
	defer p.Unpin()
	st := new(linux.Stat)
	if err := linuxerr.FromReturn(s.k.Syscall2(nr, ptrAddr(&p, path), ptrAddr(&p, st))); err != nil {
		return linux.Stat{}, err
	}
	return *st, nil
}

// StatUnchecked is Stat for a NUL-terminated path, which nothing checks.
func (s *Sys) StatUnchecked(path *byte) (linux.Stat, error) {
	return s.stat(unix.SYS_STAT, path)
}

// Stat returns the status of the file at path, following symbolic links.
func (s *Sys) Stat(path string) (linux.Stat, error) {
	b, err := cstring(path)
	if err != nil {
		return linux.Stat{}, err
	}
	return s.stat(unix.SYS_STAT, b)
}

// LstatUnchecked is Lstat for a NUL-terminated path, which nothing checks.
func (s *Sys) LstatUnchecked(path *byte) (linux.Stat, error) {
	return s.stat(unix.SYS_LSTAT, path)
}

// Lstat returns the status of the file at path. If path names a symbolic
// link, the status is of the link itself.
func (s *Sys) Lstat(path string) (linux.Stat, error) {
	b, err := cstring(path)
	if err != nil {
		return linux.Stat{}, err
	}
	return s.stat(unix.SYS_LSTAT, b)
}

// Fstat returns the status of the file d refers to.
func (s *Sys) Fstat(d fd.Descriptor) (linux.Stat, error) {
	defer runtime.KeepAlive(d)
	var p runtime.Pinner
	defer p.Unpin()
	st := new(linux.Stat)
	if err := linuxerr.FromReturn(s.k.Syscall2(unix.SYS_FSTAT, raw(d), ptrAddr(&p, st))); err != nil {
		return linux.Stat{}, err
	}
	return *st, nil
}

// UnlinkUnchecked is Unlink for a NUL-terminated path, which nothing checks.
func (s *Sys) UnlinkUnchecked(path *byte) error {
	var p runtime.Pinner
	defer p.Unpin()
	return linuxerr.FromReturn(s.k.Syscall1(unix.SYS_UNLINK, ptrAddr(&p, path)))
}

// Unlink removes the directory entry path. Descriptors already open on the
// file keep working.
func (s *Sys) Unlink(path string) error {
	b, err := cstring(path)
	if err != nil {
		return err
	}
	return s.UnlinkUnchecked(b)
}

// MemfdCreate creates an anonymous file that lives in memory and has no
// directory entry. name is shown in /proc/self/fd and is otherwise
// meaningless.
func (s *Sys) MemfdCreate(name string, flags linux.MemfdFlags) (*fd.File, error) {
	if err := linux.MemfdFlagSet.Check(flags); err != nil {
		return nil, err
	}
	b, err := cstring(name)
	if err != nil {
		return nil, err
	}
	var p runtime.Pinner
	defer p.Unpin()
	raw, err := linuxerr.Uint32FromReturn(s.k.Syscall2(unix.SYS_MEMFD_CREATE, ptrAddr(&p, b), uintptr(flags)))
	if err != nil {
		return nil, err
	}
	return fd.NewFile(s.k, fd.Raw(raw)), nil
}

// Ftruncate sets the size of the file d refers to.
func (s *Sys) Ftruncate(d fd.Descriptor, length int64) error {
	defer runtime.KeepAlive(d)
	return linuxerr.FromReturn(s.k.Syscall2(unix.SYS_FTRUNCATE, raw(d), uintptr(length)))
}
