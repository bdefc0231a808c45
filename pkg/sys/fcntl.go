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

// Fcntl issues cmd on d. The meaning of the result depends on the command:
// a descriptor number for the duplicating commands, flags for the getters,
// zero for the setters.
func (s *Sys) Fcntl(d fd.Descriptor, cmd linux.Fcntl) (uint64, error) {
	defer runtime.KeepAlive(d)
	return linuxerr.Uint64FromReturn(s.k.Syscall3(unix.SYS_FCNTL, raw(d), uintptr(cmd.Cmd), uintptr(cmd.Arg)))
}

// Dup duplicates d onto the lowest free descriptor number. The new
// descriptor has FD_CLOEXEC set.
func (s *Sys) Dup(d fd.Descriptor) (*fd.File, error) {
	raw, err := s.Fcntl(d, linux.FcntlDupFDCloexec(0))
	if err != nil {
		return nil, err
	}
	return fd.NewFile(s.k, fd.Raw(raw)), nil
}

// GetFDFlags returns the descriptor flags of d.
func (s *Sys) GetFDFlags(d fd.Descriptor) (linux.FDFlags, error) {
	v, err := s.Fcntl(d, linux.FcntlGetFD())
	return linux.FDFlags(v), err
}

// GetStatusFlags returns the access mode and file status flags of d.
func (s *Sys) GetStatusFlags(d fd.Descriptor) (linux.OpenFlags, error) {
	v, err := s.Fcntl(d, linux.FcntlGetFL())
	return linux.OpenFlags(v), err
}

// SetNonblocking sets or clears O_NONBLOCK on d. It is a convenience that
// issues F_GETFL and F_SETFL.
func (s *Sys) SetNonblocking(d fd.Descriptor, nonblocking bool) error {
	flags, err := s.GetStatusFlags(d)
	if err != nil {
		return err
	}
	if nonblocking {
		flags |= linux.O_NONBLOCK
	} else {
		flags &^= linux.O_NONBLOCK
	}
	_, err = s.Fcntl(d, linux.FcntlSetFL(flags))
	return err
}
