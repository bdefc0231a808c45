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

// EpollCreate creates an epoll instance.
func (s *Sys) EpollCreate(flags linux.EpollCreateFlags) (*fd.File, error) {
	if err := linux.EpollCreateFlagSet.Check(flags); err != nil {
		return nil, err
	}
	raw, err := linuxerr.Uint32FromReturn(s.k.Syscall1(unix.SYS_EPOLL_CREATE1, uintptr(flags)))
	if err != nil {
		return nil, err
	}
	return fd.NewFile(s.k, fd.Raw(raw)), nil
}

// EpollOp is an epoll_ctl(2) operation and, for add and modify, the event
// it registers.
type EpollOp struct {
	op    linux.EpollCtlOp
	event *linux.EpollEvent
}

// EpollAdd registers a descriptor with interest in ev.Events. ev.Data is
// handed back with each event.
func EpollAdd(ev linux.EpollEvent) EpollOp {
	return EpollOp{op: linux.EPOLL_CTL_ADD, event: &ev}
}

// EpollModify replaces the registered event of a descriptor.
func EpollModify(ev linux.EpollEvent) EpollOp {
	return EpollOp{op: linux.EPOLL_CTL_MOD, event: &ev}
}

// EpollDelete unregisters a descriptor.
func EpollDelete() EpollOp {
	return EpollOp{op: linux.EPOLL_CTL_DEL}
}

// Op returns the epoll_ctl(2) operation.
func (o EpollOp) Op() linux.EpollCtlOp {
	return o.op
}

// EpollCtl applies op to target in the epoll instance ep.
func (s *Sys) EpollCtl(ep, target fd.Descriptor, op EpollOp) error {
	defer runtime.KeepAlive(ep)
	defer runtime.KeepAlive(target)
	var p runtime.Pinner
	defer p.Unpin()
	var ev uintptr
	if op.event != nil {
		if err := linux.EpollEventSet.Check(op.event.Events); err != nil {
			return err
		}
		ev = ptrAddr(&p, op.event)
	}
	return linuxerr.FromReturn(s.k.Syscall4(unix.SYS_EPOLL_CTL, raw(ep), uintptr(op.op), raw(target), ev))
}

// EpollWait waits for events on ep and returns the filled prefix of events.
//
// timeout is in milliseconds. linux.EpollWaitForever waits until an event
// arrives; zero returns at once.
func (s *Sys) EpollWait(ep fd.Descriptor, events []linux.EpollEvent, timeout int) ([]linux.EpollEvent, error) {
	defer runtime.KeepAlive(ep)
	var p runtime.Pinner
	defer p.Unpin()
	n, err := linuxerr.SizeFromReturn(s.k.Syscall4(unix.SYS_EPOLL_WAIT, raw(ep), sliceAddr(&p, events), uintptr(len(events)), uintptr(timeout)))
	if err != nil {
		return nil, err
	}
	return events[:n], nil
}
