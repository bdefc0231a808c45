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

// Package fd provides types for owning and borrowing file descriptors.
//
// A Borrowed descriptor is a plain number: copying it is free and dropping it
// does nothing. A File or Socket owns its descriptor and closes it exactly
// once, either through Close or, if the owner is garbage collected first,
// through a finalizer.
//
// Every operation that takes a descriptor accepts a Descriptor, so borrowed
// and owned forms can be used interchangeably.
package fd

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/dispatch"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/log"
)

// Raw is a kernel-assigned descriptor number. It has no meaning outside the
// kernel's descriptor table.
type Raw uint32

// Invalid is the descriptor number a closed or released owner lends out.
// The kernel never assigns it, so any call made with it fails with EBADF.
const Invalid Raw = ^Raw(0)

// Descriptor is implemented by every type that can lend out its descriptor.
type Descriptor interface {
	// Borrow returns a view of the descriptor. The view is valid only as
	// long as the owner is open.
	Borrow() Borrowed
}

// Borrowed is a non-owning view of a descriptor.
//
// A Borrowed descriptor must not be used after its owner is closed. Nothing
// enforces this: the number may by then refer to a different file.
type Borrowed struct {
	raw Raw
}

var _ Descriptor = Borrowed{}

// Standard descriptors, borrowed from the process.
var (
	Stdin  = Borrowed{0}
	Stdout = Borrowed{1}
	Stderr = Borrowed{2}
)

// Borrow returns a view of raw.
func Borrow(raw Raw) Borrowed {
	return Borrowed{raw}
}

// Borrow implements Descriptor.Borrow.
func (b Borrowed) Borrow() Borrowed {
	return b
}

// Raw returns the descriptor number.
func (b Borrowed) Raw() Raw {
	return b.raw
}

// Valid returns true unless b was lent out by a closed or released owner.
func (b Borrowed) Valid() bool {
	return b.raw != Invalid
}

// String implements fmt.Stringer.
func (b Borrowed) String() string {
	if !b.Valid() {
		return "fd(invalid)"
	}
	return fmt.Sprintf("fd(%d)", b.raw)
}

// OwnFile takes ownership of b.
//
// The caller must ensure nothing else owns the descriptor. Two owners close
// it twice, and the second close may hit an unrelated file that reused the
// number.
func (b Borrowed) OwnFile(k dispatch.Kernel) *File {
	return NewFile(k, b.raw)
}

// OwnSocket takes ownership of b. The same caveats as OwnFile apply.
func (b Borrowed) OwnSocket(k dispatch.Kernel) *Socket {
	return NewSocket(k, b.raw)
}

// leaks logs descriptors closed by a finalizer.
var leaks = log.BasicRateLimitedLogger(time.Second)

// owned holds a descriptor and the kernel that issued it.
type owned struct {
	// raw is accessed atomically so Close/Release can swap it. It is -1
	// once ownership has ended.
	raw int64
	k   dispatch.Kernel
}

func (o *owned) borrow() Borrowed {
	raw := atomic.LoadInt64(&o.raw)
	if raw < 0 {
		return Borrowed{Invalid}
	}
	return Borrowed{Raw(raw)}
}

// close issues the single close call. Every later call returns EBADF without
// reaching the kernel.
func (o *owned) close() error {
	raw := atomic.SwapInt64(&o.raw, -1)
	if raw < 0 {
		return linuxerr.EBADF
	}
	return linuxerr.FromReturn(o.k.Syscall1(unix.SYS_CLOSE, uintptr(raw)))
}

func (o *owned) release() Raw {
	raw := atomic.SwapInt64(&o.raw, -1)
	if raw < 0 {
		return Invalid
	}
	return Raw(raw)
}

// finalize closes a descriptor whose owner was never closed. The result has
// nowhere to go and is dropped.
func (o *owned) finalize(kind string) {
	raw := atomic.LoadInt64(&o.raw)
	err := o.close()
	if leaks.IsLogging(log.Debug) {
		leaks.Debugf("%s %d was not closed before it became unreachable: close returned %v", kind, raw, err)
	}
}

// File owns a descriptor for a file, memfd, epoll instance or any other
// non-socket object.
//
// Concurrently calling Close or Release and any other method is undefined.
type File struct {
	owned
}

var _ Descriptor = (*File)(nil)

// NewFile takes ownership of raw, which was issued by k.
func NewFile(k dispatch.Kernel, raw Raw) *File {
	f := &File{owned{raw: int64(raw), k: k}}
	runtime.SetFinalizer(f, (*File).finalize)
	return f
}

// Borrow implements Descriptor.Borrow. After Close or Release it returns a
// view of Invalid.
func (f *File) Borrow() Borrowed {
	return f.borrow()
}

// Kernel returns the kernel that issued the descriptor.
func (f *File) Kernel() dispatch.Kernel {
	return f.k
}

// Close closes the descriptor.
//
// Close is safe to call multiple times. Only the first call reaches the
// kernel; later calls return EBADF.
func (f *File) Close() error {
	runtime.SetFinalizer(f, nil)
	return f.close()
}

// Release relinquishes ownership of the descriptor and returns it. The
// caller becomes responsible for closing it.
func (f *File) Release() Raw {
	runtime.SetFinalizer(f, nil)
	return f.release()
}

func (f *File) finalize() {
	f.owned.finalize("file")
}

// String implements fmt.Stringer.
func (f *File) String() string {
	return "file " + f.Borrow().String()
}

// Socket owns a socket descriptor.
//
// Concurrently calling Close or Release and any other method is undefined.
type Socket struct {
	owned
}

var _ Descriptor = (*Socket)(nil)

// NewSocket takes ownership of raw, which was issued by k.
func NewSocket(k dispatch.Kernel, raw Raw) *Socket {
	s := &Socket{owned{raw: int64(raw), k: k}}
	runtime.SetFinalizer(s, (*Socket).finalize)
	return s
}

// Borrow implements Descriptor.Borrow. After Close or Release it returns a
// view of Invalid.
func (s *Socket) Borrow() Borrowed {
	return s.borrow()
}

// Kernel returns the kernel that issued the descriptor.
func (s *Socket) Kernel() dispatch.Kernel {
	return s.k
}

// Close closes the socket.
//
// Close is safe to call multiple times. Only the first call reaches the
// kernel; later calls return EBADF.
func (s *Socket) Close() error {
	runtime.SetFinalizer(s, nil)
	return s.close()
}

// Release relinquishes ownership of the descriptor and returns it. The
// caller becomes responsible for closing it.
func (s *Socket) Release() Raw {
	runtime.SetFinalizer(s, nil)
	return s.release()
}

func (s *Socket) finalize() {
	s.owned.finalize("socket")
}

// String implements fmt.Stringer.
func (s *Socket) String() string {
	return "socket " + s.Borrow().String()
}
