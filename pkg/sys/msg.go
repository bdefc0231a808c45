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

// Control is a control message buffer for SendMsg and RecvMsg.
// *Ancillary[T] implements it.
type Control interface {
	// sendBytes returns the message as it is handed to sendmsg(2).
	sendBytes() []byte

	// recvBytes clears the buffer and returns all of it for recvmsg(2) to
	// fill.
	recvBytes() []byte
}

// Ancillary is a buffer for one control message carrying up to a fixed
// number of items of type T.
//
// After RecvMsg the buffer holds whatever the kernel wrote. The header says
// what the items are; nothing checks that they are valid values of T.
type Ancillary[T any] struct {
	// buf holds the header followed by the item slots. It is backed by
	// uint64s so the header is aligned.
	buf []byte
	cap int
}

var _ Control = (*Ancillary[int32])(nil)

func itemSize[T any]() uint64 {
	var v T
	return uint64(unsafe.Sizeof(v))
}

// NewAncillary returns an empty buffer with room for n items.
func NewAncillary[T any](n int) *Ancillary[T] {
	space := linux.CmsgSpace(uint64(n) * itemSize[T]())
	words := make([]uint64, (space+7)/8)
	return &Ancillary[T]{
		buf: unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), space),
		cap: n,
	}
}

func (a *Ancillary[T]) header() *linux.Cmsghdr {
	return (*linux.Cmsghdr)(unsafe.Pointer(&a.buf[0]))
}

// Set replaces the message with items at the given level and type. More
// items than the buffer holds fail with EINVAL.
func (a *Ancillary[T]) Set(level linux.SockLevel, typ linux.ControlType, items ...T) error {
	if len(items) > a.cap {
		return linuxerr.EINVAL
	}
	clear(a.buf)
	h := a.header()
	h.Len = linux.CmsgLen(uint64(len(items)) * itemSize[T]())
	h.Level = level
	h.Type = typ
	if len(items) > 0 {
		copy(unsafe.Slice((*T)(unsafe.Pointer(&a.buf[linux.SizeOfCmsghdr])), len(items)), items)
	}
	return nil
}

// Level returns the level of the message.
func (a *Ancillary[T]) Level() linux.SockLevel {
	return a.header().Level
}

// Type returns the type of the message.
func (a *Ancillary[T]) Type() linux.ControlType {
	return a.header().Type
}

// Len returns the cmsg_len field: the header size plus the data size.
func (a *Ancillary[T]) Len() uint64 {
	return a.header().Len
}

// Cap returns the number of items the buffer holds.
func (a *Ancillary[T]) Cap() int {
	return a.cap
}

// Data returns the data bytes of the message, as described by its length
// field and bounded by the buffer.
func (a *Ancillary[T]) Data() []byte {
	l := a.Len()
	if l < linux.SizeOfCmsghdr {
		return nil
	}
	end := min(l, uint64(len(a.buf)))
	return a.buf[linux.SizeOfCmsghdr:end]
}

// Count returns the number of whole items in Data.
func (a *Ancillary[T]) Count() int {
	size := itemSize[T]()
	if size == 0 {
		return 0
	}
	return int(uint64(len(a.Data())) / size)
}

// ItemsUnchecked returns the items of the message. The caller asserts that
// the message carries items of type T, typically by checking Level and Type
// first. The slice aliases the buffer.
func (a *Ancillary[T]) ItemsUnchecked() []T {
	n := a.Count()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&a.buf[linux.SizeOfCmsghdr])), n)
}

func (a *Ancillary[T]) sendBytes() []byte {
	l := a.Len()
	if l == 0 {
		return nil
	}
	return a.buf[:min(linux.CmsgAlign(l), uint64(len(a.buf)))]
}

func (a *Ancillary[T]) recvBytes() []byte {
	clear(a.buf)
	return a.buf
}

// RightsAncillary returns an SCM_RIGHTS message passing descs.
//
// The message holds only the numbers: owned descriptors in descs must stay
// reachable until SendMsg returns, or a finalizer may close them first.
func RightsAncillary(descs ...fd.Descriptor) *Ancillary[fd.Raw] {
	a := NewAncillary[fd.Raw](len(descs))
	raws := make([]fd.Raw, len(descs))
	for i, d := range descs {
		raws[i] = d.Borrow().Raw()
	}
	// Cannot fail: the buffer was sized for descs.
	_ = a.Set(linux.SOL_SOCKET, linux.SCM_RIGHTS, raws...)
	return a
}

// ReceivedFiles takes ownership of the descriptors in an SCM_RIGHTS message
// received by RecvMsg. An empty buffer, as left by a message that carried
// no control data, yields no files. A message of any other level or type
// fails with EINVAL.
//
// The descriptors are wrapped as files; a received socket can be converted
// with Release and fd.Borrowed.OwnSocket.
func (s *Sys) ReceivedFiles(a *Ancillary[fd.Raw]) ([]*fd.File, error) {
	if a.Len() == 0 {
		return nil, nil
	}
	if a.Level() != linux.SOL_SOCKET || a.Type() != linux.SCM_RIGHTS {
		return nil, linuxerr.EINVAL
	}
	raws := a.ItemsUnchecked()
	files := make([]*fd.File, len(raws))
	for i, r := range raws {
		files[i] = fd.NewFile(s.k, r)
	}
	return files, nil
}

// msghdr builds and pins the message header for sendmsg(2) and recvmsg(2).
// The name field is always empty: the message goes to, or comes from, the
// connected peer.
func msghdr(p *runtime.Pinner, iov [][]byte, control []byte) *linux.Msghdr {
	vecs := iovecs(p, iov)
	msg := &linux.Msghdr{
		Iov:        uint64(sliceAddr(p, vecs)),
		IovLen:     uint64(len(vecs)),
		Control:    uint64(sliceAddr(p, control)),
		ControlLen: uint64(len(control)),
	}
	p.Pin(msg)
	return msg
}

// SendMsg sends the data in iov, and the control message if control is not
// nil, on the connected socket d. It returns the number of data bytes sent.
func (s *Sys) SendMsg(d fd.Descriptor, iov [][]byte, control Control, flags linux.MsgFlags) (int, error) {
	defer runtime.KeepAlive(d)
	if err := linux.MsgFlagSet.Check(flags); err != nil {
		return 0, err
	}
	var cbuf []byte
	if control != nil {
		cbuf = control.sendBytes()
	}
	var p runtime.Pinner
	defer p.Unpin()
	msg := msghdr(&p, iov, cbuf)
	return linuxerr.SizeFromReturn(s.k.Syscall3(unix.SYS_SENDMSG, raw(d), uintptr(unsafe.Pointer(msg)), uintptr(flags)))
}

// RecvMsg receives data into iov, and a control message into control if it is
// not nil, from the connected socket d. It returns the number of data bytes
// received and the message flags the kernel set. MSG_CTRUNC means control
// data was discarded because control was too small.
func (s *Sys) RecvMsg(d fd.Descriptor, iov [][]byte, control Control, flags linux.MsgFlags) (int, linux.MsgFlags, error) {
	defer runtime.KeepAlive(d)
	if err := linux.MsgFlagSet.Check(flags); err != nil {
		return 0, 0, err
	}
	var cbuf []byte
	if control != nil {
		cbuf = control.recvBytes()
	}
	var p runtime.Pinner
	defer p.Unpin()
	msg := msghdr(&p, iov, cbuf)
	n, err := linuxerr.SizeFromReturn(s.k.Syscall3(unix.SYS_RECVMSG, raw(d), uintptr(unsafe.Pointer(msg)), uintptr(flags)))
	if err != nil {
		return 0, 0, err
	}
	return n, msg.Flags, nil
}
