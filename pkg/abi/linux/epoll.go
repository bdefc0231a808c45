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
	"encoding/binary"

	"gvisor.dev/syslib/pkg/abi"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
)

// EpollEvents is the events field of struct epoll_event.
type EpollEvents uint32

// Event masks.
const (
	EPOLLIN     EpollEvents = 0x1
	EPOLLPRI    EpollEvents = 0x2
	EPOLLOUT    EpollEvents = 0x4
	EPOLLERR    EpollEvents = 0x8
	EPOLLHUP    EpollEvents = 0x10
	EPOLLRDNORM EpollEvents = 0x40
	EPOLLRDBAND EpollEvents = 0x80
	EPOLLWRNORM EpollEvents = 0x100
	EPOLLWRBAND EpollEvents = 0x200
	EPOLLMSG    EpollEvents = 0x400
	EPOLLRDHUP  EpollEvents = 0x2000
)

// Per-file descriptor flags.
const (
	EPOLLEXCLUSIVE EpollEvents = 1 << 28
	EPOLLWAKEUP    EpollEvents = 1 << 29
	EPOLLONESHOT   EpollEvents = 1 << 30
	EPOLLET        EpollEvents = 1 << 31
)

// EpollEventSet is the set of valid epoll event bits.
var EpollEventSet = abi.NewFlagSet[EpollEvents](linuxerr.EINVAL,
	abi.Flag[EpollEvents]{Flag: EPOLLIN, Name: "EPOLLIN"},
	abi.Flag[EpollEvents]{Flag: EPOLLPRI, Name: "EPOLLPRI"},
	abi.Flag[EpollEvents]{Flag: EPOLLOUT, Name: "EPOLLOUT"},
	abi.Flag[EpollEvents]{Flag: EPOLLERR, Name: "EPOLLERR"},
	abi.Flag[EpollEvents]{Flag: EPOLLHUP, Name: "EPOLLHUP"},
	abi.Flag[EpollEvents]{Flag: EPOLLRDNORM, Name: "EPOLLRDNORM"},
	abi.Flag[EpollEvents]{Flag: EPOLLRDBAND, Name: "EPOLLRDBAND"},
	abi.Flag[EpollEvents]{Flag: EPOLLWRNORM, Name: "EPOLLWRNORM"},
	abi.Flag[EpollEvents]{Flag: EPOLLWRBAND, Name: "EPOLLWRBAND"},
	abi.Flag[EpollEvents]{Flag: EPOLLMSG, Name: "EPOLLMSG"},
	abi.Flag[EpollEvents]{Flag: EPOLLRDHUP, Name: "EPOLLRDHUP"},
	abi.Flag[EpollEvents]{Flag: EPOLLEXCLUSIVE, Name: "EPOLLEXCLUSIVE"},
	abi.Flag[EpollEvents]{Flag: EPOLLWAKEUP, Name: "EPOLLWAKEUP"},
	abi.Flag[EpollEvents]{Flag: EPOLLONESHOT, Name: "EPOLLONESHOT"},
	abi.Flag[EpollEvents]{Flag: EPOLLET, Name: "EPOLLET"},
)

func (e EpollEvents) String() string {
	return EpollEventSet.Parse(e)
}

// EpollCreateFlags is the flags argument of epoll_create1(2).
type EpollCreateFlags uint32

// EPOLL_CLOEXEC is the only flag for epoll_create1(2).
const EPOLL_CLOEXEC EpollCreateFlags = EpollCreateFlags(O_CLOEXEC)

// EpollCreateFlagSet is the set of valid epoll_create1(2) flags.
var EpollCreateFlagSet = abi.NewFlagSet[EpollCreateFlags](linuxerr.EINVAL,
	abi.Flag[EpollCreateFlags]{Flag: EPOLL_CLOEXEC, Name: "EPOLL_CLOEXEC"},
)

// EpollCtlOp is the op argument of epoll_ctl(2).
type EpollCtlOp uint32

// Operations for epoll_ctl(2).
const (
	EPOLL_CTL_ADD EpollCtlOp = 0x1
	EPOLL_CTL_DEL EpollCtlOp = 0x2
	EPOLL_CTL_MOD EpollCtlOp = 0x3
)

var epollCtlOps = abi.ValueSet[EpollCtlOp]{
	EPOLL_CTL_ADD: {Name: "EPOLL_CTL_ADD", Label: "register a descriptor"},
	EPOLL_CTL_DEL: {Name: "EPOLL_CTL_DEL", Label: "deregister a descriptor"},
	EPOLL_CTL_MOD: {Name: "EPOLL_CTL_MOD", Label: "change the registered events"},
}

func (op EpollCtlOp) String() string {
	return epollCtlOps.Parse(op)
}

// EpollWaitForever is the timeout of epoll_wait(2) that blocks until an
// event arrives. A timeout of zero polls.
const EpollWaitForever = -1

// EpollData is the data field of struct epoll_event: 8 bytes the kernel
// stores at registration and hands back with each event.
//
// The kernel keeps no record of which member of the C union was written, and
// neither does EpollData. The reader must use the accessor matching the
// constructor used at registration.
type EpollData [8]byte

// EpollDataFD stores a file descriptor in the low 4 bytes.
func EpollDataFD(fd uint32) EpollData {
	var d EpollData
	binary.LittleEndian.PutUint32(d[:], fd)
	return d
}

// EpollDataU32 stores a 32-bit value in the low 4 bytes.
func EpollDataU32(v uint32) EpollData {
	var d EpollData
	binary.LittleEndian.PutUint32(d[:], v)
	return d
}

// EpollDataU64 stores a 64-bit value.
func EpollDataU64(v uint64) EpollData {
	var d EpollData
	binary.LittleEndian.PutUint64(d[:], v)
	return d
}

// EpollDataPtr stores an address. The address is not a Go pointer; the
// garbage collector does not see it.
func EpollDataPtr(p uintptr) EpollData {
	return EpollDataU64(uint64(p))
}

// FD reads the low 4 bytes as a file descriptor.
func (d EpollData) FD() uint32 {
	return binary.LittleEndian.Uint32(d[:])
}

// U32 reads the low 4 bytes.
func (d EpollData) U32() uint32 {
	return binary.LittleEndian.Uint32(d[:])
}

// U64 reads all 8 bytes.
func (d EpollData) U64() uint64 {
	return binary.LittleEndian.Uint64(d[:])
}

// Ptr reads all 8 bytes as an address.
func (d EpollData) Ptr() uintptr {
	return uintptr(d.U64())
}

// EpollEvent is equivalent to struct epoll_event from epoll(2).
//
// On amd64 Linux makes struct epoll_event __attribute__((packed)), such that
// there is no padding between Events and Data. EpollData is a byte array, so
// Go lays the struct out the same way.
type EpollEvent struct {
	Events EpollEvents
	Data   EpollData
}

// SizeOfEpollEvent is the size of an EpollEvent struct in bytes.
const SizeOfEpollEvent = 12
