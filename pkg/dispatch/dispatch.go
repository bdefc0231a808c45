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

//go:build linux && amd64
// +build linux,amd64

// Package dispatch defines how the rest of this module reaches the kernel.
//
// Every system call goes through a Kernel. Host reaches the running Linux
// kernel; tests substitute a simulated one.
package dispatch

import (
	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/hostsyscall"
)

// Kernel issues system calls.
//
// There is one method per argument count. Each returns the kernel's result
// register unmodified: the success value, or a negated errno in [-4095, -1].
type Kernel interface {
	Syscall0(nr uintptr) int64
	Syscall1(nr, a1 uintptr) int64
	Syscall2(nr, a1, a2 uintptr) int64
	Syscall3(nr, a1, a2, a3 uintptr) int64
	Syscall4(nr, a1, a2, a3, a4 uintptr) int64
	Syscall5(nr, a1, a2, a3, a4, a5 uintptr) int64
	Syscall6(nr, a1, a2, a3, a4, a5, a6 uintptr) int64
}

// Host is the running kernel.
//
// Calls that may block indefinitely are issued through unix.Syscall6, so the
// scheduler can run other goroutines while the thread waits. Everything else
// uses the SYSCALL instruction directly.
type Host struct{}

var _ Kernel = Host{}

// Blocking returns true if nr may block for an unbounded time. open(2)
// waits for the other end of a FIFO, fcntl(2) for F_SETLKW and ioctl(2) for
// terminal drains.
func Blocking(nr uintptr) bool {
	switch nr {
	case unix.SYS_OPEN, unix.SYS_FCNTL, unix.SYS_IOCTL,
		unix.SYS_READ, unix.SYS_WRITE,
		unix.SYS_READV, unix.SYS_WRITEV,
		unix.SYS_CONNECT, unix.SYS_ACCEPT, unix.SYS_ACCEPT4,
		unix.SYS_SENDMSG, unix.SYS_RECVMSG,
		unix.SYS_EPOLL_WAIT:
		return true
	default:
		return false
	}
}

// blocking issues nr through the runtime and re-encodes the result as a
// single word.
func blocking(nr, a1, a2, a3, a4, a5, a6 uintptr) int64 {
	r, _, errno := unix.Syscall6(nr, a1, a2, a3, a4, a5, a6)
	if errno != 0 {
		return -int64(errno)
	}
	return int64(r)
}

// Syscall0 implements Kernel.Syscall0.
func (Host) Syscall0(nr uintptr) int64 {
	return hostsyscall.RawSyscall0(nr)
}

// Syscall1 implements Kernel.Syscall1.
func (Host) Syscall1(nr, a1 uintptr) int64 {
	if Blocking(nr) {
		return blocking(nr, a1, 0, 0, 0, 0, 0)
	}
	return hostsyscall.RawSyscall1(nr, a1)
}

// Syscall2 implements Kernel.Syscall2.
func (Host) Syscall2(nr, a1, a2 uintptr) int64 {
	if Blocking(nr) {
		return blocking(nr, a1, a2, 0, 0, 0, 0)
	}
	return hostsyscall.RawSyscall2(nr, a1, a2)
}

// Syscall3 implements Kernel.Syscall3.
func (Host) Syscall3(nr, a1, a2, a3 uintptr) int64 {
	if Blocking(nr) {
		return blocking(nr, a1, a2, a3, 0, 0, 0)
	}
	return hostsyscall.RawSyscall3(nr, a1, a2, a3)
}

// Syscall4 implements Kernel.Syscall4.
func (Host) Syscall4(nr, a1, a2, a3, a4 uintptr) int64 {
	if Blocking(nr) {
		return blocking(nr, a1, a2, a3, a4, 0, 0)
	}
	return hostsyscall.RawSyscall4(nr, a1, a2, a3, a4)
}

// Syscall5 implements Kernel.Syscall5.
func (Host) Syscall5(nr, a1, a2, a3, a4, a5 uintptr) int64 {
	if Blocking(nr) {
		return blocking(nr, a1, a2, a3, a4, a5, 0)
	}
	return hostsyscall.RawSyscall5(nr, a1, a2, a3, a4, a5)
}

// Syscall6 implements Kernel.Syscall6.
func (Host) Syscall6(nr, a1, a2, a3, a4, a5, a6 uintptr) int64 {
	if Blocking(nr) {
		return blocking(nr, a1, a2, a3, a4, a5, a6)
	}
	return hostsyscall.RawSyscall6(nr, a1, a2, a3, a4, a5, a6)
}

// Name returns the name of system call nr, or UNKNOWN(nr).
func Name(nr uintptr) string {
	return linux.SyscallNames.Parse(nr)
}
