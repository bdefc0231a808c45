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

// Package hostsyscall issues host system calls directly with the SYSCALL
// instruction, without going through the Go runtime's syscall entry and exit
// hooks.
//
// Each function places trap in RAX and its arguments in RDI, RSI, RDX, R10,
// R8 and R9, in that order, and returns RAX unmodified. A negative result in
// [-4095, -1] is a negated errno; nothing here interprets it.
//
// None of these functions tell the scheduler that the thread may block. Use
// them for calls that return promptly.
package hostsyscall

// RawSyscall0 issues a system call with no arguments.
func RawSyscall0(trap uintptr) int64

// RawSyscall1 issues a system call with one argument.
func RawSyscall1(trap, a1 uintptr) int64

// RawSyscall2 issues a system call with two arguments.
func RawSyscall2(trap, a1, a2 uintptr) int64

// RawSyscall3 issues a system call with three arguments.
func RawSyscall3(trap, a1, a2, a3 uintptr) int64

// RawSyscall4 issues a system call with four arguments.
func RawSyscall4(trap, a1, a2, a3, a4 uintptr) int64

// RawSyscall5 issues a system call with five arguments.
func RawSyscall5(trap, a1, a2, a3, a4, a5 uintptr) int64

// RawSyscall6 issues a system call with six arguments.
func RawSyscall6(trap, a1, a2, a3, a4, a5, a6 uintptr) int64
