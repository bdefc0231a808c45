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

package dispatch

import (
	"fmt"
	"strings"

	"gvisor.dev/syslib/pkg/abi/linux/errno"
	"gvisor.dev/syslib/pkg/log"
)

// traced logs every call made through a Kernel.
type traced struct {
	k      Kernel
	logger log.Logger
}

// Trace returns a Kernel that forwards to k and logs each call and its result
// to logger at debug level, in the style of strace(1):
//
//	write(0x1, 0xc000012345, 0x6) = 6
//	close(0x63) = -9 EBADF(9)
func Trace(k Kernel, logger log.Logger) Kernel {
	return &traced{k: k, logger: logger}
}

func (t *traced) log(nr uintptr, rv int64, args ...uintptr) {
	if !t.logger.IsLogging(log.Debug) {
		return
	}
	var b strings.Builder
	b.WriteString(Name(nr))
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%#x", a)
	}
	fmt.Fprintf(&b, ") = %d", rv)
	if rv < 0 && rv >= -4095 {
		fmt.Fprintf(&b, " %v", errno.Errno(-rv))
	}
	t.logger.Debugf("%s", b.String())
}

// Syscall0 implements Kernel.Syscall0.
func (t *traced) Syscall0(nr uintptr) int64 {
	rv := t.k.Syscall0(nr)
	t.log(nr, rv)
	return rv
}

// Syscall1 implements Kernel.Syscall1.
func (t *traced) Syscall1(nr, a1 uintptr) int64 {
	rv := t.k.Syscall1(nr, a1)
	t.log(nr, rv, a1)
	return rv
}

// Syscall2 implements Kernel.Syscall2.
func (t *traced) Syscall2(nr, a1, a2 uintptr) int64 {
	rv := t.k.Syscall2(nr, a1, a2)
	t.log(nr, rv, a1, a2)
	return rv
}

// Syscall3 implements Kernel.Syscall3.
func (t *traced) Syscall3(nr, a1, a2, a3 uintptr) int64 {
	rv := t.k.Syscall3(nr, a1, a2, a3)
	t.log(nr, rv, a1, a2, a3)
	return rv
}

// Syscall4 implements Kernel.Syscall4.
func (t *traced) Syscall4(nr, a1, a2, a3, a4 uintptr) int64 {
	rv := t.k.Syscall4(nr, a1, a2, a3, a4)
	t.log(nr, rv, a1, a2, a3, a4)
	return rv
}

// Syscall5 implements Kernel.Syscall5.
func (t *traced) Syscall5(nr, a1, a2, a3, a4, a5 uintptr) int64 {
	rv := t.k.Syscall5(nr, a1, a2, a3, a4, a5)
	t.log(nr, rv, a1, a2, a3, a4, a5)
	return rv
}

// Syscall6 implements Kernel.Syscall6.
func (t *traced) Syscall6(nr, a1, a2, a3, a4, a5, a6 uintptr) int64 {
	rv := t.k.Syscall6(nr, a1, a2, a3, a4, a5, a6)
	t.log(nr, rv, a1, a2, a3, a4, a5, a6)
	return rv
}
