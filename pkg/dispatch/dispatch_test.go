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
	"bytes"
	"os"
	"runtime"
	"strings"
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/log"
)

func TestHostGetpid(t *testing.T) {
	if got, want := (Host{}).Syscall0(unix.SYS_GETPID), int64(os.Getpid()); got != want {
		t.Errorf("getpid() = %d, want %d", got, want)
	}
}

func TestHostErrno(t *testing.T) {
	if got := (Host{}).Syscall1(unix.SYS_CLOSE, 1<<31-1); got != -int64(unix.EBADF) {
		t.Errorf("close(bad) = %d, want %d", got, -int64(unix.EBADF))
	}
	// read goes through the runtime-aware path and must encode errors the
	// same way.
	var p runtime.Pinner
	defer p.Unpin()
	buf := make([]byte, 1)
	p.Pin(&buf[0])
	if got := (Host{}).Syscall3(unix.SYS_READ, 1<<31-1, uintptr(unsafe.Pointer(&buf[0])), 1); got != -int64(unix.EBADF) {
		t.Errorf("read(bad) = %d, want %d", got, -int64(unix.EBADF))
	}
}

func TestHostPipe(t *testing.T) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	var p runtime.Pinner
	defer p.Unpin()
	in := []byte("dispatch")
	out := make([]byte, 16)
	p.Pin(&in[0])
	p.Pin(&out[0])

	k := Host{}
	if n := k.Syscall3(unix.SYS_WRITE, uintptr(fds[1]), uintptr(unsafe.Pointer(&in[0])), uintptr(len(in))); n != int64(len(in)) {
		t.Fatalf("write = %d, want %d", n, len(in))
	}
	n := k.Syscall3(unix.SYS_READ, uintptr(fds[0]), uintptr(unsafe.Pointer(&out[0])), uintptr(len(out)))
	if n != int64(len(in)) || string(out[:n]) != "dispatch" {
		t.Fatalf("read = %d %q", n, out)
	}
}

func TestBlocking(t *testing.T) {
	for _, nr := range []uintptr{unix.SYS_OPEN, unix.SYS_FCNTL, unix.SYS_READ, unix.SYS_ACCEPT4, unix.SYS_EPOLL_WAIT, unix.SYS_RECVMSG} {
		if !Blocking(nr) {
			t.Errorf("Blocking(%s) = false", Name(nr))
		}
	}
	for _, nr := range []uintptr{unix.SYS_CLOSE, unix.SYS_MMAP, unix.SYS_FSTAT, unix.SYS_EPOLL_CTL} {
		if Blocking(nr) {
			t.Errorf("Blocking(%s) = true", Name(nr))
		}
	}
}

// fixed returns rv from every call.
type fixed int64

func (f fixed) Syscall0(uintptr) int64                                     { return int64(f) }
func (f fixed) Syscall1(uintptr, uintptr) int64                            { return int64(f) }
func (f fixed) Syscall2(uintptr, uintptr, uintptr) int64                   { return int64(f) }
func (f fixed) Syscall3(uintptr, uintptr, uintptr, uintptr) int64          { return int64(f) }
func (f fixed) Syscall4(uintptr, uintptr, uintptr, uintptr, uintptr) int64 { return int64(f) }
func (f fixed) Syscall5(uintptr, uintptr, uintptr, uintptr, uintptr, uintptr) int64 {
	return int64(f)
}
func (f fixed) Syscall6(uintptr, uintptr, uintptr, uintptr, uintptr, uintptr, uintptr) int64 {
	return int64(f)
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := &log.BasicLogger{Level: log.Debug, Emitter: &log.Writer{Next: &buf}}

	if rv := Trace(fixed(-9), logger).Syscall1(unix.SYS_CLOSE, 0x63); rv != -9 {
		t.Errorf("rv = %d, want -9", rv)
	}
	if rv := Trace(fixed(6), logger).Syscall3(unix.SYS_WRITE, 1, 0x1000, 6); rv != 6 {
		t.Errorf("rv = %d, want 6", rv)
	}
	if rv := Trace(fixed(0), logger).Syscall0(4242); rv != 0 {
		t.Errorf("rv = %d, want 0", rv)
	}
	want := "close(0x63) = -9 EBADF(9)" +
		"write(0x1, 0x1000, 0x6) = 6" +
		"UNKNOWN(4242)() = 0"
	if got := buf.String(); got != want {
		t.Errorf("trace = %q, want %q", got, want)
	}

	buf.Reset()
	logger.SetLevel(log.Info)
	Trace(fixed(0), logger).Syscall0(unix.SYS_GETPID)
	if strings.Contains(buf.String(), "getpid") {
		t.Errorf("traced at info level: %q", buf.String())
	}
}
