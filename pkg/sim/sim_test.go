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

package sim

import (
	"errors"
	"os"
	"testing"

	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/abi/linux/errno"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
)

func TestEncode(t *testing.T) {
	for _, tc := range []struct {
		v    uint64
		err  error
		want int64
	}{
		{v: 42, want: 42},
		{err: linuxerr.EBADF, want: -int64(errno.EBADF)},
		{err: os.ErrNotExist, want: -int64(errno.ENOENT)},
		{err: &os.PathError{Op: "open", Path: "/x", Err: unix.EACCES}, want: -int64(errno.EACCES)},
		{err: errors.New("opaque"), want: -int64(errno.EIO)},
	} {
		if got := encode(tc.v, tc.err); got != tc.want {
			t.Errorf("encode(%d, %v) = %d, want %d", tc.v, tc.err, got, tc.want)
		}
	}
}

func TestUnsupported(t *testing.T) {
	k := New(nil)
	if got, want := k.Syscall0(unix.SYS_FORK), -int64(errno.ENOSYS); got != want {
		t.Errorf("fork() = %d, want %d", got, want)
	}
	if got := k.Calls(unix.SYS_FORK); got != 1 {
		t.Errorf("Calls(fork) = %d, want 1", got)
	}
	if got := k.Syscall0(unix.SYS_GETPID); got != Pid {
		t.Errorf("getpid() = %d, want %d", got, Pid)
	}
}

func TestLowestFree(t *testing.T) {
	k := New(nil)
	if got, want := k.Descriptors(), []fd.Raw{0, 1, 2}; !equal(got, want) {
		t.Fatalf("Descriptors() = %v, want %v", got, want)
	}
	d, _ := k.get(1)
	var raws []fd.Raw
	for i := 0; i < 3; i++ {
		raw, err := k.fds.install(d, 0, false)
		if err != nil {
			t.Fatalf("install: %v", err)
		}
		raws = append(raws, raw)
	}
	if want := []fd.Raw{3, 4, 5}; !equal(raws, want) {
		t.Fatalf("installed %v, want %v", raws, want)
	}
	if got := k.Syscall1(unix.SYS_CLOSE, 4); got != 0 {
		t.Fatalf("close(4) = %d", got)
	}
	if raw, _ := k.fds.install(d, 0, false); raw != 4 {
		t.Errorf("install after close = %d, want 4", raw)
	}
	if raw, _ := k.fds.install(d, 10, false); raw != 10 {
		t.Errorf("install from 10 = %d, want 10", raw)
	}
	if _, err := k.fds.install(d, maxFDs, false); err != linuxerr.EINVAL {
		t.Errorf("install from limit = %v, want EINVAL", err)
	}
	// stdout plus four duplicates.
	if d.refs != 5 {
		t.Errorf("refs = %d, want 5", d.refs)
	}
}

func TestTableFull(t *testing.T) {
	k := New(nil)
	d, _ := k.get(0)
	for {
		if _, err := k.fds.install(d, 0, false); err != nil {
			if err != linuxerr.EMFILE {
				t.Fatalf("install = %v, want EMFILE", err)
			}
			break
		}
	}
	if n := len(k.Descriptors()); n != maxFDs {
		t.Errorf("%d descriptors open, want %d", n, maxFDs)
	}
}

func TestFileMode(t *testing.T) {
	for _, tc := range []struct {
		goMode os.FileMode
		want   linux.FileMode
	}{
		{0644, linux.ModeRegular | 0644},
		{os.ModeDir | 0755, linux.ModeDirectory | 0755},
		{os.ModeSocket | 0777, linux.ModeSocket | 0777},
		{os.ModeDevice | os.ModeCharDevice | 0620, linux.ModeCharacterDevice | 0620},
		{os.ModeDevice | 0660, linux.ModeBlockDevice | 0660},
		{os.ModeSetuid | os.ModeSticky | 0700, linux.ModeRegular | linux.ModeSetUID | linux.ModeSticky | 0700},
	} {
		if got := fileMode(tc.goMode); got != tc.want {
			t.Errorf("fileMode(%v) = %v, want %v", tc.goMode, got, tc.want)
		}
	}
	if got, want := goMode(linux.ModeSetGID|0750), os.ModeSetgid|0750; got != want {
		t.Errorf("goMode = %v, want %v", got, want)
	}
}

func TestScatter(t *testing.T) {
	bufs := [][]byte{make([]byte, 2), make([]byte, 3)}
	if n := scatter(bufs, 1, []byte("abcdef")); n != 4 {
		t.Errorf("scatter copied %d, want 4", n)
	}
	if got := string(gather(bufs)); got != "\x00abcd" {
		t.Errorf("buffers = %q", got)
	}
}

func TestMunmapSplit(t *testing.T) {
	k := New(nil)
	const page = linux.PageSize
	rv := k.Syscall6(unix.SYS_MMAP, 0, 3*page, uintptr(linux.PROT_READ|linux.PROT_WRITE), uintptr(linux.MAP_PRIVATE|linux.MAP_ANONYMOUS), ^uintptr(0), 0)
	if rv < 0 {
		t.Fatalf("mmap = %d", rv)
	}
	addr := uintptr(rv)
	if addr%page != 0 {
		t.Fatalf("mmap returned unaligned %#x", addr)
	}

	// Punch out the middle page.
	if rv := k.Syscall2(unix.SYS_MUNMAP, addr+page, page); rv != 0 {
		t.Fatalf("munmap(middle) = %d", rv)
	}
	got := k.Mappings()
	if len(got) != 2 || got[0] != addr || got[1] != addr+2*page {
		t.Fatalf("Mappings() = %#x, want [%#x %#x]", got, addr, addr+2*page)
	}
	for _, a := range got {
		if length, _, _ := k.MappingAt(a); length != page {
			t.Errorf("mapping at %#x has length %d, want %d", a, length, page)
		}
	}

	// Unmapping across the hole removes both halves.
	if rv := k.Syscall2(unix.SYS_MUNMAP, addr, 3*page); rv != 0 {
		t.Fatalf("munmap(all) = %d", rv)
	}
	if got := k.Mappings(); len(got) != 0 {
		t.Errorf("Mappings() = %#x after unmapping everything", got)
	}
	if rv, want := k.Syscall2(unix.SYS_MUNMAP, addr+1, page), -int64(errno.EINVAL); rv != want {
		t.Errorf("munmap(unaligned) = %d, want %d", rv, want)
	}
}

func TestMmapLimit(t *testing.T) {
	k := New(nil)
	const page = linux.PageSize
	rw := uintptr(linux.PROT_READ | linux.PROT_WRITE)
	anon := uintptr(linux.MAP_PRIVATE | linux.MAP_ANONYMOUS)
	enomem := -int64(errno.ENOMEM)
	for _, length := range []uintptr{1 << 60, ^uintptr(0), maxMapped + 1} {
		if rv := k.Syscall6(unix.SYS_MMAP, 0, length, rw, anon, ^uintptr(0), 0); rv != enomem {
			t.Errorf("mmap(%#x) = %d, want %d", length, rv, enomem)
		}
	}

	rv := k.Syscall6(unix.SYS_MMAP, 0, 2*page, rw, anon, ^uintptr(0), 0)
	if rv < 0 {
		t.Fatalf("mmap = %d", rv)
	}
	addr := uintptr(rv)
	// The existing mapping leaves no room for a full-size one.
	if rv := k.Syscall6(unix.SYS_MMAP, 0, maxMapped, rw, anon, ^uintptr(0), 0); rv != enomem {
		t.Errorf("mmap(maxMapped) = %d, want %d", rv, enomem)
	}
	if rv := k.Syscall6(unix.SYS_MUNMAP, addr+page, page, 0, 0, 0, 0); rv != 0 {
		t.Fatalf("munmap = %d", rv)
	}
	if rv := k.Syscall6(unix.SYS_MMAP, 0, page, rw, anon, ^uintptr(0), 0); rv < 0 {
		t.Fatalf("mmap = %d", rv)
	}
	for _, newLen := range []uintptr{1 << 60, maxMapped} {
		if rv := k.Syscall6(unix.SYS_MREMAP, addr, page, newLen, uintptr(linux.MREMAP_MAYMOVE), 0, 0); rv != enomem {
			t.Errorf("mremap(%#x) = %d, want %d", newLen, rv, enomem)
		}
	}
	if length, _, ok := k.MappingAt(addr); !ok || length != page {
		t.Errorf("MappingAt(%#x) = %d, %t after failed mremap", addr, length, ok)
	}
}

func equal(a, b []fd.Raw) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
