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

// Package sim provides a simulated Linux kernel.
//
// Kernel implements dispatch.Kernel in process: files live in an afero.Fs,
// sockets are in-memory AF_UNIX stream endpoints and mappings are Go byte
// slices. Pointer arguments are dereferenced directly, so callers pass live,
// pinned memory exactly as they would to the host kernel.
//
// The calls package sys issues are simulated; anything else fails with
// ENOSYS. Known differences from Linux:
//
//   - There is no umask, and every file is owned by UID and GID 0.
//   - Memory protection is recorded but not enforced.
//   - MAP_SHARED file mappings are written back to the file on munmap.
//   - Socket writes never block and have no buffer limit.
//   - Epoll is level-triggered only. EPOLLET is accepted and ignored, and
//     epoll instances cannot be nested.
package sim

import (
	"os"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/afero/mem"
	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/abi/linux/errno"
	"gvisor.dev/syslib/pkg/dispatch"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
	"gvisor.dev/syslib/pkg/log"
)

// Pid is the process ID reported by getpid(2).
const Pid = 100

// Device is the device every simulated file lives on.
var Device = linux.MakeDevice(0, 42)

// args holds the arguments of one call, unused ones zero.
type args [6]uintptr

// handler implements one system call. It runs with Kernel.mu held.
type handler func(k *Kernel, a args) (uint64, error)

var handlers = map[uintptr]handler{
	unix.SYS_READ:          (*Kernel).read,
	unix.SYS_WRITE:         (*Kernel).write,
	unix.SYS_READV:         (*Kernel).readv,
	unix.SYS_WRITEV:        (*Kernel).writev,
	unix.SYS_OPEN:          (*Kernel).open,
	unix.SYS_CLOSE:         (*Kernel).close,
	unix.SYS_STAT:          (*Kernel).stat,
	unix.SYS_LSTAT:         (*Kernel).lstat,
	unix.SYS_FSTAT:         (*Kernel).fstat,
	unix.SYS_UNLINK:        (*Kernel).unlink,
	unix.SYS_MEMFD_CREATE:  (*Kernel).memfdCreate,
	unix.SYS_FTRUNCATE:     (*Kernel).ftruncate,
	unix.SYS_MMAP:          (*Kernel).mmap,
	unix.SYS_MPROTECT:      (*Kernel).mprotect,
	unix.SYS_MUNMAP:        (*Kernel).munmap,
	unix.SYS_MREMAP:        (*Kernel).mremap,
	unix.SYS_SOCKET:        (*Kernel).socket,
	unix.SYS_SOCKETPAIR:    (*Kernel).socketpair,
	unix.SYS_BIND:          (*Kernel).bind,
	unix.SYS_LISTEN:        (*Kernel).listen,
	unix.SYS_CONNECT:       (*Kernel).connect,
	unix.SYS_ACCEPT:        (*Kernel).accept,
	unix.SYS_ACCEPT4:       (*Kernel).accept4,
	unix.SYS_SHUTDOWN:      (*Kernel).shutdown,
	unix.SYS_SENDMSG:       (*Kernel).sendmsg,
	unix.SYS_RECVMSG:       (*Kernel).recvmsg,
	unix.SYS_EPOLL_CREATE1: (*Kernel).epollCreate1,
	unix.SYS_EPOLL_CTL:     (*Kernel).epollCtl,
	unix.SYS_EPOLL_WAIT:    (*Kernel).epollWait,
	unix.SYS_FCNTL:         (*Kernel).fcntl,
	unix.SYS_IOCTL:         (*Kernel).ioctl,
	unix.SYS_GETPID:        (*Kernel).getpid,
	unix.SYS_EXIT_GROUP:    (*Kernel).exitGroup,
}

// Kernel is a simulated kernel serving a single process.
//
// Kernel is safe for concurrent use. Blocking calls release the kernel
// while they wait.
type Kernel struct {
	fs afero.Fs

	// mu protects the fields below. cond is signalled, with mu held,
	// whenever a change may unblock a waiting call.
	mu   sync.Mutex
	cond sync.Cond

	fds      *fdTable
	inodes   map[string]uint64
	lastIno  uint64
	bound    map[string]*socket
	mappings mappingSet
	stdout   *mem.FileData

	calls    map[uintptr]int
	closes   int
	exited   bool
	exitCode int
}

var _ dispatch.Kernel = (*Kernel)(nil)

// New returns a kernel whose filesystem is fs. A nil fs is replaced by an
// empty afero.MemMapFs.
//
// Descriptors 0, 1 and 2 are open on in-memory character devices. What is
// written to 1 can be read back with Stdout.
func New(fs afero.Fs) *Kernel {
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	k := &Kernel{
		fs:       fs,
		fds:      newFDTable(),
		inodes:   make(map[string]uint64),
		bound:    make(map[string]*socket),
		mappings: newMappingSet(),
		calls:    make(map[uintptr]int),
	}
	k.cond.L = &k.mu
	for i, stdio := range []struct {
		name  string
		flags linux.OpenFlags
	}{
		{"stdin", linux.O_RDONLY},
		{"stdout", linux.O_WRONLY},
		{"stderr", linux.O_WRONLY},
	} {
		data := mem.CreateFile("/dev/" + stdio.name)
		mem.SetMode(data, os.ModeDevice|os.ModeCharDevice|0620)
		if i == 1 {
			k.stdout = data
		}
		d := &description{flags: stdio.flags, impl: &openFile{f: mem.NewFileHandle(data), ino: k.newIno()}}
		if _, err := k.fds.install(d, fd.Raw(i), false); err != nil {
			panic("installing " + stdio.name + ": " + err.Error())
		}
	}
	return k
}

// Fs returns the filesystem of k.
func (k *Kernel) Fs() afero.Fs {
	return k.fs
}

func (k *Kernel) newIno() uint64 {
	k.lastIno++
	return k.lastIno
}

// inode returns the inode number of the file at path, assigning one on first
// use.
func (k *Kernel) inode(path string) uint64 {
	if ino, ok := k.inodes[path]; ok {
		return ino
	}
	ino := k.newIno()
	k.inodes[path] = ino
	return ino
}

// Syscall0 implements dispatch.Kernel.Syscall0.
func (k *Kernel) Syscall0(nr uintptr) int64 {
	return k.syscall(nr, args{})
}

// Syscall1 implements dispatch.Kernel.Syscall1.
func (k *Kernel) Syscall1(nr, a1 uintptr) int64 {
	return k.syscall(nr, args{a1})
}

// Syscall2 implements dispatch.Kernel.Syscall2.
func (k *Kernel) Syscall2(nr, a1, a2 uintptr) int64 {
	return k.syscall(nr, args{a1, a2})
}

// Syscall3 implements dispatch.Kernel.Syscall3.
func (k *Kernel) Syscall3(nr, a1, a2, a3 uintptr) int64 {
	return k.syscall(nr, args{a1, a2, a3})
}

// Syscall4 implements dispatch.Kernel.Syscall4.
func (k *Kernel) Syscall4(nr, a1, a2, a3, a4 uintptr) int64 {
	return k.syscall(nr, args{a1, a2, a3, a4})
}

// Syscall5 implements dispatch.Kernel.Syscall5.
func (k *Kernel) Syscall5(nr, a1, a2, a3, a4, a5 uintptr) int64 {
	return k.syscall(nr, args{a1, a2, a3, a4, a5})
}

// Syscall6 implements dispatch.Kernel.Syscall6.
func (k *Kernel) Syscall6(nr, a1, a2, a3, a4, a5, a6 uintptr) int64 {
	return k.syscall(nr, args{a1, a2, a3, a4, a5, a6})
}

func (k *Kernel) syscall(nr uintptr, a args) int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls[nr]++
	h, ok := handlers[nr]
	if !ok {
		log.Debugf("sim: unsupported system call %s", dispatch.Name(nr))
		return -int64(errno.ENOSYS)
	}
	return encode(h(k, a))
}

// encode folds a handler result into a return register value.
func encode(v uint64, err error) int64 {
	if err == nil {
		return int64(v)
	}
	if e, ok := linuxerr.TranslateError(err); ok {
		return -int64(e.Errno())
	}
	log.Warningf("sim: untranslatable error %v, returning EIO", err)
	return -int64(errno.EIO)
}

// Calls returns the number of times nr has been issued.
func (k *Kernel) Calls(nr uintptr) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.calls[nr]
}

// Closes returns the number of close(2) calls that succeeded.
func (k *Kernel) Closes() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closes
}

// Descriptors returns the open descriptor numbers in ascending order.
func (k *Kernel) Descriptors() []fd.Raw {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.fds.numbers()
}

// CloseOnExec returns true if raw is open with FD_CLOEXEC set.
func (k *Kernel) CloseOnExec(raw fd.Raw) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.fds.get(raw)
	return ok && e.cloexec
}

// Stdout returns everything written to descriptor 1.
func (k *Kernel) Stdout() []byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	return readAll(mem.NewReadOnlyFileHandle(k.stdout))
}

// Exited returns the status passed to exit_group(2), and whether it was
// called.
func (k *Kernel) Exited() (int, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.exitCode, k.exited
}

// Mappings returns the start addresses of the live mappings in ascending
// order.
func (k *Kernel) Mappings() []uintptr {
	k.mu.Lock()
	defer k.mu.Unlock()
	addrs := make([]uintptr, 0, k.mappings.len())
	k.mappings.each(func(m *mapping) {
		addrs = append(addrs, m.addr)
	})
	return addrs
}

// MappingAt returns the length and protection of the mapping starting at
// addr.
func (k *Kernel) MappingAt(addr uintptr) (uint64, linux.Prot, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.mappings.at(addr)
	if !ok {
		return 0, 0, false
	}
	return m.length, m.prot, true
}

func (k *Kernel) getpid(args) (uint64, error) {
	return Pid, nil
}

// exitGroup records the status and closes every descriptor. The calling
// goroutine carries on.
func (k *Kernel) exitGroup(a args) (uint64, error) {
	k.exited = true
	k.exitCode = int(int32(a[0]))
	for _, raw := range k.fds.numbers() {
		k.closeFD(raw)
	}
	return 0, nil
}
