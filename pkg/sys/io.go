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
	"io"
	"runtime"

	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
)

// Read reads from d into buf and returns the filled prefix of buf. The rest
// of buf is left as it was.
func (s *Sys) Read(d fd.Descriptor, buf []byte) ([]byte, error) {
	defer runtime.KeepAlive(d)
	var p runtime.Pinner
	defer p.Unpin()
	n, err := linuxerr.SizeFromReturn(s.k.Syscall3(unix.SYS_READ, raw(d), sliceAddr(&p, buf), uintptr(len(buf))))
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Write writes buf to d and returns the number of bytes the kernel accepted,
// which may be less than len(buf).
func (s *Sys) Write(d fd.Descriptor, buf []byte) (int, error) {
	defer runtime.KeepAlive(d)
	var p runtime.Pinner
	defer p.Unpin()
	return linuxerr.SizeFromReturn(s.k.Syscall3(unix.SYS_WRITE, raw(d), sliceAddr(&p, buf), uintptr(len(buf))))
}

// iovecs pins every buffer in bufs and returns the iovec array describing
// them, pinned as well.
func iovecs(p *runtime.Pinner, bufs [][]byte) []linux.Iovec {
	iov := make([]linux.Iovec, len(bufs))
	for i, b := range bufs {
		iov[i] = linux.Iovec{
			Base: uint64(sliceAddr(p, b)),
			Len:  uint64(len(b)),
		}
	}
	return iov
}

// Readv reads from d into bufs, filling each in turn, and returns the total
// number of bytes read.
func (s *Sys) Readv(d fd.Descriptor, bufs [][]byte) (int, error) {
	defer runtime.KeepAlive(d)
	var p runtime.Pinner
	defer p.Unpin()
	iov := iovecs(&p, bufs)
	return linuxerr.SizeFromReturn(s.k.Syscall3(unix.SYS_READV, raw(d), sliceAddr(&p, iov), uintptr(len(iov))))
}

// Writev writes bufs to d, in order, and returns the total number of bytes
// the kernel accepted.
func (s *Sys) Writev(d fd.Descriptor, bufs [][]byte) (int, error) {
	defer runtime.KeepAlive(d)
	var p runtime.Pinner
	defer p.Unpin()
	iov := iovecs(&p, bufs)
	return linuxerr.SizeFromReturn(s.k.Syscall3(unix.SYS_WRITEV, raw(d), sliceAddr(&p, iov), uintptr(len(iov))))
}

// ReadWriter implements io.ReadWriter for a descriptor. It does not take
// ownership of the descriptor.
type ReadWriter struct {
	s *Sys
	d fd.Descriptor
}

var _ io.ReadWriter = (*ReadWriter)(nil)

// ReadWriter returns an io.ReadWriter for d.
func (s *Sys) ReadWriter(d fd.Descriptor) *ReadWriter {
	return &ReadWriter{s: s, d: d}
}

// Read implements io.Reader. A read of zero bytes into a non-empty buffer is
// reported as io.EOF.
func (r *ReadWriter) Read(b []byte) (int, error) {
	got, err := r.s.Read(r.d, b)
	if err != nil {
		return 0, err
	}
	if len(got) == 0 && len(b) > 0 {
		return 0, io.EOF
	}
	return len(got), nil
}

// Write implements io.Writer.
//
// Unlike Sys.Write, it keeps writing until all of b is accepted or the
// kernel returns an error, as io.Writer requires.
func (r *ReadWriter) Write(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		n, err := r.s.Write(r.d, b[written:])
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
		written += n
	}
	return written, nil
}
