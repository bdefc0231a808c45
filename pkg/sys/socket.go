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

	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/cleanup"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
)

// Socket creates an endpoint for communication.
func (s *Sys) Socket(domain linux.SockDomain, typ linux.SockType, flags linux.SockTypeFlags, proto linux.SockProtocol) (*fd.Socket, error) {
	if err := linux.SockTypeFlagSet.Check(flags); err != nil {
		return nil, err
	}
	raw, err := linuxerr.Uint32FromReturn(s.k.Syscall3(unix.SYS_SOCKET, uintptr(domain), uintptr(typ)|uintptr(flags), uintptr(proto)))
	if err != nil {
		return nil, err
	}
	return fd.NewSocket(s.k, fd.Raw(raw)), nil
}

// Socketpair creates a pair of connected sockets.
func (s *Sys) Socketpair(domain linux.SockDomain, typ linux.SockType, flags linux.SockTypeFlags, proto linux.SockProtocol) (*fd.Socket, *fd.Socket, error) {
	if err := linux.SockTypeFlagSet.Check(flags); err != nil {
		return nil, nil, err
	}
	var p runtime.Pinner
	defer p.Unpin()
	fds := new([2]int32)
	if err := linuxerr.FromReturn(s.k.Syscall4(unix.SYS_SOCKETPAIR, uintptr(domain), uintptr(typ)|uintptr(flags), uintptr(proto), ptrAddr(&p, fds))); err != nil {
		return nil, nil, err
	}
	return fd.NewSocket(s.k, fd.Raw(fds[0])), fd.NewSocket(s.k, fd.Raw(fds[1])), nil
}

// addrCall issues bind(2) or connect(2).
func (s *Sys) addrCall(nr uintptr, d fd.Descriptor, addr linux.SockAddr) error {
	defer runtime.KeepAlive(d)
	var p runtime.Pinner
	defer p.Unpin()
	b := addr.Bytes()
	return linuxerr.FromReturn(s.k.Syscall3(nr, raw(d), sliceAddr(&p, b), uintptr(len(b))))
}

// Bind assigns addr to the socket d.
func (s *Sys) Bind(d fd.Descriptor, addr linux.SockAddr) error {
	return s.addrCall(unix.SYS_BIND, d, addr)
}

// Connect connects the socket d to addr.
func (s *Sys) Connect(d fd.Descriptor, addr linux.SockAddr) error {
	return s.addrCall(unix.SYS_CONNECT, d, addr)
}

// Listen marks the socket d as accepting connections, with a queue of up to
// backlog pending ones. linux.SOMAXCONN is a reasonable backlog.
func (s *Sys) Listen(d fd.Descriptor, backlog int) error {
	defer runtime.KeepAlive(d)
	return linuxerr.FromReturn(s.k.Syscall2(unix.SYS_LISTEN, raw(d), uintptr(backlog)))
}

// Accept takes the next pending connection of the listening socket d. Each
// call returns a new socket that is independent of d.
//
// The peer address is not returned.
func (s *Sys) Accept(d fd.Descriptor, flags linux.SockTypeFlags) (*fd.Socket, error) {
	defer runtime.KeepAlive(d)
	if err := linux.SockTypeFlagSet.Check(flags); err != nil {
		return nil, err
	}
	var rv int64
	if flags == 0 {
		rv = s.k.Syscall3(unix.SYS_ACCEPT, raw(d), 0, 0)
	} else {
		rv = s.k.Syscall4(unix.SYS_ACCEPT4, raw(d), 0, 0, uintptr(flags))
	}
	raw, err := linuxerr.Uint32FromReturn(rv)
	if err != nil {
		return nil, err
	}
	return fd.NewSocket(s.k, fd.Raw(raw)), nil
}

// Shutdown shuts down part or all of the connection on d.
func (s *Sys) Shutdown(d fd.Descriptor, how linux.ShutdownHow) error {
	defer runtime.KeepAlive(d)
	return linuxerr.FromReturn(s.k.Syscall2(unix.SYS_SHUTDOWN, raw(d), uintptr(how)))
}

// unixSocket creates an AF_UNIX socket and runs setup on it, closing the
// socket if setup fails.
func (s *Sys) unixSocket(typ linux.SockType, flags linux.SockTypeFlags, setup func(*fd.Socket) error) (*fd.Socket, error) {
	sock, err := s.Socket(linux.AF_UNIX, typ, flags, linux.PROTO_DEFAULT)
	if err != nil {
		return nil, err
	}
	var cu cleanup.Cleanup
	defer cu.Clean()
	cu.AddCloser(sock)
	if err := setup(sock); err != nil {
		return nil, err
	}
	cu.Release()
	return sock, nil
}

// ListenUnix creates a socket of type typ bound to the pathname path and
// listening with a backlog of linux.SOMAXCONN. It is a convenience that
// issues socket(2), bind(2) and listen(2).
func (s *Sys) ListenUnix(path string, typ linux.SockType, flags linux.SockTypeFlags) (*fd.Socket, error) {
	addr, err := linux.NewSockAddrUnix(path)
	if err != nil {
		return nil, err
	}
	return s.unixSocket(typ, flags, func(sock *fd.Socket) error {
		if err := s.Bind(sock, addr); err != nil {
			return err
		}
		return s.Listen(sock, linux.SOMAXCONN)
	})
}

// ConnectUnix creates a socket of type typ connected to the pathname path.
// It is a convenience that issues socket(2) and connect(2).
func (s *Sys) ConnectUnix(path string, typ linux.SockType, flags linux.SockTypeFlags) (*fd.Socket, error) {
	addr, err := linux.NewSockAddrUnix(path)
	if err != nil {
		return nil, err
	}
	return s.unixSocket(typ, flags, func(sock *fd.Socket) error {
		return s.Connect(sock, addr)
	})
}
