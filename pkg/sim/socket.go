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
	"unsafe"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
)

// scmMaxFD is the most descriptors one SCM_RIGHTS message may carry.
const scmMaxFD = 253

// segment is one write to a stream socket. Descriptors passed with a write
// travel with its first byte.
type segment struct {
	data   []byte
	rights []*description
}

// socket is an AF_UNIX stream socket.
type socket struct {
	ino uint64

	// path is the bound address, or empty.
	path string

	listening bool
	backlog   int
	queue     []*socket

	connected bool
	peer      *socket
	rx        []segment

	// rdShut and wrShut record shutdown(2) of this end.
	rdShut bool
	wrShut bool

	closed bool
}

func (s *socket) stat(*Kernel) (linux.Stat, error) {
	return linux.Stat{
		Dev:     Device,
		Ino:     s.ino,
		Nlink:   1,
		Mode:    uint32(linux.ModeSocket | 0777),
		Blksize: linux.PageSize,
	}, nil
}

func (s *socket) release(k *Kernel) {
	s.closed = true
	if s.path != "" && k.bound[s.path] == s {
		delete(k.bound, s.path)
	}
	for _, pending := range s.queue {
		pending.release(k)
	}
	s.queue = nil
	for _, seg := range s.rx {
		for _, d := range seg.rights {
			k.unref(d)
		}
	}
	s.rx = nil
}

// rcvShut returns true once nothing more can arrive.
func (s *socket) rcvShut() bool {
	return s.rdShut || s.peer.closed || s.peer.wrShut
}

// sndShut returns true once nothing more can be sent.
func (s *socket) sndShut() bool {
	return s.wrShut || s.peer.closed || s.peer.rdShut
}

// readiness returns the epoll events s currently signals.
func (s *socket) readiness() linux.EpollEvents {
	var ev linux.EpollEvents
	switch {
	case s.listening:
		if len(s.queue) > 0 {
			ev |= linux.EPOLLIN | linux.EPOLLRDNORM
		}
	case s.connected:
		if len(s.rx) > 0 {
			ev |= linux.EPOLLIN | linux.EPOLLRDNORM
		}
		if s.rcvShut() {
			ev |= linux.EPOLLIN | linux.EPOLLRDNORM | linux.EPOLLRDHUP
		}
		if s.sndShut() {
			if s.rcvShut() {
				ev |= linux.EPOLLHUP
			}
		} else {
			ev |= linux.EPOLLOUT | linux.EPOLLWRNORM
		}
	default:
		ev |= linux.EPOLLOUT | linux.EPOLLWRNORM | linux.EPOLLHUP
	}
	return ev
}

// available returns the number of bytes queued for reading.
func (s *socket) available() int {
	n := 0
	for _, seg := range s.rx {
		n += len(seg.data)
	}
	return n
}

func pair(a, b *socket) {
	a.connected, b.connected = true, true
	a.peer, b.peer = b, a
}

// sock returns the description and socket at a.
func (k *Kernel) sock(a uintptr) (*description, *socket, error) {
	d, err := k.get(a)
	if err != nil {
		return nil, nil, err
	}
	s, ok := d.impl.(*socket)
	if !ok {
		return nil, nil, linuxerr.ENOTSOCK
	}
	return d, s, nil
}

// socketFlags returns the status flags of a new socket.
func socketFlags(flags linux.SockTypeFlags) linux.OpenFlags {
	status := linux.O_RDWR
	if flags&linux.SOCK_NONBLOCK != 0 {
		status |= linux.O_NONBLOCK
	}
	return status
}

// socketArgs validates the domain, type and protocol of socket(2) and
// socketpair(2).
func socketArgs(a args) (linux.SockTypeFlags, error) {
	domain := linux.SockDomain(a[0])
	typ := linux.SockType(a[1]) & linux.SOCK_TYPE_MASK
	flags := linux.SockTypeFlags(a[1]) &^ linux.SockTypeFlags(linux.SOCK_TYPE_MASK)
	if err := linux.SockTypeFlagSet.Check(flags); err != nil {
		return 0, err
	}
	if domain != linux.AF_UNIX {
		return 0, linuxerr.EAFNOSUPPORT
	}
	if typ != linux.SOCK_STREAM {
		return 0, linuxerr.ESOCKTNOSUPPORT
	}
	if linux.SockProtocol(a[2]) != linux.PROTO_DEFAULT {
		return 0, linuxerr.EPROTONOSUPPORT
	}
	return flags, nil
}

func (k *Kernel) socket(a args) (uint64, error) {
	flags, err := socketArgs(a)
	if err != nil {
		return 0, err
	}
	return k.installNew(&socket{ino: k.newIno()}, socketFlags(flags), flags&linux.SOCK_CLOEXEC != 0)
}

func (k *Kernel) socketpair(a args) (uint64, error) {
	flags, err := socketArgs(a)
	if err != nil {
		return 0, err
	}
	out, err := valueAt[[2]int32](a[3])
	if err != nil {
		return 0, err
	}
	x, y := &socket{ino: k.newIno()}, &socket{ino: k.newIno()}
	pair(x, y)
	first, err := k.installNew(x, socketFlags(flags), flags&linux.SOCK_CLOEXEC != 0)
	if err != nil {
		y.release(k)
		return 0, err
	}
	second, err := k.installNew(y, socketFlags(flags), flags&linux.SOCK_CLOEXEC != 0)
	if err != nil {
		k.closeFD(fd.Raw(first))
		return 0, err
	}
	out[0], out[1] = int32(first), int32(second)
	return 0, nil
}

// address reads the pathname address at addr.
func address(addr, length uintptr) (string, error) {
	b, err := bytesAt(addr, uint64(length))
	if err != nil {
		return "", err
	}
	sa, err := linux.ParseSockAddrUnix(b)
	if err != nil {
		return "", err
	}
	p := sa.PathString()
	if p == "" {
		// Abstract and autobound addresses are not simulated.
		return "", linuxerr.EINVAL
	}
	return p, nil
}

func (k *Kernel) bind(a args) (uint64, error) {
	_, s, err := k.sock(a[0])
	if err != nil {
		return 0, err
	}
	p, err := address(a[1], a[2])
	if err != nil {
		return 0, err
	}
	if s.path != "" || s.connected {
		return 0, linuxerr.EINVAL
	}
	if _, ok := k.bound[p]; ok {
		return 0, linuxerr.EADDRINUSE
	}
	if _, err := k.fs.Stat(p); err == nil {
		return 0, linuxerr.EADDRINUSE
	}
	k.bound[p] = s
	s.path = p
	return 0, nil
}

func (k *Kernel) listen(a args) (uint64, error) {
	_, s, err := k.sock(a[0])
	if err != nil {
		return 0, err
	}
	if s.path == "" || s.connected {
		return 0, linuxerr.EINVAL
	}
	backlog := int(int32(a[1]))
	if backlog < 0 || backlog > linux.SOMAXCONN {
		backlog = linux.SOMAXCONN
	}
	s.listening = true
	s.backlog = backlog
	return 0, nil
}

func (k *Kernel) connect(a args) (uint64, error) {
	_, s, err := k.sock(a[0])
	if err != nil {
		return 0, err
	}
	if s.connected {
		return 0, linuxerr.EISCONN
	}
	if s.listening {
		return 0, linuxerr.EINVAL
	}
	p, err := address(a[1], a[2])
	if err != nil {
		return 0, err
	}
	l, ok := k.bound[p]
	if !ok {
		if _, err := k.fs.Stat(p); err == nil {
			return 0, linuxerr.ECONNREFUSED
		}
		return 0, linuxerr.ENOENT
	}
	if !l.listening || l.rdShut {
		return 0, linuxerr.ECONNREFUSED
	}
	if len(l.queue) > l.backlog {
		return 0, linuxerr.EAGAIN
	}
	server := &socket{ino: k.newIno()}
	pair(s, server)
	l.queue = append(l.queue, server)
	k.cond.Broadcast()
	return 0, nil
}

func (k *Kernel) accept(a args) (uint64, error) {
	return k.acceptCommon(a, 0)
}

func (k *Kernel) accept4(a args) (uint64, error) {
	return k.acceptCommon(a, linux.SockTypeFlags(a[3]))
}

func (k *Kernel) acceptCommon(a args, flags linux.SockTypeFlags) (uint64, error) {
	if err := linux.SockTypeFlagSet.Check(flags); err != nil {
		return 0, err
	}
	d, s, err := k.sock(a[0])
	if err != nil {
		return 0, err
	}
	if !s.listening {
		return 0, linuxerr.EINVAL
	}
	defer k.unref(k.hold(d))
	for len(s.queue) == 0 {
		if s.rdShut {
			return 0, linuxerr.EINVAL
		}
		if d.nonblocking() {
			return 0, linuxerr.EAGAIN
		}
		k.cond.Wait()
	}
	server := s.queue[0]
	s.queue = s.queue[1:]
	raw, err := k.installNew(server, socketFlags(flags), flags&linux.SOCK_CLOEXEC != 0)
	if err != nil {
		return 0, err
	}
	if a[1] != 0 {
		// The peer is unnamed: only the family is returned.
		lenp, err := valueAt[uint32](a[2])
		if err != nil {
			return 0, err
		}
		if *lenp >= 2 {
			family, _ := valueAt[linux.SockDomain](a[1])
			*family = linux.AF_UNIX
		}
		*lenp = 2
	}
	return raw, nil
}

func (k *Kernel) shutdown(a args) (uint64, error) {
	_, s, err := k.sock(a[0])
	if err != nil {
		return 0, err
	}
	how := linux.ShutdownHow(a[1])
	if how > linux.SHUT_RDWR {
		return 0, linuxerr.EINVAL
	}
	if !s.connected && !s.listening {
		return 0, linuxerr.ENOTCONN
	}
	if how == linux.SHUT_RD || how == linux.SHUT_RDWR {
		s.rdShut = true
	}
	if how == linux.SHUT_WR || how == linux.SHUT_RDWR {
		s.wrShut = true
	}
	k.cond.Broadcast()
	return 0, nil
}

// send queues the bytes of bufs, and rights, for the peer of s. On success
// the peer takes over the references held on rights.
func (k *Kernel) send(s *socket, bufs [][]byte, rights []*description) (int, error) {
	if !s.connected {
		return 0, linuxerr.ENOTCONN
	}
	if s.sndShut() {
		return 0, linuxerr.EPIPE
	}
	data := gather(bufs)
	if len(data) == 0 {
		for _, d := range rights {
			k.unref(d)
		}
		return 0, nil
	}
	s.peer.rx = append(s.peer.rx, segment{data: data, rights: rights})
	k.cond.Broadcast()
	return len(data), nil
}

// recv reads queued bytes of s into bufs. Descriptors that arrive are
// installed and described in control, and the length of the message written
// there is returned. recv stops after a segment carrying descriptors, so that
// they are reported with the bytes they came with.
func (k *Kernel) recv(d *description, s *socket, bufs [][]byte, control []byte, flags linux.MsgFlags) (int, linux.MsgFlags, uint64, error) {
	if !s.connected {
		return 0, 0, 0, linuxerr.EINVAL
	}
	for len(s.rx) == 0 {
		if s.rcvShut() {
			return 0, 0, 0, nil
		}
		if d.nonblocking() || flags&linux.MSG_DONTWAIT != 0 {
			return 0, 0, 0, linuxerr.EAGAIN
		}
		k.cond.Wait()
	}
	peek := flags&linux.MSG_PEEK != 0
	want := capacity(bufs)
	var (
		out        linux.MsgFlags
		controlLen uint64
	)
	n := 0
	for i := 0; i < len(s.rx) && n < want; {
		seg := &s.rx[i]
		if seg.rights != nil && n > 0 {
			break
		}
		c := scatter(bufs, n, seg.data)
		n += c
		rights := seg.rights
		if peek {
			i++
		} else {
			seg.rights = nil
			seg.data = seg.data[c:]
			if len(seg.data) == 0 {
				s.rx = s.rx[1:]
			}
		}
		if rights != nil {
			if !peek {
				var trunc linux.MsgFlags
				trunc, controlLen = k.deliver(rights, control, flags&linux.MSG_CMSG_CLOEXEC != 0)
				out |= trunc
			}
			break
		}
	}
	return n, out, controlLen, nil
}

// deliver installs rights and records them as an SCM_RIGHTS message in
// control, returning the space the message takes. Descriptors that do not
// fit are closed and MSG_CTRUNC is returned.
func (k *Kernel) deliver(rights []*description, control []byte, cloexec bool) (linux.MsgFlags, uint64) {
	room := 0
	if len(control) >= linux.SizeOfCmsghdr {
		room = (len(control) - linux.SizeOfCmsghdr) / 4
	}
	var raws []int32
	for _, d := range rights {
		if len(raws) < room {
			if raw, err := k.fds.install(d, 0, cloexec); err == nil {
				raws = append(raws, int32(raw))
			}
		}
		k.unref(d)
	}
	var out linux.MsgFlags
	if len(raws) < len(rights) {
		out |= linux.MSG_CTRUNC
	}
	if len(raws) == 0 {
		return out, 0
	}
	h := (*linux.Cmsghdr)(unsafe.Pointer(&control[0]))
	h.Len = linux.CmsgLen(uint64(4 * len(raws)))
	h.Level = linux.SOL_SOCKET
	h.Type = linux.SCM_RIGHTS
	copy(unsafe.Slice((*int32)(unsafe.Pointer(&control[linux.SizeOfCmsghdr])), len(raws)), raws)
	return out, min(linux.CmsgSpace(uint64(4*len(raws))), uint64(len(control)))
}

// rightsAt parses the control messages at addr. Only SCM_RIGHTS is
// accepted. A reference is taken on every description passed.
func (k *Kernel) rightsAt(addr uintptr, length uint64) ([]*description, error) {
	buf, err := bytesAt(addr, length)
	if err != nil {
		return nil, err
	}
	var rights []*description
	for off := uint64(0); off+linux.SizeOfCmsghdr <= length; {
		h := (*linux.Cmsghdr)(unsafe.Pointer(&buf[off]))
		if h.Len < linux.SizeOfCmsghdr || off+h.Len > length {
			return nil, linuxerr.EINVAL
		}
		if h.Level != linux.SOL_SOCKET || h.Type != linux.SCM_RIGHTS {
			return nil, linuxerr.EINVAL
		}
		data := buf[off+linux.SizeOfCmsghdr : off+h.Len]
		if len(data)%4 != 0 {
			return nil, linuxerr.EINVAL
		}
		for i := 0; i < len(data); i += 4 {
			raw := *(*int32)(unsafe.Pointer(&data[i]))
			e, ok := k.fds.get(fd.Raw(raw))
			if raw < 0 || !ok {
				return nil, linuxerr.EBADF
			}
			rights = append(rights, e.desc)
		}
		off += linux.CmsgAlign(h.Len)
	}
	if len(rights) > scmMaxFD {
		return nil, linuxerr.EINVAL
	}
	for _, d := range rights {
		d.refs++
	}
	return rights, nil
}

func (k *Kernel) sendmsg(a args) (uint64, error) {
	_, s, err := k.sock(a[0])
	if err != nil {
		return 0, err
	}
	if err := linux.MsgFlagSet.Check(linux.MsgFlags(a[2])); err != nil {
		return 0, err
	}
	msg, err := valueAt[linux.Msghdr](a[1])
	if err != nil {
		return 0, err
	}
	if msg.NameLen != 0 {
		if s.connected {
			return 0, linuxerr.EISCONN
		}
		return 0, linuxerr.EOPNOTSUPP
	}
	bufs, err := iovecsAt(uintptr(msg.Iov), msg.IovLen)
	if err != nil {
		return 0, err
	}
	rights, err := k.rightsAt(uintptr(msg.Control), msg.ControlLen)
	if err != nil {
		return 0, err
	}
	n, err := k.send(s, bufs, rights)
	if err != nil {
		for _, d := range rights {
			k.unref(d)
		}
		return 0, err
	}
	return uint64(n), nil
}

func (k *Kernel) recvmsg(a args) (uint64, error) {
	d, s, err := k.sock(a[0])
	if err != nil {
		return 0, err
	}
	flags := linux.MsgFlags(a[2])
	if err := linux.MsgFlagSet.Check(flags); err != nil {
		return 0, err
	}
	msg, err := valueAt[linux.Msghdr](a[1])
	if err != nil {
		return 0, err
	}
	bufs, err := iovecsAt(uintptr(msg.Iov), msg.IovLen)
	if err != nil {
		return 0, err
	}
	control, err := bytesAt(uintptr(msg.Control), msg.ControlLen)
	if err != nil {
		return 0, err
	}
	defer k.unref(k.hold(d))
	n, out, controlLen, err := k.recv(d, s, bufs, control, flags)
	if err != nil {
		return 0, err
	}
	msg.NameLen = 0
	msg.Flags = out
	msg.ControlLen = controlLen
	return uint64(n), nil
}
