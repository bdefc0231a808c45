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
	"bytes"
	"unsafe"

	"gvisor.dev/syslib/pkg/abi"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
)

// SockDomain is an address family, the domain argument of socket(2).
type SockDomain uint16

// Address families, from linux/socket.h.
const (
	AF_UNSPEC  SockDomain = 0
	AF_UNIX    SockDomain = 1
	AF_INET    SockDomain = 2
	AF_INET6   SockDomain = 10
	AF_NETLINK SockDomain = 16
	AF_PACKET  SockDomain = 17
)

// SockDomains names the address families.
var SockDomains = abi.ValueSet[SockDomain]{
	AF_UNSPEC:  {Name: "AF_UNSPEC", Label: "unspecified"},
	AF_UNIX:    {Name: "AF_UNIX", Label: "local communication"},
	AF_INET:    {Name: "AF_INET", Label: "IPv4 Internet protocols"},
	AF_INET6:   {Name: "AF_INET6", Label: "IPv6 Internet protocols"},
	AF_NETLINK: {Name: "AF_NETLINK", Label: "kernel user interface device"},
	AF_PACKET:  {Name: "AF_PACKET", Label: "low-level packet interface"},
}

func (d SockDomain) String() string {
	return SockDomains.Parse(d)
}

// SockType is the type argument of socket(2), without SockTypeFlags.
type SockType uint32

// Socket types, from linux/net.h.
const (
	SOCK_STREAM    SockType = 1
	SOCK_DGRAM     SockType = 2
	SOCK_RAW       SockType = 3
	SOCK_RDM       SockType = 4
	SOCK_SEQPACKET SockType = 5

	// SOCK_TYPE_MASK masks the type out of the type argument.
	SOCK_TYPE_MASK SockType = 0xf
)

// SockTypes names the socket types.
var SockTypes = abi.ValueSet[SockType]{
	SOCK_STREAM:    {Name: "SOCK_STREAM", Label: "sequenced, reliable, two-way, connection-based byte streams"},
	SOCK_DGRAM:     {Name: "SOCK_DGRAM", Label: "connectionless, unreliable messages"},
	SOCK_RAW:       {Name: "SOCK_RAW", Label: "raw network protocol access"},
	SOCK_RDM:       {Name: "SOCK_RDM", Label: "reliable datagrams without ordering"},
	SOCK_SEQPACKET: {Name: "SOCK_SEQPACKET", Label: "sequenced, reliable, connection-based datagrams"},
}

func (t SockType) String() string {
	return SockTypes.Parse(t)
}

// SockTypeFlags may be OR'd into the type argument of socket(2) and
// socketpair(2), and are the flags argument of accept4(2).
type SockTypeFlags uint32

// Flags for socket(2) and accept4(2).
const (
	SOCK_NONBLOCK SockTypeFlags = SockTypeFlags(O_NONBLOCK)
	SOCK_CLOEXEC  SockTypeFlags = SockTypeFlags(O_CLOEXEC)
)

// SockTypeFlagSet is the set of valid socket type flags.
var SockTypeFlagSet = abi.NewFlagSet[SockTypeFlags](linuxerr.EINVAL,
	abi.Flag[SockTypeFlags]{Flag: SOCK_NONBLOCK, Name: "SOCK_NONBLOCK"},
	abi.Flag[SockTypeFlags]{Flag: SOCK_CLOEXEC, Name: "SOCK_CLOEXEC"},
)

func (f SockTypeFlags) String() string {
	return SockTypeFlagSet.Parse(f)
}

// SockProtocol is the protocol argument of socket(2).
type SockProtocol uint32

// Protocols, from netinet/in.h.
const (
	IPPROTO_IP   SockProtocol = 0
	IPPROTO_ICMP SockProtocol = 1
	IPPROTO_TCP  SockProtocol = 6
	IPPROTO_UDP  SockProtocol = 17
	IPPROTO_RAW  SockProtocol = 255

	// PROTO_DEFAULT selects the default protocol for the domain and type.
	PROTO_DEFAULT = IPPROTO_IP
)

// SockProtocols names the protocols.
var SockProtocols = abi.ValueSet[SockProtocol]{
	IPPROTO_IP:   {Name: "IPPROTO_IP", Label: "default protocol"},
	IPPROTO_ICMP: {Name: "IPPROTO_ICMP", Label: "Internet Control Message Protocol"},
	IPPROTO_TCP:  {Name: "IPPROTO_TCP", Label: "Transmission Control Protocol"},
	IPPROTO_UDP:  {Name: "IPPROTO_UDP", Label: "User Datagram Protocol"},
	IPPROTO_RAW:  {Name: "IPPROTO_RAW", Label: "raw IP packets"},
}

func (p SockProtocol) String() string {
	return SockProtocols.Parse(p)
}

// SockLevel is the level of a socket option or control message.
type SockLevel int32

// Socket levels.
const (
	SOL_IP     SockLevel = 0
	SOL_SOCKET SockLevel = 1
	SOL_TCP    SockLevel = 6
	SOL_UDP    SockLevel = 17
)

// SockLevels names the socket levels.
var SockLevels = abi.ValueSet[SockLevel]{
	SOL_IP:     {Name: "SOL_IP", Label: "IP level"},
	SOL_SOCKET: {Name: "SOL_SOCKET", Label: "socket level"},
	SOL_TCP:    {Name: "SOL_TCP", Label: "TCP level"},
	SOL_UDP:    {Name: "SOL_UDP", Label: "UDP level"},
}

func (l SockLevel) String() string {
	return SockLevels.Parse(l)
}

// ControlType is the type of a control message.
type ControlType int32

// Control message types at SOL_SOCKET.
const (
	SCM_RIGHTS      ControlType = 1
	SCM_CREDENTIALS ControlType = 2
)

// ControlTypes names the SOL_SOCKET control message types.
var ControlTypes = abi.ValueSet[ControlType]{
	SCM_RIGHTS:      {Name: "SCM_RIGHTS", Label: "file descriptors"},
	SCM_CREDENTIALS: {Name: "SCM_CREDENTIALS", Label: "process credentials"},
}

func (t ControlType) String() string {
	return ControlTypes.Parse(t)
}

// MsgFlags is the flags argument of sendmsg(2) and recvmsg(2), and the
// msg_flags field of struct msghdr.
type MsgFlags uint32

// Flags for send(2) and recv(2).
const (
	MSG_OOB          MsgFlags = 0x1
	MSG_PEEK         MsgFlags = 0x2
	MSG_DONTROUTE    MsgFlags = 0x4
	MSG_CTRUNC       MsgFlags = 0x8
	MSG_TRUNC        MsgFlags = 0x20
	MSG_DONTWAIT     MsgFlags = 0x40
	MSG_EOR          MsgFlags = 0x80
	MSG_WAITALL      MsgFlags = 0x100
	MSG_ERRQUEUE     MsgFlags = 0x2000
	MSG_NOSIGNAL     MsgFlags = 0x4000
	MSG_MORE         MsgFlags = 0x8000
	MSG_CMSG_CLOEXEC MsgFlags = 0x40000000
)

// MsgFlagSet is the set of valid message flags.
var MsgFlagSet = abi.NewFlagSet[MsgFlags](linuxerr.EINVAL,
	abi.Flag[MsgFlags]{Flag: MSG_OOB, Name: "MSG_OOB"},
	abi.Flag[MsgFlags]{Flag: MSG_PEEK, Name: "MSG_PEEK"},
	abi.Flag[MsgFlags]{Flag: MSG_DONTROUTE, Name: "MSG_DONTROUTE"},
	abi.Flag[MsgFlags]{Flag: MSG_CTRUNC, Name: "MSG_CTRUNC"},
	abi.Flag[MsgFlags]{Flag: MSG_TRUNC, Name: "MSG_TRUNC"},
	abi.Flag[MsgFlags]{Flag: MSG_DONTWAIT, Name: "MSG_DONTWAIT"},
	abi.Flag[MsgFlags]{Flag: MSG_EOR, Name: "MSG_EOR"},
	abi.Flag[MsgFlags]{Flag: MSG_WAITALL, Name: "MSG_WAITALL"},
	abi.Flag[MsgFlags]{Flag: MSG_ERRQUEUE, Name: "MSG_ERRQUEUE"},
	abi.Flag[MsgFlags]{Flag: MSG_NOSIGNAL, Name: "MSG_NOSIGNAL"},
	abi.Flag[MsgFlags]{Flag: MSG_MORE, Name: "MSG_MORE"},
	abi.Flag[MsgFlags]{Flag: MSG_CMSG_CLOEXEC, Name: "MSG_CMSG_CLOEXEC"},
)

func (f MsgFlags) String() string {
	return MsgFlagSet.Parse(f)
}

// ShutdownHow is the how argument of shutdown(2).
type ShutdownHow uint32

// Values for shutdown(2).
const (
	SHUT_RD   ShutdownHow = 0
	SHUT_WR   ShutdownHow = 1
	SHUT_RDWR ShutdownHow = 2
)

// SOMAXCONN is the maximum length of the listen queue, and the default
// backlog used by this module.
const SOMAXCONN = 4096

// UnixPathMax is the size of the sun_path field of struct sockaddr_un.
const UnixPathMax = 108

// SizeOfSockAddrUnix is the size of a SockAddrUnix struct in bytes.
const SizeOfSockAddrUnix = 2 + UnixPathMax

// SockAddr is a socket address in its kernel encoding, as passed to bind(2)
// and connect(2).
type SockAddr interface {
	// AddressFamily returns the address family.
	AddressFamily() SockDomain

	// Bytes returns the encoded address. The slice aliases the address.
	Bytes() []byte
}

// SockAddrUnix is struct sockaddr_un, from uapi/linux/un.h.
type SockAddrUnix struct {
	Family SockDomain
	Path   [UnixPathMax]byte
}

// NewSockAddrUnix returns the address of a pathname socket. The path must
// leave room for its NUL terminator; longer paths fail with EINVAL.
func NewSockAddrUnix(path string) (*SockAddrUnix, error) {
	if len(path) >= UnixPathMax {
		return nil, linuxerr.EINVAL
	}
	a := &SockAddrUnix{Family: AF_UNIX}
	copy(a.Path[:], path)
	return a, nil
}

// ParseSockAddrUnix decodes b, which must hold at least the family field of
// an AF_UNIX address.
func ParseSockAddrUnix(b []byte) (*SockAddrUnix, error) {
	var a SockAddrUnix
	if len(b) < 2 || len(b) > SizeOfSockAddrUnix {
		return nil, linuxerr.EINVAL
	}
	copy(a.Bytes(), b)
	if a.Family != AF_UNIX {
		return nil, linuxerr.EAFNOSUPPORT
	}
	return &a, nil
}

// AddressFamily implements SockAddr.AddressFamily.
func (a *SockAddrUnix) AddressFamily() SockDomain {
	return a.Family
}

// Bytes implements SockAddr.Bytes.
func (a *SockAddrUnix) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(a)), SizeOfSockAddrUnix)
}

// PathString returns the path up to the first NUL.
func (a *SockAddrUnix) PathString() string {
	b := a.Path[:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Iovec is struct iovec, from uapi/linux/uio.h.
type Iovec struct {
	Base uint64
	Len  uint64
}

// SizeOfIovec is the size of an Iovec struct in bytes.
const SizeOfIovec = 16

// UIO_MAXIOV is the maximum number of iovecs a single call accepts.
const UIO_MAXIOV = 1024

// Msghdr is struct msghdr, from linux/socket.h.
type Msghdr struct {
	Name       uint64
	NameLen    uint32
	_          uint32
	Iov        uint64
	IovLen     uint64
	Control    uint64
	ControlLen uint64
	Flags      MsgFlags
	_          int32
}

// SizeOfMsghdr is the size of a Msghdr struct in bytes.
const SizeOfMsghdr = 56

// Cmsghdr is struct cmsghdr, from linux/socket.h.
type Cmsghdr struct {
	Len   uint64
	Level SockLevel
	Type  ControlType
}

// SizeOfCmsghdr is the size of a Cmsghdr struct in bytes.
const SizeOfCmsghdr = 16

// CmsgAlign rounds n up to the alignment of control message data, as
// CMSG_ALIGN does.
func CmsgAlign(n uint64) uint64 {
	return (n + 7) &^ 7
}

// CmsgLen returns the value of cmsg_len for n bytes of data, as CMSG_LEN
// does.
func CmsgLen(n uint64) uint64 {
	return SizeOfCmsghdr + n
}

// CmsgSpace returns the bytes a control message with n bytes of data
// occupies, as CMSG_SPACE does.
func CmsgSpace(n uint64) uint64 {
	return SizeOfCmsghdr + CmsgAlign(n)
}
