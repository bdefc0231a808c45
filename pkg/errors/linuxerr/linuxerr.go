// Copyright 2021 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"),;
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

// Package linuxerr holds one *errors.Error per Linux errno, so errors can be
// returned and compared by identity as cheaply as unix.Errno values. It also
// decodes the single signed word a raw system call returns into its success
// payload or one of these errors.
package linuxerr

import (
	"strconv"

	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/abi/linux/errno"
	"gvisor.dev/syslib/pkg/errors"
)

// errorSlice indexes the errors below by number. Reserved numbers (41 and 58)
// and NOERRNO have no entry.
var errorSlice [errno.MaxErrno + 1]*errors.Error

// register records the canonical error for e.
func register(e errno.Errno, message string) *errors.Error {
	err := errors.New(e, message)
	errorSlice[e] = err
	return err
}

// Errors from include/uapi/asm-generic/errno-base.h.
var (
	EPERM   = register(errno.EPERM, "operation not permitted")
	ENOENT  = register(errno.ENOENT, "no such file or directory")
	ESRCH   = register(errno.ESRCH, "no such process")
	EINTR   = register(errno.EINTR, "interrupted system call")
	EIO     = register(errno.EIO, "I/O error")
	ENXIO   = register(errno.ENXIO, "no such device or address")
	E2BIG   = register(errno.E2BIG, "argument list too long")
	ENOEXEC = register(errno.ENOEXEC, "exec format error")
	EBADF   = register(errno.EBADF, "bad file number")
	ECHILD  = register(errno.ECHILD, "no child processes")
	EAGAIN  = register(errno.EAGAIN, "try again")
	ENOMEM  = register(errno.ENOMEM, "out of memory")
	EACCES  = register(errno.EACCES, "permission denied")
	EFAULT  = register(errno.EFAULT, "bad address")
	ENOTBLK = register(errno.ENOTBLK, "block device required")
	EBUSY   = register(errno.EBUSY, "device or resource busy")
	EEXIST  = register(errno.EEXIST, "file exists")
	EXDEV   = register(errno.EXDEV, "cross-device link")
	ENODEV  = register(errno.ENODEV, "no such device")
	ENOTDIR = register(errno.ENOTDIR, "not a directory")
	EISDIR  = register(errno.EISDIR, "is a directory")
	EINVAL  = register(errno.EINVAL, "invalid argument")
	ENFILE  = register(errno.ENFILE, "file table overflow")
	EMFILE  = register(errno.EMFILE, "too many open files")
	ENOTTY  = register(errno.ENOTTY, "not a typewriter")
	ETXTBSY = register(errno.ETXTBSY, "text file busy")
	EFBIG   = register(errno.EFBIG, "file too large")
	ENOSPC  = register(errno.ENOSPC, "no space left on device")
	ESPIPE  = register(errno.ESPIPE, "illegal seek")
	EROFS   = register(errno.EROFS, "read-only file system")
	EMLINK  = register(errno.EMLINK, "too many links")
	EPIPE   = register(errno.EPIPE, "broken pipe")
	EDOM    = register(errno.EDOM, "math argument out of domain of func")
	ERANGE  = register(errno.ERANGE, "math result not representable")
)

// Errors from include/uapi/asm-generic/errno.h.
var (
	EDEADLK         = register(errno.EDEADLK, "resource deadlock would occur")
	ENAMETOOLONG    = register(errno.ENAMETOOLONG, "file name too long")
	ENOLCK          = register(errno.ENOLCK, "no record locks available")
	ENOSYS          = register(errno.ENOSYS, "invalid system call number")
	ENOTEMPTY       = register(errno.ENOTEMPTY, "directory not empty")
	ELOOP           = register(errno.ELOOP, "too many symbolic links encountered")
	ENOMSG          = register(errno.ENOMSG, "no message of desired type")
	EIDRM           = register(errno.EIDRM, "identifier removed")
	ECHRNG          = register(errno.ECHRNG, "channel number out of range")
	EL2NSYNC        = register(errno.EL2NSYNC, "level 2 not synchronized")
	EL3HLT          = register(errno.EL3HLT, "level 3 halted")
	EL3RST          = register(errno.EL3RST, "level 3 reset")
	ELNRNG          = register(errno.ELNRNG, "link number out of range")
	EUNATCH         = register(errno.EUNATCH, "protocol driver not attached")
	ENOCSI          = register(errno.ENOCSI, "no CSI structure available")
	EL2HLT          = register(errno.EL2HLT, "level 2 halted")
	EBADE           = register(errno.EBADE, "invalid exchange")
	EBADR           = register(errno.EBADR, "invalid request descriptor")
	EXFULL          = register(errno.EXFULL, "exchange full")
	ENOANO          = register(errno.ENOANO, "no anode")
	EBADRQC         = register(errno.EBADRQC, "invalid request code")
	EBADSLT         = register(errno.EBADSLT, "invalid slot")
	EBFONT          = register(errno.EBFONT, "bad font file format")
	ENOSTR          = register(errno.ENOSTR, "device not a stream")
	ENODATA         = register(errno.ENODATA, "no data available")
	ETIME           = register(errno.ETIME, "timer expired")
	ENOSR           = register(errno.ENOSR, "out of streams resources")
	ENONET          = register(errno.ENONET, "machine is not on the network")
	ENOPKG          = register(errno.ENOPKG, "package not installed")
	EREMOTE         = register(errno.EREMOTE, "object is remote")
	ENOLINK         = register(errno.ENOLINK, "link has been severed")
	EADV            = register(errno.EADV, "advertise error")
	ESRMNT          = register(errno.ESRMNT, "srmount error")
	ECOMM           = register(errno.ECOMM, "communication error on send")
	EPROTO          = register(errno.EPROTO, "protocol error")
	EMULTIHOP       = register(errno.EMULTIHOP, "multihop attempted")
	EDOTDOT         = register(errno.EDOTDOT, "RFS specific error")
	EBADMSG         = register(errno.EBADMSG, "not a data message")
	EOVERFLOW       = register(errno.EOVERFLOW, "value too large for defined data type")
	ENOTUNIQ        = register(errno.ENOTUNIQ, "name not unique on network")
	EBADFD          = register(errno.EBADFD, "file descriptor in bad state")
	EREMCHG         = register(errno.EREMCHG, "remote address changed")
	ELIBACC         = register(errno.ELIBACC, "can not access a needed shared library")
	ELIBBAD         = register(errno.ELIBBAD, "accessing a corrupted shared library")
	ELIBSCN         = register(errno.ELIBSCN, ".lib section in a.out corrupted")
	ELIBMAX         = register(errno.ELIBMAX, "attempting to link in too many shared libraries")
	ELIBEXEC        = register(errno.ELIBEXEC, "cannot exec a shared library directly")
	EILSEQ          = register(errno.EILSEQ, "illegal byte sequence")
	ERESTART        = register(errno.ERESTART, "interrupted system call should be restarted")
	ESTRPIPE        = register(errno.ESTRPIPE, "streams pipe error")
	EUSERS          = register(errno.EUSERS, "too many users")
	ENOTSOCK        = register(errno.ENOTSOCK, "socket operation on non-socket")
	EDESTADDRREQ    = register(errno.EDESTADDRREQ, "destination address required")
	EMSGSIZE        = register(errno.EMSGSIZE, "message too long")
	EPROTOTYPE      = register(errno.EPROTOTYPE, "protocol wrong type for socket")
	ENOPROTOOPT     = register(errno.ENOPROTOOPT, "protocol not available")
	EPROTONOSUPPORT = register(errno.EPROTONOSUPPORT, "protocol not supported")
	ESOCKTNOSUPPORT = register(errno.ESOCKTNOSUPPORT, "socket type not supported")
	EOPNOTSUPP      = register(errno.EOPNOTSUPP, "operation not supported on transport endpoint")
	EPFNOSUPPORT    = register(errno.EPFNOSUPPORT, "protocol family not supported")
	EAFNOSUPPORT    = register(errno.EAFNOSUPPORT, "address family not supported by protocol")
	EADDRINUSE      = register(errno.EADDRINUSE, "address already in use")
	EADDRNOTAVAIL   = register(errno.EADDRNOTAVAIL, "cannot assign requested address")
	ENETDOWN        = register(errno.ENETDOWN, "network is down")
	ENETUNREACH     = register(errno.ENETUNREACH, "network is unreachable")
	ENETRESET       = register(errno.ENETRESET, "network dropped connection because of reset")
	ECONNABORTED    = register(errno.ECONNABORTED, "software caused connection abort")
	ECONNRESET      = register(errno.ECONNRESET, "connection reset by peer")
	ENOBUFS         = register(errno.ENOBUFS, "no buffer space available")
	EISCONN         = register(errno.EISCONN, "transport endpoint is already connected")
	ENOTCONN        = register(errno.ENOTCONN, "transport endpoint is not connected")
	ESHUTDOWN       = register(errno.ESHUTDOWN, "cannot send after transport endpoint shutdown")
	ETOOMANYREFS    = register(errno.ETOOMANYREFS, "too many references: cannot splice")
	ETIMEDOUT       = register(errno.ETIMEDOUT, "connection timed out")
	ECONNREFUSED    = register(errno.ECONNREFUSED, "connection refused")
	EHOSTDOWN       = register(errno.EHOSTDOWN, "host is down")
	EHOSTUNREACH    = register(errno.EHOSTUNREACH, "no route to host")
	EALREADY        = register(errno.EALREADY, "operation already in progress")
	EINPROGRESS     = register(errno.EINPROGRESS, "operation now in progress")
	ESTALE          = register(errno.ESTALE, "stale file handle")
	EUCLEAN         = register(errno.EUCLEAN, "structure needs cleaning")
	ENOTNAM         = register(errno.ENOTNAM, "not a XENIX named type file")
	ENAVAIL         = register(errno.ENAVAIL, "no XENIX semaphores available")
	EISNAM          = register(errno.EISNAM, "is a named type file")
	EREMOTEIO       = register(errno.EREMOTEIO, "remote I/O error")
	EDQUOT          = register(errno.EDQUOT, "quota exceeded")
	ENOMEDIUM       = register(errno.ENOMEDIUM, "no medium found")
	EMEDIUMTYPE     = register(errno.EMEDIUMTYPE, "wrong medium type")
	ECANCELED       = register(errno.ECANCELED, "operation Canceled")
	ENOKEY          = register(errno.ENOKEY, "required key not available")
	EKEYEXPIRED     = register(errno.EKEYEXPIRED, "key has expired")
	EKEYREVOKED     = register(errno.EKEYREVOKED, "key has been revoked")
	EKEYREJECTED    = register(errno.EKEYREJECTED, "key was rejected by service")
	EOWNERDEAD      = register(errno.EOWNERDEAD, "owner died")
	ENOTRECOVERABLE = register(errno.ENOTRECOVERABLE, "state not recoverable")
	ERFKILL         = register(errno.ERFKILL, "operation not possible due to RF-kill")
	EHWPOISON       = register(errno.EHWPOISON, "memory page has hardware error")
)

// Names the kernel headers define as synonyms.
var (
	EWOULDBLOCK = EAGAIN
	EDEADLOCK   = EDEADLK
	ENOATTR     = ENODATA
	ENOTSUP     = EOPNOTSUPP
)

// Lookup returns the *errors.Error for e. It is total: a value without an
// entry yields a new *errors.Error that carries e unchanged and reports it as
// unknown. Lookup(NOERRNO) returns nil.
func Lookup(e errno.Errno) *errors.Error {
	if e == errno.NOERRNO {
		return nil
	}
	if e <= errno.MaxErrno {
		if err := errorSlice[e]; err != nil {
			return err
		}
	}
	return errors.New(e, "unknown error "+strconv.FormatUint(uint64(e), 10))
}

// ErrorFromUnix returns the error for a unix.Errno, or nil for 0.
func ErrorFromUnix(err unix.Errno) error {
	if err == 0 {
		return nil
	}
	return Lookup(errno.Errno(err))
}

// ToError converts e to an error, keeping a nil *errors.Error nil.
func ToError(e *errors.Error) error {
	if e == nil {
		return nil
	}
	return e
}

// ToUnix returns the unix.Errno for e, or 0 for nil.
func ToUnix(e *errors.Error) unix.Errno {
	if e == nil {
		return 0
	}
	return unix.Errno(e.Errno())
}

// Equals reports whether err is e: the same *errors.Error, another one with
// the same number, or the matching unix.Errno. A nil e equals only a nil
// err.
func Equals(e *errors.Error, err error) bool {
	if e == nil || err == nil {
		return ToError(e) == err
	}
	return e.Is(err)
}
