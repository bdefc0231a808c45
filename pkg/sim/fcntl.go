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
	"io"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
)

func (k *Kernel) fcntl(a args) (uint64, error) {
	d, err := k.get(a[0])
	if err != nil {
		return 0, err
	}
	e, _ := k.fds.get(fd.Raw(a[0]))
	arg := uint64(a[2])
	switch cmd := linux.FcntlCmd(a[1]); cmd {
	case linux.F_DUPFD, linux.F_DUPFD_CLOEXEC:
		if arg > uint64(^fd.Raw(0)) {
			return 0, linuxerr.EINVAL
		}
		raw, err := k.fds.install(d, fd.Raw(arg), cmd == linux.F_DUPFD_CLOEXEC)
		return uint64(raw), err
	case linux.F_GETFD:
		var flags linux.FDFlags
		if e.cloexec {
			flags |= linux.FD_CLOEXEC
		}
		return uint64(flags), nil
	case linux.F_SETFD:
		e.cloexec = linux.FDFlags(arg)&linux.FD_CLOEXEC != 0
		return 0, nil
	case linux.F_GETFL:
		return uint64(d.flags), nil
	case linux.F_SETFL:
		d.flags = d.flags&^linux.SettableFileStatusFlags | linux.OpenFlags(arg)&linux.SettableFileStatusFlags
		k.cond.Broadcast()
		return 0, nil
	case linux.F_GETOWN, linux.F_SETOWN:
		return 0, nil
	default:
		// Record locks are not simulated.
		return 0, linuxerr.EINVAL
	}
}

func (k *Kernel) ioctl(a args) (uint64, error) {
	d, err := k.get(a[0])
	if err != nil {
		return 0, err
	}
	switch a[1] {
	case linux.FIOCLEX, linux.FIONCLEX:
		e, _ := k.fds.get(fd.Raw(a[0]))
		e.cloexec = a[1] == linux.FIOCLEX
		return 0, nil
	case linux.FIONBIO:
		on, err := valueAt[int32](a[2])
		if err != nil {
			return 0, err
		}
		if *on != 0 {
			d.flags |= linux.O_NONBLOCK
		} else {
			d.flags &^= linux.O_NONBLOCK
		}
		return 0, nil
	case linux.FIONREAD:
		out, err := valueAt[int32](a[2])
		if err != nil {
			return 0, err
		}
		switch o := d.impl.(type) {
		case *socket:
			*out = int32(o.available())
		case *openFile:
			fi, err := o.f.Stat()
			if err != nil {
				return 0, err
			}
			pos, err := o.f.Seek(0, io.SeekCurrent)
			if err != nil {
				return 0, err
			}
			*out = int32(max(fi.Size()-pos, 0))
		default:
			return 0, linuxerr.ENOTTY
		}
		return 0, nil
	default:
		return 0, linuxerr.ENOTTY
	}
}
