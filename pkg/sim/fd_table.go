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
	"slices"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
)

// maxFDs is the descriptor limit, as RLIMIT_NOFILE would set it.
const maxFDs = 1024

// object is the file behind a description.
type object interface {
	// stat returns the status of the object.
	stat(k *Kernel) (linux.Stat, error)

	// release is called once the last reference to the description is
	// dropped.
	release(k *Kernel)
}

// description is an open file description. Duplicated descriptors share
// one, and with it the file offset and status flags.
type description struct {
	// refs counts descriptors, in-flight SCM_RIGHTS messages and running
	// calls holding the description.
	refs int

	// flags holds the access mode and the file status flags.
	flags linux.OpenFlags

	impl object
}

func (d *description) nonblocking() bool {
	return d.flags&linux.O_NONBLOCK != 0
}

// descriptor holds the details about a file descriptor, namely a pointer to
// the description and the descriptor flags.
type descriptor struct {
	desc    *description
	cloexec bool
}

// fdTable maps descriptor numbers to descriptions.
type fdTable struct {
	descriptors map[fd.Raw]*descriptor
}

func newFDTable() *fdTable {
	return &fdTable{descriptors: make(map[fd.Raw]*descriptor)}
}

func (t *fdTable) get(raw fd.Raw) (*descriptor, bool) {
	e, ok := t.descriptors[raw]
	return e, ok
}

// install sets the lowest free descriptor number that is at least min to d,
// taking a reference on d.
func (t *fdTable) install(d *description, min fd.Raw, cloexec bool) (fd.Raw, error) {
	if min >= maxFDs {
		return 0, linuxerr.EINVAL
	}
	for raw := min; raw < maxFDs; raw++ {
		if _, ok := t.descriptors[raw]; !ok {
			t.descriptors[raw] = &descriptor{desc: d, cloexec: cloexec}
			d.refs++
			return raw, nil
		}
	}
	return 0, linuxerr.EMFILE
}

// remove clears raw and returns what it held. It does not drop the
// reference.
func (t *fdTable) remove(raw fd.Raw) (*descriptor, bool) {
	e, ok := t.descriptors[raw]
	if ok {
		delete(t.descriptors, raw)
	}
	return e, ok
}

// numbers returns the descriptor numbers in use, in ascending order.
func (t *fdTable) numbers() []fd.Raw {
	raws := make([]fd.Raw, 0, len(t.descriptors))
	for raw := range t.descriptors {
		raws = append(raws, raw)
	}
	slices.Sort(raws)
	return raws
}

// get returns the description at a, which is a descriptor argument.
func (k *Kernel) get(a uintptr) (*description, error) {
	if a > uintptr(^fd.Raw(0)) {
		return nil, linuxerr.EBADF
	}
	e, ok := k.fds.get(fd.Raw(a))
	if !ok {
		return nil, linuxerr.EBADF
	}
	return e.desc, nil
}

// hold takes a reference on d for the duration of a call that may block.
// The caller must drop it with unref.
func (k *Kernel) hold(d *description) *description {
	d.refs++
	return d
}

// unref drops a reference on d, releasing the object with the last one.
func (k *Kernel) unref(d *description) {
	d.refs--
	if d.refs == 0 {
		d.impl.release(k)
		k.cond.Broadcast()
	}
}

// installNew installs a new description for impl. If that fails, impl is
// released.
func (k *Kernel) installNew(impl object, flags linux.OpenFlags, cloexec bool) (uint64, error) {
	d := &description{flags: flags, impl: impl}
	raw, err := k.fds.install(d, 0, cloexec)
	if err != nil {
		impl.release(k)
		return 0, err
	}
	return uint64(raw), nil
}

// closeFD removes raw from the table and from every epoll interest list.
func (k *Kernel) closeFD(raw fd.Raw) error {
	e, ok := k.fds.remove(raw)
	if !ok {
		return linuxerr.EBADF
	}
	for _, other := range k.fds.descriptors {
		if ep, ok := other.desc.impl.(*epoll); ok {
			ep.forget(raw, e.desc)
		}
	}
	k.unref(e.desc)
	k.cond.Broadcast()
	return nil
}

func (k *Kernel) close(a args) (uint64, error) {
	if a[0] > uintptr(^fd.Raw(0)) {
		return 0, linuxerr.EBADF
	}
	if err := k.closeFD(fd.Raw(a[0])); err != nil {
		return 0, err
	}
	k.closes++
	return 0, nil
}
