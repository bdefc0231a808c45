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
	"math"
	"slices"
	"time"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
)

// alwaysReported are the events epoll reports whether or not they were
// asked for.
const alwaysReported = linux.EPOLLERR | linux.EPOLLHUP

// pollEntry is one registration with an epoll instance.
type pollEntry struct {
	desc  *description
	event linux.EpollEvent

	// disarmed is set once an EPOLLONESHOT entry has fired, until it is
	// modified.
	disarmed bool
}

// epoll is an epoll instance. Entries are keyed by descriptor number.
type epoll struct {
	ino     uint64
	entries map[fd.Raw]*pollEntry
}

func (ep *epoll) stat(*Kernel) (linux.Stat, error) {
	return linux.Stat{
		Dev:     Device,
		Ino:     ep.ino,
		Nlink:   1,
		Mode:    0600,
		Blksize: linux.PageSize,
	}, nil
}

func (ep *epoll) release(*Kernel) {
	ep.entries = nil
}

// forget drops the entry for raw if it refers to d.
func (ep *epoll) forget(raw fd.Raw, d *description) {
	if e, ok := ep.entries[raw]; ok && e.desc == d {
		delete(ep.entries, raw)
	}
}

// collect fills out with ready events and returns how many it wrote.
func (ep *epoll) collect(out []linux.EpollEvent) int {
	raws := make([]fd.Raw, 0, len(ep.entries))
	for raw := range ep.entries {
		raws = append(raws, raw)
	}
	slices.Sort(raws)
	n := 0
	for _, raw := range raws {
		if n == len(out) {
			break
		}
		e := ep.entries[raw]
		if e.disarmed {
			continue
		}
		s := e.desc.impl.(*socket)
		ready := s.readiness() & (e.event.Events | alwaysReported)
		if ready == 0 {
			continue
		}
		out[n] = linux.EpollEvent{Events: ready, Data: e.event.Data}
		n++
		if e.event.Events&linux.EPOLLONESHOT != 0 {
			e.disarmed = true
		}
	}
	return n
}

func (k *Kernel) epollCreate1(a args) (uint64, error) {
	flags := linux.EpollCreateFlags(a[0])
	if err := linux.EpollCreateFlagSet.Check(flags); err != nil {
		return 0, err
	}
	ep := &epoll{ino: k.newIno(), entries: make(map[fd.Raw]*pollEntry)}
	return k.installNew(ep, linux.O_RDWR, flags&linux.EPOLL_CLOEXEC != 0)
}

// instance returns the epoll instance at a.
func (k *Kernel) instance(a uintptr) (*description, *epoll, error) {
	d, err := k.get(a)
	if err != nil {
		return nil, nil, err
	}
	ep, ok := d.impl.(*epoll)
	if !ok {
		return nil, nil, linuxerr.EINVAL
	}
	return d, ep, nil
}

func (k *Kernel) epollCtl(a args) (uint64, error) {
	_, ep, err := k.instance(a[0])
	if err != nil {
		return 0, err
	}
	target, err := k.get(a[2])
	if err != nil {
		return 0, err
	}
	if _, ok := target.impl.(*socket); !ok {
		// Regular files cannot be polled, and nesting is not simulated.
		return 0, linuxerr.EPERM
	}
	raw := fd.Raw(a[2])
	entry, registered := ep.entries[raw]
	var ev linux.EpollEvent
	op := linux.EpollCtlOp(a[1])
	if op == linux.EPOLL_CTL_ADD || op == linux.EPOLL_CTL_MOD {
		p, err := valueAt[linux.EpollEvent](a[3])
		if err != nil {
			return 0, err
		}
		ev = *p
		if err := linux.EpollEventSet.Check(ev.Events); err != nil {
			return 0, err
		}
	}
	switch op {
	case linux.EPOLL_CTL_ADD:
		if registered {
			return 0, linuxerr.EEXIST
		}
		ep.entries[raw] = &pollEntry{desc: target, event: ev}
	case linux.EPOLL_CTL_MOD:
		if !registered {
			return 0, linuxerr.ENOENT
		}
		entry.event = ev
		entry.disarmed = false
	case linux.EPOLL_CTL_DEL:
		if !registered {
			return 0, linuxerr.ENOENT
		}
		delete(ep.entries, raw)
	default:
		return 0, linuxerr.EINVAL
	}
	k.cond.Broadcast()
	return 0, nil
}

func (k *Kernel) epollWait(a args) (uint64, error) {
	d, ep, err := k.instance(a[0])
	if err != nil {
		return 0, err
	}
	maxEvents := int(int32(a[2]))
	if maxEvents <= 0 || maxEvents > math.MaxInt32/linux.SizeOfEpollEvent {
		return 0, linuxerr.EINVAL
	}
	out, err := sliceAt[linux.EpollEvent](a[1], uint64(maxEvents))
	if err != nil {
		return 0, err
	}
	timeout := int(int32(a[3]))
	defer k.unref(k.hold(d))
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(time.Duration(timeout) * time.Millisecond)
		t := time.AfterFunc(time.Until(deadline), func() {
			k.mu.Lock()
			k.cond.Broadcast()
			k.mu.Unlock()
		})
		defer t.Stop()
	}
	for {
		if n := ep.collect(out); n > 0 || timeout == 0 {
			return uint64(n), nil
		}
		if timeout > 0 && !time.Now().Before(deadline) {
			return 0, nil
		}
		k.cond.Wait()
	}
}
