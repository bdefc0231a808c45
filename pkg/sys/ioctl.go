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
	"unsafe"

	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/errors/linuxerr"
	"gvisor.dev/syslib/pkg/fd"
)

// Ioctl issues the device request cmd on d with argument arg, which is
// pinned for the duration of the call.
//
// Nothing checks that arg points to what cmd expects. See linux.IOC for
// building cmd.
func (s *Sys) Ioctl(d fd.Descriptor, cmd uint32, arg unsafe.Pointer) (uint64, error) {
	defer runtime.KeepAlive(d)
	var p runtime.Pinner
	defer p.Unpin()
	if arg != nil {
		p.Pin(arg)
	}
	return linuxerr.Uint64FromReturn(s.k.Syscall3(unix.SYS_IOCTL, raw(d), uintptr(cmd), uintptr(arg)))
}
