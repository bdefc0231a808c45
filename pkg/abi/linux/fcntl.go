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
	"fmt"

	"gvisor.dev/syslib/pkg/abi"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
)

// FcntlCmd is the cmd argument of fcntl(2).
type FcntlCmd uint32

// Commands from linux/fcntl.h.
const (
	F_DUPFD         FcntlCmd = 0
	F_GETFD         FcntlCmd = 1
	F_SETFD         FcntlCmd = 2
	F_GETFL         FcntlCmd = 3
	F_SETFL         FcntlCmd = 4
	F_SETLK         FcntlCmd = 6
	F_SETLKW        FcntlCmd = 7
	F_SETOWN        FcntlCmd = 8
	F_GETOWN        FcntlCmd = 9
	F_DUPFD_CLOEXEC FcntlCmd = 1030
)

var fcntlCmds = abi.ValueSet[FcntlCmd]{
	F_DUPFD:         {Name: "F_DUPFD", Label: "duplicate to the lowest free descriptor not below arg"},
	F_GETFD:         {Name: "F_GETFD", Label: "get descriptor flags"},
	F_SETFD:         {Name: "F_SETFD", Label: "set descriptor flags"},
	F_GETFL:         {Name: "F_GETFL", Label: "get file status flags"},
	F_SETFL:         {Name: "F_SETFL", Label: "set file status flags"},
	F_SETLK:         {Name: "F_SETLK", Label: "acquire a record lock"},
	F_SETLKW:        {Name: "F_SETLKW", Label: "acquire a record lock, waiting"},
	F_SETOWN:        {Name: "F_SETOWN", Label: "set the signal owner"},
	F_GETOWN:        {Name: "F_GETOWN", Label: "get the signal owner"},
	F_DUPFD_CLOEXEC: {Name: "F_DUPFD_CLOEXEC", Label: "duplicate with close-on-exec set"},
}

func (c FcntlCmd) String() string {
	return fcntlCmds.Parse(c)
}

// FDFlags are the descriptor flags read and written by F_GETFD and F_SETFD.
type FDFlags uint32

// Flags for fcntl.
const (
	FD_CLOEXEC FDFlags = 00000001
)

// FDFlagSet is the set of valid descriptor flags.
var FDFlagSet = abi.NewFlagSet[FDFlags](linuxerr.EINVAL,
	abi.Flag[FDFlags]{Flag: FD_CLOEXEC, Name: "FD_CLOEXEC"},
)

func (f FDFlags) String() string {
	return FDFlagSet.Parse(f)
}

// SettableFileStatusFlags are the file status flags F_SETFL may change. All
// other bits of its argument are ignored.
const SettableFileStatusFlags = O_APPEND | O_ASYNC | O_DIRECT | O_NOATIME | O_NONBLOCK

// Fcntl is one fcntl(2) command together with its argument.
type Fcntl struct {
	Cmd FcntlCmd
	Arg uint64
}

// FcntlDupFD duplicates a descriptor onto the lowest free number that is at
// least min. The result is the new descriptor.
func FcntlDupFD(min uint32) Fcntl {
	return Fcntl{Cmd: F_DUPFD, Arg: uint64(min)}
}

// FcntlDupFDCloexec is FcntlDupFD with FD_CLOEXEC set on the new descriptor.
func FcntlDupFDCloexec(min uint32) Fcntl {
	return Fcntl{Cmd: F_DUPFD_CLOEXEC, Arg: uint64(min)}
}

// FcntlGetFD reads the descriptor flags. The result is an FDFlags.
func FcntlGetFD() Fcntl {
	return Fcntl{Cmd: F_GETFD}
}

// FcntlSetFD replaces the descriptor flags.
func FcntlSetFD(flags FDFlags) Fcntl {
	return Fcntl{Cmd: F_SETFD, Arg: uint64(flags)}
}

// FcntlGetFL reads the access mode and file status flags. The result is an
// OpenFlags.
func FcntlGetFL() Fcntl {
	return Fcntl{Cmd: F_GETFL}
}

// FcntlSetFL replaces the settable file status flags.
func FcntlSetFL(flags OpenFlags) Fcntl {
	return Fcntl{Cmd: F_SETFL, Arg: uint64(flags)}
}

// String implements fmt.Stringer.
func (f Fcntl) String() string {
	switch f.Cmd {
	case F_GETFD, F_GETFL:
		return f.Cmd.String()
	case F_SETFD:
		return fmt.Sprintf("%v(%v)", f.Cmd, FDFlags(f.Arg))
	case F_SETFL:
		return fmt.Sprintf("%v(%v)", f.Cmd, OpenFlags(f.Arg))
	default:
		return fmt.Sprintf("%v(%d)", f.Cmd, f.Arg)
	}
}
