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
	"gvisor.dev/syslib/pkg/abi"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
)

// Prot is the protection argument of mmap(2) and mprotect(2).
type Prot uint32

// Protections for mmap(2).
const (
	PROT_NONE      Prot = 0
	PROT_READ      Prot = 1 << 0
	PROT_WRITE     Prot = 1 << 1
	PROT_EXEC      Prot = 1 << 2
	PROT_GROWSDOWN Prot = 1 << 24
	PROT_GROWSUP   Prot = 1 << 25
)

// ProtSet is the set of valid protection bits.
var ProtSet = abi.NewFlagSet[Prot](linuxerr.EINVAL,
	abi.Flag[Prot]{Flag: PROT_READ, Name: "PROT_READ"},
	abi.Flag[Prot]{Flag: PROT_WRITE, Name: "PROT_WRITE"},
	abi.Flag[Prot]{Flag: PROT_EXEC, Name: "PROT_EXEC"},
	abi.Flag[Prot]{Flag: PROT_GROWSDOWN, Name: "PROT_GROWSDOWN"},
	abi.Flag[Prot]{Flag: PROT_GROWSUP, Name: "PROT_GROWSUP"},
)

func (p Prot) String() string {
	if p == PROT_NONE {
		return "PROT_NONE"
	}
	return ProtSet.Parse(p)
}

// MapFlags is the flags argument of mmap(2).
type MapFlags uint32

// Flags for mmap(2).
const (
	MAP_SHARED          MapFlags = 1 << 0
	MAP_PRIVATE         MapFlags = 1 << 1
	MAP_SHARED_VALIDATE MapFlags = MAP_SHARED | MAP_PRIVATE
	MAP_FIXED           MapFlags = 1 << 4
	MAP_ANONYMOUS       MapFlags = 1 << 5
	MAP_32BIT           MapFlags = 1 << 6
	MAP_GROWSDOWN       MapFlags = 1 << 8
	MAP_DENYWRITE       MapFlags = 1 << 11
	MAP_EXECUTABLE      MapFlags = 1 << 12
	MAP_LOCKED          MapFlags = 1 << 13
	MAP_NORESERVE       MapFlags = 1 << 14
	MAP_POPULATE        MapFlags = 1 << 15
	MAP_NONBLOCK        MapFlags = 1 << 16
	MAP_STACK           MapFlags = 1 << 17
	MAP_HUGETLB         MapFlags = 1 << 18
	MAP_FIXED_NOREPLACE MapFlags = 1 << 20
)

// MapFlagSet is the set of valid mmap(2) flags.
var MapFlagSet = abi.NewFlagSet[MapFlags](linuxerr.EINVAL,
	abi.Flag[MapFlags]{Flag: MAP_SHARED_VALIDATE, Name: "MAP_SHARED_VALIDATE"},
	abi.Flag[MapFlags]{Flag: MAP_SHARED, Name: "MAP_SHARED"},
	abi.Flag[MapFlags]{Flag: MAP_PRIVATE, Name: "MAP_PRIVATE"},
	abi.Flag[MapFlags]{Flag: MAP_FIXED, Name: "MAP_FIXED"},
	abi.Flag[MapFlags]{Flag: MAP_ANONYMOUS, Name: "MAP_ANONYMOUS"},
	abi.Flag[MapFlags]{Flag: MAP_32BIT, Name: "MAP_32BIT"},
	abi.Flag[MapFlags]{Flag: MAP_GROWSDOWN, Name: "MAP_GROWSDOWN"},
	abi.Flag[MapFlags]{Flag: MAP_DENYWRITE, Name: "MAP_DENYWRITE"},
	abi.Flag[MapFlags]{Flag: MAP_EXECUTABLE, Name: "MAP_EXECUTABLE"},
	abi.Flag[MapFlags]{Flag: MAP_LOCKED, Name: "MAP_LOCKED"},
	abi.Flag[MapFlags]{Flag: MAP_NORESERVE, Name: "MAP_NORESERVE"},
	abi.Flag[MapFlags]{Flag: MAP_POPULATE, Name: "MAP_POPULATE"},
	abi.Flag[MapFlags]{Flag: MAP_NONBLOCK, Name: "MAP_NONBLOCK"},
	abi.Flag[MapFlags]{Flag: MAP_STACK, Name: "MAP_STACK"},
	abi.Flag[MapFlags]{Flag: MAP_HUGETLB, Name: "MAP_HUGETLB"},
	abi.Flag[MapFlags]{Flag: MAP_FIXED_NOREPLACE, Name: "MAP_FIXED_NOREPLACE"},
)

func (f MapFlags) String() string {
	return MapFlagSet.Parse(f)
}

// RemapFlags is the flags argument of mremap(2).
type RemapFlags uint32

// Flags for mremap(2).
const (
	MREMAP_MAYMOVE   RemapFlags = 1 << 0
	MREMAP_FIXED     RemapFlags = 1 << 1
	MREMAP_DONTUNMAP RemapFlags = 1 << 2
)

// RemapFlagSet is the set of valid mremap(2) flags.
var RemapFlagSet = abi.NewFlagSet[RemapFlags](linuxerr.EINVAL,
	abi.Flag[RemapFlags]{Flag: MREMAP_MAYMOVE, Name: "MREMAP_MAYMOVE"},
	abi.Flag[RemapFlags]{Flag: MREMAP_FIXED, Name: "MREMAP_FIXED"},
	abi.Flag[RemapFlags]{Flag: MREMAP_DONTUNMAP, Name: "MREMAP_DONTUNMAP"},
)

func (f RemapFlags) String() string {
	return RemapFlagSet.Parse(f)
}

// PageSize is the size of a small page on amd64.
const PageSize = 4096
