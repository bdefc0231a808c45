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
	"strings"

	"gvisor.dev/syslib/pkg/abi"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
)

// OpenFlags is the flags argument of open(2).
//
// The low two bits are not independent flags: together they hold the access
// mode, one of O_RDONLY, O_WRONLY or O_RDWR.
type OpenFlags uint32

// Constants for open(2).
const (
	O_RDONLY    OpenFlags = 000000000
	O_WRONLY    OpenFlags = 000000001
	O_RDWR      OpenFlags = 000000002
	O_CREAT     OpenFlags = 000000100
	O_EXCL      OpenFlags = 000000200
	O_NOCTTY    OpenFlags = 000000400
	O_TRUNC     OpenFlags = 000001000
	O_APPEND    OpenFlags = 000002000
	O_NONBLOCK  OpenFlags = 000004000
	O_DSYNC     OpenFlags = 000010000
	O_ASYNC     OpenFlags = 000020000
	O_DIRECT    OpenFlags = 000040000
	O_LARGEFILE OpenFlags = 000100000
	O_DIRECTORY OpenFlags = 000200000
	O_NOFOLLOW  OpenFlags = 000400000
	O_NOATIME   OpenFlags = 001000000
	O_CLOEXEC   OpenFlags = 002000000
	O_SYNC      OpenFlags = 004010000
	O_PATH      OpenFlags = 010000000
	O_TMPFILE   OpenFlags = 020200000

	// O_ACCMODE masks the access mode sub-field.
	O_ACCMODE OpenFlags = 000000003
)

// AccessMode returns the access mode sub-field of f.
func (f OpenFlags) AccessMode() OpenFlags {
	return f & O_ACCMODE
}

// WithAccessMode returns f with its access mode replaced by mode.
func (f OpenFlags) WithAccessMode(mode OpenFlags) OpenFlags {
	return f&^O_ACCMODE | mode&O_ACCMODE
}

// String implements fmt.Stringer.
func (f OpenFlags) String() string {
	s := accessModes.Parse(f.AccessMode())
	if rest := f &^ O_ACCMODE; rest != 0 {
		s += "|" + OpenFlagSet.Parse(rest)
	}
	return s
}

var accessModes = abi.ValueSet[OpenFlags]{
	O_RDONLY: {Name: "O_RDONLY", Label: "open for reading only"},
	O_WRONLY: {Name: "O_WRONLY", Label: "open for writing only"},
	O_RDWR:   {Name: "O_RDWR", Label: "open for reading and writing"},
}

// OpenFlagSet is the set of valid open(2) flags, including the access mode
// sub-field. Foreign bits are rejected with EINVAL.
var OpenFlagSet = abi.NewFlagSet[OpenFlags](linuxerr.EINVAL,
	// The access mode occupies the mask but is rendered separately.
	abi.Flag[OpenFlags]{Flag: O_ACCMODE, Name: "O_ACCMODE"},
	abi.Flag[OpenFlags]{Flag: O_CREAT, Name: "O_CREAT"},
	abi.Flag[OpenFlags]{Flag: O_EXCL, Name: "O_EXCL"},
	abi.Flag[OpenFlags]{Flag: O_NOCTTY, Name: "O_NOCTTY"},
	abi.Flag[OpenFlags]{Flag: O_TRUNC, Name: "O_TRUNC"},
	abi.Flag[OpenFlags]{Flag: O_APPEND, Name: "O_APPEND"},
	abi.Flag[OpenFlags]{Flag: O_NONBLOCK, Name: "O_NONBLOCK"},
	abi.Flag[OpenFlags]{Flag: O_SYNC, Name: "O_SYNC"},
	abi.Flag[OpenFlags]{Flag: O_DSYNC, Name: "O_DSYNC"},
	abi.Flag[OpenFlags]{Flag: O_ASYNC, Name: "O_ASYNC"},
	abi.Flag[OpenFlags]{Flag: O_DIRECT, Name: "O_DIRECT"},
	abi.Flag[OpenFlags]{Flag: O_LARGEFILE, Name: "O_LARGEFILE"},
	abi.Flag[OpenFlags]{Flag: O_TMPFILE, Name: "O_TMPFILE"},
	abi.Flag[OpenFlags]{Flag: O_DIRECTORY, Name: "O_DIRECTORY"},
	abi.Flag[OpenFlags]{Flag: O_NOFOLLOW, Name: "O_NOFOLLOW"},
	abi.Flag[OpenFlags]{Flag: O_NOATIME, Name: "O_NOATIME"},
	abi.Flag[OpenFlags]{Flag: O_CLOEXEC, Name: "O_CLOEXEC"},
	abi.Flag[OpenFlags]{Flag: O_PATH, Name: "O_PATH"},
)

// MemfdFlags is the flags argument of memfd_create(2).
type MemfdFlags uint32

// Constants for memfd_create(2).
const (
	MFD_CLOEXEC       MemfdFlags = 0x0001
	MFD_ALLOW_SEALING MemfdFlags = 0x0002
	MFD_HUGETLB       MemfdFlags = 0x0004
	MFD_NOEXEC_SEAL   MemfdFlags = 0x0008
	MFD_EXEC          MemfdFlags = 0x0010
)

// MemfdFlagSet is the set of valid memfd_create(2) flags.
var MemfdFlagSet = abi.NewFlagSet[MemfdFlags](linuxerr.EINVAL,
	abi.Flag[MemfdFlags]{Flag: MFD_CLOEXEC, Name: "MFD_CLOEXEC"},
	abi.Flag[MemfdFlags]{Flag: MFD_ALLOW_SEALING, Name: "MFD_ALLOW_SEALING"},
	abi.Flag[MemfdFlags]{Flag: MFD_HUGETLB, Name: "MFD_HUGETLB"},
	abi.Flag[MemfdFlags]{Flag: MFD_NOEXEC_SEAL, Name: "MFD_NOEXEC_SEAL"},
	abi.Flag[MemfdFlags]{Flag: MFD_EXEC, Name: "MFD_EXEC"},
)

func (f MemfdFlags) String() string {
	return MemfdFlagSet.Parse(f)
}

// FileMode represents a mode_t.
type FileMode uint32

// Values for mode_t.
const (
	FileTypeMask        FileMode = 0170000
	ModeSocket          FileMode = 0140000
	ModeSymlink         FileMode = 0120000
	ModeRegular         FileMode = 0100000
	ModeBlockDevice     FileMode = 060000
	ModeDirectory       FileMode = 040000
	ModeCharacterDevice FileMode = 020000
	ModeNamedPipe       FileMode = 010000

	ModeSetUID FileMode = 04000
	ModeSetGID FileMode = 02000
	ModeSticky FileMode = 01000

	ModeUserAll     FileMode = 0700
	ModeUserRead    FileMode = 0400
	ModeUserWrite   FileMode = 0200
	ModeUserExec    FileMode = 0100
	ModeGroupAll    FileMode = 0070
	ModeGroupRead   FileMode = 0040
	ModeGroupWrite  FileMode = 0020
	ModeGroupExec   FileMode = 0010
	ModeOtherAll    FileMode = 0007
	ModeOtherRead   FileMode = 0004
	ModeOtherWrite  FileMode = 0002
	ModeOtherExec   FileMode = 0001
	PermissionsMask FileMode = 0777
)

// Permissions returns just the permission bits.
func (m FileMode) Permissions() FileMode {
	return m & PermissionsMask
}

// FileType returns just the file type bits.
func (m FileMode) FileType() FileMode {
	return m & FileTypeMask
}

// ExtraBits returns everything but the file type and permission bits.
func (m FileMode) ExtraBits() FileMode {
	return m &^ (PermissionsMask | FileTypeMask)
}

// String returns a string representation of m.
func (m FileMode) String() string {
	var s []string
	if ft := m.FileType(); ft != 0 {
		s = append(s, fileType.Parse(ft))
	}
	if eb := m.ExtraBits(); eb != 0 {
		s = append(s, modeExtraBits.Parse(eb))
	}
	s = append(s, fmt.Sprintf("0o%o", uint32(m.Permissions())))
	return strings.Join(s, "|")
}

// Symbolic renders the permission and extra bits of m in the form accepted by
// ParseMode, e.g. "rwxS r-x r-x" for 04755.
func (m FileMode) Symbolic() string {
	var b strings.Builder
	for i, c := range modeClasses {
		if i > 0 {
			b.WriteByte(' ')
		}
		perm := (m >> c.shift) & 07
		for j, ch := range "rwx" {
			if perm&(4>>j) != 0 {
				b.WriteRune(ch)
			} else {
				b.WriteByte('-')
			}
		}
		if m&c.extra != 0 {
			b.WriteByte(c.marker)
		}
	}
	return b.String()
}

var modeExtraBits = abi.NewFlagSet[FileMode](linuxerr.EINVAL,
	abi.Flag[FileMode]{Flag: ModeSetUID, Name: "S_ISUID"},
	abi.Flag[FileMode]{Flag: ModeSetGID, Name: "S_ISGID"},
	abi.Flag[FileMode]{Flag: ModeSticky, Name: "S_ISVTX"},
)

var fileType = abi.ValueSet[FileMode]{
	ModeSocket:          {Name: "S_IFSOCK", Label: "socket"},
	ModeSymlink:         {Name: "S_IFLNK", Label: "symbolic link"},
	ModeRegular:         {Name: "S_IFREG", Label: "regular file"},
	ModeBlockDevice:     {Name: "S_IFBLK", Label: "block device"},
	ModeDirectory:       {Name: "S_IFDIR", Label: "directory"},
	ModeCharacterDevice: {Name: "S_IFCHR", Label: "character device"},
	ModeNamedPipe:       {Name: "S_IFIFO", Label: "FIFO"},
}

// FileTypeLabel returns a human readable name for the file type of m.
func (m FileMode) FileTypeLabel() string {
	return fileType.Label(m.FileType())
}

// modeClasses describes the owner, group and other triplets, in the order
// they are written.
var modeClasses = [3]struct {
	shift  FileMode
	extra  FileMode
	marker byte
}{
	{shift: 6, extra: ModeSetUID, marker: 'S'},
	{shift: 3, extra: ModeSetGID, marker: 'S'},
	{shift: 0, extra: ModeSticky, marker: 'T'},
}

// ParseMode parses a permission literal in roughly the format shown by
// ls -l: three space separated triplets for owner, group and other, e.g.
// "rwx r-x ---" for 0750.
//
// Each triplet is "rwx" with '-' or '_' marking an unset bit. A triplet may
// carry a fourth character: 'S' on the owner or group triplet sets
// set-user-ID or set-group-ID, 'T' on the other triplet sets the sticky bit.
// So "rwxS r-xS r-xT" is 07755.
func ParseMode(s string) (FileMode, error) {
	fields := strings.Fields(s)
	if len(fields) != len(modeClasses) {
		return 0, fmt.Errorf("invalid mode %q: want 3 triplets, got %d", s, len(fields))
	}
	var m FileMode
	for i, f := range fields {
		c := modeClasses[i]
		if len(f) != 3 && len(f) != 4 {
			return 0, fmt.Errorf("invalid mode %q: triplet %q has length %d", s, f, len(f))
		}
		for j := 0; j < 3; j++ {
			switch f[j] {
			case "rwx"[j]:
				m |= FileMode(4>>j) << c.shift
			case '-', '_':
			default:
				return 0, fmt.Errorf("invalid mode %q: unexpected %q at position %d of triplet %q", s, f[j], j, f)
			}
		}
		if len(f) == 4 {
			if f[3] != c.marker {
				return 0, fmt.Errorf("invalid mode %q: unexpected %q at position 3 of triplet %q", s, f[3], f)
			}
			m |= c.extra
		}
	}
	return m, nil
}

// MustParseMode is like ParseMode, but panics on error. It is intended for
// mode literals in variable initializers.
func MustParseMode(s string) FileMode {
	m, err := ParseMode(s)
	if err != nil {
		panic(err)
	}
	return m
}

// AT_FDCWD is the special dirfd meaning the current working directory.
const AT_FDCWD = -100
