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

package linux

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SizeOfStat is the size of a Stat struct in bytes.
const SizeOfStat = 144

// Stat represents struct stat on amd64.
type Stat struct {
	Dev     Device
	Ino     uint64
	Nlink   uint64
	Mode    uint32
	UID     uint32
	GID     uint32
	_       int32
	Rdev    Device
	Size    int64
	Blksize int64
	Blocks  int64
	ATime   Timespec
	MTime   Timespec
	CTime   Timespec
	_       [3]int64
}

// FileMode returns the mode field as a FileMode.
func (s *Stat) FileMode() FileMode {
	return FileMode(s.Mode)
}

// Device is a dev_t: a major and a minor device number packed into one
// 64-bit value.
//
// The packing is the kernel's new_encode_dev layout extended to 64 bits as
// glibc does it:
//
//	bits  0..7   minor, bits 0..7
//	bits  8..19  major, bits 0..11
//	bits 20..43  minor, bits 8..31
//	bits 44..63  major, bits 12..31
type Device uint64

// MakeDevice packs major and minor into a Device.
func MakeDevice(major, minor uint32) Device {
	return Device(unix.Mkdev(major, minor))
}

// Major returns the major device number.
func (d Device) Major() uint32 {
	return unix.Major(uint64(d))
}

// Minor returns the minor device number.
func (d Device) Minor() uint32 {
	return unix.Minor(uint64(d))
}

// String renders d as "major:minor".
func (d Device) String() string {
	return fmt.Sprintf("%d:%d", d.Major(), d.Minor())
}
