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
	"strings"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"

	"gvisor.dev/syslib/pkg/errors/linuxerr"
)

func TestSizes(t *testing.T) {
	for _, tc := range []struct {
		name      string
		got, want uintptr
		size      uintptr
	}{
		{"Stat", unsafe.Sizeof(Stat{}), unsafe.Sizeof(unix.Stat_t{}), SizeOfStat},
		{"SockAddrUnix", unsafe.Sizeof(SockAddrUnix{}), unsafe.Sizeof(unix.RawSockaddrUnix{}), SizeOfSockAddrUnix},
		{"Msghdr", unsafe.Sizeof(Msghdr{}), unsafe.Sizeof(unix.Msghdr{}), SizeOfMsghdr},
		{"Cmsghdr", unsafe.Sizeof(Cmsghdr{}), unsafe.Sizeof(unix.Cmsghdr{}), SizeOfCmsghdr},
		{"Iovec", unsafe.Sizeof(Iovec{}), unsafe.Sizeof(unix.Iovec{}), SizeOfIovec},
		{"EpollEvent", unsafe.Sizeof(EpollEvent{}), unsafe.Sizeof(unix.EpollEvent{}), SizeOfEpollEvent},
	} {
		if tc.got != tc.want || tc.got != tc.size {
			t.Errorf("sizeof(%s) = %d, unix has %d, constant is %d", tc.name, tc.got, tc.want, tc.size)
		}
	}
}

func TestStatLayout(t *testing.T) {
	var s Stat
	var u unix.Stat_t
	for _, tc := range []struct {
		name      string
		got, want uintptr
	}{
		{"Ino", unsafe.Offsetof(s.Ino), unsafe.Offsetof(u.Ino)},
		{"Nlink", unsafe.Offsetof(s.Nlink), unsafe.Offsetof(u.Nlink)},
		{"Mode", unsafe.Offsetof(s.Mode), unsafe.Offsetof(u.Mode)},
		{"UID", unsafe.Offsetof(s.UID), unsafe.Offsetof(u.Uid)},
		{"GID", unsafe.Offsetof(s.GID), unsafe.Offsetof(u.Gid)},
		{"Rdev", unsafe.Offsetof(s.Rdev), unsafe.Offsetof(u.Rdev)},
		{"Size", unsafe.Offsetof(s.Size), unsafe.Offsetof(u.Size)},
		{"Blksize", unsafe.Offsetof(s.Blksize), unsafe.Offsetof(u.Blksize)},
		{"Blocks", unsafe.Offsetof(s.Blocks), unsafe.Offsetof(u.Blocks)},
		{"ATime", unsafe.Offsetof(s.ATime), unsafe.Offsetof(u.Atim)},
		{"MTime", unsafe.Offsetof(s.MTime), unsafe.Offsetof(u.Mtim)},
		{"CTime", unsafe.Offsetof(s.CTime), unsafe.Offsetof(u.Ctim)},
	} {
		if tc.got != tc.want {
			t.Errorf("offsetof(Stat.%s) = %d, want %d", tc.name, tc.got, tc.want)
		}
	}
}

func TestMessageLayout(t *testing.T) {
	var m Msghdr
	var u unix.Msghdr
	if got, want := unsafe.Offsetof(m.Iov), unsafe.Offsetof(u.Iov); got != want {
		t.Errorf("offsetof(Msghdr.Iov) = %d, want %d", got, want)
	}
	if got, want := unsafe.Offsetof(m.Control), unsafe.Offsetof(u.Control); got != want {
		t.Errorf("offsetof(Msghdr.Control) = %d, want %d", got, want)
	}
	if got, want := unsafe.Offsetof(m.Flags), unsafe.Offsetof(u.Flags); got != want {
		t.Errorf("offsetof(Msghdr.Flags) = %d, want %d", got, want)
	}
	var e EpollEvent
	if got := unsafe.Offsetof(e.Data); got != 4 {
		t.Errorf("offsetof(EpollEvent.Data) = %d, want 4", got)
	}
	if got := CmsgSpace(4 * 3); got != uint64(unix.CmsgSpace(4*3)) {
		t.Errorf("CmsgSpace(12) = %d, want %d", got, unix.CmsgSpace(4*3))
	}
	if got := CmsgLen(4); got != uint64(unix.CmsgLen(4)) {
		t.Errorf("CmsgLen(4) = %d, want %d", got, unix.CmsgLen(4))
	}
}

func TestDevice(t *testing.T) {
	for _, tc := range []struct {
		major, minor uint32
		want         Device
	}{
		{0, 0, 0},
		{8, 1, 0x801},
		{1, 0x100, 0x100100},
		{0xfff, 0xff, 0xfffff},
		{0x1000, 0, 0x100000000000},
	} {
		d := MakeDevice(tc.major, tc.minor)
		if d != tc.want {
			t.Errorf("MakeDevice(%#x, %#x) = %#x, want %#x", tc.major, tc.minor, d, tc.want)
		}
	}
	for _, p := range [][2]uint32{
		{0, 0},
		{8, 1},
		{259, 0x100},
		{259, 0x12345},
		{0xfff, 0xfffff},
		{0x12345, 0xabcdef},
		{0xffffffff, 0xffffffff},
	} {
		d := MakeDevice(p[0], p[1])
		if d.Major() != p[0] || d.Minor() != p[1] {
			t.Errorf("MakeDevice(%#x, %#x) decodes to (%#x, %#x)", p[0], p[1], d.Major(), d.Minor())
		}
		if got := uint64(d); got != unix.Mkdev(p[0], p[1]) {
			t.Errorf("MakeDevice(%#x, %#x) = %#x, unix has %#x", p[0], p[1], got, unix.Mkdev(p[0], p[1]))
		}
	}
	if got, want := MakeDevice(8, 17).String(), "8:17"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestIOC(t *testing.T) {
	for _, tc := range []struct {
		dir  IOCDir
		want uint32
	}{
		{IOC_NONE, 0x00084102},
		{IOC_WRITE, 0x40084102},
		{IOC_READ, 0x80084102},
		{IOC_READ | IOC_WRITE, 0xC0084102},
	} {
		cmd := IOC(tc.dir, 0x41, 0x02, 8)
		if cmd != tc.want {
			t.Errorf("IOC(%v, 0x41, 2, 8) = %#x, want %#x", tc.dir, cmd, tc.want)
		}
		if IOCDirOf(cmd) != tc.dir || IOCType(cmd) != 0x41 || IOCNr(cmd) != 2 || IOCSize(cmd) != 8 {
			t.Errorf("decoding %#x = (%v, %#x, %d, %d)", cmd, IOCDirOf(cmd), IOCType(cmd), IOCNr(cmd), IOCSize(cmd))
		}
	}
	if got := IOWR[uint64](0x41, 2); got != 0xC0084102 {
		t.Errorf("IOWR[uint64](0x41, 2) = %#x", got)
	}
	if got := IOR[uint64](0x41, 2); got != 0x80084102 {
		t.Errorf("IOR[uint64](0x41, 2) = %#x", got)
	}
	if got := IOW[uint64](0x41, 2); got != 0x40084102 {
		t.Errorf("IOW[uint64](0x41, 2) = %#x", got)
	}
	if got := IO(0x41, 2); got != 0x00004102 {
		t.Errorf("IO(0x41, 2) = %#x", got)
	}
	// Values well known from uapi headers.
	if got := IOR[uint32]('T', 0x30); got != 0x80045430 {
		t.Errorf("TIOCGPTN = %#x, want 0x80045430", got)
	}
}

func TestParseMode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want FileMode
	}{
		{"--- --- ---", 0},
		{"___ ___ ___", 0},
		{"rwx r-x ---", 0750},
		{"rwx r_x ___", 0750},
		{"rw- --- ---", 0600},
		{"rwxS r-xS r-xT", 07755},
		{"rw-S r-- r--", 04644},
		{"  rwx\tr-x  r-x ", 0755},
	} {
		got, err := ParseMode(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseMode(%q) = %#o, %v, want %#o", tc.in, got, err, tc.want)
		}
	}
	for _, in := range []string{
		"",
		"rwx r-x",
		"rwx r-x --- ---",
		"rwx r-x -w-x",
		"xwr --- ---",
		"rwq --- ---",
		"rwxT --- ---",
		"rwx --- ---S",
		"rwxSS --- ---",
		"rw --- ---",
	} {
		if got, err := ParseMode(in); err == nil {
			t.Errorf("ParseMode(%q) = %#o, want error", in, got)
		}
	}
}

func TestModeSymbolic(t *testing.T) {
	for m := FileMode(0); m <= 07777; m++ {
		s := m.Symbolic()
		got, err := ParseMode(s)
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %#o, %v, want %#o", s, got, err, m)
		}
	}
	if got, want := FileMode(07755).Symbolic(), "rwxS r-xS r-xT"; got != want {
		t.Errorf("Symbolic() = %q, want %q", got, want)
	}
}

func TestFileModeString(t *testing.T) {
	for _, tc := range []struct {
		m    FileMode
		want string
	}{
		{ModeRegular | 0644, "S_IFREG|0o644"},
		{ModeDirectory | ModeSticky | 0777, "S_IFDIR|S_ISVTX|0o777"},
		{0600, "0o600"},
	} {
		if got := tc.m.String(); got != tc.want {
			t.Errorf("%#o.String() = %q, want %q", uint32(tc.m), got, tc.want)
		}
	}
	if got, want := (ModeSocket | 0777).FileTypeLabel(), "socket"; got != want {
		t.Errorf("FileTypeLabel() = %q, want %q", got, want)
	}
}

func TestOpenFlags(t *testing.T) {
	for _, tc := range []struct {
		f    OpenFlags
		want string
	}{
		{O_RDONLY, "O_RDONLY"},
		{O_WRONLY | O_CREAT | O_TRUNC, "O_WRONLY|O_CREAT|O_TRUNC"},
		{O_RDWR | O_CLOEXEC | O_NOATIME, "O_RDWR|O_NOATIME|O_CLOEXEC"},
		{O_ACCMODE, "UNKNOWN(3)"},
		{O_RDONLY | 1<<30, "O_RDONLY|UNKNOWN(0x40000000)"},
	} {
		if got := tc.f.String(); got != tc.want {
			t.Errorf("%#o.String() = %q, want %q", uint32(tc.f), got, tc.want)
		}
	}
	if got := (O_WRONLY | O_APPEND).WithAccessMode(O_RDWR); got != O_RDWR|O_APPEND {
		t.Errorf("WithAccessMode(O_RDWR) = %v", got)
	}
	if _, err := OpenFlagSet.From(O_RDWR | O_CREAT | O_EXCL); err != nil {
		t.Errorf("From(O_RDWR|O_CREAT|O_EXCL) = %v", err)
	}
	if _, err := OpenFlagSet.From(1 << 30); err != linuxerr.EINVAL {
		t.Errorf("From(1<<30) = %v, want EINVAL", err)
	}
	if got := OpenFlags(unix.O_NOATIME | unix.O_CLOEXEC | unix.O_DIRECTORY | unix.O_NOFOLLOW); got != O_NOATIME|O_CLOEXEC|O_DIRECTORY|O_NOFOLLOW {
		t.Errorf("open flags disagree with unix: %v", got)
	}
}

// Every flag family round trips its valid values and rejects foreign bits
// with EINVAL.
func TestFlagFamilies(t *testing.T) {
	check := func(name string, mask uint64, from func(uint64) (uint64, error)) {
		t.Helper()
		for bit := 0; bit < 32; bit++ {
			v := uint64(1) << bit
			got, err := from(v)
			if v&mask == v {
				if err != nil || got != v {
					t.Errorf("%s: From(%#x) = %#x, %v", name, v, got, err)
				}
			} else if err != linuxerr.EINVAL {
				t.Errorf("%s: From(%#x) = %v, want EINVAL", name, v, err)
			}
		}
		if got, err := from(mask); err != nil || got != mask {
			t.Errorf("%s: From(mask %#x) = %#x, %v", name, mask, got, err)
		}
	}
	check("Prot", uint64(ProtSet.Mask()), func(v uint64) (uint64, error) {
		f, err := ProtSet.From(Prot(v))
		return uint64(f), err
	})
	check("MapFlags", uint64(MapFlagSet.Mask()), func(v uint64) (uint64, error) {
		f, err := MapFlagSet.From(MapFlags(v))
		return uint64(f), err
	})
	check("RemapFlags", uint64(RemapFlagSet.Mask()), func(v uint64) (uint64, error) {
		f, err := RemapFlagSet.From(RemapFlags(v))
		return uint64(f), err
	})
	check("MsgFlags", uint64(MsgFlagSet.Mask()), func(v uint64) (uint64, error) {
		f, err := MsgFlagSet.From(MsgFlags(v))
		return uint64(f), err
	})
	check("EpollEvents", uint64(EpollEventSet.Mask()), func(v uint64) (uint64, error) {
		f, err := EpollEventSet.From(EpollEvents(v))
		return uint64(f), err
	})
	check("FDFlags", uint64(FDFlagSet.Mask()), func(v uint64) (uint64, error) {
		f, err := FDFlagSet.From(FDFlags(v))
		return uint64(f), err
	})
	check("MemfdFlags", uint64(MemfdFlagSet.Mask()), func(v uint64) (uint64, error) {
		f, err := MemfdFlagSet.From(MemfdFlags(v))
		return uint64(f), err
	})
	check("SockTypeFlags", uint64(SockTypeFlagSet.Mask()), func(v uint64) (uint64, error) {
		f, err := SockTypeFlagSet.From(SockTypeFlags(v))
		return uint64(f), err
	})
}

func TestKernelValues(t *testing.T) {
	for _, tc := range []struct {
		name      string
		got, want uint64
	}{
		{"PROT_READ", uint64(PROT_READ), unix.PROT_READ},
		{"PROT_WRITE", uint64(PROT_WRITE), unix.PROT_WRITE},
		{"PROT_EXEC", uint64(PROT_EXEC), unix.PROT_EXEC},
		{"MAP_SHARED", uint64(MAP_SHARED), unix.MAP_SHARED},
		{"MAP_PRIVATE", uint64(MAP_PRIVATE), unix.MAP_PRIVATE},
		{"MAP_FIXED", uint64(MAP_FIXED), unix.MAP_FIXED},
		{"MAP_ANONYMOUS", uint64(MAP_ANONYMOUS), unix.MAP_ANONYMOUS},
		{"MAP_NORESERVE", uint64(MAP_NORESERVE), unix.MAP_NORESERVE},
		{"MAP_POPULATE", uint64(MAP_POPULATE), unix.MAP_POPULATE},
		{"MREMAP_MAYMOVE", uint64(MREMAP_MAYMOVE), unix.MREMAP_MAYMOVE},
		{"SOL_SOCKET", uint64(SOL_SOCKET), unix.SOL_SOCKET},
		{"SCM_RIGHTS", uint64(SCM_RIGHTS), unix.SCM_RIGHTS},
		{"SOCK_NONBLOCK", uint64(SOCK_NONBLOCK), unix.SOCK_NONBLOCK},
		{"SOCK_CLOEXEC", uint64(SOCK_CLOEXEC), unix.SOCK_CLOEXEC},
		{"MSG_NOSIGNAL", uint64(MSG_NOSIGNAL), unix.MSG_NOSIGNAL},
		{"MSG_CMSG_CLOEXEC", uint64(MSG_CMSG_CLOEXEC), unix.MSG_CMSG_CLOEXEC},
		{"EPOLLRDHUP", uint64(EPOLLRDHUP), unix.EPOLLRDHUP},
		{"EPOLLET", uint64(EPOLLET), 0x80000000},
		{"EPOLL_CLOEXEC", uint64(EPOLL_CLOEXEC), unix.EPOLL_CLOEXEC},
		{"F_DUPFD_CLOEXEC", uint64(F_DUPFD_CLOEXEC), unix.F_DUPFD_CLOEXEC},
		{"FD_CLOEXEC", uint64(FD_CLOEXEC), unix.FD_CLOEXEC},
		{"MFD_CLOEXEC", uint64(MFD_CLOEXEC), unix.MFD_CLOEXEC},
		{"AF_INET6", uint64(AF_INET6), unix.AF_INET6},
	} {
		if tc.got != tc.want {
			t.Errorf("%s = %#x, want %#x", tc.name, tc.got, tc.want)
		}
	}
}

func TestSockAddrUnix(t *testing.T) {
	a, err := NewSockAddrUnix("/run/syslib.sock")
	if err != nil {
		t.Fatalf("NewSockAddrUnix: %v", err)
	}
	if a.AddressFamily() != AF_UNIX || a.PathString() != "/run/syslib.sock" {
		t.Errorf("got family %v path %q", a.AddressFamily(), a.PathString())
	}
	b := a.Bytes()
	if len(b) != SizeOfSockAddrUnix || b[0] != byte(AF_UNIX) || b[1] != 0 {
		t.Errorf("Bytes() = %v", b[:4])
	}
	if _, err := NewSockAddrUnix(strings.Repeat("x", UnixPathMax-1)); err != nil {
		t.Errorf("NewSockAddrUnix(107 bytes) = %v", err)
	}
	if _, err := NewSockAddrUnix(strings.Repeat("x", UnixPathMax)); err != linuxerr.EINVAL {
		t.Errorf("NewSockAddrUnix(108 bytes) = %v, want EINVAL", err)
	}

	parsed, err := ParseSockAddrUnix(b)
	if err != nil {
		t.Fatalf("ParseSockAddrUnix: %v", err)
	}
	if diff := cmp.Diff(a, parsed); diff != "" {
		t.Errorf("ParseSockAddrUnix mismatch (-want +got):\n%s", diff)
	}
	if _, err := ParseSockAddrUnix([]byte{byte(AF_INET), 0}); err != linuxerr.EAFNOSUPPORT {
		t.Errorf("ParseSockAddrUnix(AF_INET) = %v, want EAFNOSUPPORT", err)
	}
	if _, err := ParseSockAddrUnix([]byte{1}); err != linuxerr.EINVAL {
		t.Errorf("ParseSockAddrUnix(short) = %v, want EINVAL", err)
	}
}

func TestEpollData(t *testing.T) {
	if got := EpollDataFD(42).FD(); got != 42 {
		t.Errorf("FD() = %d", got)
	}
	if got := EpollDataU32(0xdeadbeef).U32(); got != 0xdeadbeef {
		t.Errorf("U32() = %#x", got)
	}
	if got := EpollDataU64(1<<40 | 7).U64(); got != 1<<40|7 {
		t.Errorf("U64() = %#x", got)
	}
	if got := EpollDataPtr(0x7f00deadbeef).Ptr(); got != 0x7f00deadbeef {
		t.Errorf("Ptr() = %#x", got)
	}
	// The payload is untagged: the low half of a 64-bit value reads back as
	// a descriptor.
	if got := EpollDataU64(0x1_0000_0005).FD(); got != 5 {
		t.Errorf("FD() of a U64 payload = %d, want 5", got)
	}
	if got, want := (EPOLLIN | EPOLLOUT | EPOLLET).String(), "EPOLLIN|EPOLLOUT|EPOLLET"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFcntlString(t *testing.T) {
	for _, tc := range []struct {
		f    Fcntl
		want string
	}{
		{FcntlGetFD(), "F_GETFD"},
		{FcntlSetFD(FD_CLOEXEC), "F_SETFD(FD_CLOEXEC)"},
		{FcntlSetFL(O_NONBLOCK), "F_SETFL(O_RDONLY|O_NONBLOCK)"},
		{FcntlDupFD(10), "F_DUPFD(10)"},
		{FcntlDupFDCloexec(3), "F_DUPFD_CLOEXEC(3)"},
	} {
		if got := tc.f.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestValueSets(t *testing.T) {
	if got := SockTypes.Format(SOCK_STREAM); got != "SOCK_STREAM(1)" {
		t.Errorf("Format(SOCK_STREAM) = %q", got)
	}
	if got := SockDomain(99).String(); got != "UNKNOWN(99)" {
		t.Errorf("SockDomain(99) = %q", got)
	}
	if got := SyscallNames.Parse(unix.SYS_MEMFD_CREATE); got != "memfd_create" {
		t.Errorf("SyscallNames[319] = %q", got)
	}
	if got := SyscallNames.Parse(9999); got != "UNKNOWN(9999)" {
		t.Errorf("SyscallNames[9999] = %q", got)
	}
}
