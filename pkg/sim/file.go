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
	"os"
	"path"

	"github.com/spf13/afero"
	"github.com/spf13/afero/mem"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
)

// memfdNameMax is the longest name memfd_create(2) accepts.
const memfdNameMax = 249

// openFile is a file, directory or memfd open in the simulated filesystem.
type openFile struct {
	f   afero.File
	ino uint64
	dir bool
}

func (o *openFile) release(*Kernel) {
	o.f.Close()
}

func (o *openFile) stat(k *Kernel) (linux.Stat, error) {
	fi, err := o.f.Stat()
	if err != nil {
		return linux.Stat{}, err
	}
	return fillStat(fi, o.ino), nil
}

func (o *openFile) read(d *description, bufs [][]byte) (int, error) {
	if d.flags.AccessMode() == linux.O_WRONLY {
		return 0, linuxerr.EBADF
	}
	if o.dir {
		return 0, linuxerr.EISDIR
	}
	total := 0
	for _, b := range bufs {
		n, err := o.f.Read(b)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, err
		}
		if n < len(b) {
			break
		}
	}
	return total, nil
}

func (o *openFile) write(d *description, bufs [][]byte) (int, error) {
	if d.flags.AccessMode() == linux.O_RDONLY {
		return 0, linuxerr.EBADF
	}
	if d.flags&linux.O_APPEND != 0 {
		if _, err := o.f.Seek(0, io.SeekEnd); err != nil {
			return 0, err
		}
	}
	return o.f.Write(gather(bufs))
}

// fileMode converts a Go file mode to a Linux one.
func fileMode(m os.FileMode) linux.FileMode {
	mode := linux.FileMode(m.Perm())
	switch {
	case m.IsDir():
		mode |= linux.ModeDirectory
	case m&os.ModeSymlink != 0:
		mode |= linux.ModeSymlink
	case m&os.ModeNamedPipe != 0:
		mode |= linux.ModeNamedPipe
	case m&os.ModeSocket != 0:
		mode |= linux.ModeSocket
	case m&os.ModeCharDevice != 0:
		mode |= linux.ModeCharacterDevice
	case m&os.ModeDevice != 0:
		mode |= linux.ModeBlockDevice
	default:
		mode |= linux.ModeRegular
	}
	if m&os.ModeSetuid != 0 {
		mode |= linux.ModeSetUID
	}
	if m&os.ModeSetgid != 0 {
		mode |= linux.ModeSetGID
	}
	if m&os.ModeSticky != 0 {
		mode |= linux.ModeSticky
	}
	return mode
}

// goMode converts the permission and extra bits of a Linux mode to a Go one.
func goMode(m linux.FileMode) os.FileMode {
	mode := os.FileMode(m.Permissions())
	if m&linux.ModeSetUID != 0 {
		mode |= os.ModeSetuid
	}
	if m&linux.ModeSetGID != 0 {
		mode |= os.ModeSetgid
	}
	if m&linux.ModeSticky != 0 {
		mode |= os.ModeSticky
	}
	return mode
}

func fillStat(fi os.FileInfo, ino uint64) linux.Stat {
	mtime := linux.TimeToTimespec(fi.ModTime())
	size := fi.Size()
	return linux.Stat{
		Dev:     Device,
		Ino:     ino,
		Nlink:   1,
		Mode:    uint32(fileMode(fi.Mode())),
		Size:    size,
		Blksize: linux.PageSize,
		Blocks:  (size + 511) / 512,
		ATime:   mtime,
		MTime:   mtime,
		CTime:   mtime,
	}
}

func readAll(f afero.File) []byte {
	b, _ := io.ReadAll(f)
	return b
}

func (k *Kernel) open(a args) (uint64, error) {
	name, err := stringAt(a[0])
	if err != nil {
		return 0, err
	}
	flags := linux.OpenFlags(a[1])
	mode := linux.FileMode(a[2])
	if name == "" {
		return 0, linuxerr.ENOENT
	}
	name = path.Clean(name)
	if _, ok := k.bound[name]; ok {
		return 0, linuxerr.ENXIO
	}
	fi, statErr := k.fs.Stat(name)
	exists := statErr == nil
	switch {
	case exists && flags&(linux.O_CREAT|linux.O_EXCL) == linux.O_CREAT|linux.O_EXCL:
		return 0, linuxerr.EEXIST
	case !exists && flags&linux.O_CREAT == 0:
		return 0, statErr
	case exists && fi.IsDir() && flags.AccessMode() != linux.O_RDONLY:
		return 0, linuxerr.EISDIR
	case exists && !fi.IsDir() && flags&linux.O_DIRECTORY != 0:
		return 0, linuxerr.ENOTDIR
	case !exists:
		// The filesystem would create missing parents; the kernel does not.
		parent, err := k.fs.Stat(path.Dir(name))
		if err != nil {
			return 0, err
		}
		if !parent.IsDir() {
			return 0, linuxerr.ENOTDIR
		}
	}
	goFlags := int(flags & (linux.O_ACCMODE | linux.O_CREAT | linux.O_TRUNC | linux.O_APPEND))
	f, err := k.fs.OpenFile(name, goFlags, goMode(mode))
	if err != nil {
		return 0, err
	}
	o := &openFile{f: f, ino: k.inode(name), dir: exists && fi.IsDir()}
	status := flags&^(linux.O_CREAT|linux.O_EXCL|linux.O_NOCTTY|linux.O_TRUNC|linux.O_CLOEXEC) | linux.O_LARGEFILE
	return k.installNew(o, status, flags&linux.O_CLOEXEC != 0)
}

func (k *Kernel) lookup(a uintptr, follow bool) (linux.Stat, error) {
	name, err := stringAt(a)
	if err != nil {
		return linux.Stat{}, err
	}
	if name == "" {
		return linux.Stat{}, linuxerr.ENOENT
	}
	name = path.Clean(name)
	if s, ok := k.bound[name]; ok {
		return s.stat(k)
	}
	var fi os.FileInfo
	if l, ok := k.fs.(afero.Lstater); ok && !follow {
		fi, _, err = l.LstatIfPossible(name)
	} else {
		fi, err = k.fs.Stat(name)
	}
	if err != nil {
		return linux.Stat{}, err
	}
	return fillStat(fi, k.inode(name)), nil
}

func (k *Kernel) statCommon(a args, follow bool) (uint64, error) {
	st, err := k.lookup(a[0], follow)
	if err != nil {
		return 0, err
	}
	out, err := valueAt[linux.Stat](a[1])
	if err != nil {
		return 0, err
	}
	*out = st
	return 0, nil
}

func (k *Kernel) stat(a args) (uint64, error) {
	return k.statCommon(a, true)
}

func (k *Kernel) lstat(a args) (uint64, error) {
	return k.statCommon(a, false)
}

func (k *Kernel) fstat(a args) (uint64, error) {
	d, err := k.get(a[0])
	if err != nil {
		return 0, err
	}
	st, err := d.impl.stat(k)
	if err != nil {
		return 0, err
	}
	out, err := valueAt[linux.Stat](a[1])
	if err != nil {
		return 0, err
	}
	*out = st
	return 0, nil
}

func (k *Kernel) unlink(a args) (uint64, error) {
	name, err := stringAt(a[0])
	if err != nil {
		return 0, err
	}
	name = path.Clean(name)
	if s, ok := k.bound[name]; ok {
		delete(k.bound, name)
		s.path = ""
		return 0, nil
	}
	fi, err := k.fs.Stat(name)
	if err != nil {
		return 0, err
	}
	if fi.IsDir() {
		return 0, linuxerr.EISDIR
	}
	if err := k.fs.Remove(name); err != nil {
		return 0, err
	}
	delete(k.inodes, name)
	return 0, nil
}

func (k *Kernel) memfdCreate(a args) (uint64, error) {
	name, err := stringAt(a[0])
	if err != nil {
		return 0, err
	}
	if len(name) > memfdNameMax {
		return 0, linuxerr.EINVAL
	}
	flags := linux.MemfdFlags(a[1])
	if err := linux.MemfdFlagSet.Check(flags); err != nil {
		return 0, err
	}
	data := mem.CreateFile("memfd:" + name)
	mem.SetMode(data, 0777)
	o := &openFile{f: mem.NewFileHandle(data), ino: k.newIno()}
	return k.installNew(o, linux.O_RDWR|linux.O_LARGEFILE, flags&linux.MFD_CLOEXEC != 0)
}

func (k *Kernel) ftruncate(a args) (uint64, error) {
	d, err := k.get(a[0])
	if err != nil {
		return 0, err
	}
	length := int64(a[1])
	o, ok := d.impl.(*openFile)
	if !ok || o.dir || length < 0 || d.flags.AccessMode() == linux.O_RDONLY {
		return 0, linuxerr.EINVAL
	}
	return 0, o.f.Truncate(length)
}

// readDesc reads from d into bufs.
func (k *Kernel) readDesc(d *description, bufs [][]byte) (int, error) {
	switch o := d.impl.(type) {
	case *openFile:
		return o.read(d, bufs)
	case *socket:
		n, _, _, err := k.recv(d, o, bufs, nil, 0)
		return n, err
	default:
		return 0, linuxerr.EINVAL
	}
}

// writeDesc writes bufs to d.
func (k *Kernel) writeDesc(d *description, bufs [][]byte) (int, error) {
	switch o := d.impl.(type) {
	case *openFile:
		return o.write(d, bufs)
	case *socket:
		return k.send(o, bufs, nil)
	default:
		return 0, linuxerr.EINVAL
	}
}

func (k *Kernel) read(a args) (uint64, error) {
	d, err := k.get(a[0])
	if err != nil {
		return 0, err
	}
	buf, err := bytesAt(a[1], uint64(a[2]))
	if err != nil {
		return 0, err
	}
	defer k.unref(k.hold(d))
	n, err := k.readDesc(d, [][]byte{buf})
	return uint64(n), err
}

func (k *Kernel) write(a args) (uint64, error) {
	d, err := k.get(a[0])
	if err != nil {
		return 0, err
	}
	buf, err := bytesAt(a[1], uint64(a[2]))
	if err != nil {
		return 0, err
	}
	n, err := k.writeDesc(d, [][]byte{buf})
	return uint64(n), err
}

func (k *Kernel) readv(a args) (uint64, error) {
	d, err := k.get(a[0])
	if err != nil {
		return 0, err
	}
	bufs, err := iovecsAt(a[1], uint64(a[2]))
	if err != nil {
		return 0, err
	}
	defer k.unref(k.hold(d))
	n, err := k.readDesc(d, bufs)
	return uint64(n), err
}

func (k *Kernel) writev(a args) (uint64, error) {
	d, err := k.get(a[0])
	if err != nil {
		return 0, err
	}
	bufs, err := iovecsAt(a[1], uint64(a[2]))
	if err != nil {
		return 0, err
	}
	n, err := k.writeDesc(d, bufs)
	return uint64(n), err
}
