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
	"unsafe"

	"github.com/google/btree"

	"gvisor.dev/syslib/pkg/abi/linux"
	"gvisor.dev/syslib/pkg/errors/linuxerr"
)

// mapping is a region returned by mmap(2).
type mapping struct {
	// buf backs the region and keeps it reachable. The region starts at
	// the first page boundary in buf.
	buf    []byte
	addr   uintptr
	length uint64
	prot   linux.Prot

	// file is set for MAP_SHARED mappings of a file, which are written
	// back when unmapped. The mapping holds a reference on it.
	file   *description
	offset int64
}

// end returns the first address past m.
func (m *mapping) end() uintptr {
	return m.addr + uintptr(m.length)
}

// mappingSet holds the live mappings ordered by start address.
type mappingSet struct {
	tree *btree.BTreeG[*mapping]
}

func newMappingSet() mappingSet {
	return mappingSet{tree: btree.NewG(8, func(a, b *mapping) bool { return a.addr < b.addr })}
}

// at returns the mapping starting at addr.
func (s mappingSet) at(addr uintptr) (*mapping, bool) {
	return s.tree.Get(&mapping{addr: addr})
}

// containing returns the mapping that addr falls in.
func (s mappingSet) containing(addr uintptr) (*mapping, bool) {
	var found *mapping
	s.tree.DescendLessOrEqual(&mapping{addr: addr}, func(m *mapping) bool {
		if addr < m.end() {
			found = m
		}
		return false
	})
	return found, found != nil
}

// overlapping returns the mappings that intersect [addr, end), in address
// order.
func (s mappingSet) overlapping(addr, end uintptr) []*mapping {
	var ms []*mapping
	if m, ok := s.containing(addr); ok && m.addr < addr {
		ms = append(ms, m)
	}
	s.tree.AscendRange(&mapping{addr: addr}, &mapping{addr: end}, func(m *mapping) bool {
		ms = append(ms, m)
		return true
	})
	return ms
}

func (s mappingSet) insert(m *mapping) {
	s.tree.ReplaceOrInsert(m)
}

// remove drops the mapping starting at addr. It must be called before the
// mapping's address changes.
func (s mappingSet) remove(m *mapping) {
	s.tree.Delete(m)
}

func (s mappingSet) len() int {
	return s.tree.Len()
}

func (s mappingSet) each(fn func(*mapping)) {
	s.tree.Ascend(func(m *mapping) bool {
		fn(m)
		return true
	})
}

// size returns the bytes mapped by every mapping in s.
func (s mappingSet) size() uint64 {
	var n uint64
	s.each(func(m *mapping) {
		n += m.length
	})
	return n
}

// maxMapped bounds the bytes the mappings of one kernel may hold, in the
// manner of RLIMIT_AS.
const maxMapped = 1 << 32

// reserve fails with ENOMEM unless length more bytes fit under maxMapped.
// length must already be page aligned.
func (k *Kernel) reserve(length uint64) error {
	if length > maxMapped || k.mappings.size() > maxMapped-length {
		return linuxerr.ENOMEM
	}
	return nil
}

func pageRoundUp(n uint64) uint64 {
	return (n + linux.PageSize - 1) &^ (linux.PageSize - 1)
}

func pageAligned(addr uintptr) bool {
	return addr%linux.PageSize == 0
}

// allocate returns zeroed, page-aligned memory of length bytes and the
// slice backing it.
func allocate(length uint64) ([]byte, uintptr) {
	buf := make([]byte, length+linux.PageSize)
	base := uintptr(unsafe.Pointer(&buf[0]))
	addr := uintptr(pageRoundUp(uint64(base)))
	return buf, addr
}

// bytes returns the region of m.
func (m *mapping) bytes() []byte {
	off := m.addr - uintptr(unsafe.Pointer(&m.buf[0]))
	return m.buf[off : off+uintptr(m.length)]
}

// writeBack copies [from, to) of a shared file mapping back to the file,
// without extending it.
func (m *mapping) writeBack(from, to uint64) error {
	if m.file == nil {
		return nil
	}
	o := m.file.impl.(*openFile)
	fi, err := o.f.Stat()
	if err != nil {
		return err
	}
	end := uint64(max(fi.Size()-m.offset, 0))
	to = min(to, end)
	if from >= to {
		return nil
	}
	_, err = o.f.WriteAt(m.bytes()[from:to], m.offset+int64(from))
	return err
}

// unmap removes m entirely.
func (k *Kernel) unmap(m *mapping) error {
	err := m.writeBack(0, m.length)
	k.mappings.remove(m)
	if m.file != nil {
		k.unref(m.file)
	}
	return err
}

func (k *Kernel) mmap(a args) (uint64, error) {
	length := uint64(a[1])
	prot := linux.Prot(a[2])
	flags := linux.MapFlags(a[3])
	offset := int64(a[5])
	if length == 0 || offset%linux.PageSize != 0 || offset < 0 {
		return 0, linuxerr.EINVAL
	}
	if err := linux.ProtSet.Check(prot); err != nil {
		return 0, err
	}
	if err := linux.MapFlagSet.Check(flags); err != nil {
		return 0, err
	}
	shared := flags&linux.MAP_SHARED != 0
	if flags&linux.MAP_SHARED_VALIDATE == 0 {
		return 0, linuxerr.EINVAL
	}
	if flags&(linux.MAP_FIXED|linux.MAP_FIXED_NOREPLACE) != 0 {
		// Placing mappings is not simulated.
		return 0, linuxerr.EINVAL
	}
	if length > maxMapped {
		return 0, linuxerr.ENOMEM
	}
	length = pageRoundUp(length)
	if err := k.reserve(length); err != nil {
		return 0, err
	}
	buf, addr := allocate(length)
	m := &mapping{buf: buf, addr: addr, length: length, prot: prot, offset: offset}
	if flags&linux.MAP_ANONYMOUS == 0 {
		d, err := k.get(a[4])
		if err != nil {
			return 0, err
		}
		o, ok := d.impl.(*openFile)
		if !ok || o.dir {
			return 0, linuxerr.ENODEV
		}
		access := d.flags.AccessMode()
		if access == linux.O_WRONLY || (shared && prot&linux.PROT_WRITE != 0 && access != linux.O_RDWR) {
			return 0, linuxerr.EACCES
		}
		if _, err := o.f.ReadAt(m.bytes(), offset); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		if shared {
			m.file = k.hold(d)
		}
	}
	k.mappings.insert(m)
	return uint64(addr), nil
}

// munmap removes every page in the range. Mappings partly inside it are
// trimmed, and a mapping with the range strictly inside it is split in two.
func (k *Kernel) munmap(a args) (uint64, error) {
	addr, length := a[0], uint64(a[1])
	if !pageAligned(addr) || length == 0 {
		return 0, linuxerr.EINVAL
	}
	end := addr + uintptr(pageRoundUp(length))
	var firstErr error
	for _, m := range k.mappings.overlapping(addr, end) {
		if err := k.unmapRange(m, addr, end); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return 0, firstErr
}

// unmapRange removes [addr, end) from m, which overlaps it.
func (k *Kernel) unmapRange(m *mapping, addr, end uintptr) error {
	from := uint64(max(addr, m.addr) - m.addr)
	to := uint64(min(end, m.end()) - m.addr)
	if from == 0 && to == m.length {
		return k.unmap(m)
	}
	err := m.writeBack(from, to)
	if to < m.length {
		// The part after the hole lives on as its own mapping.
		tail := &mapping{
			buf:    m.buf,
			addr:   m.addr + uintptr(to),
			length: m.length - to,
			prot:   m.prot,
			offset: m.offset + int64(to),
		}
		if m.file != nil {
			tail.file = k.hold(m.file)
		}
		k.mappings.insert(tail)
	}
	if from == 0 {
		// Nothing is left before the hole.
		k.mappings.remove(m)
		if m.file != nil {
			k.unref(m.file)
		}
		return err
	}
	m.length = from
	return err
}

func (k *Kernel) mprotect(a args) (uint64, error) {
	addr := a[0]
	prot := linux.Prot(a[2])
	if !pageAligned(addr) {
		return 0, linuxerr.EINVAL
	}
	if err := linux.ProtSet.Check(prot); err != nil {
		return 0, err
	}
	m, ok := k.mappings.at(addr)
	if !ok {
		return 0, linuxerr.ENOMEM
	}
	m.prot = prot
	return 0, nil
}

func (k *Kernel) mremap(a args) (uint64, error) {
	flags := linux.RemapFlags(a[3])
	if err := linux.RemapFlagSet.Check(flags); err != nil {
		return 0, err
	}
	if uint64(a[1]) > maxMapped || uint64(a[2]) > maxMapped {
		return 0, linuxerr.ENOMEM
	}
	old, oldLen, newLen := a[0], pageRoundUp(uint64(a[1])), pageRoundUp(uint64(a[2]))
	if !pageAligned(old) || newLen == 0 {
		return 0, linuxerr.EINVAL
	}
	if flags&(linux.MREMAP_FIXED|linux.MREMAP_DONTUNMAP) != 0 {
		return 0, linuxerr.EINVAL
	}
	m, ok := k.mappings.at(old)
	if !ok || oldLen != m.length {
		return 0, linuxerr.EFAULT
	}
	if newLen <= m.length {
		err := m.writeBack(newLen, m.length)
		m.length = newLen
		return uint64(old), err
	}
	if flags&linux.MREMAP_MAYMOVE == 0 {
		return 0, linuxerr.ENOMEM
	}
	if err := k.reserve(newLen - m.length); err != nil {
		return 0, err
	}
	buf, addr := allocate(newLen)
	grown := &mapping{buf: buf, addr: addr, length: newLen, prot: m.prot, file: m.file, offset: m.offset}
	copy(grown.bytes(), m.bytes())
	if m.file != nil {
		o := m.file.impl.(*openFile)
		tail := grown.bytes()[m.length:]
		if _, err := o.f.ReadAt(tail, m.offset+int64(m.length)); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
	}
	k.mappings.remove(m)
	k.mappings.insert(grown)
	return uint64(addr), nil
}
