package memory

import "encoding/binary"

const (
	pageSize = 0x1000
	pageMask = pageSize - 1
)

type mirror struct {
	vaddr, paddr, size uint32
}

// Flat is a reference View implementation backed by sparse 4KiB pages, so
// it can represent a 32-bit address space without allocating it up front.
// It is not safe for concurrent use — callers must serialize access the
// same way a real emulator serializes ownership of Memory between linker
// calls (see spec.md §5).
type Flat struct {
	pages   map[uint32]*[pageSize]byte
	mirrors []mirror
}

// NewFlat creates an empty flat address space.
func NewFlat() *Flat {
	return &Flat{pages: make(map[uint32]*[pageSize]byte)}
}

func (f *Flat) page(addr uint32, create bool) *[pageSize]byte {
	key := addr &^ pageMask
	p, ok := f.pages[key]
	if !ok {
		if !create {
			return nil
		}
		p = &[pageSize]byte{}
		f.pages[key] = p
	}
	return p
}

// translate resolves addr through any mirror mapping that covers it.
func (f *Flat) translate(addr uint32) uint32 {
	for _, m := range f.mirrors {
		if addr >= m.vaddr && addr < m.vaddr+m.size {
			return m.paddr + (addr - m.vaddr)
		}
	}
	return addr
}

func (f *Flat) Read8(addr uint32) byte {
	addr = f.translate(addr)
	p := f.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr&pageMask]
}

func (f *Flat) Read16(addr uint32) uint16 {
	return uint16(f.Read8(addr)) | uint16(f.Read8(addr+1))<<8
}

func (f *Flat) Read32(addr uint32) uint32 {
	return uint32(f.Read8(addr)) | uint32(f.Read8(addr+1))<<8 |
		uint32(f.Read8(addr+2))<<16 | uint32(f.Read8(addr+3))<<24
}

func (f *Flat) Write8(addr uint32, v byte) {
	addr = f.translate(addr)
	p := f.page(addr, true)
	p[addr&pageMask] = v
}

func (f *Flat) Write32(addr uint32, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	for i, x := range b {
		f.Write8(addr+uint32(i), x)
	}
}

func (f *Flat) ReadString(addr uint32, maxLen uint32) string {
	buf := make([]byte, 0, 16)
	for i := uint32(0); i < maxLen; i++ {
		c := f.Read8(addr + i)
		if c == 0 {
			break
		}
		buf = append(buf, c)
	}
	return string(buf)
}

func (f *Flat) MirrorMapping(vaddr, paddr, size uint32) {
	f.mirrors = append(f.mirrors, mirror{vaddr: vaddr, paddr: paddr, size: size})
}

// GetReadPointer returns a page-bounded slice starting at addr. Unlike the
// typed accessors it does not follow mirror mappings past the containing
// page, matching the teacher project's raw host-pointer escape hatch: it is
// meant for short bulk scans within a single mapped region.
func (f *Flat) GetReadPointer(addr uint32) []byte {
	addr = f.translate(addr)
	p := f.page(addr, true)
	off := addr & pageMask
	return p[off:]
}

func (f *Flat) PageMask() uint32 {
	return pageMask
}

// LoadBytes copies data into the address space starting at addr, growing
// pages as needed. It is a test/tooling convenience, not part of the View
// contract.
func (f *Flat) LoadBytes(addr uint32, data []byte) {
	for i, b := range data {
		f.Write8(addr+uint32(i), b)
	}
}
