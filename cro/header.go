// Package cro implements the dynamic relocatable-object linker: loading,
// rebasing, relocating, linking and registering CRO/CRS module images that
// live in a Memory view (spec.md §4.F-G).
package cro

import (
	"github.com/kurenai-dev/horizoncore/memory"
)

// Header offsets, in bytes from a module's origin address. Named and
// valued exactly as the loaded module image expects them on disk.
const (
	offID                           = 0x080
	offNameOffset                   = 0x084
	offNextCRO                      = 0x088
	offPrevCRO                      = 0x08C
	offCodeOffset                   = 0x0B0
	offDataOffset                   = 0x0B8
	offModuleNameOffset             = 0x0C0
	offSegmentTableOffset           = 0x0C8
	offNamedExportTableOffset       = 0x0D0
	offIndexedExportTableOffset     = 0x0D8
	offExportStringTableOffset      = 0x0E0
	offExportStringSize             = 0x0E4
	offExportTreeOffset             = 0x0E8
	offImportModuleTableOffset      = 0x0F0
	offImportPatchTableOffset       = 0x0F8
	offNamedImportTableOffset       = 0x100
	offIndexedImportTableOffset     = 0x108
	offAnonymousImportTableOffset   = 0x110
	offImportStringTableOffset      = 0x118
	offImportStringSize             = 0x11C
	offStaticAnonymousSymbolOffset  = 0x120
	offRelocationPatchTableOffset   = 0x128
	offStaticAnonymousPatchOffset   = 0x130
)

// HeaderSize is the fixed size of a CRO/CRS header (spec.md §4.F).
const HeaderSize = 0x138

// headerOffsetFields lists every header field that rebase() shifts by the
// module's load address. The entries of the segment table and of the
// export/import tables are rewritten separately, since they have
// segment- and field-specific rules.
var headerOffsetFields = [...]uint32{
	offNameOffset,
	offCodeOffset,
	offDataOffset,
	offModuleNameOffset,
	offSegmentTableOffset,
	offNamedExportTableOffset,
	offIndexedExportTableOffset,
	offExportStringTableOffset,
	offExportTreeOffset,
	offImportModuleTableOffset,
	offImportPatchTableOffset,
	offNamedImportTableOffset,
	offIndexedImportTableOffset,
	offAnonymousImportTableOffset,
	offImportStringTableOffset,
	offStaticAnonymousSymbolOffset,
	offRelocationPatchTableOffset,
	offStaticAnonymousPatchOffset,
}

// Segment IDs, stored in each segment table entry.
const (
	segmentTEXT = iota
	segmentRODATA
	segmentDATA
	segmentBSS
)

// Relocation patch types.
const (
	relocAbsoluteAddress = 2
)

const (
	segmentEntryStride = 12
	namedExportStride  = 8
	namedImportStride  = 8
	indexedImportStride = 8
	anonymousImportStride = 8
	importModuleStride = 20
	relocationPatchStride = 12
)

// headerEntry is an (offset, size) pair read from a two-word header field.
type headerEntry struct {
	offset uint32
	size   uint32
}

// Module is a view over one CRO or CRS image at a fixed origin address in
// a Memory view. It owns no state of its own beyond that address; all
// mutation happens through mem.
type Module struct {
	mem       memory.View
	origin    uint32
	isCRO     bool // false for the root CRS
}

// New wraps a module image already present at origin. isCRO distinguishes
// a loadable CRO (true) from the root CRS (false), matching the
// distinction the rebase/link rules make throughout this package.
func New(mem memory.View, origin uint32, isCRO bool) *Module {
	return &Module{mem: mem, origin: origin, isCRO: isCRO}
}

// Origin returns the module's base address.
func (m *Module) Origin() uint32 {
	return m.origin
}

func (m *Module) headerEntry(off uint32) headerEntry {
	return headerEntry{
		offset: m.mem.Read32(m.origin + off),
		size:   m.mem.Read32(m.origin + off + 4),
	}
}

// NextCRO returns the forward link of the auto-link sub-chain.
func (m *Module) NextCRO() uint32 { return m.mem.Read32(m.origin + offNextCRO) }

// PrevCRO returns the backward link, shared by both sub-chains (spec.md
// §4.G: the manual-link chain's head is stored in the CRS's prev field,
// and the tail of either chain is tracked in that chain head's prev field).
func (m *Module) PrevCRO() uint32 { return m.mem.Read32(m.origin + offPrevCRO) }

func (m *Module) setNextCRO(v uint32) { m.mem.Write32(m.origin+offNextCRO, v) }
func (m *Module) setPrevCRO(v uint32) { m.mem.Write32(m.origin+offPrevCRO, v) }

// segmentAddr decodes a segment tag (byte_offset<<4 | segment_index) into
// an absolute address by looking up the segment table entry.
func (m *Module) segmentAddr(tag uint32) uint32 {
	segmentIndex := tag & 0xF
	offset := tag >> 4

	table := m.headerEntry(offSegmentTableOffset)
	entryOffset := m.mem.Read32(table.offset + segmentEntryStride*segmentIndex + 0)
	return entryOffset + offset
}

// namedExportAddr looks up a symbol by name in this module's named export
// table, returning 0 if not found. Unlike the real hardware's export
// trie, this is a linear scan, matching the simplification the original
// service itself takes for clarity.
func (m *Module) namedExportAddr(name string) uint32 {
	stringSize := m.mem.Read32(m.origin + offExportStringSize)
	table := m.headerEntry(offNamedExportTableOffset)

	for i := uint32(0); i < table.size; i++ {
		entry := table.offset + namedExportStride*i
		nameOffset := m.mem.Read32(entry + 0)
		exportName := m.mem.ReadString(nameOffset, stringSize)
		if exportName == name {
			tag := m.mem.Read32(entry + 4)
			return m.segmentAddr(tag)
		}
	}
	return 0
}
