package cro

import "github.com/golang/glog"

// Link resolves this module's imports against the live-module list rooted
// at loadedCRS: named-symbol imports are matched by linear scan of every
// loaded CRO's named export table, and module imports intentionally fault
// (spec.md Non-goals: module-import linkage is out of scope and must fail
// loudly rather than silently succeed with unresolved symbols).
//
// Per the upstream service, the .data segment's stored offset is
// temporarily swapped to the CRO's own data_offset header field for the
// duration of linking, then restored, when the segment table has an entry
// at index 2 (more than two entries).
func (m *Module) Link(loadedCRS uint32) error {
	if loadedCRS == 0 {
		return faultCrsNotLoaded()
	}

	segmentTable := m.headerEntry(offSegmentTableOffset)
	const dataSegmentIndex = 2

	if segmentTable.size > dataSegmentIndex {
		entry := segmentTable.offset + segmentEntryStride*dataSegmentIndex
		savedDataOffset := m.mem.Read32(entry)
		m.mem.Write32(entry, m.mem.Read32(m.origin+offDataOffset))
		defer m.mem.Write32(entry, savedDataOffset)
	}

	if err := m.importNamedSymbols(loadedCRS); err != nil {
		return err
	}
	return m.importModules(loadedCRS)
}

func (m *Module) importNamedSymbols(loadedCRS uint32) error {
	importStringSize := m.mem.Read32(m.origin + offImportStringSize)
	table := m.headerEntry(offNamedImportTableOffset)

	for i := uint32(0); i < table.size; i++ {
		entry := table.offset + namedImportStride*i
		relocationOffset := m.mem.Read32(entry + 4)

		if m.mem.Read8(relocationOffset+6) != 0 {
			continue // already resolved
		}

		nameOffset := m.mem.Read32(entry + 0)
		name := m.mem.ReadString(nameOffset, importStringSize)

		resolved := false
		current := loadedCRS
		for current != 0 {
			candidate := New(m.mem, current, true)
			if addr := candidate.namedExportAddr(name); addr != 0 {
				if err := m.patchBatch(relocationOffset, addr); err != nil {
					return err
				}
				resolved = true
				break
			}
			current = candidate.NextCRO()
		}

		if !resolved {
			return faultSymbolNotFound(name)
		}
		m.mem.Write8(relocationOffset+6, 1)
	}
	return nil
}

// importModules always faults: resolving symbols against another
// module's indexed/anonymous export tables by module name is explicitly
// out of scope (spec.md Non-goals). A nonzero import-module table means
// the loaded title needs linkage this interpreter doesn't provide, and
// that must surface as an error rather than silently leave relocations
// unresolved.
func (m *Module) importModules(loadedCRS uint32) error {
	table := m.headerEntry(offImportModuleTableOffset)
	if table.size == 0 {
		return nil
	}
	glog.Warningf("cro: module import requested (%d modules) but unsupported", table.size)
	return faultModuleImportUnimplemented()
}
