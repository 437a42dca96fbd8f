package cro

import "github.com/golang/glog"

// Rebase rewrites every offset this module's header stores relative to
// its own start into an absolute virtual address, rewrites the segment
// table (CROs only), and patches internal relocations. loadedCRS is the root module's
// origin (0 if this module is itself the CRS being initialized); it is
// only consulted for exit-symbol relocation, which Rebase performs for
// CROs but not for the CRS itself (spec.md §4.G).
func (m *Module) Rebase(loadedCRS, mapVaddr, dataVaddr, bssVaddr uint32) error {
	m.rebaseHeader(mapVaddr)

	var oldDataVaddr uint32
	if m.isCRO {
		var err error
		oldDataVaddr, err = m.rebaseSegmentTable(mapVaddr, dataVaddr, bssVaddr)
		if err != nil {
			return err
		}
	}

	m.rebaseNamedExportTable(mapVaddr)
	m.rebaseImportModuleTable(mapVaddr)
	m.rebaseNamedImportTable(mapVaddr)
	m.rebaseIndexedImportTable(mapVaddr)
	m.rebaseAnonymousImportTable(mapVaddr)

	if err := m.relocateInternalSymbols(oldDataVaddr); err != nil {
		return err
	}

	if m.isCRO {
		if err := m.relocateStaticAnonymousSymbols(); err != nil {
			return err
		}
		if err := m.relocateExitSymbols(loadedCRS); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) rebaseHeader(mapVaddr uint32) {
	for _, off := range headerOffsetFields {
		cur := m.mem.Read32(m.origin + off)
		m.mem.Write32(m.origin+off, cur+mapVaddr)
	}
}

// rebaseSegmentTable rewrites each segment's stored offset per its kind:
// DATA moves to dataVaddr (the pre-rebase offset, added to dataVaddr, is
// handed back as oldDataVaddr for relocateInternalSymbols' DATA-tag
// override quirk), BSS moves to bssVaddr outright, and TEXT/RODATA are
// shifted by mapVaddr like everything else. An id outside this set is a
// fatal structural fault (spec.md §4.F): leaving the offset un-rebased
// and continuing would let later relocation and segment-address lookups
// run against garbage.
func (m *Module) rebaseSegmentTable(mapVaddr, dataVaddr, bssVaddr uint32) (uint32, error) {
	table := m.headerEntry(offSegmentTableOffset)
	var oldDataVaddr uint32

	for i := uint32(0); i < table.size; i++ {
		entry := table.offset + segmentEntryStride*i
		segmentOffset := m.mem.Read32(entry + 0)
		segmentID := m.mem.Read32(entry + 8)

		switch segmentID {
		case segmentDATA:
			oldDataVaddr = segmentOffset + dataVaddr
			segmentOffset = dataVaddr
		case segmentBSS:
			segmentOffset = bssVaddr
		case segmentTEXT, segmentRODATA:
			segmentOffset += mapVaddr
		default:
			return 0, faultUnknownSegmentId(segmentID, i)
		}
		m.mem.Write32(entry+0, segmentOffset)
	}
	return oldDataVaddr, nil
}

func (m *Module) rebaseNamedExportTable(mapVaddr uint32) {
	table := m.headerEntry(offNamedExportTableOffset)
	for i := uint32(0); i < table.size; i++ {
		entry := table.offset + namedExportStride*i
		if nameOffset := m.mem.Read32(entry); nameOffset != 0 {
			m.mem.Write32(entry, nameOffset+mapVaddr)
		}
	}
}

func (m *Module) rebaseImportModuleTable(mapVaddr uint32) {
	table := m.headerEntry(offImportModuleTableOffset)
	for i := uint32(0); i < table.size; i++ {
		entry := table.offset + importModuleStride*i
		for _, fieldOff := range [3]uint32{0, 8, 16} {
			if v := m.mem.Read32(entry + fieldOff); v != 0 {
				m.mem.Write32(entry+fieldOff, v+mapVaddr)
			}
		}
	}
}

func (m *Module) rebaseNamedImportTable(mapVaddr uint32) {
	table := m.headerEntry(offNamedImportTableOffset)
	for i := uint32(0); i < table.size; i++ {
		entry := table.offset + namedImportStride*i
		for _, fieldOff := range [2]uint32{0, 4} {
			if v := m.mem.Read32(entry + fieldOff); v != 0 {
				m.mem.Write32(entry+fieldOff, v+mapVaddr)
			}
		}
	}
}

func (m *Module) rebaseIndexedImportTable(mapVaddr uint32) {
	table := m.headerEntry(offIndexedImportTableOffset)
	for i := uint32(0); i < table.size; i++ {
		entry := table.offset + indexedImportStride*i + 4 // relocation offset field only
		if v := m.mem.Read32(entry); v != 0 {
			m.mem.Write32(entry, v+mapVaddr)
		}
	}
}

func (m *Module) rebaseAnonymousImportTable(mapVaddr uint32) {
	table := m.headerEntry(offAnonymousImportTableOffset)
	for i := uint32(0); i < table.size; i++ {
		entry := table.offset + anonymousImportStride*i + 4 // relocation offset field only
		if v := m.mem.Read32(entry); v != 0 {
			m.mem.Write32(entry, v+mapVaddr)
		}
	}
}

// relocateInternalSymbols applies every entry of the relocation-patch
// table. A DATA-segment target is recomputed from oldDataVaddr plus the
// tag's byte offset rather than through segmentAddr, reproducing the
// quirk documented in spec.md's Open Questions.
func (m *Module) relocateInternalSymbols(oldDataVaddr uint32) error {
	patches := m.headerEntry(offRelocationPatchTableOffset)
	segmentTable := m.headerEntry(offSegmentTableOffset)

	for i := uint32(0); i < patches.size; i++ {
		entry := patches.offset + relocationPatchStride*i
		segmentOffset := m.mem.Read32(entry + 0)
		patchType := m.mem.Read8(entry + 4)
		segmentIndex := m.mem.Read8(entry + 5)
		addend := m.mem.Read32(entry + 8)

		target := m.segmentAddr(segmentOffset)
		entryID := m.mem.Read32(segmentTable.offset + segmentEntryStride*(segmentOffset&0xF) + 8)
		if entryID == segmentDATA {
			target = oldDataVaddr + (segmentOffset >> 4)
		}
		if target == 0 {
			return faultNullRelocationTarget()
		}

		symbolOffset := m.mem.Read32(segmentTable.offset + segmentEntryStride*uint32(segmentIndex) + 0)
		if err := m.patchSymbol(target, patchType, addend, symbolOffset); err != nil {
			return err
		}
	}
	return nil
}

// relocateStaticAnonymousSymbols is intentionally unimplemented: no title
// exercising this spec's scope relies on static-anonymous patches, and
// the upstream service itself never finished this path either. A
// non-empty table must fail loudly rather than silently leave those
// relocations unresolved (spec.md Non-goals).
func (m *Module) relocateStaticAnonymousSymbols() error {
	table := m.headerEntry(offStaticAnonymousSymbolOffset)
	if table.size > 0 {
		return faultStaticAnonymousUnimplemented(table.size)
	}
	return nil
}

// relocateExitSymbols finds "__aeabi_atexit" in this module's named
// import table and patches its batch to point at "nnroAeabiAtexit_" in
// whichever loaded CRO exports it, scanning the auto-link chain rooted
// at loadedCRS.
func (m *Module) relocateExitSymbols(loadedCRS uint32) error {
	if loadedCRS == 0 {
		glog.Warningf("cro: relocateExitSymbols called with no CRS loaded")
		return nil
	}

	importStringSize := m.mem.Read32(m.origin + offImportStringSize)
	table := m.headerEntry(offNamedImportTableOffset)

	for i := uint32(0); i < table.size; i++ {
		entry := table.offset + namedImportStride*i
		nameOffset := m.mem.Read32(entry + 0)
		relocationOffset := m.mem.Read32(entry + 4)
		name := m.mem.ReadString(nameOffset, importStringSize)

		if name != "__aeabi_atexit" {
			continue
		}

		current := loadedCRS
		for current != 0 {
			candidate := New(m.mem, current, true)
			if addr := candidate.namedExportAddr("nnroAeabiAtexit_"); addr != 0 {
				return m.patchBatch(relocationOffset, addr)
			}
			current = candidate.NextCRO()
		}
	}

	glog.Warningf("cro: failed to relocate exit symbols")
	return nil
}
