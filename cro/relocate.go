package cro

// patchSymbol writes one resolved symbol address into a relocation
// target. AbsoluteAddress is the only patch type this spec implements;
// any other value is a fault rather than a silent no-op, since writing
// the wrong bytes into code or data is worse than stopping.
func (m *Module) patchSymbol(target uint32, patchType uint8, addend, symbolOffset uint32) error {
	switch patchType {
	case relocAbsoluteAddress:
		m.mem.Write32(target, symbolOffset+addend)
		return nil
	default:
		return faultUnknownPatchType(patchType)
	}
}

// patchBatch walks a contiguous run of relocation-patch records starting
// at batchAddr, resolving each record's segment tag against this module's
// own segment table and applying symbolAddr, until it processes a record
// with is_last_entry != 0. The batch's final record is then marked
// resolved.
func (m *Module) patchBatch(batchAddr, symbolAddr uint32) error {
	patch := batchAddr
	for {
		segmentOffset := m.mem.Read32(patch + 0)
		patchType := m.mem.Read8(patch + 4)
		isLast := m.mem.Read8(patch + 5)
		addend := m.mem.Read32(patch + 8)

		target := m.segmentAddr(segmentOffset)
		if target == 0 {
			return faultNullRelocationTarget()
		}
		if err := m.patchSymbol(target, patchType, addend, symbolAddr); err != nil {
			return err
		}

		if isLast != 0 {
			m.mem.Write8(patch+6, 1)
			return nil
		}
		patch += relocationPatchStride
	}
}
