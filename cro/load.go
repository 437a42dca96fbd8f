package cro

// Load verifies the module's magic and that it has not already been
// registered into a live-module list (next/prev both zero). It performs
// no other validation; size and alignment checks belong to the LDR-RO
// service front-end (spec.md §4.H), not the module view itself.
func (m *Module) Load() error {
	magic := m.mem.ReadString(m.origin+offID, 4)
	if magic != "CRO0" {
		return faultBadMagic(magic)
	}
	if m.NextCRO() != 0 || m.PrevCRO() != 0 {
		return faultAlreadyLoaded()
	}
	return nil
}
