package cro

// Register links this module into one of two singly-linked sub-chains
// rooted at the CRS: the auto-link chain via CRS.next, or the manual-link
// chain via CRS.prev. Each chain's tail is kept in its head's prev field
// (a lone head points at itself), and each member's prev points at the
// member registered before it. When the selected chain is empty the CRS's
// prev field is also set to the new module (spec.md §4.G).
func (m *Module) Register(loadedCRS uint32, autoLink bool) error {
	if loadedCRS == 0 {
		return faultCrsNotLoaded()
	}

	crs := New(m.mem, loadedCRS, false)

	head := crs.PrevCRO()
	if autoLink {
		head = crs.NextCRO()
	}

	if head == 0 {
		m.setPrevCRO(m.origin) // the new head is also the chain's tail
		crs.setPrevCRO(m.origin)
		if autoLink {
			crs.setNextCRO(m.origin)
		} else {
			crs.setPrevCRO(m.origin)
		}
		return nil
	}

	headModule := New(m.mem, head, true)
	tailAddr := headModule.PrevCRO()
	if tailAddr == 0 {
		return faultChainCorrupt("no tail CRO found in chain")
	}
	tailModule := New(m.mem, tailAddr, true)

	m.setPrevCRO(tailModule.Origin())
	tailModule.setNextCRO(m.origin)
	headModule.setPrevCRO(m.origin)
	return nil
}
