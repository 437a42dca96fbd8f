package ldrro

// loadCRR acknowledges a CRR (CRO repository, the signed bundle listing
// which CROs a title is allowed to load) without doing anything: signature
// verification against the CRR's contents is out of scope (spec.md
// Non-goals), so this handler reads the request's arguments without
// checking them and reports success.
func (s *Service) loadCRR(messagePointer uint32) error {
	_ = s.mem.Read32(messagePointer + 4)  // crr_ptr, unused: no verification performed
	_ = s.mem.Read32(messagePointer + 8)  // size, unused
	_ = s.mem.Read32(messagePointer + 20) // process handle, unused

	s.mem.Write32(messagePointer, responseHeader(0x2, 1, 0))
	s.mem.Write32(messagePointer+4, resultSuccess)
	return nil
}
