package ldrro

import "github.com/kurenai-dev/horizoncore/cro"

// initialize handles LDR-RO's Initialize command: it loads and rebases the
// CRS (the root module every later LoadCRONew call links against) and
// records its buffer address for the lifetime of the session.
func (s *Service) initialize(messagePointer uint32) error {
	crsPointer := s.mem.Read32(messagePointer + 4)
	size := s.mem.Read32(messagePointer + 8)
	mapVaddr := s.mem.Read32(messagePointer + 12)
	_ = s.mem.Read32(messagePointer + 20) // process handle, unused by this front-end

	if s.loadedCRS != 0 {
		return faultCrsAlreadyLoaded()
	}
	if size < cro.HeaderSize {
		return faultTooSmall("CRS smaller than header")
	}
	if err := s.checkAligned(size, crsPointer, mapVaddr); err != nil {
		return err
	}

	s.mem.MirrorMapping(mapVaddr, crsPointer, size)

	crs := cro.New(s.mem, crsPointer, false)
	if err := crs.Load(); err != nil {
		return faultFromLinker("CRS load", err)
	}
	if err := crs.Rebase(0, mapVaddr, 0, 0); err != nil {
		return faultFromLinker("CRS rebase", err)
	}

	s.loadedCRS = crsPointer

	s.mem.Write32(messagePointer, responseHeader(0x1, 1, 0))
	s.mem.Write32(messagePointer+4, resultSuccess)
	return nil
}

// checkAligned verifies every page-granularity argument LDR-RO requires to
// be aligned to mem.PageMask(), matching the real service's sanity checks.
func (s *Service) checkAligned(size uint32, addrs ...uint32) error {
	mask := s.mem.PageMask()
	if size&mask != 0 {
		return faultUnaligned("size not page-aligned")
	}
	for _, a := range addrs {
		if a&mask != 0 {
			return faultUnaligned("address not page-aligned")
		}
	}
	return nil
}
