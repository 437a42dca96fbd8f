package ldrro

import (
	"github.com/golang/glog"
	"github.com/kurenai-dev/horizoncore/cro"
)

// loadCRONew handles LDR-RO's LoadCRONew command: the one request that
// drives the full Load → Rebase → Link → Register pipeline for a single
// CRO, against whatever CRS was established by a prior Initialize.
func (s *Service) loadCRONew(messagePointer uint32) error {
	if s.loadedCRS == 0 {
		return faultCrsNotLoaded()
	}

	croPointer := s.mem.Read32(messagePointer + 4)
	mapVaddr := s.mem.Read32(messagePointer + 8)
	size := s.mem.Read32(messagePointer + 12)
	dataVaddr := s.mem.Read32(messagePointer + 16)
	bssVaddr := s.mem.Read32(messagePointer + 28)
	autoLink := s.mem.Read32(messagePointer+36) != 0
	fixLevel := s.mem.Read32(messagePointer + 40)
	_ = s.mem.Read32(messagePointer + 24) // data_size, unused by this front-end
	_ = s.mem.Read32(messagePointer + 32) // bss_size, unused by this front-end
	_ = s.mem.Read32(messagePointer + 52) // process handle, unused by this front-end

	if size < cro.HeaderSize {
		return faultTooSmall("CRO smaller than header")
	}
	if err := s.checkAligned(size, croPointer, mapVaddr); err != nil {
		return err
	}

	if fixLevel != 0 {
		glog.Warningf("ldrro: LoadCRONew fix_level=%d requested but fixing is unimplemented", fixLevel)
	}

	s.mem.MirrorMapping(mapVaddr, croPointer, size)

	module := cro.New(s.mem, croPointer, true)
	if err := module.Load(); err != nil {
		return faultFromLinker("CRO load", err)
	}
	if err := module.Rebase(s.loadedCRS, mapVaddr, dataVaddr, bssVaddr); err != nil {
		return faultFromLinker("CRO rebase", err)
	}
	if err := module.Link(s.loadedCRS); err != nil {
		return faultFromLinker("CRO link", err)
	}
	if err := module.Register(s.loadedCRS, autoLink); err != nil {
		return faultFromLinker("CRO register", err)
	}

	s.mem.Write32(messagePointer, responseHeader(0x9, 2, 0))
	s.mem.Write32(messagePointer+4, resultSuccess)
	s.mem.Write32(messagePointer+8, size)
	return nil
}
