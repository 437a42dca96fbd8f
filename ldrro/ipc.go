// Package ldrro is the LDR-RO service front-end: it decodes three IPC
// command buffers (Initialize, LoadCRR, LoadCRONew), validates their
// arguments, mirror-maps the caller's buffer, and drives the cro package's
// Load/Rebase/Link/Register pipeline (spec.md §4.H).
package ldrro

import "github.com/kurenai-dev/horizoncore/memory"

// Command ids accepted on the LDR-RO port.
const (
	cmdInitialize  = 0x000100C2
	cmdLoadCRR     = 0x00020082
	cmdLoadCRONew  = 0x000902C2
)

// responseHeader packs (command id, normal param count, translate param
// count) the way every 3DS IPC reply's word 0 does.
func responseHeader(id uint16, normalParams, translateParams uint8) uint32 {
	return uint32(id)<<16 | uint32(normalParams)<<6 | uint32(translateParams)
}

const resultSuccess = 0

// Service holds the one piece of state the LDR-RO port carries across
// requests: the currently-initialized CRS's buffer address (0 if none).
type Service struct {
	mem       memory.View
	loadedCRS uint32
}

// New returns a fresh Service with no CRS loaded.
func New(mem memory.View) *Service {
	return &Service{mem: mem}
}

// Reset clears the loaded CRS, matching a fresh process's LDR-RO session.
func (s *Service) Reset() {
	s.loadedCRS = 0
}

// HandleSyncRequest dispatches the command word at messagePointer to the
// matching handler. Any other command id is a fault: the real service
// panics on it, and this front-end surfaces that as an error instead of
// silently acknowledging a request it does not understand.
func (s *Service) HandleSyncRequest(messagePointer uint32) error {
	switch s.mem.Read32(messagePointer) {
	case cmdInitialize:
		return s.initialize(messagePointer)
	case cmdLoadCRR:
		return s.loadCRR(messagePointer)
	case cmdLoadCRONew:
		return s.loadCRONew(messagePointer)
	default:
		return faultUnknownCommand(s.mem.Read32(messagePointer))
	}
}
