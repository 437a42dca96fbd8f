package ldrro

import (
	"testing"

	"github.com/kurenai-dev/horizoncore/cro"
	"github.com/kurenai-dev/horizoncore/memory"
)

// Header field offsets, duplicated from the cro package's private layout
// (spec.md §4.F) since this package only depends on cro's exported surface.
const (
	offID = 0x080
)

func writeMagic(mem *memory.Flat, origin uint32) {
	for i, b := range []byte("CRO0") {
		mem.Write8(origin+offID+uint32(i), b)
	}
}

const pageSize = 0x1000

func buildMinimalCRS(mem *memory.Flat, origin uint32) {
	writeMagic(mem, origin)
}

func newRequestBuffer(mem *memory.Flat, addr uint32, words ...uint32) {
	for i, w := range words {
		mem.Write32(addr+uint32(i*4), w)
	}
}

func TestInitializeRejectsUnalignedSize(t *testing.T) {
	mem := memory.NewFlat()
	const crsOrigin = 0x20000
	const bufAddr = 0x10000
	buildMinimalCRS(mem, crsOrigin)

	newRequestBuffer(mem, bufAddr,
		cmdInitialize,
		crsOrigin,
		cro.HeaderSize+1, // not page-aligned
		crsOrigin,
		0,
		0,
	)

	s := New(mem)
	err := s.HandleSyncRequest(bufAddr)
	if err == nil {
		t.Fatal("expected an UnalignedRequest fault")
	}
	if rf, ok := err.(*RequestFault); !ok || rf.Kind != UnalignedRequest {
		t.Fatalf("expected UnalignedRequest, got %v", err)
	}
}

func TestInitializeSucceedsAndRecordsCRS(t *testing.T) {
	mem := memory.NewFlat()
	const crsOrigin = 0x20000
	const bufAddr = 0x10000
	buildMinimalCRS(mem, crsOrigin)

	newRequestBuffer(mem, bufAddr,
		cmdInitialize,
		crsOrigin,
		pageSize,
		crsOrigin, // identity map
		0,
		0,
	)

	s := New(mem)
	if err := s.HandleSyncRequest(bufAddr); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if got, want := mem.Read32(bufAddr), responseHeader(0x1, 1, 0); got != want {
		t.Errorf("response header: got=%#x want=%#x", got, want)
	}
	if got := mem.Read32(bufAddr + 4); got != resultSuccess {
		t.Errorf("result code: got=%#x want=%#x", got, resultSuccess)
	}
	if s.loadedCRS != crsOrigin {
		t.Errorf("loadedCRS: got=%#x want=%#x", s.loadedCRS, crsOrigin)
	}
}

func TestInitializeRejectsSecondCRS(t *testing.T) {
	mem := memory.NewFlat()
	const crsOrigin = 0x20000
	const bufAddr = 0x10000
	buildMinimalCRS(mem, crsOrigin)

	newRequestBuffer(mem, bufAddr, cmdInitialize, crsOrigin, pageSize, crsOrigin, 0, 0)

	s := New(mem)
	if err := s.HandleSyncRequest(bufAddr); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	// The first reply overwrote the buffer; write the request again.
	newRequestBuffer(mem, bufAddr, cmdInitialize, crsOrigin, pageSize, crsOrigin, 0, 0)
	if err := s.HandleSyncRequest(bufAddr); err == nil {
		t.Fatal("expected second Initialize to fault")
	} else if rf, ok := err.(*RequestFault); !ok || rf.Kind != CrsAlreadyLoaded {
		t.Fatalf("expected CrsAlreadyLoaded, got %v", err)
	}
}

func TestLoadCRRAcknowledges(t *testing.T) {
	mem := memory.NewFlat()
	const bufAddr = 0x10000
	newRequestBuffer(mem, bufAddr, cmdLoadCRR, 0x30000, pageSize, 0, 0, 0, 0)

	s := New(mem)
	if err := s.HandleSyncRequest(bufAddr); err != nil {
		t.Fatalf("LoadCRR: %v", err)
	}
	if got, want := mem.Read32(bufAddr), responseHeader(0x2, 1, 0); got != want {
		t.Errorf("response header: got=%#x want=%#x", got, want)
	}
}

func TestLoadCRONewFaultsWithoutInitialize(t *testing.T) {
	mem := memory.NewFlat()
	const bufAddr = 0x10000
	newRequestBuffer(mem, bufAddr, cmdLoadCRONew, 0x40000, 0x40000, pageSize, 0, 0, 0, 0, 0, 0, 0)

	s := New(mem)
	if err := s.HandleSyncRequest(bufAddr); err == nil {
		t.Fatal("expected CrsNotLoaded fault")
	} else if rf, ok := err.(*RequestFault); !ok || rf.Kind != CrsNotLoaded {
		t.Fatalf("expected CrsNotLoaded, got %v", err)
	}
}

func TestLoadCRONewSucceedsAfterInitialize(t *testing.T) {
	mem := memory.NewFlat()
	const crsOrigin = 0x20000
	const croOrigin = 0x40000
	const bufAddr = 0x10000

	buildMinimalCRS(mem, crsOrigin)
	writeMagic(mem, croOrigin)

	s := New(mem)
	newRequestBuffer(mem, bufAddr, cmdInitialize, crsOrigin, pageSize, crsOrigin, 0, 0)
	if err := s.HandleSyncRequest(bufAddr); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// LoadCRONew's word layout: cmd, cro_ptr, map_vaddr, size, data_vaddr,
	// word5(unused gap), data_size, bss_vaddr, bss_size, auto_link,
	// fix_level, words 11-12 (unused gap), process_handle (word 13).
	words := make([]uint32, 14)
	words[0] = cmdLoadCRONew
	words[1] = croOrigin
	words[2] = croOrigin // identity map
	words[3] = pageSize
	words[4] = 0 // data_vaddr
	words[6] = 0 // data_size
	words[7] = 0 // bss_vaddr
	words[8] = 0 // bss_size
	words[9] = 1 // auto_link = true
	words[10] = 0 // fix_level
	words[13] = 0 // process handle
	newRequestBuffer(mem, bufAddr, words...)

	if err := s.HandleSyncRequest(bufAddr); err != nil {
		t.Fatalf("LoadCRONew: %v", err)
	}

	if got, want := mem.Read32(bufAddr), responseHeader(0x9, 2, 0); got != want {
		t.Errorf("response header: got=%#x want=%#x", got, want)
	}
	if got := mem.Read32(bufAddr + 4); got != resultSuccess {
		t.Errorf("result code: got=%#x want=%#x", got, resultSuccess)
	}
	if got := mem.Read32(bufAddr + 8); got != pageSize {
		t.Errorf("echoed size: got=%#x want=%#x", got, pageSize)
	}

	crs := cro.New(mem, crsOrigin, false)
	if got := crs.NextCRO(); got != croOrigin {
		t.Errorf("crs.next after auto-link register: got=%#x want=%#x", got, croOrigin)
	}
}
