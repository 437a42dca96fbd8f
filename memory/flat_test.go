package memory

import "testing"

func TestFlatReadWrite32(t *testing.T) {
	f := NewFlat()
	f.Write32(0x1000, 0xDEADBEEF)
	if got := f.Read32(0x1000); got != 0xDEADBEEF {
		t.Fatalf("Read32: got=0x%08x, want=0xDEADBEEF", got)
	}
	if got := f.Read8(0x1000); got != 0xEF {
		t.Fatalf("Read8 low byte: got=0x%02x, want=0xEF", got)
	}
}

func TestFlatReadWriteAcrossPages(t *testing.T) {
	f := NewFlat()
	addr := uint32(pageSize - 2)
	f.Write32(addr, 0x11223344)
	if got := f.Read32(addr); got != 0x11223344 {
		t.Fatalf("got=0x%08x, want=0x11223344", got)
	}
}

func TestFlatUnmappedReadsZero(t *testing.T) {
	f := NewFlat()
	if got := f.Read32(0x9999000); got != 0 {
		t.Fatalf("unmapped read: got=0x%08x, want=0", got)
	}
}

func TestFlatReadString(t *testing.T) {
	f := NewFlat()
	f.LoadBytes(0x2000, []byte("foo\x00garbage"))
	if got := f.ReadString(0x2000, 16); got != "foo" {
		t.Fatalf("ReadString: got=%q, want=foo", got)
	}
}

func TestFlatReadStringBoundedByMaxLen(t *testing.T) {
	f := NewFlat()
	f.LoadBytes(0x2000, []byte("nonulhere"))
	if got := f.ReadString(0x2000, 4); got != "nonu" {
		t.Fatalf("ReadString bounded: got=%q, want=nonu", got)
	}
}

func TestFlatMirrorMapping(t *testing.T) {
	f := NewFlat()
	f.LoadBytes(0x10000, []byte{0xAA, 0xBB, 0xCC, 0xDD})
	f.MirrorMapping(0x00400000, 0x10000, 0x1000)
	if got := f.Read32(0x00400000); got != 0xDDCCBBAA {
		t.Fatalf("mirrored read: got=0x%08x, want=0xDDCCBBAA", got)
	}
	f.Write8(0x00400000, 0xFF)
	if got := f.Read8(0x10000); got != 0xFF {
		t.Fatalf("write through mirror did not alias backing bytes, got=0x%02x", got)
	}
}

func TestFlatPageMask(t *testing.T) {
	f := NewFlat()
	if f.PageMask() != 0xFFF {
		t.Fatalf("PageMask: got=0x%x, want=0xFFF", f.PageMask())
	}
}
