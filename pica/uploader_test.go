package pica

import (
	"math"
	"testing"
)

func TestUploaderCodeStagesUntilCommit(t *testing.T) {
	s := New(Vertex)
	s.SetCodeIndex(0)
	for i := uint32(0); i < 3; i++ {
		s.UploadCodeWord(0x1000 + i)
	}
	if s.codeStaging[0] != 0x1000 || s.codeStaging[2] != 0x1002 {
		t.Fatalf("staging buffer not written as expected: %v", s.codeStaging[:3])
	}
	if s.codeLive[0] != 0 {
		t.Fatalf("live buffer should be untouched before Commit")
	}
	s.Commit()
	if s.codeLive[0] != 0x1000 || s.codeLive[2] != 0x1002 {
		t.Fatalf("live buffer not updated after Commit: %v", s.codeLive[:3])
	}
}

func TestUploaderCodeIndexRejectsUnalignedOffset(t *testing.T) {
	s := New(Vertex)
	s.SetCodeIndex(4) // word index 1
	s.SetCodeIndex(5) // misaligned, should be ignored
	s.UploadCodeWord(0xAAAA)
	if s.codeStaging[1] != 0xAAAA {
		t.Fatalf("expected write to word index 1, got staging=%v", s.codeStaging[:3])
	}
}

func TestUploaderDescriptorWrapsAtCapacity(t *testing.T) {
	s := New(Vertex)
	s.SetDescriptorIndex(opDescriptorCap - 1)
	s.UploadDescriptorWord(1)
	s.UploadDescriptorWord(2)
	if s.opDescriptors[opDescriptorCap-1] != 1 {
		t.Fatalf("expected wraparound write at last slot")
	}
	if s.opDescriptors[0] != 2 {
		t.Fatalf("expected wraparound write to slot 0, got %v", s.opDescriptors[0])
	}
}

func TestUploaderFloatUniformF24Format(t *testing.T) {
	s := New(Vertex)
	// Packed f24 upload for uniform 0 encoding (x, y, z, w) = (0.0, 0.0, 0.0, 1.0):
	// w0[31:8] carries all of w.
	s.SetFloatUniformIndex(0)
	one := FromFloat32(1.0).ToRaw24()
	w0 := one << 8
	w1 := uint32(0)
	w2 := uint32(0)
	if err := s.UploadFloatUniformWord(w0); err != nil {
		t.Fatalf("word0: %v", err)
	}
	if err := s.UploadFloatUniformWord(w1); err != nil {
		t.Fatalf("word1: %v", err)
	}
	if err := s.UploadFloatUniformWord(w2); err != nil {
		t.Fatalf("word2: %v", err)
	}
	got := s.FloatUniform(0)
	if got.W.ToFloat32() != 1.0 {
		t.Errorf("w component: got=%v want=1.0", got.W.ToFloat32())
	}
	if got.X.ToFloat32() != 0 || got.Y.ToFloat32() != 0 || got.Z.ToFloat32() != 0 {
		t.Errorf("expected remaining components zero, got=%+v", got)
	}
}

func TestUploaderFloatUniformF32Format(t *testing.T) {
	s := New(Vertex)
	s.SetFloatUniformIndex(0x80000003) // bit31 set selects f32 format, target index 3
	words := [4]uint32{
		float32Bits(4.0), // arrives first -> W
		float32Bits(3.0), // -> Z
		float32Bits(2.0), // -> Y
		float32Bits(1.0), // arrives last -> X
	}
	for i, w := range words {
		if err := s.UploadFloatUniformWord(w); err != nil {
			t.Fatalf("word%d: %v", i, err)
		}
	}
	got := s.FloatUniform(3)
	if got.X.ToFloat32() != 1.0 || got.Y.ToFloat32() != 2.0 || got.Z.ToFloat32() != 3.0 || got.W.ToFloat32() != 4.0 {
		t.Errorf("unexpected assembled uniform: %+v", got)
	}
}

func TestUploaderFloatUniformRejectsOutOfRangeIndex(t *testing.T) {
	s := New(Vertex)
	s.SetFloatUniformIndex(floatUniformCap) // one past the last valid index
	var err error
	for i := 0; i < 3; i++ {
		err = s.UploadFloatUniformWord(0)
	}
	if err == nil {
		t.Fatalf("expected a fault on out-of-range uniform index")
	}
	sf, ok := err.(*ShaderFault)
	if !ok || sf.Kind != BadUniformIndex {
		t.Fatalf("expected BadUniformIndex fault, got %v", err)
	}
}

func float32Bits(v float32) uint32 {
	return math.Float32bits(v)
}
