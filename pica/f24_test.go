package pica

import "testing"

func TestF24RoundTripCommonValues(t *testing.T) {
	for _, v := range []float32{0, 1, -1, 2, 0.5, 70, -70, 3.14159} {
		got := FromFloat32(v).ToFloat32()
		if got != v {
			t.Errorf("round trip %v: got=%v", v, got)
		}
	}
}

func TestF24ArithmeticWidensAndNarrows(t *testing.T) {
	a := FromFloat32(1.0)
	b := FromFloat32(2.0)
	if got := a.Add(b).ToFloat32(); got != 3.0 {
		t.Errorf("Add: got=%v, want=3", got)
	}
	if got := a.Sub(b).ToFloat32(); got != -1.0 {
		t.Errorf("Sub: got=%v, want=-1", got)
	}
	if got := a.Mul(b).ToFloat32(); got != 2.0 {
		t.Errorf("Mul: got=%v, want=2", got)
	}
	if got := b.Div(a).ToFloat32(); got != 2.0 {
		t.Errorf("Div: got=%v, want=2", got)
	}
}

func TestF24Neg(t *testing.T) {
	if got := FromFloat32(5).Neg().ToFloat32(); got != -5 {
		t.Errorf("Neg: got=%v, want=-5", got)
	}
	if got := FromFloat32(-5).Neg().ToFloat32(); got != 5 {
		t.Errorf("Neg: got=%v, want=5", got)
	}
}

func TestF24NegIsInvolution(t *testing.T) {
	v := FromFloat32(12.5)
	if got := v.Neg().Neg(); got != v {
		t.Errorf("Neg.Neg: got=%v, want=%v", got, v)
	}
}

func TestF24SaturatesExponentOverflow(t *testing.T) {
	huge := FromFloat32(1e30) // f32 exponent far exceeds f24's narrower range
	got := huge.ToFloat32()
	if !isInf32(got) {
		t.Errorf("expected saturation to infinity, got=%v", got)
	}
}

func TestF24ZeroRoundTrip(t *testing.T) {
	if got := FromFloat32(0).ToFloat32(); got != 0 {
		t.Errorf("zero round trip: got=%v", got)
	}
}

func isInf32(v float32) bool {
	return v > 3.0e38 || v < -3.0e38
}
