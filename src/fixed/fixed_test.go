package fixed

import "testing"

func TestNewFormatBounds(t *testing.T) {
	if _, err := NewFormat(1, 0); err == nil {
		t.Fatalf("bits=1 must be rejected")
	}
	if _, err := NewFormat(33, 4); err == nil {
		t.Fatalf("bits=33 must be rejected")
	}
	if _, err := NewFormat(16, 16); err == nil {
		t.Fatalf("frac==bits must be rejected")
	}
	if _, err := NewFormat(16, -1); err == nil {
		t.Fatalf("negative frac must be rejected")
	}
	f, err := NewFormat(18, 12)
	if err != nil {
		t.Fatalf("valid format rejected: %v", err)
	}
	if f.Min() != -(1 << 17) || f.Max() != (1<<17)-1 {
		t.Fatalf("range mismatch: min=%d max=%d", f.Min(), f.Max())
	}
}

func TestWrapAroundAdd(t *testing.T) {
	f := MustFormat(8, 4)
	// 7.9375 + 0.0625 wraps to -8.0 in Q4.4
	got := f.Add(f.Max(), 1)
	if got != f.Min() {
		t.Fatalf("expected wrap to %d, got %d", f.Min(), got)
	}
	if !f.Overflows(f.Max() + 1) {
		t.Fatalf("overflow not detected")
	}
	if f.Overflows(f.Max()) || f.Overflows(f.Min()) {
		t.Fatalf("range endpoints flagged as overflow")
	}
}

func TestMulTruncatesTowardNegative(t *testing.T) {
	f := MustFormat(16, 8)
	// -0.5 * 0.25 = -0.125 -> raw -32 exactly
	a := f.FromFloat64(-0.5)
	b := f.FromFloat64(0.25)
	if got := f.Mul(a, b); got != -32 {
		t.Fatalf("expected -32, got %d", got)
	}
	// truncation of a negative product is an arithmetic shift: -0.501953125
	// * 0.25 has low bits dropped toward negative infinity
	a = -129 // -0.50390625
	if got := f.Mul(a, b); got != -33 {
		t.Fatalf("expected arithmetic-shift truncation to -33, got %d", got)
	}
}

func TestSubCheckedSignForcing(t *testing.T) {
	f := MustFormat(8, 4)
	d, ov := f.SubChecked(f.Max(), f.Min())
	if !ov {
		t.Fatalf("max-min must overflow an 8-bit format")
	}
	if d != -1 {
		t.Fatalf("255 must wrap to -1 in 8 bits, got %d", d)
	}
	d, ov = f.SubChecked(16, 8)
	if ov || d != 8 {
		t.Fatalf("benign difference mishandled: d=%d ov=%v", d, ov)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	f := MustFormat(18, 12)
	for _, v := range []float64{0, 1, -1, 0.5, -0.125, 3.14159, -7.75} {
		raw := f.FromFloat64(v)
		back := f.Float64(raw)
		if diff := back - v; diff > 1.0/4096 || diff < -1.0/4096 {
			t.Fatalf("round trip of %v drifted to %v", v, back)
		}
	}
	if f.FromFloat64(1e9) != f.Max() {
		t.Fatalf("positive saturation failed")
	}
	if f.FromFloat64(-1e9) != f.Min() {
		t.Fatalf("negative saturation failed")
	}
}
