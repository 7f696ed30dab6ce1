package pipeline

import "testing"

func TestRegCommitAtTick(t *testing.T) {
	r := NewReg(int64(0))
	r.SetD(7)
	if r.Q() != 0 {
		t.Fatalf("staged value visible before Tick: %d", r.Q())
	}
	r.Tick()
	if r.Q() != 7 {
		t.Fatalf("expected 7 after Tick, got %d", r.Q())
	}
	r.SetD(3)
	r.SetD(5) // last staged value wins, like a settling combinational input
	r.Tick()
	if r.Q() != 5 {
		t.Fatalf("expected 5 after Tick, got %d", r.Q())
	}
	r.Reset()
	if r.Q() != 0 {
		t.Fatalf("reset must restore 0, got %d", r.Q())
	}
}

func TestDelayLatency(t *testing.T) {
	d := NewDelay(3, int64(0))
	inputs := []int64{10, 20, 30, 40, 50}
	var outputs []int64
	for _, in := range inputs {
		d.SetD(in)
		d.Tick()
		outputs = append(outputs, d.Q())
	}
	want := []int64{0, 0, 10, 20, 30}
	for i := range want {
		if outputs[i] != want[i] {
			t.Fatalf("cycle %d: expected %d, got %d", i, want[i], outputs[i])
		}
	}
	if d.QAt(0) != 50 || d.QAt(2) != 30 {
		t.Fatalf("QAt mismatch: head=%d tail=%d", d.QAt(0), d.QAt(2))
	}
}

func TestDelayDepthOnePassthrough(t *testing.T) {
	d := NewDelay(1, int64(-1))
	if d.Q() != -1 {
		t.Fatalf("reset value not visible at tail")
	}
	d.SetD(9)
	d.Tick()
	if d.Q() != 9 {
		t.Fatalf("depth-1 line must expose input after one tick, got %d", d.Q())
	}
}

func TestDelayRejectsZeroDepth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("depth 0 must panic")
		}
	}()
	NewDelay(0, 0)
}
