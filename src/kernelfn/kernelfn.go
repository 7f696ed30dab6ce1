// Package kernelfn evaluates the Gaussian kernel between the arriving sample
// and every retained dictionary sample, then quantizes the results onto the
// engine's fixed-point format. The engine itself treats kernel outputs as an
// external input; this package is that collaborator.
package kernelfn

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/viterin/vek/vek32"

	"normasim/src/fixed"
)

// Gaussian computes exp(-gamma * ||x - d||^2).
type Gaussian struct {
	gamma  float32
	format fixed.Format
}

// NewGaussian builds the evaluator. gamma must be positive.
func NewGaussian(gamma float32, format fixed.Format) Gaussian {
	if gamma <= 0 {
		panic(fmt.Errorf("kernelfn: gamma %v must be positive", gamma))
	}
	return Gaussian{gamma: gamma, format: format}
}

// Eval returns the kernel value between two equal-length vectors.
func (g Gaussian) Eval(x, d []float32) float32 {
	if len(x) != len(d) {
		panic(fmt.Errorf("kernelfn: dimension mismatch %d vs %d", len(x), len(d)))
	}
	diff := vek32.Sub(x, d)
	return math32.Exp(-g.gamma * vek32.Dot(diff, diff))
}

// EvalQuantized returns the kernel value on the fixed-point format.
func (g Gaussian) EvalQuantized(x, d []float32) int64 {
	return g.format.FromFloat32(g.Eval(x, d))
}

// Window mirrors the engine's dictionary slots on the float side: a
// fixed-size shifting window of the last capacity sample vectors, index 0
// oldest, the arriving sample at the highest index. Slots that have not seen
// a sample yet stay nil and evaluate to a zero kernel output.
type Window struct {
	kernel Gaussian
	slots  [][]float32
}

// NewWindow builds an empty window with one slot per dictionary element.
func NewWindow(kernel Gaussian, capacity int) *Window {
	if capacity < 1 {
		panic(fmt.Errorf("kernelfn: window capacity %d < 1", capacity))
	}
	return &Window{kernel: kernel, slots: make([][]float32, capacity)}
}

// Kernel returns the evaluator the window was built with.
func (w *Window) Kernel() Gaussian {
	return w.kernel
}

// Shift ages every slot by one position and places the arriving sample at
// the top, matching the engine's per-cycle weight shift.
func (w *Window) Shift(sample []float32) {
	copy(w.slots, w.slots[1:])
	top := make([]float32, len(sample))
	copy(top, sample)
	w.slots[len(w.slots)-1] = top
}

// Quantized fills out with the quantized kernel evaluations of x against
// every slot. out must have one entry per slot.
func (w *Window) Quantized(x []float32, out []int64) {
	if len(out) != len(w.slots) {
		panic(fmt.Errorf("kernelfn: output vector has %d values, expected %d", len(out), len(w.slots)))
	}
	for i, d := range w.slots {
		if d == nil {
			out[i] = 0
			continue
		}
		out[i] = w.kernel.EvalQuantized(x, d)
	}
}

// Floats fills out with the unquantized kernel evaluations, for the
// reference model.
func (w *Window) Floats(x []float32, out []float32) {
	if len(out) != len(w.slots) {
		panic(fmt.Errorf("kernelfn: output vector has %d values, expected %d", len(out), len(w.slots)))
	}
	for i, d := range w.slots {
		if d == nil {
			out[i] = 0
			continue
		}
		out[i] = w.kernel.Eval(x, d)
	}
}
