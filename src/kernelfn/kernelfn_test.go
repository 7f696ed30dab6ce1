package kernelfn

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"normasim/src/fixed"
)

func TestGaussianIdenticalVectors(t *testing.T) {
	g := NewGaussian(0.5, fixed.MustFormat(16, 8))
	x := []float32{1.5, -2.0, 0.25}

	assert.Equal(t, float32(1), g.Eval(x, x), "zero distance evaluates to one")
	assert.Equal(t, fixed.MustFormat(16, 8).One(), g.EvalQuantized(x, x))
}

func TestGaussianMatchesScalarForm(t *testing.T) {
	g := NewGaussian(0.25, fixed.MustFormat(16, 8))
	x := []float32{1, 2, 3}
	d := []float32{0, 2, 5}

	// ||x-d||^2 = 1 + 0 + 4 = 5
	want := math32.Exp(-0.25 * 5)
	assert.InDelta(t, want, g.Eval(x, d), 1e-6)
}

func TestGaussianQuantizationError(t *testing.T) {
	f := fixed.MustFormat(16, 8)
	g := NewGaussian(1.0, f)
	x := []float32{0.3, -0.7}
	d := []float32{0.1, 0.2}

	got := g.EvalQuantized(x, d)
	exact := float64(g.Eval(x, d))
	assert.InDelta(t, exact, f.Float64(got), 1.0/256, "quantized value within one LSB")
}

func TestGaussianValidation(t *testing.T) {
	f := fixed.MustFormat(16, 8)
	require.Panics(t, func() { NewGaussian(0, f) })
	require.Panics(t, func() { NewGaussian(-1, f) })

	g := NewGaussian(1, f)
	require.Panics(t, func() { g.Eval([]float32{1}, []float32{1, 2}) })
}

func TestWindowShiftAndEmptySlots(t *testing.T) {
	f := fixed.MustFormat(16, 8)
	w := NewWindow(NewGaussian(1, f), 3)

	x := []float32{1, 0}
	out := make([]int64, 3)

	// Empty slots contribute zero.
	w.Quantized(x, out)
	assert.Equal(t, []int64{0, 0, 0}, out)

	w.Shift([]float32{1, 0})
	w.Quantized(x, out)
	assert.Equal(t, []int64{0, 0, f.One()}, out, "arriving sample lands at the top")

	w.Shift([]float32{0, 5})
	w.Quantized(x, out)
	assert.Zero(t, out[0])
	assert.Equal(t, f.One(), out[1], "previous sample aged one position")
	assert.Zero(t, out[2], "distant sample rounds to zero")
}

func TestWindowShiftCopiesSample(t *testing.T) {
	f := fixed.MustFormat(16, 8)
	w := NewWindow(NewGaussian(1, f), 2)

	sample := []float32{1, 1}
	w.Shift(sample)
	sample[0] = 99

	out := make([]float32, 2)
	w.Floats([]float32{1, 1}, out)
	assert.Equal(t, float32(1), out[1], "window must not alias the caller's slice")
}

func TestWindowVectorLengths(t *testing.T) {
	w := NewWindow(NewGaussian(1, fixed.MustFormat(16, 8)), 2)
	require.Panics(t, func() { w.Quantized([]float32{1}, make([]int64, 3)) })
	require.Panics(t, func() { w.Floats([]float32{1}, make([]float32, 1)) })
	require.Panics(t, func() { NewWindow(NewGaussian(1, fixed.MustFormat(16, 8)), 0) })
}
