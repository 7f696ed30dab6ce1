// Package pipeline provides the clocked storage primitives the engine is
// built from: single registers and fixed-depth delay lines. All state
// advances in two phases per cycle: stage the next value with SetD, then
// commit every register atomically with Tick. Combinational logic only ever
// observes pre-tick values.
package pipeline

import "fmt"

// Reg is a single clocked storage cell with a reset value.
type Reg[T any] struct {
	q     T
	d     T
	reset T
}

// NewReg builds a register whose committed and reset value start at rst.
func NewReg[T any](rst T) *Reg[T] {
	return &Reg[T]{q: rst, d: rst, reset: rst}
}

// Q reads the committed value.
func (r *Reg[T]) Q() T {
	return r.q
}

// SetD stages the value to commit on the next Tick. Calling SetD multiple
// times within one cycle keeps only the last value, matching a combinational
// input that settles before the clock edge.
func (r *Reg[T]) SetD(v T) {
	r.d = v
}

// Tick commits the staged value.
func (r *Reg[T]) Tick() {
	r.q = r.d
}

// Reset restores the reset value to both the committed and staged slots.
func (r *Reg[T]) Reset() {
	r.q = r.reset
	r.d = r.reset
}

// Delay is an N-cycle delay line: the value staged at the head appears at the
// tail N ticks later.
type Delay[T any] struct {
	cells []*Reg[T]
}

// NewDelay builds a delay line of the given depth. Depth must be at least 1.
func NewDelay[T any](depth int, rst T) *Delay[T] {
	if depth < 1 {
		panic(fmt.Errorf("pipeline: delay depth %d < 1", depth))
	}
	cells := make([]*Reg[T], depth)
	for i := range cells {
		cells[i] = NewReg(rst)
	}
	return &Delay[T]{cells: cells}
}

// Depth returns the line's latency in cycles.
func (d *Delay[T]) Depth() int {
	return len(d.cells)
}

// SetD stages the head input for this cycle.
func (d *Delay[T]) SetD(v T) {
	d.cells[0].SetD(v)
}

// Q reads the committed tail value, i.e. the input from Depth() ticks ago.
func (d *Delay[T]) Q() T {
	return d.cells[len(d.cells)-1].Q()
}

// QAt reads the committed value i cells from the head; QAt(0) is the value
// staged one tick ago, QAt(Depth()-1) equals Q().
func (d *Delay[T]) QAt(i int) T {
	return d.cells[i].Q()
}

// Tick shifts the line by one cell.
func (d *Delay[T]) Tick() {
	for i := len(d.cells) - 1; i > 0; i-- {
		d.cells[i].SetD(d.cells[i-1].Q())
		d.cells[i].Tick()
	}
	d.cells[0].Tick()
}

// Reset restores every cell to the reset value.
func (d *Delay[T]) Reset() {
	for _, c := range d.cells {
		c.Reset()
	}
}
