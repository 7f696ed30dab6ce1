package norma

import (
	"fmt"

	"normasim/src/fixed"
	"normasim/src/pipeline"
)

// CoreInputs is the per-cycle input surface of the update core. Sum, Zp and
// WD arrive from the two reduction pipelines; the control fields arrive from
// Manage already aligned with the sample they describe, except Reset and
// ForceNotAdd which act immediately (a reset is a same-cycle, total
// cancellation, never a graceful drain).
type CoreInputs struct {
	Sum int64
	Zp  int64
	WD  int64

	Forget int64
	EtaPos int64
	EtaNeg int64
	EtaNu  int64
	EtaNu1 int64

	Label int // +1 or -1, classification
	YPos  int64
	YNeg  int64
	// Target is the aligned regression target, used to pick the loss side.
	Target int64

	ForceNotAdd bool
	Reset       bool
}

// CoreDecision is the combinational result of one recurrence step, fed back
// into SumL/SumR within the same cycle. The externally visible outputs are
// the registered copies exposed through Read.
type CoreDecision struct {
	AddToDict bool
	Alpha     int64
	Ft        int64
}

// CoreOutputs carries the registered outputs.
type CoreOutputs struct {
	AddToDict bool
	Ft        int64
	Alpha     int64
	Rho       int64
	B         int64
}

// Core implements the shared NORMA recurrence. There is no persistent mode:
// the reset/force flags select among reset, frozen and active behavior purely
// combinationally each cycle, so the only memory is the registers themselves.
type Core struct {
	format fixed.Format
	kind   Kind

	rho   *pipeline.Reg[int64]
	b     *pipeline.Reg[int64]
	alpha *pipeline.Reg[int64]
	ft    *pipeline.Reg[int64]
	add   *pipeline.Reg[bool]
}

// NewCore builds the update core for the given variant.
func NewCore(format fixed.Format, kind Kind) *Core {
	if _, ok := KindFromString(string(kind)); !ok {
		panic(fmt.Errorf("norma: unknown variant kind %q", string(kind)))
	}
	return &Core{
		format: format,
		kind:   kind,
		rho:    pipeline.NewReg[int64](0),
		b:      pipeline.NewReg[int64](0),
		alpha:  pipeline.NewReg[int64](0),
		ft:     pipeline.NewReg[int64](0),
		add:    pipeline.NewReg[bool](false),
	}
}

// Read returns the committed registers.
func (c *Core) Read() CoreOutputs {
	return CoreOutputs{
		AddToDict: c.add.Q(),
		Ft:        c.ft.Q(),
		Alpha:     c.alpha.Q(),
		Rho:       c.rho.Q(),
		B:         c.b.Q(),
	}
}

// Cycle runs one recurrence step: compute the variant's test quantity from
// the committed margin state, decide admission, stage the advanced registers,
// and return the combinational decision for the reduction pipelines.
func (c *Core) Cycle(in CoreInputs) CoreDecision {
	f := c.format
	rho := c.rho.Q()
	b := c.b.Q()

	// Prediction: dictionary sum plus the not-yet-dictionary contribution.
	// Once the previous cycle admitted, the window element promoted out of
	// SumL stands in for the still-shifting boundary; otherwise the newest
	// spare weight does.
	base := in.WD
	if c.add.Q() {
		base = in.Zp
	}
	ft := f.Add(in.Sum, base)

	var testCond int64
	var overflowed bool
	var alpha int64
	ftOut := ft

	switch c.kind {
	case KindClassification:
		margin := f.Add(ft, b)
		alpha = in.EtaPos
		if in.Label < 0 {
			margin = f.Neg(margin)
			alpha = in.EtaNeg
		}
		testCond, overflowed = f.SubChecked(rho, margin)
	case KindNovelty:
		alpha = in.EtaPos
		testCond, overflowed = f.SubChecked(rho, ft)
		ftOut = f.Sub(ft, rho)
	case KindRegression:
		if in.Target > ft {
			alpha = in.EtaPos
			diff, ov1 := f.SubChecked(in.YPos, ft)
			testCond, overflowed = f.SubChecked(diff, rho)
			overflowed = overflowed || ov1
		} else {
			alpha = in.EtaNeg
			diff, ov1 := f.SubChecked(ft, in.YNeg)
			testCond, overflowed = f.SubChecked(diff, rho)
			overflowed = overflowed || ov1
		}
	}

	// A difference that overflowed into the sign bit compares as definitely
	// negative, never as a spurious admission.
	if overflowed {
		testCond = f.ForceNegative()
	}

	add := testCond > 0
	rhoNext := rho
	bNext := b
	if c.kind == KindRegression {
		// Margin moves opposite to the other variants.
		if add {
			rhoNext = f.Sub(rho, in.EtaNu1)
		} else {
			rhoNext = f.Sub(rho, in.EtaNu)
		}
	} else {
		if add {
			rhoNext = f.Add(rho, in.EtaNu1)
			if c.kind == KindClassification {
				bNext = f.Add(b, alpha)
			}
		} else {
			rhoNext = f.Add(rho, in.EtaNu)
		}
	}

	// Override order: a query-only cycle freezes the just-computed advance;
	// reset wins over the freeze and zeroes the state.
	if in.ForceNotAdd {
		add = false
		rhoNext = rho
		bNext = b
	}
	if in.Reset {
		add = false
		rhoNext = 0
		bNext = 0
		alpha = 0
		ftOut = 0
	}

	c.rho.SetD(rhoNext)
	c.b.SetD(bNext)
	c.alpha.SetD(alpha)
	c.ft.SetD(ftOut)
	c.add.SetD(add)

	return CoreDecision{AddToDict: add, Alpha: alpha, Ft: ftOut}
}

// Tick commits the staged registers.
func (c *Core) Tick() {
	c.rho.Tick()
	c.b.Tick()
	c.alpha.Tick()
	c.ft.Tick()
	c.add.Tick()
}

// Reset restores power-on state.
func (c *Core) Reset() {
	c.rho.Reset()
	c.b.Reset()
	c.alpha.Reset()
	c.ft.Reset()
	c.add.Reset()
}
