package norma

import (
	"fmt"

	"normasim/src/fixed"
	"normasim/src/pipeline"
)

// SumLInputs is the per-cycle input surface of the forgetting-weighted
// forward sum. Window is the raw sample pipeline spanning stages+2 values,
// index 0 newest, index stages+1 oldest.
type SumLInputs struct {
	Window    []int64
	Alpha     int64
	Forget    int64
	AddToDict bool
}

// SumLOutputs carries the committed results of the previous cycle.
type SumLOutputs struct {
	// Zp and Zp1 are the two oldest values shifted out of the window.
	Zp  int64
	Zp1 int64
	// Sum is the accumulated weighted sum over the in-flight window.
	Sum int64
	// ForgetPowQ and ForgetPowQ1 are the running forgetting-factor powers
	// feeding the dictionary-side scaling.
	ForgetPowQ  int64
	ForgetPowQ1 int64
}

// SumL maintains, for a sliding window of stages not-yet-finalized samples, a
// weighted accumulation that lets a late admission decision retroactively
// include a sample's contribution with the correct forgetting discount.
//
// Per stage k (k = 0 newest):
//
//	stage[0] <= add ? alpha*window[end]   : 0
//	stage[k] <= add ? alpha*window[end-k] + forget*stage[k-1]
//	          : alwaysDecay ? forget*stage[k-1] : stage[k-1]
//
// where window[end-k] is the element leaving stage k's view of the pipe.
type SumL struct {
	format      fixed.Format
	stages      int
	alwaysDecay bool

	stageSums []*pipeline.Reg[int64]
	zp        *pipeline.Reg[int64]
	zp1       *pipeline.Reg[int64]

	powQ      *pipeline.Reg[int64]
	powQ1     *pipeline.Reg[int64]
	powFilled *pipeline.Reg[int]
}

// NewSumL builds the forward-sum pipeline. stages must be at least 1; with
// stages == 1 the forgetting-power sequence for Q degenerates to the
// constant 1. alwaysDecay selects continuous decay of the carried sums even
// on cycles that do not admit.
func NewSumL(format fixed.Format, stages int, alwaysDecay bool) *SumL {
	if stages < 1 {
		panic(fmt.Errorf("norma: suml stages %d < 1", stages))
	}
	sums := make([]*pipeline.Reg[int64], stages)
	for i := range sums {
		sums[i] = pipeline.NewReg[int64](0)
	}
	return &SumL{
		format:      format,
		stages:      stages,
		alwaysDecay: alwaysDecay,
		stageSums:   sums,
		zp:          pipeline.NewReg[int64](0),
		zp1:         pipeline.NewReg[int64](0),
		powQ:        pipeline.NewReg[int64](format.One()),
		powQ1:       pipeline.NewReg[int64](format.One()),
		powFilled:   pipeline.NewReg[int](0),
	}
}

// Read returns the committed outputs.
func (s *SumL) Read() SumLOutputs {
	return SumLOutputs{
		Zp:          s.zp.Q(),
		Zp1:         s.zp1.Q(),
		Sum:         s.stageSums[s.stages-1].Q(),
		ForgetPowQ:  s.powQ.Q(),
		ForgetPowQ1: s.powQ1.Q(),
	}
}

// Cycle stages one step of the recurrence.
func (s *SumL) Cycle(in SumLInputs) {
	if len(in.Window) != s.stages+2 {
		panic(fmt.Errorf("norma: suml window has %d values, expected %d", len(in.Window), s.stages+2))
	}

	f := s.format
	end := s.stages + 1
	s.zp.SetD(in.Window[end])
	s.zp1.SetD(in.Window[end-1])

	for k := s.stages - 1; k >= 1; k-- {
		carried := s.stageSums[k-1].Q()
		if in.AddToDict {
			s.stageSums[k].SetD(f.Add(f.Mul(in.Alpha, in.Window[end-k]), f.Mul(in.Forget, carried)))
		} else if s.alwaysDecay {
			s.stageSums[k].SetD(f.Mul(in.Forget, carried))
		} else {
			s.stageSums[k].SetD(carried)
		}
	}
	if in.AddToDict {
		s.stageSums[0].SetD(f.Mul(in.Alpha, in.Window[end]))
	} else {
		s.stageSums[0].SetD(0)
	}

	// The power registers multiply on exactly the cycles the carried sums
	// decayed, saturating at window length (Q = stages-1 factors for powQ,
	// stages for powQ1) so each equals the product over the cycles its
	// window spans.
	decayed := in.AddToDict || s.alwaysDecay
	filled := s.powFilled.Q()
	powQ := s.powQ.Q()
	powQ1 := s.powQ1.Q()
	if decayed && filled < s.stages {
		if filled < s.stages-1 {
			powQ = f.Mul(in.Forget, powQ)
		}
		powQ1 = f.Mul(in.Forget, powQ1)
		filled++
	}
	s.powQ.SetD(powQ)
	s.powQ1.SetD(powQ1)
	s.powFilled.SetD(filled)
}

// Tick commits the staged state.
func (s *SumL) Tick() {
	for _, r := range s.stageSums {
		r.Tick()
	}
	s.zp.Tick()
	s.zp1.Tick()
	s.powQ.Tick()
	s.powQ1.Tick()
	s.powFilled.Tick()
}

// Reset restores power-on state: sums and shifted-out values to zero, powers
// to one.
func (s *SumL) Reset() {
	for _, r := range s.stageSums {
		r.Reset()
	}
	s.zp.Reset()
	s.zp1.Reset()
	s.powQ.Reset()
	s.powQ1.Reset()
	s.powFilled.Reset()
}
