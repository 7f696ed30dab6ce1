package norma

import (
	"fmt"

	"normasim/src/fixed"
	"normasim/src/pipeline"
)

// SumRInputs is the per-cycle input surface of the dictionary reduction.
// Kernel and Weights are length-D vectors, index 0 oldest, index D-1 the
// currently arriving sample.
type SumRInputs struct {
	Kernel    []int64
	Weights   []int64
	AddToDict bool
}

// SumROutputs carries the committed reduction results.
type SumROutputs struct {
	// Sum is the adder-tree reduction over the active dictionary elements.
	Sum int64
	// WD and WD1 are the two spare elements sitting just outside the
	// active window, needed for the next step's base term.
	WD  int64
	WD1 int64
}

// SumR reduces the elementwise product of kernel outputs and dictionary
// weights with a balanced pairwise adder tree. The tree's depth is fixed at
// construction; the boundary between spare (not yet reduced) and active
// elements shifts by one position per cycle: toward the tree on admission,
// away from it otherwise, so non-admitted samples age out of the spare window
// without ever entering the reduction.
type SumR struct {
	format       fixed.Format
	dictSize     int
	activeStages int
	schedule     []bool

	// levelRegs[l] is nil for combinational levels and holds that level's
	// output registers when schedule[l] carries a pipeline register.
	levelRegs [][]*pipeline.Reg[int64]

	offset *pipeline.Reg[int]
	sum    *pipeline.Reg[int64]
	wD     *pipeline.Reg[int64]
	wD1    *pipeline.Reg[int64]
}

// NewSumR builds the reduction. The register schedule is derived from the
// geometry via ReductionSchedule; an explicit schedule may be supplied and is
// validated against the derived one. dictionarySize must exceed
// activeStages+2 so the spare window never collides with the tree.
func NewSumR(format fixed.Format, dictionarySize, activeStages int, schedule []bool) *SumR {
	derived, err := ReductionSchedule(dictionarySize, activeStages)
	if err != nil {
		panic(err)
	}
	if schedule != nil {
		if err := ValidateSchedule(schedule, dictionarySize, activeStages); err != nil {
			panic(err)
		}
	}

	levelWidths := make([]int, len(derived))
	n := dictionarySize - 2
	for l := range derived {
		n = (n + 1) / 2
		levelWidths[l] = n
	}

	levelRegs := make([][]*pipeline.Reg[int64], len(derived))
	for l, registered := range derived {
		if !registered {
			continue
		}
		regs := make([]*pipeline.Reg[int64], levelWidths[l])
		for i := range regs {
			regs[i] = pipeline.NewReg[int64](0)
		}
		levelRegs[l] = regs
	}

	return &SumR{
		format:       format,
		dictSize:     dictionarySize,
		activeStages: activeStages,
		schedule:     derived,
		levelRegs:    levelRegs,
		offset:       pipeline.NewReg[int](activeStages),
		sum:          pipeline.NewReg[int64](0),
		wD:           pipeline.NewReg[int64](0),
		wD1:          pipeline.NewReg[int64](0),
	}
}

// Latency returns the cycle count between an input vector and its reduction
// appearing at Sum: one cycle per registered level plus the output register.
func (s *SumR) Latency() int {
	latency := 1
	for _, registered := range s.schedule {
		if registered {
			latency++
		}
	}
	return latency
}

// Offset exposes the committed spare-boundary offset, mainly for tests.
func (s *SumR) Offset() int {
	return s.offset.Q()
}

// Read returns the committed outputs.
func (s *SumR) Read() SumROutputs {
	return SumROutputs{
		Sum: s.sum.Q(),
		WD:  s.wD.Q(),
		WD1: s.wD1.Q(),
	}
}

// Cycle stages one reduction step. The committed boundary offset masks the
// in-flight spare elements out of this cycle's leaf set; the offset itself
// shifts toward the tree on admission and away otherwise.
func (s *SumR) Cycle(in SumRInputs) {
	if len(in.Kernel) != s.dictSize || len(in.Weights) != s.dictSize {
		panic(fmt.Errorf("norma: sumr vectors have %d/%d values, expected %d",
			len(in.Kernel), len(in.Weights), s.dictSize))
	}

	f := s.format
	offset := s.offset.Q()

	// Leaf products. The two highest-index elements are the spares and the
	// offset masks the newest in-flight elements below them.
	leaves := make([]int64, s.dictSize-2)
	for k := range leaves {
		if s.dictSize-2-k <= offset {
			continue
		}
		leaves[k] = f.Mul(in.Kernel[k], in.Weights[k])
	}

	cur := leaves
	for l, registered := range s.schedule {
		next := pairwise(f, cur)
		if registered {
			regs := s.levelRegs[l]
			committed := make([]int64, len(regs))
			for i := range regs {
				committed[i] = regs[i].Q()
				regs[i].SetD(next[i])
			}
			cur = committed
		} else {
			cur = next
		}
	}

	s.sum.SetD(cur[0])
	s.wD.SetD(f.Mul(in.Kernel[s.dictSize-1], in.Weights[s.dictSize-1]))
	s.wD1.SetD(f.Mul(in.Kernel[s.dictSize-2], in.Weights[s.dictSize-2]))

	if in.AddToDict {
		if offset > 0 {
			offset--
		}
	} else if offset < s.activeStages {
		offset++
	}
	s.offset.SetD(offset)
}

// Tick commits the staged state.
func (s *SumR) Tick() {
	for _, regs := range s.levelRegs {
		for _, r := range regs {
			r.Tick()
		}
	}
	s.offset.Tick()
	s.sum.Tick()
	s.wD.Tick()
	s.wD1.Tick()
}

// Reset restores power-on state.
func (s *SumR) Reset() {
	for _, regs := range s.levelRegs {
		for _, r := range regs {
			r.Reset()
		}
	}
	s.offset.Reset()
	s.sum.Reset()
	s.wD.Reset()
	s.wD1.Reset()
}

// pairwise folds adjacent elements, carrying an odd leftover singly.
func pairwise(f fixed.Format, values []int64) []int64 {
	out := make([]int64, (len(values)+1)/2)
	for i := 0; i+1 < len(values); i += 2 {
		out[i/2] = f.Add(values[i], values[i+1])
	}
	if len(values)%2 == 1 {
		out[len(out)-1] = values[len(values)-1]
	}
	return out
}
