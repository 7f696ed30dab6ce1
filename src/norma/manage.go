package norma

import (
	"fmt"

	"normasim/src/fixed"
	"normasim/src/pipeline"
)

// ManageInputs is the raw control surface presented alongside each sample.
type ManageInputs struct {
	ForceNotAdd bool
	Reset       bool
	Forget      int64
	Eta         int64
	Nu          int64
	// Label is the classification label bit: true = +1, false = -1.
	Label bool
	// Target and Epsilon drive the regression margins.
	Target  int64
	Epsilon int64
}

// ManageOutputs carries the same signals delayed so they arrive at the
// compute core in lock-step with the sample that caused them, plus the
// derived learning-rate splits.
type ManageOutputs struct {
	ForceNotAdd bool
	Reset       bool
	Forget      int64
	Label       int // +1 or -1

	EtaPos int64 // eta
	EtaNeg int64 // -eta
	EtaNu  int64 // eta*nu
	EtaNu1 int64 // eta*nu - eta

	Target int64
	YPos   int64 // target - epsilon
	YNeg   int64 // target + epsilon
}

// Manage aligns every control and auxiliary signal with the sample it
// describes, given the compute core's fixed latency. Flags and samples are
// delayed by the full stage count; the derived constants are computed from
// signals delayed by stages-1 and registered once more, so they land exactly
// when the delayed label or target does.
type Manage struct {
	format fixed.Format
	stages int

	forceNA *pipeline.Delay[bool]
	reset   *pipeline.Delay[bool]
	forget  *pipeline.Delay[int64]
	label   *pipeline.Delay[bool]
	target  *pipeline.Delay[int64]

	eta     *pipeline.Delay[int64]
	nu      *pipeline.Delay[int64]
	epsilon *pipeline.Delay[int64]

	etaPos *pipeline.Reg[int64]
	etaNeg *pipeline.Reg[int64]
	etaNu  *pipeline.Reg[int64]
	etaNu1 *pipeline.Reg[int64]
	yPos   *pipeline.Reg[int64]
	yNeg   *pipeline.Reg[int64]
}

// NewManage builds the alignment layer. stages must be at least 2: one cycle
// of the budget is consumed by the derived-constant registers.
func NewManage(format fixed.Format, stages int) *Manage {
	if stages < 2 {
		panic(fmt.Errorf("norma: manage stages %d < 2", stages))
	}
	return &Manage{
		format:  format,
		stages:  stages,
		forceNA: pipeline.NewDelay(stages, false),
		reset:   pipeline.NewDelay(stages, false),
		forget:  pipeline.NewDelay[int64](stages, format.One()),
		label:   pipeline.NewDelay(stages, false),
		target:  pipeline.NewDelay[int64](stages, 0),
		eta:     pipeline.NewDelay[int64](stages-1, 0),
		nu:      pipeline.NewDelay[int64](stages-1, 0),
		epsilon: pipeline.NewDelay[int64](stages-1, 0),
		etaPos:  pipeline.NewReg[int64](0),
		etaNeg:  pipeline.NewReg[int64](0),
		etaNu:   pipeline.NewReg[int64](0),
		etaNu1:  pipeline.NewReg[int64](0),
		yPos:    pipeline.NewReg[int64](0),
		yNeg:    pipeline.NewReg[int64](0),
	}
}

// Stages returns the alignment depth.
func (m *Manage) Stages() int {
	return m.stages
}

// Read returns the committed, aligned control signals.
func (m *Manage) Read() ManageOutputs {
	label := -1
	if m.label.Q() {
		label = 1
	}
	return ManageOutputs{
		ForceNotAdd: m.forceNA.Q(),
		Reset:       m.reset.Q(),
		Forget:      m.forget.Q(),
		Label:       label,
		EtaPos:      m.etaPos.Q(),
		EtaNeg:      m.etaNeg.Q(),
		EtaNu:       m.etaNu.Q(),
		EtaNu1:      m.etaNu1.Q(),
		Target:      m.target.Q(),
		YPos:        m.yPos.Q(),
		YNeg:        m.yNeg.Q(),
	}
}

// Cycle stages this cycle's raw inputs into the delay lines and derives the
// learning-rate splits from the stages-1 delayed eta/nu pair.
func (m *Manage) Cycle(in ManageInputs) {
	m.forceNA.SetD(in.ForceNotAdd)
	m.reset.SetD(in.Reset)
	m.forget.SetD(in.Forget)
	m.label.SetD(in.Label)
	m.target.SetD(in.Target)
	m.eta.SetD(in.Eta)
	m.nu.SetD(in.Nu)
	m.epsilon.SetD(in.Epsilon)

	f := m.format
	eta := m.eta.Q()
	nu := m.nu.Q()
	etaNu := f.Mul(eta, nu)
	m.etaPos.SetD(eta)
	m.etaNeg.SetD(f.Neg(eta))
	m.etaNu.SetD(etaNu)
	m.etaNu1.SetD(f.Sub(etaNu, eta))

	// target at depth stages-1, so the margins commit in step with the
	// fully delayed target
	tgt := m.target.QAt(m.stages - 2)
	eps := m.epsilon.Q()
	m.yPos.SetD(f.Sub(tgt, eps))
	m.yNeg.SetD(f.Add(tgt, eps))
}

// Tick commits every delay line and derived register.
func (m *Manage) Tick() {
	m.forceNA.Tick()
	m.reset.Tick()
	m.forget.Tick()
	m.label.Tick()
	m.target.Tick()
	m.eta.Tick()
	m.nu.Tick()
	m.epsilon.Tick()
	m.etaPos.Tick()
	m.etaNeg.Tick()
	m.etaNu.Tick()
	m.etaNu1.Tick()
	m.yPos.Tick()
	m.yNeg.Tick()
}

// Reset restores every line to its power-on value.
func (m *Manage) Reset() {
	m.forceNA.Reset()
	m.reset.Reset()
	m.forget.Reset()
	m.label.Reset()
	m.target.Reset()
	m.eta.Reset()
	m.nu.Reset()
	m.epsilon.Reset()
	m.etaPos.Reset()
	m.etaNeg.Reset()
	m.etaNu.Reset()
	m.etaNu1.Reset()
	m.yPos.Reset()
	m.yNeg.Reset()
}
