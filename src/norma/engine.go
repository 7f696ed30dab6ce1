package norma

import (
	"fmt"

	"normasim/src/fixed"
	"normasim/src/pipeline"
)

// Config is the construction-time surface of the engine. Everything here is
// fixed for the instance's lifetime; per-cycle values arrive through Inputs.
type Config struct {
	BitWidth  int
	FracWidth int
	Kind      Kind
	// Stages is the pipeline depth: the Manage alignment depth and the
	// SumR active stage count.
	Stages         int
	DictionarySize int
	// AlwaysDecay selects continuous decay of SumL's carried sums and the
	// dictionary weights, instead of decay only on admission cycles.
	AlwaysDecay bool
	// Schedule optionally pins the SumR register placement; when non-nil it
	// must equal the derived schedule.
	Schedule []bool
}

// ValidateConfig reports the first violated construction invariant. The
// engine constructor panics on the same violations; this form exists so
// configuration loaders can surface the message before building anything.
func ValidateConfig(cfg Config) error {
	if _, err := fixed.NewFormat(cfg.BitWidth, cfg.FracWidth); err != nil {
		return err
	}
	if _, ok := KindFromString(string(cfg.Kind)); !ok {
		return fmt.Errorf("norma: unknown variant kind %q", string(cfg.Kind))
	}
	if cfg.Stages < 2 {
		return fmt.Errorf("norma: stages %d < 2", cfg.Stages)
	}
	if _, err := ReductionSchedule(cfg.DictionarySize, cfg.Stages); err != nil {
		return err
	}
	if cfg.Schedule != nil {
		if err := ValidateSchedule(cfg.Schedule, cfg.DictionarySize, cfg.Stages); err != nil {
			return err
		}
	}
	return nil
}

// Inputs is the per-cycle input surface of the engine.
type Inputs struct {
	// Window is the raw sample pipeline, stages+2 values, index 0 newest.
	Window []int64
	// Kernel holds the kernel evaluations of the current sample against
	// every dictionary slot, index 0 oldest, aligned with the engine's
	// internal weight window.
	Kernel []int64

	Forget  int64
	Eta     int64
	Nu      int64
	Epsilon int64
	Label   bool
	Target  int64

	ForceNotAdd bool
	Reset       bool
}

// Outputs is the registered per-cycle output surface.
type Outputs struct {
	AddToDict bool
	Ft        int64
	Alpha     int64
	// Query and Cleared mark that the sample this cycle's outputs describe
	// entered the pipe with forceNotAdd or reset asserted; they are the
	// Manage-aligned copies of those flags.
	Query   bool
	Cleared bool
}

// Tracer observes committed cycles. Implementations must not mutate engine
// state; tracing replaces any global debug machinery.
type Tracer interface {
	Trace(cycle int, out Outputs)
}

// Engine composes Manage, SumL, SumR and the update core into the one-sample
// per-cycle controller. Step is the (State, Inputs) -> (State', Outputs)
// surface: it computes every component's next state from committed registers,
// commits all of them atomically, and returns the newly committed outputs.
type Engine struct {
	format fixed.Format
	cfg    Config

	manage *Manage
	sumL   *SumL
	sumR   *SumR
	core   *Core

	// weights is the dictionary weight window, index 0 oldest, index D-1
	// the currently arriving sample. Owned here together with SumR; nothing
	// else mutates it.
	weights []*pipeline.Reg[int64]

	cycle  int
	tracer Tracer
}

// NewEngine builds the engine or panics on any violated construction
// invariant.
func NewEngine(cfg Config) *Engine {
	if err := ValidateConfig(cfg); err != nil {
		panic(err)
	}
	format := fixed.MustFormat(cfg.BitWidth, cfg.FracWidth)

	weights := make([]*pipeline.Reg[int64], cfg.DictionarySize)
	for i := range weights {
		weights[i] = pipeline.NewReg[int64](0)
	}

	return &Engine{
		format:  format,
		cfg:     cfg,
		manage:  NewManage(format, cfg.Stages),
		sumL:    NewSumL(format, cfg.Stages, cfg.AlwaysDecay),
		sumR:    NewSumR(format, cfg.DictionarySize, cfg.Stages, cfg.Schedule),
		core:    NewCore(format, cfg.Kind),
		weights: weights,
	}
}

// SetTracer injects the per-cycle observability hook.
func (e *Engine) SetTracer(t Tracer) {
	e.tracer = t
}

// Format exposes the instance's fixed-point format.
func (e *Engine) Format() fixed.Format {
	return e.format
}

// Config returns the construction-time configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// State returns the committed update-core registers, mainly for inspection
// and tests.
func (e *Engine) State() CoreOutputs {
	return e.core.Read()
}

// Weights returns a snapshot of the committed dictionary weight window.
func (e *Engine) Weights() []int64 {
	out := make([]int64, len(e.weights))
	for i, r := range e.weights {
		out[i] = r.Q()
	}
	return out
}

// Step advances the engine by one clock. All combinational values derive
// from pre-tick register state; the commit happens once, at the end.
func (e *Engine) Step(in Inputs) Outputs {
	if len(in.Window) != e.cfg.Stages+2 {
		panic(fmt.Errorf("norma: window has %d values, expected %d", len(in.Window), e.cfg.Stages+2))
	}
	if len(in.Kernel) != e.cfg.DictionarySize {
		panic(fmt.Errorf("norma: kernel vector has %d values, expected %d", len(in.Kernel), e.cfg.DictionarySize))
	}

	f := e.format
	aligned := e.manage.Read()
	sumLOut := e.sumL.Read()
	sumROut := e.sumR.Read()
	weights := e.Weights()

	decision := e.core.Cycle(CoreInputs{
		Sum:         f.Add(sumROut.Sum, sumLOut.Sum),
		Zp:          sumLOut.Zp,
		WD:          sumROut.WD,
		Forget:      aligned.Forget,
		EtaPos:      aligned.EtaPos,
		EtaNeg:      aligned.EtaNeg,
		EtaNu:       aligned.EtaNu,
		EtaNu1:      aligned.EtaNu1,
		Label:       aligned.Label,
		YPos:        aligned.YPos,
		YNeg:        aligned.YNeg,
		Target:      aligned.Target,
		ForceNotAdd: in.ForceNotAdd,
		Reset:       in.Reset,
	})

	e.sumL.Cycle(SumLInputs{
		Window:    in.Window,
		Alpha:     decision.Alpha,
		Forget:    aligned.Forget,
		AddToDict: decision.AddToDict,
	})
	e.sumR.Cycle(SumRInputs{
		Kernel:    in.Kernel,
		Weights:   weights,
		AddToDict: decision.AddToDict,
	})
	e.stageWeights(decision, aligned.Forget)
	e.manage.Cycle(ManageInputs{
		ForceNotAdd: in.ForceNotAdd,
		Reset:       in.Reset,
		Forget:      in.Forget,
		Eta:         in.Eta,
		Nu:          in.Nu,
		Label:       in.Label,
		Target:      in.Target,
		Epsilon:     in.Epsilon,
	})

	if in.Reset {
		// A reset is total: it cancels the learned state everywhere, not
		// just the core registers.
		e.commit()
		e.sumL.Reset()
		e.sumR.Reset()
		for _, w := range e.weights {
			w.Reset()
		}
	} else {
		e.commit()
	}

	coreOut := e.core.Read()
	out := Outputs{
		AddToDict: coreOut.AddToDict,
		Ft:        coreOut.Ft,
		Alpha:     coreOut.Alpha,
		Query:     aligned.ForceNotAdd,
		Cleared:   aligned.Reset,
	}
	if e.tracer != nil {
		e.tracer.Trace(e.cycle, out)
	}
	e.cycle++
	return out
}

// stageWeights shifts the dictionary window: the arriving slot takes the
// admitted sample's weight (zero when not admitted, so a rejected sample
// never contributes), every older slot ages by one position and decays when
// this cycle decayed.
func (e *Engine) stageWeights(decision CoreDecision, forget int64) {
	f := e.format
	decayed := decision.AddToDict || e.cfg.AlwaysDecay
	for k := 0; k < len(e.weights)-1; k++ {
		w := e.weights[k+1].Q()
		if decayed {
			w = f.Mul(forget, w)
		}
		e.weights[k].SetD(w)
	}
	arriving := int64(0)
	if decision.AddToDict {
		arriving = decision.Alpha
	}
	e.weights[len(e.weights)-1].SetD(arriving)
}

func (e *Engine) commit() {
	e.manage.Tick()
	e.sumL.Tick()
	e.sumR.Tick()
	e.core.Tick()
	for _, w := range e.weights {
		w.Tick()
	}
}
