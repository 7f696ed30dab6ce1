package simulator

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/viterin/vek/vek32"

	"normasim/src/kernelfn"
	"normasim/src/misc"
	"normasim/src/norma"
)

// Simulator drives a generated sample stream through the engine one cycle at
// a time and mirrors it through the float32 reference model, collecting
// admission and divergence statistics along the way.
type Simulator struct {
	config    *misc.ScenarioConfig
	engine    *norma.Engine
	reference *norma.Reference
	window    *kernelfn.Window

	queue  sampleQueue
	recent [][]float32

	eta     int64
	nu      int64
	epsilon int64
	forget  int64

	kernel_fix   []int64
	kernel_float []float32
	window_fix   []int64

	run_id         string
	cycles         int
	admissions     int
	ref_admissions int
	agreements     int
}

func (this *Simulator) Init(config *misc.ScenarioConfig) {
	engine_config := config.EngineConfig()
	engine := norma.NewEngine(engine_config)
	format := engine.Format()

	run := config.Run
	kernel := kernelfn.NewGaussian(float32(run.Gamma), format)

	this.config = config
	this.engine = engine
	this.reference = norma.NewReference(engine_config.Kind, engine_config.DictionarySize,
		float32(run.Eta), float32(run.Nu), float32(run.Epsilon), float32(run.Forget),
		engine_config.AlwaysDecay)
	this.window = kernelfn.NewWindow(kernel, engine_config.DictionarySize)

	this.eta = format.FromFloat64(run.Eta)
	this.nu = format.FromFloat64(run.Nu)
	this.epsilon = format.FromFloat64(run.Epsilon)
	this.forget = format.FromFloat64(run.Forget)

	this.kernel_fix = make([]int64, engine_config.DictionarySize)
	this.kernel_float = make([]float32, engine_config.DictionarySize)
	this.window_fix = make([]int64, engine_config.Stages+2)
	this.recent = make([][]float32, 0, engine_config.Stages+2)
	this.run_id = uuid.NewString()

	this.generateStream()
}

func (this *Simulator) Fini() {
	this.queue.items = nil
	this.recent = nil
}

func (this *Simulator) IsFinished() bool {
	return this.queue.isEmpty()
}

// Cycle feeds the next staged sample through both models.
func (this *Simulator) Cycle() {
	sample, ok := this.queue.dequeue()
	if !ok {
		return
	}

	// Newest-first view of the raw pipeline for SumL.
	this.recent = append([][]float32{sample.X}, this.recent...)
	if len(this.recent) > len(this.window_fix) {
		this.recent = this.recent[:len(this.window_fix)]
	}

	gaussian := this.window.Kernel()
	for i := range this.window_fix {
		if i < len(this.recent) {
			this.window_fix[i] = gaussian.EvalQuantized(sample.X, this.recent[i])
		} else {
			this.window_fix[i] = 0
		}
	}

	// The arriving sample occupies the top dictionary slot this cycle, in
	// step with the engine's weight shift.
	this.window.Shift(sample.X)
	this.window.Quantized(sample.X, this.kernel_fix)
	this.window.Floats(sample.X, this.kernel_float)

	format := this.engine.Format()
	out := this.engine.Step(norma.Inputs{
		Window:  this.window_fix,
		Kernel:  this.kernel_fix,
		Forget:  this.forget,
		Eta:     this.eta,
		Nu:      this.nu,
		Epsilon: this.epsilon,
		Label:   sample.Label,
		Target:  format.FromFloat32(sample.Target),
	})

	label := float32(-1)
	if sample.Label {
		label = 1
	}
	ref_add, _ := this.reference.Step(this.kernel_float, label, sample.Target)

	this.cycles++
	if out.AddToDict {
		this.admissions++
	}
	if ref_add {
		this.ref_admissions++
	}
	if out.AddToDict == ref_add {
		this.agreements++
	}
}

func (this *Simulator) Dump() {
	fmt.Printf("run %s (%s, %d-bit Q%d)\n",
		this.run_id, this.config.Engine.Variant,
		this.config.Engine.BitWidth, this.config.Engine.FracWidth)
	fmt.Printf("  cycles:               %d\n", this.cycles)
	fmt.Printf("  admissions:           %d\n", this.admissions)
	fmt.Printf("  reference admissions: %d\n", this.ref_admissions)
	if this.cycles > 0 {
		fmt.Printf("  admission agreement:  %.2f%%\n",
			100.0*float64(this.agreements)/float64(this.cycles))
	}
	state := this.engine.State()
	fmt.Printf("  rho: %v  b: %v  (reference rho: %v  b: %v)\n",
		this.engine.Format().Float64(state.Rho), this.engine.Format().Float64(state.B),
		this.reference.Rho(), this.reference.B())
}

// generateStream stages the workload: uniform feature vectors labelled by a
// hidden random hyperplane, with the plane's response doubling as the
// regression target.
func (this *Simulator) generateStream() {
	run := this.config.Run
	rng := rand.New(rand.NewSource(run.Seed))

	plane := make([]float32, run.Dimension)
	for i := range plane {
		plane[i] = float32(rng.Float64()*2.0 - 1.0)
	}

	for c := 0; c < run.Cycles; c++ {
		x := make([]float32, run.Dimension)
		for i := range x {
			x[i] = float32(rng.Float64()*2.0 - 1.0)
		}

		response := vek32.Dot(plane, x)
		this.queue.enqueue(&Sample{
			X:      x,
			Label:  response > 0,
			Target: response,
		})
	}
}
