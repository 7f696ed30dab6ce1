package norma

import (
	"fmt"

	"github.com/viterin/vek/vek32"
)

// Reference is a plain float32 rendition of the NORMA recurrence with no
// pipeline latency: one Step fully commits one sample. It exists as the
// numeric oracle the fixed-point engine is compared against in tests and in
// the simulator's divergence report.
type Reference struct {
	kind        Kind
	eta         float32
	nu          float32
	eps         float32
	forget      float32
	alwaysDecay bool

	rho     float32
	b       float32
	weights []float32
}

// NewReference builds the oracle with the same dictionary capacity and decay
// discipline as the engine it mirrors.
func NewReference(kind Kind, dictionarySize int, eta, nu, eps, forget float32, alwaysDecay bool) *Reference {
	if _, ok := KindFromString(string(kind)); !ok {
		panic(fmt.Errorf("norma: unknown variant kind %q", string(kind)))
	}
	if dictionarySize < 1 {
		panic(fmt.Errorf("norma: reference dictionary size %d < 1", dictionarySize))
	}
	return &Reference{
		kind:        kind,
		eta:         eta,
		nu:          nu,
		eps:         eps,
		forget:      forget,
		alwaysDecay: alwaysDecay,
		weights:     make([]float32, dictionarySize),
	}
}

// Rho returns the current margin accumulator.
func (r *Reference) Rho() float32 {
	return r.rho
}

// B returns the current bias.
func (r *Reference) B() float32 {
	return r.b
}

// Step consumes one sample's kernel vector (aligned with the internal weight
// window, index 0 oldest) plus its label or target and applies the full
// recurrence. It returns the admission decision and the reported prediction.
func (r *Reference) Step(kernel []float32, label float32, target float32) (bool, float32) {
	if len(kernel) != len(r.weights) {
		panic(fmt.Errorf("norma: reference kernel vector has %d values, expected %d",
			len(kernel), len(r.weights)))
	}

	ft := vek32.Dot(kernel, r.weights)
	etaNu := r.eta * r.nu
	etaNu1 := etaNu - r.eta

	var add bool
	var alpha float32
	ftOut := ft

	switch r.kind {
	case KindClassification:
		add = r.rho-label*(ft+r.b) > 0
		alpha = label * r.eta
		if add {
			r.rho += etaNu1
			r.b += alpha
		} else {
			r.rho += etaNu
		}
	case KindNovelty:
		add = r.rho-ft > 0
		alpha = r.eta
		// The score reads the margin as committed at the start of the step.
		ftOut = ft - r.rho
		if add {
			r.rho += etaNu1
		} else {
			r.rho += etaNu
		}
	case KindRegression:
		if target > ft {
			add = target-ft-r.eps-r.rho > 0
			alpha = r.eta
		} else {
			add = ft-target-r.eps-r.rho > 0
			alpha = -r.eta
		}
		if add {
			r.rho -= etaNu1
		} else {
			r.rho -= etaNu
		}
	}

	// Age the window in step with the engine's weight shift: contributions
	// decay on the cycles the engine decays, the arriving slot holds the
	// admitted weight or nothing.
	decayed := add || r.alwaysDecay
	for k := 0; k < len(r.weights)-1; k++ {
		w := r.weights[k+1]
		if decayed {
			w = r.forget * w
		}
		r.weights[k] = w
	}
	if add {
		r.weights[len(r.weights)-1] = alpha
	} else {
		r.weights[len(r.weights)-1] = 0
	}

	return add, ftOut
}
