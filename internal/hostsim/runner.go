package hostsim

import (
	"github.com/austinkregel/tunercore/internal/engine"
)

// Core is the subset of abi.Core the runner needs: write samples at the
// current position and process one quantum.
type Core interface {
	WritePos() int
	WriteInput(at int, data []float32) int
	ProcessQuantum(n int)
}

// Runner repeatedly pulls Quantum-sized blocks from a Producer and drives
// them into a Core, standing in for the real audio host's callback loop.
type Runner struct {
	core  Core
	prod  Producer
	quant [engine.Quantum]float32
}

// NewRunner builds a Runner over the given core and producer.
func NewRunner(core Core, prod Producer) *Runner {
	return &Runner{core: core, prod: prod}
}

// RunQuanta drives count quanta through the core, stopping early if the
// producer reports exhaustion. It returns the number of quanta actually
// delivered.
func (r *Runner) RunQuanta(count int) int {
	delivered := 0
	for i := 0; i < count; i++ {
		ok := r.prod.NextQuantum(r.quant[:])
		at := r.core.WritePos()
		r.core.WriteInput(at, r.quant[:])
		r.core.ProcessQuantum(len(r.quant))
		delivered++
		if !ok {
			break
		}
	}
	return delivered
}
