package engine

import (
	"gonum.org/v1/gonum/floats"

	"github.com/austinkregel/tunercore/internal/ring"
)

// readAndWindow gathers the most recent 2N
// samples ending at the ring's write position, collapse them 2:1 by
// averaging (a first-order anti-alias filter that halves the effective
// sample rate), and multiply by the Blackman-Harris window into timeBuf.
func (e *Engine) readAndWindow(r *ring.Buffer) {
	r.ReadWindow(2*N, e.rawWindow)

	raw := e.rawWindow
	decimated := e.decimated
	for i := 0; i < N; i++ {
		decimated[i] = (float64(raw[2*i]) + float64(raw[2*i+1])) / 2
	}
	floats.MulTo(e.timeBuf, decimated, e.plans.blackmanHarris)
}
