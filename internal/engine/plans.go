package engine

import (
	"math"

	"github.com/argusdusty/gofft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// plans bundles the FFT plans and window coefficient tables built once at
// construction time. Neither the real FFT nor the complex FFT allocate on
// repeated use: gonum's fourier.FFT keeps its own internal scratch sized
// at construction, and gofft.FFT operates in-place on caller-provided
// buffers.
type plans struct {
	realFFT *fourier.FFT // N-point real-to-complex FFT (coarse spectrum)

	blackmanHarris []float64 // length N
	hann           []float64 // length M, applied to the baseband before micro-shift FFTs
}

func newPlans(blackmanHarris, hann []float64) *plans {
	return &plans{
		realFFT:        fourier.NewFFT(N),
		blackmanHarris: blackmanHarris,
		hann:           hann,
	}
}

// coarseFFT computes the N-point real-to-complex FFT into dst (length
// N/2+1) using gonum.org/v1/gonum/dsp/fourier's Coefficients call.
func (p *plans) coarseFFT(timeBuf []float64, dst []complex128) {
	p.realFFT.Coefficients(dst, timeBuf)
}

// complexFFT performs an in-place M-point complex FFT using gofft, a
// second, distinct FFT engine from gonum's. Used for the baseband zoom's
// micro-shifted variants, which need many small complex-to-complex
// transforms rather than gonum's real-input path.
func complexFFT(data []complex128) error {
	return gofft.FFT(data)
}

// shiftedMagnitude reads the magnitude of src at the fftshift-reordered
// index j: the unshifted index is (j + M/2) % M, so that j=M/2 reads DC
// (an fftshift so DC lies at M/2). Avoids materializing a
// second complex buffer just to reorder it.
func shiftedMagnitude(src []complex128, j int) float32 {
	m := len(src)
	idx := (j + m/2) % m
	c := src[idx]
	return float32(cmplxAbs(c))
}

func cmplxAbs(c complex128) float64 {
	re, im := real(c), imag(c)
	return math.Sqrt(re*re + im*im)
}
