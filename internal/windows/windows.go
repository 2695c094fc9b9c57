// Package windows builds the window coefficient tables the engine needs.
// Both tables are built once at construction time and reused every pass.
package windows

import "math"

// BlackmanHarris returns the length-n Blackman-Harris window used on the
// decimated time buffer before the coarse real FFT.
func BlackmanHarris(n int) []float64 {
	const (
		a0 = 0.35875
		a1 = 0.48829
		a2 = 0.14128
		a3 = 0.01168
	)
	w := make([]float64, n)
	if n <= 1 {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	den := float64(n - 1)
	for i := range w {
		x := float64(i) / den
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x) - a3*math.Cos(6*math.Pi*x)
	}
	return w
}

// Hann returns the length-n Hann window used on the baseband buffer before
// the M-point complex FFT.
func Hann(n int) []float64 {
	w := make([]float64, n)
	if n <= 1 {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	den := float64(n - 1)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/den))
	}
	return w
}
