package engine

// fft2HarmonicMinMag is the minimum second-baseband-Goertzel magnitude a
// pass must resolve before its ratio is trusted over the coarse-FFT
// harmonic's ratio. Below this the 2nd Goertzel sweep has not locked onto
// anything and harmonic_freq[0] is the only honest FFT-path estimate.
const fft2HarmonicMinMag = 1e-6

// computeHybrid derives an FFT-path ratio for the octave (2x) harmonic,
// blends it against the lock-in ratio by a weight derived from the strike
// envelope, and clamps the result to cents.
//
// The second baseband Goertzel sweep feeds the hybrid estimator as an
// FFT-path fallback when the demod envelope is weak: its ratio is used
// whenever it has resolved a non-negligible magnitude (it is strictly
// finer-grained than the coarse FFT bin), falling back to
// harmonic_freq[0]/(2*f_super) otherwise.
func (e *Engine) computeHybrid() {
	fSuper := e.fSuper()
	if fSuper <= 0 {
		e.hybridRatio = 1
		e.hybridCents = 0
		return
	}

	var fftRatio float32
	if e.gz2BestMag >= fft2HarmonicMinMag {
		fftRatio = e.gz2BestFreq / (2 * fSuper)
	} else {
		fftRatio = e.harmonicFreq[0] / (2 * fSuper)
	}
	if fftRatio <= 0 {
		fftRatio = 1
	}

	lockRatio := e.lockin[2].ratio
	if e.lockin[2].zeroed || !e.lockin[2].hasPrev {
		lockRatio = fftRatio
	}

	weight := float64(e.envelopePeakVal) / HybridEnvelopeScale
	if weight > 1 {
		weight = 1
	}
	if weight < 0 {
		weight = 0
	}

	hybridRatio := (1-weight)*float64(fftRatio) + weight*float64(lockRatio)
	e.hybridRatio = float32(hybridRatio)
	e.hybridCents = ratioToCents(float32(hybridRatio))
}
