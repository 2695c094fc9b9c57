package engine

import "math"

// computeCoarseSpectrum runs the coarse stage's first half: a
// real-to-complex FFT of the windowed, decimated time buffer, followed by a
// band-restricted peak search (±CoarseBandCents around the zoom center
// frequency, CenterHz by default) that yields the
// coarse fundamental estimate.
func (e *Engine) computeCoarseSpectrum() {
	e.plans.coarseFFT(e.timeBuf, e.coarseSpec)

	binHz := e.binHz()
	loHz := e.zoomCenterHz * float32(math.Pow(2, -CoarseBandCents/1200))
	hiHz := e.zoomCenterHz * float32(math.Pow(2, CoarseBandCents/1200))

	loBin := int(loHz / binHz)
	hiBin := int(math.Ceil(float64(hiHz / binHz)))
	if loBin < 0 {
		loBin = 0
	}
	if hiBin >= len(e.coarseSpec) {
		hiBin = len(e.coarseSpec) - 1
	}

	peakBin := loBin
	var peakMagSq float64
	for b := loBin; b <= hiBin; b++ {
		c := e.coarseSpec[b]
		magSq := real(c)*real(c) + imag(c)*imag(c)
		if magSq > peakMagSq {
			peakMagSq = magSq
			peakBin = b
		}
	}

	e.coarsePeakBin = peakBin
	e.coarsePeakFreq = float32(peakBin) * binHz
	e.coarsePeakMag = float32(math.Sqrt(peakMagSq))
}

// computeHarmonics runs the coarse stage's second half: for each
// harmonic factor k, find the local-maximum bin near k*f0_coarse and refine
// it with 3-point parabolic interpolation in linear magnitude.
func (e *Engine) computeHarmonics() {
	binHz := e.binHz()
	nyquistBin := N / 2

	for i, k := range HarmonicFactors {
		x := float64(k) * float64(e.coarsePeakFreq) / float64(binHz)
		if x >= float64(nyquistBin) {
			e.harmonicFreq[i] = 0
			e.harmonicMag[i] = 0
			continue
		}

		lo := int(math.Floor(x)) - 3
		hi := int(math.Ceil(x)) + 3
		if lo < 1 {
			lo = 1
		}
		if hi > nyquistBin-1 {
			hi = nyquistBin - 1
		}

		localBin := lo
		var localMag float64
		for b := lo; b <= hi; b++ {
			m := cmplxAbs(e.coarseSpec[b])
			if m > localMag {
				localMag = m
				localBin = b
			}
		}

		bin := localBin
		binL, binR := bin-1, bin+1
		if binL < 0 {
			binL = bin
		}
		if binR >= len(e.coarseSpec) {
			binR = bin
		}

		y1 := cmplxAbs(e.coarseSpec[binL])
		y2 := cmplxAbs(e.coarseSpec[bin])
		y3 := cmplxAbs(e.coarseSpec[binR])

		denom := y1 - 2*y2 + y3
		var delta float64
		if math.Abs(denom) > 1e-12 {
			delta = 0.5 * (y1 - y3) / denom
		}

		binFrac := float64(bin) + delta
		e.harmonicFreq[i] = float32(binFrac * float64(binHz))
		e.harmonicMag[i] = float32(y2)
	}
}
