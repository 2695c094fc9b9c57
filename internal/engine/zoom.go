package engine

import "math"

// computeBasebandZoom heterodynes the time
// buffer to baseband around the zoom center frequency, decimate by
// DecimationD, synthesize a fine cents grid via micro-shifted complex
// FFTs, refine the fundamental with a dense Goertzel sweep run directly on
// the baseband, and repeat the heterodyne+Goertzel step centered at 2x for
// the second-harmonic fallback used by the hybrid stage.
func (e *Engine) computeBasebandZoom() {
	heterodyneDecimate(e.timeBuf, float64(e.zoomCenterHz), float64(e.fsEff()), e.basebandDec)
	e.synthesizeMicroShiftGrid()
	e.projectCentsGrid()
	e.gzBestCents, e.gzBestMag, e.gzBestFreq = denseGoertzel(
		e.basebandDec, float64(e.zoomCenterHz), float64(e.fsZoom()),
		GoertzelSpanCents, GoertzelStepCents,
	)

	heterodyneDecimate(e.timeBuf, float64(SecondHarmonicHz), float64(e.fsEff()), e.baseband2Dec)
	e.gz2BestCents, e.gz2BestMag, e.gz2BestFreq = denseGoertzel(
		e.baseband2Dec, float64(SecondHarmonicHz), float64(e.fsZoom()),
		SecondGoertzelSpanCents, GoertzelStepCents,
	)
}

// fsZoom is the baseband sample rate after the D=16 decimation.
func (e *Engine) fsZoom() float32 { return e.fsEff() / DecimationD }

// heterodyneDecimate multiplies the real, windowed time buffer x by
// e^(-j*2*pi*centerHz*n/fsEff), block-averages DecimationD consecutive
// samples, and writes the M-point result into dst.
func heterodyneDecimate(x []float64, centerHz, fsEff float64, dst []complex128) {
	omega := 2 * math.Pi * centerHz / fsEff
	n := len(x)
	d := DecimationD
	out := 0
	var blockRe, blockIm float64
	count := 0
	for i := 0; i < n; i++ {
		s, c := math.Sincos(-omega * float64(i))
		blockRe += x[i] * c
		blockIm += x[i] * s
		count++
		if count == d {
			dst[out] = complex(blockRe/float64(d), blockIm/float64(d))
			out++
			blockRe, blockIm = 0, 0
			count = 0
			if out == len(dst) {
				break
			}
		}
	}
}

// synthesizeMicroShiftGrid implements the "Micro-shifted FFTs" step: window
// the decimated baseband with a Hann window, then for each shift index s in
// [0, ZoomMicroShifts) apply a fractional-bin phase ramp, run an M-point
// complex FFT, fftshift it, and record magnitudes into the concatenated
// fine grid superMag[shiftedBin*ZoomMicroShifts + s].
func (e *Engine) synthesizeMicroShiftGrid() {
	hann := e.plans.hann
	for n := 0; n < M; n++ {
		e.basebandWin[n] = e.basebandDec[n] * complex(hann[n], 0)
	}

	for s := 0; s < ZoomMicroShifts; s++ {
		theta := -2 * math.Pi * float64(s) / float64(M*ZoomMicroShifts)
		stepRe, stepIm := math.Cos(theta), math.Sin(theta)
		step := complex(stepRe, stepIm)

		phase := complex(1.0, 0.0)
		for n := 0; n < M; n++ {
			e.basebandShift[n] = e.basebandWin[n] * phase
			phase *= step
		}

		if err := complexFFT(e.basebandShift); err != nil {
			// A malformed (non-power-of-two) length would be a
			// construction bug, not a runtime condition; leave this
			// shift's contribution as whatever was last written rather
			// than panic in a real-time pass.
			continue
		}

		for j := 0; j < M; j++ {
			e.superMag[j*ZoomMicroShifts+s] = shiftedMagnitude(e.basebandShift, j)
		}
	}
}

// projectCentsGrid implements the "Cents grid projection" step: for each
// UI bin, compute the target frequency, map it into a fractional index
// into superMag, and write the nearest magnitude into zoomGrid.
func (e *Engine) projectCentsGrid() {
	centerHz := float64(e.zoomCenterHz)
	span := float64(e.zoomSpanCents)
	fsZoom := float64(e.fsZoom())
	ns := float64(ZoomMicroShifts)

	for i := 0; i < ZoomUIBins; i++ {
		cents := -span + float64(i)*(2*span/float64(ZoomUIBins))
		targetHz := centerHz * math.Pow(2, cents/1200)
		offset := targetHz - centerHz

		frac := (offset/fsZoom)*float64(M) + float64(M)/2
		frac = math.Mod(frac, float64(M))
		if frac < 0 {
			frac += float64(M)
		}

		idx := int(math.Round(frac * ns))
		if idx < 0 {
			idx = 0
		}
		if idx >= M*ZoomMicroShifts {
			idx = M*ZoomMicroShifts - 1
		}
		e.zoomGrid[i] = e.superMag[idx]
	}
}

// denseGoertzel runs a dense Goertzel micro-sweep: for each cents offset
// in [-spanCents, +spanCents] at stepCents
// resolution, evaluate the baseband's response at that frequency directly
// (no FFT) and track the strongest probe. baseband is the decimated
// complex samples already centered on centerHz; fsZoom is their sample
// rate.
func denseGoertzel(baseband []complex128, centerHz, fsZoom, spanCents, stepCents float64) (bestCents, bestMag, bestFreq float32) {
	steps := int(math.Round(2*spanCents/stepCents)) + 1
	var best float64 = -1
	var bestC float64
	for i := 0; i < steps; i++ {
		c := -spanCents + float64(i)*stepCents
		freqHz := centerHz * math.Pow(2, c/1200)
		basebandHz := freqHz - centerHz
		omega := 2 * math.Pi * basebandHz / fsZoom

		var accRe, accIm float64
		for k, z := range baseband {
			s, co := math.Sincos(-omega * float64(k))
			zr, zi := real(z), imag(z)
			accRe += zr*co - zi*s
			accIm += zr*s + zi*co
		}
		mag := math.Hypot(accRe, accIm)
		if mag > best {
			best = mag
			bestC = c
		}
	}
	if best < 0 {
		best = 0
	}
	freq := centerHz * math.Pow(2, bestC/1200)
	return float32(bestC), float32(best), float32(freq)
}
