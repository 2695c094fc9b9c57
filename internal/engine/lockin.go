package engine

import "math"

// fSuper is the best-available fundamental estimate: the dense Goertzel
// sweep's result when it has resolved a meaningful magnitude, otherwise the
// coarse FFT peak.
func (e *Engine) fSuper() float32 {
	if e.gzBestMag > 0 {
		return e.gzBestFreq
	}
	return e.coarsePeakFreq
}

// computeLockIn runs the lock-in demodulator for both k=1 and k=2: the
// coherent demod integral with absolute-time phase alignment, the
// inter-window phase-drift-to-ratio conversion, and (for k=2 only) the
// simultaneous strike-envelope accumulation.
func (e *Engine) computeLockIn(totalSamples uint64) {
	fSuper := float64(e.fSuper())
	fsEff := float64(e.fsEff())
	sampleRate := float64(e.sampleRate)

	n0 := float64(totalSamples)/2 - float64(N)

	var dt float64
	if e.havePass {
		dt = float64(totalSamples-e.totalAtLast) / sampleRate
	}

	for _, k := range [2]int{2, 1} {
		fK := float64(k) * fSuper
		st := &e.lockin[k]

		if fK <= 0 || fK >= 0.9*fsEff {
			st.ratio, st.cents, st.mag = 0, 0, 0
			st.hasPrev = false
			st.zeroed = true
			if k == 2 {
				for i := range e.envelope {
					e.envelope[i] = 0
				}
			}
			continue
		}
		st.zeroed = false

		var z complex128
		var envelope []float32
		if k == 2 {
			envelope = e.envelope[:]
		}
		z = e.demodIntegral(fK, fsEff, envelope)

		phi0 := 2 * math.Pi * fK * n0 / fsEff
		rot := complex(math.Cos(phi0), math.Sin(phi0))
		zAligned := z * rot

		if st.hasPrev && dt > 0 {
			d := zAligned * cmplxConj(st.prevZ)
			dPhi := -math.Atan2(imag(d), real(d))
			df := dPhi / (2 * math.Pi * dt)
			ratio := 1 + df/fK
			st.ratio = float32(ratio)
			st.cents = ratioToCents(float32(ratio))
		}
		st.mag = float32(cmplxAbs(z) / float64(N))
		st.lastF = float32(fK)
		st.prevZ = zAligned
		st.hasPrev = true
	}
}

// demodIntegral computes Z_k = sum_n x_windowed[n] * e^(-j*2*pi*fK*n/fsEff)
// over the current pass's windowed decimated time buffer. When envelope is
// non-nil (k=2 only), it simultaneously accumulates per-block partial sums
// into it.
func (e *Engine) demodIntegral(fK, fsEff float64, envelope []float32) complex128 {
	omega := 2 * math.Pi * fK / fsEff
	var accRe, accIm float64

	if envelope == nil {
		for n := 0; n < N; n++ {
			s, c := math.Sincos(-omega * float64(n))
			x := e.timeBuf[n]
			accRe += x * c
			accIm += x * s
		}
		return complex(accRe, accIm)
	}

	var blockRe, blockIm float64
	block := 0
	for n := 0; n < N; n++ {
		s, c := math.Sincos(-omega * float64(n))
		x := e.timeBuf[n]
		re, im := x*c, x*s
		accRe += re
		accIm += im
		blockRe += re
		blockIm += im
		if (n+1)%EnvelopeBlockSize == 0 {
			envelope[block] = float32(math.Hypot(blockRe, blockIm))
			block++
			blockRe, blockIm = 0, 0
		}
	}
	return complex(accRe, accIm)
}

func cmplxConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}
