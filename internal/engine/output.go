package engine

// This file implements the engine's output surface: every
// zero-argument scalar getter and array accessor a consumer polls after a
// pass. Array accessors return slices backed by the engine's own scratch
// buffers rather than copies — they stay stable for the engine's lifetime,
// matching the "pointers remain stable for the process lifetime" contract,
// and a consumer must not mutate or retain them past the next pass.

// Filled reports whether at least one pass has ever completed.
func (e *Engine) Filled() bool { return e.filled }

// RMS is the most recent quantum's RMS amplitude, updated on every call to
// ProcessQuantum regardless of whether a pass ran.
func (e *Engine) RMS() float32 { return e.rms }

// CoarsePeakBin is the bin index of the band-restricted coarse FFT peak.
func (e *Engine) CoarsePeakBin() int { return e.coarsePeakBin }

// CoarsePeakFreq is the coarse FFT peak's frequency in Hz.
func (e *Engine) CoarsePeakFreq() float32 { return e.coarsePeakFreq }

// CoarsePeakMag is the coarse FFT peak's linear magnitude.
func (e *Engine) CoarsePeakMag() float32 { return e.coarsePeakMag }

// HarmonicsFreq returns the five refined harmonic frequencies (Hz),
// indexed in HarmonicFactors order (2x, 3x, 4x, 6x, 8x).
func (e *Engine) HarmonicsFreq() []float32 { return e.harmonicFreq[:] }

// HarmonicsMag returns the five harmonics' linear magnitudes, parallel to
// HarmonicsFreq.
func (e *Engine) HarmonicsMag() []float32 { return e.harmonicMag[:] }

// ZoomGrid returns the cents-indexed baseband zoom magnitude grid.
func (e *Engine) ZoomGrid() []float32 { return e.zoomGrid[:] }

// ZoomCenterHz is the zoom stage's current center frequency.
func (e *Engine) ZoomCenterHz() float32 { return e.zoomCenterHz }

// ZoomSpanCents is the zoom stage's current half-width in cents.
func (e *Engine) ZoomSpanCents() float32 { return e.zoomSpanCents }

// GoertzelBestCents is the dense fundamental Goertzel sweep's winning
// offset in cents relative to ZoomCenterHz.
func (e *Engine) GoertzelBestCents() float32 { return e.gzBestCents }

// GoertzelBestMag is the dense fundamental Goertzel sweep's winning
// magnitude.
func (e *Engine) GoertzelBestMag() float32 { return e.gzBestMag }

// GoertzelBestFreq is the dense fundamental Goertzel sweep's winning
// frequency in Hz.
func (e *Engine) GoertzelBestFreq() float32 { return e.gzBestFreq }

// Goertzel2BestCents is the second-harmonic Goertzel sweep's winning
// offset in cents relative to 2*CenterHz.
func (e *Engine) Goertzel2BestCents() float32 { return e.gz2BestCents }

// Goertzel2BestMag is the second-harmonic Goertzel sweep's winning
// magnitude.
func (e *Engine) Goertzel2BestMag() float32 { return e.gz2BestMag }

// Goertzel2BestFreq is the second-harmonic Goertzel sweep's winning
// frequency in Hz.
func (e *Engine) Goertzel2BestFreq() float32 { return e.gz2BestFreq }

// LockInRatio returns the lock-in frequency ratio for harmonic k (1 or 2).
func (e *Engine) LockInRatio(k int) float32 { return e.lockin[k].ratio }

// LockInCents returns the lock-in cents offset for harmonic k (1 or 2).
func (e *Engine) LockInCents(k int) float32 { return e.lockin[k].cents }

// LockInMag returns the lock-in demod magnitude for harmonic k (1 or 2).
func (e *Engine) LockInMag(k int) float32 { return e.lockin[k].mag }

// LockInZeroed reports whether harmonic k's lock-in outputs were zeroed on
// the last pass because its reference k*f_super was not positive or was at
// or above 0.9*fs_eff.
func (e *Engine) LockInZeroed(k int) bool { return e.lockin[k].zeroed }

// Envelope returns the decimated strike-envelope buffer.
func (e *Engine) Envelope() []float32 { return e.envelope[:] }

// EnvelopePeakIdx is the envelope bucket index of the most recent peak.
func (e *Engine) EnvelopePeakIdx() int { return e.envelopePeakIdx }

// EnvelopePeakVal is the most recent envelope peak's magnitude.
func (e *Engine) EnvelopePeakVal() float32 { return e.envelopePeakVal }

// EnvelopePeakMs is the most recent envelope peak's position in
// milliseconds from the start of the pass window.
func (e *Engine) EnvelopePeakMs() float32 { return e.envelopePeakMs }

// StabilityMAD returns the sliding-window median absolute deviation in
// both ppm and cents, and whether the stability ring holds enough entries
// to report one.
func (e *Engine) StabilityMAD() (ppm, cents float32, ok bool) {
	_, ppm, cents, ok = e.stabilityMedianAndMAD()
	return ppm, cents, ok
}

// CaptureValid reports whether a capture is currently latched.
func (e *Engine) CaptureValid() bool { return e.capture.valid }

// CaptureCents is the latched capture's cents offset.
func (e *Engine) CaptureCents() float32 { return e.capture.cents }

// CaptureRatio is the latched capture's frequency ratio.
func (e *Engine) CaptureRatio() float32 { return e.capture.ratio }

// CaptureMag is the latched capture's magnitude.
func (e *Engine) CaptureMag() float32 { return e.capture.mag }

// CapturePeakMs is the attack peak position, in milliseconds, that
// produced the latched capture (0 for stability-path captures).
func (e *Engine) CapturePeakMs() float32 { return e.capture.peakMs }

// LongAverageReady reports whether the post-attack long average has frozen.
func (e *Engine) LongAverageReady() bool { return e.long.ready }

// LongAverageRatio is the frozen long-average frequency ratio (zero until
// LongAverageReady).
func (e *Engine) LongAverageRatio() float32 { return e.long.frozenRatio }

// LongAverageCents is the frozen long-average cents offset.
func (e *Engine) LongAverageCents() float32 { return ratioToCents(e.long.frozenRatio) }

// BestGuessRatio is the continuous EMA best-guess frequency ratio.
func (e *Engine) BestGuessRatio() float32 { return e.best2Ratio }

// BestGuessCents is the continuous EMA best-guess cents offset.
func (e *Engine) BestGuessCents() float32 { return ratioToCents(e.best2Ratio) }

// HybridRatio is the envelope-weighted blend of the FFT-path and lock-in
// octave ratios.
func (e *Engine) HybridRatio() float32 { return e.hybridRatio }

// HybridCents is HybridRatio expressed in cents.
func (e *Engine) HybridCents() float32 { return e.hybridCents }

// TotalAtLastPass is the ring's total_samples counter as of the most
// recently completed pass.
func (e *Engine) TotalAtLastPass() uint64 { return e.totalAtLast }
