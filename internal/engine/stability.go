package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// stabilityRing is the size-16 sliding window of recent 2x ratios.
type stabilityRing struct {
	entries  [StabilityRingSize]float32
	writeIdx int
	fill     int
}

func (s *stabilityRing) push(ratio float32) {
	s.entries[s.writeIdx] = ratio
	s.writeIdx = (s.writeIdx + 1) % StabilityRingSize
	if s.fill < StabilityRingSize {
		s.fill++
	}
}

// recent returns up to n of the most recently pushed entries, oldest first.
func (s *stabilityRing) recent(n int) []float32 {
	if n > s.fill {
		n = s.fill
	}
	out := make([]float32, n)
	idx := s.writeIdx
	for i := n - 1; i >= 0; i-- {
		idx = (idx - 1 + StabilityRingSize) % StabilityRingSize
		out[i] = s.entries[idx]
	}
	return out
}

// captureState is the latched UI-facing estimate.
type captureState struct {
	valid            bool
	ratio            float32
	cents            float32
	mag              float32
	peakMs           float32
	lastCaptureSample uint64
	hasCaptured      bool
}

// longAverageRing is the size-64 post-attack averaging ring.
type longAverageRing struct {
	entries      [LongAverageRingSize]float32
	writeIdx     int
	fill         int
	active       bool
	ready        bool
	frozenRatio  float32
	windowsSince int
}

func (l *longAverageRing) push(ratio float32) {
	l.entries[l.writeIdx] = ratio
	l.writeIdx = (l.writeIdx + 1) % LongAverageRingSize
	if l.fill < LongAverageRingSize {
		l.fill++
	}
}

func (l *longAverageRing) all() []float32 {
	return append([]float32(nil), l.entries[:l.fill]...)
}

// updateStability runs the sliding-window stability check:
// push the current pass's 2x ratio, then compute median/MAD over the last
// StabilityMedianWindow entries. Nothing is cached: the capture and
// best-guess steps that run later in the same pass each call
// stabilityMedianAndMAD themselves.
func (e *Engine) updateStability() {
	if e.lockin[2].zeroed || !e.lockin[2].hasPrev {
		return
	}
	e.stability.push(e.lockin[2].ratio)
}

// stabilityMedianAndMAD computes the median ratio and both MAD
// representations (ppm and cents) over the most recent
// StabilityMedianWindow stability-ring entries.
func (e *Engine) stabilityMedianAndMAD() (medianRatio float32, madPPM, madCents float32, ok bool) {
	window := e.stability.recent(StabilityMedianWindow)
	if len(window) < StabilityMedianWindow {
		return 0, 0, 0, false
	}

	sorted := append([]float32(nil), window...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	median := medianOf(sorted)

	ppmDevs := make([]float32, len(window))
	centsDevs := make([]float32, len(window))
	medianCents := ratioToCents(median)
	for i, r := range window {
		ppmDevs[i] = float32(math.Abs(float64(r-median))) * 1e6
		c := ratioToCents(r)
		centsDevs[i] = float32(math.Abs(float64(c - medianCents)))
	}
	sort.Slice(ppmDevs, func(i, j int) bool { return ppmDevs[i] < ppmDevs[j] })
	sort.Slice(centsDevs, func(i, j int) bool { return centsDevs[i] < centsDevs[j] })

	return median, medianOf(ppmDevs), medianOf(centsDevs), true
}

// medianOf returns the median of an ascending-sorted slice, converting to
// and from float64 since stat.Quantile operates on float64 slices. gonum's
// empirical 0.5 quantile is the lower middle element; averaging it with
// x[len/2] yields the middle element for odd lengths and the mean of the
// two middle elements for even lengths.
func medianOf(sorted []float32) float32 {
	if len(sorted) == 0 {
		return 0
	}
	x := make([]float64, len(sorted))
	for i, v := range sorted {
		x[i] = float64(v)
	}
	lower := stat.Quantile(0.5, stat.Empirical, x, nil)
	return float32((lower + x[len(x)/2]) / 2)
}

// updateCapture runs attack-peak detection and
// stability-path capture latching. The attack path always takes precedence
// over the stability path within the same pass.
func (e *Engine) updateCapture(totalSamples uint64) {
	peakIdx, peakVal := envelopePeak(e.envelope[:])
	e.envelopePeakIdx = peakIdx
	e.envelopePeakVal = peakVal
	e.envelopePeakMs = float32(peakIdx) * float32(EnvelopeBlockSize) / e.sampleRate * 1000

	if e.tryAcceptAttack(totalSamples, peakIdx, peakVal) {
		return
	}

	if e.capture.valid {
		return
	}
	median, madPPM, madCents, ok := e.stabilityMedianAndMAD()
	if !ok {
		return
	}
	if madPPM <= StabilityMADPPMThreshold || madCents <= StabilityMADCentsThreshold {
		e.capture = captureState{
			valid:             true,
			ratio:             median,
			cents:             ratioToCents(median),
			mag:               e.lockin[2].mag,
			peakMs:            0,
			lastCaptureSample: totalSamples,
			hasCaptured:       true,
		}
	}
}

// tryAcceptAttack evaluates the attack-peak acceptance conditions and, if
// accepted, latches a new capture and arms the long-average accumulator.
func (e *Engine) tryAcceptAttack(totalSamples uint64, peakIdx int, peakVal float32) bool {
	if e.lockin[2].zeroed || !e.lockin[2].hasPrev {
		return false
	}
	maxIdx := AttackPeakMaxIndex
	if maxIdx > EnvelopeLen-1 {
		maxIdx = EnvelopeLen - 1
	}
	if !(peakIdx > 0 && peakIdx <= maxIdx) {
		return false
	}
	if peakVal < AttackMinMagnitude {
		return false
	}

	refractoryOK := !e.capture.hasCaptured
	if e.capture.hasCaptured {
		elapsed := float64(totalSamples-e.capture.lastCaptureSample) / float64(e.sampleRate)
		refractoryOK = elapsed >= RefractorySeconds
	}
	if !refractoryOK {
		return false
	}

	strongerThanPrior := peakVal >= AttackStrengthFactor*e.capture.mag
	if !strongerThanPrior {
		return false
	}

	e.capture = captureState{
		valid:             true,
		ratio:             e.lockin[2].ratio,
		cents:             e.lockin[2].cents,
		mag:               peakVal,
		peakMs:            e.envelopePeakMs,
		lastCaptureSample: totalSamples,
		hasCaptured:       true,
	}
	e.long = longAverageRing{active: true}
	return true
}

// envelopePeak scans the envelope buffer for its maximum.
func envelopePeak(envelope []float32) (idx int, val float32) {
	for i, v := range envelope {
		if v > val {
			val = v
			idx = i
		}
	}
	return idx, val
}

// updateLongAverage runs the long-average stage: while
// armed, accumulate the current pass's 2x ratio and freeze once MAD drops
// below LongAverageFreezePPM or LongAverageMaxWindows passes have elapsed.
func (e *Engine) updateLongAverage() {
	if !e.long.active {
		return
	}
	if !e.lockin[2].zeroed && e.lockin[2].hasPrev {
		e.long.push(e.lockin[2].ratio)
	}
	e.long.windowsSince++

	if e.long.fill < LongAverageMinSamples && e.long.windowsSince < LongAverageMaxWindows {
		return
	}
	if e.long.fill < 1 {
		return
	}

	entries := e.long.all()
	sorted := append([]float32(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	median := medianOf(sorted)

	shouldFreeze := e.long.windowsSince >= LongAverageMaxWindows
	if e.long.fill >= LongAverageMinSamples {
		devs := make([]float32, len(entries))
		for i, r := range entries {
			devs[i] = float32(math.Abs(float64(r-median))) * 1e6
		}
		sort.Slice(devs, func(i, j int) bool { return devs[i] < devs[j] })
		madPPM := medianOf(devs)
		if madPPM <= LongAverageFreezePPM {
			shouldFreeze = true
		}
	}

	if shouldFreeze {
		e.long.frozenRatio = median
		e.long.ready = true
		e.long.active = false
	}
}

// updateBestGuess runs the continuous best-guess EMA:
// an EMA of the stability ring's median ratio, updated whenever the ring
// has at least StabilityMedianWindow entries.
func (e *Engine) updateBestGuess() {
	median, _, _, ok := e.stabilityMedianAndMAD()
	if !ok {
		return
	}
	e.best2Ratio += BestGuessEMAAlpha * (median - e.best2Ratio)
}
