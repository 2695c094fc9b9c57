// Package engine implements the pitch-analysis pipeline: a
// periodically-triggered pass keyed off the producer's
// sample-write position, combining a coarse real FFT, a heterodyned
// baseband zoom-FFT, a coherent lock-in demodulator, and a stability/capture
// state machine.
//
// Engine packages every pipeline stage's buffers and plans into one struct:
// the caller owns an Engine exclusively and drives it from a single thread,
// cooperatively scheduled alongside the producer. Every buffer and FFT
// plan is built once in New; the median and MAD computations of the
// stability and long-average stages still allocate small temporary slices
// on each pass.
package engine

import (
	"math"

	"github.com/austinkregel/tunercore/internal/ring"
	"github.com/austinkregel/tunercore/internal/windows"
)

const (
	// N is the length of the decimated, windowed time buffer.
	N = 32768
	// M is the length of the baseband zoom buffer.
	M = 2048
	// DecimationD is the block-averaging decimation factor applied during
	// heterodyne.
	DecimationD = 16
	// Quantum is the host's fixed callback chunk size in samples.
	Quantum = 128
	// PassInterval is the number of samples between passes: one pass per
	// eight quanta.
	PassInterval = 8 * Quantum
	// MinRingCapacity is the smallest ring capacity the engine can read a
	// full window from: capacity must be at least 2N.
	MinRingCapacity = 2 * N

	// CenterHz is the nominal fundamental the engine is tuned around.
	CenterHz = 440.0
	// DefaultSampleRate is the nominal input sample rate.
	DefaultSampleRate = 48000.0

	// CoarseBandCents is the half-width of the coarse-peak search band
	// around the zoom center frequency (CenterHz by default).
	CoarseBandCents = 120.0

	// ZoomUIBins is the length of the cents-indexed zoom grid.
	ZoomUIBins = 2048
	// ZoomSpanCents is the half-width of the zoom grid's cents axis.
	ZoomSpanCents = 120.0
	// ZoomMicroShifts is the number of phase-shifted FFT variants used to
	// synthesize the fine cents grid. Either 4 or 32 shifts produce a usable
	// grid; 4 is chosen here to keep the zoom stage inside its
	// ~25% pass budget (32 shifts would mean 32 separate M-point FFTs per
	// pass, dominating the whole pipeline).
	ZoomMicroShifts = 4

	// GoertzelSpanCents is the half-width of the dense fundamental Goertzel
	// sweep.
	GoertzelSpanCents = 20.0
	// GoertzelStepCents is the sweep step.
	GoertzelStepCents = 0.125

	// SecondHarmonicHz is the center of the second heterodyne/Goertzel pass.
	SecondHarmonicHz = 2 * CenterHz
	// SecondGoertzelSpanCents is the half-width of the 2x Goertzel sweep.
	SecondGoertzelSpanCents = 15.0

	// EnvelopeLen is the length of the decimated strike-envelope buffer.
	EnvelopeLen = 1024
	// EnvelopeBlockSize is the number of time-domain samples folded into
	// one envelope bucket: N / EnvelopeLen.
	EnvelopeBlockSize = N / EnvelopeLen

	// StabilityRingSize is the size of the sliding ratio ring.
	StabilityRingSize = 16
	// StabilityMedianWindow is how many of the most recent ring entries
	// feed the median/MAD computation.
	StabilityMedianWindow = 6
	// StabilityMADPPMThreshold gates stability-path capture.
	StabilityMADPPMThreshold = 150.0
	// StabilityMADCentsThreshold gates stability-path capture.
	StabilityMADCentsThreshold = 1.0

	// LongAverageRingSize is the size of the post-attack averaging ring.
	LongAverageRingSize = 64
	// LongAverageMinSamples is the minimum fill before freezing is considered.
	LongAverageMinSamples = 12
	// LongAverageFreezePPM freezes the long average once MAD drops below this.
	LongAverageFreezePPM = 60.0
	// LongAverageMaxWindows freezes the long average unconditionally after
	// this many post-arm passes.
	LongAverageMaxWindows = 128

	// AttackPeakMaxIndex bounds how early in the envelope an attack peak
	// must land to be accepted.
	AttackPeakMaxIndex = 256
	// AttackMinMagnitude is the minimum envelope peak value an attack
	// candidate must clear.
	AttackMinMagnitude = 1e-4
	// AttackStrengthFactor is how much stronger a new attack must be than
	// any capture still in effect.
	AttackStrengthFactor = 1.5
	// RefractorySeconds is the minimum time between accepted attacks.
	RefractorySeconds = 0.25

	// HybridEnvelopeScale normalizes the envelope peak into the hybrid
	// blend weight.
	HybridEnvelopeScale = 0.02

	// BestGuessEMAAlpha is the smoothing factor for the continuous
	// best-guess EMA.
	BestGuessEMAAlpha = 0.25

	// CentsClamp bounds every cents output.
	CentsClamp = 50.0
	// RatioFloor is the minimum ratio passed to log2.
	RatioFloor = 1e-12
)

// HarmonicFactors are the harmonic multiples the coarse stage refines.
var HarmonicFactors = [5]int{2, 3, 4, 6, 8}

// Engine owns every buffer, plan, and piece of cross-pass state for the
// pipeline. The zero value is not usable; construct with New.
type Engine struct {
	sampleRate float32 // nominal input sample rate, Hz

	// zoom retuning: defaults reproduce the original fixed-zoom behavior,
	// but a consumer may retune at runtime.
	zoomCenterHz   float32
	zoomSpanCents  float32
	zoomEnabled    bool

	plans *plans

	// scratch, preallocated once in New; reused every pass.
	rawWindow    []float32 // 2N raw samples read from the ring
	decimated    []float64 // N 2:1-averaged samples, pre-window
	timeBuf      []float64 // N decimated + Blackman-Harris windowed samples
	coarseSpec   []complex128

	basebandDec    []complex128 // M decimated baseband samples (fundamental)
	basebandWin    []complex128 // M Hann-windowed copy used for micro-shift FFTs
	basebandShift  []complex128 // scratch for one micro-shifted FFT
	superMag       []float32    // M*ZoomMicroShifts fine-grid magnitudes

	baseband2Dec []complex128 // M decimated baseband samples at 2x (second harmonic)

	harmonicFreq [5]float32
	harmonicMag  [5]float32

	zoomGrid [ZoomUIBins]float32

	rms             float32
	coarsePeakBin   int
	coarsePeakFreq  float32
	coarsePeakMag   float32

	gzBestCents float32
	gzBestMag   float32
	gzBestFreq  float32

	gz2BestCents float32
	gz2BestMag   float32
	gz2BestFreq  float32

	lockin      [3]lockinState // indexed by k (1 and 2 used; 0 unused)
	totalAtLast uint64
	havePass    bool

	envelope       [EnvelopeLen]float32
	envelopePeakIdx int
	envelopePeakVal float32
	envelopePeakMs  float32

	stability stabilityRing
	capture   captureState
	long      longAverageRing

	best2Ratio float32

	hybridRatio float32
	hybridCents float32

	filled bool
}

type lockinState struct {
	prevZ    complex128
	hasPrev  bool
	ratio    float32
	cents    float32
	mag      float32
	lastF    float32
	zeroed   bool
}

// New constructs an Engine with every plan, window table, and scratch
// buffer preallocated. It corresponds to the source ABI's init() call,
// minus the ring allocation itself (callers own their ring.Buffer and pass
// it to ProcessQuantum).
func New() *Engine {
	e := &Engine{
		sampleRate:    DefaultSampleRate,
		zoomCenterHz:  CenterHz,
		zoomSpanCents: ZoomSpanCents,
		zoomEnabled:   true,
		best2Ratio:    1.0,
	}
	e.plans = newPlans(windows.BlackmanHarris(N), windows.Hann(M))

	e.rawWindow = make([]float32, 2*N)
	e.decimated = make([]float64, N)
	e.timeBuf = make([]float64, N)
	e.coarseSpec = make([]complex128, N/2+1)

	e.basebandDec = make([]complex128, M)
	e.basebandWin = make([]complex128, M)
	e.basebandShift = make([]complex128, M)
	e.superMag = make([]float32, M*ZoomMicroShifts)

	e.baseband2Dec = make([]complex128, M)

	return e
}

// SetSampleRate sets the nominal input sample rate (default 48000).
func (e *Engine) SetSampleRate(fs float32) {
	if fs <= 0 {
		return
	}
	e.sampleRate = fs
}

// SetZoomParams retunes the baseband zoom's center frequency and cents span
// at runtime, supplementing the original engine's set_zoom_params. The
// default parameters reproduce the fixed ±120-cent zoom around 440Hz
// exactly.
func (e *Engine) SetZoomParams(centerHz, spanCents float32, enabled bool) {
	if centerHz > 0 {
		e.zoomCenterHz = centerHz
	}
	if spanCents > 0 {
		e.zoomSpanCents = spanCents
	}
	e.zoomEnabled = enabled
}

// ResetCapture clears the latched capture and long-average state.
func (e *Engine) ResetCapture() {
	e.capture = captureState{}
	e.long = longAverageRing{}
}

// fsEff is the effective sample rate after 2:1 decimation.
func (e *Engine) fsEff() float32 { return e.sampleRate / 2 }

// binHz is the coarse FFT's bin width at fs_eff.
func (e *Engine) binHz() float32 { return e.fsEff() / float32(N) }

// ProcessQuantum is the per-callback entry point: it corresponds to the
// source ABI's process_quantum(n). r is the ring the producer just wrote
// n new samples into and advanced past.
//
// Every failure mode here is a silent skip that leaves
// previously published outputs untouched; this method never returns an
// error.
func (e *Engine) ProcessQuantum(r *ring.Buffer, n int) {
	if r == nil || r.Capacity() == 0 || n <= 0 {
		return
	}

	e.rms = r.RMS(n)

	if r.Capacity() < MinRingCapacity {
		return
	}
	if r.TotalSamples() < uint64(2*N) {
		return
	}
	if r.WritePos()%PassInterval != 0 {
		return
	}

	e.filled = true
	e.pass(r)
}

// pass runs the full pipeline in order: read/window, coarse spectrum,
// harmonics, baseband zoom, lock-in, stability, capture, long average,
// best guess, hybrid fusion. Each stage writes its outputs directly into the
// engine's fields as it runs; because the engine is driven from a single
// thread, the output surface can only be read between passes, so a
// consumer never observes a partially updated pass.
func (e *Engine) pass(r *ring.Buffer) {
	totalSamples := r.TotalSamples()

	e.readAndWindow(r)
	e.computeCoarseSpectrum()
	e.computeHarmonics()
	if e.zoomEnabled {
		e.computeBasebandZoom()
	}
	e.computeLockIn(totalSamples)
	e.updateStability()
	e.updateCapture(totalSamples)
	e.updateLongAverage()
	e.updateBestGuess()
	e.computeHybrid()

	e.totalAtLast = totalSamples
	e.havePass = true
}

func clampCents(c float32) float32 {
	if c > CentsClamp {
		return CentsClamp
	}
	if c < -CentsClamp {
		return -CentsClamp
	}
	return c
}

func ratioToCents(r float32) float32 {
	if r < RatioFloor {
		r = RatioFloor
	}
	return clampCents(float32(1200 * math.Log2(float64(r))))
}
