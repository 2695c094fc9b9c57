package engine

import (
	"math"
	"testing"

	"github.com/austinkregel/tunercore/internal/ring"
)

const testCapacity = 2 * MinRingCapacity

// driveSine pushes n samples of amplitude*sin(2*pi*freqHz*i/sampleRate)
// through r and e, one Quantum at a time, ending with the final quantum's
// ProcessQuantum call.
func driveSine(t *testing.T, e *Engine, r *ring.Buffer, freqHz, amplitude, sampleRate float64, n int) {
	t.Helper()
	quantum := make([]float32, Quantum)
	sampleIdx := 0
	omega := 2 * math.Pi * freqHz / sampleRate
	for sampleIdx < n {
		at := r.WritePos()
		for i := range quantum {
			quantum[i] = float32(amplitude * math.Sin(omega*float64(sampleIdx+i)))
		}
		r.WriteAt(at, quantum)
		r.Advance(len(quantum))
		e.ProcessQuantum(r, len(quantum))
		sampleIdx += len(quantum)
	}
}

func newTestRing(t *testing.T) *ring.Buffer {
	t.Helper()
	r, err := ring.New(testCapacity)
	if err != nil {
		t.Fatalf("ring.New failed: %v", err)
	}
	return r
}

func TestProcessQuantumSkipsUntilRingFilled(t *testing.T) {
	e := New()
	r := newTestRing(t)

	quantum := make([]float32, Quantum)
	for i := range quantum {
		quantum[i] = 0.1
	}

	r.WriteAt(0, quantum)
	r.Advance(len(quantum))
	e.ProcessQuantum(r, len(quantum))

	if e.Filled() {
		t.Fatal("expected engine not to be filled after a single quantum")
	}
}

func TestZeroInputYieldsZeroRMSAndLowLockInMagnitude(t *testing.T) {
	e := New()
	r := newTestRing(t)
	driveSine(t, e, r, 440, 0, DefaultSampleRate, 2*testCapacity)

	if e.RMS() != 0 {
		t.Errorf("expected RMS 0 for silent input, got %v", e.RMS())
	}
	if e.LockInMag(2) >= 1e-6 {
		t.Errorf("expected lockin2 magnitude < 1e-6 for silent input, got %v", e.LockInMag(2))
	}
	if e.CaptureValid() {
		t.Error("expected no capture to latch on silent input")
	}
}

func TestPureToneA4LockInCentsNearZero(t *testing.T) {
	e := New()
	r := newTestRing(t)
	driveSine(t, e, r, 440, 0.5, DefaultSampleRate, 3*testCapacity)

	cents := e.LockInCents(2)
	if math.Abs(float64(cents)) > 0.5 {
		t.Errorf("expected lockin2_cents near 0 for 440Hz tone, got %v", cents)
	}
	ratio1 := e.LockInRatio(1)
	if ratio1 < 1-5e-5 || ratio1 > 1+5e-5 {
		t.Errorf("expected lockin1_ratio within 5e-5 of 1, got %v", ratio1)
	}
}

func TestPureTonePlusTenCents(t *testing.T) {
	e := New()
	r := newTestRing(t)
	f := 440.0 * math.Pow(2, 10.0/1200.0)
	driveSine(t, e, r, f, 0.5, DefaultSampleRate, 3*testCapacity)

	cents := e.LockInCents(2)
	if cents < 9.0 || cents > 11.0 {
		t.Errorf("expected lockin2_cents near +10, got %v", cents)
	}
}

func TestHarmonicBeyondNyquistIsZeroed(t *testing.T) {
	e := New()
	e.coarsePeakFreq = e.fsEff() // the decimated sample rate, twice its Nyquist
	e.computeHarmonics()

	for i, k := range HarmonicFactors {
		x := float64(k) * float64(e.coarsePeakFreq) / float64(e.binHz())
		if x >= float64(N/2) {
			if e.harmonicFreq[i] != 0 || e.harmonicMag[i] != 0 {
				t.Errorf("harmonic %d: expected (0,0) beyond Nyquist, got (%v,%v)", k, e.harmonicFreq[i], e.harmonicMag[i])
			}
		}
	}
}

func TestZoomGridShape(t *testing.T) {
	e := New()
	grid := e.ZoomGrid()
	if len(grid) != ZoomUIBins {
		t.Fatalf("expected zoom grid length %d, got %d", ZoomUIBins, len(grid))
	}
	binCents := 2 * ZoomSpanCents / float64(ZoomUIBins)
	wantStart := -ZoomSpanCents
	gotStart := -float64(e.zoomSpanCents)
	if math.Abs(gotStart-wantStart) > 1e-9 {
		t.Errorf("expected zoom_start_cents %v, got %v", wantStart, gotStart)
	}
	wantBin := 240.0 / 2048.0
	if math.Abs(binCents-wantBin) > 1e-9 {
		t.Errorf("expected zoom_bin_cents ~= %v, got %v", wantBin, binCents)
	}
}

func TestTotalSamplesMonotonic(t *testing.T) {
	e := New()
	r := newTestRing(t)

	var last uint64
	quantum := make([]float32, Quantum)
	for i := 0; i < 4; i++ {
		at := r.WritePos()
		r.WriteAt(at, quantum)
		r.Advance(len(quantum))
		e.ProcessQuantum(r, len(quantum))
		total := r.TotalSamples()
		if total <= last {
			t.Fatalf("expected total_samples to strictly increase, got %d after %d", total, last)
		}
		last = total
	}
}

func TestResetCaptureClearsValidFlag(t *testing.T) {
	e := New()
	r := newTestRing(t)
	driveSine(t, e, r, 441, 0.5, DefaultSampleRate, 3*testCapacity)

	e.ResetCapture()
	if e.CaptureValid() {
		t.Error("expected capture_valid == 0 immediately after ResetCapture")
	}
}

func TestSetWritePosTwiceSamePosLeavesOutputsUnchanged(t *testing.T) {
	e := New()
	r := newTestRing(t)
	driveSine(t, e, r, 440, 0.5, DefaultSampleRate, 3*testCapacity)

	before := e.HybridCents()
	beforeRMS := e.RMS()
	pos := r.WritePos()

	r.SetWritePos(pos)
	e.ProcessQuantum(r, Quantum)
	r.SetWritePos(pos)
	e.ProcessQuantum(r, Quantum)

	after := e.HybridCents()
	afterRMS := e.RMS()
	if before != after {
		t.Errorf("expected hybrid cents unchanged by repeated SetWritePos, got %v then %v", before, after)
	}
	if beforeRMS != afterRMS {
		t.Errorf("expected RMS unchanged by repeated SetWritePos, got %v then %v", beforeRMS, afterRMS)
	}
}

func TestOutOfBandToneProducesNoNaNOrInf(t *testing.T) {
	e := New()
	r := newTestRing(t)
	driveSine(t, e, r, 200, 0.5, DefaultSampleRate, 3*testCapacity)

	checks := map[string]float32{
		"rms":          e.RMS(),
		"coarsePeak":   e.CoarsePeakFreq(),
		"lockin1Cents": e.LockInCents(1),
		"lockin2Cents": e.LockInCents(2),
		"hybridCents":  e.HybridCents(),
		"bestGuess":    e.BestGuessCents(),
	}
	for name, v := range checks {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Errorf("%s: expected finite value, got %v", name, v)
		}
	}
}
