// Package abi is the boundary layer described in the design notes: the
// core's logical interface is a flat, plain-data ABI (lifecycle calls,
// a producer contract, and a consumer contract of getters and
// pointer+length array pairs) so that a host can treat the engine as a
// zero-copy linear-memory region. Internally, buffers stay owned,
// bounds-checked Go slices; Core is where pointer-style semantics are
// modeled at the edge without leaking into the engine or ring packages.
//
// Core also synchronizes cross-goroutine access: the engine and ring are
// exclusively owned by the producer per pass, but an IPC server answers
// consumer requests from other goroutines, so every method here takes a
// single mutex for the duration of one call.
package abi

import (
	"fmt"
	"sync"

	"github.com/austinkregel/tunercore/internal/engine"
	"github.com/austinkregel/tunercore/internal/ipc"
	"github.com/austinkregel/tunercore/internal/ring"
)

// Core wraps one Engine and its backing ring behind the lifecycle,
// producer, and consumer contracts.
type Core struct {
	mu  sync.Mutex
	r   *ring.Buffer
	eng *engine.Engine
}

// New implements the lifecycle's init(capacity) call: it allocates the
// ring and engine together. Idempotent only in the sense that repeated
// calls each return an independent Core; there is no shared process-wide
// singleton.
func New(capacity int) (*Core, error) {
	r, err := ring.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("abi: failed to allocate ring: %w", err)
	}
	return &Core{
		r:   r,
		eng: engine.New(),
	}, nil
}

// SetSampleRate sets the nominal input sample rate.
func (c *Core) SetSampleRate(hz float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eng.SetSampleRate(float32(hz))
}

// SetZoomParams retunes the baseband zoom stage.
func (c *Core) SetZoomParams(centerHz, spanCents float64, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eng.SetZoomParams(float32(centerHz), float32(spanCents), enabled)
}

// ResetCapture clears the latched capture and long-average state.
func (c *Core) ResetCapture() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eng.ResetCapture()
}

// InputCapacity is the producer contract's get_input_capacity().
func (c *Core) InputCapacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.r.Capacity()
}

// WritePos is the producer contract's get_write_pos().
func (c *Core) WritePos() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.r.WritePos()
}

// WriteInput writes samples at ring[at:] with wraparound, matching
// get_input_ptr() + direct writes in the source ABI. It returns the next
// unwritten index, mirroring ring.Buffer.WriteAt.
func (c *Core) WriteInput(at int, data []float32) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.r.WriteAt(at, data)
}

// SetWritePos is the producer contract's set_write_pos(pos).
func (c *Core) SetWritePos(pos int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.r.SetWritePos(pos)
}

// ProcessQuantum is the producer contract's process_quantum(n): the caller
// must have already written n samples at the current write position (via
// WriteInput) for this quantum. It advances the ring's write cursor and
// monotonic sample counter by n before running the engine, matching the
// "write, then set_write_pos, then process_quantum" producer ordering.
func (c *Core) ProcessQuantum(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.r.Advance(n)
	c.eng.ProcessQuantum(c.r, n)
}

// Snapshot implements ipc.Controller: it reads every scalar and array
// output of the most recently completed pass under lock.
func (c *Core) Snapshot() ipc.SnapshotResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	madPPM, madCents, madOK := c.eng.StabilityMAD()

	return ipc.SnapshotResponse{
		Filled: c.eng.Filled(),

		RMS:            c.eng.RMS(),
		CoarsePeakBin:  c.eng.CoarsePeakBin(),
		CoarsePeakFreq: c.eng.CoarsePeakFreq(),
		CoarsePeakMag:  c.eng.CoarsePeakMag(),

		HarmonicsFreq: append([]float32(nil), c.eng.HarmonicsFreq()...),
		HarmonicsMag:  append([]float32(nil), c.eng.HarmonicsMag()...),

		ZoomCenterHz:  c.eng.ZoomCenterHz(),
		ZoomSpanCents: c.eng.ZoomSpanCents(),

		GoertzelBestCents: c.eng.GoertzelBestCents(),
		GoertzelBestMag:   c.eng.GoertzelBestMag(),
		GoertzelBestFreq:  c.eng.GoertzelBestFreq(),

		Goertzel2BestCents: c.eng.Goertzel2BestCents(),
		Goertzel2BestMag:   c.eng.Goertzel2BestMag(),
		Goertzel2BestFreq:  c.eng.Goertzel2BestFreq(),

		LockIn1Ratio:  c.eng.LockInRatio(1),
		LockIn1Cents:  c.eng.LockInCents(1),
		LockIn1Mag:    c.eng.LockInMag(1),
		LockIn1Zeroed: c.eng.LockInZeroed(1),

		LockIn2Ratio:  c.eng.LockInRatio(2),
		LockIn2Cents:  c.eng.LockInCents(2),
		LockIn2Mag:    c.eng.LockInMag(2),
		LockIn2Zeroed: c.eng.LockInZeroed(2),

		EnvelopePeakIdx: c.eng.EnvelopePeakIdx(),
		EnvelopePeakVal: c.eng.EnvelopePeakVal(),
		EnvelopePeakMs:  c.eng.EnvelopePeakMs(),

		StabilityMADPPM:   madPPM,
		StabilityMADCents: madCents,
		StabilityReady:    madOK,

		CaptureValid:  c.eng.CaptureValid(),
		CaptureCents:  c.eng.CaptureCents(),
		CaptureRatio:  c.eng.CaptureRatio(),
		CaptureMag:    c.eng.CaptureMag(),
		CapturePeakMs: c.eng.CapturePeakMs(),

		LongAverageReady: c.eng.LongAverageReady(),
		LongAverageRatio: c.eng.LongAverageRatio(),
		LongAverageCents: c.eng.LongAverageCents(),

		BestGuessRatio: c.eng.BestGuessRatio(),
		BestGuessCents: c.eng.BestGuessCents(),

		HybridRatio: c.eng.HybridRatio(),
		HybridCents: c.eng.HybridCents(),

		TotalSamples: c.eng.TotalAtLastPass(),
	}
}

// ZoomGrid returns the cents-indexed baseband zoom magnitude array
// (the consumer contract's zoom-magnitudes pointer+length pair).
func (c *Core) ZoomGrid() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float32(nil), c.eng.ZoomGrid()...)
}

// Envelope returns the decimated strike-envelope array (the consumer
// contract's envelope-capture pointer+length pair).
func (c *Core) Envelope() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float32(nil), c.eng.Envelope()...)
}
