// Package ring implements the input ring buffer the producer (the audio
// host) writes into and the engine reads from.
//
// The ring is the sole piece of shared state between the producer and the
// core: the producer is the only writer, the core only reads, and nothing
// else mutates it. Capacity is fixed at construction and never changes.
package ring

import (
	"fmt"
	"math"
)

// Buffer is a cyclic float32 sample buffer with a monotonic write cursor.
//
// It owns its backing array for the process lifetime. WritePos always
// satisfies 0 <= WritePos < len(samples); TotalSamples is the cumulative
// count of samples ever written and never wraps (it is a plain uint64, so
// at 48kHz it would take over 12 million years to overflow).
type Buffer struct {
	samples      []float32
	writePos     int
	totalSamples uint64
}

// New allocates a zeroed ring of the given capacity. capacity must be at
// least 1; the engine itself additionally requires capacity >= 2*N (see
// engine.MinRingCapacity) before it will run a full pass.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ring: capacity must be positive, got %d", capacity)
	}
	return &Buffer{samples: make([]float32, capacity)}, nil
}

// Capacity returns the ring's fixed size.
func (b *Buffer) Capacity() int { return len(b.samples) }

// WritePos returns the current write cursor.
func (b *Buffer) WritePos() int { return b.writePos }

// TotalSamples returns the monotonic count of samples written so far.
func (b *Buffer) TotalSamples() uint64 { return b.totalSamples }

// Samples exposes the backing array directly. Only the abi boundary layer
// and the producer are expected to use this; the engine reads through
// ReadWindow and RMS instead so ring-wrap arithmetic lives in one place.
func (b *Buffer) Samples() []float32 { return b.samples }

// WriteAt writes data starting at the given ring index, wrapping as
// necessary, and returns the index one past the last sample written (mod
// capacity). It does not advance WritePos or TotalSamples -- the producer
// calls Advance separately, matching the producer's write-then-advance contract:
// write samples, then set_write_pos, then process_quantum.
func (b *Buffer) WriteAt(at int, data []float32) int {
	cap := len(b.samples)
	idx := at % cap
	if idx < 0 {
		idx += cap
	}
	for _, s := range data {
		b.samples[idx] = s
		idx++
		if idx == cap {
			idx = 0
		}
	}
	return idx
}

// Advance moves the write cursor forward by n samples (mod capacity) and
// advances the monotonic sample counter by the same amount. This is the Go
// equivalent of the producer calling set_write_pos((write_pos + n) %
// capacity) followed by the counter bookkeeping the original ABI keeps
// separately.
func (b *Buffer) Advance(n int) {
	if n <= 0 {
		return
	}
	cap := len(b.samples)
	b.writePos = (b.writePos + n) % cap
	b.totalSamples += uint64(n)
}

// SetWritePos sets the write cursor directly, matching the raw set_write_pos
// ABI call. It does not touch TotalSamples: a producer that calls
// SetWritePos twice with the same position
// must leave every derived output unchanged, which only holds if the
// monotonic counter is untouched by a position-only update.
func (b *Buffer) SetWritePos(pos int) {
	cap := len(b.samples)
	pos %= cap
	if pos < 0 {
		pos += cap
	}
	b.writePos = pos
}

// ReadWindow reads the n samples ending at the current write position
// (wrap-aware) into dst, which must have length n. n may exceed Capacity();
// in that case samples are read with wraparound repeats, matching the
// source ABI's unchecked "(W + C - n%C) % C" index math -- the contract
// only promises correctness for n <= capacity, but the arithmetic itself
// never panics or goes out of bounds.
func (b *Buffer) ReadWindow(n int, dst []float32) {
	cap := len(b.samples)
	start := wrapBack(b.writePos, n, cap)
	idx := start
	for i := 0; i < n; i++ {
		dst[i] = b.samples[idx]
		idx++
		if idx == cap {
			idx = 0
		}
	}
}

// RMS computes the root-mean-square of the most recent n samples ending at
// the write position.
func (b *Buffer) RMS(n int) float32 {
	if n <= 0 {
		return 0
	}
	cap := len(b.samples)
	idx := wrapBack(b.writePos, n, cap)
	var sumSq float64
	for i := 0; i < n; i++ {
		s := float64(b.samples[idx])
		sumSq += s * s
		idx++
		if idx == cap {
			idx = 0
		}
	}
	return float32(math.Sqrt(sumSq / float64(n)))
}

// wrapBack returns (w - n) mod cap, matching the source's unchecked
// "(W + C - n%C) % C" index arithmetic.
func wrapBack(w, n, cap int) int {
	idx := (w + cap - n%cap) % cap
	if idx < 0 {
		idx += cap
	}
	return idx
}
