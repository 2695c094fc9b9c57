package hostsim

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WavProducer feeds the engine from a mono (or downmixed) PCM WAV file
// instead of a synthesized scenario.
type WavProducer struct {
	decoder    *wav.Decoder
	file       *os.File
	sampleRate int
	bitDepth   int
	numChans   int
	exhausted  bool
}

// NewWavProducer opens path and prepares it for quantum-sized reads.
func NewWavProducer(path string) (*WavProducer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hostsim: failed to open wav file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("hostsim: %s is not a valid WAV file", path)
	}

	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("hostsim: failed to seek to PCM data: %w", err)
	}

	return &WavProducer{
		decoder:    decoder,
		file:       f,
		sampleRate: int(decoder.SampleRate),
		bitDepth:   int(decoder.BitDepth),
		numChans:   int(decoder.NumChans),
	}, nil
}

// SampleRate is the WAV file's native sample rate.
func (p *WavProducer) SampleRate() int { return p.sampleRate }

// NumChannels is the WAV file's channel count; NextQuantum downmixes to
// mono by averaging channels when this is greater than 1.
func (p *WavProducer) NumChannels() int { return p.numChans }

// NextQuantum fills dst with the next len(dst) mono samples, downmixing
// multi-channel files by averaging channels. It returns false once the
// file is exhausted, after zero-filling any unfilled tail of dst.
func (p *WavProducer) NextQuantum(dst []float32) bool {
	if p.exhausted {
		for i := range dst {
			dst[i] = 0
		}
		return false
	}

	want := len(dst) * p.numChans
	buf := &goaudio.IntBuffer{
		Data: make([]int, want),
		Format: &goaudio.Format{
			NumChannels: p.numChans,
			SampleRate:  p.sampleRate,
		},
	}

	n, err := p.decoder.PCMBuffer(buf)
	if err != nil && err != io.EOF {
		p.exhausted = true
		for i := range dst {
			dst[i] = 0
		}
		return false
	}

	maxVal := float64(goaudio.IntMaxSignedValue(p.bitDepth))
	frames := n / p.numChans
	for i := 0; i < len(dst); i++ {
		if i >= frames {
			dst[i] = 0
			continue
		}
		var sum float64
		for c := 0; c < p.numChans; c++ {
			sum += float64(buf.Data[i*p.numChans+c])
		}
		dst[i] = float32(sum / float64(p.numChans) / maxVal)
	}

	if n < want || err == io.EOF {
		p.exhausted = true
		return frames >= len(dst)
	}
	return true
}

// Close releases the underlying file handle.
func (p *WavProducer) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}
