// Package hostsim supplies synthetic and file-backed producers that stand
// in for the real audio host during development and testing: anything
// that can deliver Quantum-sized chunks of float32 samples and drive
// abi.Core's producer contract one quantum at a time.
package hostsim

import (
	"fmt"
	"math"

	"github.com/austinkregel/tunercore/internal/engine"
)

// Scenario identifies one of the built-in synthetic waveforms used to
// exercise the engine without a real audio host.
type Scenario string

const (
	// ScenarioPureTone synthesizes a stationary sine at ToneHz (S1/S2/S6).
	ScenarioPureTone Scenario = "pure-tone"
	// ScenarioStruckDecay synthesizes an exponentially decaying sine,
	// mimicking a struck or plucked string (S3).
	ScenarioStruckDecay Scenario = "struck-decay"
	// ScenarioSilence emits zeros (S4).
	ScenarioSilence Scenario = "silence"
	// ScenarioOutOfBand synthesizes a tone far outside the coarse search
	// band (S5).
	ScenarioOutOfBand Scenario = "out-of-band"
)

// StruckDecayTau is the decay time constant used by ScenarioStruckDecay,
// in seconds: the envelope follows e^(-n/(0.3*fs)).
const StruckDecayTau = 0.3

// OutOfBandHz is the tone frequency used by ScenarioOutOfBand.
const OutOfBandHz = 200.0

// Generator produces successive Quantum-sized blocks of float32 samples
// for one synthetic scenario at a fixed sample rate and tone frequency.
type Generator struct {
	scenario   Scenario
	toneHz     float64
	sampleRate float64
	amplitude  float64
	n          uint64 // samples generated so far, for phase continuity
}

// NewGenerator constructs a Generator. toneHz is ignored for
// ScenarioSilence and ScenarioOutOfBand (which use OutOfBandHz).
func NewGenerator(scenario Scenario, toneHz, sampleRate, amplitude float64) (*Generator, error) {
	switch scenario {
	case ScenarioPureTone, ScenarioStruckDecay, ScenarioSilence, ScenarioOutOfBand:
	default:
		return nil, fmt.Errorf("hostsim: unknown scenario %q", scenario)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("hostsim: sampleRate must be positive, got %v", sampleRate)
	}
	return &Generator{
		scenario:   scenario,
		toneHz:     toneHz,
		sampleRate: sampleRate,
		amplitude:  amplitude,
	}, nil
}

// NextQuantum fills dst (length engine.Quantum, or any caller-chosen
// length) with the next block of the scenario's waveform and advances the
// generator's internal phase counter.
func (g *Generator) NextQuantum(dst []float32) {
	switch g.scenario {
	case ScenarioSilence:
		for i := range dst {
			dst[i] = 0
		}
		g.n += uint64(len(dst))
		return
	case ScenarioOutOfBand:
		g.fillSine(dst, OutOfBandHz, g.amplitude, 0)
		return
	case ScenarioStruckDecay:
		g.fillDecayingSine(dst, g.toneHz, g.amplitude)
		return
	default: // ScenarioPureTone
		g.fillSine(dst, g.toneHz, g.amplitude, 0)
		return
	}
}

func (g *Generator) fillSine(dst []float32, freqHz, amplitude, phase0 float64) {
	omega := 2 * math.Pi * freqHz / g.sampleRate
	for i := range dst {
		n := float64(g.n + uint64(i))
		dst[i] = float32(amplitude * math.Sin(omega*n+phase0))
	}
	g.n += uint64(len(dst))
}

func (g *Generator) fillDecayingSine(dst []float32, freqHz, amplitude float64) {
	omega := 2 * math.Pi * freqHz / g.sampleRate
	tauSamples := StruckDecayTau * g.sampleRate
	for i := range dst {
		n := float64(g.n + uint64(i))
		env := math.Exp(-n / tauSamples)
		dst[i] = float32(amplitude * env * math.Sin(omega*n))
	}
	g.n += uint64(len(dst))
}

// Producer is anything that can deliver one engine.Quantum-sized block of
// samples at a time, matching abi.Core's WriteInput+ProcessQuantum
// producer contract.
type Producer interface {
	// NextQuantum fills dst (length engine.Quantum) with the next block of
	// samples. It returns false when the source is exhausted.
	NextQuantum(dst []float32) bool
}

// generatorProducer adapts a Generator (which never exhausts) to the
// Producer interface.
type generatorProducer struct {
	gen *Generator
}

// NewGeneratorProducer wraps a Generator as an unbounded Producer.
func NewGeneratorProducer(gen *Generator) Producer {
	return &generatorProducer{gen: gen}
}

func (p *generatorProducer) NextQuantum(dst []float32) bool {
	p.gen.NextQuantum(dst)
	return true
}
