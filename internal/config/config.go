// Package config handles daemon configuration file management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the daemon configuration.
type Config struct {
	// SocketPath is stored in the config file; tunerd listens on the path
	// given by its --socket flag (default /tmp/tunerd-<uid>.sock) and does
	// not read this field.
	SocketPath string `yaml:"socketPath"`

	// Engine settings.
	Engine EngineConfig `yaml:"engine"`

	// Hostsim settings, used only when no real producer is attached.
	Hostsim HostsimConfig `yaml:"hostsim"`
}

// EngineConfig contains engine-tunable settings.
type EngineConfig struct {
	// SampleRateHz is the nominal input sample rate (default: 48000).
	SampleRateHz float64 `yaml:"sampleRateHz"`

	// RingCapacity is the ring buffer's sample capacity (default: 1<<17).
	RingCapacity int `yaml:"ringCapacity"`

	// ZoomCenterHz is the baseband zoom's default center frequency.
	ZoomCenterHz float64 `yaml:"zoomCenterHz"`

	// ZoomSpanCents is the baseband zoom's default half-width in cents.
	ZoomSpanCents float64 `yaml:"zoomSpanCents"`

	// ZoomEnabled toggles the baseband zoom stage.
	ZoomEnabled bool `yaml:"zoomEnabled"`
}

// HostsimConfig contains synthetic-producer settings.
type HostsimConfig struct {
	// WavPath, if set, feeds the hostsim producer from a WAV file instead
	// of a synthesized test tone.
	WavPath string `yaml:"wavPath"`

	// Scenario selects a built-in synthetic scenario (e.g. "pure-tone",
	// "struck-decay", "silence", "out-of-band") when WavPath is empty.
	Scenario string `yaml:"scenario"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SocketPath: "/tmp/tunerd.sock",
		Engine: EngineConfig{
			SampleRateHz:  48000,
			RingCapacity:  1 << 17,
			ZoomCenterHz:  440.0,
			ZoomSpanCents: 120.0,
			ZoomEnabled:   true,
		},
		Hostsim: HostsimConfig{
			Scenario: "pure-tone",
		},
	}
}

// Manager handles loading and saving configuration.
type Manager struct {
	configDir  string
	configPath string
	config     *Config
}

// NewManager creates a new configuration manager.
func NewManager(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configPath: filepath.Join(configDir, "config.yaml"),
		config:     DefaultConfig(),
	}
}

// Load reads the configuration from disk.
func (m *Manager) Load() error {
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		m.config = DefaultConfig()
		return m.Save()
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	m.config = config
	return nil
}

// Save writes the configuration to disk.
func (m *Manager) Save() error {
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	return m.config
}

// GetPath returns the config file path.
func (m *Manager) GetPath() string {
	return m.configPath
}

// Update updates the configuration and saves it.
func (m *Manager) Update(config *Config) error {
	m.config = config
	return m.Save()
}
