// Package main is the entry point for the tunerd daemon.
// tunerd runs the pitch-analysis engine headless, fed either by a
// synthetic scenario or a WAV file, and exposes its output surface to
// clients over IPC.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/austinkregel/tunercore/internal/abi"
	"github.com/austinkregel/tunercore/internal/config"
	"github.com/austinkregel/tunercore/internal/engine"
	"github.com/austinkregel/tunercore/internal/hostsim"
	"github.com/austinkregel/tunercore/internal/ipc"
)

// Version is set at build time via ldflags.
var Version = "dev"

// daemonFlags holds daemon configuration parsed from the command line.
type daemonFlags struct {
	SocketPath string
	ConfigDir  string
	WavPath    string
	Scenario   string
	Verbose    bool
}

func main() {
	cfg := parseFlags()

	if cfg.Verbose {
		log.Printf("tunerd version %s starting...", Version)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func parseFlags() *daemonFlags {
	cfg := &daemonFlags{}

	flag.StringVar(&cfg.SocketPath, "socket", "", "IPC socket path (default: auto-generated based on UID)")
	flag.StringVar(&cfg.ConfigDir, "config", "", "Configuration directory (default: ~/.config/tunerd)")
	flag.StringVar(&cfg.WavPath, "wav", "", "Feed the engine from a WAV file instead of a synthetic scenario")
	flag.StringVar(&cfg.Scenario, "scenario", "", "Synthetic scenario to run when --wav is not set (pure-tone, struck-decay, silence, out-of-band)")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	flag.Parse()

	if cfg.ConfigDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		cfg.ConfigDir = homeDir + "/.config/tunerd"
	}

	if cfg.SocketPath == "" {
		cfg.SocketPath = fmt.Sprintf("/tmp/tunerd-%d.sock", os.Getuid())
	}

	return cfg
}

func run(ctx context.Context, flags *daemonFlags) error {
	if err := os.MkdirAll(flags.ConfigDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configMgr := config.NewManager(flags.ConfigDir)
	if err := configMgr.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := configMgr.Get()

	if flags.Scenario != "" {
		cfg.Hostsim.Scenario = flags.Scenario
	}
	if flags.WavPath != "" {
		cfg.Hostsim.WavPath = flags.WavPath
	}

	core, err := abi.New(cfg.Engine.RingCapacity)
	if err != nil {
		return fmt.Errorf("failed to initialize engine core: %w", err)
	}
	core.SetSampleRate(cfg.Engine.SampleRateHz)
	core.SetZoomParams(cfg.Engine.ZoomCenterHz, cfg.Engine.ZoomSpanCents, cfg.Engine.ZoomEnabled)

	server := ipc.NewServer(flags.SocketPath, configMgr, core)

	prod, cleanup, err := buildProducer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize producer: %w", err)
	}
	defer cleanup()

	log.Printf("[HOSTSIM] Driving engine from %s", producerDescription(cfg))
	go driveProducer(ctx, core, server, prod)

	log.Printf("[IPC] Starting IPC server on %s", flags.SocketPath)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("IPC server error: %w", err)
	}

	return nil
}

func producerDescription(cfg *config.Config) string {
	if cfg.Hostsim.WavPath != "" {
		return fmt.Sprintf("wav file %s", cfg.Hostsim.WavPath)
	}
	return fmt.Sprintf("synthetic scenario %q", cfg.Hostsim.Scenario)
}

func buildProducer(cfg *config.Config) (hostsim.Producer, func(), error) {
	if cfg.Hostsim.WavPath != "" {
		wp, err := hostsim.NewWavProducer(cfg.Hostsim.WavPath)
		if err != nil {
			return nil, nil, err
		}
		return wp, func() { wp.Close() }, nil
	}

	gen, err := hostsim.NewGenerator(
		hostsim.Scenario(cfg.Hostsim.Scenario),
		cfg.Engine.ZoomCenterHz,
		cfg.Engine.SampleRateHz,
		0.5,
	)
	if err != nil {
		return nil, nil, err
	}
	return hostsim.NewGeneratorProducer(gen), func() {}, nil
}

// driveProducer runs the producer loop at roughly real-time cadence,
// pushing a fresh snapshot to subscribers after every completed pass
// (every PassInterval/Quantum quanta).
func driveProducer(ctx context.Context, core *abi.Core, server *ipc.Server, prod hostsim.Producer) {
	runner := hostsim.NewRunner(core, prod)
	quantaPerPass := engine.PassInterval / engine.Quantum
	quantumPeriod := time.Duration(float64(engine.Quantum)/engine.DefaultSampleRate*1e9) * time.Nanosecond

	ticker := time.NewTicker(quantumPeriod * time.Duration(quantaPerPass))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runner.RunQuanta(quantaPerPass)
			server.PushSnapshot(core.Snapshot())
		}
	}
}
