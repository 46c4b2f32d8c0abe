// Command susres-sim runs the suspend/resume service against simulated
// hardware.
//
// It has two modes:
//   - Interactive: a readline console for driving the orchestrator by hand
//     (register subscribers, request suspend cycles, inspect the marker page).
//   - Scenario: replay one YAML scenario file or a directory of them and
//     exit non-zero if any step fails.
//
// Usage:
//
//	susres-sim [flags]
//
// Flags:
//
//	-scenario string   Scenario file or directory to replay (interactive if empty)
//	-timeout duration  Suspend cycle timeout (default 5s)
//	-seed-lo uint      Low build-seed word (default 1)
//	-seed-hi uint      High build-seed word (default 2)
//	-pid uint          Resume process id written to the marker (default 1)
//	-auto-advance uint Virtual clock step per read, in ms (default 1)
//	-trace string      Write a CBOR event trace (.strace) to this file
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Interactive console with tracing
//	susres-sim -trace session.strace
//
//	# Replay a scenario directory
//	susres-sim -scenario ./scenarios -log-level debug
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/haven-os/susres-go/internal/mockhw"
	"github.com/haven-os/susres-go/internal/scenario"
	"github.com/haven-os/susres-go/pkg/boot"
	"github.com/haven-os/susres-go/pkg/log"
	"github.com/haven-os/susres-go/pkg/marker"
	"github.com/haven-os/susres-go/pkg/susres"
	"github.com/haven-os/susres-go/pkg/version"
)

// Config holds the simulator configuration.
type Config struct {
	ScenarioPath string
	Timeout      time.Duration
	SeedLo       uint
	SeedHi       uint
	ResumePID    uint
	AutoAdvance  uint
	TraceFile    string
	LogLevel     string
}

var config Config

func init() {
	flag.StringVar(&config.ScenarioPath, "scenario", "", "Scenario file or directory to replay (interactive if empty)")
	flag.DurationVar(&config.Timeout, "timeout", susres.DefaultTimeout, "Suspend cycle timeout")
	flag.UintVar(&config.SeedLo, "seed-lo", 1, "Low build-seed word")
	flag.UintVar(&config.SeedHi, "seed-hi", 2, "High build-seed word")
	flag.UintVar(&config.ResumePID, "pid", 1, "Resume process id written to the marker")
	flag.UintVar(&config.AutoAdvance, "auto-advance", 1, "Virtual clock step per read, in ms")
	flag.StringVar(&config.TraceFile, "trace", "", "Write a CBOR event trace (.strace) to this file")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	logger := newLogger(config.LogLevel)
	logger.Info("suspend/resume simulator", "protocol", version.Current)

	engine := mockhw.NewEngine(
		mockhw.WithSeeds(marker.SeedPair{Lo: uint32(config.SeedLo), Hi: uint32(config.SeedHi)}),
		mockhw.WithResumePID(uint32(config.ResumePID)),
	)
	engine.SetAutoAdvance(uint64(config.AutoAdvance))

	opts := []susres.Option{
		susres.WithTimeout(config.Timeout),
		susres.WithLogger(logger),
	}

	var trace *log.FileLogger
	if config.TraceFile != "" {
		var err error
		trace, err = log.NewFileLogger(config.TraceFile)
		if err != nil {
			logger.Error("failed to open trace file", "path", config.TraceFile, "error", err)
			os.Exit(1)
		}
		defer trace.Close()
		opts = append(opts, susres.WithTraceLogger(trace))
		logger.Info("tracing to file", "path", config.TraceFile)
	}

	// The bootloader's half of the protocol runs first, exactly as it
	// would on hardware. Retained memory starts empty, so this is always
	// a cold boot - it is here to show the full sequence.
	verifier := boot.NewVerifier(engine, logger)
	if trace != nil {
		verifier.SetTrace(trace)
	}
	decision, err := verifier.Check()
	if err != nil {
		logger.Error("resume check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("boot decision",
		"resume", decision.Resume,
		"verdict", decision.Report.Verdict.String())

	orch := susres.New(engine, opts...)
	orch.Start()

	if config.ScenarioPath != "" {
		code := runScenarios(orch, engine, logger)
		orch.Close()
		os.Exit(code)
	}

	console := NewConsole(orch, engine, logger)
	console.Run()
	orch.Close()
}

// runScenarios replays the configured scenario file or directory and
// returns the process exit code.
func runScenarios(orch *susres.Orchestrator, engine *mockhw.Engine, logger *slog.Logger) int {
	scenarios, err := loadScenarios(config.ScenarioPath)
	if err != nil {
		logger.Error("failed to load scenarios", "path", config.ScenarioPath, "error", err)
		return 1
	}
	if len(scenarios) == 0 {
		logger.Error("no scenarios found", "path", config.ScenarioPath)
		return 1
	}

	failures := 0
	for _, sc := range scenarios {
		runner := scenario.NewRunner(orch, engine)
		if err := runner.Run(sc); err != nil {
			logger.Error("scenario failed", "id", sc.ID, "error", err)
			failures++
			continue
		}
		logger.Info("scenario passed", "id", sc.ID, "name", sc.Name)
	}

	fmt.Printf("%d/%d scenarios passed\n", len(scenarios)-failures, len(scenarios))
	if failures > 0 {
		return 1
	}
	return 0
}

func loadScenarios(path string) ([]*scenario.Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return scenario.LoadDirectory(path)
	}
	sc, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	return []*scenario.Scenario{sc}, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
