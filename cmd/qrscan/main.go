package main

import (
	stdcontext "context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"qrscan/pkg/config"
	"qrscan/pkg/context"
	"qrscan/pkg/hardware"
	"qrscan/pkg/log"
	"qrscan/pkg/metrics"
	"qrscan/pkg/result"
	"qrscan/pkg/station"
	"qrscan/pkg/submit"
	"qrscan/pkg/ui"
	"syscall"

	"golang.org/x/term"
)

// Station wires one scanning session: the scan source, the submission
// client, the presenter and the controller that owns the session state.
type Station struct {
	config  *config.Config
	metrics *metrics.Recorder
	wedge   *ui.Wedge
	source  hardware.ScanSource
	client  *submit.Client
}

func main() {
	// 1. Load configuration from flags.
	cfg := config.NewConfig()
	if err := run(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

// run owns every deferred cleanup; main only reports the error.
func run(cfg *config.Config) error {
	rec := metrics.NewRecorder(cfg.LogLevel <= log.LevelTrace)

	mode := resolveUI(cfg.UI)
	if mode == config.UITUI {
		// The TUI owns the terminal, so logs go to a file.
		restoreLog, err := log.ToFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer restoreLog()
	}

	st, err := NewStation(cfg, rec)
	if err != nil {
		return fmt.Errorf("failed to initialize station: %w", err)
	}
	defer st.source.Close()

	sigCtx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx := context.NewContext(sigCtx, cfg, rec)

	if err = rec.Record("Session", metrics.MLogic, func() error {
		return st.Run(runCtx, mode)
	}); err != nil {
		return fmt.Errorf("station failed: %w", err)
	}

	if cfg.PrintMetrics {
		metrics.PrintSummary(os.Stdout, rec)
	}
	if cfg.ResultsPath != "" {
		if _, err := config.EnsureDirectory(cfg.ResultsPath); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		files, err := result.NewWriter(cfg.ResultsPath, cfg.Source).WriteAllResults(rec)
		if err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		for _, f := range files {
			fmt.Println("Results written to", f)
		}
	}
	return nil
}

// NewStation creates the scan source and submission client for cfg.
func NewStation(cfg *config.Config, rec *metrics.Recorder) (*Station, error) {
	log.Debug("Initializing scan source %s and client for %s", cfg.Source, cfg.Endpoint)

	st := &Station{config: cfg, metrics: rec, wedge: ui.NewWedge()}
	var err error
	st.source, err = hardware.New(cfg, st.wedge.Reader())
	if err != nil {
		return nil, err
	}
	st.client = submit.New(cfg, rec)
	return st, nil
}

// Run drives the session with the presenter selected by mode until the
// operator exits or ctx is cancelled.
func (s *Station) Run(ctx *context.OperationContext, mode config.UIMode) error {
	var err error
	switch mode {
	case config.UITUI:
		err = s.runTUI(ctx)
	default:
		err = s.runConsole(ctx)
	}
	if errors.Is(err, stdcontext.Canceled) {
		log.Info("Interrupted")
		return nil
	}
	return err
}

func (s *Station) runTUI(ctx *context.OperationContext) error {
	tui := ui.NewTUI(s.wedge)
	if err := tui.Start(); err != nil {
		return fmt.Errorf("failed to start the terminal UI: %w", err)
	}
	defer tui.Close()

	ctrl := station.New(s.config, s.source, s.client, tui)
	uiErr := make(chan error, 1)
	go func() { uiErr <- tui.Run(ctrl, ctrl.Done()) }()

	err := ctrl.Run(ctx)
	if e := <-uiErr; e != nil && err == nil {
		err = e
	}
	return err
}

func (s *Station) runConsole(ctx *context.OperationContext) error {
	console := ui.NewConsole(os.Stdin, os.Stdout, s.wedge)
	ctrl := station.New(s.config, s.source, s.client, console)
	go func() {
		if err := console.Run(ctrl); err != nil {
			log.Error("Console input failed: %v", err)
			ctrl.Dispatch(station.Exit)
		}
	}()
	return ctrl.Run(ctx)
}

// resolveUI picks the TUI for "auto" when both stdin and stdout are terminals.
func resolveUI(mode config.UIMode) config.UIMode {
	if mode != config.UIAuto {
		return mode
	}
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return config.UITUI
	}
	return config.UIConsole
}
