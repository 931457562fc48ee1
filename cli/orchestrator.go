// Package cli provides the command-line orchestrator for daemonfield. It
// interprets the resolved AppConfig and drives execution for each of the
// four operation modes (serve, sim, presets, logutil).
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daemonfield/config"
	"daemonfield/presets"
	"daemonfield/server"
	"daemonfield/session"
	"daemonfield/storage"
)

// Orchestrator drives one process run to completion according to
// AppCfg.Cli.Mode.
type Orchestrator struct {
	AppCfg *config.AppConfig
}

// NewOrchestrator builds an orchestrator for the given resolved config.
func NewOrchestrator(appCfg *config.AppConfig) *Orchestrator {
	return &Orchestrator{AppCfg: appCfg}
}

// Run executes the selected mode. It's the main entry point called by each
// cobra command after building and validating an AppConfig.
func (o *Orchestrator) Run() error {
	fmt.Printf("daemonfield starting in mode '%s'\n", o.AppCfg.Cli.Mode)

	startTime := time.Now()
	var err error
	switch o.AppCfg.Cli.Mode {
	case config.ModeServe:
		err = o.runServeMode()
	case config.ModeSim:
		err = o.runSimMode()
	case config.ModePresets:
		err = o.runPresetsMode()
	case config.ModeLogUtil:
		err = o.runLogUtilMode()
	default:
		return fmt.Errorf("unknown or unsupported mode in Orchestrator.Run: %s", o.AppCfg.Cli.Mode)
	}
	if err != nil {
		return fmt.Errorf("error during execution of mode '%s': %w", o.AppCfg.Cli.Mode, err)
	}

	fmt.Printf("daemonfield finished. Total duration: %s.\n", time.Since(startTime))
	return nil
}

// runServeMode starts the HTTP server and blocks until SIGINT/SIGTERM, then
// shuts it down gracefully.
func (o *Orchestrator) runServeMode() error {
	srv, err := server.NewServer(o.AppCfg)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		log.Printf("received signal %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

// runSimMode drives a single session.Controller headlessly for
// Cli.SimCycles ticks, optionally logging every frame to SQLite.
func (o *Orchestrator) runSimMode() error {
	cliCfg := o.AppCfg.Cli

	var logger *storage.SessionLogger
	if cliCfg.DbPath != "" {
		l, err := storage.NewSessionLogger(cliCfg.DbPath)
		if err != nil {
			return fmt.Errorf("failed to initialize session logger at %s: %w", cliCfg.DbPath, err)
		}
		logger = l
		defer func() {
			if err := logger.Close(); err != nil {
				log.Printf("error closing session logger: %v", err)
			}
		}()
		fmt.Printf("logging telemetry to %s\n", cliCfg.DbPath)
	}

	ctrl := session.NewController(o.AppCfg.Rand())
	frame, err := ctrl.Start(o.AppCfg.Session)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	if logger != nil {
		if err := logger.LogSessionStart(ctrl.ID.String(), o.AppCfg.Session); err != nil {
			log.Printf("failed to log session start: %v", err)
		}
		if err := logger.LogFrame(ctrl.ID.String(), frame); err != nil {
			log.Printf("failed to log frame: %v", err)
		}
	}

	fmt.Printf("running %d cycles...\n", cliCfg.SimCycles)
	for i := 0; i < cliCfg.SimCycles; i++ {
		frame, err = ctrl.Step(1)
		if err != nil {
			return fmt.Errorf("failed during step %d: %w", i, err)
		}
		if logger != nil {
			if err := logger.LogFrame(ctrl.ID.String(), frame); err != nil {
				log.Printf("failed to log frame at step %d: %v", i, err)
			}
		}
		if i%10 == 0 || i == cliCfg.SimCycles-1 {
			fmt.Printf("gen %d: active=%d daemons=%d avgSize=%.1f stability=%.3f\n",
				frame.Generation, frame.Stats.ActiveCells, frame.Stats.DaemonCount,
				frame.Stats.AvgDaemonSize, frame.Stats.Stability)
		}
	}

	fmt.Printf("final frame: generation=%d daemons=%d stability=%.3f\n",
		frame.Generation, frame.Stats.DaemonCount, frame.Stats.Stability)
	return nil
}

// runPresetsMode writes (or prints) the full preset catalogue as JSON.
func (o *Orchestrator) runPresetsMode() error {
	out := o.AppCfg.Cli.PresetsOutput
	if out != "" {
		if err := storage.ExportPresetCatalogJSON(out); err != nil {
			return fmt.Errorf("failed to export preset catalogue to %s: %w", out, err)
		}
		fmt.Printf("preset catalogue written to %s\n", out)
		return nil
	}

	entries := presets.All()
	descriptors := make([]storage.PresetDescriptor, 0, len(entries))
	for _, e := range entries {
		descriptors = append(descriptors, storage.ToDescriptor(e))
	}
	data, err := json.MarshalIndent(descriptors, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize preset catalogue: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// runLogUtilMode exports one table ("Sessions" or "Frames") of a session
// telemetry database to CSV or JSON.
func (o *Orchestrator) runLogUtilMode() error {
	cliCfg := o.AppCfg.Cli
	fmt.Printf("logutil: db=%s table=%s format=%s\n", cliCfg.LogUtilDbPath, cliCfg.LogUtilTable, cliCfg.LogUtilFormat)
	if cliCfg.LogUtilOutput != "" {
		fmt.Printf("  output: %s\n", cliCfg.LogUtilOutput)
	} else {
		fmt.Println("  output: stdout")
	}

	if err := storage.ExportSessionLog(cliCfg.LogUtilDbPath, cliCfg.LogUtilTable, cliCfg.LogUtilFormat, cliCfg.LogUtilOutput); err != nil {
		return fmt.Errorf("log export failed: %w", err)
	}
	fmt.Println("log export completed successfully.")
	return nil
}
