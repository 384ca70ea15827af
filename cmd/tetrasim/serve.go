package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/tetrasim/internal/api"
	"github.com/san-kum/tetrasim/internal/persistence"
	"github.com/san-kum/tetrasim/internal/sim"
)

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}

	db, err := persistence.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Storage.DBPath)

	ctrl := sim.New(cfg.Simulation)

	restored := 0
	if !noRestore {
		restored, err = db.LoadSimulation(ctrl)
		if err != nil {
			return fmt.Errorf("restore simulation: %w", err)
		}
	}
	if restored > 0 {
		slog.Info("simulation restored", "particles", restored, "simulation_time", ctrl.Time())
	} else {
		if err := sim.Populate(ctrl, cfg.ParticleSpecs()); err != nil {
			return err
		}
		slog.Info("default particles created", "particles", ctrl.Len())
	}
	if autostart {
		ctrl.Start()
	}

	runner := sim.NewRunner(ctrl)
	srv := api.NewServer(runner, cfg.Server.Port, cfg.Server.CORSOrigins)

	ctx, cancel := signalContext()
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		runner.Run(ctx)
	}()
	go persistLoop(ctx, runner, db, cfg.Server.PersistInterval)

	fmt.Printf("API: http://localhost:%d/api/status\n", cfg.Server.Port)
	fmt.Printf("WebSocket: ws://localhost:%d/api/ws\n", cfg.Server.Port)

	serveErr := srv.ListenAndServe(ctx)
	cancel()
	<-loopDone

	slog.Info("final save...")
	var saveErr error
	runner.Do(func(c *sim.Controller) { saveErr = db.SaveSimulation(c) })
	if saveErr != nil {
		slog.Error("final save failed", "error", saveErr)
	}

	return serveErr
}

// persistLoop saves the simulation every interval until ctx is done.
func persistLoop(ctx context.Context, r *sim.Runner, db *persistence.DB, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var err error
			r.Do(func(c *sim.Controller) { err = db.SaveSimulation(c) })
			if err != nil {
				slog.Error("periodic save failed", "error", err)
				continue
			}
			slog.Debug("simulation saved")
		}
	}
}
