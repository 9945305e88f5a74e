// Command feedersim runs the feeder simulation in real time and serves its
// snapshots, histories, event log and operator commands over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/synaptecltd/feedersim"
	"github.com/synaptecltd/feedersim/config"
	"github.com/synaptecltd/feedersim/metrics"
	"github.com/synaptecltd/feedersim/topology"
)

var (
	configPath = flag.String("config", "", "YAML config file (defaults when empty)")
	addr       = flag.String("addr", ":8080", "HTTP listen address")
	samples    = flag.Int("samples", 8760, "length of the synthetic load series")
)

func main() {
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}

	feeder := topology.Default()
	state, err := feedersim.NewState(cfg, feeder, feedersim.NewEventLog(feedersim.DefaultEventLogSize, logger))
	if err != nil {
		logger.Error("failed to create state", "error", err)
		os.Exit(1)
	}

	r := rand.New(rand.NewPCG(cfg.Simulation.Seed, 1))
	reg := metrics.NewRegistry()
	sim := feedersim.NewSimulator(state, feedersim.SyntheticSources(r, feeder, *samples), reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sim.Run(ctx, cfg.Simulation.TickPeriod)

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      newRouter(sim, cfg, reg, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("feedersim starting",
			"addr", *addr,
			"buses", len(feeder.Buses()),
			"observed_bus", state.Bus,
			"tick_period", cfg.Simulation.TickPeriod,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("feedersim exited")
}
