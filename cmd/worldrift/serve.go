// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/worldrift/worldrift/internal/api"
	"github.com/worldrift/worldrift/internal/config"
	"github.com/worldrift/worldrift/internal/eventlog"
	"github.com/worldrift/worldrift/internal/logging"
	"github.com/worldrift/worldrift/internal/store"
	"github.com/worldrift/worldrift/internal/travel"
	travelpg "github.com/worldrift/worldrift/internal/travel/postgres"
	"github.com/worldrift/worldrift/internal/world"
	worldpg "github.com/worldrift/worldrift/internal/world/postgres"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server that exposes the world and travel APIs.
Configuration comes from defaults, the --config file, flags, and the
DATABASE_URL environment variable, in that order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, autoMigrate)
		},
	}

	cmd.Flags().String("http.addr", config.DefaultHTTPAddr, "HTTP listen address")
	cmd.Flags().String("http.metrics_addr", config.DefaultMetricsAddr, "metrics HTTP address (empty = disabled)")
	cmd.Flags().String("log.format", config.DefaultLogFormat, "log format (json or text)")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().Int("travel.points_per_day", config.DefaultPointsPerDay, "travel points granted per daily sign-in")
	cmd.Flags().Int("travel.start_cost", config.DefaultTravelCost, "travel points consumed per travel start")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "apply pending schema migrations before serving")

	return cmd
}

func runServe(cmd *cobra.Command, autoMigrate bool) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("worldrift", version, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if autoMigrate {
		if err := migrateUp(cfg.Database.URL); err != nil {
			return err
		}
	}

	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("connected to database")

	server, reg := buildServer(pool, cfg)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 2)
	go func() {
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- oops.Code("HTTP_SERVE_FAILED").Wrap(serveErr)
		}
	}()
	slog.Info("http server listening", "addr", cfg.HTTP.Addr)

	var metricsServer *http.Server
	if cfg.HTTP.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:              cfg.HTTP.MetricsAddr,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if serveErr := metricsServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				errChan <- oops.Code("METRICS_SERVE_FAILED").Wrap(serveErr)
			}
		}()
		slog.Info("metrics server listening", "addr", cfg.HTTP.MetricsAddr)
	}

	cmd.Println("Worldrift server started")

	select {
	case <-ctx.Done():
		slog.Info("received shutdown signal")
	case err = <-errChan:
		slog.Error("server error, shutting down", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Warn("error shutting down http server", "error", shutdownErr)
	}
	if metricsServer != nil {
		if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
			slog.Warn("error shutting down metrics server", "error", shutdownErr)
		}
	}

	slog.Info("shutdown complete")
	return err
}

// buildServer wires the repositories and services onto the pool.
func buildServer(pool *pgxpool.Pool, cfg *config.Config) (*api.Server, *prometheus.Registry) {
	worlds := worldpg.NewWorldRepository(pool)
	maps := worldpg.NewMapRepository(pool)
	pois := worldpg.NewPoiRepository(pool)
	edges := worldpg.NewEdgeRepository(pool)
	entities := worldpg.NewEntityRepository(pool)
	events := eventlog.NewPostgresRepository(pool)
	tx := store.NewTransactor(pool)

	provisioner := world.NewProvisioner(worlds, maps, pois, edges, entities)
	travelSvc := travel.NewService(travel.Deps{
		Profiles:    travelpg.NewProfileRepository(pool),
		Sessions:    travelpg.NewSessionRepository(pool),
		Reports:     travelpg.NewReportRepository(pool),
		Players:     travelpg.NewPlayerDirectory(pool),
		Provisioner: provisioner,
		Worlds:      worlds,
		Entities:    entities,
		Events:      events,
		Tx:          tx,
	}, cfg.Travel.PointsPerDay, cfg.Travel.StartCost)
	view := world.NewView(worlds, maps, pois, edges, entities, travelSvc)
	engine := world.NewEngine(entities, pois, edges, events, tx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return api.NewServer(provisioner, view, engine, travelSvc, worlds, maps, pool, reg), reg
}
