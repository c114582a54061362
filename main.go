package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := LoadEnvFiles(".env"); err != nil {
		log.Fatal("load environment", "err", err)
	}

	defaults := DefaultConfig()
	app := cli.NewApp()
	app.Name = "robot-arena"
	app.Usage = "authoritative combat-robot arena server"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "addr", Value: defaults.Addr, Usage: "HTTP listen address", EnvVar: "ARENA_ADDR"},
		cli.Float64Flag{Name: "width", Value: defaults.Width, Usage: "arena width", EnvVar: "ARENA_WIDTH"},
		cli.Float64Flag{Name: "height", Value: defaults.Height, Usage: "arena height", EnvVar: "ARENA_HEIGHT"},
		cli.IntFlag{Name: "tick-rate", Value: defaults.TickRate, Usage: "simulation ticks per second", EnvVar: "ARENA_TICK_RATE"},
		cli.DurationFlag{Name: "session-timeout", Value: defaults.SessionTimeout, Usage: "drop sessions silent for this long", EnvVar: "ARENA_SESSION_TIMEOUT"},
		cli.IntFlag{Name: "max-conns-per-ip", Value: defaults.MaxConnsPerIP, Usage: "websocket connections allowed per IP", EnvVar: "ARENA_MAX_CONNS_PER_IP"},
		cli.IntFlag{Name: "max-conns", Value: defaults.MaxTotalConns, Usage: "websocket connections allowed in total", EnvVar: "ARENA_MAX_CONNS"},
		cli.StringFlag{Name: "db", Value: defaults.DBPath, Usage: "SQLite analytics log path (empty disables)", EnvVar: "ARENA_DB"},
		cli.StringFlag{Name: "snapshot-codec", Value: defaults.SnapshotCodec, Usage: "spectator snapshot encoding: json or msgpack", EnvVar: "ARENA_SNAPSHOT_CODEC"},
		cli.StringFlag{Name: "public-url", Value: defaults.PublicURL, Usage: "websocket URL advertised by /qr", EnvVar: "ARENA_PUBLIC_URL"},
		cli.StringFlag{Name: "log-level", Value: defaults.LogLevel, Usage: "debug, info, warn or error", EnvVar: "ARENA_LOG_LEVEL"},
	}
	app.Action = func(c *cli.Context) error {
		return run(configFromCLI(c))
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal("server exited", "err", err)
	}
}

func configFromCLI(c *cli.Context) Config {
	return Config{
		Addr:           c.String("addr"),
		Width:          c.Float64("width"),
		Height:         c.Float64("height"),
		TickRate:       c.Int("tick-rate"),
		SessionTimeout: c.Duration("session-timeout"),
		MaxConnsPerIP:  c.Int("max-conns-per-ip"),
		MaxTotalConns:  c.Int("max-conns"),
		DBPath:         c.String("db"),
		SnapshotCodec:  c.String("snapshot-codec"),
		PublicURL:      c.String("public-url"),
		LogLevel:       c.String("log-level"),
	}
}

func run(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "config")
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	log.SetLevel(level)
	log.SetPrefix("arena")
	log.SetReportTimestamp(true)

	var (
		analytics *Analytics
		tracker   Tracker
	)
	if cfg.DBPath != "" {
		db, err := OpenDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		analytics = NewAnalytics(db)
		defer analytics.Stop()
		tracker = analytics
		log.Info("analytics enabled", "db", cfg.DBPath)
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := NewSimulation(cfg, tracker)
	go sim.Run(ctx)

	hub := NewHub(sim, cfg)
	go hub.Run(ctx)

	server := &http.Server{Addr: cfg.Addr, Handler: SetupRoutes(hub, cfg, analytics)}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.Addr, "codec", cfg.SnapshotCodec)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
