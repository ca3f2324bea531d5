package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"zoneview/internal/config"
	"zoneview/internal/dashboard"
	"zoneview/internal/remote"
	"zoneview/internal/repo"
	"zoneview/internal/schema"
	"zoneview/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync daemon and WebSocket dashboard",
	Long: `Run the zoneview daemon.

The daemon keeps the local roster cache in sync with the controller,
combines it with the memoized priority order, and pushes every update to
connected WebSocket dashboard clients.

The config file is watched while the daemon runs: rewriting it with a
different zone switches the active filter live, without a restart.

Example usage:
  zoneview serve
  zoneview serve --config /etc/zoneview.toml --log-file /var/log/zoneview.log

Connect with a WebSocket client:
  ws://localhost:8080/ws`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgPath, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logFile, _ := cmd.Flags().GetString("log-file")
		var out io.Writer = os.Stderr
		if logFile != "" {
			out = &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			}
		}
		logger := log.New(out, "[zoneview] ", log.LstdFlags)

		return runServe(cfg, cfgPath, logger)
	},
}

func init() {
	serveCmd.Flags().String("log-file", "", "Write logs to this file with rotation (default: stderr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cfg *config.Config, cfgPath string, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := st.InitSchema(ctx); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	client := remote.NewClient(cfg.Remote, nil)
	engine := repo.NewEngine(st, client, repo.AlwaysRefresh{}, logger)
	priority := repo.NewCache(client.FetchPriority, func() []string { return nil })
	view := repo.NewView(st, engine, priority, logger)
	defer view.Close()

	var feed *dashboard.Feed
	server := dashboard.NewServer(&dashboard.Config{
		Addr:   cfg.Listen,
		Logger: logger,
		Snapshot: func() (dashboard.Message, bool) {
			if feed == nil {
				return dashboard.Message{}, false
			}
			return feed.Snapshot()
		},
	})
	feed = dashboard.NewFeed(server, view, logger)

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting dashboard: %w", err)
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Printf("Error stopping dashboard: %v", err)
		}
	}()

	go feed.Run(ctx)

	view.SetFilter(cfg.Zone)
	logger.Printf("Serving %s from %s", schema.ZoneLabel(cfg.Zone), cfg.Remote)

	// Watch the config file so zone changes apply live.
	var watcher *config.Watcher
	if _, statErr := os.Stat(cfgPath); statErr == nil {
		watcher, err = config.NewWatcher(cfgPath)
		if err != nil {
			return fmt.Errorf("creating config watcher: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("starting config watcher: %w", err)
		}
		defer func() {
			if err := watcher.Stop(); err != nil {
				logger.Printf("Error stopping config watcher: %v", err)
			}
		}()
		logger.Printf("Watching config: %s", cfgPath)
	}

	zone := cfg.Zone
	for {
		var (
			configs <-chan *config.Config
			errs    <-chan error
		)
		if watcher != nil {
			configs = watcher.Configs()
			errs = watcher.Errors()
		}

		select {
		case <-ctx.Done():
			logger.Println("Shutdown signal received")
			return nil

		case newCfg, ok := <-configs:
			if !ok {
				return nil
			}
			if newCfg.Zone != zone {
				logger.Printf("Config changed: switching to %s", schema.ZoneLabel(newCfg.Zone))
				zone = newCfg.Zone
				view.SetFilter(zone)
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Printf("Config reload failed, keeping current settings: %v", err)
		}
	}
}
