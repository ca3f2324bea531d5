package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"zoneview/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "zoneview",
	Short: "Live, sorted views of a multi-zone audio controller's station roster",
	Long: `zoneview mirrors the station roster of a multi-zone audio controller
into a local SQLite cache and serves live, priority-sorted views of it.

The roster is refreshed from the controller's HTTP API, the user's custom
station priority is fetched once and memoized, and every consumer (terminal,
WebSocket dashboard) sees the latest combined state without polling.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "zoneview.toml", "Path to TOML config file")
}

// loadConfig reads the configured TOML file. A missing file is only an
// error when the user pointed at it explicitly; the default path falls
// back to built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if !cmd.Flags().Changed("config") {
			return config.Default(), path, nil
		}
		return nil, path, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
