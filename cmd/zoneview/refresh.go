package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"zoneview/internal/remote"
	"zoneview/internal/repo"
	"zoneview/internal/schema"
	"zoneview/internal/store"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "One-shot sync of the local roster cache from the controller",
	Long: `Fetch the station roster from the controller and upsert it into the
local cache, then exit.

A failed fetch leaves the cache untouched (last-known-good); nothing is
partially applied.

Example usage:
  zoneview refresh            # refresh all zones
  zoneview refresh --zone 2   # refresh a single zone`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		zone, _ := cmd.Flags().GetInt("zone")

		logger := log.New(os.Stderr, "[refresh] ", 0)

		st, err := store.Open(cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		ctx := cmd.Context()
		if err := st.InitSchema(ctx); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}

		client := remote.NewClient(cfg.Remote, nil)
		engine := repo.NewEngine(st, client, repo.AlwaysRefresh{}, logger)

		if err := engine.RefreshZone(ctx, zone); err != nil {
			var fe *remote.FetchError
			if errors.As(err, &fe) {
				return fmt.Errorf("controller unreachable, local cache unchanged: %w", err)
			}
			return err
		}

		count, err := st.CountStations(ctx, zone)
		if err != nil {
			return err
		}
		fmt.Printf("Cache up to date: %d stations (%s)\n", count, schema.ZoneLabel(zone))
		return nil
	},
}

func init() {
	refreshCmd.Flags().Int("zone", schema.ZoneAll, "Zone to refresh (-1 for all zones)")
	rootCmd.AddCommand(refreshCmd)
}
