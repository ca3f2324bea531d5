package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"zoneview/internal/remote"
	"zoneview/internal/repo"
	"zoneview/internal/schema"
	"zoneview/internal/store"
)

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	watchRankStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Width(4)
	watchNameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	watchMetaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the sorted roster live in the terminal",
	Long: `Run the sync pipeline in-process and render every roster update in
the terminal, sorted by the controller's priority order.

The first paint shows the locally cached roster immediately; the remote
refresh and the priority fetch fill in concurrently.

Example usage:
  zoneview watch
  zoneview watch --zone 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		zone, _ := cmd.Flags().GetInt("zone")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Keep pipeline logs out of the rendered view.
		logger := log.New(os.Stderr, "[watch] ", 0)

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

		view.SetFilter(zone)

		for {
			select {
			case <-ctx.Done():
				return nil
			case stations, ok := <-view.Updates():
				if !ok {
					return nil
				}
				render(zone, stations)
			}
		}
	},
}

func init() {
	watchCmd.Flags().Int("zone", schema.ZoneAll, "Zone to watch (-1 for all zones)")
	rootCmd.AddCommand(watchCmd)
}

// render repaints the terminal with the latest sorted roster.
func render(zone int, stations []schema.Station) {
	var b strings.Builder

	b.WriteString("\033[H\033[2J")
	b.WriteString(watchTitleStyle.Render(fmt.Sprintf("Stations (%s)", schema.ZoneLabel(zone))))
	b.WriteString("\n\n")

	if len(stations) == 0 {
		b.WriteString(watchMetaStyle.Render("(no stations yet)"))
		b.WriteString("\n")
	}

	for i, st := range stations {
		b.WriteString(watchRankStyle.Render(fmt.Sprintf("%d.", i+1)))
		b.WriteString(watchNameStyle.Render(st.Name))
		b.WriteString(" ")
		b.WriteString(watchMetaStyle.Render(fmt.Sprintf("(%s, zone %d)", st.ID, st.Zone)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(watchMetaStyle.Render("Ctrl+C to quit"))
	b.WriteString("\n")

	fmt.Print(b.String())
}
