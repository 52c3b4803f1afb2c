package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tillg/swm-pool-scraper/internal/fetch"
	"github.com/tillg/swm-pool-scraper/internal/monitor"
	"github.com/tillg/swm-pool-scraper/internal/registry"
)

var (
	probeStart int
	probeEnd   int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Flag facilities missing from the registry",
	Long: `Monitor compares the facility names currently displayed on the public
occupancy page against the registry and reports unknown names. With a
probe range it additionally tests unregistered organization ids against
the counting API.

The monitor is advisory only: it never modifies the registry. Adding a
facility stays a manual, reviewed change to the facility table.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().IntVar(&probeStart, "probe-start", 0, "First organization id to probe (0 disables probing)")
	monitorCmd.Flags().IntVar(&probeEnd, "probe-end", 0, "One past the last organization id to probe")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := registry.Default()
	if err != nil {
		return fmt.Errorf("load facility registry: %w", err)
	}

	site := fetch.NewWebsiteFetcher(cfg, reg)
	report, err := monitor.Run(ctx, reg, site, nowLocal(cfg), cfg.Storage.OutputDir)
	if err != nil {
		return fmt.Errorf("monitor pass failed: %w", err)
	}

	if probeStart > 0 && probeEnd > probeStart {
		api := fetch.NewAPIFetcher(&cfg.Scraper)
		ids, err := monitor.ProbeRange(ctx, reg, api, probeStart, probeEnd)
		if err != nil {
			return fmt.Errorf("probe organization ids: %w", err)
		}
		report.UnknownOrgIDs = ids
		if err := report.Write(cfg.Storage.OutputDir); err != nil {
			return err
		}
	}

	if len(report.UnknownNames) == 0 && len(report.UnknownOrgIDs) == 0 {
		log.Println("Registry is complete: no unknown facilities found")
		return nil
	}

	for _, name := range report.UnknownNames {
		log.Printf("Unknown facility on website: %q", name)
	}
	for _, id := range report.UnknownOrgIDs {
		log.Printf("Unregistered organization id answering with data: %d", id)
	}
	return nil
}
