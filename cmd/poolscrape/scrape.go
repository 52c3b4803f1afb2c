package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tillg/swm-pool-scraper/config"
	"github.com/tillg/swm-pool-scraper/internal/enrich"
	"github.com/tillg/swm-pool-scraper/internal/fetch"
	"github.com/tillg/swm-pool-scraper/internal/registry"
	"github.com/tillg/swm-pool-scraper/internal/scrape"
	"github.com/tillg/swm-pool-scraper/internal/storage"
	"github.com/tillg/swm-pool-scraper/internal/store"
)

var (
	scrapeOutputDir string
	scrapeFormat    string
	scrapeSource    string
	scrapeTestMode  bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one scrape pass and persist the results",
	Long: `Scrape fetches the current occupancy of every active facility in the
registry, enriches the readings with calendar features, and writes a
timestamped JSON document (and optionally appends CSV rows).

The command exits 0 whenever a document was produced, even if some
facilities were closed; it fails only when the registry is unusable or
the output directory cannot be written.

Examples:
  # One run with defaults (JSON into scraped_data/)
  poolscrape scrape

  # JSON and CSV into a custom directory
  poolscrape scrape --format both --output-dir /data/pools

  # Use the rendered-page fallback source
  poolscrape scrape --source website`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&scrapeOutputDir, "output-dir", "o", "", "Directory for output files (overrides config)")
	scrapeCmd.Flags().StringVarP(&scrapeFormat, "format", "f", "json", "Output format: json, csv or both")
	scrapeCmd.Flags().StringVarP(&scrapeSource, "source", "s", "", "Data source: api or website (overrides config)")
	scrapeCmd.Flags().BoolVar(&scrapeTestMode, "test", false, "Write to the isolated test directory")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if scrapeSource != "" {
		cfg.Scraper.Source = scrapeSource
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := registry.Default()
	if err != nil {
		return fmt.Errorf("load facility registry: %w", err)
	}

	enricher, err := enrich.New(cfg.Scraper.Timezone)
	if err != nil {
		return err
	}

	fetcher, err := newFetcher(cfg, reg)
	if err != nil {
		return err
	}

	svc := scrape.New(reg, fetcher, enricher, cfg.Scraper.RatePerSec)
	doc, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("scrape run failed: %w", err)
	}

	writer, err := storage.NewWriter(outputDir(cfg))
	if err != nil {
		return err
	}

	if scrapeFormat == "json" || scrapeFormat == "both" {
		if _, err := writer.WriteJSON(doc); err != nil {
			return fmt.Errorf("write JSON document: %w", err)
		}
	}
	if scrapeFormat == "csv" || scrapeFormat == "both" {
		if err := writer.AppendCSV(doc, cfg.Storage.CSVFilename); err != nil {
			return fmt.Errorf("append CSV rows: %w", err)
		}
	}

	if cfg.Database.Enabled {
		db, err := store.Init(&cfg.Database)
		if err != nil {
			return fmt.Errorf("initialize archive database: %w", err)
		}
		inserted, err := store.NewGormStore(db).SaveDocument(ctx, doc)
		if err != nil {
			return fmt.Errorf("archive observations: %w", err)
		}
		log.Printf("Archived %d new observations", inserted)
	}

	logRunSummary(doc)
	return nil
}

// newFetcher selects the data source per configuration. Both sources satisfy
// the same contract, so everything downstream is agnostic to the choice.
func newFetcher(cfg *config.Config, reg *registry.Registry) (fetch.Fetcher, error) {
	switch cfg.Scraper.Source {
	case "api":
		return fetch.NewAPIFetcher(&cfg.Scraper), nil
	case "website":
		return fetch.NewWebsiteFetcher(cfg, reg), nil
	default:
		return nil, fmt.Errorf("unknown scraper source %q (want api or website)", cfg.Scraper.Source)
	}
}

func outputDir(cfg *config.Config) string {
	if scrapeOutputDir != "" {
		return scrapeOutputDir
	}
	if scrapeTestMode {
		return cfg.Storage.TestDir
	}
	return cfg.Storage.OutputDir
}

func logRunSummary(doc *scrape.Document) {
	log.Printf("Scraped %d pools, %d saunas, %d ice rinks (%d open, %dms)",
		doc.Metadata.PoolsCount, doc.Metadata.SaunasCount, doc.Metadata.IceRinksCount,
		doc.Metadata.OpenCount, doc.Metadata.DurationMS)

	for _, occ := range doc.All() {
		log.Printf("  %s %s: %s", occ.FacilityType, occ.FacilityName, occ.OccupancyText)
	}
}
