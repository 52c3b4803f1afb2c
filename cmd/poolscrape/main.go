package main

import (
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tillg/swm-pool-scraper/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "poolscrape",
	Short: "Collect occupancy data for Munich's municipal pools and saunas",
	Long: `poolscrape periodically retrieves occupancy readings for Munich's
municipal swimming facilities from the SWM counting API, derives
calendar/time features, and persists JSON documents plus an ML-ready CSV.

Runs are triggered externally (cron/CI); each invocation performs one pass.`,
	SilenceUsage: true,
}

func main() {
	log.SetPrefix("poolscrape ")
	log.SetFlags(log.LstdFlags)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
}

// nowLocal returns the current time in the configured facility time zone.
func nowLocal(cfg *config.Config) time.Time {
	loc, err := time.LoadLocation(cfg.Scraper.Timezone)
	if err != nil {
		log.Printf("Warning: invalid timezone %q, using system time: %v", cfg.Scraper.Timezone, err)
		return time.Now()
	}
	return time.Now().In(loc)
}

// loadConfig reads the config file named by --config or CONFIG_PATH, falling
// back to built-in defaults when neither is set.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
