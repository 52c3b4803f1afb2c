package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Scraper  ScraperConfig  `yaml:"scraper"`
	Website  WebsiteConfig  `yaml:"website"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
}

// ScraperConfig holds the settings for the counting-API fetcher.
type ScraperConfig struct {
	BaseURL         string            `yaml:"base_url"`
	Source          string            `yaml:"source"` // "api" or "website"
	TimeoutSeconds  int               `yaml:"timeout_seconds"`
	Timeout         time.Duration     `yaml:"-"` // Ignored by YAML parser
	Retries         int               `yaml:"retries"`
	RatePerSec      float64           `yaml:"rate_per_sec"`
	CacheTTLSeconds int               `yaml:"cache_ttl_seconds"`
	Timezone        string            `yaml:"timezone"`
	Headers         map[string]string `yaml:"headers"`
}

// WebsiteConfig holds the settings for the rendered-page fallback source.
type WebsiteConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig holds the output locations for scraped data.
type StorageConfig struct {
	OutputDir   string `yaml:"output_dir"`
	TestDir     string `yaml:"test_dir"`
	CSVFilename string `yaml:"csv_filename"`
}

// DatabaseConfig holds the optional observation archive settings.
type DatabaseConfig struct {
	Enabled                bool   `yaml:"enabled"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Default returns a configuration with all defaults applied, usable without a
// config file. The scraper targets the Ticos counting API used by swm.de.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Scraper.BaseURL == "" {
		cfg.Scraper.BaseURL = "https://counter.ticos-systems.cloud/api/gates/counter"
	}
	if cfg.Scraper.Source == "" {
		cfg.Scraper.Source = "api"
	}
	if cfg.Scraper.TimeoutSeconds <= 0 {
		cfg.Scraper.TimeoutSeconds = 5
	}
	cfg.Scraper.Timeout = time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second

	if cfg.Scraper.Retries <= 0 {
		cfg.Scraper.Retries = 3
	}
	if cfg.Scraper.RatePerSec <= 0 {
		cfg.Scraper.RatePerSec = 10
	}
	if cfg.Scraper.CacheTTLSeconds <= 0 {
		cfg.Scraper.CacheTTLSeconds = 60
	}
	if cfg.Scraper.Timezone == "" {
		cfg.Scraper.Timezone = "Europe/Berlin"
	}
	if cfg.Scraper.Headers == nil {
		cfg.Scraper.Headers = map[string]string{
			"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
			"Accept":     "application/json, text/plain, */*",
			"Origin":     "https://www.swm.de",
			"Referer":    "https://www.swm.de/",
		}
	}

	if cfg.Website.URL == "" {
		cfg.Website.URL = "https://www.swm.de/baeder/auslastung"
	}

	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "scraped_data"
	}
	if cfg.Storage.TestDir == "" {
		cfg.Storage.TestDir = "test_data"
	}
	if cfg.Storage.CSVFilename == "" {
		cfg.Storage.CSVFilename = "pool_occupancy.csv"
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "scraped_data/observations.db"
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 5
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}
}
