package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tillg/swm-pool-scraper/internal/storage"
)

var (
	exportInputDir string
	exportOutput   string
	exportInclTest bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Consolidate accumulated JSON documents into one training CSV",
	Long: `Export reads every pool_data_*.json document under the input directory
and writes a single deduplicated CSV for the training pipeline. Rows are
keyed by (timestamp, facility name, facility type), so overlapping or
re-run exports never produce duplicate rows.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportInputDir, "input-dir", "", "Directory containing JSON documents (default: configured output dir)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output CSV file (default: ml_data_<timestamp>.csv)")
	exportCmd.Flags().BoolVar(&exportInclTest, "include-test-data", false, "Also include documents from the test directory")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	inputDir := exportInputDir
	if inputDir == "" {
		inputDir = cfg.Storage.OutputDir
	}
	dirs := []string{inputDir}
	if exportInclTest {
		dirs = append(dirs, cfg.Storage.TestDir)
	}

	out := exportOutput
	if out == "" {
		out = fmt.Sprintf("ml_data_%s.csv", nowLocal(cfg).Format("20060102_150405"))
	}

	if _, err := storage.ExportCSV(dirs, out); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}
