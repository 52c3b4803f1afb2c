package storage

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tillg/swm-pool-scraper/internal/enrich"
)

// rowKey is the deduplication key for the consolidated CSV. All records of a
// run share one timestamp, and a facility name can appear once per type
// (Nordbad has both a pool and a sauna), so the type participates in the key.
type rowKey struct {
	timestamp    string
	facilityName string
	facilityType string
}

func keyOf(occ enrich.Occupancy) rowKey {
	return rowKey{
		timestamp:    occ.Timestamp.Format(time.RFC3339),
		facilityName: occ.FacilityName,
		facilityType: string(occ.FacilityType),
	}
}

// ExportCSV consolidates every pool_data_*.json document under inputDirs into
// one CSV at outPath, oldest document first. A row whose key was already
// written is skipped, so re-running the export over overlapping inputs never
// produces duplicates. Returns the number of rows written.
func ExportCSV(inputDirs []string, outPath string) (int, error) {
	var files []string
	for _, dir := range inputDirs {
		matches, err := filepath.Glob(filepath.Join(dir, "pool_data_*.json"))
		if err != nil {
			return 0, fmt.Errorf("scan %s: %w", dir, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no JSON documents found in %v", inputDirs)
	}
	// Filenames embed the run timestamp, so lexical order is chronological.
	sort.Strings(files)

	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvColumns); err != nil {
		return 0, fmt.Errorf("write CSV header: %w", err)
	}

	seen := make(map[rowKey]struct{})
	written := 0
	for _, file := range files {
		doc, err := ReadJSON(file)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", file, err)
			continue
		}
		for _, occ := range doc.All() {
			key := keyOf(occ)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if err := cw.Write(csvRow(occ)); err != nil {
				return written, fmt.Errorf("write CSV row: %w", err)
			}
			written++
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("flush %s: %w", outPath, err)
	}

	log.Printf("Converted %d JSON files into %d CSV rows at %s", len(files), written, outPath)
	return written, nil
}
