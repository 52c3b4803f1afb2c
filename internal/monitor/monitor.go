package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tillg/swm-pool-scraper/internal/fetch"
	"github.com/tillg/swm-pool-scraper/internal/registry"
)

// Report is the advisory output of one monitor pass. Adding a facility to the
// registry stays a manual, reviewed step; the monitor only flags candidates.
type Report struct {
	Timestamp       time.Time `json:"timestamp"`
	TotalFacilities int       `json:"total_facilities"`
	ActiveCount     int       `json:"active_count"`
	LiveCount       int       `json:"live_count"`
	UnknownNames    []string  `json:"unknown_names"`
	UnknownOrgIDs   []int     `json:"unknown_org_ids,omitempty"`
}

// Check compares externally discovered facility names against the registry
// and returns the names the registry does not know, sorted. Discovery is not
// assumed exhaustive: a registered name missing from liveNames is not an
// error, only an unknown live name is worth reporting.
func Check(reg *registry.Registry, liveNames []string) []string {
	known := reg.Names()

	var unknown []string
	seen := make(map[string]struct{})
	for _, name := range liveNames {
		if name == "" {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		unknown = append(unknown, name)
	}

	sort.Strings(unknown)
	return unknown
}

// ProbeRange tests a span of organization ids against the fetcher and returns
// the ids that answer with data but are absent from the registry. Use
// sparingly; each probe is an upstream call.
func ProbeRange(ctx context.Context, reg *registry.Registry, fetcher fetch.Fetcher, start, end int) ([]int, error) {
	var found []int
	for orgID := start; orgID < end; orgID++ {
		if _, err := reg.Resolve(orgID); err == nil {
			continue
		}
		if ctx.Err() != nil {
			return found, ctx.Err()
		}

		reading, err := fetcher.Fetch(ctx, orgID)
		if err != nil || reading == nil {
			continue
		}
		log.Printf("Found unregistered organization id %d (capacity: %d)", orgID, reading.MaxPersonCount)
		found = append(found, orgID)
	}
	return found, nil
}

// Run performs a monitor pass: live names come from the page source, unknown
// ids optionally from a probe. The report is returned and written as JSON
// under dir.
func Run(ctx context.Context, reg *registry.Registry, site *fetch.WebsiteFetcher, at time.Time, dir string) (*Report, error) {
	liveNames, err := site.LiveNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover live facility names: %w", err)
	}

	report := &Report{
		Timestamp:       at,
		TotalFacilities: reg.Len(),
		ActiveCount:     len(reg.Active()),
		LiveCount:       len(liveNames),
		UnknownNames:    Check(reg, liveNames),
	}

	if err := report.Write(dir); err != nil {
		return nil, err
	}
	return report, nil
}

// Write persists the report as a timestamped JSON file under dir.
func (r *Report) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("monitor_report_%s.json", r.Timestamp.Format("20060102_150405")))
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	log.Printf("Monitor report written to %s", path)
	return nil
}
