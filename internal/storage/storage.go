package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tillg/swm-pool-scraper/internal/enrich"
	"github.com/tillg/swm-pool-scraper/internal/scrape"
)

// csvColumns is the fixed column order of the training CSV.
var csvColumns = []string{
	"timestamp", "pool_name", "facility_type", "occupancy_percent",
	"is_open", "hour", "day_of_week", "is_weekend", "occupancy_text",
}

// Writer persists scrape documents under a data directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir, creating the directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the data directory the writer persists into.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteJSON serializes the document to a timestamped file and returns its
// path. The write is atomic (temp file, then rename), so a crash mid-write
// never leaves a partial file visible under the final name.
func (w *Writer) WriteJSON(doc *scrape.Document) (string, error) {
	name := fmt.Sprintf("pool_data_%s.json", doc.ScrapeTimestamp.Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename into place: %w", err)
	}

	log.Printf("Saved %d records to %s", doc.Metadata.TotalFacilities, path)
	return path, nil
}

// ReadJSON loads a previously written document.
func ReadJSON(path string) (*scrape.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc scrape.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}

// AppendCSV appends one row per record to the named CSV file inside the data
// directory, writing the header first when the file does not exist yet.
func (w *Writer) AppendCSV(doc *scrape.Document, filename string) error {
	path := filepath.Join(w.dir, filename)
	_, statErr := os.Stat(path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if newFile {
		if err := cw.Write(csvColumns); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
		log.Printf("Created new CSV file: %s", path)
	}

	records := doc.All()
	for _, occ := range records {
		if err := cw.Write(csvRow(occ)); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	log.Printf("Appended %d records to %s", len(records), path)
	return nil
}

// csvRow renders one record in the fixed column order.
func csvRow(occ enrich.Occupancy) []string {
	percent := ""
	if occ.OccupancyPercent != nil {
		percent = strconv.FormatFloat(*occ.OccupancyPercent, 'f', -1, 64)
	}
	return []string{
		occ.Timestamp.Format(time.RFC3339),
		occ.FacilityName,
		string(occ.FacilityType),
		percent,
		boolFlag(occ.IsOpen),
		strconv.Itoa(occ.Hour),
		strconv.Itoa(occ.DayOfWeek),
		boolFlag(occ.IsWeekend),
		occ.OccupancyText,
	}
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
