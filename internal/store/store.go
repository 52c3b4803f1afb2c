package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tillg/swm-pool-scraper/internal/enrich"
	"github.com/tillg/swm-pool-scraper/internal/scrape"
)

// Observation is one enriched occupancy record archived across runs. The
// composite unique index mirrors the CSV deduplication key, so re-saving a
// run is a no-op rather than a duplicate.
type Observation struct {
	ID               int64     `gorm:"autoIncrement;primaryKey"`
	Timestamp        time.Time `gorm:"not null;uniqueIndex:idx_obs_key,priority:1"`
	FacilityName     string    `gorm:"size:128;not null;uniqueIndex:idx_obs_key,priority:2"`
	FacilityType     string    `gorm:"size:16;not null;uniqueIndex:idx_obs_key,priority:3"`
	OccupancyPercent *float64
	IsOpen           bool   `gorm:"not null"`
	Hour             int    `gorm:"not null"`
	DayOfWeek        int    `gorm:"not null"`
	IsWeekend        bool   `gorm:"not null"`
	OccupancyText    string `gorm:"size:64"`
	CreatedAt        time.Time
}

// Store defines the archive operations used by the scrape command.
type Store interface {
	SaveDocument(ctx context.Context, doc *scrape.Document) (int, error)
	CountObservations(ctx context.Context) (int64, error)
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed archive store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// SaveDocument archives every record of the document in one transaction.
// Conflicts on the (timestamp, facility_name, facility_type) key are ignored,
// making the save idempotent. Returns the number of rows actually inserted.
func (s *gormStore) SaveDocument(ctx context.Context, doc *scrape.Document) (int, error) {
	records := doc.All()
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([]Observation, 0, len(records))
	for _, occ := range records {
		rows = append(rows, toObservation(occ))
	}

	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
		if res.Error != nil {
			return fmt.Errorf("archive %d observations: %w", len(rows), res.Error)
		}
		inserted = int(res.RowsAffected)
		return nil
	})
	return inserted, err
}

// CountObservations reports the archive size.
func (s *gormStore) CountObservations(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Observation{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}

func toObservation(occ enrich.Occupancy) Observation {
	return Observation{
		Timestamp:        occ.Timestamp,
		FacilityName:     occ.FacilityName,
		FacilityType:     string(occ.FacilityType),
		OccupancyPercent: occ.OccupancyPercent,
		IsOpen:           occ.IsOpen,
		Hour:             occ.Hour,
		DayOfWeek:        occ.DayOfWeek,
		IsWeekend:        occ.IsWeekend,
		OccupancyText:    occ.OccupancyText,
	}
}
