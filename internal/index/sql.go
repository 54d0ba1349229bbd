/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/moosic/internal/db"
)

// trackRow is the relational shape of Record.
type trackRow struct {
	CompositeKey string `gorm:"primaryKey;size:512"`
	ContentKey   string `gorm:"size:1024;not null"`
	Genre        string `gorm:"size:255;index"`
	Artist       string `gorm:"size:255;index"`
	Album        string `gorm:"size:255"`
	Song         string `gorm:"size:255"`
	Kind         string `gorm:"size:16"`
	Title        string `gorm:"size:255"`
	Track        int
	Disc         int
	Year         int
	Size         int64
	RunID        string `gorm:"size:36;index"`
	IngestedAt   time.Time
}

func (trackRow) TableName() string { return "tracks" }

func toRow(r Record) trackRow {
	return trackRow{
		CompositeKey: r.CompositeKey,
		ContentKey:   r.ContentKey,
		Genre:        r.Genre,
		Artist:       r.Artist,
		Album:        r.Album,
		Song:         r.Song,
		Kind:         r.Kind,
		Title:        r.Title,
		Track:        r.Track,
		Disc:         r.Disc,
		Year:         r.Year,
		Size:         r.Size,
		RunID:        r.RunID,
		IngestedAt:   r.IngestedAt,
	}
}

func (row trackRow) record() Record {
	return Record{
		CompositeKey: row.CompositeKey,
		ContentKey:   row.ContentKey,
		Genre:        row.Genre,
		Artist:       row.Artist,
		Album:        row.Album,
		Song:         row.Song,
		Kind:         row.Kind,
		Title:        row.Title,
		Track:        row.Track,
		Disc:         row.Disc,
		Year:         row.Year,
		Size:         row.Size,
		RunID:        row.RunID,
		IngestedAt:   row.IngestedAt,
	}
}

// upsert replaces every column when the composite key already exists.
var upsert = clause.OnConflict{UpdateAll: true}

// SQLStore implements Store on a relational database through gorm.
type SQLStore struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewSQLStore migrates the tracks table and returns a store on it.
func NewSQLStore(gdb *gorm.DB, logger zerolog.Logger) (*SQLStore, error) {
	if err := db.Migrate(gdb, &trackRow{}); err != nil {
		return nil, err
	}
	return &SQLStore{db: gdb, logger: logger}, nil
}

// Put upserts one row.
func (s *SQLStore) Put(ctx context.Context, rec Record) error {
	row := toRow(rec)
	if err := s.db.WithContext(ctx).Clauses(upsert).Create(&row).Error; err != nil {
		return fmt.Errorf("sql upsert: %w", err)
	}
	return nil
}

// BatchPut upserts all rows in one transaction; it either writes every row
// or fails as a whole, so it never reports unprocessed records.
func (s *SQLStore) BatchPut(ctx context.Context, recs []Record) ([]Record, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	rows := make([]trackRow, len(recs))
	for i, rec := range recs {
		rows[i] = toRow(rec)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(upsert).Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("sql batch upsert: %w", err)
	}
	return nil, nil
}

// Get reads one row.
func (s *SQLStore) Get(ctx context.Context, compositeKey string) (*Record, error) {
	var row trackRow
	err := s.db.WithContext(ctx).First(&row, "composite_key = ?", compositeKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sql get: %w", err)
	}
	rec := row.record()
	return &rec, nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return db.Close(s.db)
}
