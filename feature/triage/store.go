package triage

import (
	"errors"
	"fmt"
	"time"

	"pr-dashboard/core/database"
	"pr-dashboard/feature/triage/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store owns all persisted triage state. Every component accesses pulls and
// reservations exclusively through it; multi-step operations run inside
// Transaction so they commit atomically or not at all.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an established database connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate idempotently creates the pulls and reservations tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&models.Pull{}, &models.Reservation{}); err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrStorage, err)
	}
	return nil
}

// VerifySchema checks the persisted layout against the expected columns.
// It returns qualified names of missing columns, empty when the schema is sound.
func (s *Store) VerifySchema() ([]string, error) {
	expected := map[string][]string{
		models.Pull{}.TableName():        {"id", "author", "last_updated", "data", "category", "reserved_by"},
		models.Reservation{}.TableName(): {"id", "time"},
	}

	var problems []string
	for table, columns := range expected {
		missing, err := database.HasColumns(s.db, table, columns)
		if err != nil {
			return nil, fmt.Errorf("%w: inspect %s: %v", ErrStorage, table, err)
		}
		for _, col := range missing {
			problems = append(problems, table+"."+col)
		}
	}
	return problems, nil
}

// Transaction runs fn against a transactional store view. fn's error rolls
// everything back and is returned unchanged.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// LastUpdate reports the most recent known upstream modification across all
// pulls, or nil when the store is empty. It drives the incremental sync cursor.
func (s *Store) LastUpdate() (*time.Time, error) {
	var pull models.Pull
	err := s.db.Order("last_updated DESC").Limit(1).First(&pull).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: last update: %v", ErrStorage, err)
	}
	t := pull.LastUpdated
	return &t, nil
}

// UpsertPull inserts a pull or, on id conflict, refreshes its author, update
// time and payload. Category and reservation state are deliberately left
// untouched so triage decisions survive resyncs.
func (s *Store) UpsertPull(p models.Pull) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"author", "last_updated", "data"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("%w: upsert pull %d: %v", ErrStorage, p.ID, err)
	}
	return nil
}

// DeletePulls removes the given pulls. Order is irrelevant and duplicate ids
// are harmless; an empty set is a no-op.
func (s *Store) DeletePulls(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.Where("id IN ?", ids).Delete(&models.Pull{}).Error; err != nil {
		return fmt.Errorf("%w: delete pulls: %v", ErrStorage, err)
	}
	return nil
}

// CategoryCounts returns the number of pulls per category, keyed with
// models.CategoryNew for the NULL bucket. Filter terms narrow the counted set.
func (s *Store) CategoryCounts(terms []string) (map[string]int64, error) {
	if err := validateFilterTerms(terms); err != nil {
		return nil, err
	}

	type row struct {
		Category *string
		Count    int64
	}
	var rows []row

	q := s.db.Model(&models.Pull{}).Select("category, COUNT(*) AS count").Group("category")
	q = applyFilterTerms(q, terms)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: category counts: %v", ErrStorage, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		if r.Category == nil {
			counts[models.CategoryNew] += r.Count
		} else {
			counts[*r.Category] += r.Count
		}
	}
	return counts, nil
}
