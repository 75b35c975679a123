package triage

import (
	"fmt"
	"time"

	"pr-dashboard/feature/triage/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reservation lease parameters.
const (
	// LeaseTimeout is how long a claim holds before housekeeping reclaims it.
	LeaseTimeout = time.Hour
	// ExtendDuration is the fresh lease length granted by a bulk extension.
	ExtendDuration = 7 * 24 * time.Hour
)

// Reservations manages lease-based claims on pulls.
type Reservations struct {
	store  *Store
	owner  string
	repo   string
	logger *zap.Logger
}

// NewReservations creates a new reservation manager. owner and repo name the
// upstream repository the claim URLs point at.
func NewReservations(store *Store, owner, repo string, logger *zap.Logger) *Reservations {
	return &Reservations{store: store, owner: owner, repo: repo, logger: logger}
}

// Claim reserves the next eligible pull for the requester and returns its
// URL. An empty string means nothing was eligible, which is not an error.
//
// The selection and the reservation write share one transaction, and the
// update re-checks the pull is still unreserved, so a concurrent winner makes
// this call observe zero eligible rows instead of double-assigning.
func (r *Reservations) Claim(category *string, terms []string, requester string, now time.Time) (string, error) {
	var url string

	err := r.store.Transaction(func(tx *Store) error {
		pulls, err := tx.SelectPulls(category, terms, true, true, 1)
		if err != nil {
			return err
		}
		if len(pulls) == 0 {
			r.logger.Debug("claim: nothing eligible", zap.Strings("filter", terms))
			return nil
		}
		id := pulls[0].ID

		res := tx.db.Model(&models.Pull{}).
			Where("id = ? AND reserved_by IS NULL", id).
			Update("reserved_by", requester)
		if res.Error != nil {
			return fmt.Errorf("%w: reserve pull %d: %v", ErrStorage, id, res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the race; the item vanished or got claimed meanwhile.
			r.logger.Debug("claim: pull no longer eligible", zap.Int64("id", id))
			return nil
		}

		lease := models.Reservation{ID: id, Time: now}
		err = tx.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"time"}),
		}).Create(&lease).Error
		if err != nil {
			return fmt.Errorf("%w: record lease for pull %d: %v", ErrStorage, id, err)
		}

		url = fmt.Sprintf("https://github.com/%s/%s/pull/%d", r.owner, r.repo, id)
		return nil
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// ExtendAll refreshes every lease to now plus ExtendDuration in one statement
// and returns the number of rows affected. Operator escape hatch for long
// review sessions.
func (r *Reservations) ExtendAll(now time.Time) (int64, error) {
	until := now.Add(ExtendDuration)
	res := r.store.db.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&models.Reservation{}).
		Update("time", until)
	if res.Error != nil {
		return 0, fmt.Errorf("%w: extend reservations: %v", ErrStorage, res.Error)
	}
	return res.RowsAffected, nil
}

// List returns all active leases.
func (r *Reservations) List() ([]models.Reservation, error) {
	var leases []models.Reservation
	if err := r.store.db.Order("id ASC").Find(&leases).Error; err != nil {
		return nil, fmt.Errorf("%w: list reservations: %v", ErrStorage, err)
	}
	return leases, nil
}
