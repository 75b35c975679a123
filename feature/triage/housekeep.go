package triage

import (
	"encoding/json"
	"fmt"
	"time"

	"pr-dashboard/core/upstream"
	"pr-dashboard/feature/triage/models"

	"go.uber.org/zap"
)

// Housekeeper recomputes categories and expires stale leases. It is designed
// to run on a recurring external trigger and is idempotent: repeated runs with
// no state change are no-ops.
type Housekeeper struct {
	store  *Store
	logger *zap.Logger
}

// NewHousekeeper creates a new housekeeper.
func NewHousekeeper(store *Store, logger *zap.Logger) *Housekeeper {
	return &Housekeeper{store: store, logger: logger}
}

// HousekeepResult summarizes one housekeeping pass.
type HousekeepResult struct {
	Recategorized int `json:"recategorized"`
	Expired       int `json:"expired"`
}

// Run executes one housekeeping pass in a single transaction: every stored
// pull is recategorized (an update is issued only when the category actually
// changes), then every lease older than LeaseTimeout is cleared together with
// the owning pull's reserved_by.
func (h *Housekeeper) Run(now time.Time) (*HousekeepResult, error) {
	result := &HousekeepResult{}

	err := h.store.Transaction(func(tx *Store) error {
		var pulls []models.Pull
		if err := tx.db.Select("id", "data", "category").Find(&pulls).Error; err != nil {
			return fmt.Errorf("%w: load pulls: %v", ErrStorage, err)
		}

		for _, pull := range pulls {
			var snap upstream.Pull
			if err := json.Unmarshal([]byte(pull.Data), &snap); err != nil {
				return fmt.Errorf("%w: pull %d: %v", ErrDataCorruption, pull.ID, err)
			}

			next := Recategorize(&snap, pull.Category)
			if !categoryChanged(pull.Category, next) {
				continue
			}

			err := tx.db.Model(&models.Pull{}).Where("id = ?", pull.ID).Update("category", next).Error
			if err != nil {
				h.logger.Warn("housekeep: category update failed",
					zap.Int64("id", pull.ID), zap.Error(err))
				continue
			}
			result.Recategorized++
		}

		var leases []models.Reservation
		if err := tx.db.Find(&leases).Error; err != nil {
			return fmt.Errorf("%w: load reservations: %v", ErrStorage, err)
		}

		var expired []int64
		for _, lease := range leases {
			if now.Sub(lease.Time) >= LeaseTimeout {
				expired = append(expired, lease.ID)
			}
		}
		if len(expired) == 0 {
			return nil
		}

		h.logger.Debug("housekeep: removing stale reservations", zap.Int64s("ids", expired))

		if err := tx.db.Where("id IN ?", expired).Delete(&models.Reservation{}).Error; err != nil {
			return fmt.Errorf("%w: delete reservations: %v", ErrStorage, err)
		}
		err := tx.db.Model(&models.Pull{}).
			Where("id IN ?", expired).
			Update("reserved_by", nil).Error
		if err != nil {
			return fmt.Errorf("%w: release pulls: %v", ErrStorage, err)
		}
		result.Expired = len(expired)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func categoryChanged(current, next *string) bool {
	if current == nil || next == nil {
		return current != next
	}
	return *current != *next
}
