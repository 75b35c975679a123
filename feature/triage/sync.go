package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pr-dashboard/core/upstream"
	"pr-dashboard/feature/triage/models"

	"go.uber.org/zap"
)

// Syncer pulls upstream changes incrementally and reconciles them into the
// store.
type Syncer struct {
	client  upstream.Client
	perPage int
	logger  *zap.Logger
}

// NewSyncer creates a new sync engine.
func NewSyncer(client upstream.Client, perPage int, logger *zap.Logger) *Syncer {
	if perPage <= 0 {
		perPage = 100
	}
	return &Syncer{client: client, perPage: perPage, logger: logger}
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	Upserts   int `json:"upserts"`
	Deletions int `json:"deletions"`
}

// Run performs one full sync: it reads the cursor from the store, pages
// through the upstream feed and applies the collected batch.
//
// With an empty store only open pulls are fetched. Once a cursor exists the
// scan covers all pulls so closed ones are detected and removed; the feed is
// ordered newest-updated-first, so the first pull older than the cursor
// proves everything after it is already synchronized and paging stops.
func (s *Syncer) Run(ctx context.Context, store *Store) (*SyncResult, error) {
	cursor, err := store.LastUpdate()
	if err != nil {
		return nil, err
	}

	upserts, deletions, err := s.collect(ctx, cursor)
	if err != nil {
		return nil, err
	}

	s.apply(store, upserts, deletions)

	return &SyncResult{Upserts: len(upserts), Deletions: len(deletions)}, nil
}

func (s *Syncer) collect(ctx context.Context, cursor *time.Time) ([]models.Pull, []int64, error) {
	state := upstream.StateAll
	if cursor == nil {
		state = upstream.StateOpen
	}

	var upserts []models.Pull
	var deletions []int64

pages:
	for page := 1; ; page++ {
		pulls, err := s.client.ListPulls(ctx, state, page, s.perPage)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: page %d: %v", ErrUpstream, page, err)
		}
		s.logger.Debug("sync: loading page", zap.Int("page", page), zap.Int("pulls", len(pulls)))
		if len(pulls) == 0 {
			break
		}

		for i := range pulls {
			pull := &pulls[i]

			if pull.IsClosed() {
				deletions = append(deletions, pull.Number)
				continue
			}

			if cursor != nil && pull.UpdatedAt != nil && pull.UpdatedAt.Before(*cursor) {
				s.logger.Debug("sync: done, pull older than cursor",
					zap.Int64("id", pull.Number),
					zap.Time("updated_at", *pull.UpdatedAt))
				break pages
			}

			if pull.User == nil || pull.User.Login == "" {
				s.logger.Warn("sync: pull has no author, skipping", zap.Int64("id", pull.Number))
				continue
			}
			if pull.UpdatedAt == nil {
				s.logger.Warn("sync: pull has no update time, skipping", zap.Int64("id", pull.Number))
				continue
			}

			data, err := json.Marshal(pull)
			if err != nil {
				s.logger.Warn("sync: failed to serialize pull, skipping",
					zap.Int64("id", pull.Number), zap.Error(err))
				continue
			}

			upserts = append(upserts, models.Pull{
				ID:          pull.Number,
				Author:      pull.User.Login,
				LastUpdated: *pull.UpdatedAt,
				Data:        string(data),
			})
		}
	}

	return upserts, deletions, nil
}

// apply writes the batch in one transaction. A single failing upsert is
// logged and skipped rather than aborting the batch; a failing delete or
// commit is logged and left for the next scheduled run to reconcile.
func (s *Syncer) apply(store *Store, upserts []models.Pull, deletions []int64) {
	err := store.Transaction(func(tx *Store) error {
		for _, pull := range upserts {
			if err := tx.UpsertPull(pull); err != nil {
				s.logger.Warn("sync: upsert failed", zap.Int64("id", pull.ID), zap.Error(err))
			}
		}
		s.logger.Debug("sync: removing closed pulls", zap.Int("count", len(deletions)))
		if err := tx.DeletePulls(deletions); err != nil {
			s.logger.Warn("sync: delete failed", zap.Error(err))
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("sync: commit failed", zap.Error(err))
	}
}
