package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pr-dashboard/core/upstream"
	"pr-dashboard/feature/triage/models"

	"go.uber.org/zap"
)

// DefaultPageLimit bounds dashboard category lists when no limit is given.
const DefaultPageLimit = 50

// Service is the triage facade the transport layer talks to.
type Service struct {
	coordinator *Coordinator
	logger      *zap.Logger
}

// NewService creates a new triage service.
func NewService(coordinator *Coordinator, logger *zap.Logger) *Service {
	return &Service{coordinator: coordinator, logger: logger}
}

// DashboardItem is one pull as presented on the dashboard.
type DashboardItem struct {
	ID          int64            `json:"id"`
	Author      string           `json:"author"`
	Title       string           `json:"title"`
	LastUpdated time.Time        `json:"last_updated"`
	Category    string           `json:"category"`
	Labels      []upstream.Label `json:"labels"`
}

// Dashboard aggregates per-category counts and item lists.
type Dashboard struct {
	Counts map[string]int64           `json:"counts"`
	Pulls  map[string][]DashboardItem `json:"pulls"`
}

// Dashboard builds the presentation view: per-category counts plus the
// unreserved, urgency-ranked item lists for every category, bounded to limit.
func (s *Service) Dashboard(filter string, limit int) (*Dashboard, error) {
	terms, err := SplitFilter(filter)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	store := s.coordinator.Store()
	counts, err := store.CategoryCounts(terms)
	if err != nil {
		return nil, err
	}

	board := &Dashboard{
		Counts: counts,
		Pulls:  make(map[string][]DashboardItem, 4),
	}

	categories := append([]string{models.CategoryNew}, models.Categories()...)
	for _, name := range categories {
		cat, _ := models.ParseCategory(name)
		pulls, err := store.SelectPulls(cat, terms, true, true, limit)
		if err != nil {
			return nil, err
		}
		items := make([]DashboardItem, 0, len(pulls))
		for _, pull := range pulls {
			items = append(items, DashboardItem{
				ID:          pull.ID,
				Author:      pull.Author,
				Title:       pull.Snapshot.Title,
				LastUpdated: pull.LastUpdated,
				Category:    pull.CategoryName(),
				Labels:      pull.Snapshot.Labels,
			})
		}
		board.Pulls[name] = items
	}

	return board, nil
}

// Sync triggers one synchronization run.
func (s *Service) Sync(ctx context.Context) (*SyncResult, error) {
	return s.coordinator.Sync(ctx)
}

// Housekeep triggers one housekeeping pass.
func (s *Service) Housekeep() (*HousekeepResult, error) {
	return s.coordinator.Housekeep(time.Now())
}

// Claim reserves the next eligible pull in the given category for the
// requester. The category parameter is required ("New" selects the null
// bucket); an empty result means nothing was eligible.
func (s *Service) Claim(category, filter, requester string) (string, error) {
	if category == "" {
		return "", fmt.Errorf("%w: category parameter is required", ErrInvalidInput)
	}
	cat, ok := models.ParseCategory(category)
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	terms, err := SplitFilter(filter)
	if err != nil {
		return "", err
	}
	return s.coordinator.Claim(cat, terms, requester, time.Now())
}

// ListReservations returns all active leases.
func (s *Service) ListReservations() ([]models.Reservation, error) {
	return s.coordinator.Reservations().List()
}

// ExtendReservations bulk-extends every lease and returns the affected count.
func (s *Service) ExtendReservations() (int64, error) {
	return s.coordinator.Reservations().ExtendAll(time.Now())
}

// SplitFilter breaks a raw ;-separated filter string into validated terms.
func SplitFilter(filter string) ([]string, error) {
	if filter == "" {
		return nil, nil
	}
	var terms []string
	for _, term := range strings.Split(filter, ";") {
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}
	if err := validateFilterTerms(terms); err != nil {
		return nil, err
	}
	return terms, nil
}
