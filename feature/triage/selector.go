package triage

import (
	"encoding/json"
	"fmt"
	"sort"

	"pr-dashboard/core/upstream"
	"pr-dashboard/feature/triage/models"

	"gorm.io/gorm"
)

// Approval tier labels. The tiers are mutually exclusive (highest present
// wins); the maintainer approval is an independent additive bonus.
const (
	labelApprovals1         = "12.approvals: 1"
	labelApprovals2         = "12.approvals: 2"
	labelApprovals3Plus     = "12.approvals: 3+"
	labelMaintainerApproved = "12.approved-by: package-maintainer"
)

// RankedPull is one selected pull together with its parsed payload.
type RankedPull struct {
	models.Pull
	Snapshot *upstream.Pull
}

// SelectPulls builds a filtered, ordered page of pulls.
//
// A nil category selects the NULL ("New") bucket. Each filter term must match
// the serialized payload as a raw substring; terms combine with AND. When
// excludeReserved is set only unclaimed pulls are eligible. The base order is
// last_updated ascending, bounded to limit. urgencySort re-sorts the fetched
// page by (approval score, staleness) and is suppressed for NeedsMerger,
// which keeps pure chronological order.
func (s *Store) SelectPulls(category *string, terms []string, excludeReserved, urgencySort bool, limit int) ([]RankedPull, error) {
	if err := validateFilterTerms(terms); err != nil {
		return nil, err
	}
	if category != nil && *category == models.CategoryNeedsMerger {
		urgencySort = false
	}

	q := s.db.Model(&models.Pull{})
	if category == nil {
		q = q.Where("category IS NULL")
	} else {
		q = q.Where("category = ?", *category)
	}
	q = applyFilterTerms(q, terms)
	if excludeReserved {
		q = q.Where("reserved_by IS NULL")
	}

	var rows []models.Pull
	if err := q.Order("last_updated ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: select pulls: %v", ErrStorage, err)
	}

	pulls := make([]RankedPull, 0, len(rows))
	for _, row := range rows {
		var snap upstream.Pull
		if err := json.Unmarshal([]byte(row.Data), &snap); err != nil {
			return nil, fmt.Errorf("%w: pull %d: %v", ErrDataCorruption, row.ID, err)
		}
		pulls = append(pulls, RankedPull{Pull: row, Snapshot: &snap})
	}

	if urgencySort {
		// Least-approved, stalest work first; id only settles exact ties.
		sort.Slice(pulls, func(i, j int) bool {
			si, sj := approvalScore(pulls[i].Snapshot), approvalScore(pulls[j].Snapshot)
			if si != sj {
				return si < sj
			}
			if !pulls[i].LastUpdated.Equal(pulls[j].LastUpdated) {
				return pulls[i].LastUpdated.Before(pulls[j].LastUpdated)
			}
			return pulls[i].ID < pulls[j].ID
		})
	}

	return pulls, nil
}

// approvalScore computes the urgency key: the highest matching approvals tier
// (1, 2 or 3+), plus one if a package maintainer approved.
func approvalScore(snap *upstream.Pull) int {
	score := 0
	if snap.HasLabel(labelApprovals1) {
		score = 1
	}
	if snap.HasLabel(labelApprovals2) {
		score = 2
	}
	if snap.HasLabel(labelApprovals3Plus) {
		score = 3
	}
	if snap.HasLabel(labelMaintainerApproved) {
		score++
	}
	return score
}

// validateFilterTerms rejects terms containing characters outside the
// allow-list before any query is built.
func validateFilterTerms(terms []string) error {
	for _, term := range terms {
		for _, r := range term {
			if isAllowedFilterRune(r) {
				continue
			}
			return fmt.Errorf("%w: character %q not allowed in filter term", ErrInvalidInput, r)
		}
	}
	return nil
}

func isAllowedFilterRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case ' ', '.', '-', '_', ':', '/', '(', ')':
		return true
	}
	return false
}

// applyFilterTerms adds one substring predicate per term, all ANDed. Terms are
// bound as parameters; the allow-list keeps LIKE's % wildcard out, while _
// keeps its single-character meaning as in the original filter.
func applyFilterTerms(q *gorm.DB, terms []string) *gorm.DB {
	for _, term := range terms {
		if term == "" {
			continue
		}
		q = q.Where("data LIKE ?", "%"+term+"%")
	}
	return q
}
