package triage

import (
	"pr-dashboard/core/upstream"
	"pr-dashboard/feature/triage/models"
)

// Status labels driving categorization.
const (
	labelAwaitingChanges = "awaiting_changes"
	labelMergeConflict   = "2.status: merge conflict"
	labelNeedsChanges    = "2.status: needs-changes"
	labelNeedsMerger     = "needs_merger"
	labelAwaitingMerger  = "awaiting_merger"

	// ofborg eval labels all share this prefix; any of them means the
	// automated evaluation passed.
	labelPrefixEvaluated = "10."
)

// Recategorize maps a pull's current metadata and stored category to its new
// category. Pure; run over every stored pull during housekeeping, because
// label and state changes can retroactively change the bucket.
//
// The rules are mutually exclusive, first match wins:
//  1. AwaitingAuthor: an awaiting-changes, merge-conflict or needs-changes
//     label, or the pull is a draft.
//  2. NeedsMerger: a needs/awaiting-merger label, 3+ approvals, or approval by
//     a package maintainer.
//  3. NeedsReviewer: automated evaluation passed.
//
// Otherwise the stored category is kept: housekeeping never demotes a pull
// back to New.
func Recategorize(snap *upstream.Pull, current *string) *string {
	awaitAuthor := snap.HasLabel(labelAwaitingChanges) ||
		snap.HasLabel(labelMergeConflict) ||
		snap.HasLabel(labelNeedsChanges) ||
		snap.Draft
	if awaitAuthor {
		return category(models.CategoryAwaitingAuthor)
	}

	needsMerger := snap.HasLabel(labelNeedsMerger) ||
		snap.HasLabel(labelAwaitingMerger) ||
		snap.HasLabel(labelApprovals3Plus) ||
		snap.HasLabel(labelMaintainerApproved)
	if needsMerger {
		return category(models.CategoryNeedsMerger)
	}

	if snap.HasLabelPrefix(labelPrefixEvaluated) {
		return category(models.CategoryNeedsReviewer)
	}

	return current
}

func category(name string) *string {
	return &name
}
