package triage

import (
	"testing"
	"time"

	"pr-dashboard/feature/triage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectPullsRejectsBadFilterTerm(t *testing.T) {
	store := setupStore(t)

	_, err := store.SelectPulls(nil, []string{"python3", "<script>"}, true, true, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = store.SelectPulls(nil, []string{"%"}, true, true, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSelectPullsUrgencyOrder(t *testing.T) {
	store := setupStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// A is fresher but has no approvals, B is staler and approved twice.
	// Fewer approvals sorts first regardless of age, overriding the
	// chronological base order.
	seedPull(t, store, snapshot(1, "alice", base.Add(9*24*time.Hour), false))
	seedPull(t, store, snapshot(2, "bob", base, false, labelApprovals2))

	pulls, err := store.SelectPulls(nil, nil, true, true, 10)
	require.NoError(t, err)
	require.Len(t, pulls, 2)
	assert.Equal(t, int64(1), pulls[0].ID)
	assert.Equal(t, int64(2), pulls[1].ID)
}

func TestSelectPullsUrgencyTieBreaksOnStaleness(t *testing.T) {
	store := setupStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seedPull(t, store, snapshot(1, "alice", base.Add(24*time.Hour), false, labelApprovals1))
	seedPull(t, store, snapshot(2, "bob", base, false, labelApprovals1))

	pulls, err := store.SelectPulls(nil, nil, true, true, 10)
	require.NoError(t, err)
	require.Len(t, pulls, 2)
	assert.Equal(t, int64(2), pulls[0].ID)
	assert.Equal(t, int64(1), pulls[1].ID)
}

func TestSelectPullsNeedsMergerStaysChronological(t *testing.T) {
	store := setupStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// Under urgency order the heavily approved older pull would sort last;
	// the merger queue must keep pure chronological order instead.
	seedPull(t, store, snapshot(1, "alice", base, false, labelApprovals3Plus, labelMaintainerApproved))
	seedPull(t, store, snapshot(2, "bob", base.Add(time.Hour), false))
	setCategory(t, store, 1, models.CategoryNeedsMerger)
	setCategory(t, store, 2, models.CategoryNeedsMerger)

	merger := category(models.CategoryNeedsMerger)
	pulls, err := store.SelectPulls(merger, nil, true, true, 10)
	require.NoError(t, err)
	require.Len(t, pulls, 2)
	assert.Equal(t, int64(1), pulls[0].ID)
	assert.Equal(t, int64(2), pulls[1].ID)
}

func TestSelectPullsCategoryBuckets(t *testing.T) {
	store := setupStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seedPull(t, store, snapshot(1, "alice", base, false))
	seedPull(t, store, snapshot(2, "bob", base, false))
	setCategory(t, store, 2, models.CategoryAwaitingAuthor)

	pulls, err := store.SelectPulls(nil, nil, true, true, 10)
	require.NoError(t, err)
	require.Len(t, pulls, 1)
	assert.Equal(t, int64(1), pulls[0].ID)

	pulls, err = store.SelectPulls(category(models.CategoryAwaitingAuthor), nil, true, true, 10)
	require.NoError(t, err)
	require.Len(t, pulls, 1)
	assert.Equal(t, int64(2), pulls[0].ID)
}

func TestSelectPullsExcludesReserved(t *testing.T) {
	store := setupStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seedPull(t, store, snapshot(1, "alice", base, false))
	seedPull(t, store, snapshot(2, "bob", base.Add(time.Hour), false))
	err := store.db.Model(&models.Pull{}).Where("id = ?", 1).Update("reserved_by", "reviewer-1").Error
	require.NoError(t, err)

	pulls, err := store.SelectPulls(nil, nil, true, true, 10)
	require.NoError(t, err)
	require.Len(t, pulls, 1)
	assert.Equal(t, int64(2), pulls[0].ID)

	pulls, err = store.SelectPulls(nil, nil, false, true, 10)
	require.NoError(t, err)
	assert.Len(t, pulls, 2)
}

func TestSelectPullsFilterTermsAreConjunctive(t *testing.T) {
	store := setupStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seedPull(t, store, snapshot(1, "alice", base, false, "6.topic: python"))
	seedPull(t, store, snapshot(2, "bob", base, false, "6.topic: python", "10.rebuild-linux: 1-10"))

	pulls, err := store.SelectPulls(nil, []string{"python", "bob"}, true, true, 10)
	require.NoError(t, err)
	require.Len(t, pulls, 1)
	assert.Equal(t, int64(2), pulls[0].ID)

	pulls, err = store.SelectPulls(nil, []string{"python", "nonexistent-term"}, true, true, 10)
	require.NoError(t, err)
	assert.Empty(t, pulls)
}

func TestSelectPullsCorruptPayload(t *testing.T) {
	store := setupStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpsertPull(models.Pull{
		ID:          1,
		Author:      "alice",
		LastUpdated: base,
		Data:        "{not json",
	}))

	_, err := store.SelectPulls(nil, nil, true, true, 10)
	assert.ErrorIs(t, err, ErrDataCorruption)
}

func TestApprovalScore(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		labels []string
		want   int
	}{
		{name: "no approvals", want: 0},
		{name: "one approval", labels: []string{labelApprovals1}, want: 1},
		{name: "highest tier wins", labels: []string{labelApprovals1, labelApprovals3Plus}, want: 3},
		{name: "maintainer bonus", labels: []string{labelApprovals2, labelMaintainerApproved}, want: 3},
		{name: "maintainer alone", labels: []string{labelMaintainerApproved}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(1, "alice", now, false, tt.labels...)
			assert.Equal(t, tt.want, approvalScore(&snap))
		})
	}
}
