package triage

import (
	"context"
	"testing"
	"time"

	"pr-dashboard/core/upstream"
	"pr-dashboard/core/upstream/mocks"
	"pr-dashboard/feature/triage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupService(t *testing.T) (*Service, *mocks.Client, *Store) {
	t.Helper()

	mockClient := new(mocks.Client)
	store := setupStore(t)
	cfg := upstream.Config{Owner: "NixOS", Repo: "nixpkgs", PerPage: 100}
	feature := NewFeature(store.db, mockClient, cfg, zap.NewNop())
	return feature.Service(), mockClient, store
}

func TestSplitFilter(t *testing.T) {
	terms, err := SplitFilter("")
	assert.NoError(t, err)
	assert.Nil(t, terms)

	terms, err = SplitFilter("python;;darwin")
	assert.NoError(t, err)
	assert.Equal(t, []string{"python", "darwin"}, terms)

	_, err = SplitFilter("ok;no'quotes")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClaimValidation(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Claim("", "", "reviewer-1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Claim("Merged", "", "reviewer-1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Claim(models.CategoryNew, "bad|filter", "reviewer-1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// TestTriageLifecycle walks the whole engine once: sync three open pulls,
// housekeep to categorize them, inspect the dashboard, then drain the review
// queue with consecutive claims.
func TestTriageLifecycle(t *testing.T) {
	svc, mockClient, _ := setupService(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	feed := []upstream.Pull{
		snapshot(3, "carol", base.Add(2*time.Hour), false, "10.rebuild-linux: 1-10"),
		snapshot(2, "bob", base.Add(time.Hour), false, "10.rebuild-linux: 11-100"),
		snapshot(1, "alice", base, true),
	}
	mockClient.On("ListPulls", mock.Anything, upstream.StateOpen, 1, 100).Return(feed, nil).Once()
	mockClient.On("ListPulls", mock.Anything, upstream.StateOpen, 2, 100).Return([]upstream.Pull{}, nil).Once()

	syncResult, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, syncResult.Upserts)

	housekeepResult, err := svc.Housekeep()
	require.NoError(t, err)
	assert.Equal(t, 3, housekeepResult.Recategorized)

	board, err := svc.Dashboard("", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), board.Counts[models.CategoryAwaitingAuthor])
	assert.Equal(t, int64(2), board.Counts[models.CategoryNeedsReviewer])
	require.Len(t, board.Pulls[models.CategoryNeedsReviewer], 2)
	// Stalest first within the same urgency.
	assert.Equal(t, int64(2), board.Pulls[models.CategoryNeedsReviewer][0].ID)

	url, err := svc.Claim(models.CategoryNeedsReviewer, "", "reviewer-1")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/NixOS/nixpkgs/pull/2", url)

	url, err = svc.Claim(models.CategoryNeedsReviewer, "", "reviewer-2")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/NixOS/nixpkgs/pull/3", url)

	url, err = svc.Claim(models.CategoryNeedsReviewer, "", "reviewer-3")
	require.NoError(t, err)
	assert.Empty(t, url)

	leases, err := svc.ListReservations()
	require.NoError(t, err)
	assert.Len(t, leases, 2)

	// The claimed pulls no longer show up on the dashboard.
	board, err = svc.Dashboard("", 0)
	require.NoError(t, err)
	assert.Empty(t, board.Pulls[models.CategoryNeedsReviewer])
	assert.Equal(t, int64(2), board.Counts[models.CategoryNeedsReviewer])

	mockClient.AssertExpectations(t)
}

func TestConcurrentClaimsNeverDoubleAssign(t *testing.T) {
	svc, _, store := setupService(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seedPull(t, store, snapshot(1, "alice", base, false))

	urls := make(chan string, 2)
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			url, err := svc.Claim(models.CategoryNew, "", "reviewer")
			urls <- url
			errs <- err
		}()
	}

	won := 0
	for i := 0; i < 2; i++ {
		require.NoError(t, <-errs)
		if <-urls != "" {
			won++
		}
	}
	assert.Equal(t, 1, won)
}
