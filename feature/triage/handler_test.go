package triage

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"pr-dashboard/core/upstream"
	"pr-dashboard/core/upstream/mocks"
	"pr-dashboard/feature/triage/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *mocks.Client, *Store) {
	t.Helper()

	app := fiber.New()
	mockClient := new(mocks.Client)
	store := setupStore(t)

	cfg := upstream.Config{Owner: "NixOS", Repo: "nixpkgs", PerPage: 100}
	feature := NewFeature(store.db, mockClient, cfg, zap.NewNop())
	require.NoError(t, feature.Load(app))
	return app, mockClient, store
}

func TestHandleDashboard(t *testing.T) {
	app, _, store := setupTestApp(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seedPull(t, store, snapshot(1, "alice", base, false))
	seedPull(t, store, snapshot(2, "bob", base, false))
	setCategory(t, store, 2, models.CategoryNeedsMerger)

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var board Dashboard
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	assert.Equal(t, int64(1), board.Counts[models.CategoryNew])
	assert.Equal(t, int64(1), board.Counts[models.CategoryNeedsMerger])
	assert.Len(t, board.Pulls[models.CategoryNew], 1)
	assert.Len(t, board.Pulls[models.CategoryNeedsMerger], 1)
	assert.Empty(t, board.Pulls[models.CategoryAwaitingAuthor])
}

func TestHandleDashboardBadFilter(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/?filter=%25", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleDashboardBadLimit(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/?limit=lots", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleUpdate(t *testing.T) {
	app, mockClient, _ := setupTestApp(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mockClient.On("ListPulls", mock.Anything, upstream.StateOpen, 1, 100).Return([]upstream.Pull{
		snapshot(1, "alice", base, false),
	}, nil).Once()
	mockClient.On("ListPulls", mock.Anything, upstream.StateOpen, 2, 100).Return([]upstream.Pull{}, nil).Once()

	req := httptest.NewRequest("POST", "/update-prs", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result SyncResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 1, result.Upserts)
	mockClient.AssertExpectations(t)
}

func TestHandleUpdateUpstreamDown(t *testing.T) {
	app, mockClient, _ := setupTestApp(t)

	mockClient.On("ListPulls", mock.Anything, upstream.StateOpen, 1, 100).
		Return(nil, assert.AnError).Once()

	req := httptest.NewRequest("POST", "/update-prs", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestHandleHousekeep(t *testing.T) {
	app, _, store := setupTestApp(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seedPull(t, store, snapshot(1, "alice", base, false, "awaiting_changes"))

	req := httptest.NewRequest("POST", "/housekeep-prs", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result HousekeepResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 1, result.Recategorized)
}

func TestHandleReserve(t *testing.T) {
	app, _, store := setupTestApp(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seedPull(t, store, snapshot(1, "alice", base, false))

	req := httptest.NewRequest("POST", "/reserve-pr?category=New", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "https://github.com/NixOS/nixpkgs/pull/1", body["url"])
}

func TestHandleReserveNothingEligible(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/reserve-pr?category=NeedsMerger", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body["url"])
}

func TestHandleReserveBadCategory(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/reserve-pr", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	req = httptest.NewRequest("POST", "/reserve-pr?category=Unknown", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleReservationLifecycle(t *testing.T) {
	app, _, store := setupTestApp(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seedPull(t, store, snapshot(1, "alice", base, false))

	req := httptest.NewRequest("POST", "/reserve-pr?category=New", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	req = httptest.NewRequest("GET", "/reservations", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var leases []models.Reservation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&leases))
	require.Len(t, leases, 1)
	assert.Equal(t, int64(1), leases[0].ID)

	req = httptest.NewRequest("POST", "/extend-reservations", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(1), body["updated"])
}
