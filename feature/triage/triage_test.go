package triage

import (
	"encoding/json"
	"testing"
	"time"

	"pr-dashboard/core/upstream"
	"pr-dashboard/feature/triage/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupStore opens an ephemeral in-memory store with the schema migrated.
func setupStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A second pooled connection would see a different :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := NewStore(db)
	require.NoError(t, store.Migrate())
	return store
}

// snapshot builds an upstream pull for tests.
func snapshot(id int64, author string, updated time.Time, draft bool, labels ...string) upstream.Pull {
	pull := upstream.Pull{
		Number:    id,
		Title:     "test pull",
		State:     upstream.StateOpen,
		Draft:     draft,
		User:      &upstream.User{Login: author},
		UpdatedAt: &updated,
	}
	for _, name := range labels {
		pull.Labels = append(pull.Labels, upstream.Label{Name: name, Color: "aabbcc"})
	}
	return pull
}

// seedPull inserts one pull row built from a snapshot.
func seedPull(t *testing.T, store *Store, snap upstream.Pull) {
	t.Helper()

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, store.UpsertPull(models.Pull{
		ID:          snap.Number,
		Author:      snap.User.Login,
		LastUpdated: *snap.UpdatedAt,
		Data:        string(data),
	}))
}

func setCategory(t *testing.T, store *Store, id int64, category string) {
	t.Helper()
	err := store.db.Model(&models.Pull{}).Where("id = ?", id).Update("category", category).Error
	require.NoError(t, err)
}
