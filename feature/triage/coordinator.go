package triage

import (
	"context"
	"sync"
	"time"
)

// Coordinator owns the update lock serializing the two operation classes that
// must never interleave: sync runs and claims. A claim has to see a consistent
// snapshot of the pulls; it must not race an in-flight upsert/delete batch
// that could stale its selection or hand out a pull the sync is about to
// remove. Housekeeping and plain reads rely on store transactions instead and
// do not take the lock.
type Coordinator struct {
	mu sync.Mutex

	store        *Store
	syncer       *Syncer
	reservations *Reservations
	housekeeper  *Housekeeper
}

// NewCoordinator wires the engine components around one shared store handle.
func NewCoordinator(store *Store, syncer *Syncer, reservations *Reservations, housekeeper *Housekeeper) *Coordinator {
	return &Coordinator{
		store:        store,
		syncer:       syncer,
		reservations: reservations,
		housekeeper:  housekeeper,
	}
}

// Store exposes the shared store handle for read-only consumers.
func (c *Coordinator) Store() *Store {
	return c.store
}

// Sync runs one sync pass under the update lock.
func (c *Coordinator) Sync(ctx context.Context) (*SyncResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncer.Run(ctx, c.store)
}

// Claim reserves the next eligible pull under the update lock.
func (c *Coordinator) Claim(category *string, terms []string, requester string, now time.Time) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reservations.Claim(category, terms, requester, now)
}

// Housekeep runs one housekeeping pass. Its updates are independent and
// order-insensitive, so it only needs the store's transaction isolation.
func (c *Coordinator) Housekeep(now time.Time) (*HousekeepResult, error) {
	return c.housekeeper.Run(now)
}

// Reservations exposes the lease manager for listing and bulk extension.
func (c *Coordinator) Reservations() *Reservations {
	return c.reservations
}
