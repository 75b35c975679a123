// Package triage implements the pull request synchronization-and-triage engine.
//
// It ingests upstream pull requests incrementally into the local store,
// assigns each one a workflow category from its metadata, ranks the backlog
// for presentation, and lets independent reviewers claim one pull at a time
// through expiring leases.
//
// # Components
//
//   - Store: the transactional persistence layer over the pulls and
//     reservations tables. All state goes through it.
//   - Syncer: pages through the upstream feed newest-first and reconciles
//     upserts and deletions, using the max update time as the cursor.
//   - Recategorize: the pure categorization rules applied in bulk during
//     housekeeping.
//   - SelectPulls: filtered, ordered, paginated views, with the approval-aware
//     urgency ordering for non-merger-ready work.
//   - Reservations: lease-based claims with a one-hour timeout and bulk
//     extension.
//   - Coordinator: the update lock serializing syncs and claims so neither
//     observes the other mid-flight.
//
// The Service/Handler pair adapts the engine to HTTP; the same Service backs
// the CLI one-shot commands.
package triage
