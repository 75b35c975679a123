// Package backup exports snapshots of the triage store to object storage.
//
// Each run reads all pulls and reservations inside one transaction, uploads
// them as a single JSON object under a timestamped key, and prunes snapshots
// beyond the configured retention count. The feature is an operator
// convenience for disaster recovery of the local store; it never mutates
// triage state.
package backup
