// Package upstream provides the client for the upstream pull request source.
//
// It wraps the GitHub REST list endpoint behind a small interface so the sync
// engine can be tested against mocks (see core/upstream/mocks). Only the
// fields the triage logic interprets are modeled on the snapshot type; the
// rest of the upstream payload is carried opaquely by the store.
//
// # Client Interface
//
// The Client interface exposes a single paginated ListPulls call parameterized
// by state filter (open vs all), page and page size, always sorted by update
// time descending. The sync engine's incremental cursor depends on that order.
//
// # Usage
//
//	client, err := upstream.NewClient(cfg.Upstream)
//	pulls, err := client.ListPulls(ctx, upstream.StateOpen, 1, 100)
package upstream
