/*
store.go - Local report persistence interface

PURPOSE:
  Defines the contract between the sync policy and on-device storage.
  The local store exclusively owns a bounded, ordered list of records
  (most recent first, at most MaxRecords entries).

CONTRACT:
  List():   Never fails. Absent, corrupt or unreadable storage reads as
            an empty list; the problem is logged, not returned.
  Upsert(): Replace in place when the date exists, otherwise insert at
            the front. Truncate to MaxRecords. Persist before returning.
  Remove(): Delete by date. Unknown dates are a no-op.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Durable SQLite key-value store
  - report/store/memory.go: In-memory for testing
*/
package report

import "context"

// Store is the local report store.
type Store interface {
	// List returns the persisted records in store order.
	List(ctx context.Context) []Record

	// Upsert applies rec and returns the resulting list.
	// Only write failures are returned as errors.
	Upsert(ctx context.Context, rec Record) ([]Record, error)

	// Remove deletes the record for date, if present.
	Remove(ctx context.Context, date string) error
}
