package sqlite

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/opsreport/report"
	"github.com/warp/opsreport/syncer"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *Store {
	store, err := New(":memory:", log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func rec(date, preparedBy string) report.Record {
	return report.Record{
		Date:       date,
		PreparedBy: preparedBy,
		Servers:    []report.ServerRow{{Location: "HQ", Status: "Normal"}},
	}
}

// =============================================================================
// REPORT STORE
// =============================================================================

func TestStore_EmptyListOnFreshDatabase(t *testing.T) {
	store := newTestStore(t)

	list := store.List(context.Background())

	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestStore_UpsertOrderingAndReplace(t *testing.T) {
	// GIVEN: A saved, then B saved
	// WHEN: A is saved again with different content
	// THEN: Order is [B, A] and A carries the new content

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, rec("2024-03-01", "Sam"))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, rec("2024-03-02", "Sam"))
	require.NoError(t, err)
	out, err := store.Upsert(ctx, rec("2024-03-01", "Alex"))
	require.NoError(t, err)

	list := store.List(ctx)
	assert.Equal(t, out, list, "Upsert returns the persisted list")
	require.Len(t, list, 2)
	assert.Equal(t, "2024-03-02", list[0].Date)
	assert.Equal(t, "2024-03-01", list[1].Date)
	assert.Equal(t, "Alex", list[1].PreparedBy)
}

func TestStore_RetentionCap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < report.MaxRecords+1; i++ {
		_, err := store.Upsert(ctx, rec(start.AddDate(0, 0, i).Format(report.DateLayout), "Sam"))
		require.NoError(t, err)
	}

	list := store.List(ctx)
	require.Len(t, list, report.MaxRecords)
	assert.Equal(t, "2024-03-01", list[0].Date, "61st day of 2024 is newest")
	_, found := report.Find(list, "2024-01-01")
	assert.False(t, found, "first insertion dropped")
}

func TestStore_Remove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		_, err := store.Upsert(ctx, rec(d, "Sam"))
		require.NoError(t, err)
	}

	require.NoError(t, store.Remove(ctx, "2024-03-02"))
	require.NoError(t, store.Remove(ctx, "1999-01-01"), "missing date is a no-op")

	list := store.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-03-03", list[0].Date)
	assert.Equal(t, "2024-03-01", list[1].Date)
}

func TestStore_CorruptValueReadsAsEmpty(t *testing.T) {
	// GIVEN: The persisted value is not valid JSON
	// WHEN: The list is read
	// THEN: The store reports empty instead of failing

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.put(ctx, ReportsKey, []byte("{not json")))

	assert.Empty(t, store.List(ctx))

	// A subsequent save starts a fresh list.
	out, err := store.Upsert(ctx, rec("2024-03-01", "Sam"))
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	ctx := context.Background()

	store, err := New(path, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, rec("2024-03-01", "Sam"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := New(path, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	defer reopened.Close()

	list := reopened.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, rec("2024-03-01", "Sam"), list[0])
}

func TestStore_WriteFailureIsReturned(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())

	_, err := store.Upsert(context.Background(), rec("2024-03-01", "Sam"))
	assert.Error(t, err)
}

// =============================================================================
// SYNC JOURNAL
// =============================================================================

func TestStore_JournalNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := store.Record(ctx, syncer.Entry{
			At:      base.Add(time.Duration(i) * time.Second),
			Op:      syncer.OpPush,
			Date:    fmt.Sprintf("2024-03-0%d", i+1),
			Outcome: "confirmed",
			Records: 1,
		})
		require.NoError(t, err)
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "2024-03-05", entries[0].Date)
	assert.Equal(t, "2024-03-03", entries[2].Date)
	assert.NotEmpty(t, entries[0].ID, "IDs are generated")
	assert.Equal(t, syncer.OpPush, entries[0].Op)
	assert.True(t, entries[0].At.Equal(base.Add(4*time.Second)))
}

func TestStore_JournalKeepsReason(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, syncer.Entry{Op: syncer.OpPull, Outcome: "unreachable", Reason: "HTTP 502"}))

	entries, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "HTTP 502", entries[0].Reason)
	assert.Empty(t, entries[0].Date)
	assert.False(t, entries[0].At.IsZero())
}
