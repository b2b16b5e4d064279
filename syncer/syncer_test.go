package syncer_test

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/opsreport/notify"
	"github.com/warp/opsreport/remote"
	"github.com/warp/opsreport/report"
	"github.com/warp/opsreport/report/store"
	"github.com/warp/opsreport/syncer"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// fakeRemote scripts remote answers and records what it was asked.
type fakeRemote struct {
	mu sync.Mutex

	pushResult   remote.Result
	deleteResult remote.Result
	pullRecords  []report.Record
	pullErr      error

	// onPush runs inside Push, before it returns.
	onPush func(rec report.Record)

	pushed  []report.Record
	deleted []string
	pulls   int
}

func (f *fakeRemote) Push(_ context.Context, rec report.Record) remote.Result {
	f.mu.Lock()
	f.pushed = append(f.pushed, rec)
	hook := f.onPush
	f.mu.Unlock()
	if hook != nil {
		hook(rec)
	}
	return f.pushResult
}

func (f *fakeRemote) PullAll(context.Context) ([]report.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls++
	return f.pullRecords, f.pullErr
}

func (f *fakeRemote) Delete(_ context.Context, date string) remote.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, date)
	return f.deleteResult
}

func (f *fakeRemote) pullCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls
}

type memJournal struct {
	mu      sync.Mutex
	entries []syncer.Entry
}

func (j *memJournal) Record(_ context.Context, e syncer.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) Recent(_ context.Context, limit int) ([]syncer.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := []syncer.Entry{}
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, j.entries[i])
	}
	return out, nil
}

type harness struct {
	local    *store.Memory
	remote   *fakeRemote
	journal  *memJournal
	notes    *notify.Buffer
	registry *prometheus.Registry
	syncer   *syncer.Syncer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		local:    store.NewMemory(),
		remote:   &fakeRemote{pushResult: remote.Confirmed(), deleteResult: remote.Confirmed()},
		journal:  &memJournal{},
		notes:    notify.NewBuffer(20),
		registry: prometheus.NewRegistry(),
	}
	h.syncer = syncer.New(h.local, h.remote,
		syncer.WithJournal(h.journal),
		syncer.WithNotifier(h.notes),
		syncer.WithMetrics(syncer.NewMetrics(h.registry)),
		syncer.WithLogger(log.New(io.Discard, "", 0)),
	)
	return h
}

func rec(date string) report.Record {
	return report.Record{
		Date:       date,
		PreparedBy: "Sam",
		Backups:    []report.BackupRow{{Task: "NAS", Status: "Completed"}},
	}
}

func (h *harness) lastNotification(t *testing.T) notify.Notification {
	t.Helper()
	n, ok := h.notes.Latest()
	require.True(t, ok, "expected a notification")
	return n
}

// =============================================================================
// SAVE
// =============================================================================

func TestSave_LocalWriteCompletesBeforeRemote(t *testing.T) {
	// GIVEN: A remote that inspects the local store while handling the push
	// WHEN: A report is saved
	// THEN: The record is already in the local store when the push starts

	h := newHarness(t)
	var seenLocally bool
	h.remote.onPush = func(r report.Record) {
		_, seenLocally = report.Find(h.local.List(context.Background()), r.Date)
	}

	_, err := h.syncer.Save(context.Background(), rec("2024-03-01"), nil)

	require.NoError(t, err)
	assert.True(t, seenLocally)
}

func TestSave_Confirmed(t *testing.T) {
	h := newHarness(t)
	var progress []syncer.Progress

	res, err := h.syncer.Save(context.Background(), rec("2024-03-01"), func(p syncer.Progress) {
		progress = append(progress, p)
	})

	require.NoError(t, err)
	assert.Equal(t, []syncer.Progress{syncer.ProgressLocal, syncer.ProgressSynced}, progress)
	assert.Equal(t, progress, res.Progress)
	assert.Equal(t, remote.StatusConfirmed, res.Remote.Status)

	n := h.lastNotification(t)
	assert.Equal(t, notify.LevelSuccess, n.Level)
	assert.Equal(t, "Report saved & synced", n.Message)
}

func TestSave_Dispatched(t *testing.T) {
	h := newHarness(t)
	h.remote.pushResult = remote.Dispatched()

	res, err := h.syncer.Save(context.Background(), rec("2024-03-01"), nil)

	require.NoError(t, err)
	assert.Equal(t, []syncer.Progress{syncer.ProgressLocal, syncer.ProgressDispatched}, res.Progress)
	assert.Equal(t, notify.LevelSuccess, h.lastNotification(t).Level)
	assert.Contains(t, h.lastNotification(t).Message, "unconfirmed")
}

func TestSave_RemoteFailureKeepsLocalAndReportsError(t *testing.T) {
	// GIVEN: A remote that fails
	// WHEN: A report is saved
	// THEN: Save succeeds, the record is local, the user sees an error toast

	h := newHarness(t)
	h.remote.pushResult = remote.Failed("HTTP 500")

	res, err := h.syncer.Save(context.Background(), rec("2024-03-01"), nil)

	require.NoError(t, err)
	assert.Equal(t, []syncer.Progress{syncer.ProgressLocal}, res.Progress)
	assert.Equal(t, remote.StatusFailed, res.Remote.Status)
	assert.Len(t, h.local.List(context.Background()), 1)

	n := h.lastNotification(t)
	assert.True(t, n.IsError())
	assert.Equal(t, "Saved locally, remote sync failed", n.Message)

	require.Len(t, h.journal.entries, 1)
	assert.Equal(t, "failed", h.journal.entries[0].Outcome)
	assert.Equal(t, "HTTP 500", h.journal.entries[0].Reason)
	assert.Equal(t, float64(1), counterValue(t, h.registry, "push", "failed"))
}

func TestSave_NotConfiguredIsInformational(t *testing.T) {
	h := newHarness(t)
	h.syncer.SetRemote(remote.New(remote.Config{}, remote.WithLogger(log.New(io.Discard, "", 0))))

	res, err := h.syncer.Save(context.Background(), rec("2024-03-01"), nil)

	require.NoError(t, err)
	assert.Equal(t, remote.StatusNotConfigured, res.Remote.Status)
	n := h.lastNotification(t)
	assert.Equal(t, notify.LevelInfo, n.Level)
	assert.False(t, n.IsError())
	assert.Empty(t, h.journal.entries[0].Reason)
}

func TestSave_LocalFailureIsTheOnlyError(t *testing.T) {
	h := newHarness(t)
	h.local.WriteErr = errors.New("quota exceeded")

	_, err := h.syncer.Save(context.Background(), rec("2024-03-01"), nil)

	assert.ErrorContains(t, err, "quota exceeded")
	assert.Empty(t, h.remote.pushed, "nothing is pushed when the local write fails")
}

func TestSave_MissingDateRejected(t *testing.T) {
	h := newHarness(t)

	_, err := h.syncer.Save(context.Background(), report.Record{PreparedBy: "Sam"}, nil)

	assert.ErrorIs(t, err, report.ErrMissingDate)
	assert.Empty(t, h.local.List(context.Background()))
}

func TestSave_NilRemoteBehavesAsNotConfigured(t *testing.T) {
	s := syncer.New(store.NewMemory(), nil, syncer.WithLogger(log.New(io.Discard, "", 0)))

	res, err := s.Save(context.Background(), rec("2024-03-01"), nil)

	require.NoError(t, err)
	assert.Equal(t, remote.StatusNotConfigured, res.Remote.Status)
}

// =============================================================================
// LOAD
// =============================================================================

func TestLoadAll_RemoteWinsAndReconciles(t *testing.T) {
	// GIVEN: Local holds [X]; remote returns [Y, Z]
	// WHEN: LoadAll runs
	// THEN: The answer is [Y, Z] as the remote ordered it; local now holds X, Y and Z

	h := newHarness(t)
	ctx := context.Background()
	_, err := h.local.Upsert(ctx, rec("2024-03-01"))
	require.NoError(t, err)
	h.remote.pullRecords = []report.Record{rec("2024-03-02"), rec("2024-03-03")}

	records, source := h.syncer.LoadAll(ctx)

	assert.Equal(t, syncer.SourceRemote, source)
	assert.Equal(t, h.remote.pullRecords, records)
	local := h.local.List(ctx)
	assert.Len(t, local, 3)
	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		_, ok := report.Find(local, d)
		assert.True(t, ok, d)
	}
}

func TestLoadAll_NumericCellsFromProxy(t *testing.T) {
	// GIVEN: A proxy that sends a numeric cell in one row
	// WHEN: LoadAll runs against it
	// THEN: The remote answer wins and the cell keeps its text

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"date":"2024-01-02","preparedBy":"Sam"},
			{"date":"2024-01-01","servers":[["DC1","Normal",42]]}
		]}`))
	}))
	defer srv.Close()

	h := newHarness(t)
	ctx := context.Background()
	_, err := h.local.Upsert(ctx, rec("2023-12-31"))
	require.NoError(t, err)
	h.syncer.SetRemote(remote.New(remote.Config{Endpoint: srv.URL}, remote.WithLogger(log.New(io.Discard, "", 0))))

	records, source := h.syncer.LoadAll(ctx)

	assert.Equal(t, syncer.SourceRemote, source)
	require.Len(t, records, 2)
	assert.Equal(t, []report.ServerRow{{Location: "DC1", Status: "Normal", Notes: "42"}}, records[1].Servers)
	assert.Len(t, h.local.List(ctx), 3)
}

func TestLoadAll_DatelessRemoteRecordsAreNotCached(t *testing.T) {
	// GIVEN: A remote answer containing records without a date
	// WHEN: LoadAll reconciles it
	// THEN: Only dated records reach the local store; the answer is unchanged

	h := newHarness(t)
	ctx := context.Background()
	h.remote.pullRecords = []report.Record{
		{PreparedBy: "ghost"},
		rec("2024-03-02"),
		{PreparedBy: "another ghost"},
	}

	records, source := h.syncer.LoadAll(ctx)

	assert.Equal(t, syncer.SourceRemote, source)
	assert.Equal(t, h.remote.pullRecords, records)
	local := h.local.List(ctx)
	require.Len(t, local, 1)
	assert.Equal(t, "2024-03-02", local[0].Date)
	_, found := report.Find(local, "")
	assert.False(t, found)
}

func TestLoadAll_RemoteEmptyFallsBackToLocal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.local.Upsert(ctx, rec("2024-03-01"))
	require.NoError(t, err)
	h.remote.pullRecords = []report.Record{}

	records, source := h.syncer.LoadAll(ctx)

	assert.Equal(t, syncer.SourceLocal, source)
	assert.Equal(t, h.local.List(ctx), records)
	assert.Equal(t, "empty", h.journal.entries[0].Outcome)
}

func TestLoadAll_RemoteUnreachableFallsBackToLocal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.local.Upsert(ctx, rec("2024-03-01"))
	require.NoError(t, err)
	h.remote.pullErr = remote.ErrUnreachable

	records, source := h.syncer.LoadAll(ctx)

	assert.Equal(t, syncer.SourceLocal, source)
	require.Len(t, records, 1)
	assert.Equal(t, "unreachable", h.journal.entries[0].Outcome)
}

func TestLoadAll_NotConfiguredReturnsLocal(t *testing.T) {
	h := newHarness(t)
	h.remote.pullErr = remote.ErrNotConfigured

	records, source := h.syncer.LoadAll(context.Background())

	assert.Equal(t, syncer.SourceLocal, source)
	assert.Empty(t, records)
	assert.Equal(t, "not_configured", h.journal.entries[0].Outcome)
}

func TestLoadAll_LocalWriteErrorsDoNotFailLoad(t *testing.T) {
	h := newHarness(t)
	h.local.WriteErr = errors.New("read-only")
	h.remote.pullRecords = []report.Record{rec("2024-03-02")}

	records, source := h.syncer.LoadAll(context.Background())

	assert.Equal(t, syncer.SourceRemote, source)
	assert.Equal(t, h.remote.pullRecords, records)
}

// =============================================================================
// GET / DELETE / HISTORY
// =============================================================================

func TestGet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.syncer.Save(ctx, rec("2024-03-01"), nil)
	require.NoError(t, err)

	got, err := h.syncer.Get(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, rec("2024-03-01"), got)

	_, err = h.syncer.Get(ctx, "2024-03-09")
	assert.ErrorIs(t, err, report.ErrNotFound)
}

func TestDelete_LocalThenRemote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.syncer.Save(ctx, rec("2024-03-01"), nil)
	require.NoError(t, err)

	require.NoError(t, h.syncer.Delete(ctx, "2024-03-01"))

	assert.Empty(t, h.local.List(ctx))
	assert.Equal(t, []string{"2024-03-01"}, h.remote.deleted)
	assert.Equal(t, "Report deleted", h.lastNotification(t).Message)
}

func TestDelete_RemoteFailureIsNotAnError(t *testing.T) {
	h := newHarness(t)
	h.remote.deleteResult = remote.Failed("HTTP 503")

	err := h.syncer.Delete(context.Background(), "2024-03-01")

	assert.NoError(t, err)
	last := h.journal.entries[len(h.journal.entries)-1]
	assert.Equal(t, syncer.OpDelete, last.Op)
	assert.Equal(t, "failed", last.Outcome)
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, _ = h.syncer.Save(ctx, rec("2024-03-01"), nil)
	_, _ = h.syncer.LoadAll(ctx)

	entries, err := h.syncer.History(ctx, 10)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, syncer.OpPull, entries[0].Op)
	assert.Equal(t, syncer.OpPush, entries[1].Op)
}

func TestHistory_NoJournal(t *testing.T) {
	s := syncer.New(store.NewMemory(), nil, syncer.WithLogger(log.New(io.Discard, "", 0)))

	entries, err := s.History(context.Background(), 10)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

// =============================================================================
// HELPERS
// =============================================================================

func counterValue(t *testing.T, reg *prometheus.Registry, op, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "opsreport_sync_operations_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["op"] == op && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
