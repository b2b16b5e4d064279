/*
Package syncer implements the local-first synchronization policy between
the on-device report store and the remote store of record.

SAVE (local first):
  1. Upsert into the local store. This completes before any network
     activity, so the record is durable even if the device goes offline.
  2. onProgress(ProgressLocal)
  3. Push to the remote
  4. confirmed  -> onProgress(ProgressSynced), success notification
     dispatched -> onProgress(ProgressDispatched), success notification
     not config -> informational notification (saving locally is complete)
     failed     -> error notification; the record stays local

  Save only returns an error when the local write fails.

LOAD (remote wins when non-empty):
  1. PullAll from the remote
  2. Non-empty answer -> upsert every dated remote record locally, return
     the remote sequence as-is (remote ordering wins)
  3. Otherwise (not configured, unreachable, or empty) -> return the local
     list unchanged

  An intentionally emptied remote cannot be told apart from an
  unreachable one here; both fall back to local data.

SEE ALSO:
  - report/store.go: Local store contract
  - remote/client.go: Remote client
*/
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/warp/opsreport/notify"
	"github.com/warp/opsreport/remote"
	"github.com/warp/opsreport/report"
)

// Remote is the remote side of the policy. *remote.Client implements it.
type Remote interface {
	Push(ctx context.Context, rec report.Record) remote.Result
	PullAll(ctx context.Context) ([]report.Record, error)
	Delete(ctx context.Context, date string) remote.Result
}

// Progress is reported to Save callers as the record moves along.
type Progress string

const (
	ProgressLocal      Progress = "local"
	ProgressSynced     Progress = "synced"
	ProgressDispatched Progress = "dispatched"
)

// Source says where LoadAll's answer came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// SaveResult describes a completed Save.
type SaveResult struct {
	Date     string        `json:"date"`
	Remote   remote.Result `json:"remote"`
	Progress []Progress    `json:"progress"`
}

// Syncer orchestrates reads and writes across the two stores.
// It holds no report data between calls.
type Syncer struct {
	mu     sync.RWMutex
	local  report.Store
	remote Remote

	notifier notify.Notifier
	journal  Journal
	metrics  *Metrics
	logger   *log.Logger
}

// Option customizes a Syncer.
type Option func(*Syncer)

func WithNotifier(n notify.Notifier) Option { return func(s *Syncer) { s.notifier = n } }
func WithJournal(j Journal) Option          { return func(s *Syncer) { s.journal = j } }
func WithMetrics(m *Metrics) Option         { return func(s *Syncer) { s.metrics = m } }
func WithLogger(l *log.Logger) Option       { return func(s *Syncer) { s.logger = l } }

// New creates a syncer. A nil remote behaves as not configured.
func New(local report.Store, rem Remote, opts ...Option) *Syncer {
	s := &Syncer{
		local:    local,
		remote:   rem,
		notifier: notify.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if s.remote == nil {
		s.remote = remote.New(remote.Config{}, remote.WithLogger(s.logger))
	}
	return s
}

// SetRemote swaps the remote client, e.g. after the endpoint changed.
func (s *Syncer) SetRemote(rem Remote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = rem
}

func (s *Syncer) currentRemote() Remote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remote
}

// =============================================================================
// SAVE
// =============================================================================

// Save persists rec locally, then pushes it to the remote.
// onProgress may be nil.
func (s *Syncer) Save(ctx context.Context, rec report.Record, onProgress func(Progress)) (SaveResult, error) {
	if err := report.Validate(rec); err != nil {
		return SaveResult{}, err
	}
	result := SaveResult{Date: rec.Date}
	progress := func(p Progress) {
		result.Progress = append(result.Progress, p)
		if onProgress != nil {
			onProgress(p)
		}
	}

	records, err := s.local.Upsert(ctx, rec)
	if err != nil {
		notify.Send(s.notifier, notify.LevelError, "Could not save report locally")
		return result, fmt.Errorf("failed to save report locally: %w", err)
	}
	s.metrics.setLocal(len(records))
	progress(ProgressLocal)

	res := s.currentRemote().Push(ctx, rec)
	result.Remote = res
	s.journalResult(ctx, OpPush, rec.Date, res, 1)

	switch res.Status {
	case remote.StatusConfirmed:
		progress(ProgressSynced)
		notify.Send(s.notifier, notify.LevelSuccess, "Report saved & synced")
	case remote.StatusDispatched:
		progress(ProgressDispatched)
		notify.Send(s.notifier, notify.LevelSuccess, "Report saved & sent to remote (unconfirmed)")
	case remote.StatusNotConfigured:
		notify.Send(s.notifier, notify.LevelInfo, "Report saved locally (remote not configured)")
	default:
		s.logger.Printf("WARNING: report %s saved locally, remote sync failed: %s", rec.Date, res.Reason)
		notify.Send(s.notifier, notify.LevelError, "Saved locally, remote sync failed")
	}
	return result, nil
}

// =============================================================================
// LOAD
// =============================================================================

// LoadAll returns the remote records when the remote has any, reconciling
// them into the local store first. Otherwise it returns the local list.
func (s *Syncer) LoadAll(ctx context.Context) ([]report.Record, Source) {
	remoteRecords, err := s.currentRemote().PullAll(ctx)
	s.journalPull(ctx, len(remoteRecords), err)

	if err != nil || len(remoteRecords) == 0 {
		return s.local.List(ctx), SourceLocal
	}

	for _, rec := range remoteRecords {
		if err := report.Validate(rec); err != nil {
			s.logger.Printf("WARNING: not caching remote report: %v", err)
			continue
		}
		records, err := s.local.Upsert(ctx, rec)
		if err != nil {
			s.logger.Printf("WARNING: failed to cache remote report %s: %v", rec.Date, err)
			continue
		}
		s.metrics.setLocal(len(records))
	}
	return remoteRecords, SourceRemote
}

// Get returns the locally stored record for date.
func (s *Syncer) Get(ctx context.Context, date string) (report.Record, error) {
	rec, ok := report.Find(s.local.List(ctx), date)
	if !ok {
		return report.Record{}, fmt.Errorf("%w: %s", report.ErrNotFound, date)
	}
	return rec, nil
}

// List returns the local list without contacting the remote.
func (s *Syncer) List(ctx context.Context) []report.Record {
	return s.local.List(ctx)
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes the record locally, then asks the remote to delete it.
// Remote failures are logged and journalled, never returned.
func (s *Syncer) Delete(ctx context.Context, date string) error {
	if err := s.local.Remove(ctx, date); err != nil {
		return fmt.Errorf("failed to delete report locally: %w", err)
	}
	s.metrics.setLocal(len(s.local.List(ctx)))

	res := s.currentRemote().Delete(ctx, date)
	s.journalResult(ctx, OpDelete, date, res, 1)
	notify.Send(s.notifier, notify.LevelSuccess, "Report deleted")
	return nil
}

// History returns recent journal entries; empty when no journal is set.
func (s *Syncer) History(ctx context.Context, limit int) ([]Entry, error) {
	if s.journal == nil {
		return []Entry{}, nil
	}
	return s.journal.Recent(ctx, limit)
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Syncer) journalResult(ctx context.Context, op Op, date string, res remote.Result, n int) {
	s.metrics.observe(op, string(res.Status))
	if s.journal == nil {
		return
	}
	reason := res.Reason
	if res.Status == remote.StatusNotConfigured {
		reason = ""
	}
	e := Entry{Op: op, Date: date, Outcome: string(res.Status), Reason: reason, Records: n}
	if err := s.journal.Record(ctx, e); err != nil {
		s.logger.Printf("WARNING: %v", err)
	}
}

func (s *Syncer) journalPull(ctx context.Context, n int, err error) {
	outcome, reason := "ok", ""
	switch {
	case errors.Is(err, remote.ErrNotConfigured):
		outcome = string(remote.StatusNotConfigured)
	case err != nil:
		outcome, reason = "unreachable", err.Error()
	case n == 0:
		outcome = "empty"
	}
	s.metrics.observe(OpPull, outcome)
	if s.journal == nil {
		return
	}
	if jerr := s.journal.Record(ctx, Entry{Op: OpPull, Outcome: outcome, Reason: reason, Records: n}); jerr != nil {
		s.logger.Printf("WARNING: %v", jerr)
	}
}
