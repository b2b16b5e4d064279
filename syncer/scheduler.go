/*
scheduler.go - Periodic background refresh

PURPOSE:
  While the server runs, periodically calls LoadAll so the local cache
  tracks the remote store of record even when nobody opens the dashboard.
  When the remote is unconfigured or unreachable a tick is a cheap no-op
  that falls back to local data.

USAGE:
  r := syncer.NewRefresher(s, 15*time.Minute, logger)
  r.Start()
  defer r.Stop()
*/
package syncer

import (
	"context"
	"log"
	"sync"
	"time"
)

// Refresher runs LoadAll on an interval.
type Refresher struct {
	Syncer   *Syncer
	Interval time.Duration
	Enabled  bool

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	logger  *log.Logger
	lastRun time.Time
	source  Source
}

// NewRefresher creates a refresher. A non-positive interval disables it.
func NewRefresher(s *Syncer, interval time.Duration, logger *log.Logger) *Refresher {
	if logger == nil {
		logger = log.Default()
	}
	return &Refresher{
		Syncer:   s,
		Interval: interval,
		Enabled:  interval > 0,
		logger:   logger,
	}
}

// Start begins the refresh loop.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.Enabled || r.ticker != nil {
		if !r.Enabled {
			r.logger.Println("Disabled, not starting")
		}
		return
	}

	r.ticker = time.NewTicker(r.Interval)
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go r.run(r.ticker.C, r.stop)

	r.logger.Printf("Started with interval: %v", r.Interval)
}

// Stop stops the loop and waits for an in-flight refresh.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if r.ticker == nil {
		r.mu.Unlock()
		return
	}
	r.ticker.Stop()
	close(r.stop)
	r.ticker = nil
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Println("Stopped")
}

func (r *Refresher) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer r.wg.Done()

	r.RunNow()
	for {
		select {
		case <-tick:
			r.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow refreshes immediately.
func (r *Refresher) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, source := r.Syncer.LoadAll(ctx)

	r.mu.Lock()
	r.lastRun = time.Now()
	r.source = source
	r.mu.Unlock()

	r.logger.Printf("Loaded %d reports from %s", len(records), source)
}

// LastRun returns when the last refresh finished and where its data came from.
func (r *Refresher) LastRun() (time.Time, Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, r.source
}
