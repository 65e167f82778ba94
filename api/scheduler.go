/*
scheduler.go - Periodic snapshot checkpoints

PURPOSE:
  While the server runs, periodically writes the current balances to the
  SQLite snapshots table so an operator can inspect them without calling
  the API. The ledger never reads them back.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Skips a tick when nothing was submitted since the last checkpoint
  - A failed checkpoint is logged and retried on the next tick

USAGE:
  scheduler := NewSnapshotScheduler(store, handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - store/sqlite/sqlite.go: SaveSnapshot
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/payments-engine/bank"
)

// SnapshotSink receives checkpoints.
type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, balances []bank.Balance, takenAt time.Time) error
}

// SnapshotScheduler checkpoints the handler's ledger on a ticker.
type SnapshotScheduler struct {
	Sink     SnapshotSink
	Handler  *Handler
	Interval time.Duration

	ticker   *time.Ticker
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	lastSeen uint64
}

func NewSnapshotScheduler(sink SnapshotSink, handler *Handler) *SnapshotScheduler {
	return &SnapshotScheduler{
		Sink:     sink,
		Handler:  handler,
		Interval: time.Minute,
	}
}

// Start begins the scheduler. A non-positive Interval disables it.
func (s *SnapshotScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Interval <= 0 {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker, s.stop)

	log.Printf("[Scheduler] Started with interval: %v", s.Interval)
}

// Stop stops the scheduler and waits for an in-flight checkpoint.
func (s *SnapshotScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	log.Println("[Scheduler] Stopped")
}

func (s *SnapshotScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Checkpoint(context.Background()); err != nil {
				log.Printf("[Scheduler] Checkpoint failed: %v", err)
			}
		case <-stop:
			return
		}
	}
}

// Checkpoint saves the snapshot if records were submitted since the last
// one. It reports whether a snapshot was written.
func (s *SnapshotScheduler) Checkpoint(ctx context.Context) (bool, error) {
	balances, seq := s.Handler.snapshotAt()
	if seq == s.lastSeen {
		return false, nil
	}
	if err := s.Sink.SaveSnapshot(ctx, balances, time.Now()); err != nil {
		return false, err
	}
	s.lastSeen = seq
	return true, nil
}
