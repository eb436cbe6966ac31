package server

import (
	"sync"

	"github.com/decred/slog"

	"github.com/cardroomd/cardroomd/pkg/session"
	"github.com/cardroomd/cardroomd/pkg/table"
)

// settlementJob is a by-value capture of one settled hand, taken before the
// engine resets the source fields for the next round. applyBalance is set
// for table settlements, where chips were mutated in memory and the store
// has to catch up; session debits and payouts already went through the bank
// synchronously, so those jobs only append history.
type settlementJob struct {
	playerID     string
	gameID       string
	stake        int64
	net          int64
	outcome      string
	applyBalance bool
}

// SettlementQueue is the bounded work queue between the engine and the
// store. Writes are at-most-once and after the fact: a failure is logged but
// never rolled back into the already-applied in-memory state.
type SettlementQueue struct {
	log     slog.Logger
	db      Database
	queue   chan settlementJob
	workers int

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// NewSettlementQueue creates a queue with the given buffer size and worker
// count.
func NewSettlementQueue(db Database, log slog.Logger, queueSize, workers int) *SettlementQueue {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 2
	}
	return &SettlementQueue{
		log:      log,
		db:       db,
		queue:    make(chan settlementJob, queueSize),
		workers:  workers,
		stopChan: make(chan struct{}),
	}
}

// Start launches the workers.
func (q *SettlementQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	q.log.Infof("starting settlement queue with %d workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(i)
	}
}

// Stop drains nothing: pending jobs are abandoned, which is within the
// documented at-most-once contract.
func (q *SettlementQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started {
		return
	}
	close(q.stopChan)
	q.wg.Wait()
	q.started = false
	q.log.Infof("settlement queue stopped")
}

func (q *SettlementQueue) run(id int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.stopChan:
			return
		case job := <-q.queue:
			q.process(id, job)
		}
	}
}

func (q *SettlementQueue) process(worker int, job settlementJob) {
	if job.applyBalance && job.net != 0 {
		err := q.db.UpdatePlayerBalance(job.playerID, job.net, "settlement", job.gameID)
		if err != nil {
			q.log.Errorf("worker %d: balance flush for %s (%s) failed: %v",
				worker, job.playerID, job.gameID, err)
		}
	}
	if err := q.db.RecordHand(job.playerID, job.gameID, job.stake, job.net, job.outcome); err != nil {
		q.log.Errorf("worker %d: history insert for %s (%s) failed: %v",
			worker, job.playerID, job.gameID, err)
	}
}

func (q *SettlementQueue) enqueue(job settlementJob) {
	select {
	case q.queue <- job:
	default:
		q.log.Errorf("settlement queue full, dropping record for %s (%s)",
			job.playerID, job.gameID)
	}
}

// RecordSettlement implements table.Recorder.
func (q *SettlementQueue) RecordSettlement(rec table.SettledHand) {
	q.enqueue(settlementJob{
		playerID:     rec.UserID,
		gameID:       rec.GameID,
		stake:        rec.Stake,
		net:          rec.Net,
		outcome:      string(rec.Outcome),
		applyBalance: true,
	})
}

// RecordHand implements session.Recorder.
func (q *SettlementQueue) RecordHand(rec session.HandRecord) {
	q.enqueue(settlementJob{
		playerID: rec.UserID,
		gameID:   rec.GameID,
		stake:    rec.Stake,
		net:      rec.Net,
		outcome:  rec.Outcome,
	})
}
