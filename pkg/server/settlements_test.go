package server

import (
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroomd/cardroomd/pkg/session"
	"github.com/cardroomd/cardroomd/pkg/table"
)

func TestSettlementQueueFlushesTableBalances(t *testing.T) {
	db := newFakeDB(map[string]int64{"alice": 100})
	q := NewSettlementQueue(db, slog.Disabled, 16, 1)
	q.Start()
	defer q.Stop()

	q.RecordSettlement(table.SettledHand{
		UserID:  "alice",
		GameID:  "main-1",
		Stake:   10,
		Net:     20,
		Outcome: table.ResultWin,
	})

	require.Eventually(t, func() bool {
		return db.handCount() == 1 && db.updateCount() == 1
	}, time.Second, time.Millisecond)

	balance, err := db.GetPlayerBalance("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(120), balance)

	db.mu.Lock()
	defer db.mu.Unlock()
	assert.Equal(t, "settlement", db.updates[0].txType)
	assert.Equal(t, "main-1", db.updates[0].desc)
	assert.Equal(t, handRow{"alice", "main-1", 10, 20, "win"}, db.hands[0])
}

func TestSettlementQueueSkipsBalanceForZeroNet(t *testing.T) {
	db := newFakeDB(map[string]int64{"alice": 100})
	q := NewSettlementQueue(db, slog.Disabled, 16, 1)
	q.Start()
	defer q.Stop()

	// A push settles with zero net movement; only history is written.
	q.RecordSettlement(table.SettledHand{
		UserID:  "alice",
		GameID:  "main-1",
		Stake:   10,
		Net:     0,
		Outcome: table.ResultPush,
	})

	require.Eventually(t, func() bool {
		return db.handCount() == 1
	}, time.Second, time.Millisecond)
	assert.Zero(t, db.updateCount())
}

func TestSettlementQueueSessionRecordsAreHistoryOnly(t *testing.T) {
	db := newFakeDB(map[string]int64{"alice": 100})
	q := NewSettlementQueue(db, slog.Disabled, 16, 2)
	q.Start()
	defer q.Stop()

	// Session money already moved through the bank synchronously, so the
	// queue must not apply the net again.
	q.RecordHand(session.HandRecord{
		UserID:  "alice",
		GameID:  "blackjack-1",
		Stake:   10,
		Net:     15,
		Outcome: "blackjack",
	})

	require.Eventually(t, func() bool {
		return db.handCount() == 1
	}, time.Second, time.Millisecond)
	assert.Zero(t, db.updateCount())

	balance, err := db.GetPlayerBalance("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestSettlementQueueStartStopIdempotent(t *testing.T) {
	db := newFakeDB(nil)
	q := NewSettlementQueue(db, slog.Disabled, 0, 0)
	q.Start()
	q.Start()
	q.Stop()
	q.Stop()
}
