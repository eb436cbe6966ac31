package table

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/cardroomd/cardroomd/pkg/cards"
	"github.com/cardroomd/cardroomd/pkg/statemachine"
)

// EventType distinguishes the two publish side-channels.
type EventType int

const (
	// EventState carries a full-state snapshot.
	EventState EventType = iota
	// EventLog carries a human-readable log line.
	EventLog
)

// Event is published to table observers after every successful mutation and
// at every countdown tick. The external transport consumes these.
type Event struct {
	Type     EventType
	TableID  string
	Snapshot *Snapshot
	Message  string
}

// SettledHand is the persistence record for one seat's finished round. All
// fields are captured by value before the table resets for the next round.
type SettledHand struct {
	UserID     string
	GameID     string
	Stake      int64
	Net        int64
	NewBalance int64
	Outcome    Result
}

// Recorder receives settlement records for asynchronous persistence.
type Recorder interface {
	RecordSettlement(SettledHand)
}

// Config holds configuration for a new table. MinBet is fixed at creation.
type Config struct {
	ID        string
	Log       slog.Logger
	MinBet    int64
	Capacity  int           // non-dealer seats, default 5
	PackCount int           // packs in the shoe, default 6
	Countdown int           // betting countdown in ticks, default 30
	Tick      time.Duration // countdown tick interval, default 1s
}

// stageFn is a table stage following the state-function pattern.
type stageFn = statemachine.StateFn[Table]

// Round stages. The stage only advances forward within a round:
// WaitingForBets -> Dealing -> PlayerTurns -> DealerTurn -> Showdown ->
// (reset) WaitingForBets. Transitions are dispatched explicitly by the
// action handlers; the stage functions themselves hold position.
func stageWaitingForBets(t *Table) stageFn { return stageWaitingForBets }
func stageDealing(t *Table) stageFn        { return stageDealing }
func stagePlayerTurns(t *Table) stageFn    { return stagePlayerTurns }
func stageDealerTurn(t *Table) stageFn     { return stageDealerTurn }
func stageShowdown(t *Table) stageFn       { return stageShowdown }

// Table is a persistent multiplayer blackjack table. It is created once at
// process start and lives for the process lifetime; rounds reset it, nothing
// destroys it. One mutex serializes every read and mutation so no two
// actions on the same table interleave.
type Table struct {
	log slog.Logger
	cfg Config

	mu    sync.Mutex
	seats []*Seat // fixed capacity, nil = free; index = seat index

	deck               *cards.Deck
	dealerHand         []cards.Card
	dealerScore        int
	dealerBusted       bool
	dealerHasBlackjack bool

	currentSeat    int // -1 outside PlayerTurns
	gameInProgress bool
	waitingForBets bool

	countdownRunning   bool
	countdownRemaining int
	countdownGen       int

	roundSeq int

	// newShoe is swapped by tests to stack deals.
	newShoe func() *cards.Deck

	eventCh  chan<- Event
	recorder Recorder

	stages *statemachine.Machine[Table]
}

// New creates a table from cfg, applying defaults for zero values.
func New(cfg Config) *Table {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 5
	}
	if cfg.PackCount <= 0 {
		cfg.PackCount = 6
	}
	if cfg.Countdown <= 0 {
		cfg.Countdown = 30
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	t := &Table{
		log:            cfg.Log,
		cfg:            cfg,
		seats:          make([]*Seat, cfg.Capacity),
		currentSeat:    -1,
		waitingForBets: true,
	}
	t.newShoe = func() *cards.Deck {
		return cards.NewShoe(cfg.PackCount, rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	t.stages = statemachine.New(t, stageWaitingForBets)
	return t
}

// ID returns the table id.
func (t *Table) ID() string { return t.cfg.ID }

// MinBet returns the table minimum bet.
func (t *Table) MinBet() int64 { return t.cfg.MinBet }

// SetEventChannel attaches the observers' event channel.
func (t *Table) SetEventChannel(ch chan<- Event) {
	t.mu.Lock()
	t.eventCh = ch
	t.mu.Unlock()
}

// SetRecorder attaches the settlement persistence sink.
func (t *Table) SetRecorder(r Recorder) {
	t.mu.Lock()
	t.recorder = r
	t.mu.Unlock()
}

// Stage returns the current stage name.
func (t *Table) Stage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stageLocked()
}

func (t *Table) stageLocked() string {
	current := t.stages.Current()
	switch fmt.Sprintf("%p", current) {
	case fmt.Sprintf("%p", stageWaitingForBets):
		return "WAITING_FOR_BETS"
	case fmt.Sprintf("%p", stageDealing):
		return "DEALING"
	case fmt.Sprintf("%p", stagePlayerTurns):
		return "PLAYER_TURNS"
	case fmt.Sprintf("%p", stageDealerTurn):
		return "DEALER_TURN"
	case fmt.Sprintf("%p", stageShowdown):
		return "SHOWDOWN"
	default:
		return "UNKNOWN"
	}
}

// Snapshot is a full-state copy of the table for broadcasting. Observers
// never see a snapshot older than the action that produced it: snapshots are
// built and published under the table lock.
type Snapshot struct {
	TableID            string         `json:"tableId"`
	Stage              string         `json:"stage"`
	MinBet             int64          `json:"minBet"`
	Seats              []SeatSnapshot `json:"seats"`
	DealerHand         []cards.Card   `json:"dealerHand"`
	DealerScore        int            `json:"dealerScore"`
	DealerBusted       bool           `json:"dealerBusted"`
	DealerHasBlackjack bool           `json:"dealerHasBlackjack"`
	CurrentSeat        int            `json:"currentSeat"`
	GameInProgress     bool           `json:"gameInProgress"`
	CountdownRemaining int            `json:"countdownRemaining"`
}

// GetSnapshot returns a point-in-time copy of the table state.
func (t *Table) GetSnapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() Snapshot {
	seats := make([]SeatSnapshot, 0, len(t.seats))
	for _, s := range t.seats {
		if s == nil {
			continue
		}
		seats = append(seats, s.snapshot())
	}
	dealer := make([]cards.Card, len(t.dealerHand))
	copy(dealer, t.dealerHand)
	return Snapshot{
		TableID:            t.cfg.ID,
		Stage:              t.stageLocked(),
		MinBet:             t.cfg.MinBet,
		Seats:              seats,
		DealerHand:         dealer,
		DealerScore:        t.dealerScore,
		DealerBusted:       t.dealerBusted,
		DealerHasBlackjack: t.dealerHasBlackjack,
		CurrentSeat:        t.currentSeat,
		GameInProgress:     t.gameInProgress,
		CountdownRemaining: t.countdownRemaining,
	}
}

// publishStateLocked broadcasts the current snapshot. The send is
// non-blocking; a full channel drops the event rather than stalling the
// table.
func (t *Table) publishStateLocked() {
	if t.eventCh == nil {
		return
	}
	snap := t.snapshotLocked()
	select {
	case t.eventCh <- Event{Type: EventState, TableID: t.cfg.ID, Snapshot: &snap}:
	default:
		t.log.Warnf("event channel full, dropping state for table %s", t.cfg.ID)
	}
}

// publishLogLocked broadcasts a human-readable log line.
func (t *Table) publishLogLocked(format string, args ...interface{}) {
	if t.eventCh == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	select {
	case t.eventCh <- Event{Type: EventLog, TableID: t.cfg.ID, Message: msg}:
	default:
		t.log.Warnf("event channel full, dropping log for table %s", t.cfg.ID)
	}
}

// dispatchRecords hands settlement records to the recorder. Called after the
// table lock is released; every record was captured by value beforehand.
func (t *Table) dispatchRecords(recs []SettledHand) {
	if len(recs) == 0 {
		return
	}
	t.mu.Lock()
	r := t.recorder
	t.mu.Unlock()
	if r == nil {
		return
	}
	for _, rec := range recs {
		r.RecordSettlement(rec)
	}
}

// seatByUserLocked finds the seat for userID, or nil.
func (t *Table) seatByUserLocked(userID string) *Seat {
	for _, s := range t.seats {
		if s != nil && s.UserID == userID {
			return s
		}
	}
	return nil
}

// Join seats a user at the lowest free index, or reclaims their existing
// seat on rejoin (the transport handle is replaced; the last round's display
// state is cleared only when no round is in progress and no bet is pending,
// so a reconnect never costs a placed stake). Legal in any stage. The VIP
// flag comes from the platform account, the engine only carries it.
func (t *Table) Join(connID, userID, username string, chips int64, isVIP bool) error {
	t.mu.Lock()

	if s := t.seatByUserLocked(userID); s != nil {
		s.ConnID = connID
		s.IsVIP = isVIP
		if !t.gameInProgress && s.CurrentBet == 0 {
			s.resetForBet()
		}
		t.log.Debugf("table %s: %s rejoined seat %d", t.cfg.ID, userID, s.SeatIndex)
		t.publishLogLocked("%s reconnected", username)
		t.publishStateLocked()
		t.mu.Unlock()
		return nil
	}

	idx := -1
	for i, s := range t.seats {
		if s == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		t.mu.Unlock()
		return ErrTableFull
	}

	t.seats[idx] = &Seat{
		ConnID:    connID,
		UserID:    userID,
		Username:  username,
		Chips:     chips,
		SeatIndex: idx,
		IsVIP:     isVIP,
	}
	t.log.Infof("table %s: %s joined seat %d (%d chips)", t.cfg.ID, userID, idx, chips)
	t.publishLogLocked("%s joined the table", username)
	t.publishStateLocked()
	t.mu.Unlock()
	return nil
}

// Leave removes a user's seat. Outside a round the seat is removed outright
// and any bet placed for the round that never started is refunded. During an
// in-progress round the seat is marked stood and busted in place so turn
// logic skips it, and it is removed once the round settles; that bet is not
// refunded.
func (t *Table) Leave(userID string) error {
	t.mu.Lock()

	s := t.seatByUserLocked(userID)
	if s == nil {
		t.mu.Unlock()
		return ErrNotSeated
	}

	var recs []SettledHand
	if t.gameInProgress && s.inRound() {
		s.HasStood = true
		s.HasBusted = true
		s.leaving = true
		t.log.Infof("table %s: %s left mid-round, seat %d parked", t.cfg.ID, userID, s.SeatIndex)
		if t.currentSeat == s.SeatIndex {
			recs = t.advanceTurnLocked()
		}
	} else {
		// Before the round starts there is no hand to forfeit, so a
		// pending bet goes back to the player.
		if s.CurrentBet > 0 {
			s.Chips += s.CurrentBet
			s.CurrentBet = 0
		}
		t.seats[s.SeatIndex] = nil
		t.log.Infof("table %s: %s left seat %d", t.cfg.ID, userID, s.SeatIndex)
		// The remaining bettors may now be unanimous; start early if so.
		if t.waitingForBets && t.countdownRunning && t.allSeatedHaveBetLocked() {
			recs = t.startRoundLocked()
		}
	}

	t.publishLogLocked("%s left the table", s.Username)
	t.publishStateLocked()
	t.mu.Unlock()
	t.dispatchRecords(recs)
	return nil
}

// anyBetLocked reports whether at least one seat has a bet down.
func (t *Table) anyBetLocked() bool {
	for _, s := range t.seats {
		if s.inRound() {
			return true
		}
	}
	return false
}

// allSeatedHaveBetLocked reports whether every currently seated player has a
// bet down. Vacuously false with no seats occupied.
func (t *Table) allSeatedHaveBetLocked() bool {
	any := false
	for _, s := range t.seats {
		if s == nil {
			continue
		}
		if s.CurrentBet <= 0 {
			return false
		}
		any = true
	}
	return any
}

// PlaceBet places a bet for the round about to start. The first bet starts
// the betting countdown; once every seated player has a bet the round starts
// immediately.
func (t *Table) PlaceBet(userID string, amount int64) error {
	t.mu.Lock()

	if !t.waitingForBets || t.gameInProgress {
		t.mu.Unlock()
		return ErrWrongStage
	}
	s := t.seatByUserLocked(userID)
	if s == nil {
		t.mu.Unlock()
		return ErrNotSeated
	}
	if s.CurrentBet > 0 {
		t.mu.Unlock()
		return ErrAlreadyBet
	}
	if amount < t.cfg.MinBet {
		t.mu.Unlock()
		return ErrBetTooSmall
	}
	if amount > s.Chips {
		t.mu.Unlock()
		return ErrInsufficientChips
	}

	s.resetForBet()
	s.Chips -= amount
	s.CurrentBet = amount
	t.log.Debugf("table %s: %s bet %d", t.cfg.ID, userID, amount)
	t.publishLogLocked("%s bet %d", s.Username, amount)

	var recs []SettledHand
	if t.allSeatedHaveBetLocked() {
		recs = t.startRoundLocked()
	} else if !t.countdownRunning {
		t.countdownRunning = true
		t.countdownRemaining = t.cfg.Countdown
		t.countdownGen++
		go t.runCountdown(t.countdownGen)
		t.publishLogLocked("betting closes in %ds", t.countdownRemaining)
	}

	t.publishStateLocked()
	t.mu.Unlock()
	t.dispatchRecords(recs)
	return nil
}

// StartRound starts the round immediately if at least one bet is down.
func (t *Table) StartRound() error {
	t.mu.Lock()
	if !t.waitingForBets || t.gameInProgress {
		t.mu.Unlock()
		return ErrRoundInProgress
	}
	if !t.anyBetLocked() {
		t.mu.Unlock()
		return ErrNoBets
	}
	recs := t.startRoundLocked()
	t.publishStateLocked()
	t.mu.Unlock()
	t.dispatchRecords(recs)
	return nil
}

// runCountdown is the betting countdown task for one arming of the timer.
// Each tick it reacquires the table lock and re-validates the stage: a
// concurrent PlaceBet or StartRound may have started the round already, in
// which case the timer no-ops out. gen ties the goroutine to the arming that
// launched it, so a stale timer cannot tick a countdown armed later (a round
// can start and settle within one tick interval when every hand is a
// natural). Cancellation is this guard, not forced task cancellation.
func (t *Table) runCountdown(gen int) {
	ticker := time.NewTicker(t.cfg.Tick)
	defer ticker.Stop()

	for range ticker.C {
		t.mu.Lock()
		if gen != t.countdownGen || !t.waitingForBets || t.gameInProgress || !t.countdownRunning {
			t.mu.Unlock()
			return
		}

		t.countdownRemaining--
		if t.countdownRemaining > 0 {
			t.publishLogLocked("betting closes in %ds", t.countdownRemaining)
			t.publishStateLocked()
			t.mu.Unlock()
			continue
		}

		// Timer expired.
		t.countdownRunning = false
		var recs []SettledHand
		if t.anyBetLocked() {
			recs = t.startRoundLocked()
		} else {
			t.publishLogLocked("no bets placed, round cancelled")
		}
		t.publishStateLocked()
		t.mu.Unlock()
		t.dispatchRecords(recs)
		return
	}
}
