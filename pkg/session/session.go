package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/cardroomd/cardroomd/pkg/cards"
)

var (
	ErrNotFound          = errors.New("session: session not found")
	ErrWrongState        = errors.New("session: action not valid in current state")
	ErrInvalidBet        = errors.New("session: invalid bet amount")
	ErrInsufficientFunds = errors.New("session: insufficient funds")
	ErrDoubleNotAllowed  = errors.New("session: double down not allowed")
)

// Game identifies the session's game variant.
type Game string

const (
	Blackjack Game = "blackjack"
	Poker     Game = "poker"
)

// State is the session's position in its (two-step) lifecycle.
type State string

const (
	// Blackjack: PlayerTurn -> Finished.
	StatePlayerTurn State = "PLAYER_TURN"
	StateFinished   State = "FINISHED"
	// Poker: Dealt -> Resolved.
	StateDealt    State = "DEALT"
	StateResolved State = "RESOLVED"
)

// Bank is the minimal balance read/write contract the engine needs from the
// external store.
type Bank interface {
	Balance(userID string) (int64, error)
	Apply(userID string, delta int64, txType, description string) error
}

// HandRecord is the history record appended when a session resolves.
type HandRecord struct {
	UserID  string
	GameID  string
	Stake   int64
	Net     int64
	Outcome string
}

// Recorder receives hand records for asynchronous persistence.
type Recorder interface {
	RecordHand(HandRecord)
}

// Session is an in-progress single-player hand. The in-memory struct is the
// authoritative state between actions; persistence only sees the final
// history record.
type Session struct {
	ID     string
	UserID string
	Game   Game
	State  State
	Bet    int64

	deck        *cards.Deck
	PlayerHand  []cards.Card
	DealerHand  []cards.Card
	PlayerScore int
	DealerScore int
	doubled     bool

	Result     string
	Payout     int64
	CreatedAt  time.Time
	FinishedAt time.Time
}

// Config holds the registry's collaborators.
type Config struct {
	Log      slog.Logger
	Bank     Bank
	Recorder Recorder

	// DemoMode suppresses real balance debits and credits while preserving
	// all other behavior. It is a flag checked at the money boundaries, not
	// a separate code path.
	DemoMode bool

	// Seed fixes the deck RNG for deterministic play; 0 seeds from the
	// clock.
	Seed int64
}

// Registry is the concurrent store of live sessions. Terminal sessions are
// removed from the map; only their history record survives.
type Registry struct {
	log      slog.Logger
	bank     Bank
	recorder Recorder
	demo     bool

	mu       sync.Mutex
	rng      *rand.Rand
	sessions map[string]*Session
	nextID   int64

	// newDeck is swapped by tests to stack deals.
	newDeck func(rng *rand.Rand) *cards.Deck
}

// NewRegistry creates a session registry. Registries are constructor
// injected so tests can run against disposable ones.
func NewRegistry(cfg Config) *Registry {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Registry{
		log:      cfg.Log,
		bank:     cfg.Bank,
		recorder: cfg.Recorder,
		demo:     cfg.DemoMode,
		rng:      rand.New(rand.NewSource(seed)),
		sessions: make(map[string]*Session),
		newDeck: func(rng *rand.Rand) *cards.Deck {
			return cards.NewShoe(1, rng)
		},
	}
}

// View is a by-value copy of a session for the caller. The dealer hand is
// only revealed once the session is terminal.
type View struct {
	ID          string       `json:"id"`
	Game        Game         `json:"game"`
	State       State        `json:"state"`
	Bet         int64        `json:"bet"`
	PlayerHand  []cards.Card `json:"playerHand"`
	PlayerScore int          `json:"playerScore"`
	DealerHand  []cards.Card `json:"dealerHand,omitempty"`
	DealerScore int          `json:"dealerScore,omitempty"`
	Result      string       `json:"result,omitempty"`
	Payout      int64        `json:"payout"`
}

func (s *Session) terminal() bool {
	return s.State == StateFinished || s.State == StateResolved
}

func (s *Session) view() View {
	v := View{
		ID:          s.ID,
		Game:        s.Game,
		State:       s.State,
		Bet:         s.Bet,
		PlayerHand:  append([]cards.Card(nil), s.PlayerHand...),
		PlayerScore: s.PlayerScore,
		Result:      s.Result,
		Payout:      s.Payout,
	}
	if s.terminal() {
		v.DealerHand = append([]cards.Card(nil), s.DealerHand...)
		v.DealerScore = s.DealerScore
	}
	return v
}

// newSessionLocked allocates a session with a freshly shuffled single pack.
func (r *Registry) newSessionLocked(game Game, userID string, bet int64) *Session {
	r.nextID++
	return &Session{
		ID:        fmt.Sprintf("%s-%d", game, r.nextID),
		UserID:    userID,
		Game:      game,
		Bet:       bet,
		deck:      r.newDeck(r.rng),
		CreatedAt: time.Now(),
	}
}

// debit takes the stake, unless demo mode is active. Returns
// ErrInsufficientFunds without mutating anything when the balance is short.
func (r *Registry) debit(userID string, amount int64, desc string) error {
	if r.demo {
		return nil
	}
	bal, err := r.bank.Balance(userID)
	if err != nil {
		return fmt.Errorf("session: balance lookup: %w", err)
	}
	if bal < amount {
		return ErrInsufficientFunds
	}
	return r.bank.Apply(userID, -amount, "bet", desc)
}

// finishLocked resolves a session: credits the payout, appends the history
// record, and removes the session from the live map.
func (r *Registry) finishLocked(s *Session, result string, payout int64) {
	s.Result = result
	s.Payout = payout
	s.FinishedAt = time.Now()
	if s.Game == Blackjack {
		s.State = StateFinished
	} else {
		s.State = StateResolved
	}
	delete(r.sessions, s.ID)

	if !r.demo && payout > 0 {
		if err := r.bank.Apply(s.UserID, payout, "payout", s.ID); err != nil {
			r.log.Errorf("session %s: payout credit failed: %v", s.ID, err)
		}
	}
	if r.recorder != nil {
		r.recorder.RecordHand(HandRecord{
			UserID:  s.UserID,
			GameID:  s.ID,
			Stake:   s.Bet,
			Net:     payout - s.Bet,
			Outcome: result,
		})
	}
	r.log.Debugf("session %s: %s (stake %d, payout %d)", s.ID, result, s.Bet, payout)
}

// abortLocked tears down a session after an internal error. The stake is
// refunded; no history record is written.
func (r *Registry) abortLocked(s *Session, err error) error {
	r.log.Errorf("session %s: aborted: %v", s.ID, err)
	delete(r.sessions, s.ID)
	if !r.demo {
		if aerr := r.bank.Apply(s.UserID, s.Bet, "refund", s.ID); aerr != nil {
			r.log.Errorf("session %s: refund failed: %v", s.ID, aerr)
		}
	}
	return fmt.Errorf("session %s: hand aborted: %w", s.ID, err)
}

// get looks up a live session.
func (r *Registry) getLocked(id string) (*Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}
