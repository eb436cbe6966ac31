package table

import (
	"github.com/cardroomd/cardroomd/pkg/cards"
)

// Result labels the outcome of a seat's round.
type Result string

const (
	ResultNone      Result = ""
	ResultWin       Result = "win"
	ResultLose      Result = "lose"
	ResultPush      Result = "push"
	ResultBlackjack Result = "blackjack"
)

// Seat is a player's slot at a table. It is stable across rounds until the
// player explicitly leaves. ConnID is the opaque transport handle and may
// change across reconnects; UserID is the stable identity used for lookups.
type Seat struct {
	ConnID   string
	UserID   string
	Username string

	// Chips is the authoritative cached balance while seated. It is only
	// mutated under the owning table's lock; persistence catches up
	// asynchronously after settlement.
	Chips int64

	SeatIndex int
	IsVIP     bool

	Hand           []cards.Card
	Score          int
	CurrentBet     int64
	HasStood       bool
	HasBusted      bool
	HasBlackjack   bool
	HasDoubledDown bool
	Result         Result
	Payout         int64

	// leaving marks a seat whose player left mid-round. The seat stays in
	// place (indices must remain stable within a round) and is removed once
	// the round settles.
	leaving bool
}

// resetForBet clears the previous round's view when the seat enters a new
// round. Hand, score and result are deliberately kept between rounds until
// the next bet so late-joining renders still see the last showdown.
func (s *Seat) resetForBet() {
	s.Hand = nil
	s.Score = 0
	s.HasStood = false
	s.HasBusted = false
	s.HasBlackjack = false
	s.HasDoubledDown = false
	s.Result = ResultNone
	s.Payout = 0
}

// inRound reports whether the seat takes part in the current round.
func (s *Seat) inRound() bool {
	return s != nil && s.CurrentBet > 0
}

// canAct reports whether the turn scan may select this seat.
func (s *Seat) canAct() bool {
	return s.inRound() && !s.HasStood && !s.HasBusted && !s.HasBlackjack
}

// SeatSnapshot is a by-value copy of a seat for broadcasting.
type SeatSnapshot struct {
	UserID         string       `json:"userId"`
	Username       string       `json:"username"`
	SeatIndex      int          `json:"seatIndex"`
	Chips          int64        `json:"chips"`
	Hand           []cards.Card `json:"hand"`
	Score          int          `json:"score"`
	CurrentBet     int64        `json:"currentBet"`
	HasStood       bool         `json:"hasStood"`
	HasBusted      bool         `json:"hasBusted"`
	HasBlackjack   bool         `json:"hasBlackjack"`
	HasDoubledDown bool         `json:"hasDoubledDown"`
	Result         Result       `json:"result"`
	Payout         int64        `json:"payout"`
	IsVIP          bool         `json:"isVip"`
}

// snapshot deep-copies the seat.
func (s *Seat) snapshot() SeatSnapshot {
	hand := make([]cards.Card, len(s.Hand))
	copy(hand, s.Hand)
	return SeatSnapshot{
		UserID:         s.UserID,
		Username:       s.Username,
		SeatIndex:      s.SeatIndex,
		Chips:          s.Chips,
		Hand:           hand,
		Score:          s.Score,
		CurrentBet:     s.CurrentBet,
		HasStood:       s.HasStood,
		HasBusted:      s.HasBusted,
		HasBlackjack:   s.HasBlackjack,
		HasDoubledDown: s.HasDoubledDown,
		Result:         s.Result,
		Payout:         s.Payout,
		IsVIP:          s.IsVIP,
	}
}
