package table

import (
	"fmt"

	"github.com/cardroomd/cardroomd/pkg/cards"
)

// startRoundLocked shuffles a fresh shoe, deals two cards to every betting
// seat and the dealer, and hands the turn to the first seat without a
// natural. If every active seat has a natural the round goes straight to the
// dealer. Returns settlement records when the round resolves immediately.
func (t *Table) startRoundLocked() []SettledHand {
	t.roundSeq++
	t.waitingForBets = false
	t.countdownRunning = false
	t.countdownRemaining = 0
	t.gameInProgress = true
	t.currentSeat = -1
	t.stages.Dispatch(stageDealing)
	t.publishLogLocked("round %d: dealing", t.roundSeq)

	t.deck = t.newShoe()
	t.dealerHand = nil
	t.dealerScore = 0
	t.dealerBusted = false
	t.dealerHasBlackjack = false

	for pass := 0; pass < 2; pass++ {
		for _, s := range t.seats {
			if !s.inRound() {
				continue
			}
			card, err := t.deck.Draw()
			if err != nil {
				return t.abortRoundLocked(err)
			}
			s.Hand = append(s.Hand, card)
		}
		card, err := t.deck.Draw()
		if err != nil {
			return t.abortRoundLocked(err)
		}
		t.dealerHand = append(t.dealerHand, card)
	}

	for _, s := range t.seats {
		if !s.inRound() {
			continue
		}
		s.Score = cards.Score(s.Hand)
		s.HasBlackjack = cards.IsNatural(s.Hand)
		if s.HasBlackjack {
			t.publishLogLocked("%s has blackjack", s.Username)
		}
	}
	t.dealerScore = cards.Score(t.dealerHand)
	t.dealerHasBlackjack = cards.IsNatural(t.dealerHand)

	next := -1
	for i, s := range t.seats {
		if s != nil && s.canAct() {
			next = i
			break
		}
	}
	if next == -1 {
		return t.dealerTurnLocked()
	}

	t.currentSeat = next
	t.stages.Dispatch(stagePlayerTurns)
	t.publishLogLocked("%s to act", t.seats[next].Username)
	return nil
}

// turnSeatLocked validates that the table is in PlayerTurns and that userID
// holds the acting seat.
func (t *Table) turnSeatLocked(userID string) (*Seat, error) {
	if !t.gameInProgress || t.currentSeat < 0 {
		return nil, ErrWrongStage
	}
	s := t.seats[t.currentSeat]
	if s == nil || s.UserID != userID {
		return nil, ErrNotYourTurn
	}
	return s, nil
}

// Hit draws one card for the acting seat. Busting or reaching exactly 21
// auto-advances the turn.
func (t *Table) Hit(userID string) error {
	t.mu.Lock()
	s, err := t.turnSeatLocked(userID)
	if err != nil {
		t.mu.Unlock()
		return err
	}

	card, derr := t.deck.Draw()
	if derr != nil {
		recs := t.abortRoundLocked(derr)
		t.publishStateLocked()
		t.mu.Unlock()
		t.dispatchRecords(recs)
		return derr
	}
	s.Hand = append(s.Hand, card)
	s.Score = cards.Score(s.Hand)
	t.publishLogLocked("%s hits: %s (%d)", s.Username, card, s.Score)

	var recs []SettledHand
	switch {
	case s.Score > 21:
		s.HasBusted = true
		t.publishLogLocked("%s busts", s.Username)
		recs = t.advanceTurnLocked()
	case s.Score == 21:
		s.HasStood = true
		recs = t.advanceTurnLocked()
	}

	t.publishStateLocked()
	t.mu.Unlock()
	t.dispatchRecords(recs)
	return nil
}

// Stand ends the acting seat's turn.
func (t *Table) Stand(userID string) error {
	t.mu.Lock()
	s, err := t.turnSeatLocked(userID)
	if err != nil {
		t.mu.Unlock()
		return err
	}

	s.HasStood = true
	t.publishLogLocked("%s stands at %d", s.Username, s.Score)
	recs := t.advanceTurnLocked()

	t.publishStateLocked()
	t.mu.Unlock()
	t.dispatchRecords(recs)
	return nil
}

// Double doubles the acting seat's bet, draws exactly one card, and forces a
// stand regardless of the resulting score. Only legal with exactly two cards
// held, no prior double, and enough chips for the second bet.
func (t *Table) Double(userID string) error {
	t.mu.Lock()
	s, err := t.turnSeatLocked(userID)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if len(s.Hand) != 2 || s.HasDoubledDown {
		t.mu.Unlock()
		return ErrDoubleNotAllowed
	}
	if s.Chips < s.CurrentBet {
		t.mu.Unlock()
		return ErrInsufficientChips
	}

	s.Chips -= s.CurrentBet
	s.CurrentBet *= 2
	s.HasDoubledDown = true

	card, derr := t.deck.Draw()
	if derr != nil {
		recs := t.abortRoundLocked(derr)
		t.publishStateLocked()
		t.mu.Unlock()
		t.dispatchRecords(recs)
		return derr
	}
	s.Hand = append(s.Hand, card)
	s.Score = cards.Score(s.Hand)
	if s.Score > 21 {
		s.HasBusted = true
	}
	s.HasStood = true
	t.publishLogLocked("%s doubles down: %s (%d)", s.Username, card, s.Score)

	recs := t.advanceTurnLocked()
	t.publishStateLocked()
	t.mu.Unlock()
	t.dispatchRecords(recs)
	return nil
}

// advanceTurnLocked scans seats in seating order starting just after the
// current seat, wrapping once, and selects the next seat that can still act.
// If none remains, play moves to the dealer.
func (t *Table) advanceTurnLocked() []SettledHand {
	n := len(t.seats)
	start := t.currentSeat
	for i := 1; i <= n; i++ {
		idx := (start + i) % n
		s := t.seats[idx]
		if s != nil && s.canAct() {
			t.currentSeat = idx
			t.publishLogLocked("%s to act", s.Username)
			return nil
		}
	}
	return t.dealerTurnLocked()
}

// dealerTurnLocked plays the dealer hand: hit while under 17, no soft-17
// special case. If every betting seat already busted the dealer stands pat.
func (t *Table) dealerTurnLocked() []SettledHand {
	t.currentSeat = -1
	t.stages.Dispatch(stageDealerTurn)

	anyLive := false
	for _, s := range t.seats {
		if s.inRound() && !s.HasBusted {
			anyLive = true
			break
		}
	}

	if anyLive {
		for t.dealerScore < 17 {
			card, err := t.deck.Draw()
			if err != nil {
				return t.abortRoundLocked(err)
			}
			t.dealerHand = append(t.dealerHand, card)
			t.dealerScore = cards.Score(t.dealerHand)
		}
		t.dealerBusted = t.dealerScore > 21
		if t.dealerBusted {
			t.publishLogLocked("dealer busts at %d", t.dealerScore)
		} else {
			t.publishLogLocked("dealer stands at %d", t.dealerScore)
		}
	} else {
		t.publishLogLocked("all players busted, dealer stands pat")
	}

	return t.settleLocked()
}

// settleLocked resolves every betting seat, credits winnings, and resets the
// table for the next round. Persistence records are captured by value before
// bets and payouts are zeroed, so the asynchronous writes cannot race the
// reset. Hands, scores and results stay visible until each seat's next bet.
func (t *Table) settleLocked() []SettledHand {
	t.stages.Dispatch(stageShowdown)
	gameID := fmt.Sprintf("%s-%d", t.cfg.ID, t.roundSeq)

	recs := make([]SettledHand, 0, len(t.seats))
	for _, s := range t.seats {
		if !s.inRound() {
			continue
		}
		result, payout := settleOutcome(s.HasBusted, s.HasBlackjack,
			t.dealerHasBlackjack, t.dealerBusted, s.Score, t.dealerScore,
			s.CurrentBet)
		s.Result = result
		s.Payout = payout
		s.Chips += payout
		t.publishLogLocked("%s: %s (bet %d, payout %d)", s.Username, result,
			s.CurrentBet, payout)

		recs = append(recs, SettledHand{
			UserID:     s.UserID,
			GameID:     gameID,
			Stake:      s.CurrentBet,
			Net:        payout - s.CurrentBet,
			NewBalance: s.Chips,
			Outcome:    result,
		})
	}

	t.gameInProgress = false
	t.currentSeat = -1
	for i, s := range t.seats {
		if s == nil {
			continue
		}
		s.CurrentBet = 0
		if s.leaving {
			t.seats[i] = nil
		}
	}
	t.waitingForBets = true
	t.stages.Dispatch(stageWaitingForBets)
	t.publishLogLocked("round %d settled", t.roundSeq)
	return recs
}

// settleOutcome is the settlement decision table: a pure function of the
// two hands' terminal flags and scores. The priority order is fixed and the
// payout multiplier is one of 0, 1, 2 or 2.5 applied to the bet. Payouts are
// whole chips, so the 3:2 natural payout rounds down on odd bets.
func settleOutcome(playerBusted, playerNatural, dealerNatural, dealerBusted bool,
	playerScore, dealerScore int, bet int64) (Result, int64) {
	switch {
	case playerBusted:
		return ResultLose, 0
	case playerNatural && !dealerNatural:
		return ResultBlackjack, bet * 5 / 2
	case playerNatural && dealerNatural:
		return ResultPush, bet
	case dealerNatural:
		return ResultLose, 0
	case dealerBusted:
		return ResultWin, bet * 2
	case playerScore > dealerScore:
		return ResultWin, bet * 2
	case playerScore < dealerScore:
		return ResultLose, 0
	default:
		return ResultPush, bet
	}
}

// abortRoundLocked recovers from an internal invariant violation (a deck
// exhausted mid-round must never happen with the configured pack count).
// Bets are refunded, no settlement records are written, and the table
// returns to WaitingForBets.
func (t *Table) abortRoundLocked(err error) []SettledHand {
	t.log.Errorf("table %s: aborting round %d: %v", t.cfg.ID, t.roundSeq, err)
	t.publishLogLocked("round aborted: internal error")

	for i, s := range t.seats {
		if s == nil {
			continue
		}
		if s.inRound() {
			s.Chips += s.CurrentBet
		}
		s.CurrentBet = 0
		s.resetForBet()
		if s.leaving {
			t.seats[i] = nil
		}
	}
	t.gameInProgress = false
	t.currentSeat = -1
	t.waitingForBets = true
	t.stages.Dispatch(stageWaitingForBets)
	return nil
}
