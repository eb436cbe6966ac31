package session

import (
	"github.com/cardroomd/cardroomd/pkg/cards"
)

// StartBlackjack debits the bet, deals two cards, and opens a blackjack
// session. An immediate natural short-circuits straight to Finished against
// a freshly-dealt dealer hand: 3:2 if only the player holds one (whole
// chips, rounding down on odd bets), a push refund if both do.
func (r *Registry) StartBlackjack(userID string, bet int64) (View, error) {
	if bet <= 0 {
		return View{}, ErrInvalidBet
	}
	if err := r.debit(userID, bet, "blackjack bet"); err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.newSessionLocked(Blackjack, userID, bet)
	s.State = StatePlayerTurn
	if err := r.dealLocked(s, &s.PlayerHand, 2); err != nil {
		return View{}, err
	}
	s.PlayerScore = cards.Score(s.PlayerHand)

	if cards.IsNatural(s.PlayerHand) {
		if err := r.dealLocked(s, &s.DealerHand, 2); err != nil {
			return View{}, err
		}
		s.DealerScore = cards.Score(s.DealerHand)
		if cards.IsNatural(s.DealerHand) {
			r.finishLocked(s, "push", s.Bet)
		} else {
			r.finishLocked(s, "blackjack", s.Bet*5/2)
		}
		return s.view(), nil
	}

	r.sessions[s.ID] = s
	r.log.Debugf("session %s: dealt %s (%d)", s.ID, cards.HandString(s.PlayerHand), s.PlayerScore)
	return s.view(), nil
}

// Hit appends a card and re-scores. A bust finishes the session immediately
// with no dealer play.
func (r *Registry) Hit(sessionID string) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.getLocked(sessionID)
	if err != nil {
		return View{}, err
	}
	if s.Game != Blackjack || s.State != StatePlayerTurn {
		return View{}, ErrWrongState
	}

	if err := r.dealLocked(s, &s.PlayerHand, 1); err != nil {
		return View{}, err
	}
	s.PlayerScore = cards.Score(s.PlayerHand)
	if s.PlayerScore > 21 {
		r.finishLocked(s, "lose", 0)
	}
	return s.view(), nil
}

// Stand ends the player's turn and runs the dealer: hit while under 17,
// bust over 21, then compare.
func (r *Registry) Stand(sessionID string) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.getLocked(sessionID)
	if err != nil {
		return View{}, err
	}
	if s.Game != Blackjack || s.State != StatePlayerTurn {
		return View{}, ErrWrongState
	}
	return r.standLocked(s)
}

func (r *Registry) standLocked(s *Session) (View, error) {
	if err := r.dealLocked(s, &s.DealerHand, 2); err != nil {
		return View{}, err
	}
	s.DealerScore = cards.Score(s.DealerHand)
	for s.DealerScore < 17 {
		if err := r.dealLocked(s, &s.DealerHand, 1); err != nil {
			return View{}, err
		}
		s.DealerScore = cards.Score(s.DealerHand)
	}

	switch {
	case s.DealerScore > 21:
		r.finishLocked(s, "win", s.Bet*2)
	case s.PlayerScore > s.DealerScore:
		r.finishLocked(s, "win", s.Bet*2)
	case s.PlayerScore < s.DealerScore:
		r.finishLocked(s, "lose", 0)
	default:
		r.finishLocked(s, "push", s.Bet)
	}
	return s.view(), nil
}

// Double requires exactly two cards held and balance for a second equal
// bet; it then plays as one forced hit followed by a forced stand.
func (r *Registry) Double(sessionID string) (View, error) {
	r.mu.Lock()
	s, err := r.getLocked(sessionID)
	if err != nil {
		r.mu.Unlock()
		return View{}, err
	}
	if s.Game != Blackjack || s.State != StatePlayerTurn {
		r.mu.Unlock()
		return View{}, ErrWrongState
	}
	if len(s.PlayerHand) != 2 || s.doubled {
		r.mu.Unlock()
		return View{}, ErrDoubleNotAllowed
	}
	stake := s.Bet
	userID := s.UserID
	r.mu.Unlock()

	// The extra debit hits the bank outside the registry lock.
	if err := r.debit(userID, stake, "blackjack double"); err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	refund := func() {
		if r.demo {
			return
		}
		if aerr := r.bank.Apply(userID, stake, "refund", sessionID); aerr != nil {
			r.log.Errorf("session %s: double refund failed: %v", sessionID, aerr)
		}
	}

	// Re-validate everything checked before the lock was dropped: the
	// session may have resolved, or a concurrent hit may have landed a
	// third card, while the bank debit was in flight.
	s, err = r.getLocked(sessionID)
	if err != nil {
		refund()
		return View{}, err
	}
	if s.State != StatePlayerTurn || len(s.PlayerHand) != 2 || s.doubled {
		refund()
		return View{}, ErrDoubleNotAllowed
	}
	s.Bet *= 2
	s.doubled = true

	if err := r.dealLocked(s, &s.PlayerHand, 1); err != nil {
		return View{}, err
	}
	s.PlayerScore = cards.Score(s.PlayerHand)
	if s.PlayerScore > 21 {
		r.finishLocked(s, "lose", 0)
		return s.view(), nil
	}
	return r.standLocked(s)
}

// dealLocked draws n cards into hand, aborting the session on an exhausted
// deck. A single pack always covers a session's maximum draws, so hitting
// this is a defect.
func (r *Registry) dealLocked(s *Session, hand *[]cards.Card, n int) error {
	for i := 0; i < n; i++ {
		card, err := s.deck.Draw()
		if err != nil {
			return r.abortLocked(s, err)
		}
		*hand = append(*hand, card)
	}
	return nil
}
