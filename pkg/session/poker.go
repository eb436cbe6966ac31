package session

import (
	"github.com/cardroomd/cardroomd/pkg/cards"
)

// StartPoker debits the bet and deals a five-card-draw session: five cards
// to the player and five face down to the dealer, all from the same single
// pack so no card in play can be drawn again.
func (r *Registry) StartPoker(userID string, bet int64) (View, error) {
	if bet <= 0 {
		return View{}, ErrInvalidBet
	}
	if err := r.debit(userID, bet, "poker bet"); err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.newSessionLocked(Poker, userID, bet)
	s.State = StateDealt
	if err := r.dealLocked(s, &s.PlayerHand, 5); err != nil {
		return View{}, err
	}
	if err := r.dealLocked(s, &s.DealerHand, 5); err != nil {
		return View{}, err
	}

	r.sessions[s.ID] = s
	r.log.Debugf("session %s: dealt %s", s.ID, cards.HandString(s.PlayerHand))
	return s.view(), nil
}

// Draw discards up to four of the player's cards (indices 0-4, deduplicated,
// extras beyond four ignored), deals replacements, evaluates both hands and
// resolves: a strictly higher player hand pays double the bet, a strictly
// lower one pays nothing, a tie pushes the bet back.
func (r *Registry) Draw(sessionID string, discard []int) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.getLocked(sessionID)
	if err != nil {
		return View{}, err
	}
	if s.Game != Poker || s.State != StateDealt {
		return View{}, ErrWrongState
	}

	seen := make(map[int]bool, 4)
	kept := make([]cards.Card, 0, 5)
	toss := 0
	for _, idx := range discard {
		if idx < 0 || idx > 4 || seen[idx] {
			continue
		}
		if toss == 4 {
			break
		}
		seen[idx] = true
		toss++
	}
	for i, c := range s.PlayerHand {
		if !seen[i] {
			kept = append(kept, c)
		}
	}
	s.PlayerHand = kept
	if err := r.dealLocked(s, &s.PlayerHand, toss); err != nil {
		return View{}, err
	}

	playerHand, err := cards.Evaluate(s.PlayerHand)
	if err != nil {
		return View{}, r.abortLocked(s, err)
	}
	dealerHand, err := cards.Evaluate(s.DealerHand)
	if err != nil {
		return View{}, r.abortLocked(s, err)
	}

	r.log.Debugf("session %s: player %s vs dealer %s", s.ID,
		playerHand.Category, dealerHand.Category)

	switch cards.Compare(playerHand, dealerHand) {
	case 1:
		r.finishLocked(s, "win", s.Bet*2)
	case -1:
		r.finishLocked(s, "lose", 0)
	default:
		r.finishLocked(s, "push", s.Bet)
	}
	return s.view(), nil
}
