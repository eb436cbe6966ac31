package cards

// blackjackValue returns the base blackjack value of a rank, counting aces
// as 11.
func blackjackValue(r Rank) int {
	switch r {
	case Ace:
		return 11
	case King, Queen, Jack, Ten:
		return 10
	default:
		return rankValue(r)
	}
}

// Score sums a blackjack hand with soft-ace adjustment: aces count 11 until
// the total would bust, then drop to 1 one at a time. Returns the best
// non-busting total if one exists, otherwise the minimal busting total.
func Score(hand []Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		v := blackjackValue(c.rank)
		if c.rank == Ace {
			aces++
		}
		total += v
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsNatural reports whether hand is a two-card 21.
func IsNatural(hand []Card) bool {
	return len(hand) == 2 && Score(hand) == 21
}
