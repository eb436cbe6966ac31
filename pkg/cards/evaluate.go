package cards

import (
	"errors"
	"fmt"
	"sort"
)

// Category ranks a five-card poker hand. Higher categories beat lower ones.
type Category int

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// PokerHand is an evaluated five-card hand. Tiebreak is a monotonically
// increasing strength encoding; values from different categories never
// overlap because each category occupies its own band.
type PokerHand struct {
	Cards    []Card
	Category Category
	Tiebreak int
}

// ErrHandSize is returned when Evaluate is given anything but 5 cards.
var ErrHandSize = errors.New("cards: hand must contain exactly 5 cards")

// categoryBand spaces tiebreak values so bands cannot cross. The largest
// in-band encoding is below 15^5.
const categoryBand = 1_000_000

// rankGroup is a set of equal-ranked cards within a hand.
type rankGroup struct {
	rank  int
	count int
}

// Evaluate ranks a 5-card hand into a category with a tiebreak value.
func Evaluate(hand []Card) (PokerHand, error) {
	if len(hand) != 5 {
		return PokerHand{}, fmt.Errorf("%w: got %d", ErrHandSize, len(hand))
	}

	counts := make(map[int]int, 5)
	flush := true
	for i, c := range hand {
		counts[c.RankValue()]++
		if i > 0 && c.suit != hand[0].suit {
			flush = false
		}
	}

	// Groups sorted by size descending, then rank descending. This is also
	// the kicker order used for the tiebreak encoding.
	groups := make([]rankGroup, 0, 5)
	for r, n := range counts {
		groups = append(groups, rankGroup{rank: r, count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	straightHigh := straightHighCard(groups)
	straight := straightHigh > 0

	var category Category
	var tiebreak int
	switch {
	case straight && flush && straightHigh == 14:
		category = RoyalFlush
		tiebreak = 14
	case straight && flush:
		category = StraightFlush
		tiebreak = straightHigh
	case groups[0].count == 4:
		category = FourOfAKind
		tiebreak = encodeGroups(groups)
	case groups[0].count == 3 && groups[1].count == 2:
		category = FullHouse
		tiebreak = encodeGroups(groups)
	case flush:
		category = Flush
		tiebreak = encodeGroups(groups)
	case straight:
		category = Straight
		tiebreak = straightHigh
	case groups[0].count == 3:
		category = ThreeOfAKind
		tiebreak = encodeGroups(groups)
	case groups[0].count == 2 && groups[1].count == 2:
		category = TwoPair
		tiebreak = encodeGroups(groups)
	case groups[0].count == 2:
		category = Pair
		tiebreak = encodeGroups(groups)
	default:
		category = HighCard
		tiebreak = encodeGroups(groups)
	}

	cardsCopy := make([]Card, 5)
	copy(cardsCopy, hand)

	return PokerHand{
		Cards:    cardsCopy,
		Category: category,
		Tiebreak: int(category)*categoryBand + tiebreak,
	}, nil
}

// straightHighCard returns the high card of a straight formed by the five
// distinct ranks, treating A-2-3-4-5 (the wheel) as a five-high straight.
// Returns 0 if the hand is not a straight.
func straightHighCard(groups []rankGroup) int {
	if len(groups) != 5 {
		return 0
	}
	// groups are rank-descending when all counts are 1
	if groups[0].rank-groups[4].rank == 4 {
		return groups[0].rank
	}
	// Wheel: A,5,4,3,2
	if groups[0].rank == 14 && groups[1].rank == 5 && groups[4].rank == 2 &&
		groups[1].rank-groups[4].rank == 3 {
		return 5
	}
	return 0
}

// encodeGroups packs the hand's ranks base-15 in group order (size
// descending, then rank descending), so comparing encodings compares the
// primary groups first and kickers last. Maximum value is below 15^5.
func encodeGroups(groups []rankGroup) int {
	v := 0
	for _, g := range groups {
		for i := 0; i < g.count; i++ {
			v = v*15 + g.rank
		}
	}
	return v
}

// Compare orders two evaluated hands: -1 if a loses to b, 1 if a beats b,
// 0 on an exact tie. Category decides first, then the tiebreak encoding,
// then the descending rank lists as a final guard.
func Compare(a, b PokerHand) int {
	if a.Category != b.Category {
		if a.Category < b.Category {
			return -1
		}
		return 1
	}
	if a.Tiebreak != b.Tiebreak {
		if a.Tiebreak < b.Tiebreak {
			return -1
		}
		return 1
	}
	ar := sortedRanksDesc(a.Cards)
	br := sortedRanksDesc(b.Cards)
	for i := range ar {
		if ar[i] != br[i] {
			if ar[i] < br[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func sortedRanksDesc(hand []Card) []int {
	rs := make([]int, len(hand))
	for i, c := range hand {
		rs[i] = c.RankValue()
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rs)))
	return rs
}
