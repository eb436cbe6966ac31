package cards

import (
	"errors"
	"math/rand"
)

// ErrDeckExhausted is returned by Draw when no cards remain. With the
// configured pack counts this is an internal invariant violation; callers
// abort the in-progress hand rather than panic.
var ErrDeckExhausted = errors.New("cards: deck exhausted")

// Suits and Ranks enumerate one full 52-card pack.
var (
	suits = []Suit{Spades, Hearts, Diamonds, Clubs}
	ranks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten,
		Jack, Queen, King, Ace}
)

// Deck is an ordered sequence of cards drawn from the front.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewShoe builds packCount concatenated 52-card packs, shuffles them in
// place with the given rng, and returns the deck. Live tables use six packs,
// single-player sessions one.
func NewShoe(packCount int, rng *rand.Rand) *Deck {
	if packCount < 1 {
		packCount = 1
	}
	d := &Deck{
		cards: make([]Card, 0, 52*packCount),
		rng:   rng,
	}
	for p := 0; p < packCount; p++ {
		for _, s := range suits {
			for _, r := range ranks {
				d.cards = append(d.cards, Card{suit: s, rank: r})
			}
		}
	}
	d.Shuffle()
	return d
}

// NewDeckFromCards creates a deck holding exactly the given cards in order.
// Used by tests to stack known deals.
func NewDeckFromCards(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Shuffle randomizes the order of the remaining cards.
func (d *Deck) Shuffle() {
	if d.rng == nil {
		return
	}
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the front card.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrDeckExhausted
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, nil
}

// Size returns the number of cards remaining.
func (d *Deck) Size() int {
	return len(d.cards)
}
