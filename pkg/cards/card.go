package cards

import (
	"encoding/json"
	"fmt"
)

// Suit represents a card suit.
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Rank represents a card rank.
type Rank string

const (
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Card is an immutable playing card.
type Card struct {
	suit Suit
	rank Rank
}

// NewCard creates a card from a suit and rank.
func NewCard(suit Suit, rank Rank) Card {
	return Card{suit: suit, rank: rank}
}

// Suit returns the card's suit.
func (c Card) Suit() Suit { return c.suit }

// Rank returns the card's rank.
func (c Card) Rank() Rank { return c.rank }

// String returns a string representation of the card, e.g. "A♠".
func (c Card) String() string {
	return string(c.rank) + string(c.suit)
}

// RankValue returns the poker ordering value of the card's rank
// (2..10, J=11, Q=12, K=13, A=14).
func (c Card) RankValue() int {
	return rankValue(c.rank)
}

func rankValue(r Rank) int {
	switch r {
	case Ace:
		return 14
	case King:
		return 13
	case Queen:
		return 12
	case Jack:
		return 11
	case Ten:
		return 10
	case Nine:
		return 9
	case Eight:
		return 8
	case Seven:
		return 7
	case Six:
		return 6
	case Five:
		return 5
	case Four:
		return 4
	case Three:
		return 3
	case Two:
		return 2
	default:
		return 0
	}
}

// cardJSON is the wire shape of a card.
type cardJSON struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// MarshalJSON implements json.Marshaler.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{
		Suit: string(c.suit),
		Rank: string(c.rank),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Card) UnmarshalJSON(data []byte) error {
	var cj cardJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}

	switch cj.Suit {
	case "♠", "s", "S", "spades", "Spades":
		c.suit = Spades
	case "♥", "h", "H", "hearts", "Hearts":
		c.suit = Hearts
	case "♦", "d", "D", "diamonds", "Diamonds":
		c.suit = Diamonds
	case "♣", "c", "C", "clubs", "Clubs":
		c.suit = Clubs
	default:
		return fmt.Errorf("invalid suit: %s", cj.Suit)
	}

	switch cj.Rank {
	case "A", "a":
		c.rank = Ace
	case "K", "k":
		c.rank = King
	case "Q", "q":
		c.rank = Queen
	case "J", "j":
		c.rank = Jack
	case "10", "T", "t":
		c.rank = Ten
	case "9":
		c.rank = Nine
	case "8":
		c.rank = Eight
	case "7":
		c.rank = Seven
	case "6":
		c.rank = Six
	case "5":
		c.rank = Five
	case "4":
		c.rank = Four
	case "3":
		c.rank = Three
	case "2":
		c.rank = Two
	default:
		return fmt.Errorf("invalid rank: %s", cj.Rank)
	}

	return nil
}

// HandString renders a hand as space-separated cards.
func HandString(hand []Card) string {
	if len(hand) == 0 {
		return "no cards"
	}
	s := ""
	for i, c := range hand {
		if i > 0 {
			s += " "
		}
		s += c.String()
	}
	return s
}
