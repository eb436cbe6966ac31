package cards

import "testing"

// mustHand parses space-separated two-character cards like "As Kd Th".
func mustHand(t *testing.T, spec string) []Card {
	t.Helper()
	var hand []Card
	start := 0
	for i := 0; i <= len(spec); i++ {
		if i == len(spec) || spec[i] == ' ' {
			if i > start {
				hand = append(hand, mustCard(t, spec[start:i]))
			}
			start = i + 1
		}
	}
	return hand
}

func mustCard(t *testing.T, s string) Card {
	t.Helper()
	if len(s) != 2 {
		t.Fatalf("bad card spec %q", s)
	}
	var rank Rank
	switch s[0] {
	case 'A':
		rank = Ace
	case 'K':
		rank = King
	case 'Q':
		rank = Queen
	case 'J':
		rank = Jack
	case 'T':
		rank = Ten
	default:
		rank = Rank(s[:1])
	}
	var suit Suit
	switch s[1] {
	case 's':
		suit = Spades
	case 'h':
		suit = Hearts
	case 'd':
		suit = Diamonds
	case 'c':
		suit = Clubs
	default:
		t.Fatalf("bad suit in card spec %q", s)
	}
	return NewCard(suit, rank)
}

func TestScore(t *testing.T) {
	tests := []struct {
		hand string
		want int
	}{
		{"", 0},
		{"2s 3h", 5},
		{"Ts 9h", 19},
		{"As Kh", 21},
		{"As Ah", 12},
		{"As Ah 9d", 21},
		{"As 6h", 17},
		{"As 6h Td", 17},
		{"As Ah Ad Ac", 14},
		{"Ks Qh 2d", 22},
		{"Ts 6h Kd", 26},
		{"As Kh Qd", 21},
		{"Js Qh Ad", 21},
	}
	for _, tc := range tests {
		hand := mustHand(t, tc.hand)
		if got := Score(hand); got != tc.want {
			t.Errorf("Score(%q) = %d, want %d", tc.hand, got, tc.want)
		}
		// Scoring must not mutate the hand.
		if again := Score(hand); again != tc.want {
			t.Errorf("Score(%q) second call = %d, want %d", tc.hand, again, tc.want)
		}
	}
}

func TestIsNatural(t *testing.T) {
	tests := []struct {
		hand string
		want bool
	}{
		{"As Kh", true},
		{"As Th", true},
		{"Ks Ah", true},
		{"As 9h", false},
		{"Ts 9h 2d", false},
		{"7s 7h 7d", false},
		{"As", false},
	}
	for _, tc := range tests {
		if got := IsNatural(mustHand(t, tc.hand)); got != tc.want {
			t.Errorf("IsNatural(%q) = %v, want %v", tc.hand, got, tc.want)
		}
	}
}
