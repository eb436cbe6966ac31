package cards

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewShoeComposition(t *testing.T) {
	for _, packs := range []int{1, 2, 6} {
		d := NewShoe(packs, rand.New(rand.NewSource(1)))
		if d.Size() != 52*packs {
			t.Fatalf("packs=%d: size = %d, want %d", packs, d.Size(), 52*packs)
		}

		counts := make(map[Card]int)
		for d.Size() > 0 {
			c, err := d.Draw()
			if err != nil {
				t.Fatalf("packs=%d: unexpected draw error: %v", packs, err)
			}
			counts[c]++
		}
		if len(counts) != 52 {
			t.Fatalf("packs=%d: %d distinct cards, want 52", packs, len(counts))
		}
		for c, n := range counts {
			if n != packs {
				t.Errorf("packs=%d: %s appears %d times, want %d", packs, c, n, packs)
			}
		}
	}
}

func TestNewShoeMinimumOnePack(t *testing.T) {
	d := NewShoe(0, rand.New(rand.NewSource(1)))
	if d.Size() != 52 {
		t.Fatalf("size = %d, want 52", d.Size())
	}
}

func TestShoeSeedDeterminism(t *testing.T) {
	a := NewShoe(1, rand.New(rand.NewSource(42)))
	b := NewShoe(1, rand.New(rand.NewSource(42)))
	for a.Size() > 0 {
		ca, _ := a.Draw()
		cb, _ := b.Draw()
		if ca != cb {
			t.Fatalf("same seed diverged: %s vs %s", ca, cb)
		}
	}
}

func TestDrawExhaustion(t *testing.T) {
	stack := []Card{
		NewCard(Spades, Ace),
		NewCard(Hearts, King),
		NewCard(Clubs, Two),
	}
	d := NewDeckFromCards(stack)

	for i, want := range stack {
		got, err := d.Draw()
		if err != nil {
			t.Fatalf("draw %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Fatalf("draw %d = %s, want %s", i, got, want)
		}
	}

	_, err := d.Draw()
	if !errors.Is(err, ErrDeckExhausted) {
		t.Fatalf("draw on empty deck: err = %v, want ErrDeckExhausted", err)
	}
}

func TestNewDeckFromCardsCopies(t *testing.T) {
	src := []Card{NewCard(Spades, Ace), NewCard(Hearts, King)}
	d := NewDeckFromCards(src)
	src[0] = NewCard(Clubs, Two)

	got, err := d.Draw()
	if err != nil {
		t.Fatal(err)
	}
	if got != NewCard(Spades, Ace) {
		t.Fatalf("deck shares backing array with caller: got %s", got)
	}
}
