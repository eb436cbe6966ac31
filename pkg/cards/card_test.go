package cards

import (
	"encoding/json"
	"testing"
)

func TestCardJSON(t *testing.T) {
	c := NewCard(Spades, Ace)
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"suit":"♠","rank":"A"}` {
		t.Fatalf("marshal = %s", data)
	}

	// The decoder accepts letter and word spellings besides the symbols.
	for _, in := range []string{
		`{"suit":"♥","rank":"10"}`,
		`{"suit":"h","rank":"T"}`,
		`{"suit":"hearts","rank":"t"}`,
	} {
		var got Card
		if err := json.Unmarshal([]byte(in), &got); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if got != NewCard(Hearts, Ten) {
			t.Fatalf("unmarshal %s = %s, want T♥", in, got)
		}
	}

	var bad Card
	if err := json.Unmarshal([]byte(`{"suit":"x","rank":"A"}`), &bad); err == nil {
		t.Fatal("invalid suit accepted")
	}
	if err := json.Unmarshal([]byte(`{"suit":"♠","rank":"1"}`), &bad); err == nil {
		t.Fatal("invalid rank accepted")
	}
}

func TestHandString(t *testing.T) {
	if got := HandString(nil); got != "no cards" {
		t.Fatalf("empty hand = %q", got)
	}
	hand := []Card{NewCard(Spades, Ace), NewCard(Hearts, Ten)}
	if got := HandString(hand); got != "A♠ 10♥" {
		t.Fatalf("HandString = %q", got)
	}
}
