package engine

import "testing"

// TestNewDeckComposition verifies the full 15-card pool: 3 copies of each
// of the 5 characters.
func TestNewDeckComposition(t *testing.T) {
	d := NewDeck(42)
	if d.Len() != DeckSize {
		t.Fatalf("Len = %d, want %d", d.Len(), DeckSize)
	}
	counts := make(map[Card]int)
	cards, err := d.Deal(DeckSize)
	if err != nil {
		t.Fatalf("Deal(15): %v", err)
	}
	for _, c := range cards {
		counts[c]++
	}
	for c := Card(0); c < NumCharacters; c++ {
		if counts[c] != CopiesPerCharacter {
			t.Errorf("count[%s] = %d, want %d", c, counts[c], CopiesPerCharacter)
		}
	}
}

// TestDeckSeedZero verifies that seed 0 is corrected (xorshift cannot
// start at 0 or the shuffle would be the identity forever).
func TestDeckSeedZero(t *testing.T) {
	d := NewDeck(0)
	if d.rng == 0 {
		t.Fatal("rng is 0 after seed=0; expected correction")
	}
}

// TestDeckShuffleDeterministic verifies the same seed yields the same
// order.
func TestDeckShuffleDeterministic(t *testing.T) {
	a, b := NewDeck(7), NewDeck(7)
	a.Shuffle()
	b.Shuffle()
	ca, _ := a.Deal(DeckSize)
	cb, _ := b.Deal(DeckSize)
	for i := range ca {
		if ca[i] != cb[i] {
			t.Fatalf("order diverged at %d: %s vs %s", i, ca[i], cb[i])
		}
	}
}

func TestDeckDealUnderflow(t *testing.T) {
	d := NewDeck(1)
	if _, err := d.Deal(DeckSize + 1); err == nil {
		t.Fatal("Deal(16) succeeded, want ErrInsufficientCards")
	}
	if _, err := d.Deal(DeckSize); err != nil {
		t.Fatalf("Deal(15): %v", err)
	}
	if _, err := d.Draw(); err == nil {
		t.Fatal("Draw from empty deck succeeded")
	}
}

// TestReturnAndReshuffle verifies the pool size is preserved across a
// failed-challenge card return.
func TestReturnAndReshuffle(t *testing.T) {
	d := NewDeck(3)
	d.Shuffle()
	c, err := d.Draw()
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if d.Len() != DeckSize-1 {
		t.Fatalf("Len = %d after draw, want %d", d.Len(), DeckSize-1)
	}
	d.ReturnAndReshuffle(c)
	if d.Len() != DeckSize {
		t.Fatalf("Len = %d after return, want %d", d.Len(), DeckSize)
	}
}
