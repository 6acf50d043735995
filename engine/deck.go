package engine

import "fmt"

// Deck holds the cards not currently in any hand or in the discard pile.
type Deck struct {
	cards []Card
	rng   uint64
}

// NewDeck builds the full 15-card pool in character order, unshuffled.
// Seed 0 is corrected to 1 (xorshift cannot start at 0).
func NewDeck(seed uint64) *Deck {
	if seed == 0 {
		seed = 1
	}
	d := &Deck{
		cards: make([]Card, 0, DeckSize),
		rng:   seed,
	}
	for c := Card(0); c < NumCharacters; c++ {
		for i := 0; i < CopiesPerCharacter; i++ {
			d.cards = append(d.cards, c)
		}
	}
	return d
}

// xorshift64, matching the reproducible in-state RNG used elsewhere.
func (d *Deck) nextRand() uint64 {
	x := d.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	d.rng = x
	return x
}

func (d *Deck) randN(n uint64) uint64 {
	return d.nextRand() % n
}

// Len returns the number of cards remaining in the deck.
func (d *Deck) Len() int { return len(d.cards) }

// Shuffle performs a Fisher-Yates shuffle over the remaining cards.
func (d *Deck) Shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := int(d.randN(uint64(i + 1)))
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns n cards from the top of the deck.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrInsufficientCards, n, len(d.cards))
	}
	dealt := make([]Card, n)
	copy(dealt, d.cards[len(d.cards)-n:])
	d.cards = d.cards[:len(d.cards)-n]
	return dealt, nil
}

// Draw removes and returns a single card.
func (d *Deck) Draw() (Card, error) {
	dealt, err := d.Deal(1)
	if err != nil {
		return NoCard, err
	}
	return dealt[0], nil
}

// ReturnAndReshuffle puts a card back into the deck and reshuffles. Used
// when a challenged player proves their claim: the revealed card goes back
// and a replacement is drawn, preserving the 15-card pool.
func (d *Deck) ReturnAndReshuffle(c Card) {
	d.cards = append(d.cards, c)
	d.Shuffle()
}
