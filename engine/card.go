// Package engine implements the Coup card game rules.
//
// The package is a pure state machine: it owns no goroutines, no timers and
// no I/O. Callers (the room actor) feed it one validated intent at a time
// and observe the resulting state. All randomness flows through a seeded
// xorshift64 generator so games are reproducible from a seed.
package engine

import "fmt"

// Card is one of the five character kinds.
type Card uint8

const (
	Duke Card = iota
	Assassin
	Captain
	Ambassador
	Contessa

	NumCharacters = 5
)

// NoCard represents the absence of a card (e.g. an action with no claim).
const NoCard Card = 0xFF

// CopiesPerCharacter is the number of copies of each character in the deck.
const CopiesPerCharacter = 3

// DeckSize is the total card pool: 5 characters x 3 copies.
const DeckSize = NumCharacters * CopiesPerCharacter

var cardNames = [NumCharacters]string{"Duke", "Assassin", "Captain", "Ambassador", "Contessa"}

// String returns the character name, or "None" for NoCard.
func (c Card) String() string {
	if c == NoCard {
		return "None"
	}
	if int(c) < len(cardNames) {
		return cardNames[c]
	}
	return fmt.Sprintf("Card(%d)", uint8(c))
}

// CardFromName parses a character name into a Card.
func CardFromName(name string) (Card, error) {
	for i, n := range cardNames {
		if n == name {
			return Card(i), nil
		}
	}
	return NoCard, fmt.Errorf("unknown character %q", name)
}
