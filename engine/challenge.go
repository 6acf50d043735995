package engine

// ClaimIndex returns the position of the claimed character in the hand,
// or -1 when the claim is a bluff.
func ClaimIndex(claim Card, hand []Card) int {
	for i, c := range hand {
		if c == claim {
			return i
		}
	}
	return -1
}

// ClaimHeld reports whether the hand actually contains the claimed
// character.
func ClaimHeld(claim Card, hand []Card) bool {
	return ClaimIndex(claim, hand) >= 0
}
