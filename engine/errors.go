package engine

import "errors"

// Validation failures reject the offending intent and leave the game state
// unchanged. The room actor reports them back to the originating client
// only; no other client observes a rejected intent.
var (
	ErrInvalidPhase      = errors.New("invalid phase")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrUnknownAction     = errors.New("unknown action")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrAlreadyChallenged = errors.New("already challenged")
	ErrInvalidCardIndex  = errors.New("invalid card index")

	// ErrInsufficientCards signals a deck underflow. The 15-card pool can
	// never run dry with at most 6 players, so hitting this means a broken
	// invariant; the room treats it as fatal and tears the game down.
	ErrInsufficientCards = errors.New("insufficient cards in deck")
)
