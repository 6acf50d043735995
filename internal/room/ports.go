// internal/room/ports.go
package room

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reaper is notified of room activity so an external inactivity collector
// can reset its timeout. Room creation/discovery and the reaping policy
// itself live outside this package.
type Reaper interface {
	Touch(roomID uuid.UUID)
}

// NopReaper satisfies Reaper and does nothing.
type NopReaper struct{}

func (NopReaper) Touch(uuid.UUID) {}

// ActionRecord is one accepted intent, in application order, for the
// action historian.
type ActionRecord struct {
	RoomID      uuid.UUID      `json:"roomId"`
	ActionIndex int            `json:"actionIndex"`
	Actor       string         `json:"actor,omitempty"`
	IntentType  string         `json:"intentType"`
	Payload     map[string]any `json:"payload,omitempty"`
	Version     uint64         `json:"version"`
	Timestamp   int64          `json:"timestamp"`
}

// Historian receives the ordered stream of accepted actions. Implemented
// by the Redis-backed historian; nil disables recording.
type Historian interface {
	RecordAction(ctx context.Context, rec ActionRecord) error
}

// InitialState is the post-deal snapshot persisted for replay/audit.
type InitialState struct {
	DeckSize int                 `json:"deckSize"`
	Hands    map[string][]string `json:"hands"`
	Coins    map[string]int      `json:"coins"`
	Order    []string            `json:"order"`
}

// FinalState is the snapshot persisted when a game finishes.
type FinalState struct {
	Winner     string              `json:"winner"`
	Hands      map[string][]string `json:"hands"`
	Coins      map[string]int      `json:"coins"`
	Eliminated []string            `json:"eliminated"`
	Version    uint64              `json:"version"`
	FinishedAt time.Time           `json:"finishedAt"`
}

// Archive persists the deal and the outcome. Implemented by the Postgres
// store; nil disables persistence.
type Archive interface {
	SaveInitialState(ctx context.Context, roomID uuid.UUID, snap InitialState) error
	SaveFinalState(ctx context.Context, roomID uuid.UUID, snap FinalState) error
}
