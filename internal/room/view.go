// internal/room/view.go
package room

import (
	"github.com/google/uuid"

	"github.com/b6428259/spotup-games/engine"
)

// PlayerView is one seat as seen by a specific observer. Hand contents are
// populated only for the observer's own seat; everyone else gets the count.
type PlayerView struct {
	Name          string   `json:"name"`
	Coins         int      `json:"coins"`
	HandSize      int      `json:"handSize"`
	Hand          []string `json:"hand,omitempty"`
	Eliminated    bool     `json:"eliminated"`
	IsCurrentTurn bool     `json:"isCurrentTurn"`
}

// PendingView describes the in-flight action.
type PendingView struct {
	Action string `json:"action"`
	Actor  string `json:"actor"`
	Target string `json:"target,omitempty"`
	Claim  string `json:"claim,omitempty"`
}

// ChallengeView describes an open challenge.
type ChallengeView struct {
	Challenger string `json:"challenger"`
	Challenged string `json:"challenged"`
	Claim      string `json:"claim"`
	Resolved   bool   `json:"resolved"`
}

// View is an immutable snapshot of one room's state, redacted for a single
// recipient. Clients can never reach authoritative state through it.
type View struct {
	RoomID    string            `json:"roomId"`
	Phase     string            `json:"phase"`
	Version   uint64            `json:"version"`
	Players   []PlayerView      `json:"players"`
	Pending   *PendingView      `json:"pending,omitempty"`
	Challenge *ChallengeView    `json:"challenge,omitempty"`
	Revealing string            `json:"revealing,omitempty"`
	DeckSize  int               `json:"deckSize"`
	Discarded []string          `json:"discarded"`
	Winner    string            `json:"winner,omitempty"`
	Log       []engine.LogEntry `json:"log"`
}

// buildView renders the game for one recipient. Runs only on the room's
// own goroutine, so reading the live game is safe; everything copied out
// is fresh memory.
func buildView(roomID uuid.UUID, g *engine.Game, forPlayer string) View {
	v := View{
		RoomID:    roomID.String(),
		Phase:     g.Phase.String(),
		Version:   g.Version,
		Revealing: g.Revealing,
		DeckSize:  g.Deck.Len(),
		Winner:    g.Winner,
	}

	v.Players = make([]PlayerView, len(g.Players))
	for i := range g.Players {
		p := &g.Players[i]
		pv := PlayerView{
			Name:          p.Name,
			Coins:         p.Coins,
			HandSize:      len(p.Hand),
			Eliminated:    p.Eliminated(),
			IsCurrentTurn: i == g.CurrentTurn && g.Phase != engine.PhaseLobby && g.Phase != engine.PhaseFinished,
		}
		if p.Name == forPlayer {
			pv.Hand = make([]string, len(p.Hand))
			for j, c := range p.Hand {
				pv.Hand[j] = c.String()
			}
		}
		v.Players[i] = pv
	}

	if g.Pending != nil {
		pv := PendingView{
			Action: g.Pending.Kind.String(),
			Actor:  g.Pending.Actor,
			Target: g.Pending.Target,
		}
		if g.Pending.Claim != engine.NoCard {
			pv.Claim = g.Pending.Claim.String()
		}
		v.Pending = &pv
	}
	if g.Challenge != nil {
		v.Challenge = &ChallengeView{
			Challenger: g.Challenge.Challenger,
			Challenged: g.Challenge.Challenged,
			Claim:      g.Challenge.Claim.String(),
			Resolved:   g.Challenge.Resolved,
		}
	}

	// Revealed card losses are public knowledge.
	v.Discarded = make([]string, len(g.Discarded))
	for i, c := range g.Discarded {
		v.Discarded[i] = c.String()
	}

	v.Log = make([]engine.LogEntry, len(g.Log))
	copy(v.Log, g.Log)
	return v
}
