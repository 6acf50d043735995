package engine

import (
	"fmt"
	"time"
)

// Phase is the current step of the turn state machine.
type Phase uint8

const (
	PhaseLobby Phase = iota
	PhaseAction
	PhaseTargetSelection
	PhaseChallenge
	PhaseChallengeResolution
	PhaseRevealCard
	PhaseFinished
)

var phaseNames = [...]string{
	"lobby", "action", "targetSelection", "challenge",
	"challengeResolution", "revealCard", "finished",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// StartingCoins is every player's coin balance after the deal.
const StartingCoins = 2

// CardsPerPlayer is the hand size dealt to each player.
const CardsPerPlayer = 2

// MinPlayers and MaxPlayers bound the roster size for a deal.
const (
	MinPlayers = 2
	MaxPlayers = 6
)

// LogCapacity bounds the game log; the oldest entry is dropped on overflow.
const LogCapacity = 50

// Player is one seat at the table. Hand contents are owner-visible only;
// redaction happens at the serialization boundary, never here.
type Player struct {
	Name  string
	Coins int
	Hand  []Card
}

// Eliminated reports whether the player has run out of cards. Derived from
// the hand, never stored redundantly.
func (p *Player) Eliminated() bool { return len(p.Hand) == 0 }

// PendingAction is the single in-flight action descriptor. Its presence is
// what gates whose intents are currently valid.
type PendingAction struct {
	Kind   ActionKind
	Actor  string
	Target string // empty until selected, for actions that need one
	Claim  Card   // NoCard for unclaimed actions
}

// ChallengeState tracks a disputed claim from the moment a challenge is
// raised until the resulting card losses are resolved.
type ChallengeState struct {
	Challenger string
	Challenged string
	Claim      Card
	// Resolved flips to true once the accused proved the claim; the
	// challenger's forced reveal is then still outstanding.
	Resolved bool
}

// LogEntry is one line of the public game log.
type LogEntry struct {
	Message  string    `json:"message"`
	Category string    `json:"category"`
	At       time.Time `json:"at"`
	Actor    string    `json:"actor,omitempty"`
}

// Game is the authoritative state of one room. It must only ever be
// mutated by a single goroutine (the room actor); it performs no locking
// of its own.
type Game struct {
	Players     []Player
	CurrentTurn int
	Phase       Phase
	Pending     *PendingAction
	Challenge   *ChallengeState
	// Revealing names the player who must reveal (and lose) a card while
	// Phase is PhaseRevealCard.
	Revealing string
	Deck      *Deck
	Discarded []Card
	Log       []LogEntry
	// Version increments on every accepted intent; clients use it to
	// detect stale assumptions.
	Version uint64
	Winner  string

	// skipped tracks who has passed on the open challenge window.
	skipped map[string]bool

	now func() time.Time
}

// NewGame creates a game in the lobby phase for the given roster, in turn
// order. The deck is built but not dealt until Deal is called.
func NewGame(seed uint64, names []string) (*Game, error) {
	if len(names) < MinPlayers || len(names) > MaxPlayers {
		return nil, fmt.Errorf("need %d-%d players, got %d", MinPlayers, MaxPlayers, len(names))
	}
	seen := make(map[string]bool, len(names))
	g := &Game{
		Phase: PhaseLobby,
		Deck:  NewDeck(seed),
		now:   time.Now,
	}
	for _, name := range names {
		if name == "" || seen[name] {
			return nil, fmt.Errorf("player names must be unique and non-empty, got %q", name)
		}
		seen[name] = true
		g.Players = append(g.Players, Player{Name: name})
	}
	return g, nil
}

// SetClock overrides the log timestamp source. Test hook.
func (g *Game) SetClock(now func() time.Time) { g.now = now }

// Deal transitions Lobby -> Action: shuffles, deals two cards and two coins
// to every player, and opens the first turn.
func (g *Game) Deal() error {
	if g.Phase != PhaseLobby {
		return fmt.Errorf("%w: deal only allowed from lobby, in %s", ErrInvalidPhase, g.Phase)
	}
	g.Deck.Shuffle()
	for i := range g.Players {
		hand, err := g.Deck.Deal(CardsPerPlayer)
		if err != nil {
			return err
		}
		g.Players[i].Hand = hand
		g.Players[i].Coins = StartingCoins
	}
	g.CurrentTurn = 0
	g.Phase = PhaseAction
	g.Version++
	g.appendLog("Game started", "system", "")
	return nil
}

// player returns the seat for a name, or nil.
func (g *Game) player(name string) *Player {
	for i := range g.Players {
		if g.Players[i].Name == name {
			return &g.Players[i]
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is.
func (g *Game) CurrentPlayer() *Player {
	return &g.Players[g.CurrentTurn]
}

func (g *Game) aliveCount() int {
	n := 0
	for i := range g.Players {
		if !g.Players[i].Eliminated() {
			n++
		}
	}
	return n
}

// advanceTurn moves CurrentTurn to the next non-eliminated player.
func (g *Game) advanceTurn() {
	for i := 0; i < len(g.Players); i++ {
		g.CurrentTurn = (g.CurrentTurn + 1) % len(g.Players)
		if !g.Players[g.CurrentTurn].Eliminated() {
			return
		}
	}
}

// appendLog appends one entry, dropping the oldest past LogCapacity.
func (g *Game) appendLog(message, category, actor string) {
	g.Log = append(g.Log, LogEntry{
		Message:  message,
		Category: category,
		At:       g.now(),
		Actor:    actor,
	})
	if len(g.Log) > LogCapacity {
		g.Log = g.Log[1:]
	}
}

// discard permanently removes the card at idx from the player's hand. The
// card never returns to the deck. Logs an elimination if the hand empties.
func (g *Game) discard(p *Player, idx int) Card {
	card := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	g.Discarded = append(g.Discarded, card)
	if p.Eliminated() {
		g.appendLog(fmt.Sprintf("%s has been eliminated", p.Name), "elimination", p.Name)
	}
	return card
}

// checkWin flips the game to Finished once a single player holds cards.
func (g *Game) checkWin() {
	if g.aliveCount() != 1 {
		return
	}
	for i := range g.Players {
		if !g.Players[i].Eliminated() {
			g.Winner = g.Players[i].Name
			break
		}
	}
	g.Phase = PhaseFinished
	g.Pending = nil
	g.Challenge = nil
	g.Revealing = ""
	g.skipped = nil
	g.appendLog(fmt.Sprintf("%s wins the game!", g.Winner), "system", g.Winner)
}

// Finished reports whether the game has reached its terminal phase.
func (g *Game) Finished() bool { return g.Phase == PhaseFinished }

// CardCount returns deck + hands + discard; it must always equal DeckSize
// once dealt. Exposed for invariant checks.
func (g *Game) CardCount() int {
	n := g.Deck.Len() + len(g.Discarded)
	for i := range g.Players {
		n += len(g.Players[i].Hand)
	}
	return n
}
