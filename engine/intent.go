package engine

import "fmt"

// IntentType discriminates the inbound intent union.
type IntentType uint8

const (
	IntentChooseAction IntentType = iota
	IntentChallenge
	IntentSkipChallenge
	IntentSelectTarget
	IntentRevealCard
)

var intentNames = [...]string{
	"choose_action", "challenge", "skip_challenge", "select_target", "reveal_card",
}

func (t IntentType) String() string {
	if int(t) < len(intentNames) {
		return intentNames[t]
	}
	return fmt.Sprintf("Intent(%d)", uint8(t))
}

// Intent is one client request against the state machine. Actor carries
// the authenticated session identity; the engine never infers who is
// acting from anything client-local.
type Intent struct {
	Type      IntentType
	Actor     string
	Action    string // ChooseAction: display name from the action table
	Target    string // ChooseAction / SelectTarget
	CardIndex int    // RevealCard: index into the actor's own hand
}
