package engine

import "fmt"

// ActionKind identifies one of the seven player actions.
type ActionKind uint8

const (
	Income ActionKind = iota
	ForeignAid
	Coup
	Tax
	Assassinate
	Exchange
	Steal

	NumActions = 7
)

// ActionSpec is one row of the static action table.
type ActionSpec struct {
	Kind          ActionKind
	Name          string
	Cost          int
	NeedsTarget   bool
	Claim         Card // NoCard if the action claims no character
	Challengeable bool
}

// actionTable mirrors the printed rules: cost, target requirement, claimed
// character and challengeability per action.
var actionTable = [NumActions]ActionSpec{
	{Income, "Income", 0, false, NoCard, false},
	{ForeignAid, "Foreign Aid", 0, false, NoCard, false},
	{Coup, "Coup", 7, true, NoCard, false},
	{Tax, "Tax", 0, false, Duke, true},
	{Assassinate, "Assassinate", 3, true, Assassin, true},
	{Exchange, "Exchange", 0, false, Ambassador, true},
	{Steal, "Steal", 0, true, Captain, true},
}

// Spec returns the static spec for an action kind.
func (k ActionKind) Spec() ActionSpec {
	return actionTable[k]
}

// String returns the display name of the action.
func (k ActionKind) String() string {
	if int(k) < len(actionTable) {
		return actionTable[k].Name
	}
	return fmt.Sprintf("Action(%d)", uint8(k))
}

// Describe looks up an action by its display name. Pure lookup, no side
// effects; fails with ErrUnknownAction for anything not in the table.
func Describe(name string) (ActionSpec, error) {
	for _, spec := range actionTable {
		if spec.Name == name {
			return spec, nil
		}
	}
	return ActionSpec{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}
