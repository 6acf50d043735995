package engine

import (
	"errors"
	"testing"
)

// TestDescribeTable spot-checks every row of the action table.
func TestDescribeTable(t *testing.T) {
	cases := []struct {
		name          string
		cost          int
		needsTarget   bool
		claim         Card
		challengeable bool
	}{
		{"Income", 0, false, NoCard, false},
		{"Foreign Aid", 0, false, NoCard, false},
		{"Coup", 7, true, NoCard, false},
		{"Tax", 0, false, Duke, true},
		{"Assassinate", 3, true, Assassin, true},
		{"Exchange", 0, false, Ambassador, true},
		{"Steal", 0, true, Captain, true},
	}
	for _, tc := range cases {
		spec, err := Describe(tc.name)
		if err != nil {
			t.Fatalf("Describe(%q): %v", tc.name, err)
		}
		if spec.Cost != tc.cost || spec.NeedsTarget != tc.needsTarget ||
			spec.Claim != tc.claim || spec.Challengeable != tc.challengeable {
			t.Errorf("Describe(%q) = %+v, want cost=%d target=%v claim=%s challengeable=%v",
				tc.name, spec, tc.cost, tc.needsTarget, tc.claim, tc.challengeable)
		}
		if spec.Name != tc.name {
			t.Errorf("spec.Name = %q, want %q", spec.Name, tc.name)
		}
	}
}

func TestDescribeUnknown(t *testing.T) {
	_, err := Describe("Embezzle")
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("err = %v, want ErrUnknownAction", err)
	}
}

func TestCardFromName(t *testing.T) {
	for c := Card(0); c < NumCharacters; c++ {
		got, err := CardFromName(c.String())
		if err != nil || got != c {
			t.Errorf("CardFromName(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := CardFromName("Joker"); err == nil {
		t.Error("CardFromName(Joker) succeeded, want error")
	}
}

func TestClaimHeld(t *testing.T) {
	hand := []Card{Captain, Contessa}
	if !ClaimHeld(Contessa, hand) {
		t.Error("ClaimHeld(Contessa) = false, want true")
	}
	if ClaimHeld(Duke, hand) {
		t.Error("ClaimHeld(Duke) = true, want false")
	}
	if ClaimHeld(Duke, nil) {
		t.Error("ClaimHeld on empty hand = true, want false")
	}
}
