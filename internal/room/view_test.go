package room

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b6428259/spotup-games/engine"
)

func dealtGame(t *testing.T, names ...string) *engine.Game {
	t.Helper()
	g, err := engine.NewGame(7, names)
	require.NoError(t, err)
	require.NoError(t, g.Deal())
	return g
}

func TestBuildViewRedactsOtherHands(t *testing.T) {
	g := dealtGame(t, "alice", "bob", "cara")
	id := uuid.New()

	for _, observer := range []string{"alice", "bob", "cara"} {
		v := buildView(id, g, observer)
		for _, pv := range v.Players {
			if pv.Name == observer {
				assert.Len(t, pv.Hand, 2, "observer %s must see own hand", observer)
			} else {
				assert.Empty(t, pv.Hand, "observer %s must not see %s's hand", observer, pv.Name)
			}
			assert.Equal(t, 2, pv.HandSize)
		}
	}
}

func TestBuildViewSpectatorSeesNoHands(t *testing.T) {
	g := dealtGame(t, "alice", "bob")
	v := buildView(uuid.New(), g, "ghost")
	for _, pv := range v.Players {
		assert.Empty(t, pv.Hand)
	}
}

// The wire form must not leak hidden cards through omitted-but-present
// fields.
func TestViewJSONOmitsRedactedHands(t *testing.T) {
	g := dealtGame(t, "alice", "bob")
	v := buildView(uuid.New(), g, "alice")

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	players := decoded["players"].([]any)
	require.Len(t, players, 2)

	aliceRaw := players[0].(map[string]any)
	bobRaw := players[1].(map[string]any)
	assert.Contains(t, aliceRaw, "hand")
	assert.NotContains(t, bobRaw, "hand")
	assert.Equal(t, float64(2), bobRaw["handSize"])
}

func TestBuildViewCopiesMutableState(t *testing.T) {
	g := dealtGame(t, "alice", "bob")
	v := buildView(uuid.New(), g, "alice")

	require.NotEmpty(t, v.Log)
	v.Log[0].Message = "tampered"
	assert.NotEqual(t, "tampered", g.Log[0].Message)

	v.Players[0].Hand[0] = "tampered"
	assert.NotEqual(t, "tampered", g.Players[0].Hand[0].String())
}

func TestBuildViewExposesPublicDiscards(t *testing.T) {
	g := dealtGame(t, "alice", "bob")

	// Coup leaves a public discard behind.
	g.Players[0].Coins = 7
	require.NoError(t, g.Apply(engine.Intent{Type: engine.IntentChooseAction, Actor: "alice", Action: "Coup", Target: "bob"}))
	require.NoError(t, g.Apply(engine.Intent{Type: engine.IntentRevealCard, Actor: "bob", CardIndex: 0}))

	v := buildView(uuid.New(), g, "cara")
	require.Len(t, v.Discarded, 1)
	assert.Equal(t, 1, v.Players[1].HandSize)
	assert.NotNil(t, v.Players)
}
