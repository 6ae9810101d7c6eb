package statemachine

import (
	"sort"
	"testing"

	apperrors "pgstay/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lightState string
type lightAction string

const (
	red    lightState = "red"
	green  lightState = "green"
	broken lightState = "broken"

	goAction    lightAction = "go"
	stopAction  lightAction = "stop"
	pokeAction  lightAction = "poke"
	breakAction lightAction = "break"
)

func newLight() *Machine[lightState, lightAction] {
	return New[lightState, lightAction]("light").
		Allow(goAction, green, red).
		Allow(stopAction, red, green).
		Allow(breakAction, broken, red, green).
		Keep(pokeAction, red, green).
		Reject(goAction, "Only red lights can turn green")
}

func TestNext(t *testing.T) {
	m := newLight()

	tests := []struct {
		name    string
		from    lightState
		action  lightAction
		want    lightState
		wantErr bool
	}{
		{"allowed transition", red, goAction, green, false},
		{"multi-source transition", green, breakAction, broken, false},
		{"keep stays in place", green, pokeAction, green, false},
		{"not allowed", green, goAction, green, true},
		{"terminal state", broken, pokeAction, broken, true},
		{"unknown state", lightState("blue"), goAction, lightState("blue"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Next(tt.from, tt.action)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, apperrors.CodePreconditionFailed))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRejectionMessage(t *testing.T) {
	m := newLight()

	err := m.Check(green, goAction)
	require.Error(t, err)
	assert.Equal(t, "Only red lights can turn green", apperrors.AsAppError(err).Message)

	err = m.Check(broken, stopAction)
	require.Error(t, err)
	assert.Equal(t, "Cannot stop light in status broken", apperrors.AsAppError(err).Message)
	assert.Equal(t, "broken", apperrors.AsAppError(err).Details["status"])
}

func TestActionsAndCan(t *testing.T) {
	m := newLight()

	actions := m.Actions(red)
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	assert.Equal(t, []lightAction{breakAction, goAction, pokeAction}, actions)

	assert.True(t, m.Can(red, goAction))
	assert.False(t, m.Can(broken, goAction))
	assert.Empty(t, m.Actions(broken))
}
