package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padworks/seqkontrol/src/configuration"
)

func newTestGrid() *Grid {
	return NewGrid(configuration.SequencerConfig{
		GridColumns: 4,
		GridRows:    4,
		Banks:       3,
		ActiveBank:  1,
	})
}

func TestNewGridDefaults(t *testing.T) {
	g := NewGrid(configuration.SequencerConfig{})

	assert.Equal(t, 4, g.Cols())
	assert.Equal(t, 4, g.Rows())
	assert.Equal(t, 3, g.Banks())
	assert.Equal(t, 1, g.ActiveBank())
}

func TestPadFromXY(t *testing.T) {
	g := newTestGrid()

	assert.Equal(t, 0, g.PadFromXY(0, 0))
	assert.Equal(t, 3, g.PadFromXY(3, 0))
	assert.Equal(t, 12, g.PadFromXY(0, 3))
	assert.Equal(t, 15, g.PadFromXY(3, 3))
	assert.Equal(t, 6, g.PadFromXY(2, 1))
}

func TestPadFromXYOffGrid(t *testing.T) {
	g := newTestGrid()

	assert.Equal(t, -1, g.PadFromXY(-1, 0))
	assert.Equal(t, -1, g.PadFromXY(0, -18))
	assert.Equal(t, -1, g.PadFromXY(4, 0))
	assert.Equal(t, -1, g.PadFromXY(0, 4))
}

func TestTogglePlayState(t *testing.T) {
	g := newTestGrid()

	g.TogglePlayState(1, 5)
	assert.Equal(t, StatePlaying, g.State(1, 5))

	g.TogglePlayState(1, 5)
	assert.Equal(t, StateStopped, g.State(1, 5))
}

func TestTogglePlayStateIsPerBank(t *testing.T) {
	g := newTestGrid()

	g.TogglePlayState(1, 5)
	assert.Equal(t, StatePlaying, g.State(1, 5))
	assert.Equal(t, StateStopped, g.State(2, 5))
}

func TestToggleOutsideGridIgnored(t *testing.T) {
	g := newTestGrid()
	var changes []PadChange
	g.OnChange(func(c PadChange) { changes = append(changes, c) })

	g.TogglePlayState(0, 5)
	g.TogglePlayState(4, 5)
	g.TogglePlayState(1, -1)
	g.TogglePlayState(1, 16)

	assert.Empty(t, changes)
}

func TestSetPlayStateResolvesImmediately(t *testing.T) {
	g := newTestGrid()

	g.SetPlayState(1, 0, StateStarting)
	assert.Equal(t, StatePlaying, g.State(1, 0))

	g.SetPlayState(1, 0, StateStopping)
	assert.Equal(t, StateStopped, g.State(1, 0))

	g.SetPlayState(1, 1, StatePlaying)
	assert.Equal(t, StatePlaying, g.State(1, 1))

	g.SetPlayState(1, 1, StateStopped)
	assert.Equal(t, StateStopped, g.State(1, 1))
}

func TestSetPlayStateUnknownStateIgnored(t *testing.T) {
	g := newTestGrid()
	g.TogglePlayState(1, 0)

	g.SetPlayState(1, 0, 7)
	assert.Equal(t, StatePlaying, g.State(1, 0))
}

func TestSetPlayStatePastGridEdgeIgnored(t *testing.T) {
	g := newTestGrid()

	// A scene run started on the last pad walks past the edge.
	for pad := 15; pad < 19; pad++ {
		g.SetPlayState(1, pad, StateStopped)
	}
	assert.Equal(t, -1, g.State(1, 16))
}

func TestChangeNotifications(t *testing.T) {
	g := newTestGrid()
	var changes []PadChange
	g.OnChange(func(c PadChange) { changes = append(changes, c) })

	g.TogglePlayState(1, 2)
	g.SetPlayState(2, 3, StatePlaying)

	require.Len(t, changes, 2)
	assert.Equal(t, PadChange{Bank: 1, Pad: 2, State: StatePlaying}, changes[0])
	assert.Equal(t, PadChange{Bank: 2, Pad: 3, State: StatePlaying}, changes[1])
}

func TestListenerMayReenterGrid(t *testing.T) {
	g := newTestGrid()
	var seen []int
	g.OnChange(func(c PadChange) {
		seen = append(seen, g.State(c.Bank, c.Pad))
	})

	g.TogglePlayState(1, 4)
	g.SetPlayState(1, 4, StateStopping)

	assert.Equal(t, []int{StatePlaying, StateStopped}, seen)
}

func TestNoNotificationWhenStateUnchanged(t *testing.T) {
	g := newTestGrid()
	var changes []PadChange
	g.OnChange(func(c PadChange) { changes = append(changes, c) })

	g.SetPlayState(1, 0, StateStopped)

	assert.Empty(t, changes)
}

func TestSetActiveBank(t *testing.T) {
	g := newTestGrid()

	assert.True(t, g.SetActiveBank(2))
	assert.Equal(t, 2, g.ActiveBank())

	assert.False(t, g.SetActiveBank(0))
	assert.False(t, g.SetActiveBank(4))
	assert.Equal(t, 2, g.ActiveBank())
}

func TestStatesReturnsCopy(t *testing.T) {
	g := newTestGrid()

	states := g.States(1)
	require.Len(t, states, 16)
	states[0] = StatePlaying

	assert.Equal(t, StateStopped, g.State(1, 0))
	assert.Nil(t, g.States(9))
}

func TestSnapshot(t *testing.T) {
	g := newTestGrid()
	g.TogglePlayState(2, 7)

	snapshot := g.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, StatePlaying, snapshot[2][7])
	assert.Equal(t, StateStopped, snapshot[1][7])
}
