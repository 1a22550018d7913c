package webui

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padworks/seqkontrol/src/configuration"
	"github.com/padworks/seqkontrol/src/mixer"
	"github.com/padworks/seqkontrol/src/sequencer"
)

func newTestServer(t *testing.T) *WebUIServer {
	config := configuration.GetDefaultConfig()
	manager := configuration.NewConfigManager(config, filepath.Join(t.TempDir(), "config.yaml"))
	grid := sequencer.NewGrid(config.Sequencer)
	desk := mixer.NewDesk(4, nil)
	return NewWebUIServer("127.0.0.1:0", grid, desk, manager)
}

func TestBuildStateMessage(t *testing.T) {
	s := newTestServer(t)
	s.grid.TogglePlayState(1, 5)

	data, err := s.buildStateMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "stateUpdate", msg["type"])
	assert.Equal(t, "Akai MPD218", msg["device"])
	assert.Equal(t, float64(1), msg["activeBank"])
	assert.Equal(t, float64(3), msg["banks"])
	assert.Equal(t, float64(4), msg["cols"])
	assert.Equal(t, float64(4), msg["rows"])

	pads, ok := msg["pads"].(map[string]interface{})
	require.True(t, ok)
	bank1, ok := pads["1"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(sequencer.StatePlaying), bank1[5])

	levels, ok := msg["levels"].([]interface{})
	require.True(t, ok)
	assert.Len(t, levels, 4)
}

func TestNotifyDoesNotBlockWithoutBroadcaster(t *testing.T) {
	s := newTestServer(t)

	// More updates than the fast-path channel holds; the excess is dropped
	// rather than stalling the caller.
	for i := 0; i < 3*cap(s.updateCh); i++ {
		s.NotifyPadUpdate(sequencer.PadChange{Bank: 1, Pad: i % 16, State: sequencer.StatePlaying})
		s.NotifyLevelUpdate(mixer.LevelChange{Channel: i % 4, Level: 0.5})
	}

	assert.Equal(t, cap(s.updateCh), len(s.updateCh))
}
