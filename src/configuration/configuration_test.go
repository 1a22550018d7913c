package configuration

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfigTables(t *testing.T) {
	cfg := GetDefaultConfig()

	require.Len(t, cfg.Layout.PadBanks, 3)
	assert.Equal(t, PadBankRange{Bank: BankA, FirstNote: 36, LastNote: 51}, cfg.Layout.PadBanks[0])
	assert.Equal(t, PadBankRange{Bank: BankB, FirstNote: 52, LastNote: 67}, cfg.Layout.PadBanks[1])
	assert.Equal(t, PadBankRange{Bank: BankC, FirstNote: 68, LastNote: 83}, cfg.Layout.PadBanks[2])

	require.Len(t, cfg.Layout.DialBanks, 3)
	bankA := cfg.Layout.DialBanks[0]
	assert.Equal(t, map[uint8]int{3: 0, 9: 1, 12: 2, 13: 10, 14: 11, 15: 12}, bankA.Channels)
	assert.Empty(t, cfg.Layout.DialBanks[1].Channels)
	assert.Empty(t, cfg.Layout.DialBanks[2].Channels)

	assert.Equal(t, 16, cfg.Mixer.Channels)
	assert.Equal(t, MixerBackendMemory, cfg.Mixer.Backend)
	assert.Equal(t, 1, cfg.Sequencer.ActiveBank)
}

func TestDefaultConfigRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(GetDefaultConfig())
	require.NoError(t, err)

	cfg, err := parse(data)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `device:
  name: Akai MPD218
  inPort: MPD218
layout:
  padColumns: 4
  padRows: 4
  padBanks:
    - bank: A
      firstNote: 36
      lastNote: 51
  dialBanks:
    - bank: A
      firstCC: 3
      lastCC: 15
      channels:
        3: 0
        9: 1
sequencer:
  gridColumns: 4
  gridRows: 4
  banks: 3
  activeBank: 2
mixer:
  channels: 8
  backend: memory
  levels:
    0: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Sequencer.ActiveBank)
	assert.Equal(t, 8, cfg.Mixer.Channels)
	assert.Equal(t, 0.5, cfg.Mixer.Levels[0])
	require.Len(t, cfg.Layout.DialBanks, 1)
	assert.Equal(t, map[uint8]int{3: 0, 9: 1}, cfg.Layout.DialBanks[0].Channels)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	bad := []string{
		"layout:\n  padBanks:\n    - bank: D\n      firstNote: 36\n      lastNote: 51\n",
		"layout:\n  dialBanks:\n    - bank: A\n      firstCC: 300\n      lastCC: 301\n",
		"mixer:\n  backend: jack\n",
		"mixer:\n  levels:\n    0: 1.5\n",
		"unknownSection: 1\n",
		"{{not yaml",
	}
	for _, content := range bad {
		_, err := parse([]byte(content))
		assert.Error(t, err, "content %q", content)
	}
}

func TestEnsureDefaultsFillsMissingSections(t *testing.T) {
	cfg, err := parse([]byte("device:\n  name: Thing\n"))
	require.NoError(t, err)

	assert.Equal(t, "Thing", cfg.Device.Name)
	assert.Equal(t, "MPD218", cfg.Device.InPort)
	assert.Len(t, cfg.Layout.PadBanks, 3)
	assert.Len(t, cfg.Layout.DialBanks, 3)
	assert.Equal(t, 16, cfg.Mixer.Channels)
	assert.Equal(t, MixerBackendMemory, cfg.Mixer.Backend)
	assert.Equal(t, 1, cfg.Sequencer.ActiveBank)
}

func TestEnsureDefaultsClampsActiveBank(t *testing.T) {
	cfg, err := parse([]byte("sequencer:\n  banks: 2\n  activeBank: 5\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Sequencer.Banks)
	assert.Equal(t, 1, cfg.Sequencer.ActiveBank)
}

func TestManagerUpdateLevelPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cm := NewConfigManager(GetDefaultConfig(), path)

	cm.UpdateLevel(3, 0.25)
	cm.SaveNow()

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, loaded.Mixer.Levels[3])
}

func TestManagerUpdateActiveBankPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cm := NewConfigManager(GetDefaultConfig(), path)

	cm.UpdateActiveBank(3)
	cm.SaveNow()

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Sequencer.ActiveBank)
}

func TestManagerNotifiesSubscribers(t *testing.T) {
	cm := NewConfigManager(GetDefaultConfig(), filepath.Join(t.TempDir(), "config.yaml"))
	var got []interface{}
	cm.Subscribe("mixer.level.updated", func(data interface{}) { got = append(got, data) })

	cm.UpdateLevel(1, 0.5)

	require.Len(t, got, 1)
	update, ok := got[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1, update["channel"])
	assert.Equal(t, 0.5, update["level"])
}

func TestManagerConcurrentLevelUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cm := NewConfigManager(GetDefaultConfig(), path)

	// A dial sweep on each of two strips, delivered from separate
	// goroutines the way the MIDI and web UI paths can overlap.
	var wg sync.WaitGroup
	for _, channel := range []int{0, 1} {
		wg.Add(1)
		go func(channel int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				cm.UpdateLevel(channel, float64(i%5)/4.0)
			}
		}(channel)
	}
	wg.Wait()
	cm.SaveNow()

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1.0, loaded.Mixer.Levels[0])
	assert.Equal(t, 1.0, loaded.Mixer.Levels[1])
}
