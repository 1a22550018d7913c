package mixer

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// DefaultLevel is where every strip sits before a dial touches it.
const DefaultLevel = 0.8

// Backend forwards level changes to a real audio system.
type Backend interface {
	ApplyLevel(channel int, level float64) error
}

// LevelChange describes one strip's level after an update.
type LevelChange struct {
	Channel int     `json:"channel"`
	Level   float64 `json:"level"`
}

// Desk holds normalized gain levels for a fixed row of strips, standing in
// for a zynmixer-style engine. An optional backend forwards changes
// onward; without one the desk is memory only.
type Desk struct {
	log       zerolog.Logger
	mu        sync.Mutex
	levels    []float64
	backend   Backend
	listeners []func(LevelChange)
}

func NewDesk(channels int, backend Backend) *Desk {
	if channels <= 0 {
		channels = 16
	}
	d := &Desk{
		log:     log.With().Str("module", "Mixer").Logger(),
		levels:  make([]float64, channels),
		backend: backend,
	}
	for i := range d.levels {
		d.levels[i] = DefaultLevel
	}
	return d
}

// OnChange registers a callback fired after every level change.
func (d *Desk) OnChange(fn func(LevelChange)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

func (d *Desk) fire(change LevelChange) {
	d.mu.Lock()
	listeners := slices.Clone(d.listeners)
	d.mu.Unlock()
	for _, fn := range listeners {
		fn(change)
	}
}

// SetLevel moves one strip to a level, clamped to 0.0-1.0. Strips outside
// the desk are dropped.
func (d *Desk) SetLevel(channel int, level float64) {
	level = lo.Clamp(level, 0.0, 1.0)

	d.mu.Lock()
	if channel < 0 || channel >= len(d.levels) {
		d.mu.Unlock()
		d.log.Debug().Int("channel", channel).Msg("No such strip")
		return
	}
	d.levels[channel] = level
	d.mu.Unlock()

	d.log.Debug().Int("channel", channel).Float64("level", level).Msg("Strip level set")

	if d.backend != nil {
		if err := d.backend.ApplyLevel(channel, level); err != nil {
			d.log.Error().Err(err).Int("channel", channel).Msg("Backend rejected level")
		}
	}
	d.fire(LevelChange{Channel: channel, Level: level})
}

// Level returns one strip's level, or -1 for strips outside the desk.
func (d *Desk) Level(channel int) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if channel < 0 || channel >= len(d.levels) {
		return -1
	}
	return d.levels[channel]
}

// Levels returns a copy of every strip's level.
func (d *Desk) Levels() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]float64(nil), d.levels...)
}

// Channels returns the number of strips on the desk.
func (d *Desk) Channels() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.levels)
}

// RestoreLevels seeds strips from persisted state. The backend is not
// touched; a level only reaches it once a dial actually moves.
func (d *Desk) RestoreLevels(saved map[int]float64) {
	d.mu.Lock()
	for channel, level := range saved {
		if channel < 0 || channel >= len(d.levels) {
			continue
		}
		d.levels[channel] = lo.Clamp(level, 0.0, 1.0)
	}
	d.mu.Unlock()
}
