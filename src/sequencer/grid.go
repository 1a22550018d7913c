package sequencer

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/padworks/seqkontrol/src/configuration"
)

// Play states, numbered the way zynseq-style engines number them. The pad
// mapper forwards these values verbatim.
const (
	StateStopped = iota
	StateStarting
	StatePlaying
	StateStopping
)

// PadChange describes one pad's state after an update.
type PadChange struct {
	Bank  int `json:"bank"`
	Pad   int `json:"pad"`
	State int `json:"state"`
}

// Grid is an in-memory launch grid: banks numbered from 1, each holding
// cols x rows pads with independent play states. It stands in for a full
// sequencer engine, tracking launch state and answering coordinate
// lookups. There is no transport attached, so start and stop requests
// resolve immediately instead of waiting for a quantization point.
type Grid struct {
	log       zerolog.Logger
	mu        sync.Mutex
	cols      int
	rows      int
	banks     int
	active    int
	states    map[int][]int
	listeners []func(PadChange)
}

func NewGrid(cfg configuration.SequencerConfig) *Grid {
	g := &Grid{
		log:    log.With().Str("module", "Sequencer").Logger(),
		cols:   cfg.GridColumns,
		rows:   cfg.GridRows,
		banks:  cfg.Banks,
		active: cfg.ActiveBank,
	}
	if g.cols <= 0 {
		g.cols = 4
	}
	if g.rows <= 0 {
		g.rows = 4
	}
	if g.banks <= 0 {
		g.banks = 3
	}
	if g.active < 1 || g.active > g.banks {
		g.active = 1
	}
	g.states = make(map[int][]int, g.banks)
	for bank := 1; bank <= g.banks; bank++ {
		g.states[bank] = make([]int, g.cols*g.rows)
	}
	return g
}

// OnChange registers a callback fired after every pad state change.
func (g *Grid) OnChange(fn func(PadChange)) {
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

func (g *Grid) fire(change PadChange) {
	g.mu.Lock()
	listeners := slices.Clone(g.listeners)
	g.mu.Unlock()
	for _, fn := range listeners {
		fn(change)
	}
}

func (g *Grid) Cols() int  { return g.cols }
func (g *Grid) Rows() int  { return g.rows }
func (g *Grid) Banks() int { return g.banks }

// ActiveBank returns the bank pad presses currently land in.
func (g *Grid) ActiveBank() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// SetActiveBank switches the bank pad presses land in. Reports whether the
// bank exists.
func (g *Grid) SetActiveBank(bank int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if bank < 1 || bank > g.banks {
		g.log.Warn().Int("bank", bank).Msg("No such bank")
		return false
	}
	g.active = bank
	return true
}

// PadFromXY resolves a grid coordinate to a pad index, row-major from the
// top-left. Coordinates off the grid resolve to -1.
func (g *Grid) PadFromXY(col, row int) int {
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return -1
	}
	return row*g.cols + col
}

// TogglePlayState flips a pad between stopped and playing. Requests naming
// a bank or pad outside the grid are dropped.
func (g *Grid) TogglePlayState(bank, pad int) {
	g.mu.Lock()
	states, ok := g.states[bank]
	if !ok || pad < 0 || pad >= len(states) {
		g.mu.Unlock()
		g.log.Debug().Int("bank", bank).Int("pad", pad).Msg("Toggle outside grid")
		return
	}
	next := StatePlaying
	if states[pad] == StatePlaying {
		next = StateStopped
	}
	states[pad] = next
	g.mu.Unlock()

	g.log.Debug().Int("bank", bank).Int("pad", pad).Int("state", next).Msg("Pad toggled")
	g.fire(PadChange{Bank: bank, Pad: pad, State: next})
}

// SetPlayState applies a requested play state to one pad. Without a
// transport the pending states resolve immediately: a start request lands
// on playing, a stop request on stopped. Unknown states are dropped, as
// are pads outside the grid; scene runs walk past the last pad of a bank
// and rely on that.
func (g *Grid) SetPlayState(bank, pad, state int) {
	var next int
	switch state {
	case StateStopped, StateStopping:
		next = StateStopped
	case StatePlaying, StateStarting:
		next = StatePlaying
	default:
		return
	}

	g.mu.Lock()
	states, ok := g.states[bank]
	if !ok || pad < 0 || pad >= len(states) {
		g.mu.Unlock()
		return
	}
	if states[pad] == next {
		g.mu.Unlock()
		return
	}
	states[pad] = next
	g.mu.Unlock()

	g.log.Debug().Int("bank", bank).Int("pad", pad).Int("state", next).Msg("Pad state set")
	g.fire(PadChange{Bank: bank, Pad: pad, State: next})
}

// State returns one pad's play state, or -1 for pads outside the grid.
func (g *Grid) State(bank, pad int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	states, ok := g.states[bank]
	if !ok || pad < 0 || pad >= len(states) {
		return -1
	}
	return states[pad]
}

// States returns a copy of one bank's pad states, nil for unknown banks.
func (g *Grid) States(bank int) []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	states, ok := g.states[bank]
	if !ok {
		return nil
	}
	return append([]int(nil), states...)
}

// Snapshot returns a copy of every bank's pad states.
func (g *Grid) Snapshot() map[int][]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	snapshot := make(map[int][]int, len(g.states))
	for bank, states := range g.states {
		snapshot[bank] = append([]int(nil), states...)
	}
	return snapshot
}
