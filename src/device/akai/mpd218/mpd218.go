package mpd218

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/padworks/seqkontrol/src/configuration"
)

// Status byte high nibbles the mapper reacts to. Everything else coming
// off the wire is dropped.
const (
	msgNoteOff         = 0x8
	msgNoteOn          = 0x9
	msgControlChange   = 0xB
	msgChannelPressure = 0xD
)

const (
	maxDialValue = 127
	maxPressure  = 127

	// A full-pressure press launches the held pad and the next three.
	sceneRunLength = 4
	// Play state requested for every pad of a scene run, forwarded to the
	// sequencer verbatim. zynseq-style engines number their states from
	// stopped=0, so the run is a stop-all for those four pads.
	scenePlayState = 0
)

// SequenceController is the slice of a sequencer engine the pads drive.
// Pad indices are engine-defined; a negative index from PadFromXY means no
// pad exists at that coordinate.
type SequenceController interface {
	ActiveBank() int
	PadFromXY(col, row int) int
	TogglePlayState(bank, pad int)
	SetPlayState(bank, pad, state int)
}

// MixerController adjusts strip gains, normalized to 0.0-1.0.
type MixerController interface {
	SetLevel(channel int, level float64)
}

// heldNote tracks the pad a channel pressure message belongs to. The
// MPD218 reports pressure without a note number, so the last note-on wins
// even when several pads are down, and any note-off clears the slot.
type heldNote struct {
	held bool
	note uint8
}

func (h *heldNote) press(note uint8) {
	h.held = true
	h.note = note
}

func (h *heldNote) release() {
	h.held = false
}

func (h heldNote) current() (uint8, bool) {
	return h.note, h.held
}

// Mapper translates the MPD218's channel-voice messages into sequencer and
// mixer calls. Not safe for concurrent use; feed it from a single
// goroutine, which one MIDI listen callback does.
type Mapper struct {
	log    zerolog.Logger
	layout layout
	seq    SequenceController
	mixer  MixerController
	held   heldNote
}

func New(cfg configuration.Layout, seq SequenceController, mixer MixerController) *Mapper {
	return &Mapper{
		log:    log.With().Str("module", "MPD218").Logger(),
		layout: compileLayout(cfg),
		seq:    seq,
		mixer:  mixer,
	}
}

// HandleMessage dispatches one channel-voice message. Callers pad shorter
// messages (channel pressure is two bytes on the wire) with zero bytes.
func (m *Mapper) HandleMessage(status, data1, data2 byte) {
	msgType := (status >> 4) & 0x0F
	channel := status & 0x0F
	data1 &= 0x7F
	data2 &= 0x7F

	switch msgType {
	case msgNoteOn:
		m.noteOn(channel, data1, data2)
	case msgNoteOff:
		m.noteOff(channel, data1)
	case msgControlChange:
		m.controlChange(data1, data2)
	case msgChannelPressure:
		m.pressureChange(channel, data1)
	}
}

func (m *Mapper) noteOn(channel, note, velocity uint8) {
	col, row, bank := m.layout.noteXY(note)
	m.held.press(note)
	m.log.Debug().
		Uint8("channel", channel).
		Uint8("note", note).
		Uint8("velocity", velocity).
		Str("bank", string(bank)).
		Int("col", col).
		Int("row", row).
		Msg("Pad pressed")

	pad := m.seq.PadFromXY(col, row)
	if pad < 0 {
		return
	}
	m.seq.TogglePlayState(m.seq.ActiveBank(), pad)
}

func (m *Mapper) noteOff(channel, note uint8) {
	m.held.release()
	m.log.Debug().
		Uint8("channel", channel).
		Uint8("note", note).
		Msg("Pad released")
}

func (m *Mapper) controlChange(ccnum, ccval uint8) {
	channel, bank := m.layout.dialChannel(ccnum)
	if channel < 0 {
		return
	}
	level := float64(ccval) / maxDialValue
	m.log.Debug().
		Uint8("cc", ccnum).
		Str("bank", string(bank)).
		Int("channel", channel).
		Float64("level", level).
		Msg("Dial moved")
	m.mixer.SetLevel(channel, level)
}

func (m *Mapper) pressureChange(channel, pressure uint8) {
	if pressure != maxPressure {
		return
	}
	note, ok := m.held.current()
	if !ok {
		return
	}

	// The run is addressed by raw note number, not by grid coordinate, so
	// it walks the pads in wiring order starting at the held one.
	first := int(note)
	bank := m.seq.ActiveBank()
	m.log.Debug().
		Uint8("channel", channel).
		Int("firstPad", first).
		Int("lastPad", first+sceneRunLength-1).
		Msg("Scene launch")
	for i := 0; i < sceneRunLength; i++ {
		m.seq.SetPlayState(bank, first+i, scenePlayState)
	}
}
