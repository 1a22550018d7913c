package mpd218

import (
	"github.com/padworks/seqkontrol/src/configuration"
)

// layout is the compiled form of the configured bank tables, ready for
// per-message lookups.
type layout struct {
	cols  int
	rows  int
	pads  []configuration.PadBankRange
	dials []dialBank
}

type dialBank struct {
	bank     configuration.Bank
	first    uint8
	last     uint8
	channels map[uint8]int
}

func compileLayout(cfg configuration.Layout) layout {
	l := layout{
		cols: cfg.PadColumns,
		rows: cfg.PadRows,
		pads: append([]configuration.PadBankRange(nil), cfg.PadBanks...),
	}
	if l.cols <= 0 {
		l.cols = 4
	}
	if l.rows <= 0 {
		l.rows = 4
	}
	for _, d := range cfg.DialBanks {
		bank := dialBank{bank: d.Bank, first: d.FirstCC, last: d.LastCC}
		bank.channels = make(map[uint8]int)
		if len(d.Channels) > 0 {
			for cc, channel := range d.Channels {
				bank.channels[cc] = channel
			}
		} else {
			for cc := int(d.FirstCC); cc <= int(d.LastCC); cc++ {
				bank.channels[uint8(cc)] = cc - int(d.FirstCC)
			}
		}
		l.dials = append(l.dials, bank)
	}
	return l
}

// noteXY converts a note number to a grid coordinate. Rows count from the
// top: the first note of a bank is the bottom-left pad. Notes outside
// every bank keep the raw note as offset, so the result is defined but
// lands off-grid and the bank comes back empty.
func (l layout) noteXY(note uint8) (col, row int, bank configuration.Bank) {
	offset := int(note)
	for _, pb := range l.pads {
		if note >= pb.FirstNote && note <= pb.LastNote {
			offset = int(note - pb.FirstNote)
			bank = pb.Bank
			break
		}
	}
	col = offset % l.cols
	row = l.rows - 1 - offset/l.cols
	return col, row, bank
}

// dialChannel resolves a CC number to a mixer strip. Strip -1 means the CC
// drives nothing: either it falls outside every dial bank or it sits on
// one of a bank's dead positions.
func (l layout) dialChannel(cc uint8) (channel int, bank configuration.Bank) {
	for _, d := range l.dials {
		if cc < d.first || cc > d.last {
			continue
		}
		if ch, ok := d.channels[cc]; ok {
			return ch, d.bank
		}
		return -1, d.bank
	}
	return -1, ""
}
