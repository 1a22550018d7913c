package configuration

// Bank identifies one of the three pad/dial banks selectable on the
// controller. Bank buttons are handled by the hardware itself; the banks
// only reach us as disjoint note and CC ranges.
type Bank string

const (
	BankA Bank = "A"
	BankB Bank = "B"
	BankC Bank = "C"
)

// DeviceConfig contains MIDI device settings
type DeviceConfig struct {
	Name   string `yaml:"name"`   // Display name for the device
	InPort string `yaml:"inPort"` // MIDI input port name (substring match)
}

// PadBankRange assigns a contiguous run of note numbers to a pad bank.
// FirstNote maps to the bottom-left pad.
type PadBankRange struct {
	Bank      Bank  `yaml:"bank"`
	FirstNote uint8 `yaml:"firstNote"`
	LastNote  uint8 `yaml:"lastNote"`
}

// DialBankRange assigns a run of CC numbers to mixer strips. When Channels
// is empty the strips are contiguous from FirstCC (cc N drives strip
// N-FirstCC). Otherwise only the listed CCs drive a strip and the rest of
// the range is dead; the MPD218 ships with such holes in bank A.
type DialBankRange struct {
	Bank     Bank          `yaml:"bank"`
	FirstCC  uint8         `yaml:"firstCC"`
	LastCC   uint8         `yaml:"lastCC"`
	Channels map[uint8]int `yaml:"channels,omitempty"`
}

// Layout describes how the controller's pads and dials are wired.
type Layout struct {
	PadColumns int             `yaml:"padColumns"`
	PadRows    int             `yaml:"padRows"`
	PadBanks   []PadBankRange  `yaml:"padBanks"`
	DialBanks  []DialBankRange `yaml:"dialBanks"`
}

// SequencerConfig sizes the launch grid the pads drive. Banks are numbered
// from 1, zynseq style.
type SequencerConfig struct {
	GridColumns int `yaml:"gridColumns"`
	GridRows    int `yaml:"gridRows"`
	Banks       int `yaml:"banks"`
	ActiveBank  int `yaml:"activeBank"`
}

// MixerBackend selects where dial movements are applied.
type MixerBackend string

const (
	// MixerBackendMemory keeps levels in memory only.
	MixerBackendMemory MixerBackend = "memory"
	// MixerBackendPulse forwards levels to PulseAudio sinks and streams.
	MixerBackendPulse MixerBackend = "pulse"
)

// MixerConfig describes the mixer the dials drive.
type MixerConfig struct {
	Channels int          `yaml:"channels"`
	Backend  MixerBackend `yaml:"backend"`
	// PulseTargets names the PulseAudio sink or playback stream behind each
	// strip, by position. "Default" follows the default sink. Only read by
	// the pulse backend.
	PulseTargets []string `yaml:"pulseTargets,omitempty"`
	// Levels holds the last dial position per strip so a restart picks up
	// where the hardware left off.
	Levels map[int]float64 `yaml:"levels,omitempty"`
}

// Config is the root configuration structure
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Layout    Layout          `yaml:"layout"`
	Sequencer SequencerConfig `yaml:"sequencer"`
	Mixer     MixerConfig     `yaml:"mixer"`
}
