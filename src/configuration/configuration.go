package configuration

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

// Compiled once at startup; every load validates against it.
var configSchema = jsonschema.MustCompileString("config.schema.json", schemaJSON)

// Factory Akai MPD218 configuration. Pad banks A-C cover notes 36-83 in
// three runs of 16, bottom-left pad first. Dial bank A carries the holes
// the hardware ships with (CCs 4-8, 10 and 11 drive nothing), banks B and
// C are contiguous.
func GetDefaultConfig() Config {
	return Config{
		Device: DeviceConfig{
			Name:   "Akai MPD218",
			InPort: "MPD218",
		},
		Layout: Layout{
			PadColumns: 4,
			PadRows:    4,
			PadBanks: []PadBankRange{
				{Bank: BankA, FirstNote: 36, LastNote: 51},
				{Bank: BankB, FirstNote: 52, LastNote: 67},
				{Bank: BankC, FirstNote: 68, LastNote: 83},
			},
			DialBanks: []DialBankRange{
				{Bank: BankA, FirstCC: 3, LastCC: 15, Channels: map[uint8]int{
					3:  0,
					9:  1,
					12: 2,
					13: 10,
					14: 11,
					15: 12,
				}},
				{Bank: BankB, FirstCC: 16, LastCC: 21},
				{Bank: BankC, FirstCC: 22, LastCC: 27},
			},
		},
		Sequencer: SequencerConfig{
			GridColumns: 4,
			GridRows:    4,
			Banks:       3,
			ActiveBank:  1,
		},
		Mixer: MixerConfig{
			Channels: 16,
			Backend:  MixerBackendMemory,
		},
	}
}

// Load finds and parses the configuration. An explicit path wins; otherwise
// the usual search paths are tried and a default config is written when
// none exists yet.
func Load(explicitPath string) (Config, string, error) {
	if explicitPath != "" {
		config, err := LoadFile(explicitPath)
		return config, explicitPath, err
	}

	var configPath string
	var content []byte

	homeDir, _ := os.UserHomeDir()
	paths := [...]string{
		"./config.yaml",
		fmt.Sprintf("%s/.config/seqkontrol/config.yaml", homeDir),
	}

	// Try to read from config paths
	for _, path := range paths {
		if content != nil {
			break
		}
		fileContent, err := os.ReadFile(path)
		if err == nil {
			configPath = path
			content = fileContent
		}
	}

	// If no config found, create a default one
	if content == nil {
		config := GetDefaultConfig()

		// Write the default config to the home directory path
		configPath = paths[1]

		// Ensure directory exists
		configDir := fmt.Sprintf("%s/.config/seqkontrol", homeDir)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return config, "", fmt.Errorf("could not create config directory: %w", err)
		}

		// Marshal and save the default config
		data, err := yaml.Marshal(config)
		if err != nil {
			return config, "", fmt.Errorf("failed to marshal default config: %w", err)
		}

		if err := os.WriteFile(configPath, data, 0644); err != nil {
			return config, "", fmt.Errorf("failed to write default config: %w", err)
		}

		return config, configPath, nil
	}

	config, err := parse(content)
	if err != nil {
		return GetDefaultConfig(), configPath, err
	}
	return config, configPath, nil
}

// LoadFile parses the configuration at an explicit path.
func LoadFile(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return GetDefaultConfig(), fmt.Errorf("could not read config: %w", err)
	}
	return parse(content)
}

func parse(content []byte) (Config, error) {
	var config Config
	if err := validate(content); err != nil {
		return GetDefaultConfig(), err
	}
	if err := yaml.Unmarshal(content, &config); err != nil {
		return GetDefaultConfig(), fmt.Errorf("error parsing config: %w", err)
	}
	ensureDefaults(&config)
	return config, nil
}

// validate checks the raw document against the embedded JSON schema before
// the typed unmarshal, so a fat-fingered bank name or an out of range CC
// fails loudly instead of half-applying.
func validate(content []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}

	// jsonschema only understands values shaped like encoding/json output,
	// so round-trip the YAML document through JSON first.
	raw, err := json.Marshal(stringifyKeys(doc))
	if err != nil {
		return fmt.Errorf("error converting config: %w", err)
	}
	var jsonDoc interface{}
	if err := json.Unmarshal(raw, &jsonDoc); err != nil {
		return fmt.Errorf("error converting config: %w", err)
	}

	if err := configSchema.Validate(jsonDoc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// stringifyKeys rewrites YAML maps so every key is a string. YAML allows
// integer keys (the dial channel tables use them) which encoding/json
// cannot marshal from an interface map.
func stringifyKeys(v interface{}) interface{} {
	switch value := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, item := range value {
			out[k] = stringifyKeys(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, item := range value {
			out[fmt.Sprintf("%v", k)] = stringifyKeys(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, item := range value {
			out[i] = stringifyKeys(item)
		}
		return out
	default:
		return v
	}
}

// Set default values for any missing parts of the config
func ensureDefaults(config *Config) {
	defaults := GetDefaultConfig()

	if config.Device.Name == "" {
		config.Device.Name = defaults.Device.Name
	}
	if config.Device.InPort == "" {
		config.Device.InPort = defaults.Device.InPort
	}

	if config.Layout.PadColumns <= 0 {
		config.Layout.PadColumns = defaults.Layout.PadColumns
	}
	if config.Layout.PadRows <= 0 {
		config.Layout.PadRows = defaults.Layout.PadRows
	}
	if len(config.Layout.PadBanks) == 0 {
		config.Layout.PadBanks = defaults.Layout.PadBanks
	}
	if len(config.Layout.DialBanks) == 0 {
		config.Layout.DialBanks = defaults.Layout.DialBanks
	}

	if config.Sequencer.GridColumns <= 0 {
		config.Sequencer.GridColumns = defaults.Sequencer.GridColumns
	}
	if config.Sequencer.GridRows <= 0 {
		config.Sequencer.GridRows = defaults.Sequencer.GridRows
	}
	if config.Sequencer.Banks <= 0 {
		config.Sequencer.Banks = defaults.Sequencer.Banks
	}
	if config.Sequencer.ActiveBank < 1 || config.Sequencer.ActiveBank > config.Sequencer.Banks {
		config.Sequencer.ActiveBank = defaults.Sequencer.ActiveBank
	}

	if config.Mixer.Channels <= 0 {
		config.Mixer.Channels = defaults.Mixer.Channels
	}
	if config.Mixer.Backend == "" {
		config.Mixer.Backend = defaults.Mixer.Backend
	}
}
