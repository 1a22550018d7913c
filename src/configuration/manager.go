package configuration

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ConfigManager handles the runtime configuration with persistence
type ConfigManager struct {
	config        *Config
	configPath    string
	saveMutex     sync.Mutex
	saveDebouncer *time.Timer
	subscribers   map[string][]func(interface{})
}

// NewConfigManager creates a new configuration manager with the loaded configuration
func NewConfigManager(config Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:      &config,
		configPath:  configPath,
		subscribers: make(map[string][]func(interface{})),
	}
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// Subscribe registers a callback for configuration changes
func (cm *ConfigManager) Subscribe(topic string, callback func(interface{})) {
	cm.subscribers[topic] = append(cm.subscribers[topic], callback)
}

// Notify sends updates to subscribers
func (cm *ConfigManager) Notify(topic string, data interface{}) {
	for _, callback := range cm.subscribers[topic] {
		callback(data)
	}
}

// SaveWithDebounce schedules a save after a brief delay, debouncing multiple rapid changes
func (cm *ConfigManager) SaveWithDebounce() {
	cm.saveMutex.Lock()
	defer cm.saveMutex.Unlock()

	// Cancel existing timer if any
	if cm.saveDebouncer != nil {
		cm.saveDebouncer.Stop()
	}

	// Set new timer - save after 2 seconds of no changes
	cm.saveDebouncer = time.AfterFunc(2*time.Second, func() {
		cm.SaveNow()
	})
}

// SaveNow immediately saves the configuration to disk
func (cm *ConfigManager) SaveNow() {
	cm.saveMutex.Lock()
	defer cm.saveMutex.Unlock()

	log.Debug().Msg("Saving configuration to disk")

	// Marshal to YAML
	data, err := yaml.Marshal(cm.config)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal configuration")
		return
	}

	// Write to temporary file first
	tempPath := cm.configPath + ".tmp"
	err = os.WriteFile(tempPath, data, 0644)
	if err != nil {
		log.Error().Err(err).Str("path", tempPath).Msg("Failed to write temporary configuration file")
		return
	}

	// Rename to actual config file (atomic operation)
	err = os.Rename(tempPath, cm.configPath)
	if err != nil {
		log.Error().Err(err).
			Str("temp", tempPath).
			Str("config", cm.configPath).
			Msg("Failed to rename configuration file")
		return
	}

	log.Info().Str("path", cm.configPath).Msg("Configuration saved")
}

// UpdateLevel records a strip's level (0.0-1.0) so the next start restores
// it. A dial sweep produces a burst of these; the debounce keeps disk
// writes to one per sweep.
func (cm *ConfigManager) UpdateLevel(channel int, level float64) {
	cm.saveMutex.Lock()

	if cm.config.Mixer.Levels == nil {
		cm.config.Mixer.Levels = make(map[int]float64)
	}
	cm.config.Mixer.Levels[channel] = level

	cm.saveMutex.Unlock()

	// Notify subscribers immediately with real-time changes
	cm.Notify("mixer.level.updated", map[string]interface{}{
		"channel": channel,
		"level":   level,
	})

	// Schedule save - but don't let this slow down the UI updates
	cm.SaveWithDebounce()
}

// UpdateActiveBank records which sequencer bank the pads drive.
func (cm *ConfigManager) UpdateActiveBank(bank int) {
	cm.saveMutex.Lock()
	cm.config.Sequencer.ActiveBank = bank
	cm.saveMutex.Unlock()

	cm.Notify("sequencer.bank.updated", map[string]interface{}{
		"bank": bank,
	})

	cm.SaveWithDebounce()
}
