package seqkontrol

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DavidGamba/go-getoptions"
	"github.com/padworks/seqkontrol/src/configuration"
	"github.com/padworks/seqkontrol/src/device/akai/mpd218"
	"github.com/padworks/seqkontrol/src/midi"
	"github.com/padworks/seqkontrol/src/mixer"
	"github.com/padworks/seqkontrol/src/sequencer"
	"github.com/padworks/seqkontrol/src/webui"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	commit    string
	version   string
	buildTime string
)

func Run() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Parse command line
	opt := getoptions.New()
	opt.Self("", "Drive a step sequencer and mixer with an Akai MPD218")
	opt.HelpSynopsisArg("", "")
	opt.HelpCommand("help", opt.Alias("h"), opt.Description("Show this help"))
	opt.Bool("list", false, opt.Alias("l"), opt.Description("List MIDI ports"))
	opt.Bool("list-pulse", false, opt.Alias("p"), opt.Description("List PulseAudio sinks & streams"))
	opt.Bool("version", false, opt.Alias("v"), opt.Description("Show version"))
	opt.Bool("debug", false, opt.Alias("d"), opt.Description("Enable debug logging"))
	opt.Bool("no-webui", false, opt.Description("Disable web interface"))
	webAddr := opt.StringOptional("web-addr", "127.0.0.1:6080", opt.Description("Web interface address:port"))
	configPath := opt.StringOptional("config", "", opt.Description("Configuration file path"))
	opt.Parse(os.Args[1:])
	if opt.Called("help") {
		fmt.Fprint(os.Stderr, opt.Help())
		os.Exit(0)
	}
	if opt.Called("list") {
		midi.List()
		os.Exit(0)
	}
	if opt.Called("list-pulse") {
		backend, err := mixer.NewPulseBackend(nil)
		if err != nil {
			log.Error().Err(err).Msg("Could not reach PulseAudio")
			os.Exit(1)
		}
		backend.List()
		os.Exit(0)
	}
	if opt.Called("version") {
		fmt.Printf("Version %s, commit %s, built on %s\n", version, commit, buildTime)
		os.Exit(0)
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if opt.Called("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Configuration
	config, path, err := configuration.Load(*configPath)
	if err != nil {
		log.Error().Msgf("Configuration error %+v", err)
		os.Exit(1)
	}
	log.Info().Msgf("Loaded configuration from %s", path)

	// Create configuration manager
	configManager := configuration.NewConfigManager(config, path)

	// Launch grid the pads drive
	grid := sequencer.NewGrid(config.Sequencer)

	// Mixer the dials drive, optionally bridged to PulseAudio
	var backend mixer.Backend
	if config.Mixer.Backend == configuration.MixerBackendPulse {
		pulseBackend, err := mixer.NewPulseBackend(config.Mixer.PulseTargets)
		if err != nil {
			log.Error().Err(err).Msg("Could not reach PulseAudio")
			os.Exit(1)
		}
		backend = pulseBackend
	}
	desk := mixer.NewDesk(config.Mixer.Channels, backend)
	desk.RestoreLevels(config.Mixer.Levels)

	// Persist level moves so a restart picks them back up
	desk.OnChange(func(change mixer.LevelChange) {
		configManager.UpdateLevel(change.Channel, change.Level)
	})

	// Start web UI if enabled
	if !opt.Called("no-webui") {
		webServer := webui.NewWebUIServer(*webAddr, grid, desk, configManager)
		grid.OnChange(webServer.NotifyPadUpdate)
		desk.OnChange(webServer.NotifyLevelUpdate)
		go func() {
			if err := webServer.Start(); err != nil {
				log.Error().Err(err).Msg("Failed to start web server")
			}
		}()
		log.Info().Msgf("Web interface available at http://%s", *webAddr)
	}

	// Wire the pad controller to the engines and listen for MIDI
	mapper := mpd218.New(config.Layout, grid, desk)
	midiClient := midi.NewMidiClient(config.Device, mapper)
	go midiClient.Run()

	// Set up signal handling for graceful shutdown
	setupSignalHandling(configManager)

	// Wait for program to exit
	select {}
}

func setupSignalHandling(configManager *configuration.ConfigManager) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Msgf("Received signal %s, shutting down...", sig)
		configManager.SaveNow()
		os.Exit(0)
	}()
}
