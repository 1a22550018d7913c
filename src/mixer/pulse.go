package mixer

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/the-jonsey/pulseaudio"
)

// DefaultTarget in a strip's target slot follows the default sink.
const DefaultTarget = "Default"

type stream struct {
	name     string
	fullName string
	paStream interface{}
}

// PulseBackend applies strip levels to PulseAudio. Each strip targets the
// sink or playback stream named at the same position in the target list;
// strips without a target apply nowhere.
type PulseBackend struct {
	log             zerolog.Logger
	context         *pulseaudio.Client
	targets         []string
	outputs         []stream
	playbackStreams []stream
}

func NewPulseBackend(targets []string) (*PulseBackend, error) {
	context, err := pulseaudio.NewClient()
	if err != nil {
		return nil, fmt.Errorf("could not connect to pulseaudio: %w", err)
	}
	return &PulseBackend{
		log:     log.With().Str("module", "PulseAudio").Logger(),
		context: context,
		targets: targets,
	}, nil
}

// ApplyLevel sets the volume of the sink or stream behind a strip.
func (b *PulseBackend) ApplyLevel(channel int, level float64) error {
	if channel < 0 || channel >= len(b.targets) || b.targets[channel] == "" {
		return nil
	}
	if err := b.refreshStreams(); err != nil {
		return err
	}

	name := b.targets[channel]
	var streams []stream
	if name == DefaultTarget {
		if defaultSink, err := b.context.GetDefaultSink(); err == nil {
			streams = lo.Filter(b.outputs, func(s stream, i int) bool {
				return s.fullName == defaultSink.Name
			})
		}
	} else {
		streams = lo.Filter(b.outputs, func(s stream, i int) bool {
			return s.name == name
		})
		streams = append(streams, lo.Filter(b.playbackStreams, func(s stream, i int) bool {
			return s.name == name
		})...)
	}
	if len(streams) == 0 {
		b.log.Debug().Str("target", name).Msg("No such sink or stream")
		return nil
	}

	volume := float32(level)
	lo.ForEach(streams, func(s stream, index int) {
		switch st := s.paStream.(type) {
		case pulseaudio.Sink:
			st.SetVolume(volume)
			b.log.Debug().Msgf("Set %s volume to %f", s.name, volume)
		case pulseaudio.SinkInput:
			st.SetVolume(volume)
			b.log.Debug().Msgf("Set %s volume to %f", s.name, volume)
		}
	})
	return nil
}

// List logs every sink and playback stream a strip can target.
func (b *PulseBackend) List() {
	if err := b.refreshStreams(); err != nil {
		b.log.Error().Err(err).Msg("Could not list streams")
		return
	}
	lo.ForEach(b.outputs, func(s stream, i int) {
		b.log.Info().Msgf("Found output device:\t%s", s.name)
	})
	lo.ForEach(b.playbackStreams, func(s stream, i int) {
		b.log.Info().Msgf("Found playback stream:\t%s", s.name)
	})
}

func (b *PulseBackend) refreshStreams() error {
	// Sinks
	sinks, err := b.context.Sinks()
	if err != nil {
		return fmt.Errorf("could not list sinks: %w", err)
	}
	b.outputs = lo.Map(sinks, func(sink pulseaudio.Sink, i int) stream {
		return stream{
			name:     sink.Description,
			fullName: sink.Name,
			paStream: sink,
		}
	})
	// Sink inputs
	sinkInputs, err := b.context.SinkInputs()
	if err != nil {
		return fmt.Errorf("could not list playback streams: %w", err)
	}
	b.playbackStreams = lo.Map(sinkInputs, func(sinkInput pulseaudio.SinkInput, i int) stream {
		name := sinkInput.PropList["application.name"]
		if len(name) < 1 {
			name = sinkInput.PropList["media.name"]
		}
		return stream{
			name:     name,
			fullName: sinkInput.PropList["module-stream-restore.id"],
			paStream: sinkInput,
		}
	})
	return nil
}
