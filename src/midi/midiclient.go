package midi

import (
	"github.com/padworks/seqkontrol/src/configuration"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	driver "gitlab.com/gomidi/midi/v2/drivers/portmididrv"
)

func listDevices() ([]string, []string, error) {
	drv, err := driver.New()
	if err != nil {
		panic(err)
	}
	// make sure to close all open ports at the end
	defer drv.Close()
	ins, err := drv.Ins()
	if err != nil {
		return nil, nil, err
	}
	outs, err := drv.Outs()
	if err != nil {
		return nil, nil, err
	}
	inNames := lo.Map(ins, func(port drivers.In, i int) string {
		return port.String()
	})
	outNames := lo.Map(outs, func(port drivers.Out, i int) string {
		return port.String()
	})
	return inNames, outNames, nil
}

func List() {
	log := log.Logger.With().Str("module", "Midi").Logger()
	ins, outs, err := listDevices()
	if err != nil {
		panic(err)
	}
	for _, port := range ins {
		log.Info().Msgf("Found midi in device:\t%s", port)
	}
	for _, port := range outs {
		log.Info().Msgf("Found midi out device:\t%s", port)
	}
}

// Handler consumes raw channel-voice messages, one 3-byte frame at a time.
// Two-byte messages such as channel pressure arrive padded with a zero
// third byte.
type Handler interface {
	HandleMessage(status, data1, data2 byte)
}

type MidiClient struct {
	log     zerolog.Logger
	Device  configuration.DeviceConfig
	Handler Handler
}

func NewMidiClient(device configuration.DeviceConfig, handler Handler) *MidiClient {
	client := &MidiClient{
		log:     log.With().Str("module", "Midi").Str("device", device.Name).Logger(),
		Device:  device,
		Handler: handler,
	}
	return client
}

func (client *MidiClient) Run() {
	drv, err := driver.New()
	if err != nil {
		panic(err)
	}

	// make sure to close all open ports at the end
	defer drv.Close()

	in, err := midi.FindInPort(client.Device.InPort)
	if err != nil {
		client.log.Error().Msgf("Could not find MIDI In %s", client.Device.InPort)
		return
	}

	if err := in.Open(); err != nil {
		panic(err)
	}
	defer in.Close()

	onMessage := func(message midi.Message, timestampMs int32) {
		client.log.Debug().Msgf("Received MIDI message (%s) from in port %v", message.String(), in)
		raw := message.Bytes()
		if len(raw) == 0 || len(raw) > 3 {
			// Not a channel-voice frame
			return
		}
		var frame [3]byte
		copy(frame[:], raw)
		client.Handler.HandleMessage(frame[0], frame[1], frame[2])
	}

	if _, err = midi.ListenTo(in, onMessage); err != nil {
		panic(err)
	}

	select {}
}
