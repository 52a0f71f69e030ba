// Package source provides Source implementations for the pipeline:
// a local microphone device and a telephony inbound media stream.
package source

import (
	"github.com/aspenagent/aspen/pkg/pipeline"
	"github.com/gen2brain/malgo"
)

// LocalMicrophone captures mono audio from the default input device via
// malgo and pushes 32ms float32 frames, matching the original
// implementation's sd.InputStream blocksize of sample_rate*32/1000
// (original_source/src/microphone.py), adapted from the teacher's
// cmd/agent/main.go duplex-device wiring to a capture-only device.
type LocalMicrophone struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int
	frames     *pipeline.Queue[pipeline.AudioFrame]
	echo       *echoSuppressor
}

// NewLocalMicrophone opens the default capture device at sampleRate. Echo
// suppression against whatever LocalSpeaker plays is on by default so
// full-duplex local demo runs don't barge themselves in; disable with
// SetEchoSuppression(false, ...) on headphone setups.
func NewLocalMicrophone(sampleRate int) (*LocalMicrophone, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}

	mic := &LocalMicrophone{
		ctx:        mctx,
		sampleRate: sampleRate,
		frames:     pipeline.NewQueue[pipeline.AudioFrame](),
		echo:       newEchoSuppressor(sampleRate),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(sampleRate * 32 / 1000)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: mic.onSamples,
	})
	if err != nil {
		mctx.Uninit()
		return nil, err
	}
	mic.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return nil, err
	}
	return mic, nil
}

func (m *LocalMicrophone) onSamples(_, input []byte, _ uint32) {
	if len(input) == 0 {
		return
	}
	samples := make([]float32, len(input)/2)
	for i := range samples {
		s := int16(input[2*i]) | int16(input[2*i+1])<<8
		samples[i] = float32(s) / 32768.0
	}
	m.frames.Push(pipeline.AudioFrame{Samples: m.echo.filter(samples)})
}

// Frames implements pipeline.Source.
func (m *LocalMicrophone) Frames() *pipeline.Queue[pipeline.AudioFrame] {
	return m.frames
}

// RecordPlayed feeds samples the speaker just played into the echo
// suppressor's reference buffer. LocalSpeaker calls this on every Play so
// the microphone can filter that bleed-through back out.
func (m *LocalMicrophone) RecordPlayed(samples []float32) {
	m.echo.recordPlayed(samples)
}

// ClearEcho drops the echo suppressor's reference buffer, called when
// playback is interrupted so stale audio isn't matched against a clip that
// will never finish.
func (m *LocalMicrophone) ClearEcho() {
	m.echo.clear()
}

// SetEchoSuppression enables or disables echo filtering and adjusts its
// correlation threshold (0-1; a frame is muted only when its correlation
// with played audio reaches the threshold, so higher mutes less often).
// A threshold outside 0-1 is ignored.
func (m *LocalMicrophone) SetEchoSuppression(enabled bool, threshold float64) {
	m.echo.setEnabled(enabled)
	m.echo.setThreshold(threshold)
}

// Close stops capture and releases the device.
func (m *LocalMicrophone) Close() {
	m.device.Uninit()
	m.ctx.Uninit()
}
