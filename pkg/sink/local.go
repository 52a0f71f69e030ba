// Package sink provides AudioPlayer implementations for the pipeline:
// a local speaker device and a telephony outbound media stream.
package sink

import (
	"context"
	"sync"

	"github.com/gen2brain/malgo"
)

// EchoRecorder receives a copy of everything LocalSpeaker plays, so a
// full-duplex LocalMicrophone sharing the same room can filter its own
// bleed-through back out. See pkg/source.LocalMicrophone.
type EchoRecorder interface {
	RecordPlayed(samples []float32)
	ClearEcho()
}

// LocalSpeaker plays mono float32 audio through the default output
// device via malgo, adapted from the teacher's cmd/agent/main.go
// playback buffer pattern to a dedicated playback-only device queue.
type LocalSpeaker struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	echo   EchoRecorder

	mu      sync.Mutex
	pending []byte
	done    chan struct{}
}

// SetEchoRecorder wires a microphone's echo suppressor to this speaker so
// every played clip is recorded as a possible echo source, and every
// interruption clears that reference.
func (sp *LocalSpeaker) SetEchoRecorder(echo EchoRecorder) {
	sp.echo = echo
}

// NewLocalSpeaker opens the default playback device at sampleRate.
func NewLocalSpeaker(sampleRate int) (*LocalSpeaker, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}

	sp := &LocalSpeaker{ctx: mctx}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: sp.onSamples,
	})
	if err != nil {
		mctx.Uninit()
		return nil, err
	}
	sp.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return nil, err
	}
	return sp, nil
}

func (sp *LocalSpeaker) onSamples(output, _ []byte, _ uint32) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	n := copy(output, sp.pending)
	sp.pending = sp.pending[n:]
	for i := n; i < len(output); i++ {
		output[i] = 0
	}
	if len(sp.pending) == 0 && sp.done != nil {
		close(sp.done)
		sp.done = nil
	}
}

// Play implements pipeline.AudioPlayer, queueing the clip and returning
// once it has been handed to the playback device, matching
// original_source/src/speaker.py's non-blocking sd.play(...). Call Wait
// to block until the device has actually finished playing it.
func (sp *LocalSpeaker) Play(ctx context.Context, samples []float32, _ int) error {
	pcm := normalizeToPCM16(samples)

	done := make(chan struct{})
	sp.mu.Lock()
	sp.pending = append(sp.pending, pcm...)
	sp.done = done
	sp.mu.Unlock()

	if sp.echo != nil {
		sp.echo.RecordPlayed(samples)
	}
	return nil
}

// Wait implements pipeline.AudioPlayer, blocking until the most recently
// queued clip has finished playing or ctx is cancelled, matching
// original_source/src/speaker.py's sd.wait().
func (sp *LocalSpeaker) Wait(ctx context.Context) error {
	sp.mu.Lock()
	done := sp.done
	sp.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// normalizeToPCM16 scales samples by their peak amplitude when it exceeds
// 1 rather than clipping each sample, matching original_source/src's
// `audio /= np.max(np.abs(audio))` normalization (preserves waveform
// shape instead of distorting it).
func normalizeToPCM16(samples []float32) []byte {
	peak := float32(1)
	for _, s := range samples {
		if a := s; a < 0 {
			a = -a
			if a > peak {
				peak = a
			}
		} else if a > peak {
			peak = a
		}
	}

	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16((s / peak) * 32767)
		pcm[2*i] = byte(v)
		pcm[2*i+1] = byte(v >> 8)
	}
	return pcm
}

// Interrupt discards whatever is still queued for playback.
func (sp *LocalSpeaker) Interrupt() {
	sp.mu.Lock()
	sp.pending = nil
	if sp.done != nil {
		close(sp.done)
		sp.done = nil
	}
	sp.mu.Unlock()

	if sp.echo != nil {
		sp.echo.ClearEcho()
	}
}

// Close releases the device.
func (sp *LocalSpeaker) Close() {
	sp.device.Uninit()
	sp.ctx.Uninit()
}
