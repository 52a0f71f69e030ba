package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// NewWavBuffer wraps raw 16-bit PCM bytes in a minimal mono RIFF/WAVE
// header at sampleRate.
func NewWavBuffer(pcm []byte, sampleRate int) []byte {
	buf := new(bytes.Buffer)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// EncodeFloat32 converts mono float32 samples in [-1, 1] to a 16-bit PCM
// WAV buffer, clipping out-of-range values, grounded on
// original_source/src/transcriber.py's np.clip(-1, 1) then *32767
// int16 conversion.
func EncodeFloat32(samples []float32, sampleRate int) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		pcm[2*i] = byte(v)
		pcm[2*i+1] = byte(v >> 8)
	}
	return NewWavBuffer(pcm, sampleRate)
}

// DecodeWav parses a RIFF/WAVE buffer into mono float32 samples in
// [-1, 1] and its sample rate, handling both 8-bit unsigned and 16-bit
// signed PCM and averaging stereo channels down to mono. Grounded on
// original_source/src/synthesizer.py's WAV decode, which handles both
// sample widths returned by different TTS backends.
func DecodeWav(data []byte) (samples []float32, sampleRate int, err error) {
	r := bytes.NewReader(data)
	var riff, wave [4]byte
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return nil, 0, err
	}
	if string(riff[:]) != "RIFF" {
		return nil, 0, errors.New("audio: not a RIFF file")
	}
	var chunkSize uint32
	binary.Read(r, binary.LittleEndian, &chunkSize)
	if err := binary.Read(r, binary.LittleEndian, &wave); err != nil {
		return nil, 0, err
	}
	if string(wave[:]) != "WAVE" {
		return nil, 0, errors.New("audio: not a WAVE file")
	}

	var channels uint16
	var bitsPerSample uint16

	for r.Len() > 0 {
		var id [4]byte
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			break
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			break
		}

		switch string(id[:]) {
		case "fmt ":
			var audioFormat uint16
			var byteRate uint32
			var blockAlign uint16
			binary.Read(r, binary.LittleEndian, &audioFormat)
			binary.Read(r, binary.LittleEndian, &channels)
			var rate uint32
			binary.Read(r, binary.LittleEndian, &rate)
			sampleRate = int(rate)
			binary.Read(r, binary.LittleEndian, &byteRate)
			binary.Read(r, binary.LittleEndian, &blockAlign)
			binary.Read(r, binary.LittleEndian, &bitsPerSample)
			if extra := int64(size) - 16; extra > 0 {
				r.Seek(extra, 1)
			}
		case "data":
			raw := make([]byte, size)
			if _, err := r.Read(raw); err != nil {
				return nil, 0, err
			}
			samples, err = decodePCM(raw, channels, bitsPerSample)
			if err != nil {
				return nil, 0, err
			}
		default:
			r.Seek(int64(size), 1)
		}
	}

	if samples == nil {
		return nil, 0, errors.New("audio: no data chunk found")
	}
	return samples, sampleRate, nil
}

func decodePCM(raw []byte, channels, bitsPerSample uint16) ([]float32, error) {
	if channels == 0 {
		channels = 1
	}

	switch bitsPerSample {
	case 8:
		out := make([]float32, len(raw)/int(channels))
		frame := 0
		for i := 0; i+int(channels) <= len(raw); i += int(channels) {
			var sum float32
			for c := 0; c < int(channels); c++ {
				sum += (float32(raw[i+c]) - 128) / 128
			}
			out[frame] = sum / float32(channels)
			frame++
		}
		return out, nil
	case 16:
		frameSize := 2 * int(channels)
		out := make([]float32, len(raw)/frameSize)
		for frame := 0; frame*frameSize+frameSize <= len(raw); frame++ {
			var sum float32
			for c := 0; c < int(channels); c++ {
				off := frame*frameSize + 2*c
				v := int16(raw[off]) | int16(raw[off+1])<<8
				sum += float32(v) / 32768
			}
			out[frame] = sum / float32(channels)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("audio: unsupported bits per sample %d", bitsPerSample)
	}
}
