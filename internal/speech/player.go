package speech

import (
	"context"

	"github.com/gordonklaus/portaudio"

	"github.com/vocalcoach/platform/internal/capture"
	apperrors "github.com/vocalcoach/platform/internal/errors"
)

const framesPerBuffer = 1024

// PortAudioPlayer plays 16-bit PCM WAV audio through the default
// output device.
type PortAudioPlayer struct{}

func NewPortAudioPlayer() *PortAudioPlayer {
	return &PortAudioPlayer{}
}

// Play decodes and plays one WAV utterance. Returns early when ctx is
// cancelled, which is how exclusive playback interrupts an utterance.
func (p *PortAudioPlayer) Play(ctx context.Context, audio []byte) error {
	samples, sampleRate, err := capture.DecodeWAV(audio)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeMalformedResponse, "decode utterance")
	}

	buf := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), framesPerBuffer, buf)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "open output stream")
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "start output stream")
	}
	defer stream.Stop()

	for off := 0; off < len(samples); off += framesPerBuffer {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n := copy(buf, samples[off:])
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		if err := stream.Write(); err != nil {
			return apperrors.Wrap(err, apperrors.CodeUnavailable, "write output stream")
		}
	}
	return nil
}
