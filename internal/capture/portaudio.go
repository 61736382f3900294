package capture

import (
	"context"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	apperrors "github.com/vocalcoach/platform/internal/errors"
)

const framesPerBuffer = 1024

// PortAudioDevice is the production microphone Device.
type PortAudioDevice struct{}

// NewPortAudioDevice initializes the portaudio runtime.
func NewPortAudioDevice() (*PortAudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePermissionDenied, "initialize audio runtime")
	}
	return &PortAudioDevice{}, nil
}

// Close terminates the portaudio runtime.
func (d *PortAudioDevice) Close() error {
	return portaudio.Terminate()
}

// Open selects the best input device and starts a mono stream.
func (d *PortAudioDevice) Open(_ context.Context, sampleRate int) (Stream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePermissionDenied, "enumerate audio devices")
	}

	mic := pickMicrophone(devices)
	if mic == nil {
		return nil, apperrors.New(apperrors.CodePermissionDenied, "no input device available")
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   mic,
			Channels: 1,
			Latency:  mic.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}

	buf := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePermissionDenied, "open input stream")
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, apperrors.Wrap(err, apperrors.CodePermissionDenied, "start input stream")
	}

	return &portAudioStream{stream: stream, buf: buf}, nil
}

// pickMicrophone chooses an input device, preferring built-in mics.
func pickMicrophone(devices []*portaudio.DeviceInfo) *portaudio.DeviceInfo {
	var best *portaudio.DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels < 1 {
			continue
		}
		if best == nil || preferDevice(dev.Name, best.Name) {
			best = dev
		}
	}
	return best
}

func preferDevice(name, current string) bool {
	for _, p := range []string{"built-in", "macbook"} {
		nameHas := strings.Contains(strings.ToLower(name), p)
		currHas := strings.Contains(strings.ToLower(current), p)
		if nameHas && !currHas {
			return true
		}
	}
	return false
}

type portAudioStream struct {
	stream    *portaudio.Stream
	buf       []float32
	closeOnce sync.Once
}

func (s *portAudioStream) Read() ([]float32, error) {
	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	return append([]float32(nil), s.buf...), nil
}

func (s *portAudioStream) Close() error {
	s.closeOnce.Do(func() {
		_ = s.stream.Stop()
		_ = s.stream.Close()
	})
	return nil
}
