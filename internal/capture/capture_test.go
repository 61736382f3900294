package capture

import (
	"context"
	"encoding/binary"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/vocalcoach/platform/internal/errors"
)

// fakeDevice streams a fixed chunk until the stream is closed.
type fakeDevice struct {
	denied     bool
	chunk      []float32
	opens      atomic.Int32
	closeCalls atomic.Int32
}

func (d *fakeDevice) Open(_ context.Context, _ int) (Stream, error) {
	if d.denied {
		return nil, apperrors.New(apperrors.CodePermissionDenied, "microphone access denied")
	}
	d.opens.Add(1)
	return &fakeStream{device: d, closed: make(chan struct{})}, nil
}

type fakeStream struct {
	device *fakeDevice
	closed chan struct{}
}

func (s *fakeStream) Read() ([]float32, error) {
	select {
	case <-s.closed:
		return nil, context.Canceled
	case <-time.After(time.Millisecond):
		return append([]float32(nil), s.device.chunk...), nil
	}
}

func (s *fakeStream) Close() error {
	s.device.closeCalls.Add(1)
	close(s.closed)
	return nil
}

func TestCaptureCycleProducesOneArtifact(t *testing.T) {
	dev := &fakeDevice{chunk: []float32{0.1, 0.2, 0.3, 0.4}}
	c := NewController(dev, 16000)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.State() != Capturing {
		t.Fatalf("State = %v, want Capturing", c.State())
	}

	time.Sleep(20 * time.Millisecond)

	artifact, err := c.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(artifact.Data) == 0 {
		t.Error("artifact should contain audio data")
	}
	if artifact.MimeType != "audio/wav" {
		t.Errorf("MimeType = %q", artifact.MimeType)
	}
	if artifact.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", artifact.Duration)
	}
	if c.State() != Idle {
		t.Errorf("State = %v, want Idle after cycle", c.State())
	}
}

func TestStartWhileCapturingIsRejected(t *testing.T) {
	dev := &fakeDevice{chunk: []float32{0.5}}
	c := NewController(dev, 16000)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(context.Background()); !apperrors.IsCode(err, apperrors.CodeInvalidState) {
		t.Errorf("second Start = %v, want INVALID_STATE", err)
	}

	if got := dev.opens.Load(); got != 1 {
		t.Errorf("device opened %d times, want 1", got)
	}

	c.Stop()
}

func TestStopWhenIdleIsNoOp(t *testing.T) {
	c := NewController(&fakeDevice{}, 16000)

	artifact, err := c.Stop()
	if err != nil {
		t.Errorf("Stop while idle = %v, want nil", err)
	}
	if len(artifact.Data) != 0 {
		t.Error("idle Stop must not produce an artifact")
	}
}

func TestDeviceReleasedExactlyOnce(t *testing.T) {
	dev := &fakeDevice{chunk: []float32{0.1}}
	c := NewController(dev, 16000)

	c.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	c.Stop()

	if got := dev.closeCalls.Load(); got != 1 {
		t.Errorf("stream closed %d times, want 1", got)
	}

	// Second cycle gets its own release guard.
	c.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	c.Stop()

	if got := dev.closeCalls.Load(); got != 2 {
		t.Errorf("stream closed %d times after two cycles, want 2", got)
	}
}

func TestPermissionDeniedSurfaced(t *testing.T) {
	c := NewController(&fakeDevice{denied: true}, 16000)

	err := c.Start(context.Background())
	if !apperrors.IsCode(err, apperrors.CodePermissionDenied) {
		t.Errorf("error = %v, want CodePermissionDenied", err)
	}
	if c.State() != Idle {
		t.Errorf("State = %v, want Idle after denial", c.State())
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1}
	wav := EncodeWAV(samples, 16000)

	if len(wav) != 44+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(wav), 44+len(samples)*2)
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if bits := binary.LittleEndian.Uint16(wav[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}
}

func TestDurationEstimate(t *testing.T) {
	dev := &fakeDevice{chunk: make([]float32, 1600)} // 100ms at 16kHz per chunk
	c := NewController(dev, 16000)

	c.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	artifact, _ := c.Stop()

	// At least one chunk was read, so at least 100ms of audio.
	if artifact.Duration < 100*time.Millisecond {
		t.Errorf("Duration = %v, want >= 100ms", artifact.Duration)
	}
}
