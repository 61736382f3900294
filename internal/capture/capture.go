// Package capture manages the microphone capture lifecycle and yields
// immutable audio artifacts.
package capture

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/vocalcoach/platform/internal/errors"
	"github.com/vocalcoach/platform/internal/trace"
)

// State is the capture lifecycle state.
type State uint32

const (
	Idle State = iota
	Capturing
	Finalizing
	Ready
)

func (s State) String() string {
	return [...]string{"idle", "capturing", "finalizing", "ready"}[s]
}

// Artifact is one finished recording. Immutable once produced; owned
// exclusively by the capture cycle that created it.
type Artifact struct {
	Data     []byte
	MimeType string
	Duration time.Duration
}

// Controller drives one capture cycle at a time:
// Idle -> Capturing -> Finalizing -> Ready -> Idle.
type Controller struct {
	device     Device
	sampleRate int

	mu      sync.Mutex
	state   State
	stream  Stream
	samples []float32
	cancel  context.CancelFunc
	release *sync.Once
	done    chan struct{}
}

// NewController creates a capture controller over the given device.
func NewController(device Device, sampleRate int) *Controller {
	return &Controller{device: device, sampleRate: sampleRate}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start acquires the device and begins buffering. The controller holds
// the microphone for one caller at a time: a second Start before Stop
// is InvalidState, whoever issues it. A denied device surfaces as
// PermissionDenied and leaves the controller Idle.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Idle {
		state := c.state
		c.mu.Unlock()
		return apperrors.Newf(apperrors.CodeInvalidState, "microphone busy: %s", state)
	}
	c.mu.Unlock()

	stream, err := c.device.Open(ctx, c.sampleRate)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodePermissionDenied) {
			return err
		}
		return apperrors.Wrap(err, apperrors.CodePermissionDenied, "microphone access denied")
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.state = Capturing
	c.stream = stream
	c.samples = nil
	c.cancel = cancel
	c.release = &sync.Once{}
	c.done = done
	c.mu.Unlock()

	trace.Logger(ctx).Info("capture started", "sample_rate", c.sampleRate)

	go func() {
		defer close(done)
		for {
			select {
			case <-runCtx.Done():
				return
			default:
			}

			chunk, err := stream.Read()
			if err != nil {
				trace.Logger(runCtx).Debug("capture read ended", "error", err)
				return
			}

			c.mu.Lock()
			c.samples = append(c.samples, chunk...)
			c.mu.Unlock()
		}
	}()

	return nil
}

// Stop flushes buffered audio into one immutable artifact and releases
// the device. No-op when not capturing.
func (c *Controller) Stop() (Artifact, error) {
	c.mu.Lock()
	if c.state != Capturing {
		c.mu.Unlock()
		return Artifact{}, nil
	}
	c.state = Finalizing
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()
	<-done

	c.releaseStream()

	c.mu.Lock()
	samples := c.samples
	c.samples = nil
	c.state = Ready
	c.mu.Unlock()

	artifact := Artifact{
		Data:     EncodeWAV(samples, c.sampleRate),
		MimeType: "audio/wav",
		Duration: time.Duration(len(samples)) * time.Second / time.Duration(c.sampleRate),
	}

	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()

	return artifact, nil
}

// releaseStream closes the device handle exactly once per cycle, even
// on error paths.
func (c *Controller) releaseStream() {
	c.mu.Lock()
	release, stream := c.release, c.stream
	c.mu.Unlock()

	if release == nil || stream == nil {
		return
	}
	release.Do(func() {
		_ = stream.Close()
	})
}
