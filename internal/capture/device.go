package capture

import "context"

// Device is the injected microphone capability. The controller never
// touches audio hardware directly so it can be tested with fakes.
type Device interface {
	// Open acquires the capture device and starts streaming. Returns
	// a PermissionDenied error when the platform refuses access.
	Open(ctx context.Context, sampleRate int) (Stream, error)
}

// Stream delivers captured samples until closed.
type Stream interface {
	// Read blocks for the next chunk of mono float32 samples.
	Read() ([]float32, error)

	// Close releases the underlying device handle. Safe to call once.
	Close() error
}
