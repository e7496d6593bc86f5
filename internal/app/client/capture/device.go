package capture

import (
	"context"
)

// StreamHandler receives data from an open Stream. OnData gets a buffer the
// handler may keep. OnEnd is called once when the stream ends on its own,
// with a nil error for a clean end of stream.
type StreamHandler struct {
	OnData func(chunk []byte)
	OnEnd  func(err error)
}

// Device is an exclusive audio input.
type Device interface {
	Open(ctx context.Context, h StreamHandler) (Stream, error)
	ContentType() string
}

// Stream is an open recording. Close releases the device and returns once no
// further callbacks will be made.
type Stream interface {
	Close() error
}

// Uploader delivers a Submission to the server.
type Uploader interface {
	Upload(ctx context.Context, s Submission) error
}
