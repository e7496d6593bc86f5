// Package capture records a voice message from an input device and hands it
// to an Uploader.
package capture

import (
	"errors"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopped
	StateUploading
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	case StateUploading:
		return "uploading"
	}
	return "unknown"
}

var (
	ErrDevice            = errors.New("audio device error")
	ErrUpload            = errors.New("upload failed")
	ErrInvalidTransition = errors.New("invalid capture transition")
	ErrNoTarget          = errors.New("target username is required")
)

// Blob is one finished recording. It is never mutated after Stop.
type Blob struct {
	Data        []byte
	ContentType string
	Duration    time.Duration
	RecordedAt  time.Time
}

// Submission is what an Uploader sends for one Blob.
type Submission struct {
	Target      string
	Audio       []byte
	ContentType string
	Duration    time.Duration
	Timestamp   time.Time
}
