package recording

import (
	"errors"
)

var (
	ErrMissingAudio         = errors.New("no audio file uploaded")
	ErrInvalidTarget        = errors.New("target username is required")
	ErrUnsupportedMediaType = errors.New("only audio files are allowed")
	ErrPayloadTooLarge      = errors.New("audio file is too large")
	ErrStorage              = errors.New("recording storage failure")
)
