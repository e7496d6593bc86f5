package playback

import "time"

// Listener receives media events. Callbacks may arrive on any goroutine.
type Listener struct {
	OnTimeUpdate func(position time.Duration)
	OnEnded      func()
}

// Player turns a local media file into playable Media.
type Player interface {
	Load(path, contentType string, duration time.Duration) (Media, error)
}

// Media is one loaded recording. After OnEnded, Play starts from the beginning.
type Media interface {
	Play() error
	Pause() error
	Seek(position time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	Attach(l Listener)
	Detach()
	Close() error
}
