// Package playback plays received voice messages one at a time.
package playback

import (
	"errors"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateLoaded
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

var (
	ErrInvalidTransition = errors.New("invalid playback transition")
	ErrDecode            = errors.New("cannot decode recording")
	ErrIndex             = errors.New("recording index out of range")
)

// Item is a recording as listed by the server, audio still base64-encoded.
type Item struct {
	ID          string    `json:"id"`
	Audio       string    `json:"audio"`
	CreatedAt   time.Time `json:"created_at"`
	ContentType string    `json:"content_type"`
	Duration    float64   `json:"duration"`
}

// Progress is the playback position of the selected item.
type Progress struct {
	Index    int
	Label    int
	Position time.Duration
	Duration time.Duration
	Fraction float64
}

// Label numbers items so that the newest, at index 0, gets the highest number.
func Label(total, index int) int {
	return total - index
}
