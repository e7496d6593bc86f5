package playback

import (
	"encoding/base64"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/exp/slog"
)

// Controller owns at most one loaded Media and moves between
// Closed, Loaded, Playing and Paused.
type Controller struct {
	player Player
	fs     afero.Fs
	log    *slog.Logger

	// OnProgress, when set, is called after every position change.
	OnProgress func(Progress)

	mu        sync.Mutex
	items     []Item
	index     int
	state     State
	gen       uint64
	media     Media
	mediaPath string
	position  time.Duration
	duration  time.Duration
}

func NewController(player Player, fs afero.Fs, log *slog.Logger) *Controller {
	return &Controller{
		player: player,
		fs:     fs,
		log:    log.With("component", "playback"),
		index:  -1,
	}
}

// SetItems replaces the playlist and closes any loaded media.
func (c *Controller) SetItems(items []Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.releaseLocked()
	c.items = items
	return err
}

func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Index of the selected item, -1 when nothing is selected.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

func (c *Controller) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progressLocked()
}

func (c *Controller) HasNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index >= 0 && c.index < len(c.items)-1
}

func (c *Controller) HasPrevious() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index > 0
}

// Select releases the current media and loads item i.
func (c *Controller) Select(i int) error {
	c.mu.Lock()
	p, err := c.selectLocked(i)
	c.mu.Unlock()

	if err == nil {
		c.notify(p)
	}
	return err
}

func (c *Controller) selectLocked(i int) (Progress, error) {
	if i < 0 || i >= len(c.items) {
		return Progress{}, fmt.Errorf("%w: %d of %d", ErrIndex, i, len(c.items))
	}
	if err := c.releaseLocked(); err != nil {
		c.log.Warn("failed to release previous media", "error", err)
	}

	item := c.items[i]
	data, err := base64.StdEncoding.DecodeString(item.Audio)
	if err != nil {
		return Progress{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	path, err := c.writeMedia(data)
	if err != nil {
		return Progress{}, err
	}

	declared := time.Duration(item.Duration * float64(time.Second))
	media, err := c.player.Load(path, item.ContentType, declared)
	if err != nil {
		_ = c.fs.Remove(path)
		return Progress{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	c.gen++
	gen := c.gen
	media.Attach(Listener{
		OnTimeUpdate: func(pos time.Duration) { c.onTimeUpdate(gen, pos) },
		OnEnded:      func() { c.onEnded(gen) },
	})

	c.media = media
	c.mediaPath = path
	c.index = i
	c.position = 0
	c.duration = media.Duration()
	if c.duration <= 0 {
		c.duration = declared
	}
	c.state = StateLoaded
	return c.progressLocked(), nil
}

// TogglePlayPause plays a loaded or paused item and pauses a playing one.
func (c *Controller) TogglePlayPause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateLoaded, StatePaused:
		if err := c.media.Play(); err != nil {
			return fmt.Errorf("play: %w", err)
		}
		c.state = StatePlaying
	case StatePlaying:
		if err := c.media.Pause(); err != nil {
			return fmt.Errorf("pause: %w", err)
		}
		c.position = c.media.Position()
		c.state = StatePaused
	default:
		return fmt.Errorf("%w: nothing selected", ErrInvalidTransition)
	}
	return nil
}

// Seek moves to fraction of the duration, clamped to [0, 1].
func (c *Controller) Seek(fraction float64) error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return fmt.Errorf("%w: nothing selected", ErrInvalidTransition)
	}

	fraction = min(max(fraction, 0), 1)
	pos := time.Duration(fraction * float64(c.duration))
	if err := c.media.Seek(pos); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("seek: %w", err)
	}
	c.position = pos
	p := c.progressLocked()
	c.mu.Unlock()

	c.notify(p)
	return nil
}

// Next selects the following item, keeping playback running if it was.
// It is a no-op on the last item.
func (c *Controller) Next() error {
	return c.step(1)
}

// Previous is the mirror of Next.
func (c *Controller) Previous() error {
	return c.step(-1)
}

func (c *Controller) step(delta int) error {
	c.mu.Lock()
	target := c.index + delta
	if c.index < 0 || target < 0 || target >= len(c.items) {
		c.mu.Unlock()
		return nil
	}
	wasPlaying := c.state == StatePlaying

	p, err := c.selectLocked(target)
	if err == nil && wasPlaying {
		if err = c.media.Play(); err == nil {
			c.state = StatePlaying
		}
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}
	c.notify(p)
	return nil
}

// Close stops playback, releases the media and resets progress.
func (c *Controller) Close() error {
	c.mu.Lock()
	err := c.releaseLocked()
	p := c.progressLocked()
	c.mu.Unlock()

	c.notify(p)
	return err
}

// Download decodes item i into w without touching playback.
func (c *Controller) Download(i int, w io.Writer) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		n := len(c.items)
		c.mu.Unlock()
		return fmt.Errorf("%w: %d of %d", ErrIndex, i, n)
	}
	encoded := c.items[i].Audio
	c.mu.Unlock()

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	_, err = w.Write(data)
	return err
}

func (c *Controller) onTimeUpdate(gen uint64, pos time.Duration) {
	c.mu.Lock()
	if c.gen != gen || c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	c.position = min(pos, c.duration)
	p := c.progressLocked()
	c.mu.Unlock()

	c.notify(p)
}

func (c *Controller) onEnded(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.position = 0
	c.state = StateLoaded
	p := c.progressLocked()
	c.mu.Unlock()

	c.notify(p)
}

// releaseLocked detaches and closes the current media and removes its file.
func (c *Controller) releaseLocked() error {
	c.gen++
	var err error
	if c.media != nil {
		c.media.Detach()
		err = c.media.Close()
		c.media = nil
	}
	if c.mediaPath != "" {
		if rmErr := c.fs.Remove(c.mediaPath); rmErr != nil && err == nil {
			err = fmt.Errorf("remove media file: %w", rmErr)
		}
		c.mediaPath = ""
	}
	c.index = -1
	c.position = 0
	c.duration = 0
	c.state = StateClosed
	return err
}

func (c *Controller) writeMedia(data []byte) (string, error) {
	f, err := afero.TempFile(c.fs, "", "voicedrop-play-*")
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		_ = c.fs.Remove(f.Name())
		return "", fmt.Errorf("write media file: %w", err)
	}
	return f.Name(), nil
}

func (c *Controller) progressLocked() Progress {
	p := Progress{
		Index:    c.index,
		Position: c.position,
		Duration: c.duration,
	}
	if c.index >= 0 {
		p.Label = Label(len(c.items), c.index)
	}
	if c.duration > 0 {
		p.Fraction = float64(c.position) / float64(c.duration)
	}
	return p
}

func (c *Controller) notify(p Progress) {
	c.mu.Lock()
	cb := c.OnProgress
	c.mu.Unlock()
	if cb != nil {
		cb(p)
	}
}
