package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/exp/slog"
)

const tickInterval = time.Second

// Controller drives one recording at a time through
// Idle -> Recording -> Stopped -> Uploading -> Stopped.
type Controller struct {
	device   Device
	uploader Uploader
	fs       afero.Fs
	log      *slog.Logger
	now      func() time.Time
	tick     time.Duration

	// OnElapsed, when set, is called with the whole seconds recorded so far.
	OnElapsed func(seconds int)

	mu        sync.Mutex
	state     State
	gen       uint64
	stream    Stream
	chunks    [][]byte
	startedAt time.Time
	elapsed   int
	stopTick  chan struct{}
	blob      *Blob
	mediaPath string
	lastErr   error
}

func NewController(device Device, uploader Uploader, fs afero.Fs, log *slog.Logger) *Controller {
	return &Controller{
		device:   device,
		uploader: uploader,
		fs:       fs,
		log:      log.With("component", "capture"),
		now:      time.Now,
		tick:     tickInterval,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Elapsed is the whole seconds counted during the current or last recording.
func (c *Controller) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Blob returns the finished recording, if any.
func (c *Controller) Blob() (Blob, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blob == nil {
		return Blob{}, false
	}
	return *c.blob, true
}

// Err reports why the last recording was abandoned by the device.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Start opens the device. Calling it while already recording is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateRecording:
		c.mu.Unlock()
		return nil
	case StateStopped, StateUploading:
		c.mu.Unlock()
		return fmt.Errorf("%w: delete the current recording first", ErrInvalidTransition)
	}

	c.gen++
	gen := c.gen
	c.state = StateRecording
	c.chunks = nil
	c.elapsed = 0
	c.lastErr = nil
	c.startedAt = c.now()
	c.mu.Unlock()

	stream, err := c.device.Open(ctx, StreamHandler{
		OnData: func(chunk []byte) { c.onData(gen, chunk) },
		OnEnd:  func(err error) { c.onEnd(gen, err) },
	})
	if err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.gen++
			c.state = StateIdle
		}
		c.mu.Unlock()
		if !errors.Is(err, ErrDevice) {
			err = fmt.Errorf("%w: %v", ErrDevice, err)
		}
		return err
	}

	c.mu.Lock()
	if c.gen != gen {
		// Stopped or ended while the device was opening.
		c.mu.Unlock()
		c.closeStream(stream)
		return nil
	}
	c.stream = stream
	stop := make(chan struct{})
	c.stopTick = stop
	c.mu.Unlock()

	go c.count(gen, stop)
	return nil
}

// Stop releases the device and seals the recorded chunks into a Blob.
func (c *Controller) Stop() error {
	c.mu.Lock()
	switch c.state {
	case StateStopped:
		c.mu.Unlock()
		return nil
	case StateRecording:
	default:
		st := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: stop while %s", ErrInvalidTransition, st)
	}
	stream := c.finishLocked()
	c.mu.Unlock()

	c.closeStream(stream)
	return nil
}

// Delete discards the recording and its local media file.
func (c *Controller) Delete() error {
	c.mu.Lock()
	switch c.state {
	case StateIdle:
		c.mu.Unlock()
		return nil
	case StateStopped:
	default:
		st := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: delete while %s", ErrInvalidTransition, st)
	}
	path := c.mediaPath
	c.blob = nil
	c.mediaPath = ""
	c.elapsed = 0
	c.state = StateIdle
	c.mu.Unlock()

	return c.removeMedia(path)
}

// Send uploads the blob to target. The blob is kept whatever the outcome.
func (c *Controller) Send(ctx context.Context, target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return ErrNoTarget
	}

	c.mu.Lock()
	if c.state != StateStopped || c.blob == nil {
		st := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: send while %s", ErrInvalidTransition, st)
	}
	blob := *c.blob
	c.state = StateUploading
	gen := c.gen
	c.mu.Unlock()

	err := c.uploader.Upload(ctx, Submission{
		Target:      target,
		Audio:       blob.Data,
		ContentType: blob.ContentType,
		Duration:    blob.Duration,
		Timestamp:   blob.RecordedAt,
	})

	c.mu.Lock()
	// Close during the upload already moved the controller to Idle.
	if c.gen == gen && c.state == StateUploading {
		c.state = StateStopped
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("upload failed", "target", target, "error", err)
		if errors.Is(err, ErrUpload) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	c.log.Info("recording sent", "target", target, "size", len(blob.Data))
	return nil
}

// Download writes the recorded audio to w.
func (c *Controller) Download(w io.Writer) error {
	blob, ok := c.Blob()
	if !ok {
		return fmt.Errorf("%w: nothing recorded", ErrInvalidTransition)
	}
	_, err := io.Copy(w, bytes.NewReader(blob.Data))
	return err
}

// MediaPath materialises the blob as a temp file for local preview.
func (c *Controller) MediaPath() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blob == nil {
		return "", fmt.Errorf("%w: nothing recorded", ErrInvalidTransition)
	}
	if c.mediaPath != "" {
		return c.mediaPath, nil
	}

	f, err := afero.TempFile(c.fs, "", "voicedrop-capture-*")
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(c.blob.Data); err != nil {
		_ = c.fs.Remove(f.Name())
		return "", fmt.Errorf("write media file: %w", err)
	}
	c.mediaPath = f.Name()
	return c.mediaPath, nil
}

// Close abandons whatever is in progress and returns to Idle.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.gen++
	var stream Stream
	if c.state == StateRecording {
		stream = c.stream
		c.stream = nil
		c.stopTickLocked()
	}
	path := c.mediaPath
	c.blob = nil
	c.chunks = nil
	c.mediaPath = ""
	c.state = StateIdle
	c.mu.Unlock()

	c.closeStream(stream)
	return c.removeMedia(path)
}

func (c *Controller) onData(gen uint64, chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state != StateRecording {
		return
	}
	c.chunks = append(c.chunks, chunk)
}

// onEnd handles a stream that ended without Stop: a clean end seals the
// blob, a failure drops the recording.
func (c *Controller) onEnd(gen uint64, err error) {
	c.mu.Lock()
	if c.gen != gen || c.state != StateRecording {
		c.mu.Unlock()
		return
	}

	var stream Stream
	if err != nil {
		c.gen++
		stream = c.stream
		c.stream = nil
		c.stopTickLocked()
		c.chunks = nil
		c.state = StateIdle
		c.lastErr = err
		c.log.Error("recording aborted by device", "error", err)
	} else {
		stream = c.finishLocked()
	}
	c.mu.Unlock()

	if stream != nil {
		go c.closeStream(stream)
	}
}

// finishLocked moves Recording to Stopped and returns the stream to close.
func (c *Controller) finishLocked() Stream {
	c.gen++
	stream := c.stream
	c.stream = nil
	c.stopTickLocked()

	size := 0
	for _, ch := range c.chunks {
		size += len(ch)
	}
	data := make([]byte, 0, size)
	for _, ch := range c.chunks {
		data = append(data, ch...)
	}
	c.chunks = nil

	c.blob = &Blob{
		Data:        data,
		ContentType: c.device.ContentType(),
		Duration:    c.now().Sub(c.startedAt),
		RecordedAt:  c.startedAt,
	}
	c.state = StateStopped
	return stream
}

func (c *Controller) stopTickLocked() {
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
}

func (c *Controller) count(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.gen != gen {
				c.mu.Unlock()
				return
			}
			c.elapsed++
			elapsed := c.elapsed
			cb := c.OnElapsed
			c.mu.Unlock()

			if cb != nil {
				cb(elapsed)
			}
		}
	}
}

func (c *Controller) closeStream(s Stream) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		c.log.Warn("failed to release audio device", "error", err)
	}
}

func (c *Controller) removeMedia(path string) error {
	if path == "" {
		return nil
	}
	if err := c.fs.Remove(path); err != nil {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}
