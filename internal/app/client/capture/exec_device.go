package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

const chunkSize = 32 << 10

// ExecDevice records by running an external command that writes audio to
// stdout, arecord by default.
type ExecDevice struct {
	Command   []string
	MediaType string
	ChunkSize int
}

func NewExecDevice(command []string, contentType string) *ExecDevice {
	if len(command) == 0 {
		command = []string{"arecord", "-q", "-f", "cd", "-t", "wav", "-"}
	}
	if contentType == "" {
		contentType = "audio/wav"
	}
	return &ExecDevice{Command: command, MediaType: contentType, ChunkSize: chunkSize}
}

func (d *ExecDevice) ContentType() string {
	return d.MediaType
}

func (d *ExecDevice) Open(_ context.Context, h StreamHandler) (Stream, error) {
	cmd := exec.Command(d.Command[0], d.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrDevice, d.Command[0], err)
	}

	s := &execStream{cmd: cmd, done: make(chan struct{})}
	size := d.ChunkSize
	if size <= 0 {
		size = chunkSize
	}
	go s.pump(stdout, size, h)
	return s, nil
}

type execStream struct {
	cmd     *exec.Cmd
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	closing bool
}

func (s *execStream) pump(r io.Reader, size int, h StreamHandler) {
	defer close(s.done)

	var readErr error
	for {
		buf := make([]byte, size)
		n, err := r.Read(buf)
		if n > 0 && h.OnData != nil {
			h.OnData(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
	}
	waitErr := s.cmd.Wait()

	s.mu.Lock()
	closing := s.closing
	s.mu.Unlock()
	if closing || h.OnEnd == nil {
		return
	}

	switch {
	case readErr != nil:
		h.OnEnd(fmt.Errorf("%w: %v", ErrDevice, readErr))
	case waitErr != nil:
		h.OnEnd(fmt.Errorf("%w: %v", ErrDevice, waitErr))
	default:
		h.OnEnd(nil)
	}
}

// Close interrupts the recorder so it can flush, then waits for it to exit.
func (s *execStream) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()

		if s.cmd.Process != nil {
			if sigErr := s.cmd.Process.Signal(os.Interrupt); sigErr != nil && !errors.Is(sigErr, os.ErrProcessDone) {
				err = s.cmd.Process.Kill()
			}
		}
		<-s.done
	})
	return err
}
