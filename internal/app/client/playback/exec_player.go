package playback

import (
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

const updateInterval = 250 * time.Millisecond

// ExecPlayer plays files with an external command, ffplay by default. The
// process is restarted at the current offset on resume and seek.
type ExecPlayer struct {
	Command  []string
	SeekFlag string
	Interval time.Duration
}

func NewExecPlayer(command []string) *ExecPlayer {
	if len(command) == 0 {
		command = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}
	}
	return &ExecPlayer{Command: command, SeekFlag: "-ss", Interval: updateInterval}
}

func (p *ExecPlayer) Load(path, _ string, duration time.Duration) (Media, error) {
	if _, err := exec.LookPath(p.Command[0]); err != nil {
		return nil, fmt.Errorf("player %s: %w", p.Command[0], err)
	}
	return &execMedia{player: p, path: path, duration: duration, now: time.Now}, nil
}

type execMedia struct {
	player   *ExecPlayer
	path     string
	duration time.Duration
	now      func() time.Time

	mu        sync.Mutex
	offset    time.Duration
	startedAt time.Time
	proc      *process
	listener  Listener
}

type process struct {
	cmd    *exec.Cmd
	stop   chan struct{}
	exited chan struct{}
}

func (m *execMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.proc != nil {
		return nil
	}
	if m.duration > 0 && m.offset >= m.duration {
		m.offset = 0
	}

	args := append([]string{}, m.player.Command[1:]...)
	if m.offset > 0 && m.player.SeekFlag != "" {
		args = append(args, m.player.SeekFlag, strconv.FormatFloat(m.offset.Seconds(), 'f', 3, 64))
	}
	args = append(args, m.path)

	cmd := exec.Command(m.player.Command[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}

	p := &process{cmd: cmd, stop: make(chan struct{}), exited: make(chan struct{})}
	m.proc = p
	m.startedAt = m.now()

	go m.wait(p)
	go m.tick(p)
	return nil
}

func (m *execMedia) Pause() error {
	m.mu.Lock()
	p := m.proc
	if p != nil {
		m.offset = m.positionLocked()
		m.proc = nil
	}
	m.mu.Unlock()

	return halt(p)
}

func (m *execMedia) Seek(position time.Duration) error {
	m.mu.Lock()
	p := m.proc
	m.proc = nil
	m.offset = max(position, 0)
	m.mu.Unlock()

	if err := halt(p); err != nil {
		return err
	}
	if p != nil {
		return m.Play()
	}
	return nil
}

func (m *execMedia) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionLocked()
}

func (m *execMedia) Duration() time.Duration {
	return m.duration
}

func (m *execMedia) Attach(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

func (m *execMedia) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = Listener{}
}

func (m *execMedia) Close() error {
	m.Detach()
	return m.Pause()
}

func (m *execMedia) positionLocked() time.Duration {
	pos := m.offset
	if m.proc != nil {
		pos += m.now().Sub(m.startedAt)
	}
	if m.duration > 0 && pos > m.duration {
		pos = m.duration
	}
	return pos
}

// wait reaps the process. A natural exit rewinds and fires OnEnded.
func (m *execMedia) wait(p *process) {
	_ = p.cmd.Wait()
	close(p.stop)

	m.mu.Lock()
	natural := m.proc == p
	var onEnded func()
	if natural {
		m.proc = nil
		m.offset = 0
		onEnded = m.listener.OnEnded
	}
	m.mu.Unlock()

	close(p.exited)
	if onEnded != nil {
		onEnded()
	}
}

func (m *execMedia) tick(p *process) {
	interval := m.player.Interval
	if interval <= 0 {
		interval = updateInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			if m.proc != p {
				m.mu.Unlock()
				return
			}
			pos := m.positionLocked()
			cb := m.listener.OnTimeUpdate
			m.mu.Unlock()

			if cb != nil {
				cb(pos)
			}
		}
	}
}

// halt kills a running process and waits until it has been reaped.
func halt(p *process) error {
	if p == nil {
		return nil
	}
	select {
	case <-p.exited:
		return nil
	default:
	}
	if err := p.cmd.Process.Kill(); err != nil {
		select {
		case <-p.exited:
			return nil
		default:
			return fmt.Errorf("stop player: %w", err)
		}
	}
	<-p.exited
	return nil
}
