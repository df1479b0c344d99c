package player

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/vidtune-cli/vidtune/log"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
	eventBuffer       = 64
)

// Config parameterizes an MPV bridge.
type Config struct {
	// Binary is the mpv executable, "mpv" when empty.
	Binary string
	// BaseURL is the embed endpoint the video id is appended to.
	BaseURL string
	// Tokens supplies the access credential. Nil loads anonymously.
	Tokens TokenProvider
	// CommandTimeout bounds play, pause and mute.
	CommandTimeout time.Duration
	// TimeQueryTimeout bounds CurrentTime.
	TimeQueryTimeout time.Duration
	// SocketDir holds IPC sockets, os.TempDir() when empty.
	SocketDir string
}

// MPV is a Bridge hosting every context in its own mpv process, controlled
// over mpv's JSON IPC socket.
type MPV struct {
	cfg    Config
	events chan Event

	mu         sync.Mutex
	current    *instance
	closed     bool
	generation uint64
}

// instance is one context: an mpv process playing one video.
type instance struct {
	generation uint64
	videoID    string
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when the process exits

	ctx    context.Context // cancelled on teardown
	cancel context.CancelFunc

	mu  sync.Mutex
	ipc *ipcConn // nil until the socket is attached
}

func NewMPV(cfg Config) *MPV {
	if cfg.Binary == "" {
		cfg.Binary = "mpv"
	}
	return &MPV{
		cfg:    cfg,
		events: make(chan Event, eventBuffer),
	}
}

func (m *MPV) Events() <-chan Event {
	return m.events
}

// Load replaces the current context with a new mpv process playing videoID.
// The socket is attached in the background; EventReady follows once the
// file is loaded.
func (m *MPV) Load(ctx context.Context, videoID string, params LoadParams) (uint64, error) {
	var token string
	if m.cfg.Tokens != nil {
		t, err := m.cfg.Tokens.CurrentToken(ctx)
		if err != nil {
			return 0, fmt.Errorf("access token: %w", err)
		}
		token = t
	}

	target, err := embedURL(m.cfg.BaseURL, videoID, params)
	if err != nil {
		return 0, fmt.Errorf("invalid media target: %w", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrDetached
	}
	old := m.current
	m.current = nil
	m.generation++
	generation := m.generation
	m.mu.Unlock()

	if old != nil {
		go old.teardown()
	}

	socketPath, err := m.newSocketPath()
	if err != nil {
		return 0, err
	}

	inst := &instance{
		generation: generation,
		videoID:    videoID,
		socketPath: socketPath,
		exited:     make(chan struct{}),
	}
	inst.ctx, inst.cancel = context.WithCancel(context.Background())

	inst.cmd = exec.Command(m.cfg.Binary, mpvArgs(socketPath, target, params.Title, token, params)...)
	inst.cmd.SysProcAttr = sysProcAttr()
	inst.cmd.Stdout = nil
	inst.cmd.Stderr = nil
	inst.cmd.Stdin = nil

	if err := inst.cmd.Start(); err != nil {
		inst.cancel()
		return 0, fmt.Errorf("start %s: %w", m.cfg.Binary, err)
	}

	go func() {
		_ = inst.cmd.Wait()
		close(inst.exited)
	}()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		inst.teardown()
		return 0, ErrDetached
	}
	m.current = inst
	m.mu.Unlock()

	log.WithFields(log.Fields{"video": videoID, "socket": socketPath, "generation": generation}).Info("player context created")

	go m.attach(inst)
	return generation, nil
}

func (m *MPV) newSocketPath() (string, error) {
	dir := m.cfg.SocketDir
	if dir == "" {
		dir = os.TempDir()
	}

	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("vidtune-%x.sock", randomBytes)), nil
}

// attach connects to the socket of inst and pumps its events until the
// connection closes.
func (m *MPV) attach(inst *instance) {
	entry := log.WithFields(log.Fields{"video": inst.videoID})

	if err := inst.waitForSocket(); err != nil {
		if inst.ctx.Err() != nil {
			return
		}
		entry.Warnf("player context never attached: %v", err)
		m.emit(inst, Event{Kind: EventError, VideoID: inst.videoID, Message: err.Error()})
		go inst.teardown()
		return
	}

	conn, err := net.Dial("unix", inst.socketPath)
	if err != nil {
		entry.Warnf("dial player socket: %v", err)
		m.emit(inst, Event{Kind: EventError, VideoID: inst.videoID, Message: err.Error()})
		go inst.teardown()
		return
	}

	ipc := newIPCConn(conn)
	inst.mu.Lock()
	inst.ipc = ipc
	inst.mu.Unlock()

	go m.observe(inst, ipc)

	tr := newTranslator(inst.videoID)
	err = ipc.readLoop(
		func(msg ipcMessage) {
			events, err := tr.translate(msg)
			if err != nil {
				entry.Warnf("dropping player event: %v", err)
				return
			}
			for _, e := range events {
				m.emit(inst, e)
			}
		},
		func(line []byte, err error) {
			entry.Warnf("dropping malformed player message %q: %v", line, err)
		},
	)
	if err != nil {
		entry.Warnf("player connection: %v", err)
	}

	// the process went away on its own
	if inst.ctx.Err() == nil {
		m.emit(inst, Event{Kind: EventError, VideoID: inst.videoID, Message: "player exited"})
	}
}

func (m *MPV) observe(inst *instance, ipc *ipcConn) {
	for _, prop := range observedProperties {
		ctx, cancel := context.WithTimeout(inst.ctx, m.timeout(m.cfg.CommandTimeout))
		_, err := ipc.call(ctx, "observe_property", prop.id, prop.name)
		cancel()
		if err != nil {
			log.WithFields(log.Fields{"video": inst.videoID}).Warnf("observe %s: %v", prop.name, err)
			return
		}
	}
}

// emit stamps e with the generation of inst and forwards it unless inst
// has been torn down meanwhile.
func (m *MPV) emit(inst *instance, e Event) {
	if inst.ctx.Err() != nil {
		return
	}
	e.Generation = inst.generation
	select {
	case m.events <- e:
	case <-inst.ctx.Done():
	}
}

func (m *MPV) timeout(d time.Duration) time.Duration {
	if d <= 0 {
		return quitTimeout
	}
	return d
}

func (m *MPV) conn() (*ipcConn, error) {
	m.mu.Lock()
	inst := m.current
	m.mu.Unlock()

	if inst == nil {
		return nil, ErrDetached
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.ipc == nil {
		return nil, ErrDetached
	}
	return inst.ipc, nil
}

func (m *MPV) command(ctx context.Context, timeout time.Duration, command ...any) (json.RawMessage, error) {
	ipc, err := m.conn()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout(timeout))
	defer cancel()
	return ipc.call(ctx, command...)
}

func (m *MPV) Play(ctx context.Context) error {
	_, err := m.command(ctx, m.cfg.CommandTimeout, "set_property", "pause", false)
	return err
}

func (m *MPV) Pause(ctx context.Context) error {
	_, err := m.command(ctx, m.cfg.CommandTimeout, "set_property", "pause", true)
	return err
}

func (m *MPV) SetMuted(ctx context.Context, muted bool) error {
	_, err := m.command(ctx, m.cfg.CommandTimeout, "set_property", "mute", muted)
	return err
}

func (m *MPV) CurrentTime(ctx context.Context) (float64, error) {
	data, err := m.command(ctx, m.cfg.TimeQueryTimeout, "get_property", "time-pos")
	if err != nil {
		return 0, err
	}

	var pos *float64
	if err := json.Unmarshal(data, &pos); err != nil {
		return 0, fmt.Errorf("time-pos: %w", err)
	}
	if pos == nil {
		return 0, fmt.Errorf("time-pos: %w", errors.New("nothing loaded"))
	}
	return *pos, nil
}

// Close tears down the current context. The bridge cannot be reused.
func (m *MPV) Close() error {
	m.mu.Lock()
	m.closed = true
	inst := m.current
	m.current = nil
	m.mu.Unlock()

	if inst != nil {
		inst.teardown()
	}
	return nil
}

// waitForSocket polls until the IPC socket accepts connections.
func (inst *instance) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-time.After(socketWaitDelay):
		case <-inst.ctx.Done():
			return inst.ctx.Err()
		}

		select {
		case <-inst.exited:
			return fmt.Errorf("player exited before its socket was ready")
		default:
		}

		conn, err := net.Dial("unix", inst.socketPath)
		if err == nil {
			_ = conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", inst.socketPath, socketWaitRetries)
}

// teardown quits the process, killing it when it does not exit in time.
func (inst *instance) teardown() {
	inst.cancel()

	inst.mu.Lock()
	ipc := inst.ipc
	inst.mu.Unlock()

	if ipc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, _ = ipc.call(ctx, "quit")
		cancel()
		_ = ipc.Close()
	}

	select {
	case <-inst.exited:
	case <-time.After(quitTimeout):
		log.WithFields(log.Fields{"video": inst.videoID}).Warn("killing player: quit timed out")
		_ = killProcess(inst.cmd)
	}

	_ = os.Remove(inst.socketPath)
}
