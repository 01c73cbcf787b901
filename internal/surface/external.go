package surface

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/finch/internal/core"
)

// ExternalConfig configures the external player process.
type ExternalConfig struct {
	Command  string
	Args     []string
	Interval time.Duration // progress event interval
	// IPC enables mpv's JSON IPC for transport control and position tracking.
	// Without it, transport calls only move the internal clock.
	IPC bool
}

// External plays media in a separate player process (mpv by default).
// Position is tracked by an embedded Clock and corrected from the
// player's own reports when IPC is available.
type External struct {
	cfg    ExternalConfig
	clock  *Clock
	logger zerolog.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	ipc      net.Conn
	gen      int
	sockPath string
	closed   bool
}

var _ Surface = (*External)(nil)

// NewExternal creates an external surface. Nothing is launched until Load.
func NewExternal(cfg ExternalConfig, logger zerolog.Logger) *External {
	if cfg.Command == "" {
		cfg.Command = "mpv"
		cfg.IPC = true
	}
	return &External{
		cfg:      cfg,
		clock:    NewClock(cfg.Interval),
		logger:   logger,
		sockPath: filepath.Join(os.TempDir(), fmt.Sprintf("finch-mpv-%d.sock", os.Getpid())),
	}
}

// Load launches the player for m, replacing any running process.
func (e *External) Load(ctx context.Context, m Media) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("surface closed")
	}
	e.killLocked()
	e.gen++
	gen := e.gen

	args := append([]string{}, e.cfg.Args...)
	args = append(args, e.playerArgs(m)...)
	cmd := exec.Command(e.cfg.Command, args...)
	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("start %s: %w", e.cfg.Command, err)
	}
	e.cmd = cmd
	e.mu.Unlock()

	e.logger.Debug().Str("player", e.cfg.Command).Int("pid", cmd.Process.Pid).Msg("player started")

	if err := e.clock.Load(ctx, m); err != nil {
		return err
	}
	if err := e.clock.Play(ctx); err != nil {
		return err
	}

	go e.wait(cmd, gen)
	if e.cfg.IPC {
		go e.connectIPC(gen)
	}
	return nil
}

func (e *External) playerArgs(m Media) []string {
	var args []string
	if !e.cfg.IPC {
		return append(args, m.URL)
	}
	if m.Start.Known && m.Start.Ticks > 0 {
		args = append(args, "--start="+strconv.FormatFloat(m.Start.Ticks.Duration().Seconds(), 'f', 3, 64))
	}
	if auth := m.Headers.Get("Authorization"); auth != "" {
		args = append(args, "--http-header-fields=Authorization: "+auth)
	}
	if m.Title != "" {
		args = append(args, "--force-media-title="+m.Title)
	}
	for _, sub := range m.SubtitleURLs {
		args = append(args, "--sub-file="+sub)
	}
	args = append(args, "--input-ipc-server="+e.sockPath)
	return append(args, m.URL)
}

func (e *External) wait(cmd *exec.Cmd, gen int) {
	err := cmd.Wait()

	e.mu.Lock()
	current := gen == e.gen && !e.closed
	if current {
		e.cmd = nil
	}
	e.mu.Unlock()

	if !current {
		return
	}
	if err != nil {
		e.clock.Emit(Event{Kind: EventError, Position: e.clock.Position(), Err: fmt.Errorf("%s exited: %w", e.cfg.Command, err)})
		return
	}
	e.clock.Emit(Event{Kind: EventEnded, Position: e.clock.Position()})
}

// connectIPC dials the player's socket, retrying while it starts up.
func (e *External) connectIPC(gen int) {
	var conn net.Conn
	var err error
	for i := 0; i < 20; i++ {
		conn, err = net.Dial("unix", e.sockPath)
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		e.logger.Warn().Err(err).Msg("player ipc unavailable")
		return
	}

	e.mu.Lock()
	if gen != e.gen || e.closed {
		e.mu.Unlock()
		_ = conn.Close()
		return
	}
	e.ipc = conn
	e.mu.Unlock()

	_ = e.send("observe_property", 1, "time-pos")
	_ = e.send("observe_property", 2, "duration")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		e.handleIPC(scanner.Bytes())
	}
}

type ipcMessage struct {
	Event string          `json:"event"`
	Name  string          `json:"name"`
	Data  json.RawMessage `json:"data"`
}

func (e *External) handleIPC(line []byte) {
	var msg ipcMessage
	if err := json.Unmarshal(line, &msg); err != nil || msg.Event != "property-change" {
		return
	}
	var secs float64
	if err := json.Unmarshal(msg.Data, &secs); err != nil {
		return
	}
	ticks := core.TicksFromDuration(time.Duration(secs * float64(time.Second)))
	switch msg.Name {
	case "time-pos":
		e.clock.Sync(ticks)
	case "duration":
		e.clock.Emit(Event{Kind: EventDuration, Duration: ticks})
	}
}

func (e *External) send(args ...any) error {
	e.mu.Lock()
	conn := e.ipc
	e.mu.Unlock()
	if conn == nil {
		return nil
	}
	data, err := json.Marshal(map[string]any{"command": args})
	if err != nil {
		return err
	}
	_, err = conn.Write(append(data, '\n'))
	return err
}

// Play resumes playback.
func (e *External) Play(ctx context.Context) error {
	if err := e.send("set_property", "pause", false); err != nil {
		return err
	}
	return e.clock.Play(ctx)
}

// Pause pauses playback.
func (e *External) Pause(ctx context.Context) error {
	if err := e.send("set_property", "pause", true); err != nil {
		return err
	}
	return e.clock.Pause(ctx)
}

// Seek jumps to pos.
func (e *External) Seek(ctx context.Context, pos core.Ticks) error {
	if err := e.send("seek", pos.Duration().Seconds(), "absolute"); err != nil {
		return err
	}
	return e.clock.Seek(ctx, pos)
}

// SetVolume sets the player volume.
func (e *External) SetVolume(ctx context.Context, percent int) error {
	if err := e.send("set_property", "volume", percent); err != nil {
		return err
	}
	return e.clock.SetVolume(ctx, percent)
}

// Stop terminates the player process without reporting its exit.
func (e *External) Stop(ctx context.Context) error {
	e.mu.Lock()
	e.killLocked()
	e.gen++
	e.mu.Unlock()
	return e.clock.Stop(ctx)
}

// Position returns the tracked playback position.
func (e *External) Position() core.Position {
	return e.clock.Position()
}

// Generation returns the load count of the tracking clock.
func (e *External) Generation() uint64 {
	return e.clock.Generation()
}

// Events returns the surface's event channel.
func (e *External) Events() <-chan Event {
	return e.clock.Events()
}

// Close stops the player process and the clock.
func (e *External) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.killLocked()
	e.mu.Unlock()

	_ = os.Remove(e.sockPath)
	return e.clock.Close()
}

func (e *External) killLocked() {
	if e.ipc != nil {
		_ = e.ipc.Close()
		e.ipc = nil
	}
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
		e.cmd = nil
	}
}
