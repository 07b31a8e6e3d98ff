// Package supervisor runs and controls a child agent process (spec.md
// §4.10, component J): it spawns the agent attached to a pty so interactive
// TUIs behave normally, exposes a file-based control channel the rest of
// EVS uses to request a reload, and drives the stop -> apply-pending-plan
// -> respawn cycle that lets a rewritten transcript and the running agent
// stay in sync.
package supervisor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/fsnotify/fsnotify"

	"github.com/eversession/evs/internal/autocompact"
	"github.com/eversession/evs/internal/evslog"
	"github.com/eversession/evs/internal/evspaths"
	"github.com/eversession/evs/internal/jsonl"
)

// RunState is the supervisor's cooperative state machine (spec.md §4.10).
type RunState int

const (
	StateStarting RunState = iota
	StateRunning
	StateApplyingPlan
	StateStopping
	StateExited
)

func (s RunState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateApplyingPlan:
		return "applying_plan"
	case StateStopping:
		return "stopping"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Handshake identifies a supervised run and its current session to control-
// channel participants (spec.md §6.2: `{runId, sessionId|threadId,
// transcriptPath?, cwd?, ts}`). The supervisor writes it once at start and
// again after every respawn, since a reload's pending-compact lookup needs
// the session id it currently holds.
type Handshake struct {
	RunID     string `json:"runId"`
	SessionID string `json:"sessionId"`
	Agent     string `json:"agent"`
	Pid       int    `json:"pid"`
	Ts        string `json:"ts"`
}

// ControlMessage is one line appended to control.jsonl by a client wanting
// the supervisor to reload — spec.md §6.2's only defined command
// (`{ts, cmd: "reload", reason}`). Any other cmd value is ignored.
type ControlMessage struct {
	Ts     string `json:"ts"`
	Cmd    string `json:"cmd"`
	Reason string `json:"reason,omitempty"`
}

// Config tunes the supervisor's lifecycle timing — spec.md §4.10's
// handshake_timeout/restart_timeout/poll_interval inputs. Zero values fall
// back to sane defaults.
type Config struct {
	HandshakeTimeout time.Duration
	RestartTimeout   time.Duration
	PollInterval     time.Duration
}

func (c Config) withDefaults() Config {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.RestartTimeout <= 0 {
		c.RestartTimeout = 5 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	return c
}

// ResumeArgs computes the argv used to respawn the child after a reload,
// given the session id the handshake currently holds (spec.md §4.10's
// `resume_args(session_id)`).
type ResumeArgs func(sessionID string) []string

// Supervisor owns one child agent process and its control channel.
type Supervisor struct {
	Agent      string
	ControlDir string
	Config     Config

	mu    sync.Mutex
	state RunState
}

// New constructs a Supervisor for agent, writing its control files under
// controlDir (see internal/evspaths.ControlDir).
func New(agent, controlDir string, cfg Config) *Supervisor {
	return &Supervisor{Agent: agent, ControlDir: controlDir, Config: cfg.withDefaults(), state: StateStarting}
}

func (s *Supervisor) controlFile() string   { return filepath.Join(s.ControlDir, "control.jsonl") }
func (s *Supervisor) handshakeFile() string { return filepath.Join(s.ControlDir, "handshake.json") }

// State returns the supervisor's current lifecycle state.
func (s *Supervisor) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(st RunState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// childProc is one spawned incarnation of the agent process.
type childProc struct {
	cmd *exec.Cmd
	pty *os.File
}

type childExit struct {
	err error
}

func (s *Supervisor) spawn(name string, args []string) (*childProc, <-chan childExit, error) {
	cmd := exec.Command(name, args...) //nolint:gosec // name/args are caller-controlled agent invocation
	ptyFile, err := pty.Start(cmd)
	if err != nil {
		return nil, nil, err
	}
	proc := &childProc{cmd: cmd, pty: ptyFile}
	ch := make(chan childExit, 1)
	go func() {
		waitErr := cmd.Wait()
		_ = ptyFile.Close()
		ch <- childExit{err: waitErr}
	}()
	return proc, ch, nil
}

// stopChild stops a running child gracefully: SIGTERM, then SIGKILL after
// timeout (spec.md §4.10 step 3c). exitCh is the channel returned by the
// spawn that produced proc; stopChild drains exactly one value from it, so
// once this returns that channel is spent and must not be read again.
func (s *Supervisor) stopChild(ctx context.Context, proc *childProc, exitCh <-chan childExit, timeout time.Duration) {
	if proc == nil || proc.cmd.Process == nil {
		return
	}
	_ = proc.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-exitCh:
	case <-time.After(timeout):
		evslog.Warn(ctx, "restart_timeout elapsed, sending SIGKILL")
		_ = proc.cmd.Process.Kill()
		<-exitCh
	}
}

func (s *Supervisor) writeHandshake(runID, sessionID string, pid int) error {
	hs := Handshake{
		RunID:     runID,
		SessionID: sessionID,
		Agent:     s.Agent,
		Pid:       pid,
		Ts:        time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(hs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding handshake: %w", err)
	}
	return jsonl.WriteAtomic(s.handshakeFile(), append(data, '\n'))
}

// Start spawns the child process under a pty with initialArgs and loops
// (spec.md §4.10 step 3) until ctx is canceled or the active child exits on
// its own. A reload request drives the literal stop -> apply pending
// compaction -> respawn cycle: stop the child, wait for the handshake to
// confirm a session id, apply the session's ready pending-compact plan (if
// any), then respawn with resumeArgs(sessionID).
func (s *Supervisor) Start(ctx context.Context, name string, initialArgs []string, sessionID, runID string, resumeArgs ResumeArgs) error {
	ctx = evslog.WithComponent(ctx, "supervisor")
	ctx = evslog.WithAgent(ctx, s.Agent)

	if err := os.MkdirAll(s.ControlDir, 0o700); err != nil {
		return fmt.Errorf("creating control dir: %w", err)
	}

	proc, exitCh, err := s.spawn(name, initialArgs)
	if err != nil {
		return fmt.Errorf("starting child under pty: %w", err)
	}
	if err := s.writeHandshake(runID, sessionID, proc.cmd.Process.Pid); err != nil {
		return fmt.Errorf("writing handshake: %w", err)
	}
	s.setState(StateRunning)
	evslog.Info(ctx, "supervised run started", "run_id", runID, "session_id", sessionID, "pid", proc.cmd.Process.Pid)

	pending := make(chan struct{}, 1)
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go s.watchControlChannel(watchCtx, pending)

	for {
		select {
		case <-ctx.Done():
			// Cancellation stops the child within restart_timeout and
			// resolves with exit code 0 without applying a pending plan
			// (spec.md §4.10 step 4).
			s.setState(StateStopping)
			s.stopChild(ctx, proc, exitCh, s.Config.RestartTimeout)
			s.setState(StateExited)
			return nil

		case exit := <-exitCh:
			s.setState(StateExited)
			return interpretExit(ctx, exit.err, runID)

		case <-pending:
			s.setState(StateApplyingPlan)
			evslog.Info(ctx, "reload requested", "run_id", runID)

			s.stopChild(ctx, proc, exitCh, s.Config.RestartTimeout)

			hsSessionID, ok := s.awaitHandshakeSession(ctx, runID, s.Config.HandshakeTimeout)
			if !ok {
				evslog.Warn(ctx, "dropping reload: no handshake with a session id within handshake_timeout", "run_id", runID)
			} else {
				sessionID = hsSessionID
				if applyErr := s.applyPendingPlan(ctx, sessionID); applyErr != nil {
					evslog.Error(ctx, "pending-compact apply failed; reload proceeds anyway", "session_id", sessionID, "error", applyErr)
				}
			}

			args := initialArgs
			if resumeArgs != nil {
				args = resumeArgs(sessionID)
			}
			newProc, newExitCh, spawnErr := s.spawn(name, args)
			if spawnErr != nil {
				s.setState(StateExited)
				return fmt.Errorf("respawning child after reload: %w", spawnErr)
			}
			proc, exitCh = newProc, newExitCh
			if hsErr := s.writeHandshake(runID, sessionID, proc.cmd.Process.Pid); hsErr != nil {
				evslog.Warn(ctx, "failed to refresh handshake after respawn", "error", hsErr)
			}
			evslog.Info(ctx, "respawned child", "run_id", runID, "session_id", sessionID, "pid", proc.cmd.Process.Pid)
			s.setState(StateRunning)
		}
	}
}

// awaitHandshakeSession polls handshake.json until it records runID with a
// non-empty session id, or timeout elapses (spec.md §4.10 step 3b).
func (s *Supervisor) awaitHandshakeSession(ctx context.Context, runID string, timeout time.Duration) (string, bool) {
	deadline := time.Now().Add(timeout)
	for {
		hs, err := ReadHandshake(s.ControlDir)
		if err == nil && hs.RunID == runID && hs.SessionID != "" {
			return hs.SessionID, true
		}
		if time.Now().After(deadline) {
			return "", false
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// applyPendingPlan applies sessionID's ready pending-compact plan, if any,
// before the child respawns (spec.md §4.10 step 3c). A plan that is absent,
// running, failed, or stale is left untouched and the reload proceeds
// anyway; ApplyClaude/ApplyCodex themselves refuse (and mark the plan
// failed) if applying would worsen the transcript's validator error count.
func (s *Supervisor) applyPendingPlan(ctx context.Context, sessionID string) error {
	planPath, err := evspaths.PendingCompactFile(sessionID, s.Agent)
	if err != nil {
		return fmt.Errorf("resolving pending-compact path: %w", err)
	}
	logPath, err := evspaths.SessionLogFile(sessionID)
	if err != nil {
		return fmt.Errorf("resolving session log path: %w", err)
	}

	_, state, err := autocompact.Load(planPath)
	if err != nil {
		return err
	}
	if state != autocompact.StateReady {
		return nil
	}

	var applied bool
	switch s.Agent {
	case "claude":
		applied, err = autocompact.ApplyClaude(planPath, logPath)
	case "codex":
		applied, err = autocompact.ApplyCodex(planPath, logPath, false)
	default:
		return fmt.Errorf("unknown agent %q", s.Agent)
	}
	if err != nil {
		return err
	}
	if applied {
		evslog.Info(ctx, "pending compaction applied before respawn", "session_id", sessionID)
	}
	return nil
}

func interpretExit(ctx context.Context, waitErr error, runID string) error {
	if waitErr == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		evslog.Info(ctx, "supervised run exited", "run_id", runID, "code", exitErr.ExitCode())
		return nil
	}
	return fmt.Errorf("waiting for child: %w", waitErr)
}

// watchControlChannel tails control.jsonl for new reload requests,
// preferring fsnotify and falling back to polling if the watch can't be
// established (e.g. an unsupported filesystem). Multiple reload requests
// received while one is already pending collapse into the single buffered
// flag (spec.md §4.10 step 3a "queued as a single pending flag, idempotent").
func (s *Supervisor) watchControlChannel(ctx context.Context, pending chan<- struct{}) {
	offset := int64(0)

	process := func() {
		lines, newOffset, err := readNewLines(s.controlFile(), offset)
		if err != nil {
			return
		}
		offset = newOffset
		for _, line := range lines {
			var msg ControlMessage
			if err := json.Unmarshal(line, &msg); err != nil {
				continue
			}
			if msg.Cmd != "reload" {
				continue // unknown cmd values are ignored (spec.md §6.2)
			}
			select {
			case pending <- struct{}{}:
			default:
			}
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.pollControlChannel(ctx, process)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(s.ControlDir); err != nil {
		s.pollControlChannel(ctx, process)
		return
	}

	ticker := time.NewTicker(s.Config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-watcher.Events:
			process()
		case <-ticker.C:
			// Backstop: fsnotify can miss events under heavy load.
			process()
		}
	}
}

func (s *Supervisor) pollControlChannel(ctx context.Context, process func()) {
	ticker := time.NewTicker(s.Config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			process()
		}
	}
}

func readNewLines(path string, offset int64) ([][]byte, int64, error) {
	f, err := os.Open(path) //nolint:gosec // path is fixed per-run control file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, offset, nil
		}
		return nil, offset, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, err
	}
	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	read := offset
	for scanner.Scan() {
		b := scanner.Bytes()
		read += int64(len(b)) + 1
		if len(b) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), b...))
	}
	if err := scanner.Err(); err != nil {
		return lines, read, err
	}
	return lines, read, nil
}
