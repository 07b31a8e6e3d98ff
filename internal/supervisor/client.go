package supervisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// SendReload appends a reload control message to the run's control.jsonl —
// the only client-side command spec.md §6.2 defines. A running
// supervisor's poll loop picks it up and drives the stop -> apply pending
// plan -> respawn cycle.
func SendReload(controlDir, reason string) error {
	msg := ControlMessage{Ts: time.Now().UTC().Format(time.RFC3339), Cmd: "reload", Reason: reason}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding control message: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(filepath.Join(controlDir, "control.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening control channel: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing control message: %w", err)
	}
	return nil
}

// ReadHandshake reads a run's handshake.json, the file a client uses to
// confirm the run it's about to signal is still the one it thinks it is.
func ReadHandshake(controlDir string) (*Handshake, error) {
	data, err := os.ReadFile(filepath.Join(controlDir, "handshake.json")) //nolint:gosec // controlDir is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("reading handshake: %w", err)
	}
	var hs Handshake
	if err := json.Unmarshal(data, &hs); err != nil {
		return nil, fmt.Errorf("decoding handshake: %w", err)
	}
	return &hs, nil
}

// RequestShutdown signals a supervised run's child to stop: SIGTERM, then
// SIGKILL after grace if it hasn't exited. This acts directly on the pid
// recorded in the run's handshake rather than through control.jsonl, since
// cancellation is the supervisor's external "cancel signal" input (spec.md
// §4.10), not a reload command — control.jsonl carries exactly one command
// per spec.md §6.2.
func RequestShutdown(controlDir string, grace time.Duration) error {
	hs, err := ReadHandshake(controlDir)
	if err != nil {
		return err
	}
	proc, err := os.FindProcess(hs.Pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", hs.Pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("signaling process %d: %w", hs.Pid, err)
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if err := proc.Signal(syscall.Signal(0)); err != nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	_ = proc.Signal(syscall.SIGKILL)
	return nil
}
