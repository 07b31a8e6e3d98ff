// Package autocompact implements the pending-compact state machine of
// spec.md §4.9 (component I): deciding whether a session has crossed its
// configured auto-compact threshold, persisting that decision as a
// pending-plan file, and tracking the plan through to application or
// staleness. The transcript rewrite itself is done by internal/ops, which
// ApplyClaude/ApplyCodex (engine.go) call when a ready plan is applied.
package autocompact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/jsonl"
	"github.com/eversession/evs/internal/jsonutil"
)

// State is a pending-compact plan's lifecycle stage.
type State string

const (
	// StateAbsent means no plan file exists yet.
	StateAbsent State = "absent"
	// StateRunning means a plan is being computed (the file exists with
	// running=true and no result yet).
	StateRunning State = "running"
	// StateReady means a plan was computed and is waiting to be applied.
	StateReady State = "ready"
	// StateFailed means plan computation errored.
	StateFailed State = "failed"
	// StateStale means a ready plan's session has moved on since the plan
	// was computed (line count changed) and must be recomputed.
	StateStale State = "stale"
)

// Plan is the persisted pending-compact decision for one (session, agent)
// pair.
type Plan struct {
	SessionID      string    `json:"session_id"`
	Agent          string    `json:"agent"`
	Running        bool      `json:"running"`
	Ready          bool      `json:"ready"`
	Failed         bool      `json:"failed"`
	Error          string    `json:"error,omitempty"`
	ComputedAt     time.Time `json:"computed_at,omitempty"`
	BaseLineCount  int       `json:"base_line_count"`
	CutoffCount    int       `json:"cutoff_count"`
	TokensBefore   int       `json:"tokens_before"`
	TokensRemoved  int       `json:"tokens_removed"`
	SummaryText    string    `json:"summary_text,omitempty"`

	// TranscriptPath, SourceMtimeMs, and SourceSize are the source
	// fingerprint of spec.md §4.6/§6.2: the transcript path the plan was
	// computed against, and its {mtimeMs, size} at the moment the plan
	// became ready. Apply refuses (marks stale) unless both still match.
	TranscriptPath string `json:"transcript_path,omitempty"`
	SourceMtimeMs  int64  `json:"source_mtime_ms,omitempty"`
	SourceSize     int64  `json:"source_size,omitempty"`
}

// Load reads the pending-compact file at path, returning (nil, StateAbsent,
// nil) if it doesn't exist.
func Load(path string) (*Plan, State, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, StateAbsent, nil
		}
		return nil, StateAbsent, fmt.Errorf("reading pending-compact plan: %w", err)
	}
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, StateAbsent, fmt.Errorf("decoding pending-compact plan: %w", err)
	}
	return &p, classify(&p), nil
}

func classify(p *Plan) State {
	switch {
	case p.Running:
		return StateRunning
	case p.Failed:
		return StateFailed
	case p.Ready:
		return StateReady
	default:
		return StateAbsent
	}
}

// Save persists a plan atomically.
func Save(path string, p *Plan) error {
	data, err := jsonutil.MarshalIndentWithNewline(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding pending-compact plan: %w", err)
	}
	return jsonl.WriteAtomic(path, data)
}

// MarkRunning writes a fresh running=true plan, used the moment auto-compact
// decides a session has crossed its threshold and starts computing the
// actual cutoff.
func MarkRunning(path, sessionID, agent string, baseLineCount int) error {
	return Save(path, &Plan{
		SessionID:     sessionID,
		Agent:         agent,
		Running:       true,
		BaseLineCount: baseLineCount,
	})
}

// MarkReady finalizes a plan with its computed cutoff, tokens involved, and
// generated summary text.
func MarkReady(path string, p *Plan, cutoffCount int, change evsutil.ChangeSet, tokensBefore, tokensRemoved int, summaryText string) error {
	_ = change
	p.Running = false
	p.Ready = true
	p.Failed = false
	p.Error = ""
	p.ComputedAt = time.Now().UTC()
	p.CutoffCount = cutoffCount
	p.TokensBefore = tokensBefore
	p.TokensRemoved = tokensRemoved
	p.SummaryText = summaryText
	return Save(path, p)
}

// MarkFailed finalizes a plan as failed, recording the error that stopped
// computation.
func MarkFailed(path string, p *Plan, err error) error {
	p.Running = false
	p.Ready = false
	p.Failed = true
	p.Error = err.Error()
	p.ComputedAt = time.Now().UTC()
	return Save(path, p)
}

// SetSource stats transcriptPath and records its current {mtimeMs, size} on
// p as the source fingerprint a later Apply must match (spec.md §4.6's
// "source: {mtimeMs?, size?} of the transcript at plan time"). Does not
// persist p itself; callers Save it alongside whatever other transition
// they're making.
func SetSource(p *Plan, transcriptPath string) error {
	info, err := os.Stat(transcriptPath)
	if err != nil {
		return fmt.Errorf("stat transcript for source fingerprint: %w", err)
	}
	p.TranscriptPath = transcriptPath
	p.SourceMtimeMs = info.ModTime().UnixMilli()
	p.SourceSize = info.Size()
	return nil
}

// sourceStale reports whether p's recorded transcript fingerprint no
// longer matches the file on disk, per spec.md §4.6 "ready -> stale if the
// transcript's mtimeMs or size has changed since source was captured".
func sourceStale(p *Plan) (bool, error) {
	info, err := os.Stat(p.TranscriptPath)
	if err != nil {
		return false, fmt.Errorf("stat transcript to check staleness: %w", err)
	}
	return info.ModTime().UnixMilli() != p.SourceMtimeMs || info.Size() != p.SourceSize, nil
}

// IsStale reports whether a ready plan's BaseLineCount no longer matches
// the session's current line count — meaning new messages arrived since
// the plan was computed and it must be recomputed before applying (spec.md
// §4.9 "a ready plan whose session has moved on is stale, not applied").
func IsStale(p *Plan, currentLineCount int) bool {
	return p.Ready && p.BaseLineCount != currentLineCount
}

// ShouldTrigger decides whether a session crossing the configured
// threshold should start a new auto-compact computation: only when no plan
// exists, or the existing plan is stale or failed. A running or ready plan
// is left alone so auto-compact never computes two plans concurrently for
// the same session (spec.md §4.9, at-most-one-pending-plan-per-session).
func ShouldTrigger(state State, p *Plan, currentLineCount int) bool {
	switch state {
	case StateAbsent, StateFailed:
		return true
	case StateReady:
		return IsStale(p, currentLineCount)
	default: // StateRunning
		return false
	}
}
