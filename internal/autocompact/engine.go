package autocompact

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/jsonl"
	"github.com/eversession/evs/internal/model"
	"github.com/eversession/evs/internal/ops"
	"github.com/eversession/evs/internal/tokens"
	"github.com/eversession/evs/internal/validate"
)

// ClaudeSummarizer is the pluggable summarize(messages) -> text collaborator
// of spec.md §6.3; the core only depends on this signature, never on a
// concrete model backend.
type ClaudeSummarizer func(chain []*model.ClaudeEntry) (string, error)

// CodexSummarizer is the Agent-X analogue of ClaudeSummarizer.
type CodexSummarizer func(entries []*model.CodexEntry) (string, error)

// LogEntry is one line of a session's audit log (spec.md §4.6/§6.2
// log.jsonl).
type LogEntry struct {
	Ts          string `json:"ts"`
	Result      string `json:"result"`
	Threshold   int    `json:"threshold,omitempty"`
	Tokens      int    `json:"tokens,omitempty"`
	Amount      int    `json:"amount,omitempty"`
	TokensAfter int    `json:"tokensAfter,omitempty"`
	Error       string `json:"error,omitempty"`
}

func appendLog(logPath, result string, fields LogEntry) {
	fields.Ts = time.Now().UTC().Format(time.RFC3339)
	fields.Result = result
	data, err := json.Marshal(fields)
	if err != nil {
		return
	}
	_ = jsonl.AppendLine(logPath, data) //nolint:errcheck // audit log is best-effort
}

// CheckClaude implements spec.md §4.9's decide-and-enqueue loop for an
// Agent-C transcript: compute current tokens, compare against threshold,
// and either skip (not_triggered/busy/already_ready), or mark a plan
// running, build its selection without touching the transcript, and
// transition it to ready (or failed on error). It never mutates the
// transcript itself — applying a ready plan is ApplyClaude's job, invoked from a
// safe boundary by the supervisor (spec.md §4.10).
func CheckClaude(planPath, logPath, transcriptPath, sessionID string, thresholdTokens int, summarize ClaudeSummarizer) (State, error) {
	s, err := model.ParseClaudeSessionFile(transcriptPath)
	if err != nil {
		return StateAbsent, fmt.Errorf("parsing transcript: %w", err)
	}
	chain := s.VisibleChain()
	currentTokens := tokens.CountClaudeChain(chain)

	if currentTokens < thresholdTokens {
		appendLog(logPath, "not_triggered", LogEntry{Threshold: thresholdTokens, Tokens: currentTokens})
		return StateAbsent, nil
	}

	existing, state, err := Load(planPath)
	if err != nil {
		return StateAbsent, err
	}
	if !ShouldTrigger(state, existing, len(s.Entries)) {
		appendLog(logPath, string(busyOrReady(state)), LogEntry{Threshold: thresholdTokens, Tokens: currentTokens})
		return state, nil
	}

	if err := MarkRunning(planPath, sessionID, "claude", len(s.Entries)); err != nil {
		return StateAbsent, err
	}
	p, _, err := Load(planPath)
	if err != nil {
		return StateAbsent, err
	}
	if err := SetSource(p, transcriptPath); err != nil {
		_ = MarkFailed(planPath, p, err)
		appendLog(logPath, "failed", LogEntry{Error: err.Error()})
		return StateFailed, err
	}

	cutoff, tokensRemoved := tokens.PlanClaudePrefixRemoval(chain, thresholdTokens)
	summaryText, err := summarize(chain[:cutoff])
	if err != nil {
		_ = MarkFailed(planPath, p, err)
		appendLog(logPath, "failed", LogEntry{Error: err.Error()})
		return StateFailed, err
	}

	if err := MarkReady(planPath, p, cutoff, evsutil.ChangeSet{}, currentTokens, tokensRemoved, summaryText); err != nil {
		return StateAbsent, err
	}
	appendLog(logPath, "ready", LogEntry{Threshold: thresholdTokens, Tokens: currentTokens, Amount: cutoff, TokensAfter: currentTokens - tokensRemoved})
	return StateReady, nil
}

func busyOrReady(s State) string {
	if s == StateReady {
		return "already_ready"
	}
	return "busy"
}

// ApplyClaude applies a ready, non-stale plan at planPath to its recorded
// transcript: re-parse the current file, confirm the source fingerprint
// still matches, run the stored cutoff/summary through ops.CompactClaude,
// re-validate, and only write (with a backup) if the error count did not
// worsen — the OperationRefused guard of spec.md §7, reused verbatim from
// the plan-application path since this is the one rewrite that never has a
// human present to pass --force. Clears the plan file on success.
func ApplyClaude(planPath, logPath string) (applied bool, err error) {
	p, state, err := Load(planPath)
	if err != nil {
		return false, err
	}
	if state != StateReady {
		return false, fmt.Errorf("plan is not ready (state=%s)", state)
	}

	stale, err := sourceStale(p)
	if err != nil {
		return false, err
	}
	if stale {
		p.Ready = false
		_ = Save(planPath, p) //nolint:errcheck // best-effort stale marker
		appendLog(logPath, "stale", LogEntry{})
		return false, fmt.Errorf("pending plan is stale: transcript changed since it became ready")
	}

	s, err := model.ParseClaudeSessionFile(p.TranscriptPath)
	if err != nil {
		return false, fmt.Errorf("parsing transcript: %w", err)
	}
	before := validate.ValidateClaude(s).ErrorCount()

	amount := evsutil.Amount{Kind: evsutil.AmountCount, Value: float64(p.CutoffCount)}
	result := ops.CompactClaude(s, amount, p.SummaryText, time.Now().UTC().Format(time.RFC3339))

	data, err := model.MergeClaudeOutput(result.Entries, s.Invalid)
	if err != nil {
		return false, fmt.Errorf("rendering compaction: %w", err)
	}
	reparsed, err := model.ParseClaudeSession(data)
	if err != nil {
		return false, fmt.Errorf("re-parsing compaction: %w", err)
	}
	after := validate.ValidateClaude(reparsed).ErrorCount()
	if after > before {
		worseErr := fmt.Errorf("refusing to apply pending compaction: %d errors, up from %d", after, before)
		_ = MarkFailed(planPath, p, worseErr) //nolint:errcheck // leave plan as failed for the next check to see
		appendLog(logPath, "failed", LogEntry{Error: "compaction would worsen validator errors"})
		return false, worseErr
	}

	if _, err := jsonl.CreateBackup(p.TranscriptPath); err != nil {
		return false, fmt.Errorf("backing up before apply: %w", err)
	}
	if err := jsonl.WriteAtomic(p.TranscriptPath, data); err != nil {
		return false, fmt.Errorf("writing compacted transcript: %w", err)
	}
	if err := os.Remove(planPath); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("clearing applied plan: %w", err)
	}
	appendLog(logPath, "applied", LogEntry{Amount: p.CutoffCount})
	return true, nil
}

// CheckCodex is CheckClaude's Agent-X analogue: same decide-and-enqueue
// contract, but counting/selecting over a CodexSession's raw entry list
// rather than Agent-C's reconstructed visible chain (Agent-X has no
// separate visible-vs-stored distinction at this layer).
func CheckCodex(planPath, logPath, transcriptPath, sessionID string, legacy bool, thresholdTokens int, summarize CodexSummarizer) (State, error) {
	s, err := model.ParseCodexSessionFile(transcriptPath, legacy)
	if err != nil {
		return StateAbsent, fmt.Errorf("parsing transcript: %w", err)
	}
	currentTokens := tokens.CountCodexSession(s.Entries)

	if currentTokens < thresholdTokens {
		appendLog(logPath, "not_triggered", LogEntry{Threshold: thresholdTokens, Tokens: currentTokens})
		return StateAbsent, nil
	}

	existing, state, err := Load(planPath)
	if err != nil {
		return StateAbsent, err
	}
	if !ShouldTrigger(state, existing, len(s.Entries)) {
		appendLog(logPath, string(busyOrReady(state)), LogEntry{Threshold: thresholdTokens, Tokens: currentTokens})
		return state, nil
	}

	if err := MarkRunning(planPath, sessionID, "codex", len(s.Entries)); err != nil {
		return StateAbsent, err
	}
	p, _, err := Load(planPath)
	if err != nil {
		return StateAbsent, err
	}
	if err := SetSource(p, transcriptPath); err != nil {
		_ = MarkFailed(planPath, p, err)
		appendLog(logPath, "failed", LogEntry{Error: err.Error()})
		return StateFailed, err
	}

	cutoff, tokensRemoved := tokens.PlanCodexPrefixRemoval(s.Entries, thresholdTokens)
	summaryText, err := summarize(s.Entries[:cutoff])
	if err != nil {
		_ = MarkFailed(planPath, p, err)
		appendLog(logPath, "failed", LogEntry{Error: err.Error()})
		return StateFailed, err
	}

	if err := MarkReady(planPath, p, cutoff, evsutil.ChangeSet{}, currentTokens, tokensRemoved, summaryText); err != nil {
		return StateAbsent, err
	}
	appendLog(logPath, "ready", LogEntry{Threshold: thresholdTokens, Tokens: currentTokens, Amount: cutoff, TokensAfter: currentTokens - tokensRemoved})
	return StateReady, nil
}

// ApplyCodex is ApplyClaude's Agent-X analogue.
func ApplyCodex(planPath, logPath string, legacy bool) (applied bool, err error) {
	p, state, err := Load(planPath)
	if err != nil {
		return false, err
	}
	if state != StateReady {
		return false, fmt.Errorf("plan is not ready (state=%s)", state)
	}

	stale, err := sourceStale(p)
	if err != nil {
		return false, err
	}
	if stale {
		p.Ready = false
		_ = Save(planPath, p) //nolint:errcheck // best-effort stale marker
		appendLog(logPath, "stale", LogEntry{})
		return false, fmt.Errorf("pending plan is stale: transcript changed since it became ready")
	}

	s, err := model.ParseCodexSessionFile(p.TranscriptPath, legacy)
	if err != nil {
		return false, fmt.Errorf("parsing transcript: %w", err)
	}
	before := validate.ValidateCodex(s).ErrorCount()

	amount := evsutil.Amount{Kind: evsutil.AmountCount, Value: float64(p.CutoffCount)}
	result := ops.CompactCodex(s, amount, p.SummaryText, time.Now().UTC().Format(time.RFC3339))

	data, err := model.MergeCodexOutput(result.Entries, s.Invalid)
	if err != nil {
		return false, fmt.Errorf("rendering compaction: %w", err)
	}
	reparsed, err := model.ParseCodexSession(data, legacy)
	if err != nil {
		return false, fmt.Errorf("re-parsing compaction: %w", err)
	}
	after := validate.ValidateCodex(reparsed).ErrorCount()
	if after > before {
		worseErr := fmt.Errorf("refusing to apply pending compaction: %d errors, up from %d", after, before)
		_ = MarkFailed(planPath, p, worseErr) //nolint:errcheck // leave plan as failed for the next check to see
		appendLog(logPath, "failed", LogEntry{Error: "compaction would worsen validator errors"})
		return false, worseErr
	}

	if _, err := jsonl.CreateBackup(p.TranscriptPath); err != nil {
		return false, fmt.Errorf("backing up before apply: %w", err)
	}
	if err := jsonl.WriteAtomic(p.TranscriptPath, data); err != nil {
		return false, fmt.Errorf("writing compacted transcript: %w", err)
	}
	if err := os.Remove(planPath); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("clearing applied plan: %w", err)
	}
	appendLog(logPath, "applied", LogEntry{Amount: p.CutoffCount})
	return true, nil
}
