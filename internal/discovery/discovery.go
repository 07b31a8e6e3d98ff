// Package discovery finds and scores candidate transcript files for a
// working directory (spec.md §4.11, component K), across both agent
// formats and both of Agent-X's on-disk layouts.
package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/eversession/evs/internal/detect"
	"github.com/eversession/evs/internal/evspaths"
	"github.com/eversession/evs/internal/model"
)

// CodexStateEntry is one cwd's record in the cwd→thread-id state file
// maintained by the Agent-X notify hook (spec.md §6.1 codex-state.json).
type CodexStateEntry struct {
	ThreadID string `json:"threadId"`
	Path     string `json:"path"`
}

func parseCodexState(data []byte) (map[string]string, error) {
	var raw map[string]CodexStateEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for cwd, entry := range raw {
		out[cwd] = entry.Path
	}
	return out, nil
}

// Confidence grades how sure Best is that its pick is the right transcript
// for the target cwd — a property of the whole candidate set, not of a
// single candidate in isolation (spec.md §4.11: "high when the top score
// exceeds the runner-up by a safe margin ... else medium; pure fallback
// matches are low").
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

// Agent identifies which agent format a candidate belongs to.
type Agent string

const (
	AgentClaude Agent = "claude"
	AgentCodex  Agent = "codex"
)

// Point values from spec.md §4.11's Agent-C scoring rule.
const (
	scoreInProjectDir   = 100
	scoreSessionIDMatch = 30
	scoreCwdReference   = 20
	scoreFormatAgrees   = 20
	scoreInvalidJSON    = -50
)

// headTailSample bounds how many entries from the start and end of a file
// are inspected for the cwd-reference and summary-only checks.
const headTailSample = 10

// defaultLookbackDays is used by DiscoverCodex when the caller passes a
// non-positive value.
const defaultLookbackDays = 30

// Candidate is one discovered transcript file.
type Candidate struct {
	Path    string
	Agent   Agent
	Score   int
	ModTime time.Time
	// TailTS is the most recent entry timestamp found in the file, used to
	// break score ties (spec.md §4.11: "most-recent timestamp in the tail,
	// then mtime").
	TailTS time.Time
	// Legacy is true for Agent-X's flat legacy rollup / state-file layout.
	Legacy bool
	// Fallback marks a candidate chosen with no scoring signal at all (e.g.
	// Agent-X's cwd state-file override, or "most recent" when nothing
	// matched cwd) — such a pick can never be better than low confidence.
	Fallback bool
}

// DiscoverClaude finds candidate Agent-C transcripts for cwd by checking
// both possible project-directory spellings (spec.md §4.11 "hash(cwd) has
// two historical spellings"), scoring each file found there.
func DiscoverClaude(cwd string) ([]Candidate, error) {
	dirA, dirB, err := evspaths.ClaudeCandidateDirs(cwd)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, dir := range []string{dirA, dirB} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, ent := range entries {
			if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".jsonl") {
				continue
			}
			if c, ok := scoreClaudeFile(filepath.Join(dir, ent.Name()), cwd); ok {
				out = append(out, c)
			}
		}
	}
	sortCandidates(out)
	return out, nil
}

func scoreClaudeFile(path, cwd string) (Candidate, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, false
	}
	s, err := model.ParseClaudeSessionFile(path)
	if err != nil {
		return Candidate{}, false
	}
	if info.Size() > 0 && isSummaryOnlyClaude(s.Entries) {
		return Candidate{}, false
	}

	score := scoreInProjectDir
	if len(s.Invalid) > 0 {
		score += scoreInvalidJSON
	}
	if res, err := detect.DetectFile(path); err == nil && res.Format == detect.ClaudeCode {
		score += scoreFormatAgrees
	}

	base := strings.TrimSuffix(filepath.Base(path), ".jsonl")
	var tailTS time.Time
	for _, sample := range claudeHeadTail(s.Entries) {
		if sample.SessionID() == base {
			score += scoreSessionIDMatch
			break
		}
	}
	if claudeSampleReferencesCwd(claudeHeadTail(s.Entries), cwd) {
		score += scoreCwdReference
	}
	for _, e := range s.Entries {
		if ts, ok := parseTimestamp(e.Timestamp()); ok && ts.After(tailTS) {
			tailTS = ts
		}
	}

	return Candidate{Path: path, Agent: AgentClaude, Score: score, ModTime: info.ModTime(), TailTS: tailTS}, true
}

// isSummaryOnlyClaude rejects files whose head and tail contain no user or
// assistant entries — summary-only or file-history-snapshot-only files
// (spec.md §4.11).
func isSummaryOnlyClaude(entries []*model.ClaudeEntry) bool {
	for _, e := range claudeHeadTail(entries) {
		if e.Type() == "user" || e.Type() == "assistant" {
			return false
		}
	}
	return true
}

func claudeHeadTail(entries []*model.ClaudeEntry) []*model.ClaudeEntry {
	if len(entries) <= 2*headTailSample {
		return entries
	}
	out := make([]*model.ClaudeEntry, 0, 2*headTailSample)
	out = append(out, entries[:headTailSample]...)
	out = append(out, entries[len(entries)-headTailSample:]...)
	return out
}

func claudeSampleReferencesCwd(sample []*model.ClaudeEntry, cwd string) bool {
	for _, e := range sample {
		if e.Cwd() == cwd {
			return true
		}
	}
	return false
}

// DiscoverCodex finds candidate Agent-X transcripts for cwd: it scans the
// per-project-by-date sessions tree (wrapped format) bounded to the last
// lookbackDays days, preferring files whose session_meta.payload.cwd
// matches, and falls back to the cwd→thread-id state file when no file in
// the window matches (spec.md §4.11).
func DiscoverCodex(cwd string, lookbackDays int) ([]Candidate, error) {
	if lookbackDays <= 0 {
		lookbackDays = defaultLookbackDays
	}
	sessionsDir, err := evspaths.CodexSessionsDir()
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().AddDate(0, 0, -lookbackDays)

	var out []Candidate
	for _, dayDir := range codexDayDirsSince(sessionsDir, cutoff) {
		entries, err := os.ReadDir(dayDir)
		if err != nil {
			continue
		}
		for _, ent := range entries {
			if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".jsonl") {
				continue
			}
			if c, ok := scoreCodexFile(filepath.Join(dayDir, ent.Name()), cwd); ok {
				out = append(out, c)
			}
		}
	}

	if !anyMatchesCwd(out) {
		if stateFile, err := evspaths.CodexStateFile(); err == nil {
			if path, ok := codexStateOverride(stateFile, cwd); ok {
				if info, err := os.Stat(path); err == nil {
					out = append(out, Candidate{Path: path, Agent: AgentCodex, ModTime: info.ModTime(), Legacy: true, Fallback: true})
				}
			}
		}
	}

	sortCandidates(out)
	return out, nil
}

func anyMatchesCwd(candidates []Candidate) bool {
	for _, c := range candidates {
		if c.Score > 0 {
			return true
		}
	}
	return false
}

// codexDayDirsSince enumerates "<sessionsDir>/YYYY/MM/DD" directories whose
// date is on or after cutoff, bounding the walk to lookback_days rather than
// scanning the entire sessions tree (spec.md §4.11).
func codexDayDirsSince(sessionsDir string, cutoff time.Time) []string {
	cutoffStr := cutoff.Format("2006-01-02")

	years, err := os.ReadDir(sessionsDir)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, y := range years {
		if !y.IsDir() {
			continue
		}
		yearPath := filepath.Join(sessionsDir, y.Name())
		months, err := os.ReadDir(yearPath)
		if err != nil {
			continue
		}
		for _, m := range months {
			if !m.IsDir() {
				continue
			}
			monthPath := filepath.Join(yearPath, m.Name())
			days, err := os.ReadDir(monthPath)
			if err != nil {
				continue
			}
			for _, d := range days {
				if !d.IsDir() {
					continue
				}
				dateStr := fmt.Sprintf("%s-%s-%s", y.Name(), m.Name(), d.Name())
				if dateStr < cutoffStr {
					continue
				}
				dirs = append(dirs, filepath.Join(monthPath, d.Name()))
			}
		}
	}
	return dirs
}

func scoreCodexFile(path, cwd string) (Candidate, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, false
	}
	s, err := model.ParseCodexSessionFile(path, false)
	if err != nil || len(s.Entries) == 0 {
		return Candidate{}, false
	}

	score := 0
	var tailTS time.Time
	for _, e := range s.Entries {
		if e.Type() == model.CodexTypeSessionMeta && e.SessionMetaCwd() == cwd {
			score = scoreInProjectDir
		}
		if ts, ok := parseTimestamp(e.Timestamp()); ok && ts.After(tailTS) {
			tailTS = ts
		}
	}
	if len(s.Invalid) > 0 {
		score += scoreInvalidJSON
	}

	return Candidate{Path: path, Agent: AgentCodex, Score: score, ModTime: info.ModTime(), TailTS: tailTS}, true
}

// codexStateOverride reads the cwd→thread-id state file and, if it has an
// entry for cwd, returns the transcript path it points at.
func codexStateOverride(stateFile, cwd string) (string, bool) {
	data, err := os.ReadFile(stateFile) //nolint:gosec // evs-owned state file
	if err != nil {
		return "", false
	}
	entries, err := parseCodexState(data)
	if err != nil {
		return "", false
	}
	path, ok := entries[cwd]
	return path, ok && path != ""
}

func parseTimestamp(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func sortCandidates(c []Candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Score != c[j].Score {
			return c[i].Score > c[j].Score
		}
		if !c[i].TailTS.Equal(c[j].TailTS) {
			return c[i].TailTS.After(c[j].TailTS)
		}
		return c[i].ModTime.After(c[j].ModTime)
	})
}

// Best returns the single most likely candidate plus the confidence EVS
// should report alongside it: high when the top score clears the runner-up
// by a safe margin, medium otherwise, and low for a pure fallback match with
// no scoring signal (spec.md §4.11). Returns ok=false if candidates is
// empty.
func Best(candidates []Candidate) (Candidate, Confidence, bool) {
	if len(candidates) == 0 {
		return Candidate{}, ConfidenceLow, false
	}
	sorted := append([]Candidate(nil), candidates...)
	sortCandidates(sorted)
	best := sorted[0]

	if best.Fallback || best.Score <= 0 {
		return best, ConfidenceLow, true
	}
	if len(sorted) == 1 {
		return best, ConfidenceHigh, true
	}
	runnerUp := sorted[1]
	const safeMarginScore = 30
	scoreMargin := best.Score - runnerUp.Score
	recencyOK := !best.TailTS.Before(runnerUp.TailTS)
	if scoreMargin >= safeMarginScore && recencyOK {
		return best, ConfidenceHigh, true
	}
	return best, ConfidenceMedium, true
}
