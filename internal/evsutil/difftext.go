package evsutil

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineDiff returns a unified-ish, human-readable line diff between before
// and after, used by report/dry-run output to show a reader what a rewrite
// changed (spec.md §7 "operations never apply partial changes", surfaced as
// a readable summary rather than raw JSON).
func LineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			fmt.Fprintf(&sb, "%s%s\n", prefix, line)
		}
	}
	return sb.String()
}

// EntryDiff renders a single-line before/after diff for one changed
// transcript line, used in ChangeSet.Summary()-adjacent report output when
// the caller wants to show the actual content change rather than just the
// reason.
func EntryDiff(line int, before, after []byte) string {
	if string(before) == string(after) {
		return ""
	}
	return fmt.Sprintf("line %d:\n%s", line, LineDiff(string(before), string(after)))
}
