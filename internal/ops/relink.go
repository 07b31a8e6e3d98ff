package ops

import (
	"strconv"

	"github.com/eversession/evs/internal/model"
)

// RelinkClaude walks, for every surviving entry whose parentUuid points at
// a line marked for removal, up the original parent chain until it finds a
// surviving ancestor (or the root), and repoints parentUuid there. Bounded
// at maxRelinkHops so a cyclical or pathological chain cannot hang an
// operation.
func RelinkClaude(s *model.ClaudeSession, sel *Selection) *ChangeLog {
	log := &ChangeLog{}

	for _, e := range s.Entries {
		if sel.Has(e.Line) {
			continue
		}
		ref := e.ParentUUID()
		if !ref.Points() {
			continue
		}
		parent, ok := s.ByUUID(ref.UUID)
		if !ok || !sel.Has(parent.Line) {
			continue
		}

		newParent := findSurvivingAncestor(s, sel, parent)
		if newParent == nil {
			e.SetParentNull()
			log.Add(e.Line, "parent chain removed, relinked to root")
			continue
		}
		e.SetParentUUID(newParent.UUID())
		log.Add(e.Line, "relinked to surviving ancestor at line "+strconv.Itoa(newParent.Line))
	}

	return log
}

func findSurvivingAncestor(s *model.ClaudeSession, sel *Selection, start *model.ClaudeEntry) *model.ClaudeEntry {
	cur := start
	seen := map[string]bool{}
	for hop := 0; hop < maxRelinkHops; hop++ {
		if cur == nil {
			return nil
		}
		if !sel.Has(cur.Line) {
			return cur
		}
		if seen[cur.UUID()] {
			return nil
		}
		seen[cur.UUID()] = true

		ref := cur.ParentUUID()
		if !ref.Points() {
			return nil
		}
		next, ok := s.ByUUID(ref.UUID)
		if !ok {
			return nil
		}
		cur = next
	}
	return nil
}

// ChangeLog records the relinking decisions made for a rewrite, which feed
// into the ChangeSet a caller reports back to the user.
type ChangeLog struct {
	Entries []ChangeLogEntry
}

// ChangeLogEntry is one relinking decision.
type ChangeLogEntry struct {
	Line   int
	Reason string
}

// Add appends a decision to the log.
func (c *ChangeLog) Add(line int, reason string) {
	c.Entries = append(c.Entries, ChangeLogEntry{Line: line, Reason: reason})
}
