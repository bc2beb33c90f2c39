// CLAUDE:SUMMARY Pure snapshot diff: Added/Removed/StatusChanged/SummaryChanged in config order.
package bill

import (
	"sort"
	"time"
)

// Diff compares two snapshots keyed by bill identifier and returns the
// classified change set. It is a pure function of its inputs: calling it
// twice on the same pair yields identical, identically-ordered output, and
// neither snapshot is mutated. Diff(s, s, ...) is always empty.
//
// At most one entry is emitted per identifier. When both status and summary
// moved in the same run, a single StatusChanged entry carries both deltas;
// SummaryChanged is emitted only when the status held still.
//
// Output ordering follows the identifier's position in order (the tracking
// configuration). Identifiers present in a snapshot but absent from order —
// bills dropped from the configuration — follow in lexicographic order so
// the result stays deterministic.
func Diff(previous, current Snapshot, order []string, detectedAt time.Time) []ChangeEntry {
	entries := make([]ChangeEntry, 0)
	for _, id := range orderedIDs(previous, current, order) {
		prev, inPrev := previous[id]
		cur, inCur := current[id]

		switch {
		case inCur && !inPrev:
			entries = append(entries, ChangeEntry{
				Identifier: id,
				Kind:       KindAdded,
				NewStatus:  cur.Status,
				NewSummary: cur.Summary,
				DetectedAt: detectedAt,
			})
		case inPrev && !inCur:
			entries = append(entries, ChangeEntry{
				Identifier: id,
				Kind:       KindRemoved,
				OldStatus:  prev.Status,
				OldSummary: prev.Summary,
				DetectedAt: detectedAt,
			})
		case prev.Status != cur.Status:
			e := ChangeEntry{
				Identifier: id,
				Kind:       KindStatusChanged,
				OldStatus:  prev.Status,
				NewStatus:  cur.Status,
				DetectedAt: detectedAt,
			}
			if prev.Summary != cur.Summary {
				e.OldSummary = prev.Summary
				e.NewSummary = cur.Summary
			}
			entries = append(entries, e)
		case prev.Summary != cur.Summary:
			entries = append(entries, ChangeEntry{
				Identifier: id,
				Kind:       KindSummaryChanged,
				OldStatus:  prev.Status,
				NewStatus:  cur.Status,
				OldSummary: prev.Summary,
				NewSummary: cur.Summary,
				DetectedAt: detectedAt,
			})
		}
	}
	return entries
}

// orderedIDs returns the union of both snapshots' identifiers, configured
// ones first in config order, stragglers after in lexicographic order.
func orderedIDs(previous, current Snapshot, order []string) []string {
	seen := make(map[string]bool, len(previous)+len(current))
	ids := make([]string, 0, len(previous)+len(current))

	for _, id := range order {
		if seen[id] {
			continue
		}
		if _, ok := previous[id]; !ok {
			if _, ok := current[id]; !ok {
				continue
			}
		}
		seen[id] = true
		ids = append(ids, id)
	}

	var rest []string
	for id := range previous {
		if !seen[id] {
			seen[id] = true
			rest = append(rest, id)
		}
	}
	for id := range current {
		if !seen[id] {
			seen[id] = true
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}
