// CLAUDE:SUMMARY Bounded change log: FIFO-capped append, oldest entries first.
package bill

// MaxLogEntries caps the persisted change log. When an append batch pushes
// the log past the cap, the oldest entries are evicted first.
const MaxLogEntries = 1000

// AppendLog appends entries to the log in the order produced by Diff and
// enforces the retention cap. The log is ordered oldest first; new entries
// land at the end. Existing entries are never reordered and never
// deduplicated — the same change reported on two different runs is two
// distinct, valid entries.
//
// The input slice is not mutated; the returned slice is a fresh allocation.
func AppendLog(log, entries []ChangeEntry) []ChangeEntry {
	out := make([]ChangeEntry, 0, len(log)+len(entries))
	out = append(out, log...)
	out = append(out, entries...)
	if len(out) > MaxLogEntries {
		out = out[len(out)-MaxLogEntries:]
	}
	return out
}
