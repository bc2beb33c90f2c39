// CLAUDE:SUMMARY Bill identifier canonicalization and raw-row normalization with HTML-stripped summaries.
package bill

import (
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// idPattern is the canonical identifier form: chamber prefix plus number,
// uppercase, no separators. HB1, SB200, HJR5, ...
var idPattern = regexp.MustCompile(`^(HB|SB|HJR|SJR|HR|SR)\d+$`)

// summaryPolicy strips all markup from summaries. LIS delivers summary text
// with embedded HTML; diffing must not be sensitive to markup noise.
var summaryPolicy = bluemonday.StrictPolicy()

// NormalizeID canonicalizes a bill identifier: all whitespace removed,
// uppercased, validated against the chamber-prefix+number form.
func NormalizeID(raw string) (string, error) {
	id := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if !idPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	return id, nil
}

// Normalize converts a raw row into a canonical Record keyed by its
// normalized identifier. Pure: no I/O, no mutation of the input.
// A malformed identifier or empty status returns an error; callers skip
// the row with a warning, never abort the batch.
func Normalize(row RawRow, observedAt time.Time) (string, Record, error) {
	id, err := NormalizeID(row.BillNumber)
	if err != nil {
		return "", Record{}, err
	}
	status := strings.TrimSpace(row.Status)
	if status == "" {
		return "", Record{}, fmt.Errorf("%w: %s has no status", ErrInvalidRow, id)
	}
	return id, Record{
		Status:         status,
		Summary:        CleanSummary(row.Summary),
		URL:            strings.TrimSpace(row.URL),
		LastObservedAt: observedAt,
	}, nil
}

// NormalizeBatch normalizes a raw batch into a Snapshot. Malformed rows are
// skipped with a warning. Duplicate identifiers within one batch are
// last-seen-wins, also with a warning.
func NormalizeBatch(rows []RawRow, observedAt time.Time, logger *slog.Logger) Snapshot {
	if logger == nil {
		logger = slog.Default()
	}
	snap := make(Snapshot, len(rows))
	for _, row := range rows {
		id, rec, err := Normalize(row, observedAt)
		if err != nil {
			logger.Warn("bill: skipping row", "bill_number", row.BillNumber, "error", err)
			continue
		}
		if _, dup := snap[id]; dup {
			logger.Warn("bill: duplicate identifier in batch, last seen wins", "identifier", id)
		}
		snap[id] = rec
	}
	return snap
}

// CleanSummary reduces a summary to plain text: markup stripped, entities
// decoded, whitespace collapsed.
func CleanSummary(s string) string {
	text := summaryPolicy.Sanitize(s)
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
