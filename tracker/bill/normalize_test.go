package bill

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeID(t *testing.T) {
	valid := map[string]string{
		"hb1":     "HB1",
		"HB1":     "HB1",
		" HB1 ":   "HB1",
		"hb 1":    "HB1",
		"sjr100":  "SJR100",
		"Sb200":   "SB200",
		"\tHR7\n": "HR7",
	}
	for raw, want := range valid {
		got, err := NormalizeID(raw)
		if err != nil {
			t.Errorf("NormalizeID(%q): unexpected error %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeID(%q): got %q, want %q", raw, got, want)
		}
	}

	invalid := []string{"", "HB", "1", "XB1", "HB1a", "1HB", "H B", "SBx"}
	for _, raw := range invalid {
		if got, err := NormalizeID(raw); err == nil {
			t.Errorf("NormalizeID(%q): got %q, want error", raw, got)
		} else if !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("NormalizeID(%q): error %v, want ErrInvalidIdentifier", raw, err)
		}
	}
}

func TestNormalizeRow(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	id, rec, err := Normalize(RawRow{
		BillNumber: " hb12 ",
		Status:     "In Committee",
		Summary:    "<p>Provides for <b>school funding</b>.</p>",
		URL:        "https://lis.virginia.gov/bill-details/20261/HB12",
	}, now)
	if err != nil {
		t.Fatal(err)
	}
	if id != "HB12" {
		t.Errorf("id: got %q, want HB12", id)
	}
	if rec.Status != "In Committee" {
		t.Errorf("Status: got %q", rec.Status)
	}
	if rec.Summary != "Provides for school funding." {
		t.Errorf("Summary: got %q", rec.Summary)
	}
	if !rec.LastObservedAt.Equal(now) {
		t.Errorf("LastObservedAt: got %v, want %v", rec.LastObservedAt, now)
	}
}

func TestNormalizeRejectsMissingStatus(t *testing.T) {
	_, _, err := Normalize(RawRow{BillNumber: "HB1", Status: "  "}, time.Now())
	if !errors.Is(err, ErrInvalidRow) {
		t.Fatalf("got %v, want ErrInvalidRow", err)
	}
}

func TestNormalizeBatchSkipsAndDedups(t *testing.T) {
	now := time.Now()
	rows := []RawRow{
		{BillNumber: "HB1", Status: "Pending"},
		{BillNumber: "bogus", Status: "Pending"},       // skipped
		{BillNumber: "SB2", Status: ""},                // skipped: no status
		{BillNumber: "hb1", Status: "Passed"},          // duplicate, last seen wins
		{BillNumber: "SB2", Status: "In Committee"},
	}
	snap := NormalizeBatch(rows, now, nil)
	if len(snap) != 2 {
		t.Fatalf("len: got %d, want 2", len(snap))
	}
	if snap["HB1"].Status != "Passed" {
		t.Errorf("HB1 status: got %q, want Passed (last seen wins)", snap["HB1"].Status)
	}
	if snap["SB2"].Status != "In Committee" {
		t.Errorf("SB2 status: got %q", snap["SB2"].Status)
	}
}

func TestCleanSummary(t *testing.T) {
	cases := map[string]string{
		"plain text":                         "plain text",
		"<p>one</p>\n<p>two</p>":             "one two",
		"a &amp; b":                          "a & b",
		"<script>alert(1)</script>expanded":  "expanded",
		"  spaced\t\tout  ":                  "spaced out",
	}
	for in, want := range cases {
		if got := CleanSummary(in); got != want {
			t.Errorf("CleanSummary(%q): got %q, want %q", in, got, want)
		}
	}
}
