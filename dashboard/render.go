// CLAUDE:SUMMARY Renders the static bill-status dashboard HTML from a run result.
// Package dashboard renders tracking results as a static HTML page and,
// optionally, serves them over HTTP. Rendering is a pure function of the run
// result; the tracker owns all persisted state.
package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/hazyhaar/legiswatch/tracker/bill"
	"github.com/hazyhaar/legiswatch/tracker/run"
)

// recentChanges caps the "Recent Changes" section of the page.
const recentChanges = 10

type pageData struct {
	SyncedAt    string
	ChangeCount int
	Bills       []billCard
	Missing     []bill.Missing
	Recent      []changeRow
}

type billCard struct {
	Identifier  string
	Status      string
	StatusClass string
	Summary     string
	URL         string
	Changed     bool
}

type changeRow struct {
	Message    string
	DetectedAt string
}

// Render produces the dashboard HTML for a run result. Bills appear in
// tracking-configuration order; the recent-changes section shows the newest
// entries of this run, newest first, capped at ten.
func Render(res *run.Result) ([]byte, error) {
	changed := make(map[string]bool, len(res.Changes))
	for _, c := range res.Changes {
		changed[c.Identifier] = true
	}

	data := pageData{
		SyncedAt:    res.FinishedAt.Format("January 2, 2006 at 3:04 PM MST"),
		ChangeCount: len(res.Changes),
		Missing:     res.Missing,
	}

	for _, id := range res.Order {
		rec, ok := res.Snapshot[id]
		if !ok {
			continue
		}
		data.Bills = append(data.Bills, billCard{
			Identifier:  id,
			Status:      rec.Status,
			StatusClass: statusClass(rec.Status),
			Summary:     rec.Summary,
			URL:         rec.URL,
			Changed:     changed[id],
		})
	}

	for i := len(res.Changes) - 1; i >= 0 && len(data.Recent) < recentChanges; i-- {
		c := res.Changes[i]
		data.Recent = append(data.Recent, changeRow{
			Message:    changeMessage(c),
			DetectedAt: c.DetectedAt.Format("January 2, 2006 at 3:04 PM"),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("dashboard: render: %w", err)
	}
	return buf.Bytes(), nil
}

// statusClass maps a free-text status label to a CSS class suffix.
func statusClass(status string) string {
	return strings.ReplaceAll(strings.ToLower(status), " ", "-")
}

// changeMessage renders one change entry as a human-readable line.
func changeMessage(c bill.ChangeEntry) string {
	switch c.Kind {
	case bill.KindAdded:
		return fmt.Sprintf("Started tracking %s (%s)", c.Identifier, c.NewStatus)
	case bill.KindRemoved:
		return fmt.Sprintf("%s no longer reported (was %s)", c.Identifier, c.OldStatus)
	case bill.KindStatusChanged:
		return fmt.Sprintf("%s status changed: %s → %s", c.Identifier, c.OldStatus, c.NewStatus)
	case bill.KindSummaryChanged:
		return fmt.Sprintf("%s summary updated", c.Identifier)
	default:
		return fmt.Sprintf("%s changed", c.Identifier)
	}
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Virginia Bill Tracker</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
       background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); min-height: 100vh; padding: 20px; }
.container { max-width: 1200px; margin: 0 auto; }
.header { background: white; padding: 30px; border-radius: 10px; margin-bottom: 20px; }
.sync-time { color: #667eea; font-weight: 600; }
.changes-banner { background: #fef3c7; border-left: 4px solid #f59e0b; padding: 15px;
                  margin-bottom: 20px; border-radius: 5px; }
.changes-banner.no-changes { background: #d1fae5; border-left-color: #10b981; }
.bills-grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(350px, 1fr));
              gap: 20px; margin-bottom: 30px; }
.bill-card { background: white; padding: 20px; border-radius: 10px; }
.bill-card.has-changes { border: 2px solid #f59e0b; background: #fffbeb; }
.bill-number { font-size: 24px; font-weight: bold; color: #667eea; margin-bottom: 10px; }
.bill-status { display: inline-block; padding: 5px 12px; border-radius: 20px;
               font-size: 12px; font-weight: 600; margin-bottom: 10px; background: #e5e7eb; }
.status-in-committee { background: #dbeafe; color: #1e40af; }
.status-passed { background: #d1fae5; color: #065f46; }
.status-failed { background: #fee2e2; color: #991b1b; }
.bill-summary { color: #666; font-size: 14px; line-height: 1.6; margin-bottom: 15px; }
.bill-link { color: #667eea; text-decoration: none; font-size: 14px; font-weight: 500; }
.change-badge { background: #fef3c7; color: #92400e; padding: 3px 8px; border-radius: 4px;
                font-size: 11px; font-weight: 600; margin-left: 8px; }
.changes-section { background: white; padding: 20px; border-radius: 10px; }
.change-item { padding: 12px; border-left: 3px solid #f59e0b; background: #fffbeb;
               margin-bottom: 10px; border-radius: 4px; }
.change-timestamp { color: #666; font-size: 12px; }
.missing-note { color: #991b1b; font-size: 13px; margin-bottom: 20px; }
.no-bills { background: white; padding: 40px; border-radius: 10px; text-align: center; color: #666; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>Virginia Bill Tracker</h1>
    <div>Last synced: <span class="sync-time">{{.SyncedAt}}</span></div>
  </div>

  {{if .ChangeCount}}<div class="changes-banner"><strong>{{.ChangeCount}} change(s) detected since last sync</strong></div>
  {{else}}<div class="changes-banner no-changes"><strong>No changes detected</strong></div>{{end}}

  {{if .Missing}}<div class="missing-note">No data this run for:
    {{range $i, $m := .Missing}}{{if $i}}, {{end}}<a href="{{$m.URL}}">{{$m.Identifier}}</a>{{end}}
  </div>{{end}}

  {{if .Bills}}
  <div class="bills-grid">
    {{range .Bills}}
    <div class="bill-card{{if .Changed}} has-changes{{end}}">
      <div class="bill-number">{{.Identifier}}{{if .Changed}}<span class="change-badge">UPDATED</span>{{end}}</div>
      <div class="bill-status status-{{.StatusClass}}">{{.Status}}</div>
      <div class="bill-summary">{{if .Summary}}{{.Summary}}{{else}}No summary available{{end}}</div>
      <a href="{{.URL}}" target="_blank" class="bill-link">View on LIS →</a>
    </div>
    {{end}}
  </div>
  {{else}}
  <div class="no-bills">
    <h2>No Bills Tracked</h2>
    <p>Add bill identifiers to the tracking configuration to start monitoring.</p>
  </div>
  {{end}}

  {{if .Recent}}
  <div class="changes-section">
    <h2>Recent Changes</h2>
    {{range .Recent}}
    <div class="change-item">
      <div>{{.Message}}</div>
      <div class="change-timestamp">{{.DetectedAt}}</div>
    </div>
    {{end}}
  </div>
  {{end}}
</div>
</body>
</html>
`))
