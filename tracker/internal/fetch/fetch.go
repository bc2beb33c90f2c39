// CLAUDE:SUMMARY LIS bill lookup client: search-API primary path, per-bill HTML fallback with bounded fan-out.
// Package fetch retrieves raw bill rows from the Virginia LIS service.
//
// The primary path is one POST to the legislation search endpoint — the same
// query that populates the bill-search page — filtered down to the tracked
// identifiers. When the search API is unreachable the client degrades to
// fetching per-bill detail pages concurrently and scraping status and summary
// out of the HTML. Either way a bill that cannot be resolved becomes a
// "missing" marker, never a batch failure.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/legiswatch/tracker/bill"
)

// Config configures the LIS client.
type Config struct {
	// BaseURL of the LIS service. Default: https://lis.virginia.gov.
	BaseURL string `yaml:"base_url"`
	// SessionID is the API session identifier used in search payloads.
	SessionID int `yaml:"session_id"`
	// SessionCode is the session tag embedded in bill-details URLs
	// (e.g. "20261" for the 2026 regular session).
	SessionCode string `yaml:"session_code"`
	// Timeout bounds each HTTP request. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`
	// MaxBytes caps a response body. Default: 10MB.
	MaxBytes int64 `yaml:"max_bytes"`
	// UserAgent sent with requests.
	UserAgent string `yaml:"user_agent"`
	// Concurrency bounds the per-bill fallback fan-out. Default: 4.
	Concurrency int `yaml:"concurrency"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://lis.virginia.gov"
	}
	if c.SessionID == 0 {
		c.SessionID = 59
	}
	if c.SessionCode == "" {
		c.SessionCode = "20261"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "legiswatch/1.0"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
}

// Client performs LIS lookups.
type Client struct {
	client *http.Client
	config Config
	logger *slog.Logger
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) *Client {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
		logger: logger,
	}
}

// Result is the outcome of one batch lookup.
type Result struct {
	// Rows holds the raw rows found, keyed by normalized identifier.
	Rows map[string]bill.RawRow
	// Missing lists tracked identifiers that could not be resolved this
	// run, each with a constructed detail URL so the dashboard can still
	// link to the bill.
	Missing []bill.Missing
}

// FetchAll looks up every tracked identifier, best effort. Per-bill failures
// degrade to Missing markers; the only returned error is context
// cancellation. All fetching converges here before the caller diffs.
func (c *Client) FetchAll(ctx context.Context, tracked []string) (*Result, error) {
	res := &Result{Rows: make(map[string]bill.RawRow, len(tracked))}

	rows, err := c.searchAll(ctx)
	if err == nil {
		for _, id := range tracked {
			row, ok := rows[id]
			if !ok {
				res.Missing = append(res.Missing, c.missing(id, "not in session results"))
				continue
			}
			res.Rows[id] = row
		}
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	c.logger.Warn("fetch: search API failed, falling back to detail pages", "error", err)
	c.fetchDetails(ctx, tracked, res)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return res, nil
}

// DetailURL constructs the public bill-details URL for an identifier.
func (c *Client) DetailURL(id string) string {
	return fmt.Sprintf("%s/bill-details/%s/%s", c.config.BaseURL, c.config.SessionCode, id)
}

func (c *Client) missing(id, reason string) bill.Missing {
	return bill.Missing{Identifier: id, URL: c.DetailURL(id), Reason: reason}
}

// searchPayload mirrors the query the LIS bill-search page issues.
type searchPayload struct {
	SessionID       int    `json:"SessionID"`
	AllLegislation  bool   `json:"AllLegislation"`
	IncludeFailed   bool   `json:"IncludeFailed"`
	CurrentStatus   bool   `json:"CurrentStatus"`
	KeywordLocation string `json:"KeywordLocation"`
	SortBy          string `json:"SortBy"`
}

type searchResponse struct {
	Results []struct {
		BillNumber string `json:"billNumber"`
		BillURL    string `json:"billUrl"`
		Summary    string `json:"summary"`
		Status     string `json:"status"`
	} `json:"results"`
}

// searchAll POSTs the session-wide search and returns every bill in the
// session keyed by normalized identifier.
func (c *Client) searchAll(ctx context.Context) (map[string]bill.RawRow, error) {
	payload := searchPayload{
		SessionID:       c.config.SessionID,
		AllLegislation:  true,
		IncludeFailed:   true,
		KeywordLocation: "Bill Text",
		SortBy:          "Bill|ASC",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("fetch: marshal search payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/api/legislation/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fetch: new search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: search: http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch: read search response: %w", err)
	}

	var sr searchResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, fmt.Errorf("fetch: decode search response: %w", err)
	}

	rows := make(map[string]bill.RawRow, len(sr.Results))
	for _, r := range sr.Results {
		id, err := bill.NormalizeID(r.BillNumber)
		if err != nil {
			continue // resolutions, amendments, other non-bill rows
		}
		url := r.BillURL
		if url == "" {
			url = c.DetailURL(id)
		}
		rows[id] = bill.RawRow{
			BillNumber: id,
			Status:     r.Status,
			Summary:    r.Summary,
			URL:        url,
		}
	}
	c.logger.Debug("fetch: search complete", "session_bills", len(rows))
	return rows, nil
}

// fetchDetails resolves bills one page at a time with a bounded fan-out.
// All goroutines converge at g.Wait before the result is visible to the
// caller — the diff never sees partial fetch state.
func (c *Client) fetchDetails(ctx context.Context, tracked []string, res *Result) {
	type outcome struct {
		id      string
		row     bill.RawRow
		failure string
	}

	results := make([]outcome, len(tracked))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)

	for i, id := range tracked {
		i, id := i, id
		g.Go(func() error {
			row, err := c.fetchDetail(gctx, id)
			if err != nil {
				results[i] = outcome{id: id, failure: err.Error()}
				return nil // per-bill failure never aborts the batch
			}
			results[i] = outcome{id: id, row: row}
			return nil
		})
	}
	g.Wait()

	for _, o := range results {
		if o.failure != "" {
			c.logger.Warn("fetch: bill unresolved", "identifier", o.id, "error", o.failure)
			res.Missing = append(res.Missing, c.missing(o.id, o.failure))
			continue
		}
		res.Rows[o.id] = o.row
	}
}

// fetchDetail GETs one bill-details page and scrapes status and summary.
func (c *Client) fetchDetail(ctx context.Context, id string) (bill.RawRow, error) {
	url := c.DetailURL(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return bill.RawRow{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return bill.RawRow{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return bill.RawRow{}, fmt.Errorf("bill not found (http 404)")
	}
	if resp.StatusCode != http.StatusOK {
		return bill.RawRow{}, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes))
	if err != nil {
		return bill.RawRow{}, fmt.Errorf("read body: %w", err)
	}

	page, err := parseDetailPage(body)
	if err != nil {
		return bill.RawRow{}, err
	}
	if strings.TrimSpace(page.Status) == "" {
		return bill.RawRow{}, fmt.Errorf("no status on detail page")
	}

	return bill.RawRow{
		BillNumber: id,
		Status:     page.Status,
		Summary:    page.Summary,
		URL:        url,
	}, nil
}
