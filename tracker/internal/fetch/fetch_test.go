package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, SessionCode: "20261", Concurrency: 2}, nil)
}

func searchHandler(t *testing.T, bills map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/legislation/search" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("search method: got %s, want POST", r.Method)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("search payload not JSON: %v", err)
		}
		type row struct {
			BillNumber string `json:"billNumber"`
			BillURL    string `json:"billUrl"`
			Summary    string `json:"summary"`
			Status     string `json:"status"`
		}
		var results []row
		for id, status := range bills {
			results = append(results, row{
				BillNumber: id,
				Status:     status,
				Summary:    "summary of " + id,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}
}

func TestFetchAllViaSearchAPI(t *testing.T) {
	c := testClient(t, searchHandler(t, map[string]string{
		"HB1":   "In Committee",
		"SB200": "Passed",
		"HB999": "Failed", // in session, not tracked
	}))

	res, err := c.FetchAll(context.Background(), []string{"HB1", "SB200"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(res.Rows))
	}
	if res.Rows["HB1"].Status != "In Committee" {
		t.Errorf("HB1 status: got %q", res.Rows["HB1"].Status)
	}
	if len(res.Missing) != 0 {
		t.Errorf("missing: got %+v, want none", res.Missing)
	}
}

func TestFetchAllMarksMissingBills(t *testing.T) {
	c := testClient(t, searchHandler(t, map[string]string{"HB1": "Pending"}))

	res, err := c.FetchAll(context.Background(), []string{"HB1", "SB7"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Missing) != 1 {
		t.Fatalf("missing: got %+v, want one entry", res.Missing)
	}
	m := res.Missing[0]
	if m.Identifier != "SB7" {
		t.Errorf("missing id: got %q, want SB7", m.Identifier)
	}
	if !strings.HasSuffix(m.URL, "/bill-details/20261/SB7") {
		t.Errorf("missing URL: got %q", m.URL)
	}
}

func TestFetchAllFallsBackToDetailPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/legislation/search", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	mux.HandleFunc("/bill-details/20261/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if id == "SB7" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><body><main>
			<h1>%s</h1>
			<div class="bill-status">In Committee</div>
			<div class="bill-summary">Summary of %s.</div>
		</main></body></html>`, id, id)
	})
	c := testClient(t, mux)

	res, err := c.FetchAll(context.Background(), []string{"HB1", "SB7"})
	if err != nil {
		t.Fatal(err)
	}
	if row, ok := res.Rows["HB1"]; !ok {
		t.Fatal("HB1 not resolved via fallback")
	} else {
		if row.Status != "In Committee" {
			t.Errorf("HB1 status: got %q", row.Status)
		}
		if row.Summary != "Summary of HB1." {
			t.Errorf("HB1 summary: got %q", row.Summary)
		}
	}
	if len(res.Missing) != 1 || res.Missing[0].Identifier != "SB7" {
		t.Errorf("missing: got %+v, want SB7", res.Missing)
	}
}

func TestFetchAllZeroResolvedIsNotAnError(t *testing.T) {
	mux := http.NewServeMux() // every route 404s
	c := testClient(t, mux)

	res, err := c.FetchAll(context.Background(), []string{"HB1", "SB2"})
	if err != nil {
		t.Fatalf("zero resolved bills must not be a batch error: %v", err)
	}
	if len(res.Rows) != 0 || len(res.Missing) != 2 {
		t.Errorf("got %d rows, %d missing; want 0 and 2", len(res.Rows), len(res.Missing))
	}
}

func TestFetchAllHonorsCancellation(t *testing.T) {
	c := testClient(t, http.NewServeMux())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.FetchAll(ctx, []string{"HB1"}); err == nil {
		t.Fatal("cancelled context must surface an error")
	}
}

func TestParseDetailPageSummaryFallback(t *testing.T) {
	page, err := parseDetailPage([]byte(`<html><body>
		<nav><p>chrome to skip</p></nav>
		<main>
			<span class="status-pill">Passed</span>
			<p>First paragraph is the summary.</p>
		</main></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	if page.Status != "Passed" {
		t.Errorf("status: got %q", page.Status)
	}
	if page.Summary != "First paragraph is the summary." {
		t.Errorf("summary: got %q", page.Summary)
	}
}
