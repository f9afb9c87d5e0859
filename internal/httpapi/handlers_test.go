package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statuscheck/internal/domain"
	apimw "github.com/hamed0406/statuscheck/internal/httpapi/middleware"
	"github.com/hamed0406/statuscheck/internal/metrics"
	"github.com/hamed0406/statuscheck/internal/repo/memory"
	"github.com/hamed0406/statuscheck/internal/report"
)

// ---- test helpers ----

type fakeRuns struct {
	store *memory.Store
	rep   domain.Report
	err   error
	n     int
}

func (f *fakeRuns) RunOnce(ctx context.Context) (domain.Report, error) {
	f.n++
	if f.err != nil {
		return domain.Report{}, f.err
	}
	_ = f.store.Save(ctx, f.rep)
	return f.rep, nil
}

func sampleReport() domain.Report {
	return domain.Report{
		RunID:       "run-42",
		GeneratedAt: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		Categories: []domain.CategoryResult{
			{Name: "database", Tests: []domain.TestResult{
				{Name: "MySQL Connection", Outcome: domain.Success("EXIT 0")},
				{Name: "Database Port", Outcome: domain.Failure(domain.TextUnreachable, "connection refused")},
			}},
			{Name: "backend", Tests: []domain.TestResult{
				{Name: "Health Endpoint", Outcome: domain.Success("HTTP 200").WithCode(200, "200")},
			}},
		},
	}
}

func setupServer(t *testing.T, runs *fakeRuns) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	if runs != nil {
		runs.store = store
	}
	srv := NewServer(zap.NewNop(), store, runs, metrics.New(false))
	if runs == nil {
		srv.Runs = nil
	}

	keys := apimw.Keys{
		Public: []string{"pub_test"},
		Admin:  []string{"adm_test"},
	}
	// very high rate limits to avoid flakiness in tests
	h := srv.Router(keys, []string{"http://dashboard.local"}, Limits{10_000, 10_000, 10_000, 10_000})
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts, store
}

func do(t *testing.T, method, url, key string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(method, url, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// ---- tests ----

func TestHealthzOpen(t *testing.T) {
	ts, _ := setupServer(t, nil)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
}

func TestLatest_NotFoundThenDocument(t *testing.T) {
	ts, store := setupServer(t, nil)

	resp := do(t, http.MethodGet, ts.URL+"/api/report/latest", "pub_test")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404 before first run, got %d", resp.StatusCode)
	}

	_ = store.Save(context.Background(), sampleReport())
	resp = do(t, http.MethodGet, ts.URL+"/api/report/latest", "pub_test")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Run-ID") != "run-42" {
		t.Fatalf("missing run id header")
	}
	doc, err := report.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.TotalTests != 3 || doc.SuccessfulTests != 2 || doc.SuccessRate != 66.7 {
		t.Fatalf("unexpected totals: %+v", doc)
	}
	if doc.Recommendation != domain.NeedsAttention {
		t.Fatalf("unexpected recommendation %s", doc.Recommendation)
	}
	if doc.Results[0].Name != "database" || doc.Results[1].Name != "backend" {
		t.Fatalf("category order lost: %+v", doc.Results)
	}
}

func TestLatest_RequiresKey(t *testing.T) {
	ts, _ := setupServer(t, nil)
	resp := do(t, http.MethodGet, ts.URL+"/api/report/latest", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", resp.StatusCode)
	}
}

func TestLatestMarkdown(t *testing.T) {
	ts, store := setupServer(t, nil)
	_ = store.Save(context.Background(), sampleReport())

	resp := do(t, http.MethodGet, ts.URL+"/api/report/latest.md", "pub_test")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/markdown") {
		t.Fatalf("content type %q", resp.Header.Get("Content-Type"))
	}
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "# "+report.DefaultTitle) || !strings.Contains(string(b), "Database Port") {
		t.Fatalf("unexpected markdown:\n%s", b)
	}
}

func TestCategory(t *testing.T) {
	ts, store := setupServer(t, nil)
	_ = store.Save(context.Background(), sampleReport())

	resp := do(t, http.MethodGet, ts.URL+"/api/categories/DATABASE", "pub_test")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var got categoryView
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "database" || got.Total != 2 || got.Failed != 1 || got.SuccessRate != 50 {
		t.Fatalf("unexpected category: %+v", got)
	}
	if got.Tests[1].Code != domain.TextUnreachable {
		t.Fatalf("status text lost: %+v", got.Tests[1])
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/categories/nope", "pub_test")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown category: want 404, got %d", resp.StatusCode)
	}
}

func TestRun_AdminOnly(t *testing.T) {
	runs := &fakeRuns{rep: sampleReport()}
	ts, store := setupServer(t, runs)

	if resp := do(t, http.MethodPost, ts.URL+"/api/runs", "pub_test"); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("public key: want 403, got %d", resp.StatusCode)
	}
	if runs.n != 0 {
		t.Fatalf("run triggered without admin key")
	}

	resp := do(t, http.MethodPost, ts.URL+"/api/runs", "adm_test")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin key: want 201, got %d", resp.StatusCode)
	}
	if runs.n != 1 {
		t.Fatalf("runs=%d", runs.n)
	}
	if latest, _ := store.Latest(context.Background()); latest == nil || latest.RunID != "run-42" {
		t.Fatalf("run not stored: %+v", latest)
	}
}

func TestRun_FailureAndDisabled(t *testing.T) {
	ts, _ := setupServer(t, &fakeRuns{err: errors.New("boom")})
	if resp := do(t, http.MethodPost, ts.URL+"/api/runs", "adm_test"); resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", resp.StatusCode)
	}

	ts2, _ := setupServer(t, nil)
	if resp := do(t, http.MethodPost, ts2.URL+"/api/runs", "adm_test"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := setupServer(t, nil)
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/report/latest", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "http://dashboard.local" {
		t.Fatalf("missing CORS header: %v", resp.Header)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := setupServer(t, nil)
	do(t, http.MethodGet, ts.URL+"/healthz", "")
	resp := do(t, http.MethodGet, ts.URL+"/metrics", "")
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), `statuscheck_http_requests_total{method="GET",path="/healthz",status="200"}`) {
		t.Fatalf("request metric missing:\n%s", b)
	}
}
