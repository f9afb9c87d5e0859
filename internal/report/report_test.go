package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/statuscheck/internal/domain"
)

func sample() domain.Report {
	ok := domain.Success("HTTP 200").WithCode(200, "200")
	return domain.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		Categories: []domain.CategoryResult{
			{Name: "database", Tests: []domain.TestResult{
				{Name: "MySQL Client", Outcome: domain.Success("mysql Ver 8.0")},
				{Name: "Essential Tables", Outcome: domain.Failure("EXIT 1", "output lacks vendors")},
			}},
			{Name: "backend", Tests: []domain.TestResult{
				{Name: "Health Endpoint", Outcome: ok},
				{Name: "CORS Configuration", Outcome: domain.Warning("header missing")},
			}},
			{Name: "frontend"},
			{Name: "integration", Tests: []domain.TestResult{
				{Name: "Port 3000 Availability", Outcome: domain.Timeout(10 * time.Second)},
			}},
		},
	}
}

func TestDocument_FieldsAndOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewDocument(sample()).Encode(&buf))
	out := buf.String()

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, k := range []string{"timestamp", "totalTests", "successfulTests", "warnings", "failed", "successRate", "results", "recommendation"} {
		assert.Contains(t, raw, k)
	}
	assert.Equal(t, "2026-03-04T05:06:07Z", raw["timestamp"])
	assert.EqualValues(t, 5, raw["totalTests"])
	assert.EqualValues(t, 2, raw["successfulTests"])
	assert.EqualValues(t, 1, raw["warnings"])
	assert.EqualValues(t, 2, raw["failed"])
	assert.EqualValues(t, 40, raw["successRate"])
	assert.Equal(t, "NEEDS_ATTENTION", raw["recommendation"])

	db := strings.Index(out, `"database"`)
	be := strings.Index(out, `"backend"`)
	fe := strings.Index(out, `"frontend"`)
	in := strings.Index(out, `"integration"`)
	assert.True(t, db < be && be < fe && fe < in, "category order lost:\n%s", out)
	assert.Contains(t, out, `"frontend": []`)
	assert.Contains(t, out, `"result": "FAILED"`)
}

func TestDocument_RoundTripTotals(t *testing.T) {
	want := sample()
	var buf bytes.Buffer
	require.NoError(t, NewDocument(want).Encode(&buf))

	doc, err := Decode(&buf)
	require.NoError(t, err)
	got := doc.Report()

	assert.Equal(t, want.TotalTests(), got.TotalTests())
	assert.Equal(t, want.Successful(), got.Successful())
	assert.Equal(t, want.Warnings(), got.Warnings())
	assert.Equal(t, want.Failed(), got.Failed())
	assert.Equal(t, want.SuccessRate(), got.SuccessRate())
	assert.Equal(t, doc.SuccessRate, got.SuccessRate())
	require.Len(t, got.Categories, 4)
	assert.Equal(t, "integration", got.Categories[3].Name)
	assert.True(t, got.Categories[3].Tests[0].Outcome.TimedOut())
	assert.True(t, got.GeneratedAt.Equal(want.GeneratedAt))
}

func TestResults_RejectsNonObject(t *testing.T) {
	var rs Results
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &rs))
	assert.NoError(t, json.Unmarshal([]byte(`null`), &rs))
	assert.Nil(t, rs)
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, sample()))
	out := buf.String()
	assert.Contains(t, out, "DATABASE: 1/2 tests passed")
	assert.Contains(t, out, "BACKEND: 1/2 tests passed (1 warnings)")
	assert.Contains(t, out, "FRONTEND: 0/0 tests passed")
	assert.Contains(t, out, "[TIMEOUT]")
	assert.Contains(t, out, "Success Rate: 40.0%")
	assert.Contains(t, out, "Recommendation: NEEDS_ATTENTION")
	assert.Contains(t, out, "Next Steps:")
}

func TestRenderText_AllGreenHasNoNextSteps(t *testing.T) {
	r := domain.Report{Categories: []domain.CategoryResult{{Name: "backend", Tests: []domain.TestResult{
		{Name: "Health", Outcome: domain.Success("HTTP 200")},
	}}}}
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, r))
	assert.Contains(t, buf.String(), "Recommendation: EXCELLENT")
	assert.NotContains(t, buf.String(), "Next Steps")
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, sample(), "Marketplace Report"))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Marketplace Report\n"))
	assert.Contains(t, out, "| Success Rate | 40.0% |")
	assert.Contains(t, out, "### DATABASE (1/2 - 50.0%)")
	assert.Contains(t, out, "### FRONTEND (0/0 - 0.0%)")
	assert.Contains(t, out, "### Issues Found")
	assert.Contains(t, out, "- Essential Tables (FAILED): output lacks vendors")
	assert.Contains(t, out, "### Next Steps")
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, sample(), ""))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestEmitter_WritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	e := &Emitter{
		JSONPath:     filepath.Join(dir, DefaultJSONPath),
		MarkdownPath: filepath.Join(dir, "out", DefaultMarkdownPath),
		PDFPath:      filepath.Join(dir, "report.pdf"),
	}
	require.NoError(t, e.Emit(sample()))

	f, err := os.Open(e.JSONPath)
	require.NoError(t, err)
	defer f.Close()
	doc, err := Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 5, doc.TotalTests)

	md, err := os.ReadFile(e.MarkdownPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Category Results")
	_, err = os.Stat(e.PDFPath)
	assert.NoError(t, err)
}

func TestEmitter_WriteFailureIsLoggedAndOthersContinue(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	core, logs := observer.New(zap.WarnLevel)
	e := &Emitter{
		JSONPath:     filepath.Join(blocker, "nested", "report.json"),
		MarkdownPath: filepath.Join(dir, "report.md"),
		Logger:       zap.New(core),
	}
	err := e.Emit(sample())
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("report_write_failed").Len())
	_, statErr := os.Stat(e.MarkdownPath)
	assert.NoError(t, statErr)
}
