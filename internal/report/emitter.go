package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/statuscheck/internal/domain"
)

const (
	DefaultJSONPath     = "SYSTEM_STATUS_REPORT.json"
	DefaultMarkdownPath = "INTEGRATION_TEST_REPORT.md"
)

// Emitter persists a report. Empty paths are skipped.
type Emitter struct {
	JSONPath     string
	MarkdownPath string
	PDFPath      string
	Title        string
	Logger       *zap.Logger
}

// Emit writes every configured artifact. Failures are logged and combined
// into the returned error; one failing write does not stop the others.
// Callers must not let this error change the run's exit code.
func (e *Emitter) Emit(r domain.Report) error {
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}
	type artifact struct {
		kind, path string
		render     func(*bytes.Buffer) error
	}
	arts := []artifact{
		{"json", e.JSONPath, func(b *bytes.Buffer) error { return NewDocument(r).Encode(b) }},
		{"markdown", e.MarkdownPath, func(b *bytes.Buffer) error { return RenderMarkdown(b, r, e.Title) }},
		{"pdf", e.PDFPath, func(b *bytes.Buffer) error { return RenderPDF(b, r, e.Title) }},
	}

	var errs error
	for _, a := range arts {
		if a.path == "" {
			continue
		}
		var buf bytes.Buffer
		err := a.render(&buf)
		if err == nil {
			err = writeFile(a.path, buf.Bytes())
		}
		if err != nil {
			log.Warn("report_write_failed", zap.String("kind", a.kind), zap.String("path", a.path), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s report: %w", a.kind, err))
			continue
		}
		log.Info("report_written", zap.String("kind", a.kind), zap.String("path", a.path), zap.Int("bytes", buf.Len()))
	}
	return errs
}

// writeFile replaces path via a temp file in the same directory.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, werr := f.Write(data)
	cerr := f.Close()
	if err := multierr.Combine(werr, cerr); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
