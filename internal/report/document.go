// Package report renders a domain.Report as a JSON document, console text,
// markdown and PDF, and persists them.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// Entry is one probe row in the JSON document.
type Entry struct {
	Test    string        `json:"test"`
	Result  domain.Status `json:"result"`
	Details string        `json:"details"`
	Code    string        `json:"status,omitempty"`
}

// Category is a named list of entries. Results keeps them in run order.
type Category struct {
	Name    string
	Entries []Entry
}

// Results marshals as a JSON object whose keys keep category order.
type Results []Category

// Document is the machine-readable snapshot written to SYSTEM_STATUS_REPORT.json.
type Document struct {
	Timestamp       time.Time             `json:"timestamp"`
	TotalTests      int                   `json:"totalTests"`
	SuccessfulTests int                   `json:"successfulTests"`
	Warnings        int                   `json:"warnings"`
	Failed          int                   `json:"failed"`
	SuccessRate     float64               `json:"successRate"`
	Results         Results               `json:"results"`
	Recommendation  domain.Recommendation `json:"recommendation"`
}

// NewDocument derives the document from r. Totals come from r's methods,
// so they always match the entries.
func NewDocument(r domain.Report) Document {
	d := Document{
		Timestamp:       r.GeneratedAt.UTC(),
		TotalTests:      r.TotalTests(),
		SuccessfulTests: r.Successful(),
		Warnings:        r.Warnings(),
		Failed:          r.Failed(),
		SuccessRate:     r.SuccessRate(),
		Recommendation:  r.Recommendation(),
		Results:         make(Results, 0, len(r.Categories)),
	}
	for _, c := range r.Categories {
		d.Results = append(d.Results, NewCategory(c))
	}
	return d
}

func NewCategory(c domain.CategoryResult) Category {
	cat := Category{Name: c.Name, Entries: make([]Entry, 0, len(c.Tests))}
	for _, t := range c.Tests {
		cat.Entries = append(cat.Entries, Entry{
			Test:    t.Name,
			Result:  t.Outcome.Status,
			Details: t.Outcome.Detail,
			Code:    t.Outcome.StatusText,
		})
	}
	return cat
}

// Report rebuilds a domain.Report from the document. Latency and numeric
// codes are not part of the document and come back as zero.
func (d Document) Report() domain.Report {
	r := domain.Report{GeneratedAt: d.Timestamp, Categories: make([]domain.CategoryResult, 0, len(d.Results))}
	for _, c := range d.Results {
		cat := domain.CategoryResult{Name: c.Name}
		for _, e := range c.Entries {
			cat.Tests = append(cat.Tests, domain.TestResult{
				Name:    e.Test,
				Outcome: domain.Outcome{Status: e.Result, StatusText: e.Code, Detail: e.Details},
			})
		}
		r.Categories = append(r.Categories, cat)
	}
	return r
}

// Encode writes the document as indented JSON.
func (d Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

func Decode(rd io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(rd).Decode(&d); err != nil {
		return Document{}, fmt.Errorf("decode report: %w", err)
	}
	return d, nil
}

func (rs Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range rs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		entries := c.Entries
		if entries == nil {
			entries = []Entry{}
		}
		v, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (rs *Results) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*rs = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("results: expected object, got %v", tok)
	}
	var out Results
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("results: expected category name, got %v", tok)
		}
		var entries []Entry
		if err := dec.Decode(&entries); err != nil {
			return fmt.Errorf("results.%s: %w", name, err)
		}
		out = append(out, Category{Name: name, Entries: entries})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*rs = out
	return nil
}
