package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hamed0406/statuscheck/internal/domain"
)

const DefaultTitle = "Integration Test Report"

// RenderMarkdown writes the human report with per-category percentages,
// issues found and next steps.
func RenderMarkdown(w io.Writer, r domain.Report, title string) error {
	if title == "" {
		title = DefaultTitle
	}
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString("## Test Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total Tests | %d |\n", r.TotalTests())
	fmt.Fprintf(&b, "| Passed | %d |\n", r.Successful())
	fmt.Fprintf(&b, "| Warnings | %d |\n", r.Warnings())
	fmt.Fprintf(&b, "| Failed | %d |\n", r.Failed())
	fmt.Fprintf(&b, "| Success Rate | %.1f%% |\n", r.SuccessRate())
	fmt.Fprintf(&b, "| Recommendation | %s |\n", r.Recommendation())
	fmt.Fprintf(&b, "| Test Date | %s |\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	if r.RunID != "" {
		fmt.Fprintf(&b, "| Run ID | `%s` |\n", r.RunID)
	}

	b.WriteString("\n## Category Results\n")
	for _, c := range r.Categories {
		fmt.Fprintf(&b, "\n### %s (%d/%d - %.1f%%)\n\n", strings.ToUpper(c.Name), c.Passed(), c.Total(), c.SuccessRate())
		if len(c.Tests) == 0 {
			b.WriteString("_no probes_\n")
			continue
		}
		for _, t := range c.Tests {
			fmt.Fprintf(&b, "- %s **%s**: %s\n", icon(t.Outcome.Status), t.Name, mdEscape(t.Outcome.Detail))
		}
	}

	b.WriteString("\n## Recommendations\n\n")
	for _, line := range Advice(r.Recommendation()) {
		fmt.Fprintf(&b, "%s\n", line)
	}
	if r.Failed() > 0 || r.Warnings() > 0 {
		b.WriteString("\n### Issues Found\n")
		for _, c := range r.Categories {
			var bad []domain.TestResult
			for _, t := range c.Tests {
				if t.Outcome.Status != domain.StatusSuccess {
					bad = append(bad, t)
				}
			}
			if len(bad) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n**%s**:\n", strings.ToUpper(c.Name))
			for _, t := range bad {
				fmt.Fprintf(&b, "- %s (%s): %s\n", t.Name, t.Outcome.Status, mdEscape(t.Outcome.Detail))
			}
		}
		b.WriteString("\n### Next Steps\n")
		for i, s := range NextSteps(r) {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	} else {
		b.WriteString("\n### All Tests Passed!\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
