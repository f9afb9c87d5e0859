package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/hamed0406/statuscheck/internal/domain"
)

func icon(s domain.Status) string {
	switch s {
	case domain.StatusSuccess:
		return "✅"
	case domain.StatusWarning:
		return "⚠️"
	default:
		return "❌"
	}
}

// Advice is the human guidance attached to each tier.
func Advice(rec domain.Recommendation) []string {
	switch rec {
	case domain.Excellent:
		return []string{
			"Excellent! The system is operational.",
			"All major components are functioning correctly.",
		}
	case domain.Good:
		return []string{
			"Good. Most components are working, but some issues need addressing.",
			"Review the failed probes above and fix any configuration issues.",
		}
	default:
		return []string{
			"The system has significant issues that need attention.",
			"Address the failed probes before proceeding.",
			"Check service logs and configuration files.",
		}
	}
}

// NextSteps lists follow-ups when any probe did not succeed; nil otherwise.
func NextSteps(r domain.Report) []string {
	if r.Failed() == 0 && r.Warnings() == 0 {
		return nil
	}
	var steps []string
	if r.Failed() > 0 {
		steps = append(steps,
			"Address the failed probes listed above",
			"Ensure all services are running",
			"Check network connectivity and firewall settings",
			"Verify configuration files are correct",
		)
	}
	if r.Warnings() > 0 {
		steps = append(steps, "Review warning items for optimal operation")
	}
	return steps
}

// RenderText writes the console summary.
func RenderText(w io.Writer, r domain.Report) error {
	rule := strings.Repeat("=", 80)
	var b strings.Builder

	fmt.Fprintf(&b, "%s\nSystem Status Report (%s)\n%s\n", rule, r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"), rule)
	for _, c := range r.Categories {
		fmt.Fprintf(&b, "\n%s: %d/%d tests passed", strings.ToUpper(c.Name), c.Passed(), c.Total())
		if c.Warnings() > 0 {
			fmt.Fprintf(&b, " (%d warnings)", c.Warnings())
		}
		b.WriteByte('\n')
		for _, t := range c.Tests {
			fmt.Fprintf(&b, "  %s %s: %s", icon(t.Outcome.Status), t.Name, t.Outcome.Detail)
			if t.Outcome.Status != domain.StatusSuccess && t.Outcome.StatusText != "" {
				fmt.Fprintf(&b, " [%s]", t.Outcome.StatusText)
			}
			b.WriteByte('\n')
		}
	}

	fmt.Fprintf(&b, "\nOverall Status:\n")
	fmt.Fprintf(&b, "   Total Tests: %d\n", r.TotalTests())
	fmt.Fprintf(&b, "   Successful: %d\n", r.Successful())
	fmt.Fprintf(&b, "   Warnings: %d\n", r.Warnings())
	fmt.Fprintf(&b, "   Failed: %d\n", r.Failed())
	fmt.Fprintf(&b, "   Success Rate: %.1f%%\n", r.SuccessRate())

	fmt.Fprintf(&b, "\n%s\nRecommendation: %s\n%s\n", rule, r.Recommendation(), rule)
	for _, line := range Advice(r.Recommendation()) {
		fmt.Fprintf(&b, "%s\n", line)
	}
	if steps := NextSteps(r); len(steps) > 0 {
		fmt.Fprintf(&b, "\nNext Steps:\n")
		for i, s := range steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
