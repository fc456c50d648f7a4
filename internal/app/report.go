package app

import (
	"fmt"
	"strings"

	"VideoDigest/internal/domain"
)

// Summary is the one-line run summary printed after every pass.
func Summary(report domain.RunReport) string {
	return fmt.Sprintf("Processed %d new videos in %.2f seconds", report.NewCount, report.Elapsed.Seconds())
}

// FormatReport renders the operator report sent after a run.
func FormatReport(report domain.RunReport) string {
	var sb strings.Builder
	sb.WriteString(Summary(report))
	if report.RunID != "" {
		fmt.Fprintf(&sb, " (run %s)", report.RunID)
	}
	sb.WriteString("\n")

	for _, outcome := range report.Outcomes {
		fmt.Fprintf(&sb, "\n%s [%s] %s: %s", outcome.Item.ID, outcome.ChannelName, outcome.Item.Title, outcome.Result.Kind)
		if outcome.Result.Reason != nil {
			fmt.Fprintf(&sb, " (%v)", outcome.Result.Reason)
		}
	}

	if report.HasWarnings() {
		sb.WriteString("\n\nWARNING: processed state could not be saved; the next run may repeat work.")
		for _, err := range report.PersistenceErrors {
			fmt.Fprintf(&sb, "\n- %v", err)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
