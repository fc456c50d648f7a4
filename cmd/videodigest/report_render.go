package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"VideoDigest/internal/app"
	"VideoDigest/internal/domain"
)

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
)

func printReport(out io.Writer, report domain.RunReport) {
	colorize := shouldColorize(out)
	if len(report.Outcomes) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Video", "Channel", "Title", "Outcome", "Emailed"},
			outcomeRows(report.Outcomes, colorize),
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		))
	}
	fmt.Fprintln(out, app.Summary(report))
	for _, err := range report.PersistenceErrors {
		fmt.Fprintln(out, colorText("WARNING: processed state not saved: "+err.Error(), ansiYellow, colorize))
	}
}

func outcomeRows(outcomes []domain.ItemOutcome, colorize bool) [][]string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		emailed := "no"
		if o.Result.Notified {
			emailed = "yes"
		}
		rows = append(rows, []string{
			o.Item.ID,
			truncateCell(o.ChannelName, 24),
			truncateCell(o.Item.Title, maxTitleWidth),
			colorText(o.Result.Kind.String(), outcomeColor(o.Result.Kind), colorize),
			emailed,
		})
	}
	return rows
}

func outcomeColor(kind domain.OutcomeKind) string {
	switch kind {
	case domain.OutcomeCompleted:
		return ansiGreen
	case domain.OutcomeTransientFailure:
		return ansiYellow
	case domain.OutcomePermanentFailure:
		return ansiRed
	default:
		return ""
	}
}

func colorText(s, color string, colorize bool) string {
	if !colorize || color == "" {
		return s
	}
	return color + s + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
