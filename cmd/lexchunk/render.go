package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/dgallion1/lexchunk/internal/pipeline"
)

// maxShownErrors caps the per-file errors printed after a batch.
const maxShownErrors = 5

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted labels
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

func renderSummary(w io.Writer, sum *pipeline.Summary, budget int, elapsed time.Duration) {
	status := successStyle.Render("OK")
	switch {
	case sum.IntegrityFailures > 0:
		status = errorStyle.Render("COVERAGE FAILURES")
	case sum.Failed > 0:
		status = warnStyle.Render("PARTIAL")
	}

	lines := []string{
		fmt.Sprintf("%s %s", titleStyle.Render("Ingest"), status),
		fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
			dimStyle.Render("Files:"), humanize.Comma(int64(sum.Total)),
			dimStyle.Render("New:"), successStyle.Render(humanize.Comma(int64(sum.Succeeded))),
			dimStyle.Render("Skipped:"), humanize.Comma(int64(sum.Skipped)),
			dimStyle.Render("Failed:"), failedCount(sum.Failed),
		),
	}
	if sum.Failed > 0 {
		lines = append(lines, fmt.Sprintf("%s integrity %d  input %d  io %d",
			dimStyle.Render("Failures:"), sum.IntegrityFailures, sum.InputFailures, sum.IOFailures))
	}

	chunkLine := fmt.Sprintf("%s %s", dimStyle.Render("Chunks:"), humanize.Comma(int64(sum.NewChunks)))
	if sum.NewChunks > 0 {
		chunkLine += fmt.Sprintf("  %s %d-%d", dimStyle.Render("IDs:"), sum.FirstID, sum.LastID)
	}
	lines = append(lines, chunkLine)

	if sum.NewChunks > 0 {
		lines = append(lines, fmt.Sprintf("%s avg %.1f  max %s  %s %.1f%% of %s",
			dimStyle.Render("Tokens:"), sum.TokenStats.Avg, humanize.Comma(int64(sum.TokenStats.Max)),
			dimStyle.Render("Budget use:"), sum.TokenStats.Utilisation*100, humanize.Comma(int64(budget)),
		))
	}
	lines = append(lines, fmt.Sprintf("%s %s", dimStyle.Render("Elapsed:"), elapsed.Round(time.Millisecond)))

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))

	for i, e := range sum.Errors {
		if i == maxShownErrors {
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("... and %d more", len(sum.Errors)-maxShownErrors)))
			break
		}
		fmt.Fprintf(w, "%s %s %s\n", errorStyle.Render("✗"), e.Source, dimStyle.Render("("+string(e.Kind)+") "+e.Error))
	}
}

func failedCount(n int) string {
	s := humanize.Comma(int64(n))
	if n > 0 {
		return errorStyle.Render(s)
	}
	return s
}

func renderExport(w io.Writer, path string, n int) {
	size := ""
	if fi, err := os.Stat(path); err == nil {
		size = " (" + humanize.Bytes(uint64(fi.Size())) + ")"
	}
	fmt.Fprintf(w, "%s %s chunks to %s%s\n", successStyle.Render("Exported"), humanize.Comma(int64(n)), path, size)
}

func storeKind(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}
