package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/atotto/clipboard"
)

// validFilenamePattern rejects anything outside word characters, hyphens,
// dots and spaces.
var validFilenamePattern = regexp.MustCompile(`[^\w\-. ]`)

// isValidFilename reports whether a result or log filename is acceptable.
func isValidFilename(filename string) bool {
	if filename == "" {
		return false
	}
	return !validFilenamePattern.MatchString(filename)
}

// buildSummary derives the run totals from a search result.
func buildSummary(result *SearchResult, diag *Diagnostics) Summary {
	summary := Summary{
		TotalFiles:   result.TotalFiles,
		TotalMatches: result.MatchCount(),
		Workers:      len(result.Workers),
		Warnings:     diag.Count(),
	}
	for _, w := range result.Workers {
		if !w.HadMatches {
			summary.IdleWorkers++
		}
	}
	return summary
}

// formatReport renders the search result as the text report. Matches appear
// in partition order, one line each, tagged with the worker that found them.
// Idle workers are listed explicitly so the report accounts for every worker
// that ran.
func formatReport(needle string, result *SearchResult, summary Summary) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Search results for %q\n", needle))
	builder.WriteString(strings.Repeat("=", 50))
	builder.WriteString("\n")

	for _, worker := range result.Workers {
		if !worker.HadMatches {
			builder.WriteString(fmt.Sprintf("[worker %d] no matches in assigned files\n", worker.WorkerID))
			continue
		}
		for _, m := range worker.Matches {
			builder.WriteString(fmt.Sprintf("[worker %d] %s:%d: %s\n", m.WorkerID, m.Path, m.Line, m.Text))
		}
	}

	builder.WriteString("\n--- Summary ---\n")
	builder.WriteString(fmt.Sprintf("Total files scanned: %d\n", summary.TotalFiles))
	builder.WriteString(fmt.Sprintf("Total matches: %d\n", summary.TotalMatches))
	builder.WriteString(fmt.Sprintf("Workers: %d (%d idle)\n", summary.Workers, summary.IdleWorkers))
	if summary.Warnings > 0 {
		builder.WriteString(fmt.Sprintf("Warnings: %d (see log file)\n", summary.Warnings))
	}

	return builder.String()
}

// deliverReport sends the rendered report to its destination: stdout when
// -p is set, the clipboard when -c is set, otherwise the result file.
func deliverReport(report, resultPath string) error {
	switch {
	case printToStdout:
		fmt.Println(report)
	case copyToClipboard:
		if err := clipboard.WriteAll(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing to clipboard: %v\n", err)
			fmt.Println("\n--- Output (clipboard failed) ---")
			fmt.Println(report)
			return err
		}
		fmt.Println("Results copied to clipboard.")
	default:
		if err := os.WriteFile(resultPath, []byte(report), 0644); err != nil {
			return fmt.Errorf("error writing results to %s: %w", resultPath, err)
		}
		fmt.Printf("Results saved to %s\n", resultPath)
	}
	return nil
}

// writeRunLog flushes the collected diagnostics and run summary to the log
// file. A failed log write is reported but never fails the run; the search
// itself already succeeded.
func writeRunLog(logPath, needle string, summary Summary, diag *Diagnostics) {
	f, err := os.Create(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating log file %s: %v\n", logPath, err)
		return
	}
	defer f.Close()

	if err := diag.WriteLog(f, needle, summary); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing log file %s: %v\n", logPath, err)
	}
}
