package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Diagnostics is the operator-facing warning channel. Scan-time failures
// (unopenable files, truncated reads) are reported here instead of being
// mixed into the match results: each warning is printed to stderr as it
// happens and retained so the run can flush them into the log file at the
// end. Safe for concurrent use by the search workers.
type Diagnostics struct {
	mu      sync.Mutex
	entries []string
	stderr  io.Writer
}

// NewDiagnostics returns a collector that echoes warnings to os.Stderr.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{stderr: os.Stderr}
}

// Warnf records a warning and echoes it to stderr immediately.
func (d *Diagnostics) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.mu.Lock()
	d.entries = append(d.entries, msg)
	d.mu.Unlock()
	fmt.Fprintf(d.stderr, "Warning: %s\n", msg)
}

// Entries returns the warnings recorded so far, in arrival order.
func (d *Diagnostics) Entries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.entries))
	copy(out, d.entries)
	return out
}

// Count returns the number of warnings recorded so far.
func (d *Diagnostics) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// WriteLog writes the run log: a header, every warning in order, and the
// run summary. This is what lands in the -l/--log-file.
func (d *Diagnostics) WriteLog(w io.Writer, needle string, summary Summary) error {
	d.mu.Lock()
	entries := make([]string, len(d.entries))
	copy(entries, d.entries)
	d.mu.Unlock()

	var err error
	write := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	write("specific-grep run at %s\n", time.Now().Format(time.RFC3339))
	write("search string: %q\n", needle)
	write("files scanned: %d, matches: %d, workers: %d (%d idle)\n",
		summary.TotalFiles, summary.TotalMatches, summary.Workers, summary.IdleWorkers)
	if len(entries) == 0 {
		write("no warnings\n")
	} else {
		write("warnings (%d):\n", len(entries))
		for _, e := range entries {
			write("  %s\n", e)
		}
	}
	return err
}
