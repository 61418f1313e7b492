package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidThreadCount is returned when the requested worker count is zero
// or negative.
var ErrInvalidThreadCount = errors.New("thread count must be at least 1")

// maxLineBytes bounds a single scanned line. Lines beyond this are treated
// like a read failure for that file.
const maxLineBytes = 1024 * 1024

// workerStartHook, when set, runs at the start of every worker. It exists as
// a seam for exercising completion-order and fault behavior.
var workerStartHook func(workerID int)

// partitionFiles splits files into n contiguous, non-overlapping slices
// covering the whole list exactly once. Every partition before the last gets
// exactly len(files)/n entries; the last one absorbs the remainder, so an
// uneven split loads the final worker hardest. When n exceeds the file
// count the leading partitions come out empty, which is tolerated: those
// workers simply run idle.
func partitionFiles(files []string, n int) ([][]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidThreadCount, n)
	}

	base := len(files) / n
	partitions := make([][]string, n)
	for i := 0; i < n; i++ {
		start := i * base
		end := (i + 1) * base
		if i == n-1 {
			end = len(files)
		}
		partitions[i] = files[start:end]
	}
	return partitions, nil
}

// scanFile reads one file line by line and returns a Match for every line
// containing needle as a literal substring. Line numbers are 1-based; a line
// with several occurrences still yields a single Match. A file that cannot
// be opened or read is skipped with a warning, never failing the search.
func scanFile(path, needle string, workerID int, diag *Diagnostics) []Match {
	f, err := os.Open(path)
	if err != nil {
		diag.Warnf("could not open file %s: %v", path, err)
		return nil
	}
	defer f.Close()

	var matches []Match
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.Contains(line, needle) {
			matches = append(matches, Match{
				WorkerID: workerID,
				Path:     path,
				Line:     lineNumber,
				Text:     line,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		diag.Warnf("error reading file %s: %v", path, err)
	}

	return matches
}

// runWorker scans every file in the worker's partition, in partition order,
// tagging each match with the worker's index. HadMatches is false when the
// whole partition (possibly empty) produced nothing.
func runWorker(workerID int, partition []string, needle string, diag *Diagnostics) WorkerResult {
	if workerStartHook != nil {
		workerStartHook(workerID)
	}

	var matches []Match
	for _, path := range partition {
		matches = append(matches, scanFile(path, needle, workerID, diag)...)
	}

	return WorkerResult{
		WorkerID:   workerID,
		Matches:    matches,
		HadMatches: len(matches) > 0,
	}
}

// searchDirectory runs the whole parallel search: enumerate the tree under
// root, split the file list into threadCount static partitions, scan each
// partition on its own goroutine, and join. Per-worker results are slotted
// by partition index, so the final order never depends on which worker
// finished first.
//
// A bad root or thread count fails before any work is launched. A worker
// panic is converted to an error and aborts the invocation with no partial
// results. Per-file open failures are not errors here; they surface on diag.
func searchDirectory(needle, root string, threadCount int, diag *Diagnostics) (*SearchResult, error) {
	files, err := enumerateFiles(root, diag)
	if err != nil {
		return nil, err
	}

	partitions, err := partitionFiles(files, threadCount)
	if err != nil {
		return nil, err
	}

	results := make([]WorkerResult, len(partitions))
	var g errgroup.Group
	for i, partition := range partitions {
		i, partition := i, partition
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("worker %d failed: %v", i, r)
				}
			}()
			results[i] = runWorker(i, partition, needle, diag)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &SearchResult{
		Workers:    results,
		TotalFiles: len(files),
	}, nil
}
