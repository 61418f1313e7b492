package main

// Match is one line that contained the search string.
type Match struct {
	WorkerID int    // index of the worker that produced this match
	Path     string // file the line came from
	Line     int    // 1-based line number; 0 only in sentinel records
	Text     string // the full matching line
}

// WorkerResult holds everything one worker produced over its partition.
// HadMatches distinguishes a worker that genuinely found nothing (or had an
// empty partition) from one whose results were lost; callers that need the
// legacy flat record form go through SearchResult.Records, which materializes
// one empty sentinel Match per idle worker.
type WorkerResult struct {
	WorkerID   int
	Matches    []Match
	HadMatches bool
}

// SearchResult is the outcome of a whole search invocation. Workers is
// ordered by partition index regardless of which worker finished first.
type SearchResult struct {
	Workers    []WorkerResult
	TotalFiles int
}

// Records flattens the per-worker results into a single sequence in
// partition order. A worker with no matches contributes exactly one sentinel
// record carrying only its identity, so the number of workers that ran is
// always recoverable from the flat sequence.
func (r *SearchResult) Records() []Match {
	var records []Match
	for _, w := range r.Workers {
		if !w.HadMatches {
			records = append(records, Match{WorkerID: w.WorkerID})
			continue
		}
		records = append(records, w.Matches...)
	}
	return records
}

// MatchCount counts real matches, sentinels excluded.
func (r *SearchResult) MatchCount() int {
	var n int
	for _, w := range r.Workers {
		n += len(w.Matches)
	}
	return n
}

// Summary holds the aggregate numbers printed at the end of a run.
type Summary struct {
	TotalFiles   int
	TotalMatches int
	Workers      int
	IdleWorkers  int
	Warnings     int
}
