package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDiagnostics returns a collector that does not echo to stderr.
func newTestDiagnostics() *Diagnostics {
	return &Diagnostics{stderr: io.Discard}
}

// writeTestFiles creates the given files under a fresh temp dir and returns
// the dir. Contents map file name to file body.
func writeTestFiles(t *testing.T, contents map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range contents {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	return dir
}

func TestPartitionFiles(t *testing.T) {
	fileList := func(n int) []string {
		files := make([]string, n)
		for i := range files {
			files[i] = string(rune('a'+i)) + ".txt"
		}
		return files
	}

	t.Run("even split", func(t *testing.T) {
		partitions, err := partitionFiles(fileList(6), 3)
		require.NoError(t, err)
		require.Len(t, partitions, 3)
		for _, p := range partitions {
			assert.Len(t, p, 2)
		}
	})

	t.Run("last partition absorbs remainder", func(t *testing.T) {
		partitions, err := partitionFiles(fileList(7), 3)
		require.NoError(t, err)
		require.Len(t, partitions, 3)
		assert.Len(t, partitions[0], 2)
		assert.Len(t, partitions[1], 2)
		assert.Len(t, partitions[2], 3)
	})

	t.Run("more workers than files", func(t *testing.T) {
		partitions, err := partitionFiles(fileList(2), 5)
		require.NoError(t, err)
		require.Len(t, partitions, 5)
		// base is 0, so the leading partitions are empty and the last one
		// carries everything.
		for i := 0; i < 4; i++ {
			assert.Empty(t, partitions[i])
		}
		assert.Len(t, partitions[4], 2)
	})

	t.Run("single worker", func(t *testing.T) {
		partitions, err := partitionFiles(fileList(5), 1)
		require.NoError(t, err)
		require.Len(t, partitions, 1)
		assert.Len(t, partitions[0], 5)
	})

	t.Run("empty file list", func(t *testing.T) {
		partitions, err := partitionFiles(nil, 3)
		require.NoError(t, err)
		require.Len(t, partitions, 3)
		for _, p := range partitions {
			assert.Empty(t, p)
		}
	})

	t.Run("invalid thread count", func(t *testing.T) {
		for _, n := range []int{0, -1, -100} {
			_, err := partitionFiles(fileList(3), n)
			assert.ErrorIs(t, err, ErrInvalidThreadCount)
		}
	})

	t.Run("partitions cover the list exactly once", func(t *testing.T) {
		for fileCount := 0; fileCount <= 12; fileCount++ {
			for n := 1; n <= 8; n++ {
				files := fileList(fileCount)
				partitions, err := partitionFiles(files, n)
				require.NoError(t, err)

				base := fileCount / n
				var reassembled []string
				for i, p := range partitions {
					if i < n-1 {
						assert.Len(t, p, base, "files=%d n=%d partition=%d", fileCount, n, i)
					} else {
						assert.Len(t, p, fileCount-(n-1)*base, "files=%d n=%d last partition", fileCount, n)
					}
					reassembled = append(reassembled, p...)
				}
				assert.Equal(t, files, reassembled, "files=%d n=%d", fileCount, n)
			}
		}
	})
}

func TestScanFile(t *testing.T) {
	t.Run("matches with 1-based line numbers", func(t *testing.T) {
		dir := writeTestFiles(t, map[string]string{
			"sample.txt": "alpha\nneedle here\ngamma\nanother needle\n",
		})
		path := filepath.Join(dir, "sample.txt")

		matches := scanFile(path, "needle", 3, newTestDiagnostics())
		require.Len(t, matches, 2)
		assert.Equal(t, Match{WorkerID: 3, Path: path, Line: 2, Text: "needle here"}, matches[0])
		assert.Equal(t, Match{WorkerID: 3, Path: path, Line: 4, Text: "another needle"}, matches[1])
	})

	t.Run("line with repeated occurrences counts once", func(t *testing.T) {
		dir := writeTestFiles(t, map[string]string{
			"sample.txt": "foo foo foo\n",
		})

		matches := scanFile(filepath.Join(dir, "sample.txt"), "foo", 0, newTestDiagnostics())
		require.Len(t, matches, 1)
		assert.Equal(t, 1, matches[0].Line)
	})

	t.Run("empty needle matches every line", func(t *testing.T) {
		dir := writeTestFiles(t, map[string]string{
			"sample.txt": "one\ntwo\nthree\n",
		})

		matches := scanFile(filepath.Join(dir, "sample.txt"), "", 0, newTestDiagnostics())
		assert.Len(t, matches, 3)
	})

	t.Run("search is case-sensitive", func(t *testing.T) {
		dir := writeTestFiles(t, map[string]string{
			"sample.txt": "Needle\nneedle\n",
		})

		matches := scanFile(filepath.Join(dir, "sample.txt"), "needle", 0, newTestDiagnostics())
		require.Len(t, matches, 1)
		assert.Equal(t, 2, matches[0].Line)
	})

	t.Run("unopenable file is a warning, not a failure", func(t *testing.T) {
		diag := newTestDiagnostics()
		matches := scanFile(filepath.Join(t.TempDir(), "missing.txt"), "needle", 0, diag)
		assert.Empty(t, matches)
		assert.Equal(t, 1, diag.Count())
	})
}

func TestRunWorker(t *testing.T) {
	t.Run("tags matches and preserves partition order", func(t *testing.T) {
		dir := writeTestFiles(t, map[string]string{
			"one.txt": "needle first\n",
			"two.txt": "needle second\n",
		})
		partition := []string{
			filepath.Join(dir, "one.txt"),
			filepath.Join(dir, "two.txt"),
		}

		result := runWorker(7, partition, "needle", newTestDiagnostics())
		assert.True(t, result.HadMatches)
		assert.Equal(t, 7, result.WorkerID)
		require.Len(t, result.Matches, 2)
		assert.Equal(t, partition[0], result.Matches[0].Path)
		assert.Equal(t, partition[1], result.Matches[1].Path)
		for _, m := range result.Matches {
			assert.Equal(t, 7, m.WorkerID)
		}
	})

	t.Run("empty partition yields the idle marker", func(t *testing.T) {
		result := runWorker(2, nil, "needle", newTestDiagnostics())
		assert.False(t, result.HadMatches)
		assert.Empty(t, result.Matches)
		assert.Equal(t, 2, result.WorkerID)
	})

	t.Run("partition with no matches yields the idle marker", func(t *testing.T) {
		dir := writeTestFiles(t, map[string]string{"one.txt": "nothing here\n"})
		result := runWorker(0, []string{filepath.Join(dir, "one.txt")}, "needle", newTestDiagnostics())
		assert.False(t, result.HadMatches)
		assert.Empty(t, result.Matches)
	})
}

func TestSearchDirectory(t *testing.T) {
	t.Run("two files across two workers", func(t *testing.T) {
		dir := writeTestFiles(t, map[string]string{
			"a.txt": "foo\nbar baz\n",
			"b.txt": "baz foo\n",
		})

		result, err := searchDirectory("foo", dir, 2, newTestDiagnostics())
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalFiles)
		require.Len(t, result.Workers, 2)

		// Each worker got one file and found one match on line 1.
		for i, w := range result.Workers {
			assert.Equal(t, i, w.WorkerID)
			assert.True(t, w.HadMatches)
			require.Len(t, w.Matches, 1)
			assert.Equal(t, 1, w.Matches[0].Line)
		}
		texts := []string{result.Workers[0].Matches[0].Text, result.Workers[1].Matches[0].Text}
		assert.ElementsMatch(t, []string{"foo", "baz foo"}, texts)
	})

	t.Run("match set is independent of thread count", func(t *testing.T) {
		dir := writeTestFiles(t, map[string]string{
			"a.txt": "x\nneedle\ny\n",
			"b.txt": "z\n",
			"c.txt": "needle again\n",
		})

		type key struct {
			Path string
			Line int
		}
		for threads := 1; threads <= 6; threads++ {
			result, err := searchDirectory("needle", dir, threads, newTestDiagnostics())
			require.NoError(t, err)
			assert.Equal(t, 3, result.TotalFiles)
			assert.Equal(t, 2, result.MatchCount(), "threads=%d", threads)

			seen := map[key]int{}
			for _, w := range result.Workers {
				for _, m := range w.Matches {
					seen[key{m.Path, m.Line}]++
				}
			}
			assert.Equal(t, 1, seen[key{filepath.Join(dir, "a.txt"), 2}], "threads=%d", threads)
			assert.Equal(t, 1, seen[key{filepath.Join(dir, "c.txt"), 1}], "threads=%d", threads)
		}
	})

	t.Run("needle absent everywhere yields only idle markers", func(t *testing.T) {
		dir := writeTestFiles(t, map[string]string{
			"a.txt": "nothing\n",
			"b.txt": "here\n",
		})

		result, err := searchDirectory("needle", dir, 3, newTestDiagnostics())
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalFiles)
		require.Len(t, result.Workers, 3)
		for _, w := range result.Workers {
			assert.False(t, w.HadMatches)
			assert.Empty(t, w.Matches)
		}

		// The flat record form carries one sentinel per worker.
		records := result.Records()
		require.Len(t, records, 3)
		for i, rec := range records {
			assert.Equal(t, Match{WorkerID: i}, rec)
		}
	})

	t.Run("record order follows partition index, not completion order", func(t *testing.T) {
		contents := map[string]string{}
		for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
			contents[name] = "needle in " + name + "\n"
		}
		dir := writeTestFiles(t, contents)

		// Hold worker 0 back so every other worker finishes first.
		workerStartHook = func(workerID int) {
			if workerID == 0 {
				time.Sleep(100 * time.Millisecond)
			}
		}
		defer func() { workerStartHook = nil }()

		result, err := searchDirectory("needle", dir, 4, newTestDiagnostics())
		require.NoError(t, err)

		records := result.Records()
		require.Len(t, records, 4)
		for i, rec := range records {
			assert.Equal(t, i, rec.WorkerID, "record %d out of partition order", i)
		}
	})

	t.Run("unreadable file is skipped with a diagnostic", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("running as root; permission bits are not enforced")
		}
		dir := writeTestFiles(t, map[string]string{
			"readable.txt": "needle\n",
			"secret.txt":   "needle\n",
		})
		require.NoError(t, os.Chmod(filepath.Join(dir, "secret.txt"), 0000))

		diag := newTestDiagnostics()
		result, err := searchDirectory("needle", dir, 1, diag)
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalFiles)
		require.Equal(t, 1, result.MatchCount())
		assert.Equal(t, filepath.Join(dir, "readable.txt"), result.Workers[0].Matches[0].Path)
		assert.Equal(t, 1, diag.Count())
	})

	t.Run("invalid thread count fails before any work", func(t *testing.T) {
		dir := writeTestFiles(t, map[string]string{"a.txt": "x\n"})
		_, err := searchDirectory("x", dir, 0, newTestDiagnostics())
		assert.ErrorIs(t, err, ErrInvalidThreadCount)
	})

	t.Run("missing root is fatal", func(t *testing.T) {
		_, err := searchDirectory("x", filepath.Join(t.TempDir(), "nope"), 2, newTestDiagnostics())
		assert.Error(t, err)
	})

	t.Run("worker panic aborts the invocation", func(t *testing.T) {
		dir := writeTestFiles(t, map[string]string{
			"a.txt": "needle\n",
			"b.txt": "needle\n",
		})

		workerStartHook = func(workerID int) {
			if workerID == 1 {
				panic("worker exploded")
			}
		}
		defer func() { workerStartHook = nil }()

		result, err := searchDirectory("needle", dir, 2, newTestDiagnostics())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "worker 1 failed")
		assert.Nil(t, result)
	})
}

func TestSearchResultRecords(t *testing.T) {
	result := &SearchResult{
		Workers: []WorkerResult{
			{WorkerID: 0, Matches: []Match{{WorkerID: 0, Path: "a", Line: 1, Text: "x"}}, HadMatches: true},
			{WorkerID: 1, HadMatches: false},
			{WorkerID: 2, Matches: []Match{
				{WorkerID: 2, Path: "b", Line: 3, Text: "y"},
				{WorkerID: 2, Path: "c", Line: 9, Text: "z"},
			}, HadMatches: true},
		},
		TotalFiles: 3,
	}

	records := result.Records()
	require.Len(t, records, 4)
	assert.Equal(t, Match{WorkerID: 0, Path: "a", Line: 1, Text: "x"}, records[0])
	assert.Equal(t, Match{WorkerID: 1}, records[1])
	assert.Equal(t, "b", records[2].Path)
	assert.Equal(t, "c", records[3].Path)
	assert.Equal(t, 3, result.MatchCount())
}
