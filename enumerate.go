package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// ErrNotDirectory is returned when the search root exists but is not a
// directory.
var ErrNotDirectory = errors.New("search root is not a directory")

// enumerateFiles walks the directory tree under root and returns the paths
// of every regular file that survives the filters, in walk order. The list
// is built once per invocation and never mutated afterwards.
//
// A missing or unreadable root is fatal and aborts the search before any
// scanning starts. Errors deeper in the tree are reported as warnings and
// the walk continues.
func enumerateFiles(root string, diag *Diagnostics) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("error accessing search root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	var files []string
	var ignoreMatcher gitignore.IgnoreMatcher

	parsedIncludes := parsePatterns(includePatterns)
	parsedExcludes := parsePatterns(excludePatterns)

	if !noIgnore {
		// go-gitignore works off a single .gitignore; nested ignore files
		// are not consulted.
		gitIgnorePath := filepath.Join(root, ".gitignore")
		if _, err := os.Stat(gitIgnorePath); err == nil {
			matcher, err := gitignore.NewGitIgnore(gitIgnorePath)
			if err != nil {
				diag.Warnf("could not parse .gitignore file %s: %v", gitIgnorePath, err)
			} else {
				ignoreMatcher = matcher
			}
		}
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				// The root itself could not be read; nothing was scheduled
				// yet, so fail the whole invocation.
				return fmt.Errorf("error reading search root %s: %w", root, err)
			}
			diag.Warnf("error accessing path %s: %v", path, err)
			return nil
		}

		if path == root {
			return nil
		}

		baseName := d.Name()
		isDir := d.IsDir()

		if !showHidden && isHidden(baseName) {
			if isDir {
				return fs.SkipDir
			}
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if ignoreMatcher != nil && ignoreMatcher.Match(relPath, isDir) {
			if isDir {
				return fs.SkipDir
			}
			return nil
		}

		if maxDepth > 0 && countPathSeparators(relPath) >= maxDepth {
			if isDir {
				return fs.SkipDir
			}
		}

		if isDir {
			excluded, err := matchesAnyPattern(baseName, parsedExcludes)
			if err != nil {
				diag.Warnf("exclude pattern error for %s: %v", path, err)
			}
			if excluded {
				return fs.SkipDir
			}
			return nil
		}

		// Only regular files are searched; symlinks, sockets and other
		// special entries are skipped silently.
		if !d.Type().IsRegular() {
			return nil
		}

		excluded, err := matchesAnyPattern(baseName, parsedExcludes)
		if err != nil {
			diag.Warnf("exclude pattern error for %s: %v", path, err)
		}
		if excluded {
			return nil
		}

		if len(parsedIncludes) > 0 {
			included, err := matchesAnyPattern(baseName, parsedIncludes)
			if err != nil {
				diag.Warnf("include pattern error for %s: %v", path, err)
			}
			if !included {
				return nil
			}
		}

		if maxSizeBytes > 0 {
			info, err := d.Info()
			if err != nil {
				diag.Warnf("could not get info for %s: %v", path, err)
				return nil
			}
			if info.Size() > maxSizeBytes {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// parsePatterns splits a comma-separated string of glob patterns.
func parsePatterns(patterns string) []string {
	if patterns == "" {
		return nil
	}
	return strings.Split(patterns, ",")
}

// matchesAnyPattern checks if name matches any of the given glob patterns.
func matchesAnyPattern(name string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// isHidden reports whether a base name is a dotfile.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	baseName := filepath.Base(name)
	return len(baseName) > 0 && baseName[0] == '.'
}

// countPathSeparators counts the separators in a relative path, which is the
// depth of the entry below the walk root.
func countPathSeparators(path string) int {
	path = filepath.ToSlash(path)
	if path == "." || path == "" {
		return 0
	}
	return strings.Count(strings.Trim(path, "/"), "/")
}
