package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// isWebURL checks if the search root is an HTTP/HTTPS URL.
func isWebURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

// stageWebURL fetches a page (and, with --traverse-links, pages it links to
// up to --link-depth) and stages each one as a markdown file in a temporary
// directory, so the normal directory search can run over web content. The
// caller removes the directory when the run is done.
func stageWebURL(startURL string, diag *Diagnostics) (string, error) {
	tempDir, err := os.MkdirTemp("", "specific-grep-web-")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}

	maxDepth := 0
	if traverseLinks {
		maxDepth = linkDepth
	}

	visited := make(map[string]bool)
	staged := 0
	if err := fetchWebPage(startURL, 0, maxDepth, visited, tempDir, &staged, diag); err != nil {
		_ = os.RemoveAll(tempDir)
		return "", err
	}
	if staged == 0 {
		_ = os.RemoveAll(tempDir)
		return "", fmt.Errorf("failed to fetch any content from %s", startURL)
	}

	fmt.Printf("Staged %d page(s) from %s for searching.\n", staged, startURL)
	return tempDir, nil
}

// fetchWebPage downloads one URL, converts it to markdown, writes it under
// destDir, and recurses into its links while below maxDepth. Fetch and
// conversion failures below the start URL are warnings, not errors, so one
// broken link never sinks the whole traversal.
func fetchWebPage(pageURL string, depth, maxDepth int, visited map[string]bool, destDir string, staged *int, diag *Diagnostics) error {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("invalid URL %s: %w", pageURL, err)
	}
	parsedURL.Fragment = ""
	cleanURL := parsedURL.String()

	if depth > maxDepth || visited[cleanURL] {
		return nil
	}
	visited[cleanURL] = true

	res, err := http.Get(cleanURL)
	if err != nil {
		if depth == 0 {
			return fmt.Errorf("failed to fetch URL %s: %w", cleanURL, err)
		}
		diag.Warnf("failed to fetch URL %s: %v", cleanURL, err)
		return nil
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		if depth == 0 {
			return fmt.Errorf("failed to fetch URL %s: status code %d", cleanURL, res.StatusCode)
		}
		diag.Warnf("failed to fetch URL %s: status code %d", cleanURL, res.StatusCode)
		return nil
	}

	contentType := res.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		diag.Warnf("skipping non-HTML content type (%s) for URL %s", contentType, cleanURL)
		return nil
	}

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		diag.Warnf("failed to read response body from %s: %v", cleanURL, err)
		return nil
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(string(bodyBytes))
	if err != nil {
		diag.Warnf("failed to convert HTML to markdown for %s: %v", cleanURL, err)
	} else {
		name := webFileName(parsedURL, *staged)
		if err := os.WriteFile(filepath.Join(destDir, name), []byte(markdown), 0644); err != nil {
			diag.Warnf("failed to stage page %s: %v", cleanURL, err)
		} else {
			*staged++
		}
	}

	if depth >= maxDepth {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(bodyBytes)))
	if err != nil {
		diag.Warnf("failed to parse HTML for link extraction from %s: %v", cleanURL, err)
		return nil
	}

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		link, exists := s.Attr("href")
		lower := strings.ToLower(link)
		if !exists || link == "" || strings.HasPrefix(link, "#") ||
			strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:") {
			return
		}

		resolvedURL, err := parsedURL.Parse(link)
		if err != nil {
			diag.Warnf("could not resolve link '%s' on page %s: %v", link, cleanURL, err)
			return
		}
		if resolvedURL.Scheme != "http" && resolvedURL.Scheme != "https" {
			return
		}
		_ = fetchWebPage(resolvedURL.String(), depth+1, maxDepth, visited, destDir, staged, diag)
	})

	return nil
}

// webFileName derives a staging filename from a page URL.
func webFileName(u *url.URL, ordinal int) string {
	base := u.Host + strings.ReplaceAll(u.Path, "/", "_")
	base = strings.Trim(base, "_")
	base = validFilenamePattern.ReplaceAllString(base, "_")
	if base == "" {
		base = "page"
	}
	return fmt.Sprintf("%03d_%s.md", ordinal, base)
}
