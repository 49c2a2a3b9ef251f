package service

import (
	"regexp"
	"strings"
)

// PathSegmentExtractor recovers a media identifier from a stored image URL.
// The identifier is the first "<folder>/<name>" path segment run, cut before
// the extension, query or fragment:
//
//	https://res.cloudinary.com/demo/image/upload/v17/produtos/abc123.jpg -> produtos/abc123
type PathSegmentExtractor struct {
	pattern *regexp.Regexp
}

func NewPathSegmentExtractor(folder string) *PathSegmentExtractor {
	folder = strings.Trim(folder, "/")
	return &PathSegmentExtractor{
		pattern: regexp.MustCompile(`(?:^|/)(` + regexp.QuoteMeta(folder) + `/[^.?#]+)`),
	}
}

// Extract returns ("", false) when url does not reference the folder.
func (e *PathSegmentExtractor) Extract(url string) (string, bool) {
	m := e.pattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	id := strings.TrimRight(m[1], "/")
	if !strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
