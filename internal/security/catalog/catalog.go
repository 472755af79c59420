// Package catalog holds the static detection tables of the request-security
// pipeline (honeypot decoys, forbidden paths, malicious-content patterns) and
// the pure matching functions over them. It has no HTTP dependencies so the
// tables can be tested in isolation.
package catalog

import (
	"strings"
)

// MatchKind discriminates the classification result.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchHoneypot
	MatchForbiddenPath
	MatchMalicious
)

// MatchResult is the outcome of classifying a request against the catalog.
type MatchResult struct {
	Kind MatchKind
	// Path is set for honeypot and forbidden matches.
	Path string
	// Category, Severity and Pattern describe a malicious-content match.
	Category Category
	Severity Severity
	Pattern  string
	// Value is the offending input, truncated to maxEvidenceLen.
	Value string
	// Context names where the value was found ("url", "query.id", "body.msg").
	Context string
}

// maxEvidenceLen bounds how much of an offending value is carried into logs.
const maxEvidenceLen = 100

// MatchHoneypotPath reports whether the request path touches a honeypot decoy.
// Matching is substring-based on the lowercased path.
func MatchHoneypotPath(path string) (string, bool) {
	p := strings.ToLower(path)
	for _, decoy := range honeypotPaths {
		if strings.Contains(p, decoy) {
			return decoy, true
		}
	}
	return "", false
}

// MatchForbidden reports whether the request path resolves to a sensitive
// file. Rules, in order: exact case-insensitive equality; directory entries
// (trailing slash) match as prefix; extension entries (leading dot) match as
// suffix.
func MatchForbidden(path string) (string, bool) {
	p := strings.ToLower(path)
	for _, entry := range forbiddenPaths {
		if p == entry {
			return entry, true
		}
		if strings.HasSuffix(entry, "/") && strings.HasPrefix(p, entry) {
			return entry, true
		}
		if strings.HasPrefix(entry, ".") && strings.HasSuffix(p, entry) {
			return entry, true
		}
	}
	return "", false
}

// ScanURL tests the full decoded URL against the URL-surface patterns.
func ScanURL(fullURL string) (MatchResult, bool) {
	for i := range maliciousPatterns {
		pat := &maliciousPatterns[i]
		if pat.Surfaces&SurfaceURL == 0 {
			continue
		}
		if pat.Regexp.MatchString(fullURL) {
			return matchFor(pat, fullURL, "url"), true
		}
	}
	return MatchResult{}, false
}

// ScanValue tests one string leaf against the value-surface patterns.
func ScanValue(value, context string) (MatchResult, bool) {
	for i := range maliciousPatterns {
		pat := &maliciousPatterns[i]
		if pat.Surfaces&SurfaceValues == 0 {
			continue
		}
		if pat.Regexp.MatchString(value) {
			return matchFor(pat, value, context), true
		}
	}
	return MatchResult{}, false
}

// ScanTree walks every string leaf of a decoded query/body tree and returns
// the first malicious match. The root context is "query" or "body".
func ScanTree(root any, context string) (MatchResult, bool) {
	var res MatchResult
	found := false
	WalkStrings(root, context, func(path, value string) bool {
		if m, ok := ScanValue(value, path); ok {
			res = m
			found = true
			return false
		}
		return true
	})
	return res, found
}

// IncidentCategory maps a pattern category to the incident tag it produces.
func (c Category) IncidentCategory() string {
	switch c {
	case CategoryPathTraversal:
		return "PATH_TRAVERSAL_ATTEMPT"
	case CategorySSRF:
		return "SSRF_ATTEMPT"
	default:
		return string(c) + "_DETECTED"
	}
}

func matchFor(pat *Pattern, value, context string) MatchResult {
	return MatchResult{
		Kind:     MatchMalicious,
		Category: pat.Category,
		Severity: pat.Severity,
		Pattern:  pat.Regexp.String(),
		Value:    truncate(value, maxEvidenceLen),
		Context:  context,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
