// Package dedup merges raw records that describe the same company into
// canonical entities. Matching is by normalized name similarity with a
// domain-equality short circuit; clustering is transitive and independent
// of input order.
package dedup

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// legalSuffixes strips trailing corporate forms so "Acme Corp" and
// "Acme Corporation" normalize identically. Applied repeatedly: "Acme
// Holdings LLC" loses both tokens.
var legalSuffixes = regexp.MustCompile(`\s+(inc|incorporated|corp|corporation|co|company|llc|llp|lp|ltd|limited|plc|gmbh|ag|sa|srl|bv|pty|holdings|group)\.?$`)

var punctReplacer = strings.NewReplacer(
	"&", " and ",
	"+", " and ",
	".", " ",
	",", " ",
	"'", "",
	"’", "",
	"\"", "",
	"-", " ",
	"–", " ",
	"—", " ",
	"(", " ",
	")", " ",
	"/", " ",
	"_", " ",
	"!", "",
	"?", "",
	":", " ",
	";", " ",
)

var foldCaser = cases.Fold()

// NormalizeName lowercases with Unicode case folding, strips legal
// suffixes and punctuation, and collapses whitespace. The result is the
// comparison key for similarity matching.
func NormalizeName(name string) string {
	s := foldCaser.String(strings.TrimSpace(name))
	s = punctReplacer.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	for {
		trimmed := legalSuffixes.ReplaceAllString(s, "")
		if trimmed == s {
			break
		}
		s = trimmed
	}
	return strings.TrimSpace(s)
}

// NormalizeDomain reduces a website URL to its bare host: scheme, "www."
// prefix, path, query, and port are all dropped. Empty input stays empty.
func NormalizeDomain(rawURL string) string {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimSuffix(s, ".")
}
