// Package splitter separates a message's own text from the quoted reply
// history that follows it.
package splitter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Alibek88alarko/LogiGo2/internal/keywords"
)

// Parts is the result of splitting a message body.
type Parts struct {
	// Main is the message's own text, trimmed.
	Main string
	// History is the quoted thread from the first reply header on, trimmed.
	// Only meaningful when HasHistory is set.
	History string
	// HasHistory distinguishes "no quoted history" from an empty one.
	HasHistory bool
}

// WithHistory returns Main followed by a newline and History. Absent history
// contributes an empty string.
func (p Parts) WithHistory() string {
	return p.Main + "\n" + p.History
}

// Splitter finds the first reply-header or separator line in a text.
type Splitter struct {
	re *regexp.Regexp
}

// New builds a Splitter from the header keywords of tbl.
func New(tbl *keywords.Table) *Splitter {
	return &Splitter{re: regexp.MustCompile(Pattern(tbl.Keywords(keywords.RoleHeader)))}
}

var defaultSplitter = New(keywords.Default())

// Split splits text with the built-in keyword table.
func Split(text string) Parts {
	return defaultSplitter.Split(text)
}

// Split returns the text before the earliest matching line as Main and the
// rest, starting at that line, as History.
func (s *Splitter) Split(text string) Parts {
	loc := s.re.FindStringIndex(text)
	if loc == nil {
		return Parts{Main: strings.TrimSpace(text)}
	}
	return Parts{
		Main:       strings.TrimSpace(text[:loc[0]]),
		History:    strings.TrimSpace(text[loc[0]:]),
		HasHistory: true,
	}
}

// Pattern returns the multi-line, case-insensitive expression matching either
// a line that starts with one of headers followed by a colon, or a line made
// only of two or more hyphens. Full-width colons are accepted for CJK mail
// clients.
func Pattern(headers []string) string {
	words := append([]string(nil), headers...)
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })

	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return `(?im)^(?:(?:` + strings.Join(quoted, "|") + `)[ \t]*[:：].*$|-{2,}[ \t]*\r?$)`
}
