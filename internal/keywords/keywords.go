// Package keywords holds the locale-tagged keyword table shared by the body
// splitter and the ingestion heuristics.
package keywords

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Role is what a keyword marks in message text.
type Role string

const (
	// RoleHeader keywords start a quoted reply header line ("From:", "Тема:").
	RoleHeader Role = "header"
	// RoleThreadReference phrases say the message refers to the quoted thread.
	RoleThreadReference Role = "thread_reference"
	// RoleNoInformation phrases are the oracle's "nothing relevant" answer.
	RoleNoInformation Role = "no_information"
)

var roles = []Role{RoleHeader, RoleThreadReference, RoleNoInformation}

// Entry is one keyword of the table.
type Entry struct {
	Locale  string
	Keyword string
	Role    Role
}

// Table is an immutable keyword table. It is safe for concurrent use.
type Table struct {
	entries []Entry
	byRole  map[Role][]string
}

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic(eris.Wrap(err, "keywords: built-in table"))
	}
	return t
}

// Load reads a table from a YAML file. An empty path yields the built-in table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "keywords: read %s", path)
	}
	return Parse(data)
}

// Parse decodes a role -> locale -> keywords document.
func Parse(data []byte) (*Table, error) {
	var doc map[Role]map[string][]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "keywords: decode yaml")
	}

	known := make(map[Role]bool, len(roles))
	for _, r := range roles {
		known[r] = true
	}

	var entries []Entry
	for role, locales := range doc {
		if !known[role] {
			return nil, eris.Errorf("keywords: unknown role %q", role)
		}
		for locale, words := range locales {
			for _, w := range words {
				w = strings.TrimSpace(w)
				if w == "" {
					continue
				}
				entries = append(entries, Entry{Locale: locale, Keyword: w, Role: role})
			}
		}
	}
	return New(entries)
}

// New builds a table from entries. Every role needs at least one keyword.
func New(entries []Entry) (*Table, error) {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Role != b.Role {
			return a.Role < b.Role
		}
		if a.Locale != b.Locale {
			return a.Locale < b.Locale
		}
		return a.Keyword < b.Keyword
	})

	t := &Table{entries: sorted, byRole: make(map[Role][]string)}
	seen := make(map[Role]map[string]bool)
	for _, e := range sorted {
		if seen[e.Role] == nil {
			seen[e.Role] = make(map[string]bool)
		}
		folded := fold(e.Keyword)
		if seen[e.Role][folded] {
			continue
		}
		seen[e.Role][folded] = true
		t.byRole[e.Role] = append(t.byRole[e.Role], e.Keyword)
	}

	for _, r := range roles {
		if len(t.byRole[r]) == 0 {
			return nil, eris.Errorf("keywords: role %q has no keywords", r)
		}
	}
	return t, nil
}

// Entries returns a copy of all entries ordered by role, locale and keyword.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Keywords returns the distinct keywords for a role. Case-insensitive
// duplicates across locales ("date" in en and fr) appear once.
func (t *Table) Keywords(role Role) []string {
	return append([]string(nil), t.byRole[role]...)
}

// First returns the first keyword of the role for the given locale, or any
// keyword of the role when the locale has none.
func (t *Table) First(role Role, locale string) string {
	for _, e := range t.entries {
		if e.Role == role && e.Locale == locale {
			return e.Keyword
		}
	}
	if kw := t.byRole[role]; len(kw) > 0 {
		return kw[0]
	}
	return ""
}

// Find returns the first keyword of role contained in text, comparing
// case-folded forms.
func (t *Table) Find(role Role, text string) (string, bool) {
	folded := fold(text)
	for _, kw := range t.byRole[role] {
		if strings.Contains(folded, fold(kw)) {
			return kw, true
		}
	}
	return "", false
}

// Contains reports whether text contains any keyword of role.
func (t *Table) Contains(role Role, text string) bool {
	_, ok := t.Find(role, text)
	return ok
}

func fold(s string) string {
	return cases.Fold().String(s)
}
