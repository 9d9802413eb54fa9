package extract

import (
	"strings"

	"github.com/Alibek88alarko/LogiGo2/internal/keywords"
	"github.com/Alibek88alarko/LogiGo2/internal/model"
)

// ParseAnswer turns an oracle answer into a Result. A sentinel phrase from
// tbl anywhere in the answer wins over any parsed fields.
func ParseAnswer(answer string, tbl *keywords.Table) Result {
	if phrase, ok := tbl.Find(keywords.RoleNoInformation, answer); ok {
		return Result{Outcome: OutcomeNoData, Sentinel: phrase}
	}

	fields := ParseFields(answer)
	if len(fields) == 0 {
		return Result{Outcome: OutcomeNoData}
	}
	return Result{
		Outcome: OutcomeFields,
		Fields:  fields,
		Missing: fields.Missing(),
	}
}

// ParseFields reads "key: value" lines. A line without a colon continues the
// current field. Blank lines and text before the first key are ignored.
func ParseFields(answer string) model.ExtractedFields {
	fields := model.ExtractedFields{}
	current := ""

	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if key, value, ok := strings.Cut(line, ":"); ok {
			current = canonicalKey(key)
			if current == "" {
				continue
			}
			fields[current] = strings.TrimSpace(value)
			continue
		}
		if current == "" {
			continue
		}
		if fields[current] == "" {
			fields[current] = line
		} else {
			fields[current] += " " + line
		}
	}
	return fields
}

var vocabulary = func() map[string]bool {
	m := make(map[string]bool, len(model.Vocabulary))
	for _, k := range model.Vocabulary {
		m[k] = true
	}
	return m
}()

// canonicalKey lower-cases and trims key. A spelled-out vocabulary key
// ("Cargo details") maps onto its canonical form; other keys are kept as is.
func canonicalKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.Trim(key, "-*• \t")
	snake := strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if vocabulary[snake] {
		return snake
	}
	return key
}
