package model

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	amountRe = regexp.MustCompile(`\d[\d\s.,]*`)
	// spaceGroupRe is a thousands group after a space, optionally carrying
	// the decimal part: "500" in "1 500", "200,50" in "1 200,50".
	spaceGroupRe = regexp.MustCompile(`^\d{3}(?:[.,]\d+)?$`)
	// currencyCodeRe matches letter codes as whole words. Ruble forms are
	// inflected, so any word starting with "руб" counts.
	currencyCodeRe = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(eur|euros?|usd|gbp|rub|cny|rmb|kzt|тенге|руб\p{L}*)(?:[^\p{L}]|$)`)
)

var currencySymbols = []struct {
	marker string
	code   string
}{
	{"€", "EUR"}, {"$", "USD"}, {"£", "GBP"}, {"₽", "RUB"}, {"¥", "CNY"}, {"₸", "KZT"},
}

var currencyCodes = map[string]string{
	"eur": "EUR", "euro": "EUR", "euros": "EUR",
	"usd": "USD",
	"gbp": "GBP",
	"rub": "RUB",
	"cny": "CNY", "rmb": "CNY",
	"kzt": "KZT", "тенге": "KZT",
}

// ParsePrice makes a best-effort read of the first amount and a currency
// code from free-text price. The amount is nil when no number is present.
func ParsePrice(text string) (*float64, string) {
	currency := parseCurrency(text)

	raw := firstAmount(amountRe.FindString(text))
	if raw == "" {
		return nil, currency
	}
	amount, ok := parseAmount(raw)
	if !ok {
		return nil, currency
	}
	return &amount, currency
}

func parseCurrency(text string) string {
	for _, c := range currencySymbols {
		if strings.Contains(text, c.marker) {
			return c.code
		}
	}
	m := currencyCodeRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	word := strings.ToLower(m[1])
	if strings.HasPrefix(word, "руб") {
		return "RUB"
	}
	return currencyCodes[word]
}

// firstAmount trims a digit run down to one number. A separator followed by
// whitespace ends it ("1200, 1300"), and a space only joins thousands groups
// ("1 500", not "1200 1300").
func firstAmount(raw string) string {
	for i := 0; i+1 < len(raw); i++ {
		if (raw[i] == ',' || raw[i] == '.') && unicode.IsSpace(rune(raw[i+1])) {
			raw = raw[:i]
			break
		}
	}
	groups := strings.Fields(raw)
	if len(groups) == 0 {
		return ""
	}
	n := 1
	if len(groups[0]) <= 3 {
		for n < len(groups) && spaceGroupRe.MatchString(groups[n]) {
			n++
		}
	}
	return strings.Join(groups[:n], "")
}

// parseAmount accepts "1200", "1,200.50" and "1.200,50".
func parseAmount(raw string) (float64, bool) {
	s := strings.TrimRight(raw, ".,")
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// A single comma followed by exactly three digits is a thousands separator.
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
