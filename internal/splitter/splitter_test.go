package splitter

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alibek88alarko/LogiGo2/internal/keywords"
)

func TestSplit_NoHistory(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"Hello,\nplease quote a truck Berlin to Paris.\n",
		"\n\n  Single line with spaces  \n",
		"Price in EUR - 1200\nwith a dash-separated - line",
		"Fromage: not a header keyword",
	}
	for _, text := range tests {
		p := Split(text)
		assert.False(t, p.HasHistory, "text %q", text)
		assert.Empty(t, p.History)
		assert.Equal(t, trim(text), p.Main)
	}
}

func TestSplit_FirstHeaderLine(t *testing.T) {
	a := "Hello,\nWe need a truck.\n\n"
	header := "From: Someone <someone@example.com>"
	b := "\nSent: yesterday\nSubject: RE: quote\n\nold text"

	p := Split(a + header + b)
	require.True(t, p.HasHistory)
	assert.Equal(t, "Hello,\nWe need a truck.", p.Main)
	assert.Equal(t, trim(header+b), p.History)
}

func TestSplit_CaseInsensitive(t *testing.T) {
	p := Split("Thanks\nFROM: Ops Team\nrest")
	require.True(t, p.HasHistory)
	assert.Equal(t, "Thanks", p.Main)
	assert.Equal(t, "FROM: Ops Team\nrest", p.History)
}

func TestSplit_Localized(t *testing.T) {
	tests := []struct {
		name string
		text string
		main string
	}{
		{"russian", "Добрый день\nОт: Иван\nТема: ставка", "Добрый день"},
		{"russian upper", "Ставка 1200\nТЕМА: Re: запрос", "Ставка 1200"},
		{"german", "Anbei\nVon: Max\nGesendet: Montag", "Anbei"},
		{"french spaced colon", "Merci\nDe : Jean\nEnvoyé : lundi", "Merci"},
		{"chinese fullwidth", "谢谢\n发件人：张三\n主题：报价", "谢谢"},
		{"vietnamese multiword", "Cảm ơn\nChủ đề: báo giá", "Cảm ơn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Split(tt.text)
			require.True(t, p.HasHistory)
			assert.Equal(t, tt.main, p.Main)
		})
	}
}

func TestSplit_HyphenSeparator(t *testing.T) {
	p := Split("Rate is 900 EUR\n-----\nOriginal message text")
	require.True(t, p.HasHistory)
	assert.Equal(t, "Rate is 900 EUR", p.Main)
	assert.Equal(t, "-----\nOriginal message text", p.History)

	crlf := Split("Rate\r\n--\r\nold")
	require.True(t, crlf.HasHistory)
	assert.Equal(t, "Rate", crlf.Main)
}

func TestSplit_SingleHyphenIsNotSeparator(t *testing.T) {
	p := Split("List:\n- item\n-\nend")
	assert.False(t, p.HasHistory)
}

func TestSplit_EarliestMatchWins(t *testing.T) {
	text := "Body\n----\nSubject: first\nFrom: second"
	p := Split(text)
	require.True(t, p.HasHistory)
	assert.Equal(t, "Body", p.Main)
	assert.Equal(t, "----\nSubject: first\nFrom: second", p.History)

	text = "Body\nDate: Monday\n----\nFrom: x"
	p = Split(text)
	assert.Equal(t, "Date: Monday\n----\nFrom: x", p.History)
}

func TestSplit_AnchoredAtLineStart(t *testing.T) {
	p := Split("Reply to this mail from: me\nand more -- text")
	assert.False(t, p.HasHistory)
}

func TestSplit_HeaderAtStart(t *testing.T) {
	p := Split("From: a@b.c\nSubject: hi\n\nbody")
	require.True(t, p.HasHistory)
	assert.Empty(t, p.Main)
	assert.Equal(t, "From: a@b.c\nSubject: hi\n\nbody", p.History)
}

func TestSplit_EmptyHistoryDistinguishable(t *testing.T) {
	p := Split("Main text\n--")
	require.True(t, p.HasHistory)
	assert.Equal(t, "--", p.History)

	none := Split("Main text")
	assert.False(t, none.HasHistory)
	assert.Equal(t, "Main text\n", none.WithHistory())
}

func TestNew_CustomTable(t *testing.T) {
	tbl, err := keywords.New([]keywords.Entry{
		{Locale: "en", Keyword: "quoted", Role: keywords.RoleHeader},
		{Locale: "en", Keyword: "see below", Role: keywords.RoleThreadReference},
		{Locale: "en", Keyword: "NONE", Role: keywords.RoleNoInformation},
	})
	require.NoError(t, err)
	s := New(tbl)

	p := s.Split("hi\nFrom: x\nQuoted: y")
	require.True(t, p.HasHistory)
	assert.Equal(t, "hi\nFrom: x", p.Main)
}

func TestPattern_QuotesMetaCharacters(t *testing.T) {
	re := regexp.MustCompile(Pattern([]string{"a.b"}))
	assert.False(t, re.MatchString("axb: value"))
	assert.True(t, re.MatchString("A.B: value"))
}

func trim(s string) string {
	return regexp.MustCompile(`^\s+|\s+$`).ReplaceAllString(s, "")
}
