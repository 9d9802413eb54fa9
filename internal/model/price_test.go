package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		amount   float64
		currency string
	}{
		{"plain", "1200", 1200, ""},
		{"euro prefix", "€1200", 1200, "EUR"},
		{"usd suffix", "1 500 USD", 1500, "USD"},
		{"thousands comma", "$1,200.50", 1200.50, "USD"},
		{"european decimal", "1.200,50 EUR", 1200.50, "EUR"},
		{"decimal comma", "12,5 eur", 12.5, "EUR"},
		{"rubles", "85000 руб.", 85000, "RUB"},
		{"trailing text", "budget 900 per truck", 900, ""},
		{"spaced thousands with decimals", "1 200,50 EUR", 1200.50, "EUR"},
		{"millions", "12 000 000 тенге", 12000000, "KZT"},
		{"inflected rubles", "85 000 рублей", 85000, "RUB"},
		{"list takes first", "1200, 1300 EUR", 1200, "EUR"},
		{"space separated list", "1200 1300", 1200, ""},
		{"word inside text", "1200 to Europe", 1200, ""},
		{"rubber goods", "rubber, 700", 700, ""},
		{"code glued to amount", "900USD", 900, "USD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, currency := ParsePrice(tt.input)
			require.NotNil(t, amount)
			assert.InDelta(t, tt.amount, *amount, 0.001)
			assert.Equal(t, tt.currency, currency)
		})
	}
}

func TestParsePrice_NoNumber(t *testing.T) {
	amount, currency := ParsePrice("on request")
	assert.Nil(t, amount)
	assert.Empty(t, currency)

	amount, currency = ParsePrice("EUR, to be agreed")
	assert.Nil(t, amount)
	assert.Equal(t, "EUR", currency)
}
