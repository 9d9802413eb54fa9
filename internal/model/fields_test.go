package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractedFields_LookupTreatsBlankAsAbsent(t *testing.T) {
	f := ExtractedFields{"origin": "  Berlin ", "price": "   "}

	v, ok := f.Lookup("origin")
	assert.True(t, ok)
	assert.Equal(t, "Berlin", v)

	_, ok = f.Lookup("price")
	assert.False(t, ok)

	_, ok = f.Lookup("destination")
	assert.False(t, ok)
}

func TestExtractedFields_Or(t *testing.T) {
	f := ExtractedFields{"origin": "Berlin", "destination": ""}

	assert.Equal(t, "Berlin", f.Or("origin", "Hamburg"))
	assert.Equal(t, "Paris", f.Or("destination", "Paris"))
	assert.Equal(t, "truck", f.Or("transport_type", "truck"))
}

func TestExtractedFields_Missing(t *testing.T) {
	f := ExtractedFields{"origin": "Berlin", "destination": "Paris"}
	assert.Equal(t, []string{"cargo_details", "price"}, f.Missing())

	full := ExtractedFields{"origin": "a", "destination": "b", "cargo_details": "c", "price": "d"}
	assert.Empty(t, full.Missing())
}

func TestExtractedFields_Unknown(t *testing.T) {
	f := ExtractedFields{"origin": "Berlin", "incoterms": "FCA", "contact": "Anna"}
	assert.Equal(t, []string{"contact", "incoterms"}, f.Unknown())
}

func TestExtractedFields_MessageFields(t *testing.T) {
	f := ExtractedFields{
		"request_type":   "quote",
		"origin":         "Berlin",
		"destination":    "Paris",
		"cargo_details":  "20 tons",
		"transport_type": "truck",
		"dates":          "May 1",
		"price":          "1200",
		"notes":          "ignored",
	}
	mf := f.MessageFields()
	assert.Equal(t, "quote", mf.RequestType)
	assert.Equal(t, "Berlin", mf.Origin)
	assert.Equal(t, "Paris", mf.Destination)
	assert.Equal(t, "20 tons", mf.CargoDetails)
	assert.Equal(t, "truck", mf.TransportType)
	assert.Equal(t, "May 1", mf.Dates)
	assert.Equal(t, "1200", mf.Price)
	assert.Empty(t, mf.AdditionalInfo)
	assert.False(t, mf.IsEmpty())
	assert.True(t, ExtractedFields{}.MessageFields().IsEmpty())
}
