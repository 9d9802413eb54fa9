package model

import (
	"sort"
	"strings"
)

// Field names of the extraction vocabulary. The oracle is asked to answer
// with exactly these keys.
const (
	FieldRequestType      = "request_type"
	FieldOrigin           = "origin"
	FieldDestination      = "destination"
	FieldCargoDetails     = "cargo_details"
	FieldTransportType    = "transport_type"
	FieldTransportSubtype = "transport_subtype"
	FieldDates            = "dates"
	FieldPrice            = "price"
	FieldAdditionalInfo   = "additional_info"
)

// Vocabulary lists the extraction fields in prompt order.
var Vocabulary = []string{
	FieldRequestType,
	FieldOrigin,
	FieldDestination,
	FieldCargoDetails,
	FieldTransportType,
	FieldTransportSubtype,
	FieldDates,
	FieldPrice,
	FieldAdditionalInfo,
}

// RequiredFields must be present for an extraction to be considered complete.
// Missing ones are reported, never enforced.
var RequiredFields = []string{
	FieldOrigin,
	FieldDestination,
	FieldCargoDetails,
	FieldPrice,
}

// ExtractedFields maps lower-cased field names to the values parsed from an
// oracle answer. Keys outside Vocabulary are kept as parsed.
type ExtractedFields map[string]string

// Lookup returns the trimmed value for key. Blank values count as absent.
func (f ExtractedFields) Lookup(key string) (string, bool) {
	v, ok := f[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Get returns the value for key or "".
func (f ExtractedFields) Get(key string) string {
	v, _ := f.Lookup(key)
	return v
}

// Or returns the value for key, falling back to def when absent or blank.
func (f ExtractedFields) Or(key, def string) string {
	if v, ok := f.Lookup(key); ok {
		return v
	}
	return def
}

// Missing returns the required fields that are absent, in RequiredFields order.
func (f ExtractedFields) Missing() []string {
	var out []string
	for _, k := range RequiredFields {
		if _, ok := f.Lookup(k); !ok {
			out = append(out, k)
		}
	}
	return out
}

// Unknown returns the sorted keys that are not part of Vocabulary.
func (f ExtractedFields) Unknown() []string {
	known := make(map[string]bool, len(Vocabulary))
	for _, k := range Vocabulary {
		known[k] = true
	}
	var out []string
	for k := range f {
		if !known[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// MessageFields projects the vocabulary onto the stored message columns.
func (f ExtractedFields) MessageFields() MessageFields {
	return MessageFields{
		RequestType:    f.Get(FieldRequestType),
		Origin:         f.Get(FieldOrigin),
		Destination:    f.Get(FieldDestination),
		CargoDetails:   f.Get(FieldCargoDetails),
		TransportType:  f.Get(FieldTransportType),
		Dates:          f.Get(FieldDates),
		Price:          f.Get(FieldPrice),
		AdditionalInfo: f.Get(FieldAdditionalInfo),
	}
}
