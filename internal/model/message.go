package model

import "time"

// RawMessage is a mail message as recorded in the messages ledger. A row is
// written once per stable identifier and is never deleted by the pipelines.
type RawMessage struct {
	ID           int64     `json:"id"`
	StableID     string    `json:"stable_id"`
	Subject      string    `json:"subject"`
	Sender       string    `json:"sender"`
	ReceivedTime time.Time `json:"received_time"`
	Body         string    `json:"body"`
	HTMLBody     string    `json:"html_body,omitempty"`
	Attachments  []string  `json:"attachments"`

	Fields MessageFields `json:"fields"`

	// Processed marks that structured extraction was attempted, not that it
	// produced anything.
	Processed bool `json:"processed"`
	// MigrationProcessed marks that the normalization pass handled the row.
	MigrationProcessed bool `json:"migration_processed"`

	CreatedAt time.Time `json:"created_at"`
}

// MessageFields are the loosely structured quote fields stored alongside a
// raw message.
type MessageFields struct {
	RequestType    string `json:"request_type"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	CargoDetails   string `json:"cargo_details"`
	TransportType  string `json:"transport_type"`
	Dates          string `json:"dates"`
	Price          string `json:"price"`
	AdditionalInfo string `json:"additional_info"`
}

// IsEmpty reports whether no structured field carries a value.
func (f MessageFields) IsEmpty() bool {
	return f == MessageFields{}
}
