// Package store persists the raw message ledger and the normalized price
// graph.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Alibek88alarko/LogiGo2/internal/model"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = eris.New("store: not found")

// PriceFilter narrows ListPrices. String filters are case-insensitive
// substring matches.
type PriceFilter struct {
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	TransportType string `json:"transport_type,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the ingestion and
// normalization passes.
type Store interface {
	// Messages
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
	// InsertMessage adds msg unless its stable id is already stored, in which
	// case inserted is false and err is nil.
	InsertMessage(ctx context.Context, msg *model.RawMessage) (id int64, inserted bool, err error)
	GetMessage(ctx context.Context, id int64) (*model.RawMessage, error)
	ListUnprocessed(ctx context.Context, limit int) ([]model.RawMessage, error)
	// UpdateExtraction stores fields and marks the message processed.
	UpdateExtraction(ctx context.Context, id int64, fields model.MessageFields) error
	ListUnmigrated(ctx context.Context, limit int) ([]model.RawMessage, error)

	// Normalization
	BeginNormalization(ctx context.Context) (NormalizeTx, error)

	// Reporting
	ListPrices(ctx context.Context, filter PriceFilter) ([]model.PriceRow, error)
	Stats(ctx context.Context) (*model.Stats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// NormalizeTx is the unit of work for normalizing one message. Nothing is
// visible to other readers until Commit.
type NormalizeTx interface {
	FindOrCreateRoute(ctx context.Context, loading, unloading string) (int64, error)
	FindOrCreateTransportType(ctx context.Context, name string) (int64, error)
	FindOrCreateTransportDetail(ctx context.Context, transportTypeID int64, subtype, size string) (int64, error)
	InsertPrice(ctx context.Context, p *model.Price) (int64, error)
	MarkMigrated(ctx context.Context, messageID int64) error
	Commit(ctx context.Context) error
	// Rollback discards the unit. It is a no-op after Commit.
	Rollback(ctx context.Context) error
}
