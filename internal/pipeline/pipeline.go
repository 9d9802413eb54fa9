// Package pipeline runs the two batch passes: ingestion of live mail into the
// raw message ledger, and normalization of stored messages into routes,
// transport descriptions and prices.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Alibek88alarko/LogiGo2/internal/extract"
)

// ErrSourceUnavailable aborts an ingestion pass when the mail source cannot
// be opened or iterated.
var ErrSourceUnavailable = eris.New("pipeline: mail source unavailable")

// Extractor turns free text into quote fields. *extract.Extractor satisfies it.
type Extractor interface {
	Extract(ctx context.Context, text string, fields ...zap.Field) extract.Result
}
