package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Alibek88alarko/LogiGo2/internal/model"
	"github.com/Alibek88alarko/LogiGo2/internal/store"
)

// NormalizeReport summarizes one normalization pass.
type NormalizeReport struct {
	PassID    string        `json:"pass_id"`
	Seen      int           `json:"seen"`
	Priced    int           `json:"priced"`
	RouteOnly int           `json:"route_only"`
	NoData    int           `json:"no_data"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// Normalizer migrates stored messages into the relational entity graph, one
// transaction per message.
type Normalizer struct {
	store store.Store
	ext   Extractor
	limit int
	log   *zap.Logger
}

// NewNormalizer wires a Normalizer. limit caps the rows read per pass; zero
// reads every pending row.
func NewNormalizer(st store.Store, ext Extractor, limit int, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{store: st, ext: ext, limit: limit, log: log}
}

type unitOutcome int

const (
	unitNoData unitOutcome = iota
	unitRouteOnly
	unitPriced
)

// Run processes every message not yet migrated. A failing message is rolled
// back and left for the next pass.
func (n *Normalizer) Run(ctx context.Context) (*NormalizeReport, error) {
	start := time.Now()
	report := &NormalizeReport{PassID: uuid.NewString()}
	log := n.log.With(zap.String("pass_id", report.PassID))

	rows, err := n.store.ListUnmigrated(ctx, n.limit)
	if err != nil {
		return nil, eris.Wrap(err, "normalize: list unmigrated")
	}
	if len(rows) == 0 {
		log.Info("normalize: nothing to migrate")
	} else {
		log.Info("normalize: starting pass", zap.Int("pending", len(rows)))
	}

	for i := range rows {
		if err := ctx.Err(); err != nil {
			return report, eris.Wrap(err, "normalize: interrupted")
		}
		row := &rows[i]
		report.Seen++
		rlog := log.With(zap.Int64("message_id", row.ID), zap.String("stable_id", row.StableID))

		outcome, err := n.migrate(ctx, row, rlog)
		if err != nil {
			rlog.Error("normalize: record skipped, rolled back", zap.Error(err))
			report.Skipped++
			continue
		}
		switch outcome {
		case unitNoData:
			report.NoData++
		case unitRouteOnly:
			report.RouteOnly++
		case unitPriced:
			report.Priced++
		}
	}

	report.Duration = time.Since(start)
	log.Info("normalize: pass complete",
		zap.Int("total", report.Seen),
		zap.Int("priced", report.Priced),
		zap.Int("route_only", report.RouteOnly),
		zap.Int("no_data", report.NoData),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// migrate runs one message as a single unit of work. The oracle call happens
// before the transaction opens.
func (n *Normalizer) migrate(ctx context.Context, row *model.RawMessage, log *zap.Logger) (outcome unitOutcome, err error) {
	res := n.ext.Extract(ctx, CombinedText(row.Fields),
		zap.Int64("message_id", row.ID), zap.String("stable_id", row.StableID))

	tx, err := n.store.BeginNormalization(ctx)
	if err != nil {
		return unitNoData, eris.Wrap(err, "normalize: begin")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Warn("normalize: rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if !res.HasData() {
		log.Info("normalize: no transport information", zap.Stringer("outcome", res.Outcome))
		if err = tx.MarkMigrated(ctx, row.ID); err != nil {
			return unitNoData, err
		}
		if err = tx.Commit(ctx); err != nil {
			return unitNoData, err
		}
		return unitNoData, nil
	}

	outcome, err = n.link(ctx, tx, row, res.Fields, log)
	if err != nil {
		return outcome, err
	}
	if err = tx.MarkMigrated(ctx, row.ID); err != nil {
		return outcome, err
	}
	if err = tx.Commit(ctx); err != nil {
		return outcome, err
	}
	log.Info("normalize: message migrated")
	return outcome, nil
}

// link creates or reuses the route, transport type and detail for a message
// and appends its price.
func (n *Normalizer) link(ctx context.Context, tx store.NormalizeTx, row *model.RawMessage, f model.ExtractedFields, log *zap.Logger) (unitOutcome, error) {
	stored := row.Fields
	origin := f.Or(model.FieldOrigin, stored.Origin)
	destination := f.Or(model.FieldDestination, stored.Destination)
	price := f.Or(model.FieldPrice, stored.Price)
	transportType := f.Or(model.FieldTransportType, stored.TransportType)
	subtype := f.Get(model.FieldTransportSubtype)
	size := f.Or(model.FieldCargoDetails, stored.CargoDetails)

	routeID, err := tx.FindOrCreateRoute(ctx, origin, destination)
	if err != nil {
		return unitNoData, err
	}
	log.Debug("normalize: route resolved", zap.Int64("route_id", routeID),
		zap.String("origin", origin), zap.String("destination", destination))

	if strings.TrimSpace(transportType) == "" {
		log.Warn("normalize: transport type missing, price not recorded")
		return unitRouteOnly, nil
	}

	typeID, err := tx.FindOrCreateTransportType(ctx, transportType)
	if err != nil {
		return unitRouteOnly, err
	}
	detailID, err := tx.FindOrCreateTransportDetail(ctx, typeID, subtype, size)
	if err != nil {
		return unitRouteOnly, err
	}

	amount, currency := model.ParsePrice(price)
	priceID, err := tx.InsertPrice(ctx, &model.Price{
		TransportDetailID: detailID,
		RouteID:           routeID,
		Value:             price,
		Amount:            amount,
		Currency:          currency,
		MessageID:         row.ID,
	})
	if err != nil {
		return unitRouteOnly, err
	}
	log.Debug("normalize: price recorded", zap.Int64("price_id", priceID),
		zap.Int64("transport_detail_id", detailID))
	return unitPriced, nil
}

// CombinedText renders the stored fields of a message as key: value lines,
// the text analysed during normalization.
func CombinedText(f model.MessageFields) string {
	var b strings.Builder
	for _, kv := range [][2]string{
		{model.FieldRequestType, f.RequestType},
		{model.FieldOrigin, f.Origin},
		{model.FieldDestination, f.Destination},
		{model.FieldCargoDetails, f.CargoDetails},
		{model.FieldPrice, f.Price},
		{model.FieldAdditionalInfo, f.AdditionalInfo},
		{model.FieldTransportType, f.TransportType},
		{model.FieldDates, f.Dates},
	} {
		fmt.Fprintf(&b, "%s: %s\n", kv[0], kv[1])
	}
	return b.String()
}
