package pipeline

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Alibek88alarko/LogiGo2/internal/extract"
	"github.com/Alibek88alarko/LogiGo2/internal/keywords"
	"github.com/Alibek88alarko/LogiGo2/internal/mailsource"
	"github.com/Alibek88alarko/LogiGo2/internal/model"
	"github.com/Alibek88alarko/LogiGo2/internal/splitter"
	"github.com/Alibek88alarko/LogiGo2/internal/store"
)

// IngestOptions tune an ingestion pass.
type IngestOptions struct {
	// Limit caps how many new messages one pass stores. Zero means no cap.
	Limit int
	// MinMainBody is the rune count below which the quoted history is
	// analysed together with the message's own text.
	MinMainBody int
}

// DefaultIngestOptions returns the production defaults.
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{MinMainBody: 50}
}

// IngestReport summarizes one pass.
type IngestReport struct {
	PassID     string        `json:"pass_id"`
	Seen       int           `json:"seen"`
	Duplicates int           `json:"duplicates"`
	Skipped    int           `json:"skipped"`
	Stored     int           `json:"stored"`
	Extracted  int           `json:"extracted"`
	Duration   time.Duration `json:"duration"`
}

// Ingester moves new mail into the message ledger with extracted fields.
type Ingester struct {
	src   mailsource.Source
	store store.Store
	ext   Extractor
	kw    *keywords.Table
	split *splitter.Splitter
	norm  *mailsource.Normalizer
	opts  IngestOptions
	log   *zap.Logger
}

// NewIngester wires an Ingester. A nil table uses the built-in keywords.
func NewIngester(src mailsource.Source, st store.Store, ext Extractor, tbl *keywords.Table, opts IngestOptions, log *zap.Logger) *Ingester {
	if log == nil {
		log = zap.NewNop()
	}
	if tbl == nil {
		tbl = keywords.Default()
	}
	if opts.MinMainBody <= 0 {
		opts.MinMainBody = DefaultIngestOptions().MinMainBody
	}
	return &Ingester{
		src:   src,
		store: st,
		ext:   ext,
		kw:    tbl,
		split: splitter.New(tbl),
		norm:  mailsource.NewNormalizer(log),
		opts:  opts,
		log:   log,
	}
}

// Run performs the live pass: every item of the source not yet in the store
// is normalized, analysed and persisted, newest first.
func (g *Ingester) Run(ctx context.Context) (*IngestReport, error) {
	start := time.Now()
	report := &IngestReport{PassID: uuid.NewString()}
	log := g.log.With(zap.String("pass_id", report.PassID))
	log.Info("ingest: starting pass", zap.Int("limit", g.opts.Limit))

	existing, err := g.store.ExistingIDs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: load existing ids")
	}

	it, err := g.src.Items(ctx)
	if err != nil {
		return nil, eris.Wrapf(ErrSourceUnavailable, "ingest: open source: %v", err)
	}
	defer it.Close() //nolint:errcheck

	for it.Next() {
		if err := ctx.Err(); err != nil {
			return report, eris.Wrap(err, "ingest: interrupted")
		}
		report.Seen++
		item := it.Item()

		id, ok := g.norm.Identify(item)
		if !ok {
			report.Skipped++
			continue
		}
		if _, dup := existing[id]; dup {
			report.Duplicates++
			continue
		}

		stored, extracted := g.ingestOne(ctx, item, log.With(zap.String("stable_id", id)))
		if !stored {
			report.Skipped++
			continue
		}
		existing[id] = struct{}{}
		report.Stored++
		if extracted {
			report.Extracted++
		}

		if g.opts.Limit > 0 && report.Stored >= g.opts.Limit {
			log.Info("ingest: limit reached", zap.Int("limit", g.opts.Limit))
			break
		}
	}
	if err := it.Err(); err != nil {
		return report, eris.Wrapf(ErrSourceUnavailable, "ingest: iterate source: %v", err)
	}

	report.Duration = time.Since(start)
	log.Info("ingest: pass complete",
		zap.Int("seen", report.Seen),
		zap.Int("stored", report.Stored),
		zap.Int("extracted", report.Extracted),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// ingestOne persists a single new item. stored is false when the item could
// not be normalized or written.
func (g *Ingester) ingestOne(ctx context.Context, item mailsource.Item, log *zap.Logger) (stored, extracted bool) {
	msg, ok := g.norm.Normalize(item)
	if !ok {
		log.Warn("ingest: record skipped, normalization failed")
		return false, false
	}

	res := g.analyse(ctx, msg.Body, zap.String("stable_id", msg.StableID))
	if res.HasData() {
		msg.Fields = res.Fields.MessageFields()
	}
	msg.Processed = true

	id, inserted, err := g.store.InsertMessage(ctx, msg)
	if err != nil {
		log.Warn("ingest: record skipped, insert failed", zap.Error(err))
		return false, false
	}
	if !inserted {
		log.Debug("ingest: message already stored")
		return false, false
	}
	log.Info("ingest: message stored",
		zap.Int64("message_id", id),
		zap.String("sender", msg.Sender),
		zap.Stringer("outcome", res.Outcome),
	)
	return true, res.HasData()
}

// Reprocess re-extracts stored messages whose extraction was never attempted,
// in store order, and records the result.
func (g *Ingester) Reprocess(ctx context.Context) (*IngestReport, error) {
	start := time.Now()
	report := &IngestReport{PassID: uuid.NewString()}
	log := g.log.With(zap.String("pass_id", report.PassID))

	rows, err := g.store.ListUnprocessed(ctx, 0)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: list unprocessed")
	}
	log.Info("ingest: re-scanning unprocessed messages", zap.Int("count", len(rows)))

	for i := range rows {
		if err := ctx.Err(); err != nil {
			return report, eris.Wrap(err, "ingest: interrupted")
		}
		row := &rows[i]
		report.Seen++
		rlog := log.With(zap.Int64("message_id", row.ID), zap.String("stable_id", row.StableID))

		res := g.analyse(ctx, row.Body, zap.Int64("message_id", row.ID), zap.String("stable_id", row.StableID))
		var fields model.MessageFields
		if res.HasData() {
			fields = res.Fields.MessageFields()
			report.Extracted++
		}
		if err := g.store.UpdateExtraction(ctx, row.ID, fields); err != nil {
			rlog.Warn("ingest: record skipped, update failed", zap.Error(err))
			report.Skipped++
			continue
		}
		report.Stored++
	}

	report.Duration = time.Since(start)
	log.Info("ingest: re-scan complete",
		zap.Int("updated", report.Stored),
		zap.Int("extracted", report.Extracted),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (g *Ingester) analyse(ctx context.Context, body string, fields ...zap.Field) extract.Result {
	text := g.AnalysisText(g.split.Split(body))
	if strings.TrimSpace(text) == "" {
		return extract.Result{Outcome: extract.OutcomeNoData}
	}
	return g.ext.Extract(ctx, text, fields...)
}

// AnalysisText picks the text sent for extraction: the message's own part,
// or the own part plus history when the own part is short or refers back to
// the thread.
func (g *Ingester) AnalysisText(p splitter.Parts) string {
	if utf8.RuneCountInString(p.Main) < g.opts.MinMainBody || g.kw.Contains(keywords.RoleThreadReference, p.Main) {
		return p.WithHistory()
	}
	return p.Main
}
