// Package extract asks the completion oracle for structured quote fields and
// parses its answer.
package extract

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Alibek88alarko/LogiGo2/internal/cost"
	"github.com/Alibek88alarko/LogiGo2/internal/keywords"
	"github.com/Alibek88alarko/LogiGo2/internal/model"
	"github.com/Alibek88alarko/LogiGo2/internal/oracle"
)

// Outcome classifies an extraction.
type Outcome int

const (
	// OutcomeNoData means the oracle found nothing relevant.
	OutcomeNoData Outcome = iota
	// OutcomeFailed means the oracle call failed. Callers treat it as no data.
	OutcomeFailed
	// OutcomeFields means at least one field was extracted.
	OutcomeFields
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoData:
		return "no_data"
	case OutcomeFailed:
		return "failed"
	case OutcomeFields:
		return "fields"
	}
	return "unknown"
}

// Result is the outcome of one extraction.
type Result struct {
	Outcome Outcome
	Fields  model.ExtractedFields
	// Missing lists required fields absent from Fields.
	Missing []string
	// Sentinel is the no-information phrase the answer contained, if any.
	Sentinel string
	Err      error
	Usage    oracle.Usage
	CostUSD  float64
}

// HasData reports whether the result carries fields.
func (r Result) HasData() bool {
	return r.Outcome == OutcomeFields && len(r.Fields) > 0
}

// Options tunes oracle calls.
type Options struct {
	Temperature float64
	MaxTokens   int
	// RequestsPerMinute paces calls; zero disables pacing.
	RequestsPerMinute int
	// Locale selects the sentinel phrase put in the prompt.
	Locale string
}

// DefaultOptions returns the near-deterministic settings used for extraction.
func DefaultOptions() Options {
	return Options{Temperature: 0.2, MaxTokens: 500, Locale: "en"}
}

// Extractor runs extractions against one oracle.
type Extractor struct {
	oracle   oracle.Completer
	table    *keywords.Table
	calc     *cost.Calculator
	limiter  *rate.Limiter
	opts     Options
	sentinel string
	log      *zap.Logger
}

// New creates an Extractor. A nil table uses the built-in keywords; a nil
// calculator uses the default rates.
func New(c oracle.Completer, tbl *keywords.Table, calc *cost.Calculator, opts Options, log *zap.Logger) *Extractor {
	if tbl == nil {
		tbl = keywords.Default()
	}
	if calc == nil {
		calc = cost.NewCalculator(cost.DefaultRates())
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultOptions().MaxTokens
	}
	if opts.Locale == "" {
		opts.Locale = "en"
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	return &Extractor{
		oracle:   c,
		table:    tbl,
		calc:     calc,
		limiter:  limiter,
		opts:     opts,
		sentinel: tbl.First(keywords.RoleNoInformation, opts.Locale),
		log:      log,
	}
}

// Extract sends text to the oracle and parses the answer. It never returns
// an error: failures come back as OutcomeFailed. fields tag every log line,
// typically with the record identifier.
func (e *Extractor) Extract(ctx context.Context, text string, fields ...zap.Field) Result {
	log := e.log.With(fields...)
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			log.Error("extract: rate limiter wait", zap.Error(err))
			return Result{Outcome: OutcomeFailed, Err: err}
		}
	}

	resp, err := e.oracle.Complete(ctx, oracle.Request{
		System:      systemPrompt,
		Prompt:      BuildPrompt(text, e.sentinel),
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
	})
	if err != nil {
		log.Error("extract: oracle call failed",
			zap.String("provider", e.oracle.Provider()),
			zap.String("model", e.oracle.Model()),
			zap.Error(err),
		)
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	bd := e.calc.Call(e.oracle.Provider(), e.oracle.Model(), cost.Usage{
		Input:      resp.Usage.InputTokens,
		Output:     resp.Usage.OutputTokens,
		CacheWrite: resp.Usage.CacheWriteTokens,
		CacheRead:  resp.Usage.CacheReadTokens,
	})
	log.Info("extract: oracle usage",
		zap.String("provider", e.oracle.Provider()),
		zap.String("model", e.oracle.Model()),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Int("total_tokens", resp.Usage.InputTokens+resp.Usage.OutputTokens),
		zap.Float64("input_cost_usd", bd.Input),
		zap.Float64("output_cost_usd", bd.Output),
		zap.Float64("estimated_cost_usd", bd.Total()),
	)

	res := ParseAnswer(resp.Text, e.table)
	res.Usage = resp.Usage
	res.CostUSD = bd.Total()

	switch {
	case res.Sentinel != "":
		log.Debug("extract: oracle reported no transport information")
	case res.Outcome == OutcomeNoData:
		log.Warn("extract: answer had no fields", zap.Int("answer_len", len(resp.Text)))
	case len(res.Missing) > 0:
		log.Warn("extract: required fields missing", zap.Strings("missing", res.Missing))
	}
	if unknown := res.Fields.Unknown(); len(unknown) > 0 {
		log.Debug("extract: answer carried extra keys", zap.Strings("keys", unknown))
	}
	return res
}
