package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Alibek88alarko/LogiGo2/internal/extract"
	"github.com/Alibek88alarko/LogiGo2/internal/mailsource"
	"github.com/Alibek88alarko/LogiGo2/internal/model"
	"github.com/Alibek88alarko/LogiGo2/internal/oracle"
	"github.com/Alibek88alarko/LogiGo2/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- mail source fakes ---

type fakeItem struct {
	id       string
	notMail  bool
	subject  string
	body     string
	sender   string
	received time.Time
}

func (f *fakeItem) IsMail() bool                   { return !f.notMail }
func (f *fakeItem) StableID() (string, error)      { return f.id, nil }
func (f *fakeItem) Subject() string                { return f.subject }
func (f *fakeItem) Body() string                   { return f.body }
func (f *fakeItem) HTMLBody() (string, error)      { return "", eris.New("no html part") }
func (f *fakeItem) ReceivedTime() time.Time        { return f.received }
func (f *fakeItem) Sender() mailsource.Sender      { return mailsource.Sender{Address: f.sender} }
func (f *fakeItem) Attachments() ([]string, error) { return nil, nil }

func mail(id, body string) *fakeItem {
	return &fakeItem{
		id:       id,
		subject:  "Quote " + id,
		body:     body,
		sender:   "ops@carrier.example",
		received: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
	}
}

type fakeSource struct {
	items   []mailsource.Item
	openErr error
	iterErr error
}

func (s *fakeSource) Items(_ context.Context) (mailsource.Iterator, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	if s.iterErr != nil {
		return &failingIterator{Iterator: mailsource.NewSliceIterator(s.items), err: s.iterErr}, nil
	}
	return mailsource.NewSliceIterator(s.items), nil
}

func (s *fakeSource) Close() error { return nil }

type failingIterator struct {
	mailsource.Iterator
	err error
}

func (it *failingIterator) Err() error { return it.err }

// --- extractor fakes ---

// scriptedExtractor answers by substring: the first rule whose needle occurs
// in the text wins. Unmatched text yields no data.
type scriptedExtractor struct {
	mu    sync.Mutex
	rules []rule
	calls []string
}

type rule struct {
	needle string
	result extract.Result
}

func (s *scriptedExtractor) on(needle string, fields model.ExtractedFields) *scriptedExtractor {
	s.rules = append(s.rules, rule{needle: needle, result: extract.Result{Outcome: extract.OutcomeFields, Fields: fields}})
	return s
}

func (s *scriptedExtractor) Extract(_ context.Context, text string, _ ...zap.Field) extract.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text)
	for _, r := range s.rules {
		if strings.Contains(text, r.needle) {
			return r.result
		}
	}
	return extract.Result{Outcome: extract.OutcomeNoData}
}

// fakeCompleter is an oracle returning a fixed answer. It records prompts.
type fakeCompleter struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, req oracle.Request) (*oracle.Response, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &oracle.Response{Text: f.answer, Model: "gpt-3.5-turbo", Usage: oracle.Usage{InputTokens: 120, OutputTokens: 40}}, nil
}

func (f *fakeCompleter) Provider() string { return oracle.ProviderOpenAI }
func (f *fakeCompleter) Model() string    { return "gpt-3.5-turbo" }

// --- store wrappers ---

// failingPriceStore opens transactions whose InsertPrice always fails.
type failingPriceStore struct {
	store.Store
}

func (s failingPriceStore) BeginNormalization(ctx context.Context) (store.NormalizeTx, error) {
	tx, err := s.Store.BeginNormalization(ctx)
	if err != nil {
		return nil, err
	}
	return failingPriceTx{NormalizeTx: tx}, nil
}

type failingPriceTx struct {
	store.NormalizeTx
}

func (failingPriceTx) InsertPrice(_ context.Context, _ *model.Price) (int64, error) {
	return 0, eris.New("disk full")
}
