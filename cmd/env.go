package main

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Alibek88alarko/LogiGo2/internal/cost"
	"github.com/Alibek88alarko/LogiGo2/internal/extract"
	"github.com/Alibek88alarko/LogiGo2/internal/keywords"
	"github.com/Alibek88alarko/LogiGo2/internal/mailsource"
	"github.com/Alibek88alarko/LogiGo2/internal/oracle"
	"github.com/Alibek88alarko/LogiGo2/internal/pipeline"
	"github.com/Alibek88alarko/LogiGo2/internal/store"
	anthropicpkg "github.com/Alibek88alarko/LogiGo2/pkg/anthropic"
)

// initStore opens the configured store and applies its migration.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "logigo.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initKeywords loads the keyword table file, or the built-in table when no
// path is configured.
func initKeywords() (*keywords.Table, error) {
	if cfg.Keywords.Path == "" {
		return keywords.Default(), nil
	}
	tbl, err := keywords.Load(cfg.Keywords.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load keyword table")
	}
	return tbl, nil
}

// initOracle builds the completion client for the configured provider.
func initOracle() (oracle.Completer, error) {
	switch cfg.Oracle.Provider {
	case oracle.ProviderAnthropic:
		var opts []option.RequestOption
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		return oracle.NewAnthropic(anthropicpkg.NewClient(cfg.Anthropic.Key, opts...), cfg.Anthropic.Model), nil
	case oracle.ProviderOpenAI:
		return oracle.NewOpenAI(oracle.NewOpenAIClient(cfg.OpenAI.Key, cfg.OpenAI.BaseURL), cfg.OpenAI.Model), nil
	default:
		return nil, eris.Errorf("unsupported oracle provider: %s", cfg.Oracle.Provider)
	}
}

// initExtractor wires the oracle, keyword table and pricing into an Extractor.
func initExtractor(tbl *keywords.Table) (*extract.Extractor, error) {
	c, err := initOracle()
	if err != nil {
		return nil, err
	}
	zap.L().Info("oracle ready", zap.String("provider", c.Provider()), zap.String("model", c.Model()))

	return extract.New(c, tbl, cost.NewCalculator(cfg.Pricing.Rates()), extract.Options{
		Temperature:       cfg.Oracle.Temperature,
		MaxTokens:         cfg.Oracle.MaxTokens,
		RequestsPerMinute: cfg.Oracle.RequestsPerMinute,
		Locale:            cfg.Oracle.Locale,
	}, zap.L()), nil
}

// initSource opens the named mail source. Failures are reported as
// pipeline.ErrSourceUnavailable.
func initSource(ctx context.Context, name string) (mailsource.Source, error) {
	switch name {
	case "imap":
		src, err := mailsource.DialIMAP(mailsource.IMAPConfig{
			Addr:     cfg.IMAP.Addr,
			Username: cfg.IMAP.Username,
			Password: cfg.IMAP.Password,
			Mailbox:  cfg.IMAP.Mailbox,
			Timeout:  time.Duration(cfg.IMAP.TimeoutSecs) * time.Second,
		}, zap.L())
		if err != nil {
			return nil, eris.Wrapf(pipeline.ErrSourceUnavailable, "open imap source: %v", err)
		}
		return src, nil
	case "graph":
		gcfg := mailsource.GraphConfig{
			TenantID:     cfg.Graph.TenantID,
			ClientID:     cfg.Graph.ClientID,
			ClientSecret: cfg.Graph.ClientSecret,
			User:         cfg.Graph.User,
			Folder:       cfg.Graph.Folder,
			PageSize:     cfg.Graph.PageSize,
			BaseURL:      cfg.Graph.BaseURL,
		}
		client, err := mailsource.NewGraphClient(ctx, gcfg)
		if err != nil {
			return nil, eris.Wrapf(pipeline.ErrSourceUnavailable, "open graph source: %v", err)
		}
		return mailsource.NewGraphSource(client, gcfg, zap.L()), nil
	case "dir":
		if cfg.Dir.Path == "" {
			return nil, eris.Wrap(pipeline.ErrSourceUnavailable, "open dir source: dir.path is empty")
		}
		return mailsource.NewDirSource(cfg.Dir.Path, zap.L()), nil
	default:
		return nil, eris.Errorf("unsupported mail source: %s", name)
	}
}
