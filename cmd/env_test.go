package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alibek88alarko/LogiGo2/internal/config"
	"github.com/Alibek88alarko/LogiGo2/internal/oracle"
	"github.com/Alibek88alarko/LogiGo2/internal/pipeline"
)

func TestInitStore_SQLite(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "logigo.db"),
	}}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Messages)
}

func TestInitStore_BadDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "mysql"}}

	st, err := initStore(context.Background())
	assert.Nil(t, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitStore_BadPostgresURL(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "postgres", DatabaseURL: "://not a url"}}

	_, err := initStore(context.Background())
	assert.Error(t, err)
}

func TestInitOracle(t *testing.T) {
	cfg = &config.Config{
		Oracle:    config.OracleConfig{Provider: "openai"},
		OpenAI:    config.OpenAIConfig{Key: "sk-test", Model: "gpt-3.5-turbo"},
		Anthropic: config.AnthropicConfig{Key: "sk-ant", Model: "claude-haiku-4-5-20251001"},
	}

	c, err := initOracle()
	require.NoError(t, err)
	assert.Equal(t, oracle.ProviderOpenAI, c.Provider())
	assert.Equal(t, "gpt-3.5-turbo", c.Model())

	cfg.Oracle.Provider = "anthropic"
	c, err = initOracle()
	require.NoError(t, err)
	assert.Equal(t, oracle.ProviderAnthropic, c.Provider())

	cfg.Oracle.Provider = "mistral"
	_, err = initOracle()
	assert.Error(t, err)
}

func TestInitKeywords(t *testing.T) {
	cfg = &config.Config{}
	tbl, err := initKeywords()
	require.NoError(t, err)
	assert.NotEmpty(t, tbl.Entries())

	cfg.Keywords.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = initKeywords()
	assert.Error(t, err)
}

func TestInitSource_Unavailable(t *testing.T) {
	cfg = &config.Config{}

	_, err := initSource(context.Background(), "imap")
	assert.ErrorIs(t, err, pipeline.ErrSourceUnavailable)

	_, err = initSource(context.Background(), "graph")
	assert.ErrorIs(t, err, pipeline.ErrSourceUnavailable)

	_, err = initSource(context.Background(), "dir")
	assert.ErrorIs(t, err, pipeline.ErrSourceUnavailable)

	_, err = initSource(context.Background(), "pop3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported mail source")
}

func TestInitSource_Dir(t *testing.T) {
	cfg = &config.Config{Dir: config.DirConfig{Path: t.TempDir()}}

	src, err := initSource(context.Background(), "dir")
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.NoError(t, src.Close())
}
