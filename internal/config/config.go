package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Alibek88alarko/LogiGo2/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Oracle    OracleConfig    `yaml:"oracle" mapstructure:"oracle"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	IMAP      IMAPConfig      `yaml:"imap" mapstructure:"imap"`
	Graph     GraphConfig     `yaml:"graph" mapstructure:"graph"`
	Dir       DirConfig       `yaml:"dir" mapstructure:"dir"`
	Keywords  KeywordsConfig  `yaml:"keywords" mapstructure:"keywords"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// OracleConfig selects and tunes the completion provider.
type OracleConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Locale            string  `yaml:"locale" mapstructure:"locale"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Anthropic map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    map[string]ModelPricing `yaml:"openai" mapstructure:"openai"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// IngestConfig configures the ingestion pass.
type IngestConfig struct {
	Source      string `yaml:"source" mapstructure:"source"`
	Limit       int    `yaml:"limit" mapstructure:"limit"`
	MinMainBody int    `yaml:"min_main_body" mapstructure:"min_main_body"`
}

// IMAPConfig holds IMAP mailbox credentials.
type IMAPConfig struct {
	Addr        string `yaml:"addr" mapstructure:"addr"`
	Username    string `yaml:"username" mapstructure:"username"`
	Password    string `yaml:"password" mapstructure:"password"`
	Mailbox     string `yaml:"mailbox" mapstructure:"mailbox"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GraphConfig holds Microsoft Graph app credentials for an Outlook mailbox.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id" mapstructure:"tenant_id"`
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	User         string `yaml:"user" mapstructure:"user"`
	Folder       string `yaml:"folder" mapstructure:"folder"`
	PageSize     int    `yaml:"page_size" mapstructure:"page_size"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
}

// DirConfig points the file source at a directory of .eml files.
type DirConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// KeywordsConfig locates an optional keyword table file.
type KeywordsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// ExportConfig configures the spreadsheet export.
type ExportConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LOGIGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("openai.key", "LOGIGO_OPENAI_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("anthropic.key", "LOGIGO_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")

	// Keys without a default must still be registered for env lookup.
	for _, key := range []string{
		"anthropic.key", "anthropic.base_url", "openai.key", "openai.base_url",
		"imap.addr", "imap.username", "imap.password",
		"graph.tenant_id", "graph.client_id", "graph.client_secret", "graph.user", "graph.base_url",
		"dir.path",
	} {
		v.SetDefault(key, "")
	}

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "logigo.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("oracle.provider", "anthropic")
	v.SetDefault("oracle.temperature", 0.2)
	v.SetDefault("oracle.max_tokens", 500)
	v.SetDefault("oracle.requests_per_minute", 0)
	v.SetDefault("oracle.locale", "en")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("ingest.source", "imap")
	v.SetDefault("ingest.limit", 0)
	v.SetDefault("ingest.min_main_body", 50)
	v.SetDefault("imap.mailbox", "INBOX")
	v.SetDefault("imap.timeout_secs", 30)
	v.SetDefault("graph.folder", "inbox")
	v.SetDefault("graph.page_size", 50)
	v.SetDefault("keywords.path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("export.path", "prices.xlsx")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}

	switch mode {
	case "ingest":
		errs = append(errs, c.validateOracle()...)
		errs = append(errs, c.validateSource()...)
		if c.Ingest.Limit < 0 {
			errs = append(errs, "ingest.limit must be >= 0")
		}
		if c.Ingest.MinMainBody < 0 {
			errs = append(errs, "ingest.min_main_body must be >= 0")
		}
	case "normalize":
		errs = append(errs, c.validateOracle()...)
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "export":
		if c.Export.Path == "" {
			errs = append(errs, "export.path is required")
		}
	case "status":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateOracle() []string {
	var errs []string
	switch c.Oracle.Provider {
	case "anthropic":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	case "openai":
		if c.OpenAI.Key == "" {
			errs = append(errs, "openai.key is required")
		}
	default:
		errs = append(errs, "oracle.provider must be anthropic or openai")
	}
	if c.Oracle.Temperature < 0 || c.Oracle.Temperature > 2 {
		errs = append(errs, "oracle.temperature must be between 0 and 2")
	}
	if c.Oracle.MaxTokens <= 0 {
		errs = append(errs, "oracle.max_tokens must be > 0")
	}
	if c.Oracle.RequestsPerMinute < 0 {
		errs = append(errs, "oracle.requests_per_minute must be >= 0")
	}
	return errs
}

func (c *Config) validateSource() []string {
	switch c.Ingest.Source {
	case "imap":
		if c.IMAP.Addr == "" || c.IMAP.Username == "" {
			return []string{"imap.addr and imap.username are required"}
		}
	case "graph":
		if c.Graph.TenantID == "" || c.Graph.ClientID == "" || c.Graph.ClientSecret == "" {
			return []string{"graph.tenant_id, graph.client_id and graph.client_secret are required"}
		}
		if c.Graph.User == "" {
			return []string{"graph.user is required"}
		}
	case "dir":
		if c.Dir.Path == "" {
			return []string{"dir.path is required"}
		}
	default:
		return []string{"ingest.source must be imap, graph or dir"}
	}
	return nil
}

// Rates returns the built-in pricing with any configured models layered on top.
func (p PricingConfig) Rates() cost.Rates {
	rates := cost.DefaultRates()
	for name, m := range p.Anthropic {
		rates.Anthropic[name] = cost.ModelRate(m)
	}
	for name, m := range p.OpenAI {
		rates.OpenAI[name] = cost.ModelRate(m)
	}
	return rates
}

// InitLogger builds the application logger and installs it as the zap global.
func InitLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return logger, nil
}
