package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Apollo  ApolloConfig  `yaml:"apollo" mapstructure:"apollo"`
	Enrich  EnrichConfig  `yaml:"enrich" mapstructure:"enrich"`
	ICP     ICPConfig     `yaml:"icp" mapstructure:"icp"`
	Resolve ResolveConfig `yaml:"resolve" mapstructure:"resolve"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	People  PeopleConfig  `yaml:"people" mapstructure:"people"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ApolloConfig holds enrichment provider settings.
type ApolloConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// Timeout returns the per-request timeout.
func (a ApolloConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// EnrichConfig configures batch pacing and rate-limit retries.
type EnrichConfig struct {
	InterRequestDelayMs int `yaml:"inter_request_delay_ms" mapstructure:"inter_request_delay_ms"`
	MaxRetries          int `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffBaseMs       int `yaml:"backoff_base_ms" mapstructure:"backoff_base_ms"`
}

// InterRequestDelay returns the pause before each enrichment call.
func (e EnrichConfig) InterRequestDelay() time.Duration {
	return time.Duration(e.InterRequestDelayMs) * time.Millisecond
}

// BackoffBase returns the first rate-limit backoff.
func (e EnrichConfig) BackoffBase() time.Duration {
	return time.Duration(e.BackoffBaseMs) * time.Millisecond
}

// ICPConfig points at an optional rubric file. Empty uses the built-in rubric.
type ICPConfig struct {
	RubricPath string `yaml:"rubric_path" mapstructure:"rubric_path"`
}

// ResolveConfig configures domain resolution.
type ResolveConfig struct {
	GuessTLDs []string `yaml:"guess_tlds" mapstructure:"guess_tlds"`
}

// ScrapeConfig configures the job board scraper.
type ScrapeConfig struct {
	TargetURL   string   `yaml:"target_url" mapstructure:"target_url"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Categories  []string `yaml:"categories" mapstructure:"categories"`
}

// Timeout returns the board fetch timeout.
func (s ScrapeConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// PeopleConfig configures contact search and reveal pricing.
type PeopleConfig struct {
	RequestDelayMs    int `yaml:"request_delay_ms" mapstructure:"request_delay_ms"`
	ExecutivePerPage  int `yaml:"executive_per_page" mapstructure:"executive_per_page"`
	OperationsPerPage int `yaml:"operations_per_page" mapstructure:"operations_per_page"`
	EmailCredit       int `yaml:"email_credit" mapstructure:"email_credit"`
	PhoneCredit       int `yaml:"phone_credit" mapstructure:"phone_credit"`
}

// RequestDelay returns the spacing between people API calls.
func (p PeopleConfig) RequestDelay() time.Duration {
	return time.Duration(p.RequestDelayMs) * time.Millisecond
}

// StoreConfig configures the session store backend.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROSPECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("apollo.key", "")
	v.SetDefault("apollo.base_url", "https://api.apollo.io/api/v1")
	v.SetDefault("apollo.timeout_secs", 15)
	v.SetDefault("apollo.requests_per_sec", 5)
	v.SetDefault("enrich.inter_request_delay_ms", 1500)
	v.SetDefault("enrich.max_retries", 2)
	v.SetDefault("enrich.backoff_base_ms", 2000)
	v.SetDefault("icp.rubric_path", "")
	v.SetDefault("resolve.guess_tlds", []string{".com", ".io", ".ai"})
	v.SetDefault("scrape.target_url", "https://jobs.customersuccesssnack.com/")
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.categories", []string{})
	v.SetDefault("people.request_delay_ms", 150)
	v.SetDefault("people.executive_per_page", 10)
	v.SetDefault("people.operations_per_page", 25)
	v.SetDefault("people.email_credit", 1)
	v.SetDefault("people.phone_credit", 1)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", ":memory:")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validation modes, one per command.
const (
	ModeServe    = "serve"
	ModeEnrich   = "enrich"
	ModeContacts = "contacts"
	ModeScrape   = "scrape"
	ModeScore    = "score"
)

// Validate checks the configuration for the given mode. The server accepts a
// provider key at runtime, so only the CLI modes that call the provider
// require one up front.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case ModeServe:
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		errs = append(errs, c.validateProvider()...)
		errs = append(errs, c.validatePeople()...)
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateScrape()...)
	case ModeEnrich, ModeContacts:
		if NewKeyHolder(c.Apollo.Key).Get() == "" {
			errs = append(errs, "apollo.key is required")
		}
		errs = append(errs, c.validateProvider()...)
		if mode == ModeContacts {
			errs = append(errs, c.validatePeople()...)
		}
	case ModeScrape:
		errs = append(errs, c.validateScrape()...)
	case ModeScore:
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateProvider() []string {
	var errs []string
	if c.Apollo.TimeoutSecs <= 0 {
		errs = append(errs, "apollo.timeout_secs must be > 0")
	}
	if c.Apollo.RequestsPerSec < 0 {
		errs = append(errs, "apollo.requests_per_sec must be >= 0")
	}
	if c.Enrich.InterRequestDelayMs < 0 {
		errs = append(errs, "enrich.inter_request_delay_ms must be >= 0")
	}
	if c.Enrich.MaxRetries < 0 {
		errs = append(errs, "enrich.max_retries must be >= 0")
	}
	if c.Enrich.BackoffBaseMs <= 0 {
		errs = append(errs, "enrich.backoff_base_ms must be > 0")
	}
	return errs
}

func (c *Config) validatePeople() []string {
	var errs []string
	if c.People.RequestDelayMs < 0 {
		errs = append(errs, "people.request_delay_ms must be >= 0")
	}
	if c.People.ExecutivePerPage <= 0 || c.People.OperationsPerPage <= 0 {
		errs = append(errs, "people per_page values must be > 0")
	}
	if c.People.EmailCredit < 0 || c.People.PhoneCredit < 0 {
		errs = append(errs, "people credit values must be >= 0")
	}
	return errs
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "memory", "sqlite":
		return nil
	default:
		return []string{"store.driver must be memory or sqlite, got " + strconv.Quote(c.Store.Driver)}
	}
}

func (c *Config) validateScrape() []string {
	if c.Scrape.TimeoutSecs <= 0 {
		return []string{"scrape.timeout_secs must be > 0"}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
