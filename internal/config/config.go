package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "ESDM_MONITOR_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	dingTalkHookEnv  = "DINGTALK_WEBHOOK"
	dingTalkSecretEn = "DINGTALK_SECRET"
	llmAPIKeyEnv     = "LLM_API_KEY"
	llmModelEnv      = "LLM_MODEL"
	logLevelEnv      = "LOG_LEVEL"

	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds every setting the monitor needs. It is built once by Load and
// passed by value to the components that need it.
type Config struct {
	DBFile         string          `yaml:"db_file"`
	DatabaseDriver string          `yaml:"database_driver"`
	DatabaseDSN    string          `yaml:"database_dsn"`
	TargetURL      string          `yaml:"target_url"`
	SiteOrigin     string          `yaml:"site_origin"`
	Keywords       []string        `yaml:"keywords"`
	DingTalk       DingTalkConfig  `yaml:"dingtalk"`
	LLM            LLMConfig       `yaml:"llm"`
	Fetcher        FetcherConfig   `yaml:"fetcher"`
	Scheduler      SchedulerConfig `yaml:"scheduler"`
	Logging        LoggingConfig   `yaml:"logging"`
	Metrics        MetricsConfig   `yaml:"metrics"`
}

// DingTalkConfig describes the robot webhook. Secret is either a signing key
// (prefixed with "SEC") or a keyword the robot requires in every message.
type DingTalkConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Secret     string `yaml:"secret"`
}

// LLMConfig defines how to reach the OpenAI-compatible translation API.
type LLMConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	SystemPrompt string        `yaml:"system_prompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// FetcherConfig controls politeness and retry of page downloads.
type FetcherConfig struct {
	MaxAttempts        int           `yaml:"max_attempts"`
	MinDelay           time.Duration `yaml:"min_delay"`
	MaxDelay           time.Duration `yaml:"max_delay"`
	ErrorPause         time.Duration `yaml:"error_pause"`
	Timeout            time.Duration `yaml:"timeout"`
	UserAgent          string        `yaml:"user_agent"`
	InsecureSkipVerify *bool         `yaml:"insecure_skip_verify"`
}

// SkipTLSVerify reports whether certificate verification is disabled.
// The site has served broken chains in the past, so the default is true.
func (f FetcherConfig) SkipTLSVerify() bool {
	if f.InsecureSkipVerify == nil {
		return true
	}
	return *f.InsecureSkipVerify
}

// SchedulerConfig defines when runs are triggered.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cron_expression"`
	Timezone       string         `yaml:"timezone"`
	RunOnStart     *bool          `yaml:"run_on_start"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// ShouldRunOnStart reports whether a run fires immediately when the scheduler starts.
func (s SchedulerConfig) ShouldRunOnStart() bool {
	if s.RunOnStart == nil {
		return true
	}
	return *s.RunOnStart
}

// LoggingConfig selects the log level and an optional rotating log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads the YAML (or JSON) configuration if present and applies
// environment overrides. An empty path falls back to ESDM_MONITOR_CONFIG.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	cfg.Keywords = NormalizeKeywords(cfg.Keywords)

	return cfg
}

// Validate reports settings that make a run impossible.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.TargetURL) == "" {
		errs = append(errs, errors.New("target_url is empty"))
	}
	if len(NormalizeKeywords(c.Keywords)) == 0 {
		errs = append(errs, errors.New("keywords are empty"))
	}
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DataSource() == "" {
			errs = append(errs, errors.New("db_file is empty"))
		}
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("database_dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database_driver %q", c.DatabaseDriver))
	}
	if c.Fetcher.MaxAttempts < 1 {
		errs = append(errs, errors.New("fetcher.max_attempts must be positive"))
	}
	if c.Fetcher.MaxDelay < c.Fetcher.MinDelay {
		errs = append(errs, errors.New("fetcher.max_delay is below min_delay"))
	}
	return errors.Join(errs...)
}

// DataSource returns the driver-specific connection string.
func (c Config) DataSource() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	return c.DBFile
}

// NormalizeKeywords lower-cases and trims keywords, dropping empty and
// repeated entries while keeping configuration order.
func NormalizeKeywords(words []string) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dingTalkHookEnv); v != "" {
		c.DingTalk.WebhookURL = v
	}

	if v := os.Getenv(dingTalkSecretEn); v != "" {
		c.DingTalk.Secret = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.DatabaseDSN = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.DBFile != "" {
		base.DBFile = override.DBFile
	}
	if override.DatabaseDriver != "" {
		base.DatabaseDriver = override.DatabaseDriver
	}
	if override.DatabaseDSN != "" {
		base.DatabaseDSN = override.DatabaseDSN
	}
	if override.TargetURL != "" {
		base.TargetURL = override.TargetURL
	}
	if override.SiteOrigin != "" {
		base.SiteOrigin = override.SiteOrigin
	}
	if len(override.Keywords) > 0 {
		base.Keywords = override.Keywords
	}

	if override.DingTalk.WebhookURL != "" {
		base.DingTalk.WebhookURL = override.DingTalk.WebhookURL
	}
	if override.DingTalk.Secret != "" {
		base.DingTalk.Secret = override.DingTalk.Secret
	}

	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.BaseURL != "" {
		base.LLM.BaseURL = override.LLM.BaseURL
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}

	if override.Fetcher.MaxAttempts > 0 {
		base.Fetcher.MaxAttempts = override.Fetcher.MaxAttempts
	}
	if override.Fetcher.MinDelay > 0 {
		base.Fetcher.MinDelay = override.Fetcher.MinDelay
	}
	if override.Fetcher.MaxDelay > 0 {
		base.Fetcher.MaxDelay = override.Fetcher.MaxDelay
	}
	if override.Fetcher.ErrorPause > 0 {
		base.Fetcher.ErrorPause = override.Fetcher.ErrorPause
	}
	if override.Fetcher.Timeout > 0 {
		base.Fetcher.Timeout = override.Fetcher.Timeout
	}
	if override.Fetcher.UserAgent != "" {
		base.Fetcher.UserAgent = override.Fetcher.UserAgent
	}
	if override.Fetcher.InsecureSkipVerify != nil {
		base.Fetcher.InsecureSkipVerify = override.Fetcher.InsecureSkipVerify
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.RunOnStart != nil {
		base.Scheduler.RunOnStart = override.Scheduler.RunOnStart
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}
	if override.Logging.MaxSizeMB > 0 {
		base.Logging.MaxSizeMB = override.Logging.MaxSizeMB
	}
	if override.Logging.MaxBackups > 0 {
		base.Logging.MaxBackups = override.Logging.MaxBackups
	}
	if override.Logging.MaxAgeDays > 0 {
		base.Logging.MaxAgeDays = override.Logging.MaxAgeDays
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		DBFile:         "esdm_news.db",
		DatabaseDriver: DriverSQLite,
		TargetURL:      "https://www.esdm.go.id/id/media-center/siaran-pers",
		SiteOrigin:     "https://www.esdm.go.id",
		Keywords:       []string{"rkab", "nikel", "kobalt"},
		LLM: LLMConfig{
			BaseURL:      "https://api.deepseek.com",
			Model:        "deepseek-chat",
			SystemPrompt: "You are a professional translator. Translate the following Indonesian news title to Chinese. Output ONLY the translated text.",
			Timeout:      10 * time.Second,
		},
		Fetcher: FetcherConfig{
			MaxAttempts: 3,
			MinDelay:    time.Second,
			MaxDelay:    3 * time.Second,
			ErrorPause:  2 * time.Second,
			Timeout:     20 * time.Second,
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},
		Scheduler: SchedulerConfig{CronExpression: "@every 10m", Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 30},
	}
}
