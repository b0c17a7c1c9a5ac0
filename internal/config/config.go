package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "PAPERDIGEST_CONFIG"

	logLevelEnv        = "LOG_LEVEL"
	searchProviderEnv  = "SEARCH_PROVIDER"
	llmProviderEnv     = "LLM_PROVIDER"
	llmModelEnv        = "LLM_MODEL"
	openRouterKeyEnv   = "OPENROUTER_API_KEY"
	openRouterSiteEnv  = "OPENROUTER_SITE_URL"
	openRouterTitleEnv = "OPENROUTER_SITE_NAME"
	anthropicKeyEnv    = "ANTHROPIC_API_KEY"
	geminiKeyEnv       = "GEMINI_API_KEY"
	sendGridKeyEnv     = "SENDGRID_API_KEY"
	fromEmailEnv       = "FROM_EMAIL"
	gmailUserEnv       = "GMAIL_USER"
	gmailPasswordEnv   = "GMAIL_APP_PASSWORD"
	historyDSNEnv      = "HISTORY_DSN"
)

// LLM provider names.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
)

// Search provider names.
const (
	SearchAPI     = "api"
	SearchListing = "listing"
)

// Config holds the process-wide settings. It is built once in main and passed
// by value into every constructor.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Search    SearchConfig    `yaml:"search"`
	LLM       LLMConfig       `yaml:"llm"`
	Email     EmailConfig     `yaml:"email"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	History   HistoryConfig   `yaml:"history"`
	Web       WebConfig       `yaml:"web"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SearchConfig chooses and tunes the upstream paper search.
type SearchConfig struct {
	Provider    string        `yaml:"provider"`
	APIURL      string        `yaml:"apiUrl"`
	ListingURL  string        `yaml:"listingUrl"`
	MinInterval time.Duration `yaml:"minInterval"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LLMConfig defines how to contact the summarization endpoint.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	SiteURL     string        `yaml:"siteUrl"`
	SiteName    string        `yaml:"siteName"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

// Configured reports whether the LLM credential is present.
func (l LLMConfig) Configured() bool {
	return strings.TrimSpace(l.APIKey) != ""
}

// EmailConfig groups both delivery transports.
type EmailConfig struct {
	FromAddress string         `yaml:"fromAddress"`
	SendGrid    SendGridConfig `yaml:"sendgrid"`
	Gmail       GmailConfig    `yaml:"gmail"`
}

// SendGridConfig wires the SendGrid API transport.
type SendGridConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`
}

// Configured reports whether SendGrid credentials are present.
func (s SendGridConfig) Configured() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// GmailConfig wires the Gmail SMTP transport.
type GmailConfig struct {
	User        string `yaml:"user"`
	AppPassword string `yaml:"appPassword"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
}

// Configured reports whether Gmail credentials are present.
func (g GmailConfig) Configured() bool {
	return strings.TrimSpace(g.User) != "" && strings.TrimSpace(g.AppPassword) != ""
}

// SchedulerConfig defines when scheduled digests run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	DigestFile     string         `yaml:"digestFile"`
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

// HistoryConfig enables the run log when DSN is non-empty.
type HistoryConfig struct {
	DSN string `yaml:"dsn"`
}

// WebConfig configures the interactive form server.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return load(os.Getenv(configPathEnv), os.Getenv)
}

func load(path string, getenv func(string) string) Config {
	cfg := defaultConfig()

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

	cfg.applyEnvOverrides(getenv)
	cfg.applyProviderDefaults()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides(getenv func(string) string) {
	set := func(target *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*target = v
		}
	}

	set(&c.Logging.Level, logLevelEnv)
	set(&c.Search.Provider, searchProviderEnv)
	set(&c.LLM.Provider, llmProviderEnv)
	set(&c.LLM.Model, llmModelEnv)

	switch c.LLM.Provider {
	case ProviderAnthropic:
		set(&c.LLM.APIKey, anthropicKeyEnv)
	case ProviderGemini:
		set(&c.LLM.APIKey, geminiKeyEnv)
	default:
		set(&c.LLM.APIKey, openRouterKeyEnv)
		set(&c.LLM.SiteURL, openRouterSiteEnv)
		set(&c.LLM.SiteName, openRouterTitleEnv)
	}

	set(&c.Email.SendGrid.APIKey, sendGridKeyEnv)
	set(&c.Email.FromAddress, fromEmailEnv)
	set(&c.Email.Gmail.User, gmailUserEnv)
	set(&c.Email.Gmail.AppPassword, gmailPasswordEnv)
	set(&c.History.DSN, historyDSNEnv)
}

func (c *Config) applyProviderDefaults() {
	switch c.LLM.Provider {
	case ProviderAnthropic:
		if c.LLM.Model == "" {
			c.LLM.Model = "claude-3-5-haiku-latest"
		}
	case ProviderGemini:
		if c.LLM.Model == "" {
			c.LLM.Model = "gemini-2.0-flash"
		}
	default:
		c.LLM.Provider = ProviderOpenRouter
		if c.LLM.Model == "" {
			c.LLM.Model = "google/gemini-2.0-flash-001"
		}
		if c.LLM.Endpoint == "" {
			c.LLM.Endpoint = "https://openrouter.ai/api/v1/chat/completions"
		}
	}

	if c.Search.Provider != SearchListing {
		c.Search.Provider = SearchAPI
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
	mergeString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	mergeDuration := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}

	mergeString(&base.Logging.Level, override.Logging.Level)

	mergeString(&base.Search.Provider, override.Search.Provider)
	mergeString(&base.Search.APIURL, override.Search.APIURL)
	mergeString(&base.Search.ListingURL, override.Search.ListingURL)
	mergeDuration(&base.Search.MinInterval, override.Search.MinInterval)
	mergeDuration(&base.Search.Timeout, override.Search.Timeout)

	mergeString(&base.LLM.Provider, override.LLM.Provider)
	mergeString(&base.LLM.Endpoint, override.LLM.Endpoint)
	mergeString(&base.LLM.Model, override.LLM.Model)
	mergeString(&base.LLM.APIKey, override.LLM.APIKey)
	mergeString(&base.LLM.SiteURL, override.LLM.SiteURL)
	mergeString(&base.LLM.SiteName, override.LLM.SiteName)
	mergeDuration(&base.LLM.Timeout, override.LLM.Timeout)
	if override.LLM.Concurrency > 0 {
		base.LLM.Concurrency = override.LLM.Concurrency
	}

	mergeString(&base.Email.FromAddress, override.Email.FromAddress)
	mergeString(&base.Email.SendGrid.APIKey, override.Email.SendGrid.APIKey)
	mergeString(&base.Email.SendGrid.BaseURL, override.Email.SendGrid.BaseURL)
	mergeString(&base.Email.Gmail.User, override.Email.Gmail.User)
	mergeString(&base.Email.Gmail.AppPassword, override.Email.Gmail.AppPassword)
	mergeString(&base.Email.Gmail.Host, override.Email.Gmail.Host)
	if override.Email.Gmail.Port > 0 {
		base.Email.Gmail.Port = override.Email.Gmail.Port
	}

	mergeString(&base.Scheduler.CronExpression, override.Scheduler.CronExpression)
	mergeString(&base.Scheduler.Timezone, override.Scheduler.Timezone)
	mergeString(&base.Scheduler.DigestFile, override.Scheduler.DigestFile)

	mergeString(&base.History.DSN, override.History.DSN)
	mergeString(&base.Web.Addr, override.Web.Addr)

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Search: SearchConfig{
			Provider:    SearchAPI,
			APIURL:      "https://export.arxiv.org/api/query",
			ListingURL:  "https://arxiv.org/list",
			MinInterval: 3 * time.Second,
			Timeout:     30 * time.Second,
		},
		LLM: LLMConfig{
			// Endpoint and model are resolved per provider after env overrides.
			Provider:    ProviderOpenRouter,
			SiteName:    "ArXiv Daily Digest",
			Timeout:     30 * time.Second,
			Concurrency: 1,
		},
		Email: EmailConfig{
			FromAddress: "digest@artefact.ai",
			Gmail:       GmailConfig{Host: "smtp.gmail.com", Port: 465},
		},
		Scheduler: SchedulerConfig{CronExpression: "0 8 * * *", Timezone: defaultTimezone, location: tz},
		Web:       WebConfig{Addr: "127.0.0.1:8501"},
	}
}
