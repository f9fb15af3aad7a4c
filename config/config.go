package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mohammad-safakhou/medconsensus/internal/budget"
)

// Config holds all configuration for the consensus pipeline.
type Config struct {
	General     GeneralConfig     `mapstructure:"general"`
	Server      ServerConfig      `mapstructure:"server"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Sources     SourcesConfig     `mapstructure:"sources"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Workflow    WorkflowConfig    `mapstructure:"workflow"`
	Credibility CredibilityConfig `mapstructure:"credibility"`
	Agents      AgentsConfig      `mapstructure:"agents"`
	Translation TranslationConfig `mapstructure:"translation"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LLMConfig selects and configures the text completion backend.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // auto, openai, iointelligence, simulated
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`

	// Keys picked up from the conventional provider environment variables.
	OpenAIAPIKey         string `mapstructure:"openai_api_key"`
	OpenAIModel          string `mapstructure:"openai_model"`
	IOIntelligenceAPIKey string `mapstructure:"iointelligence_api_key"`
	IOIntelligenceURL    string `mapstructure:"iointelligence_base_url"`
}

func (l LLMConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(l.Provider)) {
	case "", "auto", "openai", "iointelligence", "simulated":
	default:
		return fmt.Errorf("llm.provider %q is not supported", l.Provider)
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if l.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries cannot be negative")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// SourcesConfig contains research source configurations
type SourcesConfig struct {
	WebSearch WebSearchConfig `mapstructure:"web_search"`
	WebFetch  WebFetchConfig  `mapstructure:"web_fetch"`
}

// WebSearchConfig contains web search settings
type WebSearchConfig struct {
	Provider       string        `mapstructure:"provider"` // serper, brave
	SerperAPIKey   string        `mapstructure:"serper_api_key"`
	BraveAPIKey    string        `mapstructure:"brave_api_key"`
	Realtime       bool          `mapstructure:"realtime"`
	MaxResults     int           `mapstructure:"max_results"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	TrustedDomains []string      `mapstructure:"trusted_domains"`
	BlockedDomains []string      `mapstructure:"blocked_domains"`
	Cache          CacheConfig   `mapstructure:"cache"`
}

// CacheConfig controls search result caching.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Size    int           `mapstructure:"size"`
}

// APIKey returns the key of the configured provider.
func (w WebSearchConfig) APIKey() string {
	if strings.EqualFold(w.Provider, "brave") {
		return w.BraveAPIKey
	}
	return w.SerperAPIKey
}

// WebFetchConfig controls page enrichment of search results.
type WebFetchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Fetcher  string        `mapstructure:"fetcher"` // http, chromedp
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
	TopN     int           `mapstructure:"top_n"`
}

func (w WebFetchConfig) Validate() error {
	if !w.Enabled {
		return nil
	}
	switch w.Fetcher {
	case "http", "chromedp":
	default:
		return fmt.Errorf("sources.web_fetch.fetcher must be http or chromedp")
	}
	if w.TopN < 0 {
		return fmt.Errorf("sources.web_fetch.top_n cannot be negative")
	}
	return nil
}

// StorageConfig contains storage settings
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// WorkflowConfig bounds a single consensus run.
type WorkflowConfig struct {
	MaxRounds      int           `mapstructure:"max_rounds"`
	Deadline       time.Duration `mapstructure:"deadline"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	MaxTransitions int           `mapstructure:"max_transitions"`
	LungBranch     bool          `mapstructure:"lung_branch"`
	LungReentry    string        `mapstructure:"lung_reentry"` // build_consensus, verify_sources
}

// Budget converts the run limits into guardrails. Unset limits keep the
// budget package defaults.
func (w WorkflowConfig) Budget() budget.Config {
	var cfg budget.Config
	if w.MaxRounds > 0 {
		cfg.MaxRounds = budget.Int(w.MaxRounds)
	}
	if w.MaxAttempts > 0 {
		cfg.MaxAttempts = budget.Int(w.MaxAttempts)
	}
	if w.Deadline > 0 {
		cfg.Deadline = budget.Duration(w.Deadline)
	}
	if w.MaxTransitions > 0 {
		cfg.MaxTransitions = budget.Int(w.MaxTransitions)
	}
	return cfg
}

func (w WorkflowConfig) Validate() error {
	if w.MaxRounds < 1 {
		return fmt.Errorf("workflow.max_rounds must be >= 1")
	}
	if w.Deadline <= 0 {
		return fmt.Errorf("workflow.deadline must be positive")
	}
	if w.MaxAttempts < 1 {
		return fmt.Errorf("workflow.max_attempts must be >= 1")
	}
	switch w.LungReentry {
	case "build_consensus", "verify_sources":
	default:
		return fmt.Errorf("workflow.lung_reentry must be build_consensus or verify_sources, got %q", w.LungReentry)
	}
	return nil
}

// AgentsConfig contains agent-specific settings
type AgentsConfig struct {
	Research ResearchConfig `mapstructure:"research"`
}

// ResearchConfig tunes the research step.
type ResearchConfig struct {
	NumResults int `mapstructure:"num_results"`
	MinSources int `mapstructure:"min_sources"`
}

// TranslationConfig enables report translation.
type TranslationConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Language string `mapstructure:"language"`
}

// Load reads configuration from path (or the default search paths when
// path is empty), environment variables and built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config") // path to look for the config file in
		v.AddConfigPath(".")        // optionally look for config in the working directory
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)                                // bin/
		v.AddConfigPath(filepath.Join(exeDir, ".."))           // repo root
		v.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("MEDCONSENSUS")
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv() // read in environment variables that match (MEDCONSENSUS_*)
	bindProviderEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Sources.WebSearch = cfg.Sources.WebSearch.Normalize()
	cfg.Credibility = cfg.Credibility.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads config from file and panics when it is unusable.
func LoadConfig(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return cfg
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Sources.WebSearch.Validate(); err != nil {
		return err
	}
	if err := c.Sources.WebFetch.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Workflow.Validate(); err != nil {
		return err
	}
	if err := c.Credibility.Validate(); err != nil {
		return err
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("server.address", ":10001")
	v.SetDefault("llm.provider", "auto")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.openai_model", "gpt-3.5-turbo")
	v.SetDefault("llm.iointelligence_base_url", "https://api.intelligence.io.solutions/api/v1/")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.service_name", "medconsensus")
	v.SetDefault("sources.web_search.provider", "serper")
	v.SetDefault("sources.web_search.realtime", true)
	v.SetDefault("sources.web_search.max_results", 5)
	v.SetDefault("sources.web_search.timeout", 15*time.Second)
	v.SetDefault("sources.web_search.rate_per_second", 2.0)
	v.SetDefault("sources.web_search.trusted_domains", DefaultTrustedDomains)
	v.SetDefault("sources.web_search.cache.enabled", true)
	v.SetDefault("sources.web_search.cache.ttl", 6*time.Hour)
	v.SetDefault("sources.web_search.cache.size", 128)
	v.SetDefault("sources.web_fetch.enabled", false)
	v.SetDefault("sources.web_fetch.fetcher", "http")
	v.SetDefault("sources.web_fetch.timeout", 15*time.Second)
	v.SetDefault("sources.web_fetch.max_chars", 1500)
	v.SetDefault("sources.web_fetch.top_n", 2)
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.timeout", 5*time.Second)
	v.SetDefault("workflow.max_rounds", 1)
	v.SetDefault("workflow.deadline", 300*time.Second)
	v.SetDefault("workflow.max_attempts", 3)
	v.SetDefault("workflow.max_transitions", 64)
	v.SetDefault("workflow.lung_branch", true)
	v.SetDefault("workflow.lung_reentry", "build_consensus")
	v.SetDefault("credibility.threshold", 6.0)
	v.SetDefault("credibility.placeholder", 0.3)
	v.SetDefault("agents.research.num_results", 5)
	v.SetDefault("agents.research.min_sources", 0)
	v.SetDefault("translation.enabled", false)
}

// bindProviderEnv maps the conventional, unprefixed provider variables.
func bindProviderEnv(v *viper.Viper) {
	_ = v.BindEnv("llm.openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.openai_model", "OPENAI_MODEL")
	_ = v.BindEnv("llm.iointelligence_api_key", "IOINTELLIGENCE_API_KEY")
	_ = v.BindEnv("llm.iointelligence_base_url", "IOINTELLIGENCE_BASE_URL")
	_ = v.BindEnv("sources.web_search.serper_api_key", "SERPER_API_KEY")
	_ = v.BindEnv("sources.web_search.brave_api_key", "BRAVE_API_KEY")
}
