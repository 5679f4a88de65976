package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AppName names the config directory and environment prefix.
const AppName = "companyscope"

// Summary sources for business_summary.what_they_do.
const (
	SummaryFromText        = "text"
	SummaryFromMainContent = "main_content"
)

// Config holds all application configuration
type Config struct {
	// Crawler configuration
	Crawler CrawlerConfig `mapstructure:"crawler"`

	// Extraction configuration
	Extraction ExtractionConfig `mapstructure:"extraction"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig holds crawler-specific configuration
type CrawlerConfig struct {
	MaxPages          int           `mapstructure:"max_pages"`
	RequestDelay      time.Duration `mapstructure:"request_delay"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Workers           int           `mapstructure:"workers"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	IncludeSubdomains bool          `mapstructure:"include_subdomains"`
	PriorityPaths     []string      `mapstructure:"priority_paths"`
	ExcludedPathTerms []string      `mapstructure:"excluded_path_terms"`
	SkipExtensions    []string      `mapstructure:"skip_extensions"`
	UserAgents        []string      `mapstructure:"user_agents"`
}

// ExtractionConfig holds the keyword vocabularies and limits used to build the report
type ExtractionConfig struct {
	SummaryLength    int      `mapstructure:"summary_length"`
	SummarySource    string   `mapstructure:"summary_source"` // "text" or "main_content"
	MaxListItems     int      `mapstructure:"max_list_items"`
	MaxItemLength    int      `mapstructure:"max_item_length"`
	OfferingKeywords []string `mapstructure:"offering_keywords"`
	SegmentKeywords  []string `mapstructure:"segment_keywords"`
	RoleKeywords     []string `mapstructure:"role_keywords"`
	SignalKeywords   []string `mapstructure:"signal_keywords"`
}

// OutputConfig holds report rendering configuration
type OutputConfig struct {
	Format string `mapstructure:"format"` // "json", "yaml" or "markdown"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Defaults.
var (
	DefaultPriorityPaths = []string{
		"/", "/about", "/company", "/team",
		"/products", "/solutions", "/features", "/services",
		"/pricing", "/contact", "/careers", "/jobs",
		"/blog", "/customers", "/case-studies",
	}

	DefaultExcludedPathTerms = []string{"login", "signup", "cart"}

	DefaultSkipExtensions = []string{
		".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp",
		".pdf", ".zip", ".mp4", ".mp3", ".css", ".js",
	}

	DefaultUserAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:129.0) Gecko/20100101 Firefox/129.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	}

	DefaultOfferingKeywords = []string{"product", "solution", "feature", "service", "offering", "platform"}
	DefaultSegmentKeywords  = []string{"industry", "sector", "customer", "market", "serve"}
	DefaultRoleKeywords     = []string{"opening", "position", "role", "hiring"}
	DefaultSignalKeywords   = []string{"client", "customer", "partner", "case study", "testimonial", "award", "certification"}
)

// Default returns the configuration used when no file, env or flag overrides
// anything.
func Default() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			MaxPages:          15,
			RequestDelay:      time.Second,
			Timeout:           10 * time.Second,
			Workers:           1,
			MaxBodyBytes:      5 * 1024 * 1024,
			PriorityPaths:     clone(DefaultPriorityPaths),
			ExcludedPathTerms: clone(DefaultExcludedPathTerms),
			SkipExtensions:    clone(DefaultSkipExtensions),
			UserAgents:        clone(DefaultUserAgents),
		},
		Extraction: ExtractionConfig{
			SummaryLength:    600,
			SummarySource:    SummaryFromText,
			MaxListItems:     10,
			MaxItemLength:    200,
			OfferingKeywords: clone(DefaultOfferingKeywords),
			SegmentKeywords:  clone(DefaultSegmentKeywords),
			RoleKeywords:     clone(DefaultRoleKeywords),
			SignalKeywords:   clone(DefaultSignalKeywords),
		},
		Output: OutputConfig{
			Format: "json",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// COMPANYSCOPE_* environment variables and, when given, command-line flags.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath(".")
		v.AddConfigPath(XDGConfigDir())
	}

	// Set defaults
	setDefaults(v)

	// Bind environment variables
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, we fall back to defaults and env
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every field of Default with viper so env overrides
// are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("crawler.max_pages", d.Crawler.MaxPages)
	v.SetDefault("crawler.request_delay", d.Crawler.RequestDelay)
	v.SetDefault("crawler.timeout", d.Crawler.Timeout)
	v.SetDefault("crawler.workers", d.Crawler.Workers)
	v.SetDefault("crawler.requests_per_second", d.Crawler.RequestsPerSecond)
	v.SetDefault("crawler.max_body_bytes", d.Crawler.MaxBodyBytes)
	v.SetDefault("crawler.include_subdomains", d.Crawler.IncludeSubdomains)
	v.SetDefault("crawler.priority_paths", d.Crawler.PriorityPaths)
	v.SetDefault("crawler.excluded_path_terms", d.Crawler.ExcludedPathTerms)
	v.SetDefault("crawler.skip_extensions", d.Crawler.SkipExtensions)
	v.SetDefault("crawler.user_agents", d.Crawler.UserAgents)

	v.SetDefault("extraction.summary_length", d.Extraction.SummaryLength)
	v.SetDefault("extraction.summary_source", d.Extraction.SummarySource)
	v.SetDefault("extraction.max_list_items", d.Extraction.MaxListItems)
	v.SetDefault("extraction.max_item_length", d.Extraction.MaxItemLength)
	v.SetDefault("extraction.offering_keywords", d.Extraction.OfferingKeywords)
	v.SetDefault("extraction.segment_keywords", d.Extraction.SegmentKeywords)
	v.SetDefault("extraction.role_keywords", d.Extraction.RoleKeywords)
	v.SetDefault("extraction.signal_keywords", d.Extraction.SignalKeywords)

	v.SetDefault("output.format", d.Output.Format)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"max-pages": "crawler.max_pages",
	"delay":     "crawler.request_delay",
	"workers":   "crawler.workers",
	"format":    "output.format",
	"log-level": "logging.level",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// XDGConfigDir returns the per-user config directory,
// e.g. ~/.config/companyscope on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Crawler.MaxPages <= 0 {
		return fmt.Errorf("crawler.max_pages must be positive")
	}
	if c.Crawler.RequestDelay < 0 {
		return fmt.Errorf("crawler.request_delay must not be negative")
	}
	if c.Crawler.Timeout <= 0 {
		return fmt.Errorf("crawler.timeout must be positive")
	}
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("crawler.workers must be positive")
	}
	if c.Crawler.RequestsPerSecond < 0 {
		return fmt.Errorf("crawler.requests_per_second must not be negative")
	}
	if c.Crawler.MaxBodyBytes <= 0 {
		return fmt.Errorf("crawler.max_body_bytes must be positive")
	}
	if len(c.Crawler.UserAgents) == 0 {
		return fmt.Errorf("crawler.user_agents must not be empty")
	}
	if c.Extraction.SummaryLength <= 0 {
		return fmt.Errorf("extraction.summary_length must be positive")
	}
	if c.Extraction.MaxListItems <= 0 {
		return fmt.Errorf("extraction.max_list_items must be positive")
	}
	if c.Extraction.MaxItemLength <= 0 {
		return fmt.Errorf("extraction.max_item_length must be positive")
	}
	switch c.Extraction.SummarySource {
	case SummaryFromText, SummaryFromMainContent:
	default:
		return fmt.Errorf("extraction.summary_source must be %q or %q, got %q",
			SummaryFromText, SummaryFromMainContent, c.Extraction.SummarySource)
	}
	switch c.Output.Format {
	case "json", "yaml", "markdown":
	default:
		return fmt.Errorf("output.format must be json, yaml or markdown, got %q", c.Output.Format)
	}
	return nil
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
