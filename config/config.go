// Package config loads pepcensus settings from pepcensus.json5 and its
// pepcensus.local.json5 override, falling back to built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"

	"github.com/lukemcguire/pepcensus/crawler"
	"github.com/lukemcguire/pepcensus/telemetry"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "pepcensus.json5"

// Duration is a time.Duration written as a Go duration string ("1.5s").
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"'`)
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %s: %w", data, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type CacheConfig struct {
	Path     string   `json:"path"`
	TTL      Duration `json:"ttl"`
	Disabled bool     `json:"disabled"`
}

type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn or error
	Format string `json:"format"` // text or json
	File   string `json:"file"`   // rotating log file; "-" disables it
}

// Config is the merged configuration. Pointer fields distinguish an
// explicit false or zero from an unset value.
type Config struct {
	PepURL          string   `json:"pep_url"`
	DocsURL         string   `json:"docs_url"`
	UserAgent       string   `json:"user_agent"`
	RequestTimeout  Duration `json:"request_timeout"`
	DownloadTimeout Duration `json:"download_timeout"`
	RateLimit       int      `json:"rate_limit"`
	AdaptiveRate    *bool    `json:"adaptive_rate"`
	TargetRTT       Duration `json:"target_rtt"`
	Retries         *int     `json:"retries"`
	RetryDelay      Duration `json:"retry_delay"`
	MaxRetryDelay   Duration `json:"max_retry_delay"`
	RespectRobots   *bool    `json:"respect_robots"`
	Concurrency     int      `json:"concurrency"`
	ResultsDir      string   `json:"results_dir"`
	DownloadsDir    string   `json:"downloads_dir"`

	Cache     CacheConfig      `json:"cache"`
	Log       LogConfig        `json:"log"`
	Telemetry telemetry.Config `json:"telemetry"`
}

func ptr[T any](v T) *T { return &v }

// Default returns the built-in configuration.
func Default() Config {
	def := crawler.DefaultConfig()
	return Config{
		PepURL:          "https://peps.python.org/",
		DocsURL:         "https://docs.python.org/3/",
		UserAgent:       def.UserAgent,
		RequestTimeout:  Duration(def.RequestTimeout),
		DownloadTimeout: Duration(def.FileTimeout),
		RateLimit:       def.RateLimit,
		AdaptiveRate:    ptr(def.AdaptiveRate),
		TargetRTT:       Duration(def.TargetRTT),
		Retries:         ptr(def.RetryPolicy.MaxRetries),
		RetryDelay:      Duration(def.RetryPolicy.BaseDelay),
		MaxRetryDelay:   Duration(def.RetryPolicy.MaxDelay),
		RespectRobots:   ptr(def.RespectRobots),
		Concurrency:     1,
		ResultsDir:      "results",
		DownloadsDir:    "downloads",
		Cache: CacheConfig{
			Path: ".cache/pepcensus.db",
			TTL:  Duration(24 * time.Hour),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "logs/pepcensus.log",
		},
	}
}

// Load reads path (DefaultFile when empty) and its local override and fills
// unset fields from Default. Missing files are not an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultFile
	}

	cfg, err := ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := mergo.Merge(&cfg, Default(), mergo.WithoutDereference); err != nil {
		return Config{}, fmt.Errorf("apply config defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no run could use.
func (c Config) Validate() error {
	var errs []error
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit must not be negative, got %d", c.RateLimit))
	}
	if c.Retries != nil && *c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", *c.Retries))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Session returns the crawler session settings.
func (c Config) Session() crawler.Config {
	cfg := crawler.Config{
		UserAgent:      c.UserAgent,
		RequestTimeout: c.RequestTimeout.Std(),
		FileTimeout:    c.DownloadTimeout.Std(),
		RateLimit:      c.RateLimit,
		AdaptiveRate:   c.AdaptiveRate == nil || *c.AdaptiveRate,
		TargetRTT:      c.TargetRTT.Std(),
		RetryPolicy: crawler.RetryPolicy{
			BaseDelay: c.RetryDelay.Std(),
			MaxDelay:  c.MaxRetryDelay.Std(),
		},
		RespectRobots: c.RespectRobots == nil || *c.RespectRobots,
	}
	if c.Retries != nil {
		cfg.RetryPolicy.MaxRetries = *c.Retries
	}
	return cfg
}
