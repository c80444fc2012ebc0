// Package config holds the run configuration of cska-ics.
//
// Values start from Default, which reproduces the reference deployment (the CSKA
// calendar on sports.ru, Moscow time, cska.ics). Load overlays a YAML file on top of
// the defaults; the CLI then overlays explicitly set flags.
//
// Example config file:
//
//	url: https://www.sports.ru/football/club/cska/calendar/
//	timezone: Europe/Moscow
//	output: ~/calendars/cska.ics
//	match_duration: 120
//	timeout: 20
//	headers:
//	  Accept-Language: ru-RU,ru;q=0.9
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // timezone names must resolve on hosts without zoneinfo

	"gopkg.in/yaml.v3"

	"github.com/cska-ics/cska-ics/internal/logger"
	"github.com/cska-ics/cska-ics/internal/scraper"
	"github.com/cska-ics/cska-ics/internal/storage"
)

const (
	DefaultURL           = "https://www.sports.ru/football/club/cska/calendar/"
	DefaultTimezone      = "Europe/Moscow"
	DefaultMatchDuration = 120 // minutes
	DefaultTimeout       = 20  // seconds
)

// Config is the full run configuration
type Config struct {
	URL           string            `yaml:"url"`
	Club          string            `yaml:"club"`
	HomeMarker    string            `yaml:"home_marker"`
	TableSelector string            `yaml:"table_selector"`
	Timezone      string            `yaml:"timezone"`
	Output        string            `yaml:"output"`
	MatchDuration int               `yaml:"match_duration"` // minutes
	Timeout       int               `yaml:"timeout"`        // seconds
	Headers       map[string]string `yaml:"headers"`
	Browser       bool              `yaml:"browser"` // render the page in headless Chrome
	LogLevel      string            `yaml:"log_level"`
}

// Default returns the reference configuration
func Default() *Config {
	return &Config{
		URL:           DefaultURL,
		Club:          scraper.DefaultClub,
		HomeMarker:    scraper.DefaultHomeMarker,
		TableSelector: scraper.DefaultTableSelector,
		Timezone:      DefaultTimezone,
		Output:        storage.DefaultFilename,
		MatchDuration: DefaultMatchDuration,
		Timeout:       DefaultTimeout,
		Headers: map[string]string{
			"User-Agent": scraper.DefaultUserAgent,
		},
		LogLevel: string(logger.LevelInfo),
	}
}

// Load reads a YAML file and overlays it on Default. Keys missing from the
// file keep their default values; headers are merged with the default headers.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	defaults := cfg.Headers
	cfg.Headers = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Headers = mergeHeaders(defaults, cfg.Headers)

	return cfg, nil
}

// mergeHeaders returns base overlaid with override, keyed by canonical header name
func mergeHeaders(base, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range override {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	return merged
}

// Validate checks that every value is usable, joining all problems into one error.
func (c *Config) Validate() error {
	var errs []error

	required := []struct {
		name  string
		value string
	}{
		{"url", c.URL},
		{"club", c.Club},
		{"home_marker", c.HomeMarker},
		{"table_selector", c.TableSelector},
		{"output", c.Output},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", r.name))
		}
	}

	if c.MatchDuration <= 0 {
		errs = append(errs, fmt.Errorf("match_duration must be positive, got %d", c.MatchDuration))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %d", c.Timeout))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location loads the source timezone
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return nil, errors.New("timezone must not be empty")
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// MatchLength returns the configured match duration
func (c *Config) MatchLength() time.Duration {
	return time.Duration(c.MatchDuration) * time.Minute
}

// FetchTimeout returns the configured HTTP timeout
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// UserAgent returns the configured User-Agent header, if any
func (c *Config) UserAgent() string {
	for k, v := range c.Headers {
		if strings.EqualFold(k, "User-Agent") {
			return v
		}
	}
	return ""
}

// SetUserAgent replaces any User-Agent header regardless of key case
func (c *Config) SetUserAgent(ua string) {
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	for k := range c.Headers {
		if strings.EqualFold(k, "User-Agent") {
			delete(c.Headers, k)
		}
	}
	c.Headers["User-Agent"] = ua
}
