// Package config loads the dwatch configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/etnz/depot"
)

// Duration is a time.Duration written as "10m" in the file.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

type Config struct {
	Files struct {
		Instruments string `toml:"instruments"`
		Bookings    string `toml:"bookings"`
		Database    string `toml:"database"`
		Report      string `toml:"report"`
		History     string `toml:"history"`
		Static      string `toml:"static"`
		Cache       string `toml:"cache"`
	} `toml:"files"`

	Market struct {
		Provider     string   `toml:"provider"`
		Holidays     string   `toml:"holidays"`
		FetchTimeout Duration `toml:"fetch_timeout"`
		Start        string   `toml:"start"`
		APIKey       string   `toml:"-"` // from EODHD_API_KEY only
	} `toml:"market"`

	Monitor struct {
		Interval Duration `toml:"interval"`
		Monthly  *bool    `toml:"monthly"`
		KeepDays int      `toml:"keep_days"` // 0 keeps every snapshot
	} `toml:"monitor"`

	Server struct {
		Addr string `toml:"addr"`
	} `toml:"server"`

	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
}

// Provider names.
const (
	Yahoo = "yahoo"
	EODHD = "eodhd"
)

// APIKeyEnv is the environment variable holding the EODHD API key.
const APIKeyEnv = "EODHD_API_KEY"

// Load reads the file at path. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config %q: %w", path, err)
		}
	}
	cfg.Market.APIKey = os.Getenv(APIKeyEnv)
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	def := func(v *string, d string) {
		if strings.TrimSpace(*v) == "" {
			*v = d
		}
	}
	def(&cfg.Files.Instruments, "instruments.xlsx")
	def(&cfg.Files.Bookings, "bookings.xlsx")
	def(&cfg.Files.Database, "depot.db")
	def(&cfg.Files.Report, "report.json")
	def(&cfg.Files.History, "history.json")
	def(&cfg.Market.Provider, Yahoo)
	def(&cfg.Market.Holidays, "de")
	def(&cfg.Server.Addr, ":8080")
	def(&cfg.Log.Level, "info")

	if cfg.Market.FetchTimeout.Duration <= 0 {
		cfg.Market.FetchTimeout.Duration = depot.DefaultFetchTimeout
	}
	if cfg.Monitor.Interval.Duration <= 0 {
		cfg.Monitor.Interval.Duration = 10 * time.Minute
	}
	if cfg.Monitor.Monthly == nil {
		monthly := true
		cfg.Monitor.Monthly = &monthly
	}
}

func validate(cfg *Config) error {
	cfg.Market.Provider = strings.ToLower(strings.TrimSpace(cfg.Market.Provider))
	switch cfg.Market.Provider {
	case Yahoo:
	case EODHD:
		if cfg.Market.APIKey == "" {
			return fmt.Errorf("%w: market.provider is eodhd but %s is not set", depot.ErrValidation, APIKeyEnv)
		}
	default:
		return fmt.Errorf("%w: unknown market.provider %q, want %q or %q", depot.ErrValidation, cfg.Market.Provider, Yahoo, EODHD)
	}
	if _, err := depot.NewCalendar(cfg.Market.Holidays); err != nil {
		return fmt.Errorf("market.holidays: %w", err)
	}
	if cfg.Market.Start != "" {
		if _, err := depot.ParseDate(cfg.Market.Start); err != nil {
			return fmt.Errorf("%w: market.start: %v", depot.ErrValidation, err)
		}
	}
	if cfg.Monitor.Interval.Duration < time.Second {
		return fmt.Errorf("%w: monitor.interval %v is below a second", depot.ErrValidation, cfg.Monitor.Interval)
	}
	if cfg.Monitor.KeepDays < 0 {
		return fmt.Errorf("%w: monitor.keep_days is negative", depot.ErrValidation)
	}
	return nil
}

// Monthly reports whether the monitor compares with the previous month too.
func (c *Config) Monthly() bool { return c.Monitor.Monthly == nil || *c.Monitor.Monthly }

// Start returns the first day to fetch prices for when the store is empty,
// the zero date when not configured.
func (c *Config) Start() depot.Date {
	d, _ := depot.ParseDate(c.Market.Start)
	return d
}
