// Package cmd implements the dwatch subcommands.
package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/depot"
	"github.com/etnz/depot/config"
	"github.com/etnz/depot/eodhd"
	"github.com/etnz/depot/logger"
	"github.com/etnz/depot/sheet"
	"github.com/etnz/depot/store"
	"github.com/etnz/depot/yahoo"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

// EnvConfig names the configuration file when -config is not set.
const EnvConfig = "DEPOT_CONFIG"

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&checkCmd{}, "data")
	c.Register(&updateCmd{}, "data")
	c.Register(&searchCmd{}, "data")

	c.Register(&positionsCmd{}, "reports")
	c.Register(&historyCmd{}, "reports")
	c.Register(&monitorCmd{}, "reports")

	c.Register(&serveCmd{}, "server")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the TOML configuration file (defaults to $"+EnvConfig+")")
var logLevel = flag.String("log-level", "", "Log level, overrides the configured one (debug, info, warn, error)")

// setup loads the configuration and installs the logger. The returned
// function flushes and closes the log file.
func setup() (*config.Config, func(), error) {
	path := *configFile
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if *logLevel != "" {
		level = *logLevel
	}
	closeLog, err := logger.Setup(logger.Options{Level: level, File: cfg.Log.File})
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Str("config", path).Str("provider", cfg.Market.Provider).Msg("configuration loaded")
	return cfg, func() { _ = closeLog() }, nil
}

// loadInputs reads the instrument registry and the booking ledger.
func loadInputs(cfg *config.Config) (*depot.Registry, *depot.Ledger, error) {
	reg, err := sheet.LoadRegistry(cfg.Files.Instruments)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := sheet.LoadLedger(cfg.Files.Bookings)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range ledger.Unregistered(reg) {
		log.Warn().Str("instrument", id).Msg("booked instrument is not registered")
	}
	return reg, ledger, nil
}

// loadQuotes opens the store and reads every recorded quote.
func loadQuotes(ctx context.Context, cfg *config.Config) (*store.Store, *depot.Quotes, error) {
	st, err := store.Open(cfg.Files.Database)
	if err != nil {
		return nil, nil, err
	}
	quotes, err := st.LoadQuotes(ctx)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, quotes, nil
}

// newProvider returns the configured market data provider.
func newProvider(cfg *config.Config) depot.Provider {
	switch cfg.Market.Provider {
	case config.EODHD:
		var opts []eodhd.Option
		if cfg.Files.Cache != "" {
			opts = append(opts, eodhd.WithCacheDir(cfg.Files.Cache))
		}
		return eodhd.New(cfg.Market.APIKey, opts...)
	default:
		return yahoo.New("", nil)
	}
}

// newCalendar returns the configured trading calendar.
func newCalendar(cfg *config.Config) (*depot.Calendar, error) {
	return depot.NewCalendar(cfg.Market.Holidays)
}

// printMarkdown renders md for the terminal, or prints it as is when it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(strings.TrimLeft(out, "\n"))
}

// writeJSON replaces the file at path with the indented json of v. The file
// is written aside and renamed, readers never see a partial document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("cannot write %q: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("cannot write %q: %w", path, err)
	}
	return nil
}
