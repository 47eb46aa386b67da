package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/depot"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type updateCmd struct {
	start string
}

func (*updateCmd) Name() string { return "update" }
func (*updateCmd) Synopsis() string {
	return "record daily closes up to yesterday from the configured provider"
}
func (*updateCmd) Usage() string {
	return `dwatch update [-s <start_date>]

  Fetches the closes of every registered instrument for the trading days
  after the last recorded quote, up to yesterday, and stores them.
  Instruments without ticker get their default value.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "First day to fetch when no quote is recorded yet (overrides market.start)")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "no arguments expected")
		return subcommands.ExitUsageError
	}
	cfg, done, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer done()

	start := cfg.Start()
	if c.start != "" {
		if start, err = depot.ParseDate(c.start); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	calendar, err := newCalendar(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	reg, _, err := loadInputs(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	st, quotes, err := loadQuotes(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	u := &depot.Updater{
		Source:   newProvider(cfg),
		Calendar: calendar,
		Timeout:  cfg.Market.FetchTimeout.Duration,
		Start:    start,
	}
	stats, err := u.Update(ctx, quotes, reg, depot.Today().Add(-1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to update quotes: %v\n", err)
		return subcommands.ExitFailure
	}
	if stats.Days > 0 {
		if err := st.SaveQuotes(ctx, quotes); err != nil {
			fmt.Fprintf(os.Stderr, "failed to save quotes: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	log.Info().Str("provider", cfg.Market.Provider).Msg(stats.String())
	fmt.Println(stats)
	return subcommands.ExitSuccess
}
