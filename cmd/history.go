package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/depot"
	"github.com/etnz/depot/renderer"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type historyCmd struct {
	output string
	days   int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "write the daily value of every instrument held" }
func (*historyCmd) Usage() string {
	return `dwatch history [-o <file>] [-n <days>]

  Values every position on every day from the first booking to yesterday,
  carrying the last known price forward, sums it over banks and writes the
  history document. The total value of the last days is displayed.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file (defaults to files.history)")
	f.IntVar(&c.days, "n", 10, "Number of days to display, all when 0")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, done, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer done()
	output := c.output
	if output == "" {
		output = cfg.Files.History
	}

	reg, ledger, err := loadInputs(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	st, quotes, err := loadQuotes(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	st.Close()

	if _, _, ok := quotes.Bounds(); !ok {
		fmt.Fprintln(os.Stderr, "Error: no quote recorded, run dwatch update first")
		return subcommands.ExitFailure
	}

	h, err := history(reg, ledger, quotes, depot.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := writeJSON(output, h); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	log.Info().Str("file", output).Stringer("days", h.Days()).Msg("history written")
	printMarkdown(renderer.RenderHistory(renderer.NewHistorySummary(h, c.days)))
	return subcommands.ExitSuccess
}

// history values the ledger positions with aligned prices up to the day
// before today and sums the values over banks.
func history(reg *depot.Registry, ledger *depot.Ledger, quotes *depot.Quotes, today depot.Date) (*depot.History, error) {
	end := today.Add(-1)
	values, err := depot.Valuate(depot.Expand(ledger, end), depot.Align(quotes, reg, end))
	if err != nil {
		return nil, err
	}
	byInstrument, err := depot.AggregateAccounts(values)
	if err != nil {
		return nil, err
	}
	return depot.NewHistory(reg, byInstrument)
}
