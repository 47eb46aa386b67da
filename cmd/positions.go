package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/depot"
	"github.com/etnz/depot/renderer"
	"github.com/google/subcommands"
)

type positionsCmd struct {
	date     string
	accounts bool
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display the shares held and their value on a day" }
func (*positionsCmd) Usage() string {
	return `dwatch positions [-d <date>] [-accounts]

  Displays, for every instrument held on the day, the number of shares, the
  last known price and the value, summed over banks unless -accounts is set.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "0d", "Date of the positions (defaults to today)")
	f.BoolVar(&c.accounts, "accounts", false, "One line per bank instead of totals per instrument")
}

func (c *positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := depot.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	cfg, done, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer done()

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

	positions := depot.Expand(ledger, on)
	prices := depot.Align(quotes, reg, on)
	p, err := renderer.NewPositions(reg, positions, prices, on, c.accounts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderPositions(p))
	return subcommands.ExitSuccess
}
