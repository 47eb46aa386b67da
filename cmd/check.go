package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/depot"
	"github.com/google/subcommands"
)

type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "check the configuration, the instruments and the bookings" }
func (*checkCmd) Usage() string {
	return `dwatch check

  Loads the configuration, the instrument registry and the booking ledger,
  prints what was found and warns about data quality issues. Exits with a
  non zero status when an input is invalid.
`
}

func (*checkCmd) SetFlags(f *flag.FlagSet) {}

func (*checkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	reg, ledger, err := loadInputs(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, depot.ErrValidation) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}

	fmt.Printf("instruments: %d (%s)\n", reg.Len(), cfg.Files.Instruments)
	fmt.Printf("bookings:    %d from %v to %v (%s)\n", ledger.Len(), ledger.First(), ledger.Last(), cfg.Files.Bookings)
	fmt.Printf("accounts:    %v\n", ledger.Accounts())
	if missing := ledger.Unregistered(reg); len(missing) > 0 {
		fmt.Printf("unregistered instruments: %v\n", missing)
	}

	st, quotes, err := loadQuotes(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()
	if first, last, ok := quotes.Bounds(); ok {
		fmt.Printf("quotes:      %d from %v to %v (%s)\n", quotes.Len(), first, last, cfg.Files.Database)
	} else {
		fmt.Printf("quotes:      none yet, run dwatch update (%s)\n", cfg.Files.Database)
	}
	return subcommands.ExitSuccess
}
