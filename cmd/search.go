package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/depot/config"
	"github.com/etnz/depot/eodhd"
	"github.com/google/subcommands"
)

type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search eodhd.com for the ticker of an instrument" }
func (*searchCmd) Usage() string {
	return `dwatch search <name|isin|ticker>

  Searches eodhd.com and lists the matching tickers, to be written in the
  ticker column of the instruments file. Needs ` + config.APIKeyEnv + `.
`
}

func (*searchCmd) SetFlags(f *flag.FlagSet) {}

func (*searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "a search term is required")
		return subcommands.ExitUsageError
	}
	cfg, done, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer done()
	if cfg.Market.APIKey == "" {
		fmt.Fprintf(os.Stderr, "Error: %s is not set\n", config.APIKeyEnv)
		return subcommands.ExitUsageError
	}

	var opts []eodhd.Option
	if cfg.Files.Cache != "" {
		opts = append(opts, eodhd.WithCacheDir(cfg.Files.Cache))
	}
	client := eodhd.New(cfg.Market.APIKey, opts...)
	results, err := client.Search(ctx, strings.Join(f.Args(), " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(results) == 0 {
		fmt.Println("no match")
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	b.WriteString("| Ticker | Name | ISIN | Type | Currency | Last close |\n")
	b.WriteString("|:---|:---|:---|:---|:---|---:|\n")
	for _, r := range results {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %.2f (%v) |\n", r.Ticker(), r.Name, r.ISIN, r.Type, r.Currency, r.PreviousClose, r.PreviousCloseDate)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
