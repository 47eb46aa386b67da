package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/depot"
	"github.com/etnz/depot/config"
	"github.com/etnz/depot/renderer"
	"github.com/etnz/depot/store"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// monitorCmd holds the flags for the 'monitor' subcommand.
type monitorCmd struct {
	watch   bool
	output  string
	noMonth bool
}

func (*monitorCmd) Name() string { return "monitor" }
func (*monitorCmd) Synopsis() string {
	return "compare live prices with the last trading day and the previous month end"
}
func (*monitorCmd) Usage() string {
	return `dwatch monitor [-w] [-o <file>] [-no-month]

  Fetches the live price of every instrument with a ticker and compares it
  with its close on the last trading day, and on the last trading day of the
  previous month. The report is written as a JSON document, saved as a
  snapshot and displayed. With -w it runs again every monitor.interval.
`
}

func (c *monitorCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.watch, "w", false, "run every monitor.interval until interrupted")
	f.StringVar(&c.output, "o", "", "Output file (defaults to files.report)")
	f.BoolVar(&c.noMonth, "no-month", false, "Skip the comparison with the previous month end")
}

func (c *monitorCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if c.output == "" {
		c.output = cfg.Files.Report
	}
	calendar, err := newCalendar(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	st, err := store.Open(cfg.Files.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	m := &monitor{
		cfg:      cfg,
		calendar: calendar,
		provider: newProvider(cfg),
		store:    st,
		monthly:  cfg.Monthly() && !c.noMonth,
	}
	for {
		report, err := m.run(ctx)
		switch {
		case err != nil && !c.watch:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		case err != nil:
			log.Error().Err(err).Msg("monitor run failed")
		default:
			if err := c.publish(ctx, m, report); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				if !c.watch {
					return subcommands.ExitFailure
				}
			}
		}

		if !c.watch {
			break
		}
		select {
		case <-ctx.Done():
			return subcommands.ExitSuccess
		case <-time.After(cfg.Monitor.Interval.Duration):
		}
	}
	return subcommands.ExitSuccess
}

// publish writes the report document, saves the snapshot and displays it.
func (c *monitorCmd) publish(ctx context.Context, m *monitor, report *depot.Report) error {
	if err := writeJSON(c.output, report); err != nil {
		return err
	}
	if _, err := m.store.SaveSnapshot(ctx, report); err != nil {
		return err
	}
	if keep := m.cfg.Monitor.KeepDays; keep > 0 {
		n, err := m.store.PruneSnapshots(ctx, time.Now().AddDate(0, 0, -keep))
		if err != nil {
			return err
		}
		if n > 0 {
			log.Debug().Int64("snapshots", n).Msg("old snapshots pruned")
		}
	}
	log.Info().Str("id", report.ID).Int("rows", len(report.Rows)).Str("file", c.output).Msg("report published")

	if c.watch {
		fmt.Println("\033[2J")
	}
	printMarkdown(renderer.RenderReport(report))
	return nil
}

// monitor computes one report per run.
type monitor struct {
	cfg      *config.Config
	calendar *depot.Calendar
	provider depot.Provider
	store    *store.Store
	monthly  bool
}

// run reloads the inputs, resolves the reference prices, fetches the live
// prices and compares them.
func (m *monitor) run(ctx context.Context) (*depot.Report, error) {
	reg, ledger, err := loadInputs(m.cfg)
	if err != nil {
		return nil, err
	}
	quotes, err := m.store.LoadQuotes(ctx)
	if err != nil {
		return nil, err
	}

	today := depot.Today()
	timeout := m.cfg.Market.FetchTimeout.Duration
	daily, err := m.references(ctx, quotes, reg, m.calendar.LastTradingDay(today))
	if err != nil {
		return nil, err
	}
	var monthly *depot.Comparison
	if m.monthly {
		if on, ok := m.calendar.LastTradingDayOfPreviousMonth(today); ok {
			ref, err := m.references(ctx, quotes, reg, on)
			if err != nil {
				return nil, err
			}
			monthly = &ref
		}
	}

	started := time.Now()
	live, err := depot.LivePrices(ctx, m.provider, reg, timeout)
	if err != nil {
		return nil, err
	}
	shares, err := depot.AggregateAccounts(depot.Expand(ledger, daily.Date))
	if err != nil {
		return nil, err
	}
	report, err := depot.ComputeDeltas(reg, shares, daily, monthly, live)
	if err != nil {
		return nil, err
	}
	report.ID = uuid.NewString()
	report.Time = started
	return report, nil
}

// references resolves the reference prices on a day from the recorded quotes
// when they reach that day, from the provider otherwise.
func (m *monitor) references(ctx context.Context, quotes *depot.Quotes, reg *depot.Registry, on depot.Date) (depot.Comparison, error) {
	if _, last, ok := quotes.Bounds(); ok && !last.Before(on) {
		log.Debug().Stringer("date", on).Msg("reference prices from recorded quotes")
		return depot.QuoteReferences(quotes, reg, on), nil
	}
	log.Debug().Stringer("date", on).Str("provider", m.cfg.Market.Provider).Msg("reference prices from provider")
	return depot.FetchReferences(ctx, m.provider, reg, on, m.cfg.Market.FetchTimeout.Duration)
}
