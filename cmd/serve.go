package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/depot/server"
	"github.com/etnz/depot/store"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the web front end and the published documents" }
func (*serveCmd) Usage() string {
	return `dwatch serve [-addr <host:port>]

  Serves files.static at /, the latest report at /api/report, a report by
  snapshot id at /api/report/<id>, the history at /api/history and the
  latest report as an HTML table at /report.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Address to listen on (defaults to server.addr)")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, done, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer done()
	addr := c.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	st, err := store.Open(cfg.Files.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	srv := server.New(server.Options{
		Static:      cfg.Files.Static,
		ReportFile:  cfg.Files.Report,
		HistoryFile: cfg.Files.History,
		Store:       st,
	})
	if err := srv.Run(ctx, addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
