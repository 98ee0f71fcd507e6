package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/hvdmeer/networth"
)

type equityCmd struct {
	input  string
	prices string
	output string
}

func (*equityCmd) Name() string     { return "equity" }
func (*equityCmd) Synopsis() string { return "replay the equity transaction table into snapshots" }
func (*equityCmd) Usage() string {
	return `nw equity -i <transactions.csv> -prices <dir> -o <snapshots.csv>

  Replays the equity/fund transaction table in chronological order and
  writes one cost-basis snapshot per (ISIN, day). Foreign amounts are
  converted with the as-of forex series found in the prices directory.

`
}

func (c *equityCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "i", "transactions.csv", "equity transaction table (CSV)")
	f.StringVar(&c.prices, "prices", "prices", "directory holding per-asset price series")
	f.StringVar(&c.output, "o", "portfolio_snapshots.csv", "snapshot table to write (CSV)")
}

func (c *equityCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger := newLogger()

	in, err := os.Open(c.input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open %q: %v\n", c.input, err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	rows, err := networth.DecodeEquityRows(in, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not read transactions: %v\n", err)
		return subcommands.ExitFailure
	}

	resolver := networth.NewResolver(os.DirFS(c.prices), nil, logger)
	tracker := networth.NewEquityTracker(resolver, logger)
	if err := tracker.Replay(rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error: replay aborted: %v\n", err)
		return subcommands.ExitFailure
	}

	err = writeFile(c.output, func(f *os.File) error {
		return networth.EncodeEquitySnapshots(f, tracker.History())
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Wrote %d snapshots to %s\n", len(tracker.History()), c.output)
	return subcommands.ExitSuccess
}
