package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/hvdmeer/networth"
)

type cryptoCmd struct {
	input  string
	prices string
	meta   string
	output string
}

func (*cryptoCmd) Name() string     { return "crypto" }
func (*cryptoCmd) Synopsis() string { return "replay the crypto transaction table into snapshots" }
func (*cryptoCmd) Usage() string {
	return `nw crypto -i <transactions.csv> -prices <dir> -meta <tokens.json> -o <snapshots.csv>

  Replays the on-chain transaction table in chronological order and writes
  one cost-basis snapshot per (coin, day). Token metadata supplies the quote
  currency, price source and family proxy of each coin.

`
}

func (c *cryptoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "i", "crypto_transactions.csv", "crypto transaction table (CSV)")
	f.StringVar(&c.prices, "prices", "prices", "directory holding per-coin price series")
	f.StringVar(&c.meta, "meta", "", "token metadata file (JSON)")
	f.StringVar(&c.output, "o", "crypto_snapshots.csv", "snapshot table to write (CSV)")
}

func (c *cryptoCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger := newLogger()

	meta, err := loadMetadata(c.meta)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	in, err := os.Open(c.input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open %q: %v\n", c.input, err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	rows, err := networth.DecodeCryptoRows(in, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not read transactions: %v\n", err)
		return subcommands.ExitFailure
	}

	resolver := networth.NewResolver(os.DirFS(c.prices), meta, logger)
	tracker := networth.NewCryptoTracker(resolver, meta, logger)
	if err := tracker.Replay(rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error: replay aborted: %v\n", err)
		return subcommands.ExitFailure
	}

	err = writeFile(c.output, func(f *os.File) error {
		return networth.EncodeCryptoSnapshots(f, tracker.History())
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Wrote %d snapshots to %s\n", len(tracker.History()), c.output)
	return subcommands.ExitSuccess
}
