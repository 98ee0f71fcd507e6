package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/hvdmeer/networth"
)

type pricesCmd struct {
	dir    string
	output string
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "summarize the latest known price of every asset" }
func (*pricesCmd) Usage() string {
	return `nw prices -dir <dir> [-o <latest_prices.csv>]

  Scans every price series in the directory and writes a summary with the
  newest observation per asset, sorted by identifier.

`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "prices", "directory holding per-asset price series")
	f.StringVar(&c.output, "o", "", "summary file to write (default <dir>/latest_prices.csv)")
}

func (c *pricesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger := newLogger()

	summary, err := networth.LatestPrices(os.DirFS(c.dir), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not scan %q: %v\n", c.dir, err)
		return subcommands.ExitFailure
	}
	if len(summary) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no price files found to summarize.")
		return subcommands.ExitSuccess
	}

	output := c.output
	if output == "" {
		output = filepath.Join(c.dir, "latest_prices.csv")
	}
	err = writeFile(output, func(f *os.File) error {
		return networth.EncodeLatestPrices(f, summary)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Summarized %d assets to %s\n", len(summary), output)
	return subcommands.ExitSuccess
}
