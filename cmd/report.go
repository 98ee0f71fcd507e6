package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/hvdmeer/networth"
	"github.com/hvdmeer/networth/renderer"
)

type reportCmd struct {
	input  string
	crypto bool
	plain  bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "render a summary of a snapshot table" }
func (*reportCmd) Usage() string {
	return `nw report -i <snapshots.csv> [-crypto] [-plain]

  Renders the latest state of every asset in a snapshot table as a report
  in the terminal. Use -crypto for crypto snapshot tables and -plain to
  emit raw markdown.

`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "i", "portfolio_snapshots.csv", "snapshot table to report on (CSV)")
	f.BoolVar(&c.crypto, "crypto", false, "the input is a crypto snapshot table")
	f.BoolVar(&c.plain, "plain", false, "emit raw markdown instead of rendering")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := os.Open(c.input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open %q: %v\n", c.input, err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	var md string
	if c.crypto {
		history, err := networth.DecodeCryptoSnapshots(in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not read snapshots: %v\n", err)
			return subcommands.ExitFailure
		}
		md = renderer.RenderCryptoSummary(renderer.CryptoSummary(history))
	} else {
		history, err := networth.DecodeEquitySnapshots(in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not read snapshots: %v\n", err)
			return subcommands.ExitFailure
		}
		md = renderer.RenderEquitySummary(renderer.EquitySummary(history))
	}

	if c.plain {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		// Fall back to raw markdown when the terminal style cannot be set up.
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	fmt.Print(out)
	return subcommands.ExitSuccess
}
