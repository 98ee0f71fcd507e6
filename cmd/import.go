package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/hvdmeer/networth"
)

type importCmd struct {
	txFile     string
	splitsFile string
	output     string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "convert the broker JSON export into a transaction table" }
func (*importCmd) Usage() string {
	return `nw import -tx <transactions_export.json> -splits <splits_export.json> -o <transactions.csv>

  Converts the broker's JSON export into the CSV transaction table consumed
  by "nw equity". Corporate splits become STOCK_SPLIT rows carrying the
  split ratio in the quantity column.

`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.txFile, "tx", "transactions_export.json", "broker transactions export (JSON)")
	f.StringVar(&c.splitsFile, "splits", "splits_export.json", "broker splits export (JSON)")
	f.StringVar(&c.output, "o", "transactions.csv", "transaction table to write (CSV)")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	txDoc, err := os.Open(c.txFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open %q: %v\n", c.txFile, err)
		return subcommands.ExitFailure
	}
	defer txDoc.Close()

	splitDoc, err := os.Open(c.splitsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open %q: %v\n", c.splitsFile, err)
		return subcommands.ExitFailure
	}
	defer splitDoc.Close()

	rows, err := networth.ImportBrokerExport(txDoc, splitDoc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: import failed: %v\n", err)
		return subcommands.ExitFailure
	}

	err = writeFile(c.output, func(f *os.File) error {
		return networth.EncodeEquityRows(f, rows)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Imported %d transactions to %s\n", len(rows), c.output)
	return subcommands.ExitSuccess
}
