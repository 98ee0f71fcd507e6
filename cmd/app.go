// Package cmd implements the CLI application that drives the trackers.
package cmd

import (
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/hvdmeer/networth"
)

// Register registers all subcommands on the commander.
func Register(c *subcommands.Commander) {
	c.Register(&equityCmd{}, "snapshots")
	c.Register(&cryptoCmd{}, "snapshots")
	c.Register(&importCmd{}, "data")
	c.Register(&pricesCmd{}, "data")
	c.Register(&reportCmd{}, "reports")
}

// newLogger builds the console logger handed to every engine component.
func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// loadMetadata reads the token metadata file, or returns an empty mapping
// when no file was given.
func loadMetadata(path string) (networth.Metadata, error) {
	if path == "" {
		return networth.Metadata{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open metadata file %q: %w", path, err)
	}
	defer f.Close()
	return networth.DecodeMetadata(f)
}

// writeFile creates path and streams encode into it.
func writeFile(path string, encode func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %q: %w", path, err)
	}
	defer f.Close()
	return encode(f)
}
