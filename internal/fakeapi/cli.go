package fakeapi

import (
	"flag"
	"io"
)

// Default flag values.
const (
	defaultAddr      = "127.0.0.1:9090"
	defaultYearFrom  = 2025
	defaultYearTo    = 2023
	defaultEvents    = 3
	defaultFinishers = 250
	defaultSeed      = 1
)

// CLI holds the command-line switches that are not part of Config.
type CLI struct {
	Verbose bool
	Help    bool
}

// NewFlagSet binds the tool's flags to cfg and cli.
func NewFlagSet(name string, cfg *Config, cli *CLI) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", defaultAddr, "Listen address")
	fs.IntVar(&cfg.YearFrom, "from", defaultYearFrom, "Newest year with events")
	fs.IntVar(&cfg.YearTo, "to", defaultYearTo, "Oldest year with events")
	fs.IntVar(&cfg.EventsPerYear, "events", defaultEvents, "Events per year")
	fs.IntVar(&cfg.FinishersPerEvent, "finishers", defaultFinishers, "Finishers per event")
	fs.Int64Var(&cfg.Seed, "seed", defaultSeed, "Seed for generated data")
	fs.IntVar(&cfg.DropEvery, "drop", 0, "Close every Nth connection unanswered (0 disables)")
	fs.BoolVar(&cli.Verbose, "verbose", false, "Enable debug logging")
	fs.BoolVar(&cli.Help, "help", false, "Show help")
	return fs
}

// ShowHelp prints usage information for the fake API tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Fake Results API
================

Serves generated events and finishers on the same paths as the public
results API so the pipeline can run offline.

Usage:
  go run ./cmd/fake-api [options]

Options:
  -addr string
        Listen address (default "127.0.0.1:9090")
  -from int
        Newest year with events (default 2025)
  -to int
        Oldest year with events (default 2023)
  -events int
        Events per year (default 3)
  -finishers int
        Finishers per event (default 250)
  -seed int
        Seed for generated data (default 1)
  -drop int
        Close every Nth connection unanswered, 0 disables (default 0)
  -verbose
        Enable debug logging, including dropped connections
  -help
        Show this help message

Example:
  go run ./cmd/fake-api -drop 7 &
  FINISHLINE_API_BASE_URL=http://127.0.0.1:9090 go run ./cmd
`)
}
