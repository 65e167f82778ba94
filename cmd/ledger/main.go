/*
main.go - Command-line entry point

COMMANDS:
  process   Apply a CSV file of transactions and print the balances
  serve     Run the HTTP API

EXAMPLES:
  # Print final balances
  ledger process transactions.csv > accounts.csv

  # Keep an audit trail of the run
  ledger process -journal=./audit.db transactions.csv

  # Serve on a different port
  ledger serve -port=3000

SEE ALSO:
  - process.go, serve.go: Command implementations
  - config/config.go: Settings for serve
*/
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&processCmd{}, "ledger")
	commander.Register(&serveCmd{}, "ledger")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
