package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/warp/payments-engine/bank"
	"github.com/warp/payments-engine/csvio"
	"github.com/warp/payments-engine/store/sqlite"
)

type processCmd struct {
	journalPath string
	stats       bool
}

func (*processCmd) Name() string { return "process" }
func (*processCmd) Synopsis() string {
	return "applies a CSV file of transactions and prints the final balances"
}
func (*processCmd) Usage() string {
	return `ledger process [-journal <path>] [-stats] <transactions.csv>

  Reads every transaction from the file in order, applies it to the client
  accounts and writes one CSV row per client to stdout:

    client,available,held,total,locked

  Invalid transactions (duplicates, disputes of unknown transactions,
  anything after a chargeback) are skipped. A malformed row stops the run.

`
}

func (p *processCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.journalPath, "journal", "", "SQLite path for the audit journal (\":memory:\" allowed). No journal file by default.")
	f.BoolVar(&p.stats, "stats", false, "Log a summary of applied and rejected transactions to stderr.")
}

func (p *processCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "No file input parameter")
		return subcommands.ExitUsageError
	}

	stats, err := runProcess(ctx, f.Arg(0), p.journalPath, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading transactions: %v\n", err)
		return subcommands.ExitFailure
	}
	if p.stats {
		log.Printf("processed %d transactions: %d applied, %d rejected %v",
			stats.Records, stats.Applied, stats.RejectedTotal(), stats.Rejected)
	}
	return subcommands.ExitSuccess
}

// newProcessLedger returns a ledger without a journal for an empty path:
// nothing reads the trail of a one-shot run unless it goes to a file.
func newProcessLedger(journalPath string) (*bank.Ledger, *sqlite.Store, error) {
	if journalPath == "" {
		return bank.NewLedger(), nil, nil
	}
	db, err := sqlite.New(journalPath)
	if err != nil {
		return nil, nil, err
	}
	return bank.NewJournaledLedger(db), db, nil
}

// runProcess applies the file at path and writes the snapshot to out.
// Nothing is written to out if the run fails.
func runProcess(ctx context.Context, path, journalPath string, out io.Writer) (bank.Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return bank.Stats{}, err
	}
	defer file.Close()

	ledger, db, err := newProcessLedger(journalPath)
	if err != nil {
		return bank.Stats{}, err
	}
	if db != nil {
		defer db.Close()
	}

	stats, err := ledger.Process(ctx, csvio.NewReader(file))
	if err != nil {
		return stats, err
	}

	balances := ledger.Snapshot()
	if db != nil {
		if err := db.SaveSnapshot(ctx, balances, time.Now()); err != nil {
			return stats, err
		}
	}
	return stats, csvio.WriteSnapshot(out, balances)
}
