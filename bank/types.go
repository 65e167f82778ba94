/*
Package bank provides the client account ledger.

PURPOSE:
  Applies a stream of transaction records (deposits, withdrawals, disputes,
  resolutions, chargebacks) to numbered client accounts and reports the
  resulting balances. Everything else in this repository (CSV files, HTTP,
  the CLI) is an adapter that feeds records in and reads snapshots out.

KEY CONCEPTS IN THIS FILE (types.go):
  - Kind: The closed set of transaction types
  - Record: An immutable input unit addressed to one client
  - Balance: A rendered view of one account

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, never floats
  2. Best-effort: Invalid records are discarded, not raised
  3. Single owner: One goroutine drives a Ledger at a time

USAGE:
  l := bank.NewLedger()
  l.Route(bank.Record{Kind: bank.Deposit, Client: 1, Tx: 1, Amount: bank.MustAmount("1.5")})
  for _, b := range l.Snapshot() {
      fmt.Println(b.Row())
  }

SEE ALSO:
  - account.go: Per-client state machine
  - ledger.go: Routing, snapshot and stream processing
  - errors.go: Rejection reasons
*/
package bank

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ClientID uint16
type TxID uint32

// =============================================================================
// KIND - Closed set of transaction types
// =============================================================================

// Kind is the transaction type. The zero value is not a valid kind so an
// unset field never dispatches to a handler.
type Kind uint8

const (
	Withdrawal Kind = iota + 1
	Deposit
	Dispute
	Resolve
	Chargeback
)

var kindNames = map[Kind]string{
	Withdrawal: "withdrawal",
	Deposit:    "deposit",
	Dispute:    "dispute",
	Resolve:    "resolve",
	Chargeback: "chargeback",
}

// Kinds lists every valid kind in declaration order.
func Kinds() []Kind {
	return []Kind{Withdrawal, Deposit, Dispute, Resolve, Chargeback}
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// UsesAmount reports whether records of this kind carry a meaningful amount.
func (k Kind) UsesAmount() bool {
	return k == Deposit || k == Withdrawal
}

// ParseKind converts the lowercase text form ("deposit", ...) into a Kind.
// Surrounding whitespace is ignored, case is not.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// =============================================================================
// RECORD - Immutable input unit
// =============================================================================

// Record is one transaction addressed to one client. Amount is only
// meaningful for deposits and withdrawals; for other kinds it is ignored.
type Record struct {
	Kind   Kind
	Client ClientID
	Tx     TxID
	Amount decimal.Decimal
}

func (r Record) String() string {
	if r.Kind.UsesAmount() {
		return fmt.Sprintf("%s client=%d tx=%d amount=%s", r.Kind, r.Client, r.Tx, r.Amount)
	}
	return fmt.Sprintf("%s client=%d tx=%d", r.Kind, r.Client, r.Tx)
}

// ParseAmount parses a non-negative decimal amount. An empty string is zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid amount %q: must not be negative", s)
	}
	return d, nil
}

// MustAmount is ParseAmount for literals in tests and examples. It panics on
// malformed input.
func MustAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// BALANCE - Rendered view of one account
// =============================================================================

// Precision is the number of fractional digits used when rendering amounts.
const Precision = 4

// Balance is the externally visible state of one account.
type Balance struct {
	Client    ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

// Header returns the column names matching Row.
func Header() []string {
	return []string{"client", "available", "held", "total", "locked"}
}

// Row renders the balance as output columns with fixed precision.
func (b Balance) Row() []string {
	return []string{
		strconv.FormatUint(uint64(b.Client), 10),
		FormatAmount(b.Available),
		FormatAmount(b.Held),
		FormatAmount(b.Total),
		strconv.FormatBool(b.Locked),
	}
}

// FormatAmount renders d with exactly Precision fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(Precision)
}
