/*
account.go - Per-client balance state machine

PURPOSE:
  An Account owns one client's balances, the deposits and withdrawals it
  accepted, and the set of deposits currently under dispute. It applies one
  record at a time.

STATES:
  active  (Locked = false)
  frozen  (Locked = true, terminal; reached by a chargeback)

CRITICAL INVARIANTS:
  1. Total is always Available + Held (derived, never stored)
  2. A tx id is accepted at most once; deposits and withdrawals share ids
  3. Only deposits can be disputed
  4. A frozen account never changes again
  5. Balances may go negative; nothing is rejected for lack of funds

TRANSITIONS:
  Deposit     available += amount
  Withdrawal  available -= amount
  Dispute     available -= amount, held += amount
  Resolve     available += amount, held -= amount
  Chargeback  held -= amount, locked = true

DOUBLE DISPUTE:
  A second dispute on a tx that is already disputed moves the amount from
  available to held again. The dispute set keeps a single entry, so a later
  resolve or chargeback releases it only once.

SEE ALSO:
  - ledger.go: Creates accounts and routes records to them
  - errors.go: Rejection reasons returned by TryApply
*/
package bank

import "github.com/shopspring/decimal"

// Account is one client's balances and history. It is not safe for
// concurrent use; the owning Ledger serialises access.
type Account struct {
	Client    ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Locked    bool

	accepted map[TxID]Record
	disputes map[TxID]Record
}

// NewAccount creates an empty, active account.
func NewAccount(client ClientID) *Account {
	return &Account{
		Client:    client,
		Available: decimal.Zero,
		Held:      decimal.Zero,
		accepted:  make(map[TxID]Record),
		disputes:  make(map[TxID]Record),
	}
}

// Total is Available + Held.
func (a *Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}

// Balance returns the externally visible state.
func (a *Account) Balance() Balance {
	return Balance{
		Client:    a.Client,
		Available: a.Available,
		Held:      a.Held,
		Total:     a.Total(),
		Locked:    a.Locked,
	}
}

// Disputed reports whether tx currently has an open dispute.
func (a *Account) Disputed(tx TxID) bool {
	_, ok := a.disputes[tx]
	return ok
}

// Accepted returns the deposit or withdrawal accepted under tx.
func (a *Account) Accepted(tx TxID) (Record, bool) {
	rec, ok := a.accepted[tx]
	return rec, ok
}

// =============================================================================
// APPLY
// =============================================================================

// Apply applies rec and discards the outcome. Invalid records leave the
// account unchanged.
func (a *Account) Apply(rec Record) {
	_ = a.TryApply(rec)
}

// TryApply applies rec and returns nil, or a *RejectionError if the record
// was discarded. A rejected record never changes the account.
func (a *Account) TryApply(rec Record) error {
	if a.Locked {
		return reject(rec, ErrAccountLocked)
	}

	var err error
	switch rec.Kind {
	case Deposit:
		err = a.deposit(rec)
	case Withdrawal:
		err = a.withdraw(rec)
	case Dispute:
		err = a.dispute(rec.Tx)
	case Resolve:
		err = a.resolve(rec.Tx)
	case Chargeback:
		err = a.chargeback(rec.Tx)
	default:
		err = ErrUnknownKind
	}
	if err != nil {
		return reject(rec, err)
	}
	return nil
}

func (a *Account) checkNew(rec Record) error {
	if _, ok := a.accepted[rec.Tx]; ok {
		return ErrDuplicateTransaction
	}
	if rec.Amount.IsZero() {
		return ErrZeroAmount
	}
	return nil
}

func (a *Account) deposit(rec Record) error {
	if err := a.checkNew(rec); err != nil {
		return err
	}
	a.Available = a.Available.Add(rec.Amount)
	a.accepted[rec.Tx] = rec
	return nil
}

// withdraw has no funds check; available may go negative.
func (a *Account) withdraw(rec Record) error {
	if err := a.checkNew(rec); err != nil {
		return err
	}
	a.Available = a.Available.Sub(rec.Amount)
	a.accepted[rec.Tx] = rec
	return nil
}

func (a *Account) dispute(tx TxID) error {
	rec, ok := a.accepted[tx]
	if !ok {
		return ErrUnknownTransaction
	}
	if rec.Kind != Deposit {
		return ErrNotDisputable
	}
	a.Available = a.Available.Sub(rec.Amount)
	a.Held = a.Held.Add(rec.Amount)
	a.disputes[tx] = rec
	return nil
}

func (a *Account) resolve(tx TxID) error {
	rec, ok := a.disputes[tx]
	if !ok {
		return ErrNoActiveDispute
	}
	delete(a.disputes, tx)
	a.Available = a.Available.Add(rec.Amount)
	a.Held = a.Held.Sub(rec.Amount)
	return nil
}

func (a *Account) chargeback(tx TxID) error {
	rec, ok := a.disputes[tx]
	if !ok {
		return ErrNoActiveDispute
	}
	delete(a.disputes, tx)
	a.Held = a.Held.Sub(rec.Amount)
	a.Locked = true
	return nil
}
