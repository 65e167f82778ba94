/*
errors.go - Rejection reasons for the account state machine

PURPOSE:
  The ledger never fails on a semantically invalid record: it discards it.
  TryApply/TryRoute still report WHY a record was discarded so tests and
  adapters (HTTP responses, CLI stats) can observe the decision without
  changing ledger behaviour.

ERROR CATEGORIES:
  1. Account rejections - duplicate tx, zero amount, unknown/inapplicable tx
  2. Routing rejections - no account for the client
  3. Frozen account - everything after a chargeback

USAGE:
  if err := ledger.TryRoute(rec); errors.Is(err, bank.ErrDuplicateTransaction) {
      // second deposit with the same tx id, first one wins
  }

SEE ALSO:
  - account.go: Produces account rejections
  - ledger.go: Produces routing rejections
*/
package bank

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountLocked is returned for any record addressed to a frozen account.
	ErrAccountLocked = errors.New("account locked")

	// ErrNoAccount is returned when the first record for a client is not a deposit.
	ErrNoAccount = errors.New("no account for client")

	// ErrDuplicateTransaction is returned when a deposit or withdrawal reuses a
	// tx id already accepted for the client.
	ErrDuplicateTransaction = errors.New("duplicate transaction id")

	// ErrZeroAmount is returned for deposits and withdrawals of zero.
	ErrZeroAmount = errors.New("zero amount")

	// ErrUnknownTransaction is returned when a dispute references a tx id the
	// account never accepted.
	ErrUnknownTransaction = errors.New("unknown transaction")

	// ErrNotDisputable is returned when a dispute references a withdrawal.
	ErrNotDisputable = errors.New("transaction is not disputable")

	// ErrNoActiveDispute is returned when a resolve or chargeback references a
	// tx id without an open dispute.
	ErrNoActiveDispute = errors.New("no active dispute")

	// ErrUnknownKind is returned for a kind outside the declared set.
	ErrUnknownKind = errors.New("unknown transaction kind")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// RejectionError describes a discarded record.
type RejectionError struct {
	Client ClientID
	Tx     TxID
	Kind   Kind
	Reason error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s client=%d tx=%d rejected: %v", e.Kind, e.Client, e.Tx, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

func reject(rec Record, reason error) *RejectionError {
	return &RejectionError{Client: rec.Client, Tx: rec.Tx, Kind: rec.Kind, Reason: reason}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRejection returns true if err is a discarded-record outcome rather than a
// processing failure.
func IsRejection(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej)
}

// Reason returns a short stable code for a rejection, "" for nil.
// Used as a map key in Stats and in API responses.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, ErrNoAccount):
		return "no_account"
	case errors.Is(err, ErrDuplicateTransaction):
		return "duplicate_transaction"
	case errors.Is(err, ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, ErrUnknownTransaction):
		return "unknown_transaction"
	case errors.Is(err, ErrNotDisputable):
		return "not_disputable"
	case errors.Is(err, ErrNoActiveDispute):
		return "no_active_dispute"
	case errors.Is(err, ErrUnknownKind):
		return "unknown_kind"
	default:
		return "error"
	}
}
