package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/warp/payments-engine/bank"
)

// WriteSnapshot writes a header and one row per balance, in the given order.
func WriteSnapshot(w io.Writer, balances []bank.Balance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(bank.Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, b := range balances {
		if err := cw.Write(b.Row()); err != nil {
			return fmt.Errorf("failed to write client %d: %w", b.Client, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
