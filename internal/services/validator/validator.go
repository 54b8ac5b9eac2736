// Package validator is the fraud and data-integrity gate: it cross-checks a
// claimed order against the authoritative bank payment record before any
// money moves.
package validator

import (
	"github.com/paybridge/settler/internal/entity"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrMismatch means the claimed order and the live bank record disagree.
// The run aborts before any ledger action.
var ErrMismatch = errors.New("payment details discrepancy")

// Validate confirms that the claimed order matches the bank's record
// exactly: settlement currency on both sides, identifier, counterparty
// IBAN and the parsed decimal amount. Returns the reconciled amount.
func Validate(currency string, order *entity.PendingOrder, live *entity.LivePayment) (decimal.Decimal, error) {
	claimed, err := order.Amount.Decimal()
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(ErrMismatch, "claimed amount unparseable")
	}
	actual, err := live.Amount.Decimal()
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(ErrMismatch, "live amount unparseable")
	}

	switch {
	case order.Amount.Currency != currency:
		return decimal.Decimal{}, errors.Wrapf(ErrMismatch, "claimed currency %s, want %s", order.Amount.Currency, currency)
	case live.Amount.Currency != currency:
		return decimal.Decimal{}, errors.Wrapf(ErrMismatch, "live currency %s, want %s", live.Amount.Currency, currency)
	case live.ID != order.ID:
		return decimal.Decimal{}, errors.Wrapf(ErrMismatch, "claimed id %d, live id %d", order.ID, live.ID)
	case live.CounterpartyAlias.IBAN != order.CounterpartyAlias.IBAN:
		return decimal.Decimal{}, errors.Wrap(ErrMismatch, "counterparty iban differs")
	case !actual.Equal(claimed):
		return decimal.Decimal{}, errors.Wrapf(ErrMismatch, "claimed amount %s, live amount %s", claimed, actual)
	}

	return claimed, nil
}
