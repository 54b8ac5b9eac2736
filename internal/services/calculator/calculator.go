// Package calculator computes the deterministic fee/payout split.
package calculator

import (
	"github.com/paybridge/settler/internal/entity"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrPayoutTooSmall rejects orders whose payout would fall below the
// minimum before any ledger action is taken.
var ErrPayoutTooSmall = errors.New("payout below 0.25, will not be processed")

var (
	feeRate   = decimal.New(5, -3)   // 0.5%
	minFee    = decimal.New(100, -2) // 1.00
	minPayout = decimal.New(25, -2)  // 0.25
)

// Split derives fee and payout from the reconciled input amount.
// Truncation, never rounding: the operator must not pay out more than the
// margin allows, so every cut is floored to cents.
func Split(input decimal.Decimal) (entity.ReconciledAmounts, error) {
	fee := input.Mul(feeRate).RoundFloor(2)
	if fee.LessThan(minFee) {
		fee = minFee
	}

	payout := input.Sub(fee).RoundFloor(2)
	if payout.LessThan(minPayout) {
		return entity.ReconciledAmounts{}, errors.Wrapf(ErrPayoutTooSmall, "input %s, fee %s", input, fee)
	}

	return entity.ReconciledAmounts{
		Input:  input,
		Fee:    fee,
		Payout: payout,
	}, nil
}
