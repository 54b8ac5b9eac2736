package entity

import "github.com/shopspring/decimal"

// ReconciledAmounts is the deterministic fee/payout split of a reconciled
// input amount. Invariant: Fee + Payout == Input after 2-decimal truncation.
type ReconciledAmounts struct {
	Input  decimal.Decimal `json:"input"`
	Fee    decimal.Decimal `json:"fee"`
	Payout decimal.Decimal `json:"payout"`
}
