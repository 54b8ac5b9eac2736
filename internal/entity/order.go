package entity

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Amount is a monetary value as the bank and backend put it on the wire:
// a decimal string plus an ISO currency code.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Decimal parses the wire value into an exact decimal.
func (a Amount) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(a.Value)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "invalid amount value %q", a.Value)
	}
	return d, nil
}

// CounterpartyAlias identifies the bank counterparty of a payment.
type CounterpartyAlias struct {
	Type        string `json:"type,omitempty"`
	IBAN        string `json:"iban"`
	DisplayName string `json:"display_name,omitempty"`
}

// Destination is the opaque payout destination attached to an order:
// a ledger address, an optional numeric destination tag and a free-text
// reference used in the audit memos.
type Destination struct {
	Address     string `json:"address"`
	Tag         string `json:"tag,omitempty"`
	Description string `json:"description"`
}

// TagValue parses the optional destination tag. A missing or non-numeric
// tag yields nil, mirroring how the backend stores it as free text.
func (d Destination) TagValue() *uint32 {
	if d.Tag == "" {
		return nil
	}
	n, err := strconv.ParseUint(d.Tag, 10, 32)
	if err != nil {
		return nil
	}
	tag := uint32(n)
	return &tag
}

// OrderEnvelope is the backend's nested order payload.
type OrderEnvelope struct {
	Details *Destination `json:"details"`
}

// PendingOrder is one claimed payout order as surfaced by the merchant
// backend. Read-only to the engine; the bank record is the ground truth
// it is reconciled against.
type PendingOrder struct {
	ID                int64             `json:"id"`
	Amount            Amount            `json:"amount"`
	CounterpartyAlias CounterpartyAlias `json:"counterparty_alias"`
	Order             *OrderEnvelope    `json:"_order,omitempty"`
}

// Details returns the payout destination, or an error when the backend
// surfaced an order without one.
func (o *PendingOrder) Details() (*Destination, error) {
	if o.Order == nil || o.Order.Details == nil {
		return nil, errors.New("order missing destination details")
	}
	return o.Order.Details, nil
}
