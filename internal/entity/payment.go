package entity

// LivePayment is the bank ledger's authoritative record of a received
// payment. Fetched fresh for every run, never cached.
type LivePayment struct {
	ID                int64             `json:"id"`
	Description       string            `json:"description,omitempty"`
	Amount            Amount            `json:"amount"`
	CounterpartyAlias CounterpartyAlias `json:"counterparty_alias"`
}

// MonetaryAccount is a bank account owned by the operator.
type MonetaryAccount struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

const accountStatusActive = "ACTIVE"

// Active reports whether the account can be transacted on.
func (m MonetaryAccount) Active() bool {
	return m.Status == accountStatusActive
}
