package entity

import "fmt"

// Asset identifies a currency on the destination ledger. Issued currencies
// carry the issuing account; the ledger's native currency has no issuer.
type Asset struct {
	Currency string `json:"currency" yaml:"currency"`
	Issuer   string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
}

// Native reports whether the asset is the ledger's native currency.
func (a Asset) Native() bool {
	return a.Issuer == ""
}

// Pair is the trading pair used for the conversion leg: From is what the
// operator spends (the issued settlement currency), To is what the order
// book delivers.
type Pair struct {
	From Asset `yaml:"from"`
	To   Asset `yaml:"to"`
}

func (p *Pair) String() string {
	return fmt.Sprintf("%s_%s", p.From.Currency, p.To.Currency)
}
