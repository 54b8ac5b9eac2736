// Package ledgertx builds, signs and submits the two settlement legs on the
// destination ledger.
package ledgertx

import (
	"encoding/hex"
	"strings"

	"github.com/paybridge/settler/internal/entity"
)

// Memo is one audit memo attached to a ledger transaction. Both fields are
// uppercase hex encodings of UTF-8 text, per the ledger's memo convention.
type Memo struct {
	Type string `json:"MemoType"`
	Data string `json:"MemoData"`
}

type memoEntry struct {
	Memo Memo `json:"Memo"`
}

// EncodeMemoText encodes free text as uppercase hex of its UTF-8 bytes.
func EncodeMemoText(text string) string {
	return strings.ToUpper(hex.EncodeToString([]byte(text)))
}

// NewMemo builds a memo from plain-text type and data.
func NewMemo(memoType, text string) Memo {
	return Memo{
		Type: EncodeMemoText(memoType),
		Data: EncodeMemoText(text),
	}
}

// AuditMemos builds the five audit memos carried by both settlement legs:
// service tag, external payment reference, input amount, fee and intended
// payout. Amounts are the pre-conversion figures; the payout leg's Amount
// field alone reflects conversion slippage.
func AuditMemos(serviceTag, paymentRef string, amounts entity.ReconciledAmounts) []Memo {
	return []Memo{
		NewMemo("Service", serviceTag),
		NewMemo("PaymentId", paymentRef),
		NewMemo("BankTransferEUR", amounts.Input.StringFixed(2)),
		NewMemo("ServiceFeeEUR", amounts.Fee.StringFixed(2)),
		NewMemo("PayoutEUR", amounts.Payout.StringFixed(2)),
	}
}

func wrapMemos(memos []Memo) []memoEntry {
	entries := make([]memoEntry, 0, len(memos))
	for _, m := range memos {
		entries = append(entries, memoEntry{Memo: m})
	}
	return entries
}
