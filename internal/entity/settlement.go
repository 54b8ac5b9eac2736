package entity

import "encoding/json"

// Stage is the settlement state machine position. Transitions are strictly
// sequential; the first failure anywhere moves directly to StageFailed.
type Stage string

const (
	StageFetched           Stage = "FETCHED"
	StageValidated         Stage = "VALIDATED"
	StageSplitComputed     Stage = "SPLIT_COMPUTED"
	StageRateSampled       Stage = "RATE_SAMPLED"
	StageConverted         Stage = "CONVERTED"
	StageDeliveryConfirmed Stage = "DELIVERY_CONFIRMED"
	StagePaidOut           Stage = "PAID_OUT"
	StageReported          Stage = "REPORTED"
	StageFailed            Stage = "FAILED"
)

// LedgerTxRecord is the audit record of one signed, submitted ledger
// transaction.
type LedgerTxRecord struct {
	Hash string `json:"hash"`
	// RequestedDrops is the destination-currency amount the transaction
	// asked for; the ledger may deliver less due to slippage.
	RequestedDrops int64 `json:"requestedDrops"`
	// DeliveredDrops is the amount the ledger confirmed as settled.
	// Zero until delivery confirmation.
	DeliveredDrops int64           `json:"deliveredDrops,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
}

// BankTransferRecord is the audit record of a bank-side transfer (refund job).
type BankTransferRecord struct {
	PaymentID         int64             `json:"paymentId"`
	Description       string            `json:"description"`
	Amount            Amount            `json:"amount"`
	CounterpartyAlias CounterpartyAlias `json:"counterpartyAlias"`
}

// SettlementRecord is the full audit trail of one run. It is owned by the
// orchestrator, mutated additively as stages complete, and handed to the
// outcome reporter exactly once at a terminal stage.
type SettlementRecord struct {
	Mode         string              `json:"mode"`
	PaymentID    int64               `json:"paymentId,omitempty"`
	Order        *PendingOrder       `json:"order,omitempty"`
	Amounts      *ReconciledAmounts  `json:"amounts,omitempty"`
	Rates        []int64             `json:"ledgerRates,omitempty"`
	Conversion   *LedgerTxRecord     `json:"conversionTx,omitempty"`
	Payout       *LedgerTxRecord     `json:"payoutTx,omitempty"`
	BankTransfer *BankTransferRecord `json:"bankTransfer,omitempty"`
	Stage        Stage               `json:"stage"`
	Error        bool                `json:"error"`
	ErrorMessage string              `json:"errorMessage"`
}

// NewSettlementRecord starts an empty record for the given run mode.
func NewSettlementRecord(mode string) *SettlementRecord {
	return &SettlementRecord{Mode: mode}
}

// AttachOrder records the fetched order and enters the initial stage.
func (r *SettlementRecord) AttachOrder(order *PendingOrder) {
	r.Order = order
	r.PaymentID = order.ID
	r.Stage = StageFetched
}

// Advance moves the record to the next stage.
func (r *SettlementRecord) Advance(stage Stage) {
	r.Stage = stage
}

// Fail marks the record terminally failed, keeping the stage that was
// reached for the audit trail message.
func (r *SettlementRecord) Fail(err error) {
	r.Stage = StageFailed
	r.Error = true
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Reportable reports whether the record refers to an actual order. The
// "no pending orders" no-op path is never reported.
func (r *SettlementRecord) Reportable() bool {
	return r.PaymentID != 0
}
