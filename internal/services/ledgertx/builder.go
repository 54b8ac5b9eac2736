package ledgertx

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/paybridge/settler/internal/entity"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrSubmission covers signing and transport failures on either leg.
	// The transaction may or may not have reached the ledger.
	ErrSubmission = errors.New("ledger submission failed")
	// ErrRejected is a definite engine rejection: the transaction was
	// received and refused, so nothing moved.
	ErrRejected = errors.New("ledger rejected transaction")
	// ErrDeliveryUnconfirmed means the conversion leg's confirmed
	// transaction carries no positive delivered amount.
	ErrDeliveryUnconfirmed = errors.New("cannot determine exchange output: no delivered amount in transaction meta")
)

const (
	paymentTxType = "Payment"
	// partialPaymentFlag lets the order book deliver less than the
	// requested amount; slippage is passed through to the payout leg.
	partialPaymentFlag = 131072
	txFeeDrops         = "20"
	successPrefix      = "tes"
)

var dropsPerUnit = decimal.NewFromInt(1_000_000)

// issuedAmount is a non-native amount on the wire.
type issuedAmount struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
	Value    string `json:"value"`
}

// paymentTx is the canonical transaction shape. Field order is fixed by the
// struct so marshaling is deterministic for signing.
type paymentTx struct {
	TransactionType string        `json:"TransactionType"`
	Flags           int64         `json:"Flags,omitempty"`
	Account         string        `json:"Account"`
	Destination     string        `json:"Destination"`
	DestinationTag  *uint32       `json:"DestinationTag,omitempty"`
	Amount          string        `json:"Amount"`
	SendMin         *issuedAmount `json:"SendMin,omitempty"`
	SendMax         *issuedAmount `json:"SendMax,omitempty"`
	Fee             string        `json:"Fee"`
	Memos           []memoEntry   `json:"Memos"`
	SigningPubKey   string        `json:"SigningPubKey,omitempty"`
	TxnSignature    string        `json:"TxnSignature,omitempty"`
}

// Caller executes one request/response command on the ledger connection.
type Caller interface {
	Call(ctx context.Context, command string, params map[string]any) (json.RawMessage, error)
}

// Builder constructs, signs and submits settlement transactions from the
// operator's hot wallet.
type Builder struct {
	conn    Caller
	signer  *Signer
	account string
}

func NewBuilder(conn Caller, signer *Signer, account string) *Builder {
	return &Builder{conn: conn, signer: signer, account: account}
}

// SubmitConversion executes the conversion leg: a self-to-self partial
// payment spending at most the payout amount of the issued settlement
// currency against the order book, targeting the drops equivalent at the
// best sampled rate.
func (b *Builder) SubmitConversion(ctx context.Context, pair entity.Pair, payout decimal.Decimal, bestRate int64, memos []Memo) (*entity.LedgerTxRecord, error) {
	if bestRate <= 0 {
		return nil, errors.Wrapf(ErrSubmission, "non-positive rate %d", bestRate)
	}

	drops := payout.Div(decimal.NewFromInt(bestRate)).Mul(dropsPerUnit).Floor().IntPart()
	if drops <= 0 {
		return nil, errors.Wrapf(ErrSubmission, "conversion of %s at rate %d yields no drops", payout, bestRate)
	}

	spend := &issuedAmount{
		Currency: pair.From.Currency,
		Issuer:   pair.From.Issuer,
		Value:    payout.StringFixed(2),
	}
	tx := paymentTx{
		TransactionType: paymentTxType,
		Flags:           partialPaymentFlag,
		Account:         b.account,
		Destination:     b.account,
		Amount:          strconv.FormatInt(drops, 10),
		SendMin:         spend,
		SendMax:         spend,
		Fee:             txFeeDrops,
		Memos:           wrapMemos(memos),
	}
	return b.signAndSubmit(ctx, &tx, drops)
}

// SubmitPayout executes the forwarding leg: a payment of exactly the
// delivered drops from the conversion leg to the order's destination.
func (b *Builder) SubmitPayout(ctx context.Context, dest *entity.Destination, deliveredDrops int64, memos []Memo) (*entity.LedgerTxRecord, error) {
	tx := paymentTx{
		TransactionType: paymentTxType,
		Account:         b.account,
		Destination:     dest.Address,
		DestinationTag:  dest.TagValue(),
		Amount:          strconv.FormatInt(deliveredDrops, 10),
		Fee:             txFeeDrops,
		Memos:           wrapMemos(memos),
	}
	return b.signAndSubmit(ctx, &tx, deliveredDrops)
}

type submitResult struct {
	EngineResult        string `json:"engine_result"`
	EngineResultMessage string `json:"engine_result_message"`
}

func (b *Builder) signAndSubmit(ctx context.Context, tx *paymentTx, requestedDrops int64) (*entity.LedgerTxRecord, error) {
	tx.SigningPubKey = b.signer.PubKeyHex()
	unsigned, err := json.Marshal(tx)
	if err != nil {
		return nil, errors.Wrap(ErrSubmission, err.Error())
	}

	signature, err := b.signer.SignBlob(unsigned)
	if err != nil {
		return nil, errors.Wrap(ErrSubmission, err.Error())
	}
	tx.TxnSignature = signature

	blob, err := json.Marshal(tx)
	if err != nil {
		return nil, errors.Wrap(ErrSubmission, err.Error())
	}

	raw, err := b.conn.Call(ctx, "submit", map[string]any{
		"tx_blob": strings.ToUpper(hex.EncodeToString(blob)),
	})
	if err != nil {
		return nil, errors.Wrap(ErrSubmission, err.Error())
	}

	var result submitResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(ErrSubmission, "malformed submit result")
	}
	if !strings.HasPrefix(result.EngineResult, successPrefix) {
		return nil, errors.Wrapf(ErrRejected, "%s: %s", result.EngineResult, result.EngineResultMessage)
	}

	return &entity.LedgerTxRecord{
		Hash:           TxHash(blob),
		RequestedDrops: requestedDrops,
		Result:         raw,
	}, nil
}

type txResult struct {
	Meta struct {
		DeliveredAmount json.RawMessage `json:"DeliveredAmount"`
	} `json:"meta"`
}

// ConfirmDelivery looks the conversion transaction up on the ledger and
// extracts the delivered amount in drops. The delivered amount, not the
// requested one, funds the payout leg.
func (b *Builder) ConfirmDelivery(ctx context.Context, hash string) (int64, error) {
	raw, err := b.conn.Call(ctx, "tx", map[string]any{"transaction": hash})
	if err != nil {
		return 0, errors.Wrapf(err, "tx lookup %s", hash)
	}

	var result txResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, errors.Wrap(err, "malformed tx result")
	}

	drops, ok := parseDrops(result.Meta.DeliveredAmount)
	if !ok || drops <= 0 {
		return 0, errors.Wrapf(ErrDeliveryUnconfirmed, "tx %s", hash)
	}
	return drops, nil
}

// parseDrops accepts the delivered amount as either a JSON string or a
// bare number of drops.
func parseDrops(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		n, err := strconv.ParseInt(asString, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}

	var asNumber int64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber, true
	}
	return 0, false
}
