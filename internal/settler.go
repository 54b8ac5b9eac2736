package internal

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/paybridge/settler/config"
	"github.com/paybridge/settler/internal/clients"
	"github.com/paybridge/settler/internal/entity"
	"github.com/paybridge/settler/internal/services/calculator"
	"github.com/paybridge/settler/internal/services/ledgertx"
	"github.com/paybridge/settler/internal/services/rates"
	"github.com/paybridge/settler/internal/services/validator"
	"github.com/paybridge/settler/internal/storage/checkpoints"
)

// LedgerConn is the settlement flow's view of the ledger connection.
type LedgerConn interface {
	Call(ctx context.Context, command string, params map[string]any) (json.RawMessage, error)
	Close() error
}

// LedgerDialer opens the per-run ledger connection. It is called after
// validation succeeds and the split is computed; the settler closes the
// connection on every path after that.
type LedgerDialer func(ctx context.Context) (LedgerConn, error)

type bankAPI interface {
	ActiveAccount(ctx context.Context, userID int64) (entity.MonetaryAccount, error)
	GetPayment(ctx context.Context, userID, accountID, paymentID int64) (entity.LivePayment, error)
}

type orderSource interface {
	NextOrder(ctx context.Context, kind clients.OrderKind) (*entity.PendingOrder, error)
}

type outcomeReporter interface {
	Publish(ctx context.Context, record *entity.SettlementRecord)
}

// Settler drives one payout settlement end to end: fetch, reconcile, split,
// sample, convert, confirm delivery, pay out, report. Stages are strictly
// sequential; the first failure short-circuits to the failure path, which
// still reports the record.
type Settler struct {
	cfg      config.Config
	logger   *zap.Logger
	bank     bankAPI
	orders   orderSource
	reporter outcomeReporter
	signer   *ledgertx.Signer
	journal  *checkpoints.Journal
	dial     LedgerDialer
}

func NewSettler(cfg config.Config, logger *zap.Logger, bank bankAPI, orders orderSource,
	rep outcomeReporter, signer *ledgertx.Signer, journal *checkpoints.Journal, dial LedgerDialer) *Settler {
	return &Settler{
		cfg:      cfg,
		logger:   logger,
		bank:     bank,
		orders:   orders,
		reporter: rep,
		signer:   signer,
		journal:  journal,
		dial:     dial,
	}
}

// Run settles at most one pending payout order. An empty queue is a benign
// no-op: nothing is reported and the returned record carries no order.
func (s *Settler) Run(ctx context.Context) (*entity.SettlementRecord, error) {
	record := entity.NewSettlementRecord(string(s.cfg.Mode))

	order, err := s.orders.NextOrder(ctx, clients.OrderPayout)
	if errors.Is(err, clients.ErrNoOrders) {
		s.logger.Info("no pending payout orders")
		return record, nil
	}
	if err != nil {
		return record, err
	}
	record.AttachOrder(order)
	s.logger.Info("pending payout order fetched",
		zap.Int64("payment_id", order.ID),
		zap.String("claimed_amount", order.Amount.Value),
		zap.String("claimed_currency", order.Amount.Currency))

	dest, err := order.Details()
	if err != nil {
		return s.fail(ctx, record, err)
	}

	amount, err := s.reconcile(ctx, record, order)
	if err != nil {
		return s.fail(ctx, record, err)
	}

	amounts, err := calculator.Split(amount)
	if err != nil {
		return s.fail(ctx, record, err)
	}
	record.Amounts = &amounts
	record.Advance(entity.StageSplitComputed)
	s.logger.Info("fee/payout split computed",
		zap.String("input", amounts.Input.StringFixed(2)),
		zap.String("fee", amounts.Fee.StringFixed(2)),
		zap.String("payout", amounts.Payout.StringFixed(2)))

	conn, err := s.dial(ctx)
	if err != nil {
		return s.fail(ctx, record, err)
	}
	defer conn.Close()

	if err := s.settle(ctx, conn, record, dest, amounts); err != nil {
		return s.fail(ctx, record, err)
	}

	record.Advance(entity.StageReported)
	s.reporter.Publish(ctx, record)
	return record, nil
}

// reconcile cross-checks the claimed order against the bank's live record.
func (s *Settler) reconcile(ctx context.Context, record *entity.SettlementRecord, order *entity.PendingOrder) (decimal.Decimal, error) {
	account, err := s.bank.ActiveAccount(ctx, s.cfg.Bank.UserID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	live, err := s.bank.GetPayment(ctx, s.cfg.Bank.UserID, account.ID, order.ID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	value, err := validator.Validate(s.cfg.SettlementCurrency, order, &live)
	if err != nil {
		return decimal.Decimal{}, err
	}
	record.Advance(entity.StageValidated)
	s.logger.Info("order reconciled against bank record", zap.Int64("payment_id", order.ID))
	return value, nil
}

// settle runs the ledger stages over the open connection.
func (s *Settler) settle(ctx context.Context, conn LedgerConn, record *entity.SettlementRecord,
	dest *entity.Destination, amounts entity.ReconciledAmounts) error {
	sampled, err := rates.NewSampler(conn).Sample(ctx, s.cfg.Ledger.Pair, s.cfg.Ledger.OfferLimit)
	if err != nil {
		return err
	}
	record.Rates = sampled
	record.Advance(entity.StageRateSampled)
	s.logger.Info("order book sampled",
		zap.Int("offers", len(sampled)),
		zap.Int64("best_rate", sampled[0]))

	if err := s.journal.Guard(record.PaymentID); err != nil {
		return err
	}

	builder := ledgertx.NewBuilder(conn, s.signer, s.cfg.Ledger.HotWallet)
	memos := ledgertx.AuditMemos(s.cfg.ServiceTag, dest.Description, amounts)

	conversion, err := s.submitLeg(ctx, record.PaymentID, checkpoints.LegConversion, func() (*entity.LedgerTxRecord, error) {
		return builder.SubmitConversion(ctx, s.cfg.Ledger.Pair, amounts.Payout, sampled[0], memos)
	})
	if err != nil {
		return err
	}
	record.Conversion = conversion
	record.Advance(entity.StageConverted)
	s.logger.Info("conversion leg submitted", zap.String("hash", conversion.Hash))

	delivered, err := builder.ConfirmDelivery(ctx, conversion.Hash)
	if err != nil {
		return err
	}
	record.Conversion.DeliveredDrops = delivered
	record.Advance(entity.StageDeliveryConfirmed)
	s.logger.Info("conversion delivery confirmed",
		zap.Int64("requested_drops", conversion.RequestedDrops),
		zap.Int64("delivered_drops", delivered))

	payout, err := s.submitLeg(ctx, record.PaymentID, checkpoints.LegPayout, func() (*entity.LedgerTxRecord, error) {
		return builder.SubmitPayout(ctx, dest, delivered, memos)
	})
	if err != nil {
		return err
	}
	record.Payout = payout
	record.Advance(entity.StagePaidOut)
	s.logger.Info("payout leg submitted",
		zap.String("hash", payout.Hash),
		zap.String("destination", dest.Address))
	return nil
}

// submitLeg journals a pending intent, runs the submission, and resolves
// the intent. A definite ledger rejection resolves as failed; an ambiguous
// transport error leaves the intent pending so the next run for this order
// refuses to submit until the ledger state is reconciled by hand.
func (s *Settler) submitLeg(ctx context.Context, orderID int64, leg checkpoints.Leg,
	submit func() (*entity.LedgerTxRecord, error)) (*entity.LedgerTxRecord, error) {
	intent, err := s.journal.Begin(orderID, leg)
	if err != nil {
		return nil, err
	}

	tx, err := submit()
	if err != nil {
		if errors.Is(err, ledgertx.ErrRejected) {
			if jerr := s.journal.Failed(intent, err); jerr != nil {
				s.logger.Error("failed to journal rejected intent", zap.Error(jerr))
			}
		}
		return nil, err
	}

	if err := s.journal.Done(intent, tx.Hash); err != nil {
		return nil, errors.Wrap(err, "journal submitted intent")
	}
	return tx, nil
}

// fail records the terminal failure and still reports it. Partial progress,
// such as a completed conversion leg with no payout leg, must never be
// silently lost.
func (s *Settler) fail(ctx context.Context, record *entity.SettlementRecord, cause error) (*entity.SettlementRecord, error) {
	record.Fail(cause)
	s.logger.Error("settlement failed",
		zap.Int64("payment_id", record.PaymentID),
		zap.Error(cause))
	s.reporter.Publish(ctx, record)
	return record, cause
}
