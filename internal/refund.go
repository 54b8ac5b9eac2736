package internal

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/paybridge/settler/config"
	"github.com/paybridge/settler/internal/clients"
	"github.com/paybridge/settler/internal/entity"
	"github.com/paybridge/settler/internal/services/calculator"
	"github.com/paybridge/settler/internal/services/validator"
)

type refundBank interface {
	bankAPI
	PostPayment(ctx context.Context, userID, accountID int64, description string,
		amount entity.Amount, alias entity.CounterpartyAlias) (int64, error)
}

// Refunder reconciles one pending refund order and returns the payout
// amount to the counterparty over the bank, keeping the fee. No ledger
// involvement; the same reconciliation gate and split apply.
type Refunder struct {
	cfg      config.Config
	logger   *zap.Logger
	bank     refundBank
	orders   orderSource
	reporter outcomeReporter
}

func NewRefunder(cfg config.Config, logger *zap.Logger, bank refundBank, orders orderSource, rep outcomeReporter) *Refunder {
	return &Refunder{
		cfg:      cfg,
		logger:   logger,
		bank:     bank,
		orders:   orders,
		reporter: rep,
	}
}

// Run refunds at most one pending order. An empty queue is a benign no-op.
func (r *Refunder) Run(ctx context.Context) (*entity.SettlementRecord, error) {
	record := entity.NewSettlementRecord(string(r.cfg.Mode))

	order, err := r.orders.NextOrder(ctx, clients.OrderRefund)
	if errors.Is(err, clients.ErrNoOrders) {
		r.logger.Info("no pending refund orders")
		return record, nil
	}
	if err != nil {
		return record, err
	}
	record.AttachOrder(order)
	r.logger.Info("pending refund order fetched", zap.Int64("payment_id", order.ID))

	account, err := r.bank.ActiveAccount(ctx, r.cfg.Bank.UserID)
	if err != nil {
		return r.fail(ctx, record, err)
	}

	live, err := r.bank.GetPayment(ctx, r.cfg.Bank.UserID, account.ID, order.ID)
	if err != nil {
		return r.fail(ctx, record, err)
	}

	amount, err := validator.Validate(r.cfg.SettlementCurrency, order, &live)
	if err != nil {
		return r.fail(ctx, record, err)
	}
	record.Advance(entity.StageValidated)

	amounts, err := calculator.Split(amount)
	if err != nil {
		return r.fail(ctx, record, err)
	}
	record.Amounts = &amounts
	record.Advance(entity.StageSplitComputed)

	transfer := entity.BankTransferRecord{
		Description: fmt.Sprintf("REFUND %s payment %d", r.cfg.ServiceTag, order.ID),
		Amount: entity.Amount{
			Value:    amounts.Payout.StringFixed(2),
			Currency: r.cfg.SettlementCurrency,
		},
		CounterpartyAlias: order.CounterpartyAlias,
	}

	paymentID, err := r.bank.PostPayment(ctx, r.cfg.Bank.UserID, account.ID,
		transfer.Description, transfer.Amount, transfer.CounterpartyAlias)
	if err != nil {
		return r.fail(ctx, record, err)
	}
	transfer.PaymentID = paymentID
	record.BankTransfer = &transfer
	record.Advance(entity.StagePaidOut)
	r.logger.Info("refund transferred",
		zap.Int64("payment_id", order.ID),
		zap.Int64("bank_payment_id", paymentID),
		zap.String("amount", transfer.Amount.Value))

	record.Advance(entity.StageReported)
	r.reporter.Publish(ctx, record)
	return record, nil
}

func (r *Refunder) fail(ctx context.Context, record *entity.SettlementRecord, cause error) (*entity.SettlementRecord, error) {
	record.Fail(cause)
	r.logger.Error("refund failed", zap.Int64("payment_id", record.PaymentID), zap.Error(cause))
	r.reporter.Publish(ctx, record)
	return record, cause
}
