package internal

import (
	"context"

	"go.uber.org/zap"

	"github.com/paybridge/settler/config"
	"github.com/paybridge/settler/internal/entity"
)

const syncBatchSize = 200

type syncBank interface {
	ActiveAccount(ctx context.Context, userID int64) (entity.MonetaryAccount, error)
	ListPayments(ctx context.Context, userID, accountID, newerID int64, count int) ([]entity.LivePayment, error)
}

type syncBackend interface {
	PaymentCursor(ctx context.Context) (int64, error)
	PushPayments(ctx context.Context, payments []entity.LivePayment) error
}

// Syncer uploads bank payments newer than the backend's cursor, so the
// backend can surface them as orders later. No reconciliation, no ledger.
type Syncer struct {
	cfg     config.Config
	logger  *zap.Logger
	bank    syncBank
	backend syncBackend
}

func NewSyncer(cfg config.Config, logger *zap.Logger, bank syncBank, backend syncBackend) *Syncer {
	return &Syncer{cfg: cfg, logger: logger, bank: bank, backend: backend}
}

// Run pushes one batch of new payments.
func (s *Syncer) Run(ctx context.Context) error {
	cursor, err := s.backend.PaymentCursor(ctx)
	if err != nil {
		return err
	}

	account, err := s.bank.ActiveAccount(ctx, s.cfg.Bank.UserID)
	if err != nil {
		return err
	}

	payments, err := s.bank.ListPayments(ctx, s.cfg.Bank.UserID, account.ID, cursor, syncBatchSize)
	if err != nil {
		return err
	}
	if len(payments) == 0 {
		s.logger.Info("no new bank payments", zap.Int64("cursor", cursor))
		return nil
	}

	if err := s.backend.PushPayments(ctx, payments); err != nil {
		return err
	}
	s.logger.Info("bank payments pushed",
		zap.Int64("cursor", cursor),
		zap.Int("count", len(payments)))
	return nil
}
