package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/paybridge/settler/config"
	"github.com/paybridge/settler/internal"
	"github.com/paybridge/settler/internal/clients"
	"github.com/paybridge/settler/internal/entity"
	"github.com/paybridge/settler/internal/services/ledgertx"
	"github.com/paybridge/settler/internal/services/reporter"
	"github.com/paybridge/settler/internal/storage/checkpoints"
)

var (
	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true).
				MarginTop(1)

	summaryOkStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"})
	summaryFailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	if cfg.Mode == config.ModeProduction && !cfg.AutoConfirm {
		if !confirmProduction(cfg.Job) {
			logger.Info("production run not confirmed, exiting")
			return
		}
	}

	ctx := context.Background()

	bank := clients.NewBankClient(cfg.Bank.APIURL, cfg.Bank.APIKey)
	if err := bank.StartSession(ctx); err != nil {
		logger.Error("bank session setup failed", zap.Error(err))
		os.Exit(1)
	}

	endpoint := cfg.Endpoint()
	backend := clients.NewBackendClient(endpoint.URL, endpoint.Token)
	rep := reporter.New(backend, logger)

	switch cfg.Job {
	case config.JobPayout:
		runPayout(ctx, cfg, logger, bank, backend, rep)
	case config.JobRefund:
		record, err := internal.NewRefunder(cfg, logger, bank, backend, rep).Run(ctx)
		printSummary(record)
		if err != nil {
			os.Exit(1)
		}
	case config.JobSync:
		if err := internal.NewSyncer(cfg, logger, bank, backend).Run(ctx); err != nil {
			logger.Error("payment sync failed", zap.Error(err))
			os.Exit(1)
		}
	}
}

func runPayout(ctx context.Context, cfg config.Config, logger *zap.Logger,
	bank *clients.BankClient, backend *clients.BackendClient, rep *reporter.Reporter) {
	signer, err := ledgertx.NewSigner(cfg.Ledger.Seed)
	if err != nil {
		logger.Error("signer setup failed", zap.Error(err))
		os.Exit(1)
	}

	journal, err := checkpoints.NewJournal(cfg.WalDir)
	if err != nil {
		logger.Error("checkpoint journal setup failed", zap.Error(err))
		os.Exit(1)
	}
	defer journal.Close()

	dial := func(ctx context.Context) (internal.LedgerConn, error) {
		conn, err := clients.DialLedger(ctx, cfg.Ledger.URL)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	settler := internal.NewSettler(cfg, logger, bank, backend, rep, signer, journal, dial)
	record, err := settler.Run(ctx)
	printSummary(record)
	if err != nil {
		os.Exit(1)
	}
}

func confirmProduction(job config.Job) bool {
	confirm := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Run %s against PRODUCTION?", job)).
				Description("Real money will move. Use --yes to skip this prompt.").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return false
	}
	return confirm
}

func printSummary(record *entity.SettlementRecord) {
	if record == nil {
		return
	}
	if !record.Reportable() {
		fmt.Println(summaryOkStyle.Render("nothing to process"))
		return
	}

	fmt.Println(summaryHeaderStyle.Render(fmt.Sprintf("SETTLEMENT %d [%s]", record.PaymentID, record.Mode)))
	if record.Amounts != nil {
		fmt.Printf("input %s  fee %s  payout %s\n",
			record.Amounts.Input.StringFixed(2),
			record.Amounts.Fee.StringFixed(2),
			record.Amounts.Payout.StringFixed(2))
	}
	if record.Conversion != nil {
		fmt.Printf("conversion %s delivered %d drops\n", record.Conversion.Hash, record.Conversion.DeliveredDrops)
	}
	if record.Payout != nil {
		fmt.Printf("payout %s (%d drops)\n", record.Payout.Hash, record.Payout.RequestedDrops)
	}
	if record.BankTransfer != nil {
		fmt.Printf("bank transfer %d: %s %s\n", record.BankTransfer.PaymentID,
			record.BankTransfer.Amount.Value, record.BankTransfer.Amount.Currency)
	}
	if record.Error {
		fmt.Println(summaryFailStyle.Render(fmt.Sprintf("FAILED: %s", record.ErrorMessage)))
		return
	}
	fmt.Println(summaryOkStyle.Render(string(record.Stage)))
}
