package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/paybridge/settler/internal/entity"
	"gopkg.in/yaml.v3"
)

// Mode selects the backend environment the run settles against.
type Mode string

const (
	ModeTest       Mode = "TEST"
	ModeProduction Mode = "PROD"
)

// Job selects what the process does in this invocation.
type Job string

const (
	// JobPayout reconciles one pending payout order and settles it on the
	// destination ledger.
	JobPayout Job = "payout"
	// JobRefund reconciles one pending refund order and transfers the
	// payout amount back to the counterparty via the bank.
	JobRefund Job = "refund"
	// JobSync pushes bank payments newer than the backend cursor to the
	// backend.
	JobSync Job = "sync"
)

// Bank holds the custodial bank API credentials.
type Bank struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"api_key"`
	UserID int64  `yaml:"user_id"`
}

// Endpoint is one mode-scoped merchant backend endpoint.
type Endpoint struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Backend holds the per-mode merchant backend endpoints.
type Backend struct {
	Test       Endpoint `yaml:"test"`
	Production Endpoint `yaml:"production"`
}

// Ledger holds the destination ledger network settings.
type Ledger struct {
	URL        string      `yaml:"url"`
	HotWallet  string      `yaml:"hot_wallet"`
	Seed       string      `yaml:"seed"`
	Pair       entity.Pair `yaml:"pair"`
	OfferLimit int         `yaml:"offer_limit"`
}

// Config is the fully validated runtime configuration.
type Config struct {
	Mode               Mode
	Job                Job
	AutoConfirm        bool
	SettlementCurrency string
	ServiceTag         string
	WalDir             string
	Bank               Bank
	Backend            Backend
	Ledger             Ledger
}

type configTmp struct {
	SettlementCurrency string  `yaml:"settlement_currency"`
	ServiceTag         string  `yaml:"service_tag"`
	WalDir             string  `yaml:"wal_dir"`
	Bank               Bank    `yaml:"bank"`
	Backend            Backend `yaml:"backend"`
	Ledger             Ledger  `yaml:"ledger"`
}

const (
	defaultCurrency   = "EUR"
	defaultServiceTag = "PayBridge"
	defaultWalDir     = "./wal/settlements"
	defaultOfferLimit = 10
)

// Get parses flags and the yaml config file.
func Get() (Config, error) {
	path := flag.String("config", "config.yaml", "path to yaml config")
	mode := flag.String("mode", "test", "environment: test or prod")
	job := flag.String("job", string(JobPayout), "job to run: payout, refund or sync")
	yes := flag.Bool("yes", false, "skip the production confirmation prompt")
	flag.Parse()

	cfg, err := fromYaml(*path)
	if err != nil {
		return Config{}, err
	}

	cfg.Mode = ModeTest
	if strings.EqualFold(*mode, "prod") {
		cfg.Mode = ModeProduction
	}

	switch Job(*job) {
	case JobPayout, JobRefund, JobSync:
		cfg.Job = Job(*job)
	default:
		return Config{}, fmt.Errorf("invalid --job provided, --job=%s", *job)
	}

	cfg.AutoConfirm = *yes

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, fmt.Errorf("malformed yaml config %s: %w", path, err)
	}

	cfg := Config{
		SettlementCurrency: tmp.SettlementCurrency,
		ServiceTag:         tmp.ServiceTag,
		WalDir:             tmp.WalDir,
		Bank:               tmp.Bank,
		Backend:            tmp.Backend,
		Ledger:             tmp.Ledger,
	}
	if cfg.SettlementCurrency == "" {
		cfg.SettlementCurrency = defaultCurrency
	}
	if cfg.ServiceTag == "" {
		cfg.ServiceTag = defaultServiceTag
	}
	if cfg.WalDir == "" {
		cfg.WalDir = defaultWalDir
	}
	if cfg.Ledger.OfferLimit == 0 {
		cfg.Ledger.OfferLimit = defaultOfferLimit
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Bank.APIURL == "" || c.Bank.APIKey == "" {
		return fmt.Errorf("missing 'bank' credentials in config")
	}
	if ep := c.Endpoint(); ep.URL == "" || ep.Token == "" {
		return fmt.Errorf("missing backend endpoint for mode %s in config", c.Mode)
	}
	if c.Job != JobPayout {
		return nil
	}
	if c.Ledger.URL == "" || c.Ledger.HotWallet == "" || c.Ledger.Seed == "" {
		return fmt.Errorf("missing 'ledger' settings in config")
	}
	if c.Ledger.Pair.From.Currency == "" || c.Ledger.Pair.From.Issuer == "" {
		return fmt.Errorf("incorrect 'ledger.pair.from' in config: issued settlement currency required")
	}
	if c.Ledger.Pair.To.Currency == "" {
		return fmt.Errorf("incorrect 'ledger.pair.to' in config")
	}
	return nil
}

// Endpoint returns the backend endpoint for the configured mode.
func (c *Config) Endpoint() Endpoint {
	if c.Mode == ModeProduction {
		return c.Backend.Production
	}
	return c.Backend.Test
}
