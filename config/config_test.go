package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullYaml = `
settlement_currency: EUR
service_tag: PayBridge
wal_dir: /var/lib/settler/wal
bank:
  api_url: https://bank.example
  api_key: secret
  user_id: 1
backend:
  test:
    url: https://backend-test.example
    token: test-token
  production:
    url: https://backend.example
    token: prod-token
ledger:
  url: wss://ledger.example
  hot_wallet: rHOTWALLET
  seed: family seed phrase
  offer_limit: 25
  pair:
    from:
      currency: EUR
      issuer: rISSUER
    to:
      currency: XRP
`

func writeYaml(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFromYaml(t *testing.T) {
	cfg, err := fromYaml(writeYaml(t, fullYaml))
	require.NoError(t, err)

	assert.Equal(t, "EUR", cfg.SettlementCurrency)
	assert.Equal(t, "/var/lib/settler/wal", cfg.WalDir)
	assert.Equal(t, int64(1), cfg.Bank.UserID)
	assert.Equal(t, "rHOTWALLET", cfg.Ledger.HotWallet)
	assert.Equal(t, 25, cfg.Ledger.OfferLimit)
	assert.Equal(t, "rISSUER", cfg.Ledger.Pair.From.Issuer)
	assert.Equal(t, "XRP", cfg.Ledger.Pair.To.Currency)
}

func TestFromYamlDefaults(t *testing.T) {
	cfg, err := fromYaml(writeYaml(t, `
bank:
  api_url: https://bank.example
  api_key: secret
`))
	require.NoError(t, err)

	assert.Equal(t, "EUR", cfg.SettlementCurrency)
	assert.Equal(t, "PayBridge", cfg.ServiceTag)
	assert.Equal(t, "./wal/settlements", cfg.WalDir)
	assert.Equal(t, 10, cfg.Ledger.OfferLimit)
}

func TestValidatePayoutRequiresLedger(t *testing.T) {
	cfg, err := fromYaml(writeYaml(t, fullYaml))
	require.NoError(t, err)
	cfg.Mode = ModeTest

	cfg.Job = JobPayout
	assert.NoError(t, cfg.validate())

	cfg.Ledger.Seed = ""
	err = cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger")

	// sync and refund never touch the ledger
	cfg.Job = JobSync
	assert.NoError(t, cfg.validate())
	cfg.Job = JobRefund
	assert.NoError(t, cfg.validate())
}

func TestValidatePairNeedsIssuer(t *testing.T) {
	cfg, err := fromYaml(writeYaml(t, fullYaml))
	require.NoError(t, err)
	cfg.Mode = ModeTest
	cfg.Job = JobPayout

	cfg.Ledger.Pair.From.Issuer = ""
	err = cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.pair.from")
}

func TestValidateMissingBankCredentials(t *testing.T) {
	cfg, err := fromYaml(writeYaml(t, fullYaml))
	require.NoError(t, err)
	cfg.Mode = ModeTest
	cfg.Job = JobSync

	cfg.Bank.APIKey = ""
	err = cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bank")
}

func TestEndpointPerMode(t *testing.T) {
	cfg, err := fromYaml(writeYaml(t, fullYaml))
	require.NoError(t, err)

	cfg.Mode = ModeTest
	assert.Equal(t, "https://backend-test.example", cfg.Endpoint().URL)
	assert.Equal(t, "test-token", cfg.Endpoint().Token)

	cfg.Mode = ModeProduction
	assert.Equal(t, "https://backend.example", cfg.Endpoint().URL)
	assert.Equal(t, "prod-token", cfg.Endpoint().Token)
}
