package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/paybridge/settler/internal/entity"
	"github.com/pkg/errors"
)

// BankClient talks to the custodial bank's REST API. The API wraps every
// response body in a "Response" array of single-key objects.
type BankClient struct {
	httpc   *http.Client
	baseURL string
	apiKey  string
}

func NewBankClient(baseURL, apiKey string) *BankClient {
	return &BankClient{
		httpc:   http.DefaultClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type bankResponse struct {
	Response []json.RawMessage `json:"Response"`
	Error    []struct {
		Description string `json:"error_description"`
	} `json:"Error"`
}

// StartSession registers the device session the remaining calls run under.
// Failures here are setup failures: nothing has been fetched or moved yet.
func (c *BankClient) StartSession(ctx context.Context) error {
	body := map[string]string{"secret": c.apiKey}
	if err := c.do(ctx, http.MethodPost, "/session-server", body, nil); err != nil {
		return errors.Wrap(err, "bank session setup failed")
	}
	return nil
}

// ListAccounts returns the user's monetary accounts.
func (c *BankClient) ListAccounts(ctx context.Context, userID int64) ([]entity.MonetaryAccount, error) {
	var raw bankResponse
	path := fmt.Sprintf("/user/%d/monetary-account", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, errors.Wrap(err, "list monetary accounts")
	}

	accounts := make([]entity.MonetaryAccount, 0, len(raw.Response))
	for _, item := range raw.Response {
		var envelope struct {
			MonetaryAccountBank *entity.MonetaryAccount `json:"MonetaryAccountBank"`
		}
		if err := json.Unmarshal(item, &envelope); err != nil {
			return nil, errors.Wrap(err, "malformed monetary account")
		}
		if envelope.MonetaryAccountBank != nil {
			accounts = append(accounts, *envelope.MonetaryAccountBank)
		}
	}
	return accounts, nil
}

// ActiveAccount returns the first account with ACTIVE status.
func (c *BankClient) ActiveAccount(ctx context.Context, userID int64) (entity.MonetaryAccount, error) {
	accounts, err := c.ListAccounts(ctx, userID)
	if err != nil {
		return entity.MonetaryAccount{}, err
	}
	for _, account := range accounts {
		if account.Active() {
			return account, nil
		}
	}
	return entity.MonetaryAccount{}, errors.New("no active monetary account")
}

// GetPayment fetches the authoritative record of one received payment.
func (c *BankClient) GetPayment(ctx context.Context, userID, accountID, paymentID int64) (entity.LivePayment, error) {
	var raw bankResponse
	path := fmt.Sprintf("/user/%d/monetary-account/%d/payment/%d", userID, accountID, paymentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return entity.LivePayment{}, errors.Wrapf(err, "get payment %d", paymentID)
	}

	payment, err := paymentFromResponse(raw.Response)
	if err != nil {
		return entity.LivePayment{}, err
	}
	return *payment, nil
}

// ListPayments returns payments newer than newerID, oldest first capped at count.
func (c *BankClient) ListPayments(ctx context.Context, userID, accountID, newerID int64, count int) ([]entity.LivePayment, error) {
	var raw bankResponse
	path := fmt.Sprintf("/user/%d/monetary-account/%d/payment?count=%d&newer_id=%d", userID, accountID, count, newerID)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, errors.Wrap(err, "list payments")
	}

	payments := make([]entity.LivePayment, 0, len(raw.Response))
	for _, item := range raw.Response {
		var envelope struct {
			Payment *entity.LivePayment `json:"Payment"`
		}
		if err := json.Unmarshal(item, &envelope); err != nil {
			return nil, errors.Wrap(err, "malformed payment record")
		}
		if envelope.Payment != nil {
			payments = append(payments, *envelope.Payment)
		}
	}
	return payments, nil
}

// postAlias is the counterparty shape the bank expects on outgoing transfers.
type postAlias struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Name  string `json:"name"`
}

// PostPayment sends a bank transfer and returns the created payment id.
func (c *BankClient) PostPayment(ctx context.Context, userID, accountID int64, description string, amount entity.Amount, alias entity.CounterpartyAlias) (int64, error) {
	body := map[string]any{
		"description": description,
		"amount":      amount,
		"counterparty_alias": postAlias{
			Type:  "IBAN",
			Value: alias.IBAN,
			Name:  alias.DisplayName,
		},
	}

	var raw bankResponse
	path := fmt.Sprintf("/user/%d/monetary-account/%d/payment", userID, accountID)
	if err := c.do(ctx, http.MethodPost, path, body, &raw); err != nil {
		return 0, errors.Wrap(err, "post payment")
	}

	for _, item := range raw.Response {
		var envelope struct {
			ID *struct {
				ID int64 `json:"id"`
			} `json:"Id"`
		}
		if err := json.Unmarshal(item, &envelope); err != nil {
			return 0, errors.Wrap(err, "malformed post payment response")
		}
		if envelope.ID != nil {
			return envelope.ID.ID, nil
		}
	}
	return 0, errors.New("post payment response carries no id")
}

func paymentFromResponse(items []json.RawMessage) (*entity.LivePayment, error) {
	for _, item := range items {
		var envelope struct {
			Payment *entity.LivePayment `json:"Payment"`
		}
		if err := json.Unmarshal(item, &envelope); err != nil {
			return nil, errors.Wrap(err, "malformed payment record")
		}
		if envelope.Payment != nil {
			return envelope.Payment, nil
		}
	}
	return nil, errors.New("invalid live payment details")
}

func (c *BankClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-Token", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var raw bankResponse
		if json.Unmarshal(data, &raw) == nil && len(raw.Error) > 0 {
			return fmt.Errorf("bank api %s %s: %s", method, path, raw.Error[0].Description)
		}
		return fmt.Errorf("bank api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
