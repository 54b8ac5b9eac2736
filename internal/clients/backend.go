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

// ErrNoOrders means the backend has nothing pending. Benign: the run is a
// no-op and nothing is reported.
var ErrNoOrders = errors.New("no orders to process")

// OrderKind selects which backend order queue is pulled.
type OrderKind string

const (
	OrderPayout OrderKind = "process-payout"
	OrderRefund OrderKind = "process-refund"
)

// BackendClient talks to the merchant backend over its bearer-token HTTP API.
type BackendClient struct {
	httpc   *http.Client
	baseURL string
	token   string
}

func NewBackendClient(baseURL, token string) *BackendClient {
	return &BackendClient{
		httpc:   http.DefaultClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
	}
}

// NextOrder pulls the next pending order of the given kind. Only the first
// element of the response is consumed; the backend re-surfaces the rest on
// subsequent invocations.
func (c *BackendClient) NextOrder(ctx context.Context, kind OrderKind) (*entity.PendingOrder, error) {
	var out struct {
		Data []entity.PendingOrder `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/payments/"+string(kind), nil, &out); err != nil {
		return nil, errors.Wrap(err, "fetch pending orders")
	}
	if len(out.Data) == 0 {
		return nil, ErrNoOrders
	}

	order := out.Data[0]
	if kind == OrderPayout {
		if _, err := order.Details(); err != nil {
			return nil, err
		}
	}
	return &order, nil
}

// Report posts the settlement record as the audit payload for its order.
func (c *BackendClient) Report(ctx context.Context, record *entity.SettlementRecord) error {
	path := fmt.Sprintf("/payment/%d", record.PaymentID)
	if err := c.do(ctx, http.MethodPost, path, record, nil); err != nil {
		return errors.Wrap(err, "report settlement outcome")
	}
	return nil
}

// PaymentCursor returns the id of the newest bank payment the backend knows.
func (c *BackendClient) PaymentCursor(ctx context.Context) (int64, error) {
	var out struct {
		Data int64 `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/payment-cursor", nil, &out); err != nil {
		return 0, errors.Wrap(err, "fetch payment cursor")
	}
	return out.Data, nil
}

// PushPayments uploads freshly listed bank payments to the backend.
func (c *BackendClient) PushPayments(ctx context.Context, payments []entity.LivePayment) error {
	if err := c.do(ctx, http.MethodPost, "/payments", payments, nil); err != nil {
		return errors.Wrap(err, "push payments")
	}
	return nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, body, out any) error {
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
	req.Header.Set("Authorization", "Bearer "+c.token)

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
		return fmt.Errorf("backend %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
