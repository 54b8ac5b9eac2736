package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/settler/internal/entity"
)

func TestNextOrderConsumesFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments/process-payout", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[
			{"id":501,"amount":{"value":"50.00","currency":"EUR"},
			 "counterparty_alias":{"iban":"NL01X"},
			 "_order":{"details":{"address":"rDEST","tag":"12345","description":"ORDER-P1"}}},
			{"id":502,"amount":{"value":"12.00","currency":"EUR"}}
		]}`))
	}))
	defer srv.Close()

	order, err := NewBackendClient(srv.URL, "tok").NextOrder(context.Background(), OrderPayout)
	require.NoError(t, err)
	assert.Equal(t, int64(501), order.ID)

	dest, err := order.Details()
	require.NoError(t, err)
	assert.Equal(t, "rDEST", dest.Address)
}

func TestNextOrderEmptyQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := NewBackendClient(srv.URL, "tok").NextOrder(context.Background(), OrderPayout)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoOrders)
}

func TestNextOrderPayoutRequiresDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[{"id":501,"amount":{"value":"50.00","currency":"EUR"}}]}`))
	}))
	defer srv.Close()

	_, err := NewBackendClient(srv.URL, "tok").NextOrder(context.Background(), OrderPayout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order missing destination details")
}

func TestNextOrderRefundSkipsDestinationCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/process-refund", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":601,"amount":{"value":"9.00","currency":"EUR"},"counterparty_alias":{"iban":"NL01X"}}]}`))
	}))
	defer srv.Close()

	order, err := NewBackendClient(srv.URL, "tok").NextOrder(context.Background(), OrderRefund)
	require.NoError(t, err)
	assert.Equal(t, int64(601), order.ID)
}

func TestReportPostsToPaymentPath(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	record := entity.NewSettlementRecord("TEST")
	record.PaymentID = 501
	err := NewBackendClient(srv.URL, "tok").Report(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, "/payment/501", path)
}

func TestReportSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	record := entity.NewSettlementRecord("TEST")
	record.PaymentID = 501
	err := NewBackendClient(srv.URL, "tok").Report(context.Background(), record)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestPaymentCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment-cursor", r.URL.Path)
		w.Write([]byte(`{"data":480}`))
	}))
	defer srv.Close()

	cursor, err := NewBackendClient(srv.URL, "tok").PaymentCursor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(480), cursor)
}

func TestPushPayments(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		got = string(buf)
		assert.Equal(t, "/payments", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewBackendClient(srv.URL, "tok").PushPayments(context.Background(), []entity.LivePayment{
		{ID: 481, Amount: entity.Amount{Value: "10.00", Currency: "EUR"}},
	})
	require.NoError(t, err)
	assert.Contains(t, got, `"id":481`)
}
