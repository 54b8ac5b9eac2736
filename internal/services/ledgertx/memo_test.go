package ledgertx

import (
	"testing"

	"github.com/paybridge/settler/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMemoText(t *testing.T) {
	assert.Equal(t, "53657276696365", EncodeMemoText("Service"))
	assert.Equal(t, "506179427269646765", EncodeMemoText("PayBridge"))
	assert.Equal(t, "34392E3030", EncodeMemoText("49.00"))
	assert.Equal(t, "", EncodeMemoText(""))
}

func TestAuditMemos(t *testing.T) {
	amounts := entity.ReconciledAmounts{
		Input:  decimal.RequireFromString("50.00"),
		Fee:    decimal.RequireFromString("1.00"),
		Payout: decimal.RequireFromString("49.00"),
	}

	memos := AuditMemos("PayBridge", "ORDER-P1", amounts)
	require.Len(t, memos, 5)

	assert.Equal(t, EncodeMemoText("Service"), memos[0].Type)
	assert.Equal(t, EncodeMemoText("PayBridge"), memos[0].Data)
	assert.Equal(t, EncodeMemoText("PaymentId"), memos[1].Type)
	assert.Equal(t, EncodeMemoText("ORDER-P1"), memos[1].Data)
	assert.Equal(t, EncodeMemoText("BankTransferEUR"), memos[2].Type)
	assert.Equal(t, EncodeMemoText("50.00"), memos[2].Data)
	assert.Equal(t, EncodeMemoText("ServiceFeeEUR"), memos[3].Type)
	assert.Equal(t, EncodeMemoText("1.00"), memos[3].Data)
	assert.Equal(t, EncodeMemoText("PayoutEUR"), memos[4].Type)
	assert.Equal(t, EncodeMemoText("49.00"), memos[4].Data)
}
