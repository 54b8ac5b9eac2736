package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantFee    string
		wantPayout string
		wantErr    bool
	}{
		{
			name:       "percentage fee below minimum is clamped",
			input:      "100.00",
			wantFee:    "1.00",
			wantPayout: "99.00",
		},
		{
			name:       "small amount still pays minimum fee",
			input:      "10.00",
			wantFee:    "1.00",
			wantPayout: "9.00",
		},
		{
			name:    "fee exceeds input",
			input:   "0.50",
			wantErr: true,
		},
		{
			name:    "payout just below minimum",
			input:   "1.24",
			wantErr: true,
		},
		{
			name:       "payout exactly at minimum",
			input:      "1.25",
			wantFee:    "1.00",
			wantPayout: "0.25",
		},
		{
			name:       "percentage fee above minimum",
			input:      "1000.00",
			wantFee:    "5.00",
			wantPayout: "995.00",
		},
		{
			name:       "fee truncated not rounded",
			input:      "399.99",
			wantFee:    "1.99", // 0.5% = 1.99995, floored
			wantPayout: "398.00",
		},
		{
			name:       "payout truncated to cents",
			input:      "333.333",
			wantFee:    "1.66",
			wantPayout: "331.67",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := decimal.NewFromString(tt.input)
			require.NoError(t, err)

			amounts, err := Split(input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrPayoutTooSmall)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFee, amounts.Fee.StringFixed(2))
			assert.Equal(t, tt.wantPayout, amounts.Payout.StringFixed(2))
			assert.True(t, amounts.Input.Equal(input))
		})
	}
}

func TestSplitFeePlusPayoutEqualsInput(t *testing.T) {
	for _, raw := range []string{"1.25", "10.00", "50.00", "123.45", "1000.00", "99999.99"} {
		input := decimal.RequireFromString(raw)
		amounts, err := Split(input)
		require.NoError(t, err, raw)
		assert.True(t, amounts.Fee.Add(amounts.Payout).Equal(input.RoundFloor(2)),
			"fee %s + payout %s != input %s", amounts.Fee, amounts.Payout, input)
	}
}
