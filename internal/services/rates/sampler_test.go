package rates

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/paybridge/settler/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	result  string
	err     error
	command string
	params  map[string]any
}

func (f *fakeCaller) Call(_ context.Context, command string, params map[string]any) (json.RawMessage, error) {
	f.command = command
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.result), nil
}

var testPair = entity.Pair{
	From: entity.Asset{Currency: "EUR", Issuer: "rISSUER"},
	To:   entity.Asset{Currency: "XRP"},
}

func TestSampleNormalizesOffersInOrder(t *testing.T) {
	conn := &fakeCaller{result: `{"offers":[
		{"quality":"0.001"},
		{"quality":"0.0010005"},
		{"quality":"0.002"}
	]}`}

	sampled, err := NewSampler(conn).Sample(context.Background(), testPair, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{1000, 1000, 2000}, sampled)

	assert.Equal(t, "book_offers", conn.command)
	assert.Equal(t, 10, conn.params["limit"])
	assert.Equal(t, map[string]any{"currency": "EUR", "issuer": "rISSUER"}, conn.params["taker_pays"])
	assert.Equal(t, map[string]any{"currency": "XRP"}, conn.params["taker_gets"])
}

func TestSampleEmptyBook(t *testing.T) {
	conn := &fakeCaller{result: `{"offers":[]}`}

	_, err := NewSampler(conn).Sample(context.Background(), testPair, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoLiquidity)
}

func TestSampleInvalidQuality(t *testing.T) {
	conn := &fakeCaller{result: `{"offers":[{"quality":"not-a-number"}]}`}

	_, err := NewSampler(conn).Sample(context.Background(), testPair, 10)
	require.Error(t, err)
}
