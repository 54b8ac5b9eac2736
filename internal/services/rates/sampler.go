// Package rates samples the destination ledger's order book for achievable
// conversion rates.
package rates

import (
	"context"
	"encoding/json"

	"github.com/paybridge/settler/internal/entity"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrNoLiquidity means the order book holds no standing offers for the
// pair; settlement cannot proceed without at least one rate.
var ErrNoLiquidity = errors.New("no offers in ledger order book")

// rateScale normalizes an offer quality (source units per smallest
// destination unit) into an integer rate, flooring away spurious precision.
var rateScale = decimal.NewFromInt(1_000_000)

// Caller executes one request/response command on the ledger connection.
type Caller interface {
	Call(ctx context.Context, command string, params map[string]any) (json.RawMessage, error)
}

// Sampler reads standing offers for one trading pair.
type Sampler struct {
	conn Caller
}

func NewSampler(conn Caller) *Sampler {
	return &Sampler{conn: conn}
}

type bookOffersResult struct {
	Offers []struct {
		Quality string `json:"quality"`
	} `json:"offers"`
}

func assetParam(a entity.Asset) map[string]any {
	if a.Native() {
		return map[string]any{"currency": a.Currency}
	}
	return map[string]any{"currency": a.Currency, "issuer": a.Issuer}
}

// Sample fetches up to limit offers and returns their normalized rates,
// best first as the ledger orders them. The result is valid for this run
// only and is never persisted beyond the settlement record.
func (s *Sampler) Sample(ctx context.Context, pair entity.Pair, limit int) ([]int64, error) {
	raw, err := s.conn.Call(ctx, "book_offers", map[string]any{
		"limit":      limit,
		"taker_pays": assetParam(pair.From),
		"taker_gets": assetParam(pair.To),
	})
	if err != nil {
		return nil, errors.Wrap(err, "book_offers")
	}

	var result bookOffersResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(err, "malformed book_offers result")
	}
	if len(result.Offers) == 0 {
		return nil, errors.Wrapf(ErrNoLiquidity, "pair %s", pair.String())
	}

	sampled := make([]int64, 0, len(result.Offers))
	for _, offer := range result.Offers {
		quality, err := decimal.NewFromString(offer.Quality)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid offer quality %q", offer.Quality)
		}
		sampled = append(sampled, quality.Mul(rateScale).Floor().IntPart())
	}
	return sampled, nil
}
