package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate is the flat capital gains rate, applied to positive gains only.
var TaxRate = decimal.RequireFromString("0.26")

// Quote is the computed outcome of a divestment awaiting confirmation. It carries the holding's
// cost basis and mark at quote time so that confirm can detect a stale quote.
type Quote struct {
	UserID              uuid.UUID       `json:"user_id"`
	HoldingID           uuid.UUID       `json:"holding_id"`
	HoldingName         string          `json:"holding_name"`
	Kind                DivestmentKind  `json:"kind"`
	Date                time.Time       `json:"date"`
	Reason              string          `json:"reason"`
	Notes               string          `json:"notes"`
	DivestedAmount      decimal.Decimal `json:"divested_amount"`
	DivestedCost        decimal.Decimal `json:"divested_cost"`
	GrossGain           decimal.Decimal `json:"gross_gain"`
	Tax                 decimal.Decimal `json:"tax"`
	NetGain             decimal.Decimal `json:"net_gain"`
	NetCash             decimal.Decimal `json:"net_cash"`
	HoldingAmountBefore decimal.Decimal `json:"holding_amount_before"`
	HoldingValueBefore  decimal.Decimal `json:"holding_value_before"`
	QuotedAt            time.Time       `json:"quoted_at"`
}

// ComputeQuote prices a total or partial liquidation of h. amount is ignored for a total
// divestment. Cost and tax are rounded to cents so that netCash + tax == divestedAmount exactly.
func ComputeQuote(h *Holding, kind DivestmentKind, amount decimal.Decimal) (Quote, error) {
	var divested, cost decimal.Decimal
	switch kind {
	case DivestmentTotal:
		divested = h.CurrentValue
		cost = h.Amount
	case DivestmentPartial:
		divested = amount.Round(2)
		if !divested.IsPositive() {
			return Quote{}, InvalidAmount("amount to divest must be greater than zero")
		}
		if divested.GreaterThan(h.CurrentValue) {
			return Quote{}, InvalidAmount("amount to divest exceeds the current value")
		}
		if divested.Equal(h.CurrentValue) {
			cost = h.Amount
		} else {
			cost = h.Amount.Mul(divested).Div(h.CurrentValue).Round(2)
		}
	default:
		return Quote{}, Validation([]string{"Kind must be total or partial"})
	}

	gross := divested.Sub(cost)
	tax := TaxOnGain(gross)
	return Quote{
		UserID:              h.UserID,
		HoldingID:           h.HoldingID,
		HoldingName:         h.Name,
		Kind:                kind,
		DivestedAmount:      divested,
		DivestedCost:        cost,
		GrossGain:           gross,
		Tax:                 tax,
		NetGain:             gross.Sub(tax),
		NetCash:             divested.Sub(tax),
		HoldingAmountBefore: h.Amount,
		HoldingValueBefore:  h.CurrentValue,
	}, nil
}

// TaxOnGain is TaxRate applied to a positive gain, rounded to cents; zero for a loss.
func TaxOnGain(gain decimal.Decimal) decimal.Decimal {
	if !gain.IsPositive() {
		return decimal.Zero
	}
	return gain.Mul(TaxRate).Round(2)
}

// Stale reports whether h changed since the quote was computed.
func (q *Quote) Stale(h *Holding) bool {
	return !h.Amount.Equal(q.HoldingAmountBefore) || !h.CurrentValue.Equal(q.HoldingValueBefore)
}

// ClosesPosition reports whether confirming the quote leaves nothing of the holding.
func (q *Quote) ClosesPosition() bool {
	return q.Kind == DivestmentTotal || q.DivestedAmount.Equal(q.HoldingValueBefore)
}

// Record builds the divestment entry for a confirmed quote.
func (q *Quote) Record() *Divestment {
	return &Divestment{
		UserID:         q.UserID,
		HoldingID:      q.HoldingID,
		HoldingName:    q.HoldingName,
		Kind:           q.Kind,
		Date:           q.Date,
		Reason:         q.Reason,
		Notes:          q.Notes,
		DivestedAmount: q.DivestedAmount,
		DivestedCost:   q.DivestedCost,
		GrossGain:      q.GrossGain,
		Tax:            q.Tax,
		NetGain:        q.NetGain,
		NetCash:        q.NetCash,
	}
}
