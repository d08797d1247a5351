package domain

import "github.com/shopspring/decimal"

// Summary is the point-in-time portfolio report.
type Summary struct {
	HoldingsCount           int                            `json:"holdings_count"`
	TotalInvested           decimal.Decimal                `json:"total_invested"`
	CurrentPortfolioValue   decimal.Decimal                `json:"current_portfolio_value"`
	UnrealizedGain          decimal.Decimal                `json:"unrealized_gain"`
	TotalDividendsGross     decimal.Decimal                `json:"total_dividends_gross"`
	TotalDividendsNet       decimal.Decimal                `json:"total_dividends_net"`
	TotalCashFromSales      decimal.Decimal                `json:"total_cash_from_sales"`
	TotalDivestedCost       decimal.Decimal                `json:"total_divested_cost"`
	RealizedGains           decimal.Decimal                `json:"realized_gains"`
	TotalPatrimony          decimal.Decimal                `json:"total_patrimony"`
	TotalOriginalInvestment decimal.Decimal                `json:"total_original_investment"`
	CombinedGain            decimal.Decimal                `json:"combined_gain"`
	OverallReturnPercent    decimal.Decimal                `json:"overall_return_percent"`
	TaxOnUnrealizedGains    decimal.Decimal                `json:"tax_on_unrealized_gains"`
	AverageDividendYield    decimal.Decimal                `json:"average_dividend_yield"`
	ByCategory              map[Category]CategoryBreakdown `json:"by_category"`
}

type CategoryBreakdown struct {
	Count        int             `json:"count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CurrentValue decimal.Decimal `json:"current_value"`
}

// DivestmentGroup aggregates divestments sharing a key.
type DivestmentGroup struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type DivestmentStats struct {
	Total     DivestmentTotals           `json:"total"`
	ByHolding map[string]DivestmentGroup `json:"by_holding"`
	ByReason  map[string]DivestmentGroup `json:"by_reason"`
	ByYear    map[int]DivestmentGroup    `json:"by_year"`
}

type DivestmentTotals struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	GrossGain   decimal.Decimal `json:"gross_gain"`
	Tax         decimal.Decimal `json:"tax"`
	NetGain     decimal.Decimal `json:"net_gain"`
	NetCash     decimal.Decimal `json:"net_cash"`
}

// DividendGroup aggregates dividends sharing a key.
type DividendGroup struct {
	Count      int             `json:"count"`
	TotalGross decimal.Decimal `json:"total_gross"`
	TotalNet   decimal.Decimal `json:"total_net"`
	TotalTaxes decimal.Decimal `json:"total_taxes"`
}

type DividendStats struct {
	Total     DividendGroup            `json:"total"`
	ByHolding map[string]DividendGroup `json:"by_holding"`
	ByYear    map[int]DividendGroup    `json:"by_year"`
}
