package portfolio

import (
	"myinvestments-backend/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summarize derives the portfolio report from the current holdings and records. It is recomputed
// on every call; nothing is cached.
func Summarize(hs []domain.Holding, ds []domain.Divestment, dvs []domain.Dividend) domain.Summary {
	s := domain.Summary{
		HoldingsCount: len(hs),
		ByCategory:    map[domain.Category]domain.CategoryBreakdown{},
	}
	eligibleCost := decimal.Zero
	for _, h := range hs {
		s.TotalInvested = s.TotalInvested.Add(h.Amount)
		s.CurrentPortfolioValue = s.CurrentPortfolioValue.Add(h.CurrentValue)
		if h.Category.PaysDividends() {
			eligibleCost = eligibleCost.Add(h.Amount)
		}
		b := s.ByCategory[h.Category]
		b.Count++
		b.TotalAmount = b.TotalAmount.Add(h.Amount)
		b.CurrentValue = b.CurrentValue.Add(h.CurrentValue)
		s.ByCategory[h.Category] = b
	}
	for _, d := range ds {
		s.TotalCashFromSales = s.TotalCashFromSales.Add(d.NetCash)
		s.TotalDivestedCost = s.TotalDivestedCost.Add(d.DivestedCost)
		s.RealizedGains = s.RealizedGains.Add(d.NetGain)
	}
	for _, d := range dvs {
		s.TotalDividendsGross = s.TotalDividendsGross.Add(d.GrossAmount)
		s.TotalDividendsNet = s.TotalDividendsNet.Add(d.NetAmount)
	}

	s.UnrealizedGain = s.CurrentPortfolioValue.Sub(s.TotalInvested)
	s.TotalPatrimony = s.CurrentPortfolioValue.Add(s.TotalCashFromSales).Add(s.TotalDividendsNet)
	s.TotalOriginalInvestment = s.TotalInvested.Add(s.TotalDivestedCost)
	s.CombinedGain = s.UnrealizedGain.Add(s.RealizedGains).Add(s.TotalDividendsNet)
	if s.TotalOriginalInvestment.IsPositive() {
		s.OverallReturnPercent = s.CombinedGain.Div(s.TotalOriginalInvestment).Mul(hundred).Round(2)
	}
	s.TaxOnUnrealizedGains = domain.TaxOnGain(s.UnrealizedGain)
	s.AverageDividendYield = DividendYield(s.TotalDividendsGross, eligibleCost)
	return s
}

// DividendYield is gross dividends over the cost of dividend-paying holdings, in percent.
func DividendYield(gross, eligibleCost decimal.Decimal) decimal.Decimal {
	if !eligibleCost.IsPositive() {
		return decimal.Zero
	}
	return gross.Div(eligibleCost).Mul(hundred).Round(2)
}

func SummarizeDivestments(ds []domain.Divestment) domain.DivestmentStats {
	st := domain.DivestmentStats{
		ByHolding: map[string]domain.DivestmentGroup{},
		ByReason:  map[string]domain.DivestmentGroup{},
		ByYear:    map[int]domain.DivestmentGroup{},
	}
	add := func(m map[string]domain.DivestmentGroup, k string, d domain.Divestment) {
		g := m[k]
		g.Count++
		g.TotalAmount = g.TotalAmount.Add(d.DivestedAmount)
		m[k] = g
	}
	for _, d := range ds {
		t := &st.Total
		t.Count++
		t.TotalAmount = t.TotalAmount.Add(d.DivestedAmount)
		t.TotalCost = t.TotalCost.Add(d.DivestedCost)
		t.GrossGain = t.GrossGain.Add(d.GrossGain)
		t.Tax = t.Tax.Add(d.Tax)
		t.NetGain = t.NetGain.Add(d.NetGain)
		t.NetCash = t.NetCash.Add(d.NetCash)

		add(st.ByHolding, d.HoldingName, d)
		add(st.ByReason, d.Reason, d)
		y := st.ByYear[d.Date.Year()]
		y.Count++
		y.TotalAmount = y.TotalAmount.Add(d.DivestedAmount)
		st.ByYear[d.Date.Year()] = y
	}
	return st
}

func SummarizeDividends(dvs []domain.Dividend) domain.DividendStats {
	st := domain.DividendStats{
		ByHolding: map[string]domain.DividendGroup{},
		ByYear:    map[int]domain.DividendGroup{},
	}
	for _, d := range dvs {
		st.Total = addDividend(st.Total, d)
		st.ByHolding[d.HoldingName] = addDividend(st.ByHolding[d.HoldingName], d)
		st.ByYear[d.Date.Year()] = addDividend(st.ByYear[d.Date.Year()], d)
	}
	return st
}

func addDividend(g domain.DividendGroup, d domain.Dividend) domain.DividendGroup {
	g.Count++
	g.TotalGross = g.TotalGross.Add(d.GrossAmount)
	g.TotalNet = g.TotalNet.Add(d.NetAmount)
	g.TotalTaxes = g.TotalTaxes.Add(d.TaxesWithheld)
	return g
}
