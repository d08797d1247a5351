package domain

import "strings"

// Category is the canonical investment kind of a holding.
type Category string

const (
	CategoryFund            Category = "fund"
	CategoryEquity          Category = "equity"
	CategoryEquityDividends Category = "equity-dividends"
	CategoryETF             Category = "etf"
	CategoryETFDividends    Category = "etf-dividends"
	CategoryBond            Category = "bond"
	CategoryREIT            Category = "reit"
)

// Categories is the canonical enumeration, in display order.
var Categories = []Category{
	CategoryFund,
	CategoryEquity,
	CategoryEquityDividends,
	CategoryETF,
	CategoryETFDividends,
	CategoryBond,
	CategoryREIT,
}

// Legacy Italian vocabulary used by the first version of the app and its JSON backups.
var categoryAliases = map[string]Category{
	"fondo":            CategoryFund,
	"azione":           CategoryEquity,
	"azione-dividendi": CategoryEquityDividends,
	"etf-dividendi":    CategoryETFDividends,
	"obbligazione":     CategoryBond,
}

// ParseCategory normalizes s (case and surrounding space insensitive) and resolves aliases.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := categoryAliases[s]; ok {
		return c, true
	}
	c := Category(s)
	return c, c.Valid()
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// PaysDividends reports whether dividends may be recorded against holdings of this category.
func (c Category) PaysDividends() bool {
	switch c {
	case CategoryEquityDividends, CategoryETFDividends, CategoryREIT:
		return true
	}
	return false
}
