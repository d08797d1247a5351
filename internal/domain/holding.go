package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Revaluation is one entry of a holding's append-only update log.
type Revaluation struct {
	Date      time.Time       `json:"date"`
	Value     decimal.Decimal `json:"value"`
	Note      string          `json:"note,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Holding is one active investment position owned by a single user.
type Holding struct {
	HoldingID            uuid.UUID                        `gorm:"column:holding_id;type:uuid;primaryKey" json:"holding_id"`
	UserID               uuid.UUID                        `gorm:"column:user_id;type:uuid;not null;index:idx_holdings_user_category,priority:1" json:"user_id"`
	Name                 string                           `gorm:"column:name;not null" json:"name"`
	Category             Category                         `gorm:"column:category;type:varchar(32);not null;index:idx_holdings_user_category,priority:2" json:"category"`
	Amount               decimal.Decimal                  `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	CurrentValue         decimal.Decimal                  `gorm:"column:current_value;type:numeric(18,2);not null" json:"current_value"`
	Quantity             decimal.NullDecimal              `gorm:"column:quantity;type:numeric(24,8)" json:"quantity"`
	Date                 time.Time                        `gorm:"column:date;not null" json:"date"`
	Notes                string                           `gorm:"column:notes" json:"notes"`
	History              datatypes.JSONSlice[Revaluation] `gorm:"column:history" json:"history"`
	IsExistingInvestment bool                             `gorm:"column:is_existing_investment;not null;default:false" json:"is_existing_investment"`
	InitialPerformance   decimal.NullDecimal              `gorm:"column:initial_performance;type:numeric(10,4)" json:"initial_performance"`
	CreatedAt            time.Time                        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time                        `gorm:"column:updated_at" json:"updated_at"`
}

func (Holding) TableName() string {
	return "holdings"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.HoldingID == uuid.Nil {
		h.HoldingID = uuid.New()
	}
	if h.History == nil {
		h.History = datatypes.JSONSlice[Revaluation]{}
	}
	return nil
}

// GainLoss is the unrealized gain (or loss) of the position.
func (h *Holding) GainLoss() decimal.Decimal {
	return h.CurrentValue.Sub(h.Amount)
}

// Performance is the unrealized return in percent, rounded to cents; 0 for a zero cost basis.
func (h *Holding) Performance() decimal.Decimal {
	if h.Amount.IsZero() {
		return decimal.Zero
	}
	return h.GainLoss().Div(h.Amount).Mul(hundred).Round(2)
}

// Revalue sets a new mark and appends it to the history.
func (h *Holding) Revalue(value decimal.Decimal, date time.Time, note string, now time.Time) error {
	if value.IsNegative() {
		return Validation([]string{"Value must be zero or greater"})
	}
	h.CurrentValue = value.Round(2)
	h.History = append(h.History, Revaluation{
		Date:      date,
		Value:     h.CurrentValue,
		Note:      note,
		Timestamp: now,
	})
	return nil
}

// ApplyPartialDivestment reduces cost basis and mark by the divested portion and scales the
// quantity by the fraction of value that remains. A sale that would leave a quantity too small
// to record is refused.
func (h *Holding) ApplyPartialDivestment(divestedAmount, divestedCost decimal.Decimal, date, now time.Time) error {
	if !divestedAmount.IsPositive() {
		return InvalidAmount("divested amount must be greater than zero")
	}
	if divestedAmount.GreaterThan(h.CurrentValue) {
		return InvalidAmount("divested amount exceeds the current value")
	}
	if divestedCost.IsNegative() || divestedCost.GreaterThan(h.Amount) {
		return InvalidAmount("divested cost exceeds the cost basis")
	}
	remaining := decimal.NewFromInt(1).Sub(divestedAmount.Div(h.CurrentValue))
	quantity := h.Quantity
	if quantity.Valid {
		quantity.Decimal = quantity.Decimal.Mul(remaining).Round(8)
		if !quantity.Decimal.IsPositive() {
			return InvalidAmount("remaining quantity would round to zero; divest the whole holding instead")
		}
	}

	h.Amount = h.Amount.Sub(divestedCost)
	h.CurrentValue = h.CurrentValue.Sub(divestedAmount)
	h.Quantity = quantity
	h.History = append(h.History, Revaluation{
		Date:      date,
		Value:     h.CurrentValue,
		Note:      fmt.Sprintf("Partial divestment: -€%s", divestedAmount.StringFixed(2)),
		Timestamp: now,
	})
	return nil
}

// DeriveCostBasis recovers the original amount from a current value and the performance
// (in percent) achieved since purchase. Performance must be above -100.
func DeriveCostBasis(currentValue, performance decimal.Decimal) (decimal.Decimal, error) {
	divisor := decimal.NewFromInt(1).Add(performance.Div(hundred))
	if divisor.IsZero() {
		return decimal.Zero, ErrDivisionDegenerate
	}
	if divisor.IsNegative() {
		return decimal.Zero, Validation([]string{"Performance must be greater than -100%"})
	}
	return currentValue.Div(divisor).Round(2), nil
}

// InitialValueNote is the note of the synthetic history entry of a derived-mode holding.
func InitialValueNote(performance decimal.Decimal) string {
	sign := ""
	if performance.IsPositive() {
		sign = "+"
	}
	return fmt.Sprintf("Initial value entered (%s%s%% since purchase)", sign, performance.StringFixed(2))
}

// HoldingView is the API shape of a holding with its derived figures.
type HoldingView struct {
	Holding
	GainLoss      decimal.Decimal `json:"gain_loss"`
	Performance   decimal.Decimal `json:"performance"`
	PaysDividends bool            `json:"pays_dividends"`
}

func NewHoldingView(h Holding) HoldingView {
	return HoldingView{
		Holding:       h,
		GainLoss:      h.GainLoss(),
		Performance:   h.Performance(),
		PaysDividends: h.Category.PaysDividends(),
	}
}

func NewHoldingViews(hs []Holding) []HoldingView {
	out := make([]HoldingView, 0, len(hs))
	for _, h := range hs {
		out = append(out, NewHoldingView(h))
	}
	return out
}
