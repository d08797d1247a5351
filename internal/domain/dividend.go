package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Dividend is a cash distribution received from a dividend-paying holding.
type Dividend struct {
	DividendID    uuid.UUID       `gorm:"column:dividend_id;type:uuid;primaryKey" json:"dividend_id"`
	UserID        uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	HoldingID     uuid.UUID       `gorm:"column:holding_id;type:uuid;not null;index" json:"holding_id"`
	HoldingName   string          `gorm:"column:holding_name;not null" json:"holding_name"`
	Date          time.Time       `gorm:"column:date;not null" json:"date"`
	GrossAmount   decimal.Decimal `gorm:"column:gross_amount;type:numeric(18,2);not null" json:"gross_amount"`
	TaxesWithheld decimal.Decimal `gorm:"column:taxes_withheld;type:numeric(18,2);not null" json:"taxes_withheld"`
	NetAmount     decimal.Decimal `gorm:"column:net_amount;type:numeric(18,2);not null" json:"net_amount"`
	Notes         string          `gorm:"column:notes" json:"notes"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Dividend) TableName() string {
	return "dividends"
}

func (d *Dividend) BeforeCreate(tx *gorm.DB) error {
	if d.DividendID == uuid.Nil {
		d.DividendID = uuid.New()
	}
	return nil
}

// BeforeSave keeps the net amount in step with gross and withholding.
func (d *Dividend) BeforeSave(tx *gorm.DB) error {
	d.NetAmount = d.GrossAmount.Sub(d.TaxesWithheld)
	return nil
}

// ValidateDividendAmounts lists every rule broken by a gross/withholding pair.
func ValidateDividendAmounts(gross, taxes decimal.Decimal) []string {
	var reasons []string
	if !gross.IsPositive() {
		reasons = append(reasons, "Gross amount must be greater than zero")
	}
	if taxes.IsNegative() {
		reasons = append(reasons, "Taxes withheld cannot be negative")
	}
	if gross.IsPositive() && taxes.GreaterThanOrEqual(gross) {
		reasons = append(reasons, "Taxes withheld must be less than the gross amount")
	}
	return reasons
}
