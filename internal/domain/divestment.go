package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DivestmentKind string

const (
	DivestmentTotal   DivestmentKind = "total"
	DivestmentPartial DivestmentKind = "partial"
)

func (k DivestmentKind) Valid() bool {
	return k == DivestmentTotal || k == DivestmentPartial
}

// DefaultDivestmentReason is used when a quote is requested without a reason.
const DefaultDivestmentReason = "sale"

// Divestment is the immutable record of a confirmed liquidation. HoldingID and HoldingName are a
// snapshot: the record outlives the holding it was taken from.
type Divestment struct {
	DivestmentID   uuid.UUID       `gorm:"column:divestment_id;type:uuid;primaryKey" json:"divestment_id"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	HoldingID      uuid.UUID       `gorm:"column:holding_id;type:uuid;not null;index" json:"holding_id"`
	HoldingName    string          `gorm:"column:holding_name;not null" json:"holding_name"`
	Kind           DivestmentKind  `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	Date           time.Time       `gorm:"column:date;not null" json:"date"`
	Reason         string          `gorm:"column:reason;not null;default:sale" json:"reason"`
	Notes          string          `gorm:"column:notes" json:"notes"`
	DivestedAmount decimal.Decimal `gorm:"column:divested_amount;type:numeric(18,2);not null" json:"divested_amount"`
	DivestedCost   decimal.Decimal `gorm:"column:divested_cost;type:numeric(18,2);not null" json:"divested_cost"`
	GrossGain      decimal.Decimal `gorm:"column:gross_gain;type:numeric(18,2);not null" json:"gross_gain"`
	Tax            decimal.Decimal `gorm:"column:tax;type:numeric(18,2);not null" json:"tax"`
	NetGain        decimal.Decimal `gorm:"column:net_gain;type:numeric(18,2);not null" json:"net_gain"`
	NetCash        decimal.Decimal `gorm:"column:net_cash;type:numeric(18,2);not null" json:"net_cash"`
	CreatedAt      time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Divestment) TableName() string {
	return "divestments"
}

func (d *Divestment) BeforeCreate(tx *gorm.DB) error {
	if d.DivestmentID == uuid.Nil {
		d.DivestmentID = uuid.New()
	}
	return nil
}

// Derive recomputes gain, tax and the net figures from DivestedAmount and DivestedCost, the
// same way ComputeQuote does.
func (d *Divestment) Derive() {
	d.DivestedAmount = d.DivestedAmount.Round(2)
	d.DivestedCost = d.DivestedCost.Round(2)
	d.GrossGain = d.DivestedAmount.Sub(d.DivestedCost)
	d.Tax = TaxOnGain(d.GrossGain)
	d.NetGain = d.GrossGain.Sub(d.Tax)
	d.NetCash = d.DivestedAmount.Sub(d.Tax)
}
