package dividends

import (
	"context"
	"errors"
	"iter"
	"time"

	"myinvestments-backend/internal/application/holdings"
	"myinvestments-backend/internal/domain"
	"myinvestments-backend/internal/pkg/userlock"
	"myinvestments-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is the dividend register.
type Service struct {
	DB    *gorm.DB
	Locks *userlock.Locker
}

func NewService(db *gorm.DB, locks *userlock.Locker) *Service {
	return &Service{DB: db, Locks: locks}
}

type RecordInput struct {
	HoldingID     uuid.UUID
	Date          string
	Gross         decimal.NullDecimal
	TaxesWithheld decimal.NullDecimal
	Notes         string
}

func (in *RecordInput) validate() (time.Time, []string) {
	var reasons []string
	if in.HoldingID == uuid.Nil {
		reasons = append(reasons, "Holding is required")
	}
	date, ok := validation.ParseDate(in.Date)
	if !ok {
		reasons = append(reasons, "Date is required (YYYY-MM-DD)")
	}
	reasons = append(reasons, domain.ValidateDividendAmounts(in.Gross.Decimal.Round(2), in.TaxesWithheld.Decimal.Round(2))...)
	return date, reasons
}

// Record registers a dividend against a dividend-paying holding. The holding is not modified.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, in RecordInput) (*domain.Dividend, error) {
	date, reasons := in.validate()
	if err := domain.Validation(reasons); err != nil {
		return nil, err
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()

	var d *domain.Dividend
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		h, err := holdings.Find(tx, userID, in.HoldingID)
		if err != nil {
			return err
		}
		if !h.Category.PaysDividends() {
			return domain.ErrIneligibleHolding
		}
		d = &domain.Dividend{
			UserID:        userID,
			HoldingID:     h.HoldingID,
			HoldingName:   h.Name,
			Date:          date,
			GrossAmount:   in.Gross.Decimal.Round(2),
			TaxesWithheld: in.TaxesWithheld.Decimal.Round(2),
			Notes:         validation.SanitizeText(in.Notes),
		}
		return tx.Create(d).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID.String()).Str("holding_id", d.HoldingID.String()).
		Str("dividend_id", d.DividendID.String()).Str("net", d.NetAmount.String()).Msg("dividend recorded")
	return d, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Dividend, error) {
	unlock := s.Locks.RLock(userID)
	defer unlock()
	return ListAll(s.DB.WithContext(ctx), userID)
}

func ListAll(db *gorm.DB, userID uuid.UUID) ([]domain.Dividend, error) {
	var ds []domain.Dividend
	if err := db.Where("user_id = ?", userID).Order("date DESC, created_at DESC").Find(&ds).Error; err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *Service) ListByHolding(ctx context.Context, userID, holdingID uuid.UUID) ([]domain.Dividend, error) {
	unlock := s.Locks.RLock(userID)
	defer unlock()
	var ds []domain.Dividend
	err := s.DB.WithContext(ctx).Where("user_id = ? AND holding_id = ?", userID, holdingID).
		Order("date DESC, created_at DESC").Find(&ds).Error
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func find(db *gorm.DB, userID, id uuid.UUID) (*domain.Dividend, error) {
	var d domain.Dividend
	err := db.Where("dividend_id = ? AND user_id = ?", id, userID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("Dividend", id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateInput lists the editable fields; amounts are fixed once recorded.
type UpdateInput struct {
	Date  *string
	Notes *string
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in UpdateInput) (*domain.Dividend, error) {
	changes := map[string]interface{}{}
	if in.Date != nil {
		d, ok := validation.ParseDate(*in.Date)
		if !ok {
			return nil, domain.Validation([]string{"Date must be YYYY-MM-DD"})
		}
		changes["date"] = d
	}
	if in.Notes != nil {
		changes["notes"] = validation.SanitizeText(*in.Notes)
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()

	var d *domain.Dividend
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if d, err = find(tx, userID, id); err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(d).Updates(changes).Error; err != nil {
			return err
		}
		d, err = find(tx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Remove(ctx context.Context, userID, id uuid.UUID) error {
	unlock := s.Locks.Lock(userID)
	defer unlock()
	res := s.DB.WithContext(ctx).Where("dividend_id = ? AND user_id = ?", id, userID).Delete(&domain.Dividend{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("Dividend", id)
	}
	log.Info().Str("user_id", userID.String()).Str("dividend_id", id.String()).Msg("dividend removed")
	return nil
}

// EligibleHoldings yields the user's holdings whose category pays dividends. The holdings are
// read once; the filter runs lazily on every range, so the sequence can be walked again.
func (s *Service) EligibleHoldings(ctx context.Context, userID uuid.UUID) (iter.Seq[domain.Holding], error) {
	unlock := s.Locks.RLock(userID)
	defer unlock()
	hs, err := holdings.ListAll(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	return Eligible(hs), nil
}

// Eligible filters hs down to dividend-paying holdings.
func Eligible(hs []domain.Holding) iter.Seq[domain.Holding] {
	return func(yield func(domain.Holding) bool) {
		for _, h := range hs {
			if !h.Category.PaysDividends() {
				continue
			}
			if !yield(h) {
				return
			}
		}
	}
}
