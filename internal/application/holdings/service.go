package holdings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"myinvestments-backend/internal/domain"
	"myinvestments-backend/internal/pkg/userlock"
	"myinvestments-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	maxPerformance = decimal.NewFromInt(1000)
	minPerformance = decimal.NewFromInt(-100)
)

// Service is the holding ledger of every user. All methods are scoped to one user id.
type Service struct {
	DB    *gorm.DB
	Locks *userlock.Locker
	Now   func() time.Time
}

func NewService(db *gorm.DB, locks *userlock.Locker) *Service {
	return &Service{DB: db, Locks: locks}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateInput covers both entry modes. With IsExistingInvestment the cost basis is derived
// from CurrentValue and Performance; otherwise Amount is the cost basis.
type CreateInput struct {
	Name                 string
	Category             string
	Date                 string
	Amount               decimal.NullDecimal
	CurrentValue         decimal.NullDecimal
	Quantity             decimal.NullDecimal
	Performance          decimal.NullDecimal
	IsExistingInvestment bool
	Notes                string
}

func (in *CreateInput) validate() (domain.Category, time.Time, []string) {
	var reasons []string
	if len([]rune(strings.TrimSpace(in.Name))) < 2 {
		reasons = append(reasons, "Name must be at least 2 characters")
	}
	category, ok := domain.ParseCategory(in.Category)
	if !ok {
		reasons = append(reasons, "Category must be one of: fund, equity, equity-dividends, etf, etf-dividends, bond, reit")
	}
	date, ok := validation.ParseDate(in.Date)
	if !ok {
		reasons = append(reasons, "Date is required (YYYY-MM-DD)")
	}
	if in.IsExistingInvestment {
		if !in.CurrentValue.Valid || !in.CurrentValue.Decimal.IsPositive() {
			reasons = append(reasons, "Current value must be greater than zero")
		}
		if !in.Performance.Valid {
			reasons = append(reasons, "Performance is required for an existing investment")
		} else if in.Performance.Decimal.Abs().GreaterThan(maxPerformance) {
			reasons = append(reasons, "Performance must be between -1000% and 1000%")
		} else if in.Performance.Decimal.LessThan(minPerformance) {
			// -100 itself is left to DeriveCostBasis: no cost basis can be derived from it
			reasons = append(reasons, "Performance must be greater than -100%")
		}
	} else {
		if !in.Amount.Valid || !in.Amount.Decimal.IsPositive() {
			reasons = append(reasons, "Amount must be greater than zero")
		}
		if in.CurrentValue.Valid && in.CurrentValue.Decimal.IsNegative() {
			reasons = append(reasons, "Current value cannot be negative")
		}
	}
	if in.Quantity.Valid && !in.Quantity.Decimal.IsPositive() {
		reasons = append(reasons, "Quantity must be greater than zero")
	}
	return category, date, reasons
}

// Create adds a holding in direct or derived mode.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*domain.Holding, error) {
	category, date, reasons := in.validate()
	if err := domain.Validation(reasons); err != nil {
		return nil, err
	}

	h := &domain.Holding{
		UserID:   userID,
		Name:     validation.SanitizeText(in.Name),
		Category: category,
		Date:     date,
		Notes:    validation.SanitizeText(in.Notes),
		History:  datatypes.JSONSlice[domain.Revaluation]{},
	}
	if in.Quantity.Valid {
		h.Quantity = decimal.NewNullDecimal(in.Quantity.Decimal.Round(8))
	}

	if in.IsExistingInvestment {
		amount, err := domain.DeriveCostBasis(in.CurrentValue.Decimal, in.Performance.Decimal)
		if err != nil {
			return nil, err
		}
		h.Amount = amount
		h.CurrentValue = in.CurrentValue.Decimal.Round(2)
		h.IsExistingInvestment = true
		h.InitialPerformance = decimal.NewNullDecimal(in.Performance.Decimal)
		h.History = append(h.History, domain.Revaluation{
			Date:      date,
			Value:     h.CurrentValue,
			Note:      domain.InitialValueNote(in.Performance.Decimal),
			Timestamp: s.now(),
		})
	} else {
		h.Amount = in.Amount.Decimal.Round(2)
		h.CurrentValue = h.Amount
		if in.CurrentValue.Valid {
			h.CurrentValue = in.CurrentValue.Decimal.Round(2)
		}
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()
	if err := s.DB.WithContext(ctx).Create(h).Error; err != nil {
		return nil, fmt.Errorf("create holding: %w", err)
	}
	log.Info().Str("user_id", userID.String()).Str("holding_id", h.HoldingID.String()).
		Bool("derived", h.IsExistingInvestment).Msg("holding created")
	return h, nil
}

// List returns the user's holdings, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Holding, error) {
	unlock := s.Locks.RLock(userID)
	defer unlock()
	return ListAll(s.DB.WithContext(ctx), userID)
}

// ListAll reads every holding of the user on db, which may be a transaction.
func ListAll(db *gorm.DB, userID uuid.UUID) ([]domain.Holding, error) {
	var hs []domain.Holding
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&hs).Error; err != nil {
		return nil, err
	}
	return hs, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Holding, error) {
	unlock := s.Locks.RLock(userID)
	defer unlock()
	return Find(s.DB.WithContext(ctx), userID, id)
}

// Find loads one holding owned by userID, or a NotFound error.
func Find(db *gorm.DB, userID, id uuid.UUID) (*domain.Holding, error) {
	var h domain.Holding
	err := db.Where("holding_id = ? AND user_id = ?", id, userID).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("Holding", id)
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

type RevalueInput struct {
	Value decimal.NullDecimal
	Date  string
	Note  string
}

// Revalue records a new mark. Date defaults to today.
func (s *Service) Revalue(ctx context.Context, userID, id uuid.UUID, in RevalueInput) (*domain.Holding, error) {
	var reasons []string
	if !in.Value.Valid {
		reasons = append(reasons, "Value is required")
	} else if in.Value.Decimal.IsNegative() {
		reasons = append(reasons, "Value must be zero or greater")
	}
	now := s.now()
	date := now
	if strings.TrimSpace(in.Date) != "" {
		d, ok := validation.ParseDate(in.Date)
		if !ok {
			reasons = append(reasons, "Date must be YYYY-MM-DD")
		}
		date = d
	}
	if err := domain.Validation(reasons); err != nil {
		return nil, err
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()

	var h *domain.Holding
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if h, err = Find(tx, userID, id); err != nil {
			return err
		}
		if err := h.Revalue(in.Value.Decimal, date, validation.SanitizeText(in.Note), now); err != nil {
			return err
		}
		return tx.Model(h).Select("current_value", "history").Updates(h).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID.String()).Str("holding_id", id.String()).
		Str("value", h.CurrentValue.String()).Msg("holding revalued")
	return h, nil
}

// UpdateInput lists the only fields of a holding that may be edited. Nil means unchanged.
type UpdateInput struct {
	Name     *string
	Category *string
	Notes    *string
	Date     *string
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in UpdateInput) (*domain.Holding, error) {
	var reasons []string
	changes := map[string]interface{}{}
	if in.Name != nil {
		name := validation.SanitizeText(*in.Name)
		if len([]rune(name)) < 2 {
			reasons = append(reasons, "Name must be at least 2 characters")
		}
		changes["name"] = name
	}
	if in.Category != nil {
		c, ok := domain.ParseCategory(*in.Category)
		if !ok {
			reasons = append(reasons, "Category must be one of: fund, equity, equity-dividends, etf, etf-dividends, bond, reit")
		}
		changes["category"] = c
	}
	if in.Date != nil {
		d, ok := validation.ParseDate(*in.Date)
		if !ok {
			reasons = append(reasons, "Date must be YYYY-MM-DD")
		}
		changes["date"] = d
	}
	if in.Notes != nil {
		changes["notes"] = validation.SanitizeText(*in.Notes)
	}
	if err := domain.Validation(reasons); err != nil {
		return nil, err
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()

	var h *domain.Holding
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if h, err = Find(tx, userID, id); err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(h).Updates(changes).Error; err != nil {
			return err
		}
		h, err = Find(tx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Remove deletes the holding together with its dividend and divestment records.
func (s *Service) Remove(ctx context.Context, userID, id uuid.UUID) error {
	unlock := s.Locks.Lock(userID)
	defer unlock()

	var dividends, divestments int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		h, err := Find(tx, userID, id)
		if err != nil {
			return err
		}
		res := tx.Where("holding_id = ? AND user_id = ?", id, userID).Delete(&domain.Dividend{})
		if res.Error != nil {
			return res.Error
		}
		dividends = res.RowsAffected
		res = tx.Where("holding_id = ? AND user_id = ?", id, userID).Delete(&domain.Divestment{})
		if res.Error != nil {
			return res.Error
		}
		divestments = res.RowsAffected
		return tx.Delete(h).Error
	})
	if err != nil {
		return err
	}
	log.Info().Str("user_id", userID.String()).Str("holding_id", id.String()).
		Int64("dividends", dividends).Int64("divestments", divestments).Msg("holding removed")
	return nil
}

// ApplyPartialDivestment reduces h inside tx. The caller holds the user's lock.
func (s *Service) ApplyPartialDivestment(tx *gorm.DB, h *domain.Holding, divestedAmount, divestedCost decimal.Decimal, date time.Time) error {
	if err := h.ApplyPartialDivestment(divestedAmount, divestedCost, date, s.now()); err != nil {
		return err
	}
	return tx.Model(h).Select("amount", "current_value", "quantity", "history").Updates(h).Error
}

// Retire deletes a fully divested holding inside tx. Its divestment and dividend records stay.
func (s *Service) Retire(tx *gorm.DB, h *domain.Holding) error {
	return tx.Delete(h).Error
}
