package backup

import (
	"context"
	"fmt"
	"time"

	"myinvestments-backend/internal/application/divestments"
	"myinvestments-backend/internal/application/dividends"
	"myinvestments-backend/internal/application/holdings"
	"myinvestments-backend/internal/domain"
	"myinvestments-backend/internal/pkg/userlock"
	"myinvestments-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FormatVersion is written into every export and is the only version Import accepts.
const FormatVersion = "1.0"

// Document is the full data set of one user.
type Document struct {
	Version     string              `json:"version"`
	ExportDate  time.Time           `json:"exportDate"`
	Holdings    []domain.Holding    `json:"holdings"`
	Divestments []domain.Divestment `json:"divestments"`
	Dividends   []domain.Dividend   `json:"dividends"`
}

// ImportResult counts the rows written by Import.
type ImportResult struct {
	Holdings    int `json:"holdings"`
	Divestments int `json:"divestments"`
	Dividends   int `json:"dividends"`
}

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

// Export reads the user's holdings, divestments and dividends as one consistent snapshot.
func (s *Service) Export(ctx context.Context, userID uuid.UUID) (*Document, error) {
	unlock := s.Locks.RLock(userID)
	defer unlock()

	doc := &Document{Version: FormatVersion, ExportDate: s.now()}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if doc.Holdings, err = holdings.ListAll(tx, userID); err != nil {
			return err
		}
		if doc.Divestments, err = divestments.ListAll(tx, userID); err != nil {
			return err
		}
		doc.Dividends, err = dividends.ListAll(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Import replaces the user's whole data set with doc. Every row gets a fresh id; references
// from dividends and divestments to holdings are remapped. Nothing is written unless the
// whole document validates.
func (s *Service) Import(ctx context.Context, userID uuid.UUID, doc *Document) (ImportResult, error) {
	if reasons := validateDocument(doc); len(reasons) > 0 {
		return ImportResult{}, domain.Validation(reasons)
	}

	ids := map[uuid.UUID]uuid.UUID{}
	remap := func(old uuid.UUID) uuid.UUID {
		if id, ok := ids[old]; ok {
			return id
		}
		id := uuid.New()
		ids[old] = id
		return id
	}

	hs := make([]domain.Holding, 0, len(doc.Holdings))
	for _, h := range doc.Holdings {
		h.HoldingID = remap(h.HoldingID)
		h.UserID = userID
		h.Category, _ = domain.ParseCategory(string(h.Category))
		h.Name = validation.SanitizeText(h.Name)
		h.Notes = validation.SanitizeText(h.Notes)
		h.Amount = h.Amount.Round(2)
		h.CurrentValue = h.CurrentValue.Round(2)
		if h.History == nil {
			h.History = datatypes.JSONSlice[domain.Revaluation]{}
		}
		hs = append(hs, h)
	}
	dvs := make([]domain.Divestment, 0, len(doc.Divestments))
	for _, d := range doc.Divestments {
		d.DivestmentID = uuid.New()
		d.UserID = userID
		d.HoldingID = remap(d.HoldingID)
		if d.Reason == "" {
			d.Reason = domain.DefaultDivestmentReason
		}
		d.Derive()
		dvs = append(dvs, d)
	}
	divs := make([]domain.Dividend, 0, len(doc.Dividends))
	for _, d := range doc.Dividends {
		d.DividendID = uuid.New()
		d.UserID = userID
		d.HoldingID = remap(d.HoldingID)
		divs = append(divs, d)
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&domain.Dividend{}, &domain.Divestment{}, &domain.Holding{}} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		if len(hs) > 0 {
			if err := tx.Create(&hs).Error; err != nil {
				return err
			}
		}
		if len(dvs) > 0 {
			if err := tx.Create(&dvs).Error; err != nil {
				return err
			}
		}
		if len(divs) > 0 {
			if err := tx.Create(&divs).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{Holdings: len(hs), Divestments: len(dvs), Dividends: len(divs)}
	log.Info().Str("user_id", userID.String()).Int("holdings", res.Holdings).
		Int("divestments", res.Divestments).Int("dividends", res.Dividends).Msg("backup imported")
	return res, nil
}

func validateDocument(doc *Document) []string {
	if doc == nil {
		return []string{"Backup document is required"}
	}
	var reasons []string
	if doc.Version != FormatVersion {
		reasons = append(reasons, fmt.Sprintf("Unsupported backup version %q", doc.Version))
	}
	for i, h := range doc.Holdings {
		if _, ok := domain.ParseCategory(string(h.Category)); !ok {
			reasons = append(reasons, fmt.Sprintf("holdings[%d]: unknown category %q", i, h.Category))
		}
		if h.Amount.IsNegative() || h.CurrentValue.IsNegative() {
			reasons = append(reasons, fmt.Sprintf("holdings[%d]: amounts cannot be negative", i))
		}
		if h.Quantity.Valid && !h.Quantity.Decimal.IsPositive() {
			reasons = append(reasons, fmt.Sprintf("holdings[%d]: quantity must be greater than zero", i))
		}
	}
	// Gain, tax and net figures are not checked: Import derives them from amount and cost.
	for i, d := range doc.Divestments {
		switch d.Kind {
		case domain.DivestmentTotal:
			// a position revalued to zero is closed for nothing
			if d.DivestedAmount.IsNegative() {
				reasons = append(reasons, fmt.Sprintf("divestments[%d]: divested amount cannot be negative", i))
			}
		case domain.DivestmentPartial:
			if !d.DivestedAmount.IsPositive() {
				reasons = append(reasons, fmt.Sprintf("divestments[%d]: divested amount must be greater than zero", i))
			}
		default:
			reasons = append(reasons, fmt.Sprintf("divestments[%d]: kind must be total or partial", i))
		}
		if d.DivestedCost.IsNegative() {
			reasons = append(reasons, fmt.Sprintf("divestments[%d]: divested cost cannot be negative", i))
		}
	}
	for i, d := range doc.Dividends {
		for _, r := range domain.ValidateDividendAmounts(d.GrossAmount, d.TaxesWithheld) {
			reasons = append(reasons, fmt.Sprintf("dividends[%d]: %s", i, r))
		}
	}
	return reasons
}
