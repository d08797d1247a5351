package divestments

import (
	"context"
	"errors"
	"strings"
	"time"

	"myinvestments-backend/internal/application/holdings"
	"myinvestments-backend/internal/domain"
	"myinvestments-backend/internal/infrastructure/quotes"
	"myinvestments-backend/internal/pkg/userlock"
	"myinvestments-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service runs the quote-then-confirm divestment protocol and owns divestment records.
type Service struct {
	DB     *gorm.DB
	Locks  *userlock.Locker
	Ledger *holdings.Service
	Quotes quotes.Store
	Now    func() time.Time
}

func NewService(db *gorm.DB, locks *userlock.Locker, ledger *holdings.Service, store quotes.Store) *Service {
	return &Service{DB: db, Locks: locks, Ledger: ledger, Quotes: store}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type QuoteInput struct {
	HoldingID uuid.UUID
	Kind      string
	Amount    decimal.NullDecimal
	Date      string
	Reason    string
	Notes     string
}

// Quote prices a divestment and stores it as the user's pending quote, replacing any earlier one.
// The ledger is not touched.
func (s *Service) Quote(ctx context.Context, userID uuid.UUID, in QuoteInput) (domain.Quote, error) {
	var reasons []string
	if in.HoldingID == uuid.Nil {
		reasons = append(reasons, "Holding is required")
	}
	kind := domain.DivestmentKind(strings.ToLower(strings.TrimSpace(in.Kind)))
	if !kind.Valid() {
		reasons = append(reasons, "Kind must be total or partial")
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
		return domain.Quote{}, err
	}
	reason := validation.SanitizeText(in.Reason)
	if reason == "" {
		reason = domain.DefaultDivestmentReason
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()

	h, err := holdings.Find(s.DB.WithContext(ctx), userID, in.HoldingID)
	if err != nil {
		return domain.Quote{}, err
	}
	q, err := domain.ComputeQuote(h, kind, in.Amount.Decimal)
	if err != nil {
		return domain.Quote{}, err
	}
	q.Date = date
	q.Reason = reason
	q.Notes = validation.SanitizeText(in.Notes)
	q.QuotedAt = now
	if err := s.Quotes.Put(ctx, q); err != nil {
		return domain.Quote{}, err
	}
	return q, nil
}

// Pending returns the user's pending quote or domain.ErrNoPendingQuote.
func (s *Service) Pending(ctx context.Context, userID uuid.UUID) (domain.Quote, error) {
	return s.Quotes.Get(ctx, userID)
}

// Discard drops the pending quote, if any.
func (s *Service) Discard(ctx context.Context, userID uuid.UUID) error {
	return s.Quotes.Delete(ctx, userID)
}

// Confirm applies the pending quote: the divestment record is inserted and the holding is
// deleted or reduced in one transaction. The holding is re-read first; a quote whose holding
// vanished or changed is discarded.
func (s *Service) Confirm(ctx context.Context, userID uuid.UUID) (*domain.Divestment, error) {
	unlock := s.Locks.Lock(userID)
	defer unlock()

	q, err := s.Quotes.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var rec *domain.Divestment
	stale := false
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		h, err := holdings.Find(tx, userID, q.HoldingID)
		if err != nil {
			return err
		}
		if q.Stale(h) {
			stale = true
			return domain.InvalidAmount("holding changed since the quote was computed; request a new quote")
		}
		rec = q.Record()
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		if q.ClosesPosition() {
			return s.Ledger.Retire(tx, h)
		}
		return s.Ledger.ApplyPartialDivestment(tx, h, q.DivestedAmount, q.DivestedCost, q.Date)
	})
	if err != nil {
		if stale || errors.Is(err, domain.ErrNotFound) {
			s.discardQuietly(ctx, userID)
		}
		return nil, err
	}
	s.discardQuietly(ctx, userID)

	log.Info().Str("user_id", userID.String()).Str("holding_id", rec.HoldingID.String()).
		Str("divestment_id", rec.DivestmentID.String()).Str("kind", string(rec.Kind)).
		Str("net_cash", rec.NetCash.String()).Msg("divestment confirmed")
	return rec, nil
}

func (s *Service) discardQuietly(ctx context.Context, userID uuid.UUID) {
	if err := s.Quotes.Delete(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to clear pending quote")
	}
}

// List returns every divestment of the user, most recent date first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Divestment, error) {
	unlock := s.Locks.RLock(userID)
	defer unlock()
	return ListAll(s.DB.WithContext(ctx), userID)
}

func ListAll(db *gorm.DB, userID uuid.UUID) ([]domain.Divestment, error) {
	var ds []domain.Divestment
	if err := db.Where("user_id = ?", userID).Order("date DESC, created_at DESC").Find(&ds).Error; err != nil {
		return nil, err
	}
	return ds, nil
}

// ListByHolding returns the records taken from one holding, which may no longer exist.
func (s *Service) ListByHolding(ctx context.Context, userID, holdingID uuid.UUID) ([]domain.Divestment, error) {
	unlock := s.Locks.RLock(userID)
	defer unlock()
	var ds []domain.Divestment
	err := s.DB.WithContext(ctx).Where("user_id = ? AND holding_id = ?", userID, holdingID).
		Order("date DESC, created_at DESC").Find(&ds).Error
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func find(db *gorm.DB, userID, id uuid.UUID) (*domain.Divestment, error) {
	var d domain.Divestment
	err := db.Where("divestment_id = ? AND user_id = ?", id, userID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("Divestment", id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateInput lists the editable fields. Financial figures of a divestment never change.
type UpdateInput struct {
	Date   *string
	Reason *string
	Notes  *string
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in UpdateInput) (*domain.Divestment, error) {
	changes := map[string]interface{}{}
	var reasons []string
	if in.Date != nil {
		d, ok := validation.ParseDate(*in.Date)
		if !ok {
			reasons = append(reasons, "Date must be YYYY-MM-DD")
		}
		changes["date"] = d
	}
	if in.Reason != nil {
		r := validation.SanitizeText(*in.Reason)
		if r == "" {
			r = domain.DefaultDivestmentReason
		}
		changes["reason"] = r
	}
	if in.Notes != nil {
		changes["notes"] = validation.SanitizeText(*in.Notes)
	}
	if err := domain.Validation(reasons); err != nil {
		return nil, err
	}

	unlock := s.Locks.Lock(userID)
	defer unlock()

	var d *domain.Divestment
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

// Delete removes the record only; the originating holding is not restored.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	unlock := s.Locks.Lock(userID)
	defer unlock()
	res := s.DB.WithContext(ctx).Where("divestment_id = ? AND user_id = ?", id, userID).Delete(&domain.Divestment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("Divestment", id)
	}
	log.Info().Str("user_id", userID.String()).Str("divestment_id", id.String()).Msg("divestment deleted")
	return nil
}
