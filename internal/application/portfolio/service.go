package portfolio

import (
	"context"

	"myinvestments-backend/internal/application/divestments"
	"myinvestments-backend/internal/application/dividends"
	"myinvestments-backend/internal/application/holdings"
	"myinvestments-backend/internal/domain"
	"myinvestments-backend/internal/pkg/userlock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service reads one user's ledger and records under the user's shared lock so a report never
// observes half of a mutation.
type Service struct {
	DB    *gorm.DB
	Locks *userlock.Locker
}

func NewService(db *gorm.DB, locks *userlock.Locker) *Service {
	return &Service{DB: db, Locks: locks}
}

type snapshot struct {
	holdings    []domain.Holding
	divestments []domain.Divestment
	dividends   []domain.Dividend
}

func (s *Service) load(ctx context.Context, userID uuid.UUID, wantHoldings, wantDivestments, wantDividends bool) (snapshot, error) {
	unlock := s.Locks.RLock(userID)
	defer unlock()

	var snap snapshot
	db := s.DB.WithContext(ctx)
	var err error
	if wantHoldings {
		if snap.holdings, err = holdings.ListAll(db, userID); err != nil {
			return snap, err
		}
	}
	if wantDivestments {
		if snap.divestments, err = divestments.ListAll(db, userID); err != nil {
			return snap, err
		}
	}
	if wantDividends {
		if snap.dividends, err = dividends.ListAll(db, userID); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (domain.Summary, error) {
	snap, err := s.load(ctx, userID, true, true, true)
	if err != nil {
		return domain.Summary{}, err
	}
	return Summarize(snap.holdings, snap.divestments, snap.dividends), nil
}

func (s *Service) DivestmentStats(ctx context.Context, userID uuid.UUID) (domain.DivestmentStats, error) {
	snap, err := s.load(ctx, userID, false, true, false)
	if err != nil {
		return domain.DivestmentStats{}, err
	}
	return SummarizeDivestments(snap.divestments), nil
}

func (s *Service) DividendStats(ctx context.Context, userID uuid.UUID) (domain.DividendStats, error) {
	snap, err := s.load(ctx, userID, false, false, true)
	if err != nil {
		return domain.DividendStats{}, err
	}
	return SummarizeDividends(snap.dividends), nil
}
