package holdings

import (
	"context"
	"testing"
	"time"

	"myinvestments-backend/internal/domain"
	"myinvestments-backend/internal/infrastructure/database"
	"myinvestments-backend/internal/pkg/userlock"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupHoldingsTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return NewService(db, userlock.New()), db
}

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestCreate_DirectMode(t *testing.T) {
	svc, _ := setupHoldingsTest(t)
	user := uuid.New()

	h, err := svc.Create(context.Background(), user, CreateInput{
		Name:     "  MSCI World ",
		Category: "etf",
		Date:     "2024-01-15",
		Amount:   amount("1000"),
		Quantity: amount("12.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "MSCI World", h.Name)
	assert.Equal(t, domain.CategoryETF, h.Category)
	assertDec(t, "1000", h.Amount)
	assertDec(t, "1000", h.CurrentValue)
	assert.False(t, h.IsExistingInvestment)
	assert.Empty(t, h.History)
}

func TestCreate_DerivedMode(t *testing.T) {
	svc, _ := setupHoldingsTest(t)
	h, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Name:                 "Legacy fund",
		Category:             "fondo",
		Date:                 "2020-06-01",
		CurrentValue:         amount("1260"),
		Performance:          amount("26"),
		IsExistingInvestment: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryFund, h.Category)
	assertDec(t, "1000", h.Amount)
	assertDec(t, "1260", h.CurrentValue)
	assert.True(t, h.IsExistingInvestment)
	require.True(t, h.InitialPerformance.Valid)
	assertDec(t, "26", h.InitialPerformance.Decimal)
	require.Len(t, h.History, 1)
	assert.Equal(t, "Initial value entered (+26.00% since purchase)", h.History[0].Note)
}

func TestCreate_DerivedModeDegenerate(t *testing.T) {
	svc, _ := setupHoldingsTest(t)
	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Name:                 "Wiped out",
		Category:             "equity",
		Date:                 "2020-06-01",
		CurrentValue:         amount("10"),
		Performance:          amount("-100"),
		IsExistingInvestment: true,
	})
	assert.ErrorIs(t, err, domain.ErrDivisionDegenerate)
}

func TestCreate_DerivedModeBelowTotalLoss(t *testing.T) {
	svc, db := setupHoldingsTest(t)
	user := uuid.New()
	for _, perf := range []string{"-200", "-100.01", "-1000"} {
		h, err := svc.Create(context.Background(), user, CreateInput{
			Name:                 "Leveraged note",
			Category:             "bond",
			Date:                 "2021-02-01",
			CurrentValue:         amount("100"),
			Performance:          amount(perf),
			IsExistingInvestment: true,
		})
		assert.Nil(t, h, perf)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, perf)
		assert.Equal(t, []string{"Performance must be greater than -100%"}, verr.Reasons)
	}

	var count int64
	require.NoError(t, db.Model(&domain.Holding{}).Where("user_id = ?", user).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreate_CollectsEveryReason(t *testing.T) {
	svc, db := setupHoldingsTest(t)
	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Name:     "x",
		Category: "crypto",
		Amount:   amount("0"),
		Quantity: amount("-1"),
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Reasons, 5)

	_, err = svc.Create(context.Background(), uuid.New(), CreateInput{
		Name:                 "Ok name",
		Category:             "bond",
		Date:                 "2020-01-01",
		CurrentValue:         amount("100"),
		Performance:          amount("1000.01"),
		IsExistingInvestment: true,
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Performance must be between -1000% and 1000%"}, verr.Reasons)

	var count int64
	db.Model(&domain.Holding{}).Count(&count)
	assert.Zero(t, count)
}

func TestList_ScopedToUserNewestFirst(t *testing.T) {
	svc, _ := setupHoldingsTest(t)
	ctx := context.Background()
	user, other := uuid.New(), uuid.New()
	for _, name := range []string{"First", "Second"} {
		_, err := svc.Create(ctx, user, CreateInput{Name: name, Category: "etf", Date: "2024-01-01", Amount: amount("10")})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, other, CreateInput{Name: "Theirs", Category: "etf", Date: "2024-01-01", Amount: amount("10")})
	require.NoError(t, err)

	hs, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	for _, h := range hs {
		assert.Equal(t, user, h.UserID)
	}
}

func TestGet_OtherUsersHoldingIsNotFound(t *testing.T) {
	svc, _ := setupHoldingsTest(t)
	ctx := context.Background()
	h, err := svc.Create(ctx, uuid.New(), CreateInput{Name: "Mine", Category: "etf", Date: "2024-01-01", Amount: amount("10")})
	require.NoError(t, err)

	_, err = svc.Get(ctx, uuid.New(), h.HoldingID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRevalue_AppendsAndPersists(t *testing.T) {
	svc, _ := setupHoldingsTest(t)
	ctx := context.Background()
	user := uuid.New()
	h, err := svc.Create(ctx, user, CreateInput{Name: "Gold ETC", Category: "etf", Date: "2024-01-01", Amount: amount("1000")})
	require.NoError(t, err)

	_, err = svc.Revalue(ctx, user, h.HoldingID, RevalueInput{Value: amount("1100"), Date: "2024-02-01", Note: "Feb"})
	require.NoError(t, err)
	got, err := svc.Revalue(ctx, user, h.HoldingID, RevalueInput{Value: amount("1200")})
	require.NoError(t, err)
	assertDec(t, "1200", got.CurrentValue)

	stored, err := svc.Get(ctx, user, h.HoldingID)
	require.NoError(t, err)
	assertDec(t, "1200", stored.CurrentValue)
	require.Len(t, stored.History, 2)
	assert.Equal(t, "Feb", stored.History[0].Note)
	assertDec(t, "1000", stored.Amount)
}

func TestRevalue_Errors(t *testing.T) {
	svc, _ := setupHoldingsTest(t)
	ctx := context.Background()
	_, err := svc.Revalue(ctx, uuid.New(), uuid.New(), RevalueInput{Value: amount("5")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Revalue(ctx, uuid.New(), uuid.New(), RevalueInput{Value: amount("-5"), Date: "nope"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Reasons, 2)
}

func TestUpdate_OnlyWhitelistedFields(t *testing.T) {
	svc, _ := setupHoldingsTest(t)
	ctx := context.Background()
	user := uuid.New()
	h, err := svc.Create(ctx, user, CreateInput{Name: "Old name", Category: "equity", Date: "2024-01-01", Amount: amount("500")})
	require.NoError(t, err)

	name, category, notes := "New <i>name</i>", "reit", "moved to REIT"
	got, err := svc.Update(ctx, user, h.HoldingID, UpdateInput{Name: &name, Category: &category, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "New name", got.Name)
	assert.Equal(t, domain.CategoryREIT, got.Category)
	assert.Equal(t, "moved to REIT", got.Notes)
	assertDec(t, "500", got.Amount)
	assert.Equal(t, user, got.UserID)

	bad := "gold"
	_, err = svc.Update(ctx, user, h.HoldingID, UpdateInput{Category: &bad})
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestRemove_CascadesRecords(t *testing.T) {
	svc, db := setupHoldingsTest(t)
	ctx := context.Background()
	user := uuid.New()
	h, err := svc.Create(ctx, user, CreateInput{Name: "Dividend king", Category: "equity-dividends", Date: "2024-01-01", Amount: amount("1000")})
	require.NoError(t, err)
	keep, err := svc.Create(ctx, user, CreateInput{Name: "Keeper", Category: "reit", Date: "2024-01-01", Amount: amount("100")})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&domain.Dividend{UserID: user, HoldingID: h.HoldingID, HoldingName: h.Name,
			Date: time.Now(), GrossAmount: decimal.NewFromInt(10)}).Error)
	}
	require.NoError(t, db.Create(&domain.Dividend{UserID: user, HoldingID: keep.HoldingID, HoldingName: keep.Name,
		Date: time.Now(), GrossAmount: decimal.NewFromInt(10)}).Error)
	require.NoError(t, db.Create(&domain.Divestment{UserID: user, HoldingID: h.HoldingID, HoldingName: h.Name,
		Kind: domain.DivestmentPartial, Date: time.Now(), Reason: "sale"}).Error)

	require.NoError(t, svc.Remove(ctx, user, h.HoldingID))

	var dividends, divestments, holdings int64
	db.Model(&domain.Dividend{}).Count(&dividends)
	db.Model(&domain.Divestment{}).Count(&divestments)
	db.Model(&domain.Holding{}).Count(&holdings)
	assert.Equal(t, int64(1), dividends)
	assert.Zero(t, divestments)
	assert.Equal(t, int64(1), holdings)

	assert.ErrorIs(t, svc.Remove(ctx, user, h.HoldingID), domain.ErrNotFound)
}

func TestApplyPartialDivestment_PersistsReduction(t *testing.T) {
	svc, db := setupHoldingsTest(t)
	ctx := context.Background()
	user := uuid.New()
	h, err := svc.Create(ctx, user, CreateInput{Name: "Growth", Category: "equity", Date: "2024-01-01",
		Amount: amount("1000"), CurrentValue: amount("1500"), Quantity: amount("10")})
	require.NoError(t, err)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.ApplyPartialDivestment(tx, h, decimal.NewFromInt(600), decimal.NewFromInt(400), time.Now())
	}))

	got, err := svc.Get(ctx, user, h.HoldingID)
	require.NoError(t, err)
	assertDec(t, "600", got.Amount)
	assertDec(t, "900", got.CurrentValue)
	assertDec(t, "6", got.Quantity.Decimal)
	require.Len(t, got.History, 1)

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.ApplyPartialDivestment(tx, got, decimal.NewFromInt(901), decimal.NewFromInt(600), time.Now())
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
