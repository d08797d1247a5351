package dividends

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	dividendsvc "myinvestments-backend/internal/application/dividends"
	"myinvestments-backend/internal/application/holdings"
	"myinvestments-backend/internal/application/portfolio"
	"myinvestments-backend/internal/infrastructure/database"
	"myinvestments-backend/internal/pkg/userlock"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	app    *fiber.App
	ledger *holdings.Service
	user   uuid.UUID
}

func setupDividendsApp(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	locks := userlock.New()
	h := &Handlers{
		Service:   dividendsvc.NewService(db, locks),
		Portfolio: portfolio.NewService(db, locks),
	}
	env := &testEnv{ledger: holdings.NewService(db, locks), user: uuid.New()}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": env.user.String()})
		return c.Next()
	})
	app.Get("/dividends", h.List)
	app.Post("/dividends", h.Record)
	app.Get("/dividends/stats", h.Stats)
	app.Put("/dividends/:id", h.Update)
	app.Delete("/dividends/:id", h.Delete)
	env.app = app
	return env
}

func (e *testEnv) holding(t *testing.T, category string) string {
	h, err := e.ledger.Create(context.Background(), e.user, holdings.CreateInput{
		Name:     "Holding " + category,
		Category: category,
		Date:     "2023-01-01",
		Amount:   decimal.NewNullDecimal(decimal.NewFromInt(2000)),
	})
	require.NoError(t, err)
	return h.HoldingID.String()
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	var result map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return resp, result
}

func TestRecordAndStats(t *testing.T) {
	env := setupDividendsApp(t)
	id := env.holding(t, "etf-dividends")

	resp, result := env.do(t, "POST", "/dividends", map[string]interface{}{
		"holding_id": id, "date": "2024-03-15", "gross_amount": "50", "taxes_withheld": "13",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, result)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, "37", data["net_amount"])
	assert.Equal(t, "Holding etf-dividends", data["holding_name"])

	resp, result = env.do(t, "GET", "/dividends/stats", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	total := result["data"].(map[string]interface{})["total"].(map[string]interface{})
	assert.Equal(t, float64(1), total["count"])
	assert.Equal(t, "50", total["total_gross"])
	assert.Equal(t, "37", total["total_net"])
	byYear := result["data"].(map[string]interface{})["by_year"].(map[string]interface{})
	assert.Contains(t, byYear, "2024")
}

func TestRecord_Rejections(t *testing.T) {
	env := setupDividendsApp(t)
	growth := env.holding(t, "equity")

	resp, _ := env.do(t, "POST", "/dividends", map[string]interface{}{
		"holding_id": growth, "date": "2024-03-15", "gross_amount": "50", "taxes_withheld": "0",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/dividends", map[string]interface{}{
		"holding_id": uuid.New().String(), "date": "2024-03-15", "gross_amount": "50",
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, result := env.do(t, "POST", "/dividends", map[string]interface{}{
		"holding_id": growth, "gross_amount": "10", "taxes_withheld": "10",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	reasons := result["error"].(map[string]interface{})["details"].(map[string]interface{})["reasons"].([]interface{})
	assert.Len(t, reasons, 2)
}

func TestUpdateDelete(t *testing.T) {
	env := setupDividendsApp(t)
	id := env.holding(t, "reit")
	resp, result := env.do(t, "POST", "/dividends", map[string]interface{}{
		"holding_id": id, "date": "2024-03-15", "gross_amount": "20",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	divID := result["data"].(map[string]interface{})["dividend_id"].(string)

	resp, result = env.do(t, "PUT", "/dividends/"+divID, map[string]interface{}{"notes": "Q1 payout"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Q1 payout", result["data"].(map[string]interface{})["notes"])

	resp, _ = env.do(t, "DELETE", "/dividends/"+divID, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, result = env.do(t, "GET", "/dividends", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, result["data"])

	resp, _ = env.do(t, "PUT", "/dividends/bogus", map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
