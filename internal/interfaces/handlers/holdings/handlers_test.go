package holdings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"myinvestments-backend/internal/application/divestments"
	"myinvestments-backend/internal/application/dividends"
	holdingsvc "myinvestments-backend/internal/application/holdings"
	"myinvestments-backend/internal/infrastructure/database"
	"myinvestments-backend/internal/infrastructure/quotes"
	"myinvestments-backend/internal/middleware"
	"myinvestments-backend/internal/pkg/userlock"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupHoldingsApp(t *testing.T) *fiber.App {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	locks := userlock.New()
	ledger := holdingsvc.NewService(db, locks)
	h := &Handlers{
		Service:     ledger,
		Dividends:   dividends.NewService(db, locks),
		Divestments: divestments.NewService(db, locks, ledger, quotes.NewMemoryStore(time.Minute)),
	}

	userID := uuid.New().String()
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": userID})
		return c.Next()
	})
	app.Get("/holdings", h.List)
	app.Post("/holdings", h.Create)
	app.Get("/holdings/eligible-for-dividends", h.EligibleForDividends)
	app.Get("/holdings/:id", h.Get)
	app.Put("/holdings/:id", h.Update)
	app.Delete("/holdings/:id", h.Delete)
	app.Post("/holdings/:id/revalue", h.Revalue)
	app.Get("/holdings/:id/dividends", h.ListDividends)
	app.Get("/holdings/:id/divestments", h.ListDivestments)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var result map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return resp, result
}

func create(t *testing.T, app *fiber.App, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	resp, result := do(t, app, "POST", "/holdings", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, result)
	return result["data"].(map[string]interface{})
}

func TestCreateAndGet(t *testing.T) {
	app := setupHoldingsApp(t)
	data := create(t, app, map[string]interface{}{
		"name": "World ETF", "category": "etf", "date": "2024-01-15", "amount": 1000,
	})
	assert.Equal(t, "World ETF", data["name"])
	assert.Equal(t, "1000", data["current_value"])
	assert.Equal(t, "0", data["performance"])
	assert.Equal(t, false, data["pays_dividends"])

	resp, result := do(t, app, "GET", "/holdings/"+data["holding_id"].(string), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "World ETF", result["data"].(map[string]interface{})["name"])
}

func TestCreate_DerivedMode(t *testing.T) {
	app := setupHoldingsApp(t)
	data := create(t, app, map[string]interface{}{
		"name": "Old fund", "category": "fondo", "date": "2020-05-01",
		"is_existing_investment": true, "current_value": "1260", "performance": "26",
	})
	assert.Equal(t, "fund", data["category"])
	assert.Equal(t, "1000", data["amount"])
	assert.Equal(t, "26", data["performance"])
}

func TestCreate_ValidationListsEveryReason(t *testing.T) {
	app := setupHoldingsApp(t)
	resp, result := do(t, app, "POST", "/holdings", map[string]interface{}{"name": "x", "category": "crypto"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	errObj := result["error"].(map[string]interface{})
	assert.Equal(t, "Validation failed", errObj["message"])
	reasons := errObj["details"].(map[string]interface{})["reasons"].([]interface{})
	assert.GreaterOrEqual(t, len(reasons), 3)
}

func TestGet_NotFoundAndBadID(t *testing.T) {
	app := setupHoldingsApp(t)
	resp, result := do(t, app, "GET", "/holdings/"+uuid.New().String(), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Holding not found", result["error"].(map[string]interface{})["message"])

	resp, _ = do(t, app, "GET", "/holdings/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRevalueUpdateDelete(t *testing.T) {
	app := setupHoldingsApp(t)
	id := create(t, app, map[string]interface{}{
		"name": "REIT", "category": "reit", "date": "2024-01-15", "amount": 500,
	})["holding_id"].(string)

	resp, result := do(t, app, "POST", "/holdings/"+id+"/revalue", map[string]interface{}{"value": "550.5", "note": "Q1"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, "550.5", data["current_value"])
	assert.Equal(t, "50.5", data["gain_loss"])
	assert.Len(t, data["history"], 1)

	resp, _ = do(t, app, "POST", "/holdings/"+id+"/revalue", map[string]interface{}{"value": -1})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, result = do(t, app, "PUT", "/holdings/"+id, map[string]interface{}{"name": "Renamed REIT"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed REIT", result["data"].(map[string]interface{})["name"])

	resp, _ = do(t, app, "DELETE", "/holdings/"+id, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = do(t, app, "GET", "/holdings/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestEligibleAndListings(t *testing.T) {
	app := setupHoldingsApp(t)
	create(t, app, map[string]interface{}{"name": "Growth", "category": "equity", "date": "2024-01-01", "amount": 100})
	id := create(t, app, map[string]interface{}{
		"name": "Payer", "category": "equity-dividends", "date": "2024-01-01", "amount": 100,
	})["holding_id"].(string)

	resp, result := do(t, app, "GET", "/holdings/eligible-for-dividends", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	eligible := result["data"].([]interface{})
	require.Len(t, eligible, 1)
	assert.Equal(t, id, eligible[0].(map[string]interface{})["holding_id"])

	resp, result = do(t, app, "GET", "/holdings", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, result["data"], 2)

	resp, result = do(t, app, "GET", "/holdings/"+id+"/dividends", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, result["data"])

	resp, result = do(t, app, "GET", "/holdings/"+id+"/divestments", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, result["data"])
}

func TestRequiresSessionUser(t *testing.T) {
	h := &Handlers{}
	app := fiber.New()
	app.Get("/holdings", middleware.RequireAuth(), h.List)
	resp, err := app.Test(httptest.NewRequest("GET", "/holdings", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
