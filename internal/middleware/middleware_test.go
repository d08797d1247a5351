package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c *fiber.Ctx) error { return c.SendString("ok") }

func TestTracing(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get(traceIDHeader))
	assert.NoError(t, err)

	incoming := uuid.New().String()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(traceIDHeader, incoming)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, incoming, resp.Header.Get(traceIDHeader))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(traceIDHeader, "<script>")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "<script>", resp.Header.Get(traceIDHeader))
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".myinvestments.app", DevPassword: "letmein"}))
	app.Get("/x", okHandler)

	cases := []struct {
		name   string
		method string
		origin string
		devPw  string
		want   int
	}{
		{"no origin", "GET", "", "", 200},
		{"suffix match", "GET", "https://web.myinvestments.app", "", 200},
		{"foreign origin", "GET", "https://evil.example", "", 403},
		{"dev password", "GET", "https://evil.example", "letmein", 200},
		{"localhost preflight", "OPTIONS", "http://localhost:5173", "", 204},
		{"localhost without password", "GET", "http://localhost:5173", "", 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/x", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.devPw != "" {
				req.Header.Set("dev-password", tc.devPw)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
			if tc.want != 403 && tc.origin != "" {
				assert.Equal(t, tc.origin, resp.Header.Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(2))
	app.Get("/login", okHandler)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRequireAuthAndUserID(t *testing.T) {
	uid := uuid.New()
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-Test-User"); v != "" {
			c.Locals(userLocal, map[string]interface{}{"user_id": v})
		}
		return c.Next()
	})
	app.Get("/me", RequireAuth(), func(c *fiber.Ctx) error {
		id, _ := UserID(c)
		return c.SendString(id.String())
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("X-Test-User", "not-a-uuid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("X-Test-User", uid.String())
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealthMarker(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	app := fiber.New()
	app.Use(HealthMarker(rdb))
	app.Get("/ok", okHandler)
	app.Get("/boom", func(c *fiber.Ctx) error { return c.SendStatus(500) })
	app.Get("/health/json", okHandler)

	for _, p := range []string{"/ok", "/boom", "/health/json"} {
		_, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
	}
	total, _ := rdb.Get(ctx, KeyReqTotal).Int()
	failed, _ := rdb.Get(ctx, KeyReqErrors).Int()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, failed)
	n, _ := rdb.LLen(ctx, KeyErrorLog).Result()
	assert.Equal(t, int64(1), n)
}

func TestHealthMarker_NoRedis(t *testing.T) {
	app := fiber.New()
	app.Use(HealthMarker(nil))
	app.Get("/ok", okHandler)
	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestSessionRoundTrip_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(rdb)
	_, isRedis := store.(*RedisSessionStore)
	require.True(t, isRedis)

	app := fiber.New()
	app.Use(Session(store))
	app.Post("/login", func(c *fiber.Ctx) error {
		sid := RegenerateSessionID(c)
		SetSessionUser(c, SessionUser{UserID: uuid.New().String(), Email: "a@b.c"})
		return c.SendString(sid)
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if _, ok := UserID(c); !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	sid := string(body)
	assert.True(t, mr.Exists(SessionRedisPrefix+sid))

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", SessionCookieName+"=s:"+sid)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", SessionCookieName+"=s:"+uuid.New().String())
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionCookieConfig(t *testing.T) {
	c := SessionCookieConfig(SessionConfig{IsProduction: true})
	assert.True(t, c.Secure)
	assert.Equal(t, "Lax", c.SameSite)
	assert.True(t, c.HTTPOnly)

	c = SessionCookieConfig(SessionConfig{AllowCrossSiteDev: true})
	assert.True(t, c.Secure)
	assert.Equal(t, "None", c.SameSite)
}
