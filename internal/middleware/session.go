package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig controls the session cookie flags.
type SessionConfig struct {
	Secret            string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "myinv.sid"
	SessionRedisPrefix = "session:"
	sessionMaxAge      = 24 * time.Hour
)

// SessionUser is the shape stored in session under "user".
type SessionUser struct {
	UserID   string `json:"user_id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

// SessionStore persists session data by session id.
type SessionStore interface {
	Load(ctx context.Context, sid string) (map[string]interface{}, error)
	Save(ctx context.Context, sid string, data map[string]interface{}) error
	Destroy(ctx context.Context, sid string) error
}

// RedisSessionStore keeps sessions as JSON under "session:<id>".
type RedisSessionStore struct {
	Rdb *redis.Client
}

func (s *RedisSessionStore) Load(ctx context.Context, sid string) (map[string]interface{}, error) {
	b, err := s.Rdb.Get(ctx, SessionRedisPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sid string, data map[string]interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.Rdb.Set(ctx, SessionRedisPrefix+sid, b, sessionMaxAge).Err()
}

func (s *RedisSessionStore) Destroy(ctx context.Context, sid string) error {
	return s.Rdb.Del(ctx, SessionRedisPrefix+sid).Err()
}

// MemorySessionStore is the single-process fallback used when no Redis is configured.
type MemorySessionStore struct {
	c *cache.Cache
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{c: cache.New(sessionMaxAge, time.Hour)}
}

func (s *MemorySessionStore) Load(_ context.Context, sid string) (map[string]interface{}, error) {
	v, ok := s.c.Get(sid)
	if !ok {
		return nil, nil
	}
	return v.(map[string]interface{}), nil
}

func (s *MemorySessionStore) Save(_ context.Context, sid string, data map[string]interface{}) error {
	s.c.SetDefault(sid, data)
	return nil
}

func (s *MemorySessionStore) Destroy(_ context.Context, sid string) error {
	s.c.Delete(sid)
	return nil
}

// NewSessionStore picks Redis when a client is available.
func NewSessionStore(rdb *redis.Client) SessionStore {
	if rdb != nil {
		return &RedisSessionStore{Rdb: rdb}
	}
	return NewMemorySessionStore()
}

// Session loads the session named by the cookie into Locals and saves it back after the handler.
func Session(store SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(SessionCookieName)
		// Cookie may be "s:id" or "s:id.signature"; use first part as id
		if strings.HasPrefix(sessionID, "s:") {
			parts := strings.SplitN(sessionID[2:], ".", 2)
			sessionID = parts[0]
		}

		var data map[string]interface{}
		if sessionID != "" {
			loaded, err := store.Load(c.Context(), sessionID)
			if err != nil {
				log.Warn().Err(err).Msg("session load failed")
			}
			data = loaded
		}
		if data == nil {
			data = make(map[string]interface{})
		}

		c.Locals("session_data", data)
		if u, ok := data["user"]; ok {
			c.Locals(userLocal, u)
		} else {
			c.Locals(userLocal, nil)
		}
		c.Locals("session_id", sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		// Persist if we have a session id (e.g. after login) and a user to keep
		sid, _ := c.Locals("session_id").(string)
		updated, _ := c.Locals("session_data").(map[string]interface{})
		if sid != "" && len(updated) > 0 {
			if err := store.Save(context.Background(), sid, updated); err != nil {
				log.Error().Err(err).Msg("session save failed")
			}
		}
		return nil
	}
}

// GetSessionID returns the current session ID from context (for login/logout).
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals("session_id").(string)
	return sid
}

// SetSessionUser sets the user in the session and marks session for save.
// Call after login/register; use RegenerateSessionID first to get a new id.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	data, _ := c.Locals("session_data").(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	data["user"] = map[string]interface{}{
		"user_id":  user.UserID,
		"fullname": user.Fullname,
		"email":    user.Email,
	}
	c.Locals("session_data", data)
	c.Locals(userLocal, data["user"])
}

// RegenerateSessionID creates a new session ID and sets it in Locals (cookie set by handler).
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals("session_id", newID)
	return newID
}

// DestroySession clears user and session data from Locals; caller must clear cookie and store.
func DestroySession(c *fiber.Ctx) {
	c.Locals("session_data", make(map[string]interface{}))
	c.Locals(userLocal, nil)
}

// SessionCookieConfig returns the session cookie options (for SetCookie/ClearCookie).
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	secure := cfg.IsProduction || cfg.AllowCrossSiteDev
	return fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}
