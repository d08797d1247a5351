package auth

import (
	"errors"

	authsvc "myinvestments-backend/internal/application/auth"
	"myinvestments-backend/internal/domain"
	"myinvestments-backend/internal/middleware"
	"myinvestments-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service    *authsvc.Service
	UserFinder authsvc.UserFinder
	Sessions   middleware.SessionStore
	Config     middleware.SessionConfig
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register POST /api/v1/auth/register: create the account and log it in.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	user, err := h.Service.Register(c.Context(), authsvc.RegisterInput{
		Fullname: req.Fullname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, authsvc.ErrEmailTaken) {
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		}
		return response.DomainError(c, err)
	}
	shape := h.startSession(c, user)
	return response.SuccessCreated(c, "Registration successful", fiber.Map{"user": shape}, nil)
}

// Login POST /api/v1/auth/login: authenticate, start a fresh session, set cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}
	if req.Email == "" || req.Password == "" {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}

	user, err := h.UserFinder.FindByEmailAndPassword(c.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailPasswordRequired):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, authsvc.ErrInvalidCredentials):
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			log.Error().Err(err).Msg("login lookup failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	shape := h.startSession(c, user)
	return response.Success(c, "Login successful", fiber.Map{"user": shape}, nil)
}

func (h *Handlers) startSession(c *fiber.Ctx, user *domain.User) authsvc.SessionUserShape {
	// Drop whatever session the client came with
	if old := middleware.GetSessionID(c); old != "" && h.Sessions != nil {
		_ = h.Sessions.Destroy(c.Context(), old)
	}
	sessionID := middleware.RegenerateSessionID(c)
	shape := authsvc.SessionUserShape{
		UserID:   user.UserID.String(),
		Fullname: user.Fullname,
		Email:    user.Email,
	}
	middleware.SetSessionUser(c, middleware.SessionUser(shape))

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)
	return shape
}

// Me GET /api/v1/auth/me: return current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		log.Debug().Str("path", c.Path()).Bool("session_present", middleware.GetSessionID(c) != "").
			Msg("auth/me: not authenticated")
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout: destroy the stored session and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if sessionID := middleware.GetSessionID(c); sessionID != "" && h.Sessions != nil {
		if err := h.Sessions.Destroy(c.Context(), sessionID); err != nil {
			log.Warn().Err(err).Msg("session destroy failed")
		}
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}
