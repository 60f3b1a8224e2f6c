package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heysagnik/chikki/internal/api/middleware"
	"github.com/heysagnik/chikki/internal/domain/auth"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionData is returned by register and login.
type SessionData struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

// ProfileData is returned by GET /api/auth/me.
type ProfileData struct {
	User auth.User `json:"user"`
}

// Register creates an account.
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.authEvent("register", "invalid")
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	token, user, err := h.accounts.Register(req.Name, req.Email, req.Password)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			h.authEvent("register", "invalid")
			fail(c, http.StatusBadRequest, verr.Error())
		case errors.Is(err, auth.ErrEmailTaken):
			h.authEvent("register", "conflict")
			fail(c, http.StatusConflict, err.Error())
		default:
			h.authEvent("register", "error")
			h.logger.Error("register failed",
				zap.String("request_id", middleware.GetRequestID(c)),
				zap.Error(err),
			)
			fail(c, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	h.authEvent("register", "success")
	ok(c, http.StatusCreated, SessionData{Token: token, User: user})
}

// Login opens a session.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.authEvent("login", "invalid")
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	token, user, err := h.accounts.Login(req.Email, req.Password)
	if err != nil {
		h.authEvent("login", "failure")
		if errors.Is(err, auth.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		fail(c, http.StatusInternalServerError, "Login failed")
		return
	}

	h.authEvent("login", "success")
	ok(c, http.StatusOK, SessionData{Token: token, User: user})
}

// Me returns the user behind the bearer token.
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.accounts.Authenticate(bearerToken(c))
	if err != nil {
		h.authEvent("profile", "unauthorized")
		fail(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	h.authEvent("profile", "success")
	ok(c, http.StatusOK, ProfileData{User: user})
}

func (h *Handlers) authEvent(event, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordAuthEvent(event, outcome)
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
