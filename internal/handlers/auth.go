package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rafiqulislamrabbii/expensetracker/internal/auth"
	"github.com/rafiqulislamrabbii/expensetracker/internal/rate"
	"github.com/rafiqulislamrabbii/expensetracker/internal/security"
	"github.com/rafiqulislamrabbii/expensetracker/internal/storage"
	"github.com/rafiqulislamrabbii/expensetracker/internal/validation"
)

// refreshTokenCookie is the HttpOnly cookie carrying the refresh token.
// The browser client never reads it; it rides along on /api/auth/refresh.
const refreshTokenCookie = "refreshToken"

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// UserStore is the slice of the credential store the auth handler needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*storage.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*storage.User, error)
	CreateUser(ctx context.Context, name, email, passwordHash, currency, language string) (*storage.User, error)
}

type AuthHandler struct {
	store        UserStore
	logger       *slog.Logger
	issuer       *auth.Issuer
	verifier     *auth.Verifier
	limiter      rate.Limiter
	metrics      *Metrics
	argon        security.Argon2Params
	clock        Clock
	cookieSecure bool
}

func NewAuthHandler(store UserStore, logger *slog.Logger, issuer *auth.Issuer, verifier *auth.Verifier, limiter rate.Limiter, metrics *Metrics, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		store:        store,
		logger:       logger,
		issuer:       issuer,
		verifier:     verifier,
		limiter:      limiter,
		metrics:      metrics,
		argon:        security.DefaultArgon2Params(),
		clock:        realClock{},
		cookieSecure: cookieSecure,
	}
}

// WithClock swaps the time source; tests use it to pin token lifetimes.
func (h *AuthHandler) WithClock(clock Clock) *AuthHandler {
	h.clock = clock
	return h
}

func (h *AuthHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/api/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	g.GET("/me", auth.Middleware(h.verifier), h.Me)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Currency string `json:"currency"`
	Language string `json:"language"`
}

type userJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
	Language string `json:"language"`
}

func toUserJSON(u *storage.User) userJSON {
	return userJSON{
		ID:       u.ID.String(),
		Name:     u.Name,
		Email:    u.Email,
		Currency: u.Currency,
		Language: u.Language,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	in, errs := validation.ValidateRegister(validation.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Currency: req.Currency,
		Language: req.Language,
	})
	if len(errs) > 0 {
		respondValidationError(c, errs)
		return
	}

	hash, err := security.HashPassword(in.Password, h.argon)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), in.Name, in.Email, hash, in.Currency, in.Language)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			respondError(c, http.StatusBadRequest, "email already registered")
			return
		}
		h.logger.Error("create user", "error", err)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	access, refresh, err := h.issuer.IssueTokenPair(user.ID.String(), h.clock.Now())
	if err != nil {
		h.logger.Error("issue tokens", "error", err)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	h.metrics.Registrations.Inc()
	h.setRefreshCookie(c, refresh)
	h.logger.Info("user registered", "user_id", user.ID)
	respondOK(c, gin.H{"user": toUserJSON(user), "accessToken": access})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	in, errs := validation.ValidateLogin(validation.LoginInput{Email: req.Email, Password: req.Password})
	if len(errs) > 0 {
		respondValidationError(c, errs)
		return
	}

	allowed, retryAfter, err := h.limiter.Allow(c.Request.Context(), c.ClientIP(), h.clock.Now())
	if err != nil {
		h.logger.Warn("rate limiter unavailable", "error", err)
	} else if !allowed {
		c.Header("Retry-After", retryAfter.Round(time.Second).String())
		h.metrics.LoginAttempts.WithLabelValues("throttled").Inc()
		respondError(c, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), in.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.metrics.LoginAttempts.WithLabelValues("failure").Inc()
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("lookup user", "error", err)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	ok, err := security.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil || !ok {
		h.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	access, refresh, err := h.issuer.IssueTokenPair(user.ID.String(), h.clock.Now())
	if err != nil {
		h.logger.Error("issue tokens", "error", err)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	h.metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.setRefreshCookie(c, refresh)
	h.logger.Info("user logged in", "user_id", user.ID)
	respondOK(c, gin.H{"user": toUserJSON(user), "accessToken": access})
}

// Refresh mints a new access token from the cookie-borne refresh token.
// The refresh token itself is left untouched, so repeated calls within
// its lifetime keep succeeding.
func (h *AuthHandler) Refresh(c *gin.Context) {
	cookie, err := c.Cookie(refreshTokenCookie)
	if err != nil || cookie == "" {
		respondError(c, http.StatusUnauthorized, "missing refresh token")
		return
	}

	claims, err := h.verifier.VerifyRefresh(cookie)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	access, err := h.issuer.IssueAccessToken(claims.UserID, h.clock.Now())
	if err != nil {
		h.logger.Error("issue access token", "error", err)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	respondOK(c, gin.H{"accessToken": access})
}

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "invalid token")
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(c, http.StatusUnauthorized, "invalid token")
			return
		}
		h.logger.Error("lookup user", "error", err)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	respondOK(c, gin.H{"user": toUserJSON(user)})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearRefreshCookie(c)
	respondOK(c, gin.H{"message": "logged out"})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshTokenCookie, token, int(h.issuer.RefreshTTL().Seconds()), "/", "", h.cookieSecure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", h.cookieSecure, true)
}
