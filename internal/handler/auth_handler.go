package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/repository"
	"github.com/ClareAI/astra-admin-console/pkg/logger"
)

// AuthHandler handles login, refresh and logout
type AuthHandler struct {
	tokens  *auth.TokenService
	users   repository.AdminUserRepository
	revoker *auth.RevocationStore
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(tokens *auth.TokenService, users repository.AdminUserRepository, revoker *auth.RevocationStore) *AuthHandler {
	return &AuthHandler{tokens: tokens, users: users, revoker: revoker}
}

// LoginRequest carries console credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse reports the authenticated user identity
type LoginResponse struct {
	UserID       string  `json:"user_id"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	TenantID     *string `json:"tenant_id"`
	IsGlobalUser bool    `json:"is_global_user"`
}

// Login godoc
// @Summary Log in with email and password
// @Description Verify credentials and set the session cookies
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Console credentials"
// @Success 200 {object} LoginResponse "Logged in"
// @Failure 401 {object} Envelope "Invalid credentials"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, apierr.Unauthorized("Invalid email or password"))
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		writeError(w, err)
		return
	}
	refreshToken, err := h.tokens.IssueRefreshToken(user)
	if err != nil {
		writeError(w, err)
		return
	}
	h.tokens.SetSessionCookies(w, accessToken, refreshToken)

	// A fresh password login ends any earlier logout-everywhere window
	if err := h.revoker.Clear(r.Context(), user.ID); err != nil {
		logger.Base().Warn("failed to clear session revocation", zap.String("user_id", user.ID), zap.Error(err))
	}

	logger.Base().Info("user logged in", zap.String("user_id", user.ID), zap.String("email", user.Email))

	writeJSON(w, http.StatusOK, &LoginResponse{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TenantID:     user.TenantID,
		IsGlobalUser: user.IsGlobal(),
	})
}

// Refresh godoc
// @Summary Refresh the session
// @Description Re-issue the session cookies from a valid refresh cookie
// @Tags auth
// @Produce json
// @Success 200 {object} LoginResponse "Session refreshed"
// @Failure 401 {object} Envelope "Invalid or expired refresh token"
// @Router /api/auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.RefreshCookieName)
	if err != nil {
		writeError(w, apierr.Unauthorized("Missing refresh token"))
		return
	}

	userID, issuedAt, err := h.tokens.ParseRefreshToken(cookie.Value)
	if err != nil {
		writeError(w, apierr.Unauthorized("Invalid refresh token"))
		return
	}
	if h.revoker.IsRevoked(r.Context(), userID, issuedAt) {
		writeError(w, apierr.Unauthorized("Session revoked"))
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, apierr.Unauthorized("User no longer exists"))
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		writeError(w, err)
		return
	}
	refreshToken, err := h.tokens.IssueRefreshToken(user)
	if err != nil {
		writeError(w, err)
		return
	}
	h.tokens.SetSessionCookies(w, accessToken, refreshToken)

	writeJSON(w, http.StatusOK, &LoginResponse{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TenantID:     user.TenantID,
		IsGlobalUser: user.IsGlobal(),
	})
}

// Logout godoc
// @Summary Log out
// @Description Clear the session cookies and revoke outstanding credentials
// @Tags auth
// @Produce json
// @Success 200 {object} Envelope "Logged out"
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionUserID(r); userID != "" {
		if err := h.revoker.Revoke(r.Context(), userID); err != nil {
			logger.Base().Warn("failed to revoke session", zap.String("user_id", userID), zap.Error(err))
		}
	}
	auth.ClearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// sessionUserID extracts the caller's user ID from either cookie so logout
// can revoke credentials on other devices too. Logout stays best-effort;
// a request without usable cookies still clears its own.
func (h *AuthHandler) sessionUserID(r *http.Request) string {
	if cookie, err := r.Cookie(auth.AccessCookieName); err == nil {
		if scope, err := h.tokens.ParseAccessToken(cookie.Value); err == nil {
			return scope.UserID
		}
	}
	if cookie, err := r.Cookie(auth.RefreshCookieName); err == nil {
		if userID, _, err := h.tokens.ParseRefreshToken(cookie.Value); err == nil {
			return userID
		}
	}
	return ""
}

// SetupAuthRoutes sets up all auth routes. These are not session-guarded.
func (h *AuthHandler) SetupAuthRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.Login).Methods("POST")
	router.HandleFunc("/auth/refresh", h.Refresh).Methods("POST")
	router.HandleFunc("/auth/logout", h.Logout).Methods("POST")

	logger.Base().Info("auth routes registered")
}
