package handler

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/repository"
	"github.com/ClareAI/astra-admin-console/pkg/logger"
)

// LoggingMiddleware logs HTTP requests for API endpoints
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.Base().Info("api request",
			zap.String("method", r.Method),
			zap.String("path", r.RequestURI),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// ValidationMiddleware validates common request parameters
func ValidationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" || r.Method == "PUT" {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
				writeErrorStatus(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// CORSMiddleware adds CORS headers to all requests
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SessionMiddleware authenticates requests from the session cookies. An
// expired access cookie with a still-valid refresh cookie re-issues the
// access credential transparently.
func SessionMiddleware(tokens *auth.TokenService, users repository.AdminUserRepository, revoker *auth.RevocationStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, refreshed := authenticate(w, r, tokens, users, revoker)
			if scope == nil {
				writeError(w, apierr.Unauthorized("Authentication required"))
				return
			}
			if refreshed {
				logger.Base().Debug("access token refreshed", zap.String("user_id", scope.UserID))
			}

			next.ServeHTTP(w, r.WithContext(auth.WithContext(r.Context(), scope)))
		})
	}
}

func authenticate(w http.ResponseWriter, r *http.Request, tokens *auth.TokenService, users repository.AdminUserRepository, revoker *auth.RevocationStore) (*auth.Context, bool) {
	if cookie, err := r.Cookie(auth.AccessCookieName); err == nil {
		if scope, err := tokens.ParseAccessToken(cookie.Value); err == nil {
			if !revoker.IsRevoked(r.Context(), scope.UserID, scope.IssuedAt) {
				return scope, false
			}
		}
	}

	// Access cookie missing, expired or revoked; fall back to the refresh
	// cookie
	cookie, err := r.Cookie(auth.RefreshCookieName)
	if err != nil {
		return nil, false
	}
	userID, issuedAt, err := tokens.ParseRefreshToken(cookie.Value)
	if err != nil {
		return nil, false
	}
	if revoker.IsRevoked(r.Context(), userID, issuedAt) {
		return nil, false
	}

	user, err := users.GetByID(r.Context(), userID)
	if err != nil || user == nil {
		return nil, false
	}

	accessToken, err := tokens.IssueAccessToken(user)
	if err != nil {
		logger.Base().Error("failed to issue access token", zap.Error(err))
		return nil, false
	}
	refreshToken, err := tokens.IssueRefreshToken(user)
	if err != nil {
		logger.Base().Error("failed to issue refresh token", zap.Error(err))
		return nil, false
	}
	tokens.SetSessionCookies(w, accessToken, refreshToken)

	scope := &auth.Context{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		IsGlobalUser: user.IsGlobal(),
	}
	if user.TenantID != nil {
		scope.TenantID = *user.TenantID
	}
	return scope, true
}

// AdminOnlyMiddleware rejects mutating requests from viewer-role users
func AdminOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" || r.Method == "HEAD" || r.Method == "OPTIONS" {
			next.ServeHTTP(w, r)
			return
		}

		scope := auth.FromContext(r.Context())
		if !scope.IsAdmin() {
			writeError(w, apierr.Forbidden("Admin role required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GlobalOnlyMiddleware restricts routes to global users
func GlobalOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := auth.FromContext(r.Context())
		if scope == nil || !scope.IsGlobalUser {
			writeError(w, apierr.Forbidden("Global access required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware applies a per-client token bucket to proxied
// orchestrator routes
func RateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, exists := limiters[key]
		if !exists {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[key] = limiter
		}
		return limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if scope := auth.FromContext(r.Context()); scope != nil {
				key = scope.UserID
			}

			if !limiterFor(key).Allow() {
				writeErrorStatus(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx > 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
