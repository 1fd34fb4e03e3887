package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ClareAI/astra-admin-console/internal/domain"
)

// Cookie names for the session credentials.
const (
	AccessCookieName  = "astra_admin_access"
	RefreshCookieName = "astra_admin_refresh"
)

// Default credential lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 168 * time.Hour
)

// SessionClaims is the JWT payload for both access and refresh tokens.
// Refresh tokens carry TokenUse "refresh" and only the subject.
type SessionClaims struct {
	Email        string  `json:"email,omitempty"`
	Role         string  `json:"role,omitempty"`
	TenantID     *string `json:"tenant_id,omitempty"`
	IsGlobalUser bool    `json:"is_global,omitempty"`
	TokenUse     string  `json:"token_use"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the signed session credentials.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a token service signing with the given secret.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken signs a short-lived access token for the user.
func (s *TokenService) IssueAccessToken(user *domain.AdminUser) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email:        user.Email,
		Role:         user.Role,
		TenantID:     user.TenantID,
		IsGlobalUser: user.IsGlobal(),
		TokenUse:     "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// IssueRefreshToken signs a longer-lived refresh token for the user.
func (s *TokenService) IssueRefreshToken(user *domain.AdminUser) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		TokenUse: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseAccessToken verifies an access token and yields the caller identity.
// Any missing, malformed or expired token fails closed.
func (s *TokenService) ParseAccessToken(tokenString string) (*Context, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != "access" {
		return nil, fmt.Errorf("not an access token")
	}

	ac := &Context{
		UserID:       claims.Subject,
		Email:        claims.Email,
		Role:         claims.Role,
		IsGlobalUser: claims.IsGlobalUser,
	}
	if claims.TenantID != nil {
		ac.TenantID = *claims.TenantID
	}
	if claims.IssuedAt != nil {
		ac.IssuedAt = claims.IssuedAt.Time
	}
	return ac, nil
}

// ParseRefreshToken verifies a refresh token and yields the user ID and
// the token's issue time.
func (s *TokenService) ParseRefreshToken(tokenString string) (string, time.Time, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", time.Time{}, err
	}
	if claims.TokenUse != "refresh" {
		return "", time.Time{}, fmt.Errorf("not a refresh token")
	}
	issuedAt := time.Time{}
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	return claims.Subject, issuedAt, nil
}

func (s *TokenService) parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// AccessTTL returns the access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// SetSessionCookies writes both credentials as httpOnly cookies.
func (s *TokenService) SetSessionCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(s.accessTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(s.refreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookies removes both credentials.
func ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
