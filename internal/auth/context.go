package auth

import (
	"context"
	"time"

	"github.com/ClareAI/astra-admin-console/internal/domain"
)

// Context carries the authenticated caller's identity and tenant scope.
// It is threaded into every store call so tenant filtering is explicit
// rather than an ambient global.
type Context struct {
	UserID       string
	Email        string
	Role         string
	TenantID     string
	IsGlobalUser bool

	// IssuedAt is when the credential backing this context was signed.
	// Revocation checks compare it against the user's last logout.
	IssuedAt time.Time
}

// IsAdmin reports whether the caller may perform mutating operations.
func (c *Context) IsAdmin() bool {
	return c != nil && c.Role == domain.RoleAdmin
}

// ScopesTenant reports whether reads must be filtered to the caller's
// tenant. Global users bypass the filter.
func (c *Context) ScopesTenant() bool {
	return c != nil && !c.IsGlobalUser
}

// Owns reports whether the caller may touch an entity belonging to
// tenantID.
func (c *Context) Owns(tenantID string) bool {
	if c == nil {
		return false
	}
	if c.IsGlobalUser {
		return true
	}
	return c.TenantID == tenantID
}

type ctxKey struct{}

// WithContext attaches the auth context to a request context.
func WithContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext extracts the auth context, or nil when the request was not
// authenticated.
func FromContext(ctx context.Context) *Context {
	ac, _ := ctx.Value(ctxKey{}).(*Context)
	return ac
}
