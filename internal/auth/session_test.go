package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClareAI/astra-admin-console/internal/domain"
)

func testUser() *domain.AdminUser {
	tenantID := "tenant-a"
	return &domain.AdminUser{
		ID:       "9c34c4bb-3a15-4c29-8f0e-2b5a52a2a001",
		Email:    "ops@tenant-a.test",
		Role:     domain.RoleAdmin,
		TenantID: &tenantID,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Minute, time.Hour)
	user := testUser()

	token, err := svc.IssueAccessToken(user)
	require.NoError(t, err)

	scope, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, scope.UserID)
	assert.Equal(t, user.Email, scope.Email)
	assert.Equal(t, domain.RoleAdmin, scope.Role)
	assert.Equal(t, "tenant-a", scope.TenantID)
	assert.False(t, scope.IsGlobalUser)
}

func TestGlobalUserToken(t *testing.T) {
	svc := NewTokenService("test-secret", time.Minute, time.Hour)
	user := testUser()
	user.TenantID = nil

	token, err := svc.IssueAccessToken(user)
	require.NoError(t, err)

	scope, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	assert.True(t, scope.IsGlobalUser)
	assert.Empty(t, scope.TenantID)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	svc := NewTokenService("test-secret", time.Minute, time.Hour)
	user := testUser()

	refresh, err := svc.IssueRefreshToken(user)
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(refresh)
	assert.Error(t, err)

	subject, issuedAt, err := svc.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
	assert.WithinDuration(t, time.Now(), issuedAt, 5*time.Second)

	access, err := svc.IssueAccessToken(user)
	require.NoError(t, err)
	_, _, err = svc.ParseRefreshToken(access)
	assert.Error(t, err)
}

func TestExpiredTokenFailsClosed(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute, time.Hour)
	// a non-positive TTL falls back to the default, so sign manually short
	svc.accessTTL = -time.Minute

	token, err := svc.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestWrongSecretIsRejected(t *testing.T) {
	issuer := NewTokenService("secret-one", time.Minute, time.Hour)
	verifier := NewTokenService("secret-two", time.Minute, time.Hour)

	token, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = verifier.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestSessionCookies(t *testing.T) {
	svc := NewTokenService("test-secret", 15*time.Minute, 168*time.Hour)
	w := httptest.NewRecorder()
	svc.SetSessionCookies(w, "access-token", "refresh-token")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)

	byName := make(map[string]int, len(cookies))
	for i, c := range cookies {
		byName[c.Name] = i
		assert.True(t, c.HttpOnly)
		assert.Equal(t, "/", c.Path)
	}
	require.Contains(t, byName, AccessCookieName)
	require.Contains(t, byName, RefreshCookieName)
	assert.Equal(t, "access-token", cookies[byName[AccessCookieName]].Value)
	assert.Equal(t, int((15 * time.Minute).Seconds()), cookies[byName[AccessCookieName]].MaxAge)

	cleared := httptest.NewRecorder()
	ClearSessionCookies(cleared)
	for _, c := range cleared.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge)
		assert.Empty(t, c.Value)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, CheckPassword(hash, "wrong password"))
	assert.False(t, CheckPassword("not-a-hash", "anything"))
}

func TestContextHelpers(t *testing.T) {
	admin := &Context{UserID: "u1", Role: domain.RoleAdmin, TenantID: "tenant-a"}
	viewer := &Context{UserID: "u2", Role: domain.RoleViewer, TenantID: "tenant-a"}
	global := &Context{UserID: "u3", Role: domain.RoleAdmin, IsGlobalUser: true}

	assert.True(t, admin.IsAdmin())
	assert.False(t, viewer.IsAdmin())

	assert.True(t, admin.ScopesTenant())
	assert.False(t, global.ScopesTenant())

	assert.True(t, admin.Owns("tenant-a"))
	assert.False(t, admin.Owns("tenant-b"))
	assert.True(t, global.Owns("tenant-b"))

	var nilCtx *Context
	assert.False(t, nilCtx.IsAdmin())
	assert.False(t, nilCtx.Owns("tenant-a"))
}
