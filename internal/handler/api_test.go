package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/cache"
	"github.com/ClareAI/astra-admin-console/internal/domain"
	"github.com/ClareAI/astra-admin-console/internal/orchestrator"
	"github.com/ClareAI/astra-admin-console/internal/repository"
	pkgredis "github.com/ClareAI/astra-admin-console/pkg/redis"
)

// fakeRedis is an in-memory key-value stand-in backing the revocation store
type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) GenerateKey(keyType pkgredis.KeyType, identifier string) string {
	return string(keyType) + ":" + identifier
}

func (f *fakeRedis) GetValue(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.values[key]
	if !ok {
		return "", pkgredis.ErrKeyNotExist
	}
	return val, nil
}

func (f *fakeRedis) SetValue(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeRedis) DelValue(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) error {
	return nil
}

func (f *fakeRedis) Subscribe(ctx context.Context, channel string, handler func(string)) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

// fakeOrchestrator implements orchestrator.Client with scripted behavior
type fakeOrchestrator struct {
	configured   bool
	refreshErr   error
	refreshCalls int
	failWith     error
	proxyCalls   int
	exportRaw    json.RawMessage
	lastBundle   json.RawMessage
}

func (f *fakeOrchestrator) IsConfigured() bool { return f.configured }

func (f *fakeOrchestrator) RefreshConfigCache(ctx context.Context, tenantID, agentID string) error {
	f.refreshCalls++
	return f.refreshErr
}

func (f *fakeOrchestrator) InitiateOutboundCall(ctx context.Context, req *orchestrator.OutboundCallRequest) (*orchestrator.OutboundCallResponse, error) {
	f.proxyCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &orchestrator.OutboundCallResponse{CallID: "c1", Status: "queued"}, nil
}

func (f *fakeOrchestrator) QueryRAG(ctx context.Context, req *orchestrator.RAGQueryRequest) (*orchestrator.RAGQueryResponse, error) {
	f.proxyCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &orchestrator.RAGQueryResponse{
		Query:   req.Query,
		Results: []orchestrator.RAGQueryResult{{Content: "Refunds take 5 days", Score: 0.92}},
	}, nil
}

func (f *fakeOrchestrator) CreateChatSession(ctx context.Context, tenantID, agentID string) (*orchestrator.ChatSession, error) {
	f.proxyCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &orchestrator.ChatSession{SessionID: "s1", AgentID: agentID, Status: "active"}, nil
}

func (f *fakeOrchestrator) GetChatSession(ctx context.Context, tenantID, sessionID string) (*orchestrator.ChatSession, error) {
	f.proxyCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &orchestrator.ChatSession{SessionID: sessionID, Status: "active"}, nil
}

func (f *fakeOrchestrator) SendChatMessage(ctx context.Context, tenantID, sessionID string, req *orchestrator.ChatMessageRequest) (*orchestrator.ChatMessageResponse, error) {
	f.proxyCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &orchestrator.ChatMessageResponse{SessionID: sessionID, Reply: "Hi"}, nil
}

func (f *fakeOrchestrator) EndChatSession(ctx context.Context, tenantID, sessionID string) error {
	f.proxyCalls++
	return f.failWith
}

func (f *fakeOrchestrator) ExportAgent(ctx context.Context, tenantID, agentID string) (json.RawMessage, error) {
	f.proxyCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.exportRaw, nil
}

func (f *fakeOrchestrator) ImportAgent(ctx context.Context, tenantID string, bundle json.RawMessage, dryRun bool) (*orchestrator.ImportResult, error) {
	f.proxyCalls++
	f.lastBundle = bundle
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &orchestrator.ImportResult{Name: "imported-bot", DryRun: dryRun}, nil
}

func (f *fakeOrchestrator) BulkImportAgents(ctx context.Context, tenantID string, bundles json.RawMessage, dryRun bool) ([]*orchestrator.ImportResult, error) {
	f.proxyCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return []*orchestrator.ImportResult{{Name: "bot-one", DryRun: dryRun}}, nil
}

type testEnv struct {
	router *mux.Router
	db     *gorm.DB
	repos  repository.RepositoryManager
	tokens *auth.TokenService
	orch   *fakeOrchestrator
	cache  *cache.ActiveConfigCache
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&domain.Tenant{},
		&domain.AdminUser{},
		&domain.Agent{},
		&domain.AgentVersion{},
		&domain.RagConfig{},
		&domain.RagConfigVersion{},
		&domain.VoiceConfig{},
		&domain.VoiceConfigVersion{},
		&domain.PhoneConfig{},
		&domain.PhoneConfigMapping{},
		&domain.CallRecord{},
	))

	repos := repository.NewGormRepositoryManager(db)
	tokens := auth.NewTokenService("test-secret", 15*time.Minute, 168*time.Hour)
	orch := &fakeOrchestrator{configured: true, exportRaw: json.RawMessage(`{"name":"support-bot"}`)}
	activeCache := cache.NewActiveConfigCache(nil)
	revoker := auth.NewRevocationStore(newFakeRedis(), tokens.RefreshTTL())

	router := mux.NewRouter()
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(ValidationMiddleware)

	NewAuthHandler(tokens, repos.AdminUser(), revoker).SetupAuthRoutes(apiRouter)

	guarded := apiRouter.NewRoute().Subrouter()
	guarded.Use(SessionMiddleware(tokens, repos.AdminUser(), revoker))
	guarded.Use(AdminOnlyMiddleware)

	NewAgentHandler(repos.Agent(), orch, activeCache).SetupAgentRoutes(guarded)
	NewRagConfigHandler(repos.RagConfig()).SetupRagConfigRoutes(guarded)
	NewVoiceConfigHandler(repos.VoiceConfig()).SetupVoiceConfigRoutes(guarded)
	NewPhoneHandler(repos.PhoneConfig()).SetupPhoneRoutes(guarded)
	NewCallHandler(repos.CallRecord()).SetupCallRoutes(guarded)

	tenantRouter := guarded.NewRoute().Subrouter()
	tenantRouter.Use(GlobalOnlyMiddleware)
	NewTenantHandler(repos.Tenant()).SetupTenantRoutes(tenantRouter)

	proxyRouter := guarded.NewRoute().Subrouter()
	proxyRouter.Use(RateLimitMiddleware(1000, 1000))
	NewProxyHandler(orch, repos.Agent()).SetupProxyRoutes(proxyRouter)

	return &testEnv{
		router: router,
		db:     db,
		repos:  repos,
		tokens: tokens,
		orch:   orch,
		cache:  activeCache,
	}
}

func (e *testEnv) createUser(t *testing.T, email, role string, tenantID *string) *domain.AdminUser {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	user := &domain.AdminUser{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		TenantID:     tenantID,
	}
	require.NoError(t, e.repos.AdminUser().Create(context.Background(), user))
	return user
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email string) []*http.Cookie {
	rec := e.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    email,
		Password: "password123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

// testEnvelope mirrors Envelope but keeps data raw for per-test decoding
type testEnvelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
	Details  []apierr.Issue  `json:"details"`
	Warnings []string        `json:"warnings"`
}

func parseEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, env testEnvelope, dst interface{}) {
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func strPtr(s string) *string { return &s }

func validWorkflowBody() json.RawMessage {
	return json.RawMessage(`{
		"agent": {"name": "support-bot"},
		"llm": {"model": "gpt-4o"},
		"tts": {"provider": "elevenlabs"},
		"stt": {"provider": "deepgram"},
		"workflow": {
			"start_node": "greet",
			"nodes": [{"id": "greet", "type": "speak", "prompt": "Hello"}],
			"transitions": []
		}
	}`)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin@tenant-a.test", domain.RoleAdmin, strPtr("tenant-a"))

	t.Run("valid credentials set session cookies", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
			Email:    "admin@tenant-a.test",
			Password: "password123",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := parseEnvelope(t, rec)
		assert.True(t, resp.Success)
		var login LoginResponse
		decodeData(t, resp, &login)
		assert.Equal(t, "admin@tenant-a.test", login.Email)
		assert.Equal(t, domain.RoleAdmin, login.Role)

		names := make([]string, 0)
		for _, c := range rec.Result().Cookies() {
			names = append(names, c.Name)
			assert.True(t, c.HttpOnly)
		}
		assert.ElementsMatch(t, []string{auth.AccessCookieName, auth.RefreshCookieName}, names)
	})

	t.Run("wrong password is a 401", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
			Email:    "admin@tenant-a.test",
			Password: "wrong",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", parseEnvelope(t, rec).Error)
	})

	t.Run("unknown email gets the same 401", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
			Email:    "nobody@tenant-a.test",
			Password: "password123",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", parseEnvelope(t, rec).Error)
	})
}

func TestSessionGuard(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "admin@tenant-a.test", domain.RoleAdmin, strPtr("tenant-a"))

	t.Run("missing cookies is a 401", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/agents", nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication required", parseEnvelope(t, rec).Error)
	})

	t.Run("garbage access cookie without refresh is a 401", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/agents", nil, []*http.Cookie{
			{Name: auth.AccessCookieName, Value: "garbage"},
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh cookie alone re-issues the access token", func(t *testing.T) {
		refreshToken, err := env.tokens.IssueRefreshToken(user)
		require.NoError(t, err)

		rec := env.do(t, http.MethodGet, "/api/agents", nil, []*http.Cookie{
			{Name: auth.RefreshCookieName, Value: refreshToken},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		reissued := false
		for _, c := range rec.Result().Cookies() {
			if c.Name == auth.AccessCookieName && c.Value != "" {
				reissued = true
			}
		}
		assert.True(t, reissued)
	})

	t.Run("logout clears cookies", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		for _, c := range rec.Result().Cookies() {
			assert.Equal(t, -1, c.MaxAge)
		}
	})

	t.Run("logout revokes outstanding credentials", func(t *testing.T) {
		cookies := env.login(t, "admin@tenant-a.test")

		rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)

		// the cookies survive on other devices but the credentials inside
		// them must not
		rec = env.do(t, http.MethodGet, "/api/agents", nil, cookies)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = env.do(t, http.MethodPost, "/api/auth/refresh", nil, cookies)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Session revoked", parseEnvelope(t, rec).Error)

		// a fresh password login opens a new session
		fresh := env.login(t, "admin@tenant-a.test")
		rec = env.do(t, http.MethodGet, "/api/agents", nil, fresh)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestViewerRole(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin@tenant-a.test", domain.RoleAdmin, strPtr("tenant-a"))
	env.createUser(t, "viewer@tenant-a.test", domain.RoleViewer, strPtr("tenant-a"))
	adminCookies := env.login(t, "admin@tenant-a.test")
	viewerCookies := env.login(t, "viewer@tenant-a.test")

	rec := env.do(t, http.MethodPost, "/api/agents", domain.CreateAgentRequest{Name: "support-bot"}, adminCookies)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("viewer may read", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/agents", nil, viewerCookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var agents []domain.Agent
		decodeData(t, parseEnvelope(t, rec), &agents)
		assert.Len(t, agents, 1)
	})

	t.Run("viewer may not mutate", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/agents", domain.CreateAgentRequest{Name: "sneaky-bot"}, viewerCookies)
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Admin role required", parseEnvelope(t, rec).Error)
	})
}

func TestAgentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin@tenant-a.test", domain.RoleAdmin, strPtr("tenant-a"))
	cookies := env.login(t, "admin@tenant-a.test")

	rec := env.do(t, http.MethodPost, "/api/agents", domain.CreateAgentRequest{
		Name:        "support-bot",
		Description: "Answers support calls",
	}, cookies)
	require.Equal(t, http.StatusCreated, rec.Code)
	var agent domain.Agent
	decodeData(t, parseEnvelope(t, rec), &agent)
	require.NotEmpty(t, agent.ID)

	t.Run("create requires a name", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/agents", domain.CreateAgentRequest{}, cookies)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := parseEnvelope(t, rec)
		require.NotEmpty(t, resp.Details)
		assert.Equal(t, "name", resp.Details[0].Field)
	})

	t.Run("invalid workflow is rejected with field issues", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/agents/"+agent.ID+"/versions", domain.CreateAgentVersionRequest{
			ConfigJSON: json.RawMessage(`{"agent": {"name": "x"}}`),
		}, cookies)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := parseEnvelope(t, rec)
		assert.Equal(t, "Invalid workflow configuration", resp.Error)
		assert.NotEmpty(t, resp.Details)
	})

	t.Run("valid workflow snapshots version 1", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/agents/"+agent.ID+"/versions", domain.CreateAgentVersionRequest{
			ConfigJSON: validWorkflowBody(),
			Notes:      "initial",
		}, cookies)
		require.Equal(t, http.StatusCreated, rec.Code)
		var version domain.AgentVersion
		resp := parseEnvelope(t, rec)
		decodeData(t, resp, &version)
		assert.Equal(t, 1, version.Version)
		assert.False(t, version.IsActive)
		assert.Equal(t, "admin@tenant-a.test", version.CreatedBy)
		assert.Empty(t, resp.Warnings)
	})

	t.Run("deprecated node type surfaces as a warning on 201", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/agents/"+agent.ID+"/versions", domain.CreateAgentVersionRequest{
			ConfigJSON: json.RawMessage(`{
				"agent": {"name": "support-bot"},
				"llm": {}, "tts": {}, "stt": {},
				"workflow": {
					"start_node": "greet",
					"nodes": [{"id": "greet", "type": "say"}],
					"transitions": []
				}
			}`),
		}, cookies)
		require.Equal(t, http.StatusCreated, rec.Code)
		resp := parseEnvelope(t, rec)
		require.Len(t, resp.Warnings, 1)
		assert.Contains(t, resp.Warnings[0], "deprecated")
	})

	t.Run("missing agent yields 404 on version create", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/agents/11111111-1111-1111-1111-111111111111/versions", domain.CreateAgentVersionRequest{
			ConfigJSON: validWorkflowBody(),
		}, cookies)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Agent not found", parseEnvelope(t, rec).Error)
	})

	t.Run("delete soft-disables and invalidates the cache", func(t *testing.T) {
		env.cache.Set(agent.ID, &domain.AgentVersion{AgentID: agent.ID, Version: 1})
		rec := env.do(t, http.MethodDelete, "/api/agents/"+agent.ID, nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, env.cache.Get(agent.ID))

		rec = env.do(t, http.MethodGet, "/api/agents?include_disabled=true", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var agents []domain.Agent
		decodeData(t, parseEnvelope(t, rec), &agents)
		require.Len(t, agents, 1)
		assert.True(t, agents[0].Disabled)
	})
}

func TestVersionActivation(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin@tenant-a.test", domain.RoleAdmin, strPtr("tenant-a"))
	cookies := env.login(t, "admin@tenant-a.test")

	rec := env.do(t, http.MethodPost, "/api/agents", domain.CreateAgentRequest{Name: "support-bot"}, cookies)
	require.Equal(t, http.StatusCreated, rec.Code)
	var agent domain.Agent
	decodeData(t, parseEnvelope(t, rec), &agent)

	var versions [2]domain.AgentVersion
	for i := range versions {
		rec := env.do(t, http.MethodPost, "/api/agents/"+agent.ID+"/versions", domain.CreateAgentVersionRequest{
			ConfigJSON: validWorkflowBody(),
		}, cookies)
		require.Equal(t, http.StatusCreated, rec.Code)
		decodeData(t, parseEnvelope(t, rec), &versions[i])
	}

	t.Run("activation reports a successful cache refresh", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/agents/"+agent.ID+"/versions/"+versions[0].ID+"/activate", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp domain.ActivateVersionResponse
		decodeData(t, parseEnvelope(t, rec), &resp)
		assert.True(t, resp.CacheRefreshed)
		assert.True(t, resp.Version.IsActive)
		assert.Equal(t, 1, resp.Version.Version)
		assert.Equal(t, 1, env.orch.refreshCalls)

		cached := env.cache.Get(agent.ID)
		require.NotNil(t, cached)
		assert.Equal(t, 1, cached.Version)
	})

	t.Run("refresh failure still activates with cache_refreshed false", func(t *testing.T) {
		env.orch.refreshErr = &orchestrator.UpstreamError{StatusCode: 500, Message: "boom"}
		defer func() { env.orch.refreshErr = nil }()

		rec := env.do(t, http.MethodPut, "/api/agents/"+agent.ID+"/versions/"+versions[1].ID+"/activate", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp domain.ActivateVersionResponse
		decodeData(t, parseEnvelope(t, rec), &resp)
		assert.False(t, resp.CacheRefreshed)
		assert.Equal(t, 2, resp.Version.Version)
	})

	t.Run("unconfigured orchestrator skips the refresh entirely", func(t *testing.T) {
		env.orch.configured = false
		defer func() { env.orch.configured = true }()
		before := env.orch.refreshCalls

		rec := env.do(t, http.MethodPut, "/api/agents/"+agent.ID+"/versions/"+versions[0].ID+"/activate", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp domain.ActivateVersionResponse
		decodeData(t, parseEnvelope(t, rec), &resp)
		assert.False(t, resp.CacheRefreshed)
		assert.Equal(t, before, env.orch.refreshCalls)
	})

	t.Run("active endpoint serves the current version", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/agents/"+agent.ID+"/versions/active", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var version domain.AgentVersion
		decodeData(t, parseEnvelope(t, rec), &version)
		assert.Equal(t, 1, version.Version)
	})

	t.Run("unknown version is a 404", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/agents/"+agent.ID+"/versions/11111111-1111-1111-1111-111111111111/activate", nil, cookies)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Version not found", parseEnvelope(t, rec).Error)
	})
}

func TestPhoneConfigEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin@tenant-a.test", domain.RoleAdmin, strPtr("tenant-a"))
	cookies := env.login(t, "admin@tenant-a.test")

	rec := env.do(t, http.MethodPost, "/api/phone-configs", domain.CreatePhoneConfigRequest{
		PhoneNumber: "+85291234567",
		Name:        "hk-main",
	}, cookies)
	require.Equal(t, http.StatusCreated, rec.Code)
	var phone domain.PhoneConfig
	decodeData(t, parseEnvelope(t, rec), &phone)

	t.Run("malformed number is a 400", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/phone-configs", domain.CreatePhoneConfigRequest{
			PhoneNumber: "9123-4567",
		}, cookies)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := parseEnvelope(t, rec)
		require.NotEmpty(t, resp.Details)
		assert.Equal(t, "phone_number", resp.Details[0].Field)
	})

	t.Run("duplicate number is a 409 with the exact message", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/phone-configs", domain.CreatePhoneConfigRequest{
			PhoneNumber: "+85291234567",
		}, cookies)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "A phone config with this number already exists", parseEnvelope(t, rec).Error)
	})

	t.Run("mapping and duplicate mapping", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/agents", domain.CreateAgentRequest{Name: "router-bot"}, cookies)
		require.Equal(t, http.StatusCreated, rec.Code)
		var agent domain.Agent
		decodeData(t, parseEnvelope(t, rec), &agent)

		rec = env.do(t, http.MethodPost, "/api/phone-mappings", domain.CreatePhoneMappingRequest{
			PhoneConfigID: phone.ID,
			AgentID:       agent.ID,
		}, cookies)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = env.do(t, http.MethodPost, "/api/phone-mappings", domain.CreatePhoneMappingRequest{
			PhoneConfigID: phone.ID,
			AgentID:       agent.ID,
		}, cookies)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "This phone config is already mapped to an agent", parseEnvelope(t, rec).Error)
	})

	t.Run("mapping an unknown phone config is a 404", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/phone-mappings", domain.CreatePhoneMappingRequest{
			PhoneConfigID: "11111111-1111-1111-1111-111111111111",
			AgentID:       "22222222-2222-2222-2222-222222222222",
		}, cookies)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Phone config or agent not found", parseEnvelope(t, rec).Error)
	})
}

func TestRagConfigEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin@tenant-a.test", domain.RoleAdmin, strPtr("tenant-a"))
	cookies := env.login(t, "admin@tenant-a.test")

	rec := env.do(t, http.MethodPost, "/api/rag-configs", domain.CreateRagConfigRequest{Name: "kb-default"}, cookies)
	require.Equal(t, http.StatusCreated, rec.Code)
	var cfg domain.RagConfig
	decodeData(t, parseEnvelope(t, rec), &cfg)

	t.Run("out-of-range parameters fail validation", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/rag-configs/"+cfg.ID+"/versions", domain.CreateRagConfigVersionRequest{
			SearchMode: "telepathy",
			TopK:       0,
		}, cookies)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := parseEnvelope(t, rec)
		assert.Equal(t, "Invalid RAG parameters", resp.Error)
		assert.Len(t, resp.Details, 2)
	})

	t.Run("version create and activate", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/rag-configs/"+cfg.ID+"/versions", domain.CreateRagConfigVersionRequest{
			SearchMode:   domain.SearchModeHybrid,
			TopK:         5,
			FusionWeight: 0.6,
		}, cookies)
		require.Equal(t, http.StatusCreated, rec.Code)
		var version domain.RagConfigVersion
		decodeData(t, parseEnvelope(t, rec), &version)
		assert.Equal(t, 1, version.Version)

		rec = env.do(t, http.MethodPut, "/api/rag-configs/"+cfg.ID+"/versions/"+version.ID+"/activate", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var activated domain.RagConfigVersion
		decodeData(t, parseEnvelope(t, rec), &activated)
		assert.True(t, activated.IsActive)
	})
}

func TestVoiceConfigEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin@tenant-a.test", domain.RoleAdmin, strPtr("tenant-a"))
	cookies := env.login(t, "admin@tenant-a.test")

	rec := env.do(t, http.MethodPost, "/api/voice-configs", domain.CreateVoiceConfigRequest{Name: "warm-voice"}, cookies)
	require.Equal(t, http.StatusCreated, rec.Code)
	var cfg domain.VoiceConfig
	decodeData(t, parseEnvelope(t, rec), &cfg)

	t.Run("missing voice id fails validation", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/voice-configs/"+cfg.ID+"/versions", domain.CreateVoiceConfigVersionRequest{
			Stability: 0.5,
		}, cookies)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid voice parameters", parseEnvelope(t, rec).Error)
	})

	t.Run("version create succeeds with defaults", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/voice-configs/"+cfg.ID+"/versions", domain.CreateVoiceConfigVersionRequest{
			VoiceID: "voice-abc",
		}, cookies)
		require.Equal(t, http.StatusCreated, rec.Code)
		var version domain.VoiceConfigVersion
		decodeData(t, parseEnvelope(t, rec), &version)
		assert.Equal(t, 1, version.Version)
		assert.Equal(t, "voice-abc", version.VoiceID)
	})
}

func TestTenantEndpointsRequireGlobalUser(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin@tenant-a.test", domain.RoleAdmin, strPtr("tenant-a"))
	env.createUser(t, "root@console.test", domain.RoleAdmin, nil)
	tenantCookies := env.login(t, "admin@tenant-a.test")
	globalCookies := env.login(t, "root@console.test")

	t.Run("tenant-bound admin is forbidden", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/tenants", nil, tenantCookies)
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Global access required", parseEnvelope(t, rec).Error)
	})

	t.Run("global user manages tenants", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/tenants", domain.CreateTenantRequest{
			TenantID:   "tenant-a",
			TenantName: "Tenant A",
		}, globalCookies)
		require.Equal(t, http.StatusCreated, rec.Code)
		var tenant domain.Tenant
		decodeData(t, parseEnvelope(t, rec), &tenant)
		assert.Equal(t, "tenant-a", tenant.TenantID)

		rec = env.do(t, http.MethodGet, "/api/tenants", nil, globalCookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var tenants []domain.Tenant
		decodeData(t, parseEnvelope(t, rec), &tenants)
		assert.Len(t, tenants, 1)
	})
}

func TestCallEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin@tenant-a.test", domain.RoleAdmin, strPtr("tenant-a"))
	cookies := env.login(t, "admin@tenant-a.test")

	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, env.repos.CallRecord().Create(context.Background(), &domain.CallRecord{
		ExternalCallID:  "call-1",
		TenantID:        "tenant-a",
		AgentID:         "agent-1",
		Status:          domain.CallStatusCompleted,
		Direction:       domain.CallDirectionInbound,
		DurationSeconds: 120,
		StartedAt:       started,
	}))

	t.Run("list and filter", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/calls?status=completed&agent_id=agent-1", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var calls []domain.CallRecord
		decodeData(t, parseEnvelope(t, rec), &calls)
		require.Len(t, calls, 1)
		assert.Equal(t, "call-1", calls[0].ExternalCallID)
	})

	t.Run("stats aggregate", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/calls/stats", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var stats []domain.CallStats
		decodeData(t, parseEnvelope(t, rec), &stats)
		require.Len(t, stats, 1)
		assert.Equal(t, int64(1), stats[0].TotalCalls)
	})

	t.Run("unknown call is a 404", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/calls/11111111-1111-1111-1111-111111111111", nil, cookies)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Call record not found", parseEnvelope(t, rec).Error)
	})
}

func TestContentTypeValidation(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("email=admin")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "Content-Type must be application/json", parseEnvelope(t, rec).Error)
}

func TestRateLimit(t *testing.T) {
	limited := RateLimitMiddleware(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/agents/a1/rag/query", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Equal(t, http.StatusOK, statuses[1])
	assert.Equal(t, http.StatusTooManyRequests, statuses[2])

	// a different client gets a fresh bucket
	req := httptest.NewRequest(http.MethodGet, "/api/agents/a1/rag/query", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
