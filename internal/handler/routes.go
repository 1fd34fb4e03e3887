package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/cache"
	"github.com/ClareAI/astra-admin-console/internal/config"
	"github.com/ClareAI/astra-admin-console/internal/orchestrator"
	"github.com/ClareAI/astra-admin-console/internal/repository"
	"github.com/ClareAI/astra-admin-console/pkg/logger"
	"github.com/ClareAI/astra-admin-console/pkg/redis"
)

// HandlerManager manages all handlers and their initialization
type HandlerManager struct {
	config       *config.Config
	repoManager  repository.RepositoryManager
	redisService redis.RedisServiceInterface
	tokens       *auth.TokenService
	revoker      *auth.RevocationStore
	orchestrator orchestrator.Client
	activeCache  *cache.ActiveConfigCache
}

// NewHandlerManager creates and initializes all shared services
func NewHandlerManager(cfg *config.Config) (*HandlerManager, error) {
	repoManager, err := repository.NewRepositoryManager()
	if err != nil {
		logger.Base().Error("failed to connect to database", zap.Error(err))
		return nil, err
	}

	// Redis is optional; without it the active-config cache stays
	// process-local and pods won't see each other's activations
	var redisService redis.RedisServiceInterface
	redisSvc, err := redis.NewRedisService(&redis.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Base().Warn("failed to initialize redis service, running with local cache only", zap.Error(err))
	} else {
		redisService = redisSvc
	}

	activeCache := cache.NewActiveConfigCache(redisService)
	activeCache.StartSubscriber(context.Background())

	tokens := auth.NewTokenService(cfg.SessionSecret, cfg.AccessTTL, cfg.RefreshTTL)
	revoker := auth.NewRevocationStore(redisService, tokens.RefreshTTL())

	orchClient := orchestrator.NewHTTPClient(
		cfg.OrchestratorBaseURL,
		cfg.OrchestratorKeyID,
		cfg.OrchestratorSecret,
		cfg.OrchestratorTimeout,
	)
	if !orchClient.IsConfigured() {
		logger.Base().Warn("orchestrator not configured, proxied endpoints will return 503")
	}

	return &HandlerManager{
		config:       cfg,
		repoManager:  repoManager,
		redisService: redisService,
		tokens:       tokens,
		revoker:      revoker,
		orchestrator: orchClient,
		activeCache:  activeCache,
	}, nil
}

// SetupAllRoutes sets up all routes with middleware
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	router.Use(CORSMiddleware)
	router.Use(LoggingMiddleware)

	router.HandleFunc("/healthz", hm.HealthCheck).Methods("GET")

	hm.SetupAPIRoutes(router)

	logger.Base().Info("all application routes registered")
}

// SetupAPIRoutes sets up the session-guarded API surface under /api
func (hm *HandlerManager) SetupAPIRoutes(router *mux.Router) {
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(ValidationMiddleware)

	// Auth endpoints stay outside the session guard
	authHandler := NewAuthHandler(hm.tokens, hm.repoManager.AdminUser(), hm.revoker)
	authHandler.SetupAuthRoutes(apiRouter)

	guarded := apiRouter.NewRoute().Subrouter()
	guarded.Use(SessionMiddleware(hm.tokens, hm.repoManager.AdminUser(), hm.revoker))
	guarded.Use(AdminOnlyMiddleware)

	agentHandler := NewAgentHandler(hm.repoManager.Agent(), hm.orchestrator, hm.activeCache)
	agentHandler.SetupAgentRoutes(guarded)

	ragHandler := NewRagConfigHandler(hm.repoManager.RagConfig())
	ragHandler.SetupRagConfigRoutes(guarded)

	voiceHandler := NewVoiceConfigHandler(hm.repoManager.VoiceConfig())
	voiceHandler.SetupVoiceConfigRoutes(guarded)

	phoneHandler := NewPhoneHandler(hm.repoManager.PhoneConfig())
	phoneHandler.SetupPhoneRoutes(guarded)

	callHandler := NewCallHandler(hm.repoManager.CallRecord())
	callHandler.SetupCallRoutes(guarded)

	// Tenant management is restricted to global users
	tenantRouter := guarded.NewRoute().Subrouter()
	tenantRouter.Use(GlobalOnlyMiddleware)
	tenantHandler := NewTenantHandler(hm.repoManager.Tenant())
	tenantHandler.SetupTenantRoutes(tenantRouter)

	// Proxied orchestrator endpoints carry a per-client rate limit
	proxyRouter := guarded.NewRoute().Subrouter()
	proxyRouter.Use(RateLimitMiddleware(hm.config.ProxyRateLimit, hm.config.ProxyRateBurst))
	proxyHandler := NewProxyHandler(hm.orchestrator, hm.repoManager.Agent())
	proxyHandler.SetupProxyRoutes(proxyRouter)

	router.PathPrefix("/api/").HandlerFunc(handleCORS).Methods("OPTIONS")

	logger.Base().Info("api routes registered")
}

// HealthCheck godoc
// @Summary Health check
// @Description Report database and redis connectivity
// @Tags health
// @Produce json
// @Success 200 {object} Envelope "Healthy"
// @Failure 503 {object} Envelope "Dependency down"
// @Router /healthz [get]
func (hm *HandlerManager) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"database": "ok", "redis": "ok"}
	healthy := true

	if err := hm.repoManager.Ping(r.Context()); err != nil {
		status["database"] = "down"
		healthy = false
	}
	if hm.redisService == nil {
		status["redis"] = "disabled"
	} else if err := hm.redisService.Ping(r.Context()); err != nil {
		status["redis"] = "down"
		healthy = false
	}

	if !healthy {
		writeErrorStatus(w, http.StatusServiceUnavailable, "Dependency down")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// GetRepoManager returns the repository manager
func (hm *HandlerManager) GetRepoManager() repository.RepositoryManager {
	return hm.repoManager
}

// handleCORS handles CORS preflight requests for API routes
func handleCORS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(http.StatusOK)
}
