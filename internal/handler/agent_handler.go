package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/cache"
	"github.com/ClareAI/astra-admin-console/internal/domain"
	"github.com/ClareAI/astra-admin-console/internal/orchestrator"
	"github.com/ClareAI/astra-admin-console/internal/repository"
	"github.com/ClareAI/astra-admin-console/internal/validation"
	"github.com/ClareAI/astra-admin-console/pkg/logger"
)

// AgentHandler handles HTTP requests for agents and their versions
type AgentHandler struct {
	agentRepo    repository.AgentRepository
	orchestrator orchestrator.Client
	activeCache  *cache.ActiveConfigCache
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(agentRepo repository.AgentRepository, client orchestrator.Client, activeCache *cache.ActiveConfigCache) *AgentHandler {
	return &AgentHandler{
		agentRepo:    agentRepo,
		orchestrator: client,
		activeCache:  activeCache,
	}
}

// CreateAgent godoc
// @Summary Create a new agent
// @Description Create a new agent in the caller's tenant
// @Tags agents
// @Accept json
// @Produce json
// @Param agent body domain.CreateAgentRequest true "Agent creation request"
// @Success 201 {object} domain.Agent "Agent created successfully"
// @Failure 400 {object} Envelope "Invalid request body"
// @Router /api/agents [post]
func (h *AgentHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAgentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, apierr.Validation("Missing required fields", []apierr.Issue{
			{Field: "name", Message: "name is required"},
		}))
		return
	}

	agent, err := h.agentRepo.Create(r.Context(), auth.FromContext(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, agent)
}

// GetAgent godoc
// @Summary Get agent by ID
// @Description Retrieve an agent within the caller's tenant scope
// @Tags agents
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Success 200 {object} domain.Agent "Agent found"
// @Failure 404 {object} Envelope "Agent not found"
// @Router /api/agents/{id} [get]
func (h *AgentHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	agent, err := h.agentRepo.GetByID(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if agent == nil {
		writeError(w, apierr.NotFound("Agent not found"))
		return
	}

	writeJSON(w, http.StatusOK, agent)
}

// GetAgents godoc
// @Summary List agents
// @Description Retrieve agents in the caller's tenant scope
// @Tags agents
// @Produce json
// @Param include_disabled query boolean false "Include disabled agents" default(false)
// @Success 200 {array} domain.Agent "List of agents"
// @Router /api/agents [get]
func (h *AgentHandler) GetAgents(w http.ResponseWriter, r *http.Request) {
	includeDisabled := r.URL.Query().Get("include_disabled") == "true"

	agents, err := h.agentRepo.List(r.Context(), auth.FromContext(r.Context()), includeDisabled)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, agents)
}

// UpdateAgent godoc
// @Summary Update an existing agent
// @Description Update agent metadata within the caller's tenant scope
// @Tags agents
// @Accept json
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Param agent body domain.UpdateAgentRequest true "Agent update request"
// @Success 200 {object} domain.Agent "Agent updated successfully"
// @Failure 404 {object} Envelope "Agent not found"
// @Router /api/agents/{id} [put]
func (h *AgentHandler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req domain.UpdateAgentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	agent, err := h.agentRepo.Update(r.Context(), auth.FromContext(r.Context()), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if agent == nil {
		writeError(w, apierr.NotFound("Agent not found"))
		return
	}

	writeJSON(w, http.StatusOK, agent)
}

// DeleteAgent godoc
// @Summary Delete an agent
// @Description Soft delete an agent within the caller's tenant scope
// @Tags agents
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Success 200 {object} Envelope "Agent deleted successfully"
// @Failure 404 {object} Envelope "Agent not found"
// @Router /api/agents/{id} [delete]
func (h *AgentHandler) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	deleted, err := h.agentRepo.Delete(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, apierr.NotFound("Agent not found"))
		return
	}

	h.activeCache.InvalidateAndPublish(r.Context(), id)

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetVersions godoc
// @Summary List agent versions
// @Description Retrieve all versions of an agent, newest first
// @Tags agents
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Success 200 {array} domain.AgentVersion "List of versions"
// @Failure 404 {object} Envelope "Agent not found"
// @Router /api/agents/{id}/versions [get]
func (h *AgentHandler) GetVersions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	versions, err := h.agentRepo.ListVersions(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if versions == nil {
		writeError(w, apierr.NotFound("Agent not found"))
		return
	}

	writeJSON(w, http.StatusOK, versions)
}

// GetVersion godoc
// @Summary Get one agent version
// @Description Retrieve a single version of an agent
// @Tags agents
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Param versionId path string true "Version ID (UUID)" format(uuid)
// @Success 200 {object} domain.AgentVersion "Version found"
// @Failure 404 {object} Envelope "Version not found"
// @Router /api/agents/{id}/versions/{versionId} [get]
func (h *AgentHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	version, err := h.agentRepo.GetVersion(r.Context(), auth.FromContext(r.Context()), vars["id"], vars["versionId"])
	if err != nil {
		writeError(w, err)
		return
	}
	if version == nil {
		writeError(w, apierr.NotFound("Version not found"))
		return
	}

	writeJSON(w, http.StatusOK, version)
}

// CreateVersion godoc
// @Summary Create a new agent version
// @Description Validate the workflow document and snapshot it as the next numbered version
// @Tags agents
// @Accept json
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Param version body domain.CreateAgentVersionRequest true "Version creation request"
// @Success 201 {object} domain.AgentVersion "Version created successfully"
// @Failure 400 {object} Envelope "Invalid workflow document"
// @Failure 404 {object} Envelope "Agent not found"
// @Router /api/agents/{id}/versions [post]
func (h *AgentHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	scope := auth.FromContext(r.Context())

	var req domain.CreateAgentVersionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	_, issues, warnings := validation.ValidateWorkflowConfig(req.ConfigJSON)
	if len(issues) > 0 {
		writeError(w, apierr.Validation("Invalid workflow configuration", issues))
		return
	}

	version, err := h.agentRepo.CreateVersion(r.Context(), scope, id, &req, scope.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if version == nil {
		writeError(w, apierr.NotFound("Agent not found"))
		return
	}

	writeJSONWarnings(w, http.StatusCreated, version, warnings)
}

// ActivateVersion godoc
// @Summary Activate an agent version
// @Description Make the version the single active one, then best-effort refresh the orchestrator's config cache
// @Tags agents
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Param versionId path string true "Version ID (UUID)" format(uuid)
// @Success 200 {object} domain.ActivateVersionResponse "Version activated"
// @Failure 404 {object} Envelope "Version not found"
// @Router /api/agents/{id}/versions/{versionId}/activate [put]
func (h *AgentHandler) ActivateVersion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	scope := auth.FromContext(r.Context())

	version, err := h.agentRepo.ActivateVersion(r.Context(), scope, vars["id"], vars["versionId"])
	if err != nil {
		writeError(w, err)
		return
	}
	if version == nil {
		writeError(w, apierr.NotFound("Version not found"))
		return
	}

	h.activeCache.SetAndPublish(r.Context(), vars["id"], version)

	// Cache refresh never fails the activation; the response just reports it
	cacheRefreshed := false
	if h.orchestrator.IsConfigured() {
		if err := h.orchestrator.RefreshConfigCache(r.Context(), scope.TenantID, vars["id"]); err == nil {
			cacheRefreshed = true
		}
	} else {
		logger.Base().Debug("orchestrator not configured, skipping config refresh",
			zap.String("agent_id", vars["id"]))
	}

	writeJSON(w, http.StatusOK, &domain.ActivateVersionResponse{
		Version:        version,
		CacheRefreshed: cacheRefreshed,
	})
}

// GetActiveVersion godoc
// @Summary Get the active agent version
// @Description Retrieve the currently active version, served from cache when warm
// @Tags agents
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Success 200 {object} domain.AgentVersion "Active version"
// @Failure 404 {object} Envelope "No active version"
// @Router /api/agents/{id}/versions/active [get]
func (h *AgentHandler) GetActiveVersion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	scope := auth.FromContext(r.Context())

	// Cache hit still requires the caller to own the agent
	if cached := h.activeCache.Get(id); cached != nil {
		agent, err := h.agentRepo.GetByID(r.Context(), scope, id)
		if err != nil {
			writeError(w, err)
			return
		}
		if agent != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
		writeError(w, apierr.NotFound("Agent not found"))
		return
	}

	version, err := h.agentRepo.GetActiveVersion(r.Context(), scope, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if version == nil {
		writeError(w, apierr.NotFound("No active version"))
		return
	}

	h.activeCache.Set(id, version)

	writeJSON(w, http.StatusOK, version)
}

// SetupAgentRoutes sets up all agent-related routes
func (h *AgentHandler) SetupAgentRoutes(router *mux.Router) {
	router.HandleFunc("/agents", h.CreateAgent).Methods("POST")
	router.HandleFunc("/agents", h.GetAgents).Methods("GET")
	router.HandleFunc("/agents/{id}", h.GetAgent).Methods("GET")
	router.HandleFunc("/agents/{id}", h.UpdateAgent).Methods("PUT")
	router.HandleFunc("/agents/{id}", h.DeleteAgent).Methods("DELETE")

	router.HandleFunc("/agents/{id}/versions", h.CreateVersion).Methods("POST")
	router.HandleFunc("/agents/{id}/versions", h.GetVersions).Methods("GET")
	router.HandleFunc("/agents/{id}/versions/active", h.GetActiveVersion).Methods("GET")
	router.HandleFunc("/agents/{id}/versions/{versionId}", h.GetVersion).Methods("GET")
	router.HandleFunc("/agents/{id}/versions/{versionId}/activate", h.ActivateVersion).Methods("PUT")

	logger.Base().Info("agent routes registered")
}
