package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/domain"
	"github.com/ClareAI/astra-admin-console/internal/repository"
	"github.com/ClareAI/astra-admin-console/internal/validation"
	"github.com/ClareAI/astra-admin-console/pkg/logger"
)

// RagConfigHandler handles HTTP requests for RAG configs and their versions
type RagConfigHandler struct {
	ragRepo repository.RagConfigRepository
}

// NewRagConfigHandler creates a new RAG config handler
func NewRagConfigHandler(ragRepo repository.RagConfigRepository) *RagConfigHandler {
	return &RagConfigHandler{ragRepo: ragRepo}
}

// CreateRagConfig godoc
// @Summary Create a new RAG config
// @Description Create a new RAG config in the caller's tenant
// @Tags rag-configs
// @Accept json
// @Produce json
// @Param config body domain.CreateRagConfigRequest true "RAG config creation request"
// @Success 201 {object} domain.RagConfig "RAG config created"
// @Failure 400 {object} Envelope "Invalid request body"
// @Router /api/rag-configs [post]
func (h *RagConfigHandler) CreateRagConfig(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRagConfigRequest
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

	cfg, err := h.ragRepo.Create(r.Context(), auth.FromContext(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, cfg)
}

// GetRagConfig godoc
// @Summary Get RAG config by ID
// @Tags rag-configs
// @Produce json
// @Param id path string true "RAG config ID (UUID)" format(uuid)
// @Success 200 {object} domain.RagConfig "RAG config found"
// @Failure 404 {object} Envelope "RAG config not found"
// @Router /api/rag-configs/{id} [get]
func (h *RagConfigHandler) GetRagConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	cfg, err := h.ragRepo.GetByID(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if cfg == nil {
		writeError(w, apierr.NotFound("RAG config not found"))
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// GetRagConfigs godoc
// @Summary List RAG configs
// @Tags rag-configs
// @Produce json
// @Param include_disabled query boolean false "Include disabled configs" default(false)
// @Success 200 {array} domain.RagConfig "List of RAG configs"
// @Router /api/rag-configs [get]
func (h *RagConfigHandler) GetRagConfigs(w http.ResponseWriter, r *http.Request) {
	includeDisabled := r.URL.Query().Get("include_disabled") == "true"

	configs, err := h.ragRepo.List(r.Context(), auth.FromContext(r.Context()), includeDisabled)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, configs)
}

// UpdateRagConfig godoc
// @Summary Update RAG config metadata
// @Tags rag-configs
// @Accept json
// @Produce json
// @Param id path string true "RAG config ID (UUID)" format(uuid)
// @Param config body domain.UpdateRagConfigRequest true "RAG config update request"
// @Success 200 {object} domain.RagConfig "RAG config updated"
// @Failure 404 {object} Envelope "RAG config not found"
// @Router /api/rag-configs/{id} [put]
func (h *RagConfigHandler) UpdateRagConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req domain.UpdateRagConfigRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	cfg, err := h.ragRepo.Update(r.Context(), auth.FromContext(r.Context()), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if cfg == nil {
		writeError(w, apierr.NotFound("RAG config not found"))
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// DeleteRagConfig godoc
// @Summary Delete a RAG config
// @Description Soft delete a RAG config within the caller's tenant scope
// @Tags rag-configs
// @Produce json
// @Param id path string true "RAG config ID (UUID)" format(uuid)
// @Success 200 {object} Envelope "RAG config deleted"
// @Failure 404 {object} Envelope "RAG config not found"
// @Router /api/rag-configs/{id} [delete]
func (h *RagConfigHandler) DeleteRagConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	deleted, err := h.ragRepo.Delete(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, apierr.NotFound("RAG config not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetVersions godoc
// @Summary List RAG config versions
// @Tags rag-configs
// @Produce json
// @Param id path string true "RAG config ID (UUID)" format(uuid)
// @Success 200 {array} domain.RagConfigVersion "List of versions"
// @Failure 404 {object} Envelope "RAG config not found"
// @Router /api/rag-configs/{id}/versions [get]
func (h *RagConfigHandler) GetVersions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	versions, err := h.ragRepo.ListVersions(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if versions == nil {
		writeError(w, apierr.NotFound("RAG config not found"))
		return
	}

	writeJSON(w, http.StatusOK, versions)
}

// GetVersion godoc
// @Summary Get one RAG config version
// @Tags rag-configs
// @Produce json
// @Param id path string true "RAG config ID (UUID)" format(uuid)
// @Param versionId path string true "Version ID (UUID)" format(uuid)
// @Success 200 {object} domain.RagConfigVersion "Version found"
// @Failure 404 {object} Envelope "Version not found"
// @Router /api/rag-configs/{id}/versions/{versionId} [get]
func (h *RagConfigHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	version, err := h.ragRepo.GetVersion(r.Context(), auth.FromContext(r.Context()), vars["id"], vars["versionId"])
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
// @Summary Create a new RAG config version
// @Description Validate retrieval parameters and snapshot them as the next numbered version
// @Tags rag-configs
// @Accept json
// @Produce json
// @Param id path string true "RAG config ID (UUID)" format(uuid)
// @Param version body domain.CreateRagConfigVersionRequest true "Version creation request"
// @Success 201 {object} domain.RagConfigVersion "Version created"
// @Failure 400 {object} Envelope "Invalid parameters"
// @Failure 404 {object} Envelope "RAG config not found"
// @Router /api/rag-configs/{id}/versions [post]
func (h *RagConfigHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	scope := auth.FromContext(r.Context())

	var req domain.CreateRagConfigVersionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if issues := validation.ValidateRagVersion(&req); len(issues) > 0 {
		writeError(w, apierr.Validation("Invalid RAG parameters", issues))
		return
	}

	version, err := h.ragRepo.CreateVersion(r.Context(), scope, id, &req, scope.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if version == nil {
		writeError(w, apierr.NotFound("RAG config not found"))
		return
	}

	writeJSON(w, http.StatusCreated, version)
}

// ActivateVersion godoc
// @Summary Activate a RAG config version
// @Description Make the version the single active one for its config
// @Tags rag-configs
// @Produce json
// @Param id path string true "RAG config ID (UUID)" format(uuid)
// @Param versionId path string true "Version ID (UUID)" format(uuid)
// @Success 200 {object} domain.RagConfigVersion "Version activated"
// @Failure 404 {object} Envelope "Version not found"
// @Router /api/rag-configs/{id}/versions/{versionId}/activate [put]
func (h *RagConfigHandler) ActivateVersion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	version, err := h.ragRepo.ActivateVersion(r.Context(), auth.FromContext(r.Context()), vars["id"], vars["versionId"])
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

// SetupRagConfigRoutes sets up all RAG config routes
func (h *RagConfigHandler) SetupRagConfigRoutes(router *mux.Router) {
	router.HandleFunc("/rag-configs", h.CreateRagConfig).Methods("POST")
	router.HandleFunc("/rag-configs", h.GetRagConfigs).Methods("GET")
	router.HandleFunc("/rag-configs/{id}", h.GetRagConfig).Methods("GET")
	router.HandleFunc("/rag-configs/{id}", h.UpdateRagConfig).Methods("PUT")
	router.HandleFunc("/rag-configs/{id}", h.DeleteRagConfig).Methods("DELETE")

	router.HandleFunc("/rag-configs/{id}/versions", h.CreateVersion).Methods("POST")
	router.HandleFunc("/rag-configs/{id}/versions", h.GetVersions).Methods("GET")
	router.HandleFunc("/rag-configs/{id}/versions/{versionId}", h.GetVersion).Methods("GET")
	router.HandleFunc("/rag-configs/{id}/versions/{versionId}/activate", h.ActivateVersion).Methods("PUT")

	logger.Base().Info("rag config routes registered")
}
