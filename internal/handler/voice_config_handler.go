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

// VoiceConfigHandler handles HTTP requests for voice configs and their versions
type VoiceConfigHandler struct {
	voiceRepo repository.VoiceConfigRepository
}

// NewVoiceConfigHandler creates a new voice config handler
func NewVoiceConfigHandler(voiceRepo repository.VoiceConfigRepository) *VoiceConfigHandler {
	return &VoiceConfigHandler{voiceRepo: voiceRepo}
}

// CreateVoiceConfig godoc
// @Summary Create a new voice config
// @Description Create a new voice config in the caller's tenant
// @Tags voice-configs
// @Accept json
// @Produce json
// @Param config body domain.CreateVoiceConfigRequest true "Voice config creation request"
// @Success 201 {object} domain.VoiceConfig "Voice config created"
// @Failure 400 {object} Envelope "Invalid request body"
// @Router /api/voice-configs [post]
func (h *VoiceConfigHandler) CreateVoiceConfig(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateVoiceConfigRequest
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

	cfg, err := h.voiceRepo.Create(r.Context(), auth.FromContext(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, cfg)
}

// GetVoiceConfig godoc
// @Summary Get voice config by ID
// @Tags voice-configs
// @Produce json
// @Param id path string true "Voice config ID (UUID)" format(uuid)
// @Success 200 {object} domain.VoiceConfig "Voice config found"
// @Failure 404 {object} Envelope "Voice config not found"
// @Router /api/voice-configs/{id} [get]
func (h *VoiceConfigHandler) GetVoiceConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	cfg, err := h.voiceRepo.GetByID(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if cfg == nil {
		writeError(w, apierr.NotFound("Voice config not found"))
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// GetVoiceConfigs godoc
// @Summary List voice configs
// @Tags voice-configs
// @Produce json
// @Param include_disabled query boolean false "Include disabled configs" default(false)
// @Success 200 {array} domain.VoiceConfig "List of voice configs"
// @Router /api/voice-configs [get]
func (h *VoiceConfigHandler) GetVoiceConfigs(w http.ResponseWriter, r *http.Request) {
	includeDisabled := r.URL.Query().Get("include_disabled") == "true"

	configs, err := h.voiceRepo.List(r.Context(), auth.FromContext(r.Context()), includeDisabled)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, configs)
}

// UpdateVoiceConfig godoc
// @Summary Update voice config metadata
// @Tags voice-configs
// @Accept json
// @Produce json
// @Param id path string true "Voice config ID (UUID)" format(uuid)
// @Param config body domain.UpdateVoiceConfigRequest true "Voice config update request"
// @Success 200 {object} domain.VoiceConfig "Voice config updated"
// @Failure 404 {object} Envelope "Voice config not found"
// @Router /api/voice-configs/{id} [put]
func (h *VoiceConfigHandler) UpdateVoiceConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req domain.UpdateVoiceConfigRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	cfg, err := h.voiceRepo.Update(r.Context(), auth.FromContext(r.Context()), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if cfg == nil {
		writeError(w, apierr.NotFound("Voice config not found"))
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// DeleteVoiceConfig godoc
// @Summary Delete a voice config
// @Description Soft delete a voice config within the caller's tenant scope
// @Tags voice-configs
// @Produce json
// @Param id path string true "Voice config ID (UUID)" format(uuid)
// @Success 200 {object} Envelope "Voice config deleted"
// @Failure 404 {object} Envelope "Voice config not found"
// @Router /api/voice-configs/{id} [delete]
func (h *VoiceConfigHandler) DeleteVoiceConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	deleted, err := h.voiceRepo.Delete(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, apierr.NotFound("Voice config not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetVersions godoc
// @Summary List voice config versions
// @Tags voice-configs
// @Produce json
// @Param id path string true "Voice config ID (UUID)" format(uuid)
// @Success 200 {array} domain.VoiceConfigVersion "List of versions"
// @Failure 404 {object} Envelope "Voice config not found"
// @Router /api/voice-configs/{id}/versions [get]
func (h *VoiceConfigHandler) GetVersions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	versions, err := h.voiceRepo.ListVersions(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if versions == nil {
		writeError(w, apierr.NotFound("Voice config not found"))
		return
	}

	writeJSON(w, http.StatusOK, versions)
}

// GetVersion godoc
// @Summary Get one voice config version
// @Tags voice-configs
// @Produce json
// @Param id path string true "Voice config ID (UUID)" format(uuid)
// @Param versionId path string true "Version ID (UUID)" format(uuid)
// @Success 200 {object} domain.VoiceConfigVersion "Version found"
// @Failure 404 {object} Envelope "Version not found"
// @Router /api/voice-configs/{id}/versions/{versionId} [get]
func (h *VoiceConfigHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	version, err := h.voiceRepo.GetVersion(r.Context(), auth.FromContext(r.Context()), vars["id"], vars["versionId"])
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
// @Summary Create a new voice config version
// @Description Validate TTS parameters and snapshot them as the next numbered version
// @Tags voice-configs
// @Accept json
// @Produce json
// @Param id path string true "Voice config ID (UUID)" format(uuid)
// @Param version body domain.CreateVoiceConfigVersionRequest true "Version creation request"
// @Success 201 {object} domain.VoiceConfigVersion "Version created"
// @Failure 400 {object} Envelope "Invalid parameters"
// @Failure 404 {object} Envelope "Voice config not found"
// @Router /api/voice-configs/{id}/versions [post]
func (h *VoiceConfigHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	scope := auth.FromContext(r.Context())

	var req domain.CreateVoiceConfigVersionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if issues := validation.ValidateVoiceVersion(&req); len(issues) > 0 {
		writeError(w, apierr.Validation("Invalid voice parameters", issues))
		return
	}

	version, err := h.voiceRepo.CreateVersion(r.Context(), scope, id, &req, scope.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if version == nil {
		writeError(w, apierr.NotFound("Voice config not found"))
		return
	}

	writeJSON(w, http.StatusCreated, version)
}

// ActivateVersion godoc
// @Summary Activate a voice config version
// @Description Make the version the single active one for its config
// @Tags voice-configs
// @Produce json
// @Param id path string true "Voice config ID (UUID)" format(uuid)
// @Param versionId path string true "Version ID (UUID)" format(uuid)
// @Success 200 {object} domain.VoiceConfigVersion "Version activated"
// @Failure 404 {object} Envelope "Version not found"
// @Router /api/voice-configs/{id}/versions/{versionId}/activate [put]
func (h *VoiceConfigHandler) ActivateVersion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	version, err := h.voiceRepo.ActivateVersion(r.Context(), auth.FromContext(r.Context()), vars["id"], vars["versionId"])
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

// SetupVoiceConfigRoutes sets up all voice config routes
func (h *VoiceConfigHandler) SetupVoiceConfigRoutes(router *mux.Router) {
	router.HandleFunc("/voice-configs", h.CreateVoiceConfig).Methods("POST")
	router.HandleFunc("/voice-configs", h.GetVoiceConfigs).Methods("GET")
	router.HandleFunc("/voice-configs/{id}", h.GetVoiceConfig).Methods("GET")
	router.HandleFunc("/voice-configs/{id}", h.UpdateVoiceConfig).Methods("PUT")
	router.HandleFunc("/voice-configs/{id}", h.DeleteVoiceConfig).Methods("DELETE")

	router.HandleFunc("/voice-configs/{id}/versions", h.CreateVersion).Methods("POST")
	router.HandleFunc("/voice-configs/{id}/versions", h.GetVersions).Methods("GET")
	router.HandleFunc("/voice-configs/{id}/versions/{versionId}", h.GetVersion).Methods("GET")
	router.HandleFunc("/voice-configs/{id}/versions/{versionId}/activate", h.ActivateVersion).Methods("PUT")

	logger.Base().Info("voice config routes registered")
}
