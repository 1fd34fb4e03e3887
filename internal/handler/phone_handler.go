package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/domain"
	"github.com/ClareAI/astra-admin-console/internal/repository"
	"github.com/ClareAI/astra-admin-console/internal/validation"
	"github.com/ClareAI/astra-admin-console/pkg/logger"
)

// PhoneHandler handles HTTP requests for phone configs and their agent
// mappings
type PhoneHandler struct {
	phoneRepo repository.PhoneConfigRepository
}

// NewPhoneHandler creates a new phone handler
func NewPhoneHandler(phoneRepo repository.PhoneConfigRepository) *PhoneHandler {
	return &PhoneHandler{phoneRepo: phoneRepo}
}

// CreatePhoneConfig godoc
// @Summary Create a new phone config
// @Description Register an E.164 phone number in the caller's tenant
// @Tags phone-configs
// @Accept json
// @Produce json
// @Param config body domain.CreatePhoneConfigRequest true "Phone config creation request"
// @Success 201 {object} domain.PhoneConfig "Phone config created"
// @Failure 400 {object} Envelope "Invalid phone number"
// @Failure 409 {object} Envelope "Number already registered for this tenant"
// @Router /api/phone-configs [post]
func (h *PhoneHandler) CreatePhoneConfig(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePhoneConfigRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if issues := validation.ValidatePhoneNumber(req.PhoneNumber); len(issues) > 0 {
		writeError(w, apierr.Validation("Invalid phone number", issues))
		return
	}

	cfg, err := h.phoneRepo.Create(r.Context(), auth.FromContext(r.Context()), &req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePhoneNumber) {
			writeError(w, apierr.Conflict("A phone config with this number already exists"))
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, cfg)
}

// GetPhoneConfig godoc
// @Summary Get phone config by ID
// @Tags phone-configs
// @Produce json
// @Param id path string true "Phone config ID (UUID)" format(uuid)
// @Success 200 {object} domain.PhoneConfig "Phone config found"
// @Failure 404 {object} Envelope "Phone config not found"
// @Router /api/phone-configs/{id} [get]
func (h *PhoneHandler) GetPhoneConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	cfg, err := h.phoneRepo.GetByID(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if cfg == nil {
		writeError(w, apierr.NotFound("Phone config not found"))
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// GetPhoneConfigs godoc
// @Summary List phone configs
// @Tags phone-configs
// @Produce json
// @Param include_inactive query boolean false "Include inactive configs" default(false)
// @Success 200 {array} domain.PhoneConfig "List of phone configs"
// @Router /api/phone-configs [get]
func (h *PhoneHandler) GetPhoneConfigs(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	configs, err := h.phoneRepo.List(r.Context(), auth.FromContext(r.Context()), includeInactive)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, configs)
}

// UpdatePhoneConfig godoc
// @Summary Update phone config metadata
// @Description Update a phone config's name, description or active flag. The number itself is immutable.
// @Tags phone-configs
// @Accept json
// @Produce json
// @Param id path string true "Phone config ID (UUID)" format(uuid)
// @Param config body domain.UpdatePhoneConfigRequest true "Phone config update request"
// @Success 200 {object} domain.PhoneConfig "Phone config updated"
// @Failure 404 {object} Envelope "Phone config not found"
// @Router /api/phone-configs/{id} [put]
func (h *PhoneHandler) UpdatePhoneConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req domain.UpdatePhoneConfigRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	cfg, err := h.phoneRepo.Update(r.Context(), auth.FromContext(r.Context()), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if cfg == nil {
		writeError(w, apierr.NotFound("Phone config not found"))
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// DeletePhoneConfig godoc
// @Summary Delete a phone config
// @Description Deactivate a phone config and remove its agent mapping. The number stays reserved for the tenant.
// @Tags phone-configs
// @Produce json
// @Param id path string true "Phone config ID (UUID)" format(uuid)
// @Success 200 {object} Envelope "Phone config deleted"
// @Failure 404 {object} Envelope "Phone config not found"
// @Router /api/phone-configs/{id} [delete]
func (h *PhoneHandler) DeletePhoneConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	deleted, err := h.phoneRepo.Delete(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, apierr.NotFound("Phone config not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CreateMapping godoc
// @Summary Map a phone config to an agent
// @Description Route calls on a phone number to an agent. Each phone config carries at most one mapping.
// @Tags phone-mappings
// @Accept json
// @Produce json
// @Param mapping body domain.CreatePhoneMappingRequest true "Mapping creation request"
// @Success 201 {object} domain.PhoneConfigMapping "Mapping created"
// @Failure 404 {object} Envelope "Phone config or agent not found"
// @Failure 409 {object} Envelope "Phone config already mapped"
// @Router /api/phone-mappings [post]
func (h *PhoneHandler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePhoneMappingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PhoneConfigID == "" || req.AgentID == "" {
		writeError(w, apierr.Validation("Missing required fields", []apierr.Issue{
			{Field: "phone_config_id", Message: "phone_config_id and agent_id are required"},
		}))
		return
	}

	mapping, err := h.phoneRepo.CreateMapping(r.Context(), auth.FromContext(r.Context()), &req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateMapping) {
			writeError(w, apierr.Conflict("This phone config is already mapped to an agent"))
			return
		}
		writeError(w, err)
		return
	}
	if mapping == nil {
		writeError(w, apierr.NotFound("Phone config or agent not found"))
		return
	}

	writeJSON(w, http.StatusCreated, mapping)
}

// GetMappings godoc
// @Summary List phone-to-agent mappings
// @Tags phone-mappings
// @Produce json
// @Success 200 {array} domain.PhoneConfigMapping "List of mappings"
// @Router /api/phone-mappings [get]
func (h *PhoneHandler) GetMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.phoneRepo.ListMappings(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mappings)
}

// DeleteMapping godoc
// @Summary Delete a phone-to-agent mapping
// @Tags phone-mappings
// @Produce json
// @Param id path string true "Mapping ID (UUID)" format(uuid)
// @Success 200 {object} Envelope "Mapping deleted"
// @Failure 404 {object} Envelope "Mapping not found"
// @Router /api/phone-mappings/{id} [delete]
func (h *PhoneHandler) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	deleted, err := h.phoneRepo.DeleteMapping(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, apierr.NotFound("Mapping not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SetupPhoneRoutes sets up all phone config and mapping routes
func (h *PhoneHandler) SetupPhoneRoutes(router *mux.Router) {
	router.HandleFunc("/phone-configs", h.CreatePhoneConfig).Methods("POST")
	router.HandleFunc("/phone-configs", h.GetPhoneConfigs).Methods("GET")
	router.HandleFunc("/phone-configs/{id}", h.GetPhoneConfig).Methods("GET")
	router.HandleFunc("/phone-configs/{id}", h.UpdatePhoneConfig).Methods("PUT")
	router.HandleFunc("/phone-configs/{id}", h.DeletePhoneConfig).Methods("DELETE")

	router.HandleFunc("/phone-mappings", h.CreateMapping).Methods("POST")
	router.HandleFunc("/phone-mappings", h.GetMappings).Methods("GET")
	router.HandleFunc("/phone-mappings/{id}", h.DeleteMapping).Methods("DELETE")

	logger.Base().Info("phone routes registered")
}
