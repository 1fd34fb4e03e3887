package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
	"github.com/ClareAI/astra-admin-console/internal/domain"
	"github.com/ClareAI/astra-admin-console/internal/repository"
	"github.com/ClareAI/astra-admin-console/pkg/logger"
)

// TenantHandler handles HTTP requests for tenants. Tenant management is only
// reachable by global users.
type TenantHandler struct {
	tenantRepo repository.TenantRepository
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantRepo repository.TenantRepository) *TenantHandler {
	return &TenantHandler{tenantRepo: tenantRepo}
}

// CreateTenant godoc
// @Summary Create a new tenant
// @Description Create a new tenant with the specified configuration
// @Tags tenants
// @Accept json
// @Produce json
// @Param tenant body domain.CreateTenantRequest true "Tenant creation request"
// @Success 201 {object} domain.Tenant "Tenant created successfully"
// @Failure 400 {object} Envelope "Invalid request body"
// @Router /api/tenants [post]
func (h *TenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTenantRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.TenantID == "" || req.TenantName == "" {
		writeError(w, apierr.Validation("Missing required fields", []apierr.Issue{
			{Field: "tenant_id", Message: "tenant_id and tenant_name are required"},
		}))
		return
	}

	tenant, err := h.tenantRepo.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tenant)
}

// GetTenant godoc
// @Summary Get tenant by ID
// @Description Retrieve a specific tenant by its unique identifier
// @Tags tenants
// @Produce json
// @Param id path string true "Tenant ID (UUID)" format(uuid)
// @Success 200 {object} domain.Tenant "Tenant found"
// @Failure 404 {object} Envelope "Tenant not found"
// @Router /api/tenants/{id} [get]
func (h *TenantHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	tenant, err := h.tenantRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if tenant == nil {
		writeError(w, apierr.NotFound("Tenant not found"))
		return
	}

	writeJSON(w, http.StatusOK, tenant)
}

// GetTenants godoc
// @Summary List all tenants
// @Description Retrieve a list of all tenants
// @Tags tenants
// @Produce json
// @Param include_disabled query boolean false "Include disabled tenants" default(false)
// @Success 200 {array} domain.Tenant "List of tenants"
// @Router /api/tenants [get]
func (h *TenantHandler) GetTenants(w http.ResponseWriter, r *http.Request) {
	includeDisabled := r.URL.Query().Get("include_disabled") == "true"

	tenants, err := h.tenantRepo.GetAll(r.Context(), includeDisabled)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tenants)
}

// UpdateTenant godoc
// @Summary Update an existing tenant
// @Description Update an existing tenant's configuration
// @Tags tenants
// @Accept json
// @Produce json
// @Param id path string true "Tenant ID (UUID)" format(uuid)
// @Param tenant body domain.UpdateTenantRequest true "Tenant update request"
// @Success 200 {object} domain.Tenant "Tenant updated successfully"
// @Failure 404 {object} Envelope "Tenant not found"
// @Router /api/tenants/{id} [put]
func (h *TenantHandler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req domain.UpdateTenantRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	tenant, err := h.tenantRepo.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if tenant == nil {
		writeError(w, apierr.NotFound("Tenant not found"))
		return
	}

	writeJSON(w, http.StatusOK, tenant)
}

// DeleteTenant godoc
// @Summary Delete a tenant
// @Description Soft delete a tenant by its ID
// @Tags tenants
// @Produce json
// @Param id path string true "Tenant ID (UUID)" format(uuid)
// @Success 200 {object} Envelope "Tenant deleted successfully"
// @Failure 404 {object} Envelope "Tenant not found"
// @Router /api/tenants/{id} [delete]
func (h *TenantHandler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	deleted, err := h.tenantRepo.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, apierr.NotFound("Tenant not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SetupTenantRoutes sets up all tenant-related routes
func (h *TenantHandler) SetupTenantRoutes(router *mux.Router) {
	router.HandleFunc("/tenants", h.CreateTenant).Methods("POST")
	router.HandleFunc("/tenants", h.GetTenants).Methods("GET")
	router.HandleFunc("/tenants/{id}", h.GetTenant).Methods("GET")
	router.HandleFunc("/tenants/{id}", h.UpdateTenant).Methods("PUT")
	router.HandleFunc("/tenants/{id}", h.DeleteTenant).Methods("DELETE")

	logger.Base().Info("tenant routes registered")
}
