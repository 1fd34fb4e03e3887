package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/orchestrator"
	"github.com/ClareAI/astra-admin-console/internal/repository"
	"github.com/ClareAI/astra-admin-console/internal/validation"
	"github.com/ClareAI/astra-admin-console/pkg/logger"
)

// ProxyHandler forwards execution requests to the orchestrator after
// verifying tenant ownership locally
type ProxyHandler struct {
	orchestrator orchestrator.Client
	agentRepo    repository.AgentRepository
}

// NewProxyHandler creates a new proxy handler
func NewProxyHandler(client orchestrator.Client, agentRepo repository.AgentRepository) *ProxyHandler {
	return &ProxyHandler{orchestrator: client, agentRepo: agentRepo}
}

// writeUpstreamError maps orchestrator failures onto console statuses
func writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, orchestrator.ErrNotConfigured) {
		writeError(w, apierr.UpstreamNotConfigured("Orchestrator is not configured"))
		return
	}

	var upstream *orchestrator.UpstreamError
	if errors.As(err, &upstream) {
		writeErrorStatus(w, upstream.HTTPStatus(), upstream.Message)
		return
	}

	writeError(w, apierr.Upstream("Orchestrator request failed", err))
}

// ownAgent loads the agent within the caller's tenant scope, or nil
func (h *ProxyHandler) ownAgent(w http.ResponseWriter, r *http.Request, agentID string) bool {
	agent, err := h.agentRepo.GetByID(r.Context(), auth.FromContext(r.Context()), agentID)
	if err != nil {
		writeError(w, err)
		return false
	}
	if agent == nil {
		writeError(w, apierr.NotFound("Agent not found"))
		return false
	}
	return true
}

// OutboundCallBody is the console-side request for an outbound call
type OutboundCallBody struct {
	PhoneNumber string `json:"phone_number"`
}

// InitiateOutboundCall godoc
// @Summary Start an outbound call
// @Description Ask the orchestrator to place an outbound call with the agent's active configuration
// @Tags proxy
// @Accept json
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Param call body OutboundCallBody true "Destination number"
// @Success 202 {object} orchestrator.OutboundCallResponse "Call queued"
// @Failure 503 {object} Envelope "Orchestrator not configured"
// @Router /api/agents/{id}/calls/outbound [post]
func (h *ProxyHandler) InitiateOutboundCall(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]
	scope := auth.FromContext(r.Context())

	var body OutboundCallBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if issues := validation.ValidatePhoneNumber(body.PhoneNumber); len(issues) > 0 {
		writeError(w, apierr.Validation("Invalid phone number", issues))
		return
	}

	if !h.ownAgent(w, r, agentID) {
		return
	}

	resp, err := h.orchestrator.InitiateOutboundCall(r.Context(), &orchestrator.OutboundCallRequest{
		AgentID:     agentID,
		PhoneNumber: body.PhoneNumber,
		TenantID:    scope.TenantID,
	})
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, resp)
}

// RAGQueryBody is the console-side retrieval query
type RAGQueryBody struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// QueryRAG godoc
// @Summary Run a retrieval query
// @Description Query the agent's knowledge base through the orchestrator
// @Tags proxy
// @Accept json
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Param query body RAGQueryBody true "Retrieval query"
// @Success 200 {object} orchestrator.RAGQueryResponse "Retrieved documents"
// @Failure 503 {object} Envelope "Orchestrator not configured"
// @Router /api/agents/{id}/rag/query [post]
func (h *ProxyHandler) QueryRAG(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]
	scope := auth.FromContext(r.Context())

	var body RAGQueryBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Query == "" {
		writeError(w, apierr.Validation("Missing required fields", []apierr.Issue{
			{Field: "query", Message: "query is required"},
		}))
		return
	}

	if !h.ownAgent(w, r, agentID) {
		return
	}

	resp, err := h.orchestrator.QueryRAG(r.Context(), &orchestrator.RAGQueryRequest{
		AgentID:  agentID,
		TenantID: scope.TenantID,
		Query:    body.Query,
		TopK:     body.TopK,
	})
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateChatSession godoc
// @Summary Open a text chat session
// @Description Start a text chat with the agent's active configuration
// @Tags proxy
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Success 201 {object} orchestrator.ChatSession "Session created"
// @Failure 503 {object} Envelope "Orchestrator not configured"
// @Router /api/agents/{id}/chat/sessions [post]
func (h *ProxyHandler) CreateChatSession(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]
	scope := auth.FromContext(r.Context())

	if !h.ownAgent(w, r, agentID) {
		return
	}

	session, err := h.orchestrator.CreateChatSession(r.Context(), scope.TenantID, agentID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// GetChatSession godoc
// @Summary Get a chat session
// @Tags proxy
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Param sid path string true "Session ID"
// @Success 200 {object} orchestrator.ChatSession "Session state"
// @Failure 410 {object} Envelope "Session expired"
// @Router /api/agents/{id}/chat/sessions/{sid} [get]
func (h *ProxyHandler) GetChatSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	scope := auth.FromContext(r.Context())

	if !h.ownAgent(w, r, vars["id"]) {
		return
	}

	session, err := h.orchestrator.GetChatSession(r.Context(), scope.TenantID, vars["sid"])
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// SendChatMessage godoc
// @Summary Send a chat message
// @Description Send one message into a chat session and return the agent's reply
// @Tags proxy
// @Accept json
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Param sid path string true "Session ID"
// @Param message body orchestrator.ChatMessageRequest true "Message"
// @Success 200 {object} orchestrator.ChatMessageResponse "Agent reply"
// @Failure 410 {object} Envelope "Session expired"
// @Router /api/agents/{id}/chat/sessions/{sid}/messages [post]
func (h *ProxyHandler) SendChatMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	scope := auth.FromContext(r.Context())

	var body orchestrator.ChatMessageRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Message == "" {
		writeError(w, apierr.Validation("Missing required fields", []apierr.Issue{
			{Field: "message", Message: "message is required"},
		}))
		return
	}

	if !h.ownAgent(w, r, vars["id"]) {
		return
	}

	resp, err := h.orchestrator.SendChatMessage(r.Context(), scope.TenantID, vars["sid"], &body)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// EndChatSession godoc
// @Summary End a chat session
// @Tags proxy
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Param sid path string true "Session ID"
// @Success 200 {object} Envelope "Session ended"
// @Router /api/agents/{id}/chat/sessions/{sid} [delete]
func (h *ProxyHandler) EndChatSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	scope := auth.FromContext(r.Context())

	if !h.ownAgent(w, r, vars["id"]) {
		return
	}

	if err := h.orchestrator.EndChatSession(r.Context(), scope.TenantID, vars["sid"]); err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

// ExportAgent godoc
// @Summary Export an agent bundle
// @Description Return the orchestrator's snake_case export of the agent. format=camel translates to the console shape.
// @Tags proxy
// @Produce json
// @Param id path string true "Agent ID (UUID)" format(uuid)
// @Param format query string false "Response shape: wire or camel" default(wire)
// @Success 200 {object} orchestrator.AgentBundle "Exported bundle"
// @Failure 503 {object} Envelope "Orchestrator not configured"
// @Router /api/agents/{id}/export [get]
func (h *ProxyHandler) ExportAgent(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]
	scope := auth.FromContext(r.Context())

	if !h.ownAgent(w, r, agentID) {
		return
	}

	raw, err := h.orchestrator.ExportAgent(r.Context(), scope.TenantID, agentID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "camel" {
		var bundle orchestrator.AgentBundle
		if err := json.Unmarshal(raw, &bundle); err != nil {
			writeError(w, apierr.Upstream("Orchestrator returned an invalid bundle", err))
			return
		}
		writeJSON(w, http.StatusOK, bundle.ToView())
		return
	}

	// Default: pass the bundle through in the orchestrator's wire shape
	writeJSON(w, http.StatusOK, raw)
}

// ImportAgentBody wraps one bundle for import
type ImportAgentBody struct {
	Bundle json.RawMessage `json:"bundle"`
}

// ImportAgent godoc
// @Summary Import an agent bundle
// @Description Submit an exported bundle to the orchestrator; dry_run validates without persisting. format=camel accepts the console bundle shape.
// @Tags proxy
// @Accept json
// @Produce json
// @Param dry_run query boolean false "Validate only" default(false)
// @Param format query string false "Bundle shape: wire or camel" default(wire)
// @Param bundle body ImportAgentBody true "Agent bundle"
// @Success 200 {object} orchestrator.ImportResult "Import result"
// @Failure 503 {object} Envelope "Orchestrator not configured"
// @Router /api/agents/import [post]
func (h *ProxyHandler) ImportAgent(w http.ResponseWriter, r *http.Request) {
	scope := auth.FromContext(r.Context())
	dryRun := r.URL.Query().Get("dry_run") == "true"

	var body ImportAgentBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if len(body.Bundle) == 0 {
		writeError(w, apierr.Validation("Missing required fields", []apierr.Issue{
			{Field: "bundle", Message: "bundle is required"},
		}))
		return
	}

	bundle := body.Bundle
	if r.URL.Query().Get("format") == "camel" {
		var view orchestrator.AgentBundleView
		if err := json.Unmarshal(body.Bundle, &view); err != nil {
			writeError(w, apierr.Validation("Invalid request body", []apierr.Issue{
				{Field: "bundle", Message: "bundle is not a valid agent bundle"},
			}))
			return
		}
		wire, err := json.Marshal(view.ToWire())
		if err != nil {
			writeError(w, apierr.Internal(err))
			return
		}
		bundle = wire
	}

	result, err := h.orchestrator.ImportAgent(r.Context(), scope.TenantID, bundle, dryRun)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// BulkImportBody wraps several bundles for import
type BulkImportBody struct {
	Bundles json.RawMessage `json:"bundles"`
}

// BulkImportAgents godoc
// @Summary Import several agent bundles
// @Tags proxy
// @Accept json
// @Produce json
// @Param dry_run query boolean false "Validate only" default(false)
// @Param bundles body BulkImportBody true "Agent bundles"
// @Success 200 {array} orchestrator.ImportResult "Per-bundle results"
// @Failure 503 {object} Envelope "Orchestrator not configured"
// @Router /api/agents/import/bulk [post]
func (h *ProxyHandler) BulkImportAgents(w http.ResponseWriter, r *http.Request) {
	scope := auth.FromContext(r.Context())
	dryRun := r.URL.Query().Get("dry_run") == "true"

	var body BulkImportBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if len(body.Bundles) == 0 {
		writeError(w, apierr.Validation("Missing required fields", []apierr.Issue{
			{Field: "bundles", Message: "bundles is required"},
		}))
		return
	}

	results, err := h.orchestrator.BulkImportAgents(r.Context(), scope.TenantID, body.Bundles, dryRun)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// SetupProxyRoutes sets up all orchestrator-proxied routes
func (h *ProxyHandler) SetupProxyRoutes(router *mux.Router) {
	router.HandleFunc("/agents/import", h.ImportAgent).Methods("POST")
	router.HandleFunc("/agents/import/bulk", h.BulkImportAgents).Methods("POST")
	router.HandleFunc("/agents/{id}/export", h.ExportAgent).Methods("GET")
	router.HandleFunc("/agents/{id}/calls/outbound", h.InitiateOutboundCall).Methods("POST")
	router.HandleFunc("/agents/{id}/rag/query", h.QueryRAG).Methods("POST")
	router.HandleFunc("/agents/{id}/chat/sessions", h.CreateChatSession).Methods("POST")
	router.HandleFunc("/agents/{id}/chat/sessions/{sid}", h.GetChatSession).Methods("GET")
	router.HandleFunc("/agents/{id}/chat/sessions/{sid}", h.EndChatSession).Methods("DELETE")
	router.HandleFunc("/agents/{id}/chat/sessions/{sid}/messages", h.SendChatMessage).Methods("POST")

	logger.Base().Info("proxy routes registered")
}
