package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
	"github.com/ClareAI/astra-admin-console/internal/auth"
	"github.com/ClareAI/astra-admin-console/internal/domain"
	"github.com/ClareAI/astra-admin-console/internal/repository"
	"github.com/ClareAI/astra-admin-console/pkg/logger"
)

// CallHandler handles call analytics browsing
type CallHandler struct {
	callRepo repository.CallRecordRepository
}

// NewCallHandler creates a new call handler
func NewCallHandler(callRepo repository.CallRecordRepository) *CallHandler {
	return &CallHandler{callRepo: callRepo}
}

func parseCallFilter(r *http.Request) *domain.CallFilter {
	q := r.URL.Query()
	filter := &domain.CallFilter{
		AgentID:   q.Get("agent_id"),
		Status:    q.Get("status"),
		Direction: q.Get("direction"),
	}

	if from := q.Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = t
		}
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			filter.Offset = n
		}
	}
	return filter
}

// GetCalls godoc
// @Summary List call records
// @Description Browse call records in the caller's tenant scope with filters and pagination
// @Tags calls
// @Produce json
// @Param agent_id query string false "Filter by agent"
// @Param status query string false "Filter by status"
// @Param direction query string false "Filter by direction"
// @Param from query string false "Started at or after (RFC3339)"
// @Param to query string false "Started before (RFC3339)"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {array} domain.CallRecord "List of call records"
// @Router /api/calls [get]
func (h *CallHandler) GetCalls(w http.ResponseWriter, r *http.Request) {
	records, err := h.callRepo.List(r.Context(), auth.FromContext(r.Context()), parseCallFilter(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// GetCall godoc
// @Summary Get one call record
// @Tags calls
// @Produce json
// @Param id path string true "Call record ID (UUID)" format(uuid)
// @Success 200 {object} domain.CallRecord "Call record found"
// @Failure 404 {object} Envelope "Call record not found"
// @Router /api/calls/{id} [get]
func (h *CallHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.callRepo.GetByID(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if record == nil {
		writeError(w, apierr.NotFound("Call record not found"))
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// GetCallStats godoc
// @Summary Per-agent call statistics
// @Description Aggregate call counts and durations grouped by agent
// @Tags calls
// @Produce json
// @Param agent_id query string false "Filter by agent"
// @Param from query string false "Started at or after (RFC3339)"
// @Param to query string false "Started before (RFC3339)"
// @Success 200 {array} domain.CallStats "Per-agent stats"
// @Router /api/calls/stats [get]
func (h *CallHandler) GetCallStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.callRepo.Stats(r.Context(), auth.FromContext(r.Context()), parseCallFilter(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// SetupCallRoutes sets up all call analytics routes
func (h *CallHandler) SetupCallRoutes(router *mux.Router) {
	router.HandleFunc("/calls", h.GetCalls).Methods("GET")
	router.HandleFunc("/calls/stats", h.GetCallStats).Methods("GET")
	router.HandleFunc("/calls/{id}", h.GetCall).Methods("GET")

	logger.Base().Info("call routes registered")
}
