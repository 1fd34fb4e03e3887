package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
	"github.com/ClareAI/astra-admin-console/pkg/logger"
)

// Envelope is the JSON shape of every API response
type Envelope struct {
	Success  bool            `json:"success"`
	Data     interface{}     `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
	Details  []apierr.Issue  `json:"details,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

// writeJSON writes a success envelope with the given status
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSONWarnings(w, status, data, nil)
}

// writeJSONWarnings writes a success envelope that carries warnings
func writeJSONWarnings(w http.ResponseWriter, status int, data interface{}, warnings []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{Success: true, Data: data, Warnings: warnings}); err != nil {
		logger.Base().Error("failed to encode response", zap.Error(err))
	}
}

// writeError maps a typed error to its status and writes the failure envelope
func writeError(w http.ResponseWriter, err error) {
	apiErr := apierr.From(err)
	if apiErr.Status() >= http.StatusInternalServerError {
		logger.Base().Error("request failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status())
	json.NewEncoder(w).Encode(Envelope{
		Success: false,
		Error:   apiErr.Message,
		Details: apiErr.Issues,
	})
}

// writeErrorStatus writes a failure envelope with an explicit status, for
// upstream passthrough codes outside the taxonomy
func writeErrorStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{Success: false, Error: message})
}

// decodeBody decodes a JSON request body into dst
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.Validation("Invalid request body", nil)
	}
	return nil
}
