package orchestrator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotConfigured is returned when the orchestrator base URL or signing
// secret is missing. Handlers map it to 503.
var ErrNotConfigured = errors.New("orchestrator is not configured")

// UpstreamError carries a non-2xx orchestrator response
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("orchestrator returned %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus maps an upstream failure to the status the console should
// return. Resource-shaped failures pass through; everything else is a bad
// gateway.
func (e *UpstreamError) HTTPStatus() int {
	msg := strings.ToLower(e.Message)
	switch {
	case e.StatusCode == http.StatusNotFound || strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "not active"), strings.Contains(msg, "expired"):
		return http.StatusGone
	case e.StatusCode == http.StatusBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
