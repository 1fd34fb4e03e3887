package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ClareAI/astra-admin-console/pkg/logger"
)

// OutboundCallRequest starts an outbound call through the orchestrator
type OutboundCallRequest struct {
	AgentID     string `json:"agent_id"`
	PhoneNumber string `json:"phone_number"`
	TenantID    string `json:"tenant_id"`
}

// OutboundCallResponse is the orchestrator's acknowledgement of a queued call
type OutboundCallResponse struct {
	CallID string `json:"call_id"`
	Status string `json:"status"`
}

// RAGQueryRequest runs a retrieval query against an agent's knowledge base
type RAGQueryRequest struct {
	AgentID  string `json:"agent_id"`
	TenantID string `json:"tenant_id"`
	Query    string `json:"query"`
	TopK     int    `json:"top_k,omitempty"`
}

// RAGQueryResult is one retrieved document
type RAGQueryResult struct {
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score"`
}

// RAGQueryResponse is the orchestrator's retrieval response
type RAGQueryResponse struct {
	Query   string           `json:"query"`
	Results []RAGQueryResult `json:"results"`
}

// ChatSession represents a text chat session on the orchestrator
type ChatSession struct {
	SessionID string `json:"session_id"`
	AgentID   string `json:"agent_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ChatMessageRequest sends one user message into a chat session
type ChatMessageRequest struct {
	Message string `json:"message"`
}

// ChatMessageResponse carries the agent's reply
type ChatMessageResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	NodeID    string `json:"node_id,omitempty"`
}

// ImportResult reports the outcome of an agent import
type ImportResult struct {
	AgentID string   `json:"agent_id,omitempty"`
	Name    string   `json:"name"`
	DryRun  bool     `json:"dry_run"`
	Issues  []string `json:"issues,omitempty"`
}

// Client is the console's view of the orchestrator Admin and Text Chat APIs
type Client interface {
	InitiateOutboundCall(ctx context.Context, req *OutboundCallRequest) (*OutboundCallResponse, error)
	QueryRAG(ctx context.Context, req *RAGQueryRequest) (*RAGQueryResponse, error)
	RefreshConfigCache(ctx context.Context, tenantID, agentID string) error

	CreateChatSession(ctx context.Context, tenantID, agentID string) (*ChatSession, error)
	GetChatSession(ctx context.Context, tenantID, sessionID string) (*ChatSession, error)
	SendChatMessage(ctx context.Context, tenantID, sessionID string, req *ChatMessageRequest) (*ChatMessageResponse, error)
	EndChatSession(ctx context.Context, tenantID, sessionID string) error

	ExportAgent(ctx context.Context, tenantID, agentID string) (json.RawMessage, error)
	ImportAgent(ctx context.Context, tenantID string, bundle json.RawMessage, dryRun bool) (*ImportResult, error)
	BulkImportAgents(ctx context.Context, tenantID string, bundles json.RawMessage, dryRun bool) ([]*ImportResult, error)

	IsConfigured() bool
}

// HTTPClient implements Client over signed HTTP
type HTTPClient struct {
	baseURL string
	signer  *Signer
	client  *http.Client
}

// NewHTTPClient creates an orchestrator client. Timeout bounds every call;
// there are no retries.
func NewHTTPClient(baseURL, keyID, secret string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		signer:  NewSigner(keyID, secret),
		client:  &http.Client{Timeout: timeout},
	}
}

// IsConfigured returns true when the client has a base URL and secret
func (c *HTTPClient) IsConfigured() bool {
	return c.baseURL != "" && len(c.signer.secret) > 0
}

// errorBody is the orchestrator's error envelope
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.signer.Sign(req, body)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach orchestrator: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read orchestrator response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		var parsed errorBody
		if json.Unmarshal(respBody, &parsed) == nil {
			if parsed.Message != "" {
				msg = parsed.Message
			} else if parsed.Error != "" {
				msg = parsed.Error
			}
		}
		return &UpstreamError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], respBody...)
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode orchestrator response: %w", err)
	}
	return nil
}

// InitiateOutboundCall queues an outbound call on the orchestrator
func (c *HTTPClient) InitiateOutboundCall(ctx context.Context, req *OutboundCallRequest) (*OutboundCallResponse, error) {
	var out OutboundCallResponse
	if err := c.do(ctx, http.MethodPost, "/admin/v1/calls/outbound", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryRAG runs a retrieval query against an agent's knowledge base
func (c *HTTPClient) QueryRAG(ctx context.Context, req *RAGQueryRequest) (*RAGQueryResponse, error) {
	var out RAGQueryResponse
	if err := c.do(ctx, http.MethodPost, "/admin/v1/rag/query", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshConfigCache asks the orchestrator to reload an agent's active
// configuration. Callers treat a failure here as best-effort.
func (c *HTTPClient) RefreshConfigCache(ctx context.Context, tenantID, agentID string) error {
	payload := map[string]string{"tenant_id": tenantID, "agent_id": agentID}
	err := c.do(ctx, http.MethodPost, "/admin/v1/config/refresh", payload, nil)
	if err != nil {
		logger.Base().Warn("orchestrator config refresh failed",
			zap.String("agent_id", agentID),
			zap.Error(err))
	}
	return err
}

// CreateChatSession opens a text chat session for an agent
func (c *HTTPClient) CreateChatSession(ctx context.Context, tenantID, agentID string) (*ChatSession, error) {
	payload := map[string]string{"tenant_id": tenantID, "agent_id": agentID}
	var out ChatSession
	if err := c.do(ctx, http.MethodPost, "/chat/v1/sessions", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetChatSession retrieves a chat session's state
func (c *HTTPClient) GetChatSession(ctx context.Context, tenantID, sessionID string) (*ChatSession, error) {
	var out ChatSession
	path := fmt.Sprintf("/chat/v1/sessions/%s?tenant_id=%s", sessionID, tenantID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendChatMessage sends one message into a chat session and returns the reply
func (c *HTTPClient) SendChatMessage(ctx context.Context, tenantID, sessionID string, req *ChatMessageRequest) (*ChatMessageResponse, error) {
	payload := map[string]string{"tenant_id": tenantID, "message": req.Message}
	var out ChatMessageResponse
	path := fmt.Sprintf("/chat/v1/sessions/%s/messages", sessionID)
	if err := c.do(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EndChatSession closes a chat session
func (c *HTTPClient) EndChatSession(ctx context.Context, tenantID, sessionID string) error {
	path := fmt.Sprintf("/chat/v1/sessions/%s?tenant_id=%s", sessionID, tenantID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ExportAgent returns the orchestrator's snake_case agent bundle untouched
func (c *HTTPClient) ExportAgent(ctx context.Context, tenantID, agentID string) (json.RawMessage, error) {
	var out json.RawMessage
	path := fmt.Sprintf("/admin/v1/agents/%s/export?tenant_id=%s", agentID, tenantID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ImportAgent submits one agent bundle. With dryRun the orchestrator
// validates without persisting.
func (c *HTTPClient) ImportAgent(ctx context.Context, tenantID string, bundle json.RawMessage, dryRun bool) (*ImportResult, error) {
	payload := map[string]interface{}{
		"tenant_id": tenantID,
		"bundle":    bundle,
		"dry_run":   dryRun,
	}
	var out ImportResult
	if err := c.do(ctx, http.MethodPost, "/admin/v1/agents/import", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkImportAgents submits several agent bundles in one request
func (c *HTTPClient) BulkImportAgents(ctx context.Context, tenantID string, bundles json.RawMessage, dryRun bool) ([]*ImportResult, error) {
	payload := map[string]interface{}{
		"tenant_id": tenantID,
		"bundles":   bundles,
		"dry_run":   dryRun,
	}
	var out struct {
		Results []*ImportResult `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/admin/v1/agents/import/bulk", payload, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
